package sheet

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

// Default sheet names.
const (
	RatesSheet   = "rates"
	RemarksSheet = "rates_with_remarks"
	maxXLSRows   = 100000
)

// ErrEmptySheet is returned when a workbook has no header row.
var ErrEmptySheet = errors.New("worksheet is empty")

// NewWorkbook writes rows to a single-sheet workbook. The header row comes
// from Headers and is set in bold.
func NewWorkbook(sheetName string, rows []Row) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, err
	}

	headers := Headers(rows)
	head := make([]any, len(headers))
	for i, h := range headers {
		head[i] = h
	}
	if err := f.SetSheetRow(sheetName, "A1", &head); err != nil {
		return nil, err
	}
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		_ = f.SetRowStyle(sheetName, 1, 1, style)
	}

	for i, r := range rows {
		vals := make([]any, len(headers))
		for j, h := range headers {
			vals[j] = r[h]
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheetName, cell, &vals); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// WriteWorkbook encodes rows as an .xlsx document on w.
func WriteWorkbook(w io.Writer, sheetName string, rows []Row) error {
	f, err := NewWorkbook(sheetName, rows)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	_, err = f.WriteTo(w)
	return err
}

// ReadRows reads the first sheet of a workbook into header-keyed rows. The
// format follows filename's extension: .xls, .csv, anything else is opened
// as .xlsx. Cells are read unformatted, so date cells come back as serials.
// Blank rows are kept as empty rows, so rows[i] is always sheet row i+2.
func ReadRows(r io.Reader, filename string) ([]Row, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var grid [][]string
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xls":
		wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
		if err != nil {
			return nil, err
		}
		if wb.NumSheets() == 0 {
			return nil, fmt.Errorf("no worksheet found")
		}
		grid = wb.ReadAllCells(maxXLSRows)
	case ".csv":
		if grid, err = readCSV(data); err != nil {
			return nil, err
		}
	default:
		f, err := excelize.OpenReader(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		defer func() { _ = f.Close() }()

		name := f.GetSheetName(0)
		if name == "" {
			return nil, fmt.Errorf("no worksheet found")
		}
		if grid, err = f.GetRows(name, excelize.Options{RawCellValue: true}); err != nil {
			return nil, err
		}
	}
	return gridRows(grid)
}

// readCSV reads every record, putting back the empty lines encoding/csv
// skips so that record positions match line numbers after the header.
func readCSV(data []byte) ([][]string, error) {
	cr := csv.NewReader(bytes.NewReader(data))
	cr.FieldsPerRecord = -1
	var (
		grid       [][]string
		headerLine int
	)
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			return grid, nil
		}
		if err != nil {
			return nil, err
		}
		line, _ := cr.FieldPos(0)
		if grid == nil {
			headerLine = line
		}
		for len(grid) < line-headerLine {
			grid = append(grid, nil)
		}
		grid = append(grid, rec)
	}
}

func gridRows(grid [][]string) ([]Row, error) {
	if len(grid) == 0 {
		return nil, ErrEmptySheet
	}
	headers := make([]string, len(grid[0]))
	for i, h := range grid[0] {
		headers[i] = strings.TrimSpace(h)
	}

	rows := make([]Row, 0, len(grid)-1)
	for _, line := range grid[1:] {
		row := Row{}
		for i, v := range line {
			if i >= len(headers) || headers[i] == "" {
				continue
			}
			row[headers[i]] = strings.TrimSpace(v)
		}
		rows = append(rows, row)
	}
	return rows, nil
}
