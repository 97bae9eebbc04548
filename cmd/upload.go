package cmd

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/marcelo-dos-santos/walmart-codes/internal/utils"
	"github.com/marcelo-dos-santos/walmart-codes/pkg/pipeline"
	"github.com/marcelo-dos-santos/walmart-codes/pkg/rates"
	"github.com/marcelo-dos-santos/walmart-codes/pkg/sheet"
	"github.com/marcelo-dos-santos/walmart-codes/pkg/storage"
)

// uploadCmd represents the upload command
var uploadCmd = &cobra.Command{
	Use:   "upload <workbook>",
	Short: "Submits an edited rate sheet and writes a sheet with the remarks.",
	Long: `Submits the rows of an edited rate sheet (.xlsx, .xls or .csv). Rows that fail
validation are not sent. Every row comes back in the remarks sheet with the
service verdict or the validation error.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		in := args[0]
		out, _ := cmd.Flags().GetString("output")
		noJournal, _ := cmd.Flags().GetBool("no-journal")
		if out == "" {
			out = strings.TrimSuffix(in, filepath.Ext(in)) + "_remarks.xlsx"
		}

		s, err := filterFromFlags(cmd)
		if err != nil {
			return err
		}

		f, err := os.Open(in)
		if err != nil {
			return err
		}
		rows, err := sheet.ReadRows(f, in)
		f.Close()
		if err != nil {
			return err
		}

		client, err := newClient()
		if err != nil {
			return err
		}
		ctx := context.Background()
		res, _, err := loadResolver(ctx, client, idOf(s, rates.MarketID), idOf(s, rates.ElementID))
		if err != nil {
			return err
		}

		cfg := pipeline.UploadConfig{
			Submitter: client,
			Base:      s,
			Resolver:  res,
			FileName:  filepath.Base(in),
			Log:       utils.Log,
		}
		if !noJournal {
			path, err := utils.JournalPath(viper.GetString("journal.path"))
			if err != nil {
				return err
			}
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return err
			}
			unlock, err := utils.LockJournal(ctx, path)
			if err != nil {
				return err
			}
			defer unlock()

			db, err := storage.Open(path)
			if err != nil {
				return err
			}
			defer db.Close()
			cfg.Journal = db
		}

		result, err := pipeline.Upload(ctx, cfg, rows)
		if err != nil {
			return err
		}
		if err := writeSheet(out, sheet.RemarksSheet, result.Rows); err != nil {
			return err
		}

		utils.Log.Infof("Submitted %d rows, %d rejected; remarks in %s", len(result.Import.Records), result.Failed(), out)
		if len(result.Expired) > 0 {
			utils.Log.Warnf("%d submitted rows terminate before today: %v", len(result.Expired), result.Expired)
		}
		if result.BatchID != "" {
			utils.Log.Infof("Journal batch %s", result.BatchID)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(uploadCmd)
	addFilterFlags(uploadCmd)
	uploadCmd.Flags().StringP("output", "o", "", "Remarks workbook (default <input>_remarks.xlsx)")
	uploadCmd.Flags().Bool("no-journal", false, "Do not record the upload in the journal")
}
