package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/marcelo-dos-santos/walmart-codes/internal/utils"
	"github.com/marcelo-dos-santos/walmart-codes/pkg/catalog"
	"github.com/marcelo-dos-santos/walmart-codes/pkg/filter"
	"github.com/marcelo-dos-santos/walmart-codes/pkg/labels"
	"github.com/marcelo-dos-santos/walmart-codes/pkg/rates"
	"github.com/marcelo-dos-santos/walmart-codes/pkg/ratesvc"
	"github.com/marcelo-dos-santos/walmart-codes/pkg/sheet"
)

func newClient() (*ratesvc.Client, error) {
	baseURL := viper.GetString("service.baseurl")
	if baseURL == "" {
		return nil, errors.New("service.baseurl is not configured")
	}
	headers := utils.SplitKeyValues(viper.GetStringSlice("service.headers"))
	return ratesvc.NewClient(baseURL, headers, viper.GetInt("service.retries"), viper.GetDuration("service.timeout")), nil
}

// marketOptions returns the purchase companies from the config file.
func marketOptions() catalog.Options {
	var opts catalog.Options
	if err := viper.UnmarshalKey("markets", &opts); err != nil {
		utils.Log.Warnf("Ignoring malformed markets list: %v", err)
		return nil
	}
	return opts
}

// loadResolver fetches the market's filters and builds a resolver over them.
func loadResolver(ctx context.Context, client *ratesvc.Client, marketID, elementID int64) (*labels.Resolver, *catalog.Filters, error) {
	filters, err := client.GetFilters(ctx, marketID)
	if err != nil {
		return nil, nil, fmt.Errorf("fetching filters for market %d: %w", marketID, err)
	}
	for _, e := range filters.Dropped {
		utils.Log.Debugf("Dropped duplicate catalog code %s (%s)", e.Code, e.Label)
	}
	factors := filters.AllFactorOptions()
	if elementID != 0 {
		factors = filters.FactorOptions(elementID)
	}
	return &labels.Resolver{
		Catalog:  filters.Catalog,
		Markets:  marketOptions(),
		Elements: filters.ElementOptions(),
		Factors:  factors,
	}, filters, nil
}

func addFilterFlags(cmd *cobra.Command) {
	cmd.Flags().Int64P("market", "m", 0, "Purchase company (market) id")
	cmd.Flags().Int64P("element", "e", 0, "Element id")
	cmd.Flags().Int64P("factor", "f", 0, "Factor (element subtype) id")
	cmd.Flags().StringArrayP("set", "s", nil, "Fix another filter field, e.g. --set department_id=10 (repeatable)")
	_ = cmd.MarkFlagRequired("market")
}

// filterFromFlags builds the sparse filter given on the command line.
func filterFromFlags(cmd *cobra.Command) (filter.Sparse, error) {
	s := filter.Sparse{}
	for _, f := range []struct{ flag, field string }{
		{"market", rates.MarketID},
		{"element", rates.ElementID},
		{"factor", rates.ElementSubtypeID},
	} {
		if n, _ := cmd.Flags().GetInt64(f.flag); n != 0 {
			s[f.field] = catalog.CodeFromInt(n)
		}
	}
	sets, _ := cmd.Flags().GetStringArray("set")
	for _, kv := range sets {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			return nil, fmt.Errorf("bad --set %q, expected field=code", kv)
		}
		k = strings.TrimSpace(k)
		if _, known := rates.FieldByName(k); !known {
			return nil, fmt.Errorf("unknown filter field %q", k)
		}
		s[k] = catalog.Code(strings.TrimSpace(v))
	}
	return s, nil
}

func idOf(s filter.Sparse, field string) int64 {
	c, ok := s.Get(field)
	if !ok {
		return 0
	}
	n, _ := c.Int()
	return n
}

// writeSheet writes rows to path as a single-sheet workbook.
func writeSheet(path, sheetName string, rows []sheet.Row) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := sheet.WriteWorkbook(f, sheetName, rows); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
