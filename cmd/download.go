package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/marcelo-dos-santos/walmart-codes/internal/utils"
	"github.com/marcelo-dos-santos/walmart-codes/pkg/filter"
	"github.com/marcelo-dos-santos/walmart-codes/pkg/pipeline"
	"github.com/marcelo-dos-santos/walmart-codes/pkg/rates"
	"github.com/marcelo-dos-santos/walmart-codes/pkg/sheet"
)

// downloadCmd represents the download command
var downloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Downloads the rates matching a filter into a spreadsheet.",
	Long: `Downloads the rates matching a filter into a labelled spreadsheet. Unfixed
dimensions the factor depends on are expanded into one lookup per value and
run concurrently. When no rate matches, a template is written instead.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out, _ := cmd.Flags().GetString("output")
		all, _ := cmd.Flags().GetBool("all")
		activeOnly, _ := cmd.Flags().GetBool("active-only")
		concurrency, _ := cmd.Flags().GetInt("concurrency")
		if !cmd.Flags().Changed("concurrency") {
			concurrency = viper.GetInt("pipeline.concurrency")
		}

		s, err := filterFromFlags(cmd)
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

		rules := filter.DefaultRules()
		if all {
			rules = filter.WithActiveOnly(rules, false)
		}
		result, err := pipeline.Download(ctx, pipeline.DownloadConfig{
			Lookup:     client,
			Filter:     s,
			Rules:      rules,
			Resolver:   res,
			ActiveOnly: activeOnly && !all,
			Options: pipeline.Options{
				Concurrency: concurrency,
				Log:         utils.Log,
			},
		})
		if err != nil {
			return err
		}

		if err := writeSheet(out, sheet.RatesSheet, result.Rows); err != nil {
			return err
		}
		if result.Template {
			utils.Log.Infof("No rates found, wrote a template with %d rows to %s", len(result.Rows), out)
		} else {
			utils.Log.Infof("Wrote %d rates to %s", len(result.Rows), out)
		}
		if n := len(result.Errors); n > 0 {
			utils.Log.Warnf("%d of %d lookups failed, the sheet may be incomplete", n, len(result.Requests))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(downloadCmd)
	addFilterFlags(downloadCmd)
	downloadCmd.Flags().StringP("output", "o", "rates.xlsx", "Output workbook")
	downloadCmd.Flags().Bool("all", false, "Keep expired rates")
	downloadCmd.Flags().Bool("active-only", false, "Drop expired rates from every lookup, not only expanded ones")
	downloadCmd.Flags().IntP("concurrency", "c", pipeline.DefaultConcurrency, "Parallel lookups")
}
