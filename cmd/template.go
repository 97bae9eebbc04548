package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/marcelo-dos-santos/walmart-codes/internal/utils"
	"github.com/marcelo-dos-santos/walmart-codes/pkg/filter"
	"github.com/marcelo-dos-santos/walmart-codes/pkg/rates"
	"github.com/marcelo-dos-santos/walmart-codes/pkg/sheet"
)

// templateCmd represents the template command
var templateCmd = &cobra.Command{
	Use:   "template",
	Short: "Writes an empty rate sheet for a filter.",
	Long: `Writes an editable rate sheet without rate data. Dimensions the selected factor
depends on and that were not fixed get one row per value.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out, _ := cmd.Flags().GetString("output")
		s, err := filterFromFlags(cmd)
		if err != nil {
			return err
		}

		client, err := newClient()
		if err != nil {
			return err
		}
		res, _, err := loadResolver(context.Background(), client, idOf(s, rates.MarketID), idOf(s, rates.ElementID))
		if err != nil {
			return err
		}

		rows, err := sheet.TemplateRows(s, s.FactorID(), filter.DefaultRules(), res)
		if err != nil {
			return err
		}
		if err := writeSheet(out, sheet.RatesSheet, rows); err != nil {
			return err
		}
		utils.Log.Infof("Wrote %d template rows to %s", len(rows), out)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(templateCmd)
	addFilterFlags(templateCmd)
	templateCmd.Flags().StringP("output", "o", "rates_template.xlsx", "Output workbook")
}
