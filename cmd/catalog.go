package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// catalogCmd represents the catalog command
var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Prints the elements, factors and dimension values of a market.",
	Long: `Prints the elements, factors and dimension values the rate service knows for a
market. Pass --dimension to print a single dimension, or --element and --factor
to print the fields a rate of that factor is keyed on.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		marketID, _ := cmd.Flags().GetInt64("market")
		dimension, _ := cmd.Flags().GetString("dimension")
		elementID, _ := cmd.Flags().GetInt64("element")
		factorID, _ := cmd.Flags().GetInt64("factor")

		client, err := newClient()
		if err != nil {
			return err
		}
		res, filters, err := loadResolver(context.Background(), client, marketID, 0)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		defer w.Flush()

		if dimension != "" {
			if err := res.Catalog.Require(dimension); err != nil {
				return err
			}
			fmt.Fprintln(w, "CODE\tLABEL\t")
			for _, e := range res.Catalog.Entries(dimension) {
				fmt.Fprintf(w, "%s\t%s\t\n", e.Code, e.Label)
			}
			return nil
		}

		if elementID != 0 || factorID != 0 {
			fields := filters.DynamicFields(elementID, factorID)
			if len(fields) == 0 {
				return fmt.Errorf("no fields for element %d, factor %d", elementID, factorID)
			}
			fmt.Fprintln(w, "FIELD\tLABEL\t")
			for _, df := range fields {
				fmt.Fprintf(w, "%s\t%s\t\n", df.Name, df.DisplayLabel)
			}
			return nil
		}

		fmt.Fprintln(w, "ELEMENT\tFACTOR\tFIELDS\t")
		for _, e := range filters.Elements {
			for _, fa := range e.Factors {
				var fields []string
				for _, df := range filters.DynamicFields(e.ID, fa.ID) {
					fields = append(fields, df.Name)
				}
				fmt.Fprintf(w, "%d - %s\t%d - %s\t%v\t\n", e.ID, e.Name, fa.ID, fa.Name, fields)
			}
		}
		fmt.Fprintln(w, " \t \t \t")
		fmt.Fprintln(w, "DIMENSION\tVALUES\t \t")
		for _, d := range res.Catalog.Dimensions() {
			fmt.Fprintf(w, "%s\t%d\t \t\n", d, len(res.Catalog.Entries(d)))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(catalogCmd)
	catalogCmd.Flags().Int64P("market", "m", 0, "Purchase company (market) id")
	catalogCmd.Flags().StringP("dimension", "d", "", "Only print this dimension (e.g. port, department)")
	catalogCmd.Flags().Int64P("element", "e", 0, "Element id, used with --factor")
	catalogCmd.Flags().Int64P("factor", "f", 0, "Factor (element subtype) id, used with --element")
	_ = catalogCmd.MarkFlagRequired("market")
}
