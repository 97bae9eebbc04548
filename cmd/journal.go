package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/marcelo-dos-santos/walmart-codes/internal/utils"
	"github.com/marcelo-dos-santos/walmart-codes/pkg/storage"
)

func openJournal() (*storage.DB, error) {
	path, err := utils.JournalPath(viper.GetString("journal.path"))
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("journal not found: %s", path)
	}
	return storage.Open(path)
}

// journalCmd represents the journal command
var journalCmd = &cobra.Command{
	Use:   "journal [batch-id]",
	Short: "Lists recorded uploads, or the rows of one upload.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		db, err := openJournal()
		if err != nil {
			return err
		}
		defer db.Close()

		ctx := context.Background()
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		defer w.Flush()

		if len(args) == 1 {
			rows, err := db.UploadRows(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(w, "ROW\tSTATUS\tREMARKS\t")
			for _, r := range rows {
				fmt.Fprintf(w, "%d\t%s\t%s\t\n", r.RowID, r.Status, r.Remarks)
			}
			return nil
		}

		uploads, err := db.ListUploads(ctx, limit)
		if err != nil {
			return err
		}
		if len(uploads) == 0 {
			fmt.Println("No uploads recorded.")
			return nil
		}
		fmt.Fprintln(w, "BATCH\tWHEN\tFILE\tMARKET\tELEMENT\tFACTOR\tSENT\tOK\tFAILED\tINVALID\t")
		for _, u := range uploads {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t\n",
				u.ID, u.CreatedAt.Local().Format("2006-01-02 15:04"), u.FileName,
				u.MarketID, u.ElementID, u.FactorID, u.Submitted, u.Succeeded, u.Failed, u.Invalid)
		}
		return nil
	},
}

// journalStatsCmd represents the journal stats command
var journalStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Prints upload statistics per market.",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openJournal()
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.GetStats(context.Background())
		if err != nil {
			return err
		}

		if len(stats) == 0 {
			fmt.Println("No uploads recorded.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.AlignRight)
		fmt.Fprintln(w, "MARKET\tUPLOADS\tROWS\tOK\tFAILED\t")

		var totalUploads, totalRows, totalOK, totalFailed int
		for _, s := range stats {
			fmt.Fprintf(w, "%d\t%d\t%d\t%d\t%d\t\n", s.MarketID, s.Uploads, s.Submitted, s.Succeeded, s.Failed)
			totalUploads += s.Uploads
			totalRows += s.Submitted
			totalOK += s.Succeeded
			totalFailed += s.Failed
		}

		fmt.Fprintln(w, " \t \t \t \t \t")
		fmt.Fprintf(w, "TOTAL\t%d\t%d\t%d\t%d\t\n", totalUploads, totalRows, totalOK, totalFailed)

		w.Flush()

		return nil
	},
}

func init() {
	rootCmd.AddCommand(journalCmd)
	journalCmd.AddCommand(journalStatsCmd)
	journalCmd.Flags().IntP("limit", "n", 20, "Number of uploads to list")
}
