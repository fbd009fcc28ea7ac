package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/yourusername/vgm-archiver/internal/infrastructure"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show download progress and recorded failures",
	RunE: func(cmd *cobra.Command, args []string) error {
		config, log, err := setup()
		if err != nil {
			return err
		}
		defer log.Sync()

		store, err := infrastructure.NewSQLiteStore(config.Store.DatabasePath)
		if err != nil {
			return err
		}
		defer store.Close()

		stats, err := store.Stats()
		if err != nil {
			return err
		}

		fmt.Println("Download progress:")
		fmt.Printf("  Total: %d\n", stats.Total)
		fmt.Printf("  Done:  %d\n", stats.Done)
		fmt.Printf("  Fail:  %d\n", stats.Fail)

		failures, err := store.All()
		if err != nil {
			return err
		}
		if len(failures) == 0 {
			return nil
		}

		fmt.Println("\nFailure ledger:")
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "PAGE\tCOMMENT\tFIRST SEEN")
		for _, entry := range failures {
			fmt.Fprintf(w, "%s\t%s\t%s\n",
				truncate(entry.PageURL, 60),
				truncate(entry.Comment, 50),
				entry.CreatedAt.Format("2006-01-02 15:04"))
		}
		w.Flush()
		return nil
	},
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
