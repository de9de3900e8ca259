package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/facegate/facegate/internal/config"
	"github.com/facegate/facegate/internal/constants"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show the request audit log",
	RunE:  runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().Int("limit", constants.DefaultHistoryLimit, "Maximum number of entries to show")
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	entries, err := store.History().List(context.Background(), mustGetInt(cmd, "limit"))
	if err != nil {
		return fmt.Errorf("listing history: %w", err)
	}

	if len(entries) == 0 {
		fmt.Println("No history entries")
		return nil
	}

	fmt.Printf("%-20s %-18s %-7s %-28s %s\n", "TIME", "ACTION", "METHOD", "ENDPOINT", "IP")
	for _, e := range entries {
		fmt.Printf("%-20s %-18s %-7s %-28s %s\n",
			e.CreatedAt.Format("2006-01-02 15:04:05"), e.Action, e.Method, e.Endpoint, e.IP)
	}
	return nil
}
