package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/specsafe/specsafe/internal/memory"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent memory activity",
	Long: `Show the most recent history entries: specs registered, decisions
recorded, patterns observed. History is capped at 1000 entries; older
entries are evicted as new ones arrive.

Example:
  specsafe history
  specsafe history --limit 50`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		store, paths, _, err := openStore()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		mgr := memory.NewManager(store)
		mem, err := mgr.Load(context.Background(), resolveProjectID(paths.Root))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if len(mem.History) == 0 {
			fmt.Println("No history yet.")
			return
		}

		limit := historyLimit
		if limit < 1 {
			limit = 10
		}
		start := len(mem.History) - limit
		if start < 0 {
			start = 0
		}

		cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
		gray := color.New(color.FgHiBlack).SprintFunc()
		fmt.Printf("\n%s\n", cyan(fmt.Sprintf("History (last %d of %d)", len(mem.History)-start, len(mem.History))))
		for _, h := range mem.History[start:] {
			fmt.Printf("  %s  %-9s %s\n", gray(h.Timestamp.Format("2006-01-02 15:04")), h.Action, h.Details)
		}
		fmt.Println()
	},
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 10, "How many entries to show")
	rootCmd.AddCommand(historyCmd)
}
