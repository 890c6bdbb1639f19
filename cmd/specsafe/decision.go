package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/specsafe/specsafe/internal/memory"
	"github.com/specsafe/specsafe/internal/types"
)

var (
	decisionText string
	decisionWhy  string
	decisionAlts []string
)

var decisionCmd = &cobra.Command{
	Use:   "decision",
	Short: "Record and list architectural decisions",
}

var decisionAddCmd = &cobra.Command{
	Use:   "add <spec-id>",
	Short: "Record a decision for a spec",
	Long: `Record an architectural decision with its rationale and the
alternatives that were rejected. Rationale and alternatives pass through
secret redaction before being stored; at most the first ten alternatives
are kept.

Example:
  specsafe decision add spec-auth \
    -d "Use PostgreSQL for persistence" \
    -r "team experience and managed hosting" \
    -a "MySQL" -a "SQLite"`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		store, paths, _, err := openStore()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		ctx := context.Background()
		mgr := memory.NewManager(store)
		if _, err := mgr.Load(ctx, resolveProjectID(paths.Root)); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		var rec *types.Decision
		err = mgr.Update(ctx, func(m *memory.Manager) error {
			var uerr error
			rec, uerr = m.AddDecision(memory.DecisionInput{
				SpecID:       args[0],
				Decision:     decisionText,
				Rationale:    decisionWhy,
				Alternatives: decisionAlts,
			})
			return uerr
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		green := color.New(color.FgGreen).SprintFunc()
		cyan := color.New(color.FgCyan).SprintFunc()
		fmt.Printf("%s Recorded decision %s for %s\n", green("✓"), cyan(rec.ID), args[0])
		if len(rec.Alternatives) > 0 {
			fmt.Printf("  %d alternative(s) kept\n", len(rec.Alternatives))
		}
	},
}

var decisionListCmd = &cobra.Command{
	Use:   "list [spec-id]",
	Short: "List decisions, optionally for one spec",
	Args:  cobra.MaximumNArgs(1),
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

		filter := ""
		if len(args) > 0 {
			filter = args[0]
		}

		cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
		gray := color.New(color.FgHiBlack).SprintFunc()
		shown := 0
		fmt.Printf("\n%s\n", cyan("Decisions"))
		for _, d := range mem.Decisions {
			if filter != "" && d.SpecID != filter {
				continue
			}
			shown++
			fmt.Printf("  %s  %s  %s\n", gray(d.Timestamp.Format("2006-01-02")), d.SpecID, d.Decision)
			if d.Rationale != "" {
				fmt.Printf("      %s %s\n", gray("why:"), d.Rationale)
			}
			for _, alt := range d.Alternatives {
				fmt.Printf("      %s %s\n", gray("rejected:"), alt)
			}
		}
		if shown == 0 {
			fmt.Println("  none recorded yet")
		}
		fmt.Println()
	},
}

func init() {
	decisionAddCmd.Flags().StringVarP(&decisionText, "decision", "d", "", "The decision text (required)")
	decisionAddCmd.Flags().StringVarP(&decisionWhy, "rationale", "r", "", "Why the decision was made (required)")
	decisionAddCmd.Flags().StringArrayVarP(&decisionAlts, "alternative", "a", nil, "A rejected alternative (repeatable)")
	_ = decisionAddCmd.MarkFlagRequired("decision")
	_ = decisionAddCmd.MarkFlagRequired("rationale")

	decisionCmd.AddCommand(decisionAddCmd)
	decisionCmd.AddCommand(decisionListCmd)
	rootCmd.AddCommand(decisionCmd)
}
