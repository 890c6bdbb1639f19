package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/specsafe/specsafe/internal/memory"
)

var contextCmd = &cobra.Command{
	Use:   "context <spec-id>",
	Short: "Show accumulated context for a spec",
	Long: `Show everything project memory knows that is relevant to a spec:
a summary digest, the specs related to it, decisions those specs made,
recorded patterns, and all standing constraints.

Example:
  specsafe context spec-auth`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		store, paths, _, err := openStore()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		mgr := memory.NewManager(store)
		if _, err := mgr.Load(context.Background(), resolveProjectID(paths.Root)); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		sc, err := mgr.GetContextForSpec(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
		gray := color.New(color.FgHiBlack).SprintFunc()

		fmt.Printf("\n%s\n\n", cyan(fmt.Sprintf("Context for %s", args[0])))
		fmt.Printf("  %s\n\n", sc.Summary)

		if len(sc.RelatedSpecs) > 0 {
			fmt.Printf("  Related specs:\n")
			for _, id := range sc.RelatedSpecs {
				fmt.Printf("    %s\n", id)
			}
			fmt.Println()
		}
		if len(sc.Decisions) > 0 {
			fmt.Printf("  Decisions from related specs:\n")
			for _, d := range sc.Decisions {
				fmt.Printf("    %s: %s\n", d.SpecID, d.Decision)
			}
			fmt.Println()
		}
		if len(sc.Patterns) > 0 {
			fmt.Printf("  Patterns:\n")
			for _, p := range sc.Patterns {
				fmt.Printf("    %s %s\n", gray(fmt.Sprintf("%2dx", p.UsageCount)), p.Name)
			}
			fmt.Println()
		}
		if len(sc.Constraints) > 0 {
			fmt.Printf("  Constraints:\n")
			for _, c := range sc.Constraints {
				fmt.Printf("    [%s] %s\n", c.Type, c.Description)
			}
			fmt.Println()
		}
	},
}

func init() {
	rootCmd.AddCommand(contextCmd)
}
