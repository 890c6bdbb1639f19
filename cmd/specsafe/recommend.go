package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/specsafe/specsafe/internal/steering"
)

var recommendLimit int

var recommendCmd = &cobra.Command{
	Use:   "recommend <spec-id>",
	Short: "Rank patterns worth reusing in a spec",
	Long: `Rank recorded patterns for a spec: patterns used by related specs
come first, then the most-used patterns project-wide.

Example:
  specsafe recommend spec-payments
  specsafe recommend spec-payments --limit 3`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		store, paths, _, err := openStore()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		engine := steering.NewEngine(store)
		if err := engine.Initialize(context.Background(), resolveProjectID(paths.Root)); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		patterns, err := engine.RecommendPatterns(args[0], recommendLimit)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if len(patterns) == 0 {
			fmt.Println("No patterns recorded yet.")
			return
		}

		cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("\n%s\n", cyan(fmt.Sprintf("Patterns for %s", args[0])))
		for i, p := range patterns {
			fmt.Printf("  %d. %s %s\n", i+1, p.Name, green(fmt.Sprintf("(%d uses)", p.UsageCount)))
			fmt.Printf("     %s\n", p.Description)
		}
		fmt.Println()
	},
}

func init() {
	recommendCmd.Flags().IntVar(&recommendLimit, "limit", 0, "Maximum patterns to show (default 5)")
	rootCmd.AddCommand(recommendCmd)
}
