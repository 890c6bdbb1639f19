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
	patternName    string
	patternDesc    string
	patternContext string
	patternSnippet string
)

var patternCmd = &cobra.Command{
	Use:   "pattern",
	Short: "Record and list design patterns",
}

var patternRecordCmd = &cobra.Command{
	Use:   "record <spec-id>",
	Short: "Record a pattern observation for a spec",
	Long: `Record that a spec uses a design pattern. Pattern identity is the
case-insensitive name: recording a known name bumps its usage count and
merges the new example in, while a new name starts at one use. Examples
are de-duplicated per (spec, context) pair and capped at twenty.

Example:
  specsafe pattern record spec-auth \
    -n "Repository Pattern" \
    -D "Data access behind a repository interface" \
    -c "user store"`,
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

		example := types.PatternExample{
			SpecID:  args[0],
			Context: patternContext,
			Snippet: patternSnippet,
		}

		var rec *types.Pattern
		err = mgr.Update(ctx, func(m *memory.Manager) error {
			var uerr error
			rec, uerr = m.RecordPattern(memory.PatternInput{
				SpecID:      args[0],
				Name:        patternName,
				Description: patternDesc,
				Examples:    []types.PatternExample{example},
			})
			return uerr
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		green := color.New(color.FgGreen).SprintFunc()
		cyan := color.New(color.FgCyan).SprintFunc()
		if rec.UsageCount == 1 {
			fmt.Printf("%s Recorded new pattern %s\n", green("✓"), cyan(rec.Name))
		} else {
			fmt.Printf("%s Pattern %s now at %d uses\n", green("✓"), cyan(rec.Name), rec.UsageCount)
		}
	},
}

var patternListCmd = &cobra.Command{
	Use:   "list",
	Short: "List patterns by usage",
	Args:  cobra.NoArgs,
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

		patterns, err := mgr.GetReusablePatterns(1)
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
		gray := color.New(color.FgHiBlack).SprintFunc()
		fmt.Printf("\n%s\n", cyan(fmt.Sprintf("Patterns (%d)", len(patterns))))
		for _, p := range patterns {
			fmt.Printf("  %s %s\n", green(fmt.Sprintf("%3dx", p.UsageCount)), p.Name)
			fmt.Printf("       %s\n", p.Description)
			for _, ex := range p.Examples {
				fmt.Printf("       %s %s: %s\n", gray("seen in"), ex.SpecID, ex.Context)
			}
		}
		fmt.Println()
	},
}

func init() {
	patternRecordCmd.Flags().StringVarP(&patternName, "name", "n", "", "Pattern name (required)")
	patternRecordCmd.Flags().StringVarP(&patternDesc, "description", "D", "", "What the pattern does (required)")
	patternRecordCmd.Flags().StringVarP(&patternContext, "context", "c", "", "Where the spec uses it (required)")
	patternRecordCmd.Flags().StringVar(&patternSnippet, "snippet", "", "Optional code snippet")
	_ = patternRecordCmd.MarkFlagRequired("name")
	_ = patternRecordCmd.MarkFlagRequired("description")
	_ = patternRecordCmd.MarkFlagRequired("context")

	patternCmd.AddCommand(patternRecordCmd)
	patternCmd.AddCommand(patternListCmd)
	rootCmd.AddCommand(patternCmd)
}
