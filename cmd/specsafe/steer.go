package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/specsafe/specsafe/internal/steering"
)

var steerWarningsOnly bool

var steerCmd = &cobra.Command{
	Use:   "steer <spec-id>",
	Short: "Analyze a spec against project memory",
	Long: `Run the steering analysis for a spec being authored: consistency
and conflict warnings, reuse recommendations, and the decisions of
related specs.

Warnings come in three families: a spec using a less-established variant
of a known pattern, a decision that appears to contradict another spec's
decision, and architectural constraints the spec does not appear to
address.

Example:
  specsafe steer spec-payments
  specsafe steer spec-payments --warnings-only`,
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

		rep, err := engine.Analyze(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
		gray := color.New(color.FgHiBlack).SprintFunc()

		fmt.Printf("\n%s\n\n", cyan(fmt.Sprintf("Steering for %s", args[0])))
		fmt.Printf("  %s\n\n", rep.Context)

		if len(rep.Warnings) > 0 {
			fmt.Printf("  Warnings:\n")
			for _, w := range rep.Warnings {
				fmt.Printf("    %s %s\n", severityTag(w.Severity), w.Message)
			}
			fmt.Println()
		}

		if !steerWarningsOnly {
			if len(rep.Recommendations) > 0 {
				fmt.Printf("  Recommendations:\n")
				for _, rec := range rep.Recommendations {
					fmt.Printf("    %s %s\n", confidenceTag(rec.Confidence), rec.Message)
				}
				fmt.Println()
			}
			if len(rep.RelatedDecisions) > 0 {
				fmt.Printf("  Decisions from related specs:\n")
				for _, d := range rep.RelatedDecisions {
					fmt.Printf("    %s %s: %s\n", gray(d.Timestamp.Format("2006-01-02")), d.SpecID, d.Decision)
				}
				fmt.Println()
			}
		}

		if len(rep.Warnings) == 0 && len(rep.Recommendations) == 0 {
			fmt.Println("  Nothing to report yet. Record decisions and patterns as you go.")
			fmt.Println()
		}
	},
}

// severityTag renders a colored [severity] marker
func severityTag(s steering.Severity) string {
	tag := fmt.Sprintf("[%s]", s)
	switch s {
	case steering.SeverityHigh:
		return color.New(color.FgRed).Sprint(tag)
	case steering.SeverityMedium:
		return color.New(color.FgYellow).Sprint(tag)
	default:
		return color.New(color.FgCyan).Sprint(tag)
	}
}

// confidenceTag renders a colored [confidence] marker
func confidenceTag(c steering.Confidence) string {
	tag := fmt.Sprintf("[%s]", c)
	if c == steering.ConfidenceHigh {
		return color.New(color.FgGreen).Sprint(tag)
	}
	return color.New(color.FgYellow).Sprint(tag)
}

func init() {
	steerCmd.Flags().BoolVar(&steerWarningsOnly, "warnings-only", false, "Show only warnings, skip recommendations")
	rootCmd.AddCommand(steerCmd)
}
