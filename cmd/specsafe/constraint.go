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
	constraintType   string
	constraintDesc   string
	constraintSource string
	constraintSpec   string
)

var constraintCmd = &cobra.Command{
	Use:   "constraint",
	Short: "Record and list standing constraints",
}

var constraintAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Record a project constraint",
	Long: `Record a standing constraint every spec should honor. The type must
be technical, business, or architectural. Constraints are project-wide
rules, so unlike decisions and patterns they produce no history entry.

Example:
  specsafe constraint add \
    -t architectural \
    -D "Services communicate only through the API gateway" \
    --source "platform review 2026-03"`,
	Args: cobra.NoArgs,
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

		var rec *types.Constraint
		err = mgr.Update(ctx, func(m *memory.Manager) error {
			var uerr error
			rec, uerr = m.AddConstraint(memory.ConstraintInput{
				Type:        types.ConstraintType(constraintType),
				Description: constraintDesc,
				Source:      constraintSource,
				SpecID:      constraintSpec,
			})
			return uerr
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		green := color.New(color.FgGreen).SprintFunc()
		cyan := color.New(color.FgCyan).SprintFunc()
		fmt.Printf("%s Recorded %s constraint %s\n", green("✓"), rec.Type, cyan(rec.ID))
	},
}

var constraintListCmd = &cobra.Command{
	Use:   "list",
	Short: "List constraints grouped by type",
	Args:  cobra.NoArgs,
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

		if len(mem.Constraints) == 0 {
			fmt.Println("No constraints recorded yet.")
			return
		}

		cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
		gray := color.New(color.FgHiBlack).SprintFunc()
		fmt.Printf("\n%s\n", cyan(fmt.Sprintf("Constraints (%d)", len(mem.Constraints))))
		for _, t := range []types.ConstraintType{types.ConstraintTechnical, types.ConstraintBusiness, types.ConstraintArchitectural} {
			for _, c := range mem.Constraints {
				if c.Type != t {
					continue
				}
				fmt.Printf("  [%s] %s\n", c.Type, c.Description)
				if c.Source != "" {
					fmt.Printf("      %s %s\n", gray("source:"), c.Source)
				}
				if c.SpecID != "" {
					fmt.Printf("      %s %s\n", gray("from spec:"), c.SpecID)
				}
			}
		}
		fmt.Println()
	},
}

func init() {
	constraintAddCmd.Flags().StringVarP(&constraintType, "type", "t", "", "Constraint type: technical, business, or architectural (required)")
	constraintAddCmd.Flags().StringVarP(&constraintDesc, "description", "D", "", "The constraint text (required)")
	constraintAddCmd.Flags().StringVar(&constraintSource, "source", "", "Where the constraint comes from")
	constraintAddCmd.Flags().StringVar(&constraintSpec, "spec", "", "Spec that introduced the constraint")
	_ = constraintAddCmd.MarkFlagRequired("type")
	_ = constraintAddCmd.MarkFlagRequired("description")

	constraintCmd.AddCommand(constraintAddCmd)
	constraintCmd.AddCommand(constraintListCmd)
	rootCmd.AddCommand(constraintCmd)
}
