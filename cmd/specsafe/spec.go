package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/specsafe/specsafe/internal/memory"
)

var specCmd = &cobra.Command{
	Use:   "spec",
	Short: "Track specs in project memory",
}

var specAddCmd = &cobra.Command{
	Use:   "add <spec-id>",
	Short: "Register a spec in project memory",
	Long: `Register a spec id so decisions and patterns can reference it.
Adding an already-tracked spec is a no-op.

Example:
  specsafe spec add spec-auth`,
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

		var added bool
		err = mgr.Update(ctx, func(m *memory.Manager) error {
			var uerr error
			added, uerr = m.AddSpec(args[0])
			return uerr
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		green := color.New(color.FgGreen).SprintFunc()
		if added {
			fmt.Printf("%s Tracking spec %s\n", green("✓"), args[0])
		} else {
			fmt.Printf("%s Spec %s already tracked\n", green("✓"), args[0])
		}
	},
}

var specListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tracked specs",
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

		if len(mem.Specs) == 0 {
			fmt.Println("No specs tracked yet. Use 'specsafe spec add <id>' to register one.")
			return
		}

		cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
		fmt.Printf("\n%s\n", cyan(fmt.Sprintf("Specs (%d)", len(mem.Specs))))
		for _, id := range mem.Specs {
			fmt.Printf("  %s\n", id)
		}
		fmt.Println()
	},
}

func init() {
	specCmd.AddCommand(specAddCmd)
	specCmd.AddCommand(specListCmd)
	rootCmd.AddCommand(specCmd)
}
