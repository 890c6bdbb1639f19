package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/specsafe/specsafe/internal/memory"
	"github.com/specsafe/specsafe/internal/storage"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show project memory overview",
	Long: `Show what has accumulated in the project memory: spec, decision,
pattern, and constraint counts, plus the store and lock state.

Example:
  specsafe status`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		store, paths, cfg, err := openStore()
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

		cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
		green := color.New(color.FgGreen).SprintFunc()
		yellow := color.New(color.FgYellow).SprintFunc()
		red := color.New(color.FgRed).SprintFunc()

		fmt.Printf("\n%s\n\n", cyan("SpecSafe Status"))
		fmt.Printf("  Project:      %s\n", mem.ProjectID)
		fmt.Printf("  Root:         %s\n", paths.Root)
		if !paths.Initialized() {
			fmt.Printf("  Initialized:  %s\n", yellow("no (run 'specsafe init')"))
		} else {
			fmt.Printf("  Initialized:  %s\n", green("yes"))
		}
		if store.Exists() {
			fmt.Printf("  Store:        %s\n", green(paths.StorePath))
		} else {
			fmt.Printf("  Store:        %s\n", yellow("empty (nothing saved yet)"))
		}

		lock := storage.NewFileLock(paths.LockPath, cfg)
		info, mtime, lerr := lock.Inspect()
		switch {
		case lerr == nil:
			age := time.Since(mtime).Round(time.Second)
			holder := fmt.Sprintf("held by pid %d for %s", info.PID, age)
			if age > cfg.LockStaleAfter {
				fmt.Printf("  Lock:         %s\n", red(holder+" (stale, run 'specsafe unlock')"))
			} else {
				fmt.Printf("  Lock:         %s\n", yellow(holder))
			}
		case os.IsNotExist(lerr):
			fmt.Printf("  Lock:         %s\n", green("free"))
		default:
			fmt.Printf("  Lock:         %s\n", yellow(fmt.Sprintf("unreadable: %v", lerr)))
		}

		fmt.Println()
		fmt.Printf("  Specs:        %d\n", len(mem.Specs))
		fmt.Printf("  Decisions:    %d\n", len(mem.Decisions))
		fmt.Printf("  Patterns:     %d\n", len(mem.Patterns))
		fmt.Printf("  Constraints:  %d\n", len(mem.Constraints))
		fmt.Printf("  History:      %d entries\n", len(mem.History))
		fmt.Println()
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
