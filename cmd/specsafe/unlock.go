package main

import (
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/specsafe/specsafe/internal/storage"
)

var unlockForce bool

var unlockCmd = &cobra.Command{
	Use:   "unlock",
	Short: "Inspect or clear the store lock",
	Long: `Inspect the store's lock file and optionally clear it.

A lock left behind by a crashed process is reclaimed automatically once
it is older than the staleness window, so unlock --force is only needed
when a fresh-looking lock is known to be orphaned.

Examples:
  # Show who holds the lock and for how long
  specsafe unlock

  # Remove the lock file regardless of age
  specsafe unlock --force`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		_, paths, cfg, err := openStore()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		green := color.New(color.FgGreen).SprintFunc()
		yellow := color.New(color.FgYellow).SprintFunc()
		red := color.New(color.FgRed).SprintFunc()

		lock := storage.NewFileLock(paths.LockPath, cfg)
		info, mtime, err := lock.Inspect()
		if os.IsNotExist(err) {
			fmt.Printf("%s No lock present\n", green("✓"))
			return
		}
		if err != nil {
			// Unreadable payload; the file still blocks writers.
			fmt.Printf("%s Lock file %s exists but cannot be read: %v\n", yellow("⚠"), paths.LockPath, err)
			if !unlockForce {
				fmt.Println("Run 'specsafe unlock --force' to remove it")
				return
			}
		} else {
			age := time.Since(mtime)
			fmt.Printf("\n%s Lock held\n\n", yellow("⚠"))
			fmt.Printf("  Holder pid:  %d\n", info.PID)
			fmt.Printf("  Acquired:    %s\n", time.UnixMilli(info.Timestamp).Format("2006-01-02 15:04:05"))
			fmt.Printf("  Age:         %s\n", formatDuration(age))
			if age > cfg.LockStaleAfter {
				fmt.Printf("  State:       %s\n", red("stale (will be reclaimed by the next writer)"))
			} else {
				fmt.Printf("  State:       %s\n", green("fresh"))
			}
			fmt.Println()
			if !unlockForce {
				fmt.Println("Run 'specsafe unlock --force' to remove it now")
				return
			}
		}

		if err := lock.ForceRelease(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("%s Lock removed\n", green("✓"))
	},
}

// formatDuration formats a duration in a human-readable way
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	if d < 24*time.Hour {
		return fmt.Sprintf("%.1fh", d.Hours())
	}
	return fmt.Sprintf("%.1fd", d.Hours()/24)
}

func init() {
	unlockCmd.Flags().BoolVar(&unlockForce, "force", false, "Remove the lock file regardless of age")
	rootCmd.AddCommand(unlockCmd)
}
