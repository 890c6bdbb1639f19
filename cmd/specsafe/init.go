package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/specsafe/specsafe/internal/config"
	"github.com/specsafe/specsafe/internal/storage"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize project memory in the current directory",
	Long: `Initialize SpecSafe by creating a .specsafe/ directory.

This creates:
  - .specsafe/ directory
  - .specsafe/config.yml (editable defaults for lock timing and file names)

The memory store itself (.specsafe/memory.json) is written by the first
recording command, so an initialized project with no recordings leaves
no store file behind.

Example:
  cd ~/myproject
  specsafe init
  specsafe spec add spec-auth
  specsafe decision add spec-auth -d "Use PostgreSQL" -r "team experience"`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		root, err := resolveRoot()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		cfg, err := config.FromEnv()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		paths, err := storage.InitProject(root, cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		green := color.New(color.FgGreen).SprintFunc()
		cyan := color.New(color.FgCyan).SprintFunc()
		gray := color.New(color.FgHiBlack).SprintFunc()

		fmt.Printf("\n%s Initialized project memory\n\n", green("✓"))
		fmt.Printf("  Project root: %s\n", cyan(paths.Root))
		fmt.Printf("  Config:       %s\n", cyan(paths.ConfigPath))
		fmt.Printf("  Store:        %s %s\n", cyan(paths.StorePath), gray("(written on first save)"))
		fmt.Println()
		fmt.Printf("%s Next steps:\n", gray("→"))
		fmt.Printf("  %s\n", gray(fmt.Sprintf("specsafe spec add <spec-id>   # project id will be %q", resolveProjectID(paths.Root))))
		fmt.Printf("  %s\n", gray("specsafe status"))
		fmt.Println()
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
