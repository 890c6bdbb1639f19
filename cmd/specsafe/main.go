// Package main is the entry point for the specsafe CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/specsafe/specsafe/internal/config"
	"github.com/specsafe/specsafe/internal/sanitize"
	"github.com/specsafe/specsafe/internal/storage"
	"github.com/specsafe/specsafe/internal/types"
)

// Global flags.
var (
	flagDir     string
	flagProject string
)

var rootCmd = &cobra.Command{
	Use:   "specsafe",
	Short: "Project memory and steering for spec-driven development",
	Long: `SpecSafe keeps a project's accumulated knowledge next to its code:
architectural decisions, recurring design patterns, standing constraints,
and a bounded activity history, stored in .specsafe/memory.json.

Recording commands (spec, decision, pattern, constraint) append to the
memory under a file lock, so concurrent invocations never lose each
other's writes. Reading commands (status, context, steer, history) never
modify the store.`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDir, "dir", "", "Project directory (default: $SPECSAFE_DIR or the working directory)")
	rootCmd.PersistentFlags().StringVar(&flagProject, "project", "", "Project id (default: derived from the directory name)")
}

// resolveRoot returns the project root for this invocation.
func resolveRoot() (string, error) {
	if flagDir != "" {
		return filepath.Abs(flagDir)
	}
	return storage.DiscoverRoot()
}

// openStore resolves the root, layers config, and builds the store.
// It does not require the project to be initialized: loading an absent
// store yields an empty memory.
func openStore() (*storage.Store, storage.Paths, config.Config, error) {
	root, err := resolveRoot()
	if err != nil {
		return nil, storage.Paths{}, config.Config{}, err
	}
	cfgPath := filepath.Join(root, storage.StoreDirName, storage.ConfigFileName)
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, storage.Paths{}, config.Config{}, err
	}
	paths, err := storage.NewPaths(root, cfg)
	if err != nil {
		return nil, storage.Paths{}, config.Config{}, err
	}
	return storage.NewStore(paths, cfg), paths, cfg, nil
}

// resolveProjectID returns the project id for this invocation: the
// --project flag when set, otherwise the root directory's name mapped
// into the id grammar.
func resolveProjectID(root string) string {
	if flagProject != "" {
		return flagProject
	}
	return normalizeProjectID(filepath.Base(root))
}

// normalizeProjectID maps an arbitrary directory name onto the project
// id grammar: runes outside [A-Za-z0-9_-] become hyphens, runs of
// hyphens collapse, and an unusable name falls back to "project".
func normalizeProjectID(name string) string {
	name = sanitize.String(name)
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}
	id := b.String()
	for strings.Contains(id, "--") {
		id = strings.ReplaceAll(id, "--", "-")
	}
	id = strings.Trim(id, "-")
	if id == "" {
		return "project"
	}
	if len(id) > types.MaxIDLength {
		id = id[:types.MaxIDLength]
		id = strings.Trim(id, "-")
	}
	return id
}
