package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/specsafe/specsafe/internal/config"
	"github.com/specsafe/specsafe/internal/sanitize"
)

// StoreDirName is the per-project directory holding the memory store,
// its lock, and the optional config file.
const StoreDirName = ".specsafe"

// ConfigFileName is the optional per-project config file inside StoreDirName
const ConfigFileName = "config.yml"

// Paths resolves every file the store touches for one project root.
// All members are absolute.
type Paths struct {
	// Root is the project directory containing .specsafe/
	Root string

	// Dir is <Root>/.specsafe
	Dir string

	// StorePath is the memory store file inside Dir
	StorePath string

	// LockPath is the lock file inside Dir
	LockPath string

	// ConfigPath is the per-project config file inside Dir
	ConfigPath string
}

// NewPaths resolves the store layout under root. Every resolved path is
// checked to stay inside root, so a hostile file name in cfg cannot reach
// out of the project directory.
func NewPaths(root string, cfg config.Config) (Paths, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return Paths{}, fmt.Errorf("resolving project root: %w", err)
	}

	p := Paths{
		Root:       absRoot,
		Dir:        filepath.Join(absRoot, StoreDirName),
		StorePath:  filepath.Join(absRoot, StoreDirName, cfg.StoreFileName),
		LockPath:   filepath.Join(absRoot, StoreDirName, cfg.LockFileName),
		ConfigPath: filepath.Join(absRoot, StoreDirName, ConfigFileName),
	}

	for _, path := range []string{p.Dir, p.StorePath, p.LockPath, p.ConfigPath} {
		if err := sanitize.EnsureWithin(absRoot, path); err != nil {
			return Paths{}, err
		}
	}

	return p, nil
}

// DiscoverRoot returns the project root directory to operate on.
//
// The SPECSAFE_DIR environment variable is checked first so tests and
// scripts can pin the project explicitly. Otherwise the current working
// directory is used as-is: parent directories are never searched, which
// prevents a nested checkout from silently picking up an enclosing
// project's memory.
func DiscoverRoot() (string, error) {
	if dir := os.Getenv("SPECSAFE_DIR"); dir != "" {
		abs, err := filepath.Abs(dir)
		if err != nil {
			return "", fmt.Errorf("resolving SPECSAFE_DIR: %w", err)
		}
		return abs, nil
	}

	dir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current directory: %w", err)
	}
	return dir, nil
}

// Initialized reports whether the .specsafe directory exists for this project
func (p Paths) Initialized() bool {
	info, err := os.Stat(p.Dir)
	return err == nil && info.IsDir()
}

// InitProject creates the .specsafe directory under root and seeds the
// default config file. The memory store file itself is written by the
// first save. Returns an error if the project already has a store file.
func InitProject(root string, cfg config.Config) (Paths, error) {
	if _, err := os.Stat(root); os.IsNotExist(err) {
		return Paths{}, fmt.Errorf("project directory does not exist: %s", root)
	}

	p, err := NewPaths(root, cfg)
	if err != nil {
		return Paths{}, err
	}

	if _, err := os.Stat(p.StorePath); err == nil {
		return Paths{}, fmt.Errorf(
			"project memory already initialized: %s\n"+
				"  Use 'specsafe status' to inspect it",
			p.StorePath)
	}

	if err := os.MkdirAll(p.Dir, 0755); err != nil {
		return Paths{}, &IOError{Op: "creating", Path: p.Dir, Err: err}
	}

	if _, err := os.Stat(p.ConfigPath); os.IsNotExist(err) {
		if err := config.SaveDefaultFile(p.ConfigPath); err != nil {
			return Paths{}, err
		}
	}

	return p, nil
}
