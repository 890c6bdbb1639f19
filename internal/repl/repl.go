// Package repl provides the interactive shell for browsing project
// memory. It is read-only: recording specs, decisions, patterns, and
// constraints happens through the CLI commands, while the shell answers
// questions about what has accumulated.
package repl

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/fatih/color"

	"github.com/specsafe/specsafe/internal/memory"
	"github.com/specsafe/specsafe/internal/storage"
)

// REPL represents the interactive shell
type REPL struct {
	store     *storage.Store
	mgr       *memory.Manager
	projectID string
	rl        *readline.Instance
	ctx       context.Context
	commands  map[string]CommandHandler
}

// CommandHandler handles a specific command
type CommandHandler func(args []string) error

// Config holds REPL configuration
type Config struct {
	Store     *storage.Store
	ProjectID string
}

// New creates a new REPL instance
func New(cfg *Config) (*REPL, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("storage is required")
	}
	if cfg.ProjectID == "" {
		return nil, fmt.Errorf("project id is required")
	}

	r := &REPL{
		store:     cfg.Store,
		mgr:       memory.NewManager(cfg.Store),
		projectID: cfg.ProjectID,
		commands:  make(map[string]CommandHandler),
	}

	r.registerCommands()

	return r, nil
}

// Run loads the project memory and starts the shell loop
func (r *REPL) Run(ctx context.Context) error {
	r.ctx = ctx

	if _, err := r.mgr.Load(ctx, r.projectID); err != nil {
		return err
	}

	cyan := color.New(color.FgCyan).SprintFunc()
	prompt := cyan("specsafe> ")

	rl, err := readline.NewEx(&readline.Config{
		Prompt:            prompt,
		HistoryFile:       "",
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
	})
	if err != nil {
		return fmt.Errorf("failed to create readline: %w", err)
	}
	defer rl.Close()

	r.rl = rl

	r.printWelcome()

	for {
		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			} else if err == io.EOF {
				fmt.Println("\nGoodbye!")
				return nil
			}
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if err := r.processInput(line); err != nil {
			if err == io.EOF {
				return nil
			}
			red := color.New(color.FgRed).SprintFunc()
			fmt.Printf("%s %v\n", red("Error:"), err)
		}
	}
}

// processInput processes a single line of input
func (r *REPL) processInput(line string) error {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return nil
	}

	command := strings.ToLower(parts[0])
	args := parts[1:]

	if handler, ok := r.commands[command]; ok {
		return handler(args)
	}

	yellow := color.New(color.FgYellow).SprintFunc()
	fmt.Printf("%s Unknown command %q. Use 'help' for available commands.\n", yellow("Note:"), command)
	return nil
}

// registerCommands registers all built-in commands
func (r *REPL) registerCommands() {
	r.commands["help"] = r.cmdHelp
	r.commands["?"] = r.cmdHelp
	r.commands["exit"] = r.cmdExit
	r.commands["quit"] = r.cmdExit
	r.commands["status"] = r.cmdStatus
	r.commands["specs"] = r.cmdSpecs
	r.commands["decisions"] = r.cmdDecisions
	r.commands["patterns"] = r.cmdPatterns
	r.commands["constraints"] = r.cmdConstraints
	r.commands["history"] = r.cmdHistory
	r.commands["context"] = r.cmdContext
	r.commands["related"] = r.cmdRelated
	r.commands["steer"] = r.cmdSteer
	r.commands["reload"] = r.cmdReload
}

// printWelcome prints the welcome message
func (r *REPL) printWelcome() {
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	fmt.Printf("\n%s\n", cyan("SpecSafe project memory"))
	fmt.Printf("Project: %s\n", r.projectID)
	fmt.Println()
	fmt.Println("Type 'help' for available commands, 'exit' to quit")
	fmt.Println()
}

// cmdHelp shows help information
func (r *REPL) cmdHelp(args []string) error {
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()
	fmt.Printf("\n%s\n", cyan("Available Commands:"))
	fmt.Println()

	commands := []struct {
		name string
		desc string
	}{
		{"help, ?", "Show this help message"},
		{"status", "Show memory overview"},
		{"specs", "List tracked specs"},
		{"decisions [spec]", "List decisions, optionally for one spec"},
		{"patterns", "List patterns by usage"},
		{"constraints", "List constraints by type"},
		{"history [n]", "Show the last n history entries (default 10)"},
		{"context <spec>", "Show accumulated context for a spec"},
		{"related <spec>", "Show specs related to a spec"},
		{"steer <spec>", "Show warnings and recommendations for a spec"},
		{"reload", "Re-read memory from disk"},
		{"exit, quit", "Exit the shell"},
	}

	for _, cmd := range commands {
		fmt.Printf("  %-18s %s\n", green(cmd.name), cmd.desc)
	}

	fmt.Println()
	fmt.Println("Recording happens through the CLI:")
	fmt.Println("  specsafe decision add <spec> ...")
	fmt.Println("  specsafe pattern record <spec> ...")
	fmt.Println()

	return nil
}

// cmdExit exits the REPL
func (r *REPL) cmdExit(args []string) error {
	green := color.New(color.FgGreen).SprintFunc()
	fmt.Printf("\n%s Goodbye!\n", green("✓"))
	r.rl.Close()
	return io.EOF
}

// cmdReload re-reads memory from disk, picking up other processes' saves
func (r *REPL) cmdReload(args []string) error {
	if _, err := r.mgr.Load(r.ctx, r.projectID); err != nil {
		return err
	}
	green := color.New(color.FgGreen).SprintFunc()
	fmt.Printf("%s Reloaded memory from disk\n", green("✓"))
	return nil
}

// parseLimit reads an optional numeric argument, falling back to def.
func parseLimit(args []string, def int) (int, error) {
	if len(args) == 0 {
		return def, nil
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 {
		return 0, fmt.Errorf("limit must be a positive number (got %q)", args[0])
	}
	return n, nil
}

// requireSpecArg extracts the spec id argument commands like 'context' need.
func requireSpecArg(args []string, command string) (string, error) {
	if len(args) == 0 {
		return "", fmt.Errorf("usage: %s <spec-id>", command)
	}
	return args[0], nil
}
