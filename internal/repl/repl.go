// Package repl is the interactive hierarchy browser. It keeps one hierarchy
// cache for the session, so repeated views of the same project hit the
// backend at most once per freshness window.
package repl

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/fatih/color"

	"github.com/taskdeck/taskdeck/internal/client"
	"github.com/taskdeck/taskdeck/internal/hierarchy"
	"github.com/taskdeck/taskdeck/internal/types"
)

// REPL represents the interactive shell
type REPL struct {
	api      *client.Client
	store    *hierarchy.Store
	coord    *hierarchy.Coordinator
	rl       *readline.Instance
	ctx      context.Context
	project  types.ItemID
	commands map[string]CommandHandler
}

// CommandHandler handles a specific command
type CommandHandler func(args []string) error

// Config holds REPL configuration
type Config struct {
	Client   *client.Client
	CacheTTL time.Duration // 0 uses the coordinator default
	Project  types.ItemID
}

// New creates a new REPL instance
func New(cfg *Config) (*REPL, error) {
	if cfg.Client == nil {
		return nil, fmt.Errorf("client is required")
	}

	store := hierarchy.NewStore()
	r := &REPL{
		api:      cfg.Client,
		store:    store,
		coord:    hierarchy.NewCoordinator(store, cfg.Client, cfg.CacheTTL),
		project:  cfg.Project,
		commands: make(map[string]CommandHandler),
	}
	r.registerCommands()
	return r, nil
}

// Run starts the REPL loop
func (r *REPL) Run(ctx context.Context) error {
	r.ctx = ctx

	cyan := color.New(color.FgCyan).SprintFunc()
	rl, err := readline.NewEx(&readline.Config{
		Prompt:            cyan("taskdeck> "),
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

	command := parts[0]
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
	r.commands["projects"] = r.cmdProjects
	r.commands["use"] = r.cmdUse
	r.commands["tree"] = r.cmdTree
	r.commands["list"] = r.cmdList
	r.commands["find"] = r.cmdFind
	r.commands["set"] = r.cmdSet
	r.commands["toggle"] = r.cmdToggle
	r.commands["refresh"] = r.cmdRefresh
	r.commands["stats"] = r.cmdStats
}

// printWelcome prints the welcome message
func (r *REPL) printWelcome() {
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	fmt.Printf("\n%s\n", cyan("taskdeck interactive browser"))
	fmt.Println()
	fmt.Println("Type 'help' for available commands, 'exit' to quit")
	if r.project != "" {
		fmt.Printf("Current project: %s\n", r.project)
	} else {
		fmt.Println("Pick a project with 'use <project-id>'")
	}
	fmt.Println()
}

// cmdHelp shows help information
func (r *REPL) cmdHelp(args []string) error {
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()
	fmt.Printf("\n%s\n\n", cyan("Available Commands:"))

	commands := []struct {
		name string
		desc string
	}{
		{"projects", "List projects"},
		{"use <id>", "Switch to a project"},
		{"tree", "Show the project's work item hierarchy"},
		{"list <type> [parent-id]", "List items of a type, optionally scoped to a parent"},
		{"find <id>", "Show one work item"},
		{"set <id> <field> <value>", "Edit a field (title, status, priority)"},
		{"toggle <id>", "Flip an item's active flag (cascades to descendants)"},
		{"refresh", "Force a refetch of the current project"},
		{"stats", "Show aggregate counts for the current project"},
		{"help, ?", "Show this help message"},
		{"exit, quit", "Exit the browser"},
	}
	for _, cmd := range commands {
		fmt.Printf("  %-28s %s\n", green(cmd.name), cmd.desc)
	}
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
