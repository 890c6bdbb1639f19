package repl

import (
	"fmt"

	"github.com/fatih/color"

	"github.com/specsafe/specsafe/internal/steering"
	"github.com/specsafe/specsafe/internal/types"
)

// clip shortens s for single-line display.
func clip(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}

// cmdStatus shows a memory overview
func (r *REPL) cmdStatus(args []string) error {
	mem, err := r.mgr.Memory()
	if err != nil {
		return err
	}

	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()

	fmt.Printf("\n%s\n", cyan("Project Memory"))
	fmt.Println()
	fmt.Printf("  Project:     %s\n", mem.ProjectID)
	if r.mgr.Exists() {
		fmt.Printf("  Store:       %s\n", green("on disk"))
	} else {
		fmt.Printf("  Store:       %s\n", yellow("not saved yet"))
	}
	fmt.Printf("  Specs:       %d\n", len(mem.Specs))
	fmt.Printf("  Decisions:   %d\n", len(mem.Decisions))
	fmt.Printf("  Patterns:    %d\n", len(mem.Patterns))
	fmt.Printf("  Constraints: %d\n", len(mem.Constraints))
	fmt.Printf("  History:     %d entries\n", len(mem.History))
	fmt.Println()

	return nil
}

// cmdSpecs lists tracked specs
func (r *REPL) cmdSpecs(args []string) error {
	mem, err := r.mgr.Memory()
	if err != nil {
		return err
	}

	if len(mem.Specs) == 0 {
		fmt.Println("No specs tracked yet. Use 'specsafe spec add <id>' to register one.")
		return nil
	}

	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	fmt.Printf("\n%s\n", cyan(fmt.Sprintf("Specs (%d)", len(mem.Specs))))
	for _, id := range mem.Specs {
		fmt.Printf("  %s\n", id)
	}
	fmt.Println()

	return nil
}

// cmdDecisions lists decisions, optionally filtered to one spec
func (r *REPL) cmdDecisions(args []string) error {
	mem, err := r.mgr.Memory()
	if err != nil {
		return err
	}

	filter := ""
	if len(args) > 0 {
		filter = args[0]
	}

	var shown int
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	fmt.Printf("\n%s\n", cyan("Decisions"))
	for _, d := range mem.Decisions {
		if filter != "" && d.SpecID != filter {
			continue
		}
		shown++
		fmt.Printf("  %s  %s  %s\n", d.Timestamp.Format("2006-01-02"), d.SpecID, clip(d.Decision, 70))
		if d.Rationale != "" {
			fmt.Printf("              why: %s\n", clip(d.Rationale, 70))
		}
	}
	if shown == 0 {
		if filter != "" {
			fmt.Printf("  none recorded for %s\n", filter)
		} else {
			fmt.Println("  none recorded yet")
		}
	}
	fmt.Println()

	return nil
}

// cmdPatterns lists patterns by usage
func (r *REPL) cmdPatterns(args []string) error {
	patterns, err := r.mgr.GetReusablePatterns(1)
	if err != nil {
		return err
	}

	if len(patterns) == 0 {
		fmt.Println("No patterns recorded yet.")
		return nil
	}

	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()
	fmt.Printf("\n%s\n", cyan(fmt.Sprintf("Patterns (%d)", len(patterns))))
	for _, p := range patterns {
		fmt.Printf("  %s %s\n", green(fmt.Sprintf("%3dx", p.UsageCount)), p.Name)
		fmt.Printf("       %s\n", clip(p.Description, 70))
	}
	fmt.Println()

	return nil
}

// cmdConstraints lists constraints grouped by type
func (r *REPL) cmdConstraints(args []string) error {
	mem, err := r.mgr.Memory()
	if err != nil {
		return err
	}

	if len(mem.Constraints) == 0 {
		fmt.Println("No constraints recorded yet.")
		return nil
	}

	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	fmt.Printf("\n%s\n", cyan(fmt.Sprintf("Constraints (%d)", len(mem.Constraints))))
	for _, t := range []types.ConstraintType{types.ConstraintTechnical, types.ConstraintBusiness, types.ConstraintArchitectural} {
		for _, c := range mem.Constraints {
			if c.Type != t {
				continue
			}
			fmt.Printf("  [%s] %s\n", c.Type, clip(c.Description, 70))
			if c.Source != "" {
				fmt.Printf("    source: %s\n", c.Source)
			}
		}
	}
	fmt.Println()

	return nil
}

// cmdHistory shows the most recent history entries
func (r *REPL) cmdHistory(args []string) error {
	limit, err := parseLimit(args, 10)
	if err != nil {
		return err
	}

	mem, err := r.mgr.Memory()
	if err != nil {
		return err
	}

	if len(mem.History) == 0 {
		fmt.Println("No history yet.")
		return nil
	}

	start := len(mem.History) - limit
	if start < 0 {
		start = 0
	}

	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	fmt.Printf("\n%s\n", cyan(fmt.Sprintf("History (last %d of %d)", len(mem.History)-start, len(mem.History))))
	for _, h := range mem.History[start:] {
		fmt.Printf("  %s  %-9s %s\n", h.Timestamp.Format("2006-01-02 15:04"), h.Action, clip(h.Details, 60))
	}
	fmt.Println()

	return nil
}

// cmdContext shows the accumulated context for one spec
func (r *REPL) cmdContext(args []string) error {
	specID, err := requireSpecArg(args, "context")
	if err != nil {
		return err
	}

	sc, err := r.mgr.GetContextForSpec(specID)
	if err != nil {
		return err
	}

	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	fmt.Printf("\n%s\n", cyan(fmt.Sprintf("Context for %s", specID)))
	fmt.Println()
	fmt.Printf("  %s\n", sc.Summary)
	fmt.Println()
	if len(sc.RelatedSpecs) > 0 {
		fmt.Printf("  Related specs:\n")
		for _, id := range sc.RelatedSpecs {
			fmt.Printf("    %s\n", id)
		}
	}
	if len(sc.Decisions) > 0 {
		fmt.Printf("  Decisions from related specs:\n")
		for _, d := range sc.Decisions {
			fmt.Printf("    %s: %s\n", d.SpecID, clip(d.Decision, 60))
		}
	}
	fmt.Println()

	return nil
}

// cmdRelated shows the specs related to one spec
func (r *REPL) cmdRelated(args []string) error {
	specID, err := requireSpecArg(args, "related")
	if err != nil {
		return err
	}

	related, err := r.mgr.GetRelatedSpecs(specID)
	if err != nil {
		return err
	}

	if len(related) == 0 {
		fmt.Printf("No specs related to %s yet.\n", specID)
		return nil
	}

	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	fmt.Printf("\n%s\n", cyan(fmt.Sprintf("Specs related to %s", specID)))
	for _, id := range related {
		fmt.Printf("  %s\n", id)
	}
	fmt.Println()

	return nil
}

// cmdSteer runs the steering analysis for one spec
func (r *REPL) cmdSteer(args []string) error {
	specID, err := requireSpecArg(args, "steer")
	if err != nil {
		return err
	}

	engine := steering.NewEngine(r.store)
	if err := engine.Initialize(r.ctx, r.projectID); err != nil {
		return err
	}
	rep, err := engine.Analyze(specID)
	if err != nil {
		return err
	}

	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	fmt.Printf("\n%s\n", cyan(fmt.Sprintf("Steering for %s", specID)))
	fmt.Println()
	fmt.Printf("  %s\n", rep.Context)
	fmt.Println()

	if len(rep.Warnings) > 0 {
		fmt.Printf("  Warnings:\n")
		for _, w := range rep.Warnings {
			sev := severityColor(w.Severity)
			fmt.Printf("    %s %s\n", sev(fmt.Sprintf("[%s]", w.Severity)), w.Message)
		}
		fmt.Println()
	}
	if len(rep.Recommendations) > 0 {
		fmt.Printf("  Recommendations:\n")
		for _, rec := range rep.Recommendations {
			fmt.Printf("    %s %s\n", confidenceColor(rec.Confidence)(fmt.Sprintf("[%s]", rec.Confidence)), rec.Message)
		}
		fmt.Println()
	}
	if len(rep.Warnings) == 0 && len(rep.Recommendations) == 0 {
		fmt.Println("  Nothing to report yet.")
		fmt.Println()
	}

	return nil
}

func severityColor(s steering.Severity) func(a ...interface{}) string {
	switch s {
	case steering.SeverityHigh:
		return color.New(color.FgRed).SprintFunc()
	case steering.SeverityMedium:
		return color.New(color.FgYellow).SprintFunc()
	default:
		return color.New(color.FgCyan).SprintFunc()
	}
}

func confidenceColor(c steering.Confidence) func(a ...interface{}) string {
	if c == steering.ConfidenceHigh {
		return color.New(color.FgGreen).SprintFunc()
	}
	return color.New(color.FgYellow).SprintFunc()
}
