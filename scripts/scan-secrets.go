// scripts/scan-secrets.go - Audit a memory store for unredacted secrets
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/specsafe/specsafe/internal/config"
	"github.com/specsafe/specsafe/internal/sanitize"
	"github.com/specsafe/specsafe/internal/storage"
	"github.com/specsafe/specsafe/internal/types"
)

func main() {
	path, err := storePath()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error resolving store path: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Scanning store: %s\n", path)

	// Read the file raw: loading through the store would scrub rationale
	// and alternatives on the way in and hide exactly what we look for.
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		fmt.Println("✓ No store file; nothing to scan")
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading store: %v\n", err)
		os.Exit(1)
	}

	var mem types.ProjectMemory
	if err := json.Unmarshal(data, &mem); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing store: %v\n", err)
		os.Exit(1)
	}

	findings := scan(&mem)
	if len(findings) == 0 {
		fmt.Println("✓ No secret-shaped text found")
		return
	}

	fmt.Printf("Found %d secret-shaped field(s):\n", len(findings))
	for _, f := range findings {
		fmt.Printf("  - %s\n", f)
	}
	fmt.Println("Rationale and alternatives are rewritten redacted on the next save; re-record the other fields without the secret.")
	os.Exit(1)
}

// storePath resolves the store file to scan: an explicit path argument
// wins, otherwise the project's own store is used.
func storePath() (string, error) {
	if len(os.Args) > 1 {
		return os.Args[1], nil
	}

	root, err := storage.DiscoverRoot()
	if err != nil {
		return "", err
	}
	cfg, err := config.FromEnv()
	if err != nil {
		return "", err
	}
	paths, err := storage.NewPaths(root, cfg)
	if err != nil {
		return "", err
	}
	return paths.StorePath, nil
}

// scan checks every free-text field in the memory against the redaction
// rules and returns a human-readable location for each field that would
// change. Recording paths only redact decision rationale and alternatives,
// so pattern, constraint, and history text can carry secrets that arrived
// before anyone noticed.
func scan(mem *types.ProjectMemory) []string {
	var findings []string
	flag := func(where, text string) {
		if sanitize.Redact(text) != text {
			findings = append(findings, where)
		}
	}

	for i := range mem.Decisions {
		d := &mem.Decisions[i]
		flag(fmt.Sprintf("decision %s (spec %s): decision text", d.ID, d.SpecID), d.Decision)
		flag(fmt.Sprintf("decision %s (spec %s): rationale", d.ID, d.SpecID), d.Rationale)
		for j, alt := range d.Alternatives {
			flag(fmt.Sprintf("decision %s (spec %s): alternative %d", d.ID, d.SpecID, j+1), alt)
		}
	}

	for i := range mem.Patterns {
		p := &mem.Patterns[i]
		flag(fmt.Sprintf("pattern %q: description", p.Name), p.Description)
		for j := range p.Examples {
			ex := &p.Examples[j]
			flag(fmt.Sprintf("pattern %q: example %d context", p.Name, j+1), ex.Context)
			flag(fmt.Sprintf("pattern %q: example %d snippet", p.Name, j+1), ex.Snippet)
		}
	}

	for i := range mem.Constraints {
		c := &mem.Constraints[i]
		flag(fmt.Sprintf("constraint %s (%s): description", c.ID, c.Type), c.Description)
	}

	for i := range mem.History {
		h := &mem.History[i]
		flag(fmt.Sprintf("history entry %d (spec %s): details", i+1, h.SpecID), h.Details)
	}

	return findings
}
