// Package seed imports categories and recurring rules from a YAML file.
//
//	categories:
//	  - name: Housing
//	    kind: expense
//	    budget: "1200.00"
//	recurring_rules:
//	  - name: Rent
//	    amount: "950.00"
//	    type: expense
//	    category: Housing
//	    frequency: monthly
//	    day: 1
//
// Entries are matched by name; ones that already exist are left untouched,
// so importing the same file twice is a no-op.
package seed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"fintrack/internal/core"
)

type File struct {
	Categories     []CategoryEntry `yaml:"categories"`
	RecurringRules []RuleEntry     `yaml:"recurring_rules"`
}

type CategoryEntry struct {
	Name   string `yaml:"name"`
	Kind   string `yaml:"kind"`
	Budget string `yaml:"budget,omitempty"`
}

type RuleEntry struct {
	Name      string `yaml:"name"`
	Amount    string `yaml:"amount"`
	Type      string `yaml:"type"`
	Category  string `yaml:"category,omitempty"`
	Frequency string `yaml:"frequency"`
	Day       int    `yaml:"day"`
}

// Store is the subset of storage the importer writes to.
type Store interface {
	ListCategories(ctx context.Context) ([]core.Category, error)
	SaveCategory(ctx context.Context, c core.Category) error
	ListRules(ctx context.Context) ([]core.RecurringRule, error)
	SaveRule(ctx context.Context, r core.RecurringRule) error
}

type Result struct {
	CategoriesCreated int
	RulesCreated      int
	Skipped           int
}

// Parse decodes a seed document. Unknown keys are rejected.
func Parse(r io.Reader) (File, error) {
	var f File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && err != io.EOF {
		return File{}, fmt.Errorf("decode seed file: %w", err)
	}
	return f, nil
}

// ImportFile parses path and imports it into store.
func ImportFile(ctx context.Context, store Store, path string) (Result, error) {
	fh, err := os.Open(path)
	if err != nil {
		return Result{}, fmt.Errorf("open seed file: %w", err)
	}
	defer fh.Close()

	f, err := Parse(fh)
	if err != nil {
		return Result{}, err
	}
	return Import(ctx, store, f)
}

// Import writes every entry of f not already present in store. Categories
// are created first so rules can reference them by name. The first invalid
// entry aborts the import; earlier entries stay written.
func Import(ctx context.Context, store Store, f File) (Result, error) {
	var res Result

	existing, err := store.ListCategories(ctx)
	if err != nil {
		return res, fmt.Errorf("list categories: %w", err)
	}
	byName := make(map[string]string, len(existing))
	for _, c := range existing {
		byName[strings.ToLower(c.Name)] = c.ID
	}

	for i, e := range f.Categories {
		key := strings.ToLower(strings.TrimSpace(e.Name))
		if _, ok := byName[key]; ok {
			res.Skipped++
			continue
		}
		c, err := e.toCategory()
		if err != nil {
			return res, fmt.Errorf("category %d (%q): %w", i+1, e.Name, err)
		}
		if err := store.SaveCategory(ctx, c); err != nil {
			return res, fmt.Errorf("save category %q: %w", c.Name, err)
		}
		byName[key] = c.ID
		res.CategoriesCreated++
	}

	rules, err := store.ListRules(ctx)
	if err != nil {
		return res, fmt.Errorf("list rules: %w", err)
	}
	ruleNames := make(map[string]bool, len(rules))
	for _, r := range rules {
		ruleNames[strings.ToLower(r.Name)] = true
	}

	for i, e := range f.RecurringRules {
		key := strings.ToLower(strings.TrimSpace(e.Name))
		if ruleNames[key] {
			res.Skipped++
			continue
		}
		r, err := e.toRule(byName)
		if err != nil {
			return res, fmt.Errorf("recurring rule %d (%q): %w", i+1, e.Name, err)
		}
		if err := store.SaveRule(ctx, r); err != nil {
			return res, fmt.Errorf("save rule %q: %w", r.Name, err)
		}
		ruleNames[key] = true
		res.RulesCreated++
	}

	slog.InfoContext(ctx, "Seed import complete",
		"categories_created", res.CategoriesCreated,
		"rules_created", res.RulesCreated,
		"skipped", res.Skipped)
	return res, nil
}

func (e CategoryEntry) toCategory() (core.Category, error) {
	c := core.Category{
		ID:   uuid.NewString(),
		Name: strings.TrimSpace(e.Name),
		Kind: core.TransactionType(strings.ToLower(e.Kind)),
	}
	if e.Budget != "" {
		b, err := core.ParseMoney(e.Budget)
		if err != nil {
			return core.Category{}, err
		}
		c.Budget = b
	}
	return c, c.Validate()
}

func (e RuleEntry) toRule(categories map[string]string) (core.RecurringRule, error) {
	amount, err := core.ParseMoney(e.Amount)
	if err != nil {
		return core.RecurringRule{}, err
	}
	sched, err := core.ScheduleFor(core.Frequency(strings.ToLower(e.Frequency)), e.Day)
	if err != nil {
		return core.RecurringRule{}, err
	}

	r := core.RecurringRule{
		ID:       uuid.NewString(),
		Name:     strings.TrimSpace(e.Name),
		Amount:   amount,
		Type:     core.TransactionType(strings.ToLower(e.Type)),
		Schedule: sched,
	}
	if e.Category != "" {
		id, ok := categories[strings.ToLower(strings.TrimSpace(e.Category))]
		if !ok {
			return core.RecurringRule{}, fmt.Errorf("%w: unknown category %q", core.ErrValidation, e.Category)
		}
		r.CategoryID = id
	}
	return r, r.Validate()
}
