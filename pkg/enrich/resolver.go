package enrich

import (
	"context"
	"fmt"
	"strings"
)

// Action is how a field conflict was settled.
type Action string

// Conflict actions.
const (
	// KeptExisting leaves the target value untouched.
	KeptExisting Action = "kept_existing"
	// AutoUpdated replaces the target value with the candidate value.
	AutoUpdated Action = "auto_updated"
	// FlaggedForReview leaves the target value untouched and marks the
	// conflict for a human.
	FlaggedForReview Action = "flagged_for_review"
)

// Valid reports whether a is a known action.
func (a Action) Valid() bool {
	switch a {
	case KeptExisting, AutoUpdated, FlaggedForReview:
		return true
	}
	return false
}

// ParseAction parses an action name.
func ParseAction(s string) (Action, error) {
	a := Action(strings.ToLower(strings.TrimSpace(s)))
	if !a.Valid() {
		return "", fmt.Errorf("unknown conflict action %q", s)
	}
	return a, nil
}

// Conflict is a non-empty target field that disagrees with the candidate value.
type Conflict struct {
	Field     string `json:"field" yaml:"field"`
	Existing  any    `json:"existing" yaml:"existing"`
	Candidate any    `json:"candidate" yaml:"candidate"`
	Action    Action `json:"action" yaml:"action"`
}

// ConflictResolver chooses the action for a conflict.
type ConflictResolver interface {
	Resolve(ctx context.Context, c Conflict) Action
}

// ResolverFunc adapts a function to ConflictResolver.
type ResolverFunc func(ctx context.Context, c Conflict) Action

// Resolve implements ConflictResolver.
func (f ResolverFunc) Resolve(ctx context.Context, c Conflict) Action {
	return f(ctx, c)
}

// KeepExisting never changes a populated field.
var KeepExisting ConflictResolver = ResolverFunc(func(context.Context, Conflict) Action {
	return KeptExisting
})

// FieldPolicy resolves conflicts by field name. Unlisted fields use Default,
// or KeptExisting when Default is empty.
type FieldPolicy struct {
	Fields  map[string]Action
	Default Action
}

// Resolve implements ConflictResolver.
func (p FieldPolicy) Resolve(_ context.Context, c Conflict) Action {
	if a, ok := p.Fields[c.Field]; ok && a.Valid() {
		return a
	}
	if p.Default.Valid() {
		return p.Default
	}
	return KeptExisting
}

// ParseFieldPolicy builds a FieldPolicy from a field to action map. The key
// "*" sets the default.
func ParseFieldPolicy(m map[string]string) (FieldPolicy, error) {
	p := FieldPolicy{Fields: make(map[string]Action, len(m))}
	for field, name := range m {
		a, err := ParseAction(name)
		if err != nil {
			return FieldPolicy{}, fmt.Errorf("field %s: %w", field, err)
		}
		if field == "*" {
			p.Default = a
			continue
		}
		if !IsField(field) {
			return FieldPolicy{}, fmt.Errorf("unknown enrichable field %q", field)
		}
		p.Fields[field] = a
	}
	return p, nil
}
