package rules

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-authflow/pkg/model"
)

// Predicate reports whether value is acceptable. The whole form is supplied so
// dependent rules (password confirmation) can inspect sibling fields.
type Predicate func(value string, form model.FormState) bool

// Rule is a compiled validation rule for one field.
type Rule struct {
	Kind string
	// Key is the message key reported when Check fails.
	Key   string
	Check Predicate
	// AllowEmpty runs Check even when the value is empty instead of reporting
	// the required message. Confirmation rules use it so that empty == empty.
	AllowEmpty bool
}

// Factory builds a Rule for a field declared in flow.
type Factory func(spec model.FieldSpec, flow model.FlowDefinition) (Rule, error)

type entry struct {
	kind    string
	factory Factory
	order   int
}

// Registry maps rule kinds to factories. NewRegistry registers the built-in
// kinds; callers may add their own or replace built-ins, the latest
// registration wins.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]entry
}

// NewRegistry constructs a registry with the built-in rule kinds registered.
func NewRegistry() *Registry {
	reg := &Registry{entries: make(map[string]entry)}
	reg.registerBuiltins()
	return reg
}

// Register adds or replaces the factory for kind. Empty kinds and nil
// factories are ignored.
func (r *Registry) Register(kind string, factory Factory) {
	if r == nil || factory == nil {
		return
	}
	trimmed := strings.TrimSpace(kind)
	if trimmed == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.entries == nil {
		r.entries = make(map[string]entry)
	}
	order := len(r.entries)
	if existing, ok := r.entries[trimmed]; ok {
		order = existing.order
	}
	r.entries[trimmed] = entry{
		kind:    trimmed,
		factory: factory,
		order:   order,
	}
}

// Lookup returns the factory registered for kind.
func (r *Registry) Lookup(kind string) (Factory, bool) {
	if r == nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[strings.TrimSpace(kind)]
	if !ok {
		return nil, false
	}
	return e.factory, true
}

// Kinds lists registered kinds in registration order.
func (r *Registry) Kinds() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	list := make([]entry, 0, len(r.entries))
	for _, e := range r.entries {
		list = append(list, e)
	}
	r.mu.RUnlock()
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].order < list[j].order
	})
	out := make([]string, 0, len(list))
	for _, e := range list {
		out = append(out, e.kind)
	}
	return out
}

// Compile builds the rule table for flow. Every declared field must use a
// registered kind.
func (r *Registry) Compile(flow model.FlowDefinition) (*Table, error) {
	table := &Table{
		flowID: flow.ID,
		fields: make(map[string]compiledField, len(flow.Fields)),
	}
	for _, spec := range flow.Fields {
		name := strings.TrimSpace(spec.Name)
		if name == "" {
			return nil, fmt.Errorf("rules: flow %q declares a field without a name", flow.ID)
		}
		if _, exists := table.fields[name]; exists {
			return nil, fmt.Errorf("rules: flow %q declares field %q twice", flow.ID, name)
		}
		factory, ok := r.Lookup(spec.Rule)
		if !ok {
			return nil, fmt.Errorf("rules: flow %q field %q uses unknown rule %q", flow.ID, name, spec.Rule)
		}
		rule, err := factory(spec, flow)
		if err != nil {
			return nil, fmt.Errorf("rules: flow %q field %q: %w", flow.ID, name, err)
		}
		if rule.Check == nil {
			return nil, fmt.Errorf("rules: flow %q field %q: rule %q has no predicate", flow.ID, name, spec.Rule)
		}
		if rule.Kind == "" {
			rule.Kind = spec.Rule
		}
		if msg := strings.TrimSpace(spec.Message); msg != "" {
			rule.Key = msg
		}
		table.fields[name] = compiledField{spec: spec, rule: rule}
	}
	return table, nil
}

// Compile builds a table using the default registry.
func Compile(flow model.FlowDefinition) (*Table, error) {
	return defaultRegistry.Compile(flow)
}

var defaultRegistry = NewRegistry()
