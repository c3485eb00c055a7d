package flows

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-authflow/pkg/model"
	"github.com/goliatone/go-authflow/pkg/rules"
)

// LoadOption customises LoadFS.
type LoadOption func(*loadOptions)

type loadOptions struct {
	registry  *rules.Registry
	fallback  string
	overrides bool
}

// WithRegistry checks rule kinds against registry instead of the built-in
// registry.
func WithRegistry(registry *rules.Registry) LoadOption {
	return func(o *loadOptions) {
		if registry != nil {
			o.registry = registry
		}
	}
}

// WithFallbackFlow sets the flow Resolve returns for unknown routes.
func WithFallbackFlow(id string) LoadOption {
	return func(o *loadOptions) {
		if trimmed := strings.TrimSpace(id); trimmed != "" {
			o.fallback = trimmed
		}
	}
}

// WithOverrides lets later files replace flows with the same id instead of
// failing with a duplicate error.
func WithOverrides() LoadOption {
	return func(o *loadOptions) {
		o.overrides = true
	}
}

// LoadFS walks fsys and parses every JSON or YAML file into a flow definition.
// Each definition is validated before it is added to the store. A nil fsys
// yields an empty store.
func LoadFS(fsys fs.FS, options ...LoadOption) (*Store, error) {
	opts := loadOptions{fallback: DefaultFallbackFlow}
	for _, opt := range options {
		if opt != nil {
			opt(&opts)
		}
	}

	store := newStore(opts.fallback)
	if fsys == nil {
		return store, nil
	}

	err := fs.WalkDir(fsys, ".", func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() || !isDefinitionFile(path) {
			return nil
		}

		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("flows: read %s: %w", path, err)
		}

		flow, err := parseDefinition(data, path)
		if err != nil {
			return err
		}
		flow.Source = path

		if err := Validate(flow, opts.registry); err != nil {
			return fmt.Errorf("flows: %s: %w", path, err)
		}

		if existing, exists := store.flows[flow.ID]; exists && !opts.overrides {
			return fmt.Errorf("flows: duplicate flow %q (files %s and %s)", flow.ID, existing.Source, path)
		}
		store.put(flow)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return store, nil
}

func parseDefinition(data []byte, source string) (model.FlowDefinition, error) {
	var flow model.FlowDefinition
	if len(strings.TrimSpace(string(data))) == 0 {
		return flow, fmt.Errorf("flows: file %s is empty", source)
	}

	if strings.EqualFold(filepath.Ext(source), ".json") {
		if err := json.Unmarshal(data, &flow); err != nil {
			return model.FlowDefinition{}, fmt.Errorf("flows: parse %s: %w", source, err)
		}
		return normalise(flow), nil
	}

	if err := yaml.Unmarshal(data, &flow); err != nil {
		return model.FlowDefinition{}, fmt.Errorf("flows: parse %s: %w", source, err)
	}
	return normalise(flow), nil
}

func normalise(flow model.FlowDefinition) model.FlowDefinition {
	flow.ID = strings.TrimSpace(flow.ID)
	flow.Route = strings.ToLower(strings.TrimSpace(flow.Route))
	for i := range flow.Fields {
		flow.Fields[i].Name = strings.TrimSpace(flow.Fields[i].Name)
		flow.Fields[i].Rule = strings.TrimSpace(flow.Fields[i].Rule)
	}
	for i := range flow.Steps {
		step := &flow.Steps[i]
		step.Name = strings.TrimSpace(step.Name)
		step.Action = strings.TrimSpace(step.Action)
		step.ErrorField = strings.TrimSpace(step.ErrorField)
		for j := range step.Fields {
			step.Fields[j] = strings.TrimSpace(step.Fields[j])
		}
	}
	return flow
}

func isDefinitionFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return true
	default:
		return false
	}
}
