package rules

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-authflow/pkg/i18n"
	"github.com/goliatone/go-authflow/pkg/model"
)

// FieldError is a single validation violation. It is data, not a failure of
// the caller: tables return it and the engine folds it into an ErrorMap.
type FieldError struct {
	Field   string
	Kind    string
	Key     string
	Message string
}

func (e *FieldError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("rules: %s: %s", e.Field, e.Message)
}

type compiledField struct {
	spec model.FieldSpec
	rule Rule
}

// Table holds the compiled rules of one flow, keyed by field name. It is
// immutable after Compile and safe for concurrent use.
type Table struct {
	flowID    string
	fields    map[string]compiledField
	localizer i18n.Localizer
}

// WithLocalizer returns a copy of the table that renders messages through l.
func (t *Table) WithLocalizer(l i18n.Localizer) *Table {
	if t == nil {
		return nil
	}
	clone := *t
	clone.localizer = l
	return &clone
}

// Has reports whether a rule is registered for name.
func (t *Table) Has(name string) bool {
	if t == nil {
		return false
	}
	_, ok := t.fields[name]
	return ok
}

// Spec returns the declaration of name.
func (t *Table) Spec(name string) (model.FieldSpec, bool) {
	if t == nil {
		return model.FieldSpec{}, false
	}
	f, ok := t.fields[name]
	return f.spec, ok
}

// ValidateField applies the rule registered for name. Fields without a rule
// always pass. Blank values fail with the required message unless the rule
// accepts empty input. Optional fields are skipped only when the value is
// exactly empty; whitespace still goes through the rule.
func (t *Table) ValidateField(name, value string, form model.FormState) *FieldError {
	if t == nil {
		return nil
	}
	field, ok := t.fields[name]
	if !ok {
		return nil
	}

	if !field.rule.AllowEmpty {
		switch {
		case field.spec.Optional && value == "":
			return nil
		case !field.spec.Optional && strings.TrimSpace(value) == "":
			return t.fieldError(name, field.rule.Kind, i18n.KeyRequired)
		}
	}

	if !field.rule.Check(value, form) {
		return t.fieldError(name, field.rule.Kind, field.rule.Key)
	}
	return nil
}

// ValidateFields runs ValidateField for each name against form and returns
// every violation. The result is never nil.
func (t *Table) ValidateFields(names []string, form model.FormState) model.ErrorMap {
	out := make(model.ErrorMap)
	for _, name := range names {
		if fe := t.ValidateField(name, form.Get(name), form); fe != nil {
			out[name] = fe.Message
		}
	}
	return out
}

func (t *Table) fieldError(name, kind, key string) *FieldError {
	return &FieldError{
		Field:   name,
		Kind:    kind,
		Key:     key,
		Message: t.localizer.Message(key),
	}
}
