package model

import (
	"sort"
	"strings"
)

// Built-in rule kinds understood by the rules registry.
const (
	RuleKindPhone       = "phone"
	RuleKindPassword    = "password"
	RuleKindConfirm     = "confirm"
	RuleKindCode        = "code"
	RuleKindUsername    = "username"
	RuleKindUSCC        = "uscc"
	RuleKindPermit      = "permit"
	RuleKindCompanyName = "company-name"
	RuleKindRequired    = "required"
)

// Step actions. ActionAdvance moves to the next step without contacting a
// collaborator; the others delegate to the matching collaborator.
const (
	ActionAdvance             = "advance"
	ActionVerifyCode          = "verify-code"
	ActionSubmitRegistration  = "submit-registration"
	ActionSubmitPasswordReset = "submit-password-reset"
	ActionLogin               = "login"
)

// Rule parameter names.
const (
	ParamConfirmOf = "of"
	ParamCharset   = "charset"
	ParamLength    = "length"
)

// FormState maps field names to their current values. Values are always
// strings, including numeric-looking fields such as phones and codes.
type FormState map[string]string

// Get returns the value for name, treating absent keys as empty strings.
func (f FormState) Get(name string) string {
	if f == nil {
		return ""
	}
	return f[name]
}

// Clone returns an independent copy of the form state.
func (f FormState) Clone() FormState {
	out := make(FormState, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// ErrorMap holds at most one active message per field. An absent key means no
// error is shown for that field.
type ErrorMap map[string]string

// Empty reports whether the map carries no violations.
func (e ErrorMap) Empty() bool {
	return len(e) == 0
}

// Fields returns the field names with active errors in sorted order.
func (e ErrorMap) Fields() []string {
	if len(e) == 0 {
		return nil
	}
	out := make([]string, 0, len(e))
	for name := range e {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Clone returns an independent copy of the error map.
func (e ErrorMap) Clone() ErrorMap {
	if e == nil {
		return nil
	}
	out := make(ErrorMap, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}

// FieldSpec declares a form field and the rule that validates it.
type FieldSpec struct {
	Name     string            `json:"name" yaml:"name" validate:"required"`
	Label    string            `json:"label,omitempty" yaml:"label,omitempty"`
	Rule     string            `json:"rule" yaml:"rule" validate:"required"`
	Optional bool              `json:"optional,omitempty" yaml:"optional,omitempty"`
	Secret   bool              `json:"secret,omitempty" yaml:"secret,omitempty"`
	Params   map[string]string `json:"params,omitempty" yaml:"params,omitempty"`
	// Message overrides the message key reported when the rule fails.
	Message string `json:"message,omitempty" yaml:"message,omitempty"`
}

// Param returns a trimmed rule parameter.
func (f FieldSpec) Param(name string) string {
	if f.Params == nil {
		return ""
	}
	return strings.TrimSpace(f.Params[name])
}

// StepDefinition is one stage of a flow: the fields it validates and the
// action performed once they pass.
type StepDefinition struct {
	Name   string   `json:"name" yaml:"name" validate:"required"`
	Title  string   `json:"title,omitempty" yaml:"title,omitempty"`
	Fields []string `json:"fields" yaml:"fields" validate:"required,min=1,dive,required"`
	Action string   `json:"action" yaml:"action" validate:"required"`
	// ErrorField receives collaborator failures that are not attributed to a
	// specific field.
	ErrorField string `json:"errorField,omitempty" yaml:"errorField,omitempty"`
}

// FlowDefinition describes a complete multi-step form.
type FlowDefinition struct {
	ID              string           `json:"id" yaml:"id" validate:"required"`
	Title           string           `json:"title,omitempty" yaml:"title,omitempty"`
	Route           string           `json:"route,omitempty" yaml:"route,omitempty"`
	PasswordCharset string           `json:"passwordCharset,omitempty" yaml:"passwordCharset,omitempty"`
	Fields          []FieldSpec      `json:"fields" yaml:"fields" validate:"required,min=1,dive"`
	Steps           []StepDefinition `json:"steps" yaml:"steps" validate:"required,min=1,dive"`
	Source          string           `json:"-" yaml:"-"`
}

// Field returns the declaration of the field called name.
func (f FlowDefinition) Field(name string) (FieldSpec, bool) {
	for _, field := range f.Fields {
		if field.Name == name {
			return field, true
		}
	}
	return FieldSpec{}, false
}

// StepCount reports the number of steps.
func (f FlowDefinition) StepCount() int {
	return len(f.Steps)
}
