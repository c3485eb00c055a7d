package flows

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/goliatone/go-authflow/pkg/model"
	"github.com/goliatone/go-authflow/pkg/rules"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidationError reports one problem in a flow definition.
type ValidationError struct {
	Flow    string
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("flow %q: %s", e.Flow, e.Message)
	}
	return fmt.Sprintf("flow %q: %s: %s", e.Flow, e.Field, e.Message)
}

// Validate checks the structure of flow (struct tags), that every step field
// and error field is declared, that step names are unique and that every rule
// compiles against registry (the built-in registry when nil).
func Validate(flow model.FlowDefinition, registry *rules.Registry) error {
	var errs []error

	if err := validate.Struct(flow); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				errs = append(errs, ValidationError{
					Flow:    flow.ID,
					Field:   fe.Namespace(),
					Message: fmt.Sprintf("failed %q (param %q)", fe.Tag(), fe.Param()),
				})
			}
		} else {
			errs = append(errs, err)
		}
		return errors.Join(errs...)
	}

	declared := make(map[string]struct{}, len(flow.Fields))
	for _, field := range flow.Fields {
		declared[field.Name] = struct{}{}
	}

	steps := make(map[string]struct{}, len(flow.Steps))
	for idx, step := range flow.Steps {
		path := fmt.Sprintf("steps[%d]", idx)
		if _, dup := steps[step.Name]; dup {
			errs = append(errs, ValidationError{Flow: flow.ID, Field: path, Message: fmt.Sprintf("duplicate step name %q", step.Name)})
		}
		steps[step.Name] = struct{}{}

		for _, name := range step.Fields {
			if _, ok := declared[name]; !ok {
				errs = append(errs, ValidationError{Flow: flow.ID, Field: path, Message: fmt.Sprintf("field %q is not declared", name)})
			}
		}
		if step.ErrorField != "" {
			if _, ok := declared[step.ErrorField]; !ok {
				errs = append(errs, ValidationError{Flow: flow.ID, Field: path, Message: fmt.Sprintf("error field %q is not declared", step.ErrorField)})
			}
		}
	}

	if flow.Route != "" && !strings.HasPrefix(flow.Route, "/") {
		errs = append(errs, ValidationError{Flow: flow.ID, Field: "route", Message: "must start with /"})
	}

	if registry == nil {
		registry = rules.NewRegistry()
	}
	if _, err := registry.Compile(flow); err != nil {
		errs = append(errs, ValidationError{Flow: flow.ID, Field: "fields", Message: err.Error()})
	}

	return errors.Join(errs...)
}
