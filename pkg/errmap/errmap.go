package errmap

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// OperationError is returned by collaborators that can attribute a failure to
// a form field, for example a wrong verification code. Message may be a
// message key or display text; Field may be empty for form-level failures.
type OperationError struct {
	Field   string
	Message string
	Err     error
}

// FieldError builds an OperationError attributed to field.
func FieldError(field, message string, err error) *OperationError {
	return &OperationError{Field: strings.TrimSpace(field), Message: message, Err: err}
}

func (e *OperationError) Error() string {
	if e == nil {
		return ""
	}
	switch {
	case e.Field != "" && e.Err != nil:
		return fmt.Sprintf("operation failed on %s: %s: %v", e.Field, e.Message, e.Err)
	case e.Field != "":
		return fmt.Sprintf("operation failed on %s: %s", e.Field, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("operation failed: %s: %v", e.Message, e.Err)
	default:
		return "operation failed: " + e.Message
	}
}

func (e *OperationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// PayloadError carries a backend error payload keyed by field paths. Paths may
// use JSON pointer (/body/phone), dotted (data.phone) or bracket (items[0])
// notation; form-level keys such as "non_field_errors" are recognised.
type PayloadError struct {
	Payload map[string][]string
	Err     error
}

func (e *PayloadError) Error() string {
	if e == nil {
		return ""
	}
	keys := make([]string, 0, len(e.Payload))
	for k := range e.Payload {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	msg := "operation rejected: " + strings.Join(keys, ", ")
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *PayloadError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Mapping splits an error payload into field-level and form-level messages.
type Mapping struct {
	Fields map[string][]string
	Form   []string
}

// MapPayload normalises payload keys onto the known field names. Unknown paths
// are treated as form-level errors so messages are not lost.
func MapPayload(fields []string, payload map[string][]string) Mapping {
	mapping := Mapping{Fields: make(map[string][]string)}
	if len(payload) == 0 {
		mapping.Fields = nil
		return mapping
	}

	known := make(map[string]struct{}, len(fields))
	for _, name := range fields {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			known[trimmed] = struct{}{}
		}
	}

	keys := make([]string, 0, len(payload))
	for k := range payload {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, rawPath := range keys {
		messages := normalizeMessages(payload[rawPath])
		if len(messages) == 0 {
			continue
		}
		field, formLevel := mapPath(rawPath, known)
		if formLevel {
			mapping.Form = append(mapping.Form, messages...)
			continue
		}
		mapping.Fields[field] = append(mapping.Fields[field], messages...)
	}

	if len(mapping.Fields) == 0 {
		mapping.Fields = nil
	}
	mapping.Form = normalizeMessages(mapping.Form)
	return mapping
}

// Attribution is the outcome of Attribute.
type Attribution struct {
	// Fields holds one message per attributed field.
	Fields map[string]string
	// Form holds messages that could not be attributed to a field.
	Form []string
}

// Attribute translates a collaborator error into field-scoped messages where
// possible. OperationError and PayloadError are honoured; any other error
// is attributed to fallbackField with fallbackMessage when fallbackField is
// set, and reported form-level otherwise.
func Attribute(err error, fields []string, fallbackField, fallbackMessage string) Attribution {
	out := Attribution{Fields: make(map[string]string)}
	if err == nil {
		out.Fields = nil
		return out
	}

	var opErr *OperationError
	var payloadErr *PayloadError
	switch {
	case errors.As(err, &opErr):
		msg := strings.TrimSpace(opErr.Message)
		if msg == "" {
			msg = fallbackMessage
		}
		field, formLevel := mapPath(opErr.Field, knownSet(fields))
		if formLevel {
			out.Form = []string{msg}
		} else {
			out.Fields[field] = msg
		}
	case errors.As(err, &payloadErr):
		mapping := MapPayload(fields, payloadErr.Payload)
		for field, messages := range mapping.Fields {
			out.Fields[field] = messages[0]
		}
		out.Form = mapping.Form
		if len(out.Fields) == 0 && len(out.Form) == 0 {
			out.Form = []string{fallbackMessage}
		}
	default:
		if fallbackField != "" {
			out.Fields[fallbackField] = fallbackMessage
		} else {
			out.Form = []string{fallbackMessage}
		}
	}

	if len(out.Fields) == 0 {
		out.Fields = nil
	}
	return out
}

func knownSet(fields []string) map[string]struct{} {
	out := make(map[string]struct{}, len(fields))
	for _, name := range fields {
		out[name] = struct{}{}
	}
	return out
}

func normalizeMessages(messages []string) []string {
	if len(messages) == 0 {
		return nil
	}
	out := make([]string, 0, len(messages))
	seen := make(map[string]struct{}, len(messages))
	for _, message := range messages {
		trimmed := strings.TrimSpace(message)
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// mapPath returns the known field a raw path refers to. Wrapper segments
// (body, data, payload...) and numeric indexes are skipped; the last segment
// that names a known field wins.
func mapPath(raw string, known map[string]struct{}) (string, bool) {
	trimmed := strings.TrimSpace(raw)
	if isFormLevelKey(trimmed) {
		return "", true
	}
	segments := pathSegments(trimmed)
	for i := len(segments) - 1; i >= 0; i-- {
		segment := segments[i]
		if _, err := strconv.Atoi(segment); err == nil {
			continue
		}
		if _, ok := known[segment]; ok {
			return segment, false
		}
	}
	return "", true
}

func pathSegments(path string) []string {
	replacer := strings.NewReplacer("[", ".", "]", "")
	clean := replacer.Replace(path)
	clean = strings.TrimLeft(clean, "#$/.")
	parts := strings.FieldsFunc(clean, func(r rune) bool {
		return r == '.' || r == '/'
	})
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if segment := strings.TrimSpace(part); segment != "" {
			out = append(out, segment)
		}
	}
	return out
}

func isFormLevelKey(key string) bool {
	switch strings.ToLower(strings.TrimSpace(key)) {
	case "", ".", "/", "#", "$", "form", "base", "__all__", "non_field_errors", "non-field-errors":
		return true
	default:
		return false
	}
}
