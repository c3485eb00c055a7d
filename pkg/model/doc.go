// Package model defines the data shared by the flow engine, the rule table and
// the flow loader. Form values are always strings keyed by field name; errors
// are at most one message per field. Flow definitions are declarative: each
// field names a rule kind (phone, password, confirm, code, username, uscc,
// permit, company-name, required) with string parameters, and each step lists
// the fields it validates plus the action it performs once they pass
// (advance, verify-code, submit-registration, submit-password-reset, login).
package model
