// Package engine drives a multi-step verification form. An Engine owns the
// form state, the per-field error map, the verification code cooldown and the
// in-flight status of its asynchronous actions. Real work (sending and
// verifying codes, submitting registrations, password resets and logins) is
// delegated to the collaborators supplied at construction time.
//
// Validation failures are returned as data (model.ErrorMap), never as Go
// errors. Collaborator failures are attributed to a field when possible and
// otherwise surfaced through the notifier. Calling SubmitStep or ValidateStep
// with an out-of-range step index is a programming error and panics.
package engine
