// Package prompt hosts an engine in a terminal. A Runner walks the flow step
// by step: it prompts each field of the current step, offers to send a
// verification code before code fields, submits the step and prints the
// resulting field errors until the flow completes.
package prompt
