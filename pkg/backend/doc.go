// Package backend provides Simulated, an in-memory stand-in for the real
// authentication backend. It implements every engine collaborator with
// configurable latency, issues random verification codes with an expiry,
// stores registered accounts with argon2id password hashes and authenticates
// logins. It is meant for demos and tests; nothing is persisted.
package backend
