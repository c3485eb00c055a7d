// Package rules compiles the declarative field rules of a flow into a Table of
// predicates. Each predicate sees the field value and the whole form so that
// dependent rules, such as password confirmation, can compare siblings.
package rules
