// Package testsupport provides recording collaborators and fixtures shared by
// package tests.
package testsupport
