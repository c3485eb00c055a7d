package flows

import (
	"embed"
	"io/fs"
)

//go:embed definitions/*
var embeddedDefinitions embed.FS

// EmbeddedFS returns the bundled flow definitions (login, register,
// reset-password). Pass it to LoadFS to start from the defaults.
func EmbeddedFS() fs.FS {
	sub, err := fs.Sub(embeddedDefinitions, "definitions")
	if err != nil {
		// The embed directive guarantees the subpath exists.
		panic(err)
	}
	return sub
}

// Default loads the bundled flow definitions.
func Default() (*Store, error) {
	return LoadFS(EmbeddedFS())
}
