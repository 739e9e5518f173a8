package main

import (
	"embed"
	"io/fs"
)

// The GameHub frontend: game cards, the frame view and the controller
// settings editor.
//
//go:embed all:frontend
var frontendFiles embed.FS

// getFrontendFS returns the GameHub files rooted at "frontend", as served by
// the HTTP server at "/".
func getFrontendFS() fs.FS {
	sub, err := fs.Sub(frontendFiles, "frontend")
	if err != nil {
		panic(err)
	}
	return sub
}
