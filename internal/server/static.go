package server

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed webapp/*
var webappFS embed.FS

// staticHandler returns an http.Handler serving the embedded dashboard
// shell. The shell is a thin consumer of the JSON API; all reconciliation
// happens server-side.
func staticHandler() http.Handler {
	sub, err := fs.Sub(webappFS, "webapp")
	if err != nil {
		// This should never happen with a valid embed
		panic(err)
	}
	return http.FileServer(http.FS(sub))
}
