// Package site serves the landing page of the API.
package site

import (
	"context"
	"net/http"
)

// IndexHTML is the body served at the root path.
const IndexHTML = "<h1>Bakery GET-POST-PATCH-DELETE API</h1>"

// Register attaches the root page to mux. Only the exact path / matches.
func Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	mux.HandleFunc("GET /{$}", NewRootHandler().HandleRoot)
}

// RootHandler handles root path requests
type RootHandler struct{}

// NewRootHandler creates a new root handler
func NewRootHandler() *RootHandler {
	return &RootHandler{}
}

// HandleRoot handles GET / requests.
func (h *RootHandler) HandleRoot(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(IndexHTML))
}
