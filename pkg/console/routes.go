// Route registration for the console API.

package console

import (
	"net/http"
)

// registerRoutes sets up all console routes.
func (c *Console) registerRoutes(mux *http.ServeMux) {
	// Console health and status
	mux.HandleFunc("GET /health", c.handleHealth)
	mux.HandleFunc("GET /status", c.handleStatus)

	// Spec upload
	mux.HandleFunc("POST /specs", c.handleUploadSpec)
	mux.HandleFunc("GET /specs/current", c.handleCurrentSpec)

	// Engine lifecycle
	mux.HandleFunc("POST /server/start", c.handleStartServer)
	mux.HandleFunc("POST /server/stop", c.handleStopServer)
	mux.HandleFunc("GET /server/logs", c.handleServerLogs)

	// Spec introspection, proxied from the engine when it is up
	mux.HandleFunc("GET /spec/info", c.handleSpecInfo)
	mux.HandleFunc("GET /spec/endpoints", c.handleSpecEndpoints)

	// Run history
	mux.HandleFunc("GET /history", c.handleHistory)

	// Session management
	mux.HandleFunc("GET /sessions", c.handleListSessions)
	mux.HandleFunc("DELETE /sessions/{id}", c.handleDeleteSession)

	// Minimal web page
	mux.HandleFunc("GET /{$}", c.handleIndex)
}
