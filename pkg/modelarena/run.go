package modelarena

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
)

// routes builds the REST surface over the storage facade. Split from Run so
// handler tests can mount it on httptest without a listener.
func (a *App) routes() *mux.Router {
	router := mux.NewRouter()
	api := router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/health", a.handleHealth).Methods("GET")

	// Comparison sessions
	api.HandleFunc("/sessions", a.handleSaveSession).Methods("POST")
	api.HandleFunc("/sessions", a.handleListSessions).Methods("GET")
	api.HandleFunc("/sessions", a.handleDeleteSessions).Methods("DELETE")
	api.HandleFunc("/sessions/bulk", a.handleBulkSaveSessions).Methods("POST")
	api.HandleFunc("/sessions/{id}", a.handleGetSession).Methods("GET")
	api.HandleFunc("/sessions/{id}/title", a.handleGetSessionTitle).Methods("GET")
	api.HandleFunc("/sessions/{id}/files", a.handleGetSessionFiles).Methods("GET")
	api.HandleFunc("/sessions/{id}/responses", a.handleListResponses).Methods("GET")
	api.HandleFunc("/sessions/{id}/responses", a.handleSaveResponse).Methods("POST")
	api.HandleFunc("/sessions/{id}/responses", a.handleDeleteResponses).Methods("DELETE")
	api.HandleFunc("/sessions/{id}/responses/{responseId}", a.handleGetResponse).Methods("GET")

	// Files
	api.HandleFunc("/files", a.handleCreateFile).Methods("POST")
	api.HandleFunc("/files", a.handleListFiles).Methods("GET")
	api.HandleFunc("/files", a.handleDeleteFiles).Methods("DELETE")
	api.HandleFunc("/files/{fileId}", a.handleGetFile).Methods("GET")
	api.HandleFunc("/files/{fileId}", a.handleUpdateFile).Methods("PUT")
	api.HandleFunc("/files/{fileId}", a.handleDeleteFile).Methods("DELETE")
	api.HandleFunc("/files/{fileId}/touch", a.handleTouchFile).Methods("POST")

	// Scoring templates
	api.HandleFunc("/templates", a.handleSaveTemplate).Methods("POST")
	api.HandleFunc("/templates", a.handleListTemplates).Methods("GET")
	api.HandleFunc("/templates", a.handleDeleteTemplates).Methods("DELETE")
	api.HandleFunc("/templates/public", a.handleListPublicTemplates).Methods("GET")
	api.HandleFunc("/templates/{id}", a.handleGetTemplate).Methods("GET")
	api.HandleFunc("/templates/{id}/use", a.handleUseTemplate).Methods("POST")

	// Profiles and balance
	api.HandleFunc("/profiles", a.handleCreateProfile).Methods("POST")
	api.HandleFunc("/profiles", a.handleSearchProfiles).Methods("GET")
	api.HandleFunc("/profiles/{id}", a.handleGetProfile).Methods("GET")
	api.HandleFunc("/profiles/{id}", a.handleUpdateProfile).Methods("PUT")
	api.HandleFunc("/profiles/{id}", a.handleDeleteProfile).Methods("DELETE")
	api.HandleFunc("/profiles/{id}/remaining", a.handleRemainingComparisons).Methods("GET")
	api.HandleFunc("/profiles/{id}/balance", a.handleUpdateBalance).Methods("POST")

	// Transaction ledger
	api.HandleFunc("/transactions", a.handleCreateTransaction).Methods("POST")
	api.HandleFunc("/transactions", a.handleListTransactions).Methods("GET")
	api.HandleFunc("/transactions/structured", a.handleCreateStructuredTransaction).Methods("POST")
	api.HandleFunc("/transactions/refill", a.handleAutoRefill).Methods("POST")

	// Administration
	api.HandleFunc("/admin/readonly", a.handleGetReadOnly).Methods("GET")
	api.HandleFunc("/admin/readonly", a.handleSetReadOnly).Methods("POST")

	router.HandleFunc("/health", a.handleHealth).Methods("GET")
	return router
}

// Run starts the HTTP server and blocks until the context is cancelled or
// the listener fails. In-flight requests get five seconds to finish on
// shutdown.
func (a *App) Run(ctx context.Context, cmd *RunCommand) error {
	addr := fmt.Sprintf(":%s", a.config.ServerPort)
	a.log.Info().
		Str("addr", addr).
		Str("mode", string(a.config.Mode)).
		Bool("read_only", a.IsReadOnly()).
		Msg("starting server")

	server := &http.Server{
		Addr:    addr,
		Handler: a.routes(),
	}

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		a.log.Info().Msg("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-serverErr:
		return err
	}
}
