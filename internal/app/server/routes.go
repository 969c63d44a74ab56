package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/net/netutil"

	"nodebackup/internal/access"
	"nodebackup/internal/app/version"
	"nodebackup/internal/backup"
)

const shutdownTimeout = 10 * time.Second

// Dependencies are the collaborators the routes are built from.
type Dependencies struct {
	Allowlist *access.Store
	Evaluator access.Evaluator
	Geo       access.CountryLookup
	Backups   *backup.Service
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func getVersion(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, version.Get())
}

// NewRouter wires every route behind the allowlist guard.
func NewRouter(deps Dependencies) http.Handler {
	router := http.NewServeMux()

	router.HandleFunc("GET /{$}", deps.Backups.IndexHandler)
	router.HandleFunc("GET /index.html", deps.Backups.IndexHandler)
	router.HandleFunc("GET /upload", deps.Backups.UploadFormHandler)
	router.HandleFunc("POST /upload", deps.Backups.UploadHandler)
	router.HandleFunc("GET /backups", deps.Backups.ListHandler)
	router.HandleFunc("GET /download", deps.Backups.DownloadHandler)
	router.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(backup.Assets())))

	router.HandleFunc("GET /healthz", healthz)
	router.HandleFunc("GET /version", getVersion)

	return access.Guard(deps.Allowlist, deps.Evaluator, deps.Geo)(router)
}

// OpenRoutes serves handler on addr until ctx is cancelled. At most
// maxConns connections are accepted at once.
func OpenRoutes(ctx context.Context, addr string, maxConns int, handler http.Handler) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	if maxConns > 0 {
		listener = netutil.LimitListener(listener, maxConns)
	}

	return Serve(ctx, listener, handler)
}

// Serve runs the HTTP server on listener and shuts it down gracefully when
// ctx is done.
func Serve(ctx context.Context, listener net.Listener, handler http.Handler) error {
	server := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Serve(listener)
	}()

	log.Infof("Starting nodebackup server on %s", listener.Addr())

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	log.Info("Shutting down server")
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown server: %w", err)
	}
	return nil
}
