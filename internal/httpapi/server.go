package httpapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"RfpIntel/internal/config"
	"RfpIntel/internal/ports"
	"RfpIntel/internal/usecase"
)

// Deps are the use cases behind the HTTP surface. Queue and Jobs are
// optional; their routes answer 503 when unset.
type Deps struct {
	Pipeline  *usecase.Pipeline
	Queue     *usecase.Queue
	Resolver  *usecase.Resolver
	Folders   *usecase.Folders
	Documents ports.DocumentRegistry
	Jobs      ports.AsyncParser
	Folder    string
}

// Server exposes ingestion, artifacts and folders over HTTP.
type Server struct {
	deps            Deps
	logger          *slog.Logger
	httpServer      *http.Server
	shutdownTimeout time.Duration
}

// New builds the router and the underlying http.Server.
func New(cfg config.ServerConfig, deps Deps, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &Server{
		deps:            deps,
		logger:          logger,
		shutdownTimeout: cfg.ShutdownTimeout,
	}
	if s.shutdownTimeout <= 0 {
		s.shutdownTimeout = 10 * time.Second
	}
	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Routes returns the chi router with every endpoint mounted.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(metricsMiddleware)
	r.Use(requestLogger(s.logger))

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())
	r.Post("/webhooks/parse", s.handleParseWebhook)

	r.Route("/api", func(r chi.Router) {
		r.Post("/process-next", s.handleProcessNext)
		r.Post("/drain", s.handleDrain)

		r.Get("/documents", s.handleListDocuments)
		r.Route("/documents/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetDocument)
			r.Get("/artifacts/{kind}", s.handleGetArtifact)
			r.Put("/artifacts/{kind}", s.handleSaveArtifact)
			r.Get("/compliance-table", s.handleComplianceTable)
			r.Get("/cover-sheet.xlsx", s.handleCoverSheetXLSX)
			r.Get("/cover-sheet.md", s.handleCoverSheetMarkdown)
			r.Post("/ask", s.handleAsk)
			r.Patch("/folder", s.handleMoveDocument)
		})

		r.Get("/folders", s.handleListFolders)
		r.Post("/folders", s.handleCreateFolder)
		r.Patch("/folders/{id}", s.handleRenameFolder)
		r.Delete("/folders/{id}", s.handleDeleteFolder)
	})
	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server started", slog.String("addr", s.httpServer.Addr))
		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	s.logger.Info("http server shutting down")
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	s.logger.Info("http server stopped")
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
