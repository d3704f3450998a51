// Package server provides the HTTP host: each session owns a render loop and an interaction
// controller, and clients drive it with pointer events and read back rendered frames.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/hyperjump/starmap/internal/config"
	"github.com/hyperjump/starmap/internal/dataset"
	"github.com/hyperjump/starmap/internal/lookup"
	"github.com/hyperjump/starmap/internal/models"
	"github.com/hyperjump/starmap/internal/render"
)

// Server is the HTTP server for the viewer API.
type Server struct {
	config   *config.Config
	logger   *zap.Logger
	sessions *sessionManager
	server   *http.Server

	// shared dataset loaded from the configured source; sessions start with it
	source   dataset.Source
	watcher  *dataset.Watcher
	sharedMu sync.Mutex // serializes setShared through the session updates
	dataMu   sync.RWMutex
	current  *models.Dataset

	newScheduler func() render.Scheduler
	searcher     lookup.Searcher
	ctx          context.Context
	cancel       context.CancelFunc
}

// Option configures a Server.
type Option func(*Server)

// WithSource sets the dataset every new session starts with.
func WithSource(src dataset.Source) Option {
	return func(s *Server) { s.source = src }
}

// WithScheduler overrides the frame scheduler used by session loops.
func WithScheduler(fn func() render.Scheduler) Option {
	return func(s *Server) { s.newScheduler = fn }
}

// WithSearcher routes session searches to an external searcher instead of a per-session
// label index.
func WithSearcher(searcher lookup.Searcher) Option {
	return func(s *Server) { s.searcher = searcher }
}

// NewServer creates a server. A nil logger is replaced by a no-op logger.
func NewServer(cfg *config.Config, logger *zap.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		config:   cfg,
		logger:   logger,
		sessions: newSessionManager(cfg.Server.MaxSessions),
		ctx:      ctx,
		cancel:   cancel,
	}
	s.newScheduler = func() render.Scheduler { return render.NewTickerScheduler(cfg.Render.FPS) }
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open loads the configured source, if any, and starts watching it when enabled.
func (s *Server) Open(ctx context.Context) error {
	if s.source == nil {
		return nil
	}
	ds, err := s.source.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load dataset: %w", err)
	}
	s.setShared(ds)
	s.logger.Info("dataset loaded",
		zap.String("path", s.source.Path()),
		zap.Int("points", len(ds.Points)),
		zap.Int("clusters", len(ds.Clusters)))

	if !s.config.Dataset.WatchOrDefault() {
		return nil
	}
	s.watcher = dataset.NewWatcher(s.source, func(ds *models.Dataset) { s.setShared(ds) }, dataset.WithLogger(s.logger))
	if err := s.watcher.Start(s.ctx); err != nil {
		return fmt.Errorf("failed to watch dataset: %w", err)
	}
	return nil
}

// setShared replaces the shared dataset and pushes it to every session still following it.
// A load that started before the current dataset's is dropped; the result reports whether ds
// was applied.
func (s *Server) setShared(ds *models.Dataset) bool {
	s.sharedMu.Lock()
	defer s.sharedMu.Unlock()

	s.dataMu.Lock()
	if s.current != nil && ds.LoadedAt.Before(s.current.LoadedAt) {
		s.dataMu.Unlock()
		s.logger.Debug("dropping stale dataset load",
			zap.Time("loaded_at", ds.LoadedAt),
			zap.Time("current", s.current.LoadedAt))
		return false
	}
	s.current = ds
	s.dataMu.Unlock()
	for _, sess := range s.sessions.list() {
		if !sess.followsShared() {
			continue
		}
		if err := sess.setDataset(s.ctx, ds, true); err != nil {
			s.logger.Warn("failed to update session dataset", zap.String("session", sess.id), zap.Error(err))
		}
	}
	return true
}

func (s *Server) shared() *models.Dataset {
	s.dataMu.RLock()
	defer s.dataMu.RUnlock()
	return s.current
}

// Handler returns the API router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/health", s.handleHealth)
	r.Route("/api/v1/sessions", func(r chi.Router) {
		r.Get("/", s.handleListSessions)
		r.Post("/", s.handleCreateSession)
		r.Route("/{id}", func(r chi.Router) {
			r.Delete("/", s.handleDeleteSession)
			r.Put("/dataset", s.handleSetDataset)
			r.Post("/dataset/reload", s.handleReloadDataset)
			r.Put("/similarities", s.handleSetSimilarities)
			r.Post("/search", s.handleSearch)
			r.Post("/events", s.handleEvent)
			r.Put("/viewport", s.handleSetViewport)
			r.Get("/near", s.handleNear)
			r.Get("/frame.png", s.handleFrame)
			r.Get("/state", s.handleState)
		})
	})
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop gracefully shuts down the server and every session.
func (s *Server) Stop(ctx context.Context) error {
	var err error
	if s.server != nil {
		err = s.server.Shutdown(ctx)
	}
	if s.watcher != nil {
		s.watcher.Stop()
	}
	for _, sess := range s.sessions.list() {
		s.sessions.remove(sess.id)
		sess.close()
	}
	s.cancel()
	return err
}
