package server

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/starmap/internal/camera"
	"github.com/hyperjump/starmap/internal/config"
	"github.com/hyperjump/starmap/internal/interaction"
	"github.com/hyperjump/starmap/internal/lookup"
	"github.com/hyperjump/starmap/internal/models"
	"github.com/hyperjump/starmap/internal/render"
	"github.com/hyperjump/starmap/internal/similarity"
)

var (
	// ErrSessionNotFound is returned for unknown session ids.
	ErrSessionNotFound = errors.New("session not found")
	// ErrTooManySessions is returned when the session limit is reached.
	ErrTooManySessions = errors.New("too many sessions")
)

// session is one visualization: a loop owning the scene, and the controller driving it.
// The controller and scene are only touched from inside loop commands.
type session struct {
	id      string
	created time.Time
	loop    *render.Loop
	ctrl    *interaction.Controller
	search  lookup.Searcher
	labels  *lookup.Index // local label index; nil when an external searcher is plugged in
	logger  *zap.Logger

	mu     sync.Mutex
	shared bool // follows the server's shared dataset
}

// newSession starts a session loop. A nil searcher gives the session its own label index,
// rebuilt on every dataset change.
func newSession(ctx context.Context, cfg *config.Config, w, h float64, sched render.Scheduler, searcher lookup.Searcher, logger *zap.Logger) (*session, error) {
	id := uuid.NewString()
	logger = logger.With(zap.String("session", id))

	var labels *lookup.Index
	if searcher == nil {
		idx, err := lookup.NewIndex(&cfg.Search, lookup.WithLogger(logger))
		if err != nil {
			return nil, err
		}
		labels, searcher = idx, idx
	}
	cam := camera.New(
		camera.Viewport{Width: w, Height: h, Margin: cfg.Viewport.Margin},
		camera.Limits{ZoomMin: cfg.Camera.ZoomMin, ZoomMax: cfg.Camera.ZoomMax},
	)
	scene := render.NewScene(cam, cfg.Interaction.CellSize)
	renderer := render.NewRenderer(render.OptionsFromConfig(&cfg.Render), similarity.NewEncoder(&cfg.Similarity), logger)
	ctrl := interaction.New(scene, interaction.OptionsFromConfig(cfg), logger)

	return &session{
		id:      id,
		created: time.Now(),
		loop:    render.Start(ctx, scene, renderer, sched, logger),
		ctrl:    ctrl,
		search:  searcher,
		labels:  labels,
		logger:  logger,
		shared:  true,
	}, nil
}

func (s *session) followsShared() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shared
}

// setDataset replaces the scene's dataset and the label index. shared records whether the
// session keeps following the server's dataset afterwards.
func (s *session) setDataset(ctx context.Context, ds *models.Dataset, shared bool) error {
	s.mu.Lock()
	s.shared = shared
	s.mu.Unlock()
	if s.labels != nil {
		if err := s.labels.Rebuild(ctx, ds); err != nil {
			return err
		}
	}
	return s.loop.Exec(ctx, func(scene *render.Scene) {
		scene.SetDataset(ds)
		// a reload invalidates the previous search
		scene.SetSimilarities(nil)
	})
}

func (s *session) close() {
	s.loop.Stop()
	if s.labels == nil {
		return
	}
	if err := s.labels.Close(); err != nil {
		s.logger.Debug("failed to close label index", zap.Error(err))
	}
}

type sessionManager struct {
	mu       sync.RWMutex
	sessions map[string]*session
	max      int
}

func newSessionManager(max int) *sessionManager {
	return &sessionManager{sessions: make(map[string]*session), max: max}
}

func (m *sessionManager) add(s *session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.max > 0 && len(m.sessions) >= m.max {
		return ErrTooManySessions
	}
	m.sessions[s.id] = s
	return nil
}

func (m *sessionManager) get(id string) (*session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

func (m *sessionManager) remove(id string) (*session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	delete(m.sessions, id)
	return s, nil
}

func (m *sessionManager) list() []*session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s)
	}
	return out
}
