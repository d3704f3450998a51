package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image/png"
	"io"
	"math"
	"net/http"
	"sort"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hyperjump/starmap/internal/camera"
	"github.com/hyperjump/starmap/internal/dataset"
	"github.com/hyperjump/starmap/internal/models"
	"github.com/hyperjump/starmap/internal/render"
)

type sizeRequest struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type similaritiesRequest struct {
	Scores models.SimilarityMap `json:"scores"`
}

type searchRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit,omitempty"`
}

type eventRequest struct {
	Type string  `json:"type"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	DY   float64 `json:"dy"`
}

type eventResponse struct {
	Hover  int          `json:"hover"`
	Click  int          `json:"click"`
	Camera camera.State `json:"camera"`
}

type nearPoint struct {
	Index int    `json:"index"`
	ID    string `json:"id"`
	Label string `json:"label,omitempty"`
}

type stateResponse struct {
	ID           string           `json:"id"`
	DatasetID    string           `json:"dataset_id,omitempty"`
	Points       int              `json:"points"`
	Clusters     int              `json:"clusters"`
	Camera       camera.State     `json:"camera"`
	Viewport     camera.Viewport  `json:"viewport"`
	Hovered      int              `json:"hovered"`
	SearchActive bool             `json:"search_active"`
	Frame        *render.Snapshot `json:"frame,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions := s.sessions.list()
	sort.Slice(sessions, func(i, j int) bool { return sessions[i].created.Before(sessions[j].created) })
	ids := make([]string, 0, len(sessions))
	for _, sess := range sessions {
		ids = append(ids, sess.id)
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"sessions": ids})
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	req := sizeRequest{Width: float64(s.config.Viewport.Width), Height: float64(s.config.Viewport.Height)}
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			s.respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}
	if req.Width <= 0 || req.Height <= 0 {
		s.respondError(w, http.StatusBadRequest, "width and height must be positive")
		return
	}
	sess, err := newSession(s.ctx, s.config, req.Width, req.Height, s.newScheduler(), s.searcher, s.logger)
	if err != nil {
		s.logger.Error("create session failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := s.sessions.add(sess); err != nil {
		sess.close()
		s.respondError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	if ds := s.shared(); ds != nil {
		if err := sess.setDataset(r.Context(), ds, true); err != nil {
			s.logger.Warn("failed to load shared dataset into session", zap.Error(err))
		}
	}
	s.logger.Debug("session created", zap.String("id", sess.id), zap.Float64("width", req.Width), zap.Float64("height", req.Height))
	s.respondJSON(w, http.StatusCreated, map[string]string{"id": sess.id})
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.remove(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, http.StatusNotFound, err.Error())
		return
	}
	sess.close()
	s.logger.Debug("session deleted", zap.String("id", sess.id))
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleSetDataset(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	ds, err := dataset.DecodeJSON(body, "session:"+sess.id)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := sess.setDataset(r.Context(), ds, false); err != nil {
		s.respondLoopError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]int{"points": len(ds.Points), "clusters": len(ds.Clusters)})
}

func (s *Server) handleReloadDataset(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	if s.source == nil {
		s.respondError(w, http.StatusConflict, "no dataset source configured")
		return
	}
	ds, err := s.source.Load(r.Context())
	if err != nil {
		s.logger.Error("dataset reload failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	following := sess.followsShared()
	if !s.setShared(ds) {
		ds = s.shared()
	}
	if !following {
		if err := sess.setDataset(r.Context(), ds, true); err != nil {
			s.respondLoopError(w, err)
			return
		}
	}
	s.respondJSON(w, http.StatusOK, map[string]int{"points": len(ds.Points), "clusters": len(ds.Clusters)})
}

func (s *Server) handleSetSimilarities(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req similaritiesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	var cam camera.State
	err := sess.loop.Exec(r.Context(), func(scene *render.Scene) {
		sess.ctrl.SetSimilarities(req.Scores)
		cam = scene.Camera().State()
	})
	if err != nil {
		s.respondLoopError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"active": req.Scores.Active(), "camera": cam})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.logger.Debug("search request", zap.String("query", req.Query), zap.Int("limit", req.Limit))
	sims, err := sess.search.Search(r.Context(), req.Query, req.Limit)
	if err != nil {
		s.logger.Error("search failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	var cam camera.State
	err = sess.loop.Exec(r.Context(), func(scene *render.Scene) {
		sess.ctrl.SetSimilarities(sims)
		cam = scene.Camera().State()
	})
	if err != nil {
		s.respondLoopError(w, err)
		return
	}
	if sims == nil {
		sims = models.SimilarityMap{}
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"matches":      len(sims),
		"similarities": sims,
		"camera":       cam,
	})
}

func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	switch req.Type {
	case "wheel", "down", "move", "up", "click", "leave":
	default:
		s.respondError(w, http.StatusBadRequest, "unknown event type")
		return
	}
	resp := eventResponse{Click: -1}
	err := sess.loop.Exec(r.Context(), func(scene *render.Scene) {
		c := sess.ctrl
		switch req.Type {
		case "wheel":
			c.Wheel(req.DY)
		case "down":
			c.PointerDown(req.X, req.Y)
		case "move":
			c.PointerMove(req.X, req.Y)
		case "up":
			c.PointerUp(req.X, req.Y)
		case "click":
			resp.Click = c.Click(req.X, req.Y)
		case "leave":
			c.Leave()
		}
		resp.Hover = scene.Hovered()
		resp.Camera = scene.Camera().State()
	})
	if err != nil {
		s.respondLoopError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSetViewport(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req sizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Width <= 0 || req.Height <= 0 {
		s.respondError(w, http.StatusBadRequest, "width and height must be positive")
		return
	}
	var vp camera.Viewport
	err := sess.loop.Exec(r.Context(), func(scene *render.Scene) {
		scene.Resize(req.Width, req.Height)
		vp = scene.Camera().Viewport()
	})
	if err != nil {
		s.respondLoopError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, vp)
}

// handleNear lists the points within r pixels of the screen position (x, y), nearest first.
// r defaults to the hit threshold.
func (s *Server) handleNear(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	x, errX := strconv.ParseFloat(q.Get("x"), 64)
	y, errY := strconv.ParseFloat(q.Get("y"), 64)
	if errX != nil || errY != nil || !finite(x) || !finite(y) {
		s.respondError(w, http.StatusBadRequest, "x and y must be numbers")
		return
	}
	radius := s.config.Interaction.HitThreshold
	if raw := q.Get("r"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || !finite(v) || v < 0 {
			s.respondError(w, http.StatusBadRequest, "r must be a non-negative number")
			return
		}
		radius = v
	}

	points := []nearPoint{}
	err := sess.loop.View(r.Context(), func(scene *render.Scene) {
		pts := scene.Points()
		for _, i := range scene.Index().Within(x, y, radius) {
			points = append(points, nearPoint{Index: i, ID: pts[i].ID, Label: pts[i].Label})
		}
	})
	if err != nil {
		s.respondLoopError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"radius": radius, "points": points})
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func (s *Server) handleFrame(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	snap := sess.loop.Snapshot()
	if snap == nil {
		w.Header().Set("Retry-After", "1")
		s.respondError(w, http.StatusServiceUnavailable, "no frame rendered yet")
		return
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, snap.Image); err != nil {
		s.logger.Error("frame encode failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Last-Modified", snap.At.UTC().Format(http.TimeFormat))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	resp := stateResponse{ID: sess.id}
	err := sess.loop.View(r.Context(), func(scene *render.Scene) {
		if ds := scene.Dataset(); ds != nil {
			resp.DatasetID = ds.ID
		}
		resp.Points = len(scene.Points())
		resp.Clusters = len(scene.Clusters())
		resp.Camera = scene.Camera().State()
		resp.Viewport = scene.Camera().Viewport()
		resp.Hovered = scene.Hovered()
		resp.SearchActive = scene.Similarities().Active()
	})
	if err != nil {
		s.respondLoopError(w, err)
		return
	}
	resp.Frame = sess.loop.Snapshot()
	s.respondJSON(w, http.StatusOK, resp)
}

// session resolves the {id} URL parameter, writing a 404 when it is unknown.
func (s *Server) session(w http.ResponseWriter, r *http.Request) (*session, bool) {
	sess, err := s.sessions.get(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, http.StatusNotFound, err.Error())
		return nil, false
	}
	return sess, true
}

func (s *Server) respondLoopError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, render.ErrStopped):
		s.respondError(w, http.StatusGone, err.Error())
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		s.respondError(w, http.StatusGatewayTimeout, err.Error())
	default:
		s.logger.Error("session command failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
