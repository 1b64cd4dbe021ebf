package web

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/mediaveil/mediaveil/internal/config"
	"github.com/mediaveil/mediaveil/internal/logging"
	"github.com/mediaveil/mediaveil/internal/overlay"
	"github.com/mediaveil/mediaveil/pkg/integrations/push"
	"github.com/mediaveil/mediaveil/pkg/media"
	"github.com/mediaveil/mediaveil/pkg/snapshot"
)

const maxBodyBytes = 4 << 20

// Tracker is the part of tracker.Service the HTTP API drives
type Tracker interface {
	CurrentState() overlay.State
	Subscribe(fn overlay.Listener) uuid.UUID
	Unsubscribe(id uuid.UUID)
	OnUiChanged(appID string, snap *snapshot.Snapshot, windows []snapshot.Window)
	OnPlaybackChanged(appID string)
	OnForegroundPoll()
	IsRunning() bool
}

// Ingest holds the push-fed sources the signal endpoints write to.
// Foreground is nil when the foreground comes from a desktop backend.
type Ingest struct {
	Playback   *push.PlaybackStore
	Foreground *push.ForegroundFeed
}

type Handler struct {
	config  *config.Config
	tracker Tracker
	ingest  Ingest
	hub     *Hub
	logger  *slog.Logger
	now     func() time.Time
}

func NewHandler(cfg *config.Config, tracker Tracker, ingest Ingest, logger *slog.Logger) *Handler {
	logger = logging.OrDiscard(logger)
	return &Handler{
		config:  cfg,
		tracker: tracker,
		ingest:  ingest,
		hub:     NewHub(tracker, logger),
		logger:  logger,
		now:     time.Now,
	}
}

func (h *Handler) SetupRoutes(r chi.Router) {
	r.Get("/health", h.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/state", h.handleState)
		r.Get("/status", h.handleStatus)
		r.Get("/sessions", h.handleSessions)
		r.Get("/stream", h.hub.ServeWS)

		r.Route("/signals", func(r chi.Router) {
			r.Post("/ui", h.handleUiSignal)
			r.Post("/playback", h.handlePlaybackSignal)
			r.Post("/foreground", h.handleForegroundSignal)
		})
	})
}

// Close disconnects every stream client
func (h *Handler) Close() {
	h.hub.Close()
}

type uiRequest struct {
	AppID   string            `json:"app_id"`
	Screen  snapshot.Screen   `json:"screen"`
	Tree    *snapshot.Tree    `json:"tree"`
	Windows []snapshot.Window `json:"windows"`
}

type playbackRequest struct {
	AppID              string     `json:"app_id"`
	State              string     `json:"state"`
	Speed              *float64   `json:"speed"`
	LastPositionUpdate *time.Time `json:"last_position_update"`
}

type foregroundRequest struct {
	AppID      string `json:"app_id"`
	ValidityMs int64  `json:"validity_ms"`
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   h.now().Format(time.RFC3339),
	})
}

func (h *Handler) handleState(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.tracker.CurrentState())
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"running":         h.tracker.IsRunning(),
		"poll_interval":   h.config.Tracker.PollInterval.String(),
		"debounce_window": h.config.Tracker.DebounceWindow.String(),
		"database_path":   h.config.Database.Path,
		"stream_clients":  h.hub.Len(),
		"push_foreground": h.ingest.Foreground != nil,
		"state":           h.tracker.CurrentState(),
	})
}

func (h *Handler) handleSessions(w http.ResponseWriter, r *http.Request) {
	if h.ingest.Playback == nil {
		respondJSON(w, http.StatusOK, []media.PlaybackSignal{})
		return
	}
	respondJSON(w, http.StatusOK, h.ingest.Playback.Sessions())
}

func (h *Handler) handleUiSignal(w http.ResponseWriter, r *http.Request) {
	var req uiRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	if req.AppID == "" {
		respondError(w, http.StatusBadRequest, errors.New("app_id is required"))
		return
	}
	if req.Screen.Width <= 0 || req.Screen.Height <= 0 {
		respondError(w, http.StatusBadRequest, errors.New("screen width and height must be positive"))
		return
	}

	snap := snapshot.FromTree(req.Screen, req.Tree)
	h.tracker.OnUiChanged(req.AppID, snap, req.Windows)
	respondJSON(w, http.StatusAccepted, map[string]interface{}{"status": "accepted", "nodes": snap.Len()})
}

func (h *Handler) handlePlaybackSignal(w http.ResponseWriter, r *http.Request) {
	if h.ingest.Playback == nil {
		respondError(w, http.StatusNotImplemented, errors.New("playback is not push-fed"))
		return
	}

	var req playbackRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	if req.AppID == "" {
		respondError(w, http.StatusBadRequest, errors.New("app_id is required"))
		return
	}

	// "none" and an omitted state both release the session
	state := media.ParseTransportState(req.State)
	if name := strings.TrimSpace(req.State); state == media.StateNone && name != "" && !strings.EqualFold(name, string(media.StateNone)) {
		respondError(w, http.StatusBadRequest, errors.Errorf("unknown playback state %q", req.State))
		return
	}

	if state == media.StateNone {
		h.ingest.Playback.Remove(req.AppID)
	} else {
		sig := media.PlaybackSignal{AppID: req.AppID, State: state, Speed: 1, LastPositionUpdate: h.now()}
		if req.Speed != nil {
			sig.Speed = *req.Speed
		}
		if req.LastPositionUpdate != nil {
			sig.LastPositionUpdate = *req.LastPositionUpdate
		}
		h.ingest.Playback.Update(sig)
	}

	h.tracker.OnPlaybackChanged(req.AppID)
	respondJSON(w, http.StatusAccepted, map[string]string{"status": "accepted", "state": string(state)})
}

func (h *Handler) handleForegroundSignal(w http.ResponseWriter, r *http.Request) {
	if h.ingest.Foreground == nil {
		respondError(w, http.StatusNotImplemented, errors.New("foreground is not push-fed"))
		return
	}

	var req foregroundRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	if req.AppID == "" {
		respondError(w, http.StatusBadRequest, errors.New("app_id is required"))
		return
	}
	if req.ValidityMs < 0 {
		respondError(w, http.StatusBadRequest, errors.New("validity_ms must not be negative"))
		return
	}

	sig := h.ingest.Foreground.Report(req.AppID, time.Duration(req.ValidityMs)*time.Millisecond)
	h.tracker.OnForegroundPoll()
	respondJSON(w, http.StatusAccepted, map[string]interface{}{
		"status":   "accepted",
		"validity": sig.Validity.String(),
	})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.Wrap(err, "invalid request body")
	}
	return nil
}

func respondJSON(w http.ResponseWriter, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, code int, err error) {
	respondJSON(w, code, map[string]string{"error": err.Error()})
}
