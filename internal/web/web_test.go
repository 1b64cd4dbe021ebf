package web

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mediaveil/mediaveil/internal/config"
	"github.com/mediaveil/mediaveil/internal/overlay"
	"github.com/mediaveil/mediaveil/internal/resolver"
	"github.com/mediaveil/mediaveil/internal/tracker"
	"github.com/mediaveil/mediaveil/pkg/integrations/push"
	"github.com/mediaveil/mediaveil/pkg/media"
)

const fullscreenVideo = `{
  "app_id": "com.google.android.youtube",
  "screen": {"width": 1080, "height": 1920},
  "tree": {
    "bounds": {"left": 0, "top": 0, "right": 1080, "bottom": 1920},
    "children": [
      {"type": "SurfaceView", "bounds": {"left": 0, "top": 0, "right": 1080, "bottom": 1152}}
    ]
  }
}`

var maskedVideo = overlay.State{
	App:         overlay.AppYouTube,
	Playing:     true,
	Mode:        overlay.ModeVideo,
	MaskEnabled: true,
}

type fixture struct {
	handler *Handler
	router  http.Handler
	ingest  Ingest
	svc     *tracker.Service
}

func newFixture(t *testing.T, pushForeground bool) *fixture {
	t.Helper()
	cfg := config.Default()
	cfg.Tracker.DebounceWindow = time.Millisecond

	ingest := Ingest{Playback: push.NewPlaybackStore()}
	src := tracker.Sources{Playback: ingest.Playback}
	if pushForeground {
		ingest.Foreground = push.NewForegroundFeed(time.Minute)
		src.Foreground = ingest.Foreground
	}
	svc := tracker.NewService(cfg, overlay.NewStore(), resolver.DefaultRegistry(), src, nil)
	h := NewHandler(cfg, svc, ingest, nil)
	t.Cleanup(h.Close)

	return &fixture{handler: h, router: NewRouter(h), ingest: ingest, svc: svc}
}

func (f *fixture) post(t *testing.T, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) state(t *testing.T) overlay.State {
	t.Helper()
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/state", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var s overlay.State
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &s))
	return s
}

func (f *fixture) activateYouTube(t *testing.T) {
	t.Helper()
	require.Equal(t, http.StatusAccepted,
		f.post(t, "/api/signals/foreground", `{"app_id":"com.google.android.youtube"}`).Code)
	require.Equal(t, http.StatusAccepted,
		f.post(t, "/api/signals/playback", `{"app_id":"com.google.android.youtube","state":"playing"}`).Code)
	require.Equal(t, http.StatusAccepted, f.post(t, "/api/signals/ui", fullscreenVideo).Code)
}

func TestHealth(t *testing.T) {
	f := newFixture(t, true)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"healthy"`)
	assert.NotEmpty(t, rec.Header().Get("Content-Type"))
}

func TestInitialStateIsZero(t *testing.T) {
	f := newFixture(t, true)
	assert.Equal(t, overlay.Zero(), f.state(t))
}

func TestSignalsDriveState(t *testing.T) {
	f := newFixture(t, true)
	f.activateYouTube(t)

	require.Eventually(t, func() bool {
		return f.state(t) == maskedVideo
	}, 2*time.Second, 5*time.Millisecond)

	require.Equal(t, http.StatusAccepted,
		f.post(t, "/api/signals/playback", `{"app_id":"com.google.android.youtube","state":"paused"}`).Code)
	require.Eventually(t, func() bool {
		return f.state(t) == overlay.Zero()
	}, 2*time.Second, 5*time.Millisecond)
}

func TestPlaybackDefaults(t *testing.T) {
	f := newFixture(t, true)
	rec := f.post(t, "/api/signals/playback", `{"app_id":"com.spotify.music","state":"Buffering"}`)
	require.Equal(t, http.StatusAccepted, rec.Code)

	sig, ok := f.ingest.Playback.CurrentPlayback(resolver.PackageSpotify)
	require.True(t, ok)
	assert.Equal(t, media.StateBuffering, sig.State)
	assert.Equal(t, 1.0, sig.Speed)
	assert.False(t, sig.LastPositionUpdate.IsZero())

	rec = f.post(t, "/api/signals/playback", `{"app_id":"com.spotify.music","state":"none"}`)
	require.Equal(t, http.StatusAccepted, rec.Code)
	_, ok = f.ingest.Playback.CurrentPlayback(resolver.PackageSpotify)
	assert.False(t, ok)
}

func TestSessions(t *testing.T) {
	f := newFixture(t, true)
	f.post(t, "/api/signals/playback", `{"app_id":"org.schabi.newpipe","state":"playing","speed":0}`)

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sessions", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var sessions []media.PlaybackSignal
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sessions))
	require.Len(t, sessions, 1)
	assert.Equal(t, resolver.PackageNewPipe, sessions[0].AppID)
	assert.Zero(t, sessions[0].Speed)
}

func TestBadSignals(t *testing.T) {
	f := newFixture(t, true)

	tests := []struct {
		name string
		path string
		body string
	}{
		{"ui without app", "/api/signals/ui", `{"screen":{"width":10,"height":10}}`},
		{"ui without screen", "/api/signals/ui", `{"app_id":"com.spotify.music"}`},
		{"playback unknown state", "/api/signals/playback", `{"app_id":"com.spotify.music","state":"rewinding"}`},
		{"playback without app", "/api/signals/playback", `{"state":"playing"}`},
		{"foreground negative validity", "/api/signals/foreground", `{"app_id":"com.spotify.music","validity_ms":-1}`},
		{"malformed json", "/api/signals/foreground", `{"app_id":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.post(t, tt.path, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), `"error"`)
		})
	}
}

func TestForegroundNotPushFed(t *testing.T) {
	f := newFixture(t, false)
	rec := f.post(t, "/api/signals/foreground", `{"app_id":"com.spotify.music"}`)
	assert.Equal(t, http.StatusNotImplemented, rec.Code)
}

func TestMethodNotAllowed(t *testing.T) {
	f := newFixture(t, true)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/signals/ui", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestStatus(t *testing.T) {
	f := newFixture(t, true)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, false, body["running"])
	assert.Equal(t, true, body["push_foreground"])
	assert.Equal(t, "1ms", body["debounce_window"])
}

func TestStreamPushesTransitions(t *testing.T) {
	f := newFixture(t, true)
	srv := httptest.NewServer(f.router)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var msg StreamMessage
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "snapshot", msg.Type)
	assert.Equal(t, overlay.Zero(), msg.State)

	require.Eventually(t, func() bool { return f.handler.hub.Len() == 1 }, time.Second, 5*time.Millisecond)

	f.activateYouTube(t)

	for msg.State != maskedVideo {
		require.NoError(t, conn.ReadJSON(&msg))
		assert.Equal(t, "state", msg.Type)
	}
}

func TestCloseDisconnectsStream(t *testing.T) {
	f := newFixture(t, true)
	srv := httptest.NewServer(f.router)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	var msg StreamMessage
	require.NoError(t, conn.ReadJSON(&msg))

	f.handler.Close()
	assert.Zero(t, f.handler.hub.Len())

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, _, err = conn.ReadMessage()
	assert.Error(t, err)
}

func TestUiBodyTooLarge(t *testing.T) {
	f := newFixture(t, true)
	body := bytes.Repeat([]byte(" "), maxBodyBytes+1)
	req := httptest.NewRequest(http.MethodPost, "/api/signals/ui", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
