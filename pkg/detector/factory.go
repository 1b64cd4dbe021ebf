// Package detector picks the foreground and window backends for the host
package detector

import (
	"log/slog"
	"os"
	"time"

	"github.com/pkg/errors"

	"github.com/mediaveil/mediaveil/internal/logging"
	"github.com/mediaveil/mediaveil/pkg/integrations/hybrid"
	"github.com/mediaveil/mediaveil/pkg/integrations/push"
	"github.com/mediaveil/mediaveil/pkg/integrations/wayland"
	"github.com/mediaveil/mediaveil/pkg/integrations/x11"
	"github.com/mediaveil/mediaveil/pkg/window"
)

// Backend kinds accepted by New
const (
	KindAuto = "auto"
	KindX11     = "x11"
	KindWayland = "wayland"
	KindPush    = "push"
)

// ErrUnavailable is returned when an explicitly requested backend cannot run
var ErrUnavailable = errors.New("backend not available")

type Options struct {
	Kind     string
	Validity time.Duration
	X11Apps  map[string]string
	Logger   *slog.Logger
}

// Backends are the collaborators the tracker polls. Feed is always set so
// the HTTP API can report the foreground; with x11 it is the fallback after
// the display. Windows is nil without a desktop backend.
type Backends struct {
	Name       string
	Foreground window.ForegroundResolver
	Windows    window.WindowLister
	Feed       *push.ForegroundFeed
}

func (b Backends) Close() error {
	if b.Foreground != nil {
		return b.Foreground.Close()
	}
	return nil
}

// New builds the backends for opts.Kind. Auto uses x11 when a display is
// reachable, then a wayland compositor IPC, and falls back to push otherwise.
func New(opts Options) (Backends, error) {
	logger := logging.OrDiscard(opts.Logger)
	feed := push.NewForegroundFeed(opts.Validity)

	kind := opts.Kind
	if kind == "" {
		kind = KindAuto
	}

	switch kind {
	case KindPush:
		return pushOnly(feed), nil

	case KindX11:
		if b, ok := tryX11(opts, feed, logger); ok {
			return b, nil
		}
		return Backends{}, errors.Wrap(ErrUnavailable, "x11")

	case KindWayland:
		if b, ok := tryWayland(opts, feed, logger); ok {
			return b, nil
		}
		return Backends{}, errors.Wrap(ErrUnavailable, "wayland")

	case KindAuto:
		if b, ok := tryX11(opts, feed, logger); ok {
			return b, nil
		}
		if b, ok := tryWayland(opts, feed, logger); ok {
			return b, nil
		}
		logger.Info("no display reachable, foreground is push-fed only")
		return pushOnly(feed), nil

	default:
		return Backends{}, errors.Errorf("unknown backend %q", kind)
	}
}

func tryX11(opts Options, feed *push.ForegroundFeed, logger *slog.Logger) (Backends, bool) {
	backend := x11.NewBackend(x11.Options{Validity: opts.Validity, AppIDs: opts.X11Apps})
	if DetectDisplayServer() != "x11" || !backend.IsAvailable() {
		_ = backend.Close()
		return Backends{}, false
	}
	logger.Info("foreground backend initialized", "backend", KindX11)
	return Backends{
		Name:       KindX11,
		Foreground: hybrid.NewResolver(logger, backend, feed),
		Windows:    backend,
		Feed:       feed,
	}, true
}

// tryWayland resolves the foreground only; PiP detection needs x11 or the
// ingest API for windows
func tryWayland(opts Options, feed *push.ForegroundFeed, logger *slog.Logger) (Backends, bool) {
	if DetectDisplayServer() != "wayland" {
		return Backends{}, false
	}
	resolver := wayland.NewResolver(wayland.Options{Validity: opts.Validity, AppIDs: opts.X11Apps})
	if !resolver.IsAvailable() {
		return Backends{}, false
	}
	logger.Info("foreground backend initialized", "backend", KindWayland, "compositor", resolver.Compositor())
	return Backends{
		Name:       KindWayland,
		Foreground: hybrid.NewResolver(logger, resolver, feed),
		Feed:       feed,
	}, true
}

func pushOnly(feed *push.ForegroundFeed) Backends {
	return Backends{Name: KindPush, Foreground: feed, Feed: feed}
}

// DetectDisplayServer names the session's display server
func DetectDisplayServer() string {
	sessionType := os.Getenv("XDG_SESSION_TYPE")
	waylandDisplay := os.Getenv("WAYLAND_DISPLAY")
	x11Display := os.Getenv("DISPLAY")

	// XWayland still answers EWMH queries
	if x11Display != "" {
		return "x11"
	}

	if sessionType == "wayland" || waylandDisplay != "" {
		return "wayland"
	}

	if sessionType == "x11" {
		return "x11"
	}

	return "unknown"
}
