// Package wayland resolves the foreground application on wlroots
// compositors by asking their IPC tools.
package wayland

import (
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/mediaveil/mediaveil/pkg/window"
)

// Source tags signals produced by this resolver
const Source = "wayland"

// DefaultValidity is how long a foreground observation is trusted
const DefaultValidity = time.Minute

const commandTimeout = 2 * time.Second

// Compositors with a supported IPC
const (
	CompositorSway     = "sway"
	CompositorHyprland = "hyprland"
	CompositorUnknown  = "unknown"
)

// ErrNoFocusedWindow is returned when the compositor reports no focused client
var ErrNoFocusedWindow = errors.New("no focused window")

type Options struct {
	// Validity of each foreground observation, DefaultValidity when zero
	Validity time.Duration
	// AppIDs maps a Wayland app_id or X class (case-insensitive) to an
	// application id. Unmapped clients report their lower-cased app_id.
	AppIDs map[string]string
}

// runFunc executes an IPC command and returns its stdout
type runFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

// Resolver implements window.ForegroundResolver over swaymsg or hyprctl
type Resolver struct {
	opts       Options
	appID      map[string]string
	compositor string
	run        runFunc
	lookPath   func(string) (string, error)
	now        func() time.Time
}

var _ window.ForegroundResolver = (*Resolver)(nil)

func NewResolver(opts Options) *Resolver {
	if opts.Validity <= 0 {
		opts.Validity = DefaultValidity
	}
	ids := make(map[string]string, len(opts.AppIDs))
	for k, v := range opts.AppIDs {
		ids[strings.ToLower(k)] = v
	}
	return &Resolver{
		opts:       opts,
		appID:      ids,
		compositor: DetectCompositor(),
		run:        runCommand,
		lookPath:   exec.LookPath,
		now:        time.Now,
	}
}

// DetectCompositor names the running compositor from the session environment
func DetectCompositor() string {
	if os.Getenv("SWAYSOCK") != "" {
		return CompositorSway
	}
	if os.Getenv("HYPRLAND_INSTANCE_SIGNATURE") != "" {
		return CompositorHyprland
	}
	desktop := strings.ToLower(os.Getenv("XDG_CURRENT_DESKTOP"))
	switch {
	case strings.Contains(desktop, "sway"):
		return CompositorSway
	case strings.Contains(desktop, "hyprland"):
		return CompositorHyprland
	}
	return CompositorUnknown
}

// Compositor returns the compositor this resolver talks to
func (r *Resolver) Compositor() string {
	return r.compositor
}

// IsAvailable reports whether the compositor's IPC tool is installed
func (r *Resolver) IsAvailable() bool {
	var tool string
	switch r.compositor {
	case CompositorSway:
		tool = "swaymsg"
	case CompositorHyprland:
		tool = "hyprctl"
	default:
		return false
	}
	_, err := r.lookPath(tool)
	return err == nil
}

func (r *Resolver) ResolveForeground() (window.ForegroundSignal, error) {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	var (
		name string
		err  error
	)
	switch r.compositor {
	case CompositorSway:
		var out []byte
		out, err = r.run(ctx, "swaymsg", "-t", "get_tree", "-r")
		if err != nil {
			return window.ForegroundSignal{}, errors.Wrap(err, "swaymsg")
		}
		name, err = parseSwayTree(out)
	case CompositorHyprland:
		var out []byte
		out, err = r.run(ctx, "hyprctl", "activewindow", "-j")
		if err != nil {
			return window.ForegroundSignal{}, errors.Wrap(err, "hyprctl")
		}
		name, err = parseHyprlandWindow(out)
	default:
		return window.ForegroundSignal{}, errors.Errorf("unsupported wayland compositor: %s", r.compositor)
	}
	if err != nil {
		return window.ForegroundSignal{}, err
	}

	return window.ForegroundSignal{
		AppID:      r.resolveAppID(name),
		ObservedAt: r.now(),
		Validity:   r.opts.Validity,
		Source:     Source,
	}, nil
}

func (r *Resolver) Close() error {
	return nil
}

func (r *Resolver) resolveAppID(name string) string {
	if id, ok := r.appID[strings.ToLower(name)]; ok {
		return id
	}
	return strings.ToLower(name)
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

type swayNode struct {
	Focused          bool     `json:"focused"`
	AppID            *string  `json:"app_id"`
	WindowProperties *struct {
		Class string `json:"class"`
	} `json:"window_properties"`
	Nodes         []swayNode `json:"nodes"`
	FloatingNodes []swayNode `json:"floating_nodes"`
}

// parseSwayTree finds the focused client in a get_tree reply. Native
// clients carry app_id, XWayland clients only a window class.
func parseSwayTree(data []byte) (string, error) {
	var root swayNode
	if err := json.Unmarshal(data, &root); err != nil {
		return "", errors.Wrap(err, "decode sway tree")
	}
	node := findFocused(&root)
	if node == nil {
		return "", ErrNoFocusedWindow
	}
	if node.AppID != nil && *node.AppID != "" {
		return *node.AppID, nil
	}
	if node.WindowProperties != nil && node.WindowProperties.Class != "" {
		return node.WindowProperties.Class, nil
	}
	// a focused workspace or output has neither
	return "", ErrNoFocusedWindow
}

func findFocused(n *swayNode) *swayNode {
	if n.Focused {
		return n
	}
	for i := range n.Nodes {
		if f := findFocused(&n.Nodes[i]); f != nil {
			return f
		}
	}
	for i := range n.FloatingNodes {
		if f := findFocused(&n.FloatingNodes[i]); f != nil {
			return f
		}
	}
	return nil
}

// parseHyprlandWindow reads the class of hyprctl's active window. An empty
// object means nothing is focused.
func parseHyprlandWindow(data []byte) (string, error) {
	var win struct {
		Class        string `json:"class"`
		InitialClass string `json:"initialClass"`
	}
	if err := json.Unmarshal(data, &win); err != nil {
		return "", errors.Wrap(err, "decode hyprland window")
	}
	switch {
	case win.Class != "":
		return win.Class, nil
	case win.InitialClass != "":
		return win.InitialClass, nil
	}
	return "", ErrNoFocusedWindow
}
