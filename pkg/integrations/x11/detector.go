// Package x11 reads the foreground application and the window list from an
// X11 server through EWMH properties.
package x11

import (
	"os"
	"strings"
	"sync"
	"time"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"
	"github.com/pkg/errors"

	"github.com/mediaveil/mediaveil/pkg/geometry"
	"github.com/mediaveil/mediaveil/pkg/snapshot"
	"github.com/mediaveil/mediaveil/pkg/window"
)

// Source tags signals produced by this backend
const Source = "x11"

// DefaultValidity is how long a foreground observation is trusted
const DefaultValidity = time.Minute

var atomNames = []string{
	"_NET_ACTIVE_WINDOW",
	"_NET_CLIENT_LIST",
	"_NET_WM_NAME",
	"WM_NAME",
	"WM_CLASS",
	"UTF8_STRING",
}

// ErrNoActiveWindow is returned when neither _NET_ACTIVE_WINDOW nor the
// input focus names a top-level window
var ErrNoActiveWindow = errors.New("no active window found")

// Options configure the backend
type Options struct {
	// Validity of each foreground observation, DefaultValidity when zero
	Validity time.Duration
	// AppIDs maps a WM_CLASS instance or class name (case-insensitive) to
	// an application id. Unmapped windows report their lower-cased class.
	AppIDs map[string]string
}

// Backend implements window.ForegroundResolver and window.WindowLister.
// The connection is opened on first use.
type Backend struct {
	opts  Options
	appID map[string]string
	now   func() time.Time

	mu    sync.Mutex
	conn  *xgb.Conn
	root  xproto.Window
	atoms map[string]xproto.Atom
}

var (
	_ window.ForegroundResolver = (*Backend)(nil)
	_ window.WindowLister       = (*Backend)(nil)
)

func NewBackend(opts Options) *Backend {
	if opts.Validity <= 0 {
		opts.Validity = DefaultValidity
	}
	ids := make(map[string]string, len(opts.AppIDs))
	for k, v := range opts.AppIDs {
		ids[strings.ToLower(k)] = v
	}
	return &Backend{opts: opts, appID: ids, now: time.Now}
}

// IsAvailable reports whether an X server can be reached
func (b *Backend) IsAvailable() bool {
	if os.Getenv("DISPLAY") == "" {
		return false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.connectLocked() == nil
}

func (b *Backend) connectLocked() error {
	if b.conn != nil {
		return nil
	}
	conn, err := xgb.NewConn()
	if err != nil {
		return errors.Wrap(err, "failed to connect to X server")
	}

	atoms := make(map[string]xproto.Atom, len(atomNames))
	for _, name := range atomNames {
		reply, err := xproto.InternAtom(conn, false, uint16(len(name)), name).Reply()
		if err != nil {
			conn.Close()
			return errors.Wrapf(err, "failed to intern atom %s", name)
		}
		atoms[name] = reply.Atom
	}

	b.conn = conn
	b.root = xproto.Setup(conn).DefaultScreen(conn).Root
	b.atoms = atoms
	return nil
}

// ResolveForeground maps the active window's WM_CLASS to an application id
func (b *Backend) ResolveForeground() (window.ForegroundSignal, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.connectLocked(); err != nil {
		return window.ForegroundSignal{}, err
	}

	win, err := b.activeWindowLocked()
	if err != nil {
		return window.ForegroundSignal{}, err
	}
	instance, class := parseWMClass(b.propertyLocked(win, b.atoms["WM_CLASS"], xproto.AtomString, 256))
	appID := resolveAppID(b.appID, instance, class)
	if appID == "" {
		return window.ForegroundSignal{}, errors.Errorf("window 0x%x has no WM_CLASS", uint32(win))
	}

	return window.ForegroundSignal{
		AppID:      appID,
		ObservedAt: b.now(),
		Validity:   b.opts.Validity,
		Source:     Source,
	}, nil
}

// ListWindows returns every managed client window in root coordinates
func (b *Backend) ListWindows() ([]snapshot.Window, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.connectLocked(); err != nil {
		return nil, err
	}

	reply, err := xproto.GetProperty(b.conn, false, b.root, b.atoms["_NET_CLIENT_LIST"],
		xproto.AtomWindow, 0, 1024).Reply()
	if err != nil {
		return nil, errors.Wrap(err, "failed to read _NET_CLIENT_LIST")
	}

	var out []snapshot.Window
	for _, win := range parseWindowList(reply.Value) {
		bounds, err := b.boundsLocked(win)
		if err != nil {
			continue
		}
		instance, class := parseWMClass(b.propertyLocked(win, b.atoms["WM_CLASS"], xproto.AtomString, 256))
		owner := resolveAppID(b.appID, instance, class)
		if owner == "" {
			continue
		}
		out = append(out, snapshot.Window{Owner: owner, Bounds: bounds})
	}
	return out, nil
}

// Screen returns the default screen size
func (b *Backend) Screen() (snapshot.Screen, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.connectLocked(); err != nil {
		return snapshot.Screen{}, err
	}
	s := xproto.Setup(b.conn).DefaultScreen(b.conn)
	return snapshot.Screen{Width: float64(s.WidthInPixels), Height: float64(s.HeightInPixels), Density: 1}, nil
}

func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.conn != nil {
		b.conn.Close()
		b.conn = nil
	}
	return nil
}

func (b *Backend) propertyLocked(win xproto.Window, atom, typ xproto.Atom, length uint32) []byte {
	reply, err := xproto.GetProperty(b.conn, false, win, atom, typ, 0, length).Reply()
	if err != nil || reply == nil {
		return nil
	}
	return reply.Value
}

func (b *Backend) boundsLocked(win xproto.Window) (geometry.Rect, error) {
	geom, err := xproto.GetGeometry(b.conn, xproto.Drawable(win)).Reply()
	if err != nil {
		return geometry.Rect{}, errors.Wrap(err, "failed to get window geometry")
	}
	pos, err := xproto.TranslateCoordinates(b.conn, win, b.root, 0, 0).Reply()
	if err != nil {
		return geometry.Rect{}, errors.Wrap(err, "failed to translate window coordinates")
	}
	return geometry.NewRect(float64(pos.DstX), float64(pos.DstY), float64(geom.Width), float64(geom.Height)), nil
}

func (b *Backend) activeWindowLocked() (xproto.Window, error) {
	if data := b.propertyLocked(b.root, b.atoms["_NET_ACTIVE_WINDOW"], xproto.AtomWindow, 1); len(data) >= 4 {
		if win := xproto.Window(xgb.Get32(data)); win != 0 && b.hasNameLocked(win) {
			return win, nil
		}
	}

	focus, err := xproto.GetInputFocus(b.conn).Reply()
	if err != nil {
		return 0, errors.Wrap(err, "failed to get input focus")
	}
	if focus.Focus == 0 || focus.Focus == b.root {
		return 0, ErrNoActiveWindow
	}
	if top := b.topLevelLocked(focus.Focus); top != 0 && b.hasNameLocked(top) {
		return top, nil
	}
	return 0, ErrNoActiveWindow
}

func (b *Backend) topLevelLocked(win xproto.Window) xproto.Window {
	for {
		reply, err := xproto.QueryTree(b.conn, win).Reply()
		if err != nil || reply.Parent == b.root || reply.Parent == 0 {
			return win
		}
		win = reply.Parent
	}
}

func (b *Backend) hasNameLocked(win xproto.Window) bool {
	if len(b.propertyLocked(win, b.atoms["_NET_WM_NAME"], b.atoms["UTF8_STRING"], 1)) > 0 {
		return true
	}
	return len(b.propertyLocked(win, b.atoms["WM_NAME"], xproto.AtomString, 1)) > 0
}

// parseWMClass splits the two NUL-terminated strings of WM_CLASS
func parseWMClass(data []byte) (instance, class string) {
	parts := strings.Split(strings.TrimRight(string(data), "\x00"), "\x00")
	if len(parts) >= 1 {
		instance = parts[0]
	}
	if len(parts) >= 2 {
		class = parts[1]
	}
	return instance, class
}

// parseWindowList decodes a 32-bit WINDOW[] property value
func parseWindowList(data []byte) []xproto.Window {
	out := make([]xproto.Window, 0, len(data)/4)
	for i := 0; i+4 <= len(data); i += 4 {
		if w := xproto.Window(xgb.Get32(data[i:])); w != 0 {
			out = append(out, w)
		}
	}
	return out
}

func resolveAppID(ids map[string]string, instance, class string) string {
	for _, name := range []string{class, instance} {
		if id, ok := ids[strings.ToLower(name)]; ok {
			return id
		}
	}
	if class != "" {
		return strings.ToLower(class)
	}
	return strings.ToLower(instance)
}
