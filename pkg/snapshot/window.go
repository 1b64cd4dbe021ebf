package snapshot

import "github.com/mediaveil/mediaveil/pkg/geometry"

// Window is one on-screen surface. An owner may have several windows at
// once, e.g. a picture-in-picture window next to its main window.
type Window struct {
	Owner  string        `json:"owner" yaml:"owner"`
	Bounds geometry.Rect `json:"bounds" yaml:"bounds"`
}

// OwnedBy filters windows to those owned by appID
func OwnedBy(windows []Window, appID string) []Window {
	var out []Window
	for _, w := range windows {
		if w.Owner == appID {
			out = append(out, w)
		}
	}
	return out
}
