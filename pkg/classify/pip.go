package classify

import (
	"github.com/mediaveil/mediaveil/pkg/geometry"
	"github.com/mediaveil/mediaveil/pkg/snapshot"
)

// PictureInPictureMaxFraction is the largest share of the screen a window may
// cover and still count as picture-in-picture.
const PictureInPictureMaxFraction = 0.40

// DetectPictureInPicture returns the smallest window owned by appID whose
// area is at most 40% of screenArea. Equal areas are ordered by top, then
// left edge, so the choice never depends on list order.
func DetectPictureInPicture(windows []snapshot.Window, appID string, screenArea float64) (geometry.Rect, bool) {
	if screenArea <= 0 || appID == "" {
		return geometry.Rect{}, false
	}
	limit := screenArea * PictureInPictureMaxFraction

	var best geometry.Rect
	found := false
	for _, w := range windows {
		if w.Owner != appID {
			continue
		}
		area := w.Bounds.Area()
		if area <= 0 || area > limit {
			continue
		}
		if !found || smaller(w.Bounds, best) {
			best = w.Bounds
			found = true
		}
	}
	return best, found
}

func smaller(a, b geometry.Rect) bool {
	if a.Area() != b.Area() {
		return a.Area() < b.Area()
	}
	if a.Top != b.Top {
		return a.Top < b.Top
	}
	return a.Left < b.Left
}
