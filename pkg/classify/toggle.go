package classify

import (
	"strings"

	"github.com/mediaveil/mediaveil/pkg/geometry"
	"github.com/mediaveil/mediaveil/pkg/snapshot"
)

const (
	// TogglePaddingDp is added around a matched toggle label
	TogglePaddingDp = 12.0

	toggleAncestorDepth = 4
	toggleGrowthRatio   = 0.9
	// an ancestor covering more than this share of the screen is a container,
	// not the control
	toggleMaxScreenFraction = 0.5
)

// FindToggleRegion locates the audio/video toggle and returns the rectangle
// of the whole tappable control.
//
// The first breadth-first match is padded, clamped to the screen and then
// widened to its nearest ancestors (up to four levels) as long as each one is
// at least 90% as wide and tall as the current region and does not cover
// more than half the screen.
func FindToggleRegion(s *snapshot.Snapshot, keywords ToggleKeywords) (geometry.Rect, bool) {
	var match snapshot.Node
	found := false
	s.Walk(func(n snapshot.Node) bool {
		e := n.Element()
		if matchesToggle(e.Text, keywords) || matchesToggle(e.Description, keywords) {
			match = n
			found = true
			return false
		}
		return true
	})
	if !found {
		return geometry.Rect{}, false
	}

	screen := s.Screen()
	pad := screen.Dp(TogglePaddingDp)
	best := match.Element().Bounds.Expand(pad).ClampTo(screen.Width, screen.Height)
	return widenToAncestors(match, best, screen), true
}

func widenToAncestors(n snapshot.Node, best geometry.Rect, screen snapshot.Screen) geometry.Rect {
	screenArea := screen.Area()
	for _, parent := range n.Ancestors(toggleAncestorDepth) {
		rect := parent.Element().Bounds.ClampTo(screen.Width, screen.Height)
		if rect.IsEmpty() {
			continue
		}
		if screenArea > 0 && rect.Area() > screenArea*toggleMaxScreenFraction {
			continue
		}
		wider := rect.Width() >= best.Width()*toggleGrowthRatio
		taller := rect.Height() >= best.Height()*toggleGrowthRatio
		if wider && taller {
			best = rect
		}
	}
	return best
}

func matchesToggle(label string, keywords ToggleKeywords) bool {
	value := strings.ToLower(strings.TrimSpace(label))
	if value == "" {
		return false
	}
	for _, exact := range keywords.Labels {
		if value == strings.ToLower(exact) {
			return true
		}
	}
	for _, phrase := range keywords.Phrases {
		if phrase != "" && strings.Contains(value, strings.ToLower(phrase)) {
			return true
		}
	}
	return false
}
