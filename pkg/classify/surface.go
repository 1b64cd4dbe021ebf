package classify

import (
	"github.com/mediaveil/mediaveil/pkg/geometry"
	"github.com/mediaveil/mediaveil/pkg/snapshot"
)

// VideoSurfaceFraction returns the largest share of the screen covered by a
// single video surface, in [0,1].
//
// Invisible elements are skipped unless allowHidden is set: once the mask is
// up it may hide the real surface, and the classification has to stay stable
// anyway. Children of skipped elements are still examined.
func VideoSurfaceFraction(s *snapshot.Snapshot, vocab SurfaceVocabulary, allowHidden bool) float64 {
	screen := s.Screen()
	screenArea := screen.Area()
	if screenArea <= 0 {
		return 0
	}

	best := 0.0
	s.Walk(func(n snapshot.Node) bool {
		e := n.Element()
		if !e.Visible && !allowHidden {
			return true
		}
		if !isSurface(e, vocab) {
			return true
		}
		bounds := e.Bounds.ClampTo(screen.Width, screen.Height)
		if f := geometry.Fraction(bounds.Area(), screenArea); f > best {
			best = f
		}
		return true
	})
	return best
}

func isSurface(e snapshot.Element, vocab SurfaceVocabulary) bool {
	if containsAny(e.Type, vocab.Types) {
		return true
	}
	return containsAny(e.ID, vocab.PlayerTerms) ||
		containsAny(e.Text, vocab.PlayerTerms) ||
		containsAny(e.Description, vocab.PlayerTerms)
}
