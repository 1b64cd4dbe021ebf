package classify

import "github.com/mediaveil/mediaveil/pkg/snapshot"

const (
	collapsedMaxHeightFraction = 0.20
	collapsedMinBottomFraction = 0.75
)

// DetectCollapsedPlayer reports a minimized player docked at the bottom of
// the screen: a visible element named like a mini player, no taller than a
// fifth of the screen, whose bottom edge sits in the lowest quarter.
func DetectCollapsedPlayer(s *snapshot.Snapshot, vocab CollapsedPlayerVocabulary) bool {
	screen := s.Screen()
	if screen.Area() <= 0 {
		return false
	}
	found := false
	s.Walk(func(n snapshot.Node) bool {
		e := n.Element()
		if !e.Visible {
			return true
		}
		if !containsAny(e.ID, vocab.Terms) && !containsAny(e.Description, vocab.Terms) {
			return true
		}
		b := e.Bounds.ClampTo(screen.Width, screen.Height)
		if b.IsEmpty() {
			return true
		}
		if b.Height() <= screen.Height*collapsedMaxHeightFraction &&
			b.Bottom >= screen.Height*collapsedMinBottomFraction {
			found = true
			return false
		}
		return true
	})
	return found
}
