package classify

import "github.com/mediaveil/mediaveil/pkg/snapshot"

// IsShortFormUI reports whether the snapshot shows a short-form video pager.
//
// An identifier or type naming the short-form surface is enough on its own.
// Text is weaker (a menu entry can be labelled "Shorts"), so a text or
// description hit also needs a separate scrollable pager in the tree.
func IsShortFormUI(s *snapshot.Snapshot, vocab ShortFormVocabulary) bool {
	direct := false
	textHits := make(map[int]struct{})
	var pagers []int

	s.Walk(func(n snapshot.Node) bool {
		e := n.Element()
		if containsAny(e.ID, vocab.Terms) || containsAny(e.Type, vocab.Terms) {
			direct = true
			return false
		}
		if containsAny(e.Text, vocab.Terms) || containsAny(e.Description, vocab.Terms) {
			textHits[n.Index()] = struct{}{}
		}
		if e.Scrollable && containsAny(e.Type, vocab.PagerTypes) {
			pagers = append(pagers, n.Index())
		}
		return true
	})
	if direct {
		return true
	}
	if len(textHits) == 0 {
		return false
	}
	for _, p := range pagers {
		if _, same := textHits[p]; !same || len(textHits) > 1 {
			return true
		}
	}
	return false
}
