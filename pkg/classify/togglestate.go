package classify

import (
	"strings"

	"github.com/mediaveil/mediaveil/pkg/snapshot"
)

// ToggleStateVocabulary maps the label of a two-state show/hide control to
// the mode currently shown. A control offering to hide the video means video
// is on screen.
type ToggleStateVocabulary struct {
	VideoShown []string
	AudioShown []string
}

func SpotifyToggleStateVocabulary() ToggleStateVocabulary {
	return ToggleStateVocabulary{
		VideoShown: []string{"hide video", "switch to audio"},
		AudioShown: []string{"show video", "switch to video"},
	}
}

// ToggleStateMode reads the mode from the first visible control, in
// breadth-first order, whose text (or description when the text is blank)
// names one of the two states.
func ToggleStateMode(s *snapshot.Snapshot, vocab ToggleStateVocabulary) (TabMode, bool) {
	var mode TabMode
	found := false
	s.Walk(func(n snapshot.Node) bool {
		e := n.Element()
		if !e.Visible {
			return true
		}
		label := e.Text
		if strings.TrimSpace(label) == "" {
			label = e.Description
		}
		switch {
		case containsAny(label, vocab.VideoShown):
			mode, found = TabVideo, true
		case containsAny(label, vocab.AudioShown):
			mode, found = TabAudio, true
		}
		return !found
	})
	return mode, found
}
