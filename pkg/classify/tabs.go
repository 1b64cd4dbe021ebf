package classify

import (
	"strings"

	"github.com/mediaveil/mediaveil/pkg/snapshot"
)

// TabMode is the mode a tab selector can report
type TabMode string

const (
	TabAudio TabMode = "audio"
	TabVideo TabMode = "video"
)

const (
	tabAncestorDepth = 4
	tabLevelPenalty  = 5

	weightSelected  = 100
	weightChecked   = 90
	weightActivated = 80
	weightFocused   = 40
)

// SelectionConfidence is the evidence that a control is (Selected) or is not
// (Unselected) the active mode.
type SelectionConfidence struct {
	Selected   int `json:"selected"`
	Unselected int `json:"unselected"`
}

// Margin is Selected minus Unselected
func (c SelectionConfidence) Margin() int {
	return c.Selected - c.Unselected
}

func (c SelectionConfidence) merge(o SelectionConfidence) SelectionConfidence {
	return SelectionConfidence{
		Selected:   max(c.Selected, o.Selected),
		Unselected: max(c.Unselected, o.Unselected),
	}
}

// TabEvidence scores every element whose text or description starts with a
// mode token. Modes with no matching element are absent from the result.
//
// Each element is scored at its own level and at up to four ancestors. A
// level contributes its strongest selection and deselection signal, less five
// points per level climbed, so nearby evidence outweighs distant evidence.
// Per mode, the field-wise maximum over all matching elements is kept.
func TabEvidence(s *snapshot.Snapshot, vocab TabVocabulary) map[TabMode]SelectionConfidence {
	out := make(map[TabMode]SelectionConfidence)
	s.Walk(func(n snapshot.Node) bool {
		e := n.Element()
		var mode TabMode
		switch {
		case startsWithToken(e, vocab.AudioTokens):
			mode = TabAudio
		case startsWithToken(e, vocab.VideoTokens):
			mode = TabVideo
		default:
			return true
		}
		conf := scoreWithAncestors(n, vocab)
		if prev, ok := out[mode]; ok {
			conf = prev.merge(conf)
		}
		out[mode] = conf
		return true
	})
	return out
}

// SelectedModeFromTabs resolves which tab is active. It refuses to guess:
// when the evidence is empty or tied the result is absent and callers fall
// back to a weaker heuristic.
func SelectedModeFromTabs(s *snapshot.Snapshot, vocab TabVocabulary) (TabMode, bool) {
	return ResolveTabs(TabEvidence(s, vocab))
}

// ResolveTabs applies the resolution order to already computed evidence
func ResolveTabs(evidence map[TabMode]SelectionConfidence) (TabMode, bool) {
	modes := []TabMode{TabAudio, TabVideo}

	// a: a unique largest positive margin
	var winner TabMode
	bestMargin, ties := 0, 0
	for _, m := range modes {
		c, ok := evidence[m]
		if !ok || c.Margin() <= 0 {
			continue
		}
		switch {
		case c.Margin() > bestMargin:
			winner, bestMargin, ties = m, c.Margin(), 1
		case c.Margin() == bestMargin:
			ties++
		}
	}
	if ties == 1 {
		return winner, true
	}

	// b: with two candidates, one explicitly deselected implies the other
	if len(evidence) == 2 {
		a, v := evidence[TabAudio], evidence[TabVideo]
		if a.Unselected > 0 && a.Selected == 0 && v.Unselected == 0 {
			return TabVideo, true
		}
		if v.Unselected > 0 && v.Selected == 0 && a.Unselected == 0 {
			return TabAudio, true
		}
	}

	// c: the unique highest selection score
	bestSelected, ties := 0, 0
	for _, m := range modes {
		c, ok := evidence[m]
		if !ok || c.Selected <= 0 {
			continue
		}
		switch {
		case c.Selected > bestSelected:
			winner, bestSelected, ties = m, c.Selected, 1
		case c.Selected == bestSelected:
			ties++
		}
	}
	if ties == 1 {
		return winner, true
	}

	// d: no inference
	return "", false
}

func startsWithToken(e snapshot.Element, tokens []string) bool {
	return hasPrefixAny(e.Text, tokens) || hasPrefixAny(e.Description, tokens)
}

func scoreWithAncestors(n snapshot.Node, vocab TabVocabulary) SelectionConfidence {
	conf := scoreLevel(n.Element(), vocab)
	for i, a := range n.Ancestors(tabAncestorDepth) {
		level := scoreLevel(a.Element(), vocab)
		penalty := (i + 1) * tabLevelPenalty
		conf = conf.merge(SelectionConfidence{
			Selected:   max(level.Selected-penalty, 0),
			Unselected: max(level.Unselected-penalty, 0),
		})
	}
	return conf
}

func scoreLevel(e snapshot.Element, vocab TabVocabulary) SelectionConfidence {
	var c SelectionConfidence
	if e.Selected {
		c.Selected = max(c.Selected, weightSelected)
	}
	if e.Checked {
		c.Selected = max(c.Selected, weightChecked)
	}
	if e.Activated {
		c.Selected = max(c.Selected, weightActivated)
	}
	if e.Focused {
		c.Selected = max(c.Selected, weightFocused)
	}

	label := strings.ToLower(e.Text + " " + e.Description)
	for _, p := range vocab.Selection {
		if p.Phrase != "" && strings.Contains(label, strings.ToLower(p.Phrase)) {
			c.Selected = max(c.Selected, p.Weight)
		}
	}
	for _, p := range vocab.Deselection {
		if p.Phrase != "" && strings.Contains(label, strings.ToLower(p.Phrase)) {
			c.Unselected = max(c.Unselected, p.Weight)
		}
	}
	return c
}
