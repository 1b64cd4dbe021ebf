// Package resolver turns classifier evidence into a candidate presentation
// for one application. Every supported application has its own resolver;
// they share the precedence ladder and differ in which rungs they use.
package resolver

import (
	"fmt"

	"github.com/mediaveil/mediaveil/internal/overlay"
	"github.com/mediaveil/mediaveil/pkg/classify"
	"github.com/mediaveil/mediaveil/pkg/geometry"
	"github.com/mediaveil/mediaveil/pkg/snapshot"
)

// Input is everything a resolver looks at
type Input struct {
	Snapshot *snapshot.Snapshot
	Windows  []snapshot.Window
	AppID    string
	// MaskActive lets the surface pass count hidden elements, since the
	// mask itself may hide the surface it was raised for
	MaskActive bool
}

// Reason names the rung of the ladder that produced a candidate
type Reason string

const (
	ReasonPictureInPicture Reason = "pip"
	ReasonShortForm        Reason = "short-form"
	ReasonSelector         Reason = "selector"
	ReasonSurface          Reason = "surface"
	ReasonCollapsed        Reason = "collapsed-player"
	ReasonEmpty            Reason = "empty"
)

// Candidate is a proposed (mode, mask, hole) triple
type Candidate struct {
	Mode   overlay.PlayMode
	Mask   bool
	Hole   geometry.OptionalRect
	Reason Reason
	// SurfaceFraction is the evidence the surface rung measured, 0 when it
	// did not run
	SurfaceFraction float64
}

func (c Candidate) String() string {
	return fmt.Sprintf("mode=%s mask=%v hole=%s reason=%s surface=%.2f",
		c.Mode, c.Mask, c.Hole, c.Reason, c.SurfaceFraction)
}

// NoneCandidate is the result when no usable signal exists
func NoneCandidate() Candidate {
	return Candidate{Mode: overlay.ModeNone, Reason: ReasonEmpty}
}

type Resolver interface {
	Kind() overlay.AppKind
	Resolve(in Input) Candidate
}

// ladder holds the rungs shared by every application
type ladder struct {
	profile Profile
}

func (l ladder) Kind() overlay.AppKind {
	return l.profile.Kind
}

func (l ladder) pictureInPicture(in Input) (Candidate, bool) {
	screenArea := in.Snapshot.Screen().Area()
	if _, ok := classify.DetectPictureInPicture(in.Windows, l.appID(in), screenArea); !ok {
		return Candidate{}, false
	}
	return Candidate{Mode: overlay.ModePictureInPicture, Mask: true, Reason: ReasonPictureInPicture}, true
}

func (l ladder) shortForm(in Input) (Candidate, bool) {
	if !classify.IsShortFormUI(in.Snapshot, l.profile.ShortForm) {
		return Candidate{}, false
	}
	return Candidate{Mode: overlay.ModeShortForm, Mask: true, Reason: ReasonShortForm}, true
}

func (l ladder) surfaceFraction(in Input) float64 {
	return classify.VideoSurfaceFraction(in.Snapshot, l.profile.Surface, in.MaskActive)
}

// fromMode completes a selector or surface decision with mask and hole
func (l ladder) fromMode(in Input, mode classify.TabMode, fraction float64, reason Reason) Candidate {
	c := Candidate{Reason: reason, SurfaceFraction: fraction}
	if mode == classify.TabVideo {
		c.Mode = overlay.ModeVideo
		c.Mask = true
	} else {
		c.Mode = overlay.ModeAudio
	}
	if c.Mask && fraction < l.profile.HoleFullscreenFraction {
		c.Hole = geometry.Some(l.hole(in))
	}
	return c
}

// bySurface is the fallback rung
func (l ladder) bySurface(in Input) Candidate {
	fraction := l.surfaceFraction(in)
	mode := classify.TabAudio
	if fraction >= l.profile.VideoThreshold {
		mode = classify.TabVideo
	}
	return l.fromMode(in, mode, fraction, ReasonSurface)
}

// hole prefers the toggle control and falls back to the top band
func (l ladder) hole(in Input) geometry.Rect {
	if len(l.profile.Toggle.Labels) > 0 || len(l.profile.Toggle.Phrases) > 0 {
		if r, ok := classify.FindToggleRegion(in.Snapshot, l.profile.Toggle); ok {
			return r
		}
	}
	return TopBand(in.Snapshot, l.profile.TopBandFraction)
}

func (l ladder) appID(in Input) string {
	if in.AppID != "" {
		return in.AppID
	}
	return l.profile.AppID
}

// TopBand returns a full-width rectangle anchored at the top of the content
// area, fraction of its height tall. The content area is the root element's
// bounds clamped to the screen, or the whole screen when the root is empty.
func TopBand(s *snapshot.Snapshot, fraction float64) geometry.Rect {
	screen := s.Screen()
	content := screen.Bounds()
	if root, ok := s.Root(); ok {
		if r := root.Element().Bounds.ClampTo(screen.Width, screen.Height); !r.IsEmpty() {
			content = r
		}
	}
	return geometry.Rect{
		Left:   0,
		Top:    content.Top,
		Right:  screen.Width,
		Bottom: content.Top + content.Height()*fraction,
	}
}

// isEmpty reports a snapshot that carries no usable signal
func isEmpty(s *snapshot.Snapshot) bool {
	return s.Len() == 0 || s.Screen().Area() <= 0
}
