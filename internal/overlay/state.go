// Package overlay holds the published presentation state and the machinery
// that reconciles proposals into it.
package overlay

import (
	"fmt"

	"github.com/mediaveil/mediaveil/pkg/geometry"
)

// AppKind identifies a supported media application
type AppKind string

const (
	AppNone    AppKind = "none"
	AppYouTube AppKind = "youtube"
	AppYTMusic AppKind = "ytmusic"
	AppSpotify AppKind = "spotify"
	AppNewPipe AppKind = "newpipe"
)

// PlayMode is the classified presentation mode of the active application
type PlayMode string

const (
	ModeNone             PlayMode = "none"
	ModeAudio            PlayMode = "audio"
	ModeVideo            PlayMode = "video"
	ModeShortForm        PlayMode = "shortForm"
	ModePictureInPicture PlayMode = "pictureInPicture"
)

// State is the reconciled presentation state. It is a comparable value and
// is always replaced whole.
type State struct {
	App         AppKind               `json:"app"`
	Playing     bool                  `json:"playing"`
	Mode        PlayMode              `json:"mode"`
	MaskEnabled bool                  `json:"mask_enabled"`
	Hole        geometry.OptionalRect `json:"hole"`
}

// Zero is the state published when nothing is active
func Zero() State {
	return State{App: AppNone, Mode: ModeNone}
}

// Normalize enforces the state invariants: a hole only exists under a mask
// and a mask only exists for an application.
func (s State) Normalize() State {
	if s.App == "" {
		s.App = AppNone
	}
	if s.Mode == "" {
		s.Mode = ModeNone
	}
	if s.App == AppNone {
		s.MaskEnabled = false
	}
	if !s.MaskEnabled {
		s.Hole = geometry.None()
	}
	return s
}

// IsActive reports whether an application is published
func (s State) IsActive() bool {
	return s.App != AppNone && s.App != ""
}

func (s State) String() string {
	return fmt.Sprintf("app=%s playing=%v mode=%s mask=%v hole=%s",
		s.App, s.Playing, s.Mode, s.MaskEnabled, s.Hole)
}
