package models

import (
	"time"

	"github.com/mediaveil/mediaveil/internal/overlay"
	"github.com/mediaveil/mediaveil/pkg/geometry"
)

// CurrentStateID is the primary key of the only row ever stored
const CurrentStateID = 1

// OverlayState mirrors the last published overlay state so that other
// processes (the status command) can read it. It is overwritten in place.
type OverlayState struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	App         string    `gorm:"not null;default:none" json:"app"`
	Playing     bool      `gorm:"not null;default:false" json:"playing"`
	Mode        string    `gorm:"not null;default:none" json:"mode"`
	MaskEnabled bool      `gorm:"not null;default:false" json:"mask_enabled"`
	HolePresent bool      `gorm:"not null;default:false" json:"hole_present"`
	HoleLeft    float64   `gorm:"not null;default:0" json:"hole_left"`
	HoleTop     float64   `gorm:"not null;default:0" json:"hole_top"`
	HoleRight   float64   `gorm:"not null;default:0" json:"hole_right"`
	HoleBottom  float64   `gorm:"not null;default:0" json:"hole_bottom"`
	PublishedAt time.Time `gorm:"not null" json:"published_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// NewOverlayState builds the row for s
func NewOverlayState(s overlay.State, publishedAt time.Time) *OverlayState {
	row := &OverlayState{
		ID:          CurrentStateID,
		App:         string(s.App),
		Playing:     s.Playing,
		Mode:        string(s.Mode),
		MaskEnabled: s.MaskEnabled,
		PublishedAt: publishedAt,
	}
	if r, ok := s.Hole.Get(); ok {
		row.HolePresent = true
		row.HoleLeft, row.HoleTop, row.HoleRight, row.HoleBottom = r.Left, r.Top, r.Right, r.Bottom
	}
	return row
}

// State converts the row back into a normalized overlay state
func (o *OverlayState) State() overlay.State {
	s := overlay.State{
		App:         overlay.AppKind(o.App),
		Playing:     o.Playing,
		Mode:        overlay.PlayMode(o.Mode),
		MaskEnabled: o.MaskEnabled,
	}
	if o.HolePresent {
		s.Hole = geometry.Some(geometry.Rect{Left: o.HoleLeft, Top: o.HoleTop, Right: o.HoleRight, Bottom: o.HoleBottom})
	}
	return s.Normalize()
}
