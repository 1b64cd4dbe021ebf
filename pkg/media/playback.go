package media

import (
	"math"
	"strings"
	"time"
)

// TransportState is the media session's transport state
type TransportState string

const (
	StateNone      TransportState = "none"
	StatePlaying   TransportState = "playing"
	StateBuffering TransportState = "buffering"
	StatePaused    TransportState = "paused"
	StateStopped   TransportState = "stopped"
	StateError     TransportState = "error"
)

const (
	speedEpsilon        = 0.01
	positionStaleWindow = 2 * time.Second
)

// ParseTransportState maps a wire name to a TransportState; unknown names
// map to StateNone.
func ParseTransportState(s string) TransportState {
	switch TransportState(strings.ToLower(strings.TrimSpace(s))) {
	case StatePlaying:
		return StatePlaying
	case StateBuffering:
		return StateBuffering
	case StatePaused:
		return StatePaused
	case StateStopped:
		return StateStopped
	case StateError:
		return StateError
	default:
		return StateNone
	}
}

// PlaybackSignal is a point-in-time view of one application's media session
type PlaybackSignal struct {
	AppID              string         `json:"app_id" yaml:"app_id"`
	State              TransportState `json:"state" yaml:"state"`
	LastPositionUpdate time.Time      `json:"last_position_update" yaml:"last_position_update"`
	Speed              float64        `json:"speed" yaml:"speed"`
}

// IsPlayingLike reports whether the session claims to be producing media,
// regardless of whether its position is advancing.
func (p PlaybackSignal) IsPlayingLike() bool {
	return p.State == StatePlaying || p.State == StateBuffering
}

// IsActivelyPlaying reports whether playback is really progressing at now.
// A playing session counts only while its speed is non-zero or its position
// was updated recently; buffering always counts.
func (p PlaybackSignal) IsActivelyPlaying(now time.Time) bool {
	switch p.State {
	case StatePlaying:
		return p.isAdvancing(now)
	case StateBuffering:
		return true
	default:
		return false
	}
}

// IsExplicitlyInactive reports a state that definitely means "not playing"
func (p PlaybackSignal) IsExplicitlyInactive() bool {
	switch p.State {
	case StatePaused, StateStopped, StateError, StateNone:
		return true
	default:
		return false
	}
}

func (p PlaybackSignal) isAdvancing(now time.Time) bool {
	if math.Abs(p.Speed) > speedEpsilon {
		return true
	}
	if p.LastPositionUpdate.IsZero() {
		return false
	}
	return now.Sub(p.LastPositionUpdate) <= positionStaleWindow
}
