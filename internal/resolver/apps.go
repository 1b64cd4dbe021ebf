package resolver

import (
	"github.com/mediaveil/mediaveil/pkg/classify"
	"github.com/mediaveil/mediaveil/pkg/geometry"
)

// youtubeResolver: picture-in-picture, short-form pager, surface
type youtubeResolver struct{ ladder }

func (r youtubeResolver) Resolve(in Input) Candidate {
	// picture-in-picture takes precedence over short form
	if c, ok := r.pictureInPicture(in); ok {
		return c
	}
	if isEmpty(in.Snapshot) {
		return NoneCandidate()
	}
	if c, ok := r.shortForm(in); ok {
		return c
	}
	return r.bySurface(in)
}

// ytMusicResolver: picture-in-picture, song/video tabs, surface, and the
// collapsed player override
type ytMusicResolver struct{ ladder }

func (r ytMusicResolver) Resolve(in Input) Candidate {
	if c, ok := r.pictureInPicture(in); ok {
		return c
	}
	if isEmpty(in.Snapshot) {
		return NoneCandidate()
	}

	var c Candidate
	if mode, ok := classify.SelectedModeFromTabs(in.Snapshot, r.profile.Tabs); ok {
		c = r.fromMode(in, mode, r.surfaceFraction(in), ReasonSelector)
	} else {
		c = r.bySurface(in)
	}

	if classify.DetectCollapsedPlayer(in.Snapshot, r.profile.Collapsed) {
		c.Mask = false
		c.Hole = geometry.None()
		c.Reason = ReasonCollapsed
	}
	return c
}

// spotifyResolver: picture-in-picture, show/hide video control, surface
type spotifyResolver struct{ ladder }

func (r spotifyResolver) Resolve(in Input) Candidate {
	if c, ok := r.pictureInPicture(in); ok {
		return c
	}
	if isEmpty(in.Snapshot) {
		return NoneCandidate()
	}
	if mode, ok := classify.ToggleStateMode(in.Snapshot, r.profile.State); ok {
		return r.fromMode(in, mode, r.surfaceFraction(in), ReasonSelector)
	}
	return r.bySurface(in)
}

// newPipeResolver: picture-in-picture, surface
type newPipeResolver struct{ ladder }

func (r newPipeResolver) Resolve(in Input) Candidate {
	if c, ok := r.pictureInPicture(in); ok {
		return c
	}
	if isEmpty(in.Snapshot) {
		return NoneCandidate()
	}
	return r.bySurface(in)
}
