// Package classify contains the snapshot heuristics. Every function here is
// pure and total: it never mutates its input, never performs I/O, and maps an
// empty or nil snapshot to "no evidence".
package classify

import "strings"

// SurfaceVocabulary recognizes video-rendering elements
type SurfaceVocabulary struct {
	Types       []string // matched against Element.Type
	PlayerTerms []string // matched against ID, Text and Description
}

// ShortFormVocabulary recognizes vertically paged short-video browsers
type ShortFormVocabulary struct {
	Terms      []string
	PagerTypes []string
}

// ToggleKeywords locates the audio/video switch. Phrases match anywhere in
// the label; Labels must equal it.
type ToggleKeywords struct {
	Phrases []string
	Labels  []string
}

// TabVocabulary recognizes a two-mode tab selector and the phrases around it
type TabVocabulary struct {
	AudioTokens []string
	VideoTokens []string
	Selection   []WeightedPhrase
	Deselection []WeightedPhrase
}

// WeightedPhrase is a phrase worth Weight points of evidence
type WeightedPhrase struct {
	Phrase string
	Weight int
}

// CollapsedPlayerVocabulary recognizes a minimized, bottom-docked player
type CollapsedPlayerVocabulary struct {
	Terms []string
}

func DefaultSurfaceVocabulary() SurfaceVocabulary {
	return SurfaceVocabulary{
		Types: []string{"SurfaceView", "TextureView", "PlayerView", "VideoView"},
		PlayerTerms: []string{
			"video_player",
			"watch_player",
			"player_view",
			"player_video",
			"video player",
			"shorts player",
		},
	}
}

func DefaultShortFormVocabulary() ShortFormVocabulary {
	return ShortFormVocabulary{
		Terms:      []string{"shorts", "reel"},
		PagerTypes: []string{"RecyclerView", "ViewPager", "Pager"},
	}
}

func DefaultToggleKeywords() ToggleKeywords {
	return ToggleKeywords{
		Phrases: []string{"switch to audio", "switch to song", "switch to video"},
		Labels:  []string{"audio", "song", "video"},
	}
}

// SpotifyToggleKeywords covers the show/hide video control of the Spotify
// player in addition to the generic switch phrases.
func SpotifyToggleKeywords() ToggleKeywords {
	return ToggleKeywords{
		Phrases: []string{"show video", "hide video", "switch to video", "switch to audio"},
		Labels:  []string{"video"},
	}
}

func DefaultTabVocabulary() TabVocabulary {
	return TabVocabulary{
		AudioTokens: []string{"song", "audio"},
		VideoTokens: []string{"video"},
		Selection: []WeightedPhrase{
			{Phrase: "currently playing", Weight: 70},
			{Phrase: "now playing", Weight: 70},
		},
		Deselection: []WeightedPhrase{
			{Phrase: "switch to", Weight: 100},
			{Phrase: "tap to watch", Weight: 80},
			{Phrase: "tap to play", Weight: 80},
		},
	}
}

func DefaultCollapsedPlayerVocabulary() CollapsedPlayerVocabulary {
	return CollapsedPlayerVocabulary{
		Terms: []string{"mini_player", "miniplayer", "mini player", "collapsed_player", "expand player"},
	}
}

// containsAny reports whether s contains any term, case-insensitively
func containsAny(s string, terms []string) bool {
	if s == "" {
		return false
	}
	lower := strings.ToLower(s)
	for _, term := range terms {
		if term != "" && strings.Contains(lower, strings.ToLower(term)) {
			return true
		}
	}
	return false
}

func hasPrefixAny(s string, tokens []string) bool {
	lower := strings.ToLower(strings.TrimSpace(s))
	if lower == "" {
		return false
	}
	for _, tok := range tokens {
		if tok != "" && strings.HasPrefix(lower, strings.ToLower(tok)) {
			return true
		}
	}
	return false
}
