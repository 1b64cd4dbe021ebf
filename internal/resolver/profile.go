package resolver

import (
	"github.com/mediaveil/mediaveil/internal/overlay"
	"github.com/mediaveil/mediaveil/pkg/classify"
)

// Package identifiers of the supported applications
const (
	PackageYouTube = "com.google.android.youtube"
	PackageYTMusic = "com.google.android.apps.youtube.music"
	PackageSpotify = "com.spotify.music"
	PackageNewPipe = "org.schabi.newpipe"
)

const (
	DefaultHoleFullscreenFraction = 0.45
	DefaultTopBandFraction        = 0.15
)

// Profile is the per-application configuration a resolver is built from:
// which vocabularies apply and where the thresholds sit. Vocabularies of
// classifiers an application does not use are left empty.
type Profile struct {
	Kind  overlay.AppKind
	AppID string

	// VideoThreshold is the surface fraction at and above which the fallback
	// classifies video
	VideoThreshold float64
	// HoleFullscreenFraction is the surface fraction at and above which a
	// masked video gets no hole
	HoleFullscreenFraction float64
	TopBandFraction        float64

	Surface   classify.SurfaceVocabulary
	ShortForm classify.ShortFormVocabulary
	Toggle    classify.ToggleKeywords
	Tabs      classify.TabVocabulary
	State     classify.ToggleStateVocabulary
	Collapsed classify.CollapsedPlayerVocabulary
}

func YouTubeProfile() Profile {
	return Profile{
		Kind:                   overlay.AppYouTube,
		AppID:                  PackageYouTube,
		VideoThreshold:         0.30,
		HoleFullscreenFraction: DefaultHoleFullscreenFraction,
		TopBandFraction:        DefaultTopBandFraction,
		Surface:                classify.DefaultSurfaceVocabulary(),
		ShortForm:              classify.DefaultShortFormVocabulary(),
	}
}

func YTMusicProfile() Profile {
	return Profile{
		Kind:                   overlay.AppYTMusic,
		AppID:                  PackageYTMusic,
		VideoThreshold:         0.25,
		HoleFullscreenFraction: DefaultHoleFullscreenFraction,
		TopBandFraction:        DefaultTopBandFraction,
		Surface:                classify.DefaultSurfaceVocabulary(),
		Toggle:                 classify.DefaultToggleKeywords(),
		Tabs:                   classify.DefaultTabVocabulary(),
		Collapsed:              classify.DefaultCollapsedPlayerVocabulary(),
	}
}

func SpotifyProfile() Profile {
	return Profile{
		Kind:                   overlay.AppSpotify,
		AppID:                  PackageSpotify,
		VideoThreshold:         0.20,
		HoleFullscreenFraction: DefaultHoleFullscreenFraction,
		TopBandFraction:        DefaultTopBandFraction,
		Surface:                classify.DefaultSurfaceVocabulary(),
		Toggle:                 classify.SpotifyToggleKeywords(),
		State:                  classify.SpotifyToggleStateVocabulary(),
	}
}

func NewPipeProfile() Profile {
	return Profile{
		Kind:                   overlay.AppNewPipe,
		AppID:                  PackageNewPipe,
		VideoThreshold:         0.30,
		HoleFullscreenFraction: DefaultHoleFullscreenFraction,
		TopBandFraction:        DefaultTopBandFraction,
		Surface:                classify.DefaultSurfaceVocabulary(),
	}
}

// DefaultProfiles returns the profiles of every supported application
func DefaultProfiles() []Profile {
	return []Profile{YouTubeProfile(), YTMusicProfile(), SpotifyProfile(), NewPipeProfile()}
}
