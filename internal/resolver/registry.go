package resolver

import (
	"github.com/pkg/errors"

	"github.com/mediaveil/mediaveil/internal/config"
	"github.com/mediaveil/mediaveil/internal/overlay"
)

// ErrUnsupportedApp is returned when no resolver exists for a kind
var ErrUnsupportedApp = errors.New("unsupported application")

// Registry maps package identifiers to resolvers
type Registry struct {
	byApp  map[string]Resolver
	byKind map[overlay.AppKind]string
}

// NewRegistry builds one resolver per profile. Profiles of an unknown kind
// are rejected.
func NewRegistry(profiles ...Profile) (*Registry, error) {
	r := &Registry{
		byApp:  make(map[string]Resolver, len(profiles)),
		byKind: make(map[overlay.AppKind]string, len(profiles)),
	}
	for _, p := range profiles {
		res, err := New(p)
		if err != nil {
			return nil, err
		}
		r.byApp[p.AppID] = res
		r.byKind[p.Kind] = p.AppID
	}
	return r, nil
}

// DefaultRegistry covers every supported application with default profiles
func DefaultRegistry() *Registry {
	r, err := NewRegistry(DefaultProfiles()...)
	if err != nil {
		panic(err)
	}
	return r
}

// ConfiguredProfiles applies the classifier configuration to the default
// profiles
func ConfiguredProfiles(cfg config.ClassifierConfig) []Profile {
	profiles := DefaultProfiles()
	for i := range profiles {
		p := &profiles[i]
		p.HoleFullscreenFraction = cfg.HoleFullscreenFraction
		p.TopBandFraction = cfg.TopBandFraction
		switch p.Kind {
		case overlay.AppYouTube:
			p.VideoThreshold = cfg.Thresholds.YouTube
		case overlay.AppYTMusic:
			p.VideoThreshold = cfg.Thresholds.YTMusic
		case overlay.AppSpotify:
			p.VideoThreshold = cfg.Thresholds.Spotify
		case overlay.AppNewPipe:
			p.VideoThreshold = cfg.Thresholds.NewPipe
		}
	}
	return profiles
}

// FromConfig builds a registry tuned by cfg
func FromConfig(cfg *config.Config) (*Registry, error) {
	return NewRegistry(ConfiguredProfiles(cfg.Classifier)...)
}

// New returns the resolver for the profile's application kind
func New(p Profile) (Resolver, error) {
	l := ladder{profile: p}
	switch p.Kind {
	case overlay.AppYouTube:
		return youtubeResolver{l}, nil
	case overlay.AppYTMusic:
		return ytMusicResolver{l}, nil
	case overlay.AppSpotify:
		return spotifyResolver{l}, nil
	case overlay.AppNewPipe:
		return newPipeResolver{l}, nil
	default:
		return nil, errors.Wrapf(ErrUnsupportedApp, "kind %q", p.Kind)
	}
}

func (r *Registry) ForApp(appID string) (Resolver, bool) {
	res, ok := r.byApp[appID]
	return res, ok
}

// Supported reports whether appID has a resolver
func (r *Registry) Supported(appID string) bool {
	_, ok := r.byApp[appID]
	return ok
}

// KindOf maps a package identifier to its kind, AppNone when unsupported
func (r *Registry) KindOf(appID string) overlay.AppKind {
	if res, ok := r.byApp[appID]; ok {
		return res.Kind()
	}
	return overlay.AppNone
}

// AppIDOf is the inverse of KindOf
func (r *Registry) AppIDOf(kind overlay.AppKind) (string, bool) {
	id, ok := r.byKind[kind]
	return id, ok
}
