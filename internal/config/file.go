package config

import (
	"os"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
)

// fileConfig is the TOML layout. Every field is optional; durations are
// Go duration strings such as "2s" or "150ms".
type fileConfig struct {
	Database struct {
		Path *string `toml:"path"`
	} `toml:"database"`
	Tracker struct {
		PollInterval       *string `toml:"poll_interval"`
		DebounceWindow     *string `toml:"debounce_window"`
		ForegroundValidity *string `toml:"foreground_validity"`
	} `toml:"tracker"`
	Classifier struct {
		HoleFullscreenFraction *float64 `toml:"hole_fullscreen_fraction"`
		TopBandFraction        *float64 `toml:"top_band_fraction"`
		Thresholds             struct {
			YouTube *float64 `toml:"youtube"`
			YTMusic *float64 `toml:"ytmusic"`
			Spotify *float64 `toml:"spotify"`
			NewPipe *float64 `toml:"newpipe"`
		} `toml:"thresholds"`
	} `toml:"classifier"`
	Backend struct {
		Kind    *string           `toml:"kind"`
		X11Apps map[string]string `toml:"x11_apps"`
	} `toml:"backend"`
	Daemon struct {
		PIDFile *string `toml:"pid_file"`
		LogFile *string `toml:"log_file"`
	} `toml:"daemon"`
	Web struct {
		Host *string `toml:"host"`
		Port *int    `toml:"port"`
	} `toml:"web"`
	Log struct {
		Level *string `toml:"level"`
	} `toml:"log"`
}

// LoadFile overlays the TOML file at path onto cfg. Keys absent from the
// file keep their current values. The result is not validated.
func LoadFile(cfg *Config, path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "read config %s", path)
	}
	return Decode(cfg, b)
}

// Decode overlays a TOML document onto cfg
func Decode(cfg *Config, data []byte) error {
	var f fileConfig
	if err := toml.Unmarshal(data, &f); err != nil {
		return errors.Wrap(err, "decode config")
	}

	setString(&cfg.Database.Path, f.Database.Path)

	if err := setDuration(&cfg.Tracker.PollInterval, f.Tracker.PollInterval, "tracker.poll_interval"); err != nil {
		return err
	}
	if err := setDuration(&cfg.Tracker.DebounceWindow, f.Tracker.DebounceWindow, "tracker.debounce_window"); err != nil {
		return err
	}
	if err := setDuration(&cfg.Tracker.ForegroundValidity, f.Tracker.ForegroundValidity, "tracker.foreground_validity"); err != nil {
		return err
	}

	setFloat(&cfg.Classifier.HoleFullscreenFraction, f.Classifier.HoleFullscreenFraction)
	setFloat(&cfg.Classifier.TopBandFraction, f.Classifier.TopBandFraction)
	setFloat(&cfg.Classifier.Thresholds.YouTube, f.Classifier.Thresholds.YouTube)
	setFloat(&cfg.Classifier.Thresholds.YTMusic, f.Classifier.Thresholds.YTMusic)
	setFloat(&cfg.Classifier.Thresholds.Spotify, f.Classifier.Thresholds.Spotify)
	setFloat(&cfg.Classifier.Thresholds.NewPipe, f.Classifier.Thresholds.NewPipe)

	setString(&cfg.Backend.Kind, f.Backend.Kind)
	if len(f.Backend.X11Apps) > 0 {
		if cfg.Backend.X11Apps == nil {
			cfg.Backend.X11Apps = make(map[string]string, len(f.Backend.X11Apps))
		}
		for class, appID := range f.Backend.X11Apps {
			cfg.Backend.X11Apps[class] = appID
		}
	}

	setString(&cfg.Daemon.PIDFile, f.Daemon.PIDFile)
	setString(&cfg.Daemon.LogFile, f.Daemon.LogFile)
	setString(&cfg.Web.Host, f.Web.Host)
	if f.Web.Port != nil {
		cfg.Web.Port = *f.Web.Port
	}
	setString(&cfg.Log.Level, f.Log.Level)
	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

func setDuration(dst *time.Duration, v *string, key string) error {
	if v == nil {
		return nil
	}
	d, err := time.ParseDuration(*v)
	if err != nil {
		return errors.Wrapf(err, "config key %s", key)
	}
	*dst = d
	return nil
}
