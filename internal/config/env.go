package config

import (
	"os"
	"strconv"
	"time"
)

// LoadFromEnv loads configuration from environment variables
// Environment variables override default values
func LoadFromEnv(cfg *Config) {
	// Database configuration
	if dbPath := os.Getenv("MEDIAVEIL_DB_PATH"); dbPath != "" {
		cfg.Database.Path = dbPath
	}

	// Tracker configuration
	if pollInterval := os.Getenv("MEDIAVEIL_POLL_INTERVAL"); pollInterval != "" {
		if interval, err := time.ParseDuration(pollInterval); err == nil {
			if interval >= cfg.Tracker.MinPollInterval && interval <= cfg.Tracker.MaxPollInterval {
				cfg.Tracker.PollInterval = interval
			}
		}
	}

	if window := os.Getenv("MEDIAVEIL_DEBOUNCE_MS"); window != "" {
		if ms, err := strconv.Atoi(window); err == nil && ms > 0 {
			cfg.Tracker.DebounceWindow = time.Duration(ms) * time.Millisecond
		}
	}

	if validity := os.Getenv("MEDIAVEIL_FOREGROUND_VALIDITY"); validity != "" {
		if d, err := time.ParseDuration(validity); err == nil && d > 0 {
			cfg.Tracker.ForegroundValidity = d
		}
	}

	// Classifier configuration
	loadFraction("MEDIAVEIL_HOLE_FULLSCREEN_FRACTION", &cfg.Classifier.HoleFullscreenFraction)
	loadFraction("MEDIAVEIL_TOP_BAND_FRACTION", &cfg.Classifier.TopBandFraction)
	loadFraction("MEDIAVEIL_THRESHOLD_YOUTUBE", &cfg.Classifier.Thresholds.YouTube)
	loadFraction("MEDIAVEIL_THRESHOLD_YTMUSIC", &cfg.Classifier.Thresholds.YTMusic)
	loadFraction("MEDIAVEIL_THRESHOLD_SPOTIFY", &cfg.Classifier.Thresholds.Spotify)
	loadFraction("MEDIAVEIL_THRESHOLD_NEWPIPE", &cfg.Classifier.Thresholds.NewPipe)

	if backend := os.Getenv("MEDIAVEIL_BACKEND"); backend != "" {
		cfg.Backend.Kind = backend
	}

	// Daemon configuration
	if pidFile := os.Getenv("MEDIAVEIL_PID_FILE"); pidFile != "" {
		cfg.Daemon.PIDFile = pidFile
	}

	if logFile := os.Getenv("MEDIAVEIL_LOG_FILE"); logFile != "" {
		cfg.Daemon.LogFile = logFile
	}

	// Web configuration
	if webHost := os.Getenv("MEDIAVEIL_WEB_HOST"); webHost != "" {
		cfg.Web.Host = webHost
	}

	if webPort := os.Getenv("MEDIAVEIL_WEB_PORT"); webPort != "" {
		if port, err := strconv.Atoi(webPort); err == nil && port > 0 && port <= 65535 {
			cfg.Web.Port = port
		}
	}

	// Log configuration
	if level := os.Getenv("MEDIAVEIL_LOG_LEVEL"); level != "" {
		if parsed, err := ParseLevel(level); err == nil {
			cfg.Log.Level = parsed
		}
	}
}

func loadFraction(key string, dst *float64) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 && f <= 1 {
		*dst = f
	}
}

// New creates a new Config from defaults, the config file named by
// MEDIAVEIL_CONFIG (if any) and the environment, in that order
func New() (*Config, error) {
	cfg := Default()
	if path := os.Getenv("MEDIAVEIL_CONFIG"); path != "" {
		if err := LoadFile(cfg, path); err != nil {
			return nil, err
		}
	}
	LoadFromEnv(cfg)
	return cfg, nil
}
