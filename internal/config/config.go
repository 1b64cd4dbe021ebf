package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pkg/errors"
)

// Config holds all application configuration
type Config struct {
	// Database configuration
	Database DatabaseConfig

	// Tracker configuration
	Tracker TrackerConfig

	// Classifier thresholds
	Classifier ClassifierConfig

	// Foreground and window backend
	Backend BackendConfig

	// Daemon configuration
	Daemon DaemonConfig

	// Web server configuration
	Web WebConfig

	// Logging configuration
	Log LogConfig
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	Path string // Path to SQLite database file
}

// TrackerConfig holds signal reconciliation configuration
type TrackerConfig struct {
	PollInterval       time.Duration // How often to poll the foreground backend
	MinPollInterval    time.Duration // Minimum allowed poll interval
	MaxPollInterval    time.Duration // Maximum allowed poll interval
	DebounceWindow     time.Duration // Quiet period before a candidate is published
	ForegroundValidity time.Duration // How long a foreground observation stays known
}

// ClassifierConfig tunes the mode resolver
type ClassifierConfig struct {
	HoleFullscreenFraction float64 // Surface fraction at which a masked video needs no hole
	TopBandFraction        float64 // Height of the fallback hole as a share of the content area
	Thresholds             ThresholdConfig
}

// ThresholdConfig is the per-application surface fraction at which video is assumed
type ThresholdConfig struct {
	YouTube float64
	YTMusic float64
	Spotify float64
	NewPipe float64
}

// Backend kinds
const (
	BackendAuto    = "auto" // x11, then wayland, push when neither is reachable
	BackendX11     = "x11"
	BackendWayland = "wayland" // sway or hyprland IPC
	BackendPush    = "push"    // foreground only arrives through the HTTP API
)

// BackendConfig selects where foreground and window signals come from
type BackendConfig struct {
	Kind    string
	X11Apps map[string]string // WM_CLASS or Wayland app_id -> application id
}

// DaemonConfig holds daemon process configuration
type DaemonConfig struct {
	PIDFile string // Path to PID file for daemon management
	LogFile string // Where the detached process writes its log
}

// WebConfig holds web server configuration
type WebConfig struct {
	Host string // Host to bind web server to
	Port int    // Port for web server
}

// LogConfig holds logger configuration
type LogConfig struct {
	Level string // debug, info, warn or error
}

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path: "", // Empty means use default ~/.config/mediaveil/mediaveil.db
		},
		Tracker: TrackerConfig{
			PollInterval:       2 * time.Second,
			MinPollInterval:    500 * time.Millisecond,
			MaxPollInterval:    60 * time.Second,
			DebounceWindow:     120 * time.Millisecond,
			ForegroundValidity: time.Minute,
		},
		Classifier: ClassifierConfig{
			HoleFullscreenFraction: 0.45,
			TopBandFraction:        0.15,
			Thresholds: ThresholdConfig{
				YouTube: 0.30,
				YTMusic: 0.25,
				Spotify: 0.20,
				NewPipe: 0.30,
			},
		},
		Backend: BackendConfig{
			Kind: BackendAuto,
			X11Apps: map[string]string{
				"spotify": "com.spotify.music",
			},
		},
		Daemon: DaemonConfig{
			PIDFile: fmt.Sprintf("/tmp/mediaveil-%d.pid", os.Getuid()),
			LogFile: fmt.Sprintf("/tmp/mediaveil-%d.log", os.Getuid()),
		},
		Web: WebConfig{
			Host: "localhost",
			Port: 10000 + os.Getuid(), // Default port based on user ID
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Validate tracker intervals
	if c.Tracker.PollInterval < c.Tracker.MinPollInterval {
		return fmt.Errorf("poll interval (%v) cannot be less than minimum (%v)",
			c.Tracker.PollInterval, c.Tracker.MinPollInterval)
	}

	if c.Tracker.PollInterval > c.Tracker.MaxPollInterval {
		return fmt.Errorf("poll interval (%v) cannot be greater than maximum (%v)",
			c.Tracker.PollInterval, c.Tracker.MaxPollInterval)
	}

	if c.Tracker.DebounceWindow <= 0 {
		return fmt.Errorf("debounce window must be positive, got %v", c.Tracker.DebounceWindow)
	}

	if c.Tracker.ForegroundValidity <= 0 {
		return fmt.Errorf("foreground validity must be positive, got %v", c.Tracker.ForegroundValidity)
	}

	// Validate classifier fractions
	fractions := map[string]float64{
		"hole fullscreen fraction": c.Classifier.HoleFullscreenFraction,
		"top band fraction":        c.Classifier.TopBandFraction,
		"youtube threshold":        c.Classifier.Thresholds.YouTube,
		"ytmusic threshold":        c.Classifier.Thresholds.YTMusic,
		"spotify threshold":        c.Classifier.Thresholds.Spotify,
		"newpipe threshold":        c.Classifier.Thresholds.NewPipe,
	}
	for name, v := range fractions {
		if v <= 0 || v > 1 {
			return fmt.Errorf("%s must be in (0, 1], got %v", name, v)
		}
	}

	switch c.Backend.Kind {
	case BackendAuto, BackendX11, BackendWayland, BackendPush:
	default:
		return fmt.Errorf("backend must be one of auto, x11, wayland or push, got %q", c.Backend.Kind)
	}

	// Validate web config
	if c.Web.Port < 1 || c.Web.Port > 65535 {
		return fmt.Errorf("web port must be between 1 and 65535, got %d", c.Web.Port)
	}

	if c.Web.Host == "" {
		return fmt.Errorf("web host cannot be empty")
	}

	// Validate daemon config
	if c.Daemon.PIDFile == "" {
		return fmt.Errorf("PID file path cannot be empty")
	}

	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}

	return nil
}

// SetPollInterval sets the poll interval with validation
func (c *Config) SetPollInterval(interval time.Duration) error {
	if interval < c.Tracker.MinPollInterval {
		return fmt.Errorf("poll interval cannot be less than %v", c.Tracker.MinPollInterval)
	}
	if interval > c.Tracker.MaxPollInterval {
		return fmt.Errorf("poll interval cannot be greater than %v", c.Tracker.MaxPollInterval)
	}
	c.Tracker.PollInterval = interval
	return nil
}

// SetWebPort sets the web server port with validation
func (c *Config) SetWebPort(port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", port)
	}
	c.Web.Port = port
	return nil
}

// ErrUnknownLevel is returned for a log level name that is not recognized
var ErrUnknownLevel = errors.New("unknown log level")

// ParseLevel checks a log level name; an empty name means info
func ParseLevel(level string) (string, error) {
	switch level {
	case "":
		return "info", nil
	case "debug", "info", "warn", "error":
		return level, nil
	default:
		return "", errors.Wrapf(ErrUnknownLevel, "%q", level)
	}
}

// String returns a string representation of the config
func (c *Config) String() string {
	return fmt.Sprintf(`Configuration:
  Database:
    Path: %s
  Tracker:
    Poll Interval: %v
    Min Interval: %v
    Max Interval: %v
    Debounce Window: %v
    Foreground Validity: %v
  Classifier:
    Hole Fullscreen Fraction: %.2f
    Top Band Fraction: %.2f
    Thresholds: youtube=%.2f ytmusic=%.2f spotify=%.2f newpipe=%.2f
  Backend:
    Kind: %s
    X11 Apps: %d mapped
  Daemon:
    PID File: %s
    Log File: %s
  Web:
    Host: %s
    Port: %d
  Log:
    Level: %s`,
		c.Database.Path,
		c.Tracker.PollInterval,
		c.Tracker.MinPollInterval,
		c.Tracker.MaxPollInterval,
		c.Tracker.DebounceWindow,
		c.Tracker.ForegroundValidity,
		c.Classifier.HoleFullscreenFraction,
		c.Classifier.TopBandFraction,
		c.Classifier.Thresholds.YouTube,
		c.Classifier.Thresholds.YTMusic,
		c.Classifier.Thresholds.Spotify,
		c.Classifier.Thresholds.NewPipe,
		c.Backend.Kind,
		len(c.Backend.X11Apps),
		c.Daemon.PIDFile,
		c.Daemon.LogFile,
		c.Web.Host,
		c.Web.Port,
		c.Log.Level,
	)
}
