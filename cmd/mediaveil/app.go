package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/mediaveil/mediaveil/internal/config"
	"github.com/mediaveil/mediaveil/internal/daemon"
	"github.com/mediaveil/mediaveil/internal/database"
	"github.com/mediaveil/mediaveil/internal/logging"
	"github.com/mediaveil/mediaveil/internal/resolver"
	"github.com/mediaveil/mediaveil/pkg/integrations/replay"
	"github.com/mediaveil/mediaveil/pkg/utils"
	"github.com/mediaveil/mediaveil/version"
)

const appName = "mediaveil"

// BuildApp assembles the command tree. Output goes to out, confirmations
// are read from in.
func BuildApp(out io.Writer, in io.Reader) *cli.App {
	return &cli.App{
		Name:      appName,
		Usage:     "media overlay classification and reconciliation daemon",
		Version:   version.Version,
		Writer:    out,
		ErrWriter: out,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Usage:   "TOML configuration file",
				EnvVars: []string{"MEDIAVEIL_CONFIG"},
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "debug, info, warn or error",
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "run the tracker and web API in the foreground",
				Flags: serveFlags(),
				Action: func(c *cli.Context) error {
					cfg, err := loadConfig(c)
					if err != nil {
						return err
					}
					return runServe(c.Context, cfg, os.Stderr)
				},
			},
			{
				Name:  "start",
				Usage: "run serve as a detached daemon",
				Flags: serveFlags(),
				Action: func(c *cli.Context) error {
					cfg, err := loadConfig(c)
					if err != nil {
						return err
					}
					return startDaemon(c, cfg)
				},
			},
			{
				Name:  "stop",
				Usage: "stop the daemon",
				Action: func(c *cli.Context) error {
					cfg, err := loadConfig(c)
					if err != nil {
						return err
					}
					return stopDaemon(c.App.Writer, cfg)
				},
			},
			{
				Name:  "status",
				Usage: "show daemon status and the last published state",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "json", Usage: "print JSON"},
				},
				Action: func(c *cli.Context) error {
					cfg, err := loadConfig(c)
					if err != nil {
						return err
					}
					return showStatus(c.App.Writer, cfg, c.Bool("json"))
				},
			},
			{
				Name:      "replay",
				Usage:     "replay a scenario file and print each transition",
				ArgsUsage: "<scenario.yaml>",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "json", Usage: "print JSON"},
				},
				Action: func(c *cli.Context) error {
					if c.NArg() != 1 {
						return cli.Exit("replay needs exactly one scenario file", 2)
					}
					cfg, err := loadConfig(c)
					if err != nil {
						return err
					}
					return runReplay(c.App.Writer, cfg, c.Args().First(), c.Bool("json"), c.String("log-level"))
				},
			},
			{
				Name:  "clear",
				Usage: "delete the persisted state",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "do not ask for confirmation"},
				},
				Action: func(c *cli.Context) error {
					cfg, err := loadConfig(c)
					if err != nil {
						return err
					}
					return clearState(c.App.Writer, in, cfg, c.Bool("yes"))
				},
			},
			{
				Name:  "version",
				Usage: "show version information",
				Action: func(c *cli.Context) error {
					fmt.Fprintf(c.App.Writer, "%s version %s\n", appName, version.Version)
					fmt.Fprintf(c.App.Writer, "  commit: %s\n", version.Commit)
					fmt.Fprintf(c.App.Writer, "  built:  %s\n", version.Date)
					return nil
				},
			},
		},
		// exit codes are applied by main
		ExitErrHandler: func(*cli.Context, error) {},
	}
}

func serveFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{Name: "port", Usage: "web API port, overrides the configuration"},
		&cli.StringFlag{Name: "backend", Usage: "foreground backend: auto, x11, wayland or push"},
	}
}

// loadConfig layers defaults, the config file, the environment and flags
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg := config.Default()
	if path := c.String("config"); path != "" {
		if err := config.LoadFile(cfg, path); err != nil {
			return nil, err
		}
	}
	config.LoadFromEnv(cfg)

	if level := c.String("log-level"); level != "" {
		cfg.Log.Level = level
	}
	if c.IsSet("backend") {
		cfg.Backend.Kind = c.String("backend")
	}
	if c.IsSet("port") {
		if err := cfg.SetWebPort(c.Int("port")); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, cli.Exit(fmt.Sprintf("invalid configuration: %v", err), 2)
	}
	return cfg, nil
}

func startDaemon(c *cli.Context, cfg *config.Config) error {
	dm := daemon.New(cfg.Daemon.PIDFile)
	running, pid, err := dm.IsRunning()
	if err != nil {
		return err
	}
	if running {
		return cli.Exit(fmt.Sprintf("daemon is already running (PID: %d)", pid), 1)
	}

	if daemon.IsChild() {
		logFile, err := os.OpenFile(cfg.Daemon.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return err
		}
		defer logFile.Close()
		return runServe(c.Context, cfg, logFile)
	}

	exe, err := os.Executable()
	if err != nil {
		exe = os.Args[0]
	}
	childPID, err := daemon.Detach(append([]string{exe}, os.Args[1:]...))
	if err != nil {
		return err
	}

	fmt.Fprintf(c.App.Writer, "Daemon started successfully (PID: %d)\n", childPID)
	fmt.Fprintf(c.App.Writer, "Web API available at: http://%s:%d\n", cfg.Web.Host, cfg.Web.Port)
	fmt.Fprintf(c.App.Writer, "Logs: %s\n", cfg.Daemon.LogFile)
	return nil
}

func stopDaemon(out io.Writer, cfg *config.Config) error {
	dm := daemon.New(cfg.Daemon.PIDFile)
	running, pid, err := dm.IsRunning()
	if err != nil {
		return err
	}
	if !running {
		fmt.Fprintln(out, "Daemon is not running")
		return nil
	}

	fmt.Fprintf(out, "Stopping daemon (PID: %d)...\n", pid)
	if err := dm.Stop(); err != nil {
		return err
	}
	fmt.Fprintln(out, "Daemon stopped successfully")
	return nil
}

type statusReport struct {
	Running     bool        `json:"running"`
	PID         int         `json:"pid,omitempty"`
	State       interface{} `json:"state"`
	PublishedAt *time.Time  `json:"published_at,omitempty"`
}

func showStatus(out io.Writer, cfg *config.Config, asJSON bool) error {
	dm := daemon.New(cfg.Daemon.PIDFile)
	running, pid, err := dm.IsRunning()
	if err != nil {
		return err
	}

	db, err := database.Connect(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.Initialize(); err != nil {
		return err
	}

	row, err := database.NewRepository(db).GetCurrent()
	if err != nil {
		return err
	}

	report := statusReport{Running: running, PID: pid}
	if row != nil {
		report.State = row.State()
		at := row.PublishedAt
		report.PublishedAt = &at
	}

	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	if running {
		fmt.Fprintf(out, "Status: Running (PID: %d)\n", pid)
		fmt.Fprintf(out, "Web API: http://%s:%d\n", cfg.Web.Host, cfg.Web.Port)
	} else {
		fmt.Fprintln(out, "Status: Not running")
	}
	if row == nil {
		fmt.Fprintln(out, "Last state: none recorded")
		return nil
	}
	fmt.Fprintf(out, "Last state: %s\n", row.State())
	fmt.Fprintf(out, "Published: %s (%s ago)\n", row.PublishedAt.Format(time.RFC3339), utils.RoundedAge(time.Since(row.PublishedAt)))
	return nil
}

func runReplay(out io.Writer, cfg *config.Config, path string, asJSON bool, level string) error {
	sc, err := replay.Load(path)
	if err != nil {
		return err
	}
	registry, err := resolver.FromConfig(cfg)
	if err != nil {
		return err
	}

	logger := logging.Discard()
	if level != "" {
		logger = logging.NewLogger(logging.Options{Level: level, Component: "replay"})
	}
	res := replay.Run(cfg, registry, sc, logger)

	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			return err
		}
	} else {
		name := res.Name
		if name == "" {
			name = path
		}
		fmt.Fprintf(out, "Scenario: %s\n", name)
		for _, tr := range res.Transitions {
			fmt.Fprintf(out, "  %s\n", tr)
		}
		for _, f := range res.Failures {
			fmt.Fprintf(out, "  FAIL %s\n", f)
		}
		fmt.Fprintf(out, "Final: %s\n", res.Final)
	}

	if !res.Passed() {
		return cli.Exit(fmt.Sprintf("%d expectation(s) failed", len(res.Failures)), 1)
	}
	return nil
}

func clearState(out io.Writer, in io.Reader, cfg *config.Config, yes bool) error {
	if !yes {
		fmt.Fprint(out, "This will delete the persisted state. Are you sure? (yes/no): ")
		response, _ := bufio.NewReader(in).ReadString('\n')
		response = strings.ToLower(strings.TrimSpace(response))
		if response != "yes" && response != "y" {
			fmt.Fprintln(out, "Operation cancelled")
			return nil
		}
	}

	db, err := database.Connect(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.Initialize(); err != nil {
		return err
	}

	if err := database.NewRepository(db).Clear(); err != nil {
		return err
	}
	fmt.Fprintln(out, "State cleared successfully")
	return nil
}
