// Package main is the entrypoint for the oncolly terminal client and its
// companion dev server.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/fang"
	charmLog "github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/teknos/oncolly/internal/adapters/api"
	serveradapter "github.com/teknos/oncolly/internal/adapters/server"
	"github.com/teknos/oncolly/internal/app"
	"github.com/teknos/oncolly/internal/config"
	"github.com/teknos/oncolly/internal/platform"
	"github.com/teknos/oncolly/internal/session"
	"github.com/teknos/oncolly/internal/tui"
)

// version is stamped at release build time.
var version = "dev"

// program abstracts the TUI program loop for tests.
type program interface {
	Run() (tea.Model, error)
}

// programFactory builds the program loop around a model.
var programFactory = func(m tea.Model) program {
	return tea.NewProgram(m)
}

func main() {
	if err := execute(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		os.Exit(1)
	}
}

// execute wires the command tree and runs it through fang.
func execute(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}
	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return fang.Execute(ctx, root, fang.WithVersion(version))
}

// runtimeFlags carries persistent CLI options shared by every command.
type runtimeFlags struct {
	configPath string
	devMode    bool
	baseURL    string
}

// newRootCmd assembles the oncolly command tree. The bare command starts
// the interactive client.
func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	flags := &runtimeFlags{}
	root := &cobra.Command{
		Use:          "oncolly",
		Short:        "Track daily health activities and share them with your care team",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(flags, stderr)
		},
	}
	pf := root.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "path to the config TOML")
	pf.BoolVar(&flags.devMode, "dev", version == "dev", "use dev-mode paths (oncolly-dev)")
	pf.StringVar(&flags.baseURL, "base-url", "", "override the backend base URL")
	root.AddCommand(
		newServeCmd(flags, stderr),
		newPathsCmd(flags, stdout),
		newLogoutCmd(flags, stdout),
	)
	return root
}

// resolveRuntime loads per-user paths and the TOML config, honoring CLI
// and environment overrides.
func resolveRuntime(flags *runtimeFlags) (config.Config, platform.Paths, error) {
	paths, err := platform.DefaultPathsWithOptions(platform.Options{
		AppName: "oncolly",
		DevMode: flags.devMode,
	})
	if err != nil {
		return config.Config{}, platform.Paths{}, fmt.Errorf("resolve app paths: %w", err)
	}

	configPath := strings.TrimSpace(flags.configPath)
	if configPath == "" {
		if env := strings.TrimSpace(os.Getenv("ONCOLLY_CONFIG")); env != "" {
			configPath = env
		} else {
			configPath = paths.ConfigPath
		}
	}

	cfg, err := config.Load(configPath, config.Default(paths.DBPath))
	if err != nil {
		return config.Config{}, platform.Paths{}, fmt.Errorf("load config %q: %w", configPath, err)
	}
	if base := strings.TrimSpace(flags.baseURL); base != "" {
		cfg.Server.BaseURL = base
		if err := cfg.Validate(); err != nil {
			return config.Config{}, platform.Paths{}, fmt.Errorf("apply base url override: %w", err)
		}
	}
	return cfg, paths, nil
}

// runTUI starts the interactive client against the configured backend.
func runTUI(flags *runtimeFlags, stderr io.Writer) error {
	cfg, paths, err := resolveRuntime(flags)
	if err != nil {
		return err
	}

	// Keep TUI rendering clean: runtime logs go to a file under the data
	// dir while the program is on screen.
	logger, closeLog, err := newRuntimeLogger(paths.DataDir, flags.devMode, stderr)
	if err != nil {
		return fmt.Errorf("configure runtime logger: %w", err)
	}
	defer closeLog()

	logger.Info("startup configuration resolved",
		"base_url", cfg.Server.BaseURL, "dev_mode", flags.devMode)

	client, err := api.New(cfg.Server.BaseURL)
	if err != nil {
		logger.Error("api client setup failed", "base_url", cfg.Server.BaseURL, "err", err)
		return fmt.Errorf("create api client: %w", err)
	}
	sessions, err := session.NewFileStore(paths.SessionPath)
	if err != nil {
		return fmt.Errorf("create session store: %w", err)
	}

	svc := app.NewService(nil, client, sessions, uuid.NewString, time.Now)
	m := tui.NewModel(svc,
		tui.WithDateFormat(cfg.UI.DateFormat),
		tui.WithGlyphs(cfg.UI.ShowGlyphs),
	)

	logger.Info("starting tui program loop")
	if _, err := programFactory(m).Run(); err != nil {
		logger.Error("tui program terminated with error", "err", err)
		return fmt.Errorf("run tui program: %w", err)
	}
	logger.Info("tui program loop finished")
	return nil
}

// newServeCmd exposes the local development backend.
func newServeCmd(flags *runtimeFlags, stderr io.Writer) *cobra.Command {
	var (
		bind   string
		dbPath string
		secret string
		noSeed bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the local development backend",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, paths, err := resolveRuntime(flags)
			if err != nil {
				return err
			}
			serveCfg := serveradapter.Config{
				Bind:      cfg.Serve.Bind,
				DBPath:    cfg.Serve.DBPath,
				JWTSecret: cfg.Serve.JWTSecret,
				Seed:      cfg.Serve.Seed && !noSeed,
			}
			if bind != "" {
				serveCfg.Bind = bind
			}
			if dbPath != "" {
				serveCfg.DBPath = dbPath
			}
			if serveCfg.DBPath == "" {
				serveCfg.DBPath = filepath.Join(paths.DataDir, "oncolly-server.db")
			}
			if secret != "" {
				serveCfg.JWTSecret = secret
			}

			logger := charmLog.NewWithOptions(stderr, charmLog.Options{
				Prefix:          "oncolly",
				ReportTimestamp: true,
				TimeFormat:      time.RFC3339,
				Formatter:       charmLog.TextFormatter,
			})
			return serveradapter.Run(cmd.Context(), serveCfg, logger)
		},
	}
	cmd.Flags().StringVar(&bind, "bind", "", "listen address (host:port)")
	cmd.Flags().StringVar(&dbPath, "db", "", "path to the server sqlite database")
	cmd.Flags().StringVar(&secret, "secret", "", "JWT signing secret")
	cmd.Flags().BoolVar(&noSeed, "no-seed", false, "skip seeding demo accounts")
	return cmd
}

// newPathsCmd prints the resolved per-user file locations.
func newPathsCmd(flags *runtimeFlags, stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "paths",
		Short: "Print config, data, and session file locations",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, paths, err := resolveRuntime(flags)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(stdout, "config:   %s\n", paths.ConfigPath)
			_, _ = fmt.Fprintf(stdout, "data_dir: %s\n", paths.DataDir)
			_, _ = fmt.Fprintf(stdout, "session:  %s\n", paths.SessionPath)
			_, _ = fmt.Fprintf(stdout, "base_url: %s\n", cfg.Server.BaseURL)
			return nil
		},
	}
}

// newLogoutCmd clears the persisted session without starting the TUI.
func newLogoutCmd(flags *runtimeFlags, stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the saved session",
		RunE: func(_ *cobra.Command, _ []string) error {
			_, paths, err := resolveRuntime(flags)
			if err != nil {
				return err
			}
			sessions, err := session.NewFileStore(paths.SessionPath)
			if err != nil {
				return fmt.Errorf("create session store: %w", err)
			}
			if err := sessions.Clear(); err != nil {
				return fmt.Errorf("clear session: %w", err)
			}
			_, _ = fmt.Fprintln(stdout, "signed out")
			return nil
		},
	}
}

// newRuntimeLogger returns a logger writing to a dated file under dataDir,
// plus a close func. Outside dev mode only warnings and errors are kept.
func newRuntimeLogger(dataDir string, devMode bool, fallback io.Writer) (*charmLog.Logger, func(), error) {
	level := charmLog.WarnLevel
	if devMode {
		level = charmLog.DebugLevel
	}

	logDir := filepath.Join(dataDir, "log")
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log dir: %w", err)
	}
	logPath := filepath.Join(logDir, "oncolly-"+time.Now().UTC().Format("20060102")+".log")
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		// Degrade to stderr rather than refusing to start.
		logger := charmLog.NewWithOptions(fallback, charmLog.Options{
			Level:  level,
			Prefix: "oncolly",
		})
		return logger, func() {}, nil
	}

	logger := charmLog.NewWithOptions(logFile, charmLog.Options{
		Level:           level,
		Prefix:          "oncolly",
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Formatter:       charmLog.LogfmtFormatter,
	})
	return logger, func() { _ = logFile.Close() }, nil
}
