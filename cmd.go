package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/cluttrdev/cli"

	"github.com/luminahq/lumina-install/internal/fetch"
	"github.com/luminahq/lumina-install/internal/manifest"
)

// execute configures the root command and then runs it with the given context.
func execute(ctx context.Context) error {
	cmd := configure()
	opts := []cli.ParseOption{
		cli.WithEnvVarPrefix("LUMINA"),
	}
	args := os.Args[1:]

	if err := cmd.Parse(args, opts...); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return fmt.Errorf("parse arguments: %w", err)
	}

	return cmd.Run(ctx)
}

// configure returns the root command.
func configure() *cli.Command {
	var cfg rootCmd

	fs := flag.NewFlagSet("lumina-install", flag.ExitOnError)

	cfg.RegisterFlags(fs)

	return &cli.Command{
		Name:       "lumina-install",
		ShortHelp:  "Install and manage the Lumina application and service.",
		ShortUsage: "lumina-install [COMMAND] [OPTION]... [ARG]...",
		Subcommands: []*cli.Command{
			cli.DefaultVersionCommand(os.Stdout),
			newInstallCmd("install"),
			newInstallCmd("setup"),
			newStartCmd("start"),
			newStartCmd("launch"),
			newStartCmd("open"),
			newServiceCmd(),
			newStatusCmd(),
			newCheckUpdateCmd(),
		},
		Flags: fs,
		Exec:  cfg.Exec,
	}
}

func initLogging(w io.Writer, level string, format string) {
	if w == nil {
		w = os.Stderr
	}

	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "info":
		lvl = slog.LevelInfo
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	opts := slog.HandlerOptions{
		Level: lvl,
	}

	var handler slog.Handler
	switch format {
	case "json":
		handler = slog.NewJSONHandler(w, &opts)
	default:
		handler = slog.NewTextHandler(w, &opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
}

type rootCmd struct {
	ManifestFile string
	ManifestURL  string
	ManifestKey  string

	logFile   *os.File
	logLevel  string
	logFormat string
	debug     bool
}

func (c *rootCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.ManifestFile, "manifest", "lumina-manifest.yaml", "The release manifest file.")
	fs.StringVar(&c.ManifestURL, "manifest-url", "", "Fetch the release manifest from this URL instead of a file.")
	fs.StringVar(&c.ManifestKey, "manifest-key", "", "The minisign public key the remote manifest is signed with.")

	fs.StringVar(&c.logLevel, "log-level", "info", "The log level.")
	fs.StringVar(&c.logFormat, "log-format", "text", "The log format ('text' or 'json').")
	fs.BoolVar(&c.debug, "debug", false, "Enable debug mode.")
}

func (c *rootCmd) Exec(ctx context.Context, args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("unknown command: %s (see `lumina-install -h`)", args[0])
	}
	return flag.ErrHelp
}

// loadManifest loads the trusted release manifest, from a signed
// remote URL when one is configured, otherwise from the local file.
func (c *rootCmd) loadManifest(ctx context.Context) (*manifest.Manifest, error) {
	if c.ManifestURL != "" {
		if c.ManifestKey == "" {
			return nil, fmt.Errorf("-manifest-key is required with -manifest-url")
		}
		return manifest.FetchRemote(ctx, c.apiClient(), c.ManifestURL, c.ManifestKey)
	}
	return manifest.LoadFile(c.ManifestFile)
}

func (c *rootCmd) apiClient() *http.Client {
	return fetch.NewAPIClient()
}

func (c *rootCmd) initLogging() {
	if stateDir, err := userStateDir(); err == nil {
		c.logFile, _ = os.OpenFile(filepath.Join(stateDir, "lumina-install.log"), os.O_APPEND|os.O_WRONLY|os.O_CREATE, os.ModePerm)
	}
	if c.logFile == nil {
		c.logFile = os.Stderr
	}

	level := c.logLevel
	if c.debug {
		level = "debug"
	}
	initLogging(c.logFile, level, c.logFormat)
}

func userStateDir() (string, error) {
	xdgStateHome, ok := os.LookupEnv("XDG_STATE_HOME")
	if !ok || xdgStateHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		xdgStateHome = filepath.Join(home, ".local", "state")
	}

	return xdgStateHome, nil
}
