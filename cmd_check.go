package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/cluttrdev/cli"

	"github.com/luminahq/lumina-install/internal/release"
)

const defaultFeedJSONPath = "$[*].tag_name"

func newCheckUpdateCmd() *cli.Command {
	cfg := checkUpdateCmd{}

	fs := flag.NewFlagSet("lumina-install check-update", flag.ExitOnError)

	cfg.RegisterFlags(fs)

	return &cli.Command{
		Name:       "check-update",
		ShortHelp:  "Check the release feed for a newer version.",
		ShortUsage: "lumina-install check-update [OPTION]...",
		Flags:      fs,
		Exec:       cfg.Exec,
	}
}

type checkUpdateCmd struct {
	rootCmd

	constraints string
}

func (c *checkUpdateCmd) RegisterFlags(fs *flag.FlagSet) {
	c.rootCmd.RegisterFlags(fs)

	fs.StringVar(&c.constraints, "constraints", "latest", "Semver constraints for acceptable versions.")
}

func (c *checkUpdateCmd) Exec(ctx context.Context, args []string) error {
	c.initLogging()

	m, err := c.loadManifest(ctx)
	if err != nil {
		return fmt.Errorf("load manifest: %w", err)
	}
	if m.Release.FeedURL == "" {
		return fmt.Errorf("manifest has no release feed configured")
	}

	path := m.Release.JSONPath
	if path == "" {
		path = defaultFeedJSONPath
	}

	latest, err := release.Latest(ctx, c.apiClient(), m.Release.FeedURL, path, c.constraints, m.Release.Prefix)
	if err != nil {
		return fmt.Errorf("query release feed: %w", err)
	}

	fmt.Fprintf(os.Stdout, "manifest version: %s\n", m.Version)
	fmt.Fprintf(os.Stdout, "latest version:   %s\n", latest)

	if m.Version != "" {
		newer, err := release.Compare(m.Version, latest, m.Release.Prefix)
		if err == nil && newer {
			fmt.Fprintln(os.Stdout, "A newer release is available; fetch its manifest and re-run `lumina-install install`.")
		}
	}

	return nil
}
