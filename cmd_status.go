package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/cluttrdev/cli"

	"github.com/luminahq/lumina-install/internal/install"
	"github.com/luminahq/lumina-install/internal/platform"
	"github.com/luminahq/lumina-install/internal/sysops"
)

func newStatusCmd() *cli.Command {
	cfg := statusCmd{sys: sysops.OS{}}

	fs := flag.NewFlagSet("lumina-install status", flag.ExitOnError)

	cfg.RegisterFlags(fs)

	return &cli.Command{
		Name:       "status",
		ShortHelp:  "Show what is currently installed.",
		ShortUsage: "lumina-install status [OPTION]...",
		Flags:      fs,
		Exec:       cfg.Exec,
	}
}

type statusCmd struct {
	rootCmd

	sys sysops.System
}

func (c *statusCmd) Exec(ctx context.Context, args []string) error {
	c.initLogging()

	key, err := platform.Current()
	if err != nil {
		return err
	}
	layout := install.DefaultLayout(key)

	status := install.Query(c.sys, layout)
	fmt.Fprintf(os.Stdout, "platform:          %s\n", key)
	fmt.Fprintf(os.Stdout, "app installed:     %t (%s)\n", status.AppInstalled, layout.AppPath())
	fmt.Fprintf(os.Stdout, "service installed: %t (%s)\n", status.ServiceInstalled, layout.ServicePath)

	// Best effort: a manifest is not required to query status.
	if m, err := c.loadManifest(ctx); err == nil && m.Version != "" {
		fmt.Fprintf(os.Stdout, "manifest version:  %s\n", m.Version)
	}

	return nil
}
