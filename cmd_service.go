package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/cluttrdev/cli"

	"github.com/luminahq/lumina-install/internal/install"
	"github.com/luminahq/lumina-install/internal/platform"
	"github.com/luminahq/lumina-install/internal/sysops"
)

func newServiceCmd() *cli.Command {
	cfg := serviceCmd{sys: sysops.OS{}}

	fs := flag.NewFlagSet("lumina-install service", flag.ExitOnError)

	cfg.RegisterFlags(fs)

	return &cli.Command{
		Name:       "service",
		ShortHelp:  "Pass a command through to the installed service binary.",
		ShortUsage: "lumina-install service [ARG]...",
		Flags:      fs,
		Exec:       cfg.Exec,
	}
}

type serviceCmd struct {
	rootCmd

	sys sysops.System
}

// Exec invokes the installed service binary with the given arguments
// and the parent's standard streams. The service manages its own
// lifecycle through its subcommands (install, start, stop, uninstall,
// status); this is a plain pass-through.
func (c *serviceCmd) Exec(ctx context.Context, args []string) error {
	c.initLogging()

	key, err := platform.Current()
	if err != nil {
		return err
	}
	layout := install.DefaultLayout(key)

	code, err := install.RunServiceCommand(ctx, c.sys, layout, args)
	if err != nil {
		return err
	}
	if code != 0 {
		return fmt.Errorf("service command exited with status %d", code)
	}
	return nil
}
