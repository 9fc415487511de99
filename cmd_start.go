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

func newStartCmd(name string) *cli.Command {
	cfg := startCmd{sys: sysops.OS{}}

	fs := flag.NewFlagSet("lumina-install "+name, flag.ExitOnError)

	cfg.RegisterFlags(fs)

	return &cli.Command{
		Name:       name,
		ShortHelp:  "Launch the installed Lumina application.",
		ShortUsage: "lumina-install " + name,
		Flags:      fs,
		Exec:       cfg.Exec,
	}
}

type startCmd struct {
	rootCmd

	sys sysops.System
}

func (c *startCmd) Exec(ctx context.Context, args []string) error {
	c.initLogging()

	key, err := platform.Current()
	if err != nil {
		return err
	}
	layout := install.DefaultLayout(key)

	if err := install.Launch(c.sys, layout); err != nil {
		return fmt.Errorf("launch application: %w (run `lumina-install install` first)", err)
	}
	return nil
}
