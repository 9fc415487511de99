package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sync"

	"github.com/cluttrdev/cli"
	"github.com/pterm/pterm"

	"github.com/luminahq/lumina-install/internal/fetch"
	"github.com/luminahq/lumina-install/internal/install"
	"github.com/luminahq/lumina-install/internal/manifest"
	"github.com/luminahq/lumina-install/internal/metaerr"
	"github.com/luminahq/lumina-install/internal/platform"
	"github.com/luminahq/lumina-install/internal/privilege"
	"github.com/luminahq/lumina-install/internal/sysops"
	"github.com/luminahq/lumina-install/internal/verify"
)

func newInstallCmd(name string) *cli.Command {
	cfg := installCmd{sys: sysops.OS{}}

	fs := flag.NewFlagSet("lumina-install "+name, flag.ExitOnError)

	cfg.RegisterFlags(fs)

	return &cli.Command{
		Name:       name,
		ShortHelp:  "Run the fetch, verify and install pipeline.",
		ShortUsage: "lumina-install " + name + " [OPTION]...",
		Flags:      fs,
		Exec:       cfg.Exec,
	}
}

type installCmd struct {
	rootCmd

	sys sysops.System
}

func (c *installCmd) RegisterFlags(fs *flag.FlagSet) {
	c.rootCmd.RegisterFlags(fs)
}

// Exec runs the whole pipeline: identify platform, resolve the
// manifest entry, then fetch, verify and install the application and
// the service as two independent steps. One step failing never aborts
// the other.
func (c *installCmd) Exec(ctx context.Context, args []string) (err error) {
	c.initLogging()

	defer func() {
		if err != nil && c.logFile != os.Stderr {
			err = fmt.Errorf("%w\nSee %s for details", err, c.logFile.Name())
		}
	}()

	key, err := platform.Current()
	if err != nil {
		return err
	}

	m, err := c.loadManifest(ctx)
	if err != nil {
		return fmt.Errorf("load manifest: %w", err)
	}

	entry := manifest.Resolve(m, key)
	if entry.Installer == nil && entry.Service == nil {
		return fmt.Errorf("no artifacts published for platform %s", key)
	}

	layout := install.DefaultLayout(key)

	// Probed fresh on every run; a prior run's answer is worthless.
	elevated := privilege.Elevated()
	if !elevated {
		pterm.Warning.Println("Not running with elevated privileges." +
			" Artifacts will be downloaded and verified, but nothing is written to protected paths." +
			" Re-run elevated to complete the installation.")
	}

	tmpDir, err := os.MkdirTemp("", "lumina-install-*")
	if err != nil {
		return fmt.Errorf("create temp dir: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(tmpDir); err != nil {
			slog.Error("failed to remove temporary directory", "dir", tmpDir, "error", err)
		}
	}()

	client := fetch.NewClient()

	var (
		appErr error
		svcErr error
		wg     sync.WaitGroup

		multiPrinter = pterm.DefaultMultiPrinter
	)
	_, _ = multiPrinter.Start()
	wg.Add(2)
	go func() {
		defer wg.Done()
		appErr = c.installApp(ctx, client, entry.Installer, layout, elevated, tmpDir, multiPrinter.NewWriter())
	}()
	go func() {
		defer wg.Done()
		svcErr = c.installService(ctx, client, entry.Service, layout, elevated, tmpDir, multiPrinter.NewWriter())
	}()
	wg.Wait()
	_, _ = multiPrinter.Stop()

	for _, stepErr := range []error{appErr, svcErr} {
		if stepErr != nil {
			slog.With("error", stepErr).
				With(metaerr.GetMetadata(stepErr)...).
				Error("install step failed")
		}
	}

	return errors.Join(appErr, svcErr)
}

func (c *installCmd) installApp(ctx context.Context, client *http.Client, desc *manifest.Descriptor, layout install.Layout, elevated bool, tmpDir string, w io.Writer) error {
	spinner, _ := pterm.DefaultSpinner.WithWriter(w).Start("Installing application")

	if desc == nil {
		spinner.Warning("Application: no artifact published for platform ", layout.Key)
		return nil
	}

	image, err := c.stageArtifact(ctx, client, *desc, tmpDir, spinner, "application")
	if err != nil {
		spinner.Fail("Failed to install application: ", err)
		return err
	}

	if !elevated {
		spinner.Warning("Application downloaded and verified, but installing into ",
			layout.AppDir, " requires elevated privileges. Re-run elevated to install.")
		return nil
	}

	installer := &install.AppInstaller{Sys: c.sys, Layout: layout}
	if err := installer.Install(ctx, image); err != nil {
		spinner.Fail("Failed to install application: ", err)
		return metaerr.WithMetadata(fmt.Errorf("install application: %w", err), "image", image)
	}

	spinner.Success("Application installed to ", layout.AppPath())
	return nil
}

func (c *installCmd) installService(ctx context.Context, client *http.Client, desc *manifest.Descriptor, layout install.Layout, elevated bool, tmpDir string, w io.Writer) error {
	spinner, _ := pterm.DefaultSpinner.WithWriter(w).Start("Installing service")

	if desc == nil {
		spinner.Warning("Service: no artifact published for platform ", layout.Key)
		return nil
	}

	binary, err := c.stageArtifact(ctx, client, *desc, tmpDir, spinner, "service")
	if err != nil {
		spinner.Fail("Failed to install service: ", err)
		return err
	}

	if !elevated {
		spinner.Warning("Service binary downloaded and verified, but installing to ",
			layout.ServicePath, " requires elevated privileges. Re-run elevated to install.")
		return nil
	}

	installer := &install.ServiceInstaller{Sys: c.sys, Layout: layout}
	err = installer.Install(ctx, binary)
	if errors.Is(err, install.ErrRegistrationDeferred) {
		spinner.Warning("Service binary installed, but registration failed: ", err,
			". Run `", layout.ServicePath, " install` with elevated rights to register it.")
		return nil
	}
	if err != nil {
		spinner.Fail("Failed to install service: ", err)
		return metaerr.WithMetadata(fmt.Errorf("install service: %w", err), "binary", binary)
	}

	spinner.Success("Service installed to ", layout.ServicePath)
	return nil
}

// stageArtifact downloads a descriptor's artifact into the transient
// directory and verifies its digest. Nothing unverified ever leaves
// this function: on a digest mismatch the staged file is deleted.
func (c *installCmd) stageArtifact(ctx context.Context, client *http.Client, desc manifest.Descriptor, tmpDir string, spinner *pterm.SpinnerPrinter, label string) (string, error) {
	u, err := url.Parse(desc.URL)
	if err != nil {
		return "", fmt.Errorf("parse artifact url: %w", err)
	}
	path := filepath.Join(tmpDir, filepath.Base(u.Path))

	progress := func(percent float64) {
		spinner.UpdateText(fmt.Sprintf("Downloading %s %3.0f%%", label, percent))
	}
	if err := fetch.Fetch(ctx, client, desc.URL, path, progress); err != nil {
		return "", metaerr.WithMetadata(
			fmt.Errorf("download %s (you can retry, or fetch it manually): %w", label, err),
			"url", desc.URL,
		)
	}

	spinner.UpdateText("Verifying " + label)
	if err := verify.Verify(path, desc.Hash); err != nil {
		_ = os.Remove(path)
		return "", metaerr.WithMetadata(fmt.Errorf("verify %s: %w", label, err), "url", desc.URL)
	}

	return path, nil
}
