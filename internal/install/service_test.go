package install

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/luminahq/lumina-install/internal/sysops"
)

func TestServiceInstall(t *testing.T) {
	layout := testLayout()
	binary := "/tmp/staging/lumina-service-darwin"

	fake := sysops.NewFake()
	fake.AddFile(binary)

	installer := &ServiceInstaller{Sys: fake, Layout: layout}
	if err := installer.Install(context.Background(), binary); err != nil {
		t.Fatalf("Install() failed: %v", err)
	}

	if !fake.Exists(layout.ServicePath) {
		t.Errorf("Install() did not place the binary at %s", layout.ServicePath)
	}
	if !slices.Contains(fake.Executables, layout.ServicePath) {
		t.Errorf("Install() did not mark the binary executable")
	}

	wantCmd := []string{layout.ServicePath, "install"}
	if len(fake.Commands) != 1 {
		t.Fatalf("Install() ran %d commands, want 1", len(fake.Commands))
	}
	if d := cmp.Diff(wantCmd, fake.Commands[0]); d != "" {
		t.Errorf("Install() registration command mismatch (-want/+got): %v", d)
	}
}

func TestServiceInstallRegistrationDeferred(t *testing.T) {
	// The filesystem check passed but registering the OS service did
	// not; the binary stays in place and the failure is reported as
	// deferred, not fatal.
	layout := testLayout()
	binary := "/tmp/staging/lumina-service-darwin"

	fake := sysops.NewFake()
	fake.AddFile(binary)
	fake.ExitCodes[layout.ServicePath] = 1

	installer := &ServiceInstaller{Sys: fake, Layout: layout}
	err := installer.Install(context.Background(), binary)
	if !errors.Is(err, ErrRegistrationDeferred) {
		t.Fatalf("Install() error = %v, want ErrRegistrationDeferred", err)
	}
	if !fake.Exists(layout.ServicePath) {
		t.Errorf("Install() removed the placed binary")
	}
}

func TestServiceInstallRegistrationProcessError(t *testing.T) {
	layout := testLayout()
	binary := "/tmp/staging/lumina-service-darwin"

	fake := sysops.NewFake()
	fake.AddFile(binary)
	fake.RunErr = errors.New("exec format error")

	installer := &ServiceInstaller{Sys: fake, Layout: layout}
	err := installer.Install(context.Background(), binary)
	if !errors.Is(err, ErrRegistrationDeferred) {
		t.Fatalf("Install() error = %v, want ErrRegistrationDeferred", err)
	}
}

func TestServiceInstallCopyFailure(t *testing.T) {
	layout := testLayout()
	binary := "/tmp/staging/lumina-service-darwin"

	fake := sysops.NewFake()
	fake.AddFile(binary)
	fake.CopyErr = errors.New("read-only file system")

	installer := &ServiceInstaller{Sys: fake, Layout: layout}
	err := installer.Install(context.Background(), binary)
	if err == nil {
		t.Fatal("Install() succeeded unexpectedly")
	}
	if errors.Is(err, ErrRegistrationDeferred) {
		t.Errorf("Install() reported a copy failure as deferred registration")
	}
	if len(fake.Commands) != 0 {
		t.Errorf("Install() ran the registration command after a failed copy")
	}
}

func TestQuery(t *testing.T) {
	layout := testLayout()
	fake := sysops.NewFake()

	status := Query(fake, layout)
	if status.AppInstalled || status.ServiceInstalled {
		t.Errorf("Query() on empty system = %+v, want nothing installed", status)
	}

	fake.AddFile(layout.AppPath())
	fake.AddFile(layout.ServicePath)

	status = Query(fake, layout)
	if !status.AppInstalled || !status.ServiceInstalled {
		t.Errorf("Query() = %+v, want everything installed", status)
	}
}

func TestRunServiceCommand(t *testing.T) {
	layout := testLayout()

	fake := sysops.NewFake()
	if _, err := RunServiceCommand(context.Background(), fake, layout, []string{"status"}); !errors.Is(err, ErrServiceNotInstalled) {
		t.Fatalf("RunServiceCommand() error = %v, want ErrServiceNotInstalled", err)
	}
	if len(fake.Commands) != 0 {
		t.Errorf("RunServiceCommand() invoked a missing binary")
	}

	fake.AddFile(layout.ServicePath)
	fake.ExitCodes[layout.ServicePath] = 3

	code, err := RunServiceCommand(context.Background(), fake, layout, []string{"status"})
	if err != nil {
		t.Fatalf("RunServiceCommand() failed: %v", err)
	}
	if code != 3 {
		t.Errorf("RunServiceCommand() = %d, want 3", code)
	}
	wantCmd := []string{layout.ServicePath, "status"}
	if d := cmp.Diff(wantCmd, fake.Commands[0]); d != "" {
		t.Errorf("RunServiceCommand() command mismatch (-want/+got): %v", d)
	}
}

func TestLaunch(t *testing.T) {
	layout := testLayout()

	fake := sysops.NewFake()
	if err := Launch(fake, layout); err == nil {
		t.Fatal("Launch() succeeded with nothing installed")
	}

	fake.AddFile(layout.AppPath())
	if err := Launch(fake, layout); err != nil {
		t.Fatalf("Launch() failed: %v", err)
	}

	wantCmd := []string{"open", "-a", layout.AppPath()}
	if d := cmp.Diff(wantCmd, fake.Commands[0]); d != "" {
		t.Errorf("Launch() command mismatch (-want/+got): %v", d)
	}
}
