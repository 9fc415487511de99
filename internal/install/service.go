package install

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/luminahq/lumina-install/internal/sysops"
)

// ErrRegistrationDeferred means the service binary is correctly placed
// on disk but registering it with the OS service manager failed,
// typically for lack of rights. The caller reports it as a partial
// success with the manual registration command, not as a failed
// install.
var ErrRegistrationDeferred = errors.New("service registration deferred")

// ServiceInstaller places the service binary at its standard path and
// registers it with the OS service manager through the binary's own
// `install` subcommand.
type ServiceInstaller struct {
	Sys    sysops.System
	Layout Layout
}

// Install copies the verified binary to the service path, marks it
// executable and runs its registration subcommand. Each step is gated
// on the previous one.
func (in *ServiceInstaller) Install(ctx context.Context, binary string) error {
	dest := in.Layout.ServicePath

	if err := in.Sys.MkdirAll(filepath.Dir(dest)); err != nil {
		return fmt.Errorf("create service directory: %w", err)
	}
	if err := in.Sys.CopyFile(binary, dest, 0755); err != nil {
		return fmt.Errorf("copy service binary: %w", err)
	}
	if err := in.Sys.SetExecutable(dest); err != nil {
		return fmt.Errorf("set executable: %w", err)
	}

	code, err := in.Sys.RunProcess(ctx, dest, "install")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRegistrationDeferred, err)
	}
	if code != 0 {
		return fmt.Errorf("%w: `%s install` exited with status %d", ErrRegistrationDeferred, dest, code)
	}

	return nil
}
