//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/mitchellh/go-ps"
)

// ErrAlreadyRunning is returned when another instance of the executable is alive.
var ErrAlreadyRunning = errors.New("another instance is already running")

// IsProcessRunning reports whether a process other than the current one runs
// the named executable. On Windows the .exe suffix is optional.
func IsProcessRunning(name string) (bool, error) {
	processList, err := ps.Processes()
	if err != nil {
		return false, fmt.Errorf("list processes: %w", err)
	}

	thisProcessID := os.Getpid()
	wanted := executableNames(name)

	for _, process := range processList {
		if process.Pid() == thisProcessID {
			continue
		}

		if _, found := wanted[process.Executable()]; found {
			return true, nil
		}
	}

	return false, nil
}

// EnsureSingleInstance fails with ErrAlreadyRunning if the named executable is already running.
func EnsureSingleInstance(name string) error {
	running, err := IsProcessRunning(name)
	if err != nil {
		return err
	}

	if running {
		return fmt.Errorf("%w: %s", ErrAlreadyRunning, name)
	}

	return nil
}

func executableNames(name string) map[string]struct{} {
	base := filepath.Base(name)
	names := map[string]struct{}{base: {}}

	if runtime.GOOS == "windows" {
		trimmed := strings.TrimSuffix(base, ".exe")
		names[trimmed] = struct{}{}
		names[trimmed+".exe"] = struct{}{}
	}

	return names
}
