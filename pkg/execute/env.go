package execute

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/aretw0/capsid/pkg/domain"
)

// RuntimeBinDir returns the directory holding the current executable. In a
// bundled environment this is also where the pipeline tools live, so it is
// prepended to the child PATH and used to locate tool data directories.
// Empty when the executable path cannot be resolved.
func RuntimeBinDir() string {
	exe, err := os.Executable()
	if err != nil {
		return ""
	}
	return filepath.Dir(exe)
}

// buildEnv assembles the child environment: the parent environment with the
// runtime bin directory prepended to PATH, then the command's overrides.
func buildEnv(cmd domain.Command) []string {
	env := os.Environ()
	if bin := RuntimeBinDir(); bin != "" {
		env = prependPath(env, bin)
	}
	return append(env, cmd.Env...)
}

// prependPath puts dir at the front of the PATH entry unless it already
// appears somewhere in it.
func prependPath(env []string, dir string) []string {
	for i, kv := range env {
		if !strings.HasPrefix(kv, "PATH=") {
			continue
		}
		val := strings.TrimPrefix(kv, "PATH=")
		if strings.Contains(val, dir) {
			return env
		}
		env[i] = "PATH=" + dir + string(os.PathListSeparator) + val
		return env
	}
	return append(env, "PATH="+dir)
}

// needsArchShim reports whether third-party tool binaries must run through
// the macOS arch trampoline to select the native instruction set. Rosetta
// persistence can be sticky in subshell configurations, so every command is
// prefixed on Apple Silicon.
func needsArchShim() bool {
	return runtime.GOOS == "darwin" && runtime.GOARCH == "arm64"
}

// shimCommand applies the arch prefix on platforms that need it. The shim
// is idempotent: an already-prefixed command passes through untouched.
func shimCommand(cmd domain.Command) (string, []string) {
	if !needsArchShim() || cmd.Program == "arch" {
		return cmd.Program, cmd.Args
	}
	return "arch", append([]string{"-arm64", cmd.Program}, cmd.Args...)
}
