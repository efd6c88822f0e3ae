package pipeline

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"

	"github.com/aretw0/capsid/pkg/domain"
	"github.com/aretw0/capsid/pkg/execute"
	"github.com/aretw0/capsid/pkg/ports"
)

// Maintenance action names. These equal the button parameter names in the
// schema (see Definitions).
const (
	ActionInstallDatabases  = "install_pharokka_db"
	ActionRepairEnvironment = "repair_pharokka_env"
)

// actionFunc is one maintenance task. Actions share the sink and executor
// machinery with runs but are independent of the stage sequence.
type actionFunc func(ctx context.Context, r *Runner, out ports.Sink) Outcome

var actionRegistry = map[string]actionFunc{
	ActionInstallDatabases:  runInstallDatabases,
	ActionRepairEnvironment: runRepairEnvironment,
}

// Actions lists the registered maintenance action names, sorted.
func Actions() []string {
	names := make([]string, 0, len(actionRegistry))
	for name := range actionRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// KnownAction reports whether name is a registered maintenance action.
func KnownAction(name string) bool {
	_, ok := actionRegistry[name]
	return ok
}

// RunAction executes a registered maintenance action, writing progress to
// out. Unknown names fail without touching anything.
func (r *Runner) RunAction(ctx context.Context, name string, out ports.Sink) Outcome {
	fn, ok := actionRegistry[name]
	if !ok {
		out.Error("Unknown action: " + name)
		return Outcome{}
	}
	r.logger.Info("action starting", "action", name)
	oc := fn(ctx, r, out)
	r.logger.Info("action finished", "action", name, "success", oc.Success, "aborted", oc.Aborted)
	return oc
}

// runInstallDatabases downloads and indexes the annotation databases,
// trying the newer installer first and falling back to the legacy one.
// Candidates missing from PATH and the runtime bin dir are skipped rather
// than reported as failures.
func runInstallDatabases(ctx context.Context, r *Runner, out ports.Sink) Outcome {
	out.Step("Starting Pharokka database installation...")
	out.Step("This will download several gigabytes and may take 10-20 minutes depending on speed.")

	candidates := []domain.Command{
		{Program: "install_databases.py", Args: []string{"-d"}},
		{Program: "pharokka_database.py", Args: []string{"--install", "-f"}},
	}

	oc := Outcome{}
	for _, cmd := range candidates {
		if !commandAvailable(cmd.Program) {
			continue
		}
		code := r.exec.Execute(ctx, cmd, out)
		oc.LastExit = code
		if code == 0 {
			out.Success("Pharokka databases installed successfully!")
			oc.Success = true
			return oc
		}
		if code == domain.ExitAborted {
			oc.Aborted = true
			return oc
		}
		out.Step(fmt.Sprintf("Command %s failed (exit code %d). Trying next...", cmd.Program, code))
	}

	out.Error("All Pharokka database installation commands failed.")
	return oc
}

// commandAvailable reports whether prog resolves on PATH or sits in the
// runtime bin dir.
func commandAvailable(prog string) bool {
	if _, err := exec.LookPath(prog); err == nil {
		return true
	}
	if bin := execute.RuntimeBinDir(); bin != "" {
		if _, err := os.Stat(filepath.Join(bin, prog)); err == nil {
			return true
		}
	}
	return false
}
