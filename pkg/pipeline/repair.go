package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/capsid/pkg/domain"
	"github.com/aretw0/capsid/pkg/execute"
	"github.com/aretw0/capsid/pkg/ports"
)

// RepairRule rewrites one known-bad expression in an installed tool script.
// Find must be exact source text; Replace is its fixed form. A rule applies
// only when Find is present and Replace is not, so repeated repairs are
// no-ops.
type RepairRule struct {
	File    string
	Find    string
	Replace string
}

// annotationRepairRules fix the pyhmmer string/bytes regression in
// Pharokka's hmm.py: newer pyhmmer returns str where the script calls
// .decode(), so each call site gains a hasattr guard.
var annotationRepairRules = []RepairRule{
	{
		File:    "hmm.py",
		Find:    `hits.query.name.decode()`,
		Replace: `hits.query.name.decode() if hasattr(hits.query.name, "decode") else hits.query.name`,
	},
	{
		File:    "hmm.py",
		Find:    `hit.name.decode()`,
		Replace: `hit.name.decode() if hasattr(hit.name, "decode") else hit.name`,
	},
}

// runRepairEnvironment applies the known script repairs in place. Reporting
// an already-patched script as success keeps the action safe to trigger
// before every run.
func runRepairEnvironment(ctx context.Context, r *Runner, out ports.Sink) Outcome {
	if ctx.Err() != nil {
		out.Step("Pipeline execution aborted.")
		return Outcome{Aborted: true, LastExit: domain.ExitAborted}
	}

	path, ok := r.locateScript("hmm.py")
	if !ok {
		out.Step("Could not find Pharokka hmm.py for auto-patching.")
		return Outcome{}
	}

	changed, err := applyRepairs(path, annotationRepairRules)
	if err != nil {
		out.Error(fmt.Sprintf("Failed to auto-patch Pharokka: %v", err))
		return Outcome{}
	}
	if changed {
		out.Step("Auto-patching Pharokka script: " + path)
	} else {
		out.Step("Pharokka script already patched or compatible.")
	}
	return Outcome{Success: true}
}

// locateScript finds an installed tool script, preferring the configured
// script dir over the runtime bin dir.
func (r *Runner) locateScript(name string) (string, bool) {
	var dirs []string
	if r.cfg.Annotation.ScriptDir != "" {
		dirs = append(dirs, r.cfg.Annotation.ScriptDir)
	}
	if bin := execute.RuntimeBinDir(); bin != "" {
		dirs = append(dirs, bin)
	}
	for _, dir := range dirs {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			return p, true
		}
	}
	return "", false
}

// applyRepairs applies every rule matching the file's base name, writing
// the file back only when something changed.
func applyRepairs(path string, rules []RepairRule) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return false, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return false, err
	}

	content := string(data)
	patched := content
	base := filepath.Base(path)
	for _, rule := range rules {
		if rule.File != base {
			continue
		}
		if strings.Contains(patched, rule.Find) && !strings.Contains(patched, rule.Replace) {
			patched = strings.ReplaceAll(patched, rule.Find, rule.Replace)
		}
	}
	if patched == content {
		return false, nil
	}
	if err := os.WriteFile(path, []byte(patched), info.Mode().Perm()); err != nil {
		return false, err
	}
	return true, nil
}
