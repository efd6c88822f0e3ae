package domain

import "strings"

// ExitAborted is the reserved exit code reported when a process was stopped
// before running to completion. It is distinct from any exit code a real
// process can return.
const ExitAborted = -1

// Command is a structured subprocess invocation. Program and Args stay
// separate all the way to the OS so no shell quoting or interpolation ever
// happens.
type Command struct {
	// Program is the executable name (resolved via PATH) or an absolute path.
	Program string `json:"program"`

	// Args are the raw arguments, one element per argument.
	Args []string `json:"args,omitempty"`

	// Dir is the working directory. Empty means inherit the parent's.
	Dir string `json:"dir,omitempty"`

	// Env holds extra environment entries in KEY=VALUE form, appended on top
	// of the parent environment.
	Env []string `json:"env,omitempty"`
}

// String renders the command for display in logs. The result is for humans
// and must never be handed back to a shell.
func (c Command) String() string {
	if len(c.Args) == 0 {
		return c.Program
	}
	return c.Program + " " + strings.Join(c.Args, " ")
}
