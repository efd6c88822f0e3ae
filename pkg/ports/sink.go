package ports

import "github.com/aretw0/capsid/pkg/domain"

// Sink is the write interface through which all execution output reaches
// the log buffer. Implementations must be safe for use from the single
// active run goroutine; they are never shared between concurrent writers.
//
// The structured helpers all bottom out in Write, so a host that only
// understands plain text still sees every entry.
type Sink interface {
	// Write appends raw text verbatim. Process output arrives here already
	// decoded, including carriage-return progress redraws.
	Write(text string)

	// Stage writes a banner announcing a major pipeline stage.
	Stage(name string)

	// Step writes a notice line for a step within a stage.
	Step(text string)

	// Info writes an informational line.
	Info(text string)

	// Success writes a success line.
	Success(text string)

	// Warning writes a warning line.
	Warning(text string)

	// Error writes an error line.
	Error(text string)

	// Command echoes a command about to be executed.
	Command(cmd domain.Command)
}
