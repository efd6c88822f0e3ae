package ports

import (
	"context"

	"github.com/aretw0/capsid/pkg/domain"
)

// Executor spawns one external command with stdout and stderr merged,
// streams decoded output to the sink, and reports the exit code.
//
// Executors never return an error across this boundary: I/O problems are
// written to the sink and absorbed. Cancelling ctx requests termination;
// in that case the reported exit code is domain.ExitAborted.
type Executor interface {
	Execute(ctx context.Context, cmd domain.Command, sink Sink) int
}
