package capsid_test

import (
	"context"
	"log"
	"os"
	"path/filepath"

	"github.com/aretw0/capsid"
	"github.com/aretw0/capsid/pkg/domain"
	"github.com/aretw0/capsid/pkg/pipeline"
	"github.com/aretw0/capsid/pkg/ports"
)

// stubExecutor simulates tool execution so the example runs without any
// bioinformatics tools installed.
type stubExecutor struct{}

func (stubExecutor) Execute(ctx context.Context, cmd domain.Command, out ports.Sink) int {
	out.Command(cmd)
	out.Write("hello\n")
	return 0
}

// ExampleRunner_Run demonstrates how to use Capsid purely as a Go library,
// replacing the stage table and the process executor so no external tools
// are spawned.
func ExampleRunner_Run() {
	// 1. Prepare a scratch workspace holding the input reads.
	if err := os.MkdirAll("example_workspace", 0o755); err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll("example_workspace")
	reads := "example_workspace/reads_R1.fastq"
	if err := os.WriteFile(reads, []byte("@r1\nACGT\n+\nIIII\n"), 0o644); err != nil {
		log.Fatal(err)
	}

	// 2. Point the engine at the workspace and inject a single fake stage.
	cfg := pipeline.DefaultConfig()
	cfg.BaseDir = "example_workspace"

	stage := domain.Stage{
		Name:  "Echo",
		Fatal: true,
		Resolve: func(p *domain.Params) (domain.Command, error) {
			return domain.Command{Program: "echo", Args: []string{"hello"}}, nil
		},
		After: func(p *domain.Params) error {
			result := filepath.Join(p.OutDir, "echo.txt")
			return os.WriteFile(result, []byte("hello\n"), 0o644)
		},
	}

	eng, err := capsid.New(
		capsid.WithConfig(cfg),
		capsid.WithStages(stage),
		capsid.WithExecutor(stubExecutor{}),
	)
	if err != nil {
		log.Fatal(err)
	}

	// 3. Run synchronously, streaming progress to stdout.
	runner := &capsid.Runner{Output: os.Stdout}
	params := map[string]any{
		"output_name": "demo",
		"short_r1":    reads,
	}
	if _, err := runner.Run(context.Background(), eng, params); err != nil {
		log.Fatal(err)
	}

	// Output:
	// ❯ Project name: demo
	// ❯ Output directory: example_workspace/demo
	//
	// --- Input Validation ---
	// ℹ R1: example_workspace/reads_R1.fastq
	//
	// --- Echo ---
	//   $ echo hello
	// hello
	//
	// --- Finalizing Output ---
	// ❯ Packaged 1 results into demo_results.zip
	// ❯ Final results zipped at: example_workspace/demo_results.zip
	// ✓ Pipeline completed successfully!
}
