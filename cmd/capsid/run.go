package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/aretw0/capsid"
	"github.com/aretw0/capsid/internal/presentation/tui"
	"github.com/aretw0/capsid/pkg/domain"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the pipeline in the foreground",
	Long: `Runs the full pipeline with the given reads, streaming the log to
stdout, and packages the results into a zip archive when it finishes.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runPipeline(cmd); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().String("r1", "", "Path to forward reads (FASTQ, required)")
	runCmd.Flags().String("r2", "", "Path to reverse reads (FASTQ, optional)")
	runCmd.Flags().String("name", "", "Project name used as the output prefix")
	runCmd.Flags().String("mode", "normal", "Unicycler bridging mode: normal, bold or conservative")
	runCmd.Flags().Bool("no-fastqc", false, "Skip the FastQC stage")
	runCmd.Flags().Bool("no-trimming", false, "Skip the TrimGalore stage")
	runCmd.Flags().Bool("no-quast", false, "Skip the QUAST stage")
	runCmd.Flags().Bool("no-pharokka", false, "Skip the Pharokka stage")
	runCmd.Flags().Bool("plain", false, "Disable colors and the banner")
}

func runPipeline(cmd *cobra.Command) error {
	eng, err := newEngine(cmd)
	if err != nil {
		return err
	}

	params := map[string]any{}
	setParam := func(flag, key string) {
		if v, _ := cmd.Flags().GetString(flag); v != "" {
			params[key] = v
		}
	}
	setParam("r1", "short_r1")
	setParam("r2", "short_r2")
	setParam("name", "output_name")
	setParam("mode", "unicycler_mode")
	skipParam := func(flag, key string) {
		if skip, _ := cmd.Flags().GetBool(flag); skip {
			params[key] = false
		}
	}
	skipParam("no-fastqc", "run_fastqc")
	skipParam("no-trimming", "run_trimming")
	skipParam("no-quast", "run_quast")
	skipParam("no-pharokka", "run_pharokka")

	plain, _ := cmd.Flags().GetBool("plain")
	interactive := term.IsTerminal(int(os.Stdout.Fd())) && !plain

	// Ctrl-C interrupts the active tool and aborts the run.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	started := time.Now()
	oc, err := newForegroundRunner(interactive).Run(ctx, eng, params)

	if interactive {
		status, message := oc.Status()
		printMarkdown(tui.BuildReport(domain.HistoryRecord{
			Kind:         domain.KindRun,
			Status:       status,
			Message:      message,
			StartedAt:    started,
			FinishedAt:   time.Now(),
			ArtifactPath: oc.ArtifactPath,
		}))
	}
	return err
}

// newForegroundRunner prints the banner and enables colors for interactive
// invocations.
func newForegroundRunner(interactive bool) *capsid.Runner {
	if interactive {
		tui.PrintBanner(os.Stdout)
	}
	return &capsid.Runner{
		Output:  os.Stdout,
		Styled:  interactive,
		Profile: termenv.ColorProfile(),
	}
}
