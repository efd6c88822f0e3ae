package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/capsid/internal/presentation/graph"
	"github.com/aretw0/capsid/internal/presentation/tui"
	"github.com/aretw0/capsid/pkg/pipeline"
)

// stagesCmd represents the stages command
var stagesCmd = &cobra.Command{
	Use:   "stages",
	Short: "Show the pipeline stages and parameters",
	Long: `Prints the stage chain with its parameter reference, or a Mermaid
diagram (graph TD) of the pipeline with --mermaid.`,
	Run: func(cmd *cobra.Command, args []string) {
		eng, err := newEngine(cmd)
		if err != nil {
			fmt.Printf("Error initializing capsid: %v\n", err)
			os.Exit(1)
		}

		if mermaid, _ := cmd.Flags().GetBool("mermaid"); mermaid {
			// Generate and print Mermaid graph
			fmt.Print(graph.GenerateMermaid(eng.Runner().Stages()))
			return
		}

		printMarkdown(tui.BuildStagesDoc(eng.Runner().Stages(), pipeline.Definitions(), pipeline.Actions()))
	},
}

func init() {
	rootCmd.AddCommand(stagesCmd)

	stagesCmd.Flags().Bool("mermaid", false, "Output a Mermaid diagram instead of markdown")
}
