package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/aretw0/capsid"
	"github.com/aretw0/capsid/internal/logging"
	"github.com/aretw0/capsid/internal/presentation/tui"
)

var rootCmd = &cobra.Command{
	Use:   "capsid",
	Short: "Capsid is a phage genome assembly and annotation pipeline",
	Long: `Capsid chains quality control, trimming, assembly, assembly QC and
annotation tools into a single pipeline and packages the results into a
downloadable archive. It runs in the foreground, as an HTTP API server, or
as an MCP server for AI agents.`,
	Run: func(cmd *cobra.Command, args []string) {
		if term.IsTerminal(int(os.Stdout.Fd())) {
			tui.PrintBanner(os.Stdout)
		}
		_ = cmd.Help()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("config", "", "Path to a config file (YAML or JSON)")
	rootCmd.PersistentFlags().String("log-level", "warn", "Log level: debug, info, warn or error")
}

// newEngine builds the engine from the persistent flags plus any
// command-specific options.
func newEngine(cmd *cobra.Command, extra ...capsid.Option) (*capsid.Engine, error) {
	levelName, _ := cmd.Flags().GetString("log-level")
	cfgFile, _ := cmd.Flags().GetString("config")

	opts := []capsid.Option{
		capsid.WithLogger(logging.New(logging.ParseLevel(levelName))),
	}
	if cfgFile != "" {
		opts = append(opts, capsid.WithConfigFile(cfgFile))
	}
	return capsid.New(append(opts, extra...)...)
}

// printMarkdown renders markdown through glamour when stdout is a terminal;
// piped output gets the raw markdown.
func printMarkdown(doc string) {
	if term.IsTerminal(int(os.Stdout.Fd())) {
		render := tui.NewRenderer()
		if out, err := render(doc); err == nil {
			fmt.Print(out)
			return
		}
	}
	fmt.Print(doc)
}
