package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/aretw0/capsid/pkg/pipeline"
)

var actionCmd = &cobra.Command{
	Use:   "action [name]",
	Short: "Run a maintenance action",
	Long: `Runs a maintenance action in the foreground, e.g. downloading the
annotation databases before the first pipeline run.

Available actions:
- ` + strings.Join(pipeline.Actions(), "\n- "),
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := runAction(cmd, args[0]); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(actionCmd)

	actionCmd.Flags().Bool("plain", false, "Disable colors and the banner")
}

func runAction(cmd *cobra.Command, name string) error {
	eng, err := newEngine(cmd)
	if err != nil {
		return err
	}

	plain, _ := cmd.Flags().GetBool("plain")
	interactive := term.IsTerminal(int(os.Stdout.Fd())) && !plain

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	_, err = newForegroundRunner(interactive).RunAction(ctx, eng, name)
	return err
}
