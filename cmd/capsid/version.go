package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/capsid"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of capsid",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("capsid version %s\n", strings.TrimSpace(capsid.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
