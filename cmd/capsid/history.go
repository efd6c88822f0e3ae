package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/capsid/internal/adapters/redis"
	"github.com/aretw0/capsid/internal/presentation/tui"
)

var historyCmd = &cobra.Command{
	Use:   "history [id]",
	Short: "Show persisted run history",
	Long: `Lists runs and actions persisted in the history store, newest
first. Pass a task ID for a full summary of one record.

History lives in the store of the server that executed the runs, so this
command needs the same --redis-url the server was started with.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := runHistory(cmd, args); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().String("redis-url", "", "Redis URL of the history store (e.g. redis://localhost:6379/0)")
}

func runHistory(cmd *cobra.Command, args []string) error {
	redisURL, _ := cmd.Flags().GetString("redis-url")
	if redisURL == "" {
		return fmt.Errorf("--redis-url is required: run history is only persisted when the server uses redis")
	}

	store, err := redis.New(redisURL)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()

	if len(args) == 1 {
		rec, err := store.Load(ctx, args[0])
		if err != nil {
			return err
		}
		printMarkdown(tui.BuildReport(rec))
		return nil
	}

	records, err := store.List(ctx)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Println("No history records found.")
		return nil
	}
	for _, rec := range records {
		fmt.Printf("%s  %-6s  %-8s  %s  %s\n",
			rec.FinishedAt.Local().Format("2006-01-02 15:04"),
			rec.Kind, rec.Status, rec.ID, rec.Message)
	}
	return nil
}
