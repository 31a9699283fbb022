package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/lifeos/core/cmd/lifeos/commands"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "lifeos",
		Short: "LifeOS personal dashboard core",
		Long:  `LifeOS keeps notes, tasks and calendar events synchronized between a hosted database and a durable local cache, and alerts on upcoming task deadlines.`,
	}

	rootCmd.AddCommand(commands.NewServeCommand())
	rootCmd.AddCommand(commands.NewNotifyCommand())
	rootCmd.AddCommand(commands.NewSyncCommand())
	rootCmd.AddCommand(commands.NewSeedCommand())
	rootCmd.AddCommand(commands.NewLoginCommand())
	rootCmd.AddCommand(commands.NewWeatherCommand())
	rootCmd.AddCommand(commands.NewConfigCommand())
	rootCmd.AddCommand(commands.NewVersionCommand())

	if err := rootCmd.Execute(); err != nil {
		log.Printf("Command execution failed: %v", err)
		os.Exit(1)
	}
}
