package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/agenthands/agentflow/internal/config"
)

var configPath string

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using defaults")
	}

	root := &cobra.Command{
		Use:   "agentflow",
		Short: "Live console and gateway for the agent service",
	}
	root.PersistentFlags().StringVar(&configPath, "config", "config.toml", "path to the TOML config file")
	root.AddCommand(newServeCmd(), newWatchCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() *config.Config {
	return config.LoadOrDefault(configPath)
}
