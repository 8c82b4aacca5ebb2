package main

import (
	"log"

	"github.com/spf13/cobra"

	"github.com/agenthands/agentflow/internal/gateway"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the case-converting HTTP gateway in front of the backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			srv := gateway.NewServer(cfg.Backend.URL)
			log.Printf("Starting gateway on port %s (backend %s)", cfg.Gateway.Port, cfg.Backend.URL)
			return srv.Run(cfg.Gateway.Port)
		},
	}
}
