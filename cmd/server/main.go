package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ademetov/messenger-server/internal/app"
	"github.com/ademetov/messenger-server/internal/config"
	"github.com/ademetov/messenger-server/internal/log"
)

func main() {
	var (
		configPath string
		addr       string
	)

	rootCmd := &cobra.Command{
		Use:   "messenger-server",
		Short: "Real-time messenger backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			bootLogger := log.New("info")

			cfg, resolvedPath, err := config.Load(bootLogger, configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if addr != "" {
				cfg.Addr = addr
			}

			logger := log.New(cfg.LogLevel)
			logger.Info().Str("config", resolvedPath).Msg("configuration loaded")

			a, err := app.New(cfg, logger)
			if err != nil {
				return fmt.Errorf("build app: %w", err)
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return a.Run(ctx)
		},
	}

	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "path to config file")
	rootCmd.Flags().StringVar(&addr, "addr", "", "listen address override")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
