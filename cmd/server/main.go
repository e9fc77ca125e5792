package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/OCharnyshevich/obsidian/internal/server"
	"github.com/OCharnyshevich/obsidian/internal/server/config"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cfg := config.DefaultConfig()
	var configPath string

	cmd := &cobra.Command{
		Use:           "obsidian",
		Short:         "Minecraft 1.13.2 protocol server",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fromFile, err := config.Load(configPath)
			if err != nil {
				return err
			}

			explicit := make(map[string]bool)
			cmd.Flags().Visit(func(f *pflag.Flag) {
				explicit[f.Name] = true
			})
			config.Merge(cfg, fromFile, explicit)
			if err := cfg.Validate(); err != nil {
				return err
			}

			return run(cmd.Context(), cfg)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&configPath, "config", "c", "config.json", "path to the JSON config file")
	flags.IntVarP(&cfg.Port, "port", "p", cfg.Port, "server port")
	flags.BoolVar(&cfg.OnlineMode, "online-mode", cfg.OnlineMode, "resolve players through the Mojang profile API")
	flags.StringVar(&cfg.MOTD, "motd", cfg.MOTD, "server description")
	flags.IntVar(&cfg.MaxPlayers, "max-players", cfg.MaxPlayers, "maximum players shown in server list")
	flags.IntVar(&cfg.CompressionThreshold, "compression-threshold", cfg.CompressionThreshold, "compress packets of at least this many bytes, -1 disables")
	flags.IntVar(&cfg.KeepAliveIntervalSeconds, "keep-alive-interval", cfg.KeepAliveIntervalSeconds, "seconds between keep-alive probes")
	flags.StringVar(&cfg.DataDir, "data-dir", cfg.DataDir, "directory for players.db, empty disables persistence")
	flags.StringVar(&cfg.AdminAddr, "admin-addr", cfg.AdminAddr, "admin HTTP listen address, empty disables")
	flags.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn or error")

	return cmd
}

func run(ctx context.Context, cfg *config.Config) error {
	level, err := config.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))

	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	srv, err := server.New(cfg, log)
	if err != nil {
		return err
	}
	return srv.Start(ctx)
}
