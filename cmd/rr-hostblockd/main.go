package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/haukened/rr-hostblock/internal/dns/common/log"
	"github.com/haukened/rr-hostblock/internal/dns/config"
)

const (
	version = "0.1.0-dev"
	appName = "rr-hostblockd"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
		os.Exit(1)
	}
}

// newRootCmd builds the command tree. serve is the default command.
func newRootCmd() *cobra.Command {
	var configPath string

	loadConfig := func() (*config.AppConfig, error) {
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, fmt.Errorf("configuration error: %w", err)
		}
		if err := log.Configure(cfg.Env, cfg.Log.Level); err != nil {
			return nil, fmt.Errorf("logging configuration error: %w", err)
		}
		return cfg, nil
	}

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Keep the decision set current and serve the admin API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg)
		},
	}

	root := &cobra.Command{
		Use:           appName,
		Short:         "Hostname blocking engine fed by hosts files and filter lists",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE:          serve.RunE,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", os.Getenv("HOSTBLOCK_CONFIG"), "config file (yaml, json or toml)")

	root.AddCommand(serve, newCheckCmd(loadConfig), newParseCmd())
	return root
}

func runServe(ctx context.Context, cfg *config.AppConfig) error {
	log.Info(map[string]any{
		"version":            version,
		"env":                cfg.Env,
		"log_level":          cfg.Log.Level,
		"items":              len(cfg.Hosts.Items),
		"extended_filtering": cfg.Hosts.ExtendedFiltering,
		"store":              cfg.Store.Path,
		"admin":              cfg.Admin.Addr,
	}, "hostblock_starting")

	app, err := buildApplication(cfg, log.GetLogger())
	if err != nil {
		return fmt.Errorf("failed to build application: %w", err)
	}
	defer app.Close()

	if err := app.Run(ctx); err != nil {
		return err
	}
	log.Info(nil, "hostblock_stopped")
	return nil
}
