// Package commands implements the automata command-line interface.
package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dudumaluf/BOT-TextureGen/internal/cloudevents"
	"github.com/dudumaluf/BOT-TextureGen/internal/config"
	"github.com/dudumaluf/BOT-TextureGen/internal/dispatch"
	"github.com/dudumaluf/BOT-TextureGen/internal/logging"
	"github.com/dudumaluf/BOT-TextureGen/internal/node"
	"github.com/dudumaluf/BOT-TextureGen/internal/outputdir"
	"github.com/dudumaluf/BOT-TextureGen/internal/texture"
)

var (
	envFile  string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:          "automata",
	Short:        "AUTOMATA texture webhook node",
	Long:         `Saves generated textures as PNG files and notifies a webhook with their URLs.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "Load environment variables from file (default: .env if present)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override LOG_LEVEL")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// app holds everything a command needs, built from configuration.
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	resolver outputdir.Resolver
	registry *node.Registry
}

func newApp() (*app, error) {
	if err := config.LoadEnvFile(envFile); err != nil {
		return nil, err
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, err
	}

	resolver := outputdir.WithFallback(outputdir.Host(cfg.OutputDir), outputdir.Default(), logger)
	converter := texture.NewConverter(resolver, logger, texture.WithSubfolder(cfg.OutputSubfolder))

	var sender dispatch.Sender
	switch cfg.WebhookFormat {
	case config.FormatCloudEvents:
		sender = cloudevents.NewClient(cfg.SourceID, cfg.EventType, logger)
	default:
		sender = dispatch.NewHTTPSender(cfg.WebhookTimeout)
	}

	dispatcher := dispatch.New(converter, sender,
		dispatch.WithBaseURL(cfg.BaseURL),
		dispatch.WithTimeout(cfg.WebhookTimeout),
		dispatch.WithLogger(logger),
	)

	registry := node.NewRegistry()
	if err := registry.Register(node.NewWebhookNode(dispatcher, cfg.WebhookURL, cfg.WebhookSecret)); err != nil {
		return nil, err
	}

	return &app{
		cfg:      cfg,
		logger:   logger,
		resolver: resolver,
		registry: registry,
	}, nil
}
