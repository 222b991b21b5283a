package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"fpl-strategy-mcp/internal/config"
)

const version = "0.3.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Error().Err(err).Msg("fpl-server failed")
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "fpl-server",
		Short:         "FPL transfer and chip planner served over MCP",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "path to YAML config")

	load := func() (*config.Config, error) {
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		setupLogger(cfg.Server.LogLevel)
		return cfg, nil
	}

	root.AddCommand(
		newServeCmd(load),
		newFetchCmd(load),
		newTransfersCmd(load),
		newChipsCmd(load),
	)
	return root
}

func setupLogger(level string) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()
}

func printJSON(b []byte) {
	fmt.Fprintln(os.Stdout, string(b))
}
