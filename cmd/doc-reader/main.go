// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the doc-reader CLI. It is the
// presentation layer: it validates uploads against the allow-list, hands
// them to the conversion core and renders previews, metrics and errors.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/doc-reader/internal/config"
	"github.com/pdiddy/doc-reader/internal/logging"
	"github.com/pdiddy/doc-reader/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	// cfg holds the settings resolved before any subcommand runs.
	cfg types.Config
	// logger receives diagnostic logs; progress output goes to stdout.
	logger = zerolog.Nop()
)

// rootCmd is the base command for the doc-reader CLI.
var rootCmd = &cobra.Command{
	Use:   "doc-reader",
	Short: "Convert office documents to clean Markdown",
	Long: `doc-reader converts Word, Excel, PowerPoint, PDF, HTML, plain text, CSV
and JSON files into Markdown using markitdown. When markitdown cannot read a
PDF, the PDF's text layer is extracted instead.

Each converted document is previewed in the terminal and written out as
<name>_converted.md and <name>_converted.txt.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.LoadDotEnv(".env"); err != nil {
			return err
		}

		cfgFile, _ := cmd.Flags().GetString("config")
		used, err := config.Configure(viper.GetViper(), cfgFile)
		if err != nil {
			return err
		}

		loaded, err := config.Load(viper.GetViper())
		if err != nil {
			return err
		}
		cfg = loaded
		logger = logging.New(cfg.Log)

		if used != "" {
			logger.Debug().Str("file", used).Msg("using config file")
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file (default: ./doc-reader.yaml or ~/.config/doc-reader/doc-reader.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", "console", "log format: console or json")

	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}
