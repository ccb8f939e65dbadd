package main

import (
	"fmt"
	"os"

	"deedles.dev/strata/internal/config"
	"deedles.dev/strata/internal/logger"
	"deedles.dev/wlr"
	"github.com/spf13/cobra"
)

var (
	configPath string
	logLevel   string
	startup    []string
)

var rootCmd = &cobra.Command{
	Use:          "strata",
	Short:        "A wlroots compositor with a layer shell",
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	rootCmd.Flags().StringVar(&configPath, "config", "", "path to the config file")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.Flags().StringSliceVar(&startup, "startup", nil, "command to run once the compositor is up")
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("startup") {
		cfg.Startup = startup
	}

	level := cfg.Log.Level
	if logLevel != "" {
		level = logLevel
	}
	if level != "" {
		logger.SetLevel(level)
	}

	wlrLog := logger.For("wlroots")
	wlr.InitLog(wlr.Info, func(importance wlr.LogImportance, msg string) {
		switch importance {
		case wlr.Error:
			wlrLog.Error(msg)
		case wlr.Info:
			wlrLog.Info(msg)
		default:
			wlrLog.Debug(msg)
		}
	})

	server, err := NewServer(cfg)
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}

	err = server.Start()
	if err != nil {
		return fmt.Errorf("start server: %w", err)
	}

	return server.Run()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
