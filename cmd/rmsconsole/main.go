package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rmsconsole/rmsconsole/internal/config"
	"github.com/rmsconsole/rmsconsole/internal/logging"
	"github.com/rmsconsole/rmsconsole/internal/reason"
	"github.com/rmsconsole/rmsconsole/internal/server"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		logrus.Fatal(err)
	}
}

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "rmsconsole",
		Short: "RMS Console - Return Management System admin configuration panel",
		Long: `RMS Console serves the admin configuration panel of a Return Management
System: return and exchange policies, refund modes, payment adjustments and
the return reason catalog, with an embedded web interface.`,
		Version:      fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		RunE:         runServer,
		SilenceUsage: true,
	}

	// Add configuration flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().StringP("listen", "l", ":8090", "Listen address")
	rootCmd.PersistentFlags().StringP("log-level", "", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringP("log-format", "", "json", "Log format (json, text)")
	rootCmd.PersistentFlags().StringP("public-console-url", "", "http://localhost:8090", "Public URL of the console")
	rootCmd.PersistentFlags().StringP("tls-cert", "", "", "TLS certificate file")
	rootCmd.PersistentFlags().StringP("tls-key", "", "", "TLS key file")

	rootCmd.AddCommand(newSeedCommand())
	return rootCmd
}

// newSeedCommand prints the reason catalog a fresh workspace starts with,
// ready to be edited and passed back as reasons.seed_file
func newSeedCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Print the reason seed as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			seed, err := reason.DefaultSeed()
			if file, _ := cmd.Flags().GetString("file"); file != "" {
				seed, err = reason.LoadSeedFile(file)
			}
			if err != nil {
				return err
			}
			return reason.WriteSeed(cmd.OutOrStdout(), seed)
		},
	}
	cmd.Flags().StringP("file", "f", "", "Validate and print this seed file instead of the built-in one")
	return cmd
}

func runServer(cmd *cobra.Command, args []string) error {
	// Load configuration
	cfg, err := config.Load(cmd)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Setup logging
	setupLogging(cfg.LogLevel, cfg.LogFormat)

	// Ship logs to the configured external targets
	logManager := logging.NewManager(logrus.StandardLogger())
	if err := logManager.Configure(cfg.Logging.Targets); err != nil {
		return fmt.Errorf("failed to configure log targets: %w", err)
	}
	defer logManager.Close()

	logrus.WithFields(logrus.Fields{
		"version": version,
		"commit":  commit,
		"date":    date,
	}).Info("Starting RMS console")

	srv, err := server.New(cfg, logrus.StandardLogger())
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle graceful shutdown
	go func() {
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		<-c
		logrus.Info("Received shutdown signal")
		cancel()
	}()

	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	logrus.Info("RMS console stopped")
	return nil
}

func setupLogging(level, format string) {
	switch format {
	case "text":
		logrus.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.RFC3339,
		})
	default:
		logrus.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339,
		})
	}

	switch level {
	case "debug":
		logrus.SetLevel(logrus.DebugLevel)
	case "info":
		logrus.SetLevel(logrus.InfoLevel)
	case "warn":
		logrus.SetLevel(logrus.WarnLevel)
	case "error":
		logrus.SetLevel(logrus.ErrorLevel)
	default:
		logrus.SetLevel(logrus.InfoLevel)
	}
}
