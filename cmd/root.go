package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kilianp07/batteryhealth/app"
	"github.com/kilianp07/batteryhealth/config"
	"github.com/kilianp07/batteryhealth/infra/logger"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:          "battery-health",
	Short:        "EV battery health prediction service",
	SilenceUsage: true,
	RunE:         run,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Load the model and serve the form, JSON API and MQTT adapter",
	RunE:  run,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "config.yaml", "configuration file")
	rootCmd.AddCommand(serveCmd)
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

func run(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.New("main").Errorf("service close: %v", err)
		}
	}()
	return svc.Run(ctx)
}
