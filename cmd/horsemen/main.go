// Package main provides the horsemen command: it ranks race entries by AI index
// and serves the results.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/horsemen/internal/config"
	"github.com/yourusername/horsemen/internal/database"
	"github.com/yourusername/horsemen/internal/logger"
	"github.com/yourusername/horsemen/internal/report"
	"github.com/yourusername/horsemen/internal/repository"
	"github.com/yourusername/horsemen/internal/service"
)

// Build information - set via ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var (
	configFile string
	logLevel   string
	cfg        *config.Config
	appLog     *logrus.Logger
)

var rootCmd = &cobra.Command{
	Use:           "horsemen",
	Short:         "Rank race entries by AI index",
	Long:          `Scores every entry of a race card against historical sire, jockey, trainer, breeder and course/post statistics and ranks each race by win probability.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(cmd.Context()); err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", config.DefaultConfigPath, "Path to configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override the configured log level")

	rootCmd.AddCommand(predictCmd, serveCmd, watchCmd, modelsCmd, statsCmd, versionCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(ctx context.Context) error {
	var err error
	cfg, err = config.LoadWithDefaults(configFile)
	if err != nil {
		return err
	}
	if logLevel != "" {
		cfg.App.LogLevel = logLevel
	}

	secretsCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := config.LoadSecretsFromAWS(secretsCtx, cfg); err != nil {
		return fmt.Errorf("failed to load secrets: %w", err)
	}

	if err := config.Validate(cfg); err != nil {
		return err
	}

	appLog = logger.NewLoggerFor(cfg.App.LogLevel, cfg.App.Environment, os.Stderr)
	appLog.WithFields(logrus.Fields{
		"environment": cfg.App.Environment,
		"config":      configFile,
		"scorer":      cfg.Scorer.Kind,
	}).Debug("Configuration loaded")
	return nil
}

// newPredictionService builds the pipeline with the configured sinks. The
// returned cleanup closes the database pool when one was opened.
func newPredictionService(ctx context.Context, extra ...service.RunSink) (*service.PredictionService, *repository.Repositories, func(), error) {
	sinks := append([]service.RunSink{}, extra...)
	if cfg.Output.Path != "" {
		sinks = append(sinks, report.NewFileSink(cfg.Output.Path, cfg.Output.Format, appLog))
	}

	cleanup := func() {}
	var repos *repository.Repositories
	if cfg.Database.Enabled {
		db, err := database.Initialize(ctx, cfg)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		cleanup = db.Close

		repos, err = repository.NewRepositories(db)
		if err != nil {
			db.Close()
			return nil, nil, nil, err
		}
		sinks = append(sinks, repos.Prediction)
		appLog.Info("Database connection established")
	}

	svc := service.NewPredictionService(service.Options{
		Workers: cfg.Pipeline.Workers,
		Layout:  cfg.Model.Layout(),
		Scorer:  cfg.Scorer,
	}, appLog, sinks...)

	return svc, repos, cleanup, nil
}
