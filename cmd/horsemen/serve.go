package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"

	"github.com/yourusername/horsemen/internal/api"
	"github.com/yourusername/horsemen/internal/health"
	"github.com/yourusername/horsemen/internal/metrics"
	"github.com/yourusername/horsemen/internal/ml"
	"github.com/yourusername/horsemen/internal/service"
	"github.com/yourusername/horsemen/internal/stats"
	"github.com/yourusername/horsemen/internal/table"
)

var grpcPort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the prediction API",
	Long:  `Serves the prediction, results and model listing endpoints, pushes every completed run to websocket clients and optionally exposes the embedded model as a gRPC scorer.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if cfg.Metrics.Enabled {
			metrics.InitRegistry()
		}

		hub := api.NewHub(appLog)
		svc, repos, cleanup, err := newPredictionService(ctx, hub)
		if err != nil {
			return err
		}
		defer cleanup()

		layout := cfg.Model.Layout()
		checks := map[string]health.CheckFunc{
			"models": func(context.Context) error {
				_, err := service.ResolveVersionDir(cfg.Model.Root, service.LatestVersion, layout)
				return err
			},
		}
		healthCfg := health.Config{
			ServiceName: cfg.App.Name,
			Version:     Version,
			Commit:      GitCommit,
			Logger:      appLog,
			Checks:      checks,
		}
		var runs api.RunStore
		if repos != nil {
			runs = repos.Prediction
			healthCfg.DB = repos.DB
		}

		resultsPath := cfg.Output.Path
		metricsPath := ""
		if cfg.Metrics.Enabled {
			metricsPath = cfg.Metrics.Path
		}

		server := api.NewServer(api.Config{
			Port:           cfg.Server.Port,
			ReadTimeout:    time.Duration(cfg.Server.ReadTimeout) * time.Second,
			WriteTimeout:   time.Duration(cfg.Server.WriteTimeout) * time.Second,
			MaxUploadBytes: int64(cfg.Server.MaxUploadMB) << 20,
			ModelRoot:      cfg.Model.Root,
			DefaultVersion: cfg.Model.Version,
			Layout:         layout,
			HeaderMode:     table.HeaderMode(cfg.Pipeline.HeaderMode),
			ResultsPath:    resultsPath,
			MetricsPath:    metricsPath,
		}, svc, runs, hub, health.NewServer(healthCfg), appLog)

		if grpcPort > 0 {
			stopGRPC, err := serveGRPCScorer(ctx, layout)
			if err != nil {
				return err
			}
			defer stopGRPC()
		}

		return server.Run(ctx)
	},
}

func init() {
	serveCmd.Flags().IntVar(&grpcPort, "grpc-port", 0, "Also serve the embedded model over gRPC on this port")
}

// serveGRPCScorer exposes the configured model version as a remote scorer
func serveGRPCScorer(ctx context.Context, layout stats.Layout) (func(), error) {
	dir, err := service.ResolveVersionDir(cfg.Model.Root, cfg.Model.Version, layout)
	if err != nil {
		return nil, err
	}
	model, err := ml.LoadLogisticModel(layout.Path(dir, stats.TableModel))
	if err != nil {
		return nil, err
	}

	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", grpcPort))
	if err != nil {
		return nil, fmt.Errorf("failed to listen on gRPC port: %w", err)
	}

	srv := grpc.NewServer()
	ml.RegisterScorerServer(srv, model)

	go func() {
		appLog.WithField("port", grpcPort).WithField("model_version", model.Version()).Info("gRPC scorer starting")
		if err := srv.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			appLog.WithError(err).Error("gRPC scorer stopped")
		}
	}()

	return srv.GracefulStop, nil
}
