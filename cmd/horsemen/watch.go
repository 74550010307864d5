package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/yourusername/horsemen/internal/health"
	"github.com/yourusername/horsemen/internal/metrics"
	"github.com/yourusername/horsemen/internal/scheduler"
	"github.com/yourusername/horsemen/internal/service"
	"github.com/yourusername/horsemen/internal/table"
)

var watchCmd = &cobra.Command{
	Use:   "watch [input.csv]",
	Short: "Re-rank a race card on a schedule",
	Long:  `Checks the input file on the configured cron schedule and re-runs the pipeline whenever it changed. Results go to the configured output path and database.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		input := cfg.Schedule.InputPath
		if len(args) == 1 {
			input = args[0]
		}
		if input == "" {
			return fmt.Errorf("no input file: pass one or set schedule.input_path")
		}
		if cfg.Schedule.Cron == "" {
			return fmt.Errorf("schedule.cron is not set")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if cfg.Metrics.Enabled {
			metrics.InitRegistry()
		}

		svc, _, cleanup, err := newPredictionService(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		layout := cfg.Model.Layout()
		mode := table.HeaderMode(cfg.Pipeline.HeaderMode)
		run := func(ctx context.Context, path string) error {
			f, err := os.Open(path)
			if err != nil {
				return err
			}
			defer func() { _ = f.Close() }()

			t, err := service.ReadTable(f, mode)
			if err != nil {
				return err
			}
			dir, err := service.ResolveVersionDir(cfg.Model.Root, cfg.Model.Version, layout)
			if err != nil {
				return err
			}
			_, err = svc.ExecuteFromDir(ctx, t, dir)
			return err
		}

		sched := scheduler.NewScheduler(appLog)
		if err := sched.ScheduleWatch(cfg.Schedule.Cron, input, run); err != nil {
			return err
		}
		if err := sched.Start(); err != nil {
			return err
		}

		healthSrv := health.NewServer(health.Config{
			ServiceName: cfg.App.Name,
			Version:     Version,
			Commit:      GitCommit,
			Port:        fmt.Sprint(cfg.Server.Port),
			Logger:      appLog,
		})
		if err := healthSrv.Start(ctx); err != nil {
			return err
		}
		healthSrv.SetReady(true)

		appLog.WithField("next_run", sched.GetNextRun()).Info("Watching input")
		<-ctx.Done()

		healthSrv.SetReady(false)
		return sched.Stop()
	},
}
