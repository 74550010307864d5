package main

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/yourusername/horsemen/internal/report"
	"github.com/yourusername/horsemen/internal/service"
	"github.com/yourusername/horsemen/internal/table"
)

var (
	predictModel  string
	predictFormat string
	predictHeader string
	predictOutput string
)

var predictCmd = &cobra.Command{
	Use:   "predict [input.csv]",
	Short: "Rank the entries of a race card",
	Long:  `Reads a race card CSV (or stdin when the path is "-" or omitted), scores every race with the selected model version and prints the ranked results.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if predictOutput != "" {
			cfg.Output.Path = predictOutput
		}
		format := cfg.Output.Format
		if predictFormat != "" {
			format = predictFormat
		}
		mode := table.HeaderMode(cfg.Pipeline.HeaderMode)
		if predictHeader != "" {
			mode = table.HeaderMode(predictHeader)
		}
		version := cfg.Model.Version
		if predictModel != "" {
			version = predictModel
		}

		input, err := openInput(args)
		if err != nil {
			return err
		}
		defer func() { _ = input.Close() }()

		t, err := service.ReadTable(input, mode)
		if err != nil {
			return err
		}

		dir, err := service.ResolveVersionDir(cfg.Model.Root, version, cfg.Model.Layout())
		if err != nil {
			return err
		}

		svc, _, cleanup, err := newPredictionService(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()

		run, err := svc.ExecuteFromDir(cmd.Context(), t, dir)
		if err != nil {
			return err
		}

		return report.Write(cmd.OutOrStdout(), run, format, report.Options{UseColors: !color.NoColor})
	},
}

func init() {
	predictCmd.Flags().StringVarP(&predictModel, "model", "m", "", `Model version directory name, or "latest"`)
	predictCmd.Flags().StringVarP(&predictFormat, "format", "f", "", "Output format: console, csv, json or parquet")
	predictCmd.Flags().StringVar(&predictHeader, "header", "", "Header row handling: auto, true or false")
	predictCmd.Flags().StringVarP(&predictOutput, "output", "o", "", "Also persist results to this file")
}

func openInput(args []string) (io.ReadCloser, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	f, err := os.Open(args[0])
	if err != nil {
		return nil, fmt.Errorf("failed to open input: %w", err)
	}
	return f, nil
}
