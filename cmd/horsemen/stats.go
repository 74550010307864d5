package main

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/yourusername/horsemen/internal/stats"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Inspect and convert statistics tables",
}

var statsConvertCmd = &cobra.Command{
	Use:   "convert <src-dir> <dst-dir>",
	Short: "Convert a version directory's statistics tables to Parquet",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := stats.Convert(args[0], args[1], cfg.Model.Layout())
		if err != nil {
			return err
		}

		for _, a := range out.Artifacts() {
			fmt.Fprintf(cmd.OutOrStdout(), "%-20s %s\n", a.Table, filepath.Join(args[1], a.File))
		}
		return nil
	},
}

var statsShowCmd = &cobra.Command{
	Use:   "show <version-dir>",
	Short: "Load a version directory and print table sizes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := stats.Load(args[0], cfg.Model.Layout())
		if err != nil {
			return err
		}

		sizes := store.Sizes()
		tables := make([]string, 0, len(sizes))
		for t := range sizes {
			tables = append(tables, string(t))
		}
		sort.Strings(tables)

		fmt.Fprintf(cmd.OutOrStdout(), "version %s\n", store.Version())
		for _, t := range tables {
			fmt.Fprintf(cmd.OutOrStdout(), "%-20s %d\n", t, sizes[stats.Table(t)])
		}
		return nil
	},
}

func init() {
	statsCmd.AddCommand(statsConvertCmd, statsShowCmd)
}
