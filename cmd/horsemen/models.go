package main

import (
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/yourusername/horsemen/internal/stats"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List model versions",
	Long:  `Lists the version directories under the models root and the artifacts each one is missing.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		versions, err := stats.ListVersions(cfg.Model.Root, cfg.Model.Layout())
		if err != nil {
			return err
		}

		ok := color.New(color.FgGreen).SprintFunc()
		bad := color.New(color.FgRed).SprintFunc()

		table := tablewriter.NewWriter(cmd.OutOrStdout())
		defer func() { _ = table.Close() }()
		table.Header([]string{"Version", "Status", "Modified", "Missing"})

		var data [][]string
		for _, v := range versions {
			status := ok("ready")
			if !v.IsUsable() {
				status = bad("incomplete")
			}
			data = append(data, []string{
				v.Name,
				status,
				v.ModifiedAt.Format("2006-01-02 15:04"),
				strings.Join(v.Missing, ", "),
			})
		}

		if err := table.Bulk(data); err != nil {
			return err
		}
		return table.Render()
	},
}
