package report

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/yourusername/horsemen/internal/models"
)

var consoleHeaders = []string{"Rank", "Mark", "Post", "No.", "Horse", "Jockey", "AI Index", "Post Mark", "Sire"}

type palette struct {
	notable, strong, weak func(...any) string
}

func newPalette(useColors bool) palette {
	if !useColors {
		return palette{notable: fmt.Sprint, strong: fmt.Sprint, weak: fmt.Sprint}
	}
	return palette{
		notable: color.New(color.FgYellow, color.Bold).SprintFunc(),
		strong:  color.New(color.FgGreen).SprintFunc(),
		weak:    color.New(color.FgRed).SprintFunc(),
	}
}

func (p palette) postMark(m models.PostMark) string {
	switch m {
	case models.PostStrongFavorable, models.PostFavorable:
		return p.strong(string(m))
	case models.PostUnfavorable:
		return p.weak(string(m))
	default:
		return string(m)
	}
}

// writeConsole prints one table per race, in run order
func writeConsole(w io.Writer, run *models.PredictionRun, opts Options) error {
	colors := newPalette(opts.UseColors)

	var start int
	for start < len(run.Results) {
		first := run.Results[start]
		end := start
		for end < len(run.Results) && run.Results[end].Venue == first.Venue && run.Results[end].RaceNumber == first.RaceNumber {
			end++
		}

		key := models.RaceKey{Venue: first.Venue, RaceNumber: first.RaceNumber}
		if _, err := fmt.Fprintf(w, "\n%s %s\n", key, first.RaceName); err != nil {
			return err
		}
		if err := writeRaceTable(w, run.Results[start:end], colors); err != nil {
			return err
		}
		start = end
	}

	if _, err := fmt.Fprintf(w, "\nRanked %d entries in %d races (%d notable, %d rows skipped) with model %s in %v\n",
		run.Entries, run.Races, run.NotableCount(), run.Skipped, run.ModelVersion, run.Duration); err != nil {
		return err
	}
	return nil
}

func writeRaceTable(w io.Writer, results []models.RankedResult, colors palette) error {
	table := tablewriter.NewWriter(w)
	defer func() { _ = table.Close() }()

	table.Header(consoleHeaders)
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	data := make([][]string, 0, len(results))
	for _, r := range results {
		mark := r.Mark
		if mark != "" {
			mark = colors.notable(mark)
		}
		data = append(data, []string{
			fmt.Sprint(r.Rank),
			mark,
			fmt.Sprint(r.Post),
			r.HorseNumber,
			r.HorseName,
			r.Jockey,
			formatIndex(r.AIIndex),
			colors.postMark(r.PostMark),
			r.Sire,
		})
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}
