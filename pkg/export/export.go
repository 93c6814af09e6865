// Package export serializes engine summaries for reporting.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"

	"github.com/kilianp07/resilience/core/model"
)

// WriteJSON writes the summary to w in JSON format.
func WriteJSON(w io.Writer, s *model.ResilienceSummary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}

// WriteCSV writes the per-duration statistics to w, one row per outage
// duration step.
func WriteCSV(w io.Writer, s *model.ResilienceSummary) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"duration_steps", "mean_survival", "min_survival", "fuel_survival"}); err != nil {
		return err
	}
	for d := range s.MeanSurvivalByDuration {
		rec := []string{
			strconv.Itoa(d + 1),
			formatFloat(s.MeanSurvivalByDuration[d]),
			formatFloat(s.MinSurvivalByDuration[d]),
			formatFloat(s.FuelSurvivalByDuration[d]),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
