package report

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/servoloop/internal/storage"
)

type ExportData struct {
	ID       string             `json:"id"`
	Source   string             `json:"source"`
	Preset   string             `json:"preset,omitempty"`
	PeriodMS int                `json:"period_ms"`
	Cycles   int                `json:"cycles"`
	Channels []string           `json:"channels"`
	Times    []float64          `json:"times_ms"`
	Angles   [][]float64        `json:"angles"`
	Targets  [][]float64        `json:"targets"`
	Metrics  map[string]float64 `json:"metrics"`
}

func NewExportData(meta *storage.RunMetadata, series *storage.Series) ExportData {
	return ExportData{
		ID:       meta.ID,
		Source:   meta.Source,
		Preset:   meta.Preset,
		PeriodMS: meta.PeriodMS,
		Cycles:   len(series.Times),
		Channels: series.Channels,
		Times:    series.Times,
		Angles:   series.Angles,
		Targets:  series.Targets,
		Metrics:  meta.Metrics,
	}
}

func ExportJSON(w io.Writer, data ExportData) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

func ExportJSONFile(path string, data ExportData) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return ExportJSON(f, data)
}
