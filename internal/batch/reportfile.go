// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package batch

import (
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/hoohahaBIGHEAD/PdfParsing/pkg/types"
)

// ReportFile is the on-disk record of one batch run, written into the
// output directory so a run can be audited without re-parsing logs.
type ReportFile struct {
	RunID     string       `yaml:"run_id"`
	StartedAt time.Time    `yaml:"started_at"`
	Config    ReportConfig `yaml:"config"`
	Summary   ReportTotals `yaml:"summary"`
	Items     []ItemResult `yaml:"items"`
}

// ReportConfig echoes the settings that produced the run.
type ReportConfig struct {
	InputDir  string                  `yaml:"input_dir"`
	OutputDir string                  `yaml:"output_dir"`
	Backend   types.ConversionBackend `yaml:"backend"`
	Workers   int                     `yaml:"workers"`
	Device    types.DeviceClass       `yaml:"device,omitempty"`
}

// ReportTotals stores the aggregated statistics.
type ReportTotals struct {
	Total        int     `yaml:"total"`
	Succeeded    int     `yaml:"succeeded"`
	Failed       int     `yaml:"failed"`
	MeanSeconds  float64 `yaml:"mean_seconds"`
	TotalSeconds float64 `yaml:"total_seconds"`
}

// ItemResult stores one outcome in serializable form.
type ItemResult struct {
	Name    string  `yaml:"name"`
	OK      bool    `yaml:"ok"`
	Message string  `yaml:"message,omitempty"`
	Seconds float64 `yaml:"seconds"`
	Assets  int     `yaml:"assets,omitempty"`
}

// WriteReportFile saves the run record to a YAML file at path.
func WriteReportFile(path, runID string, cfg types.BatchConfig, result *RunResult) error {
	rf := ReportFile{
		RunID:     runID,
		StartedAt: result.StartedAt.UTC(),
		Config: ReportConfig{
			InputDir:  cfg.InputDir,
			OutputDir: cfg.OutputDir,
			Backend:   cfg.Converter.Backend,
			Workers:   result.Workers,
			Device:    result.Device,
		},
		Summary: ReportTotals{
			Total:        result.Summary.Total,
			Succeeded:    result.Summary.Succeeded,
			Failed:       result.Summary.Failed,
			MeanSeconds:  result.Summary.MeanSeconds,
			TotalSeconds: result.Summary.TotalElapsed.Seconds(),
		},
	}

	for _, o := range result.Outcomes {
		rf.Items = append(rf.Items, ItemResult{
			Name:    o.Item.Name,
			OK:      o.OK,
			Message: o.Message,
			Seconds: o.Seconds(),
			Assets:  o.AssetCount,
		})
	}

	data, err := yaml.Marshal(&rf)
	if err != nil {
		return fmt.Errorf("encoding run report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing run report %s: %w", path, err)
	}
	return nil
}
