package report

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"tilesweep/internal/processor"
	"tilesweep/internal/tiles"
)

// MissingReport is the machine-readable result of missing-tile detection.
type MissingReport struct {
	Tiles   int                 `json:"tiles" yaml:"tiles"`
	Zooms   []tiles.ZoomSummary `json:"zooms" yaml:"zooms"`
	Missing []tiles.MissingTile `json:"missing" yaml:"missing"`
}

func NewMissingReport(idx *tiles.Index, missing []tiles.MissingTile) MissingReport {
	if missing == nil {
		missing = []tiles.MissingTile{}
	}
	return MissingReport{Tiles: idx.Len(), Zooms: tiles.Summarize(idx, missing), Missing: missing}
}

// DefectReport is the machine-readable result of pixel-run detection.
type DefectReport struct {
	Threshold int           `json:"threshold" yaml:"threshold"`
	Total     int           `json:"total" yaml:"total"`
	Scanned   int           `json:"scanned" yaml:"scanned"`
	Errors    int           `json:"errors" yaml:"errors"`
	Detected  int           `json:"detected" yaml:"detected"`
	Files     []DefectEntry `json:"files" yaml:"files"`
}

type DefectEntry struct {
	Path     string         `json:"path" yaml:"path"`
	Status   string         `json:"status" yaml:"status"`
	Error    string         `json:"error,omitempty" yaml:"error,omitempty"`
	Runs     map[string]int `json:"runs,omitempty" yaml:"runs,omitempty"`
	Detected bool           `json:"detected" yaml:"detected"`
}

// NewDefectReport lists detected and failed files; clean files are counted only.
func NewDefectReport(results []processor.Result, threshold int) DefectReport {
	summary := processor.Summarize(results, threshold)
	rep := DefectReport{
		Threshold: threshold,
		Total:     summary.Total,
		Scanned:   summary.Scanned,
		Errors:    summary.Errors,
		Detected:  summary.Detected,
		Files:     []DefectEntry{},
	}
	for _, res := range results {
		detected := res.Detected(threshold)
		if res.Status == processor.StatusSuccess && !detected {
			continue
		}
		entry := DefectEntry{Path: res.Path, Status: res.Status.String(), Detected: detected}
		if res.Err != nil {
			entry.Error = res.Err.Error()
		}
		if len(res.Runs) > 0 {
			entry.Runs = make(map[string]int, len(res.Runs))
			for c := range res.Runs {
				entry.Runs[c.String()] = res.MaxRun(c)
			}
		}
		rep.Files = append(rep.Files, entry)
	}
	return rep
}

// Encode writes v as json or yaml.
func Encode(w io.Writer, format string, v any) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
}
