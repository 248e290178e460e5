package config

import (
	"errors"
	"fmt"
	"runtime"
	"strings"

	"github.com/spf13/viper"

	"tilesweep/internal/processor"
	"tilesweep/internal/tiles"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid configuration")

const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

type Log struct {
	Level  string
	Format string
}

// Missing configures missing-tile detection. A negative Zoom inspects every level.
type Missing struct {
	Zoom         int
	Pattern      string
	MinNeighbors int
	Padding      int
	HTML         string
	NoHTML       bool
	Format       string
}

// Pixels configures uniform-color run detection. Workers of zero means one
// worker per logical CPU and is replaced by Resolve.
type Pixels struct {
	Threshold     int
	Colors        []string
	Workers       int
	Exts          []string
	AutoDelete    bool
	DryRun        bool
	Viewer        string
	ProgressEvery int
	NoTUI         bool
	Format        string
}

func DefaultLog() Log {
	return Log{Level: "info", Format: "console"}
}

func DefaultMissing() Missing {
	return Missing{
		Zoom:         -1,
		Pattern:      tiles.DefaultPattern,
		MinNeighbors: tiles.DefaultMinNeighbors,
		Padding:      tiles.DefaultPadding,
		HTML:         "missing_tiles_visualization.html",
		Format:       FormatTable,
	}
}

func DefaultPixels() Pixels {
	return Pixels{
		Threshold:     100,
		Colors:        []string{"white", "black"},
		Exts:          []string{".png"},
		ProgressEvery: processor.DefaultProgressEvery,
		Format:        FormatTable,
	}
}

func LoadLog(v *viper.Viper) Log {
	return Log{
		Level:  v.GetString("log-level"),
		Format: v.GetString("log-format"),
	}
}

func LoadMissing(v *viper.Viper) (Missing, error) {
	cfg := Missing{
		Zoom:         v.GetInt("zoom"),
		Pattern:      v.GetString("pattern"),
		MinNeighbors: v.GetInt("min-neighbors"),
		Padding:      v.GetInt("padding"),
		HTML:         v.GetString("html"),
		NoHTML:       v.GetBool("no-html"),
		Format:       strings.ToLower(v.GetString("format")),
	}
	return cfg, cfg.Validate()
}

func LoadPixels(v *viper.Viper) (Pixels, error) {
	cfg := Pixels{
		Threshold:     v.GetInt("threshold"),
		Colors:        splitList(v.GetStringSlice("colors")),
		Workers:       v.GetInt("workers"),
		Exts:          splitList(v.GetStringSlice("ext")),
		AutoDelete:    v.GetBool("auto-delete"),
		DryRun:        v.GetBool("dry-run"),
		Viewer:        v.GetString("viewer"),
		ProgressEvery: v.GetInt("progress-every"),
		NoTUI:         v.GetBool("no-tui"),
		Format:        strings.ToLower(v.GetString("format")),
	}
	return cfg, cfg.Validate()
}

// InferOptions converts the configuration for tiles.Infer.
func (m Missing) InferOptions() tiles.InferOptions {
	opts := tiles.InferOptions{MinNeighbors: m.MinNeighbors, Padding: m.Padding}
	if m.Zoom >= 0 {
		zoom := m.Zoom
		opts.Zoom = &zoom
	}
	return opts
}

func (m Missing) Validate() error {
	if m.Zoom < -1 {
		return fmt.Errorf("%w: zoom must be -1 (all levels) or a zoom level, got %d", ErrInvalid, m.Zoom)
	}
	if _, err := tiles.NewPatternParser(m.Pattern); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if m.MinNeighbors < 0 || m.MinNeighbors > 8 {
		return fmt.Errorf("%w: min-neighbors must be within [0,8], got %d", ErrInvalid, m.MinNeighbors)
	}
	if m.Padding < 0 {
		return fmt.Errorf("%w: padding must not be negative, got %d", ErrInvalid, m.Padding)
	}
	if !m.NoHTML && strings.TrimSpace(m.HTML) == "" {
		return fmt.Errorf("%w: html output path is empty", ErrInvalid)
	}
	return validateFormat(m.Format)
}

func (p Pixels) Validate() error {
	if p.Threshold < 1 {
		return fmt.Errorf("%w: threshold must be positive, got %d", ErrInvalid, p.Threshold)
	}
	if p.Workers < 0 {
		return fmt.Errorf("%w: workers must not be negative, got %d", ErrInvalid, p.Workers)
	}
	if p.ProgressEvery < 1 {
		return fmt.Errorf("%w: progress-every must be positive, got %d", ErrInvalid, p.ProgressEvery)
	}
	if len(p.Colors) == 0 {
		return fmt.Errorf("%w: at least one color is required", ErrInvalid)
	}
	if _, err := processor.ParseColors(p.Colors); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if len(p.Exts) == 0 {
		return fmt.Errorf("%w: at least one extension is required", ErrInvalid)
	}
	if p.AutoDelete && p.DryRun {
		return fmt.Errorf("%w: auto-delete cannot be combined with dry-run", ErrInvalid)
	}
	return validateFormat(p.Format)
}

// Resolve fills in host-dependent defaults. It is called once per run.
func (p Pixels) Resolve() Pixels {
	if p.Workers == 0 {
		p.Workers = runtime.NumCPU()
	}
	return p
}

// Targets parses the configured colors.
func (p Pixels) Targets() ([]processor.RGB, error) {
	return processor.ParseColors(p.Colors)
}

// splitList flattens comma-separated entries. Values from TILESWEEP_*
// variables and config strings reach viper unsplit.
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func validateFormat(format string) error {
	switch format {
	case FormatTable, FormatJSON, FormatYAML:
		return nil
	}
	return fmt.Errorf("%w: unknown format %q", ErrInvalid, format)
}
