package tiles

import (
	"errors"
	"fmt"
)

const (
	DefaultMinNeighbors = 6
	DefaultPadding      = 1
)

// ErrEmptyIndex signals that no tiles were indexed for the requested zooms.
// It is distinct from a successful inference that found no gaps.
var ErrEmptyIndex = errors.New("no tiles found")

// InferOptions controls gap inference. A nil Zoom inspects every level.
type InferOptions struct {
	Zoom         *int
	MinNeighbors int
	Padding      int
}

func DefaultInferOptions() InferOptions {
	return InferOptions{MinNeighbors: DefaultMinNeighbors, Padding: DefaultPadding}
}

func (o InferOptions) Validate() error {
	if o.MinNeighbors < 0 || o.MinNeighbors > 8 {
		return fmt.Errorf("min neighbors must be within [0,8], got %d", o.MinNeighbors)
	}
	if o.Padding < 0 {
		return fmt.Errorf("padding must not be negative, got %d", o.Padding)
	}
	if o.Zoom != nil && *o.Zoom < 0 {
		return fmt.Errorf("zoom must not be negative, got %d", *o.Zoom)
	}
	return nil
}

// MissingTile is an interior cell absent from the index whose neighbourhood
// is dense enough to suggest the tile should exist.
type MissingTile struct {
	Z            int    `json:"z" yaml:"z"`
	X            int    `json:"x" yaml:"x"`
	Y            int    `json:"y" yaml:"y"`
	Neighbors    int    `json:"neighbors" yaml:"neighbors"`
	ExpectedPath string `json:"expected_path" yaml:"expected_path"`
}

var neighborOffsets = [8]Point{
	{-1, 0}, {1, 0},
	{0, -1}, {0, 1},
	{-1, -1}, {-1, 1},
	{1, -1}, {1, 1},
}

// Infer flags absent cells inside each zoom's padded bounding box that have
// at least MinNeighbors of their 8 neighbours present. Results are ordered
// by zoom, then x, then y.
func Infer(idx *Index, opts InferOptions) ([]MissingTile, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	zooms := idx.Zooms()
	if opts.Zoom != nil {
		if idx.Count(*opts.Zoom) == 0 {
			return nil, fmt.Errorf("zoom %d: %w", *opts.Zoom, ErrEmptyIndex)
		}
		zooms = []int{*opts.Zoom}
	}
	if len(zooms) == 0 {
		return nil, ErrEmptyIndex
	}

	missing := []MissingTile{}
	for _, z := range zooms {
		missing = inferZoom(idx, z, opts, missing)
	}
	return missing, nil
}

func inferZoom(idx *Index, z int, opts InferOptions, out []MissingTile) []MissingTile {
	b, ok := idx.Bounds(z)
	if !ok {
		return out
	}
	set := idx.sets[z]

	x0, x1 := b.MinX+opts.Padding, b.MaxX-opts.Padding
	y0, y1 := b.MinY+opts.Padding, b.MaxY-opts.Padding
	for x := x0; x <= x1; x++ {
		for y := y0; y <= y1; y++ {
			if _, ok := set[Point{X: x, Y: y}]; ok {
				continue
			}
			n := 0
			for _, off := range neighborOffsets {
				if _, ok := set[Point{X: x + off.X, Y: y + off.Y}]; ok {
					n++
				}
			}
			if n >= opts.MinNeighbors {
				c := Coord{Z: z, X: x, Y: y}
				out = append(out, MissingTile{Z: z, X: x, Y: y, Neighbors: n, ExpectedPath: c.ExpectedPath()})
			}
		}
	}
	return out
}

// ZoomSummary describes one zoom level of an index and its inferred gaps.
type ZoomSummary struct {
	Zoom    int    `json:"zoom" yaml:"zoom"`
	Tiles   int    `json:"tiles" yaml:"tiles"`
	Bounds  Bounds `json:"bounds" yaml:"bounds"`
	Missing int    `json:"missing" yaml:"missing"`
}

// Summarize groups missing tiles by zoom alongside the index statistics.
// Zooms with no tiles in idx are omitted.
func Summarize(idx *Index, missing []MissingTile) []ZoomSummary {
	perZoom := make(map[int]int)
	for _, m := range missing {
		perZoom[m.Z]++
	}

	out := make([]ZoomSummary, 0, len(idx.sets))
	for _, z := range idx.Zooms() {
		b, _ := idx.Bounds(z)
		out = append(out, ZoomSummary{Zoom: z, Tiles: idx.Count(z), Bounds: b, Missing: perZoom[z]})
	}
	return out
}
