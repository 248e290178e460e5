package tiles

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/rs/zerolog"
)

// Point is a grid cell within one zoom level.
type Point struct {
	X int
	Y int
}

// Bounds is the inclusive bounding box of the coordinates seen at a zoom.
type Bounds struct {
	MinX int `json:"min_x" yaml:"min_x"`
	MaxX int `json:"max_x" yaml:"max_x"`
	MinY int `json:"min_y" yaml:"min_y"`
	MaxY int `json:"max_y" yaml:"max_y"`
}

func (b Bounds) Width() int  { return b.MaxX - b.MinX + 1 }
func (b Bounds) Height() int { return b.MaxY - b.MinY + 1 }

func (b *Bounds) extend(p Point) {
	if p.X < b.MinX {
		b.MinX = p.X
	}
	if p.X > b.MaxX {
		b.MaxX = p.X
	}
	if p.Y < b.MinY {
		b.MinY = p.Y
	}
	if p.Y > b.MaxY {
		b.MaxY = p.Y
	}
}

// Index holds the set of existing tile coordinates per zoom level.
// It is built once and is not safe for concurrent mutation.
type Index struct {
	sets   map[int]map[Point]struct{}
	bounds map[int]Bounds
}

func NewIndex() *Index {
	return &Index{
		sets:   make(map[int]map[Point]struct{}),
		bounds: make(map[int]Bounds),
	}
}

// Add inserts c and widens the bounding box of its zoom.
func (idx *Index) Add(c Coord) {
	p := Point{X: c.X, Y: c.Y}
	set, ok := idx.sets[c.Z]
	if !ok {
		set = make(map[Point]struct{})
		idx.sets[c.Z] = set
		idx.bounds[c.Z] = Bounds{MinX: p.X, MaxX: p.X, MinY: p.Y, MaxY: p.Y}
	}
	if _, dup := set[p]; dup {
		return
	}
	set[p] = struct{}{}
	b := idx.bounds[c.Z]
	b.extend(p)
	idx.bounds[c.Z] = b
}

func (idx *Index) Has(z, x, y int) bool {
	_, ok := idx.sets[z][Point{X: x, Y: y}]
	return ok
}

// Zooms returns the populated zoom levels in ascending order.
func (idx *Index) Zooms() []int {
	zooms := make([]int, 0, len(idx.sets))
	for z := range idx.sets {
		zooms = append(zooms, z)
	}
	sort.Ints(zooms)
	return zooms
}

// Bounds reports the bounding box of zoom z; ok is false when z has no tiles.
func (idx *Index) Bounds(z int) (Bounds, bool) {
	b, ok := idx.bounds[z]
	return b, ok
}

func (idx *Index) Count(z int) int {
	return len(idx.sets[z])
}

// Len is the total number of distinct tiles across all zooms.
func (idx *Index) Len() int {
	n := 0
	for _, set := range idx.sets {
		n += len(set)
	}
	return n
}

func (idx *Index) Empty() bool {
	return len(idx.sets) == 0
}

// Points returns the cells of zoom z sorted by x, then y.
func (idx *Index) Points(z int) []Point {
	set := idx.sets[z]
	points := make([]Point, 0, len(set))
	for p := range set {
		points = append(points, p)
	}
	sort.Slice(points, func(i, j int) bool {
		if points[i].X != points[j].X {
			return points[i].X < points[j].X
		}
		return points[i].Y < points[j].Y
	})
	return points
}

// Build walks root and indexes every regular file the parser recognises.
// Paths the parser rejects are skipped. An index with no tiles is returned
// without error; callers distinguish it with Empty.
func Build(ctx context.Context, root string, parser CoordParser) (*Index, error) {
	logger := zerolog.Ctx(ctx)
	idx := NewIndex()

	if _, err := os.Stat(root); err != nil {
		return nil, err
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	seen, skipped := 0, 0
	fsys := os.DirFS(absRoot)
	err = fs.WalkDir(fsys, ".", func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}

		seen++
		coord, ok := parser.ParseCoord(filepath.Join(absRoot, path))
		if !ok {
			skipped++
			return nil
		}
		idx.Add(coord)
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Debug().
		Str("root", absRoot).
		Int("files", seen).
		Int("skipped", skipped).
		Int("tiles", idx.Len()).
		Int("zooms", len(idx.sets)).
		Msg("tile index built")

	return idx, nil
}
