package tiles

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
)

// DefaultPattern matches the conventional z/x/y.png layout.
const DefaultPattern = `(\d+)/(\d+)/(\d+)\.png$`

// ErrBadPattern is returned when a coordinate pattern cannot yield a z/x/y triple.
var ErrBadPattern = errors.New("invalid coordinate pattern")

// Coord addresses one tile of the pyramid.
type Coord struct {
	Z int
	X int
	Y int
}

func (c Coord) String() string {
	return fmt.Sprintf("%d/%d/%d", c.Z, c.X, c.Y)
}

// ExpectedPath is the conventional relative path of the tile.
func (c Coord) ExpectedPath() string {
	return fmt.Sprintf("%d/%d/%d.png", c.Z, c.X, c.Y)
}

// CoordParser extracts a tile coordinate from a file path.
type CoordParser interface {
	ParseCoord(path string) (Coord, bool)
}

// CoordParserFunc adapts a function to CoordParser.
type CoordParserFunc func(path string) (Coord, bool)

func (f CoordParserFunc) ParseCoord(path string) (Coord, bool) {
	return f(path)
}

// PatternParser matches a regular expression against the slash-separated
// path. Named groups z, x and y are used when all three are present,
// otherwise the first three groups are read as z, x, y.
type PatternParser struct {
	re   *regexp.Regexp
	zIdx int
	xIdx int
	yIdx int
}

func NewPatternParser(pattern string) (*PatternParser, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadPattern, err)
	}

	p := &PatternParser{re: re, zIdx: re.SubexpIndex("z"), xIdx: re.SubexpIndex("x"), yIdx: re.SubexpIndex("y")}
	if p.zIdx > 0 && p.xIdx > 0 && p.yIdx > 0 {
		return p, nil
	}
	if re.NumSubexp() < 3 {
		return nil, fmt.Errorf("%w: %q has %d groups, need 3", ErrBadPattern, pattern, re.NumSubexp())
	}
	p.zIdx, p.xIdx, p.yIdx = 1, 2, 3
	return p, nil
}

// MustPatternParser is like NewPatternParser but panics on error.
func MustPatternParser(pattern string) *PatternParser {
	p, err := NewPatternParser(pattern)
	if err != nil {
		panic(err)
	}
	return p
}

func (p *PatternParser) String() string {
	return p.re.String()
}

func (p *PatternParser) ParseCoord(path string) (Coord, bool) {
	m := p.re.FindStringSubmatch(filepath.ToSlash(path))
	if m == nil {
		return Coord{}, false
	}

	z, err := strconv.Atoi(m[p.zIdx])
	if err != nil || z < 0 {
		return Coord{}, false
	}
	x, err := strconv.Atoi(m[p.xIdx])
	if err != nil {
		return Coord{}, false
	}
	y, err := strconv.Atoi(m[p.yIdx])
	if err != nil {
		return Coord{}, false
	}
	return Coord{Z: z, X: x, Y: y}, true
}
