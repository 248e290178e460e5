package processor

import (
	"fmt"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// RGB is a target color. Pixels match only on exact channel equality.
type RGB struct {
	R uint8
	G uint8
	B uint8
}

var (
	White = RGB{R: 255, G: 255, B: 255}
	Black = RGB{}
)

// DefaultTargets are the colors of blank and void rendering artifacts.
func DefaultTargets() []RGB {
	return []RGB{White, Black}
}

func (c RGB) String() string {
	switch c {
	case White:
		return "white"
	case Black:
		return "black"
	}
	return colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}.Hex()
}

func (c RGB) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *RGB) UnmarshalText(text []byte) error {
	parsed, err := ParseColor(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseColor accepts "white", "black" or a hex triplet such as "#ff00aa".
func ParseColor(s string) (RGB, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "white":
		return White, nil
	case "black":
		return Black, nil
	case "":
		return RGB{}, fmt.Errorf("empty color")
	}
	if !strings.HasPrefix(s, "#") {
		s = "#" + s
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return RGB{}, fmt.Errorf("parse color %q: %w", s, err)
	}
	r, g, b := c.RGB255()
	return RGB{R: r, G: g, B: b}, nil
}

// ParseColors parses every entry and drops duplicates, keeping first-seen order.
func ParseColors(values []string) ([]RGB, error) {
	out := make([]RGB, 0, len(values))
	seen := make(map[RGB]bool)
	for _, v := range values {
		c, err := ParseColor(v)
		if err != nil {
			return nil, err
		}
		if seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out, nil
}
