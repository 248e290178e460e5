package processor

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solidImage(width, height int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func checkerboard(width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if (x+y)%2 == 0 {
				img.Set(x, y, color.White)
			} else {
				img.Set(x, y, color.Black)
			}
		}
	}
	return img
}

var gray = color.RGBA{R: 128, G: 128, B: 128, A: 255}

func TestScanImageAllWhite(t *testing.T) {
	runs := ScanImage(solidImage(10, 10, color.White), DefaultTargets())

	assert.Equal(t, RunLength{Row: 10, Col: 10}, runs[White])
	assert.Equal(t, RunLength{}, runs[Black])

	res := Result{Path: "a.png", Runs: runs, Status: StatusSuccess}
	assert.Equal(t, 10, res.MaxRun(White))
	assert.Equal(t, 0, res.MaxRun(Black))
	assert.True(t, res.Detected(5))
}

func TestScanImageCheckerboard(t *testing.T) {
	runs := ScanImage(checkerboard(16, 16), DefaultTargets())

	assert.Equal(t, 1, runs[White].Max())
	assert.Equal(t, 1, runs[Black].Max())

	res := Result{Runs: runs, Status: StatusSuccess}
	for threshold := 2; threshold < 20; threshold++ {
		assert.False(t, res.Detected(threshold), "threshold %d", threshold)
	}
}

func TestScanImageRowAndColumnAreIndependent(t *testing.T) {
	img := solidImage(12, 12, gray)
	for x := 2; x < 7; x++ {
		img.Set(x, 1, color.White)
	}
	for y := 3; y < 10; y++ {
		img.Set(9, y, color.White)
	}

	runs := ScanImage(img, []RGB{White})
	assert.Equal(t, RunLength{Row: 5, Col: 7}, runs[White])
	assert.Equal(t, 7, runs[White].Max())
}

func TestScanImageRunsResetOnMismatch(t *testing.T) {
	img := solidImage(10, 1, color.Black)
	img.Set(4, 0, gray)

	runs := ScanImage(img, []RGB{Black})
	assert.Equal(t, RunLength{Row: 5, Col: 1}, runs[Black])
}

func TestScanImageIgnoresDiagonals(t *testing.T) {
	img := solidImage(8, 8, gray)
	for i := 0; i < 8; i++ {
		img.Set(i, i, color.White)
	}

	runs := ScanImage(img, []RGB{White})
	assert.Equal(t, RunLength{Row: 1, Col: 1}, runs[White])
}

func TestScanImageIgnoresAlpha(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 6, 3))
	for y := 0; y < 3; y++ {
		for x := 0; x < 6; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: 255, G: 255, B: 255, A: uint8(x * 40)})
		}
	}

	runs := ScanImage(img, []RGB{White})
	assert.Equal(t, RunLength{Row: 6, Col: 3}, runs[White])
}

func TestScanImageExactMatchOnly(t *testing.T) {
	img := solidImage(5, 5, color.RGBA{R: 254, G: 255, B: 255, A: 255})

	runs := ScanImage(img, DefaultTargets())
	assert.Equal(t, 0, runs[White].Max())
}

func TestScanImageCustomColorAndPalette(t *testing.T) {
	magenta := RGB{R: 255, B: 255}
	palette := color.Palette{color.RGBA{R: 255, B: 255, A: 255}, color.Black}
	img := image.NewPaletted(image.Rect(0, 0, 4, 4), palette)
	for x := 0; x < 4; x++ {
		img.SetColorIndex(x, 2, 1)
	}

	runs := ScanImage(img, []RGB{magenta, Black})
	assert.Equal(t, RunLength{Row: 4, Col: 2}, runs[magenta])
	assert.Equal(t, RunLength{Row: 4, Col: 1}, runs[Black])
}

func TestScanImageSubImage(t *testing.T) {
	base := image.NewNRGBA(image.Rect(0, 0, 10, 10))
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			c := color.NRGBA{A: 255}
			if x >= 5 {
				c = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
			}
			base.SetNRGBA(x, y, c)
		}
	}
	sub, ok := base.SubImage(image.Rect(3, 2, 8, 6)).(*image.NRGBA)
	require.True(t, ok)

	runs := ScanImage(sub, DefaultTargets())
	assert.Equal(t, RunLength{Row: 3, Col: 4}, runs[White])
	assert.Equal(t, RunLength{Row: 2, Col: 4}, runs[Black])
}

func TestScanImageEmpty(t *testing.T) {
	runs := ScanImage(image.NewRGBA(image.Rect(0, 0, 0, 0)), DefaultTargets())
	assert.Equal(t, RunLength{}, runs[White])
	assert.Equal(t, RunLength{}, runs[Black])
}

func TestDetectedRequiresSuccess(t *testing.T) {
	res := Result{Runs: map[RGB]RunLength{White: {Row: 500}}, Status: StatusError}
	assert.False(t, res.Detected(1))
}
