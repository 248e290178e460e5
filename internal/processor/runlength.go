package processor

import (
	"image"

	"github.com/disintegration/imaging"
)

// RunLength holds the longest horizontal and vertical streak of one color.
type RunLength struct {
	Row int
	Col int
}

func (r RunLength) Max() int {
	if r.Row > r.Col {
		return r.Row
	}
	return r.Col
}

// ScanImage measures, for each target, the longest run of exactly matching
// pixels within any row and within any column. Alpha is ignored and diagonal
// runs are not considered.
func ScanImage(img image.Image, targets []RGB) map[RGB]RunLength {
	src, ok := img.(*image.NRGBA)
	if !ok {
		src = imaging.Clone(img)
	}

	width := src.Rect.Dx()
	height := src.Rect.Dy()

	best := make([]RunLength, len(targets))
	rowRun := make([]int, len(targets))
	colRun := make([][]int, len(targets))
	for i := range colRun {
		colRun[i] = make([]int, width)
	}

	for y := 0; y < height; y++ {
		for i := range rowRun {
			rowRun[i] = 0
		}
		row := src.Pix[y*src.Stride : y*src.Stride+width*4]
		for x := 0; x < width; x++ {
			px := row[x*4 : x*4+3 : x*4+3]
			for i, c := range targets {
				if px[0] != c.R || px[1] != c.G || px[2] != c.B {
					rowRun[i] = 0
					colRun[i][x] = 0
					continue
				}
				rowRun[i]++
				if rowRun[i] > best[i].Row {
					best[i].Row = rowRun[i]
				}
				colRun[i][x]++
				if colRun[i][x] > best[i].Col {
					best[i].Col = colRun[i][x]
				}
			}
		}
	}

	out := make(map[RGB]RunLength, len(targets))
	for i, c := range targets {
		out[c] = best[i]
	}
	return out
}
