package report

import (
	"fmt"
	"html/template"
	"io"
	"os"

	"tilesweep/internal/tiles"
)

// MaxGridSide bounds the zoom bounding box drawn as a coverage map.
const MaxGridSide = 256

type htmlZoom struct {
	Summary tiles.ZoomSummary
	Missing []tiles.MissingTile
	Grid    *htmlGrid
}

type htmlGrid struct {
	Width   int
	Height  int
	Present []tiles.Point
	Missing []tiles.Point
}

type htmlPage struct {
	Tiles   int
	Missing int
	Zooms   []htmlZoom
}

// WriteHTML renders the missing tiles of every zoom, with a coverage map for
// zooms whose bounding box is small enough to draw.
func WriteHTML(w io.Writer, idx *tiles.Index, missing []tiles.MissingTile) error {
	byZoom := make(map[int][]tiles.MissingTile)
	for _, m := range missing {
		byZoom[m.Z] = append(byZoom[m.Z], m)
	}

	page := htmlPage{Tiles: idx.Len(), Missing: len(missing)}
	for _, s := range tiles.Summarize(idx, missing) {
		if s.Missing == 0 {
			continue
		}
		zoom := htmlZoom{Summary: s, Missing: byZoom[s.Zoom]}
		if s.Bounds.Width() <= MaxGridSide && s.Bounds.Height() <= MaxGridSide {
			zoom.Grid = buildGrid(idx, s, byZoom[s.Zoom])
		}
		page.Zooms = append(page.Zooms, zoom)
	}

	return pageTemplate.Execute(w, page)
}

// WriteHTMLFile writes the report to path.
func WriteHTMLFile(path string, idx *tiles.Index, missing []tiles.MissingTile) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteHTML(f, idx, missing); err != nil {
		_ = f.Close()
		return fmt.Errorf("render %s: %w", path, err)
	}
	return f.Close()
}

func buildGrid(idx *tiles.Index, s tiles.ZoomSummary, missing []tiles.MissingTile) *htmlGrid {
	g := &htmlGrid{Width: s.Bounds.Width(), Height: s.Bounds.Height()}
	for _, p := range idx.Points(s.Zoom) {
		g.Present = append(g.Present, tiles.Point{X: p.X - s.Bounds.MinX, Y: p.Y - s.Bounds.MinY})
	}
	for _, m := range missing {
		g.Missing = append(g.Missing, tiles.Point{X: m.X - s.Bounds.MinX, Y: m.Y - s.Bounds.MinY})
	}
	return g
}

var pageTemplate = template.Must(template.New("page").Funcs(template.FuncMap{
	"mul": func(a, b int) int { return a * b },
}).Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>Missing tiles</title>
<style>
body { font-family: Arial, sans-serif; margin: 20px; background-color: #f5f5f5; }
.container { max-width: 1200px; margin: 0 auto; background-color: white; padding: 20px; border-radius: 8px; box-shadow: 0 2px 10px rgba(0,0,0,0.1); }
h1, h2, h3 { color: #333; }
.zoom-section { margin-bottom: 40px; border-bottom: 1px solid #eee; padding-bottom: 20px; }
.summary { background-color: #f0f8ff; padding: 15px; border-radius: 4px; margin-bottom: 20px; }
.info { display: flex; gap: 20px; flex-wrap: wrap; margin-bottom: 20px; }
.info-item { background-color: #f9f9f9; padding: 10px; border-radius: 4px; flex: 1; min-width: 200px; }
table { width: 100%; border-collapse: collapse; margin-top: 20px; }
th, td { border: 1px solid #ddd; padding: 8px; text-align: left; }
th { background-color: #f2f2f2; }
tr:nth-child(even) { background-color: #f9f9f9; }
svg { background-color: #fafafa; border: 1px solid #ddd; }
.present { fill: #88c0d0; }
.missing { fill: #bf616a; }
</style>
</head>
<body>
<div class="container">
<h1>Missing tiles</h1>
<div class="summary">
<h3>Summary</h3>
<p><strong>{{.Missing}}</strong> probably missing tiles across <strong>{{.Tiles}}</strong> existing tiles.</p>
</div>
{{range .Zooms}}
<div class="zoom-section" id="zoom-{{.Summary.Zoom}}">
<h2>Zoom {{.Summary.Zoom}}</h2>
<div class="info">
<div class="info-item"><p><strong>Existing tiles:</strong> {{.Summary.Tiles}}</p></div>
<div class="info-item"><p><strong>Missing tiles:</strong> {{.Summary.Missing}}</p></div>
<div class="info-item"><p><strong>Range:</strong> x {{.Summary.Bounds.MinX}}&ndash;{{.Summary.Bounds.MaxX}}, y {{.Summary.Bounds.MinY}}&ndash;{{.Summary.Bounds.MaxY}}</p></div>
</div>
{{with .Grid}}
<svg width="{{mul .Width 6}}" height="{{mul .Height 6}}" viewBox="0 0 {{.Width}} {{.Height}}" shape-rendering="crispEdges">
{{range .Present}}<rect class="present" x="{{.X}}" y="{{.Y}}" width="1" height="1"/>{{end}}
{{range .Missing}}<rect class="missing" x="{{.X}}" y="{{.Y}}" width="1" height="1"/>{{end}}
</svg>
{{end}}
<h3>Missing tile list</h3>
<table>
<thead><tr><th>Zoom</th><th>X</th><th>Y</th><th>Neighbors</th><th>Expected file</th></tr></thead>
<tbody>
{{range .Missing}}<tr><td>{{.Z}}</td><td>{{.X}}</td><td>{{.Y}}</td><td>{{.Neighbors}}</td><td>{{.ExpectedPath}}</td></tr>
{{end}}</tbody>
</table>
</div>
{{end}}
</div>
</body>
</html>
`))
