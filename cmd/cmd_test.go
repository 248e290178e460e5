package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tilesweep/internal/config"
	"tilesweep/internal/processor"
	"tilesweep/internal/report"
)

func testCommand(t *testing.T, stdin string) (*cobra.Command, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	c := &cobra.Command{}
	c.SetOut(&out)
	c.SetErr(&bytes.Buffer{})
	c.SetIn(strings.NewReader(stdin))
	c.SetContext(zerolog.Nop().WithContext(context.Background()))
	return c, &out
}

func writeTile(t *testing.T, root string, z, x, y int, c color.Color) string {
	t.Helper()
	path := filepath.Join(root, strconv.Itoa(z), strconv.Itoa(x), strconv.Itoa(y)+".png")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for py := 0; py < 8; py++ {
		for px := 0; px < 8; px++ {
			if c != nil {
				img.Set(px, py, c)
			} else if (px+py)%2 == 0 {
				img.Set(px, py, color.White)
			} else {
				img.Set(px, py, color.Black)
			}
		}
	}
	require.NoError(t, imgio.Save(path, img, imgio.PNGEncoder()))
	return path
}

func TestRunMissingFindsHole(t *testing.T) {
	root := t.TempDir()
	for x := 0; x < 3; x++ {
		for y := 0; y < 3; y++ {
			if x == 1 && y == 1 {
				continue
			}
			writeTile(t, root, 5, x, y, color.Black)
		}
	}

	cfg := config.DefaultMissing()
	cfg.Padding = 0
	cfg.HTML = filepath.Join(t.TempDir(), "report.html")

	c, out := testCommand(t, "")
	require.NoError(t, runMissing(c, root, cfg))
	assert.Contains(t, out.String(), "5/1/1.png")

	_, err := os.Stat(cfg.HTML)
	assert.NoError(t, err)
}

func TestRunMissingJSON(t *testing.T) {
	root := t.TempDir()
	for x := 0; x < 3; x++ {
		for y := 0; y < 3; y++ {
			if x == 1 && y == 1 {
				continue
			}
			writeTile(t, root, 2, x, y, color.Black)
		}
	}

	cfg := config.DefaultMissing()
	cfg.Padding = 0
	cfg.NoHTML = true
	cfg.Format = config.FormatJSON

	c, out := testCommand(t, "")
	require.NoError(t, runMissing(c, root, cfg))

	var rep report.MissingReport
	require.NoError(t, json.Unmarshal(out.Bytes(), &rep))
	assert.Equal(t, 8, rep.Tiles)
	require.Len(t, rep.Missing, 1)
	assert.Equal(t, 8, rep.Missing[0].Neighbors)
}

func TestRunMissingNoTiles(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "readme.txt"), []byte("x"), 0o644))

	cfg := config.DefaultMissing()
	cfg.HTML = filepath.Join(t.TempDir(), "report.html")

	c, out := testCommand(t, "")
	require.NoError(t, runMissing(c, root, cfg))
	assert.Contains(t, out.String(), "No tiles found")

	_, err := os.Stat(cfg.HTML)
	assert.True(t, os.IsNotExist(err))
}

func TestRunPixelsAutoDelete(t *testing.T) {
	root := t.TempDir()
	blank := writeTile(t, root, 3, 0, 0, color.White)
	busy := writeTile(t, root, 3, 0, 1, nil)
	broken := filepath.Join(root, "3", "0", "2.png")
	require.NoError(t, os.WriteFile(broken, []byte("broken"), 0o644))

	cfg := config.DefaultPixels()
	cfg.Threshold = 5
	cfg.Workers = 2
	cfg.NoTUI = true

	c, out := testCommand(t, "")
	require.NoError(t, runPixels(c, root, cfg, processor.AutoDelete))
	assert.Contains(t, out.String(), blank)

	_, err := os.Stat(blank)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(busy)
	assert.NoError(t, err)
	_, err = os.Stat(broken)
	assert.NoError(t, err)
}

func TestRunPixelsPromptAndYAML(t *testing.T) {
	root := t.TempDir()
	blank := writeTile(t, root, 3, 1, 0, color.Black)

	cfg := config.DefaultPixels()
	cfg.Threshold = 8
	cfg.Workers = 1
	cfg.NoTUI = true
	cfg.Viewer = "none"
	cfg.Format = config.FormatYAML

	c, out := testCommand(t, "y\n")
	decider, err := newDecider(c, cfg)
	require.NoError(t, err)
	require.NoError(t, runPixels(c, root, cfg, decider))

	assert.Contains(t, out.String(), "detected: 1")
	assert.Contains(t, out.String(), "black: 8")
	_, err = os.Stat(blank)
	assert.NoError(t, err)
}

func TestPixelsSummaryRowsCountReviewOutcomes(t *testing.T) {
	summary := processor.Summary{Total: 5, Scanned: 5, Detected: 4}
	review := processor.ReviewSummary{
		Kept:    []string{"a.png"},
		Deleted: []string{"b.png"},
		Skipped: []string{"c.png"},
		Failed:  []processor.RemoveFailure{{Path: "d.png", Err: os.ErrPermission}},
	}

	values := map[string]string{}
	for _, row := range pixelsSummaryRows(summary, review, true) {
		values[row.Label] = row.Value
	}
	assert.Equal(t, "4", values["Detected images"])
	assert.Equal(t, "1", values["Kept images"])
	assert.Equal(t, "1", values["Deleted images"])
	assert.Equal(t, "1", values["Skipped images"])
	assert.Equal(t, "1", values["Failed deletions"])

	assert.Len(t, pixelsSummaryRows(summary, processor.ReviewSummary{}, false), 3)
}

func TestNewDeciderDryRun(t *testing.T) {
	cfg := config.DefaultPixels()
	cfg.DryRun = true
	c, _ := testCommand(t, "")
	decider, err := newDecider(c, cfg)
	require.NoError(t, err)
	assert.Nil(t, decider)

	cfg.DryRun = false
	cfg.AutoDelete = true
	decider, err = newDecider(c, cfg)
	require.NoError(t, err)
	require.NotNil(t, decider)
	decision, err := decider.Decide(context.Background(), processor.Result{})
	require.NoError(t, err)
	assert.Equal(t, processor.Delete, decision)
}

func TestNewLogger(t *testing.T) {
	_, err := newLogger(config.Log{Level: "debug", Format: "json"})
	assert.NoError(t, err)
	_, err = newLogger(config.Log{Level: "loud", Format: "json"})
	assert.ErrorIs(t, err, config.ErrInvalid)
	_, err = newLogger(config.Log{Level: "info", Format: "xml"})
	assert.ErrorIs(t, err, config.ErrInvalid)
}
