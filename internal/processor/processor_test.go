package processor

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePNG(t *testing.T, path string, width, height int, c color.Color) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, imgio.Save(path, solidImage(width, height, c), imgio.PNGEncoder()))
}

func writeCorrupt(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	header := []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a}
	require.NoError(t, os.WriteFile(path, append(header, []byte("not really a png")...), 0o644))
}

func TestScanFile(t *testing.T) {
	dir := t.TempDir()
	white := filepath.Join(dir, "white.png")
	writePNG(t, white, 10, 10, color.White)

	res := ScanFile(white, DefaultTargets())
	require.Equal(t, StatusSuccess, res.Status, "%v", res.Err)
	assert.Equal(t, white, res.Path)
	assert.Equal(t, 10, res.MaxRun(White))
	assert.Equal(t, 0, res.MaxRun(Black))
	assert.True(t, res.Detected(5))
}

func TestScanFileErrorsAreData(t *testing.T) {
	dir := t.TempDir()

	corrupt := filepath.Join(dir, "corrupt.png")
	writeCorrupt(t, corrupt)
	text := filepath.Join(dir, "text.png")
	require.NoError(t, os.WriteFile(text, []byte("definitely not an image"), 0o644))
	tiny := filepath.Join(dir, "tiny.png")
	require.NoError(t, os.WriteFile(tiny, []byte{0x89}, 0o644))

	for _, path := range []string{corrupt, text, tiny, filepath.Join(dir, "absent.png")} {
		res := ScanFile(path, DefaultTargets())
		assert.Equal(t, StatusError, res.Status, path)
		assert.Error(t, res.Err, path)
		assert.False(t, res.Detected(1), path)
	}
}

func TestExecuteIsolatesCorruptFile(t *testing.T) {
	dir := t.TempDir()
	var files []string
	for i := 0; i < 9; i++ {
		path := filepath.Join(dir, "9", fmt.Sprint(i), "0.png")
		writePNG(t, path, 4, 4, color.Black)
		files = append(files, path)
	}
	corrupt := filepath.Join(dir, "9", "9", "0.png")
	writeCorrupt(t, corrupt)
	files = append(files, corrupt)

	results := Execute(context.Background(), files, Scanner(DefaultTargets()), Options{Workers: 4})
	require.Len(t, results, len(files))

	errCount := 0
	for _, res := range results {
		if res.Status == StatusError {
			errCount++
			assert.Equal(t, corrupt, res.Path)
			continue
		}
		assert.Equal(t, 4, res.MaxRun(Black))
	}
	assert.Equal(t, 1, errCount)

	summary := Summarize(results, 4)
	assert.Equal(t, Summary{Total: 10, Scanned: 9, Errors: 1, Detected: 9}, summary)
	assert.Len(t, Detected(results, 4), 9)
	assert.Empty(t, Detected(results, 5))
}

func TestExecuteOrderIndependent(t *testing.T) {
	var files []string
	for i := 0; i < 200; i++ {
		files = append(files, fmt.Sprintf("tile-%03d", i))
	}
	scan := func(path string) Result {
		return Result{Path: path, Status: StatusSuccess, Runs: map[RGB]RunLength{White: {Row: len(path)}}}
	}

	serial := Execute(context.Background(), files, scan, Options{Workers: 1})
	parallel := Execute(context.Background(), files, scan, Options{Workers: 16})
	assert.Equal(t, serial, parallel)
	require.Len(t, parallel, 200)
	assert.Equal(t, "tile-000", parallel[0].Path)
	assert.Equal(t, "tile-199", parallel[199].Path)
}

func TestExecuteRecoversPanics(t *testing.T) {
	files := []string{"a", "b", "c"}
	scan := func(path string) Result {
		if path == "b" {
			panic("boom")
		}
		return Result{Status: StatusSuccess}
	}

	results := Execute(context.Background(), files, scan, Options{Workers: 2})
	require.Len(t, results, 3)
	assert.Equal(t, StatusSuccess, results[0].Status)
	assert.Equal(t, "a", results[0].Path)
	assert.Equal(t, StatusError, results[1].Status)
	assert.ErrorContains(t, results[1].Err, "boom")
	assert.Equal(t, StatusSuccess, results[2].Status)
}

func TestExecuteDeduplicatesPaths(t *testing.T) {
	results := Execute(context.Background(), []string{"x", "y", "x"}, func(string) Result {
		return Result{Status: StatusSuccess}
	}, Options{Workers: 3})
	assert.Len(t, results, 2)
}

func TestExecuteProgressCadence(t *testing.T) {
	var files []string
	for i := 0; i < 25; i++ {
		files = append(files, fmt.Sprint(i))
	}

	var mu sync.Mutex
	var seen []Progress
	opts := Options{
		Workers:       3,
		ProgressEvery: 10,
		OnProgress: func(p Progress) {
			mu.Lock()
			seen = append(seen, p)
			mu.Unlock()
		},
	}
	Execute(context.Background(), files, func(path string) Result {
		if path == "7" {
			return Result{Status: StatusError, Err: errors.New("bad")}
		}
		return Result{Status: StatusSuccess}
	}, opts)

	require.Len(t, seen, 3)
	assert.Equal(t, 10, seen[0].Done)
	assert.Equal(t, 20, seen[1].Done)
	assert.Equal(t, Progress{Done: 25, Total: 25, Errors: 1}, seen[2])
}

func TestExecuteCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := Execute(ctx, []string{"a", "b", "c"}, func(string) Result {
		return Result{Status: StatusSuccess}
	}, Options{Workers: 2})
	require.Len(t, results, 3)
	for _, res := range results {
		if res.Status == StatusError {
			assert.ErrorIs(t, res.Err, context.Canceled)
		}
	}
}

func TestExecuteEmpty(t *testing.T) {
	results := Execute(context.Background(), nil, func(string) Result { return Result{} }, Options{Workers: 4})
	assert.Empty(t, results)
}

func TestCollectImages(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "3", "1", "1.png"), 1, 1, color.White)
	writePNG(t, filepath.Join(dir, "3", "1", "2.PNG"), 1, 1, color.White)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "3", "1", "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "3", "1", "3.jpg"), []byte("x"), 0o644))

	files, err := CollectImages(context.Background(), dir, []string{".png"})
	require.NoError(t, err)
	absDir, err := filepath.Abs(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(absDir, "3", "1", "1.png"),
		filepath.Join(absDir, "3", "1", "2.PNG"),
	}, files)

	files, err = CollectImages(context.Background(), dir, []string{"png", "jpg"})
	require.NoError(t, err)
	assert.Len(t, files, 3)

	single, err := CollectImages(context.Background(), filepath.Join(dir, "3", "1", "1.png"), []string{".png"})
	require.NoError(t, err)
	assert.Len(t, single, 1)

	_, err = CollectImages(context.Background(), filepath.Join(dir, "absent"), []string{".png"})
	assert.Error(t, err)
}
