package processor

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/puzpuzpuz/xsync/v3"

	"tilesweep/pkg/imgutil"
)

// ScanFunc scans one file. It must report failures through Result.Status.
type ScanFunc func(path string) Result

// Execute runs scan over files on a fixed pool of opts.Workers goroutines.
// Exactly one Result is returned per distinct path, sorted by path; a
// failing or panicking scan only affects its own Result. If ctx is
// cancelled, files that never started carry ctx.Err().
func Execute(ctx context.Context, files []string, scan ScanFunc, opts Options) []Result {
	files = dedupe(files)
	total := len(files)

	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > total && total > 0 {
		workers = total
	}
	every := opts.ProgressEvery
	if every < 1 {
		every = DefaultProgressEvery
	}

	outcomes := xsync.NewMapOf[string, Result]()
	jobs := make(chan Job)
	finished := make(chan Status)

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			worker(ctx, jobs, finished, scan, outcomes)
		}()
	}

	collectorDone := make(chan struct{})
	go func() {
		defer close(collectorDone)
		progress := Progress{Total: total}
		for status := range finished {
			progress.Done++
			if status != StatusSuccess {
				progress.Errors++
			}
			if opts.OnProgress != nil && (progress.Done%every == 0 || progress.Done == total) {
				opts.OnProgress(progress)
			}
		}
	}()

	go func() {
		defer close(jobs)
		for _, path := range files {
			select {
			case jobs <- Job{Path: path}:
			case <-ctx.Done():
				return
			}
		}
	}()

	wg.Wait()
	close(finished)
	<-collectorDone

	results := make([]Result, 0, total)
	for _, path := range files {
		res, ok := outcomes.Load(path)
		if !ok {
			err := ctx.Err()
			if err == nil {
				err = fmt.Errorf("not scanned")
			}
			res = Result{Path: path, Status: StatusError, Err: err}
		}
		results = append(results, res)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Path < results[j].Path })
	return results
}

func worker(ctx context.Context, jobs <-chan Job, finished chan<- Status, scan ScanFunc, outcomes *xsync.MapOf[string, Result]) {
	for job := range jobs {
		if ctx.Err() != nil {
			continue
		}
		res := runScan(scan, job.Path)
		outcomes.Store(job.Path, res)
		finished <- res.Status
	}
}

func runScan(scan ScanFunc, path string) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = Result{Path: path, Status: StatusError, Err: fmt.Errorf("scan panic: %v", r)}
		}
	}()
	res = scan(path)
	res.Path = path
	if res.Status == StatusError && res.Err == nil {
		res.Err = fmt.Errorf("scan failed")
	}
	return res
}

func dedupe(files []string) []string {
	seen := make(map[string]struct{}, len(files))
	out := make([]string, 0, len(files))
	for _, f := range files {
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out
}

// CollectImages lists the regular files under root whose extension is in exts.
// A root that is itself a file is returned on its own when it matches.
func CollectImages(ctx context.Context, root string, exts []string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	if !info.IsDir() {
		if imgutil.HasExt(absRoot, exts) {
			return []string{absRoot}, nil
		}
		return nil, nil
	}

	var files []string
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
		if imgutil.HasExt(path, exts) {
			files = append(files, filepath.Join(absRoot, path))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}

// Summarize counts outcomes, classifying successes against threshold.
func Summarize(results []Result, threshold int) Summary {
	summary := Summary{Total: len(results)}
	for _, res := range results {
		if res.Status != StatusSuccess {
			summary.Errors++
			continue
		}
		summary.Scanned++
		if res.Detected(threshold) {
			summary.Detected++
		}
	}
	return summary
}

// Detected returns the successful results with any target run reaching threshold.
func Detected(results []Result, threshold int) []Result {
	var out []Result
	for _, res := range results {
		if res.Detected(threshold) {
			out = append(out, res)
		}
	}
	return out
}
