package processor

import "fmt"

type Status int

const (
	StatusSuccess Status = iota
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Options configures Execute. Workers must be resolved by the caller;
// values below one run a single worker.
type Options struct {
	Workers       int
	ProgressEvery int
	OnProgress    ProgressFunc
}

// DefaultProgressEvery is the completion cadence used when Options leaves it unset.
const DefaultProgressEvery = 100

type Job struct {
	Path string
}

// Result is the outcome of scanning one file.
type Result struct {
	Path   string
	Runs   map[RGB]RunLength
	Status Status
	Err    error
}

// MaxRun is the combined row/column maximum for c, zero when c was not scanned.
func (r Result) MaxRun(c RGB) int {
	return r.Runs[c].Max()
}

// Detected reports whether any target color reached threshold.
func (r Result) Detected(threshold int) bool {
	if r.Status != StatusSuccess {
		return false
	}
	for _, run := range r.Runs {
		if run.Max() >= threshold {
			return true
		}
	}
	return false
}

type Summary struct {
	Total    int
	Scanned  int
	Errors   int
	Detected int
}

// Progress is a snapshot handed to a ProgressFunc.
type Progress struct {
	Done   int
	Total  int
	Errors int
}

// ProgressFunc observes batch progress. It is called from a single goroutine.
type ProgressFunc func(Progress)
