package processor

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
)

// Decision is the verdict on one detected file.
type Decision int

const (
	Keep Decision = iota
	Delete
	Skip
)

func (d Decision) String() string {
	switch d {
	case Keep:
		return "keep"
	case Delete:
		return "delete"
	case Skip:
		return "skip"
	default:
		return fmt.Sprintf("decision(%d)", int(d))
	}
}

// Decider chooses what happens to a detected file. Implementations may
// prompt a human, apply a policy, or be a test stub.
type Decider interface {
	Decide(ctx context.Context, res Result) (Decision, error)
}

type DeciderFunc func(ctx context.Context, res Result) (Decision, error)

func (f DeciderFunc) Decide(ctx context.Context, res Result) (Decision, error) {
	return f(ctx, res)
}

var (
	AutoDelete Decider = DeciderFunc(func(context.Context, Result) (Decision, error) { return Delete, nil })
	KeepAll    Decider = DeciderFunc(func(context.Context, Result) (Decision, error) { return Keep, nil })
)

// RemoveFunc deletes a file; os.Remove is used when none is given.
type RemoveFunc func(path string) error

type RemoveFailure struct {
	Path string
	Err  error
}

type ReviewSummary struct {
	Kept    []string
	Deleted []string
	Skipped []string
	Failed  []RemoveFailure
}

// Review asks decider about each detected result in order and deletes the
// files it condemns. A failed removal is recorded and the review continues;
// a decider error stops the review and is returned with the partial summary.
func Review(ctx context.Context, detected []Result, decider Decider, remove RemoveFunc) (ReviewSummary, error) {
	logger := zerolog.Ctx(ctx)
	if remove == nil {
		remove = os.Remove
	}

	var summary ReviewSummary
	for _, res := range detected {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		decision, err := decider.Decide(ctx, res)
		if err != nil {
			return summary, fmt.Errorf("decide %s: %w", res.Path, err)
		}

		switch decision {
		case Delete:
			if err := remove(res.Path); err != nil {
				logger.Warn().Err(err).Str("path", res.Path).Msg("delete failed")
				summary.Failed = append(summary.Failed, RemoveFailure{Path: res.Path, Err: err})
				continue
			}
			logger.Info().Str("path", res.Path).Msg("deleted")
			summary.Deleted = append(summary.Deleted, res.Path)
		case Skip:
			summary.Skipped = append(summary.Skipped, res.Path)
		default:
			summary.Kept = append(summary.Kept, res.Path)
		}
	}
	return summary, nil
}
