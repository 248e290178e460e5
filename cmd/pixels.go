package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"tilesweep/internal/config"
	"tilesweep/internal/processor"
	"tilesweep/internal/report"
	"tilesweep/internal/tui"
)

var pixelsCmd = &cobra.Command{
	Use:   "pixels [flags] <dir>",
	Short: "Detect tiles with long runs of a uniform color",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadPixels(v)
		if err != nil {
			return err
		}
		decider, err := newDecider(cmd, cfg)
		if err != nil {
			return err
		}
		return runPixels(cmd, args[0], cfg.Resolve(), decider)
	},
}

// newDecider picks how detected files are handled. A nil decider means the
// run only reports.
func newDecider(cmd *cobra.Command, cfg config.Pixels) (processor.Decider, error) {
	switch {
	case cfg.DryRun:
		return nil, nil
	case cfg.AutoDelete:
		return processor.AutoDelete, nil
	}

	targets, err := cfg.Targets()
	if err != nil {
		return nil, err
	}

	command := cfg.Viewer
	if command == "" {
		command = tui.DefaultViewerCommand()
	}
	var viewer tui.Viewer
	if command != "none" {
		if cv := tui.NewCommandViewer(command); cv != nil {
			viewer = cv
		}
	}

	promptOut := cmd.OutOrStdout()
	if cfg.Format != config.FormatTable {
		promptOut = cmd.ErrOrStderr()
	}
	return tui.NewPrompt(cmd.InOrStdin(), promptOut, viewer, targets), nil
}

func runPixels(cmd *cobra.Command, root string, cfg config.Pixels, decider processor.Decider) error {
	ctx := cmd.Context()
	logger := zerolog.Ctx(ctx)
	out := cmd.OutOrStdout()
	started := time.Now()

	targets, err := cfg.Targets()
	if err != nil {
		return err
	}

	files, err := processor.CollectImages(ctx, root, cfg.Exts)
	if err != nil {
		return fmt.Errorf("collect %s: %w", root, err)
	}
	logger.Info().
		Int("files", len(files)).
		Int("workers", cfg.Workers).
		Int("threshold", cfg.Threshold).
		Strs("extensions", cfg.Exts).
		Msg("scanning images")

	results := scanWithProgress(ctx, files, targets, cfg)

	for _, res := range results {
		if res.Status == processor.StatusError {
			logger.Warn().Err(res.Err).Str("path", res.Path).Msg("scan failed")
		}
	}

	detected := processor.Detected(results, cfg.Threshold)
	if cfg.Format != config.FormatTable {
		if err := report.Encode(out, cfg.Format, report.NewDefectReport(results, cfg.Threshold)); err != nil {
			return err
		}
	} else {
		printDetected(out, detected, targets)
	}

	var review processor.ReviewSummary
	if decider != nil && len(detected) > 0 {
		review, err = processor.Review(ctx, detected, decider, os.Remove)
		if err != nil {
			return err
		}
	}

	summary := processor.Summarize(results, cfg.Threshold)
	if cfg.Format == config.FormatTable {
		fmt.Fprintln(out)
		fmt.Fprintln(out, tui.RenderSummary(pixelsSummaryRows(summary, review, decider != nil)))
	}
	for _, f := range review.Failed {
		fmt.Fprintf(cmd.ErrOrStderr(), "could not delete %s: %v\n", f.Path, f.Err)
	}

	logger.Info().
		Int("detected", summary.Detected).
		Int("deleted", len(review.Deleted)).
		Int("kept", len(review.Kept)).
		Int("skipped", len(review.Skipped)).
		Int("failed", len(review.Failed)).
		Dur("elapsed", time.Since(started)).
		Msg("pixel-run detection finished")
	return nil
}

func pixelsSummaryRows(summary processor.Summary, review processor.ReviewSummary, reviewed bool) []tui.SummaryRow {
	rows := []tui.SummaryRow{
		{Label: "Images scanned", Value: strconv.Itoa(summary.Scanned)},
		{Label: "Unreadable images", Value: strconv.Itoa(summary.Errors)},
		{Label: "Detected images", Value: strconv.Itoa(summary.Detected)},
	}
	if !reviewed {
		return rows
	}
	return append(rows,
		tui.SummaryRow{Label: "Deleted images", Value: strconv.Itoa(len(review.Deleted))},
		tui.SummaryRow{Label: "Kept images", Value: strconv.Itoa(len(review.Kept))},
		tui.SummaryRow{Label: "Skipped images", Value: strconv.Itoa(len(review.Skipped))},
		tui.SummaryRow{Label: "Failed deletions", Value: strconv.Itoa(len(review.Failed))},
	)
}

// scanWithProgress runs the executor, feeding its progress either to the
// bubbletea model or to the log.
func scanWithProgress(ctx context.Context, files []string, targets []processor.RGB, cfg config.Pixels) []processor.Result {
	opts := processor.Options{Workers: cfg.Workers, ProgressEvery: cfg.ProgressEvery}

	if cfg.NoTUI || len(files) == 0 {
		logger := zerolog.Ctx(ctx)
		opts.OnProgress = func(p processor.Progress) {
			logger.Info().Msg(tui.ProgressLine(p))
		}
		return processor.Execute(ctx, files, processor.Scanner(targets), opts)
	}

	updates := make(chan processor.Progress, 64)
	program := tea.NewProgram(tui.NewModel("tilesweep", updates), tea.WithOutput(os.Stderr), tea.WithInput(nil))

	uiDone := make(chan struct{})
	go func() {
		defer close(uiDone)
		if _, err := program.Run(); err != nil {
			zerolog.Ctx(ctx).Debug().Err(err).Msg("progress display stopped")
		}
		// keep the executor unblocked if the program exits before the scan does
		for range updates {
		}
	}()

	opts.OnProgress = func(p processor.Progress) {
		updates <- p
	}
	results := processor.Execute(ctx, files, processor.Scanner(targets), opts)
	close(updates)
	<-uiDone
	return results
}

func printDetected(out io.Writer, detected []processor.Result, targets []processor.RGB) {
	if len(detected) == 0 {
		fmt.Fprintln(out, pixelsDimStyle.Render("No images reached the threshold."))
		return
	}

	for i, res := range detected {
		if i > 0 {
			fmt.Fprintln(out)
		}
		fmt.Fprintf(out, "%s\n", pixelsFileStyle.Render(res.Path))
		runs := make([]string, 0, len(targets))
		for _, c := range targets {
			runs = append(runs, fmt.Sprintf("%s %s",
				pixelsColorStyle.Render(c.String()+":"),
				pixelsValueStyle.Render(strconv.Itoa(res.MaxRun(c))),
			))
		}
		fmt.Fprintf(out, "  %s %s\n", pixelsBulletStyle.Render("-"), strings.Join(runs, "  "))
	}
}

var (
	pixelsFileStyle   = lipgloss.NewStyle().Bold(true).Foreground(tui.ColorAccent)
	pixelsColorStyle  = lipgloss.NewStyle().Foreground(tui.ColorAccentAlt)
	pixelsValueStyle  = lipgloss.NewStyle().Foreground(tui.ColorInk)
	pixelsDimStyle    = lipgloss.NewStyle().Foreground(tui.ColorDim)
	pixelsBulletStyle = lipgloss.NewStyle().Foreground(tui.ColorDim)
)

func init() {
	defaults := config.DefaultPixels()
	pixelsCmd.Flags().Int("threshold", defaults.Threshold, "run length at which an image is reported")
	pixelsCmd.Flags().StringSlice("colors", defaults.Colors, "target colors: white, black or #rrggbb")
	pixelsCmd.Flags().Int("workers", defaults.Workers, "parallel workers (0 = one per logical CPU)")
	pixelsCmd.Flags().StringSlice("ext", defaults.Exts, "file extensions to scan")
	pixelsCmd.Flags().BoolP("auto-delete", "n", defaults.AutoDelete, "delete detected images without asking")
	pixelsCmd.Flags().Bool("dry-run", defaults.DryRun, "only report detected images")
	pixelsCmd.Flags().String("viewer", defaults.Viewer, `command used to show a detected image ("none" disables)`)
	pixelsCmd.Flags().Int("progress-every", defaults.ProgressEvery, "report progress every N files")
	pixelsCmd.Flags().Bool("no-tui", defaults.NoTUI, "log progress instead of drawing a progress bar")
	pixelsCmd.Flags().String("format", defaults.Format, "stdout format: table, json or yaml")

	rootCmd.AddCommand(pixelsCmd)
}
