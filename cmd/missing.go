package cmd

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"tilesweep/internal/config"
	"tilesweep/internal/report"
	"tilesweep/internal/tiles"
	"tilesweep/internal/tui"
)

var missingCmd = &cobra.Command{
	Use:   "missing [flags] <dir>",
	Short: "Report tiles that are probably missing from the grid",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadMissing(v)
		if err != nil {
			return err
		}
		return runMissing(cmd, args[0], cfg)
	},
}

func runMissing(cmd *cobra.Command, root string, cfg config.Missing) error {
	ctx := cmd.Context()
	logger := zerolog.Ctx(ctx)
	out := cmd.OutOrStdout()
	started := time.Now()

	parser, err := tiles.NewPatternParser(cfg.Pattern)
	if err != nil {
		return err
	}

	logger.Info().Str("root", root).Str("pattern", parser.String()).Msg("collecting tiles")
	idx, err := tiles.Build(ctx, root, parser)
	if err != nil {
		return fmt.Errorf("index %s: %w", root, err)
	}

	missing, err := tiles.Infer(idx, cfg.InferOptions())
	if errors.Is(err, tiles.ErrEmptyIndex) {
		logger.Warn().Str("pattern", parser.String()).Msg("no tiles matched the pattern")
		fmt.Fprintf(out, "No tiles found under %s (%v). Check the pattern: %s\n", root, err, parser.String())
		return nil
	}
	if err != nil {
		return err
	}

	for _, s := range tiles.Summarize(idx, missing) {
		logger.Info().
			Int("zoom", s.Zoom).
			Int("tiles", s.Tiles).
			Int("missing", s.Missing).
			Msg("zoom inspected")
	}

	if cfg.Format != config.FormatTable {
		if err := report.Encode(out, cfg.Format, report.NewMissingReport(idx, missing)); err != nil {
			return err
		}
	} else {
		printMissing(out, idx, missing)
	}

	if len(missing) > 0 && !cfg.NoHTML {
		if err := report.WriteHTMLFile(cfg.HTML, idx, missing); err != nil {
			return fmt.Errorf("write html report: %w", err)
		}
		htmlPath := cfg.HTML
		if abs, absErr := filepath.Abs(cfg.HTML); absErr == nil {
			htmlPath = abs
		}
		logger.Info().Str("path", htmlPath).Msg("html report written")
	}

	logger.Info().Dur("elapsed", time.Since(started)).Msg("missing-tile detection finished")
	return nil
}

func printMissing(out io.Writer, idx *tiles.Index, missing []tiles.MissingTile) {
	if len(missing) > 0 {
		rows := make([][]string, 0, len(missing))
		for _, m := range missing {
			rows = append(rows, []string{
				strconv.Itoa(m.Z), strconv.Itoa(m.X), strconv.Itoa(m.Y),
				strconv.Itoa(m.Neighbors), m.ExpectedPath,
			})
		}
		fmt.Fprintln(out, tui.RenderTable([]string{"zoom", "x", "y", "neighbors", "expected file"}, rows))
		fmt.Fprintln(out)
	} else {
		fmt.Fprintln(out, missingDimStyle.Render("No missing tiles detected."))
	}

	fmt.Fprintln(out, tui.RenderSummary([]tui.SummaryRow{
		{Label: "Zoom levels", Value: strconv.Itoa(len(idx.Zooms()))},
		{Label: "Existing tiles", Value: strconv.Itoa(idx.Len())},
		{Label: "Missing tiles", Value: strconv.Itoa(len(missing))},
	}))
}

var missingDimStyle = lipgloss.NewStyle().Foreground(tui.ColorDim)

func init() {
	defaults := config.DefaultMissing()
	missingCmd.Flags().Int("zoom", defaults.Zoom, "only inspect this zoom level (default: all levels)")
	missingCmd.Flags().String("pattern", defaults.Pattern, "regular expression extracting z, x, y from tile paths")
	missingCmd.Flags().Int("min-neighbors", defaults.MinNeighbors, "present neighbours (of 8) needed to flag a gap")
	missingCmd.Flags().Int("padding", defaults.Padding, "cells excluded from inspection along each edge")
	missingCmd.Flags().String("html", defaults.HTML, "html visualisation output file")
	missingCmd.Flags().Bool("no-html", defaults.NoHTML, "do not write the html visualisation")
	missingCmd.Flags().String("format", defaults.Format, "stdout format: table, json or yaml")

	rootCmd.AddCommand(missingCmd)
}
