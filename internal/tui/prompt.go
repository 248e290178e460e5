package tui

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"tilesweep/internal/processor"
)

// Viewer shows an image to the user before a decision is requested.
type Viewer interface {
	Open(ctx context.Context, path string) error
}

// CommandViewer runs an external program with the image path appended.
type CommandViewer struct {
	Command []string
}

// DefaultViewerCommand returns the platform's usual image opener.
func DefaultViewerCommand() string {
	switch runtime.GOOS {
	case "darwin":
		return "open -a Preview"
	case "windows":
		return "explorer"
	default:
		return "xdg-open"
	}
}

// NewCommandViewer splits command on whitespace. An empty command yields nil.
func NewCommandViewer(command string) *CommandViewer {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return nil
	}
	return &CommandViewer{Command: fields}
}

func (v *CommandViewer) Open(ctx context.Context, path string) error {
	args := append(append([]string{}, v.Command[1:]...), path)
	return exec.CommandContext(ctx, v.Command[0], args...).Run()
}

// Prompt asks on Out whether to keep, delete or skip each detected file and
// reads the answer from In. End of input counts as skip.
type Prompt struct {
	in      *bufio.Reader
	out     io.Writer
	viewer  Viewer
	targets []processor.RGB

	start sync.Once
	lines chan lineResult
}

type lineResult struct {
	line string
	err  error
}

func NewPrompt(in io.Reader, out io.Writer, viewer Viewer, targets []processor.RGB) *Prompt {
	return &Prompt{in: bufio.NewReader(in), out: out, viewer: viewer, targets: targets}
}

func (p *Prompt) Decide(ctx context.Context, res processor.Result) (processor.Decision, error) {
	fmt.Fprintf(p.out, "\n%s %s\n", promptWarnStyle.Render("detected:"), promptPathStyle.Render(res.Path))
	for _, c := range p.targets {
		fmt.Fprintf(p.out, "  %s %s\n",
			dimStyle.Render(fmt.Sprintf("longest %s run:", c)),
			promptValueStyle.Render(fmt.Sprint(res.MaxRun(c))),
		)
	}

	if p.viewer != nil {
		if err := p.viewer.Open(ctx, res.Path); err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Str("path", res.Path).Msg("could not open viewer")
		}
	}

	for {
		if err := ctx.Err(); err != nil {
			return processor.Skip, err
		}
		fmt.Fprintf(p.out, "Keep %s? (y=keep / n=delete / s=skip): ", filepath.Base(res.Path))

		line, err := p.readLine(ctx)
		if err != nil && !errors.Is(err, io.EOF) {
			return processor.Skip, err
		}
		answer := strings.ToLower(strings.TrimSpace(line))
		switch answer {
		case "y", "yes":
			return processor.Keep, nil
		case "n", "no":
			return processor.Delete, nil
		case "s", "skip":
			return processor.Skip, nil
		}
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(p.out)
			return processor.Skip, nil
		}
		fmt.Fprintln(p.out, promptWarnStyle.Render("answer y (keep), n (delete) or s (skip)"))
	}
}

// readLine returns the next input line, or ctx.Err() as soon as ctx is
// cancelled. A single goroutine owns the reader so a line typed after a
// cancelled read is not lost.
func (p *Prompt) readLine(ctx context.Context) (string, error) {
	p.start.Do(func() {
		p.lines = make(chan lineResult)
		go p.readLoop()
	})
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r, ok := <-p.lines:
		if !ok {
			return "", io.EOF
		}
		return r.line, r.err
	}
}

func (p *Prompt) readLoop() {
	defer close(p.lines)
	for {
		line, err := p.in.ReadString('\n')
		p.lines <- lineResult{line: line, err: err}
		if err != nil {
			return
		}
	}
}

var (
	promptWarnStyle  = lipgloss.NewStyle().Bold(true).Foreground(ColorWarn)
	promptPathStyle  = lipgloss.NewStyle().Foreground(ColorAccent)
	promptValueStyle = lipgloss.NewStyle().Foreground(ColorInk).Bold(true)
)
