// Package ui renders operator-facing pipeline output.
//
// Banners and stage confirmations are observability only; nothing here
// participates in control flow. Color is dropped automatically when stdout
// is not a terminal.
package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// Printer writes human-readable pipeline progress.
type Printer struct {
	out   io.Writer
	color bool
}

// NewPrinter returns a Printer writing to out. Color is enabled only when
// out is a terminal.
func NewPrinter(out io.Writer) *Printer {
	color := false
	if f, ok := out.(*os.File); ok {
		color = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return &Printer{out: out, color: color}
}

// NewPlainPrinter returns a Printer that never emits color. Used in tests.
func NewPlainPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

func (p *Printer) render(style lipgloss.Style, text string) string {
	if !p.color {
		return text
	}
	return style.Render(text)
}

// Banner announces a stage before it runs.
func (p *Printer) Banner(position, total int, name, summary string) {
	fmt.Fprintf(p.out, "\n%s %s\n",
		p.render(bannerStyle, fmt.Sprintf("%s Stage %d/%d: %s", runMark, position, total, name)),
		p.render(dimStyle, summary))
}

// Done confirms a completed stage.
func (p *Printer) Done(name string) {
	fmt.Fprintf(p.out, "%s %s\n", p.render(doneStyle, checkMark), name+" completed")
}

// Skip reports a stage bypassed by the resume cursor.
func (p *Printer) Skip(name string) {
	fmt.Fprintf(p.out, "%s %s\n", p.render(dimStyle, skipMark), name+" skipped")
}

// Warn reports a non-fatal problem.
func (p *Printer) Warn(format string, args ...any) {
	fmt.Fprintf(p.out, "%s %s\n", p.render(warningStyle, warnMark), fmt.Sprintf(format, args...))
}

// Info prints a plain informational line.
func (p *Printer) Info(format string, args ...any) {
	fmt.Fprintf(p.out, "%s\n", fmt.Sprintf(format, args...))
}

// Error renders a failure. All pipeline failures end up here exactly once,
// right before the process exits.
func (p *Printer) Error(err error) {
	fmt.Fprintf(p.out, "%s %s\n", p.render(failedStyle, crossMark), err.Error())
}
