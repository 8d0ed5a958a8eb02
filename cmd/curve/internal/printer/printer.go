// Package printer formats curve reports and status lines for the terminal.
package printer

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"

	"github.com/meenmo/ratecurve/builder"
)

func init() {
	// Users can disable colors with NO_COLOR.
	if os.Getenv("NO_COLOR") != "" {
		color.NoColor = true
	}
}

var (
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed, color.Bold)
	cyan   = color.New(color.FgCyan)
)

// Printer writes to an output and an error stream.
type Printer struct {
	out io.Writer
	err io.Writer
}

func New(out, errOut io.Writer) *Printer {
	return &Printer{out: out, err: errOut}
}

// Success prints a green status line.
func (p *Printer) Success(format string, a ...any) {
	green.Fprintf(p.out, "✓ %s\n", fmt.Sprintf(format, a...))
}

// Warning prints a yellow status line.
func (p *Printer) Warning(format string, a ...any) {
	yellow.Fprintf(p.out, "! %s\n", fmt.Sprintf(format, a...))
}

// Step prints a cyan progress line.
func (p *Printer) Step(format string, a ...any) {
	cyan.Fprintf(p.out, "→ %s\n", fmt.Sprintf(format, a...))
}

// Error prints a titled error with an explanation and suggestions to the
// error stream and returns an error carrying the title.
func (p *Printer) Error(title, explanation string, suggestions ...string) error {
	red.Fprintf(p.err, "%s\n\n", title)
	if explanation != "" {
		fmt.Fprintf(p.err, "%s\n", explanation)
	}
	if len(suggestions) > 0 {
		fmt.Fprintln(p.err)
		for _, s := range suggestions {
			fmt.Fprintf(p.err, "  - %s\n", s)
		}
	}
	return fmt.Errorf("%s", title)
}

// Report prints a curve's nodes as a table.
func (p *Printer) Report(r *builder.CurveReport) {
	cyan.Fprintf(p.out, "%s", r.Name)
	fmt.Fprintf(p.out, "  reference %s, %s, %d evaluations", r.ReferenceDate, r.Representation, r.Evaluations)
	if r.JointResolves > 0 || r.ColdRetries > 0 {
		yellow.Fprintf(p.out, ", %d cold retries, %d joint re-solves", r.ColdRetries, r.JointResolves)
	}
	fmt.Fprintf(p.out, " (%.2f ms)\n", r.DurationMillis)

	fmt.Fprintf(p.out, "  %-16s %-10s %8s %14s %14s %10s %10s\n",
		"helper", "pillar", "time", "value", "discount", "zero %", "residual")
	for _, n := range r.Nodes {
		fmt.Fprintf(p.out, "  %-16s %-10s %8.4f %14.10f %14.10f %10.6f %10.2e\n",
			n.Helper, n.Date, n.Time, n.Value, n.Discount, 100*n.ZeroRate, n.Residual)
	}
}

// JSON writes v as indented JSON.
func (p *Printer) JSON(v any) error {
	enc := json.NewEncoder(p.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
