package progress

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

const (
	symbolPending = "…"
	symbolSuccess = "✔"
	symbolFailure = "✖"

	// carriage return and erase to end of line
	clearLine = "\r\x1b[K"
)

type styles struct {
	pending lipgloss.Style
	success lipgloss.Style
	failure lipgloss.Style
}

// newStyles builds styles for w; color is only emitted when w is a terminal.
func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	return styles{
		pending: r.NewStyle().Foreground(lipgloss.Color("6")),
		success: r.NewStyle().Foreground(lipgloss.Color("2")).Bold(true),
		failure: r.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
	}
}

// ConsoleRenderer prints phase tracker changes. Running phases are printed
// only when their text changes. On a terminal a running phase is redrawn in
// place and a line is kept once the phase finishes; elsewhere every change
// gets its own line.
type ConsoleRenderer struct {
	out     io.Writer
	styles  styles
	last    [phaseCount]string
	inPlace bool
	open    Phase // phase drawn on the unfinished line, if any
	hasOpen bool
}

// NewConsoleRenderer creates a renderer writing to w, or to stdout when w
// is nil.
func NewConsoleRenderer(w io.Writer) *ConsoleRenderer {
	if w == nil {
		w = os.Stdout
	}
	return &ConsoleRenderer{out: w, styles: newStyles(w), inPlace: isTerminal(w)}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// RenderPhase implements Renderer.
func (r *ConsoleRenderer) RenderPhase(t PhaseTracker) {
	if !t.Phase.valid() {
		return
	}
	var symbol string
	switch t.State {
	case PhaseRunning:
		if r.last[t.Phase] == t.Text {
			return
		}
		symbol = r.styles.pending.Render(symbolPending)
	case PhaseSucceeded:
		symbol = r.styles.success.Render(symbolSuccess)
	case PhaseFailed:
		symbol = r.styles.failure.Render(symbolFailure)
	default:
		return
	}
	r.last[t.Phase] = t.Text
	line := symbol + " " + t.Text

	if !r.inPlace {
		fmt.Fprintln(r.out, line)
		return
	}

	// another phase's unfinished line stays as it is
	if r.hasOpen && r.open != t.Phase {
		fmt.Fprintln(r.out)
	}
	fmt.Fprint(r.out, clearLine+line)
	if t.State == PhaseRunning {
		r.open, r.hasOpen = t.Phase, true
		return
	}
	fmt.Fprintln(r.out)
	r.hasOpen = false
}
