package git

import (
	"bytes"
	"regexp"
	"strconv"
	"strings"

	"github.com/NicabarNimble/punica-box/internal/progress"
)

// Match lines like:
//
//	remote: Counting objects: 100% (12/12), done.
//	remote: Compressing objects:  50% (4/8)
//	Receiving objects:  67% (35484/52960), 236.76 MiB | 78.92 MiB/s
//	Resolving deltas: 100% (3/3), done.
var progressRegex = regexp.MustCompile(
	`^(?:remote:\s*)?(Counting objects|Compressing objects|Receiving objects|Resolving deltas):\s*\d+%\s*\((\d+)/(\d+)\)(?:,\s*(.*))?$`)

// progressWriter turns git's progress output into progress events. git
// separates updates with carriage returns, so both \r and \n end a line.
// Partial lines are buffered across writes.
type progressWriter struct {
	sink progress.Sink
	buf  bytes.Buffer
}

func newProgressWriter(sink progress.Sink) *progressWriter {
	return &progressWriter{sink: sink}
}

func (pw *progressWriter) Write(p []byte) (int, error) {
	for _, b := range p {
		if b == '\r' || b == '\n' {
			pw.emit()
			continue
		}
		pw.buf.WriteByte(b)
	}
	return len(p), nil
}

// Flush handles a trailing line that was not terminated.
func (pw *progressWriter) Flush() {
	pw.emit()
}

func (pw *progressWriter) emit() {
	if pw.buf.Len() == 0 {
		return
	}
	line := strings.TrimSpace(pw.buf.String())
	pw.buf.Reset()

	if ev, ok := parseProgressLine(line); ok {
		pw.sink.Receive(ev)
	}
}

func parseProgressLine(line string) (progress.Event, bool) {
	matches := progressRegex.FindStringSubmatch(line)
	if matches == nil {
		return progress.Event{}, false
	}
	phase, ok := progress.PhaseFromLabel(matches[1])
	if !ok {
		return progress.Event{}, false
	}
	current, err := strconv.ParseInt(matches[2], 10, 64)
	if err != nil {
		return progress.Event{}, false
	}
	max, err := strconv.ParseInt(matches[3], 10, 64)
	if err != nil {
		return progress.Event{}, false
	}
	return progress.Event{
		Phase:   phase,
		Current: current,
		Max:     max,
		Message: strings.TrimSpace(matches[4]),
	}, true
}

// errorOutput removes progress lines from git's stderr and keeps the rest,
// one line each, as the diagnostic for a failed clone.
func errorOutput(stderr string) string {
	var b strings.Builder
	lines := strings.FieldsFunc(stderr, func(r rune) bool { return r == '\r' || r == '\n' })
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if _, ok := parseProgressLine(strings.TrimSpace(line)); ok {
			continue
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}
