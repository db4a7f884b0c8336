// Package progress tracks the progress of box provisioning. Stage trackers
// follow the coarse steps of the workflow (prepare, download, unpack) while
// Progress follows the four phases git reports during a clone.
package progress

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/jonboulle/clockwork"
)

// Operation statuses
const (
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// Tracker interface defines methods for tracking operation progress
type Tracker interface {
	Start(operation string) *Operation
	Update(current, total int64)
	Complete()
	Error(err error)
}

// Operation represents a tracked operation
type Operation struct {
	Name        string
	StartTime   time.Time
	EndTime     time.Time
	Status      string
	LastCurrent int64
	LastTotal   int64
	Err         error
}

// Duration returns how long the operation ran, or has been running.
func (o *Operation) Duration(clock clockwork.Clock) time.Duration {
	if o.EndTime.IsZero() {
		return clock.Since(o.StartTime)
	}
	return o.EndTime.Sub(o.StartTime)
}

// DefaultTracker records operations without printing anything. Finished
// operations are kept in History.
type DefaultTracker struct {
	CurrentOperation *Operation
	History          []*Operation
	Clock            clockwork.Clock
}

func (t *DefaultTracker) clock() clockwork.Clock {
	if t.Clock == nil {
		t.Clock = clockwork.NewRealClock()
	}
	return t.Clock
}

// Start begins tracking a new operation
func (t *DefaultTracker) Start(operation string) *Operation {
	t.CurrentOperation = &Operation{
		Name:      operation,
		StartTime: t.clock().Now(),
		Status:    StatusInProgress,
	}
	t.History = append(t.History, t.CurrentOperation)
	return t.CurrentOperation
}

// Update updates the progress of the current operation
func (t *DefaultTracker) Update(current, total int64) {
	if t.CurrentOperation == nil {
		return
	}
	t.CurrentOperation.LastCurrent = current
	t.CurrentOperation.LastTotal = total
}

// Complete marks the operation as completed
func (t *DefaultTracker) Complete() {
	if t.CurrentOperation == nil {
		return
	}
	t.CurrentOperation.Status = StatusCompleted
	t.CurrentOperation.EndTime = t.clock().Now()
}

// Error marks the operation as failed with an error
func (t *DefaultTracker) Error(err error) {
	if t.CurrentOperation == nil {
		return
	}
	t.CurrentOperation.Status = StatusFailed
	t.CurrentOperation.Err = err
	t.CurrentOperation.EndTime = t.clock().Now()
}

// ConsoleTracker implements Tracker for console output. Updates are recorded
// but not printed; the final line summarizes them.
type ConsoleTracker struct {
	DefaultTracker
	out    io.Writer
	styles styles
}

// NewConsoleTracker creates a console tracker writing to w, or to stdout
// when w is nil.
func NewConsoleTracker(w io.Writer) *ConsoleTracker {
	if w == nil {
		w = os.Stdout
	}
	return &ConsoleTracker{out: w, styles: newStyles(w)}
}

// Start begins tracking a new operation
func (t *ConsoleTracker) Start(operation string) *Operation {
	op := t.DefaultTracker.Start(operation)
	fmt.Fprintf(t.out, "%s %s\n", t.styles.pending.Render(symbolPending), operation)
	return op
}

// Complete marks the current operation as completed
func (t *ConsoleTracker) Complete() {
	op := t.CurrentOperation
	if op == nil {
		return
	}
	t.DefaultTracker.Complete()
	if op.LastTotal > 0 {
		fmt.Fprintf(t.out, "%s %s: %d objects in %s\n", t.styles.success.Render(symbolSuccess),
			op.Name, op.LastTotal, op.Duration(t.clock()).Round(10*time.Millisecond))
	} else {
		fmt.Fprintf(t.out, "%s %s\n", t.styles.success.Render(symbolSuccess), op.Name)
	}
	t.CurrentOperation = nil
}

// Error marks the current operation as failed
func (t *ConsoleTracker) Error(err error) {
	op := t.CurrentOperation
	if op == nil {
		return
	}
	t.DefaultTracker.Error(err)
	fmt.Fprintf(t.out, "%s %s\n", t.styles.failure.Render(symbolFailure), op.Name)
	t.CurrentOperation = nil
}
