package progress

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
)

// Phase is a stage reported by the clone transport.
type Phase int

const (
	PhaseCounting Phase = iota
	PhaseCompressing
	PhaseReceiving
	PhaseResolving

	phaseCount = 4
)

// Phases lists every phase in display order.
var Phases = []Phase{PhaseCounting, PhaseCompressing, PhaseReceiving, PhaseResolving}

var phaseLabels = [phaseCount]string{
	"Counting objects",
	"Compressing objects",
	"Receiving objects",
	"Resolving deltas",
}

// Label returns the label git prints for the phase.
func (p Phase) Label() string {
	if !p.valid() {
		return fmt.Sprintf("phase(%d)", int(p))
	}
	return phaseLabels[p]
}

func (p Phase) String() string {
	if !p.valid() {
		return fmt.Sprintf("phase(%d)", int(p))
	}
	return strings.ToLower(strings.Fields(phaseLabels[p])[0])
}

func (p Phase) valid() bool {
	return p >= 0 && p < phaseCount
}

// PhaseFromLabel maps a git progress label such as "Receiving objects" to
// its phase.
func PhaseFromLabel(label string) (Phase, bool) {
	for i, l := range phaseLabels {
		if l == label {
			return Phase(i), true
		}
	}
	return 0, false
}

// Event is a single progress report from the transport.
type Event struct {
	Phase   Phase
	Current int64
	Max     int64
	Message string
}

// Sink receives progress events.
type Sink interface {
	Receive(Event)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(Event)

// Receive calls f(ev).
func (f SinkFunc) Receive(ev Event) { f(ev) }

// PhaseState is the display state of a phase tracker.
type PhaseState int

const (
	PhaseIdle PhaseState = iota
	PhaseRunning
	PhaseSucceeded
	PhaseFailed
)

func (s PhaseState) String() string {
	switch s {
	case PhaseIdle:
		return "idle"
	case PhaseRunning:
		return "running"
	case PhaseSucceeded:
		return "succeeded"
	case PhaseFailed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// PhaseTracker holds the display state of one phase.
type PhaseTracker struct {
	Phase      Phase
	State      PhaseState
	Percent    float64
	Current    int64
	Max        int64
	Message    string
	Text       string
	StartedAt  time.Time
	FinishedAt time.Time
}

// Terminal reports whether the tracker has succeeded or failed.
func (t PhaseTracker) Terminal() bool {
	return t.State == PhaseSucceeded || t.State == PhaseFailed
}

// Renderer displays phase tracker changes.
type Renderer interface {
	RenderPhase(PhaseTracker)
}

// Progress is the progress state of a single clone. It implements Sink and
// is updated only from the transport's progress callback, which runs
// synchronously with respect to the clone call, so it carries no lock. Read
// it after the clone returns.
type Progress struct {
	trackers [phaseCount]PhaseTracker
	renderer Renderer
	clock    clockwork.Clock
}

// Option configures a Progress.
type Option func(*Progress)

// WithRenderer displays every tracker change with r.
func WithRenderer(r Renderer) Option {
	return func(p *Progress) {
		p.renderer = r
	}
}

// WithClock sets the clock used for tracker timestamps.
func WithClock(c clockwork.Clock) Option {
	return func(p *Progress) {
		p.clock = c
	}
}

// NewProgress creates an empty Progress with all four trackers idle.
func NewProgress(opts ...Option) *Progress {
	p := &Progress{clock: clockwork.NewRealClock()}
	for _, opt := range opts {
		opt(p)
	}
	for i := range p.trackers {
		p.trackers[i].Phase = Phase(i)
	}
	return p
}

// Receive applies a progress event to its phase tracker. The first event
// starts the tracker. Percentages never go down, and a tracker that has
// reached 100% succeeds exactly once; later events for it are ignored.
func (p *Progress) Receive(ev Event) {
	if !ev.Phase.valid() {
		return
	}
	t := &p.trackers[ev.Phase]
	if t.Terminal() {
		return
	}

	percent := Percent(ev.Current, ev.Max)
	if t.State == PhaseRunning && percent < t.Percent {
		return
	}
	if t.State == PhaseIdle {
		t.State = PhaseRunning
		t.StartedAt = p.clock.Now()
	}

	t.Percent = percent
	t.Current = ev.Current
	t.Max = ev.Max
	t.Message = ev.Message
	t.Text = formatText(ev.Phase, percent, ev.Current, ev.Max, ev.Message)

	if percent == 100 {
		t.State = PhaseSucceeded
		t.FinishedAt = p.clock.Now()
	}
	p.render(t)
}

// Reconcile marks every tracker that started but never reached 100% as
// failed. The transport does not always report a final event for every
// phase. It returns the number of trackers it failed.
func (p *Progress) Reconcile() int {
	failed := 0
	for i := range p.trackers {
		t := &p.trackers[i]
		if t.State != PhaseRunning || t.Text == "" {
			continue
		}
		t.State = PhaseFailed
		t.FinishedAt = p.clock.Now()
		failed++
		p.render(t)
	}
	return failed
}

// Tracker returns a copy of the tracker for phase.
func (p *Progress) Tracker(phase Phase) PhaseTracker {
	if !phase.valid() {
		return PhaseTracker{Phase: phase}
	}
	return p.trackers[phase]
}

// Snapshot returns copies of all trackers in display order.
func (p *Progress) Snapshot() []PhaseTracker {
	out := make([]PhaseTracker, 0, phaseCount)
	for _, t := range p.trackers {
		out = append(out, t)
	}
	return out
}

func (p *Progress) render(t *PhaseTracker) {
	if p.renderer != nil {
		p.renderer.RenderPhase(*t)
	}
}

// Percent returns current/max as a percentage rounded to two decimals,
// clamped to [0, 100]. A non-positive max yields 0.
func Percent(current, max int64) float64 {
	if max <= 0 || current <= 0 {
		return 0
	}
	v := math.Round(float64(current)/float64(max)*100*100) / 100
	return math.Min(v, 100)
}

// FormatPercent prints a percentage with at least one decimal, e.g. 25.0
// or 33.33.
func FormatPercent(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

func formatText(phase Phase, percent float64, current, max int64, message string) string {
	pct := FormatPercent(percent)
	switch phase {
	case PhaseReceiving:
		if message == "" {
			return fmt.Sprintf("%s: %s%%", phase.Label(), pct)
		}
		return fmt.Sprintf("%s: %s%%, %s", phase.Label(), pct, message)
	case PhaseResolving:
		return fmt.Sprintf("%s: %s%%", phase.Label(), pct)
	default:
		return fmt.Sprintf("%s: %s%% (%d/%d)", phase.Label(), pct, current, max)
	}
}
