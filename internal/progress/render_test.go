package progress

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConsoleRenderer(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(WithRenderer(NewConsoleRenderer(&buf)))

	p.Receive(Event{Phase: PhaseCounting, Current: 5, Max: 10})
	p.Receive(Event{Phase: PhaseCounting, Current: 5, Max: 10})
	p.Receive(Event{Phase: PhaseCounting, Current: 10, Max: 10})
	p.Receive(Event{Phase: PhaseResolving, Current: 1, Max: 4})
	p.Reconcile()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, []string{
		symbolPending + " Counting objects: 50.0% (5/10)",
		symbolSuccess + " Counting objects: 100.0% (10/10)",
		symbolPending + " Resolving deltas: 25.0%",
		symbolFailure + " Resolving deltas: 25.0%",
	}, lines)
}

func TestConsoleRenderer_IgnoresIdle(t *testing.T) {
	var buf bytes.Buffer
	r := NewConsoleRenderer(&buf)
	r.RenderPhase(PhaseTracker{Phase: PhaseCounting, State: PhaseIdle, Text: "x"})
	r.RenderPhase(PhaseTracker{Phase: Phase(-1), State: PhaseRunning, Text: "x"})
	assert.Empty(t, buf.String())
}

func TestConsoleRenderer_InPlace(t *testing.T) {
	var buf bytes.Buffer
	r := NewConsoleRenderer(&buf)
	r.inPlace = true
	p := NewProgress(WithRenderer(r))

	p.Receive(Event{Phase: PhaseReceiving, Current: 1, Max: 4})
	p.Receive(Event{Phase: PhaseReceiving, Current: 2, Max: 4})
	p.Receive(Event{Phase: PhaseReceiving, Current: 4, Max: 4, Message: "done."})
	p.Receive(Event{Phase: PhaseResolving, Current: 1, Max: 2})
	p.Receive(Event{Phase: PhaseCounting, Current: 1, Max: 3})
	p.Reconcile()

	assert.Equal(t,
		clearLine+symbolPending+" Receiving objects: 25.0%"+
			clearLine+symbolPending+" Receiving objects: 50.0%"+
			clearLine+symbolSuccess+" Receiving objects: 100.0%, done.\n"+
			clearLine+symbolPending+" Resolving deltas: 50.0%"+
			"\n"+clearLine+symbolPending+" Counting objects: 33.33% (1/3)"+
			clearLine+symbolFailure+" Counting objects: 33.33% (1/3)\n"+
			clearLine+symbolFailure+" Resolving deltas: 50.0%\n",
		buf.String())
}

func TestConsoleRenderer_NotTerminal(t *testing.T) {
	assert.False(t, NewConsoleRenderer(&bytes.Buffer{}).inPlace)
}
