package main

import (
	"errors"
	"strings"
	"testing"

	"github.com/AndrewLester/ntpsync/pkg/ntpsync"
	tea "github.com/charmbracelet/bubbletea"
)

func TestActionFor(t *testing.T) {
	tests := []struct {
		detailed, set bool
		want          ntpsync.Action
	}{
		{false, false, ntpsync.QuickQuery},
		{true, false, ntpsync.DetailedQuery},
		{false, true, ntpsync.QueryAndApply},
		{true, true, ntpsync.QueryAndApply},
	}
	for _, tt := range tests {
		if got := actionFor(tt.detailed, tt.set); got != tt.want {
			t.Errorf("actionFor(%v, %v) = %v, want %v", tt.detailed, tt.set, got, tt.want)
		}
	}
}

func TestQueryModel(t *testing.T) {
	offset := int64(7)
	done := render(ntpsync.StatusOk, "time.example", &offset, nil, nil, nil)
	m := newQueryCommandModel(queryRequest{action: ntpsync.QuickQuery}, func() (*outcome, error) { return done, nil })

	if view := m.View(); !strings.Contains(view, "the configured server") {
		t.Errorf("View() while running = %q", view)
	}

	msg := queryCommand(m.run)()
	next, cmd := m.Update(msg)
	if cmd == nil {
		t.Error("Update() did not quit after the result")
	}
	final := next.(queryCommandModel)
	if final.outcome != done || !final.outcome.ok {
		t.Errorf("outcome = %+v", final.outcome)
	}
	if view := final.View(); !strings.Contains(view, "+7 ms") {
		t.Errorf("View() = %q", view)
	}
}

func TestQueryModelError(t *testing.T) {
	failure := errors.New("connecting to ntpsync daemon: refused")
	m := newQueryCommandModel(queryRequest{}, func() (*outcome, error) { return nil, failure })

	next, _ := m.Update(queryCommand(m.run)())
	final := next.(queryCommandModel)
	if final.GetError() != failure {
		t.Errorf("GetError() = %v, want %v", final.GetError(), failure)
	}
	if final.View() != "" {
		t.Errorf("View() = %q, want empty on error", final.View())
	}

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Error("ctrl+c did not quit")
	}
}

func TestRenderFailure(t *testing.T) {
	out := render(ntpsync.StatusClockSetDenied, "time.example", nil, nil, nil, nil)
	if out.ok || !strings.Contains(out.text, ntpsync.StatusClockSetDenied.Message()) {
		t.Errorf("render() = %+v", out)
	}
}
