package cli

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/tessellate/pkg/pipeline"
)

func update(t *testing.T, m SolveModel, msg tea.Msg) (SolveModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	sm, ok := next.(SolveModel)
	if !ok {
		t.Fatalf("Update returned %T", next)
	}
	return sm, cmd
}

func TestSolveModelProgress(t *testing.T) {
	m := NewSolveModel("Solving target.png", nil)

	if !strings.Contains(m.View(), "loading") {
		t.Errorf("initial view should show loading, got %q", m.View())
	}

	m, cmd := update(t, m, solveProgressMsg{done: 3, total: 12})
	if cmd != nil {
		t.Error("progress should not schedule commands")
	}
	view := m.View()
	if !strings.Contains(view, " 25%") || !strings.Contains(view, "3/12 rows") {
		t.Errorf("view = %q, want 25%% and row count", view)
	}
	if !strings.Contains(view, "Solving target.png") {
		t.Errorf("view should include the title")
	}
}

func TestSolveModelBar(t *testing.T) {
	m := NewSolveModel("t", nil)
	m.Width = 10
	m.Done, m.Total = 5, 10

	bar := m.bar()
	if got := strings.Count(bar, "█"); got != 5 {
		t.Errorf("filled = %d, want 5", got)
	}
	if got := strings.Count(bar, "░"); got != 5 {
		t.Errorf("empty = %d, want 5", got)
	}
}

func TestSolveModelDone(t *testing.T) {
	m := NewSolveModel("t", nil)
	m, _ = update(t, m, solveProgressMsg{done: 7, total: 8})

	res := &pipeline.Result{}
	m, cmd := update(t, m, solveDoneMsg{result: res})
	if cmd == nil {
		t.Fatal("done should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("done should return tea.Quit")
	}
	if m.Result != res || m.Err != nil {
		t.Errorf("result not recorded: %+v", m)
	}
	if m.Done != m.Total {
		t.Errorf("done = %d, want bar filled", m.Done)
	}
}

func TestSolveModelQuitCancels(t *testing.T) {
	cancelled := false
	m := NewSolveModel("t", func() { cancelled = true })

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if !cancelled {
		t.Error("q should cancel the pipeline")
	}
	if cmd != nil {
		t.Error("q should wait for the pipeline instead of quitting")
	}
	if !strings.Contains(m.View(), "stopping") {
		t.Errorf("view = %q, want stopping notice", m.View())
	}

	m, _ = update(t, m, solveDoneMsg{err: errors.New("canceled")})
	if m.Err == nil {
		t.Error("error should be recorded")
	}
}

func TestSolveModelTickAndResize(t *testing.T) {
	m := NewSolveModel("t", nil)
	later := m.Start.Add(2 * time.Second)

	m, cmd := update(t, m, tickMsg(later))
	if cmd == nil {
		t.Error("tick should schedule the next tick")
	}
	if !strings.Contains(m.View(), "elapsed 2s") {
		t.Errorf("view = %q, want elapsed 2s", m.View())
	}

	m, _ = update(t, m, tea.WindowSizeMsg{Width: 25})
	if m.Width != minBarWidth {
		t.Errorf("Width = %d, want %d", m.Width, minBarWidth)
	}
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 200})
	if m.Width != defaultBarWidth {
		t.Errorf("Width = %d, want %d", m.Width, defaultBarWidth)
	}
}
