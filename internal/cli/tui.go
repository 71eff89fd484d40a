package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/tessellate/pkg/pipeline"
)

var (
	barFilledStyle = lipgloss.NewStyle().Foreground(colorCyan)
	barEmptyStyle  = lipgloss.NewStyle().Foreground(colorDim)
	tuiHelpStyle   = lipgloss.NewStyle().Foreground(colorDim)
)

const (
	defaultBarWidth = 40
	minBarWidth     = 10
)

// =============================================================================
// SolveModel - Live solver progress
// =============================================================================

type solveProgressMsg struct{ done, total int }

type solveDoneMsg struct {
	result *pipeline.Result
	err    error
}

// tickMsg refreshes the elapsed time while no progress arrives.
type tickMsg time.Time

// SolveModel is the bubbletea model behind --tui. It shows the solver's
// row progress and quits once the pipeline returns.
type SolveModel struct {
	Title    string
	Done     int
	Total    int
	Start    time.Time
	Now      time.Time
	Width    int
	Result   *pipeline.Result
	Err      error
	Stopping bool

	cancel context.CancelFunc
}

// NewSolveModel creates a progress model. cancel is called when the user quits.
func NewSolveModel(title string, cancel context.CancelFunc) SolveModel {
	now := time.Now()
	return SolveModel{
		Title:  title,
		Start:  now,
		Now:    now,
		Width:  defaultBarWidth,
		cancel: cancel,
	}
}

func tick() tea.Cmd {
	return tea.Tick(200*time.Millisecond, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m SolveModel) Init() tea.Cmd {
	return tick()
}

func (m SolveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			// Wait for the pipeline to observe the cancellation.
			if m.cancel != nil {
				m.cancel()
			}
			m.Stopping = true
		}
	case solveProgressMsg:
		m.Done, m.Total = msg.done, msg.total
	case solveDoneMsg:
		m.Result, m.Err = msg.result, msg.err
		if m.Err == nil && m.Total > 0 {
			m.Done = m.Total
		}
		return m, tea.Quit
	case tickMsg:
		m.Now = time.Time(msg)
		return m, tick()
	case tea.WindowSizeMsg:
		m.Width = max(minBarWidth, min(defaultBarWidth, msg.Width-20))
	}
	return m, nil
}

func (m SolveModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(m.Title))
	b.WriteString("\n\n")

	switch {
	case m.Stopping && m.Result == nil && m.Err == nil:
		b.WriteString(StyleWarning.Render("stopping…"))
	case m.Total == 0:
		b.WriteString(StyleDim.Render("loading tiles and scoring cells…"))
	default:
		b.WriteString(m.bar())
		fmt.Fprintf(&b, " %s %s",
			StyleNumber.Render(fmt.Sprintf("%3d%%", m.Done*100/m.Total)),
			StyleDim.Render(fmt.Sprintf("%d/%d rows", m.Done, m.Total)))
	}

	b.WriteString("\n")
	b.WriteString(StyleDim.Render(fmt.Sprintf("elapsed %s", m.Now.Sub(m.Start).Round(100*time.Millisecond))))
	b.WriteString("\n\n")
	b.WriteString(tuiHelpStyle.Render("q quit"))
	b.WriteString("\n")
	return b.String()
}

func (m SolveModel) bar() string {
	filled := 0
	if m.Total > 0 {
		filled = min(m.Width, m.Width*m.Done/m.Total)
	}
	return barFilledStyle.Render(strings.Repeat("█", filled)) +
		barEmptyStyle.Render(strings.Repeat("░", m.Width-filled))
}

// =============================================================================
// Runner integration
// =============================================================================

// runWithTUI executes the pipeline while a SolveModel renders its progress
// on stderr.
func runWithTUI(ctx context.Context, runner *pipeline.Runner, opts pipeline.Options) (*pipeline.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(NewSolveModel("Solving "+opts.Target, cancel), tea.WithOutput(os.Stderr))

	last := -1
	opts.Progress = func(done, total int) {
		if total <= 0 {
			return
		}
		// Only forward whole-percent steps.
		if pct := done * 100 / total; pct != last || done == total {
			last = pct
			p.Send(solveProgressMsg{done: done, total: total})
		}
	}

	go func() {
		res, err := runner.Execute(ctx, opts)
		p.Send(solveDoneMsg{result: res, err: err})
	}()

	final, err := p.Run()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("progress view: %w", err)
	}
	m := final.(SolveModel)
	return m.Result, m.Err
}
