package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/oraops/oradbctl/internal/model"
	"github.com/oraops/oradbctl/internal/reconcile"
	"github.com/oraops/oradbctl/internal/tui/components"
)

// StageMsg carries one reconciliation event into the TUI.
type StageMsg struct {
	Event reconcile.Event
}

// DoneMsg reports that the pass reached its terminal state.
type DoneMsg struct {
	Outcome model.Outcome
	Err     error
}

type tickMsg struct{}

// Model contains the Bubbletea state for one reconciliation pass. Stages are
// not known up front; they join the list in the order the driver reaches
// them.
type Model struct {
	database       string
	stages         map[reconcile.Stage]components.StageStatus
	order          []reconcile.Stage
	started        map[reconcile.Stage]time.Time
	outcome        model.Outcome
	err            error
	completed      int
	finished       bool
	cancelled      bool
	nonInteractive bool
}

// NewModel constructs a TUI model for a pass over the named database.
func NewModel(database string, nonInteractive bool) Model {
	return Model{
		database:       database,
		stages:         make(map[reconcile.Stage]components.StageStatus),
		order:          make([]reconcile.Stage, 0),
		started:        make(map[reconcile.Stage]time.Time),
		nonInteractive: nonInteractive,
	}
}

// Init starts the Bubbletea program.
func (m Model) Init() tea.Cmd {
	return tea.Tick(time.Millisecond, func(time.Time) tea.Msg { return tickMsg{} })
}

// StageCount returns the number of stages the pass has reached so far.
func (m Model) StageCount() int {
	return len(m.order)
}

// CompletedStages returns the number of stages that finished or failed.
func (m Model) CompletedStages() int {
	return m.completed
}

// IsFinished reports whether the pass has reached a terminal state.
func (m Model) IsFinished() bool {
	return m.finished
}

// Outcome returns the terminal outcome once the pass has finished.
func (m Model) Outcome() model.Outcome {
	return m.outcome
}

// Err returns the terminal error, if the pass failed.
func (m Model) Err() error {
	return m.err
}

func (m *Model) ensureStage(stage reconcile.Stage) {
	if stage == "" {
		return
	}
	if _, exists := m.stages[stage]; !exists {
		m.stages[stage] = components.StageStatus{}
		m.order = append(m.order, stage)
	}
}

func terminalStatus(status reconcile.Status) bool {
	return status == reconcile.StatusDone || status == reconcile.StatusFailed
}
