package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/oraops/oradbctl/internal/reconcile"
	"github.com/oraops/oradbctl/internal/tui/components"
)

// Update handles Bubbletea messages and updates model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		return m, nil
	case StageMsg:
		m.applyEvent(msg.Event)
		return m, nil
	case DoneMsg:
		m.outcome = msg.Outcome
		m.err = msg.Err
		m.finished = true
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.cancelled = true
			m.finished = true
			return m, nil
		}
	case tea.QuitMsg:
		m.finished = true
		return m, nil
	}

	return m, nil
}

func (m *Model) applyEvent(ev reconcile.Event) {
	if ev.Stage == "" {
		return
	}
	m.ensureStage(ev.Stage)

	existing := m.stages[ev.Stage]
	wasTerminal := terminalStatus(existing.Event.Status)

	status := components.StageStatus{Event: ev, Duration: existing.Duration}
	switch ev.Status {
	case reconcile.StatusRunning:
		m.started[ev.Stage] = time.Now()
	case reconcile.StatusDone, reconcile.StatusFailed:
		if begun, ok := m.started[ev.Stage]; ok {
			status.Duration = time.Since(begun)
		}
	}
	m.stages[ev.Stage] = status

	if !wasTerminal && terminalStatus(ev.Status) {
		m.completed++
	}
	if ev.Status == reconcile.StatusFailed {
		m.finished = true
	}
}
