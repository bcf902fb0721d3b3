package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/oraops/oradbctl/internal/reconcile"
)

func TestUpdateCtrlCCancels(t *testing.T) {
	m := NewModel("orcl", false)

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	m = updated.(Model)
	require.True(t, m.cancelled)
	require.True(t, m.finished)
}

func TestUpdateFailedStageFinishesPass(t *testing.T) {
	m := NewModel("orcl", false)

	updated, _ := m.Update(StageMsg{Event: reconcile.Event{Stage: reconcile.StageRestart, Status: reconcile.StatusFailed, Detail: "ORA-01034"}})
	m = updated.(Model)
	require.True(t, m.finished)
	require.Equal(t, 1, m.completed)
	require.Equal(t, "ORA-01034", m.stages[reconcile.StageRestart].Event.Detail)
}

func TestUpdateTerminalEventCountsOnce(t *testing.T) {
	m := NewModel("orcl", false)

	done := StageMsg{Event: reconcile.Event{Stage: reconcile.StageObserve, Status: reconcile.StatusDone}}
	updated, _ := m.Update(done)
	m = updated.(Model)
	updated, _ = m.Update(done)
	m = updated.(Model)

	require.Equal(t, 1, m.completed)
	require.Len(t, m.order, 1)
}

func TestUpdateIgnoresEmptyStage(t *testing.T) {
	m := NewModel("orcl", false)

	updated, _ := m.Update(StageMsg{Event: reconcile.Event{Status: reconcile.StatusDone}})
	m = updated.(Model)
	require.Empty(t, m.order)
	require.Zero(t, m.completed)
}
