package tui

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/oraops/oradbctl/internal/model"
	"github.com/oraops/oradbctl/internal/reconcile"
)

func TestNewModelInitialisesState(t *testing.T) {
	m := NewModel("orcl", false)

	require.Equal(t, "orcl", m.database)
	require.False(t, m.finished)
	require.Zero(t, m.completed)
	require.Empty(t, m.order)
}

func TestModelInitReturnsTickCommand(t *testing.T) {
	m := NewModel("orcl", false)
	cmd := m.Init()
	require.NotNil(t, cmd)
}

func TestModelTracksStageEvents(t *testing.T) {
	m := NewModel("orcl", false)

	updated, _ := m.Update(StageMsg{Event: reconcile.Event{Stage: reconcile.StageLocate, Status: reconcile.StatusRunning}})
	m = updated.(Model)
	require.Equal(t, reconcile.StatusRunning, m.stages[reconcile.StageLocate].Event.Status)
	require.Zero(t, m.completed)

	updated, _ = m.Update(StageMsg{Event: reconcile.Event{Stage: reconcile.StageLocate, Status: reconcile.StatusDone, Detail: "standalone"}})
	m = updated.(Model)
	require.Equal(t, reconcile.StatusDone, m.stages[reconcile.StageLocate].Event.Status)
	require.Equal(t, 1, m.completed)
	require.Equal(t, []reconcile.Stage{reconcile.StageLocate}, m.order)
}

func TestModelRecordsOutcome(t *testing.T) {
	m := NewModel("orcl", false)

	out := model.Outcome{Changed: true, Message: "Database started."}
	updated, _ := m.Update(DoneMsg{Outcome: out})
	m = updated.(Model)
	require.True(t, m.IsFinished())
	require.Equal(t, out, m.Outcome())
	require.NoError(t, m.Err())
}

func TestModelRecordsFailure(t *testing.T) {
	m := NewModel("orcl", false)

	updated, _ := m.Update(DoneMsg{Err: errors.New("boom")})
	m = updated.(Model)
	require.True(t, m.IsFinished())
	require.Error(t, m.Err())
}

func TestModelMarksFinished(t *testing.T) {
	m := NewModel("orcl", false)

	updated, cmd := m.Update(tea.QuitMsg{})
	require.Nil(t, cmd)
	m = updated.(Model)
	require.True(t, m.finished)
}
