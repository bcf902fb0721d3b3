package components

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oraops/oradbctl/internal/reconcile"
)

func TestNewStageList(t *testing.T) {
	t.Parallel()

	t.Run("creates empty list", func(t *testing.T) {
		t.Parallel()
		sl := NewStageList(nil, map[reconcile.Stage]StageStatus{})
		require.Empty(t, sl.Entries())
	})

	t.Run("preserves arrival order", func(t *testing.T) {
		t.Parallel()
		order := []reconcile.Stage{reconcile.StageLocate, reconcile.StageObserve, reconcile.StagePlan}
		stages := map[reconcile.Stage]StageStatus{
			reconcile.StageLocate:  {Event: reconcile.Event{Stage: reconcile.StageLocate, Status: reconcile.StatusDone}},
			reconcile.StageObserve: {Event: reconcile.Event{Stage: reconcile.StageObserve, Status: reconcile.StatusRunning}},
		}

		entries := NewStageList(order, stages).Entries()
		require.Len(t, entries, 3)
		require.Equal(t, reconcile.StageLocate, entries[0].Stage)
		require.Equal(t, reconcile.StageObserve, entries[1].Stage)
		require.Equal(t, reconcile.StagePlan, entries[2].Stage)
		require.Equal(t, reconcile.StatusDone, entries[0].Status.Event.Status)
	})

	t.Run("entries returns a copy", func(t *testing.T) {
		t.Parallel()
		sl := NewStageList([]reconcile.Stage{reconcile.StageLocate}, map[reconcile.Stage]StageStatus{})
		entries := sl.Entries()
		entries[0].Stage = reconcile.StageRemove
		require.Equal(t, reconcile.StageLocate, sl.Entries()[0].Stage)
	})
}

func TestLabel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		stage    reconcile.Stage
		expected string
	}{
		{reconcile.StageLocate, "Locate database"},
		{reconcile.StageCreate, "Create database"},
		{reconcile.StageObserve, "Observe live state"},
		{reconcile.StagePlan, "Plan changes"},
		{reconcile.StageApply, "Apply changes"},
		{reconcile.StageRestart, "Restart cycle"},
		{reconcile.StageVerify, "Verify state"},
		{reconcile.StageRemove, "Remove database"},
		{reconcile.StageStart, "Start database"},
		{reconcile.Stage("custom"), "custom"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(string(tt.stage), func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.expected, Label(tt.stage))
		})
	}
}
