package components

import (
	"time"

	"github.com/oraops/oradbctl/internal/reconcile"
)

// StageStatus is the latest observed state of one reconciliation stage.
type StageStatus struct {
	Event    reconcile.Event
	Duration time.Duration
}

// StageEntry pairs a stage with its status for rendering.
type StageEntry struct {
	Stage  reconcile.Stage
	Status StageStatus
}

// StageList renders the stages of a pass in the order they were reached.
type StageList struct {
	entries []StageEntry
}

// NewStageList constructs a stage list component.
func NewStageList(order []reconcile.Stage, stages map[reconcile.Stage]StageStatus) StageList {
	entries := make([]StageEntry, 0, len(order))
	for _, stage := range order {
		entries = append(entries, StageEntry{Stage: stage, Status: stages[stage]})
	}
	return StageList{entries: entries}
}

// Entries returns the ordered stage entries.
func (s StageList) Entries() []StageEntry {
	clone := make([]StageEntry, len(s.entries))
	copy(clone, s.entries)
	return clone
}

// Label returns the human-readable name of a stage.
func Label(stage reconcile.Stage) string {
	switch stage {
	case reconcile.StageLocate:
		return "Locate database"
	case reconcile.StageCreate:
		return "Create database"
	case reconcile.StageObserve:
		return "Observe live state"
	case reconcile.StagePlan:
		return "Plan changes"
	case reconcile.StageApply:
		return "Apply changes"
	case reconcile.StageRestart:
		return "Restart cycle"
	case reconcile.StageVerify:
		return "Verify state"
	case reconcile.StageRemove:
		return "Remove database"
	case reconcile.StageStart:
		return "Start database"
	default:
		return string(stage)
	}
}
