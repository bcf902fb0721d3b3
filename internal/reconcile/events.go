package reconcile

// Stage names one phase of a reconciliation pass.
type Stage string

const (
	StageLocate  Stage = "locate"
	StageCreate  Stage = "create"
	StageObserve Stage = "observe"
	StagePlan    Stage = "plan"
	StageApply   Stage = "apply"
	StageRestart Stage = "restart"
	StageVerify  Stage = "verify"
	StageRemove  Stage = "remove"
	StageStart   Stage = "start"
)

// Status is the progress state of a stage.
type Status string

const (
	StatusRunning Status = "running"
	StatusDone    Status = "done"
	StatusFailed  Status = "failed"
)

// Event reports stage progress while a pass runs. Events exist for
// rendering; the pass outcome never depends on them.
type Event struct {
	Stage  Stage
	Status Status
	Detail string
}

// Sink receives events. A nil Sink is valid and drops everything.
type Sink func(Event)
