package model

// Property identifies one reconcilable database property.
type Property string

const (
	PropArchivelog            Property = "archivelog"
	PropForceLogging          Property = "force_logging"
	PropFlashback             Property = "flashback"
	PropDefaultTablespaceType Property = "default_tablespace_type"
	PropDefaultTablespace     Property = "default_tablespace"
	PropDefaultTempTablespace Property = "default_temp_tablespace"
)

// RestartClass says whether an action takes effect on the running instance or
// only after a stop/mount/start cycle.
type RestartClass string

const (
	// Immediate actions apply while the database is open.
	Immediate RestartClass = "immediate"
	// RequiresRestart actions only take effect through a stop → mount →
	// apply → restart cycle.
	RequiresRestart RestartClass = "requires_restart"
)

// ExecutionOrder fixes which action batch runs first.
type ExecutionOrder string

const (
	// RestartFirst runs the restart batch before the immediate batch. This
	// is the default: it guarantees archivelog is already enabled before a
	// flashback-on or other immediate change is applied.
	RestartFirst ExecutionOrder = "restart_first"
	// ImmediateFirst runs the immediate batch before the restart batch.
	// Chosen only when both archivelog and flashback go from on to off, so
	// flashback is off before the restart cycle disables archivelog.
	ImmediateFirst ExecutionOrder = "immediate_first"
)

// Action is a single planned convergence step: one property transition and
// the exact statement that performs it.
type Action struct {
	Property  Property
	Class     RestartClass
	Current   string
	Desired   string
	Statement string
}

// ActionPlan is the ordered outcome of diffing declared properties against an
// observed snapshot: the restart-class batch, the immediate-class batch, and
// the order in which the two batches must run.
type ActionPlan struct {
	Restart   []Action
	Immediate []Action
	Order     ExecutionOrder
}

// Empty reports whether the plan contains no actions at all.
func (p ActionPlan) Empty() bool {
	return len(p.Restart) == 0 && len(p.Immediate) == 0
}

// Len returns the total number of planned actions.
func (p ActionPlan) Len() int {
	return len(p.Restart) + len(p.Immediate)
}

// Ordered returns all actions in execution order, restart and immediate
// batches flattened according to Order.
func (p ActionPlan) Ordered() []Action {
	out := make([]Action, 0, p.Len())
	if p.Order == ImmediateFirst {
		out = append(out, p.Immediate...)
		out = append(out, p.Restart...)
		return out
	}
	out = append(out, p.Restart...)
	out = append(out, p.Immediate...)
	return out
}
