package model

// ControlMode describes how instance lifecycle operations are driven.
type ControlMode string

const (
	// ClusterManaged means the instance is registered with Grid
	// Infrastructure and lifecycle operations go through srvctl.
	ClusterManaged ControlMode = "cluster"
	// Standalone means the instance is tracked in /etc/oratab and lifecycle
	// operations go through a direct sqlplus administrative session.
	Standalone ControlMode = "standalone"
)

// InstanceIdentity is the resolved identity of a located database instance.
// It is immutable for the duration of a reconciliation pass.
type InstanceIdentity struct {
	// Name is the database name (DB_NAME).
	Name string
	// UniqueName is the DB_UNIQUE_NAME when one is declared; empty otherwise.
	UniqueName string
	// SID is the instance identifier when it differs from Name; empty otherwise.
	SID string
	// Mode records how this instance is controlled.
	Mode ControlMode
	// Home is the Oracle home the instance is registered under.
	Home string
}

// Target returns the identifier lifecycle commands address under
// cluster-managed control: the unique name when declared, else the name.
func (id InstanceIdentity) Target() string {
	if id.UniqueName != "" {
		return id.UniqueName
	}
	return id.Name
}

// EffectiveSID returns the instance identifier used to bind ORACLE_SID for a
// standalone administrative session.
func (id InstanceIdentity) EffectiveSID() string {
	if id.SID != "" {
		return id.SID
	}
	return id.Name
}

// Pass carries the per-pass facts resolved once at the start of a
// reconciliation: control mode, Oracle home, and the tool version probe
// result. It replaces ambient process state so every component receives the
// same immutable view.
type Pass struct {
	// ID correlates log lines and events for one reconciliation pass.
	ID string
	// Mode is the control mode detected for this host.
	Mode ControlMode
	// Home is the requested Oracle home.
	Home string
	// Version is the major.minor software version reported by the home
	// (for example "19.0" or "12.2").
	Version string
}
