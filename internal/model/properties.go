package model

// Topology captures the instance facts needed to orchestrate a restart:
// whether the database is RAC, and which instance the session landed on.
type Topology struct {
	IsRAC        bool
	InstanceName string
	HostName     string
}

// ObservedProperties is a snapshot of the reconcilable properties read from a
// running instance, together with the topology facts used by restart
// orchestration. Snapshots are never cached across passes and are re-read
// after every state-changing batch.
type ObservedProperties struct {
	Archivelog   bool
	ForceLogging bool
	Flashback    bool

	// DefaultTablespaceType is "smallfile" or "bigfile", lowercased.
	DefaultTablespaceType string
	// DefaultTablespace is the default permanent tablespace name, lowercased.
	DefaultTablespace string
	// DefaultTempTablespace is the default temporary tablespace name, lowercased.
	DefaultTempTablespace string

	Topology Topology
}
