package model

// Outcome is the terminal artifact of one reconciliation pass. The engine
// holds no state once it has been produced.
type Outcome struct {
	// Changed reports whether the pass altered anything: created or removed
	// the database, started it, or applied at least one convergence action.
	Changed bool
	// Created reports that this pass created the database.
	Created bool
	// Message is the operator-facing summary of what happened.
	Message string
}
