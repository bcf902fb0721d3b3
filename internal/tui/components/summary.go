package components

import (
	"fmt"
	"strings"
)

// SummaryData aggregates the terminal state of a pass for rendering.
type SummaryData struct {
	Total     int
	Completed int
	Finished  bool
	Cancelled bool
	Message   string
	Err       error
}

// Summary renders a textual pass summary.
type Summary struct {
	data SummaryData
}

// NewSummary creates a new Summary component.
func NewSummary(data SummaryData) Summary {
	return Summary{data: data}
}

// View renders the summary. It is empty until the pass reaches a terminal
// state, so callers can render unconditionally.
func (s Summary) View() string {
	var lines []string
	if s.data.Total > 0 {
		lines = append(lines, fmt.Sprintf("Stages: %d/%d completed", s.data.Completed, s.data.Total))
	}

	switch {
	case s.data.Cancelled:
		lines = append(lines, "Reconciliation cancelled")
	case s.data.Err != nil:
		lines = append(lines, fmt.Sprintf("✗ %v", s.data.Err))
	case s.data.Finished && strings.TrimSpace(s.data.Message) != "":
		lines = append(lines, fmt.Sprintf("✓ %s", s.data.Message))
	default:
		return ""
	}

	return strings.Join(lines, "\n")
}
