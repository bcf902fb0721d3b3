package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/oraops/oradbctl/internal/reconcile"
	"github.com/oraops/oradbctl/internal/tui/components"
)

// View renders the current state of the pass.
func (m Model) View() string {
	var sections []string

	title := titleStyle.Render(fmt.Sprintf("oradbctl • %s", m.title()))
	sections = append(sections, title)

	progress := components.NewProgress(len(m.order)).View(m.completed)
	sections = append(sections, sectionStyle.Render("Progress"), progress)

	entries := components.NewStageList(m.order, m.stages).Entries()
	if len(entries) > 0 {
		sections = append(sections, sectionStyle.Render("Stages"))
		sections = append(sections, renderStageEntries(entries))
	}

	summary := components.NewSummary(components.SummaryData{
		Total:     len(m.order),
		Completed: m.completed,
		Finished:  m.finished,
		Cancelled: m.cancelled,
		Message:   m.outcome.Message,
		Err:       m.err,
	}).View()
	if strings.TrimSpace(summary) != "" {
		sections = append(sections, sectionStyle.Render("Summary"), summaryStyle.Render(summary))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func renderStageEntries(entries []components.StageEntry) string {
	var lines []string
	for _, entry := range entries {
		icon := StatusIcon(entry.Status.Event.Status)
		line := fmt.Sprintf(" %s %s", icon, components.Label(entry.Stage))
		if detail := strings.TrimSpace(entry.Status.Event.Detail); detail != "" {
			line = fmt.Sprintf("%s: %s", line, detail)
		}
		if entry.Status.Duration > 0 {
			line = fmt.Sprintf("%s (%s)", line, entry.Status.Duration.Truncate(10*time.Millisecond))
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func (m Model) title() string {
	if strings.TrimSpace(m.database) != "" {
		return m.database
	}
	return "Reconciliation"
}

// StatusIcon returns the glyph representing a stage status.
func StatusIcon(status reconcile.Status) string {
	switch status {
	case reconcile.StatusDone:
		return successStyle.Render("✓")
	case reconcile.StatusRunning:
		return runningStyle.Render("⏳")
	case reconcile.StatusFailed:
		return failureStyle.Render("✗")
	default:
		return pendingStyle.Render("…")
	}
}
