package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// StatusModel is the model for the pool status view.
type StatusModel struct {
	health *HealthSnapshot
	width  int
	height int
}

// NewStatusModel creates a new status view model.
func NewStatusModel() StatusModel {
	return StatusModel{}
}

// SetData updates the status data.
func (m *StatusModel) SetData(health *HealthSnapshot) {
	m.health = health
}

// SetDimensions sets the view dimensions.
func (m *StatusModel) SetDimensions(width, height int) {
	m.width = width
	m.height = height
}

// View renders the status view.
func (m StatusModel) View() string {
	if m.health == nil {
		return styles.Muted.Render("Loading status...")
	}

	var b strings.Builder

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(1, 2).
		Width(60)

	stats := m.health.Stats

	poolContent := lipgloss.JoinVertical(lipgloss.Left,
		styles.BoxTitle.Render("Pool"),
		"",
		m.statusRow("Status", HealthStyle(m.health.Status).Render(m.health.Status)),
		m.statusRow("Connections", fmt.Sprintf("%d (%d active, %d idle)",
			stats.TotalConnections, stats.ActiveConnections, stats.IdleConnections)),
		m.statusRow("Waiting", m.pendingValue(stats.PendingRequests)),
	)

	b.WriteString(box.Render(poolContent))
	b.WriteString("\n\n")

	perfContent := lipgloss.JoinVertical(lipgloss.Left,
		styles.BoxTitle.Render("Performance"),
		"",
		m.statusRow("Avg acquire", stats.AverageAcquireTime.String()),
		m.statusRow("Avg query", stats.AverageQueryTime.String()),
		m.statusRow("Conn errors", m.errorValue(stats.ConnectionErrors)),
	)

	b.WriteString(box.Render(perfContent))

	if len(m.health.Issues) > 0 {
		b.WriteString("\n\n")
		lines := []string{styles.BoxTitle.Render("Issues"), ""}
		for _, issue := range m.health.Issues {
			lines = append(lines, styles.Warning.Render("• "+issue))
		}
		b.WriteString(box.Render(lipgloss.JoinVertical(lipgloss.Left, lines...)))
	}

	return b.String()
}

// statusRow formats a status row with label and value.
func (m StatusModel) statusRow(label, value string) string {
	labelStyle := styles.Muted.Width(15)
	return labelStyle.Render(label+":") + " " + value
}

// pendingValue highlights a non-empty waiting queue.
func (m StatusModel) pendingValue(pending int) string {
	s := fmt.Sprintf("%d", pending)
	if pending > 0 {
		return styles.Warning.Render(s)
	}
	return s
}

// errorValue highlights a non-zero error count.
func (m StatusModel) errorValue(errors uint64) string {
	s := fmt.Sprintf("%d", errors)
	if errors > 0 {
		return styles.Error.Render(s)
	}
	return s
}
