package tui

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
)

func (m Model) renderHistory() string {
	var sb strings.Builder

	sb.WriteString(m.renderHeaderBar(" [History]", "Enter:Open  Esc:Back  q:Quit "))
	sb.WriteByte('\n')

	if m.archive == nil {
		sb.WriteByte('\n')
		sb.WriteString(dimStyle.Render("  the encounter archive is disabled; set [storage] db_path to enable history"))
		sb.WriteByte('\n')
		return sb.String()
	}

	if m.status != "" {
		sb.WriteByte('\n')
		sb.WriteString(errorStyle.Render("  " + m.status))
		sb.WriteByte('\n')
	}

	if len(m.encounters) == 0 {
		sb.WriteByte('\n')
		sb.WriteString(dimStyle.Render("  No archived encounters"))
		sb.WriteByte('\n')
		return sb.String()
	}

	sb.WriteByte('\n')
	sb.WriteString(fmt.Sprintf("  %-36s %-20s %14s %10s %12s",
		"Encounter", "Saved", "Healing", "Duration", ""))
	sb.WriteByte('\n')
	sb.WriteString(dimStyle.Render("  " + strings.Repeat("─", 96)))
	sb.WriteByte('\n')

	visibleH := m.height - 5
	if visibleH < 1 {
		visibleH = len(m.encounters)
	}
	start := 0
	if m.historyCursor >= visibleH {
		start = m.historyCursor - visibleH + 1
	}
	end := min(start+visibleH, len(m.encounters))

	for i := start; i < end; i++ {
		e := m.encounters[i]
		line := fmt.Sprintf("  %-36s %-20s %14s %10s %12s",
			e.ID,
			e.SavedAt.Local().Format("2006-01-02 15:04:05"),
			FormatCount(e.TotalHealing),
			formatSeconds(float64(e.DurationMS)/1000),
			humanize.Time(e.SavedAt))
		if i == m.historyCursor {
			line = selectedStyle.Render(line)
		}
		sb.WriteString(line)
		sb.WriteByte('\n')
	}

	return sb.String()
}
