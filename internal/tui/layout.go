package tui

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const (
	minWidth = 40

	// title bar, summary line, blank, column header, rule
	statsChromeHeight = 5

	defaultNameWidth = 28
	minNameWidth     = 12
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62"))

	panelTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("69"))

	selectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	barHighStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("82"))

	barMidStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("226"))

	barLowStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("245"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	filterMenuStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(1, 2)

	detailOverlayStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("69")).
				Padding(1, 2)
)

var ansiRe = regexp.MustCompile(`\x1b\[[0-9;]*m`)

func stripAnsi(s string) string {
	return ansiRe.ReplaceAllString(s, "")
}

// renderHeaderBar lays out a full-width title bar with help text pushed to
// the right edge.
func (m Model) renderHeaderBar(viewLabel, help string) string {
	title := " heal-top"
	padding := m.width - lipgloss.Width(title) - lipgloss.Width(viewLabel) - lipgloss.Width(help)
	if padding < 0 {
		padding = 0
	}
	return headerStyle.Width(max(m.width, minWidth)).Render(title + viewLabel + strings.Repeat(" ", padding) + help)
}

func (m Model) headerHelp() string {
	return "Tab:Source s:Sort f:Filter c:End h:History Enter:Details q:Quit "
}

func (m Model) overlayFilterMenu(base string) string {
	filter := m.agg.Config().Filter

	content := panelTitleStyle.Render("Filter") + "\n\n"
	for i, opt := range filterOptions {
		cursor := "  "
		if i == m.filterMenu.Cursor {
			cursor = "> "
		}
		check := "[ ]"
		if opt.Enabled(filter) {
			check = "[x]"
		}
		line := cursor + check + " " + opt.Label
		if i == m.filterMenu.Cursor {
			line = selectedStyle.Render(line)
		}
		content += line + "\n"
	}

	content += "\n" + dimStyle.Render("Presets:") + "\n"
	for i, g := range groupFilters() {
		content += fmt.Sprintf("  %d  %s\n", i+1, g)
	}
	content += "\nSpace/Enter: Toggle  1-4: Preset  Esc: Close"

	return placeOverlay(filterMenuStyle.Render(content), base)
}

func (m Model) overlayDetail(base string) string {
	overlayW := m.width * 80 / 100
	if overlayW < minWidth {
		overlayW = minWidth
	}
	overlayH := m.height * 70 / 100
	if overlayH < 10 {
		overlayH = 10
	}
	contentH := overlayH - 8
	if contentH < 3 {
		contentH = 3
	}

	lines := m.tableLines(m.detailTable, overlayW-8, tableOptions{share: true, styled: true, cursor: -1})

	start := m.detailScrollPos
	if start > len(lines)-contentH {
		start = len(lines) - contentH
	}
	if start < 0 {
		start = 0
	}
	end := min(start+contentH, len(lines))

	body := strings.Join(lines[start:end], "\n")
	if m.detailTable.Len() == 0 {
		body = dimStyle.Render("  No healing recorded")
	}

	footer := dimStyle.Render("Esc/Enter: Close")
	if len(lines) > contentH {
		footer += dimStyle.Render("  Up/Down: Scroll")
	}

	content := panelTitleStyle.Render(m.detailTitle) + "\n\n" +
		m.columnHeader(overlayW-8) + "\n" + body + "\n\n" + footer

	return placeOverlay(detailOverlayStyle.Width(overlayW-2).Render(content), base)
}

func placeOverlay(fg, bg string) string {
	return lipgloss.Place(
		lipgloss.Width(bg),
		lipgloss.Height(bg),
		lipgloss.Center,
		lipgloss.Center,
		fg,
		lipgloss.WithWhitespaceChars(" "),
	)
}
