package tui

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/nixlim/heal-top/internal/stats"
)

type tableOptions struct {
	share  bool // print each row's share of the table total
	styled bool
	cursor int // highlighted row, -1 for none
}

func (m Model) renderStats() string {
	var sb strings.Builder

	cfg := m.agg.Config()

	viewLabel := " [" + dataSourceTitle(cfg.DataSource) + "]"
	if m.source != "" {
		viewLabel += " " + m.source
	}
	sb.WriteString(m.renderHeaderBar(viewLabel, m.headerHelp()))
	sb.WriteByte('\n')
	sb.WriteString(m.summaryLine())
	sb.WriteByte('\n')
	sb.WriteByte('\n')

	contentW := max(m.width, minWidth) - 2
	sb.WriteString(m.columnHeader(contentW))
	sb.WriteByte('\n')

	table := m.agg.GetStats(cfg.DataSource)
	if table.Len() == 0 {
		sb.WriteString(dimStyle.Render("  No healing recorded"))
		sb.WriteByte('\n')
	} else {
		lines := m.tableLines(table, contentW, tableOptions{
			share:  cfg.DataSource != stats.Totals,
			styled: true,
			cursor: m.cursor,
		})

		visibleH := m.visibleRows()
		if visibleH < 1 {
			visibleH = len(lines)
		}
		start := scrollWindow(m.scrollPos, m.cursor, visibleH)
		end := min(start+visibleH, len(lines))

		for _, line := range lines[start:end] {
			sb.WriteString(line)
			sb.WriteByte('\n')
		}
	}

	if m.status != "" {
		sb.WriteString(errorStyle.Render("  " + m.status))
		sb.WriteByte('\n')
	}

	output := sb.String()
	if m.filterMenu.Active {
		output = m.overlayFilterMenu(output)
	}
	if m.detailOverlay {
		output = m.overlayDetail(output)
	}
	return output
}

// summaryLine shows the view configuration and the encounter totals.
func (m Model) summaryLine() string {
	cfg := m.agg.Config()
	total := m.agg.GetTotal()
	return fmt.Sprintf("  Sort: %s  End: %s  Time: %s  Total: %s  HPS: %s  Hits: %s",
		cfg.SortOrder, cfg.CombatEndCondition,
		formatSeconds(m.agg.GetCombatTime()),
		FormatCount(total.Healing),
		humanize.CommafWithDigits(m.agg.GetHealingPerSecond(total.Healing), 1),
		FormatCount(total.Hits))
}

func (m Model) columnHeader(width int) string {
	nameW := nameWidth(width, m.barWidth())
	header := fmt.Sprintf("  %-*s %-*s %14s %10s %8s %7s",
		nameW, "Name", m.barWidth(), "", "Healing", "HPS", "Hits", "Share")
	rule := "  " + strings.Repeat("─", lenRunes(header)-2)
	return header + "\n" + dimStyle.Render(rule)
}

func (m Model) barWidth() int {
	if m.cfg.Display.BarWidth > 0 {
		return m.cfg.Display.BarWidth
	}
	return 20
}

// tableLines renders one line per entry with a bar scaled to the table's
// highest healing.
func (m Model) tableLines(table *stats.Table, width int, opts tableOptions) []string {
	return formatTable(table, m.agg, width, m.barWidth(), opts)
}

func formatTable(table *stats.Table, agg *stats.AggregatedStats, width, barW int, opts tableOptions) []string {
	if table.Len() == 0 {
		return nil
	}

	nameW := nameWidth(width, barW)
	tableTotal := table.TotalHealing()

	lines := make([]string, 0, table.Len())
	for i, e := range table.Entries {
		var ratio float64
		if table.HighestHealing > 0 {
			ratio = float64(e.Healing) / float64(table.HighestHealing)
		}

		bar := renderBar(ratio, barW)
		if opts.styled {
			bar = renderProgressBar(ratio, barW)
		}

		share := ""
		if opts.share && tableTotal > 0 {
			share = fmt.Sprintf("%.1f%%", float64(e.Healing)*100/float64(tableTotal))
		}

		line := fmt.Sprintf("  %-*s %s %14s %10s %8s %7s",
			nameW, truncateStr(e.Name, nameW),
			bar,
			FormatCount(e.Healing),
			humanize.CommafWithDigits(agg.GetHealingPerSecond(e.Healing), 1),
			FormatCount(e.Hits),
			share)

		if opts.styled && i == opts.cursor {
			line = selectedStyle.Render(stripAnsi(line))
		}
		lines = append(lines, line)
	}
	return lines
}

func nameWidth(width, barW int) int {
	if width <= 0 {
		return defaultNameWidth
	}
	// two-space indent, bar, numeric columns and separators
	w := width - barW - 2 - 1 - 15 - 11 - 9 - 8
	if w < minNameWidth {
		return minNameWidth
	}
	return w
}

func renderBar(ratio float64, width int) string {
	if ratio < 0 {
		ratio = 0
	}
	if ratio > 1 {
		ratio = 1
	}

	filled := int(ratio * float64(width))
	if filled > width {
		filled = width
	}

	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func renderProgressBar(ratio float64, width int) string {
	bar := renderBar(ratio, width)

	if ratio >= 0.8 {
		return barHighStyle.Render(bar)
	}
	if ratio >= 0.4 {
		return barMidStyle.Render(bar)
	}
	return barLowStyle.Render(bar)
}

func dataSourceTitle(ds stats.DataSource) string {
	switch ds {
	case stats.Agents:
		return "Agents"
	case stats.Skills:
		return "Skills"
	default:
		return "Totals"
	}
}

func groupFilters() []stats.GroupFilter {
	return []stats.GroupFilter{
		stats.GroupFilterGroup,
		stats.GroupFilterSquad,
		stats.GroupFilterAllExcludingMinions,
		stats.GroupFilterAll,
	}
}

// visibleRows is the number of table rows that fit below the summary.
func (m Model) visibleRows() int {
	return m.height - statsChromeHeight - 1
}

// scrollWindow returns the first visible row: the previous one, moved just
// enough to keep the cursor on screen.
func scrollWindow(scrollPos, cursor, visible int) int {
	if visible < 1 {
		return 0
	}
	start := scrollPos
	if cursor < start {
		start = cursor
	}
	if cursor >= start+visible {
		start = cursor - visible + 1
	}
	return max(start, 0)
}

// FormatCount formats v with thousands separators over the full uint64 range.
func FormatCount(v uint64) string {
	return humanize.BigComma(new(big.Int).SetUint64(v))
}

func formatSeconds(secs float64) string {
	if secs < 60 {
		return fmt.Sprintf("%.1fs", secs)
	}
	whole := int(secs)
	return fmt.Sprintf("%dm%02ds", whole/60, whole%60)
}

func truncateStr(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 1 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-1]) + "…"
}

func lenRunes(s string) int {
	return len([]rune(s))
}
