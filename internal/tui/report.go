package tui

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/nixlim/heal-top/internal/config"
	"github.com/nixlim/heal-top/internal/stats"
)

const reportWidth = 100

// RenderReport writes every view of agg as plain text: the group filter
// totals, the agents and the skills, each followed by its drill-downs.
func RenderReport(w io.Writer, agg *stats.AggregatedStats, cfg config.Config) error {
	bw := bufio.NewWriter(w)

	barW := cfg.Display.BarWidth
	if barW <= 0 {
		barW = 20
	}
	view := agg.Config()
	total := agg.GetTotal()

	fmt.Fprintf(bw, "heal-top report\n")
	fmt.Fprintf(bw, "  Sort: %s  End: %s  Time: %s\n",
		view.SortOrder, view.CombatEndCondition, formatSeconds(agg.GetCombatTime()))
	fmt.Fprintf(bw, "  Total: %s  HPS: %s  Hits: %s\n",
		FormatCount(total.Healing),
		humanize.CommafWithDigits(agg.GetHealingPerSecond(total.Healing), 1),
		FormatCount(total.Hits))

	writeSection(bw, "Totals", agg.GetGroupFilterTotals(), agg, barW, false)

	agents := agg.GetAgents()
	writeSection(bw, "Agents", agents, agg, barW, true)
	for _, e := range agents.Entries {
		writeSection(bw, "Agent: "+e.Name, agg.GetAgentDetails(e.ID), agg, barW, true)
	}

	skills := agg.GetSkills()
	writeSection(bw, "Skills", skills, agg, barW, true)
	for _, e := range skills.Entries {
		writeSection(bw, "Skill: "+e.Name, agg.GetSkillDetails(e.ID), agg, barW, true)
	}

	return bw.Flush()
}

func writeSection(w io.Writer, title string, table *stats.Table, agg *stats.AggregatedStats, barW int, share bool) {
	fmt.Fprintf(w, "\n%s\n", title)

	nameW := nameWidth(reportWidth, barW)
	header := fmt.Sprintf("  %-*s %-*s %14s %10s %8s %7s", nameW, "Name", barW, "", "Healing", "HPS", "Hits", "Share")
	fmt.Fprintln(w, header)
	fmt.Fprintln(w, "  "+strings.Repeat("-", lenRunes(header)-2))

	lines := formatTable(table, agg, reportWidth, barW, tableOptions{share: share, cursor: -1})
	if len(lines) == 0 {
		fmt.Fprintln(w, "  (none)")
		return
	}
	for _, line := range lines {
		fmt.Fprintln(w, line)
	}
}
