package tui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/nixlim/heal-top/internal/config"
	"github.com/nixlim/heal-top/internal/snapshot"
	"github.com/nixlim/heal-top/internal/stats"
)

func TestRenderReport(t *testing.T) {
	m := newTestModel(t)

	var buf bytes.Buffer
	if err := RenderReport(&buf, m.Stats(), config.DefaultConfig()); err != nil {
		t.Fatalf("RenderReport: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"heal-top report",
		"Total: 180",
		"\nTotals\n",
		"Group",
		"All (Including Summons)",
		"\nAgents\n",
		"Agent: Alice",
		"Agent: Bob",
		"\nSkills\n",
		"Skill: Mending",
		"Skill: Healing by Damage Dealt",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report should contain %q:\n%s", want, out)
		}
	}
	if stripAnsi(out) != out {
		t.Error("report must be plain text")
	}
}

func TestRenderReport_SectionOrder(t *testing.T) {
	m := newTestModel(t)

	var buf bytes.Buffer
	if err := RenderReport(&buf, m.Stats(), config.DefaultConfig()); err != nil {
		t.Fatal(err)
	}
	out := buf.String()

	totals := strings.Index(out, "\nTotals\n")
	agents := strings.Index(out, "\nAgents\n")
	skills := strings.Index(out, "\nSkills\n")
	if totals >= agents || agents >= skills {
		t.Errorf("sections out of order: totals=%d agents=%d skills=%d", totals, agents, skills)
	}
}

func TestRenderReport_Empty(t *testing.T) {
	agg, err := stats.New(snapshot.New(), stats.ViewConfig{})
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := RenderReport(&buf, agg, config.DefaultConfig()); err != nil {
		t.Fatalf("RenderReport: %v", err)
	}
	if !strings.Contains(buf.String(), "(none)") {
		t.Errorf("empty views should print (none):\n%s", buf.String())
	}
}
