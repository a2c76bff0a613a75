package stats

import (
	"bytes"
	"errors"
	"log/slog"
	"math"
	"strings"
	"testing"

	"github.com/nixlim/heal-top/internal/skills"
	"github.com/nixlim/heal-top/internal/snapshot"
)

const (
	agentA = 1 // subgroup 1, same group as the observer
	agentB = 2 // subgroup 2
	agentC = 3 // unmapped

	skillS1 = 10
	skillS2 = 20 // classified as indirect healing
)

var scenarioClassifier = skills.NewTable([]uint32{skillS2}, nil)

// scenarioSnapshot: A healed 100 with S1 and 50 with S2, B healed 30 with
// S1, C (unmapped) healed 5 with S1.
func scenarioSnapshot() *snapshot.HealingSnapshot {
	snap := snapshot.New()
	snap.LocalSubgroup = 1
	snap.EnteredCombat = 1000
	snap.ExitedCombat = 11000
	snap.LastHealEvent = 9000
	snap.LastDamageEvent = 10500
	snap.Agents[agentA] = snapshot.AgentInfo{Name: "Alice", Subgroup: 1}
	snap.Agents[agentB] = snapshot.AgentInfo{Name: "Bob", Subgroup: 2}
	snap.AddHealing(skillS1, "Mending", agentA, 100, 10)
	snap.AddHealing(skillS1, "Mending", agentB, 30, 3)
	snap.AddHealing(skillS1, "Mending", agentC, 5, 1)
	snap.AddHealing(skillS2, "Lifesteal", agentA, 50, 5)
	return snap
}

func scenarioConfig() ViewConfig {
	return ViewConfig{
		Filter: FilterConfig{
			ExcludeOffGroup: true,
			ExcludeUnmapped: true,
		},
		SortOrder:  DescendingSize,
		DataSource: Agents,
	}
}

func newScenario(t *testing.T, cfg ViewConfig, opts ...Option) *AggregatedStats {
	t.Helper()
	opts = append([]Option{WithClassifier(scenarioClassifier)}, opts...)
	agg, err := New(scenarioSnapshot(), cfg, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return agg
}

func findEntry(t *testing.T, tbl *Table, id uint64) Entry {
	t.Helper()
	for _, e := range tbl.Entries {
		if e.ID == id {
			return e
		}
	}
	t.Fatalf("entry %d not found in %+v", id, tbl.Entries)
	return Entry{}
}

func TestScenario_Agents(t *testing.T) {
	agg := newScenario(t, scenarioConfig())

	agents := agg.GetAgents()
	if agents.Len() != 1 {
		t.Fatalf("expected only agent A, got %+v", agents.Entries)
	}
	a := agents.Entries[0]
	if a.ID != agentA || a.Name != "Alice" {
		t.Errorf("unexpected entry %+v", a)
	}
	if a.Healing != 150 || a.Hits != 15 {
		t.Errorf("agent A healing/hits = %d/%d, want 150/15", a.Healing, a.Hits)
	}
	if a.Casts != nil {
		t.Error("casts should not be tracked")
	}
	if agents.HighestHealing != 150 {
		t.Errorf("HighestHealing = %d, want 150", agents.HighestHealing)
	}
}

func TestScenario_Skills(t *testing.T) {
	agg := newScenario(t, scenarioConfig())

	skillsTbl := agg.GetSkills()
	if skillsTbl.Len() != 2 {
		t.Fatalf("expected S1 and the indirect entry, got %+v", skillsTbl.Entries)
	}

	s1 := findEntry(t, skillsTbl, skillS1)
	if s1.Name != "Mending" || s1.Healing != 100 || s1.Hits != 10 {
		t.Errorf("S1 = %+v, want Mending 100/10", s1)
	}

	ind := findEntry(t, skillsTbl, IndirectHealingSkillID)
	if ind.Name != IndirectHealingName || ind.Healing != 50 || ind.Hits != 5 {
		t.Errorf("indirect = %+v, want 50/5", ind)
	}

	for _, e := range skillsTbl.Entries {
		if e.ID == skillS2 {
			t.Error("indirect skill must not be listed on its own outside debug mode")
		}
	}

	// Sorted descending by healing.
	if skillsTbl.Entries[0].ID != skillS1 {
		t.Errorf("expected S1 first, got %+v", skillsTbl.Entries)
	}
}

func TestScenario_Total(t *testing.T) {
	agg := newScenario(t, scenarioConfig())

	total := agg.GetTotal()
	if total.ID != 0 || total.Name != TotalName {
		t.Errorf("unexpected total identity %+v", total)
	}
	if total.Healing != 150 || total.Hits != 15 {
		t.Errorf("total = %d/%d, want 150/15", total.Healing, total.Hits)
	}
}

func TestScenario_GroupFilterTotals(t *testing.T) {
	agg := newScenario(t, scenarioConfig())

	totals := agg.GetGroupFilterTotals()
	if totals.Len() != 4 {
		t.Fatalf("expected 4 entries, got %d", totals.Len())
	}

	want := []struct {
		name    string
		healing uint64
		hits    uint64
	}{
		{"Group", 150, 15},
		{"Squad", 180, 18},
		// C is unmapped and every preset excludes unmapped agents.
		{"All (Excluding Summons)", 180, 18},
		{"All (Including Summons)", 180, 18},
	}
	for i, w := range want {
		e := totals.Entries[i]
		if e.ID != 0 || e.Name != w.name || e.Healing != w.healing || e.Hits != w.hits {
			t.Errorf("entry %d = %+v, want %s %d/%d", i, e, w.name, w.healing, w.hits)
		}
	}
	if totals.HighestHealing != 180 {
		t.Errorf("HighestHealing = %d, want 180", totals.HighestHealing)
	}
}

func TestGroupFilterTotals_IgnoresOwnFilter(t *testing.T) {
	cfg := scenarioConfig()
	cfg.Filter = FilterConfig{ExcludeGroup: true, ExcludeOffGroup: true, ExcludeOffSquad: true, ExcludeMinions: true, ExcludeUnmapped: true}

	agg := newScenario(t, cfg)
	if agg.GetAgents().Len() != 0 {
		t.Fatal("every agent should be filtered from the agents view")
	}
	if got := agg.GetGroupFilterTotals().Entries[0].Healing; got != 150 {
		t.Errorf("Group total = %d, want 150 regardless of the view filter", got)
	}
}

func TestGroupFilterTotals_MinionsAndOffSquad(t *testing.T) {
	snap := snapshot.New()
	snap.LocalSubgroup = 3
	snap.Agents[1] = snapshot.AgentInfo{Name: "self", Subgroup: 3}
	snap.Agents[2] = snapshot.AgentInfo{Name: "squad", Subgroup: 4}
	snap.Agents[3] = snapshot.AgentInfo{Name: "stranger", Subgroup: 0}
	snap.Agents[4] = snapshot.AgentInfo{Name: "pet", Subgroup: 3, IsMinion: true}
	snap.AddHealing(1, "Heal", 1, 1, 1)
	snap.AddHealing(1, "Heal", 2, 10, 1)
	snap.AddHealing(1, "Heal", 3, 100, 1)
	snap.AddHealing(2, "Other", 4, 1000, 1)

	agg, err := New(snap, ViewConfig{}, WithClassifier(skills.NewTable(nil, nil)))
	if err != nil {
		t.Fatal(err)
	}

	got := agg.GetGroupFilterTotals()
	want := []uint64{1, 11, 111, 1111}
	for i, w := range want {
		if got.Entries[i].Healing != w {
			t.Errorf("%s = %d, want %d", got.Entries[i].Name, got.Entries[i].Healing, w)
		}
	}
	if got.HighestHealing != 1111 {
		t.Errorf("HighestHealing = %d, want 1111", got.HighestHealing)
	}
}

func TestGetSkills_DebugModeListsIndirectSkill(t *testing.T) {
	agg := newScenario(t, scenarioConfig(), WithDebugMode(true))

	tbl := agg.GetSkills()
	if tbl.Len() != 3 {
		t.Fatalf("expected S1, S2 and the indirect entry, got %+v", tbl.Entries)
	}

	s2 := findEntry(t, tbl, skillS2)
	if s2.Name != "(INDIRECT) ; 20 ; Lifesteal" {
		t.Errorf("S2 name = %q", s2.Name)
	}
	if s2.Healing != 50 {
		t.Errorf("S2 healing = %d, want 50", s2.Healing)
	}

	s1 := findEntry(t, tbl, skillS1)
	if s1.Name != "10 ; Mending" {
		t.Errorf("S1 name = %q", s1.Name)
	}

	ind := findEntry(t, tbl, IndirectHealingSkillID)
	if ind.Healing != 50 || ind.Name != IndirectHealingName {
		t.Errorf("indirect entry = %+v", ind)
	}
}

func TestGetAgents_DebugNames(t *testing.T) {
	cfg := scenarioConfig()
	cfg.Filter = FilterConfig{}
	agg := newScenario(t, cfg, WithDebugMode(true))

	tbl := agg.GetAgents()
	if a := findEntry(t, tbl, agentA); a.Name != "1 ; 1 ; 0 ; Alice" {
		t.Errorf("agent A name = %q", a.Name)
	}
	if c := findEntry(t, tbl, agentC); c.Name != "3 ; (UNMAPPED)" {
		t.Errorf("agent C name = %q", c.Name)
	}
}

func TestGetAgents_UnmappedNamedByID(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	cfg := scenarioConfig()
	cfg.Filter.ExcludeUnmapped = false
	agg := newScenario(t, cfg, WithLogger(log))

	c := findEntry(t, agg.GetAgents(), agentC)
	if c.Name != "3" || c.Healing != 5 {
		t.Errorf("unmapped agent = %+v, want name \"3\" healing 5", c)
	}
	if !strings.Contains(buf.String(), "no name for agent") {
		t.Errorf("expected a diagnostic for the unmapped agent, got %q", buf.String())
	}
}

func TestGetAgentDetails(t *testing.T) {
	agg := newScenario(t, scenarioConfig())

	t.Run("folds indirect skills", func(t *testing.T) {
		tbl := agg.GetAgentDetails(agentA)
		if tbl.Len() != 2 {
			t.Fatalf("expected 2 entries, got %+v", tbl.Entries)
		}
		if e := findEntry(t, tbl, skillS1); e.Healing != 100 || e.Hits != 10 {
			t.Errorf("S1 = %+v", e)
		}
		if e := findEntry(t, tbl, IndirectHealingSkillID); e.Healing != 50 || e.Hits != 5 {
			t.Errorf("indirect = %+v", e)
		}
	})

	t.Run("filter does not apply", func(t *testing.T) {
		tbl := agg.GetAgentDetails(agentB)
		if tbl.Len() != 1 || tbl.Entries[0].Healing != 30 {
			t.Errorf("agent B details = %+v, want S1 30", tbl.Entries)
		}
	})

	t.Run("unknown agent", func(t *testing.T) {
		if tbl := agg.GetAgentDetails(999); tbl.Len() != 0 {
			t.Errorf("expected empty table, got %+v", tbl.Entries)
		}
	})
}

func TestGetSkillDetails(t *testing.T) {
	t.Run("filtered contributors", func(t *testing.T) {
		agg := newScenario(t, scenarioConfig())
		tbl := agg.GetSkillDetails(skillS1)
		if tbl.Len() != 1 {
			t.Fatalf("expected only agent A, got %+v", tbl.Entries)
		}
		if e := tbl.Entries[0]; e.ID != agentA || e.Name != "Alice" || e.Healing != 100 {
			t.Errorf("entry = %+v", e)
		}
	})

	t.Run("unfiltered contributors", func(t *testing.T) {
		cfg := scenarioConfig()
		cfg.Filter = FilterConfig{}
		cfg.SortOrder = AscendingSize
		agg := newScenario(t, cfg)

		tbl := agg.GetSkillDetails(skillS1)
		if tbl.Len() != 3 {
			t.Fatalf("expected 3 agents, got %+v", tbl.Entries)
		}
		wantOrder := []uint64{agentC, agentB, agentA}
		for i, id := range wantOrder {
			if tbl.Entries[i].ID != id {
				t.Errorf("position %d = %d, want %d", i, tbl.Entries[i].ID, id)
			}
		}
		if tbl.HighestHealing != 100 {
			t.Errorf("HighestHealing = %d", tbl.HighestHealing)
		}
	})

	t.Run("unknown ids yield empty tables", func(t *testing.T) {
		agg := newScenario(t, scenarioConfig())
		for _, id := range []uint64{12345, IndirectHealingSkillID, math.MaxUint64} {
			tbl := agg.GetSkillDetails(id)
			if tbl == nil || tbl.Len() != 0 {
				t.Errorf("GetSkillDetails(%d) = %+v, want empty table", id, tbl)
			}
		}
	})
}

func TestIndirectHealingID_DistinctFromRealSkills(t *testing.T) {
	snap := scenarioSnapshot()
	snap.AddHealing(math.MaxUint32, "Real Skill", agentA, 10, 1)

	agg, err := New(snap, scenarioConfig(), WithClassifier(scenarioClassifier))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	seen := make(map[uint64]string)
	for _, e := range agg.GetSkills().Entries {
		if prev, dup := seen[e.ID]; dup {
			t.Errorf("id %d used by %q and %q", e.ID, prev, e.Name)
		}
		seen[e.ID] = e.Name
	}
	if seen[math.MaxUint32] != "Real Skill" {
		t.Errorf("skill %d = %q, want Real Skill", uint32(math.MaxUint32), seen[math.MaxUint32])
	}
	if seen[IndirectHealingSkillID] != IndirectHealingName {
		t.Errorf("synthetic entry missing: %+v", agg.GetSkills().Entries)
	}

	if tbl := agg.GetSkillDetails(IndirectHealingSkillID); tbl.Len() != 0 {
		t.Errorf("GetSkillDetails(IndirectHealingSkillID) = %+v, want empty", tbl.Entries)
	}
	if tbl := agg.GetSkillDetails(math.MaxUint32); tbl.Len() != 1 {
		t.Errorf("GetSkillDetails(MaxUint32) = %+v, want the one healer", tbl.Entries)
	}
}

func TestGetStats_Dispatch(t *testing.T) {
	agg := newScenario(t, scenarioConfig())

	if agg.GetStats(Skills) != agg.GetSkills() {
		t.Error("Skills should dispatch to GetSkills")
	}
	if agg.GetStats(Agents) != agg.GetAgents() {
		t.Error("Agents should dispatch to GetAgents")
	}
	if agg.GetStats(Totals) != agg.GetGroupFilterTotals() {
		t.Error("Totals should dispatch to GetGroupFilterTotals")
	}
}

func TestGetDetails_SkillsReturnsAgentDetails(t *testing.T) {
	agg := newScenario(t, scenarioConfig())

	got := agg.GetDetails(Skills, skillS1)
	if got != agg.GetAgentDetails(skillS1) {
		t.Error("GetDetails(Skills) should return the agent detail table for the id")
	}
	if _, cached := agg.skillDetails[skillS1]; !cached {
		t.Error("GetDetails(Skills) should still build the skill detail table")
	}

	if agg.GetDetails(Agents, agentA) != agg.GetAgentDetails(agentA) {
		t.Error("GetDetails(Agents) should return GetAgentDetails")
	}
	if agg.GetDetails(Totals, agentA) != agg.GetAgentDetails(agentA) {
		t.Error("GetDetails(Totals) should fall back to GetAgentDetails")
	}
}

func TestCaching_ReturnsSameTables(t *testing.T) {
	agg := newScenario(t, scenarioConfig())

	if agg.GetAgents() != agg.GetAgents() {
		t.Error("GetAgents should be cached")
	}
	if agg.GetSkills() != agg.GetSkills() {
		t.Error("GetSkills should be cached")
	}
	if agg.GetGroupFilterTotals() != agg.GetGroupFilterTotals() {
		t.Error("GetGroupFilterTotals should be cached")
	}
	if agg.GetAgentDetails(agentA) != agg.GetAgentDetails(agentA) {
		t.Error("GetAgentDetails should be cached per agent")
	}
	if agg.GetSkillDetails(skillS1) != agg.GetSkillDetails(skillS1) {
		t.Error("GetSkillDetails should be cached per skill")
	}
	if agg.GetSkillDetails(9999) != agg.GetSkillDetails(9999) {
		t.Error("empty skill details should be cached too")
	}
	if agg.GetTotal() != agg.GetTotal() {
		t.Error("GetTotal should be stable")
	}
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  ViewConfig
	}{
		{"sort order", ViewConfig{SortOrder: SortOrder(42)}},
		{"negative sort order", ViewConfig{SortOrder: SortOrder(-1)}},
		{"data source", ViewConfig{DataSource: DataSource(3)}},
		{"combat end condition", ViewConfig{CombatEndCondition: CombatEndCondition(9)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(snapshot.New(), tt.cfg)
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}

	if _, err := New(nil, ViewConfig{}); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("nil snapshot: expected ErrInvalidConfig, got %v", err)
	}
}

func TestEmptySnapshot(t *testing.T) {
	agg, err := New(snapshot.New(), ViewConfig{})
	if err != nil {
		t.Fatal(err)
	}

	if agg.GetAgents().Len() != 0 || agg.GetSkills().Len() != 0 {
		t.Error("empty snapshot should produce empty views")
	}
	if total := agg.GetTotal(); total.Healing != 0 || total.Hits != 0 {
		t.Errorf("total = %+v", total)
	}
	totals := agg.GetGroupFilterTotals()
	if totals.Len() != 4 || totals.HighestHealing != 0 {
		t.Errorf("group totals = %+v", totals)
	}
	if agg.GetCombatTime() != 0 {
		t.Errorf("combat time = %f", agg.GetCombatTime())
	}
}

func TestGetCombatTime(t *testing.T) {
	tests := []struct {
		name     string
		cond     CombatEndCondition
		exited   uint64
		lastHeal uint64
		lastDmg  uint64
		wantSecs float64
	}{
		{"combat exit", CombatExit, 11000, 9000, 10500, 10},
		{"combat exit not yet", CombatExit, 0, 9000, 10500, 9.5},
		{"last heal", LastHealEvent, 11000, 9000, 10500, 8},
		{"last heal not yet", LastHealEvent, 11000, 0, 10500, 9.5},
		{"last damage uses fallback", LastDamageEvent, 11000, 9000, 10500, 9.5},
		{"no events", CombatExit, 0, 0, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := snapshot.New()
			snap.EnteredCombat = 1000
			snap.ExitedCombat = tt.exited
			snap.LastHealEvent = tt.lastHeal
			snap.LastDamageEvent = tt.lastDmg

			agg, err := New(snap, ViewConfig{CombatEndCondition: tt.cond})
			if err != nil {
				t.Fatal(err)
			}
			if got := agg.GetCombatTime(); math.Abs(got-tt.wantSecs) > 1e-9 {
				t.Errorf("GetCombatTime = %f, want %f", got, tt.wantSecs)
			}
		})
	}
}

func TestGetCombatTime_BrokenInvariantClampsToZero(t *testing.T) {
	snap := snapshot.New()
	snap.EnteredCombat = 5000
	snap.ExitedCombat = 1000

	agg, err := New(snap, ViewConfig{CombatEndCondition: CombatExit})
	if err != nil {
		t.Fatal(err)
	}
	if got := agg.GetCombatTime(); got != 0 {
		t.Errorf("GetCombatTime = %f, want 0", got)
	}
}

func TestGetHealingPerSecond(t *testing.T) {
	agg := newScenario(t, scenarioConfig())

	// 10 seconds of combat.
	if got := agg.GetHealingPerSecond(150); math.Abs(got-15) > 1e-9 {
		t.Errorf("HPS = %f, want 15", got)
	}

	empty, _ := New(snapshot.New(), ViewConfig{})
	if got := empty.GetHealingPerSecond(100); got != 0 {
		t.Errorf("HPS without combat time = %f, want 0", got)
	}
}

func TestConfigAndSnapshotAccessors(t *testing.T) {
	snap := scenarioSnapshot()
	cfg := scenarioConfig()
	agg, err := New(snap, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if agg.Config() != cfg {
		t.Error("Config should return the construction config")
	}
	if agg.Snapshot() != snap {
		t.Error("Snapshot should return the construction snapshot")
	}
}
