// Package stats builds the healing views of one combat encounter: totals,
// per-skill and per-agent breakdowns, drill-downs and the four group scope
// totals. All views are computed from an immutable snapshot on first
// request and cached for the lifetime of the AggregatedStats.
package stats

import (
	"fmt"
	"log/slog"
	"maps"
	"math"
	"slices"

	"github.com/nixlim/heal-top/internal/skills"
	"github.com/nixlim/heal-top/internal/snapshot"
)

// AggregatedStats computes and caches the views of a single snapshot.
//
// It is not safe for concurrent use: caches are filled lazily without
// locking, so callers must serialize access. The snapshot must not be
// modified after it is passed to New.
type AggregatedStats struct {
	source     *snapshot.HealingSnapshot
	cfg        ViewConfig
	classifier skills.Classifier
	formatter  nameFormatter
	log        *slog.Logger

	total             *Entry
	agents            *Table
	skills            *Table
	groupFilterTotals *Table
	merged            map[uint64]snapshot.AgentHealing
	agentDetails      map[uint64]*Table
	skillDetails      map[uint64]*Table
}

// Option customizes an AggregatedStats.
type Option func(*AggregatedStats)

// WithClassifier sets the indirect healing classifier. The default is
// skills.Default().
func WithClassifier(c skills.Classifier) Option {
	return func(a *AggregatedStats) { a.classifier = c }
}

// WithDebugMode switches entry names to the debug format and lists skills
// folded into the indirect healing entry on their own as well.
func WithDebugMode(debug bool) Option {
	return func(a *AggregatedStats) {
		if debug {
			a.formatter = debugFormatter{}
		} else {
			a.formatter = displayFormatter{}
		}
	}
}

// WithLogger sets the diagnostic logger. The default discards output.
func WithLogger(l *slog.Logger) Option {
	return func(a *AggregatedStats) { a.log = l }
}

// New creates an AggregatedStats over snap. It fails if snap is nil or if
// cfg holds an out-of-range enum value.
func New(snap *snapshot.HealingSnapshot, cfg ViewConfig, opts ...Option) (*AggregatedStats, error) {
	if snap == nil {
		return nil, fmt.Errorf("%w: nil snapshot", ErrInvalidConfig)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	a := &AggregatedStats{
		source:       snap,
		cfg:          cfg,
		classifier:   skills.Default(),
		formatter:    displayFormatter{},
		log:          slog.New(slog.DiscardHandler),
		agentDetails: make(map[uint64]*Table),
		skillDetails: make(map[uint64]*Table),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Config returns the configuration the views are built with.
func (a *AggregatedStats) Config() ViewConfig {
	return a.cfg
}

// Snapshot returns the underlying snapshot. Callers must not modify it.
func (a *AggregatedStats) Snapshot() *snapshot.HealingSnapshot {
	return a.source
}

// GetTotal sums the skills view.
func (a *AggregatedStats) GetTotal() Entry {
	if a.total != nil {
		return *a.total
	}

	var healing, hits uint64
	for _, e := range a.GetSkills().Entries {
		healing += e.Healing
		hits += e.Hits
	}

	a.total = &Entry{ID: 0, Name: TotalName, Healing: healing, Hits: hits}
	return *a.total
}

// GetStats returns the view for a data source.
func (a *AggregatedStats) GetStats(ds DataSource) *Table {
	switch ds {
	case Skills:
		return a.GetSkills()
	case Agents:
		return a.GetAgents()
	default:
		return a.GetGroupFilterTotals()
	}
}

// GetDetails returns a drill-down table for id.
//
// For the Skills data source the skill detail table is built and cached,
// but the agent detail table for id is what gets returned. Callers that
// want skill details should use GetSkillDetails.
func (a *AggregatedStats) GetDetails(ds DataSource, id uint64) *Table {
	if ds == Skills {
		a.GetSkillDetails(id)
	}
	return a.GetAgentDetails(id)
}

// GetCombatTime returns the encounter duration in seconds, measured up to
// the event selected by the configured CombatEndCondition.
func (a *AggregatedStats) GetCombatTime() float64 {
	src := a.source

	var end uint64
	switch {
	case a.cfg.CombatEndCondition == CombatExit && src.ExitedCombat != 0:
		end = src.ExitedCombat
	case a.cfg.CombatEndCondition == LastHealEvent && src.LastHealEvent != 0:
		end = src.LastHealEvent
	default:
		// No qualifying event yet.
		end = max(src.EnteredCombat, src.LastHealEvent, src.LastDamageEvent)
	}

	if end < src.EnteredCombat {
		a.log.Warn("combat end before combat start", "entered", src.EnteredCombat, "end", end)
		return 0
	}
	return float64(end-src.EnteredCombat) / 1000.0
}

// GetHealingPerSecond divides healing by the combat time. It returns 0
// while the combat time is 0.
func (a *AggregatedStats) GetHealingPerSecond(healing uint64) float64 {
	secs := a.GetCombatTime()
	if secs <= 0 {
		return 0
	}
	return float64(healing) / secs
}

// GetAgents lists every agent that passes the filter with its healing
// summed over all skills.
func (a *AggregatedStats) GetAgents() *Table {
	if a.agents != nil {
		return a.agents
	}

	t := &Table{}
	all := a.allAgents()
	for _, agentID := range slices.Sorted(maps.Keys(all)) {
		agent := a.source.LookupAgent(agentID)
		if IsExcluded(agent, a.source.LocalSubgroup, a.cfg.Filter) {
			continue
		}
		healing := all[agentID]
		t.Add(agentID, a.agentName(agentID, agent), healing.TotalHealing, healing.Ticks, nil)
	}

	sortEntries(t.Entries, a.cfg.SortOrder)
	a.agents = t
	return t
}

// GetSkills lists every skill with the healing of the agents that pass the
// filter. Indirect healing skills are folded into one synthetic entry.
func (a *AggregatedStats) GetSkills() *Table {
	if a.skills != nil {
		return a.skills
	}

	t := &Table{}
	var indirectHealing, indirectTicks uint64

	for _, skillID := range slices.Sorted(maps.Keys(a.source.SkillsHealing)) {
		skill := a.source.SkillsHealing[skillID]

		var healing, ticks uint64
		for agentID, h := range skill.AgentsHealing {
			if IsExcluded(a.source.LookupAgent(agentID), a.source.LocalSubgroup, a.cfg.Filter) {
				continue
			}
			healing += h.TotalHealing
			ticks += h.Ticks
		}

		indirect := a.isIndirect(skillID, skill.Name)
		if indirect {
			indirectHealing += healing
			indirectTicks += ticks
			if !a.formatter.listIndirectSkills() {
				continue
			}
		}

		t.Add(uint64(skillID), a.formatter.skillName(skillID, skill.Name, indirect), healing, ticks, nil)
	}

	if indirectHealing != 0 || indirectTicks != 0 {
		t.Add(IndirectHealingSkillID, IndirectHealingName, indirectHealing, indirectTicks, nil)
	}

	sortEntries(t.Entries, a.cfg.SortOrder)
	a.skills = t
	return t
}

// GetAgentDetails lists the skills one agent healed with. The agent filter
// does not apply here.
func (a *AggregatedStats) GetAgentDetails(agentID uint64) *Table {
	if t, ok := a.agentDetails[agentID]; ok {
		return t
	}

	t := &Table{}
	var indirectHealing, indirectTicks uint64

	for _, skillID := range slices.Sorted(maps.Keys(a.source.SkillsHealing)) {
		skill := a.source.SkillsHealing[skillID]
		h, ok := skill.AgentsHealing[agentID]
		if !ok {
			continue
		}

		indirect := a.isIndirect(skillID, skill.Name)
		if indirect {
			indirectHealing += h.TotalHealing
			indirectTicks += h.Ticks
			if !a.formatter.listIndirectSkills() {
				continue
			}
		}

		t.Add(uint64(skillID), a.formatter.skillName(skillID, skill.Name, indirect), h.TotalHealing, h.Ticks, nil)
	}

	if indirectHealing != 0 || indirectTicks != 0 {
		t.Add(IndirectHealingSkillID, IndirectHealingName, indirectHealing, indirectTicks, nil)
	}

	sortEntries(t.Entries, a.cfg.SortOrder)
	a.agentDetails[agentID] = t
	return t
}

// GetSkillDetails lists the agents that healed with one skill and pass the
// filter. Unknown skill ids, including IndirectHealingSkillID, yield an
// empty table.
func (a *AggregatedStats) GetSkillDetails(skillID uint64) *Table {
	if t, ok := a.skillDetails[skillID]; ok {
		return t
	}

	t := &Table{}
	a.skillDetails[skillID] = t

	var skill snapshot.SkillRecord
	found := false
	if skillID <= math.MaxUint32 {
		skill, found = a.source.SkillsHealing[uint32(skillID)]
	}
	if !found {
		a.log.Info("no source data for skill", "skill", skillID)
		return t
	}

	for _, agentID := range slices.Sorted(maps.Keys(skill.AgentsHealing)) {
		agent := a.source.LookupAgent(agentID)
		if IsExcluded(agent, a.source.LocalSubgroup, a.cfg.Filter) {
			continue
		}
		h := skill.AgentsHealing[agentID]
		t.Add(agentID, a.agentName(agentID, agent), h.TotalHealing, h.Ticks, nil)
	}

	sortEntries(t.Entries, a.cfg.SortOrder)
	return t
}

// GetGroupFilterTotals returns one total per GroupFilter, in GroupFilter
// order. The orchestrator's own filter does not apply.
func (a *AggregatedStats) GetGroupFilterTotals() *Table {
	if a.groupFilterTotals != nil {
		return a.groupFilterTotals
	}

	var healing, hits [groupFilterMax]uint64
	for agentID, h := range a.allAgents() {
		agent := a.source.LookupAgent(agentID)
		for g := range groupFilterMax {
			if IsExcluded(agent, a.source.LocalSubgroup, g.Preset()) {
				continue
			}
			healing[g] += h.TotalHealing
			hits[g] += h.Ticks
		}
	}

	t := &Table{}
	for g := range groupFilterMax {
		t.Add(0, g.String(), healing[g], hits[g], nil)
	}

	a.groupFilterTotals = t
	return t
}

// allAgents merges every skill's per-agent records into per-agent totals.
// No filter is applied.
func (a *AggregatedStats) allAgents() map[uint64]snapshot.AgentHealing {
	if a.merged != nil {
		return a.merged
	}

	all := make(map[uint64]snapshot.AgentHealing)
	for _, skill := range a.source.SkillsHealing {
		for agentID, h := range skill.AgentsHealing {
			cur := all[agentID]
			cur.TotalHealing += h.TotalHealing
			cur.Ticks += h.Ticks
			all[agentID] = cur
		}
	}

	a.merged = all
	return all
}

func (a *AggregatedStats) isIndirect(skillID uint32, name string) bool {
	if a.classifier == nil || !a.classifier.IsIndirectHealing(skillID, name) {
		return false
	}
	a.log.Debug("translating skill to indirect healing", "skill", skillID, "name", name)
	return true
}

func (a *AggregatedStats) agentName(agentID uint64, agent *snapshot.AgentInfo) string {
	if agent == nil {
		if _, debug := a.formatter.(debugFormatter); !debug {
			a.log.Info("no name for agent", "agent", agentID)
		}
	}
	return a.formatter.agentName(agentID, agent)
}
