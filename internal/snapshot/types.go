package snapshot

// AgentInfo describes one participant of the encounter.
type AgentInfo struct {
	Name     string
	Subgroup uint32 // 0 = not in a subgroup
	IsMinion bool
}

// AgentHealing is the healing one agent produced with one skill.
type AgentHealing struct {
	TotalHealing uint64
	Ticks        uint64
}

// SkillRecord holds the per-agent healing of a single skill.
type SkillRecord struct {
	Name          string
	AgentsHealing map[uint64]AgentHealing
}

// HealingSnapshot is the frozen healing state of one combat encounter.
// Timestamps are milliseconds; 0 means the event has not occurred.
type HealingSnapshot struct {
	Agents        map[uint64]AgentInfo
	SkillsHealing map[uint32]SkillRecord
	LocalSubgroup uint32

	EnteredCombat   uint64
	ExitedCombat    uint64
	LastHealEvent   uint64
	LastDamageEvent uint64
}

// New returns an empty snapshot with initialized maps.
func New() *HealingSnapshot {
	return &HealingSnapshot{
		Agents:        make(map[uint64]AgentInfo),
		SkillsHealing: make(map[uint32]SkillRecord),
	}
}

// LookupAgent returns a copy of the agent's info, or nil when the agent is
// not part of the agent map.
func (s *HealingSnapshot) LookupAgent(agentID uint64) *AgentInfo {
	info, ok := s.Agents[agentID]
	if !ok {
		return nil
	}
	return &info
}

// AddHealing records healing for a skill/agent pair, creating the skill
// record on first use. Used by loaders while the snapshot is still being
// built; a snapshot handed to the stats engine must not be modified.
func (s *HealingSnapshot) AddHealing(skillID uint32, skillName string, agentID uint64, healing, ticks uint64) {
	rec, ok := s.SkillsHealing[skillID]
	if !ok {
		rec = SkillRecord{Name: skillName, AgentsHealing: make(map[uint64]AgentHealing)}
	}
	cur := rec.AgentsHealing[agentID]
	cur.TotalHealing += healing
	cur.Ticks += ticks
	rec.AgentsHealing[agentID] = cur
	s.SkillsHealing[skillID] = rec
}

// TotalHealing sums every record in the snapshot, unfiltered.
func (s *HealingSnapshot) TotalHealing() uint64 {
	var total uint64
	for _, skill := range s.SkillsHealing {
		for _, h := range skill.AgentsHealing {
			total += h.TotalHealing
		}
	}
	return total
}

// DurationMS is the span between entering combat and the latest known
// event, in milliseconds.
func (s *HealingSnapshot) DurationMS() uint64 {
	end := max(s.ExitedCombat, s.LastHealEvent, s.LastDamageEvent)
	if end < s.EnteredCombat {
		return 0
	}
	return end - s.EnteredCombat
}
