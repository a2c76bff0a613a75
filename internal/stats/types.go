package stats

// IndirectHealingSkillID identifies the synthetic entry that collects
// healing from skills classified as indirect healing. Skill ids are uint32,
// so it never matches a real skill.
const IndirectHealingSkillID uint64 = 1 << 32

// IndirectHealingName is the display name of the synthetic entry.
const IndirectHealingName = "Healing by Damage Dealt"

// TotalName is the name of the entry returned by GetTotal.
const TotalName = "__TOTAL__"

// Entry is one row of a view: a skill, an agent or a named total.
type Entry struct {
	ID      uint64
	Name    string
	Healing uint64
	Hits    uint64
	Casts   *uint64 // nil when casts are not tracked
}

// Table is an ordered list of entries plus the largest healing value seen.
type Table struct {
	Entries        []Entry
	HighestHealing uint64
}

// Add appends an entry and updates HighestHealing.
func (t *Table) Add(id uint64, name string, healing, hits uint64, casts *uint64) {
	t.Entries = append(t.Entries, Entry{
		ID:      id,
		Name:    name,
		Healing: healing,
		Hits:    hits,
		Casts:   casts,
	})
	t.HighestHealing = max(t.HighestHealing, healing)
}

// Len returns the number of entries.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Entries)
}

// TotalHealing sums Healing over all entries.
func (t *Table) TotalHealing() uint64 {
	var total uint64
	for _, e := range t.Entries {
		total += e.Healing
	}
	return total
}

// TotalHits sums Hits over all entries.
func (t *Table) TotalHits() uint64 {
	var total uint64
	for _, e := range t.Entries {
		total += e.Hits
	}
	return total
}
