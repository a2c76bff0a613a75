// Package skills classifies skills whose healing is a side effect of
// dealing damage (life steal and similar), so the stats engine can report
// that healing under a single synthetic entry.
package skills

// Classifier decides whether a skill counts as indirect healing.
// Implementations must be pure lookups.
type Classifier interface {
	IsIndirectHealing(skillID uint32, skillName string) bool
}

// defaultIndirectNames are skills that heal the caster as a side effect of
// hitting an enemy.
var defaultIndirectNames = []string{
	"Life Leech",
	"Life Siphon",
	"Vampiric",
	"Vampiric Aura",
	"Vampiric Presence",
	"Vampiric Strikes",
	"Blood Is Power",
	"Leeching Venoms",
}

// Table is a Classifier backed by fixed sets of skill ids and names.
// A skill matches if either its id or its exact name is in the table.
type Table struct {
	ids   map[uint32]struct{}
	names map[string]struct{}
}

// NewTable builds a table from explicit ids and names.
func NewTable(ids []uint32, names []string) *Table {
	t := &Table{
		ids:   make(map[uint32]struct{}, len(ids)),
		names: make(map[string]struct{}, len(names)),
	}
	for _, id := range ids {
		t.ids[id] = struct{}{}
	}
	for _, n := range names {
		if n == "" {
			continue
		}
		t.names[n] = struct{}{}
	}
	return t
}

// Default returns the built-in table.
func Default() *Table {
	return NewTable(nil, defaultIndirectNames)
}

// WithExtra returns a copy of t that also matches the given ids and names.
func (t *Table) WithExtra(ids []uint32, names []string) *Table {
	out := NewTable(ids, names)
	for id := range t.ids {
		out.ids[id] = struct{}{}
	}
	for n := range t.names {
		out.names[n] = struct{}{}
	}
	return out
}

// IsIndirectHealing implements Classifier.
func (t *Table) IsIndirectHealing(skillID uint32, skillName string) bool {
	if _, ok := t.ids[skillID]; ok {
		return true
	}
	_, ok := t.names[skillName]
	return ok
}

// Len is the number of ids plus names in the table.
func (t *Table) Len() int {
	return len(t.ids) + len(t.names)
}
