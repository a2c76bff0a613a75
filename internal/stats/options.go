package stats

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig is returned when a ViewConfig holds an enum value
// outside its defined range.
var ErrInvalidConfig = errors.New("invalid view config")

// FilterConfig selects which agents are excluded from the views.
type FilterConfig struct {
	ExcludeGroup    bool
	ExcludeOffGroup bool
	ExcludeOffSquad bool
	ExcludeMinions  bool
	ExcludeUnmapped bool
}

// ViewConfig is the complete, read-only configuration of an AggregatedStats.
type ViewConfig struct {
	Filter             FilterConfig
	SortOrder          SortOrder
	DataSource         DataSource
	CombatEndCondition CombatEndCondition
}

// Validate reports enum values outside their ranges.
func (c ViewConfig) Validate() error {
	if !c.SortOrder.Valid() {
		return fmt.Errorf("%w: sort order %d", ErrInvalidConfig, c.SortOrder)
	}
	if !c.DataSource.Valid() {
		return fmt.Errorf("%w: data source %d", ErrInvalidConfig, c.DataSource)
	}
	if !c.CombatEndCondition.Valid() {
		return fmt.Errorf("%w: combat end condition %d", ErrInvalidConfig, c.CombatEndCondition)
	}
	return nil
}

type SortOrder int

const (
	AscendingAlphabetical SortOrder = iota
	DescendingAlphabetical
	AscendingSize
	DescendingSize
	sortOrderMax
)

var sortOrderNames = [...]string{
	AscendingAlphabetical:  "ascending_alphabetical",
	DescendingAlphabetical: "descending_alphabetical",
	AscendingSize:          "ascending_size",
	DescendingSize:         "descending_size",
}

func (s SortOrder) Valid() bool { return s >= 0 && s < sortOrderMax }

func (s SortOrder) String() string {
	if !s.Valid() {
		return fmt.Sprintf("SortOrder(%d)", int(s))
	}
	return sortOrderNames[s]
}

// Next cycles through the sort orders.
func (s SortOrder) Next() SortOrder { return (s + 1) % sortOrderMax }

// ParseSortOrder accepts the names produced by String.
func ParseSortOrder(name string) (SortOrder, error) {
	for i, n := range sortOrderNames {
		if n == name {
			return SortOrder(i), nil
		}
	}
	return 0, fmt.Errorf("unknown sort order %q", name)
}

type DataSource int

const (
	Totals DataSource = iota
	Agents
	Skills
	dataSourceMax
)

var dataSourceNames = [...]string{
	Totals: "totals",
	Agents: "agents",
	Skills: "skills",
}

func (d DataSource) Valid() bool { return d >= 0 && d < dataSourceMax }

func (d DataSource) String() string {
	if !d.Valid() {
		return fmt.Sprintf("DataSource(%d)", int(d))
	}
	return dataSourceNames[d]
}

// Next cycles through the data sources.
func (d DataSource) Next() DataSource { return (d + 1) % dataSourceMax }

// ParseDataSource accepts the names produced by String.
func ParseDataSource(name string) (DataSource, error) {
	for i, n := range dataSourceNames {
		if n == name {
			return DataSource(i), nil
		}
	}
	return 0, fmt.Errorf("unknown data source %q", name)
}

type CombatEndCondition int

const (
	CombatExit CombatEndCondition = iota
	LastDamageEvent
	LastHealEvent
	combatEndConditionMax
)

var combatEndConditionNames = [...]string{
	CombatExit:      "combat_exit",
	LastDamageEvent: "last_damage_event",
	LastHealEvent:   "last_heal_event",
}

func (c CombatEndCondition) Valid() bool { return c >= 0 && c < combatEndConditionMax }

func (c CombatEndCondition) String() string {
	if !c.Valid() {
		return fmt.Sprintf("CombatEndCondition(%d)", int(c))
	}
	return combatEndConditionNames[c]
}

// Next cycles through the end conditions.
func (c CombatEndCondition) Next() CombatEndCondition {
	return (c + 1) % combatEndConditionMax
}

// ParseCombatEndCondition accepts the names produced by String.
func ParseCombatEndCondition(name string) (CombatEndCondition, error) {
	for i, n := range combatEndConditionNames {
		if n == name {
			return CombatEndCondition(i), nil
		}
	}
	return 0, fmt.Errorf("unknown combat end condition %q", name)
}

// GroupFilter names the four scopes compared by GetGroupFilterTotals.
type GroupFilter int

const (
	GroupFilterGroup GroupFilter = iota
	GroupFilterSquad
	GroupFilterAllExcludingMinions
	GroupFilterAll
	groupFilterMax
)

var groupFilterNames = [...]string{
	GroupFilterGroup:               "Group",
	GroupFilterSquad:               "Squad",
	GroupFilterAllExcludingMinions: "All (Excluding Summons)",
	GroupFilterAll:                 "All (Including Summons)",
}

func (g GroupFilter) String() string {
	if g < 0 || g >= groupFilterMax {
		return fmt.Sprintf("GroupFilter(%d)", int(g))
	}
	return groupFilterNames[g]
}

// groupFilterPresets are the filters behind each GroupFilter. Every preset
// excludes a subset of what the one before it excludes.
var groupFilterPresets = [groupFilterMax]FilterConfig{
	GroupFilterGroup: {
		ExcludeOffGroup: true,
		ExcludeOffSquad: true,
		ExcludeMinions:  true,
		ExcludeUnmapped: true,
	},
	GroupFilterSquad: {
		ExcludeOffSquad: true,
		ExcludeMinions:  true,
		ExcludeUnmapped: true,
	},
	GroupFilterAllExcludingMinions: {
		ExcludeMinions:  true,
		ExcludeUnmapped: true,
	},
	GroupFilterAll: {
		ExcludeUnmapped: true,
	},
}

// Preset returns the FilterConfig used for g.
func (g GroupFilter) Preset() FilterConfig {
	return groupFilterPresets[g]
}
