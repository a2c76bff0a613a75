package tui

import "github.com/nixlim/heal-top/internal/stats"

// FilterMenuState tracks the interactive filter menu.
type FilterMenuState struct {
	Active bool
	Cursor int
}

// FilterOption is one exclude switch shown in the filter menu.
type FilterOption struct {
	Label string
	field func(*stats.FilterConfig) *bool
}

// Enabled reports the switch's value in cfg.
func (o FilterOption) Enabled(cfg stats.FilterConfig) bool {
	return *o.field(&cfg)
}

// Toggle returns cfg with the switch flipped.
func (o FilterOption) Toggle(cfg stats.FilterConfig) stats.FilterConfig {
	p := o.field(&cfg)
	*p = !*p
	return cfg
}

var filterOptions = []FilterOption{
	{Label: "Exclude own group", field: func(c *stats.FilterConfig) *bool { return &c.ExcludeGroup }},
	{Label: "Exclude other groups", field: func(c *stats.FilterConfig) *bool { return &c.ExcludeOffGroup }},
	{Label: "Exclude off squad", field: func(c *stats.FilterConfig) *bool { return &c.ExcludeOffSquad }},
	{Label: "Exclude summons", field: func(c *stats.FilterConfig) *bool { return &c.ExcludeMinions }},
	{Label: "Exclude unmapped", field: func(c *stats.FilterConfig) *bool { return &c.ExcludeUnmapped }},
}

// presetForKey maps the digit keys 1-4 to the group filter presets.
func presetForKey(k string) (stats.GroupFilter, bool) {
	if len(k) != 1 || k[0] < '1' || k[0] > '4' {
		return 0, false
	}
	return stats.GroupFilterGroup + stats.GroupFilter(k[0]-'1'), true
}
