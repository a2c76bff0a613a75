package stats

import "sort"

// sortEntries orders entries in place. The sort is not stable.
func sortEntries(entries []Entry, order SortOrder) {
	switch order {
	case AscendingAlphabetical:
		sort.Slice(entries, func(i, j int) bool {
			return entries[i].Name < entries[j].Name
		})
	case DescendingAlphabetical:
		sort.Slice(entries, func(i, j int) bool {
			return entries[i].Name > entries[j].Name
		})
	case AscendingSize:
		sort.Slice(entries, func(i, j int) bool {
			return entries[i].Healing < entries[j].Healing
		})
	case DescendingSize:
		sort.Slice(entries, func(i, j int) bool {
			return entries[i].Healing > entries[j].Healing
		})
	default:
		panic("stats: unknown sort order " + order.String())
	}
}
