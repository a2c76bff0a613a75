package skills

import "testing"

func TestTable_MatchesByIDOrName(t *testing.T) {
	tbl := NewTable([]uint32{10, 20}, []string{"Siphon", ""})

	tests := []struct {
		id   uint32
		name string
		want bool
	}{
		{10, "anything", true},
		{20, "", true},
		{30, "Siphon", true},
		{30, "siphon", false},
		{30, "Other", false},
		{0, "", false},
	}
	for _, tt := range tests {
		if got := tbl.IsIndirectHealing(tt.id, tt.name); got != tt.want {
			t.Errorf("IsIndirectHealing(%d, %q) = %v, want %v", tt.id, tt.name, got, tt.want)
		}
	}

	if tbl.Len() != 3 {
		t.Errorf("Len = %d, want 3", tbl.Len())
	}
}

func TestTable_WithExtra(t *testing.T) {
	base := NewTable([]uint32{1}, []string{"A"})
	ext := base.WithExtra([]uint32{2}, []string{"B"})

	for _, c := range []struct {
		id   uint32
		name string
	}{{1, ""}, {2, ""}, {0, "A"}, {0, "B"}} {
		if !ext.IsIndirectHealing(c.id, c.name) {
			t.Errorf("extended table should match (%d, %q)", c.id, c.name)
		}
	}

	if base.IsIndirectHealing(2, "B") {
		t.Error("WithExtra must not modify the receiver")
	}
}

func TestDefault_NotEmpty(t *testing.T) {
	d := Default()
	if d.Len() == 0 {
		t.Fatal("default table should not be empty")
	}
	if !d.IsIndirectHealing(0, "Life Leech") {
		t.Error("default table should classify Life Leech")
	}
	if d.IsIndirectHealing(0, "Regeneration") {
		t.Error("default table should not classify Regeneration")
	}
}
