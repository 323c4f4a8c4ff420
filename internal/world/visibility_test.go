package world

import (
	"sort"
	"testing"
)

func TestVisibilityUpdate(t *testing.T) {
	v := NewVisibility()
	v.Update(HexCoord{}, 2)

	// A radius-2 hex disk holds 19 hexes.
	if v.VisibleCount() != 19 {
		t.Errorf("visible count = %d, want 19", v.VisibleCount())
	}
	if v.ExploredCount() != 19 {
		t.Errorf("explored count = %d, want 19", v.ExploredCount())
	}
	if !v.IsVisible(HexCoord{Q: 2, R: 0}) {
		t.Error("(2,0) should be visible at range 2")
	}
	if v.IsVisible(HexCoord{Q: 3, R: 0}) {
		t.Error("(3,0) should not be visible at range 2")
	}
}

func TestExploredPersistsWhenVisibleMoves(t *testing.T) {
	v := NewVisibility()
	v.Update(HexCoord{}, 1)
	v.Update(HexCoord{Q: 10, R: 0}, 1)

	if v.IsVisible(HexCoord{}) {
		t.Error("origin should no longer be visible")
	}
	if !v.IsExplored(HexCoord{}) {
		t.Error("origin should stay explored")
	}
	if v.ExploredCount() != 14 {
		t.Errorf("explored count = %d, want 14 (two disjoint radius-1 disks)", v.ExploredCount())
	}
}

func TestExploredKeysSortedAndRoundTrips(t *testing.T) {
	v := NewVisibility()
	v.Update(HexCoord{Q: 5, R: -3}, 2)

	keys := v.ExploredKeys()
	if !sort.StringsAreSorted(keys) {
		t.Error("ExploredKeys should be sorted")
	}

	restored := NewVisibility()
	if err := restored.ImportExplored(keys); err != nil {
		t.Fatalf("ImportExplored: %v", err)
	}
	if restored.ExploredCount() != v.ExploredCount() {
		t.Errorf("restored %d explored, want %d", restored.ExploredCount(), v.ExploredCount())
	}
	for _, key := range keys {
		h, _ := ParseKey(key)
		if !restored.IsExplored(h) {
			t.Errorf("restored set missing %v", h)
		}
	}
	// Visibility is not persisted; it is recomputed from the viewer.
	if restored.VisibleCount() != 0 {
		t.Error("restored visibility should have an empty visible set")
	}
}

func TestImportExploredRejectsBadKey(t *testing.T) {
	v := NewVisibility()
	if err := v.ImportExplored([]string{"1,1", "oops"}); err == nil {
		t.Error("expected error for malformed key")
	}
}
