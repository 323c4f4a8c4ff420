// Two-tier fog of war: the visible set is recomputed from the viewer
// position on every update, the explored set only ever grows.
package world

import "sort"

// Visibility tracks which hexes the player can currently see and which
// they have ever seen.
type Visibility struct {
	visible  map[HexCoord]struct{}
	explored map[HexCoord]struct{}
}

// NewVisibility creates empty visibility state.
func NewVisibility() *Visibility {
	return &Visibility{
		visible:  make(map[HexCoord]struct{}),
		explored: make(map[HexCoord]struct{}),
	}
}

// Update recomputes the visible set as every hex within viewRange of the
// viewer and folds the newly visible hexes into the explored set.
func (v *Visibility) Update(viewer HexCoord, viewRange int) {
	clear(v.visible)

	for q := viewer.Q - viewRange; q <= viewer.Q+viewRange; q++ {
		for r := viewer.R - viewRange; r <= viewer.R+viewRange; r++ {
			hex := HexCoord{Q: q, R: r}
			if Distance(viewer, hex) <= viewRange {
				v.visible[hex] = struct{}{}
				v.explored[hex] = struct{}{}
			}
		}
	}
}

// IsVisible reports whether the hex is in the current view.
func (v *Visibility) IsVisible(hex HexCoord) bool {
	_, ok := v.visible[hex]
	return ok
}

// IsExplored reports whether the hex has ever been seen.
func (v *Visibility) IsExplored(hex HexCoord) bool {
	_, ok := v.explored[hex]
	return ok
}

// VisibleCount returns the size of the current view.
func (v *Visibility) VisibleCount() int { return len(v.visible) }

// ExploredCount returns the size of the explored set.
func (v *Visibility) ExploredCount() int { return len(v.explored) }

// ExploredKeys returns the explored set as sorted "q,r" keys for save
// persistence. The visible set is not persisted: it is a pure function of
// the viewer position and is recomputed on load.
func (v *Visibility) ExploredKeys() []string {
	keys := make([]string, 0, len(v.explored))
	for hex := range v.explored {
		keys = append(keys, hex.Key())
	}
	sort.Strings(keys)
	return keys
}

// ImportExplored replaces the explored set from saved keys.
func (v *Visibility) ImportExplored(keys []string) error {
	explored := make(map[HexCoord]struct{}, len(keys))
	for _, key := range keys {
		hex, err := ParseKey(key)
		if err != nil {
			return err
		}
		explored[hex] = struct{}{}
	}
	v.explored = explored
	return nil
}
