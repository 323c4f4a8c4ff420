package catalog

import "testing"

func TestDefaultLoads(t *testing.T) {
	cat, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}

	for _, id := range []string{"plains", "forest", "hills", "mountain", "river", "lake"} {
		if cat.Tile(id) == nil {
			t.Errorf("missing tile type %q", id)
		}
	}
	for _, id := range []string{"town_hall", "hut", "farm", "lumber_yard", "quarry", "shed", "library", "palisade"} {
		if cat.Building(id) == nil {
			t.Errorf("missing building type %q", id)
		}
	}
	for _, id := range []string{"basic_tools", "advanced_tools", "agriculture", "fortification"} {
		if cat.Tech(id) == nil {
			t.Errorf("missing tech %q", id)
		}
	}
}

func TestTilesByWeightDescending(t *testing.T) {
	cat, err := Default()
	if err != nil {
		t.Fatal(err)
	}
	tiles := cat.TilesByWeight()
	if len(tiles) == 0 {
		t.Fatal("no tiles")
	}
	for i := 1; i < len(tiles); i++ {
		if tiles[i].Weight > tiles[i-1].Weight {
			t.Errorf("tiles not sorted by weight: %s (%f) after %s (%f)",
				tiles[i].ID, tiles[i].Weight, tiles[i-1].ID, tiles[i-1].Weight)
		}
	}
	if tiles[0].ID != "plains" {
		t.Errorf("heaviest tile = %s, want plains", tiles[0].ID)
	}
}

func TestTileResourcesResolve(t *testing.T) {
	cat, err := Default()
	if err != nil {
		t.Fatal(err)
	}
	for _, tile := range cat.TilesByWeight() {
		for _, res := range tile.Resources {
			if cat.Resource(res) == nil {
				t.Errorf("tile %s references unknown resource %q", tile.ID, res)
			}
		}
	}
}

func TestTechPrerequisitesResolve(t *testing.T) {
	cat, err := Default()
	if err != nil {
		t.Fatal(err)
	}
	for _, tech := range cat.Techs() {
		for _, prereq := range tech.Prerequisites {
			if cat.Tech(prereq) == nil {
				t.Errorf("tech %s references unknown prerequisite %q", tech.ID, prereq)
			}
		}
		for _, b := range tech.UnlocksBuildings {
			if cat.Building(b) == nil {
				t.Errorf("tech %s unlocks unknown building %q", tech.ID, b)
			}
		}
	}
}

func TestParseRejectsUnknownPrerequisite(t *testing.T) {
	tiles := []byte(`{"tileTypes":{"plains":{"id":"plains","name":"Plains","weight":1}},"resources":{}}`)
	buildings := []byte(`{"buildings":{}}`)
	techs := []byte(`{"techs":{"x":{"id":"x","name":"X","researchTime":30,"prerequisites":["missing"]}}}`)

	if _, err := Parse(tiles, buildings, techs); err == nil {
		t.Error("expected error for unknown prerequisite")
	}
}

func TestParseRejectsNonPositiveResearchTime(t *testing.T) {
	tiles := []byte(`{"tileTypes":{"plains":{"id":"plains","name":"Plains","weight":1}},"resources":{}}`)
	buildings := []byte(`{"buildings":{}}`)

	// A zero research time would divide to NaN progress and wedge the
	// research slot, so the table is rejected up front.
	for _, techs := range []string{
		`{"techs":{"x":{"id":"x","name":"X","researchTime":0}}}`,
		`{"techs":{"x":{"id":"x","name":"X","researchTime":-5}}}`,
	} {
		if _, err := Parse(tiles, buildings, []byte(techs)); err == nil {
			t.Errorf("expected error for %s", techs)
		}
	}
}

func TestParseRejectsEmptyTileTable(t *testing.T) {
	tiles := []byte(`{"tileTypes":{},"resources":{}}`)
	buildings := []byte(`{"buildings":{}}`)
	techs := []byte(`{"techs":{}}`)
	if _, err := Parse(tiles, buildings, techs); err == nil {
		t.Error("expected error for empty tile table")
	}
}
