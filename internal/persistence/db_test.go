package persistence

import (
	"path/filepath"
	"testing"

	"github.com/talgya/fragile/internal/story"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSaveGameRoundTrip(t *testing.T) {
	db := testDB(t)

	if db.HasGame() {
		t.Error("fresh database should have no save")
	}
	blob, err := db.LoadGame()
	if err != nil || blob != nil {
		t.Errorf("missing save should be (nil, nil), got (%v, %v)", blob, err)
	}

	if err := db.SaveGame([]byte(`{"version":2}`)); err != nil {
		t.Fatal(err)
	}
	if !db.HasGame() {
		t.Error("save should exist after SaveGame")
	}
	got, err := db.LoadGame()
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != `{"version":2}` {
		t.Errorf("loaded %q", got)
	}

	// Overwrite replaces.
	if err := db.SaveGame([]byte("v2")); err != nil {
		t.Fatal(err)
	}
	got, _ = db.LoadGame()
	if string(got) != "v2" {
		t.Errorf("overwrite loaded %q", got)
	}

	if err := db.DeleteGame(); err != nil {
		t.Fatal(err)
	}
	if db.HasGame() {
		t.Error("save should be gone after DeleteGame")
	}
}

func TestLegacySlotIsIndependent(t *testing.T) {
	db := testDB(t)

	if err := db.SaveLegacy([]byte("ledger")); err != nil {
		t.Fatal(err)
	}
	if err := db.SaveGame([]byte("save")); err != nil {
		t.Fatal(err)
	}

	// Deleting the run save must not touch the legacy ledger.
	if err := db.DeleteGame(); err != nil {
		t.Fatal(err)
	}
	got, err := db.LoadLegacy()
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "ledger" {
		t.Errorf("legacy = %q after DeleteGame", got)
	}
}

func TestStoryLogAppendAndRead(t *testing.T) {
	db := testDB(t)

	if err := db.AppendStory(nil); err != nil {
		t.Errorf("empty append should be a no-op: %v", err)
	}

	batch := []story.Message{
		{ID: "city_founded", Text: "A beginning.", Timestamp: 100},
		{ID: "pop_2", Text: "A family arrives.", Timestamp: 200},
		{ID: "first_winter", Text: "Frost.", Timestamp: 300},
	}
	if err := db.AppendStory(batch); err != nil {
		t.Fatal(err)
	}

	got, err := db.RecentStory(2)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d messages, want 2", len(got))
	}
	// Most recent two, oldest first.
	if got[0].ID != "pop_2" || got[1].ID != "first_winter" {
		t.Errorf("order = [%s, %s], want [pop_2, first_winter]", got[0].ID, got[1].ID)
	}
}

func TestWipeClearsEverything(t *testing.T) {
	db := testDB(t)
	db.SaveGame([]byte("save"))
	db.SaveLegacy([]byte("ledger"))
	db.AppendStory([]story.Message{{ID: "x", Text: "y", Timestamp: 1}})

	if err := db.Wipe(); err != nil {
		t.Fatal(err)
	}
	if db.HasGame() {
		t.Error("wipe left the run save")
	}
	if blob, _ := db.LoadLegacy(); blob != nil {
		t.Error("wipe left the legacy ledger")
	}
	if msgs, _ := db.RecentStory(10); len(msgs) != 0 {
		t.Error("wipe left story messages")
	}
}
