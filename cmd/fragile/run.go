package main

import (
	"math/rand"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"log/slog"

	"github.com/spf13/cobra"

	"github.com/talgya/fragile/internal/api"
	"github.com/talgya/fragile/internal/catalog"
	"github.com/talgya/fragile/internal/engine"
	"github.com/talgya/fragile/internal/persistence"
	"github.com/talgya/fragile/internal/prestige"
	"github.com/talgya/fragile/internal/story"
)

var (
	flagSeed      int32
	flagPort      int
	flagTick      time.Duration
	flagFresh     bool
	flagSaveEvery int
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the game loop (autopilot explores, settles, and manages the city)",
	RunE:  runGame,
}

func init() {
	runCmd.Flags().Int32Var(&flagSeed, "seed", 0, "world seed for new games (0 = random)")
	runCmd.Flags().IntVar(&flagPort, "port", 8080, "HTTP API port (0 disables the API)")
	runCmd.Flags().DurationVar(&flagTick, "tick", engine.DefaultTickInterval, "game tick interval")
	runCmd.Flags().BoolVar(&flagFresh, "fresh", false, "wipe the save database before starting")
	runCmd.Flags().IntVar(&flagSaveEvery, "save-every", 15, "autosave period in ticks")
	rootCmd.AddCommand(runCmd)
}

func runGame(cmd *cobra.Command, args []string) error {
	os.MkdirAll(filepath.Dir(flagDBPath), 0755)
	db, err := persistence.Open(flagDBPath)
	if err != nil {
		return err
	}
	defer db.Close()
	slog.Info("database opened", "path", flagDBPath)

	if flagFresh {
		if err := db.Wipe(); err != nil {
			return err
		}
	}

	cat, err := catalog.Default()
	if err != nil {
		return err
	}
	legacy := prestige.NewSystem(db)
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	sim, err := loadOrNew(db, cat, legacy, rng)
	if err != nil {
		return err
	}

	var server *api.Server
	if flagPort > 0 {
		server = &api.Server{Sim: sim, DB: db, Port: flagPort}
		server.Start()
	}

	pilot := newAutopilot(sim, rng)
	persistedStory := make(map[string]struct{})
	for _, m := range sim.Story.Messages() {
		persistedStory[m.ID] = struct{}{}
	}

	saveEvery := savePeriod(flagSaveEvery)
	loop := engine.NewLoop(sim, flagTick)
	if server != nil {
		// Tick, autopilot, and persistence all run under the server
		// lock so handlers never see a half-applied tick.
		loop.Wrap(server.Locked)
	}
	loop.OnTick(func(summary engine.TickSummary) {
		pilot.Step()
		flushStory(db, sim, persistedStory)
		if summary.Tick > 0 && summary.Tick%saveEvery == 0 {
			saveGame(db, sim)
		}
		if summary.Collapsed {
			saveGame(db, sim)
		}
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loop.Run(ctx)

	// Final save on shutdown.
	if server != nil {
		server.Locked(func() {
			flushStory(db, sim, persistedStory)
			saveGame(db, sim)
		})
	} else {
		flushStory(db, sim, persistedStory)
		saveGame(db, sim)
	}
	slog.Info("shutdown complete")
	return nil
}

// savePeriod clamps the autosave period to at least one tick.
func savePeriod(ticks int) int {
	if ticks < 1 {
		return 1
	}
	return ticks
}

// loadOrNew restores the saved game or starts a fresh one.
func loadOrNew(db *persistence.DB, cat *catalog.Catalog, legacy *prestige.System, rng *rand.Rand) (*engine.Simulation, error) {
	blob, err := db.LoadGame()
	if err != nil {
		return nil, err
	}
	if blob != nil {
		if data := engine.ParseSave(blob); data != nil {
			sim, err := engine.Restore(data, cat, legacy, rng)
			if err == nil {
				return sim, nil
			}
			slog.Warn("save restore failed, starting new game", "error", err)
		}
	}

	seed := flagSeed
	if seed == 0 {
		seed = rng.Int31()
	}
	return engine.NewSimulation(seed, cat, legacy, rng), nil
}

func saveGame(db *persistence.DB, sim *engine.Simulation) {
	blob, err := sim.BuildSnapshot().Marshal()
	if err != nil {
		slog.Error("snapshot marshal failed", "error", err)
		return
	}
	if err := db.SaveGame(blob); err != nil {
		slog.Error("autosave failed", "error", err)
		return
	}
	slog.Debug("autosaved", "bytes", len(blob))
}

// flushStory appends story messages not yet written to the durable log.
// Message IDs are milestone keys, unique per milestone, so a seen-set is
// enough to dedupe across the ring buffer's trimming.
func flushStory(db *persistence.DB, sim *engine.Simulation, seen map[string]struct{}) {
	var fresh []story.Message
	for _, m := range sim.Story.Messages() {
		if _, ok := seen[m.ID]; ok {
			continue
		}
		seen[m.ID] = struct{}{}
		fresh = append(fresh, m)
	}
	if len(fresh) == 0 {
		return
	}
	if err := db.AppendStory(fresh); err != nil {
		slog.Error("story log append failed", "error", err)
	}
}
