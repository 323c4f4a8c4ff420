package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/talgya/fragile/internal/persistence"
	"github.com/talgya/fragile/internal/prestige"
)

var legacyCmd = &cobra.Command{
	Use:   "legacy",
	Short: "Show the cross-run legacy ledger: past runs, shards, and bonuses",
	RunE:  runLegacy,
}

func init() {
	rootCmd.AddCommand(legacyCmd)
}

func runLegacy(cmd *cobra.Command, args []string) error {
	db, err := persistence.Open(flagDBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	ledger := prestige.NewSystem(db).LegacyData()

	if len(ledger.Runs) == 0 {
		fmt.Println("No runs recorded yet. Every collapse leaves something behind.")
		return nil
	}

	fmt.Printf("%d runs, %d relic shards total\n\n", len(ledger.Runs), ledger.TotalRelicShards)
	for i, run := range ledger.Runs {
		when := humanize.Time(time.UnixMilli(run.Timestamp))
		fmt.Printf("%2d. %s — %s\n", i+1, run.CityName, when)
		fmt.Printf("    pop %d, %d ticks, %d winters, %d techs, %d buildings → %d shards\n",
			run.Population, run.TicksSurvived, run.WintersSurvived,
			run.TechsResearched, run.BuildingsBuilt, run.RelicShardsEarned)
		fmt.Printf("    %s\n", run.CollapseReason)
	}

	b := ledger.Bonuses
	fmt.Printf("\nBonuses: +%.0f%% production, +%d starting food, -%.0f%% building costs\n",
		b.ProductionBonus*100, b.StartingFood, b.BuildingCostReduction*100)
	return nil
}
