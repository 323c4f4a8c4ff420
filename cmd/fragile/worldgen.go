package main

import (
	"fmt"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/talgya/fragile/internal/catalog"
	"github.com/talgya/fragile/internal/world"
)

var (
	flagGenSeed   int32
	flagGenRadius int
)

var worldgenCmd = &cobra.Command{
	Use:   "worldgen",
	Short: "Preview terrain generation for a seed",
	RunE:  runWorldgen,
}

func init() {
	worldgenCmd.Flags().Int32Var(&flagGenSeed, "seed", 42, "world seed")
	worldgenCmd.Flags().IntVar(&flagGenRadius, "radius", 30, "hex radius to generate")
	rootCmd.AddCommand(worldgenCmd)
}

func runWorldgen(cmd *cobra.Command, args []string) error {
	cat, err := catalog.Default()
	if err != nil {
		return err
	}

	gen := world.NewGenerator(flagGenSeed, cat)
	origin := world.HexCoord{}
	resources := 0
	for q := -flagGenRadius; q <= flagGenRadius; q++ {
		for r := -flagGenRadius; r <= flagGenRadius; r++ {
			hex := world.HexCoord{Q: q, R: r}
			if world.Distance(origin, hex) > flagGenRadius {
				continue
			}
			if t := gen.GenerateTile(hex); t.HasResource {
				resources++
			}
		}
	}

	total := gen.GeneratedCount()
	fmt.Printf("seed %d, radius %d: %s tiles, %s with resources\n",
		flagGenSeed, flagGenRadius, humanize.Comma(int64(total)), humanize.Comma(int64(resources)))

	counts := gen.TerrainCounts()
	ids := make([]string, 0, len(counts))
	for id := range counts {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return counts[ids[i]] > counts[ids[j]] })

	for _, id := range ids {
		n := counts[id]
		fmt.Printf("  %-10s %8s  (%5.1f%%)\n", id, humanize.Comma(int64(n)), float64(n)/float64(total)*100)
	}
	return nil
}
