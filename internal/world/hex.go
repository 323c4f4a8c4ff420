// Package world provides the hex grid math, the deterministic terrain
// generator, and the fog-of-war visibility tracking.
// Uses axial coordinates (q, r) for the hex grid, pointy-top orientation.
package world

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// HexSize is the pixel radius of a hex used by the pixel transforms.
const HexSize = 32

var sqrt3 = math.Sqrt(3)

// HexCoord represents a position on the hex grid using axial coordinates.
// The third cube coordinate s is derived: s = -q - r.
type HexCoord struct {
	Q int `json:"q"`
	R int `json:"r"`
}

// S returns the implicit third cube coordinate.
func (h HexCoord) S() int {
	return -h.Q - h.R
}

// Key returns the canonical "q,r" string form used in save files.
func (h HexCoord) Key() string {
	return strconv.Itoa(h.Q) + "," + strconv.Itoa(h.R)
}

// ParseKey parses a "q,r" key back into a coordinate.
func ParseKey(key string) (HexCoord, error) {
	qs, rs, ok := strings.Cut(key, ",")
	if !ok {
		return HexCoord{}, fmt.Errorf("bad hex key %q", key)
	}
	q, err := strconv.Atoi(qs)
	if err != nil {
		return HexCoord{}, fmt.Errorf("bad hex key %q: %w", key, err)
	}
	r, err := strconv.Atoi(rs)
	if err != nil {
		return HexCoord{}, fmt.Errorf("bad hex key %q: %w", key, err)
	}
	return HexCoord{Q: q, R: r}, nil
}

// HexNeighborDirections defines the six neighbor offsets in axial coordinates.
var HexNeighborDirections = [6]HexCoord{
	{Q: 1, R: 0},
	{Q: 1, R: -1},
	{Q: 0, R: -1},
	{Q: -1, R: 0},
	{Q: -1, R: 1},
	{Q: 0, R: 1},
}

// Neighbors returns the six adjacent hex coordinates.
func (h HexCoord) Neighbors() [6]HexCoord {
	var result [6]HexCoord
	for i, dir := range HexNeighborDirections {
		result[i] = HexCoord{Q: h.Q + dir.Q, R: h.R + dir.R}
	}
	return result
}

// Distance returns the hex distance between two coordinates.
func Distance(a, b HexCoord) int {
	dq := abs(a.Q - b.Q)
	dqr := abs(a.Q + a.R - b.Q - b.R)
	dr := abs(a.R - b.R)
	return (dq + dqr + dr) / 2
}

// ToPixel converts a hex coordinate to its pixel center.
func (h HexCoord) ToPixel() (x, y float64) {
	x = HexSize * (sqrt3*float64(h.Q) + sqrt3/2*float64(h.R))
	y = HexSize * (3.0 / 2.0 * float64(h.R))
	return x, y
}

// PixelToHex converts a pixel position back to the containing hex.
func PixelToHex(x, y float64) HexCoord {
	q := (sqrt3/3*x - 1.0/3.0*y) / HexSize
	r := (2.0 / 3.0 * y) / HexSize
	return Round(q, r)
}

// Round snaps fractional axial coordinates to the nearest hex.
// The axis with the largest rounding error is recomputed from the other
// two so that q + r + s = 0 holds exactly.
func Round(fq, fr float64) HexCoord {
	fs := -fq - fr

	q := math.Round(fq)
	r := math.Round(fr)
	s := math.Round(fs)

	qDiff := math.Abs(q - fq)
	rDiff := math.Abs(r - fr)
	sDiff := math.Abs(s - fs)

	if qDiff > rDiff && qDiff > sDiff {
		q = -r - s
	} else if rDiff > sDiff {
		r = -q - s
	}

	return HexCoord{Q: int(q), R: int(r)}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
