// Package tier maps an accumulated loyalty point total to its tier.
//
// The tier is a projection of the point total. It is recomputed on every read
// and never stored next to the points.
package tier

import (
	"fmt"
	"math"
)

type Tier string

const (
	Bronze Tier = "BRONZE"
	Silver Tier = "SILVER"
	Gold   Tier = "GOLD"
)

// Unbounded is the MaxPoints of the top tier.
const Unbounded = math.MaxInt

// Range is an inclusive [MinPoints, MaxPoints] band of point totals.
type Range struct {
	Tier      Tier
	MinPoints int
	MaxPoints int
}

func (r Range) Contains(points int) bool {
	return points >= r.MinPoints && points <= r.MaxPoints
}

func (r Range) Unbounded() bool {
	return r.MaxPoints == Unbounded
}

// Config is the ordered tier table. Ranges are contiguous, start at 0 and
// the last one is unbounded.
var Config = []Range{
	{Tier: Bronze, MinPoints: 0, MaxPoints: 999},
	{Tier: Silver, MinPoints: 1000, MaxPoints: 4999},
	{Tier: Gold, MinPoints: 5000, MaxPoints: Unbounded},
}

// Status is the complete tier status of an account.
type Status struct {
	Tier             Tier    `json:"tier"`
	NextTier         Tier    `json:"next_tier,omitempty"` // empty at the top tier
	CurrentPoints    int     `json:"current_points"`
	TargetPoints     int     `json:"target_points"` // MinPoints of NextTier, or CurrentPoints at the top
	PointsToNextTier int     `json:"points_to_next_tier"`
	Progress         float64 `json:"progress"` // 0-100
}

// RangeOf returns the table entry for t.
func RangeOf(t Tier) (Range, bool) {
	for _, r := range Config {
		if r.Tier == t {
			return r, true
		}
	}
	return Range{}, false
}

// For returns the unique tier whose range contains totalPoints.
// Negative totals are treated as 0.
func For(totalPoints int) Tier {
	r, _ := lookup(totalPoints)
	return r.Tier
}

// Progress returns how far totalPoints is through its tier, in percent.
// The unbounded top tier always reports 100.
func Progress(totalPoints int) float64 {
	return StatusFor(totalPoints).Progress
}

func StatusFor(totalPoints int) Status {
	points := clamp(totalPoints)
	current, idx := lookup(points)

	status := Status{
		Tier:          current.Tier,
		CurrentPoints: points,
	}

	if current.Unbounded() || idx == len(Config)-1 {
		status.TargetPoints = points
		status.Progress = 100
		return status
	}

	next := Config[idx+1]
	status.NextTier = next.Tier
	status.TargetPoints = next.MinPoints
	status.PointsToNextTier = next.MinPoints - points

	span := current.MaxPoints - current.MinPoints
	if span <= 0 {
		status.Progress = 100
		return status
	}

	progress := float64(points-current.MinPoints) / float64(span) * 100
	progress = math.Min(math.Max(progress, 0), 100)

	// Round progress to 2 decimal places
	status.Progress = math.Round(progress*100) / 100
	return status
}

// Validate checks that table partitions the non-negative integers: it starts
// at 0, every range follows its predecessor without gap or overlap, and only
// the last range is unbounded.
func Validate(table []Range) error {
	if len(table) == 0 {
		return fmt.Errorf("tier table is empty")
	}
	if table[0].MinPoints != 0 {
		return fmt.Errorf("first tier %s starts at %d, want 0", table[0].Tier, table[0].MinPoints)
	}
	for i, r := range table {
		if r.MaxPoints < r.MinPoints {
			return fmt.Errorf("tier %s has max %d below min %d", r.Tier, r.MaxPoints, r.MinPoints)
		}
		last := i == len(table)-1
		if r.Unbounded() != last {
			return fmt.Errorf("tier %s: only the last tier may be unbounded", r.Tier)
		}
		if i > 0 && r.MinPoints != table[i-1].MaxPoints+1 {
			return fmt.Errorf("tier %s starts at %d, want %d", r.Tier, r.MinPoints, table[i-1].MaxPoints+1)
		}
	}
	return nil
}

func lookup(points int) (Range, int) {
	points = clamp(points)
	for i, r := range Config {
		if r.Contains(points) {
			return r, i
		}
	}
	// Unreachable with a valid table.
	return Config[len(Config)-1], len(Config) - 1
}

func clamp(points int) int {
	if points < 0 {
		return 0
	}
	return points
}
