// Package scoring turns citizen background stories into sustainability
// indicators and aggregates them into per-citizen and per-area scores.
package scoring

import (
	"math"
	"sort"

	"github.com/sells-group/ambassador/internal/model"
)

// Aggregate folds a citizen's indicators into a single 1-5 score.
// Indicators without data are dropped; each remaining value is
// normalized against its own scale before averaging, so the 1-5 policy
// axis carries the same weight as the 1-4 axes. A citizen with no usable
// indicators scores a neutral 3.
func Aggregate(ind model.Indicators) int {
	metrics := []struct {
		value int
		max   int
	}{
		{ind.Awareness, 4},
		{ind.Frugalness, 4},
		{ind.Policy, 5},
		{ind.Vehicle, 4},
		{ind.Waste, 4},
	}

	var total float64
	var n int
	for _, m := range metrics {
		if m.value == model.NoData {
			continue
		}
		total += float64(m.value-1) / float64(m.max-1)
		n++
	}
	if n == 0 {
		return 3
	}

	score := 1 + int(math.Round(total/float64(n)*4))
	if score < 1 {
		score = 1
	}
	if score > 5 {
		score = 5
	}
	return score
}

// AreaStats summarizes the scored citizens living in one area.
type AreaStats struct {
	AreaID    model.AreaID `json:"area_id"`
	Count     int          `json:"count"`
	MeanScore float64      `json:"avg_score"`
}

// DistributionByArea groups scored citizens by home area and orders the
// result by ascending mean score, so the least-engaged areas come first
// for targeting.
func DistributionByArea(scored []model.ScoredCitizen) []AreaStats {
	type acc struct {
		count int
		sum   int
	}
	byArea := make(map[model.AreaID]*acc)
	for _, sc := range scored {
		a := byArea[sc.HomeAreaID]
		if a == nil {
			a = &acc{}
			byArea[sc.HomeAreaID] = a
		}
		a.count++
		a.sum += sc.Score
	}

	out := make([]AreaStats, 0, len(byArea))
	for id, a := range byArea {
		mean := float64(a.sum) / float64(a.count)
		out = append(out, AreaStats{
			AreaID:    id,
			Count:     a.count,
			MeanScore: math.Round(mean*100) / 100,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].MeanScore != out[j].MeanScore {
			return out[i].MeanScore < out[j].MeanScore
		}
		return out[i].AreaID < out[j].AreaID
	})
	return out
}

// CountsByArea seeds the geographic distribution before any survey has
// run: per-area citizen counts with no mean, most populated areas first.
func CountsByArea(citizens []model.Citizen) []AreaStats {
	counts := make(map[model.AreaID]int)
	for _, c := range citizens {
		counts[c.HomeAreaID]++
	}

	out := make([]AreaStats, 0, len(counts))
	for id, n := range counts {
		out = append(out, AreaStats{AreaID: id, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].AreaID < out[j].AreaID
	})
	return out
}

// AverageScore is the population-wide mean, 0 when nobody was scored.
func AverageScore(scored []model.ScoredCitizen) float64 {
	if len(scored) == 0 {
		return 0
	}
	var sum int
	for _, sc := range scored {
		sum += sc.Score
	}
	return float64(sum) / float64(len(scored))
}
