package rfm

import (
	"cmp"
	"fmt"
	"slices"

	"rfm-segmentation/internal/models"
)

const tierCount = 5

// metric describes how one raw RFM column is ranked and where its tier lands.
type metric struct {
	name     string
	compare  func(a, b *models.CustomerRFM) int
	inverted bool
	set      func(c *models.CustomerRFM, tier int)
}

var scoredMetrics = []metric{
	{
		name:     "Recency",
		compare:  func(a, b *models.CustomerRFM) int { return cmp.Compare(a.Recency, b.Recency) },
		inverted: true,
		set:      func(c *models.CustomerRFM, tier int) { c.RScore = tier },
	},
	{
		name:    "Frequency",
		compare: func(a, b *models.CustomerRFM) int { return cmp.Compare(a.Frequency, b.Frequency) },
		set:     func(c *models.CustomerRFM, tier int) { c.FScore = tier },
	},
	{
		name:    "Monetary",
		compare: func(a, b *models.CustomerRFM) int { return a.Monetary.Cmp(b.Monetary) },
		set:     func(c *models.CustomerRFM, tier int) { c.MScore = tier },
	},
}

// Score assigns R, F and M tiers by equal-population binning and fills
// RFMScore.
//
// Customers are ranked by the raw value; equal values keep their position in
// the input slice, so tied customers may land in adjacent tiers. Rank i of n
// goes to bin i*5/n, which keeps tier sizes within one of each other.
// Frequency and Monetary map the lowest bin to tier 1; Recency is inverted so
// the most recent buyers get tier 5.
//
// A metric with fewer than five distinct values fails with *BinningError and
// leaves every customer untouched.
func Score(customers []models.CustomerRFM) error {
	tiers := make([][]int, len(scoredMetrics))
	for i, m := range scoredMetrics {
		t, err := quantileTiers(customers, m)
		if err != nil {
			return err
		}
		tiers[i] = t
	}

	for j := range customers {
		for i, m := range scoredMetrics {
			m.set(&customers[j], tiers[i][j])
		}
		customers[j].RFMScore = fmt.Sprintf("%d%d%d", customers[j].RScore, customers[j].FScore, customers[j].MScore)
	}
	return nil
}

func quantileTiers(customers []models.CustomerRFM, m metric) ([]int, error) {
	n := len(customers)

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return m.compare(&customers[a], &customers[b])
	})

	distinct := 0
	for pos, idx := range order {
		if pos == 0 || m.compare(&customers[order[pos-1]], &customers[idx]) != 0 {
			distinct++
		}
	}
	if distinct < tierCount {
		return nil, &BinningError{Metric: m.name, Distinct: distinct, Customers: n}
	}

	tiers := make([]int, n)
	for pos, idx := range order {
		bin := pos * tierCount / n
		if m.inverted {
			tiers[idx] = tierCount - bin
		} else {
			tiers[idx] = bin + 1
		}
	}
	return tiers, nil
}
