package rfm

import (
	"cmp"
	"slices"

	"github.com/shopspring/decimal"

	"rfm-segmentation/internal/models"
)

// SegmentSummaries counts customers and revenue per segment, largest
// revenue first. Segments without customers are omitted.
func SegmentSummaries(customers []models.CustomerRFM) []models.SegmentSummary {
	groups := make(map[models.Segment]*models.SegmentSummary)
	for _, c := range customers {
		s := groups[c.Segment]
		if s == nil {
			s = &models.SegmentSummary{Segment: c.Segment}
			groups[c.Segment] = s
		}
		s.Customers++
		s.Revenue = s.Revenue.Add(c.Monetary)
	}

	result := make([]models.SegmentSummary, 0, len(groups))
	for _, seg := range models.Segments {
		if s, ok := groups[seg]; ok {
			s.Share = float64(s.Customers) / float64(len(customers))
			result = append(result, *s)
		}
	}
	slices.SortStableFunc(result, func(a, b models.SegmentSummary) int {
		return b.Revenue.Cmp(a.Revenue)
	})
	return result
}

// ClusterSummaries reports size, revenue and raw metric means per cluster
// label, ordered by label. Customers without a label are skipped.
func ClusterSummaries(customers []models.CustomerRFM) []models.ClusterSummary {
	groups := make(map[int]*models.ClusterSummary)
	for _, c := range customers {
		if c.ClusterLabel == nil {
			continue
		}
		s := groups[*c.ClusterLabel]
		if s == nil {
			s = &models.ClusterSummary{Label: *c.ClusterLabel, Revenue: decimal.Zero}
			groups[*c.ClusterLabel] = s
		}
		s.Customers++
		s.MeanRecency += float64(c.Recency)
		s.MeanFrequency += float64(c.Frequency)
		s.MeanMonetary += c.Monetary.InexactFloat64()
		s.Revenue = s.Revenue.Add(c.Monetary)
	}

	result := make([]models.ClusterSummary, 0, len(groups))
	for _, s := range groups {
		n := float64(s.Customers)
		s.MeanRecency /= n
		s.MeanFrequency /= n
		s.MeanMonetary /= n
		result = append(result, *s)
	}
	slices.SortFunc(result, func(a, b models.ClusterSummary) int {
		return cmp.Compare(a.Label, b.Label)
	})
	return result
}
