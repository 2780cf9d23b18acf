package report

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"rfm-segmentation/internal/models"
	"rfm-segmentation/internal/rfm"
)

var interpretation = []string{
	"Champions are highly valuable customers with the best recency, frequency and spending.",
	"Big Spenders contribute significant revenue even if they do not purchase often.",
	"Hibernating customers need reactivation strategies.",
	"At Risk customers require targeted retention offers.",
}

// Insights renders the markdown summary of a labeled customer table.
func Insights(customers []models.CustomerRFM) string {
	segments := rfm.SegmentSummaries(customers)

	byCount := slices.Clone(segments)
	slices.SortStableFunc(byCount, func(a, b models.SegmentSummary) int {
		return cmp.Compare(b.Customers, a.Customers)
	})

	var b strings.Builder
	b.WriteString("# RFM Segmentation Insights\n\n")
	fmt.Fprintf(&b, "**Total Customers Analyzed:** %d\n\n", len(customers))

	b.WriteString("## Customer Count by Segment\n\n")
	b.WriteString("| Segment | Customers | Share |\n|---|---:|---:|\n")
	for _, s := range byCount {
		fmt.Fprintf(&b, "| %s | %d | %.1f%% |\n", s.Segment, s.Customers, s.Share*100)
	}

	b.WriteString("\n## Revenue Contribution by Segment\n\n")
	b.WriteString("| Segment | Revenue |\n|---|---:|\n")
	for _, s := range segments {
		fmt.Fprintf(&b, "| %s | %s |\n", s.Segment, s.Revenue.StringFixed(2))
	}

	if clusters := rfm.ClusterSummaries(customers); len(clusters) > 0 {
		b.WriteString("\n## K-Means Clusters\n\n")
		b.WriteString("| Cluster | Customers | Mean Recency | Mean Frequency | Mean Monetary |\n|---:|---:|---:|---:|---:|\n")
		for _, c := range clusters {
			fmt.Fprintf(&b, "| %d | %d | %.1f | %.1f | %.2f |\n",
				c.Label, c.Customers, c.MeanRecency, c.MeanFrequency, c.MeanMonetary)
		}
	}

	b.WriteString("\n## Interpretation\n\n")
	for _, line := range interpretation {
		fmt.Fprintf(&b, "- %s\n", line)
	}

	return b.String()
}
