package rfm

import (
	"errors"
	"testing"

	"rfm-segmentation/internal/models"
)

func TestClassify_RulePrecedence(t *testing.T) {
	tests := []struct {
		name   string
		scores Scores
		want   models.Segment
	}{
		{"all top", Scores{5, 5, 5}, models.SegmentChampions},
		{"champion floor", Scores{4, 4, 4}, models.SegmentChampions},
		{"frequent but low spend beats champions and new", Scores{5, 5, 1}, models.SegmentLoyal},
		{"frequent with mid spend", Scores{4, 4, 3}, models.SegmentLoyal},
		{"frequent but lapsed", Scores{1, 4, 1}, models.SegmentLoyal},
		{"big spender mid frequency", Scores{5, 3, 4}, models.SegmentBigSpenders},
		{"big spender lapsed", Scores{1, 1, 5}, models.SegmentBigSpenders},
		{"new single purchase", Scores{5, 1, 1}, models.SegmentNew},
		{"new with mid spend", Scores{5, 2, 3}, models.SegmentNew},
		{"recent mid frequency", Scores{5, 3, 3}, models.SegmentPromising},
		{"recent tier four low frequency", Scores{4, 1, 1}, models.SegmentPromising},
		{"lapsed with mid frequency", Scores{2, 3, 1}, models.SegmentAtRisk},
		{"lapsed with mid spend", Scores{1, 1, 3}, models.SegmentAtRisk},
		{"all bottom", Scores{1, 1, 1}, models.SegmentHibernating},
		{"lapsed low", Scores{2, 2, 2}, models.SegmentHibernating},
		{"middle of the road", Scores{3, 3, 3}, models.SegmentOthers},
		{"middle recency low activity", Scores{3, 1, 1}, models.SegmentOthers},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Classify(tt.scores)
			if err != nil {
				t.Fatalf("Classify(%+v) error = %v", tt.scores, err)
			}
			if got != tt.want {
				t.Errorf("Classify(%+v) = %q, want %q", tt.scores, got, tt.want)
			}
		})
	}
}

func TestClassify_TotalOverAllScores(t *testing.T) {
	seen := make(map[models.Segment]int)
	for r := 1; r <= 5; r++ {
		for f := 1; f <= 5; f++ {
			for m := 1; m <= 5; m++ {
				got, err := Classify(Scores{r, f, m})
				if err != nil {
					t.Fatalf("Classify(%d,%d,%d) error = %v", r, f, m, err)
				}
				if !got.Valid() {
					t.Errorf("Classify(%d,%d,%d) = %q, not a known segment", r, f, m, got)
				}
				seen[got]++
			}
		}
	}

	total := 0
	for _, n := range seen {
		total += n
	}
	if total != 125 {
		t.Errorf("classified %d score combinations, want 125", total)
	}
	for _, seg := range models.Segments {
		if seen[seg] == 0 {
			t.Errorf("segment %q is unreachable", seg)
		}
	}
}

func TestClassify_OutOfRange(t *testing.T) {
	tests := []struct {
		scores Scores
		score  string
		value  int
	}{
		{Scores{0, 3, 3}, "R_score", 0},
		{Scores{3, 6, 3}, "F_score", 6},
		{Scores{3, 3, -1}, "M_score", -1},
	}

	for _, tt := range tests {
		t.Run(tt.score, func(t *testing.T) {
			_, err := Classify(tt.scores)

			var de *DomainError
			if !errors.As(err, &de) {
				t.Fatalf("expected DomainError, got %v", err)
			}
			if de.Score != tt.score || de.Value != tt.value {
				t.Errorf("DomainError = %+v, want %s=%d", de, tt.score, tt.value)
			}
		})
	}
}

func TestClassifyAll(t *testing.T) {
	customers := []models.CustomerRFM{
		{CustomerID: "a", RScore: 5, FScore: 5, MScore: 5},
		{CustomerID: "b", RScore: 1, FScore: 1, MScore: 1},
		{CustomerID: "c", RScore: 5, FScore: 5, MScore: 1},
	}

	if err := ClassifyAll(customers); err != nil {
		t.Fatalf("ClassifyAll() error = %v", err)
	}

	want := []models.Segment{models.SegmentChampions, models.SegmentHibernating, models.SegmentLoyal}
	for i, c := range customers {
		if c.Segment != want[i] {
			t.Errorf("%s: Segment = %q, want %q", c.CustomerID, c.Segment, want[i])
		}
	}
}

func TestClassifyAll_DomainErrorLabelsNothing(t *testing.T) {
	customers := []models.CustomerRFM{
		{CustomerID: "ok", RScore: 5, FScore: 5, MScore: 5},
		{CustomerID: "unscored"},
	}

	err := ClassifyAll(customers)

	var de *DomainError
	if !errors.As(err, &de) {
		t.Fatalf("expected DomainError, got %v", err)
	}
	if de.CustomerID != "unscored" {
		t.Errorf("CustomerID = %q, want unscored", de.CustomerID)
	}
	for _, c := range customers {
		if c.Segment != "" {
			t.Errorf("%s: labeled %q despite failure", c.CustomerID, c.Segment)
		}
	}
}
