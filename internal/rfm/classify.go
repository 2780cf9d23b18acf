package rfm

import "rfm-segmentation/internal/models"

// Scores holds one customer's R, F and M tiers.
type Scores struct {
	R, F, M int
}

type rule struct {
	segment models.Segment
	match   func(s Scores) bool
}

// rules are evaluated top-down and the first match wins. Guards overlap, so
// the order is part of the classification.
var rules = []rule{
	{models.SegmentChampions, func(s Scores) bool { return s.R >= 4 && s.F >= 4 && s.M >= 4 }},
	{models.SegmentLoyal, func(s Scores) bool { return s.F >= 4 }},
	{models.SegmentBigSpenders, func(s Scores) bool { return s.M >= 4 }},
	{models.SegmentNew, func(s Scores) bool { return s.R == 5 && s.F <= 2 }},
	{models.SegmentPromising, func(s Scores) bool { return s.R >= 4 }},
	{models.SegmentAtRisk, func(s Scores) bool { return s.R <= 2 && (s.F >= 3 || s.M >= 3) }},
	{models.SegmentHibernating, func(s Scores) bool { return s.R <= 2 && s.F <= 2 }},
}

// Classify returns the segment for one set of scores. A score outside 1..5
// fails with *DomainError.
func Classify(s Scores) (models.Segment, error) {
	if err := s.check(); err != nil {
		return "", err
	}
	for _, r := range rules {
		if r.match(s) {
			return r.segment, nil
		}
	}
	return models.SegmentOthers, nil
}

// ClassifyAll sets Segment on every customer. Scores are checked for all
// customers before any of them is labeled.
func ClassifyAll(customers []models.CustomerRFM) error {
	for _, c := range customers {
		if err := scoresOf(c).check(); err != nil {
			err.CustomerID = c.CustomerID
			return err
		}
	}
	for i := range customers {
		segment, err := Classify(scoresOf(customers[i]))
		if err != nil {
			return err
		}
		customers[i].Segment = segment
	}
	return nil
}

func scoresOf(c models.CustomerRFM) Scores {
	return Scores{R: c.RScore, F: c.FScore, M: c.MScore}
}

func (s Scores) check() *DomainError {
	for _, v := range []struct {
		name  string
		value int
	}{
		{"R_score", s.R},
		{"F_score", s.F},
		{"M_score", s.M},
	} {
		if v.value < 1 || v.value > tierCount {
			return &DomainError{Score: v.name, Value: v.value}
		}
	}
	return nil
}
