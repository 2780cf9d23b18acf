package rfm

import (
	"errors"
	"testing"

	"rfm-segmentation/internal/models"
)

func TestElbow_NonIncreasingOnThreeBlobs(t *testing.T) {
	points := Standardize(blobs(5, threeCenters, 15, 40))

	curve, err := Elbow(points, DefaultElbowMinK, DefaultElbowMaxK, ClusterOptions{Seed: 42}, nil)
	if err != nil {
		t.Fatalf("Elbow() error = %v", err)
	}

	if len(curve) != DefaultElbowMaxK-DefaultElbowMinK+1 {
		t.Fatalf("expected %d points, got %d", DefaultElbowMaxK-DefaultElbowMinK+1, len(curve))
	}
	for i, p := range curve {
		if p.K != DefaultElbowMinK+i {
			t.Errorf("curve[%d].K = %d, want %d", i, p.K, DefaultElbowMinK+i)
		}
		if i > 0 && p.Inertia > curve[i-1].Inertia {
			t.Errorf("inertia rose from k=%d (%g) to k=%d (%g)",
				curve[i-1].K, curve[i-1].Inertia, p.K, p.Inertia)
		}
	}

	// The drop into three clusters should dominate the drop after it.
	drop23 := curve[0].Inertia - curve[1].Inertia
	drop34 := curve[1].Inertia - curve[2].Inertia
	if drop23 <= drop34 {
		t.Errorf("expected an elbow at k=3: drop 2->3 = %g, drop 3->4 = %g", drop23, drop34)
	}
}

func TestElbow_Reproducible(t *testing.T) {
	points := Standardize(blobs(8, threeCenters, 60, 15))

	first, err := Elbow(points, 2, 6, ClusterOptions{Seed: 3}, nil)
	if err != nil {
		t.Fatalf("Elbow() error = %v", err)
	}
	second, err := Elbow(points, 2, 6, ClusterOptions{Seed: 3}, nil)
	if err != nil {
		t.Fatalf("Elbow() error = %v", err)
	}

	for i := range first {
		if first[i] != second[i] {
			t.Errorf("k=%d: %g vs %g", first[i].K, first[i].Inertia, second[i].Inertia)
		}
	}
}

func TestElbow_Progress(t *testing.T) {
	points := Standardize(blobs(2, threeCenters, 10, 5))

	var seen []int
	_, err := Elbow(points, 2, 5, ClusterOptions{Seed: 42}, func(p models.ElbowPoint) {
		seen = append(seen, p.K)
	})
	if err != nil {
		t.Fatalf("Elbow() error = %v", err)
	}

	if len(seen) != 4 || seen[0] != 2 || seen[3] != 5 {
		t.Errorf("progress calls = %v, want [2 3 4 5]", seen)
	}
}

func TestElbow_InvalidRange(t *testing.T) {
	points := Standardize(blobs(2, threeCenters, 10, 2))

	tests := []struct {
		name       string
		minK, maxK int
		column     string
	}{
		{"min zero", 0, 3, "elbow_range"},
		{"max below min", 4, 3, "elbow_range"},
		{"more clusters than points", 2, 7, "elbow_max_k"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Elbow(points, tt.minK, tt.maxK, ClusterOptions{}, nil)

			var ive *InvalidValueError
			if !errors.As(err, &ive) {
				t.Fatalf("expected InvalidValueError, got %v", err)
			}
			if ive.Column != tt.column {
				t.Errorf("column = %q, want %q", ive.Column, tt.column)
			}
		})
	}
}
