package rfm

import (
	"fmt"
	"slices"
	"strconv"

	"rfm-segmentation/internal/models"
)

const (
	DefaultElbowMinK = 2
	DefaultElbowMaxK = 9
)

// Elbow clusters the points for every K in [minK, maxK] and reports the
// inertia of each run. Choosing K from the curve is left to the analyst.
//
// Besides its own k-means++ restarts, each K after the first also starts
// once from the previous K's centroids plus the point that fit them worst,
// so the reported curve never increases with K. progress, when set, is
// called after each K.
func Elbow(points [][]float64, minK, maxK int, opts ClusterOptions, progress func(models.ElbowPoint)) ([]models.ElbowPoint, error) {
	if minK < 1 || maxK < minK {
		return nil, &InvalidValueError{
			Row:    -1,
			Column: "elbow_range",
			Value:  fmt.Sprintf("%d..%d", minK, maxK),
			Reason: "expected 1 <= min <= max",
		}
	}
	if maxK > len(points) {
		return nil, &InvalidValueError{
			Row:    -1,
			Column: "elbow_max_k",
			Value:  strconv.Itoa(maxK),
			Reason: fmt.Sprintf("exceeds the number of customers (%d)", len(points)),
		}
	}

	opts = opts.withDefaults()
	curve := make([]models.ElbowPoint, 0, maxK-minK+1)

	var prev *Clustering
	for k := minK; k <= maxK; k++ {
		opts.K = k

		var warm [][]float64
		if prev != nil {
			warm = append(slices.Clone(prev.Centroids), slices.Clone(points[worstFit(points, prev)]))
		}

		c, err := kmeans(points, opts, warm)
		if err != nil {
			return nil, fmt.Errorf("elbow k=%d: %w", k, err)
		}

		point := models.ElbowPoint{K: k, Inertia: c.Inertia}
		curve = append(curve, point)
		if progress != nil {
			progress(point)
		}
		prev = c
	}
	return curve, nil
}

// StandardizedElbow runs Elbow over the standardized customer metrics.
func StandardizedElbow(customers []models.CustomerRFM, minK, maxK int, opts ClusterOptions, progress func(models.ElbowPoint)) ([]models.ElbowPoint, error) {
	return Elbow(Standardize(Features(customers)), minK, maxK, opts, progress)
}

func worstFit(points [][]float64, c *Clustering) int {
	worst, worstDist := 0, -1.0
	for i, p := range points {
		if d := sqDist(p, c.Centroids[c.Labels[i]]); d > worstDist {
			worst, worstDist = i, d
		}
	}
	return worst
}
