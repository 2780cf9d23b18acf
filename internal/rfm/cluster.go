package rfm

import (
	"fmt"
	"math"
	"math/rand/v2"
	"slices"
	"strconv"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"rfm-segmentation/internal/models"
)

const (
	DefaultClusterCount = 5
	DefaultSeed         = 42
	DefaultMaxIter      = 300
	DefaultNInit        = 10
)

// ClusterOptions configures one k-means run. Zero fields take the defaults.
type ClusterOptions struct {
	K       int
	Seed    uint64
	MaxIter int
	NInit   int
}

func (o ClusterOptions) withDefaults() ClusterOptions {
	if o.K == 0 {
		o.K = DefaultClusterCount
	}
	if o.MaxIter <= 0 {
		o.MaxIter = DefaultMaxIter
	}
	if o.NInit <= 0 {
		o.NInit = DefaultNInit
	}
	return o
}

// Clustering is the outcome of k-means over a set of points.
//
// Labels are only meaningful within one result: the same partition can come
// back with permuted ids when K or the seed changes.
type Clustering struct {
	K          int
	Labels     []int
	Centroids  [][]float64
	Inertia    float64
	Iterations int
	Converged  bool
	Warning    *ConvergenceWarning
}

// Features returns one [Recency, Frequency, Monetary] row per customer.
func Features(customers []models.CustomerRFM) [][]float64 {
	points := make([][]float64, len(customers))
	for i, c := range customers {
		points[i] = []float64{
			float64(c.Recency),
			float64(c.Frequency),
			c.Monetary.InexactFloat64(),
		}
	}
	return points
}

// Standardize returns z-scores of every column using the mean and
// population standard deviation of the given points. Constant columns are
// centered but not scaled.
func Standardize(points [][]float64) [][]float64 {
	out := make([][]float64, len(points))
	for i := range points {
		out[i] = make([]float64, len(points[i]))
	}
	if len(points) == 0 {
		return out
	}

	col := make([]float64, len(points))
	for j := range points[0] {
		for i, p := range points {
			col[i] = p[j]
		}
		mean, variance := stat.PopMeanVariance(col, nil)
		std := math.Sqrt(variance)
		if std == 0 {
			std = 1
		}
		for i, p := range points {
			out[i][j] = (p[j] - mean) / std
		}
	}
	return out
}

// Cluster standardizes the customers' raw metrics, runs k-means and stores
// the resulting label on each customer.
func Cluster(customers []models.CustomerRFM, opts ClusterOptions) (*Clustering, error) {
	result, err := KMeans(Standardize(Features(customers)), opts)
	if err != nil {
		return nil, err
	}
	for i := range customers {
		label := result.Labels[i]
		customers[i].ClusterLabel = &label
	}
	return result, nil
}

// KMeans runs Lloyd's algorithm NInit times from k-means++ seeds drawn from a
// single PCG source seeded with opts.Seed and keeps the lowest inertia.
// The same points and options always produce the same labels.
func KMeans(points [][]float64, opts ClusterOptions) (*Clustering, error) {
	return kmeans(points, opts.withDefaults(), nil)
}

func kmeans(points [][]float64, opts ClusterOptions, warm [][]float64) (*Clustering, error) {
	if opts.K < 1 || opts.K > len(points) {
		return nil, &InvalidValueError{
			Row:    -1,
			Column: "cluster_count",
			Value:  strconv.Itoa(opts.K),
			Reason: fmt.Sprintf("must be between 1 and the number of customers (%d)", len(points)),
		}
	}

	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed))

	var best *Clustering
	for range opts.NInit {
		c := lloyd(points, plusPlus(points, opts.K, rng), opts.MaxIter)
		if best == nil || c.Inertia < best.Inertia {
			best = c
		}
	}
	if warm != nil {
		if c := lloyd(points, warm, opts.MaxIter); c.Inertia < best.Inertia {
			best = c
		}
	}

	best.K = opts.K
	if !best.Converged {
		best.Warning = &ConvergenceWarning{K: opts.K, Iterations: best.Iterations}
	}
	return best, nil
}

// plusPlus picks k initial centroids, each next one with probability
// proportional to its squared distance from the nearest centroid so far.
func plusPlus(points [][]float64, k int, rng *rand.Rand) [][]float64 {
	n := len(points)
	centroids := make([][]float64, 0, k)
	centroids = append(centroids, slices.Clone(points[rng.IntN(n)]))

	nearest := make([]float64, n)
	for i, p := range points {
		nearest[i] = sqDist(p, centroids[0])
	}

	for len(centroids) < k {
		next := rng.IntN(n)
		if total := floats.Sum(nearest); total > 0 {
			target := rng.Float64() * total
			acc := 0.0
			for i, d := range nearest {
				if d == 0 {
					continue
				}
				next = i
				acc += d
				if acc > target {
					break
				}
			}
		}

		c := slices.Clone(points[next])
		centroids = append(centroids, c)
		for i, p := range points {
			if d := sqDist(p, c); d < nearest[i] {
				nearest[i] = d
			}
		}
	}
	return centroids
}

func lloyd(points [][]float64, centroids [][]float64, maxIter int) *Clustering {
	labels := assign(points, centroids)
	iterations := 0
	converged := false

	for iterations < maxIter {
		iterations++
		recenter(points, labels, centroids)
		next := assign(points, centroids)
		if slices.Equal(next, labels) {
			converged = true
			break
		}
		labels = next
	}

	return &Clustering{
		K:          len(centroids),
		Labels:     labels,
		Centroids:  centroids,
		Inertia:    inertia(points, labels, centroids),
		Iterations: iterations,
		Converged:  converged,
	}
}

// assign maps each point to its nearest centroid; ties go to the lower index.
func assign(points [][]float64, centroids [][]float64) []int {
	labels := make([]int, len(points))
	for i, p := range points {
		best := math.Inf(1)
		for c, centroid := range centroids {
			if d := sqDist(p, centroid); d < best {
				best = d
				labels[i] = c
			}
		}
	}
	return labels
}

// recenter moves every centroid to the mean of its points. A centroid left
// without points jumps to the point currently farthest from its own centroid.
func recenter(points [][]float64, labels []int, centroids [][]float64) {
	k := len(centroids)
	dim := len(points[0])

	sums := make([][]float64, k)
	for c := range sums {
		sums[c] = make([]float64, dim)
	}
	counts := make([]int, k)
	for i, p := range points {
		floats.Add(sums[labels[i]], p)
		counts[labels[i]]++
	}

	var empty []int
	for c := range centroids {
		if counts[c] == 0 {
			empty = append(empty, c)
			continue
		}
		floats.Scale(1/float64(counts[c]), sums[c])
		centroids[c] = sums[c]
	}
	if len(empty) == 0 {
		return
	}

	taken := make(map[int]bool, len(empty))
	for _, c := range empty {
		far, farDist := -1, -1.0
		for i, p := range points {
			if taken[i] {
				continue
			}
			if d := sqDist(p, centroids[labels[i]]); d > farDist {
				far, farDist = i, d
			}
		}
		if far < 0 {
			continue
		}
		taken[far] = true
		centroids[c] = slices.Clone(points[far])
	}
}

func inertia(points [][]float64, labels []int, centroids [][]float64) float64 {
	total := 0.0
	for i, p := range points {
		total += sqDist(p, centroids[labels[i]])
	}
	return total
}

func sqDist(a, b []float64) float64 {
	d := floats.Distance(a, b, 2)
	return d * d
}
