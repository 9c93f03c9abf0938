package reviewrisk

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// KMeans partitions rows with Lloyd's algorithm and k-means++ seeding. The
// same matrix, k and seed always give the same partition.
type KMeans struct {
	MaxIterations int
	Tolerance     float64 // Stop when total squared centroid movement is at most this
	Restarts      int     // Independent runs; the lowest inertia wins
}

// NewKMeans returns a KMeans with standard settings.
func NewKMeans() KMeans {
	return KMeans{MaxIterations: 300, Tolerance: 1e-4, Restarts: 10}
}

// Partition assigns each row of m to one of k clusters.
func (km KMeans) Partition(m *mat.Dense, k int, seed int64) ([]int, *mat.Dense, error) {
	n, _ := m.Dims()
	if k < 1 || k > n {
		return nil, nil, fmt.Errorf("%w: k=%d for %d rows", ErrInvalidInput, k, n)
	}

	restarts := max(km.Restarts, 1)
	iterations := max(km.MaxIterations, 1)
	rng := rand.New(rand.NewSource(seed))

	var (
		bestAssign    []int
		bestCentroids *mat.Dense
		bestInertia   = math.Inf(1)
	)
	for r := 0; r < restarts; r++ {
		assign, centroids, inertia := km.run(m, k, iterations, rng)
		if inertia < bestInertia {
			bestAssign, bestCentroids, bestInertia = assign, centroids, inertia
		}
	}
	return bestAssign, bestCentroids, nil
}

func (km KMeans) run(data *mat.Dense, k, iterations int, rng *rand.Rand) ([]int, *mat.Dense, float64) {
	centroids := seedCentroids(data, k, rng)
	assign, _ := assignRows(data, centroids)

	for it := 0; it < iterations; it++ {
		next := centroidMeans(data, assign, centroids)
		shift := 0.0
		for c := 0; c < k; c++ {
			d := floats.Distance(centroids.RawRowView(c), next.RawRowView(c), 2)
			shift += d * d
		}
		centroids = next
		var changed bool
		assign, changed = reassign(data, centroids, assign)
		if !changed || shift <= km.Tolerance {
			break
		}
	}

	_, inertia := assignRows(data, centroids)
	return assign, centroids, inertia
}

// seedCentroids picks k initial centroids with the k-means++ rule.
func seedCentroids(data *mat.Dense, k int, rng *rand.Rand) *mat.Dense {
	n, d := data.Dims()
	centroids := mat.NewDense(k, d, nil)
	centroids.SetRow(0, data.RawRowView(rng.Intn(n)))

	nearest := make([]float64, n)
	for i := range nearest {
		nearest[i] = math.Inf(1)
	}

	for c := 1; c < k; c++ {
		total := 0.0
		prev := centroids.RawRowView(c - 1)
		for i := 0; i < n; i++ {
			dist := floats.Distance(data.RawRowView(i), prev, 2)
			nearest[i] = math.Min(nearest[i], dist*dist)
			total += nearest[i]
		}

		if total == 0 {
			centroids.SetRow(c, data.RawRowView(rng.Intn(n)))
			continue
		}

		target := rng.Float64() * total
		chosen := n - 1
		cum := 0.0
		for i, w := range nearest {
			cum += w
			if cum >= target && w > 0 {
				chosen = i
				break
			}
		}
		centroids.SetRow(c, data.RawRowView(chosen))
	}
	return centroids
}

// assignRows maps each row to its nearest centroid (lowest index on ties)
// and returns the summed squared distances.
func assignRows(data, centroids *mat.Dense) ([]int, float64) {
	n, _ := data.Dims()
	k, _ := centroids.Dims()
	assign := make([]int, n)
	inertia := 0.0
	for i := 0; i < n; i++ {
		row := data.RawRowView(i)
		best, bestDist := 0, math.Inf(1)
		for c := 0; c < k; c++ {
			d := floats.Distance(row, centroids.RawRowView(c), 2)
			if d*d < bestDist {
				best, bestDist = c, d*d
			}
		}
		assign[i] = best
		inertia += bestDist
	}
	return assign, inertia
}

func reassign(data, centroids *mat.Dense, prev []int) ([]int, bool) {
	assign, _ := assignRows(data, centroids)
	for i := range assign {
		if assign[i] != prev[i] {
			return assign, true
		}
	}
	return assign, false
}

// centroidMeans averages the rows of each cluster. A cluster that lost all
// its rows keeps its previous centroid.
func centroidMeans(data *mat.Dense, assign []int, prev *mat.Dense) *mat.Dense {
	k, d := prev.Dims()
	next := mat.NewDense(k, d, nil)
	counts := make([]int, k)
	for i, c := range assign {
		floats.Add(next.RawRowView(c), data.RawRowView(i))
		counts[c]++
	}
	for c := 0; c < k; c++ {
		if counts[c] == 0 {
			next.SetRow(c, prev.RawRowView(c))
			continue
		}
		floats.Scale(1/float64(counts[c]), next.RawRowView(c))
	}
	return next
}
