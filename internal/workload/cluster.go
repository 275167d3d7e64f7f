package workload

import (
	"fmt"
	"math"
)

const maxIterations = 100

// ClusterCount clamps the wanted number of clusters to the number of samples.
func ClusterCount(samples, want int) int {
	if samples < want {
		return samples
	}
	return want
}

// Cluster assigns every row of m to one of k clusters using Lloyd's
// algorithm. Initial centroids are picked farthest-first starting from the
// first row, so the labelling is deterministic.
func Cluster(m Matrix, k int) ([]int, error) {
	if k <= 0 {
		return nil, fmt.Errorf("cluster count must be positive, got %d", k)
	}
	if len(m) == 0 {
		return []int{}, nil
	}
	k = ClusterCount(len(m), k)

	centroids := seedCentroids(m, k)
	labels := make([]int, len(m))
	for i := range labels {
		labels[i] = -1
	}

	for iter := 0; iter < maxIterations; iter++ {
		changed := false
		for i, row := range m {
			if c := nearest(row, centroids); c != labels[i] {
				labels[i] = c
				changed = true
			}
		}
		if !changed {
			break
		}
		centroids = recompute(m, labels, centroids)
	}
	return labels, nil
}

func seedCentroids(m Matrix, k int) [][]float64 {
	centroids := [][]float64{clone(m[0])}
	for len(centroids) < k {
		far, farDist := 0, -1.0
		for i, row := range m {
			if d := distance(row, centroids[nearest(row, centroids)]); d > farDist {
				far, farDist = i, d
			}
		}
		centroids = append(centroids, clone(m[far]))
	}
	return centroids
}

// recompute moves every centroid to the mean of its members. Empty clusters
// keep their previous centroid.
func recompute(m Matrix, labels []int, prev [][]float64) [][]float64 {
	sums := make([][]float64, len(prev))
	counts := make([]int, len(prev))
	for i, row := range m {
		c := labels[i]
		if sums[c] == nil {
			sums[c] = make([]float64, len(row))
		}
		for j, v := range row {
			sums[c][j] += v
		}
		counts[c]++
	}

	next := make([][]float64, len(prev))
	for c := range prev {
		if counts[c] == 0 {
			next[c] = prev[c]
			continue
		}
		for j := range sums[c] {
			sums[c][j] /= float64(counts[c])
		}
		next[c] = sums[c]
	}
	return next
}

func nearest(row []float64, centroids [][]float64) int {
	best, bestDist := 0, math.Inf(1)
	for c, centroid := range centroids {
		if d := distance(row, centroid); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

// distance is the squared euclidean distance.
func distance(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

func clone(v []float64) []float64 {
	return append([]float64(nil), v...)
}
