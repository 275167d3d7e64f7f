package workload

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{in: "Series GSE1: tumor rna", want: []string{"series", "gse1", "tumor", "rna"}},
		{in: "fetchGeoMetadata", want: []string{"fetch", "geo", "metadata"}},
		{in: "a, b; single-cell", want: []string{"single", "cell"}},
		{in: "", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, tokenize(tt.in))
		})
	}
}

func TestVectorize_NormalisedRows(t *testing.T) {
	docs := []string{
		"tumor expression rna",
		"tumor tumor brain",
		"",
	}

	m := Vectorize(docs, 64)
	require.Equal(t, 3, m.Rows())

	for i, row := range m[:2] {
		assert.Len(t, row, 64)
		assert.InDelta(t, 1.0, norm(row), 1e-9, "row %d", i)
	}
	assert.Zero(t, norm(m[2]), "empty documents stay zero")
}

func TestVectorize_DefaultDimensions(t *testing.T) {
	m := Vectorize([]string{"rna"}, 0)
	assert.Len(t, m[0], DefaultDimensions)
}

func TestVectorize_RareTermsWeighMore(t *testing.T) {
	docs := []string{"common rare", "common", "common"}
	m := Vectorize(docs, 1024)

	common := bucket("common", 1024)
	rare := bucket("rare", 1024)
	require.NotEqual(t, common, rare)

	assert.Greater(t, m[0][rare], m[0][common])
}

func TestCluster_SeparatesGroups(t *testing.T) {
	m := Matrix{
		{0, 0}, {0.1, 0}, {0, 0.1},
		{10, 10}, {10.1, 10}, {10, 10.1},
	}

	labels, err := Cluster(m, 2)
	require.NoError(t, err)
	require.Len(t, labels, 6)

	assert.Equal(t, labels[0], labels[1])
	assert.Equal(t, labels[0], labels[2])
	assert.Equal(t, labels[3], labels[4])
	assert.Equal(t, labels[3], labels[5])
	assert.NotEqual(t, labels[0], labels[3])
}

func TestCluster_ClampsToSamples(t *testing.T) {
	m := Matrix{{0, 1}, {1, 0}}

	labels, err := Cluster(m, 3)
	require.NoError(t, err)

	assert.ElementsMatch(t, []int{0, 1}, labels)
}

func TestCluster_EdgeCases(t *testing.T) {
	labels, err := Cluster(Matrix{}, 3)
	require.NoError(t, err)
	assert.Empty(t, labels)

	_, err = Cluster(Matrix{{1}}, 0)
	assert.Error(t, err)
}

func TestClusterCount(t *testing.T) {
	assert.Equal(t, 3, ClusterCount(10, 3))
	assert.Equal(t, 2, ClusterCount(2, 3))
	assert.Equal(t, 0, ClusterCount(0, 3))
}

func norm(v []float64) float64 {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	return math.Sqrt(sum)
}
