package workload

import (
	"math"
	"strings"
	"unicode"

	"github.com/zeebo/xxh3"
)

// DefaultDimensions is the width of a vector built by Vectorize.
const DefaultDimensions = 256

// Matrix holds one vector per document.
type Matrix [][]float64

// Rows returns the number of vectors.
func (m Matrix) Rows() int {
	return len(m)
}

// Vectorize builds L2-normalised TF-IDF vectors. Terms are hashed into dims
// buckets with xxh3 instead of keeping a vocabulary, and idf is smoothed as
// ln((1+n)/(1+df)) + 1.
func Vectorize(docs []string, dims int) Matrix {
	if dims <= 0 {
		dims = DefaultDimensions
	}

	counts := make([]map[int]float64, len(docs))
	df := make(map[int]int)
	for i, doc := range docs {
		tf := make(map[int]float64)
		for _, token := range tokenize(doc) {
			tf[bucket(token, dims)]++
		}
		for b := range tf {
			df[b]++
		}
		counts[i] = tf
	}

	n := float64(len(docs))
	m := make(Matrix, len(docs))
	for i, tf := range counts {
		row := make([]float64, dims)
		for b, c := range tf {
			row[b] = c * (math.Log((1+n)/(1+float64(df[b]))) + 1)
		}
		normalize(row)
		m[i] = row
	}
	return m
}

func bucket(token string, dims int) int {
	return int(xxh3.HashString(token) % uint64(dims))
}

// tokenize splits text on anything that is not a letter or digit, breaks
// camelCase words apart and lowercases the result. Single characters are
// dropped.
func tokenize(text string) []string {
	parts := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	var tokens []string
	for _, part := range parts {
		for _, word := range splitCamelCase(part) {
			if len(word) > 1 {
				tokens = append(tokens, word)
			}
		}
	}
	return tokens
}

// splitCamelCase splits "fetchGeoMetadata" into "fetch", "geo", "metadata".
func splitCamelCase(s string) []string {
	var words []string
	last := 0
	for i := 1; i < len(s); i++ {
		if s[i] >= 'A' && s[i] <= 'Z' && s[i-1] >= 'a' && s[i-1] <= 'z' {
			words = append(words, strings.ToLower(s[last:i]))
			last = i
		}
	}
	if last < len(s) {
		words = append(words, strings.ToLower(s[last:]))
	}
	return words
}

func normalize(vec []float64) {
	var sum float64
	for _, v := range vec {
		sum += v * v
	}
	if sum == 0 {
		return
	}

	scale := 1 / math.Sqrt(sum)
	for i := range vec {
		vec[i] *= scale
	}
}
