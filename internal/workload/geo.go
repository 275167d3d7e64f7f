package workload

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/zeebo/xxh3"
)

var (
	// ErrInvalidID is returned for blank record ids.
	ErrInvalidID = errors.New("invalid record id")
	// ErrUnavailable is the transient failure injected by Geo.
	ErrUnavailable = errors.New("record service unavailable")
)

const (
	maxLinks      = 3
	metadataWords = 24
)

var vocabulary = []string{
	"tumor", "expression", "rna", "sequencing", "mouse", "human",
	"liver", "brain", "immune", "cell", "single", "methylation",
	"chromatin", "microarray", "knockout", "stem", "cancer", "response",
	"drug", "profiling", "tissue", "development", "signaling", "protein",
}

// Geo simulates the remote record service. Responses are derived from the
// requested id so that repeated runs see the same data.
type Geo struct {
	latency   time.Duration
	failEvery int64
	requests  atomic.Int64
}

// NewGeo creates a service that waits latency before every response.
// When failEvery is positive every failEvery-th request fails with
// ErrUnavailable.
func NewGeo(latency time.Duration, failEvery int) *Geo {
	return &Geo{latency: latency, failEvery: int64(failEvery)}
}

// FetchLinks returns the records linked to id. Every id links to between
// one and three records.
func (g *Geo) FetchLinks(ctx context.Context, id string) ([]string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrInvalidID
	}
	if err := g.serve(ctx); err != nil {
		return nil, err
	}

	h := xxh3.HashString(id)
	n := 1 + int(h%maxLinks)
	links := make([]string, 0, n)
	for i := 0; i < n; i++ {
		links = append(links, fmt.Sprintf("GSE%d", 10000+(h>>(16*i))%90000))
	}
	return links, nil
}

// FetchMetadata returns the free-text description of record id.
func (g *Geo) FetchMetadata(ctx context.Context, id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", ErrInvalidID
	}
	if err := g.serve(ctx); err != nil {
		return "", err
	}

	words := make([]string, 0, metadataWords)
	for i := 0; i < metadataWords; i++ {
		h := xxh3.HashString(fmt.Sprintf("%s/%d", id, i))
		words = append(words, vocabulary[h%uint64(len(vocabulary))])
	}
	return fmt.Sprintf("Series %s: %s", id, strings.Join(words, " ")), nil
}

func (g *Geo) serve(ctx context.Context) error {
	if err := wait(ctx, g.latency); err != nil {
		return err
	}
	if n := g.requests.Add(1); g.failEvery > 0 && n%g.failEvery == 0 {
		return ErrUnavailable
	}
	return nil
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
