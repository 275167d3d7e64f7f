package workload

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/coral-mesh/callprof/internal/retry"
	"github.com/coral-mesh/callprof/pkg/profiler"
)

// Scope and symbol names published by the pipeline.
const (
	GeoScope      = "geo"
	AnalysisScope = "analysis"

	SymbolFetchLinks    = "FetchLinks"
	SymbolFetchMetadata = "FetchMetadata"
	SymbolVectorize     = "Vectorize"
	SymbolCluster       = "Cluster"
)

// Options configures a Pipeline.
type Options struct {
	IDs        []string
	Clusters   int
	Latency    time.Duration
	FailEvery  int
	Dimensions int
	// Retry applies to record service calls. The zero value uses
	// DefaultRetry.
	Retry  retry.Policy
	Logger zerolog.Logger
}

// DefaultRetry retries record service calls twice.
var DefaultRetry = retry.Policy{
	Attempts:   3,
	Backoff:    10 * time.Millisecond,
	MaxBackoff: 100 * time.Millisecond,
}

// Result summarises one pipeline run.
type Result struct {
	Links     []string
	Documents int
	Clusters  int
	Labels    []int
}

// Pipeline runs the demo workload through its scopes.
type Pipeline struct {
	opts     Options
	logger   zerolog.Logger
	geo      *profiler.Scope
	analysis *profiler.Scope

	// cluster is called directly instead of through the analysis scope
	// once Annotate has been used.
	cluster profiler.Func
}

// New creates a pipeline and defines its steps in the geo and analysis scopes.
func New(opts Options) *Pipeline {
	if opts.Clusters <= 0 {
		opts.Clusters = 3
	}
	if opts.Retry == (retry.Policy{}) {
		opts.Retry = DefaultRetry
	}

	p := &Pipeline{
		opts:     opts,
		logger:   opts.Logger.With().Str("component", "workload").Logger(),
		geo:      profiler.NewScope(GeoScope),
		analysis: profiler.NewScope(AnalysisScope),
	}

	geo := NewGeo(opts.Latency, opts.FailEvery)
	p.geo.Define(SymbolFetchLinks, func(ctx context.Context, args ...any) (any, error) {
		id, err := arg[string](args, 0)
		if err != nil {
			return nil, err
		}
		return geo.FetchLinks(ctx, id)
	})
	p.geo.Define(SymbolFetchMetadata, func(ctx context.Context, args ...any) (any, error) {
		id, err := arg[string](args, 0)
		if err != nil {
			return nil, err
		}
		return geo.FetchMetadata(ctx, id)
	})
	p.analysis.Define(SymbolVectorize, func(_ context.Context, args ...any) (any, error) {
		docs, err := arg[[]string](args, 0)
		if err != nil {
			return nil, err
		}
		return Vectorize(docs, opts.Dimensions), nil
	})
	p.analysis.Define(SymbolCluster, func(_ context.Context, args ...any) (any, error) {
		m, err := arg[Matrix](args, 0)
		if err != nil {
			return nil, err
		}
		k, err := arg[int](args, 1)
		if err != nil {
			return nil, err
		}
		return Cluster(m, k)
	})

	return p
}

// Catalog returns a catalog holding the pipeline scopes.
func (p *Pipeline) Catalog() *profiler.Catalog {
	return profiler.NewCatalog(p.geo, p.analysis)
}

// Annotate marks the clustering step as always eligible for profiling by
// prof, whether or not it is listed in the targets file.
func (p *Pipeline) Annotate(prof *profiler.Profiler) {
	target, _ := p.analysis.Lookup(SymbolCluster)
	p.cluster = profiler.Instrument(prof, target)
}

// Run executes the pipeline once.
func (p *Pipeline) Run(ctx context.Context) (Result, error) {
	var res Result

	for _, id := range p.opts.IDs {
		links, err := fetch[[]string](ctx, p.opts.Retry, p.geo, SymbolFetchLinks, id)
		if err != nil {
			return res, fmt.Errorf("fetch links for %s: %w", id, err)
		}
		res.Links = append(res.Links, links...)
	}

	docs := make([]string, 0, len(res.Links))
	for _, id := range res.Links {
		doc, err := fetch[string](ctx, p.opts.Retry, p.geo, SymbolFetchMetadata, id)
		if err != nil {
			return res, fmt.Errorf("fetch metadata for %s: %w", id, err)
		}
		docs = append(docs, doc)
	}
	res.Documents = len(docs)

	m, err := call[Matrix](ctx, p.analysis, SymbolVectorize, docs)
	if err != nil {
		return res, fmt.Errorf("vectorize: %w", err)
	}

	res.Clusters = ClusterCount(m.Rows(), p.opts.Clusters)
	if res.Clusters < p.opts.Clusters {
		p.logger.Warn().
			Int("samples", m.Rows()).
			Int("clusters", res.Clusters).
			Msg("Not enough samples for clustering, adjusting cluster count")
	}
	if res.Clusters == 0 {
		p.logger.Warn().Msg("No samples available for clustering")
		return res, nil
	}

	labels, err := p.runCluster(ctx, m, res.Clusters)
	if err != nil {
		return res, fmt.Errorf("cluster: %w", err)
	}
	res.Labels = labels

	return res, nil
}

func (p *Pipeline) runCluster(ctx context.Context, m Matrix, k int) ([]int, error) {
	if p.cluster == nil {
		return call[[]int](ctx, p.analysis, SymbolCluster, m, k)
	}
	out, err := p.cluster(ctx, m, k)
	if err != nil {
		return nil, err
	}
	labels, ok := out.([]int)
	if !ok {
		return nil, fmt.Errorf("%s.%s returned %T", AnalysisScope, SymbolCluster, out)
	}
	return labels, nil
}

// Loop runs the pipeline iterations times, pausing interval between runs.
// It stops early when ctx is cancelled.
func (p *Pipeline) Loop(ctx context.Context, iterations int, interval time.Duration) error {
	for i := 0; i < iterations; i++ {
		if i > 0 {
			if err := wait(ctx, interval); err != nil {
				return err
			}
		}

		start := time.Now()
		res, err := p.Run(ctx)
		if err != nil {
			return err
		}
		p.logger.Info().
			Int("iteration", i+1).
			Int("links", len(res.Links)).
			Int("documents", res.Documents).
			Int("clusters", res.Clusters).
			Dur("elapsed", time.Since(start)).
			Msg("Workload run completed")
	}
	return nil
}

// fetch calls a record service symbol, retrying ErrUnavailable. Every
// attempt dispatches through the scope, so a profiled symbol sees each one.
func fetch[T any](ctx context.Context, policy retry.Policy, s *profiler.Scope, symbol string, args ...any) (T, error) {
	var out T
	err := retry.Do(ctx, policy, func() error {
		var err error
		out, err = call[T](ctx, s, symbol, args...)
		return err
	}, func(err error) bool {
		return errors.Is(err, ErrUnavailable)
	})
	return out, err
}

func call[T any](ctx context.Context, s *profiler.Scope, symbol string, args ...any) (T, error) {
	var zero T
	out, err := s.Call(ctx, symbol, args...)
	if err != nil {
		return zero, err
	}
	v, ok := out.(T)
	if !ok {
		return zero, fmt.Errorf("%s.%s returned %T, want %T", s.Name(), symbol, out, zero)
	}
	return v, nil
}

func arg[T any](args []any, i int) (T, error) {
	var zero T
	if i >= len(args) {
		return zero, fmt.Errorf("missing argument %d", i)
	}
	v, ok := args[i].(T)
	if !ok {
		return zero, fmt.Errorf("argument %d is %T, want %T", i, args[i], zero)
	}
	return v, nil
}
