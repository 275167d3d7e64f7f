package profiler

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"go.uber.org/multierr"
)

// Resolver turns a targets file into callable handles.
//
// The file lists one "scope.symbol" reference per line. References are split
// on the first separator only; blank lines are skipped.
type Resolver struct {
	catalog *Catalog
	logger  zerolog.Logger
}

// NewResolver creates a resolver that looks references up in catalog.
func NewResolver(catalog *Catalog, logger zerolog.Logger) *Resolver {
	return &Resolver{
		catalog: catalog,
		logger:  logger.With().Str("component", "resolver").Logger(),
	}
}

// Load reads the targets file at path. References that do not resolve are
// logged and skipped. When the file cannot be opened Load returns an empty
// list and an error wrapping ErrConfigUnreadable.
func (r *Resolver) Load(path string) ([]*Callable, error) {
	//nolint:gosec // G304: Path is chosen by the operator.
	f, err := os.Open(path)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrConfigUnreadable, err)
		r.logger.Error().Err(err).Str("path", path).Msg("Failed to read targets file")
		return []*Callable{}, err
	}
	defer f.Close()

	targets, err := r.Parse(f)
	r.logger.Info().
		Str("path", path).
		Int("targets", len(targets)).
		Int("errors", len(multierr.Errors(err))).
		Msg("Targets loaded")
	return targets, err
}

// Parse reads references from rd.
func (r *Resolver) Parse(rd io.Reader) ([]*Callable, error) {
	targets := []*Callable{}
	var errs error

	lines := newLineReader(rd)
	lineNo := 0
	for {
		line, err := lines.next()
		if errors.Is(err, io.EOF) {
			break
		}
		lineNo++
		if errors.Is(err, errLineTooLong) {
			err = fmt.Errorf("line %d: %w: longer than %d bytes", lineNo, ErrLookup, MaxLineLength)
			r.logger.Warn().Err(err).Msg("Skipping target reference")
			errs = multierr.Append(errs, err)
			continue
		}
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%w: %w", ErrConfigUnreadable, err))
			break
		}

		ref := strings.TrimSpace(line)
		if ref == "" {
			continue
		}

		target, err := r.ResolveRef(ref)
		if err != nil {
			err = fmt.Errorf("line %d: %w", lineNo, err)
			r.logger.Warn().Err(err).Str("ref", ref).Msg("Skipping target reference")
			errs = multierr.Append(errs, err)
			continue
		}
		targets = append(targets, target)
	}

	return targets, errs
}

// ResolveRef resolves one "scope.symbol" reference.
func (r *Resolver) ResolveRef(ref string) (*Callable, error) {
	return r.catalog.Resolve(ref)
}
