package skill

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/zachfi/zkit/pkg/tracing"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/zachfi/tunego/pkg/match"
	"github.com/zachfi/tunego/pkg/tunein"
)

var (
	ErrEmptyQuery = errors.New("empty query")
	ErrNotFound   = errors.New("station not found")
)

// Searcher queries the station directory.
type Searcher interface {
	Search(ctx context.Context, query string) (*tunein.SearchResult, error)
}

// Selection is the station chosen for a query.
type Selection struct {
	Name        string
	MetadataURL string
	// Query is the term that produced the selection, after aliases and any
	// suggestion were applied.
	Query string
	// Confidence is the fuzzy score of the selection, or 100 when the first
	// station was taken.
	Confidence int
	Retried    bool
}

// Resolver turns a free text query into a station.
type Resolver struct {
	searcher Searcher
	aliases  *Aliases
	mode     string
	logger   *slog.Logger
	tracer   trace.Tracer
}

func NewResolver(searcher Searcher, aliases *Aliases, mode string, logger *slog.Logger) *Resolver {
	return &Resolver{
		searcher: searcher,
		aliases:  aliases,
		mode:     mode,
		logger:   logger,
		tracer:   otel.Tracer(module),
	}
}

// Resolve applies aliases to query, searches the directory and selects a
// station. A response with no eligible station but a suggestion is retried
// once with the suggested term.
func (r *Resolver) Resolve(ctx context.Context, query string) (Selection, error) {
	start := time.Now()
	defer func() { metricResolveDuration.Observe(time.Since(start).Seconds()) }()

	ctx, span := r.tracer.Start(ctx, "Resolve")
	span.SetAttributes(attribute.String("query", query))

	query = strings.TrimSpace(query)
	if query == "" {
		return Selection{}, tracing.ErrHandler(span, ErrEmptyQuery, "resolve failed", r.logger)
	}

	term := query
	if r.aliases != nil {
		term = r.aliases.Apply(query)
	}
	if term != query {
		r.logger.Debug("applied aliases", "query", query, "term", term)
	}

	res, err := r.search(ctx, term)
	if err != nil {
		return Selection{}, tracing.ErrHandler(span, err, "resolve failed", r.logger)
	}

	retried := false
	candidates := res.Available()
	if len(candidates) == 0 && res.Suggestion != "" {
		r.logger.Info("no stations found, retrying with suggestion", "term", term, "suggestion", res.Suggestion)
		metricSuggestionRetries.Inc()

		term = res.Suggestion
		retried = true

		res, err = r.search(ctx, term)
		if err != nil {
			return Selection{}, tracing.ErrHandler(span, err, "resolve failed", r.logger)
		}
		candidates = res.Available()
	}

	if len(candidates) == 0 {
		metricSearches.WithLabelValues("not_found").Inc()
		span.SetAttributes(attribute.Bool("found", false))
		r.logger.Info("no station found", "term", term)
		return Selection{}, tracing.ErrHandler(span, fmt.Errorf("%w: %s", ErrNotFound, term), "resolve failed", nil)
	}

	sel := r.selectStation(term, candidates)
	sel.Retried = retried
	metricSearches.WithLabelValues("found").Inc()

	span.SetAttributes(
		attribute.String("station", sel.Name),
		attribute.Int("confidence", sel.Confidence),
		attribute.Bool("retried", retried),
	)
	r.logger.Info("station selected", "term", term, "station", sel.Name, "confidence", sel.Confidence, "mode", r.mode)

	return sel, tracing.ErrHandler(span, nil, "", r.logger)
}

func (r *Resolver) search(ctx context.Context, term string) (*tunein.SearchResult, error) {
	res, err := r.searcher.Search(ctx, term)
	if err != nil {
		metricSearches.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("search for %q: %w", term, err)
	}

	return res, nil
}

func (r *Resolver) selectStation(term string, candidates []tunein.Station) Selection {
	if r.mode == MatchModeFirst {
		return Selection{
			Name:        candidates[0].Name,
			MetadataURL: candidates[0].MetadataURL,
			Query:       term,
			Confidence:  100,
		}
	}

	names := make([]string, len(candidates))
	for i, c := range candidates {
		names[i] = c.Name
	}

	i, score := match.Best(term, names)
	metricMatchConfidence.Observe(float64(score))

	return Selection{
		Name:        candidates[i].Name,
		MetadataURL: candidates[i].MetadataURL,
		Query:       term,
		Confidence:  score,
	}
}
