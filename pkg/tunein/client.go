package tunein

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/zachfi/zkit/pkg/tracing"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// DefaultSearchURL is the public directory search endpoint.
const DefaultSearchURL = "http://opml.radiotime.com/Search.ashx"

type Client struct {
	searchURL  string
	httpClient *http.Client
	logger     *slog.Logger
	tracer     trace.Tracer
}

func NewClient(searchURL string, httpClient *http.Client, logger *slog.Logger) *Client {
	if searchURL == "" {
		searchURL = DefaultSearchURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}

	return &Client{
		searchURL:  searchURL,
		httpClient: httpClient,
		logger:     logger,
		tracer:     otel.Tracer("tunein"),
	}
}

// Search posts query to the directory and decodes the OPML response.
func (c *Client) Search(ctx context.Context, query string) (*SearchResult, error) {
	ctx, span := c.tracer.Start(ctx, "Search")
	span.SetAttributes(attribute.String("query", query))

	form := url.Values{"query": {query}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.searchURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, tracing.ErrHandler(span, fmt.Errorf("failed to create request: %w", err), "search failed", c.logger)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, tracing.ErrHandler(span, fmt.Errorf("failed to post search: %w", err), "search failed", c.logger)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, tracing.ErrHandler(span, fmt.Errorf("unexpected search status: %s", resp.Status), "search failed", c.logger)
	}

	result, err := Decode(resp.Body)
	if err != nil {
		return nil, tracing.ErrHandler(span, err, "search failed", c.logger)
	}
	result.Query = query

	span.SetAttributes(
		attribute.Int("stations", len(result.Stations)),
		attribute.String("suggestion", result.Suggestion),
	)
	c.logger.Debug("search complete", "query", query, "stations", len(result.Stations), "suggestion", result.Suggestion)

	return result, tracing.ErrHandler(span, nil, "", c.logger)
}
