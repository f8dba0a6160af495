package openlibrary

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"bookshelf/internal/apperr"
	"bookshelf/internal/config"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	UnknownTitle  = "Unknown Title"
	UnknownAuthor = "Unknown Author"
)

// Metadata is the bibliographic data attached to a new book.
type Metadata struct {
	Title  string `json:"title"`
	Author string `json:"author"`
}

type bookData struct {
	Title   string `json:"title"`
	Authors []struct {
		Name string `json:"name"`
	} `json:"authors"`
}

// Client looks books up on the OpenLibrary books API. Each lookup is a single
// request bounded by the configured timeout; failures are never retried.
type Client struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker
	tracer     trace.Tracer
	logger     *zap.Logger
}

// NewClient creates a client for cfg. A nil httpClient uses a dedicated one.
func NewClient(cfg config.OpenLibraryConfig, httpClient *http.Client, logger *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}

	maxFailures := cfg.MaxFailures
	if maxFailures == 0 {
		maxFailures = 5
	}

	c := &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		timeout:    cfg.Timeout,
		httpClient: httpClient,
		limiter:    rate.NewLimiter(limit, burst),
		tracer:     otel.Tracer("bookshelf/openlibrary"),
		logger:     logger,
	}
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "openlibrary",
		MaxRequests: 1,
		Timeout:     cfg.BreakerReset,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		// An unknown ISBN is a healthy answer from the upstream, and a caller
		// hanging up says nothing about it.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, apperr.ErrMetadataNotFound) || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Warn("circuit breaker state changed",
				zap.String("breaker.name", name),
				zap.String("breaker.from", from.String()),
				zap.String("breaker.to", to.String()),
			)
		},
	})
	return c
}

// Lookup fetches the title and authors of isbn, which must already be normalized.
func (c *Client) Lookup(ctx context.Context, isbn string) (Metadata, error) {
	ctx, span := c.tracer.Start(ctx, "openlibrary.lookup",
		trace.WithAttributes(attribute.String("book.isbn", isbn)),
	)
	defer span.End()

	md, err := c.lookup(ctx, isbn)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Metadata{}, err
	}
	span.SetAttributes(attribute.String("book.title", md.Title))
	return md, nil
}

func (c *Client) lookup(ctx context.Context, isbn string) (Metadata, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return Metadata{}, fmt.Errorf("openlibrary rate limit wait: %w: %w", err, apperr.ErrMetadataUnavailable)
	}
	if err := ctx.Err(); err != nil {
		return Metadata{}, fmt.Errorf("openlibrary lookup: %w: %w", err, apperr.ErrMetadataUnavailable)
	}

	res, err := c.breaker.Execute(func() (interface{}, error) {
		return c.fetch(ctx, isbn)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return Metadata{}, fmt.Errorf("openlibrary circuit %v: %w", err, apperr.ErrMetadataUnavailable)
	}
	if err != nil {
		return Metadata{}, err
	}
	return res.(Metadata), nil
}

func (c *Client) fetch(ctx context.Context, isbn string) (Metadata, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	key := "ISBN:" + isbn
	q := url.Values{}
	q.Set("bibkeys", key)
	q.Set("format", "json")
	q.Set("jscmd", "data")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/books?"+q.Encode(), nil)
	if err != nil {
		return Metadata{}, fmt.Errorf("build openlibrary request: %v: %w", err, apperr.ErrMetadataUnavailable)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Metadata{}, fmt.Errorf("openlibrary request: %w: %w", err, apperr.ErrMetadataUnavailable)
	}
	defer resp.Body.Close()

	c.logger.Debug("openlibrary lookup",
		zap.String("book.isbn", isbn),
		zap.Int("response.status", resp.StatusCode),
		zap.Duration("response.duration", time.Since(start)),
	)

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return Metadata{}, fmt.Errorf("isbn %s: %w", isbn, apperr.ErrMetadataNotFound)
	case resp.StatusCode != http.StatusOK:
		return Metadata{}, fmt.Errorf("openlibrary responded with status %d: %w", resp.StatusCode, apperr.ErrMetadataUnavailable)
	}

	var payload map[string]bookData
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Metadata{}, fmt.Errorf("decode openlibrary response: %w: %w", err, apperr.ErrMetadataUnavailable)
	}

	data, ok := payload[key]
	if !ok {
		return Metadata{}, fmt.Errorf("isbn %s: %w", isbn, apperr.ErrMetadataNotFound)
	}
	return data.metadata(), nil
}

func (d bookData) metadata() Metadata {
	md := Metadata{Title: strings.TrimSpace(d.Title), Author: UnknownAuthor}
	if md.Title == "" {
		md.Title = UnknownTitle
	}

	names := make([]string, 0, len(d.Authors))
	for _, a := range d.Authors {
		if name := strings.TrimSpace(a.Name); name != "" {
			names = append(names, name)
		}
	}
	if len(names) > 0 {
		md.Author = strings.Join(names, ", ")
	}
	return md
}
