// Package geofon talks to the GEOFON catalog web service: the HTML event
// list and the per-event moment tensor bulletins under the alert tree.
package geofon

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/couchcryptid/moment-tensor-etl/internal/domain"
	"github.com/couchcryptid/moment-tensor-etl/internal/observability"
)

const (
	kindCatalog  = "catalog"
	kindDocument = "document"
)

// NetworkError reports a failed request or a non-2xx response.
type NetworkError struct {
	URL        string
	StatusCode int // zero when no response was received
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("GET %s: status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("GET %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// Client fetches catalog pages and bulletins over HTTP.
type Client struct {
	catalogURL string
	httpClient *http.Client
	limiter    *rate.Limiter
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a catalog client. A zero timeout disables the request
// deadline and a zero ratePerSecond disables throttling.
func NewClient(catalogURL string, timeout time.Duration, ratePerSecond float64, metrics *observability.Metrics, logger *slog.Logger) *Client {
	c := &Client{
		catalogURL: catalogURL,
		httpClient: &http.Client{Timeout: timeout},
		metrics:    metrics,
		logger:     logger,
	}
	if ratePerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(ratePerSecond), 1)
	}
	return c
}

// FetchCatalog requests the event list for params and returns the body as text.
func (c *Client) FetchCatalog(ctx context.Context, params url.Values) (string, error) {
	u := c.catalogURL + "?" + params.Encode()
	body, err := c.get(ctx, u, kindCatalog)
	if err != nil {
		c.metrics.CatalogRequests.WithLabelValues("error").Inc()
		return "", err
	}
	c.metrics.CatalogRequests.WithLabelValues("success").Inc()
	return string(body), nil
}

// FetchDocument downloads one bulletin and returns its raw bytes.
func (c *Client) FetchDocument(ctx context.Context, ref domain.DocumentReference) ([]byte, error) {
	body, err := c.get(ctx, string(ref), kindDocument)
	if err != nil {
		return nil, err
	}
	c.metrics.DocumentsFetched.Inc()
	return body, nil
}

func (c *Client) get(ctx context.Context, u, kind string) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &NetworkError{URL: u, Err: err}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.RequestDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, &NetworkError{URL: u, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Debug("geofon request failed", "url", u, "status", resp.StatusCode, "body", string(snippet))
		return nil, &NetworkError{URL: u, StatusCode: resp.StatusCode, Err: errors.New(http.StatusText(resp.StatusCode))}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{URL: u, StatusCode: resp.StatusCode, Err: err}
	}
	c.logger.Debug("geofon request", "kind", kind, "url", u, "bytes", len(body))
	return body, nil
}
