// Package fetch retrieves pages of application records from the listing API.
//
// A fetch never returns a raised error: every outcome is folded into a Result,
// and failures carry a *FetchError classified by FailureKind. Callers decide
// whether to log, display, or ignore a failure.
package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rshade/applist/internal/application"
	"github.com/rshade/applist/internal/logging"
)

// Query parameter names understood by the listing endpoint.
const (
	ParamPage  = "_page"
	ParamLimit = "_limit"
)

// DefaultBaseURL is the listing endpoint used when none is configured.
const DefaultBaseURL = "http://localhost:3001/api/applications"

// maxBodyBytes caps how much of a response body is read.
const maxBodyBytes = 8 << 20

// PageFetcher fetches one page of records.
type PageFetcher interface {
	FetchPage(ctx context.Context, page, size int) Result
}

// Observer receives one notification per completed fetch.
type Observer interface {
	ObserveFetch(outcome string, duration time.Duration, records int)
}

// Result is the outcome of a single page fetch.
type Result struct {
	Page    int
	Records []application.Record
	Err     error
}

// OK reports whether the fetch succeeded.
func (r Result) OK() bool {
	return r.Err == nil
}

// Kind returns the failure classification, or FailureNone on success.
func (r Result) Kind() FailureKind {
	if r.Err == nil {
		return FailureNone
	}
	var fe *FetchError
	if errors.As(r.Err, &fe) {
		return fe.Kind
	}
	return TransportFailure
}

// Client is an HTTP PageFetcher.
type Client struct {
	baseURL    *url.URL
	HTTPClient *http.Client
	observer   Observer
	validator  *schemaValidator
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.HTTPClient = hc
		}
	}
}

// WithObserver registers an observer for fetch outcomes.
func WithObserver(o Observer) Option {
	return func(c *Client) {
		c.observer = o
	}
}

// NewClient creates a Client for the given listing endpoint.
// The default HTTP client has no timeout; requests end when they resolve or
// when the caller's context is cancelled.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base URL %q must use http or https", baseURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("base URL %q has no host", baseURL)
	}

	validator, err := newSchemaValidator()
	if err != nil {
		return nil, err
	}

	c := &Client{
		baseURL:    u,
		HTTPClient: &http.Client{},
		validator:  validator,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the configured listing endpoint.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// PageURL returns the request URL for the given page and size.
// Pagination parameters are appended after any query already on the base URL.
func (c *Client) PageURL(page, size int) string {
	u := *c.baseURL
	q := ParamPage + "=" + strconv.Itoa(page) + "&" + ParamLimit + "=" + strconv.Itoa(size)
	if u.RawQuery != "" {
		q = u.RawQuery + "&" + q
	}
	u.RawQuery = q
	return u.String()
}

// FetchPage requests one page. It never panics on backend misbehaviour and
// never returns a nil Records slice on success.
func (c *Client) FetchPage(ctx context.Context, page, size int) Result {
	start := time.Now()
	result := c.fetch(ctx, page, size)
	elapsed := time.Since(start)

	kind := result.Kind()
	if c.observer != nil {
		c.observer.ObserveFetch(kind.String(), elapsed, len(result.Records))
	}

	logger := logging.FromContext(ctx)
	logger.Debug().Ctx(ctx).
		Str("component", "fetch").
		Int("page", page).
		Int("size", size).
		Str("outcome", kind.String()).
		Int("records", len(result.Records)).
		Dur("duration", elapsed).
		Msg("page fetch completed")

	return result
}

func (c *Client) fetch(ctx context.Context, page, size int) Result {
	if page < 0 || size < 1 {
		return failure(page, InvalidRequest, 0,
			fmt.Errorf("page must be >= 0 and size >= 1, got page=%d size=%d", page, size))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.PageURL(page, size), nil)
	if err != nil {
		return failure(page, InvalidRequest, 0, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return failure(page, TransportFailure, 0, err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return failure(page, ResponseFailure, resp.StatusCode, nil)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return failure(page, TransportFailure, resp.StatusCode, fmt.Errorf("reading body: %w", err))
	}
	if len(body) > maxBodyBytes {
		return failure(page, MalformedPayload, resp.StatusCode,
			fmt.Errorf("body exceeds %d bytes", maxBodyBytes))
	}

	records, err := c.decode(body)
	if err != nil {
		return failure(page, MalformedPayload, resp.StatusCode, err)
	}

	return Result{Page: page, Records: records}
}

// decode validates body against the record schema and decodes it.
func (c *Client) decode(body []byte) ([]application.Record, error) {
	if err := c.validator.Validate(body); err != nil {
		return nil, err
	}

	records := []application.Record{}
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("decoding records: %w", err)
	}
	if records == nil {
		// A JSON null decodes to nil; the schema rejects it, but keep the
		// success contract explicit.
		records = []application.Record{}
	}
	return records, nil
}

func failure(page int, kind FailureKind, status int, err error) Result {
	return Result{
		Page: page,
		Err: &FetchError{
			Kind:       kind,
			Page:       page,
			StatusCode: status,
			Err:        err,
		},
	}
}
