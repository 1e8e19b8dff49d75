package artic

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

const (
	defaultHTTPTimeout       = 20 * time.Second
	defaultRequestsPerMinute = 60
	defaultUserAgent         = "artscout (https://github.com/csheth/artscout)"
	errorSnippetLimit        = 512
)

// Config controls how a Client talks to the catalog.
type Config struct {
	BaseURL           string
	IIIFURL           string
	UserAgent         string
	RequestsPerMinute int
	HTTPClient        *http.Client
	Logger            *slog.Logger
}

// Pagination mirrors the catalog's pagination object.
type Pagination struct {
	Total       int `json:"total"`
	Limit       int `json:"limit"`
	Offset      int `json:"offset"`
	TotalPages  int `json:"total_pages"`
	CurrentPage int `json:"current_page"`
}

// Result is the decoded body of a list request, records in response order.
type Result struct {
	Records    []RawRecord
	Pagination *Pagination
}

type listEnvelope struct {
	Pagination *Pagination   `json:"pagination"`
	Data       *[]RawRecord `json:"data"`
}

// Client issues read-only requests against the catalog API.
type Client struct {
	baseURL   string
	iiifURL   string
	userAgent string
	http      *http.Client
	limiter   *rate.Limiter
	group     singleflight.Group
	logger    *slog.Logger
	details   *detailFormatter
}

// NewClient builds a Client, filling unset fields with the public API defaults.
func NewClient(cfg Config) *Client {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	iiif := strings.TrimRight(cfg.IIIFURL, "/")
	if iiif == "" {
		iiif = DefaultIIIFURL
	}
	userAgent := strings.TrimSpace(cfg.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	perMinute := cfg.RequestsPerMinute
	if perMinute <= 0 {
		perMinute = defaultRequestsPerMinute
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:   base,
		iiifURL:   iiif,
		userAgent: userAgent,
		http:      httpClient,
		limiter:   rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 5),
		logger:    logger.With("component", "artic"),
		details:   newDetailFormatter(),
	}
}

// BaseURL is the API root requests are sent to.
func (c *Client) BaseURL() string { return c.baseURL }

// ImageURL resolves an image id against the client's IIIF server.
func (c *Client) ImageURL(imageID string) string {
	return ImageURL(c.iiifURL, imageID)
}

// Fetch performs exactly one GET for the descriptor. Identical requests that
// overlap in time share a single round trip, which runs detached from any one
// caller's cancellation and is bounded by the HTTP client timeout. A caller
// whose ctx ends stops waiting without failing the others. An id-list page
// with no ids resolves to an empty result without touching the network.
func (c *Client) Fetch(ctx context.Context, q QueryDescriptor) (Result, error) {
	target, err := q.URL()
	if err != nil {
		return Result{}, err
	}
	if q.ByIDs() && len(q.PageIDs()) == 0 {
		return Result{Records: []RawRecord{}}, nil
	}
	shared := context.WithoutCancel(ctx)
	ch := c.group.DoChan(target, func() (any, error) {
		return c.fetchList(shared, target)
	})
	select {
	case <-ctx.Done():
		return Result{}, &NetworkError{URL: target, Err: ctx.Err()}
	case r := <-ch:
		if r.Err != nil {
			return Result{}, r.Err
		}
		res := r.Val.(Result)
		if r.Shared {
			res.Records = slices.Clone(res.Records)
		}
		return res, nil
	}
}

func (c *Client) fetchList(ctx context.Context, target string) (Result, error) {
	started := time.Now()
	resp, err := c.get(ctx, target)
	if err != nil {
		c.logger.Warn("fetch failed", "url", target, "err", err)
		return Result{}, err
	}
	defer resp.Body.Close()

	var env listEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return Result{}, &DecodeError{URL: target, Err: err}
	}
	if env.Data == nil {
		return Result{}, &DecodeError{URL: target, Err: errors.New(`response has no "data" array`)}
	}
	c.logger.Debug("fetched page", "url", target, "records", len(*env.Data), "duration", time.Since(started))
	return Result{Records: *env.Data, Pagination: env.Pagination}, nil
}

func (c *Client) get(ctx context.Context, target string) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &NetworkError{URL: target, Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &NetworkError{URL: target, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("AIC-User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &NetworkError{URL: target, Err: err}
	}
	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, errorSnippetLimit))
		resp.Body.Close()
		return nil, &NetworkError{
			URL:        target,
			StatusCode: resp.StatusCode,
			Snippet:    strings.TrimSpace(string(body)),
		}
	}
	return resp, nil
}
