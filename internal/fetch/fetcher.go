package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultMaxBodySize limits how much of a response body is read.
// API documents larger than this are almost certainly not link indexes.
const DefaultMaxBodySize = 10 * 1024 * 1024 // 10MB

// Response is the outcome of one completed HTTP exchange. A Response is
// returned whenever the server answered at all; status handling is the
// caller's concern.
type Response struct {
	// StatusCode is the HTTP status code.
	StatusCode int

	// ContentType is the value of the Content-Type header.
	ContentType string

	// Body is the response body, truncated to the configured limit.
	Body []byte
}

// Success reports whether the status code is in the 2xx range.
func (r *Response) Success() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// IsJSON reports whether the response declared a JSON media type.
// Both application/json and structured-syntax suffixes such as
// application/hal+json qualify.
func (r *Response) IsJSON() bool {
	mediaType := r.ContentType
	if i := strings.IndexByte(mediaType, ';'); i >= 0 {
		mediaType = mediaType[:i]
	}
	mediaType = strings.TrimSpace(strings.ToLower(mediaType))
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}

// Fetcher retrieves one address. Implementations must be safe for
// concurrent use by multiple crawl workers.
type Fetcher interface {
	// Fetch performs a GET against address. It returns an error only when
	// no HTTP exchange completed (connection failure, timeout, cancelled
	// context); HTTP-level failures are reported through the Response.
	Fetch(ctx context.Context, address string) (*Response, error)
}

// HTTPFetcher is the production Fetcher backed by net/http.
type HTTPFetcher struct {
	client      *http.Client
	headers     map[string]string
	userAgent   string
	maxBodySize int64
}

// Option configures an HTTPFetcher.
type Option func(*HTTPFetcher)

// WithHeaders sets extra headers sent with every request.
func WithHeaders(headers map[string]string) Option {
	return func(f *HTTPFetcher) {
		f.headers = headers
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *HTTPFetcher) {
		f.userAgent = ua
	}
}

// WithMaxBodySize caps how many body bytes are read per response.
func WithMaxBodySize(limit int64) Option {
	return func(f *HTTPFetcher) {
		if limit > 0 {
			f.maxBodySize = limit
		}
	}
}

// NewHTTPFetcher creates a fetcher with the given per-request timeout and
// redirect policy. When followRedirects is false the first redirect status
// is returned to the caller as-is.
func NewHTTPFetcher(timeout time.Duration, followRedirects bool, opts ...Option) *HTTPFetcher {
	client := &http.Client{
		Timeout: timeout,
	}
	if !followRedirects {
		client.CheckRedirect = func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}

	f := &HTTPFetcher{
		client:      client,
		maxBodySize: DefaultMaxBodySize,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch implements Fetcher.
func (f *HTTPFetcher) Fetch(ctx context.Context, address string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, address, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("Accept", "application/json, application/hal+json;q=0.9, */*;q=0.1")
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	for k, v := range f.headers {
		req.Header.Set(k, v)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close() //nolint:errcheck // Read side already consumed

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	return &Response{
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}
