// Package geocode resolves pub addresses to coordinates through the Google
// Geocoding API.
package geocode

import (
	"context"
	crand "crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"heritage_hunter/internal/adapters/observability"
	"heritage_hunter/internal/domain"
)

const maxAttempts = 4

var (
	ErrZeroResults  = fmt.Errorf("geocode: %w", domain.ErrNotFound)
	ErrUnauthorized = errors.New("geocode: request denied")
)

type Client struct {
	base   string
	key    string
	region string
	hc     *http.Client
	rl     *rate.Limiter
}

type Option func(*Client)

// WithRegion biases results towards a ccTLD region code ("uk" by default).
func WithRegion(r string) Option { return func(c *Client) { c.region = r } }

func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.hc = h } }

// New builds a client allowing rps requests per second across all workers.
func New(base, key string, rps int, opts ...Option) (*Client, error) {
	if key == "" {
		return nil, fmt.Errorf("geocode: API key is required")
	}
	if rps <= 0 {
		rps = 5
	}
	c := &Client{
		base:   strings.TrimRight(base, "/"),
		key:    key,
		region: "uk",
		hc:     &http.Client{Timeout: 20 * time.Second},
		rl:     rate.NewLimiter(rate.Limit(rps), rps),
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

type response struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Results      []struct {
		Geometry struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

// attempt is the outcome of one round trip.
type attempt struct {
	lat, lon float64
	err      error
	retry    bool
	wait     time.Duration // server hint; zero means use backoff
}

// Geocode returns the first result for "Name, Address" style queries.
// Transport errors, 429, 5xx and OVER_QUERY_LIMIT are retried with jittered backoff.
func (c *Client) Geocode(ctx context.Context, query string) (float64, float64, error) {
	u := c.requestURL(query)
	var last error
	for i := 0; i < maxAttempts; i++ {
		if err := c.rl.Wait(ctx); err != nil {
			return 0, 0, err
		}
		a := c.once(ctx, u)
		if a.err == nil {
			return a.lat, a.lon, nil
		}
		if ctx.Err() != nil {
			return 0, 0, ctx.Err()
		}
		last = a.err
		if !a.retry || i == maxAttempts-1 {
			break
		}
		wait := a.wait
		if wait == 0 {
			wait = backoff(i)
		}
		if !sleepCtx(ctx, wait) {
			return 0, 0, ctx.Err()
		}
	}
	return 0, 0, last
}

func (c *Client) requestURL(query string) string {
	q := url.Values{}
	q.Set("address", query)
	q.Set("key", c.key)
	if c.region != "" {
		q.Set("region", c.region)
	}
	return c.base + "?" + q.Encode()
}

func (c *Client) once(ctx context.Context, u string) attempt {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return attempt{err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "heritage-hunter/1.0")

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		observability.ObserveExternal("geocode", "geocode", 0, time.Since(start))
		return attempt{err: err, retry: true}
	}
	defer resp.Body.Close()
	observability.ObserveExternal("geocode", "geocode", resp.StatusCode, time.Since(start))

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return attempt{err: ErrUnauthorized}
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return attempt{err: fmt.Errorf("geocode: remote %d", resp.StatusCode), retry: true, wait: retryAfter(resp)}
	case resp.StatusCode != http.StatusOK:
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return attempt{err: fmt.Errorf("geocode: bad status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))}
	}

	var out response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return attempt{err: fmt.Errorf("geocode: decode: %w", err)}
	}
	switch out.Status {
	case "OK":
		if len(out.Results) == 0 {
			return attempt{err: ErrZeroResults}
		}
		loc := out.Results[0].Geometry.Location
		return attempt{lat: loc.Lat, lon: loc.Lng}
	case "ZERO_RESULTS":
		return attempt{err: ErrZeroResults}
	case "REQUEST_DENIED":
		return attempt{err: fmt.Errorf("%w: %s", ErrUnauthorized, out.ErrorMessage)}
	case "OVER_QUERY_LIMIT", "UNKNOWN_ERROR":
		return attempt{err: fmt.Errorf("geocode: %s", out.Status), retry: true}
	default:
		return attempt{err: fmt.Errorf("geocode: status %s: %s", out.Status, out.ErrorMessage)}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// retryAfter reads Retry-After as seconds or an HTTP date; 0 when absent.
func retryAfter(resp *http.Response) time.Duration {
	h := strings.TrimSpace(resp.Header.Get("Retry-After"))
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(h); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(h); err == nil {
		return max(time.Until(t), 0)
	}
	return 0
}

// backoff is 200ms doubling per attempt, plus up to 50% jitter.
func backoff(i int) time.Duration {
	base := (200 * time.Millisecond) << i
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return base
	}
	return base + time.Duration(float64(base)*0.5*float64(b[0])/255)
}
