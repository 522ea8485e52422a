package tracker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	pathPubs        = "/api/pubs/"
	pathSaveVisit   = "/api/save_visit/"
	pathDeleteVisit = "/api/delete_visit/"
)

// VisitInput is the save request body. DateVisited is YYYY-MM-DD or empty.
type VisitInput struct {
	PubID       int64  `json:"pub_id"`
	DateVisited string `json:"date_visited"`
	Content     string `json:"content"`
}

// Client talks to the Heritage Hunter API on behalf of one logged-in user.
// Failed requests are not retried.
type Client struct {
	base    string
	session string
	csrf    string
	http    *http.Client
	limiter *rate.Limiter
}

type ClientOption func(*Client)

func WithHTTPClient(h *http.Client) ClientOption { return func(c *Client) { c.http = h } }

// WithLimiter replaces the default limiter, which stays under the server's per-minute quota.
func WithLimiter(l *rate.Limiter) ClientOption { return func(c *Client) { c.limiter = l } }

func NewClient(baseURL, session, csrf string, opts ...ClientOption) *Client {
	c := &Client{
		base:    strings.TrimRight(baseURL, "/"),
		session: session,
		csrf:    csrf,
		http:    &http.Client{Timeout: 15 * time.Second},
		limiter: rate.NewLimiter(rate.Every(6*time.Second), 10),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Client) FetchDataset(ctx context.Context) (Dataset, error) {
	var ds Dataset
	if err := c.post(ctx, "fetch dataset", pathPubs, struct{}{}, &ds); err != nil {
		return Dataset{}, err
	}
	return ds, nil
}

func (c *Client) SaveVisit(ctx context.Context, in VisitInput) error {
	return c.post(ctx, "save visit", pathSaveVisit, in, nil)
}

func (c *Client) DeleteVisit(ctx context.Context, pubID int64) error {
	return c.post(ctx, "delete visit", pathDeleteVisit, map[string]int64{"pub_id": pubID}, nil)
}

func (c *Client) post(ctx context.Context, op, path string, body, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return &NetworkError{Op: op, Err: err}
	}
	b, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("tracker: %s: encode: %w", op, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader(b))
	if err != nil {
		return &NetworkError{Op: op, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-CSRFToken", c.csrf)
	req.Header.Set("Referer", c.base+"/")
	req.AddCookie(&http.Cookie{Name: "sessionid", Value: c.session})
	req.AddCookie(&http.Cookie{Name: "csrftoken", Value: c.csrf})

	resp, err := c.http.Do(req)
	if err != nil {
		return &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))
		return &NetworkError{Op: op, Status: resp.StatusCode}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &NetworkError{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("decode: %w", err)}
	}
	return nil
}
