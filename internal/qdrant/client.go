// Package qdrant is a minimal REST client for the Qdrant HTTP API,
// covering only the operations the indexing pipeline and the integrity
// validator need.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jmorales/normrag/internal/retry"
)

const maxErrorBody = 4 * 1024

// Client talks to one Qdrant collection.
type Client struct {
	baseURL    string
	apiKey     string
	collection string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey, collection string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		collection: collection,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Collection returns the collection name this client is bound to.
func (c *Client) Collection() string { return c.collection }

// Point is one stored vector with its payload.
type Point struct {
	ID      string         `json:"id"`
	Vector  []float32      `json:"vector,omitempty"`
	Payload map[string]any `json:"payload,omitempty"`
}

// CollectionInfo is the subset of collection state the validator reports.
type CollectionInfo struct {
	Status              string `json:"status"`
	PointsCount         int64  `json:"points_count"`
	IndexedVectorsCount int64  `json:"indexed_vectors_count"`
}

// EnsureCollection creates the collection with cosine distance if it does
// not exist yet. Safe to call on every startup.
func (c *Client) EnsureCollection(ctx context.Context, dimension int) error {
	var probe struct {
		Result CollectionInfo `json:"result"`
	}
	err := c.do(ctx, http.MethodGet, c.collectionPath(""), nil, &probe)
	if err == nil {
		return nil
	}
	var se *statusError
	if !errors.As(err, &se) || se.code != http.StatusNotFound {
		return fmt.Errorf("probe collection: %w", err)
	}

	body := map[string]any{
		"vectors": map[string]any{
			"size":     dimension,
			"distance": "Cosine",
		},
	}
	if err := c.do(ctx, http.MethodPut, c.collectionPath(""), body, nil); err != nil {
		return fmt.Errorf("create collection: %w", err)
	}
	return nil
}

// Info fetches collection status and point counts.
func (c *Client) Info(ctx context.Context) (CollectionInfo, error) {
	var out struct {
		Result CollectionInfo `json:"result"`
	}
	if err := c.do(ctx, http.MethodGet, c.collectionPath(""), nil, &out); err != nil {
		return CollectionInfo{}, fmt.Errorf("collection info: %w", err)
	}
	return out.Result, nil
}

// Upsert writes points and waits for them to be applied.
func (c *Client) Upsert(ctx context.Context, points []Point) error {
	if len(points) == 0 {
		return nil
	}
	body := map[string]any{"points": points}
	if err := c.do(ctx, http.MethodPut, c.collectionPath("/points?wait=true"), body, nil); err != nil {
		return fmt.Errorf("upsert %d points: %w", len(points), err)
	}
	return nil
}

// Count returns the exact number of stored points.
func (c *Client) Count(ctx context.Context) (int64, error) {
	var out struct {
		Result struct {
			Count int64 `json:"count"`
		} `json:"result"`
	}
	body := map[string]any{"exact": true}
	if err := c.do(ctx, http.MethodPost, c.collectionPath("/points/count"), body, &out); err != nil {
		return 0, fmt.Errorf("count points: %w", err)
	}
	return out.Result.Count, nil
}

// ScrollPage is one page of points plus the cursor for the next one.
// Offset is nil when the scroll is exhausted.
type ScrollPage struct {
	Points     []Point
	NextOffset any
}

// Scroll fetches one page of points with payloads. Pass nil as offset for
// the first page, then the NextOffset of each page.
func (c *Client) Scroll(ctx context.Context, limit int, offset any) (ScrollPage, error) {
	body := map[string]any{
		"limit":        limit,
		"with_payload": true,
	}
	if offset != nil {
		body["offset"] = offset
	}
	var out struct {
		Result struct {
			Points         []Point `json:"points"`
			NextPageOffset any     `json:"next_page_offset"`
		} `json:"result"`
	}
	if err := c.do(ctx, http.MethodPost, c.collectionPath("/points/scroll"), body, &out); err != nil {
		return ScrollPage{}, fmt.Errorf("scroll points: %w", err)
	}
	return ScrollPage{Points: out.Result.Points, NextOffset: out.Result.NextPageOffset}, nil
}

func (c *Client) collectionPath(suffix string) string {
	return "/collections/" + c.collection + suffix
}

type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("qdrant returned %d: %s", e.code, e.body)
}

// do runs one request, mapping 429/5xx to a transient error so callers can
// route it through the retry layer.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("api-key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		msg := strings.TrimSpace(string(raw))
		if retry.TransientStatus(resp.StatusCode) {
			return &retry.TransientError{StatusCode: resp.StatusCode, Message: msg}
		}
		return &statusError{code: resp.StatusCode, body: msg}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
