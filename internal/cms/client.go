// Package cms is the HTTP client for the remote content service. It executes
// one query per call and decodes the response envelope into raw records; it
// never retries on its own unless a retry policy is configured.
package cms

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/codeGROOVE-dev/retry"

	"jbeauty/content/internal/groq"
)

// RawRecord is an untyped record as returned by the content service. It never
// crosses the normalizer boundary.
type RawRecord map[string]any

// Result is the outcome of one query execution. Singleton mirrors the query
// shape: singleton queries fill Record (nil when no match), list queries fill
// List (never nil on success).
type Result struct {
	List      []RawRecord
	Record    RawRecord
	Singleton bool
}

// Client executes queries against one project/dataset of the content service.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiVersion string
	dataset    string
	retries    uint
	retryDelay time.Duration
	retryMax   time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRetryPolicy enables retrying transient failures. Decode failures are
// never retried; returning the malformed payload again will not fix it.
func WithRetryPolicy(attempts uint, delay, maxDelay time.Duration) Option {
	return func(c *Client) {
		c.retries = attempts
		c.retryDelay = delay
		c.retryMax = maxDelay
	}
}

// New creates a client for baseURL (e.g. "https://mbj14vcv.api.sanity.io").
func New(baseURL, apiVersion, dataset string, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiVersion: apiVersion,
		dataset:    dataset,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Execute runs one query. Exactly one network call happens per invocation
// unless a retry policy is configured.
func (c *Client) Execute(ctx context.Context, q groq.Query) (Result, error) {
	if c.retries == 0 {
		return c.executeOnce(ctx, q)
	}

	var result Result
	var lastErr error
	err := retry.Do(
		func() error {
			result, lastErr = c.executeOnce(ctx, q)
			if lastErr != nil {
				var decodeErr *DecodeError
				if errors.As(lastErr, &decodeErr) {
					return retry.Unrecoverable(lastErr)
				}
				return lastErr
			}
			return nil
		},
		retry.Attempts(c.retries),
		retry.Delay(c.retryDelay),
		retry.MaxDelay(c.retryMax),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			log.Printf("cms: retrying query after error (attempt %d): %v", n, err)
		}),
	)
	if err != nil {
		if lastErr != nil {
			return Result{}, lastErr
		}
		return Result{}, err
	}
	return result, nil
}

func (c *Client) executeOnce(ctx context.Context, q groq.Query) (Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.queryURL(q), nil)
	if err != nil {
		return Result{}, fmt.Errorf("cms: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{}, &TransportError{Cause: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return Result{}, &TransportError{Cause: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Result{}, &TransportError{Status: resp.StatusCode}
	}

	var envelope struct {
		Result json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		decodeErr := &DecodeError{Size: len(body), Cause: err}
		// Log the size only; the payload may carry fields we must not leak.
		log.Printf("cms: %v", decodeErr)
		return Result{}, decodeErr
	}

	return decodeResult(envelope.Result, q.Singleton())
}

func decodeResult(raw json.RawMessage, singleton bool) (Result, error) {
	if singleton {
		if isNull(raw) {
			return Result{Singleton: true}, nil
		}
		var record RawRecord
		if err := json.Unmarshal(raw, &record); err != nil {
			decodeErr := &DecodeError{Size: len(raw), Cause: err}
			log.Printf("cms: %v", decodeErr)
			return Result{}, decodeErr
		}
		return Result{Record: record, Singleton: true}, nil
	}

	list := []RawRecord{}
	if !isNull(raw) {
		if err := json.Unmarshal(raw, &list); err != nil {
			decodeErr := &DecodeError{Size: len(raw), Cause: err}
			log.Printf("cms: %v", decodeErr)
			return Result{}, decodeErr
		}
	}
	return Result{List: list}, nil
}

func isNull(raw json.RawMessage) bool {
	trimmed := strings.TrimSpace(string(raw))
	return trimmed == "" || trimmed == "null"
}

func (c *Client) queryURL(q groq.Query) string {
	values := url.Values{}
	values.Set("query", q.String())
	for k, v := range q.Params() {
		encoded, err := json.Marshal(v)
		if err != nil {
			encoded = []byte(fmt.Sprintf("%q", fmt.Sprint(v)))
		}
		values.Set("$"+k, string(encoded))
	}
	return fmt.Sprintf("%s/v%s/data/query/%s?%s", c.baseURL, c.apiVersion, c.dataset, values.Encode())
}
