// Package fetch retrieves JSON documents over HTTP, asking the network at
// most once per endpoint for the lifetime of a Client.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/hashicorp/go-cleanhttp"
	jsoniter "github.com/json-iterator/go"
	"github.com/tidwall/gjson"

	"github.com/on-the-ground/memoize_go/memo"
)

// ErrInvalidJSON is returned when a 2xx response body is not valid JSON.
var ErrInvalidJSON = errors.New("response body is not valid JSON")

// StatusError is returned for any non-2xx response.
type StatusError struct {
	Endpoint   string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d %s", e.Endpoint, e.StatusCode, http.StatusText(e.StatusCode))
}

// Config tunes the HTTP side of a Client.
type Config struct {
	Timeout   time.Duration `env:"FETCH_TIMEOUT" envDefault:"10s"`
	UserAgent string        `env:"FETCH_USER_AGENT" envDefault:"memoize_go"`
}

// ConfigFromEnv reads FETCH_TIMEOUT and FETCH_USER_AGENT.
func ConfigFromEnv() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("failed to parse fetch config: %w", err)
	}
	return cfg, nil
}

// Document is a JSON response body. It is shared by every caller that asked
// for the same endpoint and must be treated as read-only.
type Document struct {
	raw []byte
}

// Raw returns a copy of the body.
func (d Document) Raw() []byte {
	return append([]byte(nil), d.raw...)
}

func (d Document) String() string { return string(d.raw) }

// Path selects a value with gjson path syntax, e.g. "id" or "tags.0".
func (d Document) Path(path string) gjson.Result {
	return gjson.GetBytes(d.raw, path)
}

// Decode unmarshals the body into v.
func (d Document) Decode(v any) error {
	return jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(d.raw, v)
}

// Client fetches JSON documents and remembers every successful response.
// Failed requests, including non-2xx answers, are retried on the next call.
type Client struct {
	cfg      Config
	http     *http.Client
	get      *memo.AsyncMemoizer[Document]
	requests atomic.Int64
}

// NewClient builds a Client on a pooled cleanhttp transport.
func NewClient(cfg Config, memoCfg memo.Config) *Client {
	hc := cleanhttp.DefaultPooledClient()
	hc.Timeout = cfg.Timeout

	c := &Client{cfg: cfg, http: hc}
	if memoCfg.Name == "" {
		memoCfg.Name = "fetch"
	}
	c.get = memo.NewAsync(func(ctx context.Context, args ...any) (Document, error) {
		return c.fetch(ctx, args[0].(string))
	}, memoCfg)
	return c
}

// Get blocks until the document for endpoint is available.
func (c *Client) Get(ctx context.Context, endpoint string) (Document, error) {
	return c.get.Await(ctx, endpoint)
}

// GetAsync returns a future for the document at endpoint.
func (c *Client) GetAsync(ctx context.Context, endpoint string) <-chan memo.Result[Document] {
	return c.get.Invoke(ctx, endpoint)
}

// Requests is the number of HTTP round trips made so far.
func (c *Client) Requests() int64 { return c.requests.Load() }

// Cached is the number of endpoints with a remembered document.
func (c *Client) Cached() int { return c.get.Len() }

func (c *Client) fetch(ctx context.Context, endpoint string) (Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Document{}, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}

	c.requests.Add(1)
	resp, err := c.http.Do(req)
	if err != nil {
		return Document{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Document{}, fmt.Errorf("failed to read body of %s: %w", endpoint, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Document{}, &StatusError{Endpoint: endpoint, StatusCode: resp.StatusCode}
	}
	if !gjson.ValidBytes(body) {
		return Document{}, fmt.Errorf("%w: %s", ErrInvalidJSON, endpoint)
	}
	return Document{raw: body}, nil
}
