// Package recordstore is the HTTP client for the phonebook record store API.
package recordstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/brianhealey/phonebook/internal/models"
)

// HeaderAPIKey carries the access key when one is configured.
const HeaderAPIKey = "X-API-Key"

const basePath = "/api/persons"

// Client talks to a record store server. It is safe for concurrent use.
type Client struct {
	base   *url.URL
	http   *http.Client
	apiKey string
}

// Option configures a Client.
type Option func(*Client)

// WithAPIKey sends key on every request.
func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = key }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http = &http.Client{Timeout: d} }
}

// New returns a client for the server at baseURL, e.g. http://localhost:3001.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse server url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("server url %q: scheme must be http or https", baseURL)
	}
	c := &Client{base: u, http: &http.Client{Timeout: 10 * time.Second}}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the server address the client was created with.
func (c *Client) BaseURL() string { return c.base.String() }

// List returns every contact in server order.
func (c *Client) List(ctx context.Context) ([]models.Contact, error) {
	var out []models.Contact
	if err := c.do(ctx, http.MethodGet, basePath, nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []models.Contact{}
	}
	return out, nil
}

// Get returns a single contact.
func (c *Client) Get(ctx context.Context, id string) (models.Contact, error) {
	var out models.Contact
	err := c.do(ctx, http.MethodGet, basePath+"/"+url.PathEscape(id), nil, &out)
	return out, err
}

// Create adds a contact. The server assigns its ID.
func (c *Client) Create(ctx context.Context, req models.ContactCreate) (models.Contact, error) {
	var out models.Contact
	err := c.do(ctx, http.MethodPost, basePath, req, &out)
	return out, err
}

// Update replaces the contact with the given ID.
func (c *Client) Update(ctx context.Context, id string, contact models.Contact) (models.Contact, error) {
	body := models.ContactUpdate{ID: id, Name: contact.Name, Number: contact.Number}
	var out models.Contact
	err := c.do(ctx, http.MethodPut, basePath+"/"+url.PathEscape(id), body, &out)
	return out, err
}

// Delete removes the contact with the given ID.
func (c *Client) Delete(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, basePath+"/"+url.PathEscape(id), nil, nil)
}

// Info fetches the server summary.
func (c *Client) Info(ctx context.Context) (models.Info, error) {
	var out models.Info
	err := c.do(ctx, http.MethodGet, "/info", nil, &out)
	return out, err
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base.String()+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set(HeaderAPIKey, c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &Error{Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return &Error{Status: resp.StatusCode, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp.StatusCode, data)
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &Error{Status: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}
