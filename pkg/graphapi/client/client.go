// Package client is a small Go client for the graphapi HTTP API.
//
//	c, _ := client.New("http://localhost:8080")
//	doc, err := c.Get(ctx, "containers", "web-1", &client.Query{Include: "host"})
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"evalgo.org/graphapi/pkg/jsonapi"
)

const mediaType = "application/vnd.api+json"

type Client struct {
	baseURL    string
	httpClient *http.Client
	token      string
	apiKey     string
}

// Option configures a Client.
type Option func(*Client)

// WithToken sends token as a bearer token.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithAPIKey sends key in the X-API-Key header.
func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = key }
}

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func New(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("baseURL is required")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("invalid baseURL: %w", err)
	}

	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/") + "/api/v1",
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Query holds the document parameters of a read.
type Query struct {
	Include string
	// Fields maps a type to the attributes to keep.
	Fields              map[string][]string
	ExcludeBlankLinkage *bool
	PreventDuplicates   *bool
	Limit               int
	Offset              int
}

func (q *Query) values() url.Values {
	v := url.Values{}
	if q == nil {
		return v
	}
	if q.Include != "" {
		v.Set("include", q.Include)
	}
	types := make([]string, 0, len(q.Fields))
	for typ := range q.Fields {
		types = append(types, typ)
	}
	sort.Strings(types)
	for _, typ := range types {
		v.Set("fields["+typ+"]", strings.Join(q.Fields[typ], ","))
	}
	if q.ExcludeBlankLinkage != nil {
		v.Set("exclude_blank_linkage", strconv.FormatBool(*q.ExcludeBlankLinkage))
	}
	if q.PreventDuplicates != nil {
		v.Set("prevent_duplicates", strconv.FormatBool(*q.PreventDuplicates))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Offset > 0 {
		v.Set("offset", strconv.Itoa(q.Offset))
	}
	return v
}

// ErrorObject is one entry of an error response.
type ErrorObject struct {
	Status string `json:"status"`
	Title  string `json:"title"`
	Detail string `json:"detail,omitempty"`
	Source *struct {
		Pointer   string `json:"pointer,omitempty"`
		Parameter string `json:"parameter,omitempty"`
	} `json:"source,omitempty"`
}

// Error is returned for any non-2xx response.
type Error struct {
	StatusCode int
	Errors     []ErrorObject
}

func (e *Error) Error() string {
	if len(e.Errors) == 0 {
		return fmt.Sprintf("graphapi: HTTP %d", e.StatusCode)
	}
	first := e.Errors[0]
	msg := fmt.Sprintf("graphapi: HTTP %d: %s", e.StatusCode, first.Title)
	if first.Detail != "" {
		msg += ": " + first.Detail
	}
	if n := len(e.Errors) - 1; n > 0 {
		msg += fmt.Sprintf(" (and %d more)", n)
	}
	return msg
}

// List fetches a page of resources of one type.
func (c *Client) List(ctx context.Context, typ string, q *Query) (*jsonapi.Document, error) {
	var doc jsonapi.Document
	if err := c.do(ctx, http.MethodGet, "/"+url.PathEscape(typ), q, nil, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Get fetches one resource.
func (c *Client) Get(ctx context.Context, typ, id string, q *Query) (*jsonapi.Document, error) {
	var doc jsonapi.Document
	if err := c.do(ctx, http.MethodGet, resourcePath(typ, id), q, nil, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Relationship fetches the linkage of one relationship.
func (c *Client) Relationship(ctx context.Context, typ, id, name string) (*jsonapi.Relationship, error) {
	var rel jsonapi.Relationship
	path := resourcePath(typ, id) + "/relationships/" + url.PathEscape(name)
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &rel); err != nil {
		return nil, err
	}
	return &rel, nil
}

// Related fetches the resources a relationship points at.
func (c *Client) Related(ctx context.Context, typ, id, name string, q *Query) (*jsonapi.Document, error) {
	var doc jsonapi.Document
	path := resourcePath(typ, id) + "/" + url.PathEscape(name)
	if err := c.do(ctx, http.MethodGet, path, q, nil, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Create stores model, a JSON-LD host, container or stack, and returns the
// created resource.
func (c *Client) Create(ctx context.Context, typ string, model any) (*jsonapi.Document, error) {
	body, err := json.Marshal(model)
	if err != nil {
		return nil, fmt.Errorf("failed to encode model: %w", err)
	}
	var doc jsonapi.Document
	if err := c.do(ctx, http.MethodPost, "/"+url.PathEscape(typ), nil, body, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Delete removes a resource.
func (c *Client) Delete(ctx context.Context, typ, id string) error {
	return c.do(ctx, http.MethodDelete, resourcePath(typ, id), nil, nil, nil)
}

func resourcePath(typ, id string) string {
	return "/" + url.PathEscape(typ) + "/" + url.PathEscape(id)
}

func (c *Client) do(ctx context.Context, method, path string, q *Query, body []byte, out any) error {
	u := c.baseURL + path
	if v := q.values(); len(v) > 0 {
		u += "?" + v.Encode()
	}

	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, r)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", mediaType)
	if body != nil {
		req.Header.Set("Content-Type", "application/ld+json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 300 {
		apiErr := &Error{StatusCode: resp.StatusCode}
		var doc struct {
			Errors []ErrorObject `json:"errors"`
		}
		if json.Unmarshal(data, &doc) == nil {
			apiErr.Errors = doc.Errors
		}
		return apiErr
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
