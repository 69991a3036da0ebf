// Package webiny is a small GraphQL client for the Webiny headless CMS read
// API and its file manager.
package webiny

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// ErrNoData is returned when a response carries neither errors nor data.
var ErrNoData = errors.New("webiny: response has no data")

// Logger is the subset of the gommon/echo logger the client writes to.
type Logger interface {
	Warnf(format string, args ...interface{})
}

// GraphQLErrorItem is one entry of a GraphQL "errors" array.
type GraphQLErrorItem struct {
	Message string        `json:"message"`
	Path    []interface{} `json:"path,omitempty"`
}

// GraphQLError is returned when the CMS answers with a non-empty errors
// array. Error() reports the first message only.
type GraphQLError struct {
	Errors []GraphQLErrorItem
}

func (e *GraphQLError) Error() string {
	if len(e.Errors) == 0 {
		return "webiny: graphql error"
	}
	return "webiny: graphql error: " + e.Errors[0].Message
}

// StatusError is returned for non-2xx responses that carry no GraphQL errors.
type StatusError struct {
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("webiny: API error: %s", e.Status)
}

// Client posts GraphQL queries to a Webiny read endpoint and, for file
// metadata, to the file manager endpoint.
type Client struct {
	endpoint   string
	fmEndpoint string
	token      string
	httpClient *http.Client
	logger     Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithFileManagerEndpoint sets the endpoint used for file metadata queries
// (default: the read endpoint).
func WithFileManagerEndpoint(endpoint string) Option {
	return func(c *Client) {
		c.fmEndpoint = endpoint
	}
}

// WithLogger sets where secondary GraphQL errors are reported.
func WithLogger(l Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// NewClient creates a Client for endpoint authenticated with a bearer token.
// No request timeout is configured; cancel through the context instead.
func NewClient(endpoint, token string, opts ...Option) *Client {
	c := &Client{
		endpoint:   endpoint,
		fmEndpoint: endpoint,
		token:      token,
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type graphQLRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables,omitempty"`
}

type graphQLResponse struct {
	Data   json.RawMessage    `json:"data"`
	Errors []GraphQLErrorItem `json:"errors"`
}

// Request sends query with optional variables to the read endpoint and
// decodes the "data" member into out. out may be nil.
func (c *Client) Request(ctx context.Context, query string, variables map[string]interface{}, out interface{}) error {
	return c.do(ctx, c.endpoint, query, variables, out)
}

// RequestFileManager is Request against the file manager endpoint.
func (c *Client) RequestFileManager(ctx context.Context, query string, variables map[string]interface{}, out interface{}) error {
	return c.do(ctx, c.fmEndpoint, query, variables, out)
}

func (c *Client) do(ctx context.Context, endpoint, query string, variables map[string]interface{}, out interface{}) error {
	payload, err := json.Marshal(graphQLRequest{Query: query, Variables: variables})
	if err != nil {
		return fmt.Errorf("webiny: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("webiny: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("webiny: request %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("webiny: read response: %w", err)
	}

	ok := resp.StatusCode >= 200 && resp.StatusCode < 300

	var decoded graphQLResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		if !ok {
			return &StatusError{StatusCode: resp.StatusCode, Status: statusText(resp)}
		}
		return fmt.Errorf("webiny: decode response: %w", err)
	}

	if len(decoded.Errors) > 0 {
		if c.logger != nil {
			for _, e := range decoded.Errors[1:] {
				c.logger.Warnf("webiny: additional graphql error: %s", e.Message)
			}
		}
		return &GraphQLError{Errors: decoded.Errors}
	}
	if !ok {
		return &StatusError{StatusCode: resp.StatusCode, Status: statusText(resp)}
	}

	if out == nil {
		return nil
	}
	if len(decoded.Data) == 0 || string(decoded.Data) == "null" {
		return ErrNoData
	}
	if err := json.Unmarshal(decoded.Data, out); err != nil {
		return fmt.Errorf("webiny: decode data: %w", err)
	}
	return nil
}

func statusText(resp *http.Response) string {
	if s := strings.TrimSpace(resp.Status); s != "" {
		return s
	}
	return fmt.Sprintf("%d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
}
