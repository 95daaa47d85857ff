// Package gitlab is the transport boundary: it issues GraphQL and REST
// calls against one GitLab-compatible instance and returns decoded JSON
// or a classified error. Nothing above this package builds HTTP requests,
// and nothing in it interprets work-item semantics.
package gitlab

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/oauth2"
)

const (
	defaultAPIPath = "/api/graphql"
	restPrefix     = "/api/v4"
)

// Client is the shared transport for a single instance. It holds no
// request state; one instance is safe for concurrent use.
type Client struct {
	baseURL string
	apiPath string
	http    *http.Client
}

// ClientOptions configures a Client.
type ClientOptions struct {
	// BaseURL is the instance root, e.g. "https://gitlab.example.com".
	BaseURL string
	// Token is the bearer token for all calls.
	Token string
	// APIPath overrides the GraphQL endpoint path (default /api/graphql).
	APIPath string
	// HTTPClient, when set, replaces the oauth2-wrapped default. Timeouts
	// and proxies are configured here; the client adds none of its own.
	HTTPClient *http.Client
}

// NewClient builds a Client whose HTTP stack injects the bearer token via
// an oauth2 static token source.
func NewClient(opts ClientOptions) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, fmt.Errorf("gitlab: base URL is required")
	}
	base := strings.TrimRight(opts.BaseURL, "/")
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("gitlab: invalid base URL %q: %w", opts.BaseURL, err)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Token})
		httpClient = oauth2.NewClient(context.Background(), src)
	}

	apiPath := opts.APIPath
	if apiPath == "" {
		apiPath = defaultAPIPath
	}

	return &Client{baseURL: base, apiPath: apiPath, http: httpClient}, nil
}

// graphQLEnvelope is the standard GraphQL response wrapper.
type graphQLEnvelope struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// GraphQL posts a query with variables and returns the raw "data" object.
// Top-level errors become a RequestError or PermissionError; transport and
// decode failures become a ServerError carrying op.
func (c *Client) GraphQL(ctx context.Context, op, query string, vars map[string]any) (json.RawMessage, error) {
	payload := map[string]any{"query": query}
	if len(vars) > 0 {
		payload["variables"] = vars
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, &ServerError{Op: op, Err: fmt.Errorf("encoding request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+c.apiPath, bytes.NewReader(body))
	if err != nil {
		return nil, &ServerError{Op: op, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &ServerError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, &PermissionError{Message: fmt.Sprintf("%s: HTTP %d", op, resp.StatusCode)}
	case resp.StatusCode != http.StatusOK:
		return nil, &ServerError{Op: op, Err: fmt.Errorf("HTTP %d", resp.StatusCode)}
	}

	var envelope graphQLEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, &ServerError{Op: op, Err: fmt.Errorf("decoding response: %w", err)}
	}
	if len(envelope.Errors) > 0 {
		messages := make([]string, len(envelope.Errors))
		for i, e := range envelope.Errors {
			messages[i] = e.Message
		}
		return nil, classifyMessages(messages)
	}
	return envelope.Data, nil
}

// restError is GitLab's REST error body; message can be a string or an
// object, so it is kept raw and flattened for display.
type restError struct {
	Message json.RawMessage `json:"message"`
	Error   string          `json:"error"`
}

// REST issues a v4 REST call. path starts with "/" (e.g. "/groups/1/epics").
// A non-nil body is JSON-encoded; a non-nil out receives the decoded 2xx
// response body.
func (c *Client) REST(ctx context.Context, method, path string, query url.Values, body, out any) error {
	op := method + " " + path

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return &ServerError{Op: op, Err: fmt.Errorf("encoding request: %w", err)}
		}
		reader = bytes.NewReader(encoded)
	}

	endpoint := c.baseURL + restPrefix + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return &ServerError{Op: op, Err: err}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &ServerError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return &ServerError{Op: op, Err: fmt.Errorf("decoding response: %w", err)}
		}
		return nil
	}

	raw, _ := io.ReadAll(resp.Body)
	switch resp.StatusCode {
	case http.StatusNotFound:
		return &NotFoundError{Resource: restResource(path)}
	case http.StatusUnauthorized, http.StatusForbidden:
		return &PermissionError{Message: fmt.Sprintf("%s: %s", op, restMessage(raw, resp.StatusCode))}
	case http.StatusBadRequest, http.StatusConflict, http.StatusUnprocessableEntity:
		return Requestf("%s: %s", op, restMessage(raw, resp.StatusCode))
	default:
		return &ServerError{Op: op, Err: fmt.Errorf("HTTP %d: %s", resp.StatusCode, restMessage(raw, resp.StatusCode))}
	}
}

// restMessage extracts a human-readable message from a REST error body,
// falling back to the status code.
func restMessage(raw []byte, status int) string {
	var parsed restError
	if err := json.Unmarshal(raw, &parsed); err == nil {
		if len(parsed.Message) > 0 {
			var s string
			if json.Unmarshal(parsed.Message, &s) == nil {
				return s
			}
			return string(parsed.Message)
		}
		if parsed.Error != "" {
			return parsed.Error
		}
	}
	return fmt.Sprintf("HTTP %d", status)
}

// restResource names the entity kind a REST path addresses, for NotFound
// messages.
func restResource(path string) string {
	switch {
	case strings.Contains(path, "/epics/") && strings.Contains(path, "/issues"):
		return "epic-issue association"
	case strings.Contains(path, "/epics"):
		return "epic"
	case strings.HasPrefix(path, "/groups"):
		return "group"
	case strings.HasPrefix(path, "/projects"):
		return "project"
	default:
		return "resource"
	}
}
