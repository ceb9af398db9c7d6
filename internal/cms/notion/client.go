package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const (
	defaultBaseURL = "https://api.notion.com/v1"

	// apiVersion pins the Notion API revision; property and block shapes
	// depend on it.
	apiVersion = "2022-06-28"

	requestTimeout = 60 * time.Second
)

// Client is a minimal Notion REST client covering the calls the adapter
// needs. It is stateless: the integration token is passed per call so one
// client serves every tenant connection.
type Client struct {
	logger     *slog.Logger
	httpClient *http.Client
	baseURL    string
}

// ClientOption customizes a Client.
type ClientOption func(*Client)

// WithBaseURL overrides the API base URL. Used by tests.
func WithBaseURL(url string) ClientOption {
	return func(c *Client) { c.baseURL = url }
}

// NewClient creates a Notion API client.
func NewClient(logger *slog.Logger, opts ...ClientOption) *Client {
	if logger == nil {
		logger = slog.Default()
	}

	c := &Client{
		logger:     logger.With("component", "notion_client"),
		httpClient: &http.Client{Timeout: requestTimeout},
		baseURL:    defaultBaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Page is the subset of a Notion page object the adapter consumes.
type Page struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// QueryResult is one page returned by a database query, with its properties
// kept raw for the caller to pick apart.
type QueryResult struct {
	ID          string                     `json:"id"`
	CreatedTime time.Time                  `json:"created_time"`
	Properties  map[string]json.RawMessage `json:"properties"`
}

type queryResponse struct {
	Results []QueryResult `json:"results"`
}

type apiError struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// CreatePage creates a page in a database with the given properties and
// initial children blocks.
func (c *Client) CreatePage(ctx context.Context, token, databaseID string, properties map[string]any, children []Block) (*Page, error) {
	body := map[string]any{
		"parent":     map[string]any{"database_id": databaseID},
		"properties": properties,
	}
	if len(children) > 0 {
		body["children"] = children
	}

	var page Page
	if err := c.do(ctx, token, http.MethodPost, "/pages", body, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// AppendBlockChildren appends blocks to an existing page or block.
func (c *Client) AppendBlockChildren(ctx context.Context, token, blockID string, children []Block) error {
	body := map[string]any{"children": children}
	return c.do(ctx, token, http.MethodPatch, "/blocks/"+blockID+"/children", body, nil)
}

// QueryDatabase runs a filtered database query and returns the matching
// pages.
func (c *Client) QueryDatabase(ctx context.Context, token, databaseID string, filter map[string]any) ([]QueryResult, error) {
	body := map[string]any{}
	if filter != nil {
		body["filter"] = filter
	}

	var resp queryResponse
	if err := c.do(ctx, token, http.MethodPost, "/databases/"+databaseID+"/query", body, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// UpdatePageProperties patches properties on an existing page.
func (c *Client) UpdatePageProperties(ctx context.Context, token, pageID string, properties map[string]any) error {
	body := map[string]any{"properties": properties}
	return c.do(ctx, token, http.MethodPatch, "/pages/"+pageID, body, nil)
}

func (c *Client) do(ctx context.Context, token, method, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Notion-Version", apiVersion)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("notion API request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read notion API response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr apiError
		if jsonErr := json.Unmarshal(respBody, &apiErr); jsonErr == nil && apiErr.Message != "" {
			return fmt.Errorf("notion API %s %s: %s (%s)", method, path, apiErr.Message, apiErr.Code)
		}
		return fmt.Errorf("notion API %s %s: status %d", method, path, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("parse notion API response: %w", err)
	}
	return nil
}
