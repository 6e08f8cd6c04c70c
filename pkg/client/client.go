// Package client is the Go client for the corelens API, used by the CLI
// commands. StreamChat hands the raw SSE body to pkg/stream for decoding.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/corelens-ai/corelens/pkg/dictionary"
	"github.com/corelens-ai/corelens/pkg/explorer"
	"github.com/corelens-ai/corelens/pkg/llm"
	"github.com/corelens-ai/corelens/pkg/quality"
	"github.com/corelens-ai/corelens/pkg/storage"
)

// Client talks to a corelens API server.
type Client struct {
	baseURL string
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// New creates a client for the API server at baseURL (e.g.
// "http://localhost:8081").
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		// No overall timeout: StreamChat responses stay open for the
		// duration of the assistant turn.
		http: &http.Client{},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Ping checks that the API server is reachable.
func (c *Client) Ping(ctx context.Context) error {
	var pong string
	if err := c.doJSON(ctx, http.MethodGet, "/ping", nil, &pong); err != nil {
		return err
	}
	if pong != "pong" {
		return fmt.Errorf("unexpected ping response: %q", pong)
	}
	return nil
}

// UploadDataset uploads a CSV as multipart form data and returns the
// ingested dataset record.
func (c *Client) UploadDataset(ctx context.Context, name, filename string, src io.Reader) (*storage.Dataset, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("building multipart body: %w", err)
	}
	if _, err := io.Copy(part, src); err != nil {
		return nil, fmt.Errorf("copying file data: %w", err)
	}
	if name != "" {
		if err := writer.WriteField("name", name); err != nil {
			return nil, fmt.Errorf("building multipart body: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("building multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/datasets", &body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	var ds storage.Dataset
	if err := c.roundTrip(req, &ds); err != nil {
		return nil, err
	}
	return &ds, nil
}

func (c *Client) ListDatasets(ctx context.Context) ([]*storage.Dataset, error) {
	var out struct {
		Datasets []*storage.Dataset `json:"datasets"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/datasets", nil, &out); err != nil {
		return nil, err
	}
	return out.Datasets, nil
}

func (c *Client) GetDataset(ctx context.Context, id string) (*storage.Dataset, error) {
	var ds storage.Dataset
	if err := c.doJSON(ctx, http.MethodGet, "/datasets/"+url.PathEscape(id), nil, &ds); err != nil {
		return nil, err
	}
	return &ds, nil
}

func (c *Client) DeleteDataset(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/datasets/"+url.PathEscape(id), nil, nil)
}

func (c *Client) QualityReport(ctx context.Context, datasetID string) (*quality.Report, error) {
	var report quality.Report
	if err := c.doJSON(ctx, http.MethodGet, "/datasets/"+url.PathEscape(datasetID)+"/quality", nil, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

func (c *Client) ListDictionary(ctx context.Context, datasetID string) ([]*storage.DictionaryEntry, error) {
	var out struct {
		Entries []*storage.DictionaryEntry `json:"entries"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/datasets/"+url.PathEscape(datasetID)+"/dictionary", nil, &out); err != nil {
		return nil, err
	}
	return out.Entries, nil
}

// UpdateDictionary sets the description and tags for one column.
func (c *Client) UpdateDictionary(ctx context.Context, datasetID, column, description string, tags []string) (*storage.DictionaryEntry, error) {
	payload := map[string]any{
		"description": description,
		"tags":        tags,
	}

	var entry storage.DictionaryEntry
	path := "/datasets/" + url.PathEscape(datasetID) + "/dictionary/" + url.PathEscape(column)
	if err := c.doJSON(ctx, http.MethodPut, path, payload, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

func (c *Client) SearchDictionary(ctx context.Context, datasetID, query string, limit int) ([]dictionary.SearchResult, error) {
	path := "/datasets/" + url.PathEscape(datasetID) + "/dictionary/search?query=" + url.QueryEscape(query)
	if limit > 0 {
		path += "&limit=" + strconv.Itoa(limit)
	}

	var out struct {
		Results []dictionary.SearchResult `json:"results"`
	}
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Results, nil
}

// Query runs a read-only SQL statement through the explorer.
func (c *Client) Query(ctx context.Context, sql string) (*explorer.Result, error) {
	var result explorer.Result
	if err := c.doJSON(ctx, http.MethodPost, "/explorer/query", map[string]string{"sql": sql}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) GenerateInsight(ctx context.Context, datasetID string) (*storage.Insight, error) {
	var insight storage.Insight
	if err := c.doJSON(ctx, http.MethodPost, "/datasets/"+url.PathEscape(datasetID)+"/insights", nil, &insight); err != nil {
		return nil, err
	}
	return &insight, nil
}

func (c *Client) ListInsights(ctx context.Context, datasetID string) ([]*storage.Insight, error) {
	var out struct {
		Insights []*storage.Insight `json:"insights"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/datasets/"+url.PathEscape(datasetID)+"/insights", nil, &out); err != nil {
		return nil, err
	}
	return out.Insights, nil
}

func (c *Client) GetInsight(ctx context.Context, id string) (*storage.Insight, error) {
	var insight storage.Insight
	if err := c.doJSON(ctx, http.MethodGet, "/insights/"+url.PathEscape(id), nil, &insight); err != nil {
		return nil, err
	}
	return &insight, nil
}

func (c *Client) CreateModel(ctx context.Context, name, task, version string) (*storage.Model, error) {
	payload := map[string]string{"name": name, "task": task, "version": version}

	var model storage.Model
	if err := c.doJSON(ctx, http.MethodPost, "/models", payload, &model); err != nil {
		return nil, err
	}
	return &model, nil
}

func (c *Client) ListModels(ctx context.Context) ([]*storage.Model, error) {
	var out struct {
		Models []*storage.Model `json:"models"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/models", nil, &out); err != nil {
		return nil, err
	}
	return out.Models, nil
}

func (c *Client) CreateRecipe(ctx context.Context, name, modelID string, definition map[string]any) (*storage.Recipe, error) {
	payload := map[string]any{"name": name, "model_id": modelID, "definition": definition}

	var recipe storage.Recipe
	if err := c.doJSON(ctx, http.MethodPost, "/recipes", payload, &recipe); err != nil {
		return nil, err
	}
	return &recipe, nil
}

func (c *Client) ListRecipes(ctx context.Context) ([]*storage.Recipe, error) {
	var out struct {
		Recipes []*storage.Recipe `json:"recipes"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/recipes", nil, &out); err != nil {
		return nil, err
	}
	return out.Recipes, nil
}

func (c *Client) CreateRun(ctx context.Context, recipeID string) (*storage.Run, error) {
	var run storage.Run
	if err := c.doJSON(ctx, http.MethodPost, "/recipes/"+url.PathEscape(recipeID)+"/runs", nil, &run); err != nil {
		return nil, err
	}
	return &run, nil
}

func (c *Client) ListRuns(ctx context.Context, recipeID string) ([]*storage.Run, error) {
	var out struct {
		Runs []*storage.Run `json:"runs"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/recipes/"+url.PathEscape(recipeID)+"/runs", nil, &out); err != nil {
		return nil, err
	}
	return out.Runs, nil
}

func (c *Client) GetRun(ctx context.Context, id string) (*storage.Run, error) {
	var run storage.Run
	if err := c.doJSON(ctx, http.MethodGet, "/runs/"+url.PathEscape(id), nil, &run); err != nil {
		return nil, err
	}
	return &run, nil
}

func (c *Client) StartRun(ctx context.Context, id string) (*storage.Run, error) {
	var run storage.Run
	if err := c.doJSON(ctx, http.MethodPost, "/runs/"+url.PathEscape(id)+"/start", nil, &run); err != nil {
		return nil, err
	}
	return &run, nil
}

func (c *Client) CompleteRun(ctx context.Context, id string, metrics map[string]float64) (*storage.Run, error) {
	var run storage.Run
	payload := map[string]any{"metrics": metrics}
	if err := c.doJSON(ctx, http.MethodPost, "/runs/"+url.PathEscape(id)+"/complete", payload, &run); err != nil {
		return nil, err
	}
	return &run, nil
}

func (c *Client) FailRun(ctx context.Context, id, message string) (*storage.Run, error) {
	var run storage.Run
	payload := map[string]string{"error": message}
	if err := c.doJSON(ctx, http.MethodPost, "/runs/"+url.PathEscape(id)+"/fail", payload, &run); err != nil {
		return nil, err
	}
	return &run, nil
}

// doJSON sends a JSON request and decodes a JSON response into out (when
// non-nil). Non-2xx responses are decoded as the API error envelope.
func (c *Client) doJSON(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.roundTrip(req, out)
}

func (c *Client) roundTrip(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("calling API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return apiError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func apiError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))

	var envelope llm.ErrorResponse
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Error != "" {
		return fmt.Errorf("API error (%d): %s", resp.StatusCode, envelope.Error)
	}
	return fmt.Errorf("API error (%d): %s", resp.StatusCode, strings.TrimSpace(string(raw)))
}
