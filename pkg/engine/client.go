// Package engine is the HTTP client for the external document QA engine.
// The engine owns ingestion, retrieval and generation; this side only speaks
// its three endpoints and hands raw answer payloads to the normalizer.
package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

type Client struct {
	BaseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = "http://localhost:8000"
	}
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Client{
		BaseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// IngestResult is the success contract shared by both ingest endpoints.
type IngestResult struct {
	RequestID string `json:"request_id"`
}

// AnswerResult carries the answer text plus the raw response object so the
// caller can normalize whichever citation shape the engine used.
type AnswerResult struct {
	Answer string
	Raw    json.RawMessage
}

// envelope is the engine's outer wire format: {"response": {...}}.
type envelope struct {
	Response json.RawMessage `json:"response"`
}

type loadFromWebRequest struct {
	URL string `json:"url"`
}

type customChatRequest struct {
	Question  string `json:"question"`
	RequestID string `json:"request_id"`
}

// UploadDocument posts a multipart form with a "file" field and returns the
// request id binding subsequent questions to the ingested document.
func (c *Client) UploadDocument(ctx context.Context, filename string, file io.Reader) (*IngestResult, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/api/upload", &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	return c.doIngest(req)
}

// LoadFromWeb asks the engine to ingest the page behind url.
func (c *Client) LoadFromWeb(ctx context.Context, url string) (*IngestResult, error) {
	jsonBody, err := json.Marshal(loadFromWebRequest{URL: url})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/api/load-from-web", bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	return c.doIngest(req)
}

func (c *Client) doIngest(req *http.Request) (*IngestResult, error) {
	raw, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var result IngestResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("decode ingest response: %w", err)
	}
	if result.RequestID == "" {
		return nil, fmt.Errorf("engine response is missing request_id")
	}
	return &result, nil
}

// Ask sends a question bound to requestID and returns the answer plus the
// raw response payload for source normalization.
func (c *Client) Ask(ctx context.Context, question, requestID string) (*AnswerResult, error) {
	jsonBody, err := json.Marshal(customChatRequest{Question: question, RequestID: requestID})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/api/custom-chat", bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	raw, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var answer struct {
		Answer string `json:"answer"`
	}
	if err := json.Unmarshal(raw, &answer); err != nil {
		return nil, fmt.Errorf("decode answer response: %w", err)
	}

	return &AnswerResult{Answer: answer.Answer, Raw: raw}, nil
}

// do executes the request and unwraps the {"response": ...} envelope.
func (c *Client) do(req *http.Request) (json.RawMessage, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("engine error (%d): %s", resp.StatusCode, string(bodyBytes))
	}

	var env envelope
	if err := json.Unmarshal(bodyBytes, &env); err != nil {
		return nil, fmt.Errorf("decode engine envelope: %w", err)
	}
	if len(env.Response) == 0 {
		return nil, fmt.Errorf("engine envelope is missing response object")
	}
	return env.Response, nil
}
