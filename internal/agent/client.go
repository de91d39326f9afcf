package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// StatusError is a non-2xx answer from an agent.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("agent error (%d): %s", e.Code, e.Message)
	}
	return fmt.Sprintf("agent error (%d)", e.Code)
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), httpClient: httpClient}
}

func (c *Client) Start(ctx context.Context, id, typ string) (*ProcessResponse, error) {
	var resp ProcessResponse
	err := c.do(ctx, http.MethodPost, "/processes", StartRequest{ID: id, Type: typ}, &resp)
	return &resp, err
}

func (c *Client) Pause(ctx context.Context, id string) (*ProcessState, error) {
	var state ProcessState
	err := c.do(ctx, http.MethodPost, "/processes/"+id+"/pause", nil, &state)
	return &state, err
}

func (c *Client) Resume(ctx context.Context, id string, data []byte) (*ProcessResponse, error) {
	var resp ProcessResponse
	err := c.do(ctx, http.MethodPost, "/processes/"+id+"/resume", ResumeRequest{Data: data}, &resp)
	return &resp, err
}

func (c *Client) Status(ctx context.Context, id string) (*StatusResponse, error) {
	var resp StatusResponse
	err := c.do(ctx, http.MethodGet, "/processes/"+id, nil, &resp)
	return &resp, err
}

func (c *Client) Forget(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/processes/"+id, nil, nil)
}

func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	var resp HealthResponse
	err := c.do(ctx, http.MethodGet, "/health", nil, &resp)
	return &resp, err
}

func (c *Client) do(ctx context.Context, method, path string, body, target interface{}) error {
	var bodyReader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return err
		}
		bodyReader = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(resp.Body)
		return &StatusError{Code: resp.StatusCode, Message: strings.TrimSpace(string(msg))}
	}
	if target != nil && resp.StatusCode != http.StatusNoContent {
		return json.NewDecoder(resp.Body).Decode(target)
	}
	return nil
}
