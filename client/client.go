// Package client talks to the inbox API server and implements store.Backend.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/valyala/fasthttp"

	"nexusdesk/models"
	"nexusdesk/store"
)

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api status %d: %s", e.Status, e.Message)
}

type Client struct {
	http    *fasthttp.Client
	baseURL string
	timeout time.Duration
}

var _ store.Backend = (*Client)(nil)

func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		http: &fasthttp.Client{
			Name:                "nexusdesk-triage",
			MaxIdleConnDuration: time.Minute,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
	}
}

func (c *Client) FetchAll(ctx context.Context) ([]models.Message, error) {
	var msgs []models.Message
	if err := c.do(ctx, fasthttp.MethodGet, "/messages", nil, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

func (c *Client) Analyze(ctx context.Context, req store.AnalyzeRequest) (models.Analysis, error) {
	var result models.Analysis
	if err := c.do(ctx, fasthttp.MethodPost, "/analyze-ticket", req, &result); err != nil {
		return models.Analysis{}, err
	}
	return result, nil
}

func (c *Client) Send(ctx context.Context, id uint, reply string) error {
	body := struct {
		Reply string `json:"reply"`
	}{Reply: reply}
	return c.do(ctx, fasthttp.MethodPost, fmt.Sprintf("/messages/%d/send", id), body, nil)
}

func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.baseURL + path)
	req.Header.SetMethod(method)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		req.Header.SetContentType("application/json")
		req.SetBody(data)
	}

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := c.http.DoDeadline(req, resp, deadline); err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}

	status := resp.StatusCode()
	if status < 200 || status >= 300 {
		return &APIError{Status: status, Message: errorMessage(resp.Body())}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func errorMessage(body []byte) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error != "" {
		return payload.Error
	}
	if len(body) > 200 {
		body = body[:200]
	}
	return strings.TrimSpace(string(body))
}
