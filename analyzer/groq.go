package analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/valyala/fasthttp"

	"nexusdesk/models"
)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// GroqAnalyzer calls an OpenAI-compatible chat completions endpoint.
type GroqAnalyzer struct {
	client  *fasthttp.Client
	baseURL string
	apiKey  string
	model   string
	timeout time.Duration
	logger  *logrus.Entry
}

func NewGroqAnalyzer(baseURL, apiKey, model string, timeout time.Duration, logger *logrus.Entry) *GroqAnalyzer {
	return &GroqAnalyzer{
		client: &fasthttp.Client{
			Name:                "nexusdesk",
			MaxIdleConnDuration: time.Minute,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		timeout: timeout,
		logger:  logger,
	}
}

func (g *GroqAnalyzer) Analyze(ctx context.Context, text, tone string) (models.Analysis, error) {
	if err := ctx.Err(); err != nil {
		return models.Analysis{}, err
	}

	body, err := json.Marshal(chatRequest{
		Model:       g.model,
		Messages:    []chatMessage{{Role: "user", Content: BuildPrompt(text, tone)}},
		Temperature: 0,
	})
	if err != nil {
		return models.Analysis{}, fmt.Errorf("encode chat request: %w", err)
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(g.baseURL + "/chat/completions")
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)
	req.SetBody(body)

	deadline := time.Now().Add(g.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	started := time.Now()
	if err := g.client.DoDeadline(req, resp, deadline); err != nil {
		return models.Analysis{}, fmt.Errorf("chat completion request: %v: %w", err, ErrAIBusy)
	}
	g.logger.WithFields(logrus.Fields{
		"status":  resp.StatusCode(),
		"latency": time.Since(started).String(),
		"model":   g.model,
	}).Debug("Chat completion returned")

	var decoded chatResponse
	if err := json.Unmarshal(resp.Body(), &decoded); err != nil {
		return models.Analysis{}, fmt.Errorf("decode chat response (status %d): %v: %w", resp.StatusCode(), err, ErrAIBusy)
	}
	if resp.StatusCode() != fasthttp.StatusOK {
		msg := "unexpected status"
		if decoded.Error != nil {
			msg = decoded.Error.Message
		}
		return models.Analysis{}, fmt.Errorf("chat completion status %d: %s: %w", resp.StatusCode(), msg, ErrAIBusy)
	}
	if len(decoded.Choices) == 0 {
		return models.Analysis{}, fmt.Errorf("chat completion returned no choices: %w", ErrAIBusy)
	}

	return ParseAnalysis(decoded.Choices[0].Message.Content)
}
