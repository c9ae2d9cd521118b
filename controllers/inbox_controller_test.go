package controller

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nexusdesk/analyzer"
	"nexusdesk/dispatch"
	"nexusdesk/models"
	"nexusdesk/storage"
)

type stubAnalyzer struct {
	result models.Analysis
	err    error
	tone   string
	text   string
}

func (s *stubAnalyzer) Analyze(ctx context.Context, text, tone string) (models.Analysis, error) {
	s.text, s.tone = text, tone
	return s.result, s.err
}

type stubDispatcher struct {
	err     error
	replies map[uint]string
}

func (s *stubDispatcher) Dispatch(ctx context.Context, msg models.Message, reply string) error {
	if s.err != nil {
		return s.err
	}
	if s.replies == nil {
		s.replies = make(map[uint]string)
	}
	s.replies[msg.ID] = reply
	return nil
}

type testEnv struct {
	app        *fiber.App
	repo       *storage.MemoryRepository
	analyzer   *stubAnalyzer
	dispatcher *stubDispatcher
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	l := logrus.New()
	l.SetOutput(io.Discard)

	env := &testEnv{
		repo:       storage.NewMemoryRepository(models.DefaultMessages()),
		analyzer:   &stubAnalyzer{},
		dispatcher: &stubDispatcher{},
	}
	ic := NewInboxController(env.repo, env.analyzer, env.dispatcher, "Professional", logrus.NewEntry(l))

	env.app = fiber.New()
	env.app.Get("/messages", ic.GetMessages)
	env.app.Post("/analyze-ticket", ic.AnalyzeTicket)
	env.app.Post("/messages/:id/send", ic.SendReply)
	return env
}

func (e *testEnv) do(t *testing.T, method, path, body string) (*http.Response, []byte) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := e.app.Test(req)
	require.NoError(t, err)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func TestGetMessages(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.do(t, "GET", "/messages", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var msgs []models.Message
	require.NoError(t, json.Unmarshal(body, &msgs))
	require.Len(t, msgs, 7)
	assert.Equal(t, "Alice Chen", msgs[0].Customer)
	assert.Equal(t, models.StatusOpen, msgs[0].Status)
	assert.NotContains(t, string(body), "isGenerating")
}

func TestAnalyzeTicket_StoresResult(t *testing.T) {
	env := newTestEnv(t)
	env.analyzer.result = models.Analysis{
		Sentiment: models.SentimentNeutral,
		Reply:     models.ReplyText("Yes, you can upgrade anytime."),
		Priority:  models.PriorityLow,
	}

	resp, body := env.do(t, "POST", "/analyze-ticket", `{"id":6,"text":"Can I upgrade my plan mid-month?","tone":"Friendly"}`)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var got models.Analysis
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, env.analyzer.result, got)
	assert.Equal(t, "Friendly", env.analyzer.tone)

	stored, err := env.repo.Get(context.Background(), 6)
	require.NoError(t, err)
	assert.Equal(t, "Yes, you can upgrade anytime.", stored.Reply)
}

func TestAnalyzeTicket_DefaultTone(t *testing.T) {
	env := newTestEnv(t)
	env.analyzer.result = models.Analysis{Reply: models.ReplyText("ok")}

	resp, _ := env.do(t, "POST", "/analyze-ticket", `{"id":1,"text":"hello"}`)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "Professional", env.analyzer.tone)
}

func TestAnalyzeTicket_UnknownIDStillAnswers(t *testing.T) {
	env := newTestEnv(t)
	env.analyzer.result = models.Analysis{Reply: models.ReplyText("ok")}

	resp, _ := env.do(t, "POST", "/analyze-ticket", `{"id":404,"text":"hello"}`)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestAnalyzeTicket_Validation(t *testing.T) {
	env := newTestEnv(t)

	resp, _ := env.do(t, "POST", "/analyze-ticket", `{"id":1,"text":"   "}`)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, _ = env.do(t, "POST", "/analyze-ticket", `not json`)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestAnalyzeTicket_AIFailure(t *testing.T) {
	env := newTestEnv(t)
	env.analyzer.err = analyzer.ErrAIBusy
	before, _ := env.repo.Get(context.Background(), 1)

	resp, body := env.do(t, "POST", "/analyze-ticket", `{"id":1,"text":"hello"}`)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	assert.JSONEq(t, `{"error":"AI Busy"}`, string(body))

	after, _ := env.repo.Get(context.Background(), 1)
	assert.Equal(t, before, after)
}

func TestSendReply_ClosesMessage(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.do(t, "POST", "/messages/5/send", `{"reply":"Refund issued."}`)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var got models.Message
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, models.StatusClosed, got.Status)
	assert.Equal(t, "Refund issued.", env.dispatcher.replies[5])

	resp, _ = env.do(t, "POST", "/messages/5/send", `{"reply":"Again."}`)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
}

func TestSendReply_Errors(t *testing.T) {
	env := newTestEnv(t)

	resp, _ := env.do(t, "POST", "/messages/abc/send", `{"reply":"hi"}`)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, _ = env.do(t, "POST", "/messages/99/send", `{"reply":"hi"}`)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp, _ = env.do(t, "POST", "/messages/1/send", `{"reply":""}`)
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
}

func TestSendReply_DispatchFailureKeepsMessageOpen(t *testing.T) {
	env := newTestEnv(t)
	env.dispatcher.err = errors.New("smtp down")

	resp, _ := env.do(t, "POST", "/messages/1/send", `{"reply":"hi"}`)
	assert.Equal(t, fiber.StatusBadGateway, resp.StatusCode)

	msg, err := env.repo.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, models.StatusOpen, msg.Status)
}

func TestSendReply_NoContact(t *testing.T) {
	env := newTestEnv(t)
	env.dispatcher.err = dispatch.ErrNoContact

	resp, _ := env.do(t, "POST", "/messages/1/send", `{"reply":"hi"}`)
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
}
