package tui

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nexusdesk/models"
	"nexusdesk/store"
)

type stubBackend struct {
	messages   []models.Message
	analysis   models.Analysis
	analyzeErr error
	sendErr    error
	sent       map[uint]string
}

func (b *stubBackend) FetchAll(ctx context.Context) ([]models.Message, error) {
	return b.messages, nil
}

func (b *stubBackend) Analyze(ctx context.Context, req store.AnalyzeRequest) (models.Analysis, error) {
	return b.analysis, b.analyzeErr
}

func (b *stubBackend) Send(ctx context.Context, id uint, reply string) error {
	if b.sendErr != nil {
		return b.sendErr
	}
	if b.sent == nil {
		b.sent = map[uint]string{}
	}
	b.sent[id] = reply
	return nil
}

func newTestModel(t *testing.T, backend *stubBackend) (Model, *store.Store) {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	s := store.New(backend, logrus.NewEntry(logger))
	s.Load(backend.messages)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return New(ctx, s, nil, "Professional", time.Second), s
}

func inbox() []models.Message {
	return []models.Message{
		{ID: 1, Customer: "Sarah Jenkins", Platform: models.PlatformEmail, Text: "Where is my order?", Status: models.StatusOpen},
		{ID: 2, Customer: "Mike Ross", Platform: models.PlatformWhatsApp, Text: "Thanks!", Reply: "Glad to help", Status: models.StatusOpen},
		{ID: 3, Customer: "Jessica Pearson", Platform: models.PlatformMessenger, Text: "Refund please", Status: models.StatusOpen},
	}
}

func press(m Model, key string) (Model, tea.Cmd) {
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)})
	return next.(Model), cmd
}

func run(m Model, cmd tea.Cmd) Model {
	next, _ := m.Update(cmd())
	return next.(Model)
}

func TestKeys_MoveSelection(t *testing.T) {
	m, s := newTestModel(t, &stubBackend{messages: inbox()})

	m, _ = press(m, "j")
	id, _ := s.ActiveID()
	assert.Equal(t, uint(2), id)

	m, _ = press(m, "j")
	m, _ = press(m, "j")
	id, _ = s.ActiveID()
	assert.Equal(t, uint(3), id, "selection clamps at the bottom")

	m, _ = press(m, "k")
	_, _ = press(m, "k")
	id, _ = s.ActiveID()
	assert.Equal(t, uint(1), id)
}

func TestKeys_CycleTone(t *testing.T) {
	m, _ := newTestModel(t, &stubBackend{messages: inbox()})
	assert.Equal(t, "Professional", m.Tone())

	for _, want := range []string{"Friendly", "Empathetic", "Concise", "Professional"} {
		m, _ = press(m, "t")
		assert.Equal(t, want, m.Tone())
	}
}

func TestNew_InitialToneFromConfig(t *testing.T) {
	s := store.New(&stubBackend{}, nil)
	m := New(context.Background(), s, nil, "Empathetic", time.Second)
	assert.Equal(t, "Empathetic", m.Tone())
}

func TestKeys_AnalyzeAppliesDraft(t *testing.T) {
	backend := &stubBackend{
		messages: inbox(),
		analysis: models.Analysis{Sentiment: models.SentimentNegative, Reply: models.ReplyText("We are on it."), Priority: models.PriorityHigh},
	}
	m, s := newTestModel(t, backend)

	m, cmd := press(m, "a")
	require.NotNil(t, cmd)
	m = run(m, cmd)

	got, _ := s.Message(1)
	assert.Equal(t, "We are on it.", got.Reply)
	assert.Equal(t, models.PriorityHigh, got.Priority)
	assert.False(t, m.statusErr)
	assert.Contains(t, m.status, "Sarah Jenkins")
}

func TestKeys_AnalyzeFailureShowsError(t *testing.T) {
	backend := &stubBackend{messages: inbox(), analyzeErr: errors.New("AI Busy")}
	m, s := newTestModel(t, backend)

	m, cmd := press(m, "a")
	m = run(m, cmd)

	assert.True(t, m.statusErr)
	assert.Contains(t, m.status, "Analysis failed")
	assert.False(t, s.LoadingAI())
}

func TestKeys_SendWithoutDraftIsRefused(t *testing.T) {
	m, s := newTestModel(t, &stubBackend{messages: inbox()})

	m, cmd := press(m, "s")
	assert.Nil(t, cmd)
	assert.True(t, m.statusErr)
	got, _ := s.Message(1)
	assert.True(t, got.IsOpen())
}

func TestKeys_SendClosesAndAdvances(t *testing.T) {
	backend := &stubBackend{messages: inbox()}
	m, s := newTestModel(t, backend)
	s.SelectActive(2)

	m, cmd := press(m, "s")
	require.NotNil(t, cmd)
	m = run(m, cmd)

	got, _ := s.Message(2)
	assert.Equal(t, models.StatusClosed, got.Status)
	assert.Equal(t, "Glad to help", backend.sent[2])
	id, _ := s.ActiveID()
	assert.Equal(t, uint(1), id)
	assert.Equal(t, "Reply sent to Mike Ross", m.status)
}

func TestKeys_SendFailureRestoresDraft(t *testing.T) {
	backend := &stubBackend{messages: inbox(), sendErr: errors.New("gateway down")}
	m, s := newTestModel(t, backend)
	s.SelectActive(2)

	m, cmd := press(m, "s")
	m = run(m, cmd)

	got, _ := s.Message(2)
	assert.Equal(t, "Glad to help", got.Reply)
	assert.True(t, got.IsOpen())
	assert.True(t, m.statusErr)
	assert.Contains(t, m.status, "reply restored")
}

func TestKeys_Refresh(t *testing.T) {
	backend := &stubBackend{messages: inbox()}
	m, s := newTestModel(t, backend)
	backend.messages = inbox()[:1]

	m, cmd := press(m, "r")
	m = run(m, cmd)

	assert.Len(t, s.Messages(), 1)
	assert.Equal(t, "Loaded 1 messages", m.status)
}

func TestKeys_Quit(t *testing.T) {
	m, _ := newTestModel(t, &stubBackend{messages: inbox()})
	_, cmd := press(m, "q")
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestStoreChangesWakeTheProgram(t *testing.T) {
	m, s := newTestModel(t, &stubBackend{messages: inbox()})

	s.SelectActive(3)
	msg := m.waitForChange()()
	assert.Equal(t, changedMsg{}, msg)
}

func TestView_ShowsActiveMessage(t *testing.T) {
	m, s := newTestModel(t, &stubBackend{messages: inbox()})
	s.SelectActive(2)

	out := m.View()
	assert.Contains(t, out, "Mike Ross")
	assert.Contains(t, out, "Glad to help")
	assert.Contains(t, out, "tone: Professional")
}

func TestView_EmptyInbox(t *testing.T) {
	m, _ := newTestModel(t, &stubBackend{})
	assert.Contains(t, m.View(), "Inbox is empty")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "abc…", truncate("abcdef", 4))
}
