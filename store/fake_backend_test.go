package store

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/sirupsen/logrus"

	"nexusdesk/models"
)

var errBackendDown = errors.New("backend down")

// fakeBackend answers from fixed fields. When hold is set every Analyze and
// Send call reports its id on entered and blocks until release is closed.
type fakeBackend struct {
	mu sync.Mutex

	messages   []models.Message
	fetchErr   error
	analysis   models.Analysis
	analyzeErr error
	sendErr    error

	analyzeReqs []AnalyzeRequest
	sent        map[uint]string

	hold    bool
	entered chan uint
	release chan struct{}
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		sent:    make(map[uint]string),
		entered: make(chan uint, 16),
		release: make(chan struct{}),
	}
}

func (f *fakeBackend) wait(ctx context.Context, id uint) error {
	if !f.hold {
		return nil
	}
	f.entered <- id
	select {
	case <-f.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *fakeBackend) FetchAll(ctx context.Context) ([]models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	out := make([]models.Message, len(f.messages))
	copy(out, f.messages)
	return out, nil
}

func (f *fakeBackend) Analyze(ctx context.Context, req AnalyzeRequest) (models.Analysis, error) {
	f.mu.Lock()
	f.analyzeReqs = append(f.analyzeReqs, req)
	f.mu.Unlock()

	if err := f.wait(ctx, req.ID); err != nil {
		return models.Analysis{}, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.analyzeErr != nil {
		return models.Analysis{}, f.analyzeErr
	}
	return f.analysis, nil
}

func (f *fakeBackend) Send(ctx context.Context, id uint, reply string) error {
	if err := f.wait(ctx, id); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent[id] = reply
	return nil
}

func quietLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func openMessage(id uint) models.Message {
	return models.Message{
		ID:       id,
		Customer: "Customer",
		Platform: models.PlatformEmail,
		Text:     "message text",
		Status:   models.StatusOpen,
	}
}
