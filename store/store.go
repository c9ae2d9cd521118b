// Package store is the client-side inbox state. Actions mutate local state
// before the backend answers and roll back when it fails.
package store

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"nexusdesk/models"
)

// ErrBusy is returned when an action targets a message that already has one in flight.
var ErrBusy = errors.New("message has an operation in flight")

type action int

const (
	actionAnalyze action = iota
	actionSend
)

func (a action) String() string {
	if a == actionSend {
		return "send"
	}
	return "analyze"
}

type pending struct {
	kind  action
	patch func(models.Message) models.Message
}

type Store struct {
	backend Backend
	logger  *logrus.Entry

	mu        sync.Mutex
	messages  []models.Message
	activeID  uint
	hasActive bool
	inflight  map[uint]pending
	onChange  []func()
}

func New(backend Backend, logger *logrus.Entry) *Store {
	if logger == nil {
		logger = logrus.WithField("component", "store")
	}
	return &Store{
		backend:  backend,
		logger:   logger,
		inflight: make(map[uint]pending),
	}
}

// OnChange registers fn to run after every state change. fn runs without the
// store lock held, on whichever goroutine made the change.
func (s *Store) OnChange(fn func()) {
	s.mu.Lock()
	s.onChange = append(s.onChange, fn)
	s.mu.Unlock()
}

func (s *Store) notify() {
	s.mu.Lock()
	listeners := append([]func(){}, s.onChange...)
	s.mu.Unlock()
	for _, fn := range listeners {
		fn()
	}
}

// Load replaces the whole collection. The first message becomes active when
// nothing is selected yet.
func (s *Store) Load(msgs []models.Message) {
	next := make([]models.Message, len(msgs))
	copy(next, msgs)

	s.mu.Lock()
	for i := range next {
		next[i].IsGenerating = false
		next[i].IsSending = false
		if p, ok := s.inflight[next[i].ID]; ok {
			next[i] = p.patch(next[i])
		}
	}
	s.messages = next
	if !s.hasActive && len(next) > 0 {
		s.activeID = next[0].ID
		s.hasActive = true
	}
	s.mu.Unlock()

	s.notify()
}

// Fetch loads the collection from the backend. On failure the current
// collection is kept.
func (s *Store) Fetch(ctx context.Context) error {
	msgs, err := s.backend.FetchAll(ctx)
	if err != nil {
		s.logger.WithError(err).Error("Failed to fetch messages")
		return fmt.Errorf("fetch messages: %w", err)
	}
	s.Load(msgs)
	return nil
}

func (s *Store) SelectActive(id uint) {
	s.mu.Lock()
	s.activeID = id
	s.hasActive = true
	s.mu.Unlock()
	s.notify()
}

func (s *Store) ActiveID() (uint, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeID, s.hasActive
}

// ActiveMessage returns the selected message, if it is still in the collection.
func (s *Store) ActiveMessage() (models.Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hasActive {
		return models.Message{}, false
	}
	if idx := s.indexOf(s.activeID); idx >= 0 {
		return s.messages[idx], true
	}
	return models.Message{}, false
}

func (s *Store) Messages() []models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

func (s *Store) Message(id uint) (models.Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if idx := s.indexOf(id); idx >= 0 {
		return s.messages[idx], true
	}
	return models.Message{}, false
}

// LoadingAI reports whether any analyze call is outstanding.
func (s *Store) LoadingAI() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.inflight {
		if p.kind == actionAnalyze {
			return true
		}
	}
	return false
}

func (s *Store) IsBusy(id uint) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.inflight[id]
	return ok
}

// indexOf must be called with mu held.
func (s *Store) indexOf(id uint) int {
	for i := range s.messages {
		if s.messages[i].ID == id {
			return i
		}
	}
	return -1
}
