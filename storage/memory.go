package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"nexusdesk/models"
)

type MemoryRepository struct {
	mu       sync.RWMutex
	messages map[uint]models.Message
	nextID   uint
}

func NewMemoryRepository(seed []models.Message) *MemoryRepository {
	r := &MemoryRepository{
		messages: make(map[uint]models.Message, len(seed)),
		nextID:   1,
	}
	for _, msg := range seed {
		r.messages[msg.ID] = msg
		if msg.ID >= r.nextID {
			r.nextID = msg.ID + 1
		}
	}
	return r
}

func (r *MemoryRepository) List(ctx context.Context) ([]models.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.Message, 0, len(r.messages))
	for _, msg := range r.messages {
		out = append(out, msg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *MemoryRepository) Get(ctx context.Context, id uint) (models.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	msg, ok := r.messages[id]
	if !ok {
		return models.Message{}, fmt.Errorf("message %d: %w", id, ErrNotFound)
	}
	return msg, nil
}

func (r *MemoryRepository) ApplyAnalysis(ctx context.Context, id uint, analysis models.Analysis) (models.Message, error) {
	return r.update(id, analysis.Apply)
}

func (r *MemoryRepository) MarkClosed(ctx context.Context, id uint) (models.Message, error) {
	return r.update(id, func(m models.Message) models.Message {
		m.Status = models.StatusClosed
		return m
	})
}

func (r *MemoryRepository) Create(ctx context.Context, msg models.Message) (models.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	msg.ID = r.nextID
	r.nextID++
	if msg.Status == "" {
		msg.Status = models.StatusOpen
	}
	now := time.Now()
	msg.CreatedAt = now
	msg.UpdatedAt = now
	r.messages[msg.ID] = msg
	return msg, nil
}

func (r *MemoryRepository) update(id uint, fn func(models.Message) models.Message) (models.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	msg, ok := r.messages[id]
	if !ok {
		return models.Message{}, fmt.Errorf("message %d: %w", id, ErrNotFound)
	}
	msg = fn(msg)
	msg.UpdatedAt = time.Now()
	r.messages[id] = msg
	return msg, nil
}
