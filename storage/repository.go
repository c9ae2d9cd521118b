package storage

import (
	"context"
	"errors"

	"nexusdesk/models"
)

var ErrNotFound = errors.New("message not found")

// MessageRepository is the server-side inbox. List returns messages in id order.
type MessageRepository interface {
	List(ctx context.Context) ([]models.Message, error)
	Get(ctx context.Context, id uint) (models.Message, error)
	ApplyAnalysis(ctx context.Context, id uint, analysis models.Analysis) (models.Message, error)
	MarkClosed(ctx context.Context, id uint) (models.Message, error)
	// Create stores a new message and assigns its id.
	Create(ctx context.Context, msg models.Message) (models.Message, error)
}
