package storage

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"nexusdesk/models"
)

type GormRepository struct {
	db *gorm.DB
}

func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

func (r *GormRepository) List(ctx context.Context) ([]models.Message, error) {
	var msgs []models.Message
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&msgs).Error; err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	return msgs, nil
}

func (r *GormRepository) Get(ctx context.Context, id uint) (models.Message, error) {
	var msg models.Message
	err := r.db.WithContext(ctx).First(&msg, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Message{}, fmt.Errorf("message %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return models.Message{}, fmt.Errorf("failed to load message %d: %w", id, err)
	}
	return msg, nil
}

func (r *GormRepository) ApplyAnalysis(ctx context.Context, id uint, analysis models.Analysis) (models.Message, error) {
	updates := make(map[string]interface{})
	if analysis.Sentiment != "" {
		updates["sentiment"] = analysis.Sentiment
	}
	if analysis.Reply != nil {
		updates["reply"] = *analysis.Reply
	}
	if analysis.Priority != "" {
		updates["priority"] = analysis.Priority
	}
	return r.update(ctx, id, updates)
}

func (r *GormRepository) MarkClosed(ctx context.Context, id uint) (models.Message, error) {
	return r.update(ctx, id, map[string]interface{}{"status": models.StatusClosed})
}

func (r *GormRepository) Create(ctx context.Context, msg models.Message) (models.Message, error) {
	msg.ID = 0
	if msg.Status == "" {
		msg.Status = models.StatusOpen
	}
	if err := r.db.WithContext(ctx).Create(&msg).Error; err != nil {
		return models.Message{}, fmt.Errorf("failed to save message: %w", err)
	}
	return msg, nil
}

func (r *GormRepository) update(ctx context.Context, id uint, updates map[string]interface{}) (models.Message, error) {
	var msg models.Message
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&msg, id).Error; err != nil {
			return err
		}
		if len(updates) == 0 {
			return nil
		}
		return tx.Model(&msg).Updates(updates).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Message{}, fmt.Errorf("message %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return models.Message{}, fmt.Errorf("failed to update message %d: %w", id, err)
	}
	return msg, nil
}
