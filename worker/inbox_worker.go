package worker

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"nexusdesk/storage"
	"nexusdesk/utils"
)

// MailFetcher reads unseen mail without flagging it. MarkSeen is called
// only for mail that was stored.
type MailFetcher interface {
	FetchUnseen(ctx context.Context) ([]IncomingMail, error)
	MarkSeen(ctx context.Context, uids []uint32) error
}

// InboxWorker periodically pulls new mail into the inbox.
type InboxWorker struct {
	repo     storage.MessageRepository
	fetcher  MailFetcher
	interval time.Duration
	logger   *logrus.Entry
}

func NewInboxWorker(repo storage.MessageRepository, fetcher MailFetcher, interval time.Duration, logger *logrus.Entry) *InboxWorker {
	return &InboxWorker{
		repo:     repo,
		fetcher:  fetcher,
		interval: interval,
		logger:   logger,
	}
}

func (w *InboxWorker) Start(ctx context.Context) {
	w.logger.Info("Starting inbox worker...")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.Poll(ctx)
	for {
		select {
		case <-ticker.C:
			w.Poll(ctx)
		case <-ctx.Done():
			w.logger.Info("Stopping inbox worker...")
			return
		}
	}
}

// Poll ingests one batch and returns how many messages were added.
func (w *InboxWorker) Poll(ctx context.Context) int {
	mails, err := w.fetcher.FetchUnseen(ctx)
	if err != nil {
		utils.LogError("imap_fetch_failed", err, nil)
		return 0
	}

	var stored []uint32
	for _, in := range mails {
		created, err := w.repo.Create(ctx, in.Message)
		if err != nil {
			w.logger.WithError(err).WithFields(logrus.Fields{
				"uid":     in.UID,
				"contact": in.Message.Contact,
			}).Error("Failed to store incoming message, leaving it unseen")
			continue
		}
		stored = append(stored, in.UID)
		w.logger.WithField("message_id", created.ID).Debug("Ingested message")
	}

	if err := w.fetcher.MarkSeen(ctx, stored); err != nil {
		utils.LogError("imap_mark_seen_failed", err, map[string]interface{}{"count": len(stored)})
	}
	if len(stored) > 0 {
		utils.LogEvent("messages_ingested", map[string]interface{}{"count": len(stored)})
	}
	return len(stored)
}
