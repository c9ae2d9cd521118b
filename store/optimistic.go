package store

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"nexusdesk/models"
)

type optimisticUpdate struct {
	kind action
	// patch is applied before the remote call and re-applied if the
	// collection is reloaded while the call is outstanding.
	patch func(models.Message) models.Message
	// call receives the pre-patch snapshot and returns how to fold its
	// result into the entity as it stands when the call settles.
	call     func(ctx context.Context, snapshot models.Message) (func(models.Message) models.Message, error)
	rollback func(snapshot, current models.Message) models.Message
	// committed runs with the lock held after a successful commit.
	committed func(id uint)
}

// withOptimisticUpdate snapshots message id, patches it, runs the remote call
// and then either commits or rolls back. The entity is looked up again by id
// once the call settles. A missing id is a silent no-op.
func (s *Store) withOptimisticUpdate(ctx context.Context, id uint, u optimisticUpdate) error {
	log := s.logger.WithFields(logrus.Fields{
		"message_id": id,
		"action":     u.kind.String(),
	})

	s.mu.Lock()
	idx := s.indexOf(id)
	if idx < 0 {
		s.mu.Unlock()
		log.Debug("Message not found, ignoring")
		return nil
	}
	if _, busy := s.inflight[id]; busy {
		s.mu.Unlock()
		log.Warn("Message busy, rejecting")
		return fmt.Errorf("%s message %d: %w", u.kind, id, ErrBusy)
	}
	snapshot := s.messages[idx]
	s.inflight[id] = pending{kind: u.kind, patch: u.patch}
	s.messages[idx] = u.patch(snapshot)
	s.mu.Unlock()
	s.notify()

	commit, err := u.call(ctx, snapshot)

	s.mu.Lock()
	delete(s.inflight, id)
	if idx = s.indexOf(id); idx >= 0 {
		current := s.messages[idx]
		if err != nil {
			s.messages[idx] = u.rollback(snapshot, current)
		} else {
			s.messages[idx] = commit(current)
			if u.committed != nil {
				u.committed(id)
			}
		}
	}
	s.mu.Unlock()
	s.notify()

	if err != nil {
		log.WithError(err).Error("Remote call failed, local state restored")
		return fmt.Errorf("%s message %d: %w", u.kind, id, err)
	}
	return nil
}

// Analyze requests sentiment, a drafted reply and a priority for message id.
// Only the generating flag is set while the call runs, so a failure leaves
// the message content as it was.
func (s *Store) Analyze(ctx context.Context, id uint, tone string) error {
	return s.withOptimisticUpdate(ctx, id, optimisticUpdate{
		kind: actionAnalyze,
		patch: func(m models.Message) models.Message {
			m.IsGenerating = true
			return m
		},
		call: func(ctx context.Context, snapshot models.Message) (func(models.Message) models.Message, error) {
			result, err := s.backend.Analyze(ctx, AnalyzeRequest{
				ID:   snapshot.ID,
				Text: snapshot.Text,
				Tone: tone,
			})
			if err != nil {
				return nil, err
			}
			return func(m models.Message) models.Message {
				m = result.Apply(m)
				m.IsGenerating = false
				return m
			}, nil
		},
		rollback: func(_, current models.Message) models.Message {
			current.IsGenerating = false
			return current
		},
	})
}

// Send delivers the drafted reply of message id. The reply is cleared while
// sending; on failure the message is restored exactly as it was. On success
// the message is closed and the selection moves to the next open message.
func (s *Store) Send(ctx context.Context, id uint) error {
	return s.withOptimisticUpdate(ctx, id, optimisticUpdate{
		kind: actionSend,
		patch: func(m models.Message) models.Message {
			m.Reply = ""
			m.IsSending = true
			return m
		},
		call: func(ctx context.Context, snapshot models.Message) (func(models.Message) models.Message, error) {
			if err := s.backend.Send(ctx, snapshot.ID, snapshot.Reply); err != nil {
				return nil, err
			}
			return func(m models.Message) models.Message {
				m.IsSending = false
				m.Status = models.StatusClosed
				return m
			}, nil
		},
		rollback: func(snapshot, _ models.Message) models.Message {
			return snapshot
		},
		committed: s.advanceFrom,
	})
}

// advanceFrom selects the first open message other than id. Called with mu held.
func (s *Store) advanceFrom(id uint) {
	for _, m := range s.messages {
		if m.ID != id && m.IsOpen() {
			s.activeID = m.ID
			s.hasActive = true
			return
		}
	}
}
