package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/sirupsen/logrus"

	"nexusdesk/models"
)

// ReplyEvent is published for chat platforms; a per-platform bridge delivers it.
type ReplyEvent struct {
	MessageID uint            `json:"messageId"`
	Platform  models.Platform `json:"platform"`
	Customer  string          `json:"customer"`
	Contact   string          `json:"contact"`
	Reply     string          `json:"reply"`
	SentAt    time.Time       `json:"sentAt"`
}

type NatsDispatcher struct {
	nc     *nats.Conn
	js     jetstream.JetStream
	prefix string
	logger *logrus.Entry
}

// NewNatsDispatcher connects to NATS and makes sure the reply stream exists.
func NewNatsDispatcher(url, streamName, prefix string, logger *logrus.Entry) (*NatsDispatcher, error) {
	nc, err := nats.Connect(url, nats.Name("nexusdesk"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create jetstream context: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := js.Stream(ctx, streamName); err != nil {
		logger.Infof("Stream '%s' not found, attempting to create...", streamName)
		_, err = js.CreateStream(ctx, jetstream.StreamConfig{
			Name:        streamName,
			Description: "Operator replies waiting for platform delivery",
			Subjects:    []string{prefix + ".*"},
			MaxAge:      24 * time.Hour,
			Storage:     jetstream.FileStorage,
		})
		if err != nil {
			nc.Close()
			return nil, fmt.Errorf("failed to create stream '%s': %w", streamName, err)
		}
	}

	return &NatsDispatcher{nc: nc, js: js, prefix: prefix, logger: logger}, nil
}

func (d *NatsDispatcher) Close() {
	if d.nc != nil {
		d.nc.Close()
	}
}

func (d *NatsDispatcher) Dispatch(ctx context.Context, msg models.Message, reply string) error {
	if strings.TrimSpace(msg.Contact) == "" {
		return fmt.Errorf("message %d: %w", msg.ID, ErrNoContact)
	}

	data, err := json.Marshal(ReplyEvent{
		MessageID: msg.ID,
		Platform:  msg.Platform,
		Customer:  msg.Customer,
		Contact:   msg.Contact,
		Reply:     reply,
		SentAt:    time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal reply: %w", err)
	}

	subject := SubjectFor(d.prefix, msg.Platform)
	if _, err := d.js.Publish(ctx, subject, data, jetstream.WithMsgID(uuid.NewString())); err != nil {
		return fmt.Errorf("failed to publish reply to subject '%s': %w", subject, err)
	}
	d.logger.WithFields(logrus.Fields{
		"message_id": msg.ID,
		"subject":    subject,
	}).Info("Reply published")
	return nil
}

// SubjectFor returns the subject replies for platform are published on.
func SubjectFor(prefix string, platform models.Platform) string {
	return fmt.Sprintf("%s.%s", prefix, strings.ToLower(string(platform)))
}
