package models

import (
	"time"
)

type Platform string

const (
	PlatformEmail     Platform = "Email"
	PlatformWhatsApp  Platform = "WhatsApp"
	PlatformMessenger Platform = "Messenger"
	PlatformSlack     Platform = "Slack"
)

type Sentiment string

const (
	SentimentPositive Sentiment = "Positive"
	SentimentNeutral  Sentiment = "Neutral"
	SentimentNegative Sentiment = "Negative"
)

type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

type Status string

const (
	StatusOpen   Status = "open"
	StatusClosed Status = "closed"
)

// Message is a customer message in the shared inbox.
// Empty Sentiment, Reply and Priority mean "not analyzed yet".
type Message struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Customer  string    `gorm:"not null" json:"customer"`
	Contact   string    `gorm:"index" json:"contact,omitempty"`
	Platform  Platform  `gorm:"not null;index" json:"platform"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	Sentiment Sentiment `json:"sentiment,omitempty"`
	Reply     string    `gorm:"type:text" json:"reply,omitempty"`
	Priority  Priority  `json:"priority,omitempty"`
	Status    Status    `gorm:"not null;default:open;index" json:"status"`
	Timestamp string    `json:"timestamp,omitempty"`

	// UI state, never persisted.
	IsGenerating bool `gorm:"-" json:"isGenerating,omitempty"`
	IsSending    bool `gorm:"-" json:"isSending,omitempty"`

	ReceivedAt time.Time `json:"-"`
	CreatedAt  time.Time `json:"-"`
	UpdatedAt  time.Time `json:"-"`
}

func (m Message) IsOpen() bool {
	return m.Status == StatusOpen
}

// Analysis holds the fields an AI analysis may set on a message.
// Empty enums and a nil Reply were not returned and overwrite nothing. A
// non-nil Reply overwrites the draft even when it is empty.
type Analysis struct {
	Sentiment Sentiment `json:"sentiment,omitempty" validate:"omitempty,oneof=Positive Neutral Negative"`
	Reply     *string   `json:"reply,omitempty"`
	Priority  Priority  `json:"priority,omitempty" validate:"omitempty,oneof=High Medium Low"`
}

// ReplyText returns a Reply value for an Analysis literal.
func ReplyText(s string) *string {
	return &s
}

// Apply merges every returned field into m.
func (a Analysis) Apply(m Message) Message {
	if a.Sentiment != "" {
		m.Sentiment = a.Sentiment
	}
	if a.Reply != nil {
		m.Reply = *a.Reply
	}
	if a.Priority != "" {
		m.Priority = a.Priority
	}
	return m
}

func (a Analysis) IsEmpty() bool {
	return a.Sentiment == "" && a.Reply == nil && a.Priority == ""
}
