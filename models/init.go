package models

import "gorm.io/gorm"

// DefaultMessages is the demo inbox the server starts with.
func DefaultMessages() []Message {
	return []Message{
		{
			ID:        1,
			Customer:  "Alice Chen",
			Contact:   "alice.chen@example.com",
			Platform:  PlatformEmail,
			Text:      "URGENT: My enterprise dashboard is throwing a 500 error during the demo. I need this fixed within the hour or we lose the contract.",
			Sentiment: SentimentNegative,
			Priority:  PriorityHigh,
			Status:    StatusOpen,
			Timestamp: "10 min ago",
		},
		{
			ID:        2,
			Customer:  "Bob Smith",
			Contact:   "+15550100002",
			Platform:  PlatformWhatsApp,
			Text:      "Hey! Just checking if the API supports streaming responses yet? Integrating it into our app now.",
			Sentiment: SentimentNeutral,
			Priority:  PriorityMedium,
			Status:    StatusOpen,
			Timestamp: "24 min ago",
		},
		{
			ID:        3,
			Customer:  "Sarah Jones",
			Contact:   "sarah.jones",
			Platform:  PlatformMessenger,
			Text:      "I just wanted to say that the new dark mode is absolutely stunning! Great job team! 💜",
			Sentiment: SentimentPositive,
			Priority:  PriorityLow,
			Status:    StatusOpen,
			Timestamp: "1 hour ago",
		},
		{
			ID:        4,
			Customer:  "TechCorp Support",
			Contact:   "#techcorp-alerts",
			Platform:  PlatformSlack,
			Text:      "Integration Alert: Webhook #442 failed 5 times in the last minute. Payload size exceeded limit.",
			Sentiment: SentimentNegative,
			Priority:  PriorityHigh,
			Status:    StatusOpen,
			Timestamp: "2 hours ago",
		},
		{
			ID:        5,
			Customer:  "Michael Brown",
			Contact:   "michael.brown@example.com",
			Platform:  PlatformEmail,
			Text:      "Requesting a refund for order #29291. It arrived damaged.",
			Sentiment: SentimentNegative,
			Priority:  PriorityMedium,
			Status:    StatusOpen,
			Timestamp: "3 hours ago",
		},
		{
			ID:        6,
			Customer:  "David Lee",
			Contact:   "+15550100006",
			Platform:  PlatformWhatsApp,
			Text:      "Can I upgrade my plan mid-month?",
			Sentiment: SentimentNeutral,
			Priority:  PriorityLow,
			Status:    StatusOpen,
			Timestamp: "5 hours ago",
		},
		{
			ID:        7,
			Customer:  "Emma Wilson",
			Contact:   "emma.wilson",
			Platform:  PlatformMessenger,
			Text:      "Is there a discount for non-profits?",
			Sentiment: SentimentNeutral,
			Priority:  PriorityLow,
			Status:    StatusOpen,
			Timestamp: "1 day ago",
		},
	}
}

// SeedMessages inserts the demo inbox into an empty table. The rows take
// their ids from the table's sequence so later inserts cannot collide.
func SeedMessages(db *gorm.DB) error {
	var count int64
	if err := db.Model(&Message{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	return seedInsert(db, DefaultMessages()).Error
}

func seedInsert(db *gorm.DB, msgs []Message) *gorm.DB {
	for i := range msgs {
		msgs[i].ID = 0
	}
	return db.Create(&msgs)
}

// SyncMessageSequence moves the Postgres id sequence past the highest stored
// id. Rows inserted with explicit ids leave the sequence behind.
func SyncMessageSequence(db *gorm.DB) *gorm.DB {
	return db.Exec("SELECT setval(pg_get_serial_sequence('messages', 'id'), COALESCE(MAX(id), 1), MAX(id) IS NOT NULL) FROM messages")
}
