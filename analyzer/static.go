package analyzer

import (
	"context"
	"fmt"
	"strings"

	"nexusdesk/models"
)

var (
	negativeWords = []string{"urgent", "error", "fail", "refund", "damaged", "broken", "lose", "angry", "exceeded"}
	positiveWords = []string{"thank", "great", "love", "stunning", "awesome", "amazing"}
	urgentWords   = []string{"urgent", "asap", "within the hour", "immediately", "failed"}
)

// Static answers from keyword rules. It is used when no language model key
// is configured.
type Static struct{}

func (Static) Analyze(ctx context.Context, text, tone string) (models.Analysis, error) {
	if err := ctx.Err(); err != nil {
		return models.Analysis{}, err
	}

	lower := strings.ToLower(text)
	sentiment := models.SentimentNeutral
	switch {
	case containsAny(lower, negativeWords):
		sentiment = models.SentimentNegative
	case containsAny(lower, positiveWords):
		sentiment = models.SentimentPositive
	}

	priority := models.PriorityLow
	switch {
	case containsAny(lower, urgentWords):
		priority = models.PriorityHigh
	case sentiment == models.SentimentNegative || strings.Contains(lower, "?"):
		priority = models.PriorityMedium
	}

	if tone == "" {
		tone = "Professional"
	}
	var reply string
	switch sentiment {
	case models.SentimentNegative:
		reply = "We're sorry for the trouble. Our team is looking into this right now and will update you shortly."
	case models.SentimentPositive:
		reply = "Thank you so much for the kind words! We'll pass them on to the team."
	default:
		reply = "Thanks for reaching out! We'll get back to you with the details soon."
	}

	return models.Analysis{
		Sentiment: sentiment,
		Reply:     models.ReplyText(fmt.Sprintf("[%s] %s", tone, reply)),
		Priority:  priority,
	}, nil
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
