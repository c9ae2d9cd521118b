// Package analyzer produces sentiment, a drafted reply and a priority for a
// customer message.
package analyzer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"nexusdesk/models"
)

// ErrAIBusy is returned when the language model could not produce a usable answer.
var ErrAIBusy = errors.New("AI Busy")

type Analyzer interface {
	Analyze(ctx context.Context, text, tone string) (models.Analysis, error)
}

var validate = validator.New()

// BuildPrompt renders the instruction sent to the language model.
func BuildPrompt(text, tone string) string {
	return fmt.Sprintf(`
    Analyze this customer message: %q.
    1. Detect Sentiment (Positive, Neutral, Negative).
    2. Draft a reply in a %s tone (under 50 words).
    3. Suggest a priority level (High, Medium, Low).
    Return ONLY JSON: { "sentiment": "...", "reply": "...", "priority": "..." }
  `, text, tone)
}

// ParseAnalysis extracts the JSON object from a model answer. Enum values are
// normalised; values outside the enums are dropped.
func ParseAnalysis(content string) (models.Analysis, error) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end < start {
		return models.Analysis{}, fmt.Errorf("no JSON object in model answer: %w", ErrAIBusy)
	}

	var raw struct {
		Sentiment string `json:"sentiment"`
		Reply     *string `json:"reply"`
		Priority  string `json:"priority"`
	}
	if err := json.Unmarshal([]byte(content[start:end+1]), &raw); err != nil {
		return models.Analysis{}, fmt.Errorf("decode model answer: %v: %w", err, ErrAIBusy)
	}

	result := models.Analysis{
		Sentiment: models.Sentiment(titleCase(raw.Sentiment)),
		Priority:  models.Priority(titleCase(raw.Priority)),
	}
	if raw.Reply != nil {
		result.Reply = models.ReplyText(strings.TrimSpace(*raw.Reply))
	}
	if validate.Var(string(result.Sentiment), "omitempty,oneof=Positive Neutral Negative") != nil {
		result.Sentiment = ""
	}
	if validate.Var(string(result.Priority), "omitempty,oneof=High Medium Low") != nil {
		result.Priority = ""
	}
	if result.IsEmpty() {
		return models.Analysis{}, fmt.Errorf("model answer has no usable fields: %w", ErrAIBusy)
	}
	return result, nil
}

func titleCase(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}
