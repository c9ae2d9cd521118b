package store

import (
	"context"

	"nexusdesk/models"
)

// AnalyzeRequest is what the store hands to the analysis collaborator.
type AnalyzeRequest struct {
	ID   uint   `json:"id"`
	Text string `json:"text"`
	Tone string `json:"tone"`
}

// Backend is the remote side of the inbox. Every method may block on the network.
type Backend interface {
	FetchAll(ctx context.Context) ([]models.Message, error)
	Analyze(ctx context.Context, req AnalyzeRequest) (models.Analysis, error)
	Send(ctx context.Context, id uint, reply string) error
}
