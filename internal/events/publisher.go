// Package events publishes discovery lifecycle events on Redis pub/sub for
// the gateway to forward over SSE.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"jobmate/exec-discovery/internal/model"
)

// ChannelDiscoveryCompleted carries one message per finished run.
const ChannelDiscoveryCompleted = "EVENT_DISCOVERY_COMPLETED"

// DiscoveryCompleted is the payload published when a run reaches a terminal
// state.
type DiscoveryCompleted struct {
	EventID        string          `json:"eventId"`
	Type           string          `json:"type"`
	RunID          string          `json:"runId"`
	CandidateID    string          `json:"candidateId"`
	Status         model.RunStatus `json:"status"`
	PostingsFound  int             `json:"postingsFound"`
	CompaniesFound int             `json:"companiesFound"`
	FeedsScanned   int             `json:"feedsScanned"`
	DurationMS     int64           `json:"durationMs"`
	Error          string          `json:"error,omitempty"`
	Timestamp      time.Time       `json:"timestamp"`
}

// Publisher sends events to Redis. A nil *Publisher is a valid no-op.
type Publisher struct {
	client *redis.Client
	log    *zap.Logger
}

// NewPublisher returns nil when client is nil.
func NewPublisher(client *redis.Client, log *zap.Logger) *Publisher {
	if client == nil {
		return nil
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Publisher{client: client, log: log.Named("events")}
}

// RunFinished publishes EVENT_DISCOVERY_COMPLETED for r.
func (p *Publisher) RunFinished(ctx context.Context, r *model.Run) error {
	if p == nil || p.client == nil {
		return nil
	}

	event := DiscoveryCompleted{
		EventID:        uuid.NewString(),
		Type:           ChannelDiscoveryCompleted,
		RunID:          r.ID,
		CandidateID:    r.CandidateID,
		Status:         r.Status,
		PostingsFound:  r.PostingsFound,
		CompaniesFound: r.CompaniesFound,
		FeedsScanned:   r.FeedsScanned,
		DurationMS:     r.Duration.Milliseconds(),
		Error:          r.Error,
		Timestamp:      time.Now().UTC(),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	if err := p.client.Publish(ctx, ChannelDiscoveryCompleted, payload).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", ChannelDiscoveryCompleted, err)
	}
	p.log.Debug("published event",
		zap.String("channel", ChannelDiscoveryCompleted),
		zap.String("run_id", r.ID),
	)
	return nil
}
