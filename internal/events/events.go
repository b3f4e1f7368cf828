// Package events fans committed ledger changes out to observers.
//
// Events are published only after the unit of work that produced them has
// committed. Delivery is best effort: a failing sink is logged and skipped,
// it never affects the ledger.
package events

import (
	"context"
	"time"

	"github.com/Soltrivia-App/soltrivia-contract/internal/model"
	"github.com/Soltrivia-App/soltrivia-contract/pkg/logger"
	"go.uber.org/zap"
)

type Type string

const (
	RegistryInitialized Type = "registry_initialized"
	CuratorAdded        Type = "curator_added"
	CuratorRemoved      Type = "curator_removed"
	QuestionSubmitted   Type = "question_submitted"
	VoteCast            Type = "vote_cast"
	QuestionFinalized   Type = "question_finalized"
	PoolCreated         Type = "pool_created"
	PoolFunded          Type = "pool_funded"
	CriteriaUpdated     Type = "criteria_updated"
	RewardsCalculated   Type = "rewards_calculated"
	RewardsClaimed      Type = "rewards_claimed"
	PoolClosed          Type = "pool_closed"
	Deposited           Type = "deposited"
)

// Event is one committed change. Subject is the participant most affected by
// it, if any.
type Event struct {
	Type    Type           `json:"type"`
	Subject model.Identity `json:"subject,omitempty"`
	Payload map[string]any `json:"payload,omitempty"`
	At      time.Time      `json:"at"`
}

type Sink interface {
	Deliver(ctx context.Context, e Event) error
}

// Bus delivers every event to all sinks in registration order.
type Bus struct {
	sinks []Sink
	log   *zap.Logger
}

func NewBus(sinks ...Sink) *Bus {
	return &Bus{
		sinks: sinks,
		log:   logger.Named("events"),
	}
}

func (b *Bus) Publish(ctx context.Context, e Event) {
	for _, sink := range b.sinks {
		if err := sink.Deliver(ctx, e); err != nil {
			b.log.Warn("failed to deliver event",
				zap.String("type", string(e.Type)),
				zap.String("subject", e.Subject.String()),
				zap.Error(err))
		}
	}
}
