package service

import (
	"bytes"
	"context"
	"encoding/json"

	"go.uber.org/zap"

	api "github.com/ayurankh/claims-processor/api/v1alpha1"
	"github.com/ayurankh/claims-processor/internal/events"
	"github.com/ayurankh/claims-processor/internal/store"
	"github.com/ayurankh/claims-processor/internal/store/model"
)

// OverrideService records human review decisions in the tamper-evident
// audit log. Entries are advisory: they never mutate task state.
type OverrideService struct {
	store    store.Store
	producer *events.EventProducer
}

type OverrideOption func(*OverrideService)

func WithOverrideEventProducer(ep *events.EventProducer) OverrideOption {
	return func(s *OverrideService) {
		s.producer = ep
	}
}

func NewOverrideService(s store.Store, opts ...OverrideOption) *OverrideService {
	svc := &OverrideService{store: s}
	for _, o := range opts {
		o(svc)
	}
	return svc
}

// Override seals and appends an audit entry for the given decision.
func (s *OverrideService) Override(ctx context.Context, req api.OverrideRequest) (*api.OverrideLog, error) {
	entry := model.NewOverrideLog(req.TaskID, req.ActorID, req.Reason)
	s.store.Override().Append(entry)

	s.publishEvent(ctx, events.OverrideEvent{
		TaskID:  entry.TaskID,
		ActorID: entry.ActorID,
		Reason:  entry.Reason,
	})

	zap.S().Named("override_service").Infow("override recorded",
		"task_id", entry.TaskID, "actor_id", entry.ActorID)

	out := toApiOverride(entry)
	return &out, nil
}

// List returns all audit entries in append order.
func (s *OverrideService) List(_ context.Context) ([]api.OverrideLog, error) {
	entries := s.store.Override().List()

	logs := make([]api.OverrideLog, 0, len(entries))
	for _, e := range entries {
		logs = append(logs, toApiOverride(e))
	}
	return logs, nil
}

func (s *OverrideService) publishEvent(ctx context.Context, event events.OverrideEvent) {
	if s.producer == nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	if err := s.producer.Write(ctx, events.OverrideMessageKind, bytes.NewReader(data)); err != nil {
		zap.S().Named("override_service").Warnw("failed to publish override event", "error", err)
	}
}

func toApiOverride(e model.OverrideLog) api.OverrideLog {
	return api.OverrideLog{
		Event:     e.Event,
		TaskID:    e.TaskID,
		ActorID:   e.ActorID,
		Reason:    e.Reason,
		Timestamp: e.Timestamp,
		Signature: e.Signature,
	}
}
