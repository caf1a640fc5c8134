package payment

import (
	"context"
	"log/slog"
	"time"

	errors "github.com/frahmantamala/paynow/internal"
	"github.com/frahmantamala/paynow/internal/core/datamodel/payment"
	"github.com/frahmantamala/paynow/internal/core/events"
)

type DecisionClient interface {
	Submit(ctx context.Context, data payment.PaymentFormData) (*payment.PaymentResponse, error)
}

type ServiceAPI interface {
	Decide(ctx context.Context, data payment.PaymentFormData) (*payment.PaymentResponse, error)
}

type Service struct {
	client   DecisionClient
	eventBus *events.EventBus
	logger   *slog.Logger
	now      func() time.Time
}

func NewService(client DecisionClient, eventBus *events.EventBus, logger *slog.Logger) *Service {
	return &Service{
		client:   client,
		eventBus: eventBus,
		logger:   logger,
		now:      time.Now,
	}
}

// Decide sends data to the decision service once. Failures come back as
// RequestFailed errors.
func (s *Service) Decide(ctx context.Context, data payment.PaymentFormData) (*payment.PaymentResponse, error) {
	start := s.now()
	resp, err := s.client.Submit(ctx, data)
	duration := s.now().Sub(start)

	if err != nil {
		appErr, ok := errors.IsAppError(err)
		if !ok {
			appErr = errors.NewRequestFailedError(err.Error(), 0, err)
		}
		s.logger.Warn("payment decision failed",
			"error", appErr.Message,
			"status", appErr.StatusCode,
			"duration_ms", duration.Milliseconds())
		s.publish(ctx, events.NewPaymentFailedEvent(appErr.Message, appErr.StatusCode, string(data.Currency), duration))
		return nil, appErr
	}

	s.logger.Info("payment decided",
		"request_id", resp.RequestID,
		"decision", resp.Decision,
		"duration_ms", duration.Milliseconds())
	s.publish(ctx, events.NewPaymentDecidedEvent(resp.RequestID, string(resp.Decision), resp.Reasons, string(data.Currency), duration))
	return resp, nil
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.eventBus == nil {
		return
	}
	if err := s.eventBus.Publish(ctx, event); err != nil {
		s.logger.Error("failed to publish event", "event_type", event.EventType(), "error", err)
	}
}
