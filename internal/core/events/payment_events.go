package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypePaymentDecided = "payment.decided"
	EventTypePaymentFailed  = "payment.failed"
)

type PaymentDecidedEvent struct {
	BaseEvent
	RequestID string        `json:"request_id"`
	Decision  string        `json:"decision"`
	Reasons   []string      `json:"reasons"`
	Currency  string        `json:"currency"`
	Duration  time.Duration `json:"duration"`
}

func NewPaymentDecidedEvent(requestID, decision string, reasons []string, currency string, duration time.Duration) *PaymentDecidedEvent {
	return &PaymentDecidedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.NewString(),
			Type:      EventTypePaymentDecided,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"request_id":  requestID,
				"decision":    decision,
				"reasons":     reasons,
				"currency":    currency,
				"duration_ms": duration.Milliseconds(),
			},
		},
		RequestID: requestID,
		Decision:  decision,
		Reasons:   reasons,
		Currency:  currency,
		Duration:  duration,
	}
}

type PaymentFailedEvent struct {
	BaseEvent
	Message    string        `json:"message"`
	StatusCode int           `json:"status_code"`
	Currency   string        `json:"currency"`
	Duration   time.Duration `json:"duration"`
}

func NewPaymentFailedEvent(message string, statusCode int, currency string, duration time.Duration) *PaymentFailedEvent {
	return &PaymentFailedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.NewString(),
			Type:      EventTypePaymentFailed,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"message":     message,
				"status_code": statusCode,
				"currency":    currency,
				"duration_ms": duration.Milliseconds(),
			},
		},
		Message:    message,
		StatusCode: statusCode,
		Currency:   currency,
		Duration:   duration,
	}
}
