package payment

import (
	"fmt"
	"time"
)

type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
	CurrencyGBP Currency = "GBP"
	CurrencyJPY Currency = "JPY"
)

// Currencies is the closed set offered by the form, in display order.
var Currencies = []Currency{CurrencyUSD, CurrencyEUR, CurrencyGBP, CurrencyJPY}

func (c Currency) IsValid() bool {
	for _, known := range Currencies {
		if c == known {
			return true
		}
	}
	return false
}

func ParseCurrency(s string) (Currency, error) {
	c := Currency(s)
	if !c.IsValid() {
		return "", fmt.Errorf("unsupported currency %q", s)
	}
	return c, nil
}

// Decision is the outcome returned by the decision service. The service may
// grow new values, so any string is accepted and unrecognised ones fall into
// DecisionUnknown through Kind.
type Decision string

const (
	DecisionAllow  Decision = "allow"
	DecisionReview Decision = "review"
	DecisionBlock  Decision = "block"
)

type DecisionKind int

const (
	DecisionUnknown DecisionKind = iota
	DecisionKindAllow
	DecisionKindReview
	DecisionKindBlock
)

func (d Decision) Kind() DecisionKind {
	switch d {
	case DecisionAllow:
		return DecisionKindAllow
	case DecisionReview:
		return DecisionKindReview
	case DecisionBlock:
		return DecisionKindBlock
	default:
		return DecisionUnknown
	}
}

func (d Decision) Known() bool {
	return d.Kind() != DecisionUnknown
}

// PaymentFormData is what the user entered.
type PaymentFormData struct {
	CustomerID string   `json:"customerId"`
	Amount     float64  `json:"amount"`
	Currency   Currency `json:"currency"`
	PayeeID    string   `json:"payeeId"`
}

// PaymentRequest is the body sent to the decision service. Build one per
// submission with NewPaymentRequest and do not modify it afterwards.
type PaymentRequest struct {
	PaymentFormData
	IdempotencyKey string `json:"idempotencyKey"`
}

func NewPaymentRequest(data PaymentFormData, idempotencyKey string) PaymentRequest {
	return PaymentRequest{
		PaymentFormData: data,
		IdempotencyKey:  idempotencyKey,
	}
}

type AgentStep struct {
	Step      string `json:"step"`
	Detail    string `json:"detail"`
	Timestamp string `json:"timestamp"`
}

// Time parses the ISO-8601 timestamp.
func (s AgentStep) Time() (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s.Timestamp)
	if err == nil {
		return t, nil
	}
	// the decision service emits naive timestamps when it has no zone
	return time.Parse("2006-01-02T15:04:05.999999999", s.Timestamp)
}

type PaymentResponse struct {
	Decision   Decision    `json:"decision"`
	Reasons    []string    `json:"reasons"`
	AgentTrace []AgentStep `json:"agentTrace"`
	RequestID  string      `json:"requestId"`
}
