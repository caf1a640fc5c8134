package view

import (
	"time"

	"github.com/frahmantamala/paynow/internal/core/datamodel/payment"
)

const (
	IndicatorClosed = "▶"
	IndicatorOpen   = "▼"

	stepTimeLayout = "3:04:05 PM"
)

type Badge struct {
	Class string
	Icon  string
}

var badges = map[payment.DecisionKind]Badge{
	payment.DecisionKindAllow:  {Class: "bg-green-100 text-green-800 border-green-200", Icon: "✅"},
	payment.DecisionKindReview: {Class: "bg-yellow-100 text-yellow-800 border-yellow-200", Icon: "⚠️"},
	payment.DecisionKindBlock:  {Class: "bg-red-100 text-red-800 border-red-200", Icon: "❌"},
	payment.DecisionUnknown:    {Class: "bg-gray-100 text-gray-800 border-gray-200", Icon: "❓"},
}

// BadgeFor never fails; decisions it does not know get the neutral badge.
func BadgeFor(d payment.Decision) Badge {
	return badges[d.Kind()]
}

type TraceStep struct {
	Step   string
	Detail string
	// Time is the display form of the step timestamp, empty when the step
	// carried none.
	Time string
	// Timestamp is the raw value, kept for the datetime attribute.
	Timestamp string
}

// TraceDisclosure is the collapsible agent trace. It starts collapsed.
type TraceDisclosure struct {
	Open  bool
	Steps []TraceStep
}

func (t *TraceDisclosure) Toggle() {
	t.Open = !t.Open
}

func (t TraceDisclosure) Indicator() string {
	if t.Open {
		return IndicatorOpen
	}
	return IndicatorClosed
}

// VisibleSteps returns the steps shown in the current state: none while
// collapsed, all of them in order while open.
func (t TraceDisclosure) VisibleSteps() []TraceStep {
	if !t.Open {
		return nil
	}
	return t.Steps
}

type Result struct {
	Decision  string
	Badge     Badge
	RequestID string
	Reasons   []string
	Trace     TraceDisclosure
}

// NewResult builds the view of a decision. Step times are shown in loc;
// nil means time.Local.
func NewResult(resp *payment.PaymentResponse, loc *time.Location) *Result {
	if resp == nil {
		return nil
	}
	if loc == nil {
		loc = time.Local
	}

	steps := make([]TraceStep, 0, len(resp.AgentTrace))
	for _, s := range resp.AgentTrace {
		steps = append(steps, TraceStep{
			Step:      s.Step,
			Detail:    s.Detail,
			Time:      stepTime(s, loc),
			Timestamp: s.Timestamp,
		})
	}

	return &Result{
		Decision:  string(resp.Decision),
		Badge:     BadgeFor(resp.Decision),
		RequestID: resp.RequestID,
		Reasons:   resp.Reasons,
		Trace:     TraceDisclosure{Steps: steps},
	}
}

func stepTime(s payment.AgentStep, loc *time.Location) string {
	if s.Timestamp == "" {
		return ""
	}
	t, err := s.Time()
	if err != nil {
		return s.Timestamp
	}
	return t.In(loc).Format(stepTimeLayout)
}
