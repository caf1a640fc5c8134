package payment

import (
	"github.com/frahmantamala/paynow/internal/core/datamodel/payment"
)

// PageState is what the page shows next to the form. It changes only
// through Apply.
type PageState struct {
	IsLoading bool
	Result    *payment.PaymentResponse
	Error     string
}

type Transition interface {
	apply(PageState) PageState
}

// SubmitStarted clears any previous outcome.
type SubmitStarted struct{}

type SubmitSucceeded struct {
	Response *payment.PaymentResponse
}

type SubmitFailed struct {
	Message string
}

// Cleared drops the shown outcome. It has no effect while a request is in
// flight.
type Cleared struct{}

func (SubmitStarted) apply(PageState) PageState {
	return PageState{IsLoading: true}
}

func (t SubmitSucceeded) apply(PageState) PageState {
	return PageState{Result: t.Response}
}

func (t SubmitFailed) apply(PageState) PageState {
	return PageState{Error: t.Message}
}

func (Cleared) apply(s PageState) PageState {
	if s.IsLoading {
		return s
	}
	return PageState{}
}

func (s PageState) Apply(t Transition) PageState {
	return t.apply(s)
}

// Session is the per-browser value kept in the session store.
type Session struct {
	Form  Form
	State PageState
	// set once the form has been shown, so the default currency applies to
	// new sessions only
	initialized bool
}

func (s *Session) ensureForm() {
	if !s.initialized {
		s.Form = NewForm()
		s.initialized = true
	}
}
