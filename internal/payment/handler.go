package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	errors "github.com/frahmantamala/paynow/internal"
	"github.com/frahmantamala/paynow/internal/core/common/validation"
	"github.com/frahmantamala/paynow/internal/core/datamodel/payment"
	"github.com/frahmantamala/paynow/internal/payment/view"
	"github.com/frahmantamala/paynow/internal/session"
	"github.com/frahmantamala/paynow/internal/transport"
	"github.com/frahmantamala/paynow/pkg/logger"
)

const internalFailureMessage = "internal server error"

type Handler struct {
	transport.BaseHandler
	Service  ServiceAPI
	Sessions *session.Store[Session]
	Renderer *view.Renderer
}

func NewHandler(service ServiceAPI, sessions *session.Store[Session], renderer *view.Renderer, logger *slog.Logger) *Handler {
	return &Handler{
		BaseHandler: *transport.NewBaseHandler(logger),
		Service:     service,
		Sessions:    sessions,
		Renderer:    renderer,
	}
}

// ShowPage handles GET /
func (h *Handler) ShowPage(w http.ResponseWriter, r *http.Request) {
	id := errors.SessionIDFromContext(r.Context())
	sess := h.Sessions.Update(id, func(s *Session) {
		s.ensureForm()
	})

	var buf bytes.Buffer
	if err := h.Renderer.Render(&buf, h.page(sess)); err != nil {
		logger.From(r.Context()).Error("ShowPage: failed to render page", "error", err)
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}
	h.WriteHTML(w, http.StatusOK, buf.Bytes())
}

// SubmitPayment handles POST /payments. It answers with a redirect to the
// page once the decision call has settled.
func (h *Handler) SubmitPayment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx)

	if err := r.ParseForm(); err != nil {
		log.Warn("SubmitPayment: failed to parse form", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid form body")
		return
	}
	form := FormFromValues(r.PostForm)
	id := errors.SessionIDFromContext(ctx)

	var (
		data    payment.PaymentFormData
		busy    bool
		started bool
	)
	h.Sessions.Update(id, func(s *Session) {
		s.initialized = true
		if s.State.IsLoading {
			busy = true
			return
		}
		s.Form = form
		started = form.Submit(s.State.IsLoading, func(snapshot payment.PaymentFormData) {
			data = snapshot
			s.State = s.State.Apply(SubmitStarted{})
		})
	})

	switch {
	case busy:
		log.Warn("SubmitPayment: submission ignored", "error", errors.ErrSubmissionInFlight)
	case !started:
		var fields []string
		if appErr, ok := errors.IsAppError(form.Validate()); ok {
			fields = appErr.Fields()
		}
		log.Info("SubmitPayment: form not submittable", "invalid_fields", fields)
	default:
		h.settle(ctx, id, data)
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// settle runs the decision call and leaves the session with either a result
// or an error. A panic on the way still clears loading before it propagates.
func (h *Handler) settle(ctx context.Context, id string, data payment.PaymentFormData) {
	settled := false
	defer func() {
		if settled {
			return
		}
		rec := recover()
		logger.From(ctx).Error("SubmitPayment: decision call panicked", "panic", rec)
		h.Sessions.Update(id, func(s *Session) {
			s.State = s.State.Apply(SubmitFailed{Message: internalFailureMessage})
		})
		if rec != nil {
			panic(rec)
		}
	}()

	// the browser leaving must not abort a decision already under way
	resp, err := h.Service.Decide(context.WithoutCancel(ctx), data)
	h.Sessions.Update(id, func(s *Session) {
		if err != nil {
			s.State = s.State.Apply(SubmitFailed{Message: failureMessage(err)})
			return
		}
		s.State = s.State.Apply(SubmitSucceeded{Response: resp})
	})
	settled = true
}

// ClearResult handles POST /payments/clear
func (h *Handler) ClearResult(w http.ResponseWriter, r *http.Request) {
	id := errors.SessionIDFromContext(r.Context())
	h.Sessions.Update(id, func(s *Session) {
		s.State = s.State.Apply(Cleared{})
	})
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Decide handles POST /api/v1/payments/decide
func (h *Handler) Decide(w http.ResponseWriter, r *http.Request) {
	log := logger.From(r.Context())

	var data payment.PaymentFormData
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		log.Warn("Decide: failed to parse request body", "error", err)
		h.HandleError(w, errors.NewValidationError("invalid request body", errors.ErrCodeValidationFailed))
		return
	}

	if appErr := validation.ValidatePaymentForm(data); appErr != nil {
		h.HandleError(w, appErr)
		return
	}

	resp, err := h.Service.Decide(context.WithoutCancel(r.Context()), data)
	if err != nil {
		h.HandleServiceError(w, upstreamAuthAsGateway(err))
		return
	}

	h.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) page(sess Session) view.Page {
	form := view.FormView{
		CustomerID:     sess.Form.CustomerID,
		Amount:         sess.Form.Amount,
		Currency:       sess.Form.Currency,
		PayeeID:        sess.Form.PayeeID,
		SubmitDisabled: !sess.Form.CanSubmit(sess.State.IsLoading),
	}
	result := view.NewResult(sess.State.Result, h.Renderer.Location())
	return view.NewPage(form, sess.State.IsLoading, sess.State.Error, result)
}

// upstreamAuthAsGateway keeps a 401 or 403 from the decision service from
// reaching API callers as their own auth failure. The credential is ours.
func upstreamAuthAsGateway(err error) error {
	appErr, ok := errors.IsAppError(err)
	if !ok || !errors.IsRequestFailed(err) {
		return err
	}
	if appErr.StatusCode != http.StatusUnauthorized && appErr.StatusCode != http.StatusForbidden {
		return err
	}
	mapped := *appErr
	mapped.StatusCode = http.StatusBadGateway
	return &mapped
}

func failureMessage(err error) string {
	if appErr, ok := errors.IsAppError(err); ok {
		return appErr.Message
	}
	return err.Error()
}
