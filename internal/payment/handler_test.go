package payment_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	errors "github.com/frahmantamala/paynow/internal"
	datamodel "github.com/frahmantamala/paynow/internal/core/datamodel/payment"
	"github.com/frahmantamala/paynow/internal/payment"
	"github.com/frahmantamala/paynow/internal/payment/view"
	"github.com/frahmantamala/paynow/internal/session"
)

var _ = Describe("Handler", func() {
	var (
		client    *fakeClient
		sessions  *session.Store[payment.Session]
		handler   *payment.Handler
		sessionID string
	)

	validForm := url.Values{
		"customerId": {"customer123"},
		"amount":     {"100.50"},
		"currency":   {"USD"},
		"payeeId":    {"payee456"},
	}

	withSession := func(r *http.Request) *http.Request {
		return r.WithContext(errors.ContextWithSessionID(r.Context(), sessionID))
	}

	post := func(path string, values url.Values) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := httptest.NewRecorder()
		switch path {
		case "/payments":
			handler.SubmitPayment(rec, withSession(req))
		case "/payments/clear":
			handler.ClearResult(rec, withSession(req))
		}
		return rec
	}

	getPage := func() string {
		rec := httptest.NewRecorder()
		handler.ShowPage(rec, withSession(httptest.NewRequest(http.MethodGet, "/", nil)))
		Expect(rec.Code).To(Equal(http.StatusOK))
		return rec.Body.String()
	}

	state := func() payment.PageState {
		s, ok := sessions.Get(sessionID)
		Expect(ok).To(BeTrue())
		return s.State
	}

	BeforeEach(func() {
		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		client = &fakeClient{resp: reviewResponse()}
		sessions = session.NewStore[payment.Session](time.Hour, logger)
		sessionID = sessions.Create()
		renderer, err := view.NewRenderer(time.UTC)
		Expect(err).NotTo(HaveOccurred())
		handler = payment.NewHandler(payment.NewService(client, nil, logger), sessions, renderer, logger)
	})

	Describe("GET /", func() {
		It("renders the empty form with submit disabled", func() {
			html := getPage()
			Expect(html).To(ContainSubstring("Submit a Payment"))
			Expect(html).To(MatchRegexp(`<button id="submit-payment"[^>]*disabled>Submit Payment</button>`))
			Expect(html).To(ContainSubstring(`<option value="USD" selected>`))
		})
	})

	Describe("POST /payments", func() {
		It("submits a valid form and redirects to the result", func() {
			rec := post("/payments", validForm)

			Expect(rec.Code).To(Equal(http.StatusSeeOther))
			Expect(rec.Header().Get("Location")).To(Equal("/"))
			Expect(client.Calls()).To(HaveLen(1))
			Expect(state().Result.RequestID).To(Equal("req_abc123"))

			html := getPage()
			Expect(html).To(ContainSubstring("⚠️ review"))
			Expect(html).To(ContainSubstring("Request ID: req_abc123"))
			Expect(html).To(ContainSubstring(`value="customer123"`))
		})

		It("does not call the service for an invalid form and keeps the input", func() {
			invalid := url.Values{
				"customerId": {"ab"},
				"amount":     {"-5"},
				"currency":   {"USD"},
				"payeeId":    {"payee456"},
			}
			rec := post("/payments", invalid)

			Expect(rec.Code).To(Equal(http.StatusSeeOther))
			Expect(client.Calls()).To(BeEmpty())
			Expect(state()).To(Equal(payment.PageState{}))

			html := getPage()
			Expect(html).To(ContainSubstring(`value="ab"`))
			Expect(html).To(ContainSubstring(`value="-5"`))
		})

		It("shows the failure message in the error panel", func() {
			client.resp = nil
			client.err = errors.NewRequestFailedError("Invalid API key", http.StatusForbidden, nil)

			post("/payments", validForm)

			Expect(state().Error).To(Equal("Invalid API key"))
			html := getPage()
			Expect(html).To(ContainSubstring(`role="alert"`))
			Expect(html).To(ContainSubstring("Invalid API key"))
		})

		It("replaces an earlier error with the next result", func() {
			client.resp = nil
			client.err = errors.NewRequestFailedError("boom", 0, nil)
			post("/payments", validForm)

			client.resp = reviewResponse()
			client.err = nil
			post("/payments", validForm)

			Expect(state().Error).To(BeEmpty())
			Expect(state().Result).NotTo(BeNil())
		})

		It("does not call the service while a request is in flight", func() {
			sessions.Update(sessionID, func(s *payment.Session) {
				s.State = s.State.Apply(payment.SubmitStarted{})
			})

			post("/payments", validForm)

			Expect(client.Calls()).To(BeEmpty())
			Expect(state().IsLoading).To(BeTrue())
		})

		It("shows the loading state while the decision is pending", func() {
			client.gate = make(chan struct{})
			client.entered = make(chan struct{}, 1)

			done := make(chan struct{})
			go func() {
				defer GinkgoRecover()
				defer close(done)
				post("/payments", validForm)
			}()
			Eventually(client.entered).Should(Receive())

			Expect(state().IsLoading).To(BeTrue())
			Expect(getPage()).To(ContainSubstring(">Processing...</button>"))

			post("/payments", validForm)
			Expect(client.Calls()).To(HaveLen(1))

			close(client.gate)
			Eventually(done).Should(BeClosed())
			Expect(state().IsLoading).To(BeFalse())
			Expect(state().Result).NotTo(BeNil())
		})

		It("settles the session when the decision call panics", func() {
			svc := &panickingService{next: payment.NewService(client, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))}
			handler.Service = svc

			Expect(func() { post("/payments", validForm) }).To(PanicWith("event subscriber exploded"))
			Expect(state().IsLoading).To(BeFalse())
			Expect(state().Error).To(Equal("internal server error"))
			Expect(getPage()).To(ContainSubstring(`role="alert"`))

			rec := post("/payments", validForm)
			Expect(rec.Code).To(Equal(http.StatusSeeOther))
			Expect(client.Calls()).To(HaveLen(1))
			Expect(state().IsLoading).To(BeFalse())
			Expect(state().Result).NotTo(BeNil())
		})

		It("finishes the decision even when the browser goes away", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			req := httptest.NewRequest(http.MethodPost, "/payments", strings.NewReader(validForm.Encode()))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			req = withSession(req.WithContext(ctx))

			handler.SubmitPayment(httptest.NewRecorder(), req)

			Expect(state().Result).NotTo(BeNil())
		})
	})

	Describe("POST /payments/clear", func() {
		It("returns to the empty state", func() {
			post("/payments", validForm)
			rec := post("/payments/clear", nil)

			Expect(rec.Code).To(Equal(http.StatusSeeOther))
			Expect(state()).To(Equal(payment.PageState{}))
			Expect(getPage()).To(ContainSubstring("Submit a Payment"))
		})
	})

	Describe("POST /api/v1/payments/decide", func() {
		decide := func(body string) *httptest.ResponseRecorder {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/decide", strings.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			handler.Decide(rec, req)
			return rec
		}

		It("returns the decision as JSON", func() {
			rec := decide(`{"customerId":"customer123","amount":100.5,"currency":"USD","payeeId":"payee456"}`)

			Expect(rec.Code).To(Equal(http.StatusOK))
			var resp datamodel.PaymentResponse
			Expect(json.Unmarshal(rec.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp.Decision).To(Equal(datamodel.DecisionReview))
			Expect(resp.AgentTrace).To(HaveLen(2))
		})

		It("rejects invalid input without calling the service", func() {
			rec := decide(`{"customerId":"ab","amount":0,"currency":"USD","payeeId":"payee456"}`)

			Expect(rec.Code).To(Equal(http.StatusBadRequest))
			Expect(client.Calls()).To(BeEmpty())
			var body errors.Response
			Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(Succeed())
			Expect(body.Code).To(Equal(errors.ErrCodeValidationFailed))
			Expect(body.Errors).To(HaveLen(2))
		})

		It("rejects a body that is not JSON", func() {
			rec := decide(`customerId=x`)
			Expect(rec.Code).To(Equal(http.StatusBadRequest))
		})

		It("passes the upstream status and detail through", func() {
			client.resp = nil
			client.err = errors.NewRequestFailedError("amount exceeds payee limit", http.StatusUnprocessableEntity, nil)

			rec := decide(`{"customerId":"customer123","amount":100.5,"currency":"USD","payeeId":"payee456"}`)

			Expect(rec.Code).To(Equal(http.StatusUnprocessableEntity))
			var body errors.Response
			Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(Succeed())
			Expect(body.Detail).To(Equal("amount exceeds payee limit"))
		})

		DescribeTable("answers 502 when the decision service rejects our credential",
			func(status int) {
				client.resp = nil
				client.err = errors.NewRequestFailedError("Invalid API key", status, nil)

				rec := decide(`{"customerId":"customer123","amount":100.5,"currency":"USD","payeeId":"payee456"}`)

				Expect(rec.Code).To(Equal(http.StatusBadGateway))
				var body errors.Response
				Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(Succeed())
				Expect(body.Detail).To(Equal("Invalid API key"))
				Expect(body.Code).To(Equal(errors.ErrCodeRequestFailed))
			},
			Entry("unauthorized", http.StatusUnauthorized),
			Entry("forbidden", http.StatusForbidden),
		)

		It("answers 502 when the service is unreachable", func() {
			client.resp = nil
			client.err = errors.NewRequestFailedError("decision service unreachable: dial tcp", 0, nil)

			rec := decide(`{"customerId":"customer123","amount":100.5,"currency":"USD","payeeId":"payee456"}`)

			Expect(rec.Code).To(Equal(http.StatusBadGateway))
		})
	})
})
