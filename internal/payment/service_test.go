package payment_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	errors "github.com/frahmantamala/paynow/internal"
	datamodel "github.com/frahmantamala/paynow/internal/core/datamodel/payment"
	"github.com/frahmantamala/paynow/internal/core/events"
	"github.com/frahmantamala/paynow/internal/payment"
)

var _ = Describe("Service", func() {
	var (
		client    *fakeClient
		bus       *events.EventBus
		service   *payment.Service
		published []events.Event
		data      datamodel.PaymentFormData
	)

	BeforeEach(func() {
		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		client = &fakeClient{resp: reviewResponse()}
		bus = events.NewEventBus(logger)
		published = nil
		record := func(_ context.Context, e events.Event) error {
			published = append(published, e)
			return nil
		}
		bus.Subscribe(events.EventTypePaymentDecided, record)
		bus.Subscribe(events.EventTypePaymentFailed, record)
		service = payment.NewService(client, bus, logger)
		data = datamodel.PaymentFormData{
			CustomerID: "customer123",
			Amount:     100.50,
			Currency:   datamodel.CurrencyUSD,
			PayeeID:    "payee456",
		}
	})

	It("returns the decision and announces it", func() {
		resp, err := service.Decide(context.Background(), data)

		Expect(err).NotTo(HaveOccurred())
		Expect(resp.RequestID).To(Equal("req_abc123"))
		Expect(client.Calls()).To(ConsistOf(data))

		Expect(published).To(HaveLen(1))
		decided, ok := published[0].(*events.PaymentDecidedEvent)
		Expect(ok).To(BeTrue())
		Expect(decided.Decision).To(Equal("review"))
		Expect(decided.Currency).To(Equal("USD"))
	})

	It("returns request failures unchanged and announces them", func() {
		client.resp = nil
		client.err = errors.NewRequestFailedError("Invalid API key", http.StatusForbidden, nil)

		_, err := service.Decide(context.Background(), data)

		Expect(errors.IsRequestFailed(err)).To(BeTrue())
		Expect(err.Error()).To(Equal("Invalid API key"))
		Expect(published).To(HaveLen(1))
		failed, ok := published[0].(*events.PaymentFailedEvent)
		Expect(ok).To(BeTrue())
		Expect(failed.StatusCode).To(Equal(http.StatusForbidden))
	})

	It("wraps plain errors as request failures", func() {
		client.resp = nil
		client.err = io.ErrUnexpectedEOF

		_, err := service.Decide(context.Background(), data)

		Expect(errors.IsRequestFailed(err)).To(BeTrue())
	})

	It("works without an event bus", func() {
		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		_, err := payment.NewService(client, nil, logger).Decide(context.Background(), data)
		Expect(err).NotTo(HaveOccurred())
	})
})
