package payment_test

import (
	"net/url"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	errors "github.com/frahmantamala/paynow/internal"
	datamodel "github.com/frahmantamala/paynow/internal/core/datamodel/payment"
	"github.com/frahmantamala/paynow/internal/payment"
)

var _ = Describe("Form", func() {
	var form payment.Form

	BeforeEach(func() {
		form = payment.Form{
			CustomerID: "customer123",
			Amount:     "100.50",
			Currency:   "USD",
			PayeeID:    "payee456",
		}
	})

	It("defaults to USD", func() {
		Expect(payment.NewForm().Currency).To(Equal("USD"))
	})

	It("reads submitted values", func() {
		values := url.Values{
			"customerId": {"customer123"},
			"amount":     {" 100.50 "},
			"currency":   {"EUR"},
			"payeeId":    {"payee456"},
		}
		f := payment.FormFromValues(values)

		Expect(f.CustomerID).To(Equal("customer123"))
		Expect(f.Currency).To(Equal("EUR"))
		Expect(f.Data().Amount).To(Equal(100.50))
		Expect(f.Data().Currency).To(Equal(datamodel.CurrencyEUR))
	})

	It("keeps identifiers exactly as typed", func() {
		f := payment.FormFromValues(url.Values{
			"customerId": {" customer123 "},
			"amount":     {"100.50"},
			"payeeId":    {"payee456"},
		})

		Expect(f.CustomerID).To(Equal(" customer123 "))
		Expect(f.Currency).To(Equal("USD"))

		appErr, ok := errors.IsAppError(f.Validate())
		Expect(ok).To(BeTrue())
		Expect(appErr.Fields()).To(ConsistOf("customerId"))
	})

	It("drops an unsupported currency from the snapshot", func() {
		form.Currency = "CHF"
		Expect(form.Data().Currency).To(BeEmpty())
	})

	DescribeTable("reads plain decimal amounts",
		func(raw string, want float64) {
			form.Amount = raw
			Expect(form.Data().Amount).To(Equal(want))
		},
		Entry("integer", "100", 100.0),
		Entry("two decimals", "100.50", 100.50),
		Entry("leading dot", ".5", 0.5),
		Entry("exponent", "1e3", 1000.0),
	)

	It("accepts a complete form", func() {
		Expect(form.Validate()).To(Succeed())
		Expect(form.CanSubmit(false)).To(BeTrue())
	})

	DescribeTable("rejects invalid fields",
		func(mutate func(*payment.Form), field string) {
			mutate(&form)
			err := form.Validate()
			Expect(err).To(HaveOccurred())

			appErr, ok := errors.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Fields()).To(ContainElement(field))
			Expect(form.CanSubmit(false)).To(BeFalse())
		},
		Entry("customer id too short", func(f *payment.Form) { f.CustomerID = "ab" }, "customerId"),
		Entry("customer id with a space", func(f *payment.Form) { f.CustomerID = "cust 123" }, "customerId"),
		Entry("empty payee id", func(f *payment.Form) { f.PayeeID = "" }, "payeeId"),
		Entry("zero amount", func(f *payment.Form) { f.Amount = "0" }, "amount"),
		Entry("negative amount", func(f *payment.Form) { f.Amount = "-5" }, "amount"),
		Entry("amount over the limit", func(f *payment.Form) { f.Amount = "1000000.01" }, "amount"),
		Entry("amount that is not a number", func(f *payment.Form) { f.Amount = "abc" }, "amount"),
		Entry("NaN amount", func(f *payment.Form) { f.Amount = "NaN" }, "amount"),
		Entry("hex float amount", func(f *payment.Form) { f.Amount = "0x1p3" }, "amount"),
		Entry("amount with digit separators", func(f *payment.Form) { f.Amount = "1_000" }, "amount"),
		Entry("infinite amount", func(f *payment.Form) { f.Amount = "Inf" }, "amount"),
		Entry("customer id with surrounding spaces", func(f *payment.Form) { f.CustomerID = " customer123 " }, "customerId"),
		Entry("unknown currency", func(f *payment.Form) { f.Currency = "CHF" }, "currency"),
	)

	It("accepts the boundary amount", func() {
		form.Amount = "1000000"
		Expect(form.CanSubmit(false)).To(BeTrue())
	})

	It("cannot submit while loading", func() {
		Expect(form.CanSubmit(true)).To(BeFalse())
	})

	Describe("Submit", func() {
		It("fires onSubmit once with the snapshot", func() {
			var got []datamodel.PaymentFormData
			fired := form.Submit(false, func(d datamodel.PaymentFormData) { got = append(got, d) })

			Expect(fired).To(BeTrue())
			Expect(got).To(ConsistOf(datamodel.PaymentFormData{
				CustomerID: "customer123",
				Amount:     100.50,
				Currency:   datamodel.CurrencyUSD,
				PayeeID:    "payee456",
			}))
		})

		It("does not fire while loading", func() {
			called := false
			Expect(form.Submit(true, func(datamodel.PaymentFormData) { called = true })).To(BeFalse())
			Expect(called).To(BeFalse())
		})

		It("does not fire for an invalid form and keeps the fields", func() {
			form.Amount = "-1"
			called := false
			Expect(form.Submit(false, func(datamodel.PaymentFormData) { called = true })).To(BeFalse())
			Expect(called).To(BeFalse())
			Expect(form.CustomerID).To(Equal("customer123"))
		})
	})
})
