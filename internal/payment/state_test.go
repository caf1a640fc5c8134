package payment_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/paynow/internal/payment"
)

var _ = Describe("PageState", func() {
	It("starts empty", func() {
		var s payment.PageState
		Expect(s.IsLoading).To(BeFalse())
		Expect(s.Result).To(BeNil())
		Expect(s.Error).To(BeEmpty())
	})

	It("clears a previous outcome when a submission starts", func() {
		s := payment.PageState{Error: "boom"}.Apply(payment.SubmitStarted{})
		Expect(s).To(Equal(payment.PageState{IsLoading: true}))

		s = payment.PageState{Result: reviewResponse()}.Apply(payment.SubmitStarted{})
		Expect(s.Result).To(BeNil())
	})

	It("keeps the decision on success", func() {
		resp := reviewResponse()
		s := payment.PageState{}.Apply(payment.SubmitStarted{}).Apply(payment.SubmitSucceeded{Response: resp})

		Expect(s.IsLoading).To(BeFalse())
		Expect(s.Result).To(BeIdenticalTo(resp))
		Expect(s.Error).To(BeEmpty())
	})

	It("keeps the message on failure", func() {
		s := payment.PageState{}.Apply(payment.SubmitStarted{}).Apply(payment.SubmitFailed{Message: "Invalid API key"})

		Expect(s.IsLoading).To(BeFalse())
		Expect(s.Result).To(BeNil())
		Expect(s.Error).To(Equal("Invalid API key"))
	})

	It("never holds a result and an error together", func() {
		s := payment.PageState{}.
			Apply(payment.SubmitStarted{}).
			Apply(payment.SubmitFailed{Message: "x"}).
			Apply(payment.SubmitStarted{}).
			Apply(payment.SubmitSucceeded{Response: reviewResponse()})

		Expect(s.Result).NotTo(BeNil())
		Expect(s.Error).To(BeEmpty())
	})

	It("clears a settled outcome", func() {
		s := payment.PageState{Error: "x"}.Apply(payment.Cleared{})
		Expect(s).To(Equal(payment.PageState{}))
	})

	It("ignores clear while loading", func() {
		s := payment.PageState{IsLoading: true}.Apply(payment.Cleared{})
		Expect(s.IsLoading).To(BeTrue())
	})
})
