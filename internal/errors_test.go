package internal_test

import (
	"fmt"
	"io"
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	errors "github.com/frahmantamala/paynow/internal"
)

var _ = Describe("AppError", func() {
	Describe("NewRequestFailedError", func() {
		It("keeps the upstream status", func() {
			err := errors.NewRequestFailedError("Invalid API key", http.StatusForbidden, nil)
			Expect(err.StatusCode).To(Equal(http.StatusForbidden))
			Expect(err.Error()).To(Equal("Invalid API key"))
		})

		It("uses 502 when no error status arrived", func() {
			err := errors.NewRequestFailedError("decision service unreachable", 0, io.EOF)
			Expect(err.StatusCode).To(Equal(http.StatusBadGateway))
		})

		It("is found through wrapping", func() {
			wrapped := fmt.Errorf("submit: %w", errors.NewRequestFailedError("x", 0, nil))
			Expect(errors.IsRequestFailed(wrapped)).To(BeTrue())
			Expect(errors.IsRequestFailed(io.EOF)).To(BeFalse())
		})
	})

	It("renders validation details in the response body", func() {
		appErr := errors.NewValidationError("Validation failed", errors.ErrCodeValidationFailed).
			WithDetails(errors.ValidationErrors{Errors: []errors.ValidationError{
				{Field: "customerId", Message: "customerId must be at least 3 characters"},
				{Field: "amount", Message: "amount must be positive"},
			}})

		status, body := appErr.ToHTTPResponse()
		Expect(status).To(Equal(http.StatusBadRequest))

		resp, ok := body.(errors.Response)
		Expect(ok).To(BeTrue())
		Expect(resp.Detail).To(Equal("customerId must be at least 3 characters; amount must be positive"))
		Expect(resp.Errors).To(HaveLen(2))
		Expect(appErr.Fields()).To(Equal([]string{"customerId", "amount"}))
	})
})
