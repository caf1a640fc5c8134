package payment

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/frahmantamala/paynow/internal/core/common/validation"
	"github.com/frahmantamala/paynow/internal/core/datamodel/payment"
)

// Form holds the fields as the user typed them. Amount stays a string so an
// entry that does not parse is shown back unchanged.
type Form struct {
	CustomerID string
	Amount     string
	Currency   string
	PayeeID    string
}

func NewForm() Form {
	return Form{Currency: string(payment.CurrencyUSD)}
}

// amountPattern is a plain decimal number as a number input submits it.
// ParseFloat alone would also take hex floats and digit separators.
var amountPattern = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// FormFromValues reads a submitted HTML form as typed. A missing currency
// falls back to the default selection.
func FormFromValues(values url.Values) Form {
	f := Form{
		CustomerID: values.Get("customerId"),
		Amount:     strings.TrimSpace(values.Get("amount")),
		Currency:   values.Get("currency"),
		PayeeID:    values.Get("payeeId"),
	}
	if f.Currency == "" {
		f.Currency = string(payment.CurrencyUSD)
	}
	return f
}

// Data snapshots the form. An amount that is not a plain decimal becomes 0
// and an unsupported currency is dropped, so Validate rejects both.
func (f Form) Data() payment.PaymentFormData {
	currency, _ := payment.ParseCurrency(f.Currency)
	return payment.PaymentFormData{
		CustomerID: f.CustomerID,
		Amount:     parseAmount(f.Amount),
		Currency:   currency,
		PayeeID:    f.PayeeID,
	}
}

func parseAmount(raw string) float64 {
	if !amountPattern.MatchString(raw) {
		return 0
	}
	amount, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0
	}
	return amount
}

// Validate returns a validation *errors.AppError with one entry per failing
// field, or nil.
func (f Form) Validate() error {
	if appErr := validation.ValidatePaymentForm(f.Data()); appErr != nil {
		return appErr
	}
	return nil
}

func (f Form) CanSubmit(isLoading bool) bool {
	return !isLoading && f.Validate() == nil
}

// Submit calls onSubmit once with a snapshot of the fields when the form can
// be submitted, and reports whether it did. The form is never reset.
func (f Form) Submit(isLoading bool, onSubmit func(payment.PaymentFormData)) bool {
	if !f.CanSubmit(isLoading) {
		return false
	}
	onSubmit(f.Data())
	return true
}
