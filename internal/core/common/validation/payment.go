package validation

import (
	"regexp"

	errors "github.com/frahmantamala/paynow/internal"
	"github.com/frahmantamala/paynow/internal/core/datamodel/payment"
)

const (
	TokenMinLength = 3
	MaxAmount      = 1_000_000
)

// TokenPattern is the shape of customer and payee identifiers.
var TokenPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

func currencyCodes() []string {
	codes := make([]string, len(payment.Currencies))
	for i, c := range payment.Currencies {
		codes[i] = string(c)
	}
	return codes
}

func addToken(v *ValidationBuilder, field, value string, code errors.ErrorCode) {
	v.Field(field, value).
		Required().
		MinLength(TokenMinLength).
		Matches(TokenPattern, "may only contain letters, digits, hyphens and underscores", code)
}

func addAmount(v *ValidationBuilder, amount float64) {
	v.Field("amount", amount).
		Finite(errors.ErrCodeInvalidAmount).
		GreaterThan(0, errors.ErrCodeAmountTooLow).
		MaxFloat(MaxAmount, errors.ErrCodeAmountTooHigh)
}

// ValidatePaymentForm checks every field of a payment request form.
func ValidatePaymentForm(data payment.PaymentFormData) *errors.AppError {
	v := NewValidator()
	addToken(v, "customerId", data.CustomerID, errors.ErrCodeInvalidCustomerID)
	addAmount(v, data.Amount)
	v.Field("currency", string(data.Currency)).
		Required().
		OneOf(currencyCodes(), errors.ErrCodeInvalidCurrency)
	addToken(v, "payeeId", data.PayeeID, errors.ErrCodeInvalidPayeeID)
	return v.Validate()
}

func ValidateToken(field, value string) *errors.AppError {
	v := NewValidator()
	addToken(v, field, value, errors.ErrCodeValidationFailed)
	return v.Validate()
}

func ValidateAmount(amount float64) *errors.AppError {
	v := NewValidator()
	addAmount(v, amount)
	return v.Validate()
}
