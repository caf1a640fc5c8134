package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	errors "github.com/frahmantamala/paynow/internal"
	"github.com/frahmantamala/paynow/internal/core/common/validation"
	"github.com/frahmantamala/paynow/internal/core/datamodel/payment"
	"github.com/frahmantamala/paynow/internal/decision"
	"github.com/frahmantamala/paynow/pkg/logger"
)

var (
	decideCustomerID string
	decideAmount     float64
	decideCurrency   string
	decidePayeeID    string
	decideTimeout    time.Duration
)

var decideCmd = &cobra.Command{
	Use:   "decide",
	Short: "Request one payment decision",
	Long:  `Send a single payment request to the decision service with the configured API key and print the decision as JSON`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDecide(cmd.Context())
	},
	SilenceUsage: true,
}

func runDecide(ctx context.Context) error {
	config, err := loadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := config.Decision.Validate(); err != nil {
		return fmt.Errorf("decision config: %w", err)
	}

	currency, err := payment.ParseCurrency(decideCurrency)
	if err != nil {
		return err
	}
	data := payment.PaymentFormData{
		CustomerID: decideCustomerID,
		Amount:     decideAmount,
		Currency:   currency,
		PayeeID:    decidePayeeID,
	}
	if appErr := validation.ValidatePaymentForm(data); appErr != nil {
		return appErr
	}

	timeout := decideTimeout
	if timeout == 0 {
		timeout = config.Decision.Timeout
	}
	client := decision.NewClient(decision.Config{
		BaseURL: config.Decision.BaseURL,
		APIKey:  config.Decision.APIKey,
		Timeout: timeout,
	}, logger.LoggerWrapper())

	resp, err := client.Submit(ctx, data)
	if err != nil {
		if appErr, ok := errors.IsAppError(err); ok {
			return fmt.Errorf("decision failed (status %d): %s", appErr.StatusCode, appErr.Message)
		}
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}

func init() {
	decideCmd.Flags().StringVar(&decideCustomerID, "customer", "", "customer id")
	decideCmd.Flags().Float64Var(&decideAmount, "amount", 0, "amount, at most 1,000,000")
	decideCmd.Flags().StringVar(&decideCurrency, "currency", string(payment.CurrencyUSD), "USD, EUR, GBP or JPY")
	decideCmd.Flags().StringVar(&decidePayeeID, "payee", "", "payee id")
	decideCmd.Flags().DurationVar(&decideTimeout, "timeout", 0, "request timeout, 0 uses the configured value")

	_ = decideCmd.MarkFlagRequired("customer")
	_ = decideCmd.MarkFlagRequired("amount")
	_ = decideCmd.MarkFlagRequired("payee")
}
