package internal_test

import (
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/paynow/internal"
)

var _ = Describe("Config", func() {
	var cfg *internal.Config

	BeforeEach(func() {
		cfg = &internal.Config{
			Decision: internal.DecisionConfig{
				BaseURL: "http://127.0.0.1:8000",
				APIKey:  "test-key",
			},
			Session: internal.SessionConfig{
				Secret: strings.Repeat("x", 32),
			},
		}
		cfg.ApplyDefaults()
	})

	It("fills defaults", func() {
		Expect(cfg.Server.Port).To(Equal(3000))
		Expect(cfg.Session.TTL).To(Equal(30 * time.Minute))
		Expect(cfg.Session.CookieName).To(Equal("paynow_session"))
		Expect(cfg.Observability.Metrics.Path).To(Equal("/metrics"))
		Expect(cfg.Observability.Logging.Level).To(Equal("info"))
		Expect(cfg.Observability.Tracing.ServiceName).To(Equal("paynow"))
	})

	It("accepts a complete config", func() {
		Expect(cfg.Validate()).To(Succeed())
	})

	It("requires the API key", func() {
		cfg.Decision.APIKey = ""
		Expect(cfg.Validate()).To(MatchError(ContainSubstring("api_key is required")))
	})

	It("requires an http base URL", func() {
		cfg.Decision.BaseURL = "ftp://decisions"
		Expect(cfg.Validate()).To(MatchError(ContainSubstring("base_url must be http or https")))
	})

	It("requires a long session secret", func() {
		cfg.Session.Secret = "short"
		Expect(cfg.Validate()).To(MatchError(ContainSubstring("at least 32 characters")))
	})

	It("reports every broken section at once", func() {
		cfg.Decision.APIKey = ""
		cfg.Session.Secret = ""
		cfg.Observability.Logging.Format = "xml"

		err := cfg.Validate()
		Expect(err).To(MatchError(ContainSubstring("decision config")))
		Expect(err).To(MatchError(ContainSubstring("session config")))
		Expect(err).To(MatchError(ContainSubstring("observability config")))
	})

	It("bounds the sampling rate when tracing is on", func() {
		cfg.Observability.Tracing.Enabled = true
		cfg.Observability.Tracing.SamplingRate = 2
		Expect(cfg.Validate()).To(MatchError(ContainSubstring("sampling_rate")))
	})

	Describe("LoadConfigFromEnv", func() {
		It("reads the decision service settings", func() {
			GinkgoT().Setenv("DECISION_BASE_URL", "https://decisions.example.com")
			GinkgoT().Setenv("DECISION_API_KEY", "env-key")
			GinkgoT().Setenv("DECISION_TIMEOUT", "10s")
			GinkgoT().Setenv("SESSION_SECRET", strings.Repeat("y", 40))
			GinkgoT().Setenv("PORT", "8080")

			env := internal.LoadConfigFromEnv()

			Expect(env.Server.Port).To(Equal(8080))
			Expect(env.Decision.BaseURL).To(Equal("https://decisions.example.com"))
			Expect(env.Decision.APIKey).To(Equal("env-key"))
			Expect(env.Decision.Timeout).To(Equal(10 * time.Second))
			Expect(env.Observability.Logging.Format).To(Equal("json"))
			Expect(env.Validate()).To(Succeed())
		})
	})
})
