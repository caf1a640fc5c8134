package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/frahmantamala/paynow/internal"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "paynow",
	Short: "PayNow",
	Long:  `Payment request console backed by an AI payment decision service.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// loadConfig reads config.yml from path, with ENV_-prefixed environment
// overrides. Containers set APP_ENV=production and configure through plain
// environment variables instead.
func loadConfig(path string) (*internal.Config, error) {
	if os.Getenv("APP_ENV") == "production" || os.Getenv("DOCKER_ENV") == "true" {
		cfg := internal.LoadConfigFromEnv()
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("error validating config from environment: %w", err)
		}
		return cfg, nil
	}

	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yml")
	v.SetEnvPrefix("ENV")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnv(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config: %w", err)
	}

	var cfg internal.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	cfg.ApplyDefaults()

	return &cfg, nil
}

// bindEnv registers the keys AutomaticEnv cannot discover on its own, so
// secrets can be left out of config.yml entirely.
func bindEnv(v *viper.Viper) {
	for _, key := range []string{
		"decision.base_url",
		"decision.api_key",
		"session.secret",
	} {
		_ = v.BindEnv(key)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config-path", ".", "directory holding config.yml")

	rootCmd.AddCommand(httpServerCmd)
	rootCmd.AddCommand(decideCmd)
}
