package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// AppConfig holds the global application configuration
var AppConfig *Config

// Config holds the application configuration
type Config struct {
	Port        string `mapstructure:"PORT"`
	GinMode     string `mapstructure:"GIN_MODE"`
	LogLevel    string `mapstructure:"LOG_LEVEL"`
	LogFormat   string `mapstructure:"LOG_FORMAT"`
	DatabaseURL string `mapstructure:"DATABASE_URL"`

	StripeSecretKey     string `mapstructure:"STRIPE_SECRET_KEY"`
	StripeWebhookSecret string `mapstructure:"STRIPE_WEBHOOK_SECRET"`
	StripePriceWeekly   string `mapstructure:"STRIPE_PRICE_WEEKLY"`
	StripePriceMonthly  string `mapstructure:"STRIPE_PRICE_MONTHLY"`
	StripePriceYearly   string `mapstructure:"STRIPE_PRICE_YEARLY"`

	OpenAIAPIKey  string `mapstructure:"OPENAI_API_KEY"`
	OpenAIBaseURL string `mapstructure:"OPENAI_BASE_URL"`
	MealplanModel string `mapstructure:"MEALPLAN_MODEL"`

	ClerkSecretKey    string `mapstructure:"CLERK_SECRET_KEY"`
	ClerkAPIURL       string `mapstructure:"CLERK_API_URL"`
	ClerkPEMPublicKey string `mapstructure:"CLERK_PEM_PUBLIC_KEY"`

	// ClientURL is the frontend origin used for checkout redirect URLs.
	ClientURL string `mapstructure:"CLIENT_URL"`
}

// LoadConfig loads configuration from environment variables, with an optional
// .env file discovered by walking up from the working directory.
func LoadConfig() (*Config, error) {
	loadDotEnv()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	viper.SetDefault("PORT", "8080")
	viper.SetDefault("GIN_MODE", "debug")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_FORMAT", "json")
	viper.SetDefault("OPENAI_BASE_URL", "https://openrouter.ai/api/v1")
	viper.SetDefault("MEALPLAN_MODEL", "meta-llama/llama-3.2-3b-instruct:free")
	viper.SetDefault("CLERK_API_URL", "https://api.clerk.com")

	for _, key := range []string{
		"PORT", "GIN_MODE", "LOG_LEVEL", "LOG_FORMAT", "DATABASE_URL",
		"STRIPE_SECRET_KEY", "STRIPE_WEBHOOK_SECRET",
		"STRIPE_PRICE_WEEKLY", "STRIPE_PRICE_MONTHLY", "STRIPE_PRICE_YEARLY",
		"OPENAI_API_KEY", "OPENAI_BASE_URL", "MEALPLAN_MODEL",
		"CLERK_SECRET_KEY", "CLERK_API_URL", "CLERK_PEM_PUBLIC_KEY",
		"CLIENT_URL",
	} {
		_ = viper.BindEnv(key)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, errors.New("failed to unmarshal config: " + err.Error())
	}

	required := []struct {
		value   string
		display string
	}{
		{cfg.DatabaseURL, "DATABASE_URL"},
		{cfg.StripeSecretKey, "STRIPE_SECRET_KEY"},
		{cfg.StripeWebhookSecret, "STRIPE_WEBHOOK_SECRET"},
		{cfg.StripePriceWeekly, "STRIPE_PRICE_WEEKLY"},
		{cfg.StripePriceMonthly, "STRIPE_PRICE_MONTHLY"},
		{cfg.StripePriceYearly, "STRIPE_PRICE_YEARLY"},
		{cfg.OpenAIAPIKey, "OPENAI_API_KEY"},
		{cfg.ClerkSecretKey, "CLERK_SECRET_KEY"},
		{cfg.ClerkPEMPublicKey, "CLERK_PEM_PUBLIC_KEY"},
		{cfg.ClientURL, "CLIENT_URL"},
	}
	for _, r := range required {
		if r.value == "" {
			return nil, errors.New("missing required environment variable: " + r.display)
		}
	}

	return &cfg, nil
}

// loadDotEnv walks up from the working directory and loads the first .env found.
// Missing .env is fine; deployments set plain environment variables.
func loadDotEnv() {
	currentDir, err := os.Getwd()
	if err != nil {
		return
	}
	for currentDir != "/" {
		envPath := filepath.Join(currentDir, ".env")
		if _, err := os.Stat(envPath); err == nil {
			_ = godotenv.Load(envPath)
			return
		}
		currentDir = filepath.Dir(currentDir)
	}
}
