package config

import (
	"time"

	"github.com/spf13/viper"
)

// Config holds everything the application needs at startup. It is loaded
// once in main and passed down explicitly; nothing reads viper after Load.
type Config struct {
	AppPort  string
	DataDir  string
	LogDir   string
	LogLevel string

	// Currency code for payment charges, e.g. "nzd".
	Currency string
	// TokenTTL is how long an issued or extended token stays valid.
	TokenTTL time.Duration
	// GatewayTimeout bounds every outbound payment/notification call.
	GatewayTimeout time.Duration

	RabbitMQURL string

	StripeSecret string
	// StripeSource is the payment source reference charged at checkout.
	StripeSource string

	MailgunAPIKey string
	MailgunDomain string
	MailgunFrom   string
}

// Load reads configuration from environment variables with sensible
// defaults for local development.
func Load() *Config {
	viper.SetDefault("APP_PORT", ":3000")
	viper.SetDefault("DATA_DIR", ".data")
	viper.SetDefault("LOG_DIR", ".logs")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("CURRENCY", "nzd")
	viper.SetDefault("TOKEN_TTL", time.Hour)
	viper.SetDefault("GATEWAY_TIMEOUT", 10*time.Second)
	viper.AutomaticEnv()

	return &Config{
		AppPort:        viper.GetString("APP_PORT"),
		DataDir:        viper.GetString("DATA_DIR"),
		LogDir:         viper.GetString("LOG_DIR"),
		LogLevel:       viper.GetString("LOG_LEVEL"),
		Currency:       viper.GetString("CURRENCY"),
		TokenTTL:       viper.GetDuration("TOKEN_TTL"),
		GatewayTimeout: viper.GetDuration("GATEWAY_TIMEOUT"),
		RabbitMQURL:    viper.GetString("RABBITMQ_URL"),
		StripeSecret:   viper.GetString("STRIPE_SECRET"),
		StripeSource:   viper.GetString("STRIPE_SOURCE"),
		MailgunAPIKey:  viper.GetString("MAILGUN_APIKEY"),
		MailgunDomain:  viper.GetString("MAILGUN_DOMAIN"),
		MailgunFrom:    viper.GetString("MAILGUN_FROM"),
	}
}
