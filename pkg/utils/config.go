package utils

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	Authz     AuthzConfig
	Pricing   PricingConfig
	Conflict  ConflictConfig
	Gateway   GatewayConfig
	Webhook   WebhookConfig
	Reconcile ReconcileConfig
	Audit     AuditConfig
	Broker    BrokerConfig
	Tracing   TracingConfig
}

type AppConfig struct {
	Name          string
	Port          string
	Debug         bool
	LogPath       string
	LogLevel      string // overrides the level implied by Debug
	SnowflakeNode int64
}

type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSLMode  string
	MaxConns int32
}

type JWTConfig struct {
	Secret string
	Issuer string
}

// AuthzConfig maps a role claim to the permissions it grants.
type AuthzConfig struct {
	Roles map[string][]string
}

type TaxRate struct {
	Name    string
	RateBps int64
}

type PricingConfig struct {
	Currency          string
	QuoteTTL          time.Duration
	TaxRates          []TaxRate
	RoundingMode      string
	RoundingIncrement int64
}

type ConflictConfig struct {
	// FailurePolicy is "open" or "closed".
	FailurePolicy string
}

type GatewayConfig struct {
	Provider        string
	AccessToken     string
	Timeout         time.Duration
	SessionTTL      time.Duration
	SuccessURL      string
	CancelURL       string
	NotificationURL string
}

type WebhookConfig struct {
	Secret string
	// NotificationSecret signs provider-native notifications (x-signature).
	NotificationSecret string
	Tolerance          time.Duration
	ClaimLease         time.Duration
	MaxBodyBytes       int64
}

type ReconcileConfig struct {
	AmountTolerance int64
	MaxLimit        int
}

type AuditConfig struct {
	Sink           string
	DynamoTable    string
	AWSRegion      string
	DynamoEndpoint string
}

type BrokerConfig struct {
	URL      string
	Exchange string
}

type TracingConfig struct {
	Enabled     bool
	Endpoint    string
	Environment string
}

func LoadConfig() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.SetConfigType("env")

	// Set defaults
	viper.SetDefault("APP_NAME", "booking-engine")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("DEBUG", false)
	viper.SetDefault("LOG_PATH", "logs/")
	viper.SetDefault("LOG_LEVEL", "")
	viper.SetDefault("SNOWFLAKE_NODE", 1)
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("DB_MAX_CONNS", 10)
	viper.SetDefault("JWT_ISSUER", "booking-engine")
	viper.SetDefault("AUTHZ_ROLES", "admin=booking.read,reconciliation.run,webhook.replay,checkout.reap;finance=booking.read,reconciliation.run")
	viper.SetDefault("CURRENCY", "USD")
	viper.SetDefault("QUOTE_TTL_MINUTES", 30)
	viper.SetDefault("TAX_RATES", "VAT:800")
	viper.SetDefault("TAX_ROUNDING_MODE", "half_up")
	viper.SetDefault("TAX_ROUNDING_INCREMENT", 1)
	viper.SetDefault("CONFLICT_FAILURE_POLICY", "open")
	viper.SetDefault("GATEWAY_PROVIDER", "mercadopago")
	viper.SetDefault("GATEWAY_TIMEOUT_SECONDS", 10)
	viper.SetDefault("CHECKOUT_SESSION_TTL_MINUTES", 30)
	viper.SetDefault("WEBHOOK_TOLERANCE_SECONDS", 300)
	viper.SetDefault("WEBHOOK_CLAIM_LEASE_SECONDS", 60)
	viper.SetDefault("WEBHOOK_MAX_BODY_BYTES", 1<<20)
	viper.SetDefault("RECON_AMOUNT_TOLERANCE", 1)
	viper.SetDefault("RECON_MAX_LIMIT", 500)
	viper.SetDefault("AUDIT_SINK", "postgres")
	viper.SetDefault("DYNAMODB_AUDIT_TABLE", "audit_logs")
	viper.SetDefault("AWS_REGION", "us-east-1")
	viper.SetDefault("EVENTS_EXCHANGE", "booking.events")
	viper.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "otel-collector:4317")
	viper.SetDefault("ENV", "dev")

	// .env is optional; plain environment variables are enough in containers
	if err := viper.ReadInConfig(); err != nil {
		var pathErr *fs.PathError
		if !errors.As(err, &pathErr) {
			return nil, err
		}
	}

	viper.AutomaticEnv()

	taxRates, err := parseTaxRates(viper.GetString("TAX_RATES"))
	if err != nil {
		return nil, err
	}

	config := &Config{
		App: AppConfig{
			Name:          viper.GetString("APP_NAME"),
			Port:          viper.GetString("PORT"),
			Debug:         viper.GetBool("DEBUG"),
			LogPath:       viper.GetString("LOG_PATH"),
			LogLevel:      viper.GetString("LOG_LEVEL"),
			SnowflakeNode: viper.GetInt64("SNOWFLAKE_NODE"),
		},
		Database: DatabaseConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			Name:     viper.GetString("DB_NAME"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASS"),
			SSLMode:  viper.GetString("DB_SSLMODE"),
			MaxConns: viper.GetInt32("DB_MAX_CONNS"),
		},
		JWT: JWTConfig{
			Secret: viper.GetString("JWT_SECRET"),
			Issuer: viper.GetString("JWT_ISSUER"),
		},
		Authz: AuthzConfig{
			Roles: parseRoles(viper.GetString("AUTHZ_ROLES")),
		},
		Pricing: PricingConfig{
			Currency:          strings.ToUpper(viper.GetString("CURRENCY")),
			QuoteTTL:          time.Duration(viper.GetInt("QUOTE_TTL_MINUTES")) * time.Minute,
			TaxRates:          taxRates,
			RoundingMode:      viper.GetString("TAX_ROUNDING_MODE"),
			RoundingIncrement: viper.GetInt64("TAX_ROUNDING_INCREMENT"),
		},
		Conflict: ConflictConfig{
			FailurePolicy: strings.ToLower(viper.GetString("CONFLICT_FAILURE_POLICY")),
		},
		Gateway: GatewayConfig{
			Provider:        strings.ToLower(viper.GetString("GATEWAY_PROVIDER")),
			AccessToken:     viper.GetString("MERCADOPAGO_ACCESS_TOKEN"),
			Timeout:         time.Duration(viper.GetInt("GATEWAY_TIMEOUT_SECONDS")) * time.Second,
			SessionTTL:      time.Duration(viper.GetInt("CHECKOUT_SESSION_TTL_MINUTES")) * time.Minute,
			SuccessURL:      viper.GetString("CHECKOUT_SUCCESS_URL"),
			CancelURL:       viper.GetString("CHECKOUT_CANCEL_URL"),
			NotificationURL: viper.GetString("CHECKOUT_NOTIFICATION_URL"),
		},
		Webhook: WebhookConfig{
			Secret:             viper.GetString("GATEWAY_WEBHOOK_SECRET"),
			NotificationSecret: viper.GetString("MERCADOPAGO_WEBHOOK_SECRET"),
			Tolerance:          time.Duration(viper.GetInt("WEBHOOK_TOLERANCE_SECONDS")) * time.Second,
			ClaimLease:         time.Duration(viper.GetInt("WEBHOOK_CLAIM_LEASE_SECONDS")) * time.Second,
			MaxBodyBytes:       viper.GetInt64("WEBHOOK_MAX_BODY_BYTES"),
		},
		Reconcile: ReconcileConfig{
			AmountTolerance: viper.GetInt64("RECON_AMOUNT_TOLERANCE"),
			MaxLimit:        viper.GetInt("RECON_MAX_LIMIT"),
		},
		Audit: AuditConfig{
			Sink:           strings.ToLower(viper.GetString("AUDIT_SINK")),
			DynamoTable:    viper.GetString("DYNAMODB_AUDIT_TABLE"),
			AWSRegion:      viper.GetString("AWS_REGION"),
			DynamoEndpoint: viper.GetString("DYNAMODB_ENDPOINT"),
		},
		Broker: BrokerConfig{
			URL:      viper.GetString("RABBIT_URL"),
			Exchange: viper.GetString("EVENTS_EXCHANGE"),
		},
		Tracing: TracingConfig{
			Enabled:     viper.GetBool("OTEL_ENABLED"),
			Endpoint:    viper.GetString("OTEL_EXPORTER_OTLP_ENDPOINT"),
			Environment: viper.GetString("ENV"),
		},
	}

	return config, nil
}

// parseTaxRates reads "VAT:800,CITY:150" (rates in basis points).
func parseTaxRates(raw string) ([]TaxRate, error) {
	var rates []TaxRate
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, value, ok := strings.Cut(part, ":")
		if !ok {
			return nil, fmt.Errorf("invalid tax rate %q, expected NAME:BPS", part)
		}
		bps, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
		if err != nil || bps < 0 {
			return nil, fmt.Errorf("invalid tax rate %q: basis points must be a non-negative integer", part)
		}
		rates = append(rates, TaxRate{Name: strings.TrimSpace(name), RateBps: bps})
	}
	return rates, nil
}

// parseRoles reads "admin=booking.read,reconciliation.run;finance=booking.read".
func parseRoles(raw string) map[string][]string {
	roles := make(map[string][]string)
	for _, entry := range strings.Split(raw, ";") {
		role, perms, ok := strings.Cut(strings.TrimSpace(entry), "=")
		if !ok || role == "" {
			continue
		}
		for _, p := range strings.Split(perms, ",") {
			if p = strings.TrimSpace(p); p != "" {
				roles[role] = append(roles[role], p)
			}
		}
	}
	return roles
}
