package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all runtime configuration derived from environment variables. It is
// loaded once at process start and never mutated.
type Config struct {
	HTTPPort string
	LogLevel string

	CTPProjectKey       string
	CTPClientID         string
	CTPClientSecret     string
	CTPAuthURL          string
	CTPHost             string
	CTPConcurrency      int
	CTPRequestTimeout   time.Duration
	CTPTransportRetries int

	MaxConflictRetries int
	InteractionTypeKey string

	RedisURL       string
	EventLedgerTTL time.Duration

	DatabaseURL       string
	OutcomeRetention  time.Duration
	RetentionInterval time.Duration

	KafkaBrokers      string
	KafkaOutcomeTopic string

	OTelEndpoint string

	WebhookRateLimitRPS int

	JWTSecret   string
	JWTIssuer   string
	JWTAudience string
}

// OperatorRoutesEnabled reports whether the JWT protected routes should be mounted.
func (c *Config) OperatorRoutesEnabled() bool {
	return c.JWTSecret != ""
}

// Load reads environment variables using viper and returns a typed config.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	bindEnv(v, "port", "PORT", "NOTIFICATION_PORT")
	bindEnv(v, "log_level", "LOG_LEVEL", "NOTIFICATION_LOG_LEVEL")
	bindEnv(v, "ctp_project_key", "CTP_PROJECT_KEY", "NOTIFICATION_CTP_PROJECT_KEY")
	bindEnv(v, "ctp_client_id", "CTP_CLIENT_ID", "NOTIFICATION_CTP_CLIENT_ID")
	bindEnv(v, "ctp_client_secret", "CTP_CLIENT_SECRET", "NOTIFICATION_CTP_CLIENT_SECRET")
	bindEnv(v, "ctp_auth_url", "CTP_AUTH_URL", "NOTIFICATION_CTP_AUTH_URL")
	bindEnv(v, "ctp_host", "CTP_HOST", "NOTIFICATION_CTP_HOST")
	bindEnv(v, "ctp_concurrency", "CTP_CONCURRENCY", "NOTIFICATION_CTP_CONCURRENCY")
	bindEnv(v, "ctp_request_timeout", "CTP_REQUEST_TIMEOUT", "NOTIFICATION_CTP_REQUEST_TIMEOUT")
	bindEnv(v, "ctp_transport_retries", "CTP_TRANSPORT_RETRIES", "NOTIFICATION_CTP_TRANSPORT_RETRIES")
	bindEnv(v, "max_conflict_retries", "RECONCILE_MAX_CONFLICT_RETRIES", "NOTIFICATION_RECONCILE_MAX_CONFLICT_RETRIES")
	bindEnv(v, "interaction_type_key", "INTERACTION_TYPE_KEY", "NOTIFICATION_INTERACTION_TYPE_KEY")
	bindEnv(v, "redis_url", "REDIS_URL", "NOTIFICATION_REDIS_URL")
	bindEnv(v, "event_ledger_ttl", "EVENT_LEDGER_TTL", "NOTIFICATION_EVENT_LEDGER_TTL")
	bindEnv(v, "database_url", "DATABASE_URL", "NOTIFICATION_DATABASE_URL")
	bindEnv(v, "outcome_retention", "OUTCOME_RETENTION", "NOTIFICATION_OUTCOME_RETENTION")
	bindEnv(v, "retention_interval", "RETENTION_INTERVAL", "NOTIFICATION_RETENTION_INTERVAL")
	bindEnv(v, "kafka_brokers", "KAFKA_BROKERS", "NOTIFICATION_KAFKA_BROKERS")
	bindEnv(v, "kafka_outcome_topic", "KAFKA_OUTCOME_TOPIC", "NOTIFICATION_KAFKA_OUTCOME_TOPIC")
	bindEnv(v, "otel_endpoint", "OTEL_EXPORTER_ENDPOINT", "NOTIFICATION_OTEL_EXPORTER_ENDPOINT")
	bindEnv(v, "webhook_rate_limit_rps", "WEBHOOK_RATE_LIMIT_RPS", "NOTIFICATION_WEBHOOK_RATE_LIMIT_RPS")
	bindEnv(v, "jwt_secret", "JWT_SECRET", "NOTIFICATION_JWT_SECRET")
	bindEnv(v, "jwt_issuer", "JWT_ISSUER", "NOTIFICATION_JWT_ISSUER")
	bindEnv(v, "jwt_audience", "JWT_AUDIENCE", "NOTIFICATION_JWT_AUDIENCE")

	v.SetDefault("port", "8080")
	v.SetDefault("log_level", "info")
	v.SetDefault("ctp_auth_url", "https://auth.europe-west1.gcp.commercetools.com")
	v.SetDefault("ctp_host", "https://api.europe-west1.gcp.commercetools.com")
	v.SetDefault("ctp_concurrency", 10)
	v.SetDefault("ctp_request_timeout", "10s")
	v.SetDefault("ctp_transport_retries", 3)
	v.SetDefault("max_conflict_retries", 5)
	v.SetDefault("interaction_type_key", "ctp-adyen-integration-interaction-notification")
	v.SetDefault("redis_url", "")
	v.SetDefault("event_ledger_ttl", "72h")
	v.SetDefault("database_url", "")
	v.SetDefault("outcome_retention", "720h")
	v.SetDefault("retention_interval", "1h")
	v.SetDefault("kafka_brokers", "")
	v.SetDefault("kafka_outcome_topic", "payment.notification.reconciled")
	v.SetDefault("otel_endpoint", "")
	v.SetDefault("webhook_rate_limit_rps", 100)
	v.SetDefault("jwt_secret", "")
	v.SetDefault("jwt_issuer", "payment-notification")
	v.SetDefault("jwt_audience", "payment-notification-operators")

	requestTimeout, err := time.ParseDuration(v.GetString("ctp_request_timeout"))
	if err != nil {
		return nil, fmt.Errorf("invalid CTP_REQUEST_TIMEOUT: %w", err)
	}
	ledgerTTL, err := time.ParseDuration(v.GetString("event_ledger_ttl"))
	if err != nil {
		return nil, fmt.Errorf("invalid EVENT_LEDGER_TTL: %w", err)
	}
	retention, err := time.ParseDuration(v.GetString("outcome_retention"))
	if err != nil {
		return nil, fmt.Errorf("invalid OUTCOME_RETENTION: %w", err)
	}
	retentionInterval, err := time.ParseDuration(v.GetString("retention_interval"))
	if err != nil {
		return nil, fmt.Errorf("invalid RETENTION_INTERVAL: %w", err)
	}

	cfg := &Config{
		HTTPPort:            v.GetString("port"),
		LogLevel:            v.GetString("log_level"),
		CTPProjectKey:       strings.TrimSpace(v.GetString("ctp_project_key")),
		CTPClientID:         strings.TrimSpace(v.GetString("ctp_client_id")),
		CTPClientSecret:     v.GetString("ctp_client_secret"),
		CTPAuthURL:          strings.TrimRight(v.GetString("ctp_auth_url"), "/"),
		CTPHost:             strings.TrimRight(v.GetString("ctp_host"), "/"),
		CTPConcurrency:      max(v.GetInt("ctp_concurrency"), 1),
		CTPRequestTimeout:   requestTimeout,
		CTPTransportRetries: max(v.GetInt("ctp_transport_retries"), 0),
		MaxConflictRetries:  max(v.GetInt("max_conflict_retries"), 0),
		InteractionTypeKey:  v.GetString("interaction_type_key"),
		RedisURL:            v.GetString("redis_url"),
		EventLedgerTTL:      ledgerTTL,
		DatabaseURL:         v.GetString("database_url"),
		OutcomeRetention:    retention,
		RetentionInterval:   retentionInterval,
		KafkaBrokers:        v.GetString("kafka_brokers"),
		KafkaOutcomeTopic:   v.GetString("kafka_outcome_topic"),
		OTelEndpoint:        v.GetString("otel_endpoint"),
		WebhookRateLimitRPS: max(v.GetInt("webhook_rate_limit_rps"), 1),
		JWTSecret:           v.GetString("jwt_secret"),
		JWTIssuer:           v.GetString("jwt_issuer"),
		JWTAudience:         v.GetString("jwt_audience"),
	}

	if cfg.CTPProjectKey == "" {
		return nil, fmt.Errorf("CTP_PROJECT_KEY is required")
	}
	if cfg.CTPClientID == "" || strings.TrimSpace(cfg.CTPClientSecret) == "" {
		return nil, fmt.Errorf("CTP_CLIENT_ID and CTP_CLIENT_SECRET are required")
	}
	if cfg.CTPRequestTimeout <= 0 {
		return nil, fmt.Errorf("CTP_REQUEST_TIMEOUT must be positive")
	}
	if strings.TrimSpace(cfg.InteractionTypeKey) == "" {
		return nil, fmt.Errorf("INTERACTION_TYPE_KEY must not be empty")
	}
	if cfg.OperatorRoutesEnabled() {
		if len(cfg.JWTSecret) < 32 {
			return nil, fmt.Errorf("JWT_SECRET must be at least 32 characters")
		}
		if strings.TrimSpace(cfg.JWTIssuer) == "" {
			return nil, fmt.Errorf("JWT_ISSUER is required")
		}
		if strings.TrimSpace(cfg.JWTAudience) == "" {
			return nil, fmt.Errorf("JWT_AUDIENCE is required")
		}
	}

	return cfg, nil
}

func bindEnv(v *viper.Viper, key string, names ...string) {
	args := append([]string{key}, names...)
	_ = v.BindEnv(args...)
}
