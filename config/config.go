package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	// Application
	App AppConfig `mapstructure:"app"`

	// PostgreSQL
	Postgres PostgresConfig `mapstructure:"postgres"`

	// Redis
	Redis RedisConfig `mapstructure:"redis"`

	// NATS
	NATS NATSConfig `mapstructure:"nats"`

	// Prometheus
	Prometheus PrometheusConfig `mapstructure:"prometheus"`

	// Messaging providers + templates
	Messaging MessagingConfig `mapstructure:"messaging"`

	// Proof uploads
	Upload UploadConfig `mapstructure:"upload"`

	// Proof file storage
	Storage StorageConfig `mapstructure:"storage"`

	// Security
	Security SecurityConfig `mapstructure:"security"`
}

type AppConfig struct {
	Env          string `mapstructure:"env"`
	ListenAddr   string `mapstructure:"listen_addr"`
	WebBaseURL   string `mapstructure:"web_base_url"`
	ShortURLBase string `mapstructure:"short_url_base"`
	DefaultBrand string `mapstructure:"default_brand"`
}

type PostgresConfig struct {
	Host              string `mapstructure:"host"`
	User              string `mapstructure:"user"`
	Password          string `mapstructure:"password"`
	Database          string `mapstructure:"database"`
	Port              int    `mapstructure:"port"`
	SSLMode           string `mapstructure:"sslmode"`
	MaxConns          int32  `mapstructure:"max_conns"`
	MinConns          int32  `mapstructure:"min_conns"`
	MaxConnLifetime   string `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime   string `mapstructure:"max_conn_idle_time"`
	HealthCheckPeriod string `mapstructure:"health_check_period"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type NATSConfig struct {
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	User        string `mapstructure:"user"`
	Password    string `mapstructure:"password"`
	MonitorPort int    `mapstructure:"monitor_port"`
}

type PrometheusConfig struct {
	Port           int    `mapstructure:"port"`
	Retention      string `mapstructure:"retention"`
	ScrapeInterval string `mapstructure:"scrape_interval"`
	Target         string `mapstructure:"target"`
}

type MessagingConfig struct {
	// Provider selects the primary provider family:
	// "kakao_i_connect", "sens_sms" (or "sens"), "mock".
	Provider           string        `mapstructure:"provider"`
	MaxRetries         int           `mapstructure:"max_retries"`
	RetryBaseDelay     time.Duration `mapstructure:"retry_base_delay"`
	RequestTimeout     time.Duration `mapstructure:"request_timeout"`
	FallbackSMSEnabled bool          `mapstructure:"fallback_sms_enabled"`

	Kakao     KakaoConfig    `mapstructure:"kakao"`
	SENS      SENSConfig     `mapstructure:"sens"`
	Templates TemplateConfig `mapstructure:"templates"`
}

type KakaoConfig struct {
	BaseURL      string `mapstructure:"base_url"`
	AccessToken  string `mapstructure:"access_token"`
	SenderKey    string `mapstructure:"sender_key"`
	TemplateCode string `mapstructure:"template_code"`
	SenderNo     string `mapstructure:"sender_no"`
	CID          string `mapstructure:"cid"`
}

type SENSConfig struct {
	BaseURL     string `mapstructure:"base_url"`
	AccessKey   string `mapstructure:"access_key"`
	SecretKey   string `mapstructure:"secret_key"`
	ServiceID   string `mapstructure:"service_id"`
	From        string `mapstructure:"from"`
	CountryCode string `mapstructure:"country_code"`
	ContentType string `mapstructure:"content_type"`
}

type TemplateConfig struct {
	RichSender    string `mapstructure:"rich_sender"`
	RichRecipient string `mapstructure:"rich_recipient"`
	SMSSender     string `mapstructure:"sms_sender"`
	SMSRecipient  string `mapstructure:"sms_recipient"`
	Reminder      string `mapstructure:"reminder"`
}

type UploadConfig struct {
	MaxBytes     int64    `mapstructure:"max_bytes"`
	AllowedTypes []string `mapstructure:"allowed_types"`
}

type StorageConfig struct {
	// Driver selects "local" or "s3".
	Driver        string `mapstructure:"driver"`
	LocalDir      string `mapstructure:"local_dir"`
	PublicBaseURL string `mapstructure:"public_base_url"`
	S3Endpoint    string `mapstructure:"s3_endpoint"`
	S3AccessKey   string `mapstructure:"s3_access_key"`
	S3SecretKey   string `mapstructure:"s3_secret_key"`
	S3Bucket      string `mapstructure:"s3_bucket"`
	S3Region      string `mapstructure:"s3_region"`
	S3UseSSL      bool   `mapstructure:"s3_use_ssl"`
}

type SecurityConfig struct {
	EncryptionKey      string `mapstructure:"encryption_key"`
	TokenLength        int    `mapstructure:"token_length"`
	ShortCodeLength    int    `mapstructure:"short_code_length"`
	PublicRatePerMin   int    `mapstructure:"public_rate_per_min"`
}

func Load() (*Config, error) {
	// Load local .env for development (ignored when missing).
	if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()

	// Search for config/config.yaml (plus root for overrides).
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// Allow environment variables to override YAML entries.
	v.SetEnvPrefix("")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Preserve legacy env variable names.
	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "development")
	v.SetDefault("app.listen_addr", ":8080")
	v.SetDefault("app.web_base_url", "http://localhost:3000")
	v.SetDefault("app.default_brand", "Prooflink")

	v.SetDefault("messaging.provider", "mock")
	v.SetDefault("messaging.max_retries", 3)
	v.SetDefault("messaging.retry_base_delay", "1s")
	v.SetDefault("messaging.request_timeout", "10s")
	v.SetDefault("messaging.fallback_sms_enabled", true)
	v.SetDefault("messaging.sens.country_code", "82")
	v.SetDefault("messaging.sens.content_type", "COMM")
	v.SetDefault("messaging.templates.rich_sender",
		"[{brand}] Delivery for order {order} is complete. Photo: {url}")
	v.SetDefault("messaging.templates.rich_recipient",
		"[{brand}] A delivery from {sender} has arrived. Photo: {url}")
	v.SetDefault("messaging.templates.sms_sender",
		"[{brand}] Order {order} delivered. {url}")
	v.SetDefault("messaging.templates.sms_recipient",
		"[{brand}] Delivery from {sender} arrived. {url}")
	v.SetDefault("messaging.templates.reminder",
		"[{brand}] Order {order} is still waiting for a delivery photo. {url}")

	v.SetDefault("upload.max_bytes", int64(10<<20)) // 10 MiB
	v.SetDefault("upload.allowed_types", []string{
		"image/jpeg", "image/png", "image/webp", "image/heic",
	})

	v.SetDefault("storage.driver", "local")
	v.SetDefault("storage.local_dir", "data/uploads")
	v.SetDefault("storage.public_base_url", "/uploads")

	v.SetDefault("security.token_length", 24)
	v.SetDefault("security.short_code_length", 7)
	v.SetDefault("security.public_rate_per_min", 60)
}

func bindEnvVars(v *viper.Viper) {
	// Application
	v.BindEnv("app.env", "APP_ENV")
	v.BindEnv("app.listen_addr", "APP_LISTEN_ADDR")
	v.BindEnv("app.web_base_url", "WEB_BASE_URL")
	v.BindEnv("app.short_url_base", "SHORT_URL_BASE")

	// PostgreSQL
	v.BindEnv("postgres.host", "PG_HOST")
	v.BindEnv("postgres.user", "PG_USER")
	v.BindEnv("postgres.password", "PG_PASSWORD")
	v.BindEnv("postgres.database", "PG_DB")
	v.BindEnv("postgres.port", "PG_PORT")
	v.BindEnv("postgres.sslmode", "PG_SSLMODE")

	// Redis
	v.BindEnv("redis.host", "REDIS_HOST")
	v.BindEnv("redis.port", "REDIS_PORT")
	v.BindEnv("redis.password", "REDIS_PASSWORD")
	v.BindEnv("redis.db", "REDIS_DB")

	// NATS
	v.BindEnv("nats.host", "NATS_HOST")
	v.BindEnv("nats.port", "NATS_PORT")
	v.BindEnv("nats.user", "NATS_USER")
	v.BindEnv("nats.password", "NATS_PASSWORD")
	v.BindEnv("nats.monitor_port", "NATS_MONITOR_PORT")

	// Prometheus
	v.BindEnv("prometheus.port", "PROM_PORT")
	v.BindEnv("prometheus.retention", "PROM_RETENTION")
	v.BindEnv("prometheus.scrape_interval", "PROM_SCRAPE_INTERVAL")
	v.BindEnv("prometheus.target", "PROM_TARGET")

	// Messaging
	v.BindEnv("messaging.provider", "MESSAGING_PROVIDER")
	v.BindEnv("messaging.fallback_sms_enabled", "FALLBACK_SMS_ENABLED")
	v.BindEnv("messaging.kakao.base_url", "KAKAOI_BASE_URL")
	v.BindEnv("messaging.kakao.access_token", "KAKAOI_ACCESS_TOKEN")
	v.BindEnv("messaging.kakao.sender_key", "KAKAO_SENDER_KEY")
	v.BindEnv("messaging.kakao.template_code", "KAKAO_TEMPLATE_PROOF_DONE")
	v.BindEnv("messaging.kakao.sender_no", "KAKAO_SENDER_NO")
	v.BindEnv("messaging.kakao.cid", "KAKAO_CID")
	v.BindEnv("messaging.sens.base_url", "SENS_BASE_URL")
	v.BindEnv("messaging.sens.access_key", "SENS_ACCESS_KEY")
	v.BindEnv("messaging.sens.secret_key", "SENS_SECRET_KEY")
	v.BindEnv("messaging.sens.service_id", "SENS_SMS_SERVICE_ID")
	v.BindEnv("messaging.sens.from", "SENS_SMS_FROM")

	// Storage
	v.BindEnv("storage.driver", "STORAGE_DRIVER")
	v.BindEnv("storage.local_dir", "LOCAL_UPLOAD_DIR")
	v.BindEnv("storage.s3_endpoint", "S3_ENDPOINT")
	v.BindEnv("storage.s3_access_key", "S3_ACCESS_KEY")
	v.BindEnv("storage.s3_secret_key", "S3_SECRET_KEY")
	v.BindEnv("storage.s3_bucket", "S3_BUCKET")
	v.BindEnv("storage.s3_region", "S3_REGION")

	// Security
	v.BindEnv("security.encryption_key", "ENCRYPTION_KEY")
	v.BindEnv("security.token_length", "TOKEN_LENGTH")
	v.BindEnv("security.public_rate_per_min", "PUBLIC_TOKEN_RATE_LIMIT_PER_MIN")
}
