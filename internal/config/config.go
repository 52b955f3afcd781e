package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	AppPort       string `yaml:"appPort"`
	DBDSN         string `yaml:"dbDSN"`
	JWTSecret     string `yaml:"jwtSecret"`
	JWTExpiresMin int    `yaml:"jwtExpiresMin"`
	LogLevel      string `yaml:"logLevel"`

	StripeSecretKey     string `yaml:"stripeSecretKey"`
	StripeWebhookSecret string `yaml:"stripeWebhookSecret"`
	PaymentCurrency     string `yaml:"paymentCurrency"`

	RedisAddr              string `yaml:"redisAddr"`
	RedisPassword          string `yaml:"redisPassword"`
	AuthRateLimitPerMinute int    `yaml:"authRateLimitPerMinute"`

	CORSOrigins []string `yaml:"corsOrigins"`

	GoogleClientID  string `yaml:"googleClientID"`
	GoogleSecret    string `yaml:"googleClientSecret"`
	GoogleRedirect  string `yaml:"googleRedirectURL"`
	FrontendBaseURL string `yaml:"frontendBaseURL"`

	UploadDir      string `yaml:"uploadDir"`
	AppBaseURL     string `yaml:"appBaseURL"`
	MaxUploadBytes int64  `yaml:"maxUploadBytes"`

	MinioEndpoint  string `yaml:"minioEndpoint"`
	MinioAccessKey string `yaml:"minioAccessKey"`
	MinioSecretKey string `yaml:"minioSecretKey"`
	MinioBucket    string `yaml:"minioBucket"`
	MinioUseSSL    bool   `yaml:"minioUseSSL"`

	AdminName     string `yaml:"adminName"`
	AdminEmail    string `yaml:"adminEmail"`
	AdminPassword string `yaml:"adminPassword"`
}

// Load reads the optional YAML file named by CONFIG_FILE, applies environment
// overrides and fills defaults. DB_DSN and JWT_SECRET are required.
func Load() (Config, error) {
	cfg := Config{}
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	}

	setStr(&cfg.AppPort, "PORT")
	setStr(&cfg.AppPort, "APP_PORT")
	setStr(&cfg.DBDSN, "DB_DSN")
	setStr(&cfg.JWTSecret, "JWT_SECRET")
	if err := setInt(&cfg.JWTExpiresMin, "JWT_EXPIRES_MIN"); err != nil {
		return cfg, err
	}
	setStr(&cfg.LogLevel, "LOG_LEVEL")

	setStr(&cfg.StripeSecretKey, "STRIPE_SECRET_KEY")
	setStr(&cfg.StripeWebhookSecret, "STRIPE_WEBHOOK_SECRET")
	setStr(&cfg.PaymentCurrency, "PAYMENT_CURRENCY")

	setStr(&cfg.RedisAddr, "REDIS_ADDR")
	setStr(&cfg.RedisPassword, "REDIS_PASSWORD")
	if err := setInt(&cfg.AuthRateLimitPerMinute, "AUTH_RATE_LIMIT_PER_MINUTE"); err != nil {
		return cfg, err
	}

	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		cfg.CORSOrigins = splitCSV(v)
	}

	setStr(&cfg.GoogleClientID, "GOOGLE_CLIENT_ID")
	setStr(&cfg.GoogleSecret, "GOOGLE_CLIENT_SECRET")
	setStr(&cfg.GoogleRedirect, "GOOGLE_REDIRECT_URL")
	setStr(&cfg.FrontendBaseURL, "FRONTEND_BASE_URL")

	setStr(&cfg.UploadDir, "UPLOAD_DIR")
	setStr(&cfg.AppBaseURL, "APP_BASE_URL")
	if v := os.Getenv("MAX_UPLOAD_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return cfg, fmt.Errorf("config: MAX_UPLOAD_BYTES: %w", err)
		}
		cfg.MaxUploadBytes = n
	}

	setStr(&cfg.MinioEndpoint, "MINIO_ENDPOINT")
	setStr(&cfg.MinioAccessKey, "MINIO_ACCESS_KEY")
	setStr(&cfg.MinioSecretKey, "MINIO_SECRET_KEY")
	setStr(&cfg.MinioBucket, "MINIO_BUCKET")
	if v := os.Getenv("MINIO_USE_SSL"); v != "" {
		cfg.MinioUseSSL = v == "true" || v == "1"
	}

	setStr(&cfg.AdminName, "ADMIN_NAME")
	setStr(&cfg.AdminEmail, "ADMIN_EMAIL")
	setStr(&cfg.AdminPassword, "ADMIN_PASSWORD")

	applyDefaults(&cfg)
	if err := validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	def := func(p *string, v string) {
		if *p == "" {
			*p = v
		}
	}
	def(&cfg.AppPort, "3005")
	def(&cfg.LogLevel, "info")
	def(&cfg.PaymentCurrency, "usd")
	def(&cfg.FrontendBaseURL, "http://localhost:3000")
	def(&cfg.UploadDir, "./uploads")
	def(&cfg.MinioBucket, "gigmarket")
	def(&cfg.AdminName, "Admin")
	if cfg.JWTExpiresMin <= 0 {
		cfg.JWTExpiresMin = 60
	}
	if cfg.AuthRateLimitPerMinute <= 0 {
		cfg.AuthRateLimitPerMinute = 20
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 10 << 20
	}
	if len(cfg.CORSOrigins) == 0 {
		cfg.CORSOrigins = []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	}
	cfg.PaymentCurrency = strings.ToLower(cfg.PaymentCurrency)
}

func validate(cfg Config) error {
	var errs []error
	if cfg.DBDSN == "" {
		errs = append(errs, errors.New("config: DB_DSN is required"))
	}
	if cfg.JWTSecret == "" {
		errs = append(errs, errors.New("config: JWT_SECRET is required"))
	}
	return errors.Join(errs...)
}

func (c Config) GoogleEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleSecret != ""
}

func (c Config) MinioEnabled() bool {
	return c.MinioEndpoint != ""
}

func setStr(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("config: %s: %w", key, err)
	}
	*dst = n
	return nil
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}
