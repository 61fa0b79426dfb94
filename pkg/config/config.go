package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App       AppConfig
	DB        DBConfig
	Redis     RedisConfig
	Checkout  CheckoutConfig
	Stripe    StripeConfig
	DataTrans DataTransConfig
	Infoniqa  InfoniqaConfig
	Email     EmailConfig
	Sync      SyncConfig
	Features  FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"BAUPRODUKT_APP_ENV" required:"true"`
	Port         string `envconfig:"BAUPRODUKT_APP_PORT" required:"true"`
	BaseURL      string `envconfig:"BAUPRODUKT_APP_BASE_URL" default:"http://localhost:3000"`
	LogLevel     string `envconfig:"BAUPRODUKT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"BAUPRODUKT_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"BAUPRODUKT_DB_DSN"`
	Driver string `envconfig:"BAUPRODUKT_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"BAUPRODUKT_DB_HOST"`
	LegacyPort     int    `envconfig:"BAUPRODUKT_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"BAUPRODUKT_DB_USER"`
	LegacyPassword string `envconfig:"BAUPRODUKT_DB_PASSWORD"`
	LegacyName     string `envconfig:"BAUPRODUKT_DB_NAME"`
	LegacySSLMode  string `envconfig:"BAUPRODUKT_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"BAUPRODUKT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"BAUPRODUKT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"BAUPRODUKT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"BAUPRODUKT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"BAUPRODUKT_REDIS_URL" required:"true"`
	Address      string        `envconfig:"BAUPRODUKT_REDIS_ADDR"`
	Password     string        `envconfig:"BAUPRODUKT_REDIS_PASSWORD"`
	DB           int           `envconfig:"BAUPRODUKT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"BAUPRODUKT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"BAUPRODUKT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"BAUPRODUKT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"BAUPRODUKT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"BAUPRODUKT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type CheckoutConfig struct {
	CartTTL             time.Duration `envconfig:"BAUPRODUKT_CART_TTL" default:"168h"`
	OrderNumberAttempts int           `envconfig:"BAUPRODUKT_ORDER_NUMBER_ATTEMPTS" default:"5"`
	SessionExpiry       time.Duration `envconfig:"BAUPRODUKT_PAYMENT_SESSION_EXPIRY" default:"30m"`
}

type StripeConfig struct {
	APIKey        string `envconfig:"BAUPRODUKT_STRIPE_API_KEY"`
	WebhookSecret string `envconfig:"BAUPRODUKT_STRIPE_WEBHOOK_SECRET"`
	Env           string `envconfig:"BAUPRODUKT_STRIPE_ENV" default:"test"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

type DataTransConfig struct {
	APIURL     string        `envconfig:"BAUPRODUKT_DATATRANS_API_URL" default:"https://api.sandbox.datatrans.com/v1"`
	MerchantID string        `envconfig:"BAUPRODUKT_DATATRANS_MERCHANT_ID"`
	Password   string        `envconfig:"BAUPRODUKT_DATATRANS_PASSWORD"`
	SignKey    string        `envconfig:"BAUPRODUKT_DATATRANS_SIGN_KEY"`
	Timeout    time.Duration `envconfig:"BAUPRODUKT_DATATRANS_TIMEOUT" default:"10s"`
}

type InfoniqaConfig struct {
	APIBase          string        `envconfig:"BAUPRODUKT_INFONIQA_API_BASE"`
	Auth0TokenURL    string        `envconfig:"BAUPRODUKT_INFONIQA_AUTH0_TOKEN_URL"`
	Auth0ClientID    string        `envconfig:"BAUPRODUKT_INFONIQA_AUTH0_CLIENT_ID"`
	Auth0Secret      string        `envconfig:"BAUPRODUKT_INFONIQA_AUTH0_CLIENT_SECRET"`
	Auth0Audience    string        `envconfig:"BAUPRODUKT_INFONIQA_AUTH0_AUDIENCE"`
	Timeout          time.Duration `envconfig:"BAUPRODUKT_INFONIQA_TIMEOUT" default:"15s"`
	TokenGracePeriod time.Duration `envconfig:"BAUPRODUKT_INFONIQA_TOKEN_GRACE" default:"5m"`
}

type EmailConfig struct {
	FulfillmentAddress string `envconfig:"BAUPRODUKT_SWISS_VFG_EMAIL" default:"fulfillment@swissvfg.ch"`
}

type SyncConfig struct {
	Interval  time.Duration `envconfig:"BAUPRODUKT_SYNC_INTERVAL" default:"1m"`
	BatchSize int           `envconfig:"BAUPRODUKT_SYNC_BATCH_SIZE" default:"20"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"BAUPRODUKT_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"BAUPRODUKT_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
