package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	env "github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	DatabaseURL string        `env:"DATABASE_URL,required,notEmpty"`
	JWTSecret   string        `env:"JWT_SECRET,required,notEmpty"`
	JWTExpiry   time.Duration `env:"JWT_EXPIRY" envDefault:"24h"`
	Port        int           `env:"PORT" envDefault:"8080"`
	LogLevel    string        `env:"LOG_LEVEL" envDefault:"info"`
	AppEnv      string        `env:"APP_ENV" envDefault:"production"`

	MigrationsDir     string `env:"MIGRATIONS_DIR" envDefault:"migrations"`
	AutoMigrate       bool   `env:"AUTO_MIGRATE" envDefault:"false"`
	CORSAllowedOrigin string `env:"CORS_ALLOWED_ORIGIN" envDefault:"*"`

	// Deposits settle immediately unless this is set, in which case they wait
	// for an admin like withdrawals do.
	DepositRequiresApproval bool `env:"DEPOSIT_REQUIRES_APPROVAL" envDefault:"false"`

	// Per-transaction maximum by currency, e.g. "USD:10000,NGN:15000000".
	TxLimits map[string]string `env:"TX_LIMITS" envDefault:"USD:10000,NGN:15000000,ZAR:180000,BTC:1,ETH:20,USDT:10000"`

	KafkaBrokers           []string `env:"KAFKA_BROKERS" envSeparator:","`
	KafkaNotificationTopic string   `env:"KAFKA_NOTIFICATION_TOPIC" envDefault:"notifications"`

	TwilioAccountSID string `env:"TWILIO_ACCOUNT_SID"`
	TwilioAuthToken  string `env:"TWILIO_AUTH_TOKEN"`
	TwilioFrom       string `env:"TWILIO_FROM"`

	NotificationRelayInterval time.Duration `env:"NOTIFICATION_RELAY_INTERVAL" envDefault:"30s"`
	NotificationMaxAttempts   int           `env:"NOTIFICATION_MAX_ATTEMPTS" envDefault:"5"`

	IdempotencySweepInterval time.Duration `env:"IDEMPOTENCY_SWEEP_INTERVAL" envDefault:"1h"`

	DBMaxOpenConns     int `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	DBMaxIdleConns     int `env:"DB_MAX_IDLE_CONNS" envDefault:"10"`
	DBConnMaxLifetimeS int `env:"DB_CONN_MAX_LIFETIME_S" envDefault:"300"`
	DBConnMaxIdleTimeS int `env:"DB_CONN_MAX_IDLE_TIME_S" envDefault:"60"`
}

// Load reads an optional .env file and then the process environment. Values
// already present in the environment win over the file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config.Load: .env: %w", err)
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	if _, err := cfg.TransactionLimits(); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return &cfg, nil
}

func (c *Config) TransactionLimits() (map[string]decimal.Decimal, error) {
	limits := make(map[string]decimal.Decimal, len(c.TxLimits))
	for currency, raw := range c.TxLimits {
		v, err := decimal.NewFromString(strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("TX_LIMITS %s: %w", currency, err)
		}
		if !v.IsPositive() {
			return nil, fmt.Errorf("TX_LIMITS %s: must be positive", currency)
		}
		limits[strings.ToUpper(strings.TrimSpace(currency))] = v
	}
	return limits, nil
}

func (c *Config) TwilioEnabled() bool {
	return c.TwilioAccountSID != "" && c.TwilioAuthToken != "" && c.TwilioFrom != ""
}
