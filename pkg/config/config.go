package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Session       SessionConfig
	GCP           GCPConfig
	PubSub        PubSubConfig
	Email         EmailConfig
	Stock         StockConfig
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
	Env          string `envconfig:"MODA_APP_ENV" required:"true"`
	Port         string `envconfig:"MODA_APP_PORT" required:"true"`
	BaseURL      string `envconfig:"MODA_APP_BASE_URL" default:"http://localhost:8080"`
	LogLevel     string `envconfig:"MODA_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"MODA_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"MODA_DB_DSN"`
	Driver string `envconfig:"MODA_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"MODA_DB_HOST"`
	LegacyPort     int    `envconfig:"MODA_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"MODA_DB_USER"`
	LegacyPassword string `envconfig:"MODA_DB_PASSWORD"`
	LegacyName     string `envconfig:"MODA_DB_NAME"`
	LegacySSLMode  string `envconfig:"MODA_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"MODA_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"MODA_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"MODA_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"MODA_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"MODA_REDIS_URL" required:"true"`
	Address      string        `envconfig:"MODA_REDIS_ADDR"`
	Password     string        `envconfig:"MODA_REDIS_PASSWORD"`
	DB           int           `envconfig:"MODA_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"MODA_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"MODA_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"MODA_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"MODA_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"MODA_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"MODA_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"MODA_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"MODA_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"MODA_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
	ConfirmTokenTTLHours   int    `envconfig:"MODA_CONFIRM_TOKEN_TTL_HOURS" default:"48"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

// ConfirmTokenTTL returns the email confirmation token lifetime.
func (j JWTConfig) ConfirmTokenTTL() time.Duration {
	if j.ConfirmTokenTTLHours <= 0 {
		return 48 * time.Hour
	}
	return time.Duration(j.ConfirmTokenTTLHours) * time.Hour
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"MODA_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"MODA_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"MODA_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"MODA_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"MODA_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"MODA_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"MODA_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"MODA_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"MODA_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"MODA_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"MODA_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"MODA_AUTO_MIGRATE" default:"false"`
}

// SessionConfig controls the guest cart session cookie.
type SessionConfig struct {
	CookieName   string        `envconfig:"MODA_SESSION_COOKIE_NAME" default:"moda_cart_session"`
	CookieMaxAge time.Duration `envconfig:"MODA_SESSION_COOKIE_MAX_AGE" default:"720h"`
	CookieSecure bool          `envconfig:"MODA_SESSION_COOKIE_SECURE" default:"false"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"MODA_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	EmailTopic        string `envconfig:"MODA_PUBSUB_EMAIL_TOPIC" default:"moda-email-tasks"`
	EmailSubscription string `envconfig:"MODA_PUBSUB_EMAIL_SUBSCRIPTION"`
}

type EmailConfig struct {
	DefaultFrom string `envconfig:"MODA_EMAIL_FROM" default:"no-reply@ateliermoda.dev"`
}

// StockConfig drives the low-stock report command.
type StockConfig struct {
	LowThreshold int `envconfig:"MODA_STOCK_LOW_THRESHOLD" default:"5"`
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
