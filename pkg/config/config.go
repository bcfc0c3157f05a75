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
	Idempotency   IdempotencyConfig
	FeatureFlags  FeatureFlagsConfig
}

// Load reads the process environment into a Config and fills derived values.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.FeatureFlags.UseSQLite {
		cfg.DB.Driver = DriverSQLite
	} else if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Redis.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"KRIDI_APP_ENV" required:"true"`
	Port         string `envconfig:"KRIDI_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"KRIDI_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"KRIDI_LOG_WARN_STACK" default:"false"`
	// CORSOrigins is a comma separated allow list for browser clients.
	CORSOrigins []string `envconfig:"KRIDI_CORS_ORIGINS" default:"*"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type DBConfig struct {
	DSN       string `envconfig:"KRIDI_DB_DSN"`
	Driver    string `envconfig:"KRIDI_DB_DRIVER" default:"postgres"`
	SQLiteDSN string `envconfig:"KRIDI_SQLITE_DSN" default:"file:kridi.db?_foreign_keys=on"`

	LegacyHost     string `envconfig:"KRIDI_DB_HOST"`
	LegacyPort     int    `envconfig:"KRIDI_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"KRIDI_DB_USER"`
	LegacyPassword string `envconfig:"KRIDI_DB_PASSWORD"`
	LegacyName     string `envconfig:"KRIDI_DB_NAME"`
	LegacySSLMode  string `envconfig:"KRIDI_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"KRIDI_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"KRIDI_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"KRIDI_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"KRIDI_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"KRIDI_REDIS_URL"`
	Address      string        `envconfig:"KRIDI_REDIS_ADDR"`
	Password     string        `envconfig:"KRIDI_REDIS_PASSWORD"`
	DB           int           `envconfig:"KRIDI_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"KRIDI_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"KRIDI_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"KRIDI_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"KRIDI_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"KRIDI_REDIS_WRITE_TIMEOUT" default:"5s"`
}

func (r RedisConfig) validate() error {
	if strings.TrimSpace(r.URL) == "" && strings.TrimSpace(r.Address) == "" {
		return fmt.Errorf("either %s or %s is required", EnvRedisURL, EnvRedisAddr)
	}
	return nil
}

type JWTConfig struct {
	Secret                 string `envconfig:"KRIDI_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"KRIDI_JWT_ISSUER" default:"carni-kridi"`
	ExpirationMinutes      int    `envconfig:"KRIDI_JWT_EXPIRATION_MINUTES" default:"60"`
	RefreshTokenTTLMinutes int    `envconfig:"KRIDI_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"KRIDI_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"KRIDI_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"KRIDI_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"KRIDI_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"KRIDI_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow          time.Duration `envconfig:"KRIDI_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginIPLimit         int           `envconfig:"KRIDI_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	// LoginIdentifierLimit caps attempts per email or phone inside LoginWindow.
	LoginIdentifierLimit int           `envconfig:"KRIDI_AUTH_RATE_LIMIT_LOGIN_IDENTIFIER_LIMIT" default:"10"`
	RegisterWindow       time.Duration `envconfig:"KRIDI_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterIPLimit      int           `envconfig:"KRIDI_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"10"`
}

type IdempotencyConfig struct {
	TTL time.Duration `envconfig:"KRIDI_IDEMPOTENCY_TTL" default:"24h"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"KRIDI_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"KRIDI_AUTO_MIGRATE" default:"false"`
	SeedDemo    bool `envconfig:"KRIDI_SEED_DEMO" default:"false"`
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
