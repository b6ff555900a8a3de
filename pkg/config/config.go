package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	CORS          CORSConfig
	FeatureFlags  FeatureFlagsConfig
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
	Env          string `envconfig:"STOCKTRAIL_APP_ENV" required:"true"`
	Port         string `envconfig:"STOCKTRAIL_APP_PORT" default:"5000"`
	LogLevel     string `envconfig:"STOCKTRAIL_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"STOCKTRAIL_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN string `envconfig:"STOCKTRAIL_DB_DSN"`

	Host     string `envconfig:"STOCKTRAIL_DB_HOST"`
	Port     int    `envconfig:"STOCKTRAIL_DB_PORT" default:"3306"`
	User     string `envconfig:"STOCKTRAIL_DB_USER"`
	Password string `envconfig:"STOCKTRAIL_DB_PASSWORD"`
	Name     string `envconfig:"STOCKTRAIL_DB_NAME"`

	MaxOpenConns    int           `envconfig:"STOCKTRAIL_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"STOCKTRAIL_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"STOCKTRAIL_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"STOCKTRAIL_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	for _, pair := range []struct {
		env   string
		value string
	}{
		{"STOCKTRAIL_DB_HOST", db.Host},
		{"STOCKTRAIL_DB_USER", db.User},
		{"STOCKTRAIL_DB_NAME", db.Name},
	} {
		if pair.value == "" {
			missing = append(missing, pair.env)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("either STOCKTRAIL_DB_DSN or %s are required", strings.Join(missing, ", "))
	}

	credentials := db.User
	if db.Password != "" {
		credentials = fmt.Sprintf("%s:%s", db.User, db.Password)
	}
	db.DSN = fmt.Sprintf("%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC", credentials, db.Host, db.Port, db.Name)
	return nil
}

type RedisConfig struct {
	URL          string        `envconfig:"STOCKTRAIL_REDIS_URL"`
	Address      string        `envconfig:"STOCKTRAIL_REDIS_ADDR"`
	Password     string        `envconfig:"STOCKTRAIL_REDIS_PASSWORD"`
	DB           int           `envconfig:"STOCKTRAIL_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STOCKTRAIL_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"STOCKTRAIL_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"STOCKTRAIL_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STOCKTRAIL_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"STOCKTRAIL_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether any Redis endpoint was configured. The API keeps
// running without Redis; only login rate limiting is skipped.
func (r RedisConfig) Enabled() bool {
	return r.URL != "" || r.Address != ""
}

type JWTConfig struct {
	Secret            string `envconfig:"STOCKTRAIL_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"STOCKTRAIL_JWT_ISSUER" default:"stocktrail"`
	ExpirationMinutes int    `envconfig:"STOCKTRAIL_JWT_EXPIRATION_MINUTES" default:"1440"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"STOCKTRAIL_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"STOCKTRAIL_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"STOCKTRAIL_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"STOCKTRAIL_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"STOCKTRAIL_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"STOCKTRAIL_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginUsernameLimit int           `envconfig:"STOCKTRAIL_AUTH_RATE_LIMIT_LOGIN_USERNAME_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"STOCKTRAIL_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
}

type CORSConfig struct {
	ClientURL string `envconfig:"STOCKTRAIL_CLIENT_URL" default:"http://localhost:3000"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"STOCKTRAIL_AUTO_MIGRATE" default:"false"`
}
