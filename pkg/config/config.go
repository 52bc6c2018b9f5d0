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
	JWT       JWTConfig
	Password  PasswordConfig
	AccessKey AccessKeyConfig
	Inventory InventoryConfig
	Orders    OrdersConfig
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
	Env          string `envconfig:"CATERBASE_APP_ENV" required:"true"`
	Port         string `envconfig:"CATERBASE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"CATERBASE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"CATERBASE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"CATERBASE_DB_DSN"`
	Driver string `envconfig:"CATERBASE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"CATERBASE_DB_HOST"`
	LegacyPort     int    `envconfig:"CATERBASE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"CATERBASE_DB_USER"`
	LegacyPassword string `envconfig:"CATERBASE_DB_PASSWORD"`
	LegacyName     string `envconfig:"CATERBASE_DB_NAME"`
	LegacySSLMode  string `envconfig:"CATERBASE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"CATERBASE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"CATERBASE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"CATERBASE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"CATERBASE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type JWTConfig struct {
	Secret            string `envconfig:"CATERBASE_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"CATERBASE_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"CATERBASE_JWT_EXPIRATION_MINUTES" required:"true"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"CATERBASE_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"CATERBASE_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"CATERBASE_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"CATERBASE_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"CATERBASE_ARGON_KEY_LEN" default:"32"`
}

// AccessKeyConfig controls the customer self-service tokens.
type AccessKeyConfig struct {
	TTLMinutes int `envconfig:"CATERBASE_ACCESS_KEY_TTL_MINUTES" default:"10080"`
}

// TTL returns the configured access key lifetime.
func (a AccessKeyConfig) TTL() time.Duration {
	if a.TTLMinutes <= 0 {
		return 0
	}
	return time.Duration(a.TTLMinutes) * time.Minute
}

type InventoryConfig struct {
	DefaultLowStockThreshold int `envconfig:"CATERBASE_DEFAULT_LOW_STOCK_THRESHOLD" default:"5"`
}

// OrdersConfig carries order lifecycle policy switches.
//
// ReleaseStockOnDelete defaults to false: deleting an order reverses the
// customer balance but keeps the stock decrement, treating deletions as
// administrative corrections rather than cancellations.
type OrdersConfig struct {
	ReleaseStockOnDelete bool `envconfig:"CATERBASE_RELEASE_STOCK_ON_DELETE" default:"false"`
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
