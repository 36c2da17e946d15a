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
	Service       ServiceConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Session       SessionConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	CORS          CORSConfig
	Cart          CartConfig
	Shipping      ShippingConfig
	Checkout      CheckoutConfig
	Reindex       ReindexConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.FeatureFlags.UseSQLite {
		cfg.DB.Driver = DBDriverSQLite
	}
	if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
		return nil, err
	}
	if err := cfg.Shipping.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env           string `envconfig:"ISOLELE_APP_ENV" required:"true"`
	Port          string `envconfig:"ISOLELE_APP_PORT" default:"8080"`
	LogLevel      string `envconfig:"ISOLELE_LOG_LEVEL" default:"info"`
	LogWarnStack  bool   `envconfig:"ISOLELE_LOG_WARN_STACK" default:"false"`
	PublicBaseURL string `envconfig:"ISOLELE_PUBLIC_BASE_URL" default:"https://isolele.com"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"ISOLELE_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"ISOLELE_DB_DSN"`
	Driver string `envconfig:"ISOLELE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"ISOLELE_DB_HOST"`
	LegacyPort     int    `envconfig:"ISOLELE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"ISOLELE_DB_USER"`
	LegacyPassword string `envconfig:"ISOLELE_DB_PASSWORD"`
	LegacyName     string `envconfig:"ISOLELE_DB_NAME"`
	LegacySSLMode  string `envconfig:"ISOLELE_DB_SSLMODE" default:"disable"`

	SQLitePath string `envconfig:"ISOLELE_SQLITE_PATH" default:"isolele.db"`

	MaxOpenConns    int           `envconfig:"ISOLELE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"ISOLELE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"ISOLELE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"ISOLELE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"ISOLELE_REDIS_URL"`
	Address      string        `envconfig:"ISOLELE_REDIS_ADDR"`
	Password     string        `envconfig:"ISOLELE_REDIS_PASSWORD"`
	DB           int           `envconfig:"ISOLELE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"ISOLELE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"ISOLELE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"ISOLELE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"ISOLELE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"ISOLELE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"ISOLELE_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"ISOLELE_JWT_ISSUER" default:"isolele"`
	ExpirationMinutes int    `envconfig:"ISOLELE_JWT_EXPIRATION_MINUTES" default:"720"`
}

// TTL returns the access token lifetime.
func (j JWTConfig) TTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type SessionConfig struct {
	CookieName   string `envconfig:"ISOLELE_SESSION_COOKIE_NAME" default:"isolele_session"`
	CookieDomain string `envconfig:"ISOLELE_SESSION_COOKIE_DOMAIN"`
	CookieSecure bool   `envconfig:"ISOLELE_SESSION_COOKIE_SECURE" default:"true"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"ISOLELE_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"ISOLELE_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"ISOLELE_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"ISOLELE_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"ISOLELE_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow     time.Duration `envconfig:"ISOLELE_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit int           `envconfig:"ISOLELE_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit    int           `envconfig:"ISOLELE_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"ISOLELE_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"ISOLELE_AUTO_MIGRATE" default:"false"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"ISOLELE_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000,https://isolele.com,https://www.isolele.com"`
}

type CartConfig struct {
	CookieName string        `envconfig:"ISOLELE_CART_COOKIE_NAME" default:"isolele_cart"`
	TTL        time.Duration `envconfig:"ISOLELE_CART_TTL" default:"720h"`
}

// ShippingConfig is the single source of truth for the flat-rate shipping policy.
type ShippingConfig struct {
	FreeThresholdCents int64 `envconfig:"ISOLELE_SHIPPING_FREE_THRESHOLD_CENTS" default:"5000"`
	FlatFeeCents       int64 `envconfig:"ISOLELE_SHIPPING_FLAT_FEE_CENTS" default:"599"`
}

func (s ShippingConfig) validate() error {
	if s.FreeThresholdCents < 0 {
		return fmt.Errorf("%s must be non-negative", EnvShippingFreeThreshold)
	}
	if s.FlatFeeCents < 0 {
		return fmt.Errorf("%s must be non-negative", EnvShippingFlatFee)
	}
	return nil
}

type CheckoutConfig struct {
	ProcessingDelay   time.Duration `envconfig:"ISOLELE_CHECKOUT_PROCESSING_DELAY" default:"2s"`
	SuccessResetDelay time.Duration `envconfig:"ISOLELE_CHECKOUT_SUCCESS_RESET_DELAY" default:"3s"`
	PaymentTimeout    time.Duration `envconfig:"ISOLELE_CHECKOUT_PAYMENT_TIMEOUT" default:"15s"`
	DeclinedCards     []string      `envconfig:"ISOLELE_CHECKOUT_DECLINED_CARDS" default:"4000000000000002"`
}

type ReindexConfig struct {
	SitemapPath   string        `envconfig:"ISOLELE_REINDEX_SITEMAP_PATH" default:"/sitemap.xml"`
	Pages         []string      `envconfig:"ISOLELE_REINDEX_PAGES" default:"/,/about,/comics,/characters,/shop,/news,/contact"`
	Locales       []string      `envconfig:"ISOLELE_REINDEX_LOCALES" default:"en,fr"`
	IndexNowKey   string        `envconfig:"ISOLELE_INDEXNOW_KEY"`
	GooglePingURL string        `envconfig:"ISOLELE_REINDEX_GOOGLE_PING_URL" default:"https://www.google.com/ping"`
	BingPingURL   string        `envconfig:"ISOLELE_REINDEX_BING_PING_URL" default:"https://www.bing.com/ping"`
	IndexNowURL   string        `envconfig:"ISOLELE_REINDEX_INDEXNOW_URL" default:"https://api.indexnow.org/indexnow"`
	Timeout       time.Duration `envconfig:"ISOLELE_REINDEX_TIMEOUT" default:"10s"`
	CronInterval  time.Duration `envconfig:"ISOLELE_REINDEX_CRON_INTERVAL" default:"24h"`
}

func (db *DBConfig) ensureDSN(useSQLite bool) error {
	if db.DSN != "" || useSQLite {
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
