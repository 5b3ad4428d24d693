package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config 服务配置，全部来自环境变量（可由 .env 提供）
type Config struct {
	AppEnv        string `envconfig:"APP_ENV" default:"dev"`
	Port          string `envconfig:"PORT" default:"8080"`
	SiteURL       string `envconfig:"SITE_URL" default:"http://localhost:8080"`
	SessionSecret string `envconfig:"SESSION_SECRET" default:"secret_key_change_me"`
	TemplatesDir  string `envconfig:"TEMPLATES_DIR" default:"./web/templates"`
	StaticDir     string `envconfig:"STATIC_DIR" default:"./web/static"`

	DB struct {
		Driver string `envconfig:"DB_DRIVER" default:"postgres"`
		URL    string `envconfig:"DATABASE_URL" default:"host=localhost user=postgres password=postgres dbname=newsapp port=5432 sslmode=disable TimeZone=UTC"`
	} `envconfig:""`

	Cache struct {
		RedisAddr string        `envconfig:"REDIS_ADDR"`
		TTL       time.Duration `envconfig:"CACHE_TTL" default:"30s"`
	} `envconfig:""`

	Limits struct {
		PageSize        int           `envconfig:"PAGE_SIZE" default:"10"`
		ReportThreshold int           `envconfig:"REPORT_THRESHOLD" default:"3"`
		RateEvery       time.Duration `envconfig:"RATE_LIMIT_EVERY" default:"2s"`
		RateBurst       int           `envconfig:"RATE_LIMIT_BURST" default:"10"`
	} `envconfig:""`

	Feeds struct {
		Interval time.Duration `envconfig:"FEED_FETCH_INTERVAL" default:"30m"`
		FullText bool          `envconfig:"FEED_FETCH_FULLTEXT" default:"false"`
		Timeout  time.Duration `envconfig:"FEED_TIMEOUT" default:"30s"`
	} `envconfig:""`

	SMTP struct {
		Host string `envconfig:"SMTP_HOST"`
		Port string `envconfig:"SMTP_PORT" default:"587"`
		User string `envconfig:"SMTP_USER"`
		Pass string `envconfig:"SMTP_PASS"`
		From string `envconfig:"SMTP_FROM"`
	} `envconfig:""`
}

// IsDev reports whether the service runs in development mode.
func (c Config) IsDev() bool {
	return c.AppEnv == "dev"
}

// Load reads .env (if present) and then the process environment.
func Load() (Config, error) {
	// .env 不存在时直接使用系统环境变量
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	if cfg.Limits.PageSize <= 0 {
		return Config{}, fmt.Errorf("load config: PAGE_SIZE must be positive, got %d", cfg.Limits.PageSize)
	}
	switch cfg.DB.Driver {
	case "postgres", "sqlite":
	default:
		return Config{}, fmt.Errorf("load config: unsupported DB_DRIVER %q", cfg.DB.Driver)
	}
	return cfg, nil
}
