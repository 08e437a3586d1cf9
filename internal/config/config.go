package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	Addr        string
	Env         string
	TemplateDir string
	StaticDir   string

	DBDriver string
	DBPath   string
	DBHost   string
	DBPort   string
	DBUser   string
	DBPass   string
	DBName   string

	SessionTTL time.Duration

	RedisAddr         string
	CommentRateLimit  int64
	CommentRateWindow time.Duration

	KafkaBrokers []string
	KafkaTopic   string

	OTLPEndpoint string
	ServiceName  string
	SampleRatio  float64
}

// Load reads an optional .env file and then the process environment.
// Variables already present in the environment win over the file.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	var env envParser
	cfg := &Config{
		Addr:        getEnv("BLOG_ADDR", ":8080"),
		Env:         getEnv("ENV", "development"),
		TemplateDir: getEnv("BLOG_TEMPLATE_DIR", "web/templates"),
		StaticDir:   getEnv("BLOG_STATIC_DIR", "web/static"),

		DBDriver: getEnv("BLOG_DB_DRIVER", DriverSQLite),
		DBPath:   getEnv("BLOG_DB_PATH", "blog.db"),
		DBHost:   getEnv("BLOG_DB_HOST", "localhost"),
		DBPort:   getEnv("BLOG_DB_PORT", "5432"),
		DBUser:   getEnv("BLOG_DB_USER", "postgres"),
		DBPass:   getEnv("BLOG_DB_PASS", "postgres"),
		DBName:   getEnv("BLOG_DB_NAME", "blog"),

		SessionTTL: env.getDuration("BLOG_SESSION_TTL", 24*time.Hour),

		RedisAddr:         os.Getenv("REDIS_ADDR"),
		CommentRateLimit:  int64(env.getInt("BLOG_COMMENT_RATE_LIMIT", 5)),
		CommentRateWindow: env.getDuration("BLOG_COMMENT_RATE_WINDOW", time.Minute),

		KafkaBrokers: splitList(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:   getEnv("KAFKA_TOPIC", "blog.events"),

		OTLPEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		ServiceName:  getEnv("OTEL_SERVICE_NAME", "blog"),
		SampleRatio:  env.getFloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
	}
	if err := errors.Join(env.errs...); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.DBDriver {
	case DriverSQLite:
		if c.DBPath == "" {
			return errors.New("config: BLOG_DB_PATH is empty")
		}
	case DriverPostgres:
		if c.DBHost == "" || c.DBName == "" {
			return errors.New("config: postgres needs BLOG_DB_HOST and BLOG_DB_NAME")
		}
	default:
		return fmt.Errorf("config: unknown db driver %q", c.DBDriver)
	}
	if c.SessionTTL <= 0 {
		return errors.New("config: BLOG_SESSION_TTL must be positive")
	}
	if c.CommentRateLimit <= 0 || c.CommentRateWindow <= 0 {
		return errors.New("config: comment rate limit and window must be positive")
	}
	if c.SampleRatio < 0 || c.SampleRatio > 1 {
		return errors.New("config: OTEL_TRACES_SAMPLER_ARG must be within [0,1]")
	}
	return nil
}

func (c *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.DBHost, c.DBPort, c.DBUser, c.DBPass, c.DBName,
	)
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

// envParser reads typed variables. Unset variables take the fallback; set
// but malformed ones are recorded in errs.
type envParser struct {
	errs []error
}

func (p *envParser) fail(key, val string, err error) {
	p.errs = append(p.errs, fmt.Errorf("config: %s=%q: %w", key, val, err))
}

func (p *envParser) getInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		p.fail(key, val, err)
		return fallback
	}
	return n
}

func (p *envParser) getFloat(key string, fallback float64) float64 {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		p.fail(key, val, err)
		return fallback
	}
	return f
}

func (p *envParser) getDuration(key string, fallback time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		p.fail(key, val, err)
		return fallback
	}
	return d
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
