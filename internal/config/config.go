package config

import (
	"errors"
	"io/fs"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Port         string `yaml:"port"`
	DBDSN        string `yaml:"db_dsn"`
	MediaDir     string `yaml:"media_dir"`
	TemplatesDir string `yaml:"templates_dir"`
	LogFile      string `yaml:"log_file"`
	LogLevel     string `yaml:"log_level"`
	JWTSecret    string `yaml:"jwt_secret"`
	CORSOrigins  string `yaml:"cors_origins"`
	MaxBodyBytes int    `yaml:"max_body_bytes"`
	CookieSecure bool   `yaml:"cookie_secure"`
	SeedDemo     bool   `yaml:"seed_demo"`
	CartStore    string `yaml:"cart_store"` // "sql" or "memory"
}

// Defaults returns the configuration used when nothing else is set.
func Defaults() Config {
	return Config{
		Port:         "8080",
		DBDSN:        "freshgrocer.db", // sqlite file in project root
		MediaDir:     "./web/media",
		TemplatesDir: "./web/templates",
		LogFile:      "./freshgrocer.log",
		LogLevel:     "info",
		JWTSecret:    "dev-only-change-me",
		CORSOrigins:  "*",
		MaxBodyBytes: 8 << 20, // product images
		SeedDemo:     true,
		CartStore:    "sql",
	}
}

// Load layers defaults, the YAML file, .env and the process environment,
// later layers winning.
func Load() Config {
	cfg := Defaults()

	path := os.Getenv("CONFIG_FILE")
	if path == "" {
		path = "freshgrocer.yaml"
	}
	if err := mergeYAML(&cfg, path); err != nil {
		log.Printf("[config] ignoring %s: %v", path, err)
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("[config] .env: %v", err)
	}
	applyEnv(&cfg)

	log.Printf("[config] PORT=%s DB_DSN=%s MEDIA_DIR=%s LOG_FILE=%s", cfg.Port, redact(cfg.DBDSN), cfg.MediaDir, cfg.LogFile)
	return cfg
}

func mergeYAML(cfg *Config, path string) error {
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	return yaml.Unmarshal(b, cfg)
}

func applyEnv(cfg *Config) {
	str := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	str("PORT", &cfg.Port)
	str("DB_DSN", &cfg.DBDSN)
	str("MEDIA_DIR", &cfg.MediaDir)
	str("TEMPLATES_DIR", &cfg.TemplatesDir)
	str("LOG_FILE", &cfg.LogFile)
	str("LOG_LEVEL", &cfg.LogLevel)
	str("JWT_SECRET", &cfg.JWTSecret)
	str("CORS_ORIGINS", &cfg.CORSOrigins)
	str("CART_STORE", &cfg.CartStore)

	if v := os.Getenv("MAX_BODY_BYTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MaxBodyBytes = n
		}
	}
	if v := os.Getenv("COOKIE_SECURE"); v != "" {
		cfg.CookieSecure, _ = strconv.ParseBool(v)
	}
	if v := os.Getenv("SEED_DEMO"); v != "" {
		cfg.SeedDemo, _ = strconv.ParseBool(v)
	}
}

// redact hides the password of a postgres URL for logging.
func redact(dsn string) string {
	at := strings.LastIndex(dsn, "@")
	scheme := strings.Index(dsn, "://")
	if at < 0 || scheme < 0 || at < scheme {
		return dsn
	}
	creds := dsn[scheme+3 : at]
	if i := strings.Index(creds, ":"); i >= 0 {
		return dsn[:scheme+3] + creds[:i] + ":***" + dsn[at:]
	}
	return dsn
}

// Redacted is DBDSN safe for logs.
func (c Config) Redacted() string { return redact(c.DBDSN) }
