package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

const (
	DefaultListenAddr = ":8443"
	DefaultModelPath  = "models/gradient_boosting.json"
	DefaultRateLimit  = 5.0
	DefaultRateBurst  = 10
)

type Config struct {
	ListenAddr  string
	ModelPath   string
	DatabaseURL string
	TokenKey    string
	TLSCert     string
	TLSKey      string
	RateLimit   float64
	RateBurst   int
	LogLevel    string
}

// Load reads .env files (missing files are fine) and then the process
// environment. Variables already set in the environment win.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}
	return FromEnv()
}

func FromEnv() (Config, error) {
	cfg := Config{
		ListenAddr:  getenv("LISTEN_ADDR", DefaultListenAddr),
		ModelPath:   getenv("MODEL_PATH", DefaultModelPath),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		TokenKey:    os.Getenv("TOKEN_KEY"),
		TLSCert:     os.Getenv("TLS_CERT"),
		TLSKey:      os.Getenv("TLS_KEY"),
		RateLimit:   DefaultRateLimit,
		RateBurst:   DefaultRateBurst,
		LogLevel:    getenv("LOG_LEVEL", "info"),
	}
	if v := os.Getenv("RATE_LIMIT"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f <= 0 {
			return Config{}, fmt.Errorf("RATE_LIMIT must be a positive number, got %q", v)
		}
		cfg.RateLimit = f
	}
	if v := os.Getenv("RATE_BURST"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return Config{}, fmt.Errorf("RATE_BURST must be a positive integer, got %q", v)
		}
		cfg.RateBurst = n
	}
	if (cfg.TLSCert == "") != (cfg.TLSKey == "") {
		return Config{}, fmt.Errorf("TLS_CERT and TLS_KEY must be set together")
	}
	return cfg, nil
}

func (c Config) TLS() bool {
	return c.TLSCert != ""
}

// SetupLogging applies LogLevel to the global logger.
func (c Config) SetupLogging() {
	lvl, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		log.Warnf("unknown LOG_LEVEL %q, using info", c.LogLevel)
		lvl = log.InfoLevel
	}
	log.SetLevel(lvl)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
