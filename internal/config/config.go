// Package config loads application configuration from environment variables,
// optionally seeded from a .env file.
package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// DefaultSlots is the catalog new venues get when none is supplied: six
// 90-minute windows from 14:00 to 23:00.
const DefaultSlots = "14:00-15:30,15:30-17:00,17:00-18:30,18:30-20:00,20:00-21:30,21:30-23:00"

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.
type Config struct {
	Env            string        // APP_ENV (dev, test, prod)
	Port           string        // APP_PORT
	DBUser         string        // DB_USER
	DBPass         string        // DB_PASS, empty allowed
	DBHost         string        // DB_HOST
	DBPort         string        // DB_PORT
	DBName         string        // DB_NAME
	JWTSecret      string        // JWT_SECRET
	AccessTTLMin   int           // ACCESS_TOKEN_TTL_MIN
	RefreshTTLDays int           // REFRESH_TOKEN_TTL_DAYS
	BcryptCost     int           // BCRYPT_COST
	LogLevel       string        // LOG_LEVEL, default info
	DefaultSlots   string        // DEFAULT_SLOTS, HH:MM-HH:MM list
	RequestTimeout time.Duration // REQUEST_TIMEOUT, default 15s
}

// LoadDotEnv reads .env from the working directory into the process
// environment without overriding variables that are already set.  A missing
// file is not an error.
func LoadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.
func Load() Config {
	if err := LoadDotEnv(); err != nil {
		logrus.WithError(err).Warn("could not read .env")
	}
	return Config{
		Env:            must("APP_ENV"),
		Port:           must("APP_PORT"),
		DBUser:         must("DB_USER"),
		DBPass:         os.Getenv("DB_PASS"),
		DBHost:         must("DB_HOST"),
		DBPort:         must("DB_PORT"),
		DBName:         must("DB_NAME"),
		JWTSecret:      must("JWT_SECRET"),
		AccessTTLMin:   mustInt("ACCESS_TOKEN_TTL_MIN"),
		RefreshTTLDays: mustInt("REFRESH_TOKEN_TTL_DAYS"),
		BcryptCost:     mustInt("BCRYPT_COST"),
		LogLevel:       envStr("LOG_LEVEL", "info"),
		DefaultSlots:   envStr("DEFAULT_SLOTS", DefaultSlots),
		RequestTimeout: envDur("REQUEST_TIMEOUT", 15*time.Second),
	}
}

// NewLogger builds the process logger: JSON in prod, text elsewhere, at the
// configured level (info when the level does not parse).
func (c Config) NewLogger() *logrus.Logger {
	log := logrus.New()
	if c.Env == "prod" {
		log.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	lvl, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)
	return log
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		logrus.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is like must() but converts the retrieved string into an integer.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		logrus.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}
