package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v2"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

// DefaultTimezone is the zone the "tomorrow" rule is evaluated in.
const DefaultTimezone = "Asia/Kolkata"

type Config struct {
	Mode     Mode   `yaml:"mode"`
	HTTPAddr string `yaml:"http_addr"`

	DBDriver string `yaml:"db_driver"` // sqlite|postgres
	DBDSN    string `yaml:"db_dsn"`

	AuthHMACSecret string `yaml:"auth_hmac_secret"`
	CSRFSecret     string `yaml:"csrf_secret"`

	// allow the JWT role when users has no row for the subject (dev only)
	AllowClaimRoleFallback bool `yaml:"allow_claim_role_fallback"`

	Timezone string `yaml:"timezone"`

	CORSOriginsOnline  []string `yaml:"cors_origins_online"`
	CORSOriginsOffline []string `yaml:"cors_origins_offline"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"` // text|json
}

// FromEnv builds a Config from environment variables and defaults.
func FromEnv() Config {
	mode := Mode(os.Getenv("MODE"))
	if mode == "" {
		mode = ModeOffline
	}
	return Config{
		Mode:                   mode,
		HTTPAddr:               envOr("HTTP_ADDR", ":8080"),
		DBDriver:               envOr("DB_DRIVER", "sqlite"),
		DBDSN:                  envOr("DB_DSN", ""),
		AuthHMACSecret:         envOr("AUTH_HMAC_SECRET", "supersecret-dev-key"),
		CSRFSecret:             envOr("CSRF_SECRET", "csrf-dev-key"),
		AllowClaimRoleFallback: envBool("ALLOW_CLAIM_ROLE_FALLBACK", mode == ModeOffline),
		Timezone:               envOr("APP_TIMEZONE", DefaultTimezone),
		CORSOriginsOnline:      csvOr("CORS_ORIGINS_ONLINE", "https://clubs.mindengage.ai"),
		CORSOriginsOffline:     csvOr("CORS_ORIGINS_OFFLINE", "http://localhost:3000,http://localhost:3010"),
		LogLevel:               envOr("LOG_LEVEL", "info"),
		LogFormat:              envOr("LOG_FORMAT", "text"),
	}
}

// Load reads CONFIG_FILE (YAML) when set, then lets every environment
// variable that is actually set override the file.
func Load() (Config, error) {
	path := os.Getenv("CONFIG_FILE")
	if path == "" {
		return FromEnv(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	var file Config
	if err := yaml.UnmarshalStrict(raw, &file); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return overlay(FromEnv(), file), nil
}

// overlay starts from file and takes env wherever the variable is set.
func overlay(env, file Config) Config {
	out := env
	pick := func(key string, dst *string, fromFile string) {
		if _, set := os.LookupEnv(key); !set && fromFile != "" {
			*dst = fromFile
		}
	}
	if _, set := os.LookupEnv("MODE"); !set && file.Mode != "" {
		out.Mode = file.Mode
	}
	pick("HTTP_ADDR", &out.HTTPAddr, file.HTTPAddr)
	pick("DB_DRIVER", &out.DBDriver, file.DBDriver)
	pick("DB_DSN", &out.DBDSN, file.DBDSN)
	pick("AUTH_HMAC_SECRET", &out.AuthHMACSecret, file.AuthHMACSecret)
	pick("CSRF_SECRET", &out.CSRFSecret, file.CSRFSecret)
	pick("APP_TIMEZONE", &out.Timezone, file.Timezone)
	pick("LOG_LEVEL", &out.LogLevel, file.LogLevel)
	pick("LOG_FORMAT", &out.LogFormat, file.LogFormat)
	if _, set := os.LookupEnv("ALLOW_CLAIM_ROLE_FALLBACK"); !set && file.AllowClaimRoleFallback {
		out.AllowClaimRoleFallback = true
	}
	if _, set := os.LookupEnv("CORS_ORIGINS_ONLINE"); !set && len(file.CORSOriginsOnline) > 0 {
		out.CORSOriginsOnline = file.CORSOriginsOnline
	}
	if _, set := os.LookupEnv("CORS_ORIGINS_OFFLINE"); !set && len(file.CORSOriginsOffline) > 0 {
		out.CORSOriginsOffline = file.CORSOriginsOffline
	}
	return out
}

// Location resolves Timezone, falling back to UTC for an empty value.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("config: timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// CORSOrigins returns the origin list for the current mode.
func (c Config) CORSOrigins() []string {
	if c.Mode == ModeOnline {
		return c.CORSOriginsOnline
	}
	return c.CORSOriginsOffline
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}
func envBool(k string, def bool) bool {
	switch os.Getenv(k) {
	case "1", "true", "TRUE", "yes", "YES":
		return true
	case "0", "false", "FALSE", "no", "NO":
		return false
	default:
		return def
	}
}
func csvOr(k, def string) []string {
	v := envOr(k, def)
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
