// Package config loads the settings of the scopedauthd demo server.
package config

import "time"

// Config is the top-level configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
	Auth      AuthConfig      `yaml:"auth"`
	Transport TransportConfig `yaml:"transport"`
	Store     StoreConfig     `yaml:"store"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Addr            string        `yaml:"addr" env:"SCOPEDAUTH_ADDR"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SCOPEDAUTH_SHUTDOWN_TIMEOUT"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	// Level is a logrus level name ("debug", "info", "warn", "error").
	Level string `yaml:"level" env:"SCOPEDAUTH_LOG_LEVEL"`
	// Format is "text" or "json".
	Format string `yaml:"format" env:"SCOPEDAUTH_LOG_FORMAT"`
}

// AuthConfig holds middleware settings.
type AuthConfig struct {
	// ExecutionModel is "persistent" or "process-per-request".
	ExecutionModel string `yaml:"execution_model" env:"SCOPEDAUTH_EXECUTION_MODEL"`
	// TokenTTL is the lifetime of tokens issued at login. Zero issues tokens
	// that never expire.
	TokenTTL time.Duration `yaml:"token_ttl" env:"SCOPEDAUTH_TOKEN_TTL"`
	// ExcludedURLs are served without a request scope. Semicolon separated
	// in the environment.
	ExcludedURLs []string `yaml:"excluded_urls" env:"SCOPEDAUTH_EXCLUDED_URLS"`
}

// TransportConfig selects and configures credential transports.
type TransportConfig struct {
	// Order lists transports by priority: "cookie", "header", "bearer".
	// Semicolon separated in the environment.
	Order  []string     `yaml:"order" env:"SCOPEDAUTH_TRANSPORTS"`
	Cookie CookieConfig `yaml:"cookie"`
	Header HeaderConfig `yaml:"header"`
}

// CookieConfig configures the cookie transport.
type CookieConfig struct {
	Name     string `yaml:"name" env:"SCOPEDAUTH_COOKIE_NAME"`
	Path     string `yaml:"path" env:"SCOPEDAUTH_COOKIE_PATH"`
	Domain   string `yaml:"domain" env:"SCOPEDAUTH_COOKIE_DOMAIN"`
	Secure   bool   `yaml:"secure" env:"SCOPEDAUTH_COOKIE_SECURE"`
	SameSite string `yaml:"same_site" env:"SCOPEDAUTH_COOKIE_SAME_SITE"`
}

// HeaderConfig configures the header transport.
type HeaderConfig struct {
	Name string `yaml:"name" env:"SCOPEDAUTH_HEADER_NAME"`
}

// StoreConfig selects the token store driver.
type StoreConfig struct {
	// Driver is one of "memory", "redis", "postgres" or "jwt".
	Driver   string         `yaml:"driver" env:"SCOPEDAUTH_STORE"`
	Redis    RedisConfig    `yaml:"redis"`
	Postgres PostgresConfig `yaml:"postgres"`
	JWT      JWTConfig      `yaml:"jwt"`
}

// RedisConfig configures the redis driver.
type RedisConfig struct {
	Addr      string `yaml:"addr" env:"SCOPEDAUTH_REDIS_ADDR"`
	Password  string `yaml:"password" env:"SCOPEDAUTH_REDIS_PASSWORD"`
	DB        int    `yaml:"db" env:"SCOPEDAUTH_REDIS_DB"`
	KeyPrefix string `yaml:"key_prefix" env:"SCOPEDAUTH_REDIS_KEY_PREFIX"`
}

// PostgresConfig configures the postgres driver.
type PostgresConfig struct {
	DSN            string `yaml:"dsn" env:"SCOPEDAUTH_POSTGRES_DSN"`
	MaxConns       int32  `yaml:"max_conns" env:"SCOPEDAUTH_POSTGRES_MAX_CONNS"`
	MigrateOnStart bool   `yaml:"migrate_on_start" env:"SCOPEDAUTH_POSTGRES_MIGRATE"`
}

// JWTConfig configures the jwt driver.
type JWTConfig struct {
	Key    string `yaml:"key" env:"SCOPEDAUTH_JWT_KEY"`
	Issuer string `yaml:"issuer" env:"SCOPEDAUTH_JWT_ISSUER"`
}

// Defaults returns a Config with built-in defaults applied.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ShutdownTimeout: 10 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Auth: AuthConfig{
			ExecutionModel: "persistent",
			TokenTTL:       24 * time.Hour,
		},
		Transport: TransportConfig{
			Order: []string{"cookie", "bearer"},
			Cookie: CookieConfig{
				Name:     "token",
				Path:     "/",
				Secure:   true,
				SameSite: "lax",
			},
			Header: HeaderConfig{
				Name: "X-Auth-Token",
			},
		},
		Store: StoreConfig{
			Driver: "memory",
			Redis: RedisConfig{
				Addr: "localhost:6379",
			},
			JWT: JWTConfig{
				Issuer: "scopedauthd",
			},
		},
	}
}
