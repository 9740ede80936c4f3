package config

import (
	"errors"
	"fmt"

	"github.com/auth0/go-scoped-auth/scope"
	"github.com/auth0/go-scoped-auth/token/jwtstore"
)

// Validate checks the configuration for required fields and valid values.
// All problems are reported together, each prefixed by its field path.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level must be one of debug, info, warn, error, got %q", c.Log.Level))
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be \"text\" or \"json\", got %q", c.Log.Format))
	}

	if _, err := scope.ParseModel(c.Auth.ExecutionModel); err != nil {
		errs = append(errs, fmt.Errorf("auth.execution_model: %w", err))
	}
	if c.Auth.TokenTTL < 0 {
		errs = append(errs, fmt.Errorf("auth.token_ttl must be >= 0, got %s", c.Auth.TokenTTL))
	}

	if len(c.Transport.Order) == 0 {
		errs = append(errs, errors.New("transport.order must name at least one transport"))
	}
	for _, name := range c.Transport.Order {
		switch name {
		case "cookie":
			if c.Transport.Cookie.Name == "" {
				errs = append(errs, errors.New("transport.cookie.name is required"))
			}
			switch c.Transport.Cookie.SameSite {
			case "", "lax", "strict", "none":
			default:
				errs = append(errs, fmt.Errorf("transport.cookie.same_site must be lax, strict or none, got %q", c.Transport.Cookie.SameSite))
			}
		case "header":
			if c.Transport.Header.Name == "" {
				errs = append(errs, errors.New("transport.header.name is required"))
			}
		case "bearer":
		default:
			errs = append(errs, fmt.Errorf("transport.order: unknown transport %q", name))
		}
	}

	switch c.Store.Driver {
	case "memory":
	case "redis":
		if c.Store.Redis.Addr == "" {
			errs = append(errs, errors.New("store.redis.addr is required when store.driver is \"redis\""))
		}
	case "postgres":
		if c.Store.Postgres.DSN == "" {
			errs = append(errs, errors.New("store.postgres.dsn is required when store.driver is \"postgres\""))
		}
	case "jwt":
		if len(c.Store.JWT.Key) < jwtstore.MinKeyLength {
			errs = append(errs, fmt.Errorf("store.jwt.key must be at least %d bytes", jwtstore.MinKeyLength))
		}
		if c.Store.JWT.Issuer == "" {
			errs = append(errs, errors.New("store.jwt.issuer is required when store.driver is \"jwt\""))
		}
	default:
		errs = append(errs, fmt.Errorf("store.driver must be memory, redis, postgres or jwt, got %q", c.Store.Driver))
	}

	return errors.Join(errs...)
}
