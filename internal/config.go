package internal

import (
	"fmt"
	"strings"
	"time"
)

type Config struct {
	Host                 string        `env:"HOST,default=0.0.0.0"`
	Port                 int           `env:"PORT,required=true"`
	BadgerFilepath       string        `env:"BADGER_FILEPATH,required=true"`
	LogLevel             string        `env:"LOG_LEVEL,default=INFO"`
	GinMode              string        `env:"GIN_MODE,default=release"`
	JWTSecret            string        `env:"JWT_SECRET,required=true"`
	AccessTokenDuration  time.Duration `env:"ACCESS_TOKEN_DURATION,default=5m"`
	RefreshTokenDuration time.Duration `env:"REFRESH_TOKEN_DURATION,default=24h"`
	ShutdownTimeout      time.Duration `env:"SHUTDOWN_TIMEOUT,default=10s"`
	CorsAllowedOrigins   string        `env:"CORS_ALLOWED_ORIGINS"`
	HealthLogInterval    time.Duration `env:"HEALTH_LOG_INTERVAL,default=1m"`
}

const minSecretLength = 32

func (c Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Port)
	}
	if len(c.JWTSecret) < minSecretLength {
		return fmt.Errorf("JWT_SECRET must be at least %d characters long", minSecretLength)
	}
	if c.AccessTokenDuration <= 0 || c.RefreshTokenDuration <= 0 {
		return fmt.Errorf("token durations must be positive")
	}
	if c.RefreshTokenDuration < c.AccessTokenDuration {
		return fmt.Errorf("REFRESH_TOKEN_DURATION must not be shorter than ACCESS_TOKEN_DURATION")
	}
	return nil
}

func (c Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// AllowedOrigins splits the comma separated CORS_ALLOWED_ORIGINS.
func (c Config) AllowedOrigins() []string {
	var origins []string
	for _, o := range strings.Split(c.CorsAllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
