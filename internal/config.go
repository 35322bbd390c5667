package internal

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server        ServerConfig        `mapstructure:"http_server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Security      SecurityConfig      `mapstructure:"security"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

type ServerConfig struct {
	Port              int           `mapstructure:"port"`
	BaseURL           string        `mapstructure:"base_url"`
	AllowedOrigins    string        `mapstructure:"allowed_origins"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
	RequestTimeout    time.Duration `mapstructure:"request_timeout"`
}

type DatabaseConfig struct {
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	Source          string        `mapstructure:"source"`
}

type SecurityConfig struct {
	AccessTokenSecret  string         `mapstructure:"access_token_secret"`
	RefreshTokenSecret string         `mapstructure:"refresh_token_secret"`
	AccessTokenTTL     time.Duration  `mapstructure:"access_token_ttl"`
	RefreshTokenTTL    time.Duration  `mapstructure:"refresh_token_ttl"`
	BCryptCost         int            `mapstructure:"bcrypt_cost"`
	ResetTokenTTL      time.Duration  `mapstructure:"reset_token_ttl"`
	Password           PasswordPolicy `mapstructure:"password"`
}

// PasswordPolicy controls what Register, ChangePassword and ResetPassword
// accept as a new password.
type PasswordPolicy struct {
	MinLength        int  `mapstructure:"min_length"`
	RequireUppercase bool `mapstructure:"require_uppercase"`
	RequireLowercase bool `mapstructure:"require_lowercase"`
	RequireNumbers   bool `mapstructure:"require_numbers"`
}

type ObservabilityConfig struct {
	Logging LoggingConfig `mapstructure:"logging"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DefaultSecurity mirrors the production defaults: 15 minute access tokens,
// 7 day refresh tokens, bcrypt cost 10, 1 hour reset tokens, passwords of at
// least 8 characters with upper, lower and numeric classes.
func DefaultSecurity() SecurityConfig {
	return SecurityConfig{
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 7 * 24 * time.Hour,
		BCryptCost:      10,
		ResetTokenTTL:   time.Hour,
		Password: PasswordPolicy{
			MinLength:        8,
			RequireUppercase: true,
			RequireLowercase: true,
			RequireNumbers:   true,
		},
	}
}

// LoadConfigFromEnv builds a Config from environment variables, used for
// container deployments where no config file is mounted. Unset duration and
// numeric variables fall back to the security defaults.
func LoadConfigFromEnv() *Config {
	security := DefaultSecurity()
	security.AccessTokenSecret = os.Getenv("SECURITY_ACCESS_TOKEN_SECRET")
	security.RefreshTokenSecret = os.Getenv("SECURITY_REFRESH_TOKEN_SECRET")
	if ttl := envDuration("SECURITY_ACCESS_TOKEN_TTL"); ttl > 0 {
		security.AccessTokenTTL = ttl
	}
	if ttl := envDuration("SECURITY_REFRESH_TOKEN_TTL"); ttl > 0 {
		security.RefreshTokenTTL = ttl
	}
	if cost := envInt("SECURITY_BCRYPT_COST"); cost > 0 {
		security.BCryptCost = cost
	}

	return &Config{
		Server: ServerConfig{
			Port:              envIntDefault("HTTP_SERVER_PORT", 8080),
			BaseURL:           os.Getenv("HTTP_SERVER_BASE_URL"),
			AllowedOrigins:    os.Getenv("HTTP_SERVER_ALLOWED_ORIGINS"),
			ReadHeaderTimeout: envDurationDefault("HTTP_SERVER_READ_HEADER_TIMEOUT", 5*time.Second),
			ReadTimeout:       envDurationDefault("HTTP_SERVER_READ_TIMEOUT", 10*time.Second),
			IdleTimeout:       envDurationDefault("HTTP_SERVER_IDLE_TIMEOUT", 60*time.Second),
			WriteTimeout:      envDurationDefault("HTTP_SERVER_WRITE_TIMEOUT", 15*time.Second),
			RequestTimeout:    envDurationDefault("HTTP_SERVER_REQUEST_TIMEOUT", 30*time.Second),
		},
		Database: DatabaseConfig{
			Source:          os.Getenv("DATABASE_SOURCE"),
			MaxOpenConns:    envIntDefault("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    envIntDefault("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: envDurationDefault("DATABASE_CONN_MAX_LIFETIME", 30*time.Minute),
			ConnMaxIdleTime: envDurationDefault("DATABASE_CONN_MAX_IDLE_TIME", 5*time.Minute),
		},
		Security: security,
		Observability: ObservabilityConfig{
			Logging: LoggingConfig{
				Level:  envDefault("LOGGING_LEVEL", "info"),
				Format: envDefault("LOGGING_FORMAT", "json"),
			},
		},
	}
}

func envDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string) int {
	v, _ := strconv.Atoi(os.Getenv(key))
	return v
}

func envIntDefault(key string, fallback int) int {
	if v := envInt(key); v > 0 {
		return v
	}
	return fallback
}

func envDuration(key string) time.Duration {
	d, _ := time.ParseDuration(os.Getenv(key))
	return d
}

func envDurationDefault(key string, fallback time.Duration) time.Duration {
	if d := envDuration(key); d > 0 {
		return d
	}
	return fallback
}

func (c *Config) Validate() error {
	var errs []string

	if err := c.Server.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("server config: %v", err))
	}

	if err := c.Database.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("database config: %v", err))
	}

	if err := c.Security.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("security config: %v", err))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}

	return nil
}

func (c *ServerConfig) Validate() error {
	if c.AllowedOrigins != "" {
		origins := strings.Split(c.AllowedOrigins, ",")
		for _, origin := range origins {
			origin = strings.TrimSpace(origin)
			if origin == "*" {
				continue
			}
			if _, err := url.Parse(origin); err != nil {
				return fmt.Errorf("invalid allowed origin %s: %w", origin, err)
			}
		}
	}
	if c.ReadTimeout < c.ReadHeaderTimeout {
		return errors.New("read_timeout must be >= read_header_timeout")
	}
	return nil
}

// AllowedOriginsList splits the comma-separated origins setting.
func (c *ServerConfig) AllowedOriginsList() []string {
	if c.AllowedOrigins == "" {
		return nil
	}
	parts := strings.Split(c.AllowedOrigins, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}

func (c *DatabaseConfig) Validate() error {
	if c.Source == "" {
		return errors.New("source is required")
	}
	if c.MaxIdleConns > c.MaxOpenConns {
		return errors.New("max_idle_conns cannot be greater than max_open_conns")
	}
	return nil
}

func (c *DatabaseConfig) GetDSN() string {
	return c.Source
}

func (c *SecurityConfig) Validate() error {
	if len(c.AccessTokenSecret) < 32 {
		return errors.New("access_token_secret must be at least 32 characters")
	}
	if len(c.RefreshTokenSecret) < 32 {
		return errors.New("refresh_token_secret must be at least 32 characters")
	}
	if c.AccessTokenSecret == c.RefreshTokenSecret {
		return errors.New("access and refresh token secrets must differ")
	}
	if c.AccessTokenTTL <= 0 || c.AccessTokenTTL > time.Hour {
		return errors.New("access_token_ttl must be between 1m and 1h")
	}
	if c.RefreshTokenTTL < time.Hour {
		return errors.New("refresh_token_ttl must be at least 1h")
	}
	if c.BCryptCost < 10 || c.BCryptCost > 15 {
		return errors.New("bcrypt_cost must be between 10 and 15")
	}
	if c.Password.MinLength < 8 {
		return errors.New("password min_length must be at least 8")
	}
	return nil
}
