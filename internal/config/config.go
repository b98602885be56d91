package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	NATS     NATSConfig     `mapstructure:"nats"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Razorpay RazorpayConfig `mapstructure:"razorpay"`
	Security SecurityConfig `mapstructure:"security"`
	CORS     CORSConfig     `mapstructure:"cors"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Host                string `mapstructure:"host"`
	Port                string `mapstructure:"port"`
	Mode                string `mapstructure:"mode"`
	ReadTimeoutSeconds  int    `mapstructure:"read_timeout_seconds"`
	WriteTimeoutSeconds int    `mapstructure:"write_timeout_seconds"`
	IdleTimeoutSeconds  int    `mapstructure:"idle_timeout_seconds"`
}

type DatabaseConfig struct {
	Host         string `mapstructure:"host"`
	Port         string `mapstructure:"port"`
	User         string `mapstructure:"user"`
	Password     string `mapstructure:"password"`
	Name         string `mapstructure:"name"`
	SSLMode      string `mapstructure:"sslmode"`
	AutoMigrate  bool   `mapstructure:"auto_migrate"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
}

// DSN builds a PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type NATSConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
	Stream  string `mapstructure:"stream"`
}

type JWTConfig struct {
	Secret      string `mapstructure:"secret"`
	Issuer      string `mapstructure:"issuer"`
	ExpiryHours int    `mapstructure:"expiry_hours"`
	BcryptCost  int    `mapstructure:"bcrypt_cost"`
}

type RazorpayConfig struct {
	KeyID          string `mapstructure:"key_id"`
	KeySecret      string `mapstructure:"key_secret"`
	Currency       string `mapstructure:"currency"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// SecurityConfig controls the login lockout and the auth endpoint rate limit.
type SecurityConfig struct {
	MaxLoginAttempts         int     `mapstructure:"max_login_attempts"`
	LockoutSeconds           int     `mapstructure:"lockout_seconds"`
	MaxLockoutMinutes        int     `mapstructure:"max_lockout_minutes"`
	LockoutResetAfterMinutes int     `mapstructure:"lockout_reset_after_minutes"`
	AuthRatePerSecond        float64 `mapstructure:"auth_rate_per_second"`
	AuthRateBurst            int     `mapstructure:"auth_rate_burst"`
}

type CORSConfig struct {
	Origins string `mapstructure:"origins"`
}

// AllowedOrigins splits the comma separated origin list.
func (c CORSConfig) AllowedOrigins() []string {
	var origins []string
	for _, o := range strings.Split(c.Origins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// LoadConfig reads configuration from defaults, an optional .env file and the environment.
func LoadConfig() (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	v := viper.New()

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8001")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.read_timeout_seconds", 15)
	v.SetDefault("server.write_timeout_seconds", 30)
	v.SetDefault("server.idle_timeout_seconds", 60)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "dev")
	v.SetDefault("database.password", "devpass")
	v.SetDefault("database.name", "property_marketplace")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)

	v.SetDefault("redis.enabled", true)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", "6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("nats.enabled", false)
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("nats.stream", "PROPERTY_EVENTS")

	v.SetDefault("jwt.secret", "change-me-in-production")
	v.SetDefault("jwt.issuer", "property-service")
	v.SetDefault("jwt.expiry_hours", 24)
	v.SetDefault("jwt.bcrypt_cost", 12)

	v.SetDefault("razorpay.key_id", "")
	v.SetDefault("razorpay.key_secret", "")
	v.SetDefault("razorpay.currency", "INR")
	v.SetDefault("razorpay.timeout_seconds", 30)

	v.SetDefault("security.max_login_attempts", 5)
	v.SetDefault("security.lockout_seconds", 30)
	v.SetDefault("security.max_lockout_minutes", 60)
	v.SetDefault("security.lockout_reset_after_minutes", 15)
	v.SetDefault("security.auth_rate_per_second", 5)
	v.SetDefault("security.auth_rate_burst", 10)

	v.SetDefault("cors.origins", "*")
	v.SetDefault("log.level", "info")

	// SERVER_PORT, DATABASE_HOST, RAZORPAY_KEY_ID, ...
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Short names used by the deployment manifests
	aliases := map[string]string{
		"PORT":           "server.port",
		"GIN_MODE":       "server.mode",
		"DB_HOST":        "database.host",
		"DB_PORT":        "database.port",
		"DB_USER":        "database.user",
		"DB_PASSWORD":    "database.password",
		"DB_NAME":        "database.name",
		"DB_SSLMODE":     "database.sslmode",
		"JWT_SECRET_KEY": "jwt.secret",
		"CORS_ORIGINS":   "cors.origins",
		"LOG_LEVEL":      "log.level",
	}
	for env, key := range aliases {
		if val := os.Getenv(env); val != "" {
			v.Set(key, val)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	return cfg, nil
}
