package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Pipeline PipelineConfig
	Logger   LoggerConfig
	Security SecurityConfig
}

type ServerConfig struct {
	Host            string        `validate:"required"`
	Port            int           `validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `validate:"gt=0"`
	WriteTimeout    time.Duration `validate:"gt=0"`
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// PipelineConfig replaces the fixed paths and constants of a segmentation
// run. Either InputPath or SourceDSN names the transactions.
type PipelineConfig struct {
	InputPath      string
	SourceDSN      string
	SourceTable    string `validate:"required_with=SourceDSN"`
	Clean          bool
	SkipClustering bool
	OutputDir      string `validate:"required"`
	ClusterCount   int    `validate:"min=1"`
	Seed           uint64
	MaxIter        int `validate:"min=1"`
	NInit          int `validate:"min=1"`
	ElbowMinK      int `validate:"min=1"`
	ElbowMaxK      int `validate:"gtefield=ElbowMinK"`
}

type LoggerConfig struct {
	Level  string `validate:"oneof=debug info warn error"`
	Format string `validate:"oneof=json text"`
}

type SecurityConfig struct {
	EnableRateLimit bool
	RateLimitRPS    int `validate:"gt=0"`
	RateLimitBurst  int `validate:"gt=0"`
	AllowedOrigins  []string
	TrustedProxies  []string
}

// Load reads configuration from the environment, after merging an optional
// .env file from the working directory.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:            getEnvString("SERVER_HOST", "localhost"),
			Port:            getEnvInt("SERVER_PORT", 8084),
			ReadTimeout:     getEnvDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getEnvDuration("SERVER_WRITE_TIMEOUT", 10*time.Second),
			IdleTimeout:     getEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Pipeline: PipelineConfig{
			InputPath:      getEnvString("RFM_INPUT", "data/processed/cleaned_data.csv"),
			SourceDSN:      getEnvString("RFM_SOURCE_DSN", ""),
			SourceTable:    getEnvString("RFM_SOURCE_TABLE", "transactions"),
			Clean:          getEnvBool("RFM_CLEAN", false),
			SkipClustering: getEnvBool("RFM_SKIP_CLUSTERING", false),
			OutputDir:      getEnvString("RFM_OUTPUT_DIR", "data/processed"),
			ClusterCount:   getEnvInt("RFM_CLUSTERS", 5),
			Seed:           getEnvUint("RFM_SEED", 42),
			MaxIter:        getEnvInt("RFM_MAX_ITER", 300),
			NInit:          getEnvInt("RFM_N_INIT", 10),
			ElbowMinK:      getEnvInt("RFM_ELBOW_MIN_K", 2),
			ElbowMaxK:      getEnvInt("RFM_ELBOW_MAX_K", 9),
		},
		Logger: LoggerConfig{
			Level:  getEnvString("LOG_LEVEL", "info"),
			Format: getEnvString("LOG_FORMAT", "json"),
		},
		Security: SecurityConfig{
			EnableRateLimit: getEnvBool("SECURITY_RATE_LIMIT_ENABLED", true),
			RateLimitRPS:    getEnvInt("SECURITY_RATE_LIMIT_RPS", 100),
			RateLimitBurst:  getEnvInt("SECURITY_RATE_LIMIT_BURST", 10),
			AllowedOrigins:  getEnvStringSlice("SECURITY_ALLOWED_ORIGINS", []string{"http://localhost:8084"}),
			TrustedProxies:  getEnvStringSlice("SECURITY_TRUSTED_PROXIES", []string{"127.0.0.1"}),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints and the rules that span fields.
func (c *Config) Validate() error {
	c.Logger.Level = strings.ToLower(c.Logger.Level)
	c.Logger.Format = strings.ToLower(c.Logger.Format)

	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
			}
			return errors.New(strings.Join(msgs, "; "))
		}
		return err
	}

	if c.Pipeline.InputPath == "" && c.Pipeline.SourceDSN == "" {
		return fmt.Errorf("either RFM_INPUT or RFM_SOURCE_DSN must be set")
	}

	return nil
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvUint(key string, defaultValue uint64) uint64 {
	if value := os.Getenv(key); value != "" {
		if uintValue, err := strconv.ParseUint(value, 10, 64); err == nil {
			return uintValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvStringSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		return strings.Split(value, ",")
	}
	return defaultValue
}

func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
