package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Store drivers
const (
	DriverPostgres  = "postgres"
	DriverFirestore = "firestore"
	DriverMemory    = "memory"
)

// Gym match policies
const (
	GymPolicyPrefer = "prefer"
	GymPolicyStrict = "strict"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	CORS      CORSConfig      `yaml:"cors"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Log       LogConfig       `yaml:"log"`
	JWT       JWTConfig       `yaml:"jwt"`
	Store     StoreConfig     `yaml:"store"`
	Database  DatabaseConfig  `yaml:"database"`
	Firestore FirestoreConfig `yaml:"firestore"`
	AI        AIConfig        `yaml:"ai"`
	Recommend RecommendConfig `yaml:"recommend"`
	Redis     RedisConfig     `yaml:"redis"`
	AWS       AWSConfig       `yaml:"aws"`
	APNs      APNsConfig      `yaml:"apns"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port            int           `yaml:"port"`
	Host            string        `yaml:"host"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// CORSConfig holds the allowed browser origins
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// RateLimitConfig holds request limits. Recommendations are limited per user
// because every request costs an AI call.
type RateLimitConfig struct {
	RequestsPerMinute        int  `yaml:"requests_per_minute"`
	RecommendationsPerMinute int  `yaml:"recommendations_per_minute"`
	Disabled                 bool `yaml:"disabled"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string `yaml:"level"`
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret string `yaml:"secret"`
}

// StoreConfig selects the document store backend
type StoreConfig struct {
	Driver string `yaml:"driver"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

// FirestoreConfig holds Firestore configuration
type FirestoreConfig struct {
	ProjectID       string `yaml:"project_id"`
	CredentialsFile string `yaml:"credentials_file"`
}

// AIConfig holds the generative model endpoint configuration
type AIConfig struct {
	BaseURL    string        `yaml:"base_url"`
	Model      string        `yaml:"model"`
	APIKey     string        `yaml:"api_key"`
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries int           `yaml:"max_retries"`
	RetryDelay time.Duration `yaml:"retry_delay"`
	Breaker    BreakerConfig `yaml:"breaker"`
}

// BreakerConfig holds circuit breaker settings for the AI endpoint
type BreakerConfig struct {
	ConsecutiveFailures uint32        `yaml:"consecutive_failures"`
	OpenTimeout         time.Duration `yaml:"open_timeout"`
}

// RecommendConfig holds recommendation pipeline settings
type RecommendConfig struct {
	GymPolicy string        `yaml:"gym_policy"`
	CacheTTL  time.Duration `yaml:"cache_ttl"`
}

// RedisConfig holds the recommendation cache connection. An empty Addr
// disables caching.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// AWSConfig holds AWS configuration
type AWSConfig struct {
	Region    string `yaml:"region"`
	S3Bucket  string `yaml:"s3_bucket"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Endpoint  string `yaml:"endpoint"`
	PublicURL string `yaml:"public_url"`
}

// APNsConfig holds Apple push configuration. An empty KeyFile disables push.
type APNsConfig struct {
	KeyFile    string `yaml:"key_file"`
	KeyID      string `yaml:"key_id"`
	TeamID     string `yaml:"team_id"`
	Topic      string `yaml:"topic"`
	Production bool   `yaml:"production"`
}

// Load reads configuration from a YAML file. Variables from an optional .env
// file are loaded first and ${VAR} references in the file are expanded.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(data)
}

// Parse builds a Config from YAML content
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Default returns the configuration used for unset values
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            5000,
			Host:            "0.0.0.0",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{
				"http://localhost:8080",
				"http://localhost:19006",
				"exp://localhost:19000",
				"exp://localhost:19006",
			},
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute:        120,
			RecommendationsPerMinute: 10,
		},
		Log:   LogConfig{Level: "info"},
		Store: StoreConfig{Driver: DriverFirestore},
		Database: DatabaseConfig{
			Host:    "localhost",
			Port:    5432,
			SSLMode: "disable",
		},
		AI: AIConfig{
			BaseURL:    "https://generativelanguage.googleapis.com",
			Model:      "gemini-2.0-flash",
			Timeout:    30 * time.Second,
			MaxRetries: 2,
			RetryDelay: 500 * time.Millisecond,
			Breaker: BreakerConfig{
				ConsecutiveFailures: 5,
				OpenTimeout:         time.Minute,
			},
		},
		Recommend: RecommendConfig{
			GymPolicy: GymPolicyPrefer,
			CacheTTL:  10 * time.Minute,
		},
	}
}

// Validate checks that the required settings are present and consistent
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port %d out of range", c.Server.Port))
	}
	if c.JWT.Secret == "" {
		errs = append(errs, "jwt.secret is required")
	}

	switch c.Store.Driver {
	case DriverPostgres:
		if c.Database.DBName == "" {
			errs = append(errs, "database.dbname is required for the postgres driver")
		}
	case DriverFirestore:
		if c.Firestore.ProjectID == "" {
			errs = append(errs, "firestore.project_id is required for the firestore driver")
		}
	case DriverMemory:
	default:
		errs = append(errs, fmt.Sprintf("unknown store.driver %q", c.Store.Driver))
	}

	if c.AI.APIKey == "" {
		errs = append(errs, "ai.api_key is required")
	}
	if c.AI.Timeout <= 0 {
		errs = append(errs, "ai.timeout must be positive")
	}
	if c.AI.MaxRetries < 0 {
		errs = append(errs, "ai.max_retries must not be negative")
	}

	switch c.Recommend.GymPolicy {
	case GymPolicyPrefer, GymPolicyStrict:
	default:
		errs = append(errs, fmt.Sprintf("unknown recommend.gym_policy %q", c.Recommend.GymPolicy))
	}

	if c.APNs.KeyFile != "" && (c.APNs.KeyID == "" || c.APNs.TeamID == "" || c.APNs.Topic == "") {
		errs = append(errs, "apns.key_id, apns.team_id and apns.topic are required when apns.key_file is set")
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

// DSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// Addr returns the listen address of the HTTP server
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
