package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	OAuth      OAuthConfig
	JWT        JWTConfig
	LiveKit    LiveKitConfig
	Assembly   AssemblyConfig
	Storage    StorageConfig
	Dashboard  DashboardConfig
	Engagement EngagementConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port            string   `envconfig:"PORT" default:"8080"`
	Host            string   `envconfig:"HOST" default:"0.0.0.0"`
	Environment     string   `envconfig:"ENVIRONMENT" default:"development"`
	AllowedOrigins  []string `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:3000"`
	ShutdownTimeout int      `envconfig:"SHUTDOWN_TIMEOUT" default:"10"`
	SecureCookies   bool     `envconfig:"SECURE_COOKIES" default:"false"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host        string `envconfig:"DB_HOST" default:"localhost"`
	Port        string `envconfig:"DB_PORT" default:"5432"`
	User        string `envconfig:"DB_USER" default:"postgres"`
	Password    string `envconfig:"DB_PASSWORD" default:"postgres"`
	Name        string `envconfig:"DB_NAME" default:"silent_contributor"`
	SSLMode     string `envconfig:"DB_SSLMODE" default:"disable"`
	MaxConns    int    `envconfig:"DB_MAX_CONNS" default:"25"`
	MinConns    int    `envconfig:"DB_MIN_CONNS" default:"5"`
	AutoMigrate bool   `envconfig:"DB_AUTO_MIGRATE" default:"false"`
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Enabled  bool   `envconfig:"REDIS_ENABLED" default:"true"`
	Host     string `envconfig:"REDIS_HOST" default:"localhost"`
	Port     string `envconfig:"REDIS_PORT" default:"6379"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

// OAuthConfig holds OAuth configuration
type OAuthConfig struct {
	Google GoogleOAuthConfig
}

// GoogleOAuthConfig holds Google OAuth configuration
type GoogleOAuthConfig struct {
	ClientID     string `envconfig:"GOOGLE_CLIENT_ID"`
	ClientSecret string `envconfig:"GOOGLE_CLIENT_SECRET"`
	RedirectURL  string `envconfig:"GOOGLE_REDIRECT_URL" default:"http://localhost:8080/v1/auth/google/callback"`
}

// Enabled reports whether Google sign-in is configured
func (g GoogleOAuthConfig) Enabled() bool {
	return g.ClientID != "" && g.ClientSecret != ""
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	AccessSecret  string        `envconfig:"JWT_ACCESS_SECRET" default:"your-access-secret-change-in-production"`
	RefreshSecret string        `envconfig:"JWT_REFRESH_SECRET" default:"your-refresh-secret-change-in-production"`
	AccessExpiry  time.Duration `envconfig:"JWT_ACCESS_EXPIRY" default:"15m"`
	RefreshExpiry time.Duration `envconfig:"JWT_REFRESH_EXPIRY" default:"168h"`
}

// LiveKitConfig holds LiveKit configuration
type LiveKitConfig struct {
	URL       string `envconfig:"LIVEKIT_URL" default:"http://localhost:7880"`
	APIKey    string `envconfig:"LIVEKIT_API_KEY"`
	APISecret string `envconfig:"LIVEKIT_API_SECRET"`
	UseMock   bool   `envconfig:"LIVEKIT_USE_MOCK" default:"false"`

	// AllowUnsignedWebhooks accepts webhook events that fail signature
	// checks. Never enable it in production.
	AllowUnsignedWebhooks bool `envconfig:"LIVEKIT_WEBHOOK_ALLOW_UNSIGNED" default:"false"`
}

// Enabled reports whether a LiveKit client can be built. Without it room
// creation, roster sync and join tokens answer 503.
func (l LiveKitConfig) Enabled() bool {
	return l.UseMock || (l.URL != "" && l.APIKey != "" && l.APISecret != "")
}

// AssemblyConfig holds AssemblyAI configuration
type AssemblyConfig struct {
	APIKey     string        `envconfig:"ASSEMBLYAI_API_KEY"`
	MaxRetries uint64        `envconfig:"ASSEMBLYAI_MAX_RETRIES" default:"3"`
	Timeout    time.Duration `envconfig:"ASSEMBLYAI_TIMEOUT" default:"30s"`
}

// Enabled reports whether transcript import can reach AssemblyAI
func (a AssemblyConfig) Enabled() bool {
	return a.APIKey != ""
}

// StorageConfig holds object storage configuration
type StorageConfig struct {
	Enabled         bool          `envconfig:"STORAGE_ENABLED" default:"false"`
	Endpoint        string        `envconfig:"STORAGE_ENDPOINT" default:"localhost:9000"`
	AccessKeyID     string        `envconfig:"STORAGE_ACCESS_KEY" default:"minioadmin"`
	SecretAccessKey string        `envconfig:"STORAGE_SECRET_KEY" default:"minioadmin"`
	BucketName      string        `envconfig:"STORAGE_BUCKET" default:"silent-contributor"`
	UseSSL          bool          `envconfig:"STORAGE_USE_SSL" default:"false"`
	PresignExpiry   time.Duration `envconfig:"STORAGE_PRESIGN_EXPIRY" default:"1h"`
}

// DashboardConfig holds dashboard loading configuration
type DashboardConfig struct {
	Demo        bool          `envconfig:"DASHBOARD_DEMO" default:"false"`
	DemoDelay   time.Duration `envconfig:"DASHBOARD_DEMO_DELAY" default:"1s"`
	CacheTTL    time.Duration `envconfig:"DASHBOARD_CACHE_TTL" default:"30s"`
	LoadTimeout time.Duration `envconfig:"DASHBOARD_LOAD_TIMEOUT" default:"5s"`
}

// EngagementConfig holds the recalculation worker pool configuration
type EngagementConfig struct {
	Workers    int           `envconfig:"ENGAGEMENT_WORKERS" default:"2"`
	QueueSize  int           `envconfig:"ENGAGEMENT_QUEUE_SIZE" default:"64"`
	MaxRetries int           `envconfig:"ENGAGEMENT_MAX_RETRIES" default:"3"`
	JobTimeout time.Duration `envconfig:"ENGAGEMENT_JOB_TIMEOUT" default:"5m"`
	RetryDelay time.Duration `envconfig:"ENGAGEMENT_RETRY_DELAY" default:"1s"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables or defaults")
	}
	return FromEnv()
}

// FromEnv builds the configuration from the process environment only
func FromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to read configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.IsProduction() {
		if c.JWT.AccessSecret == "" || c.JWT.AccessSecret == "your-access-secret-change-in-production" {
			return fmt.Errorf("JWT_ACCESS_SECRET must be set in production")
		}
		if c.JWT.RefreshSecret == "" || c.JWT.RefreshSecret == "your-refresh-secret-change-in-production" {
			return fmt.Errorf("JWT_REFRESH_SECRET must be set in production")
		}
		if c.Database.AutoMigrate {
			return fmt.Errorf("DB_AUTO_MIGRATE must be disabled in production")
		}
		if c.LiveKit.AllowUnsignedWebhooks {
			return fmt.Errorf("LIVEKIT_WEBHOOK_ALLOW_UNSIGNED must be disabled in production")
		}
		if c.LiveKit.UseMock {
			return fmt.Errorf("LIVEKIT_USE_MOCK must be disabled in production")
		}
	}
	if c.JWT.AccessExpiry <= 0 || c.JWT.RefreshExpiry <= 0 {
		return fmt.Errorf("JWT expiries must be positive")
	}
	if c.Engagement.Workers < 1 {
		return fmt.Errorf("ENGAGEMENT_WORKERS must be at least 1")
	}
	if c.Engagement.QueueSize < 1 {
		return fmt.Errorf("ENGAGEMENT_QUEUE_SIZE must be at least 1")
	}
	if c.Engagement.JobTimeout <= 0 || c.Engagement.RetryDelay <= 0 {
		return fmt.Errorf("ENGAGEMENT_JOB_TIMEOUT and ENGAGEMENT_RETRY_DELAY must be positive")
	}
	if c.Dashboard.LoadTimeout <= 0 {
		return fmt.Errorf("DASHBOARD_LOAD_TIMEOUT must be positive")
	}
	return nil
}

// IsProduction reports whether the server runs in production mode
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// GetDatabaseDSN returns the database connection string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// GetRedisAddr returns the Redis address
func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Redis.Host, c.Redis.Port)
}
