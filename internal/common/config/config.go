// internal/common/config/config.go
package config

import (
	"fmt"
	"time"
)

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig          `mapstructure:"app"`
	Server        ServerConfig       `mapstructure:"server"`
	Upload        UploadConfig       `mapstructure:"upload"`
	Session       SessionConfig      `mapstructure:"session"`
	Auth          AuthConfig         `mapstructure:"auth"`
	Mail          MailConfig         `mapstructure:"mail"`
	Notifications NotificationConfig `mapstructure:"notifications"`
	Dispatch      DispatchConfig     `mapstructure:"dispatch"`
	Database      DatabaseConfig     `mapstructure:"database"`
	Logging       LoggingConfig      `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// IsProduction reports whether cookies should be marked Secure.
func (a AppConfig) IsProduction() bool {
	return a.Environment == "production"
}

type ServerConfig struct {
	Port              int     `mapstructure:"port"`
	StaticDir         string  `mapstructure:"static_dir"`
	LoginRatePerSec   float64 `mapstructure:"login_rate_per_second"`
	LoginBurst        int     `mapstructure:"login_burst"`
	ShutdownTimeoutMS int     `mapstructure:"shutdown_timeout"` // milliseconds
}

// Address returns the listen address for the HTTP server.
func (s ServerConfig) Address() string {
	return fmt.Sprintf(":%d", s.Port)
}

type UploadConfig struct {
	Dir       string `mapstructure:"dir"`
	FieldName string `mapstructure:"field_name"`
	MaxBytes  int64  `mapstructure:"max_bytes"`
}

// SessionConfig configures the admin session cookie and its backing store.
type SessionConfig struct {
	Store      string        `mapstructure:"store"` // "cookie" or "redis"
	Secret     string        `mapstructure:"secret"`
	CookieName string        `mapstructure:"cookie_name"`
	TTL        time.Duration `mapstructure:"ttl"`
	KeyPrefix  string        `mapstructure:"key_prefix"`
}

// AuthConfig holds the single shared admin credential.
type AuthConfig struct {
	AdminPassword     string `mapstructure:"admin_password"`
	AdminPasswordHash string `mapstructure:"admin_password_hash"`
}

// MailConfig selects and configures the outbound mail transport.
type MailConfig struct {
	Provider    string `mapstructure:"provider"` // "smtp" or "ses"
	FromAddress string `mapstructure:"from_address"`

	SMTP struct {
		Host     string `mapstructure:"host"`
		Port     int    `mapstructure:"port"`
		Username string `mapstructure:"username"`
		Password string `mapstructure:"password"`
		UseTLS   bool   `mapstructure:"use_tls"`
	} `mapstructure:"smtp"`

	AWS struct {
		Region string `mapstructure:"region"`
	} `mapstructure:"aws"`

	Breaker struct {
		FailureThreshold uint `mapstructure:"failure_threshold"`
		DelayMS          int  `mapstructure:"delay"` // milliseconds
	} `mapstructure:"breaker"`
}

// NotificationConfig holds settings for the staff notification and the applicant auto-reply.
type NotificationConfig struct {
	Brand        string `mapstructure:"brand"`
	NotifierName string `mapstructure:"notifier_name"`
	Recipient    string `mapstructure:"recipient"`
	ContactPhone string `mapstructure:"contact_phone"`

	SMS struct {
		Enabled    bool   `mapstructure:"enabled"`
		StaffPhone string `mapstructure:"staff_phone"`
		Region     string `mapstructure:"region"`
	} `mapstructure:"sms"`
}

// DispatchConfig bounds the post-response task queue.
type DispatchConfig struct {
	MaxActive   int `mapstructure:"max_active"`
	TaskTimeout int `mapstructure:"task_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Redis RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}
