// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	ozzo "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	MailProviderSMTP = "smtp"
	MailProviderSES  = "ses"

	SessionStoreCookie = "cookie"
	SessionStoreRedis  = "redis"
)

// Load reads configs/config.yaml (optional), merges config.<APP_ENVIRONMENT>.yaml
// and applies environment overrides.
func Load() (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig() // ignore error if not found

	return build(v)
}

// LoadFromFile loads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return build(v)
}

func build(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	overrideFromEnv(&cfg)
	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func loadEnvFile() {
	possiblePaths := []string{".env", "../.env", "../../.env"}
	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			// Unset variables expand to "" so required checks still fire.
			if expanded := os.ExpandEnv(strVal); expanded != strVal {
				v.Set(key, expanded)
			}
		}
	}
}

// overrideFromEnv maps the flat variable names used by existing deployments
// (.env files written for the previous service) onto the config tree.
func overrideFromEnv(cfg *Config) {
	setString := func(dst *string, name string) {
		if val := os.Getenv(name); val != "" {
			*dst = val
		}
	}

	setString(&cfg.Mail.SMTP.Username, "EMAIL_USER")
	setString(&cfg.Mail.SMTP.Password, "EMAIL_PASS")
	setString(&cfg.Notifications.Recipient, "NOTIFICATION_RECIPIENT")
	setString(&cfg.Auth.AdminPassword, "ADMIN_PASSWORD")
	setString(&cfg.Auth.AdminPasswordHash, "ADMIN_PASSWORD_HASH")
	setString(&cfg.Session.Secret, "SESSION_SECRET")
	setString(&cfg.Database.Redis.Address, "REDIS_ADDRESS")

	if val := os.Getenv("PORT"); val != "" {
		var port int
		if _, err := fmt.Sscanf(val, "%d", &port); err == nil {
			cfg.Server.Port = port
		}
	}
}

// applyDefaults sets default values for optional configuration fields.
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "loan-intake"
	}
	if cfg.App.Environment == "" {
		cfg.App.Environment = "development"
	}

	if cfg.Server.Port == 0 {
		cfg.Server.Port = 3000
	}
	if cfg.Server.StaticDir == "" {
		cfg.Server.StaticDir = "web"
	}
	if cfg.Server.LoginRatePerSec == 0 {
		cfg.Server.LoginRatePerSec = 1
	}
	if cfg.Server.LoginBurst == 0 {
		cfg.Server.LoginBurst = 5
	}
	if cfg.Server.ShutdownTimeoutMS == 0 {
		cfg.Server.ShutdownTimeoutMS = 10000
	}

	if cfg.Upload.Dir == "" {
		cfg.Upload.Dir = "uploads"
	}
	if cfg.Upload.FieldName == "" {
		cfg.Upload.FieldName = "loanDocument"
	}
	if cfg.Upload.MaxBytes == 0 {
		cfg.Upload.MaxBytes = 10 << 20
	}

	if cfg.Session.Store == "" {
		cfg.Session.Store = SessionStoreCookie
	}
	if cfg.Session.CookieName == "" {
		cfg.Session.CookieName = "loan_intake.sid"
	}
	if cfg.Session.TTL == 0 {
		cfg.Session.TTL = 24 * time.Hour
	}
	if cfg.Session.KeyPrefix == "" {
		cfg.Session.KeyPrefix = "session:"
	}

	if cfg.Mail.Provider == "" {
		cfg.Mail.Provider = MailProviderSMTP
	}
	if cfg.Mail.SMTP.Host == "" {
		cfg.Mail.SMTP.Host = "smtp.gmail.com"
	}
	if cfg.Mail.SMTP.Port == 0 {
		cfg.Mail.SMTP.Port = 587
	}
	if cfg.Mail.FromAddress == "" {
		cfg.Mail.FromAddress = cfg.Mail.SMTP.Username
	}
	if cfg.Mail.AWS.Region == "" {
		cfg.Mail.AWS.Region = "us-east-1"
	}
	if cfg.Mail.Breaker.FailureThreshold == 0 {
		cfg.Mail.Breaker.FailureThreshold = 5
	}
	if cfg.Mail.Breaker.DelayMS == 0 {
		cfg.Mail.Breaker.DelayMS = 30000
	}

	if cfg.Notifications.Brand == "" {
		cfg.Notifications.Brand = "Gold 2 Money"
	}
	if cfg.Notifications.NotifierName == "" {
		cfg.Notifications.NotifierName = cfg.Notifications.Brand + " Notifier"
	}
	if cfg.Notifications.ContactPhone == "" {
		cfg.Notifications.ContactPhone = "+91 95946 07030"
	}
	if cfg.Notifications.SMS.Region == "" {
		cfg.Notifications.SMS.Region = cfg.Mail.AWS.Region
	}

	if cfg.Dispatch.MaxActive == 0 {
		cfg.Dispatch.MaxActive = 4
	}
	if cfg.Dispatch.TaskTimeout == 0 {
		cfg.Dispatch.TaskTimeout = 60000
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

// Validate checks the fields the service cannot start without.
func (c *Config) Validate() error {
	if err := ozzo.ValidateStruct(&c.Server,
		ozzo.Field(&c.Server.Port, ozzo.Required, ozzo.Min(1), ozzo.Max(65535)),
		ozzo.Field(&c.Server.StaticDir, ozzo.Required),
	); err != nil {
		return fmt.Errorf("server: %w", err)
	}

	if err := ozzo.ValidateStruct(&c.Session,
		ozzo.Field(&c.Session.Secret, ozzo.Required.Error("SESSION_SECRET is required"), ozzo.Length(16, 0)),
		ozzo.Field(&c.Session.Store, ozzo.In(SessionStoreCookie, SessionStoreRedis)),
	); err != nil {
		return fmt.Errorf("session: %w", err)
	}

	if c.Auth.AdminPassword == "" && c.Auth.AdminPasswordHash == "" {
		return fmt.Errorf("auth: ADMIN_PASSWORD or ADMIN_PASSWORD_HASH is required")
	}

	if err := ozzo.ValidateStruct(&c.Mail,
		ozzo.Field(&c.Mail.Provider, ozzo.Required, ozzo.In(MailProviderSMTP, MailProviderSES)),
		ozzo.Field(&c.Mail.FromAddress, ozzo.Required, is.EmailFormat),
	); err != nil {
		return fmt.Errorf("mail: %w", err)
	}

	if c.Mail.Provider == MailProviderSMTP {
		if err := ozzo.Validate(c.Mail.SMTP.Port, ozzo.Min(1), ozzo.Max(65535)); err != nil {
			return fmt.Errorf("mail.smtp.port: %w", err)
		}
	}

	if err := ozzo.Validate(c.Notifications.Recipient,
		ozzo.Required.Error("NOTIFICATION_RECIPIENT is required"), is.EmailFormat); err != nil {
		return fmt.Errorf("notifications.recipient: %w", err)
	}

	if c.Notifications.SMS.Enabled && c.Notifications.SMS.StaffPhone == "" {
		return fmt.Errorf("notifications.sms.staff_phone is required when SMS is enabled")
	}

	if c.Session.Store == SessionStoreRedis && c.Database.Redis.Address == "" {
		return fmt.Errorf("database.redis.address is required for the redis session store")
	}

	return nil
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}
