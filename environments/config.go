package environments

import (
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/ini.v1"
)

type Config struct {
	Server    ServerConfig
	Log       LogConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Twilio    TwilioConfig
	Resend    ResendConfig
	Provider  ProviderConfig
	Scheduler SchedulerConfig
	Alert     AlertConfig
	Auth      AuthConfig
	Kafka     KafkaConfig
}

type ServerConfig struct {
	Port string
}

type LogConfig struct {
	Level string
}

type DatabaseConfig struct {
	Driver     string // mysql or sqlite
	Host       string
	Port       string
	User       string
	Password   string
	DBName     string
	SQLitePath string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type TwilioConfig struct {
	AccountSID       string
	AuthToken        string
	PhoneNumber      string
	WhatsAppNumber   string
	BaseURL          string
	ValidateWebhooks bool
	// WebhookBaseURL is the public URL Twilio calls, used to rebuild the signed URL
	// when the service runs behind a proxy.
	WebhookBaseURL string
}

func (c TwilioConfig) Configured() bool {
	return c.AccountSID != "" && c.AuthToken != ""
}

type ResendConfig struct {
	APIKey      string
	FromAddress string
	BaseURL     string
}

type ProviderConfig struct {
	Timeout time.Duration
}

type SchedulerConfig struct {
	Interval    time.Duration
	BatchSize   int
	AutoStart   bool
	LockEnabled bool
	LockTTL     time.Duration
}

type AlertConfig struct {
	WebhookURL     string
	IterationCount int
}

type AuthConfig struct {
	JWTSecret       string
	SchedulerAPIKey string
	CronSecret      string
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// Load reads configuration from the environment, falling back to the optional INI
// file named by CONFIG_FILE and then to built-in defaults.
func Load() *Config {
	return LoadFrom(GetEnv("CONFIG_FILE", "config.ini"))
}

func LoadFrom(path string) *Config {
	src := newSource(path)

	return &Config{
		Server: ServerConfig{
			Port: src.getString("server", "port", "SERVER_PORT", "8080"),
		},
		Log: LogConfig{
			Level: src.getString("server", "log_level", "LOG_LEVEL", "info"),
		},
		Database: DatabaseConfig{
			Driver:     src.getString("database", "driver", "DB_DRIVER", "mysql"),
			Host:       src.getString("database", "host", "DB_HOST", "localhost"),
			Port:       src.getString("database", "port", "DB_PORT", "3306"),
			User:       src.getString("database", "user", "DB_USER", "inbox"),
			Password:   src.getString("database", "password", "DB_PASSWORD", "inbox123"),
			DBName:     src.getString("database", "name", "DB_NAME", "unified_inbox"),
			SQLitePath: src.getString("database", "sqlite_path", "SQLITE_PATH", "inbox.db"),
		},
		Redis: RedisConfig{
			Host:     src.getString("redis", "host", "REDIS_HOST", "localhost"),
			Port:     src.getString("redis", "port", "REDIS_PORT", "6379"),
			Password: src.getString("redis", "password", "REDIS_PASSWORD", ""),
			DB:       src.getInt("redis", "db", "REDIS_DB", 0),
		},
		Twilio: TwilioConfig{
			AccountSID:       src.getString("twilio", "account_sid", "TWILIO_ACCOUNT_SID", ""),
			AuthToken:        src.getString("twilio", "auth_token", "TWILIO_AUTH_TOKEN", ""),
			PhoneNumber:      src.getString("twilio", "phone_number", "TWILIO_PHONE_NUMBER", ""),
			WhatsAppNumber:   src.getString("twilio", "whatsapp_number", "TWILIO_WHATSAPP_NUMBER", "whatsapp:+14155238886"),
			BaseURL:          src.getString("twilio", "base_url", "TWILIO_BASE_URL", "https://api.twilio.com"),
			ValidateWebhooks: src.getBool("twilio", "validate_webhooks", "TWILIO_VALIDATE_WEBHOOKS", false),
			WebhookBaseURL:   src.getString("twilio", "webhook_base_url", "TWILIO_WEBHOOK_BASE_URL", ""),
		},
		Resend: ResendConfig{
			APIKey:      src.getString("resend", "api_key", "RESEND_API_KEY", ""),
			FromAddress: src.getString("resend", "from", "RESEND_FROM", "onboarding@resend.dev"),
			BaseURL:     src.getString("resend", "base_url", "RESEND_BASE_URL", "https://api.resend.com"),
		},
		Provider: ProviderConfig{
			Timeout: time.Duration(src.getInt("provider", "timeout_seconds", "PROVIDER_TIMEOUT_SECONDS", 30)) * time.Second,
		},
		Scheduler: SchedulerConfig{
			Interval:    src.getDuration("scheduler", "interval", "SCHEDULER_INTERVAL", time.Minute),
			BatchSize:   src.getInt("scheduler", "batch_size", "SCHEDULER_BATCH_SIZE", 50),
			AutoStart:   src.getBool("scheduler", "auto_start", "AUTO_START_SCHEDULER", true),
			LockEnabled: src.getBool("scheduler", "lock_enabled", "SCHEDULER_LOCK_ENABLED", true),
			LockTTL:     src.getDuration("scheduler", "lock_ttl", "SCHEDULER_LOCK_TTL", 5*time.Minute),
		},
		Alert: AlertConfig{
			WebhookURL:     src.getString("alert", "webhook_url", "ALERT_WEBHOOK_URL", ""),
			IterationCount: src.getInt("alert", "iteration_count", "ALERT_ITERATION_COUNT", 0),
		},
		Auth: AuthConfig{
			JWTSecret:       src.getString("auth", "jwt_secret", "JWT_SECRET", ""),
			SchedulerAPIKey: src.getString("auth", "scheduler_api_key", "SCHEDULER_API_KEY", ""),
			CronSecret:      src.getString("auth", "cron_secret", "CRON_SECRET", ""),
		},
		Kafka: KafkaConfig{
			Brokers: splitList(src.getString("kafka", "brokers", "KAFKA_BROKERS", "")),
			Topic:   src.getString("kafka", "topic", "KAFKA_TOPIC", "inbox-events"),
		},
	}
}

// source resolves a setting from the environment first, then the INI file.
type source struct {
	file *ini.File
}

func newSource(path string) *source {
	if path == "" {
		return &source{}
	}
	if _, err := os.Stat(path); err != nil {
		return &source{}
	}
	file, err := ini.Load(path)
	if err != nil {
		return &source{}
	}
	return &source{file: file}
}

func (s *source) lookup(section, key, envKey string) (string, bool) {
	if value, exists := os.LookupEnv(envKey); exists {
		return value, true
	}
	if s.file == nil {
		return "", false
	}
	sec, err := s.file.GetSection(section)
	if err != nil || !sec.HasKey(key) {
		return "", false
	}
	return sec.Key(key).String(), true
}

func (s *source) getString(section, key, envKey, defaultValue string) string {
	if value, ok := s.lookup(section, key, envKey); ok {
		return value
	}
	return defaultValue
}

func (s *source) getInt(section, key, envKey string, defaultValue int) int {
	if value, ok := s.lookup(section, key, envKey); ok {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func (s *source) getBool(section, key, envKey string, defaultValue bool) bool {
	if value, ok := s.lookup(section, key, envKey); ok {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func (s *source) getDuration(section, key, envKey string, defaultValue time.Duration) time.Duration {
	if value, ok := s.lookup(section, key, envKey); ok {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func GetEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
