package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Supported database dialects.
const (
	DialectPostgres = "postgres"
	DialectMySQL    = "mysql"
	DialectSQLite   = "sqlite"
)

const defaultProfile = "development"

// Config is the full runtime configuration of the service.
type Config struct {
	Profile  string
	Server   ServerConfig
	Database DatabaseConfig
	Log      LogConfig
	RabbitMQ RabbitMQConfig
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Port             int
	ShutdownTimeout  time.Duration
	CORSAllowOrigins string
}

// Addr returns the listen address for the configured port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}

// DatabaseConfig holds the settings of one database profile.
type DatabaseConfig struct {
	Dialect  string
	Host     string
	Port     int
	Name     string
	Username string
	Password string
	SSLMode  string

	// SyncStrict makes verification and schema synchronization failures
	// abort startup instead of being logged.
	SyncStrict    bool
	LogLevel      string
	SlowThreshold time.Duration
}

// LogConfig holds the level and output format of the process logger.
type LogConfig struct {
	Level  string
	Format string
}

// RabbitMQConfig holds the event broker settings. An empty URL disables events.
type RabbitMQConfig struct {
	URL      string
	Exchange string
}

// Options selects where configuration is read from. Zero values fall back
// to CONFIG_FILE and APP_ENV / NODE_ENV.
type Options struct {
	File    string
	Profile string
}

// Load reads configuration from an optional config file and the
// environment. Database settings come from the database.<profile> section
// of the file, overridden by DB_* variables.
func Load(opts Options) (Config, error) {
	profile := opts.Profile
	if profile == "" {
		profile = firstEnv("APP_ENV", "NODE_ENV")
	}
	if profile == "" {
		profile = defaultProfile
	}

	v := viper.New()
	v.SetConfigType("yaml")
	file := opts.File
	if file == "" {
		file = os.Getenv("CONFIG_FILE")
	}
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	db := "database." + profile + "."
	v.SetDefault(db+"dialect", DialectSQLite)
	v.SetDefault(db+"host", "localhost")
	v.SetDefault(db+"name", "userapi.db")
	v.SetDefault(db+"sslmode", "disable")
	_ = v.BindEnv(db+"dialect", "DB_DIALECT")
	_ = v.BindEnv(db+"host", "DB_HOST")
	_ = v.BindEnv(db+"port", "DB_PORT")
	_ = v.BindEnv(db+"name", "DB_NAME")
	_ = v.BindEnv(db+"username", "DB_USERNAME")
	_ = v.BindEnv(db+"password", "DB_PASSWORD")
	_ = v.BindEnv(db+"sslmode", "DB_SSLMODE")

	v.SetDefault("server.port", 3000)
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.cors_allow_origins", "*")
	_ = v.BindEnv("server.port", "PORT", "port")
	_ = v.BindEnv("server.shutdown_timeout", "SHUTDOWN_TIMEOUT")
	_ = v.BindEnv("server.cors_allow_origins", "CORS_ALLOW_ORIGINS")

	v.SetDefault("database.sync_strict", false)
	v.SetDefault("database.log_level", "warn")
	v.SetDefault("database.slow_threshold", "200ms")
	_ = v.BindEnv("database.sync_strict", "DB_SYNC_STRICT")
	_ = v.BindEnv("database.log_level", "DB_LOG_LEVEL")
	_ = v.BindEnv("database.slow_threshold", "DB_SLOW_THRESHOLD")

	logFormat := "json"
	if profile == defaultProfile {
		logFormat = "console"
	}
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", logFormat)
	_ = v.BindEnv("log.level", "LOG_LEVEL")
	_ = v.BindEnv("log.format", "LOG_FORMAT")

	v.SetDefault("rabbitmq.exchange", "users")
	_ = v.BindEnv("rabbitmq.url", "RABBITMQ_URL")
	_ = v.BindEnv("rabbitmq.exchange", "RABBITMQ_EXCHANGE")

	serverPort, err := parseInt(v.GetString("server.port"), "PORT")
	if err != nil {
		return Config{}, err
	}
	if serverPort < 1 || serverPort > 65535 {
		return Config{}, fmt.Errorf("invalid PORT: %d is outside 1-65535", serverPort)
	}
	shutdownTimeout, err := time.ParseDuration(v.GetString("server.shutdown_timeout"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid SHUTDOWN_TIMEOUT: %w", err)
	}
	slowThreshold, err := time.ParseDuration(v.GetString("database.slow_threshold"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid DB_SLOW_THRESHOLD: %w", err)
	}
	syncStrict, err := strconv.ParseBool(v.GetString("database.sync_strict"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid DB_SYNC_STRICT: %w", err)
	}

	var dbPort int
	if raw := v.GetString(db + "port"); raw != "" {
		if dbPort, err = parseInt(raw, "DB_PORT"); err != nil {
			return Config{}, err
		}
	}

	cfg := Config{
		Profile: profile,
		Server: ServerConfig{
			Port:             serverPort,
			ShutdownTimeout:  shutdownTimeout,
			CORSAllowOrigins: v.GetString("server.cors_allow_origins"),
		},
		Database: DatabaseConfig{
			Dialect:       strings.ToLower(v.GetString(db + "dialect")),
			Host:          v.GetString(db + "host"),
			Port:          dbPort,
			Name:          v.GetString(db + "name"),
			Username:      v.GetString(db + "username"),
			Password:      v.GetString(db + "password"),
			SSLMode:       v.GetString(db + "sslmode"),
			SyncStrict:    syncStrict,
			LogLevel:      strings.ToLower(v.GetString("database.log_level")),
			SlowThreshold: slowThreshold,
		},
		Log: LogConfig{
			Level:  strings.ToLower(v.GetString("log.level")),
			Format: strings.ToLower(v.GetString("log.format")),
		},
		RabbitMQ: RabbitMQConfig{
			URL:      v.GetString("rabbitmq.url"),
			Exchange: v.GetString("rabbitmq.exchange"),
		},
	}

	switch cfg.Database.Dialect {
	case DialectPostgres, DialectMySQL, DialectSQLite:
	default:
		return Config{}, fmt.Errorf("unsupported database dialect %q in profile %s", cfg.Database.Dialect, profile)
	}
	if cfg.Database.Name == "" {
		return Config{}, fmt.Errorf("database name must be set for profile %s", profile)
	}

	return cfg, nil
}

func firstEnv(keys ...string) string {
	for _, key := range keys {
		if value := strings.TrimSpace(os.Getenv(key)); value != "" {
			return value
		}
	}
	return ""
}

func parseInt(raw, name string) (int, error) {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || value < 0 {
		return 0, fmt.Errorf("invalid %s: %q", name, raw)
	}
	return value, nil
}
