package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds every setting the application reads at start-up.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"db"`
	Session    SessionConfig    `mapstructure:"session"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Log        LogConfig        `mapstructure:"log"`
	Org        OrgConfig        `mapstructure:"org"`
	Telegram   TelegramConfig   `mapstructure:"telegram"`
	Audit      AuditConfig      `mapstructure:"audit"`
	OpenAI     OpenAIConfig     `mapstructure:"openai"`
	Superadmin SuperadminConfig `mapstructure:"superadmin"`
}

type ServerConfig struct {
	Port    int    `mapstructure:"port"`
	GinMode string `mapstructure:"gin_mode"`
}

type DatabaseConfig struct {
	Driver       string `mapstructure:"driver"`
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	User         string `mapstructure:"user"`
	Password     string `mapstructure:"password"`
	Name         string `mapstructure:"name"`
	SQLitePath   string `mapstructure:"sqlite_path"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
}

type SessionConfig struct {
	Secret string `mapstructure:"secret"`
	Store  string `mapstructure:"store"`
	MaxAge int    `mapstructure:"max_age"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
}

// Addr returns the host:port pair of the Redis server.
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// OrgConfig describes the organisation: the fixed department set and the
// administrative department reserved for the superadmin account.
type OrgConfig struct {
	Departments               []string `mapstructure:"departments"`
	AdminDepartment           string   `mapstructure:"admin_department"`
	SuspicionThresholdSeconds int      `mapstructure:"suspicion_threshold_seconds"`
}

// IsDepartment reports whether name belongs to the enumerated department set.
func (c OrgConfig) IsDepartment(name string) bool {
	return slices.Contains(c.Departments, name)
}

type TelegramConfig struct {
	BotToken        string           `mapstructure:"bot_token"`
	APIBaseURL      string           `mapstructure:"api_base_url"`
	GeneralChatID   int64            `mapstructure:"general_chat_id"`
	DepartmentChats map[string]int64 `mapstructure:"department_chats"`
	Timeout         time.Duration    `mapstructure:"timeout"`
}

type AuditConfig struct {
	Dir string `mapstructure:"dir"`
}

type OpenAIConfig struct {
	APIKey string `mapstructure:"api_key"`
}

type SuperadminConfig struct {
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Token    string `mapstructure:"token"`
}

// Load reads configuration from defaults, an optional YAML file and the
// environment, in increasing order of precedence.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("WORKTIME")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.gin_mode", "debug")

	v.SetDefault("db.driver", "sqlite")
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 3306)
	v.SetDefault("db.user", "worktime")
	v.SetDefault("db.password", "")
	v.SetDefault("db.name", "time_tracking")
	v.SetDefault("db.sqlite_path", "db/time_tracking.db")
	v.SetDefault("db.max_open_conns", 10)
	v.SetDefault("db.max_idle_conns", 5)

	v.SetDefault("session.store", "cookie")
	v.SetDefault("session.max_age", 86400*7)

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("org.departments", []string{"Монтажеры", "Корреспонденты", "Газета", "Операторы"})
	v.SetDefault("org.admin_department", "Администрация")
	v.SetDefault("org.suspicion_threshold_seconds", 400)

	v.SetDefault("telegram.api_base_url", "https://api.telegram.org")
	v.SetDefault("telegram.timeout", "5s")

	v.SetDefault("audit.dir", "logs")
}

// Validate checks the settings the application cannot run without.
func (c *Config) Validate() error {
	if len(c.Session.Secret) < 16 {
		return fmt.Errorf("config: session.secret must be at least 16 characters")
	}
	switch c.Database.Driver {
	case "sqlite", "mysql", "postgres":
	default:
		return fmt.Errorf("config: unsupported db.driver %q", c.Database.Driver)
	}
	switch c.Session.Store {
	case "cookie", "redis":
	default:
		return fmt.Errorf("config: unsupported session.store %q", c.Session.Store)
	}
	if len(c.Org.Departments) == 0 {
		return fmt.Errorf("config: org.departments must not be empty")
	}
	if c.Org.AdminDepartment == "" {
		return fmt.Errorf("config: org.admin_department must not be empty")
	}
	if c.Org.IsDepartment(c.Org.AdminDepartment) {
		return fmt.Errorf("config: org.admin_department %q must not be an assignable department", c.Org.AdminDepartment)
	}
	if c.Org.SuspicionThresholdSeconds <= 0 {
		return fmt.Errorf("config: org.suspicion_threshold_seconds must be positive")
	}
	return nil
}
