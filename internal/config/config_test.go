package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_DefaultsAndFile(t *testing.T) {
	path := writeConfig(t, `
session:
  secret: "0123456789abcdef"
telegram:
  bot_token: "abc"
  department_chats:
    Газета: -100
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "cookie", cfg.Session.Store)
	assert.Equal(t, 400, cfg.Org.SuspicionThresholdSeconds)
	assert.Equal(t, "Администрация", cfg.Org.AdminDepartment)
	assert.True(t, cfg.Org.IsDepartment("Газета"))
	assert.False(t, cfg.Org.IsDepartment("Администрация"))
	assert.Equal(t, "abc", cfg.Telegram.BotToken)
	assert.Len(t, cfg.Telegram.DepartmentChats, 1)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr())
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9000
session:
  secret: "0123456789abcdef"
`)
	t.Setenv("WORKTIME_SERVER_PORT", "9100")
	t.Setenv("WORKTIME_DB_DRIVER", "postgres")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
}

func TestLoad_RejectsInvalidFile(t *testing.T) {
	path := writeConfig(t, `
session:
  secret: "short"
`)

	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Database: DatabaseConfig{Driver: "mysql"},
			Session:  SessionConfig{Secret: "0123456789abcdef", Store: "redis"},
			Org: OrgConfig{
				Departments:               []string{"Газета"},
				AdminDepartment:           "Администрация",
				SuspicionThresholdSeconds: 400,
			},
		}
	}

	cfg := valid()
	require.NoError(t, cfg.Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"short secret", func(c *Config) { c.Session.Secret = "short" }},
		{"unknown driver", func(c *Config) { c.Database.Driver = "oracle" }},
		{"unknown session store", func(c *Config) { c.Session.Store = "memcached" }},
		{"no departments", func(c *Config) { c.Org.Departments = nil }},
		{"empty admin department", func(c *Config) { c.Org.AdminDepartment = "" }},
		{"admin department is assignable", func(c *Config) { c.Org.AdminDepartment = "Газета" }},
		{"non-positive threshold", func(c *Config) { c.Org.SuspicionThresholdSeconds = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
