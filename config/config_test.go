package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sagarc03/r2gate/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load(nil, nil)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0:3000", cfg.Server.Addr())
	assert.False(t, cfg.Server.Production)
	assert.Equal(t, "admin.seemsgood.org", cfg.Server.CookieDomain)
	assert.Equal(t, "static", cfg.Server.StaticDir)
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "users.json", cfg.Auth.UsersFile)
	assert.Zero(t, cfg.Auth.SessionTTL)
	assert.Equal(t, 30*24*time.Hour, cfg.Auth.CookieMaxAge)
	assert.Equal(t, "memory", cfg.Session.Type)
	assert.Equal(t, "r2gate_sessions", cfg.Session.Table)
	assert.Equal(t, "s3", cfg.Storage.Type)
	assert.Equal(t, "content/md", cfg.Storage.Prefix)
	assert.Equal(t, "auto", cfg.Storage.S3.Region)
	assert.False(t, cfg.CORS.Enabled)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_ConfigFile(t *testing.T) {
	path := writeConfig(t, `
env: production
server:
  host: 127.0.0.1
  port: 8080
  production: true
  cookie_domain: files.example.org
  max_upload_size: 1048576
auth:
  users_file: /etc/r2gate/users.yaml
  session_ttl: 12h
session:
  type: sqlite
  dsn: /var/lib/r2gate/sessions.db
storage:
  type: s3
  prefix: docs
  s3:
    account_id: abc123
    access_key_id: AKID
    secret_access_key: SECRET
    bucket: site
log:
  level: debug
`)

	cfg, err := config.Load([]string{path}, nil)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:8080", cfg.Server.Addr())
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "files.example.org", cfg.Server.CookieDomain)
	assert.Equal(t, int64(1048576), cfg.Server.MaxUploadSize)
	assert.Equal(t, "/etc/r2gate/users.yaml", cfg.Auth.UsersFile)
	assert.Equal(t, 12*time.Hour, cfg.Auth.SessionTTL)
	assert.Equal(t, "sqlite", cfg.Session.Type)
	assert.Equal(t, "/var/lib/r2gate/sessions.db", cfg.Session.DSN)
	assert.Equal(t, "docs", cfg.Storage.Prefix)
	assert.Equal(t, "abc123", cfg.Storage.S3.AccountID)
	assert.Equal(t, "site", cfg.Storage.S3.Bucket)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_InlineUsers(t *testing.T) {
	path := writeConfig(t, `
auth:
  users:
    alice:
      name: Alice A.
      token_hash: $2a$10$abcdefghijklmnopqrstuv
`)

	cfg, err := config.Load([]string{path}, nil)
	require.NoError(t, err)

	require.Contains(t, cfg.Auth.Users, "alice")
	assert.Equal(t, "Alice A.", cfg.Auth.Users["alice"].Name)
	assert.Equal(t, "$2a$10$abcdefghijklmnopqrstuv", cfg.Auth.Users["alice"].TokenHash)
}

func TestLoad_ConfigFileMerge(t *testing.T) {
	base := writeConfig(t, `
server:
  port: 3000
session:
  type: redis
  redis:
    addr: redis:6379
`)
	override := writeConfig(t, `
server:
  port: 9000
`)

	cfg, err := config.Load([]string{base, override}, nil)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "redis", cfg.Session.Type)
	assert.Equal(t, "redis:6379", cfg.Session.Redis.Addr)
}

func TestLoad_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"port out of range", "server:\n  port: 99999\n"},
		{"host not an ip", "server:\n  host: localhost\n"},
		{"unknown session type", "session:\n  type: etcd\n"},
		{"unknown storage type", "storage:\n  type: gcs\n"},
		{"unknown log level", "log:\n  level: verbose\n"},
		{"negative ttl", "auth:\n  session_ttl: -1h\n"},
		{"production without cookie domain", "server:\n  production: true\n  cookie_domain: \"\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.Load([]string{writeConfig(t, tt.content)}, nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "validate config")
		})
	}
}

func TestLoad_EnvironmentVariables(t *testing.T) {
	t.Setenv("R2GATE_SERVER_PORT", "9090")
	t.Setenv("R2GATE_SESSION_TYPE", "postgres")
	t.Setenv("R2GATE_AUTH_SESSION_TTL", "2h")
	t.Setenv("R2GATE_STORAGE_S3_ENDPOINT", "http://localhost:9000")

	cfg, err := config.Load(nil, nil)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Session.Type)
	assert.Equal(t, 2*time.Hour, cfg.Auth.SessionTTL)
	assert.Equal(t, "http://localhost:9000", cfg.Storage.S3.Endpoint)
}

func TestLoad_LegacyEnvironmentVariables(t *testing.T) {
	t.Setenv("SERVER_IP", "10.0.0.5")
	t.Setenv("SERVER_PORT", "4000")
	t.Setenv("PRODUCTION", "true")
	t.Setenv("USERS_FILE", "/data/users.json")
	t.Setenv("R2_ACCOUNT_ID", "acct")
	t.Setenv("R2_ACCESS_KEY_ID", "key")
	t.Setenv("R2_SECRET_ACCESS_KEY", "secret")
	t.Setenv("R2_BUCKET_NAME", "bucket")

	cfg, err := config.Load(nil, nil)
	require.NoError(t, err)

	assert.Equal(t, "10.0.0.5:4000", cfg.Server.Addr())
	assert.True(t, cfg.Server.Production)
	assert.Equal(t, "/data/users.json", cfg.Auth.UsersFile)
	assert.Equal(t, "acct", cfg.Storage.S3.AccountID)
	assert.Equal(t, "key", cfg.Storage.S3.AccessKeyID)
	assert.Equal(t, "secret", cfg.Storage.S3.SecretAccessKey)
	assert.Equal(t, "bucket", cfg.Storage.S3.Bucket)
}

func TestLoad_PrefixedEnvWinsOverLegacy(t *testing.T) {
	t.Setenv("SERVER_PORT", "4000")
	t.Setenv("R2GATE_SERVER_PORT", "5000")

	cfg, err := config.Load(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 5000, cfg.Server.Port)
}

func TestLoad_Flags(t *testing.T) {
	t.Setenv("R2GATE_SERVER_PORT", "9090")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("port", 3000, "")
	flags.String("storage-type", "s3", "")
	flags.String("users-file", "users.json", "")
	require.NoError(t, flags.Parse([]string{"--port=7000", "--storage-type=filesystem"}))

	cfg, err := config.Load(nil, flags)
	require.NoError(t, err)

	assert.Equal(t, 7000, cfg.Server.Port, "flags override env")
	assert.Equal(t, "filesystem", cfg.Storage.Type)
	assert.Equal(t, "users.json", cfg.Auth.UsersFile, "unset flags do not override defaults")
}
