package app

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/mediaplatform/internal/auth"
)

func TestLoadConfigFromFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join("testdata"))
	require.NoError(t, err)

	require.Equal(t, 9090, cfg.Server.Port)
	require.Equal(t, "debug", cfg.Server.LogLevel)
	require.Equal(t, "console", cfg.Server.LogFormat)

	require.Equal(t, "postgres", cfg.Database.Driver)
	require.Equal(t, "db.example.com", cfg.Database.Postgres.Host)
	require.Equal(t, 6543, cfg.Database.Postgres.Port)

	require.True(t, cfg.Cache.Redis.Enabled)
	require.Equal(t, "redis.example.com:6380", cfg.Cache.Redis.Address)
	require.Equal(t, 2, cfg.Cache.Redis.DB)
	require.Equal(t, 3*time.Second, cfg.Cache.Redis.Timeout)

	require.Equal(t, "jwt-secret", cfg.Auth.JWT.Secret)
	require.Equal(t, "media-test", cfg.Auth.JWT.Issuer)
	require.Equal(t, 30*time.Minute, cfg.Auth.JWT.TTL)

	require.Equal(t, "ldap", cfg.Directory.Backend)
	require.Equal(t, 5*time.Minute, cfg.Directory.CacheTTL)
	require.Equal(t, 389, cfg.Directory.LDAP.Port)
	require.False(t, cfg.Directory.LDAP.UseTLS)
	require.Equal(t, "groupID", cfg.Directory.LDAP.Attributes.Groups)
	require.Equal(t, 4, cfg.Directory.HTTP.Retries)
	require.Equal(t, 10*time.Second, cfg.Directory.HTTP.Timeout)

	require.Equal(t, "postgres://stats@sms.example.com/stats", cfg.Legacy.StatsDSN)
	require.Equal(t, 2, cfg.Legacy.MaxOpenConns)

	require.True(t, cfg.Maintenance.Enabled)
	require.Equal(t, 168*time.Hour, cfg.Maintenance.PurgeAfter)
	require.Equal(t, "0 3 * * *", cfg.Maintenance.PurgeSchedule)
	require.Equal(t, "@daily", cfg.Maintenance.AuditSchedule)
	require.Equal(t, 90, cfg.Maintenance.AuditRetentionDays)

	require.True(t, cfg.Monitoring.Prometheus.Enabled)
	require.Equal(t, "/metrics", cfg.Monitoring.Prometheus.Endpoint)
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	require.Equal(t, 8000, cfg.Server.Port)
	require.Equal(t, "sqlite", cfg.Database.Driver)
	require.Equal(t, "none", cfg.Directory.BackendName())
	require.Equal(t, time.Hour, cfg.Auth.JWT.TTL)
	require.Equal(t, 720*time.Hour, cfg.Maintenance.PurgeAfter)
	require.Equal(t, 365, cfg.Maintenance.AuditRetentionDays)
}

func TestLoadConfigEnvironmentOverrides(t *testing.T) {
	t.Setenv("MEDIAPLATFORM_SERVER_PORT", "7070")
	t.Setenv("MEDIAPLATFORM_DIRECTORY_BACKEND", "http")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)
	require.Equal(t, 7070, cfg.Server.Port)
	require.Equal(t, "http", cfg.Directory.BackendName())
}

func TestAuthConfigAdapters(t *testing.T) {
	cfg := AuthConfig{JWT: JWTSettings{Secret: "s", Issuer: "iss"}}

	jwtCfg := cfg.JWTServiceConfig()
	require.Equal(t, "s", jwtCfg.Secret)
	require.Equal(t, "iss", jwtCfg.Issuer)
	require.Equal(t, auth.DefaultAccessTokenTTL, jwtCfg.AccessTokenTTL)

	cfg.JWT.TTL = 5 * time.Minute
	require.Equal(t, 5*time.Minute, cfg.JWTServiceConfig().AccessTokenTTL)
}

func TestDatabaseConnectionConfig(t *testing.T) {
	cfg := DatabaseConfig{
		Driver:   " Postgres ",
		Postgres: DBAuthConfig{Host: "db", Port: 5432, Database: "media", Username: "u", Password: "p"},
		MySQL:    DBAuthConfig{Host: "other"},
	}

	conn := cfg.ConnectionConfig()
	require.Equal(t, "postgres", conn.Driver)
	require.Equal(t, "db", conn.Host)
	require.Equal(t, 5432, conn.Port)
	require.Equal(t, "media", conn.Name)
	require.Equal(t, "u", conn.User)
	require.Equal(t, "p", conn.Password)

	sqlite := DatabaseConfig{Driver: "sqlite", Path: "./data/x.sqlite", Postgres: DBAuthConfig{Host: "db"}}.ConnectionConfig()
	require.Equal(t, "./data/x.sqlite", sqlite.Path)
	require.Empty(t, sqlite.Host)
}

func TestCacheConfigAdapter(t *testing.T) {
	cfg := CacheConfig{Redis: RedisCacheConfig{Address: " localhost:6379 ", DB: 3, Timeout: time.Second}}
	redisCfg := cfg.RedisClientConfig()
	require.Equal(t, "localhost:6379", redisCfg.Address)
	require.Equal(t, 3, redisCfg.DB)
	require.Equal(t, time.Second, redisCfg.Timeout)
}

func TestDirectoryConfigAdapters(t *testing.T) {
	cfg := DirectoryConfig{
		Backend: " LDAP ",
		LDAP: LDAPDirectoryConfig{
			Host:       "ldap.example.com",
			Port:       636,
			UseTLS:     true,
			Attributes: LDAPAttributeConfig{Groups: "groupID"},
		},
		HTTP: HTTPDirectoryConfig{BaseURL: "https://lookup.example.com/api/v1/", Retries: 1},
	}

	require.Equal(t, DirectoryBackendLDAP, cfg.BackendName())

	ldapCfg := cfg.LDAPConfig()
	require.Equal(t, "ldap.example.com", ldapCfg.Host)
	require.True(t, ldapCfg.UseTLS)
	require.Equal(t, "groupID", ldapCfg.Attributes.Groups)

	httpCfg := cfg.HTTPConfig()
	require.Equal(t, "https://lookup.example.com/api/v1", httpCfg.BaseURL)
	require.Equal(t, 1, httpCfg.Retries)
}
