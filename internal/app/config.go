package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	mapstructure "github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// Config represents the runtime configuration for the media platform API.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Cache       CacheConfig       `mapstructure:"cache"`
	Auth        AuthConfig        `mapstructure:"auth"`
	Directory   DirectoryConfig   `mapstructure:"directory"`
	Legacy      LegacyConfig      `mapstructure:"legacy"`
	Maintenance MaintenanceConfig `mapstructure:"maintenance"`
	Monitoring  MonitoringConfig  `mapstructure:"monitoring"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port      int    `mapstructure:"port"`
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

// DatabaseConfig describes connection options for the supported databases.
type DatabaseConfig struct {
	Driver   string       `mapstructure:"driver"`
	Path     string       `mapstructure:"path"`
	DSN      string       `mapstructure:"dsn"`
	Postgres DBAuthConfig `mapstructure:"postgres"`
	MySQL    DBAuthConfig `mapstructure:"mysql"`
}

// DBAuthConfig represents host based database parameters.
type DBAuthConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Database string `mapstructure:"database"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// CacheConfig describes cache backends.
type CacheConfig struct {
	Redis RedisCacheConfig `mapstructure:"redis"`
}

// RedisCacheConfig holds Redis connection options.
type RedisCacheConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Address  string        `mapstructure:"address"`
	Username string        `mapstructure:"username"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// AuthConfig captures authentication settings.
type AuthConfig struct {
	JWT JWTSettings `mapstructure:"jwt"`
}

// JWTSettings configures bearer tokens.
type JWTSettings struct {
	Secret string        `mapstructure:"secret"`
	Issuer string        `mapstructure:"issuer"`
	TTL    time.Duration `mapstructure:"access_token_ttl"`
}

// DirectoryConfig selects where principal group and institution facts come from.
type DirectoryConfig struct {
	Backend  string              `mapstructure:"backend"`
	CacheTTL time.Duration       `mapstructure:"cache_ttl"`
	LDAP     LDAPDirectoryConfig `mapstructure:"ldap"`
	HTTP     HTTPDirectoryConfig `mapstructure:"http"`
}

// LDAPDirectoryConfig configures the Lookup LDAP backend.
type LDAPDirectoryConfig struct {
	Host         string              `mapstructure:"host"`
	Port         int                 `mapstructure:"port"`
	UseTLS       bool                `mapstructure:"use_tls"`
	SkipVerify   bool                `mapstructure:"skip_verify"`
	BindDN       string              `mapstructure:"bind_dn"`
	BindPassword string              `mapstructure:"bind_password"`
	PeopleBaseDN string              `mapstructure:"people_base_dn"`
	PersonFilter string              `mapstructure:"person_filter"`
	Timeout      time.Duration       `mapstructure:"timeout"`
	Attributes   LDAPAttributeConfig `mapstructure:"attributes"`
}

// LDAPAttributeConfig names the LDAP attributes read for a person.
type LDAPAttributeConfig struct {
	DisplayName  string `mapstructure:"display_name"`
	VisibleName  string `mapstructure:"visible_name"`
	Groups       string `mapstructure:"groups"`
	Institutions string `mapstructure:"institutions"`
}

// HTTPDirectoryConfig configures the Lookup REST backend.
type HTTPDirectoryConfig struct {
	BaseURL  string        `mapstructure:"base_url"`
	Username string        `mapstructure:"username"`
	Password string        `mapstructure:"password"`
	Timeout  time.Duration `mapstructure:"timeout"`
	Retries  int           `mapstructure:"retries"`
}

// LegacyConfig points at the legacy streaming media service statistics database.
type LegacyConfig struct {
	StatsDSN     string `mapstructure:"stats_dsn"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
}

// MaintenanceConfig controls background purge and retention jobs.
type MaintenanceConfig struct {
	Enabled            bool          `mapstructure:"enabled"`
	PurgeAfter         time.Duration `mapstructure:"purge_after"`
	PurgeSchedule      string        `mapstructure:"purge_schedule"`
	AuditSchedule      string        `mapstructure:"audit_schedule"`
	CacheSchedule      string        `mapstructure:"cache_schedule"`
	AuditRetentionDays int           `mapstructure:"audit_retention_days"`
}

// MonitoringConfig enables metrics.
type MonitoringConfig struct {
	Prometheus PrometheusConfig `mapstructure:"prometheus"`
}

// PrometheusConfig toggles metrics endpoints.
type PrometheusConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
}

// LoadConfig initialises application configuration using Viper with sensible defaults.
func LoadConfig(paths ...string) (*Config, error) {
	v := viper.NewWithOptions(viper.ExperimentalBindStruct())
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.AddConfigPath("./config")
	for _, path := range paths {
		v.AddConfigPath(path)
	}

	setDefaults(v)

	v.SetEnvPrefix("MEDIAPLATFORM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var cfgErr viper.ConfigFileNotFoundError
		if !errors.As(err, &cfgErr) {
			return nil, fmt.Errorf("config: read file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config, decodeHook()); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.log_format", "json")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "./data/mediaplatform.sqlite")
	v.SetDefault("database.postgres.port", 5432)
	v.SetDefault("database.mysql.port", 3306)

	v.SetDefault("cache.redis.enabled", false)
	v.SetDefault("cache.redis.address", "127.0.0.1:6379")
	v.SetDefault("cache.redis.db", 0)
	v.SetDefault("cache.redis.timeout", "5s")

	v.SetDefault("auth.jwt.issuer", "mediaplatform")
	v.SetDefault("auth.jwt.access_token_ttl", "1h")

	v.SetDefault("directory.backend", "none")
	v.SetDefault("directory.cache_ttl", "10m")
	v.SetDefault("directory.ldap.port", 636)
	v.SetDefault("directory.ldap.use_tls", true)
	v.SetDefault("directory.ldap.people_base_dn", "ou=people,o=University of Cambridge,dc=cam,dc=ac,dc=uk")
	v.SetDefault("directory.ldap.timeout", "10s")
	v.SetDefault("directory.http.base_url", "https://www.lookup.cam.ac.uk/api/v1")
	v.SetDefault("directory.http.timeout", "10s")
	v.SetDefault("directory.http.retries", 2)

	v.SetDefault("legacy.max_open_conns", 4)

	v.SetDefault("maintenance.enabled", true)
	v.SetDefault("maintenance.purge_after", "720h") // 30 days
	v.SetDefault("maintenance.purge_schedule", "@daily")
	v.SetDefault("maintenance.audit_schedule", "@daily")
	v.SetDefault("maintenance.cache_schedule", "@hourly")
	v.SetDefault("maintenance.audit_retention_days", 365)

	v.SetDefault("monitoring.prometheus.enabled", true)
	v.SetDefault("monitoring.prometheus.endpoint", "/metrics")
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}
