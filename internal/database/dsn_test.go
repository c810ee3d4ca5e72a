package database

import (
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"
)

func TestBuildPostgresDSNDefaults(t *testing.T) {
	dsn, err := buildPostgresDSN(Config{
		User: "mediaplatform",
		Name: "mediaplatform",
	})
	require.NoError(t, err)
	require.Equal(t, "postgres://mediaplatform@localhost:5432/mediaplatform?application_name=mediaplatform&sslmode=disable", dsn)
}

func TestBuildPostgresDSNWithOptions(t *testing.T) {
	dsn, err := buildPostgresDSN(Config{
		User:     "media",
		Name:     "catalog",
		Host:     "db.example.com",
		Port:     6543,
		Password: "p@ss word",
		Options: map[string]string{
			"sslmode":     "require",
			"search_path": "catalog",
		},
	})
	require.NoError(t, err)

	parsed, err := pgx.ParseConfig(dsn)
	require.NoError(t, err)
	require.Equal(t, "db.example.com", parsed.Host)
	require.EqualValues(t, 6543, parsed.Port)
	require.Equal(t, "media", parsed.User)
	require.Equal(t, "p@ss word", parsed.Password)
	require.Equal(t, "catalog", parsed.Database)
	require.Equal(t, "catalog", parsed.RuntimeParams["search_path"])
	require.Equal(t, "mediaplatform", parsed.RuntimeParams["application_name"])
	require.NotNil(t, parsed.TLSConfig)
}

func TestBuildPostgresDSNValidatesOverride(t *testing.T) {
	dsn, err := buildPostgresDSN(Config{DSN: "postgres://u@localhost/db"})
	require.NoError(t, err)
	require.Equal(t, "postgres://u@localhost/db", dsn)

	_, err = buildPostgresDSN(Config{DSN: "postgres://u@localhost/db?sslmode=bogus"})
	require.Error(t, err)
}

func TestBuildPostgresDSNRequiresUserAndName(t *testing.T) {
	_, err := buildPostgresDSN(Config{})
	require.Error(t, err)
}

func TestBuildMySQLDSNDefaults(t *testing.T) {
	dsn, err := buildMySQLDSN(Config{
		User: "mediaplatform",
		Name: "mediaplatform",
	})
	require.NoError(t, err)
	require.Contains(t, dsn, "mediaplatform@tcp(127.0.0.1:3306)/mediaplatform?")
	require.Contains(t, dsn, "charset=utf8mb4")

	parsed, err := mysql.ParseDSN(dsn)
	require.NoError(t, err)
	require.True(t, parsed.ParseTime)
	require.Equal(t, time.Local, parsed.Loc)
}

func TestBuildMySQLDSNWithOptions(t *testing.T) {
	dsn, err := buildMySQLDSN(Config{
		User:     "user",
		Password: "secret",
		Name:     "db",
		Host:     "db.example.com",
		Port:     3307,
		Options: map[string]string{
			"tls":       "skip-verify",
			"parseTime": "false",
			"timeout":   "5s",
		},
	})
	require.NoError(t, err)

	parsed, err := mysql.ParseDSN(dsn)
	require.NoError(t, err)
	require.Equal(t, "user", parsed.User)
	require.Equal(t, "secret", parsed.Passwd)
	require.Equal(t, "db.example.com:3307", parsed.Addr)
	require.Equal(t, "db", parsed.DBName)
	require.Equal(t, "skip-verify", parsed.TLSConfig)
	require.False(t, parsed.ParseTime)
	require.Equal(t, 5*time.Second, parsed.Timeout)
}

func TestBuildMySQLDSNRequiresUserAndName(t *testing.T) {
	_, err := buildMySQLDSN(Config{Host: "localhost"})
	require.Error(t, err)

	_, err = buildMySQLDSN(Config{User: "u", Name: "db", Options: map[string]string{"loc": "Nowhere/Special"}})
	require.Error(t, err)
}
