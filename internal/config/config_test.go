package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWithSQLite(t *testing.T) {
	t.Setenv("STORE_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", "file::memory:")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, StoreDriverSQLite, cfg.Store.Driver)
	require.Equal(t, 12, cfg.Auth.BcryptCost)
	require.True(t, cfg.Auth.AllowRegistration)
	require.False(t, cfg.Reports.PublicListing)
	require.Equal(t, StorageDriverNone, cfg.Storage.Driver)
	require.Equal(t, MQDriverNone, cfg.MQ.Driver)
	require.Equal(t, int64(5<<20), cfg.Storage.MaxImageBytes)
	require.Equal(t, time.Hour, cfg.RateLimit.SubmitWindow())
	require.Equal(t, "0.0.0.0:8080", cfg.App.Addr())
	require.False(t, cfg.Analysis.Enabled())
}

func TestLoadRequiresPostgresDSN(t *testing.T) {
	t.Setenv("STORE_DRIVER", "postgres")
	t.Setenv("POSTGRES_DSN", "")

	_, err := Load()
	require.ErrorContains(t, err, "POSTGRES_DSN")
}

func TestLoadRejectsUnknownDrivers(t *testing.T) {
	t.Setenv("STORE_DRIVER", "sqlite")
	t.Setenv("STORAGE_DRIVER", "ftp")

	_, err := Load()
	require.ErrorContains(t, err, "STORAGE_DRIVER")
}

func TestLoadRequiresBucketForObjectStorage(t *testing.T) {
	t.Setenv("STORE_DRIVER", "sqlite")
	t.Setenv("STORAGE_DRIVER", "minio")
	t.Setenv("STORAGE_BUCKET", "")

	_, err := Load()
	require.ErrorContains(t, err, "STORAGE_BUCKET")
}

func TestEnvHelpersFallBack(t *testing.T) {
	t.Setenv("SOME_INT", "nope")
	t.Setenv("SOME_BOOL", "maybe")

	require.Equal(t, 7, getEnvAsInt("SOME_INT", 7))
	require.True(t, getEnvAsBool("SOME_BOOL", true))
	require.Equal(t, "x", getEnv("UNSET_KEY_FOR_TEST", "x"))
}
