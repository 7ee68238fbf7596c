package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir 切到不含配置文件的临时目录
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(wd) })
}

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 0.9, cfg.Garage.MemberRate)
	assert.Equal(t, 0.8, cfg.Garage.PromotionRate)
	assert.Equal(t, 120.0, cfg.Garage.DefaultHourlyRate)
	assert.Equal(t, 3, cfg.Garage.DefaultReorderPoint)
	assert.Equal(t, 5*time.Minute, cfg.Garage.ReportCacheTTL)
	assert.Equal(t, "garage:stock_alerts", cfg.Garage.AlertChannel)
	assert.Equal(t, "", cfg.Redis.Addr())
}

func TestLoadEnvOverrides(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("REDIS_HOST", "cache")
	t.Setenv("GARAGE_MEMBER_RATE", "0.85")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, "cache:6379", cfg.Redis.Addr())
	assert.Equal(t, 0.85, cfg.Garage.MemberRate)
	assert.Contains(t, cfg.Database.DSN(), "host=db.internal")
}

func TestLoadRejectsNegativeRate(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("GARAGE_PROMOTION_RATE", "-0.2")

	_, err := Load()
	assert.Error(t, err)
}

func TestGetEnvOrDefault(t *testing.T) {
	t.Setenv("GARAGE_TEST_KEY", "x")
	assert.Equal(t, "x", GetEnvOrDefault("GARAGE_TEST_KEY", "y"))
	assert.Equal(t, "y", GetEnvOrDefault("GARAGE_MISSING_KEY", "y"))
}
