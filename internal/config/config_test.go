package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	require.NoError(t, Load())
	assert.Equal(t, ":8080", APIAddr())
	assert.Equal(t, DriverPostgres, DBDriver())
	assert.Equal(t, 30*time.Minute, DBConnMaxLifetime())
	assert.Equal(t, 5*time.Minute, SessionCacheTTL())
	assert.Equal(t, uint32(64*1024), Argon2MemoryKiB())
	assert.Equal(t, "energy/readings", MQTTTopic())
	assert.False(t, UseCloudServices())
	assert.Equal(t, 0.20, EnergyRatePerKWh())
}

func TestLoadReadsEnvironment(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	t.Setenv("DB_DRIVER", "memory")
	t.Setenv("API_ADDR", ":9090")
	t.Setenv("SESSION_CACHE_TTL", "90s")

	require.NoError(t, Load())
	assert.Equal(t, DriverMemory, DBDriver())
	assert.Equal(t, ":9090", APIAddr())
	assert.Equal(t, 90*time.Second, SessionCacheTTL())
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	t.Setenv("DB_DRIVER", "oracle")

	err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_DRIVER")
}

func TestLoadRejectsCloudWithoutTargets(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	viper.Set("USE_CLOUD_SERVICES", true)
	viper.Set("AWS_S3_BUCKET", "")

	assert.Error(t, Load())
}

func TestLoadRejectsNegativeRate(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	t.Setenv("ENERGY_RATE_PER_KWH", "-1")

	assert.ErrorContains(t, Load(), "ENERGY_RATE_PER_KWH")
}
