package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load(viper.New(), "")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "payroll.db", cfg.Database.Path)
	assert.Equal(t, 72.0, cfg.Payroll.OTCapHours)
	assert.Equal(t, 22, cfg.Payroll.FallbackWorkingDays)
	assert.Equal(t, "flat", cfg.Payroll.BulkCommunityFund)
	assert.Equal(t, "table", cfg.Payroll.SingleCommunityFund)
	assert.Equal(t, []string{"sunday"}, cfg.Payroll.RestDays)
	assert.False(t, cfg.Payroll.RestoreCapAtLimit)
}

func TestLoad_FileThenEnvironment(t *testing.T) {
	// GIVEN: A config file and one environment override
	path := filepath.Join(t.TempDir(), "payroll.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9090
payroll:
  ot_cap_hours: 60
  bulk_community_fund: table
`), 0o600))
	t.Setenv("PAYROLL_SERVER_PORT", "7070")

	// WHEN: Loading
	cfg, err := load(viper.New(), path)
	require.NoError(t, err)

	// THEN: The environment wins over the file, the file over defaults
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, 60.0, cfg.Payroll.OTCapHours)
	assert.Equal(t, "table", cfg.Payroll.BulkCommunityFund)
	assert.Equal(t, 8, cfg.Payroll.BulkConcurrency)
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("PAYROLL_PAYROLL_FALLBACK_WORKING_DAYS", "0")

	_, err := load(viper.New(), "")
	assert.ErrorContains(t, err, "fallback_working_days")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := load(viper.New(), filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
