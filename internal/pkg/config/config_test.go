package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalConfig = `
db_username: postgres
db_password: postgres
db_host: localhost
db_port: "5432"
db_name: attendance

vendor:
  base_url: https://punchclock.example.com
  corp_id: CORP01
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestNewConfigDefaults(t *testing.T) {
	cfg, err := NewConfig(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, "vendor-live", cfg.Sync.StreamID)
	assert.Equal(t, "10:45", cfg.Policy.LateGrace)
	assert.Equal(t, 0.3, cfg.Policy.MinMatchScore)
	assert.Equal(t, 0.8, cfg.Policy.AutoMapThreshold)
}

func TestNewConfigRejectsInvalidLateGrace(t *testing.T) {
	body := minimalConfig + `
policy:
  late_grace: "25:99"
`
	_, err := NewConfig(writeConfig(t, body))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "late_grace")

	body = minimalConfig + `
policy:
  late_grace: "bogus"
`
	_, err = NewConfig(writeConfig(t, body))
	require.Error(t, err)
}

func TestNewConfigMissingRequired(t *testing.T) {
	_, err := NewConfig(writeConfig(t, "db_username: only"))
	require.Error(t, err)
}
