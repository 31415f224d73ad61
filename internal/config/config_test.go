package config_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/eo3/internal/config"
	"github.com/reoring/eo3/validate"
)

func TestDefaultMatchesValidation(t *testing.T) {
	assert.Equal(t, validate.DefaultExpectations(), config.Default().Expectations())
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "eo3.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[validation]
require_geometry = false
allow_extra_measurements = ["fmask", "contiguity"]

[log]
format = "json"
`), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	e := cfg.Expectations()
	assert.False(t, e.RequireGeometry)
	assert.Equal(t, []string{"fmask", "contiguity"}, e.AllowExtraMeasurements)
	assert.Equal(t, []string{"label", "sources"}, e.AllowNullableFields, "untouched keys keep defaults")
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestParseRejects(t *testing.T) {
	for name, text := range map[string]string{
		"unknown key": "[validation]\nrequire_geometery = true\n",
		"bad level":   "[log]\nlevel = \"loud\"\n",
		"bad format":  "[log]\nformat = \"xml\"\n",
		"not toml":    "validation = [",
		"wrong type":  "[validation]\nthorough = \"yes\"\n",
	} {
		_, err := config.Parse([]byte(text))
		assert.Error(t, err, name)
	}

	_, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := config.Log{Level: "warn", Format: "json"}.NewLogger(&buf, false)
	logger.Info("hidden")
	logger.Warn("shown", "code", "non_epsg")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"code":"non_epsg"`)

	buf.Reset()
	logger = config.Log{Level: "warn", Format: "text"}.NewLogger(&buf, true)
	logger.Debug("detail")
	assert.Contains(t, buf.String(), "msg=detail")
}
