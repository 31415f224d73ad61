// Package config loads eo3 tool settings from a TOML file.
//
//	[validation]
//	require_geometry = true
//	thorough = false
//	allow_extra_measurements = ["fmask"]
//	allow_missing_fields = []
//	allow_nullable_fields = ["label", "sources"]
//
//	[log]
//	level = "info"   # debug, info, warn, error
//	format = "text"  # text or json
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/reoring/eo3/validate"
)

// Config is the whole settings file.
type Config struct {
	Validation Validation `toml:"validation"`
	Log        Log        `toml:"log"`
}

// Validation holds validation expectations.
type Validation struct {
	RequireGeometry        bool     `toml:"require_geometry"`
	Thorough               bool     `toml:"thorough"`
	AllowExtraMeasurements []string `toml:"allow_extra_measurements"`
	AllowMissingFields     []string `toml:"allow_missing_fields"`
	AllowNullableFields    []string `toml:"allow_nullable_fields"`
}

// Log selects the slog handler.
type Log struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Default matches validate.DefaultExpectations with info-level text logs.
func Default() Config {
	e := validate.DefaultExpectations()
	return Config{
		Validation: Validation{
			RequireGeometry:        e.RequireGeometry,
			AllowExtraMeasurements: e.AllowExtraMeasurements,
			AllowMissingFields:     e.AllowMissingFields,
			AllowNullableFields:    e.AllowNullableFields,
		},
		Log: Log{Level: "info", Format: "text"},
	}
}

// Load reads path over Default. Keys the file leaves out keep their
// defaults; unknown keys are an error.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse is Load for bytes.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return Config{}, errors.New(strict.String())
		}
		return Config{}, err
	}
	if _, err := cfg.Log.level(); err != nil {
		return Config{}, err
	}
	switch cfg.Log.Format {
	case "text", "json":
	default:
		return Config{}, fmt.Errorf("log.format must be text or json, got %q", cfg.Log.Format)
	}
	return cfg, nil
}

// Expectations converts the validation section.
func (c Config) Expectations() validate.Expectations {
	return validate.Expectations{
		RequireGeometry:        c.Validation.RequireGeometry,
		AllowExtraMeasurements: append([]string(nil), c.Validation.AllowExtraMeasurements...),
		AllowMissingFields:     append([]string(nil), c.Validation.AllowMissingFields...),
		AllowNullableFields:    append([]string(nil), c.Validation.AllowNullableFields...),
	}
}

func (l Log) level() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(l.Level))); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return lvl, nil
}

// NewLogger builds the configured handler over w. verbose forces debug.
func (l Log) NewLogger(w io.Writer, verbose bool) *slog.Logger {
	lvl, err := l.level()
	if err != nil {
		lvl = slog.LevelInfo
	}
	if verbose {
		lvl = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if l.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
