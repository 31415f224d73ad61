// Package properties normalises the properties section of EO3 documents.
//
// A Dict wraps the raw properties map. Writes go through the normaliser
// registered for the key (datetimes become UTC times, platforms are
// canonicalised, percentages range checked, ...). Unknown keys and
// overrides are reported as warnings, never rejected, unless the caller asks
// for strict override handling.
package properties

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/reoring/eo3/codec"
)

// OverrideError is returned when a key already holds a different value and
// overriding was not allowed.
type OverrideError struct {
	Key      string
	Old, New any
}

func (e *OverrideError) Error() string {
	return fmt.Sprintf("Overriding property %s (from %s to %s)", codec.Repr(e.Key), codec.Repr(e.Old), codec.Repr(e.New))
}

// MissingPropertiesError lists required properties that are absent or null.
type MissingPropertiesError struct {
	Missing []string
}

func (e *MissingPropertiesError) Error() string {
	return "Missing required properties: " + strings.Join(e.Missing, ", ")
}

// InvalidPropertyError wraps a normaliser failure with the offending key.
type InvalidPropertyError struct {
	Key string
	Err error
}

func (e *InvalidPropertyError) Error() string {
	return fmt.Sprintf("%s: %v", codec.Repr(e.Key), e.Err)
}

func (e *InvalidPropertyError) Unwrap() error { return e.Err }

// SetOptions control NormaliseAndSet.
type SetOptions struct {
	// AllowOverride downgrades an override of an existing value from an
	// error to a warning.
	AllowOverride bool
	// ExpectOverride silences override reporting entirely.
	ExpectOverride bool
}

// Dict is a properties map that normalises on write.
type Dict struct {
	props    map[string]any
	known    Known
	logger   *slog.Logger
	full     bool
	warnings []string
}

// Option configures a Dict.
type Option func(*Dict)

// WithKnown replaces the known-properties table (default KnownProperties).
func WithKnown(k Known) Option { return func(d *Dict) { d.known = k } }

// WithLogger sets the logger used for warnings.
func WithLogger(l *slog.Logger) Option { return func(d *Dict) { d.logger = l } }

// WithoutInputNormalisation only normalises existing datetime keys when the
// Dict is built.
func WithoutInputNormalisation() Option { return func(d *Dict) { d.full = false } }

// NewDict wraps props. The map is used in place; existing values are
// normalised without override warnings.
func NewDict(props map[string]any, opts ...Option) (*Dict, error) {
	if props == nil {
		props = map[string]any{}
	}
	d := &Dict{props: props, known: KnownProperties, logger: slog.Default(), full: true}
	for _, o := range opts {
		o(d)
	}
	for _, key := range sortedKeys(props) {
		if !d.full && !strings.Contains(key, "datetime") {
			continue
		}
		if err := d.NormaliseAndSet(key, props[key], SetOptions{AllowOverride: true, ExpectOverride: true}); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// Get returns the value stored under key.
func (d *Dict) Get(key string) (any, bool) {
	v, ok := d.props[key]
	return v, ok
}

// Set normalises and stores a value; overriding a different value warns.
func (d *Dict) Set(key string, value any) error {
	return d.NormaliseAndSet(key, value, SetOptions{AllowOverride: true})
}

// NormaliseAndSet stores value under key after normalisation. Extra
// properties produced by the normaliser are set recursively.
func (d *Dict) NormaliseAndSet(key string, value any, opts SetOptions) error {
	if !d.known.Has(key) {
		d.warn(fmt.Sprintf("Unknown Stac property %s. ", codec.Repr(key)))
	}
	if value != nil {
		if normalise := d.known[key]; normalise != nil {
			n, err := normalise(value)
			if err != nil {
				return &InvalidPropertyError{Key: key, Err: err}
			}
			if n.Warning != "" {
				d.warn(n.Warning)
			}
			value = n.Value
			for _, k := range sortedKeys(n.Extra) {
				if k == key {
					panic(fmt.Sprintf("Infinite loop: writing key %s from itself", codec.Repr(k)))
				}
				if err := d.NormaliseAndSet(k, n.Extra[k], SetOptions{AllowOverride: opts.AllowOverride}); err != nil {
					return err
				}
			}
		}
	}
	if old, present := d.props[key]; present && !opts.ExpectOverride && !codec.Equal(old, value) {
		if !opts.AllowOverride {
			return &OverrideError{Key: key, Old: old, New: value}
		}
		d.warn((&OverrideError{Key: key, Old: old, New: value}).Error())
	}
	d.props[key] = value
	return nil
}

// Delete removes key.
func (d *Dict) Delete(key string) { delete(d.props, key) }

// Keys lists keys in sorted order.
func (d *Dict) Keys() []string { return sortedKeys(d.props) }

// Len is the number of properties.
func (d *Dict) Len() int { return len(d.props) }

// Map exposes the wrapped map.
func (d *Dict) Map() map[string]any { return d.props }

// Known is the active known-properties table.
func (d *Dict) Known() Known { return d.known }

// Warnings returns every warning raised so far.
func (d *Dict) Warnings() []string { return append([]string(nil), d.warnings...) }

// Nested splits "a:b" keys into sub maps.
func (d *Dict) Nested() map[string]any { return Nest(d.props, ":") }

// ValidateProperties fails when any of required is absent or null.
func (d *Dict) ValidateProperties(required ...string) error {
	var missing []string
	for _, k := range required {
		if v, ok := d.props[k]; !ok || v == nil {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return &MissingPropertiesError{Missing: missing}
	}
	return nil
}

func (d *Dict) warn(msg string) {
	d.warnings = append(d.warnings, msg)
	d.logger.Warn(msg)
}

// Nest splits keys containing separator into nested maps:
//
//	{"landsat:path": 1, "landsat:row": 2, "clouds": 3}
//	=> {"landsat": {"path": 1, "row": 2}, "clouds": 3}
func Nest(d map[string]any, separator string) map[string]any {
	out := map[string]any{}
	sections := map[string]map[string]any{}
	for key, val := range d {
		section, sub, found := strings.Cut(key, separator)
		if !found {
			out[section] = val
			continue
		}
		m, ok := sections[section]
		if !ok {
			m = map[string]any{}
			sections[section] = m
		}
		m[sub] = val
	}
	for section, m := range sections {
		out[section] = Nest(m, separator)
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
