package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/spf13/viper"
)

// Store is a read-only key/value view of the module configuration tree.
// Keys are dot separated, typically "<module>.<name>.<key>".
type Store struct {
	v *viper.Viper
}

// NewStore creates a store from nested maps.
func NewStore(values map[string]any) *Store {
	v := viper.New()
	// MergeConfigMap only fails on nil input
	_ = v.MergeConfigMap(values)
	return &Store{v: v}
}

// ReadStore creates a store from a YAML stream.
func ReadStore(r io.Reader) (*Store, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("failed to parse config store: %w", err)
	}
	return &Store{v: v}, nil
}

// LoadStore reads the store from a YAML file. A missing file yields an empty store.
func LoadStore(filename string) (*Store, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return NewStore(nil), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return ReadStore(bytes.NewReader(data))
}

// Has reports whether key is set.
func (s *Store) Has(key string) bool {
	return s.v.IsSet(key)
}

// RequiredString returns the string value of key or an *Error if it is missing.
//
// Floating point scalars are rejected: YAML turns an unquoted "1.30" into 1.3
// and the digits as written cannot be recovered.
func (s *Store) RequiredString(key string) (string, error) {
	if !s.v.IsSet(key) {
		return "", &Error{Key: key, Reason: "required key is missing"}
	}
	switch val := s.v.Get(key).(type) {
	case string:
		return val, nil
	case float32, float64:
		return "", &Error{Key: key, Reason: fmt.Sprintf("numeric value %v is ambiguous, quote it", val)}
	default:
		return s.v.GetString(key), nil
	}
}

// NumberWithDefault returns the numeric value of key or def if it is missing.
func (s *Store) NumberWithDefault(key string, def float64) float64 {
	if !s.v.IsSet(key) {
		return def
	}
	return s.v.GetFloat64(key)
}

// BoolWithDefault returns the boolean value of key or def if it is missing.
func (s *Store) BoolWithDefault(key string, def bool) bool {
	if !s.v.IsSet(key) {
		return def
	}
	return s.v.GetBool(key)
}

// Names returns the sorted names configured below module.
func (s *Store) Names(module string) []string {
	m := s.v.GetStringMap(module)
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
