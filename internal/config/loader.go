// Package config loads the reviewrisk configuration from YAML with
// environment variable overrides.
//
// Environment Variables and .env Files:
//
// The package loads .env files before applying environment variable overrides.
// Files are loaded in the following priority order (higher priority overrides lower):
//
//  1. Environment variable ENV_FILE (if set, loads only this file)
//  2. .env.local (if exists, overrides .env)
//  3. .env (default, always checked if ENV_FILE is not set)
//
// Overrides are declared with the `env` struct tag:
//
//	type ClassifierConfig struct {
//	    Provider string `yaml:"provider" env:"REVIEWRISK_CLASSIFIER"`
//	}
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// loadEnvFiles loads .env files in priority order. Missing files are ignored.
func loadEnvFiles() error {
	if envFile := os.Getenv("ENV_FILE"); envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("load env file %s: %w", envFile, err)
		}
		return nil
	}

	if err := godotenv.Load(".env.local"); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("load .env.local: %w", err)
	}

	if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("load .env: %w", err)
	}

	return nil
}

// Load reads a YAML config file into a zero T and applies environment
// variable overrides.
func Load[T any](path string) (*T, error) {
	var base T
	return LoadWithBase(path, base)
}

// LoadWithBase decodes the YAML file at path over base, so keys absent from
// the file keep their base value, then applies environment overrides. Keys
// unknown to T and override values that do not parse are rejected. An empty
// path skips the file.
func LoadWithBase[T any](path string, base T) (*T, error) {
	if err := loadEnvFiles(); err != nil {
		return nil, fmt.Errorf("load environment files: %w", err)
	}

	cfg := base
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}

		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, fmt.Errorf("environment overrides: %w", err)
	}
	return &cfg, nil
}

// applyEnvOverrides sets every `env`-tagged field whose variable is set.
// Values that do not parse as the field's type are reported together.
func applyEnvOverrides(cfg any) error {
	v := reflect.ValueOf(cfg)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	var errs []error
	walkEnvFields(v, func(field reflect.Value, name string) {
		raw, ok := os.LookupEnv(name)
		if !ok || raw == "" {
			return
		}
		if err := setFromEnv(field, raw); err != nil {
			errs = append(errs, fmt.Errorf("%s=%q: %w", name, raw, err))
		}
	})
	return errors.Join(errs...)
}

// walkEnvFields calls fn for each settable field carrying an env tag,
// descending into nested structs.
func walkEnvFields(v reflect.Value, fn func(field reflect.Value, name string)) {
	if v.Kind() != reflect.Struct {
		return
	}
	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		if !field.CanSet() {
			continue
		}
		if field.Kind() == reflect.Struct {
			walkEnvFields(field, fn)
			continue
		}
		if name := t.Field(i).Tag.Get("env"); name != "" {
			fn(field, name)
		}
	}
}

var durationType = reflect.TypeOf(time.Duration(0))

func setFromEnv(field reflect.Value, raw string) error {
	raw = strings.TrimSpace(raw)
	switch {
	case field.Type() == durationType:
		d, err := time.ParseDuration(raw)
		if err != nil {
			return err
		}
		field.SetInt(int64(d))
	case field.CanInt():
		n, err := strconv.ParseInt(raw, 10, field.Type().Bits())
		if err != nil {
			return err
		}
		field.SetInt(n)
	case field.CanFloat():
		f, err := strconv.ParseFloat(raw, field.Type().Bits())
		if err != nil {
			return err
		}
		field.SetFloat(f)
	case field.Kind() == reflect.Bool:
		b, err := parseBool(raw)
		if err != nil {
			return err
		}
		field.SetBool(b)
	case field.Kind() == reflect.String:
		field.SetString(raw)
	case field.Kind() == reflect.Slice && field.Type().Elem().Kind() == reflect.String:
		parts := strings.Split(raw, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		field.Set(reflect.ValueOf(parts))
	default:
		return fmt.Errorf("unsupported field type %s", field.Type())
	}
	return nil
}

// parseBool accepts strconv.ParseBool forms plus yes/no.
func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "y":
		return true, nil
	case "no", "n":
		return false, nil
	}
	return strconv.ParseBool(s)
}
