// SPDX-FileCopyrightText: Copyright 2025 The Towns GitHub Bot Authors
// SPDX-License-Identifier: Apache-2.0

// Package config contains the shared configuration plumbing for the
// github-bot binaries.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/spf13/viper"
)

// ReadConfigFromViper reads the configuration from the given Viper instance.
// This will return the already-parsed and validated configuration, or an error.
func ReadConfigFromViper[CfgType any](v *viper.Viper) (*CfgType, error) {
	var cfg CfgType
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SetViperStructDefaults recursively sets the viper default values for the given struct.
//
// Per https://github.com/spf13/viper/issues/188#issuecomment-255519149, and
// https://github.com/spf13/viper/issues/761, we need to call viper.SetDefault() for each
// field in the struct to be able to use env var overrides.  This also lets us use the
// struct as the source of default values, so yay?
func SetViperStructDefaults(v *viper.Viper, prefix string, s any) {
	structType := reflect.TypeOf(s)

	for i := 0; i < structType.NumField(); i++ {
		field := structType.Field(i)
		if unicode.IsLower([]rune(field.Name)[0]) {
			// Skip private fields
			continue
		}
		if field.Tag.Get("mapstructure") == "" {
			// Error, need a tag
			panic(fmt.Sprintf("Untagged config struct field %q", field.Name))
		}
		valueName := strings.ToLower(prefix + field.Tag.Get("mapstructure"))

		if field.Type.Kind() == reflect.Struct {
			SetViperStructDefaults(v, valueName+".", reflect.Zero(field.Type).Interface())
			continue
		}

		// Extract a default value from the `default` struct tag
		// we don't support all value types yet, but we can add them as needed
		value := field.Tag.Get("default")
		defaultValue := reflect.Zero(field.Type).Interface()
		var err error // We handle errors at the end of the switch
		fieldType := field.Type.Kind()
		//nolint:golint,exhaustive
		switch {
		case field.Type == reflect.TypeOf(time.Duration(0)):
			defaultValue, err = time.ParseDuration(value)
		case fieldType == reflect.String:
			defaultValue = value
		case fieldType == reflect.Int64 || fieldType == reflect.Int32 ||
			fieldType == reflect.Int16 || fieldType == reflect.Int8 ||
			fieldType == reflect.Int || fieldType == reflect.Uint64 ||
			fieldType == reflect.Uint32 || fieldType == reflect.Uint16 ||
			fieldType == reflect.Uint8 || fieldType == reflect.Uint:
			defaultValue, err = strconv.Atoi(value)
		case fieldType == reflect.Float64:
			defaultValue, err = strconv.ParseFloat(value, 64)
		case fieldType == reflect.Bool:
			defaultValue, err = strconv.ParseBool(value)
		default:
			err = fmt.Errorf("unhandled type %s", fieldType)
		}
		if err != nil {
			// This is effectively a compile-time error, so exit early
			panic(fmt.Sprintf("Bad value for field %q (%s): %q", valueName, fieldType, err))
		}

		if err := v.BindEnv(strings.ToUpper(valueName)); err != nil {
			panic(fmt.Sprintf("Failed to bind %q to env var: %v", valueName, err))
		}
		v.SetDefault(valueName, defaultValue)
	}
}

// ReadKey reads a key from a file
func ReadKey(keypath string) ([]byte, error) {
	cleankeypath := filepath.Clean(keypath)
	data, err := os.ReadFile(cleankeypath)
	if err != nil {
		return nil, fmt.Errorf("failed to read key: %w", err)
	}

	return data, nil
}

// FileOrArg returns the contents of the file at the given path if file is
// non-empty, otherwise the literal argument. Secrets can be supplied either
// way; files win so that rotation does not require re-deploying config.
func FileOrArg(file, arg, desc string) (string, error) {
	if file != "" {
		data, err := os.ReadFile(filepath.Clean(file))
		if err != nil {
			return "", fmt.Errorf("failed to read %s from file: %w", desc, err)
		}
		return strings.TrimSpace(string(data)), nil
	}
	return arg, nil
}
