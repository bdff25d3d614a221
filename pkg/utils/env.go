// Package utils reads typed settings from the process environment.
package utils

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// GetEnvTrimmed returns the variable with surrounding whitespace removed.
func GetEnvTrimmed(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func GetEnvTrimmedOrDefault(key, defaultValue string) string {
	if v := GetEnvTrimmed(key); v != "" {
		return v
	}
	return defaultValue
}

// EnvBool returns def when key is unset. A value that is set but unparsable returns def and an error.
func EnvBool(key string, def bool) (bool, error) {
	raw := GetEnvTrimmed(key)
	if raw == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return def, fmt.Errorf("%s: %q is not a boolean", key, raw)
	}
	return b, nil
}

// EnvPositiveInt rejects zero and negative values.
func EnvPositiveInt(key string, def int) (int, error) {
	raw := GetEnvTrimmed(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return def, fmt.Errorf("%s: %q is not a positive integer", key, raw)
	}
	return n, nil
}

// EnvDuration parses a Go duration ("30s", "5m"). Zero and negative durations are rejected.
func EnvDuration(key string, def time.Duration) (time.Duration, error) {
	raw := GetEnvTrimmed(key)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return def, fmt.Errorf("%s: %q is not a positive duration", key, raw)
	}
	return d, nil
}

// EnvList splits a comma separated variable, dropping blank entries. Unset yields nil.
func EnvList(key string) []string {
	raw := GetEnvTrimmed(key)
	if raw == "" {
		return nil
	}

	var items []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			items = append(items, part)
		}
	}
	return items
}
