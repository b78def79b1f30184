package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	goRecover "github.com/MrEthical07/goRecover"
	"github.com/joho/godotenv"
)

const envPrefix = "GORESET_"

type lookupFunc func(string) (string, bool)

// loadDotEnv reads path into the process environment without overriding
// variables that are already set. A missing file is not an error.
func loadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	return godotenv.Load(path)
}

// configFromEnv overlays GORESET_* variables on the default configuration.
func configFromEnv(lookup lookupFunc) (goRecover.Config, error) {
	cfg := goRecover.DefaultConfig()

	if v, ok := get(lookup, "BASE_URL"); ok {
		cfg.API.BaseURL = v
	}
	if v, ok := get(lookup, "USER_AGENT"); ok {
		cfg.API.UserAgent = v
	}
	if err := durationVar(lookup, "TIMEOUT", &cfg.API.Timeout); err != nil {
		return cfg, err
	}
	if err := intVar(lookup, "MIN_PASSWORD_LENGTH", &cfg.Password.MinLength); err != nil {
		return cfg, err
	}

	if err := intVar(lookup, "THROTTLE_MAX", &cfg.Throttle.MaxRequests); err != nil {
		return cfg, err
	}
	if err := durationVar(lookup, "THROTTLE_WINDOW", &cfg.Throttle.Window); err != nil {
		return cfg, err
	}
	if v, ok := get(lookup, "THROTTLE_PREFIX"); ok {
		cfg.Throttle.RedisPrefix = v
	}

	if err := boolVar(lookup, "EVENTS", &cfg.Events.Enabled); err != nil {
		return cfg, err
	}
	if err := boolVar(lookup, "METRICS", &cfg.Metrics.Enabled); err != nil {
		return cfg, err
	}
	if !cfg.Metrics.Enabled {
		cfg.Metrics.EnableLatencyHistograms = false
	}

	return cfg, nil
}

func get(lookup lookupFunc, name string) (string, bool) {
	v, ok := lookup(envPrefix + name)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

func intVar(lookup lookupFunc, name string, dst *int) error {
	v, ok := get(lookup, name)
	if !ok {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s%s: %w", envPrefix, name, err)
	}
	*dst = n
	return nil
}

func durationVar(lookup lookupFunc, name string, dst *time.Duration) error {
	v, ok := get(lookup, name)
	if !ok {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s%s: %w", envPrefix, name, err)
	}
	*dst = d
	return nil
}

func boolVar(lookup lookupFunc, name string, dst *bool) error {
	v, ok := get(lookup, name)
	if !ok {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("%s%s: %w", envPrefix, name, err)
	}
	*dst = b
	return nil
}
