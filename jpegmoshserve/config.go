package main

import (
	"os"
	"strconv"

	"github.com/pkg/errors"
)

type config struct {
	Addr     string // listen address
	MaxBody  int    // largest accepted upload in bytes
	MaxTries int    // cap on the tries parameter of /mosh
}

var defaultConfig = config{
	Addr:     ":8080",
	MaxBody:  16 << 20,
	MaxTries: 50,
}

// getEnv returns the value of an environment variable, or defaultValue
// if it is unset or empty.
func getEnv(lookup func(string) (string, bool), key, defaultValue string) string {
	if value, ok := lookup(key); ok && value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(lookup func(string) (string, bool), key string, defaultValue int) (int, error) {
	s := getEnv(lookup, key, "")
	if s == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, errors.Errorf("%s=%q: want a positive number", key, s)
	}
	return n, nil
}

// loadConfig reads JPEGMOSH_ADDR, JPEGMOSH_MAX_BODY and JPEGMOSH_MAX_TRIES.
func loadConfig(lookup func(string) (string, bool)) (config, error) {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	c := defaultConfig
	c.Addr = getEnv(lookup, "JPEGMOSH_ADDR", c.Addr)
	var err error
	if c.MaxBody, err = getEnvInt(lookup, "JPEGMOSH_MAX_BODY", c.MaxBody); err != nil {
		return c, err
	}
	if c.MaxTries, err = getEnvInt(lookup, "JPEGMOSH_MAX_TRIES", c.MaxTries); err != nil {
		return c, err
	}
	return c, nil
}
