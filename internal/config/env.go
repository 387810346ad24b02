package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "COSIM_"

// LoadDotEnv loads a .env file from the working directory if present.
// Existing environment variables are not overwritten.
func LoadDotEnv(files ...string) {
	_ = godotenv.Load(files...)
}

// GetValue returns the environment variable envKey if set and non-empty,
// otherwise configValue.
func GetValue(envKey, configValue string) string {
	if v := os.Getenv(envKey); v != "" {
		return v
	}
	return configValue
}

func (c *Config) applyEnv() error {
	strs := map[string]*string{
		"SOURCE":           &c.Source,
		"ARTIFACTS_DIR":    &c.ArtifactsDir,
		"RAW_DATA":         &c.RawData,
		"LISTEN":           &c.Listen,
		"LOG_LEVEL":        &c.LogLevel,
		"LOG_FORMAT":       &c.LogFormat,
		"CACHE_DIR":        &c.CacheDir,
		"MINIO_ENDPOINT":   &c.Minio.Endpoint,
		"MINIO_BUCKET":     &c.Minio.Bucket,
		"MINIO_PREFIX":     &c.Minio.Prefix,
		"MINIO_ACCESS_KEY": &c.Minio.AccessKey,
		"MINIO_SECRET_KEY": &c.Minio.SecretKey,
	}
	for key, dst := range strs {
		*dst = GetValue(EnvPrefix+key, *dst)
	}

	ints := map[string]*int{
		"DEFAULT_TOP_N": &c.DefaultTopN,
		"MAX_TOP_N":     &c.MaxTopN,
		"RATE_BURST":    &c.RateBurst,
	}
	for key, dst := range ints {
		v := os.Getenv(EnvPrefix + key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s%s=%q is not an integer", ErrInvalid, EnvPrefix, key, v)
		}
		*dst = n
	}

	if v := os.Getenv(EnvPrefix + "RATE_LIMIT"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%w: %sRATE_LIMIT=%q is not a number", ErrInvalid, EnvPrefix, v)
		}
		c.RateLimit = f
	}

	if v := os.Getenv(EnvPrefix + "MINIO_USE_SSL"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: %sMINIO_USE_SSL=%q is not a boolean", ErrInvalid, EnvPrefix, v)
		}
		c.Minio.UseSSL = b
	}

	if v := os.Getenv(EnvPrefix + "NA_VALUES"); v != "" {
		var values []string
		for _, s := range strings.Split(v, ",") {
			if s = strings.TrimSpace(s); s != "" {
				values = append(values, s)
			}
		}
		c.NAValues = values
	}

	return nil
}
