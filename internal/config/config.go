package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all runtime configuration, loaded from environment variables.
// CLI flags may override individual fields after Load.
type Config struct {
	// Recognition service
	APIURL        string        // lookup endpoint base URL
	APIKey        string        // service credential; empty disables the fingerprint tier
	CacheDir      string        // lookup cache directory; empty disables the cache
	LookupTimeout time.Duration // per-segment recognition call bound

	// Analysis
	SampleRate int // mono analysis rate for decode + fingerprinting

	// Silence segmentation
	MinSilenceMS    int64   // minimum gap that splits two tracks
	SilenceThreshDB float64 // dBFS below which a window counts as silent
	KeepSilenceMS   int64   // padding kept on both ends of each segment

	// Resolution
	Workers         int  // concurrent segment resolutions (1 = sequential)
	TagsAllSegments bool // attempt the tag tier for every segment, not just the first
}

// Load reads configuration from environment variables with sane defaults.
func Load() Config {
	return Config{
		APIURL:        envStr("AIRCHECK_API_URL", "https://api.acoustid.org"),
		APIKey:        envStr("ACOUSTID_API_KEY", ""),
		CacheDir:      envStr("AIRCHECK_CACHE_DIR", ""),
		LookupTimeout: time.Duration(envInt("AIRCHECK_LOOKUP_TIMEOUT", 15)) * time.Second,

		SampleRate: envInt("AIRCHECK_SAMPLE_RATE", 11025),

		MinSilenceMS:    int64(envInt("AIRCHECK_MIN_SILENCE_MS", 1200)),
		SilenceThreshDB: envFloat("AIRCHECK_SILENCE_THRESH_DB", -40),
		KeepSilenceMS:   int64(envInt("AIRCHECK_KEEP_SILENCE_MS", 300)),

		Workers:         envInt("AIRCHECK_WORKERS", 2),
		TagsAllSegments: envBool("AIRCHECK_TAGS_ALL_SEGMENTS", false),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
