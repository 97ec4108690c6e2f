package config

import (
	"os"
	"strings"
	"time"
)

type Config struct {
	Port            string
	PlatformURL     string
	UpstreamTimeout time.Duration

	// Poll cadence for the driver dashboard. Order lists refresh faster than
	// the aggregate stats, matching the UI the console replaces.
	DashboardPollInterval time.Duration
	OrdersPollInterval    time.Duration

	// CORS
	CORSAllowOrigins []string
}

func Load() Config {
	return Config{
		Port:            getenv("PORT", "8090"),
		PlatformURL:     getenv("PLATFORM_URL", "http://localhost:5000"),
		UpstreamTimeout: parseDuration(getenv("UPSTREAM_TIMEOUT", "10s"), 10*time.Second),

		DashboardPollInterval: parseDuration(getenv("DASHBOARD_POLL_INTERVAL", "15s"), 15*time.Second),
		OrdersPollInterval:    parseDuration(getenv("ORDERS_POLL_INTERVAL", "10s"), 10*time.Second),

		CORSAllowOrigins: splitCSV(getenv("CORS_ALLOW_ORIGINS", "*")),
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); strings.TrimSpace(v) != "" {
		return v
	}
	return def
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

func parseDuration(v string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
