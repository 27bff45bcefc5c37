// Package config loads the process-wide, immutable configuration
// described in spec.md §4.1. It is populated once at startup and
// passed explicitly to every component that needs it — there is no
// ambient global (spec.md §9).
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the fully-resolved, read-only process configuration.
type Config struct {
	QueryTimeoutSeconds    int
	MaxResultRows          int
	RunRateLimit           int
	MaxConcurrentQueryRuns int
	DecimalPrecision       int
	CaseInsensitiveColumns bool
	StripStrings           bool
	PrimaryConn            string
	ReplicaConns           []string

	HealthCooldown  time.Duration
	ConnectTimeout  time.Duration
	HTTPAddr        string
	CatalogDSN      string
	MetricsEnabled  bool
	IntrospectTTL   time.Duration
}

// Load reads the recognized environment variables (spec.md §4.1, plus
// the ambient additions in SPEC_FULL.md §4.1) via viper's automatic-env
// binding, applies defaults, and validates that PRIMARY_CONN — the one
// required option — is set.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("query_timeout_seconds", 5)
	v.SetDefault("max_result_rows", 100)
	v.SetDefault("run_rate_limit", 10)
	v.SetDefault("max_concurrent_query_runs", 20)
	v.SetDefault("decimal_precision", 4)
	v.SetDefault("case_insensitive_columns", true)
	v.SetDefault("strip_strings", true)
	v.SetDefault("replica_conns", "")
	v.SetDefault("health_cooldown_seconds", 300)
	v.SetDefault("connect_timeout_seconds", 2)
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("catalog_dsn", "file:querybench.db?cache=shared&_pragma=busy_timeout(5000)")
	v.SetDefault("metrics_enabled", true)
	v.SetDefault("introspect_cache_ttl_seconds", 300)

	primary := v.GetString("primary_conn")
	if primary == "" {
		return nil, fmt.Errorf("config: PRIMARY_CONN is required")
	}

	var replicas []string
	if raw := v.GetString("replica_conns"); raw != "" {
		for _, r := range strings.Split(raw, ",") {
			r = strings.TrimSpace(r)
			if r != "" {
				replicas = append(replicas, r)
			}
		}
	}

	return &Config{
		QueryTimeoutSeconds:    v.GetInt("query_timeout_seconds"),
		MaxResultRows:          v.GetInt("max_result_rows"),
		RunRateLimit:           v.GetInt("run_rate_limit"),
		MaxConcurrentQueryRuns: v.GetInt("max_concurrent_query_runs"),
		DecimalPrecision:       v.GetInt("decimal_precision"),
		CaseInsensitiveColumns: v.GetBool("case_insensitive_columns"),
		StripStrings:           v.GetBool("strip_strings"),
		PrimaryConn:            primary,
		ReplicaConns:           replicas,
		HealthCooldown:         time.Duration(v.GetInt("health_cooldown_seconds")) * time.Second,
		ConnectTimeout:         time.Duration(v.GetInt("connect_timeout_seconds")) * time.Second,
		HTTPAddr:               v.GetString("http_addr"),
		CatalogDSN:             v.GetString("catalog_dsn"),
		MetricsEnabled:         v.GetBool("metrics_enabled"),
		IntrospectTTL:          time.Duration(v.GetInt("introspect_cache_ttl_seconds")) * time.Second,
	}, nil
}
