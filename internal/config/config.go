package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/MrSnakeDoc/sflens/internal/utils"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "SFLENS_"

type Config struct {
	ListenAddr      string        // ex: "127.0.0.1:7433"
	ShutdownTimeout time.Duration // ex: 5s

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	StorageDir string // persisted org snapshot lives here
	ExportDir  string // scratch-org exports are written here

	// Salesforce CLI
	SFBinary       string        // ex: "sf"
	CommandTimeout time.Duration // per invocation
	MaxOutput      int           // bytes of stdout accepted per invocation
	CommandRate    float64       // invocations per second, 0 = unlimited
	CommandBurst   int
	FanOutLimit    int // concurrent per-hub fetches while streaming

	// Cache TTLs
	OrgsTTL          time.Duration
	LimitsTTL        time.Duration
	SnapshotsInfoTTL time.Duration
	EditionTTL       time.Duration

	RefreshInterval time.Duration // periodic org list refresh, 0 = disabled
	JanitorInterval time.Duration // per-hub cache pruning
	AuthDir         string        // CLI auth directory to watch, empty = disabled
	AuthDebounce    time.Duration

	// Redis (optional snapshot mirror, empty address = disabled)
	RedisAddr             string        // ex: "localhost:6379"
	RedisUser             string        // optional
	RedisPassword         string        // optional
	RedisPasswordRequired bool          // true => require password, false => allow empty password
	RedisDB               int           // Redis DB number
	RedisNamespace        string        // key namespace, lets several users share one redis
	RedisSnapshotTTL      time.Duration // expiry of the mirrored snapshot
	RedisDT               time.Duration // Redis dial timeout (ex: 5s)
	RedisRT               time.Duration // Redis read timeout (ex: 3s)
	RedisWT               time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait          time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout      time.Duration // timeout for each ping attempt (ex: 5s)
	RedisPoolSize         int           // Redis connection pool size
	RedisConnectTimeout   time.Duration // Total time to retry connecting (ex: 30s)
	RedisRetryInterval    time.Duration // Initial wait between retries (ex: 2s, grows exponentially)
	RedisWarnThreshold    int           // warn after this many attempts

	AllowedHosts  []string // optional, restrict access to specific Host headers
	AllowedCIDRS  []string // optional, restrict access to specific IP (e.g. "127.0.0.1/32, ::1/128")
	TrustProxy    bool     // true => trust X-Forwarded-For headers
	MutationRate  float64  // per-IP requests per second on delete/export/reload routes
	MutationBurst int
}

// Load reads the configuration from SFLENS_* environment variables. When
// SFLENS_CONFIG_FILE names a YAML file its keys (lower-case setting names,
// e.g. listen_addr) provide values the environment does not set.
func Load() (*Config, error) {
	overlay, err := loadFile(os.Getenv(EnvPrefix + "CONFIG_FILE"))
	if err != nil {
		return nil, err
	}
	src := source{overlay: overlay}

	storageDir := src.getenv("STORAGE_DIR", defaultStorageDir())

	cfg := &Config{
		// Server settings
		ListenAddr:      src.getenv("LISTEN_ADDR", "127.0.0.1:7433"),
		ShutdownTimeout: src.mustDuration("SHUTDOWN_TIMEOUT", 5*time.Second),

		// Logging
		LogLevel:  src.getenv("LOG_LEVEL", "info"),
		PrettyLog: src.mustBool("PRETTY_LOG", true),

		StorageDir: storageDir,
		ExportDir:  src.getenv("EXPORT_DIR", filepath.Join(storageDir, "exports")),

		// CLI
		SFBinary:       src.getenv("SF_BINARY", "sf"),
		CommandTimeout: src.mustDuration("COMMAND_TIMEOUT", 60*time.Second),
		MaxOutput:      src.getenvInt("MAX_OUTPUT", 10<<20),
		CommandRate:    src.getenvFloat("COMMAND_RATE", 0),
		CommandBurst:   src.getenvInt("COMMAND_BURST", 4),
		FanOutLimit:    src.getenvInt("FANOUT_LIMIT", 8),

		// Caches
		OrgsTTL:          src.mustDuration("ORGS_TTL", 60*time.Second),
		LimitsTTL:        src.mustDuration("LIMITS_TTL", 30*time.Second),
		SnapshotsInfoTTL: src.mustDuration("SNAPSHOTS_INFO_TTL", 60*time.Second),
		EditionTTL:       src.mustDuration("EDITION_TTL", 300*time.Second),

		RefreshInterval: src.mustDuration("REFRESH_INTERVAL", 0),
		JanitorInterval: src.mustDuration("JANITOR_INTERVAL", 10*time.Minute),
		AuthDir:         src.getenv("AUTH_DIR", defaultAuthDir()),
		AuthDebounce:    src.mustDuration("AUTH_DEBOUNCE", 750*time.Millisecond),

		// Redis settings
		RedisAddr:             src.getenv("REDIS_ADDR", ""),
		RedisUser:             src.getenv("REDIS_USERNAME", ""),
		RedisPasswordRequired: src.mustBool("REDIS_PASSWORD_REQUIRED", false),
		RedisPassword:         src.getenv("REDIS_PASSWORD", ""),
		RedisDB:               src.getenvInt("REDIS_DB", 0),
		RedisNamespace:        src.getenv("REDIS_NAMESPACE", ""),
		RedisSnapshotTTL:      src.mustDuration("REDIS_SNAPSHOT_TTL", 48*time.Hour),
		RedisDT:               src.mustDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:               src.mustDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:               src.mustDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:          src.mustDuration("REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:      src.mustDuration("REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:         src.getenvInt("REDIS_POOL_SIZE", 10),
		RedisConnectTimeout:   src.mustDuration("REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:    src.mustDuration("REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisWarnThreshold:    src.getenvInt("REDIS_WARN_THRESHOLD", 3),

		// Access restrictions
		AllowedHosts:  splitAndTrim(src.getenv("ALLOWED_HOSTS", "localhost,127.0.0.1,[::1]")),
		AllowedCIDRS:  parseAllowedIPs(src.getenv("ALLOWED_CIDRS", utils.Loopback)),
		TrustProxy:    src.mustBool("TRUST_PROXY", false),
		MutationRate:  src.getenvFloat("MUTATION_RATE", 1),
		MutationBurst: src.getenvInt("MUTATION_BURST", 5),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	for name, ttl := range map[string]time.Duration{
		"ORGS_TTL":           c.OrgsTTL,
		"LIMITS_TTL":         c.LimitsTTL,
		"SNAPSHOTS_INFO_TTL": c.SnapshotsInfoTTL,
		"EDITION_TTL":        c.EditionTTL,
	} {
		if ttl <= 0 {
			errs = append(errs, fmt.Errorf("%s%s must be positive, got %s", EnvPrefix, name, ttl))
		}
	}
	if c.CommandTimeout <= 0 {
		errs = append(errs, fmt.Errorf("%sCOMMAND_TIMEOUT must be positive", EnvPrefix))
	}
	if c.MaxOutput <= 0 {
		errs = append(errs, fmt.Errorf("%sMAX_OUTPUT must be positive", EnvPrefix))
	}
	if c.RedisAddr != "" && c.RedisPasswordRequired && c.RedisPassword == "" {
		errs = append(errs, fmt.Errorf("%sREDIS_PASSWORD is required when %sREDIS_PASSWORD_REQUIRED=true", EnvPrefix, EnvPrefix))
	}
	return errors.Join(errs...)
}

// RedisEnabled reports whether a redis mirror is configured.
func (c *Config) RedisEnabled() bool { return c.RedisAddr != "" }

// Redacted returns a copy safe to log.
func (c *Config) Redacted() Config {
	cp := *c
	if cp.RedisPassword != "" {
		cp.RedisPassword = "***REDACTED***"
	}
	if cp.RedisUser != "" {
		cp.RedisUser = "***REDACTED***"
	}
	return cp
}

func defaultStorageDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "sflens")
	}
	return filepath.Join(os.TempDir(), "sflens")
}

func defaultAuthDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".sfdx")
	}
	return ""
}

// loadFile reads the optional YAML overlay into upper-case setting names.
// Sequences are joined with commas, like the list env vars.
func loadFile(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var doc map[string]any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}

	out := make(map[string]string, len(doc))
	for key, val := range doc {
		name := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(key), "-", "_"))
		switch v := val.(type) {
		case nil:
			continue
		case []any:
			parts := make([]string, 0, len(v))
			for _, item := range v {
				parts = append(parts, fmt.Sprint(item))
			}
			out[name] = strings.Join(parts, ",")
		case map[string]any:
			return nil, fmt.Errorf("config file %s: %q must be a scalar or a list", path, key)
		default:
			out[name] = fmt.Sprint(v)
		}
	}
	return out, nil
}

// source resolves a setting: environment first, then the file overlay.
type source struct {
	overlay map[string]string
}

func (s source) lookup(name string) string {
	if v := os.Getenv(EnvPrefix + name); v != "" {
		return v
	}
	return s.overlay[name]
}

// helpers
func (s source) getenv(name, def string) string {
	if v := s.lookup(name); v != "" {
		return v
	}
	return def
}

func (s source) getenvInt(name string, def int) int {
	if v := s.lookup(name); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func (s source) getenvFloat(name string, def float64) float64 {
	if v := s.lookup(name); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func (s source) mustBool(name string, def bool) bool {
	if v := s.lookup(name); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func (s source) mustDuration(name string, def time.Duration) time.Duration {
	if v := s.lookup(name); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func parseAllowedIPs(allowed string) []string {
	if allowed == "" {
		return nil
	}
	ips := make([]string, 0, 4)
	for _, ip := range splitAndTrim(allowed) {
		if ip != "" {
			ips = append(ips, ip)
		}
	}
	return ips
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
