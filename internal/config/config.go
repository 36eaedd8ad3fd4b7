// Package config provides configuration loading and validation for the sniper CLI.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Production feed endpoints.
const (
	DefaultRegularAPIURL = "https://bam-els-sync-api-prd.bam.co.th/api/asset-detail/search"
	DefaultAuctionAPIURL = "https://bam-els-sync-api-prd.bam.co.th/api/asset-detail-auction/search"
)

// Config holds every recognized knob. Values come from defaults, an optional
// config file, and environment variables, in increasing priority.
type Config struct {
	// Feed endpoints
	RegularAPIURL  string        `validate:"required,url"`
	AuctionAPIURL  string        `validate:"required,url"`
	RequestTimeout time.Duration `validate:"gt=0"`
	PageSize       int           `validate:"min=1"`
	OnePageOnly    bool

	// Retry policy
	MaxRetries        int     `validate:"min=1"`
	RetryBackoff      float64 `validate:"gt=0"`
	RetryableStatuses []int   `validate:"dive,min=100,max=599"`

	// Cursor mode failure handling
	SkipFailedPages bool
	MaxSkipChain    int  `validate:"min=1"`

	// Window and delta planning
	PagesPerRun      int `validate:"min=0"`
	HeadRefreshPages int `validate:"min=0"`
	TailRecheckPages int `validate:"min=0"`

	// Durable state
	ProgressFile string
	PlanFile     string
	DatabaseURL  string

	// Storage batching
	BatchSize     int  `validate:"min=0"`
	BatchPause    bool
	AutoContinue  bool
	SkipTranslate bool

	// Collaborators
	GoogleCloudProject  string
	GeminiAPIKey        string
	RedisAddress        string
	TranslationCacheTTL time.Duration `validate:"min=0"`
	AmenityLookupURL    string        `validate:"omitempty,url"`
	AmenitySeed         int64
	PushgatewayURL      string        `validate:"omitempty,url"`
	Schedule            string
	LogLevel            string        `validate:"omitempty,oneof=debug info warn warning error"`
}

// envBindings maps config keys to the environment variables operators already use.
var envBindings = map[string]string{
	"regular_api_url":       "BAM_REGULAR_API_URL",
	"auction_api_url":       "BAM_AUCTION_API_URL",
	"request_timeout":       "BAM_REQUEST_TIMEOUT",
	"page_size":             "BAM_PAGE_SIZE",
	"one_page_only":         "ONE_PAGE_ONLY",
	"max_retries":           "BAM_MAX_RETRIES",
	"retry_backoff":         "BAM_RETRY_BACKOFF",
	"retry_statuses":        "BAM_RETRY_STATUSES",
	"skip_failed_pages":     "BAM_SKIP_FAILED_PAGES",
	"max_skip_chain":        "BAM_MAX_SKIP_CHAIN",
	"pages_per_run":         "BAM_PAGES_PER_RUN",
	"head_refresh_pages":    "BAM_HEAD_REFRESH_PAGES",
	"tail_recheck_pages":    "BAM_TAIL_RECHECK_PAGES",
	"progress_file":         "BAM_PROGRESS_FILE",
	"plan_file":             "BAM_PAGE_PLAN_FILE",
	"database_url":          "DATABASE_URL",
	"batch_size":            "BAM_BATCH_SIZE",
	"batch_pause":           "BAM_BATCH_PAUSE",
	"auto_continue":         "BAM_AUTO_CONTINUE",
	"skip_translation":      "SKIP_TRANSLATION",
	"google_cloud_project":  "GOOGLE_CLOUD_PROJECT",
	"gemini_api_key":        "GEMINI_API_KEY",
	"redis_address":         "REDIS_ADDRESS",
	"translation_cache_ttl": "TRANSLATION_CACHE_TTL",
	"amenity_lookup_url":    "AMENITY_LOOKUP_URL",
	"amenity_seed":          "AMENITY_SEED",
	"pushgateway_url":       "METRICS_PUSHGATEWAY_URL",
	"schedule":              "SNIPER_SCHEDULE",
	"log_level":             "LOG_LEVEL",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("regular_api_url", DefaultRegularAPIURL)
	v.SetDefault("auction_api_url", DefaultAuctionAPIURL)
	v.SetDefault("request_timeout", 15)
	v.SetDefault("page_size", 12)
	v.SetDefault("one_page_only", false)
	v.SetDefault("max_retries", 5)
	v.SetDefault("retry_backoff", 2.0)
	v.SetDefault("retry_statuses", "500,502,503,504")
	v.SetDefault("skip_failed_pages", true)
	v.SetDefault("max_skip_chain", 3)
	v.SetDefault("pages_per_run", 0)
	v.SetDefault("head_refresh_pages", 2)
	v.SetDefault("tail_recheck_pages", 3)
	v.SetDefault("progress_file", "bam_progress.json")
	v.SetDefault("plan_file", "bam_delta_plan.json")
	v.SetDefault("batch_size", 1000)
	v.SetDefault("batch_pause", true)
	v.SetDefault("auto_continue", false)
	v.SetDefault("skip_translation", false)
	v.SetDefault("translation_cache_ttl", "720h")
	v.SetDefault("amenity_seed", 0)
	v.SetDefault("log_level", "info")
}

// Load builds a Config from defaults, the optional file at path, and the environment.
// An empty path skips the file.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	if path != "" {
		if !filepath.IsAbs(path) {
			cwd, err := os.Getwd()
			if err != nil {
				return nil, fmt.Errorf("failed to get current directory: %w", err)
			}
			path = filepath.Join(cwd, path)
		}
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	statuses, err := ParseStatusCodes(v.GetString("retry_statuses"))
	if err != nil {
		return nil, err
	}

	cacheTTL, err := parseDuration(v.GetString("translation_cache_ttl"))
	if err != nil {
		return nil, fmt.Errorf("invalid translation_cache_ttl: %w", err)
	}

	cfg := &Config{
		RegularAPIURL:       v.GetString("regular_api_url"),
		AuctionAPIURL:       v.GetString("auction_api_url"),
		RequestTimeout:      time.Duration(v.GetFloat64("request_timeout") * float64(time.Second)),
		PageSize:            v.GetInt("page_size"),
		OnePageOnly:         switchOn(v, "one_page_only"),
		MaxRetries:          max(1, v.GetInt("max_retries")),
		RetryBackoff:        v.GetFloat64("retry_backoff"),
		RetryableStatuses:   statuses,
		SkipFailedPages:     switchOn(v, "skip_failed_pages"),
		MaxSkipChain:        max(1, v.GetInt("max_skip_chain")),
		PagesPerRun:         max(0, v.GetInt("pages_per_run")),
		HeadRefreshPages:    max(0, v.GetInt("head_refresh_pages")),
		TailRecheckPages:    max(0, v.GetInt("tail_recheck_pages")),
		ProgressFile:        expandHome(v.GetString("progress_file")),
		PlanFile:            expandHome(v.GetString("plan_file")),
		DatabaseURL:         v.GetString("database_url"),
		BatchSize:           v.GetInt("batch_size"),
		BatchPause:          !switchOff(v, "batch_pause"),
		AutoContinue:        switchOn(v, "auto_continue"),
		SkipTranslate:       switchOn(v, "skip_translation"),
		GoogleCloudProject:  v.GetString("google_cloud_project"),
		GeminiAPIKey:        v.GetString("gemini_api_key"),
		RedisAddress:        v.GetString("redis_address"),
		TranslationCacheTTL: cacheTTL,
		AmenityLookupURL:    v.GetString("amenity_lookup_url"),
		AmenitySeed:         v.GetInt64("amenity_seed"),
		PushgatewayURL:      v.GetString("pushgateway_url"),
		Schedule:            v.GetString("schedule"),
		LogLevel:            v.GetString("log_level"),
	}
	return cfg, nil
}

// Validate checks that the configuration has usable values.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if c.ProgressFile == "" {
		return fmt.Errorf("config error: 'progress_file' must not be empty")
	}
	return nil
}

// ParseStatusCodes parses a comma separated list of HTTP status codes.
// Non-numeric entries are ignored, matching how operators have always written the list.
func ParseStatusCodes(raw string) ([]int, error) {
	seen := make(map[int]bool)
	var codes []int
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		code, err := strconv.Atoi(part)
		if err != nil {
			continue
		}
		if code < 100 || code > 599 {
			return nil, fmt.Errorf("config error: status code %d out of range", code)
		}
		if !seen[code] {
			seen[code] = true
			codes = append(codes, code)
		}
	}
	sort.Ints(codes)
	return codes, nil
}

// switchOn reports whether an opt-in knob is set. Operators write "1"; config files may use true.
func switchOn(v *viper.Viper, key string) bool {
	raw := strings.TrimSpace(v.GetString(key))
	return raw == "1" || strings.EqualFold(raw, "true")
}

// switchOff reports whether an opt-out knob is cleared. Anything but "0" or false leaves it on.
func switchOff(v *viper.Viper, key string) bool {
	raw := strings.TrimSpace(v.GetString(key))
	return raw == "0" || strings.EqualFold(raw, "false")
}

// parseDuration accepts Go duration strings or a bare number of seconds.
func parseDuration(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	if secs, err := strconv.ParseFloat(raw, 64); err == nil {
		return time.Duration(secs * float64(time.Second)), nil
	}
	return time.ParseDuration(raw)
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
