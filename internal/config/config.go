// Package config loads application settings from the environment and the
// user's config.env file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	AppName     = "listing-generator"
	EnvFileName = "config.env"
)

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Config holds every recognized option. Components receive it (or the parts
// they need) at construction time and never read the environment themselves.
type Config struct {
	VisionProvider  string
	OpenAIAPIKey    string
	OpenAIModel     string
	GeminiAPIKey    string
	GeminiModel     string
	VisionMock      bool
	VisionTimeout   time.Duration
	VisionMaxTokens int
	VisionCache     bool

	EbayClientID     string
	EbayClientSecret string
	EbaySandbox      bool
	EbayMock         bool
	SearchTimeout    time.Duration
	SearchLimit      int
	RedisURL         string
	SearchCacheTTL   time.Duration

	DBPath      string
	UploadDir   string
	HTTPAddr    string
	FrontendURL string
	BotToken    string

	LogLevel string
	Debug    bool
}

// LoadEnvFile loads environment variables from config.env in the user's config
// directory and from .env in the working directory. Variables already set in
// the environment win. Errors are ignored since the files may not exist.
func LoadEnvFile() {
	if path, err := EnvFilePath(); err == nil {
		_ = godotenv.Load(path)
	}
	_ = godotenv.Load()
}

// EnvFilePath returns the path of the user's config.env.
func EnvFilePath() (string, error) {
	configBase, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user config directory: %w", err)
	}
	return filepath.Join(configBase, AppName, EnvFileName), nil
}

// Load reads the configuration from the process environment.
func Load() (*Config, error) {
	var errs []string
	env := envReader{errs: &errs}

	c := &Config{
		VisionProvider:  strings.ToLower(env.str("VISION_PROVIDER", ProviderOpenAI)),
		OpenAIAPIKey:    env.str("OPENAI_API_KEY", ""),
		OpenAIModel:     env.str("OPENAI_MODEL", "gpt-4o-mini"),
		GeminiAPIKey:    env.str("GEMINI_API_KEY", ""),
		GeminiModel:     env.str("GEMINI_MODEL", "gemini-2.5-flash"),
		VisionMock:      env.boolean("USE_OPENAI_MOCK", false) || env.boolean("VISION_MOCK", false),
		VisionTimeout:   env.duration("VISION_TIMEOUT", 30*time.Second),
		VisionMaxTokens: env.integer("VISION_MAX_TOKENS", 300),
		VisionCache:     env.boolean("VISION_CACHE", true),

		EbayClientID:     env.str("EBAY_CLIENT_ID", ""),
		EbayClientSecret: env.str("EBAY_CLIENT_SECRET", ""),
		EbaySandbox:      env.boolean("EBAY_SANDBOX", true),
		EbayMock:         env.boolean("USE_EBAY_MOCK", true),
		SearchTimeout:    env.duration("SEARCH_TIMEOUT", 10*time.Second),
		SearchLimit:      env.integer("SEARCH_LIMIT", 5),
		RedisURL:         env.str("REDIS_URL", ""),
		SearchCacheTTL:   env.duration("SEARCH_CACHE_TTL", time.Hour),

		DBPath:      env.str("LISTINGS_DB_PATH", "listings.db"),
		UploadDir:   env.str("UPLOAD_DIR", "uploads"),
		HTTPAddr:    env.str("HTTP_ADDR", ":5000"),
		FrontendURL: env.str("FRONTEND_URL", ""),
		BotToken:    env.str("BOT_TOKEN", ""),

		LogLevel: strings.ToLower(env.str("LOG_LEVEL", "info")),
		Debug:    env.boolean("DEBUG", false),
	}

	if c.VisionProvider != ProviderOpenAI && c.VisionProvider != ProviderGemini {
		errs = append(errs, fmt.Sprintf("VISION_PROVIDER must be %q or %q, got %q", ProviderOpenAI, ProviderGemini, c.VisionProvider))
	}
	if c.SearchLimit <= 0 {
		errs = append(errs, "SEARCH_LIMIT must be positive")
	}
	for _, d := range []struct {
		key string
		val time.Duration
	}{
		{"VISION_TIMEOUT", c.VisionTimeout},
		{"SEARCH_TIMEOUT", c.SearchTimeout},
		{"SEARCH_CACHE_TTL", c.SearchCacheTTL},
	} {
		if d.val <= 0 {
			errs = append(errs, fmt.Sprintf("%s must be positive, got %s", d.key, d.val))
		}
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}
	return c, nil
}

// VisionAPIKey returns the credential of the selected vision provider.
func (c *Config) VisionAPIKey() string {
	if c.VisionProvider == ProviderGemini {
		return c.GeminiAPIKey
	}
	return c.OpenAIAPIKey
}

// VisionModel returns the model identifier of the selected vision provider.
func (c *Config) VisionModel() string {
	if c.VisionProvider == ProviderGemini {
		return c.GeminiModel
	}
	return c.OpenAIModel
}

// HasEbayCredentials reports whether both marketplace credentials are set.
func (c *Config) HasEbayCredentials() bool {
	return c.EbayClientID != "" && c.EbayClientSecret != ""
}

// EbayOAuthEndpoint returns the token endpoint for the selected environment.
func (c *Config) EbayOAuthEndpoint() string {
	if c.EbaySandbox {
		return "https://api.sandbox.ebay.com/identity/v1/oauth2/token"
	}
	return "https://api.ebay.com/identity/v1/oauth2/token"
}

// EbayAPIEndpoint returns the REST API base URL for the selected environment.
func (c *Config) EbayAPIEndpoint() string {
	if c.EbaySandbox {
		return "https://api.sandbox.ebay.com"
	}
	return "https://api.ebay.com"
}

type envReader struct {
	errs *[]string
}

func (r envReader) str(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func (r envReader) boolean(key string, def bool) bool {
	v := r.str(key, "")
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		*r.errs = append(*r.errs, fmt.Sprintf("%s must be a boolean, got %q", key, v))
		return def
	}
	return b
}

func (r envReader) integer(key string, def int) int {
	v := r.str(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*r.errs = append(*r.errs, fmt.Sprintf("%s must be an integer, got %q", key, v))
		return def
	}
	return n
}

// duration accepts Go duration strings ("10s") or a bare number of seconds.
func (r envReader) duration(key string, def time.Duration) time.Duration {
	v := r.str(key, "")
	if v == "" {
		return def
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		*r.errs = append(*r.errs, fmt.Sprintf("%s must be a duration, got %q", key, v))
		return def
	}
	return d
}
