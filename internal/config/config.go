// Package config loads application settings from the environment, an
// optional .env file and an optional heuristics override file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/daybreak-kr/daybreak/internal/news"
)

// Config holds application configuration
type Config struct {
	// news collection
	NewsProvider    string // "dummy", "rss" or a comma chain
	NewsQueries     []string
	NewsMaxPerQuery int
	NewsWindowMode  string // "strict" or "now"
	NewsLookbackHrs int
	NewsDebugTags   bool
	HeuristicsPath  string // optional yaml override for scoring weights

	// market data
	MarketProvider   string // "dummy", "yahoo", or a comma-separated chain
	OvernightEnabled bool

	// stock picking
	Watchlist      []string
	MaxWatchStocks int

	// paper trading
	PaperTradeAmount int64

	// monthly scorecard
	MonthOverride       string // "YYYY-MM", empty for the current month
	MonthlyIncludeDummy bool

	// language model (optional)
	LLMEnabled        bool
	LLMAPIKey         string
	LLMModel          string
	LLMMaxTokens      int
	LLMTemperature    float64
	LLMDailyBudget    int64
	LLMRequestsPerMin int

	// telegram delivery (optional; empty means dry-run)
	TelegramBotToken string
	TelegramChatID   string
	TelegramRequired bool

	// runtime
	DatabasePath string
	LogLevel     string
	Port         int
	DevMode      bool
	MorningCron  string
	EveningCron  string
	MonthlyCron  string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		NewsProvider:    getEnv("NEWS_PROVIDER", "dummy"),
		NewsQueries:     getEnvAsList("GOOGLE_NEWS_QUERIES"),
		NewsMaxPerQuery: getEnvAsInt("GOOGLE_NEWS_MAX_PER_QUERY", 30),
		NewsWindowMode:  strings.ToLower(getEnv("NEWS_WINDOW_MODE", "strict")),
		NewsLookbackHrs: getEnvAsInt("NEWS_LOOKBACK_HOURS", 24),
		NewsDebugTags:   getEnvAsBool("NEWS_DEBUG_TAGS", false),
		HeuristicsPath:  getEnv("NEWS_HEURISTICS_PATH", ""),

		MarketProvider:   getEnv("MARKET_PROVIDER", "dummy"),
		OvernightEnabled: getEnvAsBool("OVERNIGHT_ENABLED", true),

		Watchlist:      getEnvAsList("WATCHLIST_KR"),
		MaxWatchStocks: getEnvAsInt("MAX_WATCH_STOCKS", 3),

		PaperTradeAmount: int64(getEnvAsInt("PAPER_TRADE_AMOUNT", 10_000_000)),

		MonthOverride:       getEnv("MONTH_OVERRIDE", ""),
		MonthlyIncludeDummy: getEnvAsBool("MONTHLY_INCLUDE_DUMMY", false),

		LLMEnabled:        getEnvAsBool("LLM_ENABLED", false),
		LLMAPIKey:         getEnv("ANTHROPIC_API_KEY", ""),
		LLMModel:          getEnv("LLM_MODEL", ""),
		LLMMaxTokens:      getEnvAsInt("LLM_MAX_TOKENS", 2048),
		LLMTemperature:    getEnvAsFloat("LLM_TEMPERATURE", 0.2),
		LLMDailyBudget:    int64(getEnvAsInt("LLM_DAILY_BUDGET_TOKENS", 100_000)),
		LLMRequestsPerMin: getEnvAsInt("LLM_RPM", 10),

		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramChatID:   getEnv("TELEGRAM_CHAT_ID", ""),
		TelegramRequired: getEnvAsBool("TELEGRAM_REQUIRED", false),

		DatabasePath: getEnv("DATABASE_PATH", "./data/daybreak.db"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		Port:         getEnvAsInt("PORT", 8001),
		DevMode:      getEnvAsBool("DEV_MODE", false),
		MorningCron:  getEnv("MORNING_CRON", "30 7 * * 1-5"),  // 07:30 KST weekdays
		EveningCron:  getEnv("EVENING_CRON", "10 16 * * 1-5"), // after the 15:30 close
		MonthlyCron:  getEnv("MONTHLY_CRON", "0 17 28 * *"),
	}

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.DatabasePath == "" {
		return fmt.Errorf("DATABASE_PATH is required")
	}
	if c.NewsWindowMode != "strict" && c.NewsWindowMode != "now" {
		return fmt.Errorf("NEWS_WINDOW_MODE must be \"strict\" or \"now\", got %q", c.NewsWindowMode)
	}
	if c.PaperTradeAmount <= 0 {
		return fmt.Errorf("PAPER_TRADE_AMOUNT must be positive")
	}
	if c.LLMEnabled && c.LLMAPIKey == "" {
		return fmt.Errorf("ANTHROPIC_API_KEY is required when LLM_ENABLED is set")
	}
	if c.TelegramRequired && c.DryRun() {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN and TELEGRAM_CHAT_ID are required when TELEGRAM_REQUIRED is set")
	}
	return nil
}

// DryRun reports whether Telegram delivery is unconfigured.
func (c *Config) DryRun() bool {
	return c.TelegramBotToken == "" || c.TelegramChatID == ""
}

// LoadHeuristics returns the headline scoring weights, applying the
// yaml override file when one is configured. A missing or malformed
// override is a configuration mistake and is reported.
func (c *Config) LoadHeuristics() (news.Heuristics, error) {
	h := news.DefaultHeuristics()
	if c.HeuristicsPath == "" {
		return h, nil
	}

	raw, err := os.ReadFile(c.HeuristicsPath)
	if err != nil {
		return h, fmt.Errorf("read heuristics override: %w", err)
	}
	if err := yaml.Unmarshal(raw, &h); err != nil {
		return h, fmt.Errorf("parse heuristics override: %w", err)
	}
	return h, nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsList(key string) []string {
	raw := os.Getenv(key)
	if strings.TrimSpace(raw) == "" {
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
