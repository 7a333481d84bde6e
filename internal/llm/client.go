// Package llm wraps the Anthropic API for structured JSON generation,
// with a daily token budget and request rate limiting.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// ErrBudgetExceeded is returned when the day's token budget is spent.
// Callers fall back to their deterministic path.
var ErrBudgetExceeded = fmt.Errorf("daily token budget exceeded")

// Generator produces a JSON document from a prompt pair and decodes it
// into out.
type Generator interface {
	GenerateJSON(ctx context.Context, systemPrompt, userPrompt string, out interface{}) error
}

// Config holds the client knobs.
type Config struct {
	APIKey            string
	Model             string
	MaxTokens         int64
	Temperature       float64
	DailyBudgetTokens int64
	RequestsPerMinute int
}

// Client is the production Generator backed by the Anthropic API.
type Client struct {
	client    anthropic.Client
	model     anthropic.Model
	maxTokens int64
	temp      float64
	limiter   *rate.Limiter
	log       zerolog.Logger

	mu         sync.Mutex
	budget     int64
	usedTokens int64
	usageDay   string // UTC date of the running counter
	nowFn      func() time.Time
}

// NewClient builds a client. An empty API key is a configuration error
// surfaced at startup, not at report time.
func NewClient(cfg Config, log zerolog.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("LLM API key not configured")
	}
	if cfg.Model == "" {
		cfg.Model = string(anthropic.ModelClaudeHaiku4_5)
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 2048
	}
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = 10
	}

	return &Client{
		client:    anthropic.NewClient(option.WithAPIKey(cfg.APIKey)),
		model:     anthropic.Model(cfg.Model),
		maxTokens: cfg.MaxTokens,
		temp:      cfg.Temperature,
		limiter:   rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), 1),
		log:       log.With().Str("component", "llm").Logger(),
		budget:    cfg.DailyBudgetTokens,
		nowFn:     func() time.Time { return time.Now().UTC() },
	}, nil
}

// GenerateJSON sends the prompt pair and decodes the model's JSON reply
// into out. Code fences and surrounding prose are stripped before
// decoding. Returns ErrBudgetExceeded without calling the API once the
// daily budget is spent.
func (c *Client) GenerateJSON(ctx context.Context, systemPrompt, userPrompt string, out interface{}) error {
	if !c.withinBudget() {
		used, limit := c.DailyUsage()
		c.log.Warn().
			Int64("used", used).
			Int64("limit", limit).
			Msg("token budget exhausted, skipping call")
		return ErrBudgetExceeded
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	resp, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       c.model,
		MaxTokens:   c.maxTokens,
		Temperature: anthropic.Float(c.temp),
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
		},
	})
	if err != nil {
		return fmt.Errorf("anthropic API error: %w", err)
	}
	if len(resp.Content) == 0 {
		return fmt.Errorf("empty response from model")
	}

	tokens := resp.Usage.InputTokens + resp.Usage.OutputTokens
	used, limit := c.addUsage(tokens)
	c.log.Info().
		Str("model", string(c.model)).
		Int64("tokens", tokens).
		Int64("daily_used", used).
		Int64("daily_limit", limit).
		Msg("LLM call completed")

	content := cleanJSONResponse(resp.Content[0].Text)
	if err := json.Unmarshal([]byte(content), out); err != nil {
		return fmt.Errorf("failed to parse model response: %w, content: %s", err, content)
	}
	return nil
}

// DailyUsage reports the running token counter and its limit.
func (c *Client) DailyUsage() (used, limit int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rollDayLocked()
	return c.usedTokens, c.budget
}

func (c *Client) withinBudget() bool {
	if c.budget <= 0 {
		return true // no budget configured
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rollDayLocked()
	return c.usedTokens < c.budget
}

func (c *Client) addUsage(tokens int64) (used, limit int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rollDayLocked()
	c.usedTokens += tokens
	return c.usedTokens, c.budget
}

// rollDayLocked resets the counter when the UTC date changes.
func (c *Client) rollDayLocked() {
	today := c.nowFn().Format("2006-01-02")
	if c.usageDay != today {
		c.usageDay = today
		c.usedTokens = 0
	}
}

// cleanJSONResponse strips markdown fences and any prose around the
// outermost JSON object.
func cleanJSONResponse(content string) string {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start >= 0 && end > start {
		content = content[start : end+1]
	}
	return content
}
