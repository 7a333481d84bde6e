package market

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/daybreak-kr/daybreak/internal/domain"
	"github.com/daybreak-kr/daybreak/pkg/retry"
)

const yahooQuoteBaseURL = "https://query1.finance.yahoo.com/v7/finance/quote"

// MetricsStore persists fetched metrics across runs. Keys are
// (security code, trading day).
type MetricsStore interface {
	GetMetrics(ctx context.Context, code string, day time.Time) (*domain.FinancialMetrics, error)
	PutMetrics(ctx context.Context, code string, day time.Time, metrics domain.FinancialMetrics) error
}

// FinancialFetcher retrieves fundamental metrics for Korean securities,
// caching per (code, day) in memory and optionally in a store.
type FinancialFetcher struct {
	client  *http.Client
	baseURL string
	store   MetricsStore // optional
	retry   retry.Config
	log     zerolog.Logger

	mu    sync.Mutex
	cache map[string]domain.FinancialMetrics
}

func NewFinancialFetcher(store MetricsStore, log zerolog.Logger) *FinancialFetcher {
	return &FinancialFetcher{
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL: yahooQuoteBaseURL,
		store:   store,
		retry:   retry.DefaultConfig(),
		log:     log.With().Str("component", "financial").Logger(),
		cache:   make(map[string]domain.FinancialMetrics),
	}
}

// WithBaseURL points the fetcher at a different endpoint, for tests.
func (f *FinancialFetcher) WithBaseURL(u string) *FinancialFetcher {
	f.baseURL = u
	return f
}

// Fetch returns fundamental metrics for a security. Failures come back
// as an unsuccessful FinancialMetrics, never an error: a missing PER
// must not abort the candidate pipeline.
func (f *FinancialFetcher) Fetch(ctx context.Context, code, name string, day time.Time) domain.FinancialMetrics {
	key := code + "@" + day.Format("2006-01-02")

	f.mu.Lock()
	if cached, ok := f.cache[key]; ok {
		f.mu.Unlock()
		return cached
	}
	f.mu.Unlock()

	if f.store != nil {
		if stored, err := f.store.GetMetrics(ctx, code, day); err == nil && stored != nil {
			f.remember(key, *stored)
			return *stored
		}
	}

	metrics := f.fetch(ctx, code, name)
	f.remember(key, metrics)

	if f.store != nil && metrics.Success {
		if err := f.store.PutMetrics(ctx, code, day, metrics); err != nil {
			f.log.Warn().Err(err).Str("code", code).Msg("failed to persist metrics")
		}
	}

	return metrics
}

func (f *FinancialFetcher) remember(key string, m domain.FinancialMetrics) {
	f.mu.Lock()
	f.cache[key] = m
	f.mu.Unlock()
}

func (f *FinancialFetcher) fetch(ctx context.Context, code, name string) domain.FinancialMetrics {
	metrics := domain.FinancialMetrics{Symbol: code, Name: name}

	for _, symbol := range candidateSymbols(code) {
		info, err := f.quoteInfo(ctx, symbol)
		if err != nil {
			f.log.Debug().Err(err).Str("symbol", symbol).Msg("quote lookup failed, trying next listing")
			metrics.Error = err.Error()
			continue
		}

		// trailingPE preferred, forwardPE as fallback.
		if per := getFloat(info, "trailingPE"); per != nil {
			metrics.PER = per
		} else if per := getFloat(info, "forwardPE"); per != nil {
			metrics.PER = per
		}

		// debtToEquity approximates the debt ratio in percent.
		if dte := getFloat(info, "debtToEquity"); dte != nil {
			metrics.DebtRatio = dte
		}

		// Annual growth stands in for the 3-year figure.
		if g := getFloat(info, "revenueGrowth"); g != nil {
			pct := *g * 100
			metrics.RevenueGrowth3Y = &pct
		}
		if g := getFloat(info, "earningsGrowth"); g != nil {
			pct := *g * 100
			metrics.EarningsGrowth3Y = &pct
		}

		if metrics.PER != nil || metrics.DebtRatio != nil || metrics.RevenueGrowth3Y != nil || metrics.EarningsGrowth3Y != nil {
			metrics.Success = true
			metrics.Error = ""
			f.log.Info().
				Str("code", code).
				Str("name", name).
				Str("listing", symbol).
				Msg("financial metrics fetched")
			return metrics
		}

		metrics.Error = "no financial data in quote"
	}

	f.log.Warn().
		Str("code", code).
		Str("name", name).
		Str("error", metrics.Error).
		Msg("financial metrics unavailable")
	return metrics
}

type quoteResponse struct {
	QuoteResponse struct {
		Result []map[string]interface{} `json:"result"`
		Error  interface{}              `json:"error"`
	} `json:"quoteResponse"`
}

func (f *FinancialFetcher) quoteInfo(ctx context.Context, symbol string) (map[string]interface{}, error) {
	params := url.Values{}
	params.Add("symbols", symbol)
	params.Add("fields", "symbol,trailingPE,forwardPE,debtToEquity,revenueGrowth,earningsGrowth,longName,shortName")

	reqURL := f.baseURL + "?" + params.Encode()

	var body []byte
	err := retry.Do(ctx, f.retry, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36")
		req.Header.Set("Accept", "application/json")

		resp, err := f.client.Do(req)
		if err != nil {
			return fmt.Errorf("failed to fetch quote: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			b, _ := io.ReadAll(resp.Body)
			return fmt.Errorf("quote API returned status %d: %s", resp.StatusCode, string(b))
		}

		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("failed to read response body: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var result quoteResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if result.QuoteResponse.Error != nil {
		return nil, fmt.Errorf("quote API error: %v", result.QuoteResponse.Error)
	}
	if len(result.QuoteResponse.Result) == 0 {
		return nil, fmt.Errorf("no quote data for %s", symbol)
	}

	return result.QuoteResponse.Result[0], nil
}

func getFloat(m map[string]interface{}, key string) *float64 {
	if val, ok := m[key]; ok && val != nil {
		switch v := val.(type) {
		case float64:
			if v != 0 {
				return &v
			}
		case int:
			f := float64(v)
			if f != 0 {
				return &f
			}
		}
	}
	return nil
}
