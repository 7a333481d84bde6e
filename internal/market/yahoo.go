package market

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/daybreak-kr/daybreak/internal/domain"
	"github.com/daybreak-kr/daybreak/pkg/retry"
)

const yahooChartBaseURL = "https://query1.finance.yahoo.com/v8/finance/chart/"

// lookupWindowDays is how far before the target day the chart request
// starts, so weekends and holidays still resolve to a bar.
const lookupWindowDays = 3

// YahooProvider fetches daily bars from the Yahoo Finance chart API.
type YahooProvider struct {
	client  *http.Client
	baseURL string
	retry   retry.Config
	log     zerolog.Logger
}

func NewYahooProvider(log zerolog.Logger) *YahooProvider {
	return &YahooProvider{
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL: yahooChartBaseURL,
		retry:   retry.DefaultConfig(),
		log:     log.With().Str("client", "yahoo").Logger(),
	}
}

// WithBaseURL points the provider at a different endpoint. Tests use
// this with httptest servers.
func (p *YahooProvider) WithBaseURL(u string) *YahooProvider {
	p.baseURL = u
	return p
}

func (p *YahooProvider) Price(ctx context.Context, symbol string, day time.Time) (float64, error) {
	ohlc, err := p.OHLC(ctx, symbol, day)
	if err != nil {
		return 0, err
	}
	return ohlc.Close, nil
}

// OHLC resolves the daily bar for the given day, trying the KOSPI
// listing before KOSDAQ for Korean codes. Bars failing the sanity check
// are treated as a miss for that listing.
func (p *YahooProvider) OHLC(ctx context.Context, symbol string, day time.Time) (domain.OHLC, error) {
	candidates := candidateSymbols(symbol)

	var lastErr error
	for _, candidate := range candidates {
		ohlc, err := p.fetchOHLC(ctx, candidate, day)
		if err != nil {
			p.log.Debug().Err(err).Str("symbol", candidate).Msg("chart lookup failed, trying next listing")
			lastErr = err
			continue
		}

		if err := ValidateOHLC(ohlc); err != nil {
			p.log.Warn().Err(err).Str("symbol", candidate).Msg("OHLC failed sanity check")
			lastErr = fmt.Errorf("%s: %w", candidate, err)
			continue
		}

		p.log.Info().
			Str("symbol", symbol).
			Str("listing", candidate).
			Float64("close", ohlc.Close).
			Msg("price lookup succeeded")
		return ohlc, nil
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("no data")
	}
	return domain.OHLC{}, fmt.Errorf("price lookup failed for %s: %w", symbol, lastErr)
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []float64 `json:"open"`
					High   []float64 `json:"high"`
					Low    []float64 `json:"low"`
					Close  []float64 `json:"close"`
					Volume []int64   `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error interface{} `json:"error"`
	} `json:"chart"`
}

func (p *YahooProvider) fetchOHLC(ctx context.Context, yahooSymbol string, day time.Time) (domain.OHLC, error) {
	day = day.UTC().Truncate(24 * time.Hour)
	start := day.AddDate(0, 0, -lookupWindowDays)
	end := day.AddDate(0, 0, 1)

	params := url.Values{}
	params.Add("interval", "1d")
	params.Add("period1", fmt.Sprintf("%d", start.Unix()))
	params.Add("period2", fmt.Sprintf("%d", end.Unix()))

	reqURL := p.baseURL + url.PathEscape(yahooSymbol) + "?" + params.Encode()

	var body []byte
	err := retry.Do(ctx, p.retry, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36")
		req.Header.Set("Accept", "application/json")

		resp, err := p.client.Do(req)
		if err != nil {
			return fmt.Errorf("failed to fetch chart: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			b, _ := io.ReadAll(resp.Body)
			return fmt.Errorf("chart API returned status %d: %s", resp.StatusCode, string(b))
		}

		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("failed to read response body: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.OHLC{}, err
	}

	var result chartResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return domain.OHLC{}, fmt.Errorf("failed to parse response: %w", err)
	}
	if result.Chart.Error != nil {
		return domain.OHLC{}, fmt.Errorf("chart API error: %v", result.Chart.Error)
	}
	if len(result.Chart.Result) == 0 || len(result.Chart.Result[0].Indicators.Quote) == 0 {
		return domain.OHLC{}, fmt.Errorf("no chart data for %s", yahooSymbol)
	}

	chartData := result.Chart.Result[0]
	quote := chartData.Indicators.Quote[0]

	// Pick the latest bar at or before the target day.
	targetIdx := -1
	for i, ts := range chartData.Timestamp {
		if i >= len(quote.Open) || i >= len(quote.High) || i >= len(quote.Low) || i >= len(quote.Close) {
			break
		}
		barDay := time.Unix(ts, 0).UTC().Truncate(24 * time.Hour)
		if barDay.After(day) {
			break
		}
		if quote.Open[i] == 0 && quote.High[i] == 0 && quote.Low[i] == 0 && quote.Close[i] == 0 {
			continue
		}
		targetIdx = i
	}
	if targetIdx < 0 {
		return domain.OHLC{}, fmt.Errorf("no bar at or before %s for %s", day.Format("2006-01-02"), yahooSymbol)
	}

	ohlc := domain.OHLC{
		Open:  quote.Open[targetIdx],
		High:  quote.High[targetIdx],
		Low:   quote.Low[targetIdx],
		Close: quote.Close[targetIdx],
	}
	if targetIdx < len(quote.Volume) {
		ohlc.Volume = quote.Volume[targetIdx]
	}

	if targetIdx > 0 && quote.Close[targetIdx-1] > 0 {
		rate := (ohlc.Close - quote.Close[targetIdx-1]) / quote.Close[targetIdx-1] * 100
		rate = math.Round(rate*100) / 100
		ohlc.ChangePct = &rate
	}

	return ohlc, nil
}
