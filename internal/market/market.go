// Package market provides daily price data for Korean securities and
// global overnight indicators, with a dummy provider for offline runs.
package market

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/daybreak-kr/daybreak/internal/domain"
)

// Provider serves end-of-day prices. Implementations resolve Korean
// security codes themselves (KOSPI first, then KOSDAQ).
type Provider interface {
	// Price returns the closing price for the given day.
	Price(ctx context.Context, symbol string, day time.Time) (float64, error)

	// OHLC returns the daily bar for the given day, falling back to the
	// nearest earlier trading day within the provider's lookup window.
	OHLC(ctx context.Context, symbol string, day time.Time) (domain.OHLC, error)
}

// New builds a provider by name: "dummy", "yahoo", or a comma-separated
// chain tried in order ("yahoo,dummy").
func New(name string, log zerolog.Logger) (Provider, error) {
	if strings.Contains(name, ",") {
		var chain []Provider
		for _, part := range strings.Split(name, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			p, err := New(part, log)
			if err != nil {
				return nil, err
			}
			chain = append(chain, p)
		}
		return NewHybridProvider(log, chain...), nil
	}

	switch name {
	case "dummy":
		return NewDummyProvider(), nil
	case "yahoo":
		return NewYahooProvider(log), nil
	default:
		return nil, fmt.Errorf("unsupported market provider: %q", name)
	}
}

// ErrNoProviders is returned by a hybrid chain with no working members.
var ErrNoProviders = errors.New("no market providers configured")

// HybridProvider tries each provider in order and returns the first
// success. The last error propagates only when every provider failed.
type HybridProvider struct {
	providers []Provider
	log       zerolog.Logger
}

func NewHybridProvider(log zerolog.Logger, providers ...Provider) *HybridProvider {
	return &HybridProvider{
		providers: providers,
		log:       log.With().Str("component", "market-hybrid").Logger(),
	}
}

func (p *HybridProvider) Price(ctx context.Context, symbol string, day time.Time) (float64, error) {
	lastErr := ErrNoProviders
	for i, provider := range p.providers {
		price, err := provider.Price(ctx, symbol, day)
		if err != nil {
			p.log.Warn().Err(err).Int("provider", i).Str("symbol", symbol).Msg("provider failed, trying next")
			lastErr = err
			continue
		}
		return price, nil
	}
	return 0, lastErr
}

func (p *HybridProvider) OHLC(ctx context.Context, symbol string, day time.Time) (domain.OHLC, error) {
	lastErr := ErrNoProviders
	for i, provider := range p.providers {
		ohlc, err := provider.OHLC(ctx, symbol, day)
		if err != nil {
			p.log.Warn().Err(err).Int("provider", i).Str("symbol", symbol).Msg("provider failed, trying next")
			lastErr = err
			continue
		}
		return ohlc, nil
	}
	return domain.OHLC{}, lastErr
}

// ValidateOHLC rejects bars that are internally inconsistent: zero
// legs, high below low, open or close outside the high/low range, or a
// close more than 50% away from the open.
func ValidateOHLC(o domain.OHLC) error {
	if o.Open == 0 || o.High == 0 || o.Low == 0 || o.Close == 0 {
		return fmt.Errorf("zero value in OHLC")
	}
	if o.High < o.Low {
		return fmt.Errorf("high %.2f below low %.2f", o.High, o.Low)
	}
	if o.Open < o.Low || o.Open > o.High {
		return fmt.Errorf("open %.2f outside high/low range", o.Open)
	}
	if o.Close < o.Low || o.Close > o.High {
		return fmt.Errorf("close %.2f outside high/low range", o.Close)
	}
	if changePct := math.Abs((o.Close-o.Open)/o.Open) * 100; changePct > 50 {
		return fmt.Errorf("close moved %.2f%% from open", changePct)
	}
	return nil
}

var krCodeRe = regexp.MustCompile(`^\d{6}$`)

// candidateSymbols maps a security identifier to the provider symbols
// to try in order. Six-digit Korean codes try the KOSPI listing first,
// then KOSDAQ; everything else passes through unchanged.
func candidateSymbols(symbol string) []string {
	if krCodeRe.MatchString(symbol) {
		return []string{symbol + ".KS", symbol + ".KQ"}
	}
	return []string{symbol}
}

// DummyProvider generates deterministic synthetic prices keyed on
// symbol and date. Used in tests and dry runs.
type DummyProvider struct{}

func NewDummyProvider() *DummyProvider {
	return &DummyProvider{}
}

func (p *DummyProvider) Price(ctx context.Context, symbol string, day time.Time) (float64, error) {
	ohlc, err := p.OHLC(ctx, symbol, day)
	if err != nil {
		return 0, err
	}
	return ohlc.Close, nil
}

func (p *DummyProvider) OHLC(_ context.Context, symbol string, day time.Time) (domain.OHLC, error) {
	base := 50000 + float64(hashOf(symbol)%100000)
	variation := (float64(hashOf(symbol+day.Format("2006-01-02"))%1000) - 500) / 100
	close := round2(base + variation)

	changePct := (float64(hashOf(day.Format("2006-01-02")+symbol)%600) - 300) / 100 // ±3%
	spread := math.Abs(changePct) * 0.5

	high := round2(close * (1 + spread/100))
	low := round2(close * (1 - spread/100))
	open := close * (1 + changePct*0.3/100)
	if open > high {
		open = high
	}
	if open < low {
		open = low
	}
	open = round2(open)

	rate := round2(changePct)
	return domain.OHLC{
		Open:      open,
		High:      high,
		Low:       low,
		Close:     close,
		Volume:    int64(1000000 + hashOf(symbol+"v"+day.Format("20060102"))%9000000),
		ChangePct: &rate,
	}, nil
}

func hashOf(s string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return h.Sum64()
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
