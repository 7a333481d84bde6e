package market

import (
	"context"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/daybreak-kr/daybreak/internal/domain"
)

// DefaultTickers maps signal names to Yahoo Finance tickers for the
// overnight leading indicators.
var DefaultTickers = map[string]string{
	"S&P500": "^GSPC",
	"Nasdaq": "^IXIC",
	"US10Y":  "^TNX",
	"BTC":    "BTC-USD",
	"NVDA":   "NVDA",
	"DXY":    "DX-Y.NYB",
	"EWY":    "EWY",
	"USDKRW": "KRW=X",
	"VIX":    "^VIX",
	"WTI":    "CL=F",
	"Gold":   "GC=F",
}

// maxSignalLookbackDays bounds how far back a signal search walks when
// the previous day has no bar (weekend, holiday).
const maxSignalLookbackDays = 5

// FetchOvernightSignals collects the previous session's close and
// day-over-day change for each ticker. Per-ticker failures are recorded
// on the signal, never propagated: a bad night for one indicator must
// not sink the report.
func FetchOvernightSignals(
	ctx context.Context,
	provider Provider,
	tickers map[string]string,
	targetDate time.Time,
	log zerolog.Logger,
) map[string]domain.OvernightSignal {
	if tickers == nil {
		tickers = DefaultTickers
	}
	log = log.With().Str("component", "overnight").Logger()

	signals := make(map[string]domain.OvernightSignal, len(tickers))
	for name, ticker := range tickers {
		signals[name] = fetchSignal(ctx, provider, name, ticker, targetDate, log)
	}

	succeeded := 0
	for _, s := range signals {
		if s.Success {
			succeeded++
		}
	}
	log.Info().
		Int("total", len(signals)).
		Int("succeeded", succeeded).
		Msg("overnight signals collected")

	return signals
}

func fetchSignal(
	ctx context.Context,
	provider Provider,
	name, ticker string,
	targetDate time.Time,
	log zerolog.Logger,
) domain.OvernightSignal {
	signal := domain.OvernightSignal{Name: name, Ticker: ticker}

	prevDate := targetDate.AddDate(0, 0, -1)
	for daysBack := 0; daysBack < maxSignalLookbackDays; daysBack++ {
		checkDate := prevDate.AddDate(0, 0, -daysBack)

		ohlc, err := provider.OHLC(ctx, ticker, checkDate)
		if err != nil {
			if daysBack == maxSignalLookbackDays-1 {
				signal.Error = err.Error()
			}
			continue
		}

		close := ohlc.Close
		signal.PrevClose = &close
		signal.Last = &close
		signal.Success = true

		if ohlc.ChangePct != nil {
			signal.PctChange = ohlc.ChangePct
		} else {
			// Walk back for a reference close to derive the change.
			for prevBack := 0; prevBack < 3; prevBack++ {
				refDate := checkDate.AddDate(0, 0, -1-prevBack)
				refOHLC, refErr := provider.OHLC(ctx, ticker, refDate)
				if refErr != nil || refOHLC.Close <= 0 {
					continue
				}
				pct := (close - refOHLC.Close) / refOHLC.Close * 100
				pct = math.Round(pct*100) / 100
				signal.PctChange = &pct
				break
			}
		}

		log.Debug().
			Str("signal", name).
			Str("ticker", ticker).
			Float64("close", close).
			Msg("signal fetched")
		return signal
	}

	if signal.Error == "" {
		signal.Error = "no data"
	}
	log.Warn().
		Str("signal", name).
		Str("ticker", ticker).
		Str("error", signal.Error).
		Msg("signal lookup failed")
	return signal
}

// AssessMarketTone rolls the overnight signals into a single verdict.
// Weighted voting: US equities count double, VIX spikes and flights to
// gold push risk-off, an oil crash adds to it. The verdict flips only
// when one side leads by more than one point.
func AssessMarketTone(signals map[string]domain.OvernightSignal) domain.MarketTone {
	change := func(name string) (float64, bool) {
		s, ok := signals[name]
		if !ok || !s.Success || s.PctChange == nil {
			return 0, false
		}
		return *s.PctChange, true
	}

	riskOn, riskOff := 0.0, 0.0

	nasdaq, nasdaqOK := change("Nasdaq")
	sp500, sp500OK := change("S&P500")
	if (nasdaqOK && nasdaq > 0) || (sp500OK && sp500 > 0) {
		riskOn += 2
	} else {
		riskOff += 2
	}

	if krw, ok := change("USDKRW"); ok && krw < 0 {
		riskOn++ // won strength
	} else {
		riskOff++
	}

	if vix, ok := change("VIX"); ok && vix < 0 {
		riskOn++
	} else if ok && vix > 5 {
		riskOff += 2 // VIX spike
	}

	if wti, ok := change("WTI"); ok && wti > 0 {
		riskOn++
	} else if ok && wti < -2 {
		riskOff++
	}

	if gold, ok := change("Gold"); ok && gold < 0 {
		riskOn += 0.5
	} else if ok && gold > 2 {
		riskOff++ // flight to safety
	}

	switch {
	case riskOn > riskOff+1:
		return domain.ToneRiskOn
	case riskOff > riskOn+1:
		return domain.ToneRiskOff
	default:
		return domain.ToneMixed
	}
}
