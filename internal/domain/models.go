package domain

import "time"

// NewsArticle is a single fetched news item. Immutable once fetched;
// the pipeline only ever reads it.
type NewsArticle struct {
	Title       string     `json:"title"`
	URL         string     `json:"url"`
	PublishedAt *time.Time `json:"published_at,omitempty"` // UTC; nil when the feed had no parseable time
	Source      string     `json:"source,omitempty"`
	Body        string     `json:"body,omitempty"`
}

// HeadlineBreakdown holds the per-article scoring components. Ephemeral,
// kept only for ranking and optional debug display in the report.
type HeadlineBreakdown struct {
	BaseRelevance    float64 `json:"base_relevance"`
	Freshness        float64 `json:"freshness"`
	Novelty          float64 `json:"novelty"`
	RepeatPenalty    float64 `json:"repeat_penalty"`
	LatePenalty      float64 `json:"late_penalty"`
	ClickbaitPenalty float64 `json:"clickbait_penalty"`
	FinalScore       float64 `json:"final_score"`
	Sector           string  `json:"sector"`
}

// SectorBullet groups headline bullets under a classified sector label.
// Digest order is by bullet count, descending.
type SectorBullet struct {
	Sector  string   `json:"sector"`
	Bullets []string `json:"bullets"`
}

// NewsDigest is the aggregate produced once per report cycle.
// Read-only after construction.
type NewsDigest struct {
	TopHeadlines      []string                     `json:"top_headlines"` // at most 8, sector-capped
	MacroSummary      string                       `json:"macro_summary"` // at most 5 lines
	SectorBullets     []SectorBullet               `json:"sector_bullets"`
	KoreaImpact       string                       `json:"korea_impact"` // level + one-line reason
	Sources           []string                     `json:"sources"`      // at most 5 deduplicated URLs
	FetchedCount      int                          `json:"fetched_count"`
	TimeFilteredCount int                          `json:"time_filtered_count"`
	DedupedCount      int                          `json:"deduped_count"`
	HeadlineDebug     map[string]HeadlineBreakdown `json:"headline_debug,omitempty"`
}

// OHLC is a single day's bar for one instrument.
type OHLC struct {
	Open      float64  `json:"open"`
	High      float64  `json:"high"`
	Low       float64  `json:"low"`
	Close     float64  `json:"close"`
	Volume    int64    `json:"volume,omitempty"`
	ChangePct *float64 `json:"change_pct,omitempty"` // day-over-day close change, percent
}

// OvernightSignal is one overnight leading-indicator reading.
// Success=false means the fetch failed; the scoring core treats that as
// "no data", never as an error.
type OvernightSignal struct {
	Name      string   `json:"name"`   // display name, e.g. "Nasdaq", "NVDA"
	Ticker    string   `json:"ticker"` // provider ticker
	PrevClose *float64 `json:"prev_close,omitempty"`
	Last      *float64 `json:"last,omitempty"`
	PctChange *float64 `json:"pct_change,omitempty"`
	Success   bool     `json:"success"`
	Error     string   `json:"error,omitempty"`
}

// MarketTone classifies the overnight session.
type MarketTone string

const (
	ToneRiskOn  MarketTone = "risk_on"
	ToneRiskOff MarketTone = "risk_off"
	ToneMixed   MarketTone = "mixed"
)

// FinancialMetrics is a snapshot of the fundamentals used by the
// checklist engine. Success=false is "no data", not an error.
type FinancialMetrics struct {
	Symbol           string   `json:"symbol"` // security code, e.g. "005930"
	Name             string   `json:"name"`
	PER              *float64 `json:"per,omitempty"`
	DebtRatio        *float64 `json:"debt_ratio,omitempty"` // percent
	RevenueGrowth3Y  *float64 `json:"revenue_growth_3y,omitempty"`
	EarningsGrowth3Y *float64 `json:"earnings_growth_3y,omitempty"`
	Success          bool     `json:"success"`
	Error            string   `json:"error,omitempty"`
}

// StockCandidate is a scored candidate prior to selection. Candidates are
// keyed by security code; when two display names resolve to the same code
// only the higher-scored entry survives.
type StockCandidate struct {
	Name             string            `json:"name"`
	Code             string            `json:"code"`
	Score            int               `json:"score"`
	MatchedHeadlines []string          `json:"matched_headlines"` // at most 3
	Sector           string            `json:"sector"`
	Financials       *FinancialMetrics `json:"financials,omitempty"`
}

// Confidence is the tri-level verdict attached to a watch stock.
type Confidence string

const (
	ConfidenceLow  Confidence = "low"
	ConfidenceMid  Confidence = "mid"
	ConfidenceHigh Confidence = "high"
)

// Checklist holds the six checklist criteria, each scored 0..2.
type Checklist struct {
	KnownCompany        int `json:"known_company"`
	BusinessExplainable int `json:"business_explainable"`
	Growth3Y            int `json:"growth_3y"`
	PERBand             int `json:"per_band"`
	DebtBand            int `json:"debt_band"`
	ClearReason         int `json:"clear_reason"`
}

// Total returns the unweighted checklist sum, in [0, 12].
func (c Checklist) Total() int {
	return c.KnownCompany + c.BusinessExplainable + c.Growth3Y +
		c.PERBand + c.DebtBand + c.ClearReason
}

// Merge returns the elementwise maximum of two checklists. Used when an
// external model supplies scores alongside metrics-derived ones: an
// available financial signal is never ignored, and the model never
// overrides with a lower value.
func (c Checklist) Merge(other Checklist) Checklist {
	return Checklist{
		KnownCompany:        maxInt(c.KnownCompany, other.KnownCompany),
		BusinessExplainable: maxInt(c.BusinessExplainable, other.BusinessExplainable),
		Growth3Y:            maxInt(c.Growth3Y, other.Growth3Y),
		PERBand:             maxInt(c.PERBand, other.PERBand),
		DebtBand:            maxInt(c.DebtBand, other.DebtBand),
		ClearReason:         maxInt(c.ClearReason, other.ClearReason),
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// WatchStock is the final per-candidate output of one report cycle.
// Never mutated after construction.
type WatchStock struct {
	Name             string     `json:"name"`
	Code             string     `json:"code"`
	Thesis           string     `json:"thesis"`
	Catalysts        []string   `json:"catalysts"` // at most 2 headlines
	Risks            []string   `json:"risks"`     // exactly 2
	Trigger          string     `json:"trigger"`
	Checklist        Checklist  `json:"checklist"`
	TotalScore       int        `json:"total_score"`
	Confidence       Confidence `json:"confidence"`
	ConfidenceReason string     `json:"confidence_reason"`
}

// Symbol is a security master row.
type Symbol struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Code string `json:"code"`
}

// Recommendation is one persisted watchlist pick for a report date.
type Recommendation struct {
	ID         string     `json:"id"`  // uuid
	Day        string     `json:"day"` // KST report date, YYYY-MM-DD
	SymbolID   int64      `json:"symbol_id"`
	Reason     string     `json:"reason"`
	Priority   int        `json:"priority"` // 1-based position in the report
	Confidence Confidence `json:"confidence"`
	TotalScore int        `json:"total_score"`
	CreatedAt  time.Time  `json:"created_at"`
}

// PaperTrade is one simulated entry used by the performance module.
type PaperTrade struct {
	ID         int64     `json:"id"`
	Symbol     string    `json:"symbol"`
	Name       string    `json:"name"`
	EntryPrice float64   `json:"entry_price"`
	ExitPrice  *float64  `json:"exit_price,omitempty"`
	Provider   string    `json:"provider"` // "yahoo" or "dummy"
	TradedAt   time.Time `json:"traded_at"`
}
