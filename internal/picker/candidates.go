// Package picker turns a news digest into scored stock candidates and
// the final daily watchlist, with an optional model-assisted selection
// path and a deterministic rule-based fallback.
package picker

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/daybreak-kr/daybreak/internal/domain"
	"github.com/daybreak-kr/daybreak/internal/news"
	"github.com/daybreak-kr/daybreak/internal/universe"
)

// Candidate scoring weights. Additive; a name mentioned in several
// places accumulates.
const (
	headlineMentionPoints = 3
	bulletMentionPoints   = 2
	rawMentionPoints      = 2
	watchlistBonus        = 2
	foreignSubstitutePts  = 1

	chipOvernightBonus = 2
	techIndexBonus     = 1
	riskOffPenalty     = 1
	chipMovePctGate    = 1.0
	techIndexPctGate   = 0.5

	maxMatchedHeadlines = 3
)

// MetricsFetcher supplies fundamental metrics for a candidate. An
// unsuccessful result is data, not an error.
type MetricsFetcher interface {
	Fetch(ctx context.Context, code, name string, day time.Time) domain.FinancialMetrics
}

// ExtractCandidates scans the digest and raw articles for known-symbol
// mentions and accumulates an additive score per display name.
// Overnight adjustments apply only when signals are supplied.
func ExtractCandidates(
	digest domain.NewsDigest,
	articles []domain.NewsArticle,
	watchlist []string,
	signals map[string]domain.OvernightSignal,
	tone domain.MarketTone,
) map[string]int {
	scores := make(map[string]int)

	for _, headline := range digest.TopHeadlines {
		for name := range universe.FindSymbolsInText(headline) {
			scores[name] += headlineMentionPoints
		}
	}

	for _, sb := range digest.SectorBullets {
		for _, bullet := range sb.Bullets {
			for name := range universe.FindSymbolsInText(bullet) {
				scores[name] += bulletMentionPoints
			}
		}
	}

	for _, article := range articles {
		for name := range universe.FindSymbolsInText(article.Title + " " + article.Body) {
			scores[name] += rawMentionPoints
		}
	}

	// Watch-listed names always enter the pool.
	for _, name := range watchlist {
		if _, mentioned := scores[name]; mentioned {
			scores[name] += watchlistBonus
		} else if universe.SymbolCode(name) != "" {
			scores[name] = watchlistBonus
		}
	}

	// Foreign mentions boost their domestic substitutes.
	digestText := strings.ToLower(aggregateDigestText(digest))
	for foreignName, substitutes := range universe.ForeignToKR {
		if !strings.Contains(digestText, foreignName) {
			continue
		}
		for _, name := range substitutes {
			scores[name] += foreignSubstitutePts
		}
	}

	if signals != nil {
		applyOvernightAdjustments(scores, signals, tone)
	}

	return scores
}

// applyOvernightAdjustments folds the previous US session into the
// scores: a strong chip-stock move lifts the domestic chip substitutes,
// a broad tech-index move adds to it, and a risk-off tone shaves a
// point off historically volatile names.
func applyOvernightAdjustments(
	scores map[string]int,
	signals map[string]domain.OvernightSignal,
	tone domain.MarketTone,
) {
	change := func(name string) (float64, bool) {
		s, ok := signals[name]
		if !ok || !s.Success || s.PctChange == nil {
			return 0, false
		}
		return *s.PctChange, true
	}

	if nvda, ok := change("NVDA"); ok && nvda > chipMovePctGate {
		for _, name := range universe.ChipSubstitutes {
			scores[name] += chipOvernightBonus
		}
	}
	if nasdaq, ok := change("Nasdaq"); ok && nasdaq > techIndexPctGate {
		for _, name := range universe.ChipSubstitutes {
			scores[name] += techIndexBonus
		}
	}

	if tone == domain.ToneRiskOff {
		for _, name := range universe.VolatileNames {
			if current, ok := scores[name]; ok {
				scores[name] = current - riskOffPenalty
				if scores[name] < 0 {
					scores[name] = 0
				}
			}
		}
	}
}

func aggregateDigestText(digest domain.NewsDigest) string {
	var sb strings.Builder
	for _, h := range digest.TopHeadlines {
		sb.WriteString(h)
		sb.WriteString(" ")
	}
	for _, sec := range digest.SectorBullets {
		for _, b := range sec.Bullets {
			sb.WriteString(b)
			sb.WriteString(" ")
		}
	}
	return sb.String()
}

// sectorFallbacks pairs a sector label with its representative name,
// consulted in order against the digest's sector bullets when no
// candidate surfaced at all.
var sectorFallbacks = []struct {
	sector string
	name   string
}{
	{news.SectorSemi, "삼성전자"},
	{news.SectorBattery, "LG에너지솔루션"},
	{news.SectorBio, "셀트리온"},
	{news.SectorPlatform, "NAVER"},
	{news.SectorAuto, "현대차"},
}

var defaultFallbacks = []string{"삼성전자", "SK하이닉스", "LG에너지솔루션"}

// fallbackCandidate picks a sector-matched representative from the
// digest's sector bullets, else the first resolvable default name.
func fallbackCandidate(digest domain.NewsDigest) string {
	for _, sb := range digest.SectorBullets {
		for _, fb := range sectorFallbacks {
			if sb.Sector == fb.sector && universe.SymbolCode(fb.name) != "" {
				return fb.name
			}
		}
	}
	for _, name := range defaultFallbacks {
		if universe.SymbolCode(name) != "" {
			return name
		}
	}
	return ""
}

// CreateCandidates ranks extracted names, deduplicates by security
// code (first-seen after the descending sort wins), attaches matched
// headlines, a sector and an optional metrics snapshot, and caps the
// list. Metric fetch failures are swallowed: absence of financial data
// is itself input.
func CreateCandidates(
	ctx context.Context,
	digest domain.NewsDigest,
	articles []domain.NewsArticle,
	watchlist []string,
	signals map[string]domain.OvernightSignal,
	tone domain.MarketTone,
	maxCandidates int,
	metrics MetricsFetcher,
	day time.Time,
) []domain.StockCandidate {
	scores := ExtractCandidates(digest, articles, watchlist, signals, tone)

	if len(scores) == 0 {
		if name := fallbackCandidate(digest); name != "" {
			scores[name] = 1
		}
	}

	type scored struct {
		name  string
		score int
	}
	ranked := make([]scored, 0, len(scores))
	for name, score := range scores {
		ranked = append(ranked, scored{name, score})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].name < ranked[j].name
	})

	seenCodes := make(map[string]struct{})
	var candidates []domain.StockCandidate
	for _, r := range ranked {
		code := universe.SymbolCode(r.name)
		if code == "" {
			continue
		}
		if _, dup := seenCodes[code]; dup {
			continue
		}
		seenCodes[code] = struct{}{}

		matched := matchedHeadlines(r.name, digest, articles)
		candidate := domain.StockCandidate{
			Name:             r.name,
			Code:             code,
			Score:            r.score,
			MatchedHeadlines: matched,
			Sector:           news.ClassifySector(strings.Join(matched, " "), ""),
		}

		if metrics != nil {
			m := metrics.Fetch(ctx, code, r.name, day)
			candidate.Financials = &m
		}

		candidates = append(candidates, candidate)
		if len(candidates) >= maxCandidates {
			break
		}
	}

	return candidates
}

// matchedHeadlines collects up to 3 headlines mentioning the name,
// scanning the top headlines first and then raw article titles.
func matchedHeadlines(name string, digest domain.NewsDigest, articles []domain.NewsArticle) []string {
	nameLower := strings.ToLower(name)
	seen := make(map[string]struct{})
	var matched []string

	consider := func(title string) {
		if len(matched) >= maxMatchedHeadlines {
			return
		}
		if !strings.Contains(strings.ToLower(title), nameLower) {
			return
		}
		if _, dup := seen[title]; dup {
			return
		}
		seen[title] = struct{}{}
		matched = append(matched, title)
	}

	for _, h := range digest.TopHeadlines {
		consider(h)
	}
	for _, a := range articles {
		consider(a.Title)
	}

	return matched
}
