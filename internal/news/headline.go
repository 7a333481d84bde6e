package news

import (
	"strings"
	"time"

	"github.com/daybreak-kr/daybreak/internal/domain"
	"github.com/daybreak-kr/daybreak/pkg/textutil"
)

// marketKeywords carries per-keyword relevance weights (7..10 by
// category); any keyword present in title+body adds its weight to the
// base relevance.
var marketKeywords = map[string]float64{
	// 증시/주가 (가중치 10)
	"증시": 10, "주가": 10, "코스피": 10, "코스닥": 10, "kospi": 10, "kosdaq": 10,
	"s&p": 10, "sp500": 10, "s&p 500": 10, "s&p500": 10,
	"나스닥": 10, "nasdaq": 10, "다우": 10, "dow": 10,

	// 금리/연준 (가중치 9)
	"연준": 9, "fed": 9, "기준금리": 9, "금리": 9, "cpi": 9, "ppi": 9, "pce": 9,
	"인플레이션": 9, "인플레": 9,

	// 환율/달러 (가중치 8)
	"환율": 8, "달러": 8, "원달러": 8, "dxy": 8, "달러인덱스": 8,

	// 유가/원자재 (가중치 8)
	"유가": 8, "원유": 8, "wti": 8, "브렌트": 8, "석유": 8,

	// 반도체/AI (가중치 9)
	"반도체": 9, "칩": 9, "메모리": 9, "dram": 9, "nand": 9, "hbm": 9,
	"ai": 9, "인공지능": 9, "chatgpt": 9, "gpt": 9, "llm": 9,
	"엔비디아": 9, "nvidia": 9, "amd": 9, "tsmc": 9, "대만반도체": 9,

	// 주요 종목 (가중치 8)
	"삼성전자": 8, "sk하이닉스": 8, "하이닉스": 8, "sk hynix": 8,

	// 실적/수출 (가중치 7)
	"실적": 7, "수출": 7, "수입": 7, "무역": 7,

	// 정책/규제 (가중치 7)
	"규제": 7, "관세": 7, "정책": 7, "법안": 7,

	// 지정학/방산 (가중치 7)
	"지정학": 7, "전쟁": 7, "방산": 7, "방위": 7,
}

var clickbaitKeywords = []string{
	"폭발", "대박", "지금 담아라", "100조", "3배", "확정", "급등 예상", "급락 예상",
	"반드시", "확실히", "100%", "무조건", "절대", "완전", "엄청", "엄청난",
	"충격", "충격적", "폭락 예고", "폭등 예고", "급등장", "급락장", "대폭",
	"역대급", "최고", "최대", "최악", "최저", "신기록", "역사적",
}

// credibleDomains soften the clickbait penalty; matched against both the
// article URL and the source name.
var credibleDomains = []string{
	"bloomberg.com", "reuters.com", "wsj.com", "ft.com", "economist.com",
	"yna.co.kr", "yna.kr", "yna.com",
	"chosun.com", "joongang.co.kr", "donga.com", "hani.co.kr",
	"mk.co.kr", "etnews.com", "fnnews.com", "edaily.co.kr",
}

// Heuristics holds the tunable constants of the headline scorer. The
// defaults match the production weights; the late-news thresholds are
// heuristic and exposed for configuration.
type Heuristics struct {
	WeightFresh  float64 `yaml:"weight_fresh"`
	WeightNovel  float64 `yaml:"weight_novel"`
	WeightRepeat float64 `yaml:"weight_repeat"`
	WeightLate   float64 `yaml:"weight_late"`
	WeightClick  float64 `yaml:"weight_click"`

	SimilarityThreshold float64 `yaml:"similarity_threshold"`

	// Late-news percent-change buckets, largest first.
	LateHighPct float64 `yaml:"late_high_pct"`
	LateMidPct  float64 `yaml:"late_mid_pct"`
	LateLowPct  float64 `yaml:"late_low_pct"`
}

// DefaultHeuristics returns the production constants.
func DefaultHeuristics() Heuristics {
	return Heuristics{
		WeightFresh:         10.0,
		WeightNovel:         5.0,
		WeightRepeat:        8.0,
		WeightLate:          6.0,
		WeightClick:         4.0,
		SimilarityThreshold: 0.4,
		LateHighPct:         3.0,
		LateMidPct:          2.0,
		LateLowPct:          1.0,
	}
}

// sectorIndicators maps a sector to the overnight leading-indicator
// names consulted for the late-news penalty. Sectors without an entry
// always score 0.
var sectorIndicators = map[string][]string{
	SectorSemi:       {"NVDA", "Nasdaq", "S&P500"},
	SectorCrypto:     {"BTC"},
	SectorMacro:      {"USDKRW", "US10Y", "DXY"},
	SectorEnergy:     {"WTI", "S&P500"},
	SectorGold:       {"Gold", "DXY"},
	SectorVolatility: {"VIX", "Nasdaq"},
}

// FreshnessScore decays with article age: 1.0 at publication, 0.5 at
// 12h, 0.2 at 24h, 0.05 at 48h and beyond, linear between breakpoints.
// Articles without a timestamp get the neutral 0.5.
func FreshnessScore(article domain.NewsArticle, nowUTC time.Time) float64 {
	if article.PublishedAt == nil {
		return 0.5
	}

	hoursAgo := nowUTC.Sub(article.PublishedAt.UTC()).Hours()

	switch {
	case hoursAgo <= 0:
		return 1.0
	case hoursAgo <= 12:
		return 1.0 - (hoursAgo/12)*0.5
	case hoursAgo <= 24:
		return 0.5 - ((hoursAgo-12)/12)*0.3
	case hoursAgo <= 48:
		return 0.2 - ((hoursAgo-24)/24)*0.15
	default:
		return 0.05
	}
}

// NoveltyScore counts similar titles published 24..72h (inclusive) away
// from the subject and derives a novelty score and a repeat penalty.
// Similarity is max(jaccard, sequence ratio) over normalized titles at
// the configured threshold. An article without a timestamp scores the
// neutral (0.5, 0.0) with no comparison performed.
func NoveltyScore(article domain.NewsArticle, others []domain.NewsArticle, h Heuristics) (novelty, repeatPenalty float64) {
	if article.PublishedAt == nil {
		return 0.5, 0.0
	}

	itemUTC := article.PublishedAt.UTC()
	itemNormalized := textutil.NormalizeTitle(article.Title)

	similarCount := 0
	for _, other := range others {
		if other.URL == article.URL && other.Title == article.Title {
			continue
		}
		if other.PublishedAt == nil {
			continue
		}

		hoursDiff := itemUTC.Sub(other.PublishedAt.UTC()).Hours()
		if hoursDiff < 0 {
			hoursDiff = -hoursDiff
		}
		if hoursDiff < 24 || hoursDiff > 72 {
			continue
		}

		otherNormalized := textutil.NormalizeTitle(other.Title)
		similarity := textutil.Jaccard(itemNormalized, otherNormalized)
		if seq := textutil.SequenceRatio(itemNormalized, otherNormalized); seq > similarity {
			similarity = seq
		}

		if similarity >= h.SimilarityThreshold {
			similarCount++
		}
	}

	switch {
	case similarCount == 0:
		novelty = 1.0
	case similarCount <= 2:
		novelty = 0.7
	case similarCount <= 4:
		novelty = 0.4
	default:
		novelty = 0.1
	}

	switch {
	case similarCount >= 5:
		repeatPenalty = 0.8
	case similarCount >= 3:
		repeatPenalty = 0.5
	case similarCount >= 1:
		repeatPenalty = 0.2
	default:
		repeatPenalty = 0.0
	}

	return novelty, repeatPenalty
}

// LateNewsPenalty rises when the sector's overnight leading indicators
// already moved: the news is likely priced in. Uses the maximum absolute
// percent change among successfully fetched indicators.
func LateNewsPenalty(sector string, signals map[string]domain.OvernightSignal, h Heuristics) float64 {
	if len(signals) == 0 {
		return 0.0
	}

	indicators, ok := sectorIndicators[sector]
	if !ok {
		return 0.0
	}

	maxChange := 0.0
	for _, name := range indicators {
		signal, ok := signals[name]
		if !ok || !signal.Success || signal.PctChange == nil {
			continue
		}
		change := *signal.PctChange
		if change < 0 {
			change = -change
		}
		if change > maxChange {
			maxChange = change
		}
	}

	switch {
	case maxChange > h.LateHighPct:
		return 0.7
	case maxChange > h.LateMidPct:
		return 0.5
	case maxChange > h.LateLowPct:
		return 0.3
	default:
		return 0.0
	}
}

// ClickbaitPenalty counts sensational phrases in title+body; credible
// outlets get the softened scale.
func ClickbaitPenalty(article domain.NewsArticle) float64 {
	text := strings.ToLower(article.Title + " " + article.Body)

	hits := 0
	for _, kw := range clickbaitKeywords {
		if strings.Contains(text, strings.ToLower(kw)) {
			hits++
		}
	}

	credible := isCredibleSource(article)

	switch {
	case hits == 0:
		return 0.0
	case hits == 1:
		if credible {
			return 0.1
		}
		return 0.3
	case hits == 2:
		if credible {
			return 0.3
		}
		return 0.6
	default:
		if credible {
			return 0.5
		}
		return 0.9
	}
}

func isCredibleSource(article domain.NewsArticle) bool {
	urlLower := strings.ToLower(article.URL)
	sourceLower := strings.ToLower(article.Source)

	for _, d := range credibleDomains {
		if urlLower != "" && strings.Contains(urlLower, d) {
			return true
		}
		if sourceLower != "" && strings.Contains(sourceLower, d) {
			return true
		}
	}
	return false
}

// ScoreHeadline computes the composite ranking score:
//
//	base + 10·fresh + 5·novel − 8·repeat − 6·late − 4·click
//
// The result is a ranking key, not a probability; no clamping. The
// novelty comparison pool must be fixed before scoring a batch.
func ScoreHeadline(
	article domain.NewsArticle,
	allItems []domain.NewsArticle,
	nowUTC time.Time,
	signals map[string]domain.OvernightSignal,
	h Heuristics,
) (float64, domain.HeadlineBreakdown) {
	text := strings.ToLower(article.Title + " " + article.Body)

	baseRelevance := 0.0
	for keyword, weight := range marketKeywords {
		if strings.Contains(text, keyword) {
			baseRelevance += weight
		}
	}

	freshness := FreshnessScore(article, nowUTC)
	novelty, repeatPenalty := NoveltyScore(article, allItems, h)

	sector := ClassifySector(article.Title, article.Body)
	latePenalty := LateNewsPenalty(sector, signals, h)

	clickbaitPenalty := ClickbaitPenalty(article)

	finalScore := baseRelevance +
		h.WeightFresh*freshness +
		h.WeightNovel*novelty -
		h.WeightRepeat*repeatPenalty -
		h.WeightLate*latePenalty -
		h.WeightClick*clickbaitPenalty

	return finalScore, domain.HeadlineBreakdown{
		BaseRelevance:    baseRelevance,
		Freshness:        freshness,
		Novelty:          novelty,
		RepeatPenalty:    repeatPenalty,
		LatePenalty:      latePenalty,
		ClickbaitPenalty: clickbaitPenalty,
		FinalScore:       finalScore,
		Sector:           sector,
	}
}
