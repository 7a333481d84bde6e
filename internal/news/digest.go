package news

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/daybreak-kr/daybreak/internal/domain"
	"github.com/daybreak-kr/daybreak/pkg/textutil"
)

// noiseKeywords mark lifestyle/promotional articles that never belong in
// a market digest.
var noiseKeywords = []string{
	"할인", "이벤트", "프로모션", "쿠폰", "카톡 친구", "오픈", "출시 기념", "연휴",
	"맛집", "닭갈비", "연예", "결혼", "스캔들", "날씨", "운세", "부동산 분양",
	"기념일", "축제", "행사", "공연", "영화", "드라마", "예능", "가수", "아이돌",
	"패션", "뷰티", "화장품", "식품", "레시피", "요리", "여행", "관광", "호텔",
	"카지노", "로또", "복권", "경품", "추첨", "당첨", "무료", "증정", "사은품",
}

const (
	dedupTitleThreshold = 0.85
	maxTopHeadlines     = 8
	maxPerSector        = 3
	minFilteredPool     = 10
	maxNoiseRecovered   = 5
	maxSectorBullets    = 3
	maxSectors          = 5
	maxSources          = 5

	emptyMacroSummary = "수집된 뉴스가 없습니다."
)

// IsNoiseArticle reports whether the article looks like lifestyle or
// promotional noise, judged on title+source+url.
func IsNoiseArticle(title, source, url string) bool {
	text := strings.ToLower(title + " " + source + " " + url)

	for _, kw := range noiseKeywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// RemoveDuplicates drops articles whose normalized-title Jaccard
// similarity to an already-retained article meets the threshold.
// First-seen wins. Idempotent.
func RemoveDuplicates(items []domain.NewsArticle, titleThreshold float64) []domain.NewsArticle {
	if len(items) == 0 {
		return nil
	}

	var seen []string
	var unique []domain.NewsArticle

	for _, item := range items {
		normalized := textutil.NormalizeTitle(item.Title)

		duplicate := false
		for _, seenNormalized := range seen {
			if textutil.Jaccard(normalized, seenNormalized) >= titleThreshold {
				duplicate = true
				break
			}
		}

		if !duplicate {
			seen = append(seen, normalized)
			unique = append(unique, item)
		}
	}

	return unique
}

// macroIndicatorGroups name the indicator keyword groups checked for the
// macro summary's first line.
var macroIndicatorGroups = []struct {
	name     string
	keywords []string
}{
	{"S&P", []string{"s&p", "sp500", "s&p 500", "s&p500"}},
	{"나스닥", []string{"나스닥", "nasdaq", "nasdaq 100"}},
	{"금리", []string{"금리", "연준", "fed", "기준금리", "인플레이션", "인플레", "cpi"}},
	{"달러", []string{"달러", "dxy", "달러인덱스", "원달러", "환율"}},
	{"유가", []string{"유가", "원유", "wti", "브렌트", "석유"}},
	{"비트코인", []string{"비트코인", "btc", "비트코인 etf", "비트코인 현물 etf"}},
}

var sentimentKeywords = map[string][]string{
	"상승": {"상승", "급등", "반등", "회복", "개선", "증가"},
	"하락": {"하락", "급락", "폭락", "약세", "감소", "축소"},
	"긍정": {"긍정", "호재", "기대", "전망", "낙관", "성장"},
	"부정": {"부정", "악재", "우려", "불안", "비관", "위험"},
}

// GenerateMacroSummary builds a template-driven summary of at most 5
// lines: indicator mentions, overall tone, top sectors, market drift.
func GenerateMacroSummary(items []domain.NewsArticle) string {
	if len(items) == 0 {
		return emptyMacroSummary
	}

	var sb strings.Builder
	for _, item := range items {
		sb.WriteString(item.Title)
		sb.WriteString(" ")
		sb.WriteString(item.Body)
		sb.WriteString(" ")
	}
	allText := strings.ToLower(sb.String())

	var foundIndicators []string
	for _, group := range macroIndicatorGroups {
		if containsAny(allText, group.keywords) {
			foundIndicators = append(foundIndicators, group.name)
		}
	}

	counts := make(map[string]int)
	for category, words := range sentimentKeywords {
		for _, w := range words {
			if strings.Contains(allText, w) {
				counts[category]++
			}
		}
	}

	var lines []string

	if len(foundIndicators) > 0 {
		if len(foundIndicators) > 3 {
			foundIndicators = foundIndicators[:3]
		}
		lines = append(lines, "• 주요 거시 지표: "+strings.Join(foundIndicators, ", "))
	}

	tone := "중립"
	if counts["긍정"] > counts["부정"] {
		tone = "긍정"
	} else if counts["부정"] > counts["긍정"] {
		tone = "신중"
	}
	lines = append(lines, fmt.Sprintf("• 전반적 톤: %s적 분위기", tone))

	sectorCounts := make(map[string]int)
	for _, item := range items {
		sector := ClassifySector(item.Title, item.Body)
		if sector != SectorOther {
			sectorCounts[sector]++
		}
	}
	if len(sectorCounts) > 0 {
		type sc struct {
			sector string
			count  int
		}
		var sorted []sc
		for s, c := range sectorCounts {
			sorted = append(sorted, sc{s, c})
		}
		sort.SliceStable(sorted, func(i, j int) bool {
			if sorted[i].count != sorted[j].count {
				return sorted[i].count > sorted[j].count
			}
			return sorted[i].sector < sorted[j].sector
		})
		if len(sorted) > 3 {
			sorted = sorted[:3]
		}
		names := make([]string, len(sorted))
		for i, s := range sorted {
			names[i] = s.sector
		}
		lines = append(lines, "• 주요 섹터: "+strings.Join(names, ", "))
	}

	switch {
	case counts["상승"] > counts["하락"]:
		lines = append(lines, "• 시장 동향: 상승 기대감 우세")
	case counts["하락"] > counts["상승"]:
		lines = append(lines, "• 시장 동향: 하락 우려 존재")
	default:
		lines = append(lines, "• 시장 동향: 혼조세")
	}

	if len(lines) > 5 {
		lines = lines[:5]
	}
	return strings.Join(lines, "\n")
}

var (
	positiveKeywords = []string{"상승", "급등", "호재", "기대", "개선", "증가", "성장", "반등"}
	negativeKeywords = []string{"하락", "급락", "악재", "우려", "감소", "축소", "위험", "불안"}
	majorStocks      = []string{"삼성", "sk하이닉스", "네이버", "카카오", "lg", "현대", "기아"}
)

// AssessKoreaImpact grades the batch's likely effect on the Korean
// session: one of 상/중/하 plus a one-line reason from a fixed decision
// table over sentiment ratios and conglomerate mention counts.
func AssessKoreaImpact(items []domain.NewsArticle) (level, reason string) {
	if len(items) == 0 {
		return "중", "뉴스 부족"
	}

	var sb strings.Builder
	for _, item := range items {
		sb.WriteString(item.Title)
		sb.WriteString(" ")
		sb.WriteString(item.Body)
		sb.WriteString(" ")
	}
	allText := strings.ToLower(sb.String())

	positive := 0
	for _, kw := range positiveKeywords {
		if strings.Contains(allText, kw) {
			positive++
		}
	}
	negative := 0
	for _, kw := range negativeKeywords {
		if strings.Contains(allText, kw) {
			negative++
		}
	}
	mentions := 0
	for _, stock := range majorStocks {
		if strings.Contains(allText, stock) {
			mentions++
		}
	}

	switch {
	case float64(positive) > float64(negative)*1.5 && mentions >= 2:
		return "상", "주요 종목 긍정 뉴스 다수"
	case float64(negative) > float64(positive)*1.5 && mentions >= 2:
		return "하", "주요 종목 부정 뉴스 존재"
	case mentions >= 3:
		return "중", "주요 종목 다수 언급"
	case positive > negative:
		return "중", "전반적 긍정 톤"
	case negative > positive:
		return "중", "전반적 신중 톤"
	default:
		return "중", "혼조세"
	}
}

// DigestBuilder assembles one NewsDigest per report cycle.
type DigestBuilder struct {
	log zerolog.Logger
	h   Heuristics
	now func() time.Time
}

// NewDigestBuilder creates a digest builder with production heuristics.
func NewDigestBuilder(log zerolog.Logger) *DigestBuilder {
	return &DigestBuilder{
		log: log.With().Str("component", "digest").Logger(),
		h:   DefaultHeuristics(),
		now: func() time.Time { return time.Now().UTC() },
	}
}

// WithHeuristics overrides the scoring constants.
func (b *DigestBuilder) WithHeuristics(h Heuristics) *DigestBuilder {
	b.h = h
	return b
}

// WithClock fixes "now" for deterministic tests.
func (b *DigestBuilder) WithClock(now func() time.Time) *DigestBuilder {
	b.now = now
	return b
}

// Build runs the full digest pipeline: dedup, noise filter with
// recovery, composite scoring, sector-capped selection, macro summary,
// sector bullets, Korea impact and source extraction. Empty input yields
// the canonical empty digest, never an error.
func (b *DigestBuilder) Build(
	items []domain.NewsArticle,
	fetchedCount, timeFilteredCount int,
	signals map[string]domain.OvernightSignal,
) domain.NewsDigest {
	if len(items) == 0 {
		return domain.NewsDigest{
			MacroSummary:      emptyMacroSummary,
			KoreaImpact:       "중 - 뉴스 부족",
			FetchedCount:      fetchedCount,
			TimeFilteredCount: timeFilteredCount,
			DedupedCount:      0,
			HeadlineDebug:     map[string]domain.HeadlineBreakdown{},
		}
	}

	nowUTC := b.now()

	// 1. Dedup by normalized-title similarity.
	unique := RemoveDuplicates(items, dedupTitleThreshold)
	b.log.Info().
		Int("before", len(items)).
		Int("after", len(unique)).
		Msg("duplicates removed")

	// 2. Noise filter, with recovery when the pool gets too thin.
	var filtered, noise []domain.NewsArticle
	for _, item := range unique {
		if IsNoiseArticle(item.Title, item.Source, item.URL) {
			noise = append(noise, item)
		} else {
			filtered = append(filtered, item)
		}
	}
	b.log.Info().
		Int("kept", len(filtered)).
		Int("noise", len(noise)).
		Msg("noise filter applied")

	if len(filtered) < minFilteredPool && len(noise) > 0 {
		b.log.Warn().
			Int("pool", len(filtered)).
			Msg("pool too small after noise filter, recovering top-scored noise articles")

		type scoredItem struct {
			item  domain.NewsArticle
			score float64
		}
		scored := make([]scoredItem, 0, len(noise))
		for _, item := range noise {
			score, _ := ScoreHeadline(item, unique, nowUTC, signals, b.h)
			scored = append(scored, scoredItem{item, score})
		}
		sort.SliceStable(scored, func(i, j int) bool { return scored[i].score > scored[j].score })

		recovered := 0
		for _, s := range scored {
			if recovered >= maxNoiseRecovered {
				break
			}
			filtered = append(filtered, s.item)
			recovered++
		}
		b.log.Info().Int("recovered", recovered).Msg("noise articles recovered")
	}

	// 3. Composite scoring against the full deduplicated pool (not the
	// noise-filtered subset), so repeat penalties see every duplicate.
	type scoredArticle struct {
		item  domain.NewsArticle
		score float64
	}
	scoredNews := make([]scoredArticle, 0, len(filtered))
	headlineDebug := make(map[string]domain.HeadlineBreakdown, len(filtered))
	for _, item := range filtered {
		score, breakdown := ScoreHeadline(item, unique, nowUTC, signals, b.h)
		scoredNews = append(scoredNews, scoredArticle{item, score})
		headlineDebug[item.Title] = breakdown
	}
	sort.SliceStable(scoredNews, func(i, j int) bool { return scoredNews[i].score > scoredNews[j].score })

	// 4. Sector-capped top selection.
	sectorCounts := make(map[string]int)
	var selected []domain.NewsArticle
	for _, s := range scoredNews {
		sector := ClassifySector(s.item.Title, s.item.Body)
		if sectorCounts[sector] >= maxPerSector {
			continue
		}
		selected = append(selected, s.item)
		sectorCounts[sector]++
		if len(selected) >= maxTopHeadlines {
			break
		}
	}

	// 5. Display order is recency, not score; undated items sink.
	sort.SliceStable(selected, func(i, j int) bool {
		pi, pj := selected[i].PublishedAt, selected[j].PublishedAt
		if pi == nil {
			return false
		}
		if pj == nil {
			return true
		}
		return pi.After(*pj)
	})

	topHeadlines := make([]string, 0, len(selected))
	for _, item := range selected {
		topHeadlines = append(topHeadlines, item.Title)
	}

	// 6. Macro summary over the full deduplicated set.
	macroSummary := GenerateMacroSummary(unique)

	// 7. Sector bullets from the full deduplicated set.
	sectorBullets := buildSectorBullets(unique)

	// 8. Korea impact.
	impactLevel, impactReason := AssessKoreaImpact(unique)
	koreaImpact := impactLevel + " - " + impactReason

	// 9. Source URLs: top selection first, backfill from the pool.
	sources := extractSources(selected, unique)
	if len(sources) == 0 {
		b.log.Warn().Msg("no usable source URLs in digest")
	}

	return domain.NewsDigest{
		TopHeadlines:      topHeadlines,
		MacroSummary:      macroSummary,
		SectorBullets:     sectorBullets,
		KoreaImpact:       koreaImpact,
		Sources:           sources,
		FetchedCount:      fetchedCount,
		TimeFilteredCount: timeFilteredCount,
		DedupedCount:      len(unique),
		HeadlineDebug:     headlineDebug,
	}
}

// buildSectorBullets groups the deduplicated pool by sector (at most 3
// bullets each), drops the catch-all, and keeps the 5 largest sectors.
func buildSectorBullets(items []domain.NewsArticle) []domain.SectorBullet {
	bullets := make(map[string][]string)
	var order []string

	for _, item := range items {
		sector := ClassifySector(item.Title, item.Body)
		if _, seen := bullets[sector]; !seen {
			order = append(order, sector)
		}
		if len(bullets[sector]) < maxSectorBullets {
			bullets[sector] = append(bullets[sector], item.Title)
		}
	}

	var result []domain.SectorBullet
	for _, sector := range order {
		if sector == SectorOther {
			continue
		}
		result = append(result, domain.SectorBullet{Sector: sector, Bullets: bullets[sector]})
	}

	sort.SliceStable(result, func(i, j int) bool {
		return len(result[i].Bullets) > len(result[j].Bullets)
	})
	if len(result) > maxSectors {
		result = result[:maxSectors]
	}

	return result
}

// extractSources collects up to 5 unique non-placeholder URLs, scanning
// the selected headlines first (at most 10) and backfilling from the
// deduplicated pool.
func extractSources(selected, pool []domain.NewsArticle) []string {
	var urls []string
	seen := make(map[string]struct{})

	appendURL := func(raw string) {
		url := strings.TrimSpace(raw)
		if url == "" || strings.Contains(url, "example.com") {
			return
		}
		if _, dup := seen[url]; dup {
			return
		}
		seen[url] = struct{}{}
		urls = append(urls, url)
	}

	scanned := 0
	for _, item := range selected {
		if scanned >= 10 {
			break
		}
		scanned++
		appendURL(item.URL)
	}

	if len(urls) < maxSources {
		for _, item := range pool {
			if len(urls) >= maxSources {
				break
			}
			appendURL(item.URL)
		}
	}

	if len(urls) > maxSources {
		urls = urls[:maxSources]
	}
	return urls
}
