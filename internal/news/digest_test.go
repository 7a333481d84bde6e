package news

import (
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daybreak-kr/daybreak/internal/domain"
)

var testNow = time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC)

func newTestBuilder() *DigestBuilder {
	return NewDigestBuilder(zerolog.Nop()).WithClock(func() time.Time { return testNow })
}

func datedArticle(title, url, source string, hoursAgo float64) domain.NewsArticle {
	published := testNow.Add(-time.Duration(hoursAgo * float64(time.Hour)))
	return domain.NewsArticle{
		Title:       title,
		URL:         url,
		Source:      source,
		PublishedAt: &published,
	}
}

func TestIsNoiseArticle(t *testing.T) {
	tests := []struct {
		name   string
		title  string
		source string
		url    string
		noise  bool
	}{
		{"promo title", "신제품 출시 기념 할인 이벤트", "쇼핑뉴스", "", true},
		{"lifestyle title", "주말 맛집 추천 베스트 10", "", "", true},
		{"market title", "코스피 외국인 순매수 전환", "연합뉴스", "", false},
		{"noise in url", "오늘의 소식", "", "https://promo.example.org/쿠폰", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.noise, IsNoiseArticle(tt.title, tt.source, tt.url))
		})
	}
}

func TestRemoveDuplicates(t *testing.T) {
	t.Run("near duplicate dropped first seen wins", func(t *testing.T) {
		items := []domain.NewsArticle{
			{Title: "삼성전자 HBM4 공급 계약 체결 공식 발표", URL: "https://a.example.org/1"},
			{Title: "삼성전자 HBM4 공급 계약 체결 공식 발표 소식", URL: "https://b.example.org/2"},
			{Title: "국제 유가 하락세 지속 전망", URL: "https://c.example.org/3"},
		}

		unique := RemoveDuplicates(items, dedupTitleThreshold)
		require.Len(t, unique, 2)
		assert.Equal(t, "https://a.example.org/1", unique[0].URL)
		assert.Equal(t, "https://c.example.org/3", unique[1].URL)
	})

	t.Run("idempotent", func(t *testing.T) {
		items := []domain.NewsArticle{
			{Title: "삼성전자 HBM4 공급 계약 체결 공식 발표"},
			{Title: "삼성전자 HBM4 공급 계약 체결 공식 발표 소식"},
		}
		once := RemoveDuplicates(items, dedupTitleThreshold)
		twice := RemoveDuplicates(once, dedupTitleThreshold)
		assert.Equal(t, once, twice)
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Nil(t, RemoveDuplicates(nil, dedupTitleThreshold))
	})

	t.Run("below threshold kept", func(t *testing.T) {
		items := []domain.NewsArticle{
			{Title: "삼성전자 실적 발표"},
			{Title: "국제 유가 하락세 지속"},
		}
		assert.Len(t, RemoveDuplicates(items, dedupTitleThreshold), 2)
	})
}

func TestGenerateMacroSummary(t *testing.T) {
	t.Run("empty input", func(t *testing.T) {
		assert.Equal(t, emptyMacroSummary, GenerateMacroSummary(nil))
	})

	t.Run("at most five lines", func(t *testing.T) {
		items := []domain.NewsArticle{
			{Title: "나스닥 상승 마감, S&P 동반 강세"},
			{Title: "연준 금리 인하 기대감 확산"},
			{Title: "달러 약세에 환율 하락"},
			{Title: "유가 상승, WTI 배럴당 80달러"},
			{Title: "비트코인 급등, BTC 10만 달러 돌파"},
		}

		summary := GenerateMacroSummary(items)
		lines := 1
		for _, r := range summary {
			if r == '\n' {
				lines++
			}
		}
		assert.LessOrEqual(t, lines, 5)
		assert.Contains(t, summary, "전반적 톤")
	})
}

func TestAssessKoreaImpact(t *testing.T) {
	t.Run("empty input", func(t *testing.T) {
		level, reason := AssessKoreaImpact(nil)
		assert.Equal(t, "중", level)
		assert.Equal(t, "뉴스 부족", reason)
	})

	t.Run("positive with major stocks", func(t *testing.T) {
		items := []domain.NewsArticle{
			{Title: "삼성전자 급등, 실적 개선 기대"},
			{Title: "SK하이닉스 상승세, 증가하는 수요에 반등 성공"},
		}
		level, _ := AssessKoreaImpact(items)
		assert.Equal(t, "상", level)
	})

	t.Run("negative with major stocks", func(t *testing.T) {
		items := []domain.NewsArticle{
			{Title: "삼성전자 급락, 감소하는 수요 우려"},
			{Title: "카카오 하락세 지속, 위험 요인 축소 불안"},
		}
		level, _ := AssessKoreaImpact(items)
		assert.Equal(t, "하", level)
	})

	t.Run("neutral", func(t *testing.T) {
		items := []domain.NewsArticle{
			{Title: "미국 경제 지표 발표 예정"},
		}
		level, _ := AssessKoreaImpact(items)
		assert.Equal(t, "중", level)
	})
}

func TestDigestBuilderEmptyInput(t *testing.T) {
	digest := newTestBuilder().Build(nil, 37, 0, nil)

	assert.Empty(t, digest.TopHeadlines)
	assert.Equal(t, emptyMacroSummary, digest.MacroSummary)
	assert.Empty(t, digest.SectorBullets)
	assert.Equal(t, "중 - 뉴스 부족", digest.KoreaImpact)
	assert.Empty(t, digest.Sources)
	assert.Equal(t, 37, digest.FetchedCount)
	assert.Equal(t, 0, digest.DedupedCount)
}

func TestDigestBuilderPipeline(t *testing.T) {
	items := []domain.NewsArticle{
		datedArticle("코스피 외국인 순매수 전환 개인 매도 지속", "https://a.example.org/1", "연합뉴스", 2),
		datedArticle("코스피 외국인 순매수 전환 개인 매도 지속 중", "https://a.example.org/1b", "매일경제", 3), // dup of above
		datedArticle("삼성전자 HBM4 공급 계약 체결", "https://a.example.org/2", "한국경제", 4),
		datedArticle("연준 기준금리 동결 전망", "https://a.example.org/3", "이데일리", 5),
		datedArticle("국제 유가 상승세 지속", "https://a.example.org/4", "서울경제", 6),
	}

	digest := newTestBuilder().Build(items, len(items), len(items), nil)

	assert.Equal(t, 4, digest.DedupedCount)
	assert.Len(t, digest.TopHeadlines, 4)
	assert.NotContains(t, digest.TopHeadlines, "코스피 외국인 순매수 전환 개인 매도 지속 중")

	// Headlines ordered by recency, newest first.
	assert.Equal(t, "코스피 외국인 순매수 전환 개인 매도 지속", digest.TopHeadlines[0])

	// Debug breakdown present for everything scored.
	assert.Contains(t, digest.HeadlineDebug, "삼성전자 HBM4 공급 계약 체결")
}

func TestDigestBuilderSectorCap(t *testing.T) {
	var items []domain.NewsArticle
	// Ten distinct semiconductor headlines, then two from other sectors.
	semiTopics := []string{
		"엔비디아 실적 발표", "TSMC 파운드리 증설", "DRAM 가격 반등 조짐",
		"HBM 수요 급증 전망", "AMD 신형 칩 공개", "메모리 업황 회복 신호",
		"파운드리 경쟁 심화 국면", "반도체 장비 투자 확대", "칩 수출 규제 완화 논의",
		"삼성전자 신규 팹 착공",
	}
	for i, topic := range semiTopics {
		items = append(items, datedArticle(topic, fmt.Sprintf("https://s.example.org/%d", i), "전자신문", float64(i+1)))
	}
	items = append(items,
		datedArticle("연준 기준금리 동결 전망", "https://m.example.org/1", "연합뉴스", 1),
		datedArticle("국제 유가 상승세 지속", "https://e.example.org/1", "이데일리", 2),
	)

	digest := newTestBuilder().Build(items, len(items), len(items), nil)

	semiCount := 0
	for title, breakdown := range digest.HeadlineDebug {
		if breakdown.Sector == SectorSemi {
			for _, h := range digest.TopHeadlines {
				if h == title {
					semiCount++
				}
			}
		}
	}
	assert.LessOrEqual(t, semiCount, maxPerSector)
	assert.LessOrEqual(t, len(digest.TopHeadlines), maxTopHeadlines)
	assert.Contains(t, digest.TopHeadlines, "연준 기준금리 동결 전망")
	assert.Contains(t, digest.TopHeadlines, "국제 유가 상승세 지속")
}

func TestDigestBuilderNoiseRecovery(t *testing.T) {
	// Every article is noise; fewer than 10 survive the filter, so the
	// top five noise articles come back instead of an empty digest.
	var items []domain.NewsArticle
	for i := 0; i < 8; i++ {
		items = append(items, datedArticle(
			fmt.Sprintf("증시 특별 이벤트 안내 %d차 소식", i),
			fmt.Sprintf("https://n.example.org/%d", i),
			"뉴스1", float64(i+1)))
	}

	digest := newTestBuilder().Build(items, len(items), len(items), nil)

	assert.NotEmpty(t, digest.TopHeadlines)
	assert.LessOrEqual(t, len(digest.TopHeadlines), maxNoiseRecovered)
}

func TestDigestBuilderSources(t *testing.T) {
	items := []domain.NewsArticle{
		datedArticle("코스피 외국인 순매수 전환", "https://example.com/placeholder", "연합뉴스", 1),
		datedArticle("삼성전자 HBM4 공급 계약 체결", "https://a.example.org/2", "한국경제", 2),
		datedArticle("연준 기준금리 동결 전망", "https://a.example.org/3", "이데일리", 3),
		datedArticle("국제 유가 상승세 지속", "https://a.example.org/4", "서울경제", 4),
		datedArticle("현대차 판매 호조 이어져", "https://a.example.org/5", "매일경제", 5),
		datedArticle("은행권 대출 규제 강화", "https://a.example.org/6", "조선일보", 6),
		datedArticle("네이버 신규 서비스 공개", "https://a.example.org/7", "전자신문", 7),
	}

	digest := newTestBuilder().Build(items, len(items), len(items), nil)

	assert.LessOrEqual(t, len(digest.Sources), maxSources)
	assert.NotContains(t, digest.Sources, "https://example.com/placeholder")
	for i, url := range digest.Sources {
		for j := i + 1; j < len(digest.Sources); j++ {
			assert.NotEqual(t, url, digest.Sources[j])
		}
	}
}

func TestBuildSectorBullets(t *testing.T) {
	items := []domain.NewsArticle{
		{Title: "엔비디아 실적 발표"},
		{Title: "TSMC 파운드리 증설"},
		{Title: "DRAM 가격 반등 조짐"},
		{Title: "HBM 수요 급증 전망"}, // 4th semi item, capped at 3
		{Title: "연준 기준금리 동결 전망"},
		{Title: "알 수 없는 소식"}, // 기타, dropped
	}

	bullets := buildSectorBullets(items)

	require.NotEmpty(t, bullets)
	for _, b := range bullets {
		assert.NotEqual(t, SectorOther, b.Sector)
		assert.LessOrEqual(t, len(b.Bullets), maxSectorBullets)
	}
	assert.Equal(t, SectorSemi, bullets[0].Sector)
	assert.Len(t, bullets[0].Bullets, 3)
}
