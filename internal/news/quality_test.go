package news

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/daybreak-kr/daybreak/internal/domain"
)

func TestSourceReliability(t *testing.T) {
	tests := []struct {
		name     string
		source   string
		expected float64
	}{
		{"exact match", "연합뉴스", 1.0},
		{"exact match foreign", "Bloomberg", 1.0},
		{"substring match", "한국경제TV", 0.95},
		{"unknown source", "이름없는블로그", 0.5},
		{"empty source", "", 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, SourceReliability(tt.source), 1e-9)
		})
	}
}

func TestTitleQualityScore(t *testing.T) {
	t.Run("normal title full score", func(t *testing.T) {
		assert.InDelta(t, 1.0, TitleQualityScore("삼성전자 실적 발표 앞두고 반도체주 강세 지속"), 1e-9)
	})

	t.Run("empty title", func(t *testing.T) {
		assert.Equal(t, 0.0, TitleQualityScore(""))
		assert.Equal(t, 0.0, TitleQualityScore("   "))
	})

	t.Run("short title penalized", func(t *testing.T) {
		// 4 runes: length multiplier 0.5.
		assert.InDelta(t, 0.5, TitleQualityScore("증시 상승"), 1e-9)
	})

	t.Run("very long title penalized", func(t *testing.T) {
		long := strings.Repeat("가", 201)
		assert.InDelta(t, 0.5, TitleQualityScore(long), 1e-9)
	})

	t.Run("long title mild penalty", func(t *testing.T) {
		long := strings.Repeat("가", 160)
		assert.InDelta(t, 0.8, TitleQualityScore(long), 1e-9)
	})

	t.Run("exclamation run heavy penalty", func(t *testing.T) {
		score := TitleQualityScore("코스피 급등!!! 지금이 기회라는 전문가들의 공통된 의견")
		normal := TitleQualityScore("코스피 급등 지금이 기회라는 전문가들의 공통된 의견")
		assert.Less(t, score, normal)
	})

	t.Run("all caps latin penalized", func(t *testing.T) {
		caps := TitleQualityScore("BREAKING NEWS MARKET CRASH IMMINENT TODAY")
		mixed := TitleQualityScore("Breaking news market conditions remain stable")
		assert.Less(t, caps, mixed)
	})
}

func TestQualityScore(t *testing.T) {
	now := time.Now().UTC()

	t.Run("best case", func(t *testing.T) {
		article := domain.NewsArticle{
			Title:       "삼성전자 실적 발표 앞두고 반도체주 강세 지속",
			Source:      "연합뉴스",
			PublishedAt: &now,
		}
		assert.InDelta(t, 1.0, QualityScore(article), 1e-9)
	})

	t.Run("missing timestamp loses recency weight", func(t *testing.T) {
		article := domain.NewsArticle{
			Title:  "삼성전자 실적 발표 앞두고 반도체주 강세 지속",
			Source: "연합뉴스",
		}
		assert.InDelta(t, 0.8, QualityScore(article), 1e-9)
	})

	t.Run("unknown source short title", func(t *testing.T) {
		// title 0.5*0.4 + source 0.5*0.4 + time 0.2 = 0.6
		article := domain.NewsArticle{
			Title:       "증시 상승",
			Source:      "블로그",
			PublishedAt: &now,
		}
		assert.InDelta(t, 0.6, QualityScore(article), 1e-9)
	})

	t.Run("rounded to three decimals", func(t *testing.T) {
		article := domain.NewsArticle{
			Title:  "증시 상승", // 0.5 * 0.4 = 0.2
			Source: "이데일리", // 0.9 * 0.4 = 0.36
		}
		assert.Equal(t, 0.56, QualityScore(article))
	})
}

func TestFilterByQuality(t *testing.T) {
	now := time.Now().UTC()
	articles := []domain.NewsArticle{
		{Title: "삼성전자 실적 발표 앞두고 반도체주 강세 지속", Source: "연합뉴스", PublishedAt: &now},
		{Title: "급등", Source: "블로그"}, // short, unknown, undated
	}

	kept := FilterByQuality(articles, 0.5)
	assert.Len(t, kept, 1)
	assert.Equal(t, articles[0].Title, kept[0].Title)
}

func TestSortByQuality(t *testing.T) {
	now := time.Now().UTC()
	articles := []domain.NewsArticle{
		{Title: "급등", Source: "블로그"},
		{Title: "삼성전자 실적 발표 앞두고 반도체주 강세 지속", Source: "연합뉴스", PublishedAt: &now},
	}

	sorted := SortByQuality(articles, true)
	assert.Equal(t, articles[1].Title, sorted[0].Title)

	// Input untouched.
	assert.Equal(t, "급등", articles[0].Title)
}
