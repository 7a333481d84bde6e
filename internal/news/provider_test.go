package news

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daybreak-kr/daybreak/internal/domain"
)

const sampleRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
<title>"삼성전자" - Google 뉴스</title>
<item>
<title>삼성전자 HBM4 양산 돌입 - 한국경제</title>
<link>https://news.example.co.kr/articles/1001</link>
<pubDate>Tue, 02 Jun 2026 21:30:00 GMT</pubDate>
<description>&lt;a href="https://news.example.co.kr/articles/1001"&gt;삼성전자 HBM4 양산 돌입&lt;/a&gt;&amp;nbsp;&amp;nbsp;한국경제</description>
</item>
<item>
<title>코스피 외국인 순매수 지속 - 연합뉴스</title>
<link>https://news.example.co.kr/articles/1002</link>
<pubDate>not a date</pubDate>
<description></description>
</item>
<item>
<title></title>
<link>https://news.example.co.kr/articles/1003</link>
</item>
</channel>
</rss>`

func TestGoogleNewsProviderFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "삼성전자", r.URL.Query().Get("q"))
		assert.Equal(t, "ko", r.URL.Query().Get("hl"))
		fmt.Fprint(w, sampleRSS)
	}))
	defer srv.Close()

	p := NewGoogleNewsProvider([]string{"삼성전자"}, 30, zerolog.Nop()).WithBaseURL(srv.URL)

	articles, err := p.FetchNews(context.Background())
	require.NoError(t, err)
	require.Len(t, articles, 2) // untitled item dropped

	byURL := make(map[string]domain.NewsArticle)
	for _, a := range articles {
		byURL[a.URL] = a
	}

	first := byURL["https://news.example.co.kr/articles/1001"]
	assert.Equal(t, "삼성전자 HBM4 양산 돌입", first.Title)
	assert.Equal(t, "한국경제", first.Source)
	require.NotNil(t, first.PublishedAt)
	assert.Equal(t, time.Date(2026, 6, 2, 21, 30, 0, 0, time.UTC), *first.PublishedAt)
	// markup stripped from the description
	assert.Contains(t, first.Body, "삼성전자 HBM4 양산 돌입")
	assert.NotContains(t, first.Body, "<a")

	second := byURL["https://news.example.co.kr/articles/1002"]
	assert.Equal(t, "코스피 외국인 순매수 지속", second.Title)
	assert.Equal(t, "연합뉴스", second.Source)
	assert.Nil(t, second.PublishedAt) // unparseable date kept as nil
}

func TestGoogleNewsProviderMaxPerQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `<?xml version="1.0"?><rss><channel>`)
		for i := 0; i < 10; i++ {
			fmt.Fprintf(w, `<item><title>서로 완전히 다른 경제 기사 제목 %d번째 - 매체%d</title>
				<link>https://news.example.co.kr/articles/%d</link>
				<pubDate>Tue, 02 Jun 2026 2%d:00:00 GMT</pubDate></item>`, i, i, i, i%4)
		}
		fmt.Fprint(w, `</channel></rss>`)
	}))
	defer srv.Close()

	p := NewGoogleNewsProvider([]string{"증시"}, 3, zerolog.Nop()).WithBaseURL(srv.URL)

	articles, err := p.FetchNews(context.Background())
	require.NoError(t, err)
	assert.Len(t, articles, 3)
}

func TestGoogleNewsProviderServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	p := NewGoogleNewsProvider([]string{"증시"}, 30, zerolog.Nop()).WithBaseURL(srv.URL)
	p.retry.BaseDelay = time.Millisecond

	// Per-query failures are swallowed; an all-failed batch surfaces
	// as ErrNoArticles.
	articles, err := p.FetchNews(context.Background())
	assert.Nil(t, articles)
	assert.ErrorIs(t, err, ErrNoArticles)
}

func TestDedupeByURLAndTitle(t *testing.T) {
	articles := []domain.NewsArticle{
		{Title: "삼성전자 HBM4 공급 계약 체결 공식 발표", URL: "https://a.com/1"},
		{Title: "삼성전자 HBM4 공급 계약 체결 공식 발표", URL: "https://a.com/1"},
		{Title: "삼성전자 HBM4 공급 계약 체결 공식 발표 소식", URL: "https://b.com/2"},
		{Title: "연준 기준금리 동결 결정", URL: "https://c.com/3"},
	}

	unique := dedupeByURLAndTitle(articles, 0.85)

	require.Len(t, unique, 2)
	assert.Equal(t, "https://a.com/1", unique[0].URL)
	assert.Equal(t, "https://c.com/3", unique[1].URL)
}

func TestDummyProvider(t *testing.T) {
	fixed := time.Date(2026, 6, 3, 8, 0, 0, 0, time.UTC)
	p := NewDummyProvider()
	p.now = func() time.Time { return fixed }

	articles, err := p.FetchNews(context.Background())
	require.NoError(t, err)
	require.Len(t, articles, 8)

	for _, a := range articles {
		assert.NotEmpty(t, a.Title)
		assert.NotEmpty(t, a.URL)
		require.NotNil(t, a.PublishedAt)
		assert.True(t, a.PublishedAt.Before(fixed))
	}
	assert.Equal(t, fixed.Add(-2*time.Hour), *articles[0].PublishedAt)
}

type failingProvider struct{ err error }

func (p failingProvider) FetchNews(context.Context) ([]domain.NewsArticle, error) {
	return nil, p.err
}

type emptyProvider struct{}

func (emptyProvider) FetchNews(context.Context) ([]domain.NewsArticle, error) {
	return nil, nil
}

func TestHybridProvider(t *testing.T) {
	t.Run("first success wins", func(t *testing.T) {
		boom := errors.New("boom")
		h := NewHybridProvider(zerolog.Nop(),
			failingProvider{err: boom}, emptyProvider{}, NewDummyProvider())

		articles, err := h.FetchNews(context.Background())
		require.NoError(t, err)
		assert.Len(t, articles, 8)
	})

	t.Run("last error propagates", func(t *testing.T) {
		first := errors.New("first")
		last := errors.New("last")
		h := NewHybridProvider(zerolog.Nop(),
			failingProvider{err: first}, failingProvider{err: last})

		_, err := h.FetchNews(context.Background())
		assert.ErrorIs(t, err, last)
	})

	t.Run("empty chain", func(t *testing.T) {
		h := NewHybridProvider(zerolog.Nop())
		_, err := h.FetchNews(context.Background())
		assert.ErrorIs(t, err, ErrNoArticles)
	})
}

func TestNewProviderFactory(t *testing.T) {
	p, err := NewProvider("dummy", nil, 0, zerolog.Nop())
	require.NoError(t, err)
	assert.IsType(t, &DummyProvider{}, p)

	p, err = NewProvider("rss", nil, 0, zerolog.Nop())
	require.NoError(t, err)
	assert.IsType(t, &GoogleNewsProvider{}, p)

	p, err = NewProvider("rss,dummy", nil, 0, zerolog.Nop())
	require.NoError(t, err)
	assert.IsType(t, &HybridProvider{}, p)

	_, err = NewProvider("naver", nil, 0, zerolog.Nop())
	assert.Error(t, err)
}
