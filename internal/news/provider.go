package news

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/mail"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"

	"github.com/daybreak-kr/daybreak/internal/domain"
	"github.com/daybreak-kr/daybreak/pkg/retry"
	"github.com/daybreak-kr/daybreak/pkg/textutil"
)

// DefaultQueries is the search set used when no queries are configured.
var DefaultQueries = []string{
	"미국 증시", "나스닥", "S&P500", "연준 금리", "달러 환율", "유가",
	"엔비디아", "반도체", "AI", "비트코인", "한국 증시", "외국인 수급",
	"삼성전자", "SK하이닉스",
}

const (
	defaultMaxPerQuery = 30

	// Collection-stage quality gate; deliberately loose, the digest
	// builder applies the strict filtering later.
	collectMinQuality = 0.4
)

// ErrNoArticles marks a provider that responded but produced nothing.
var ErrNoArticles = errors.New("news: provider returned no articles")

// Provider fetches raw news articles. Implementations own their retry
// and dedup; callers receive either articles or an error, never both.
type Provider interface {
	FetchNews(ctx context.Context) ([]domain.NewsArticle, error)
}

// NewProvider builds a provider from its config name: "dummy", "rss",
// or a comma-separated chain tried in order ("rss,dummy").
func NewProvider(name string, queries []string, maxPerQuery int, log zerolog.Logger) (Provider, error) {
	if strings.Contains(name, ",") {
		var chain []Provider
		for _, part := range strings.Split(name, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			p, err := NewProvider(part, queries, maxPerQuery, log)
			if err != nil {
				return nil, err
			}
			chain = append(chain, p)
		}
		return NewHybridProvider(log, chain...), nil
	}

	switch name {
	case "", "dummy":
		return NewDummyProvider(), nil
	case "rss":
		return NewGoogleNewsProvider(queries, maxPerQuery, log), nil
	default:
		return nil, fmt.Errorf("unknown news provider %q", name)
	}
}

// DummyProvider serves a fixed batch of plausible articles with
// now-relative timestamps. Used in tests and dry runs.
type DummyProvider struct {
	now func() time.Time
}

func NewDummyProvider() *DummyProvider {
	return &DummyProvider{now: time.Now}
}

func (p *DummyProvider) FetchNews(_ context.Context) ([]domain.NewsArticle, error) {
	base := p.now().UTC()
	stamp := func(hoursAgo int) *time.Time {
		t := base.Add(-time.Duration(hoursAgo) * time.Hour)
		return &t
	}

	return []domain.NewsArticle{
		{
			Title:       "삼성전자, 반도체 업황 개선 기대감 확산",
			URL:         "https://example.com/news/1",
			PublishedAt: stamp(2),
			Source:      "더미 뉴스",
			Body:        "삼성전자가 최근 반도체 업황 개선 기대감에 힘입어 주가가 상승세를 보이고 있습니다.",
		},
		{
			Title:       "SK하이닉스, HBM 수요 증가로 실적 개선 전망",
			URL:         "https://example.com/news/2",
			PublishedAt: stamp(3),
			Source:      "더미 뉴스",
			Body:        "SK하이닉스가 AI 반도체 수요 증가로 HBM 매출이 크게 늘어날 것으로 예상됩니다.",
		},
		{
			Title:       "엔비디아, AI 반도체 수요 급증으로 실적 상승",
			URL:         "https://example.com/news/3",
			PublishedAt: stamp(4),
			Source:      "더미 뉴스",
			Body:        "엔비디아가 AI 반도체 수요 급증으로 실적이 크게 상승했습니다.",
		},
		{
			Title:       "연준, 기준금리 동결 결정 발표",
			URL:         "https://example.com/news/4",
			PublishedAt: stamp(5),
			Source:      "더미 뉴스",
			Body:        "연준이 기준금리를 동결하기로 결정했습니다.",
		},
		{
			Title:       "나스닥, AI 주도 상승세 지속",
			URL:         "https://example.com/news/5",
			PublishedAt: stamp(6),
			Source:      "더미 뉴스",
			Body:        "나스닥이 AI 관련 주식의 상승세로 인해 지속적인 상승을 보이고 있습니다.",
		},
		{
			Title:       "비트코인, 현물 ETF 승인 기대감 확산",
			URL:         "https://example.com/news/6",
			PublishedAt: stamp(7),
			Source:      "더미 뉴스",
			Body:        "비트코인 현물 ETF 승인 기대감이 확산되며 가격이 상승했습니다.",
		},
		{
			Title:       "LG에너지솔루션, 전기차 배터리 수주 증가",
			URL:         "https://example.com/news/7",
			PublishedAt: stamp(8),
			Source:      "더미 뉴스",
			Body:        "LG에너지솔루션이 전기차 배터리 수주가 증가했다고 발표했습니다.",
		},
		{
			Title:       "원달러 환율, 하락세 지속",
			URL:         "https://example.com/news/8",
			PublishedAt: stamp(9),
			Source:      "더미 뉴스",
			Body:        "원달러 환율이 하락세를 보이며 달러 약세가 지속되고 있습니다.",
		},
	}, nil
}

const googleNewsBaseURL = "https://news.google.com/rss/search"

// GoogleNewsProvider collects articles from the Google News RSS search
// endpoint, one request per configured query, then quality-filters and
// deduplicates the merged batch.
type GoogleNewsProvider struct {
	queries     []string
	maxPerQuery int
	client      *http.Client
	baseURL     string
	retry       retry.Config
	log         zerolog.Logger
}

func NewGoogleNewsProvider(queries []string, maxPerQuery int, log zerolog.Logger) *GoogleNewsProvider {
	if len(queries) == 0 {
		queries = DefaultQueries
	}
	if maxPerQuery <= 0 {
		maxPerQuery = defaultMaxPerQuery
	}
	return &GoogleNewsProvider{
		queries:     queries,
		maxPerQuery: maxPerQuery,
		client:      &http.Client{Timeout: 30 * time.Second},
		baseURL:     googleNewsBaseURL,
		retry:       retry.DefaultConfig(),
		log:         log.With().Str("component", "news-rss").Logger(),
	}
}

// WithBaseURL points the provider at a different endpoint.
func (p *GoogleNewsProvider) WithBaseURL(baseURL string) *GoogleNewsProvider {
	p.baseURL = baseURL
	return p
}

type rssFeed struct {
	Channel struct {
		Items []rssItem `xml:"item"`
	} `xml:"channel"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	PubDate     string `xml:"pubDate"`
	Description string `xml:"description"`
}

func (p *GoogleNewsProvider) FetchNews(ctx context.Context) ([]domain.NewsArticle, error) {
	var merged []domain.NewsArticle
	parsedOK, parsedFail := 0, 0

	for _, query := range p.queries {
		query = strings.TrimSpace(query)
		if query == "" {
			continue
		}

		items, err := p.fetchQuery(ctx, query)
		if err != nil {
			// One failed query must not sink the batch.
			p.log.Warn().Err(err).Str("query", query).Msg("query fetch failed")
			continue
		}

		for _, item := range items {
			if item.PublishedAt != nil {
				parsedOK++
			} else {
				parsedFail++
			}
		}
		merged = append(merged, items...)
		p.log.Debug().Str("query", query).Int("count", len(items)).Msg("query collected")
	}

	p.log.Info().
		Int("fetched", len(merged)).
		Int("queries", len(p.queries)).
		Int("dates_parsed", parsedOK).
		Int("dates_failed", parsedFail).
		Msg("collection finished")

	if len(merged) == 0 {
		return nil, ErrNoArticles
	}

	// Loose quality gate, then quality-descending dedup so the better
	// copy of a syndicated story survives.
	filtered := FilterByQuality(merged, collectMinQuality)
	ranked := SortByQuality(filtered, true)
	unique := dedupeByURLAndTitle(ranked, dedupTitleThreshold)

	p.log.Info().
		Int("after_quality", len(filtered)).
		Int("after_dedup", len(unique)).
		Msg("collection cleaned")

	return unique, nil
}

func (p *GoogleNewsProvider) fetchQuery(ctx context.Context, query string) ([]domain.NewsArticle, error) {
	endpoint := fmt.Sprintf("%s?q=%s&hl=ko&gl=KR&ceid=KR:ko", p.baseURL, url.QueryEscape(query))

	var body []byte
	err := retry.Do(ctx, p.retry, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return err
		}
		req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")

		resp, err := p.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("rss request returned status %d", resp.StatusCode)
		}

		body, err = io.ReadAll(resp.Body)
		return err
	})
	if err != nil {
		return nil, err
	}

	var feed rssFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return nil, fmt.Errorf("rss parse: %w", err)
	}

	items := feed.Channel.Items
	if len(items) > p.maxPerQuery {
		items = items[:p.maxPerQuery]
	}

	articles := make([]domain.NewsArticle, 0, len(items))
	for _, item := range items {
		title := strings.TrimSpace(item.Title)
		link := strings.TrimSpace(item.Link)
		if title == "" || link == "" {
			continue
		}

		// Google News appends the outlet as " - 출처명".
		source := ""
		if idx := strings.LastIndex(title, " - "); idx > 0 {
			source = strings.TrimSpace(title[idx+3:])
			title = strings.TrimSpace(title[:idx])
		}

		articles = append(articles, domain.NewsArticle{
			Title:       title,
			URL:         link,
			PublishedAt: parsePubDate(item.PubDate),
			Source:      source,
			Body:        cleanDescription(item.Description),
		})
	}

	return articles, nil
}

// parsePubDate handles the RFC 822/1123 variants RSS feeds emit.
// Returns nil rather than failing the item; an undated article is
// still usable downstream.
func parsePubDate(text string) *time.Time {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	parsed, err := mail.ParseDate(text)
	if err != nil {
		return nil
	}
	utc := parsed.UTC()
	return &utc
}

// cleanDescription strips the HTML markup Google News packs into the
// description element, leaving plain text for the body.
func cleanDescription(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(doc.Text())
}

// dedupeByURLAndTitle keeps the first occurrence per URL and per
// near-identical normalized title. Input order decides the survivor,
// so callers sort by quality first.
func dedupeByURLAndTitle(articles []domain.NewsArticle, titleThreshold float64) []domain.NewsArticle {
	seenURLs := make(map[string]struct{}, len(articles))
	var seenTitles []string
	var unique []domain.NewsArticle

	for _, article := range articles {
		if _, dup := seenURLs[article.URL]; dup {
			continue
		}

		normalized := textutil.NormalizeTitle(article.Title)
		titleDup := false
		for _, seen := range seenTitles {
			if textutil.Jaccard(normalized, seen) >= titleThreshold {
				titleDup = true
				break
			}
		}
		if titleDup {
			continue
		}

		seenURLs[article.URL] = struct{}{}
		seenTitles = append(seenTitles, normalized)
		unique = append(unique, article)
	}

	return unique
}

// HybridProvider tries each provider in order and returns the first
// non-empty result. The last error propagates only when every provider
// failed.
type HybridProvider struct {
	providers []Provider
	log       zerolog.Logger
}

func NewHybridProvider(log zerolog.Logger, providers ...Provider) *HybridProvider {
	return &HybridProvider{
		providers: providers,
		log:       log.With().Str("component", "news-hybrid").Logger(),
	}
}

func (p *HybridProvider) FetchNews(ctx context.Context) ([]domain.NewsArticle, error) {
	lastErr := ErrNoArticles
	for i, provider := range p.providers {
		articles, err := provider.FetchNews(ctx)
		if err != nil {
			p.log.Warn().Err(err).Int("provider", i).Msg("provider failed, trying next")
			lastErr = err
			continue
		}
		if len(articles) == 0 {
			lastErr = ErrNoArticles
			continue
		}
		return articles, nil
	}
	return nil, lastErr
}
