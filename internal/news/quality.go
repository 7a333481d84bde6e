package news

import (
	"math"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/daybreak-kr/daybreak/internal/domain"
)

// sourceReliability maps outlet names to a reliability score in [0, 1].
// Unknown sources fall back to 0.5.
var sourceReliability = map[string]float64{
	// 주요 경제 언론
	"연합뉴스": 1.0,
	"한국경제": 0.95,
	"매일경제": 0.95,
	"서울경제": 0.95,
	"이데일리": 0.9,
	"뉴스1":  0.9,
	"뉴시스":  0.9,

	// 종합 일간지
	"조선일보": 0.9,
	"중앙일보": 0.9,
	"동아일보": 0.9,
	"경향신문": 0.85,
	"한겨레":  0.85,

	// IT/기술 전문
	"전자신문":       0.9,
	"디지털타임스":     0.85,
	"ZDNet Korea": 0.85,

	// 방송사
	"KBS":  0.9,
	"MBC":  0.85,
	"SBS":  0.85,
	"JTBC": 0.85,

	// 해외 주요 언론
	"Bloomberg":           1.0,
	"Reuters":             1.0,
	"Wall Street Journal": 0.95,
	"Financial Times":     0.95,
	"CNBC":                0.9,
	"CNN":                 0.85,
}

const defaultReliability = 0.5

var (
	specialCharRe = regexp.MustCompile(`[!?@#$%^&*()_+=\[\]{}|\\:;"'<>,.~` + "`" + `]`)
	bangRunRe     = regexp.MustCompile(`[!?]{3,}`)
	doubleBangRe  = regexp.MustCompile(`[!?]{2}`)
)

// SourceReliability returns the reliability score for a source name.
// Exact match first, then substring match in either direction
// (e.g. "한국경제TV" resolves via "한국경제").
func SourceReliability(source string) float64 {
	if source == "" {
		return defaultReliability
	}

	if score, ok := sourceReliability[source]; ok {
		return score
	}

	for known, score := range sourceReliability {
		if strings.Contains(source, known) || strings.Contains(known, source) {
			return score
		}
	}

	return defaultReliability
}

// TitleQualityScore scores a title in [0, 1] from length, special
// character density, punctuation runs and uppercase ratio. Multipliers
// compose multiplicatively from a starting score of 1.0.
func TitleQualityScore(title string) float64 {
	title = strings.TrimSpace(title)
	if title == "" {
		return 0.0
	}

	score := 1.0

	length := len([]rune(title))
	switch {
	case length < 10:
		score *= 0.5
	case length < 20:
		score *= 0.8
	case length > 200:
		score *= 0.5
	case length > 150:
		score *= 0.8
	}

	specials := specialCharRe.FindAllString(title, -1)
	specialRatio := float64(len(specials)) / float64(length)
	switch {
	case specialRatio > 0.3:
		score *= 0.5
	case specialRatio > 0.2:
		score *= 0.7
	case specialRatio > 0.1:
		score *= 0.9
	}

	if bangRunRe.MatchString(title) {
		score *= 0.3
	} else if doubleBangRe.MatchString(title) {
		score *= 0.8
	}

	latin := 0
	upper := 0
	for _, r := range title {
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' {
			latin++
			if unicode.IsUpper(r) {
				upper++
			}
		}
	}
	if latin > 0 {
		upperRatio := float64(upper) / float64(latin)
		if upperRatio > 0.7 {
			score *= 0.5
		} else if upperRatio > 0.5 {
			score *= 0.8
		}
	}

	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// QualityScore computes the overall article quality in [0, 1]:
// title quality 40%, source reliability 40%, presence of a publish
// timestamp 20%. Rounded to 3 decimals.
func QualityScore(article domain.NewsArticle) float64 {
	titleScore := TitleQualityScore(article.Title) * 0.4
	sourceScore := SourceReliability(article.Source) * 0.4

	timeScore := 0.0
	if article.PublishedAt != nil {
		timeScore = 0.2
	}

	total := titleScore + sourceScore + timeScore
	return math.Round(total*1000) / 1000
}

// FilterByQuality keeps articles whose quality score meets the minimum.
func FilterByQuality(articles []domain.NewsArticle, minScore float64) []domain.NewsArticle {
	var filtered []domain.NewsArticle
	for _, a := range articles {
		if QualityScore(a) >= minScore {
			filtered = append(filtered, a)
		}
	}
	return filtered
}

// SortByQuality returns articles ordered by quality score. The input
// slice is not modified.
func SortByQuality(articles []domain.NewsArticle, descending bool) []domain.NewsArticle {
	sorted := make([]domain.NewsArticle, len(articles))
	copy(sorted, articles)

	sort.SliceStable(sorted, func(i, j int) bool {
		if descending {
			return QualityScore(sorted[i]) > QualityScore(sorted[j])
		}
		return QualityScore(sorted[i]) < QualityScore(sorted[j])
	})

	return sorted
}
