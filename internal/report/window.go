// Package report computes collection windows and renders the daily
// reports, wiring the news, market and picker stages together.
package report

import (
	"fmt"
	"sort"
	"time"

	"github.com/daybreak-kr/daybreak/internal/domain"
)

// KST is the market timezone; all window boundaries are expressed in it.
var KST = time.FixedZone("KST", 9*60*60)

const (
	WindowModeStrict = "strict"
	WindowModeNow    = "now"

	defaultLookbackHours = 24
)

// Window is a half-open-ish collection range [Start, End], both KST.
type Window struct {
	Start         time.Time
	End           time.Time
	Mode          string
	LookbackHours int
}

// ComputeWindow derives the news collection window for the given wall
// clock. Strict mode covers the overnight session, 18:00 of the
// previous day through 08:00 today; now mode looks back a fixed number
// of hours from the current instant. An unknown mode is a
// configuration mistake and is reported, not silently papered over.
func ComputeWindow(now time.Time, mode string, lookbackHours int) (Window, error) {
	nowKST := now.In(KST)
	if lookbackHours <= 0 {
		lookbackHours = defaultLookbackHours
	}

	switch mode {
	case "", WindowModeStrict:
		midnight := time.Date(nowKST.Year(), nowKST.Month(), nowKST.Day(), 0, 0, 0, 0, KST)
		return Window{
			Start: midnight.AddDate(0, 0, -1).Add(18 * time.Hour),
			End:   midnight.Add(8 * time.Hour),
			Mode:  WindowModeStrict,
		}, nil
	case WindowModeNow:
		return Window{
			Start:         nowKST.Add(-time.Duration(lookbackHours) * time.Hour),
			End:           nowKST,
			Mode:          WindowModeNow,
			LookbackHours: lookbackHours,
		}, nil
	default:
		return Window{}, fmt.Errorf("unknown news window mode %q", mode)
	}
}

// FilterDebug breaks down why articles fell out of the window.
type FilterDebug struct {
	TooOld int
	TooNew int
	NoTime int
}

// FilterByWindow keeps articles inside the window. Undated articles
// pass through and are counted; comparison happens in UTC.
func FilterByWindow(articles []domain.NewsArticle, w Window) ([]domain.NewsArticle, FilterDebug) {
	startUTC := w.Start.UTC()
	endUTC := w.End.UTC()

	var debug FilterDebug
	filtered := make([]domain.NewsArticle, 0, len(articles))
	for _, article := range articles {
		if article.PublishedAt == nil {
			debug.NoTime++
			filtered = append(filtered, article)
			continue
		}

		at := article.PublishedAt.UTC()
		if at.Before(startUTC) {
			debug.TooOld++
			continue
		}
		if at.After(endUTC) {
			debug.TooNew++
			continue
		}
		filtered = append(filtered, article)
	}

	return filtered, debug
}

// SortNewestFirst returns a copy ordered newest first, undated articles
// sinking to the bottom.
func SortNewestFirst(articles []domain.NewsArticle) []domain.NewsArticle {
	sorted := make([]domain.NewsArticle, len(articles))
	copy(sorted, articles)

	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i].PublishedAt, sorted[j].PublishedAt
		if a == nil {
			return false
		}
		if b == nil {
			return true
		}
		return a.After(*b)
	})

	return sorted
}
