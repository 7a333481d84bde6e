package picker

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/daybreak-kr/daybreak/internal/domain"
	"github.com/daybreak-kr/daybreak/internal/llm"
	"github.com/daybreak-kr/daybreak/internal/universe"
)

const (
	defaultMaxCandidates = 15
	defaultMaxWatch      = 3

	observationTrigger = "갭상승 시 추격 금지, 변동성 확인 후 관찰"
)

// Picker selects the daily watchlist. When a generator is attached it
// tries the model-assisted path first and falls back to the rule-based
// path on any validation failure.
type Picker struct {
	watchlist []string
	metrics   MetricsFetcher // optional
	generator llm.Generator  // optional
	validate  *validator.Validate
	log       zerolog.Logger
}

func New(watchlist []string, metrics MetricsFetcher, generator llm.Generator, log zerolog.Logger) *Picker {
	return &Picker{
		watchlist: watchlist,
		metrics:   metrics,
		generator: generator,
		validate:  validator.New(),
		log:       log.With().Str("component", "picker").Logger(),
	}
}

// PickWatchStocks produces at most maxCount WatchStock entries for the
// report date, preserving score-descending order from whichever path
// selected them. Never returns an error: a failed model path degrades
// to the rule path, an empty candidate pool degrades to the fallback
// seed, and an empty seed yields an empty list.
func (p *Picker) PickWatchStocks(
	ctx context.Context,
	digest domain.NewsDigest,
	articles []domain.NewsArticle,
	signals map[string]domain.OvernightSignal,
	tone domain.MarketTone,
	reportDate time.Time,
	maxCount int,
) []domain.WatchStock {
	if maxCount <= 0 {
		maxCount = defaultMaxWatch
	}

	candidates := CreateCandidates(ctx, digest, articles, p.watchlist, signals, tone,
		defaultMaxCandidates, p.metrics, reportDate)
	if len(candidates) == 0 {
		p.log.Warn().Msg("no candidates, watchlist empty")
		return nil
	}

	if p.generator != nil {
		picks, err := p.pickWithModel(ctx, digest, candidates, maxCount)
		if err == nil {
			p.log.Info().Int("count", len(picks)).Msg("model-assisted selection accepted")
			return picks
		}
		p.log.Warn().Err(err).Msg("model-assisted selection rejected, using rule-based path")
	}

	return p.pickByRules(digest, articles, candidates, maxCount)
}

// --- model-assisted path ---

type modelChecklist struct {
	KnownCompany        int `json:"known_company" validate:"min=0,max=2"`
	BusinessExplainable int `json:"business_explainable" validate:"min=0,max=2"`
	Growth3Y            int `json:"growth_3y" validate:"min=0,max=2"`
	PERBand             int `json:"per_band" validate:"min=0,max=2"`
	DebtBand            int `json:"debt_band" validate:"min=0,max=2"`
	ClearReason         int `json:"clear_reason" validate:"min=0,max=2"`
}

type modelSelection struct {
	Name       string         `json:"name" validate:"required"`
	Code       string         `json:"code" validate:"required"`
	Confidence string         `json:"confidence" validate:"required,oneof=low mid high"`
	Thesis     string         `json:"thesis" validate:"required"`
	Catalysts  []string       `json:"catalysts" validate:"max=2"`
	Risks      []string       `json:"risks" validate:"len=2,dive,required"`
	Trigger    string         `json:"trigger" validate:"required"`
	Checklist  modelChecklist `json:"checklist"`
	NewsRefs   []int          `json:"news_refs"`
}

type modelResponse struct {
	Selections []modelSelection `json:"selections" validate:"required,min=1,max=3,dive"`
}

const selectionSystemPrompt = `당신은 한국 주식 시장 모닝 브리핑의 종목 선정 도우미입니다.
제공된 후보 종목 중에서만 1~3개를 선택해 JSON으로 응답하세요.
후보에 없는 종목을 추가하거나 종목코드를 변경하면 안 됩니다.
응답은 JSON 객체 하나만, 다른 텍스트 없이 출력하세요.`

// pickWithModel runs the constrained-JSON selection. Acceptance is
// all-or-nothing: one unknown (name, code) pair, a bad selection
// count, or a missing field rejects the whole response. Hallucinated
// tickers must never reach the report.
func (p *Picker) pickWithModel(
	ctx context.Context,
	digest domain.NewsDigest,
	candidates []domain.StockCandidate,
	maxCount int,
) ([]domain.WatchStock, error) {
	userPrompt := buildSelectionPrompt(digest, candidates, maxCount)

	var resp modelResponse
	if err := p.generator.GenerateJSON(ctx, selectionSystemPrompt, userPrompt, &resp); err != nil {
		return nil, fmt.Errorf("generation failed: %w", err)
	}

	if err := p.validate.Struct(resp); err != nil {
		return nil, fmt.Errorf("schema validation failed: %w", err)
	}
	if len(resp.Selections) > maxCount {
		return nil, fmt.Errorf("model selected %d stocks, max %d", len(resp.Selections), maxCount)
	}

	byCode := make(map[string]domain.StockCandidate, len(candidates))
	for _, c := range candidates {
		byCode[c.Code] = c
	}

	picks := make([]domain.WatchStock, 0, len(resp.Selections))
	for _, sel := range resp.Selections {
		candidate, ok := byCode[sel.Code]
		if !ok || candidate.Name != sel.Name {
			return nil, fmt.Errorf("selection (%s, %s) not in candidate set", sel.Name, sel.Code)
		}

		hasCatalyst := len(sel.Catalysts) > 0 || len(candidate.MatchedHeadlines) > 0
		inWatchlist := p.inWatchlist(sel.Name)

		// Metrics-derived scores win per criterion when higher: an
		// available financial signal is never ignored.
		derived := ChecklistScore(sel.Name, hasCatalyst, inWatchlist, candidate.Financials)
		merged := derived.Merge(domain.Checklist{
			KnownCompany:        sel.Checklist.KnownCompany,
			BusinessExplainable: sel.Checklist.BusinessExplainable,
			Growth3Y:            sel.Checklist.Growth3Y,
			PERBand:             sel.Checklist.PERBand,
			DebtBand:            sel.Checklist.DebtBand,
			ClearReason:         sel.Checklist.ClearReason,
		})
		total := merged.Total()
		confidence, reason := AssessConfidence(total, hasCatalyst, inWatchlist)

		catalysts := sel.Catalysts
		if len(catalysts) == 0 {
			catalysts = candidate.MatchedHeadlines
			if len(catalysts) > 2 {
				catalysts = catalysts[:2]
			}
		}

		picks = append(picks, domain.WatchStock{
			Name:             sel.Name,
			Code:             sel.Code,
			Thesis:           sel.Thesis,
			Catalysts:        catalysts,
			Risks:            sel.Risks,
			Trigger:          sel.Trigger,
			Checklist:        merged,
			TotalScore:       total,
			Confidence:       confidence,
			ConfidenceReason: reason,
		})
	}

	return picks, nil
}

func buildSelectionPrompt(digest domain.NewsDigest, candidates []domain.StockCandidate, maxCount int) string {
	var sb strings.Builder

	sb.WriteString("## 오늘의 뉴스 요약\n")
	sb.WriteString(digest.MacroSummary)
	sb.WriteString("\n\n## 주요 헤드라인\n")
	for i, h := range digest.TopHeadlines {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, h)
	}

	if len(digest.SectorBullets) > 0 {
		sb.WriteString("\n## 섹터별 뉴스\n")
		for _, sec := range digest.SectorBullets {
			fmt.Fprintf(&sb, "[%s]\n", sec.Sector)
			for _, b := range sec.Bullets {
				fmt.Fprintf(&sb, "- %s\n", b)
			}
		}
	}

	sb.WriteString("\n## 후보 종목\n")
	for _, c := range candidates {
		fmt.Fprintf(&sb, "- %s (%s), 점수 %d", c.Name, c.Code, c.Score)
		if c.Financials != nil && c.Financials.Success {
			if c.Financials.PER != nil {
				fmt.Fprintf(&sb, ", PER %.1f", *c.Financials.PER)
			}
			if c.Financials.DebtRatio != nil {
				fmt.Fprintf(&sb, ", 부채비율 %.0f%%", *c.Financials.DebtRatio)
			}
		}
		sb.WriteString("\n")
	}

	schema := modelResponse{Selections: []modelSelection{{
		Name: "종목명", Code: "종목코드", Confidence: "low|mid|high",
		Thesis: "한 줄 thesis", Catalysts: []string{"관련 헤드라인"},
		Risks: []string{"리스크1", "리스크2"}, Trigger: "관찰 트리거",
	}}}
	example, _ := json.Marshal(schema)

	fmt.Fprintf(&sb, "\n위 후보 중 1~%d개를 선택하세요. 응답 형식:\n%s\n", maxCount, string(example))
	return sb.String()
}

// --- rule-based path ---

func (p *Picker) pickByRules(
	digest domain.NewsDigest,
	articles []domain.NewsArticle,
	candidates []domain.StockCandidate,
	maxCount int,
) []domain.WatchStock {
	if len(candidates) > maxCount {
		candidates = candidates[:maxCount]
	}

	picks := make([]domain.WatchStock, 0, len(candidates))
	for _, candidate := range candidates {
		catalysts := findCatalysts(candidate.Name, digest, articles)
		hasCatalyst := len(catalysts) > 0
		if !hasCatalyst {
			catalysts = []string{candidate.Name + " 관련 뉴스"}
		}

		inWatchlist := p.inWatchlist(candidate.Name)
		checklist := ChecklistScore(candidate.Name, hasCatalyst, inWatchlist, candidate.Financials)
		total := checklist.Total()
		confidence, reason := AssessConfidence(total, hasCatalyst, inWatchlist)

		picks = append(picks, domain.WatchStock{
			Name:             candidate.Name,
			Code:             candidate.Code,
			Thesis:           synthesizeThesis(candidate.Name, catalysts[0], hasCatalyst),
			Catalysts:        catalysts,
			Risks:            generateRisks(candidate.Name, candidate.Sector),
			Trigger:          observationTrigger,
			Checklist:        checklist,
			TotalScore:       total,
			Confidence:       confidence,
			ConfidenceReason: reason,
		})
	}

	p.log.Info().Int("count", len(picks)).Msg("rule-based selection completed")
	return picks
}

// findCatalysts searches for headlines mentioning the candidate, in
// priority order: raw articles, top headlines, sector bullets, then
// foreign-substitute cross-references. At most 2.
func findCatalysts(name string, digest domain.NewsDigest, articles []domain.NewsArticle) []string {
	nameLower := strings.ToLower(name)
	seen := make(map[string]struct{})
	var catalysts []string

	consider := func(title string) bool {
		if len(catalysts) >= 2 {
			return true
		}
		if !strings.Contains(strings.ToLower(title), nameLower) {
			return false
		}
		if _, dup := seen[title]; dup {
			return false
		}
		seen[title] = struct{}{}
		catalysts = append(catalysts, title)
		return len(catalysts) >= 2
	}

	for _, a := range articles {
		if consider(a.Title) {
			return catalysts
		}
	}
	for _, h := range digest.TopHeadlines {
		if consider(h) {
			return catalysts
		}
	}
	for _, sec := range digest.SectorBullets {
		for _, b := range sec.Bullets {
			if consider(b) {
				return catalysts
			}
		}
	}

	// Cross-reference: a headline naming the foreign counterpart also
	// counts as a catalyst for its domestic substitute.
	for foreignName, substitutes := range universe.ForeignToKR {
		related := false
		for _, sub := range substitutes {
			if sub == name {
				related = true
				break
			}
		}
		if !related {
			continue
		}
		for _, h := range digest.TopHeadlines {
			if len(catalysts) >= 2 {
				return catalysts
			}
			if _, dup := seen[h]; dup {
				continue
			}
			if strings.Contains(strings.ToLower(h), foreignName) {
				seen[h] = struct{}{}
				catalysts = append(catalysts, h)
			}
		}
	}

	return catalysts
}

// thesisPatterns map a keyword in the first catalyst to a thesis
// template. First hit wins; order matters.
var thesisPatterns = []struct {
	keyword string
	thesis  string
}{
	{"실적", "%s 실적 모멘텀에 따른 관찰 필요"},
	{"수주", "%s 수주 소식에 따른 관찰 필요"},
	{"계약", "%s 계약 체결 소식에 따른 관찰 필요"},
	{"급등", "%s 관련 뉴스 급등 모멘텀 관찰 필요"},
	{"신제품", "%s 신제품 발표에 따른 관찰 필요"},
	{"규제", "%s 규제 이슈 영향 관찰 필요"},
}

func synthesizeThesis(name, firstCatalyst string, hasCatalyst bool) string {
	if !hasCatalyst {
		return name + " 섹터 동향 관찰"
	}
	for _, pattern := range thesisPatterns {
		if strings.Contains(firstCatalyst, pattern.keyword) {
			return fmt.Sprintf(pattern.thesis, name)
		}
	}
	return name + " 관련 뉴스로 인한 관찰 필요"
}

// sectorRisks specializes the first risk line by sector keyword.
var sectorRisks = []struct {
	keyword string
	risk    string
}{
	{"반도체", "반도체 업황 사이클 변동성"},
	{"2차전지", "전기차 수요 변동성 및 원자재 가격 변동"},
	{"바이오", "신약 개발 및 규제 승인 불확실성"},
	{"코인", "가상자산 시장 변동성 확대 가능성"},
	{"금융", "금리 변동에 따른 수익성 변화"},
}

// generateRisks returns exactly 2 risks: one market/sector risk and
// one financial-data caveat.
func generateRisks(name, sector string) []string {
	first := "시장 변동성 및 리스크 존재"
	for _, sr := range sectorRisks {
		if strings.Contains(sector, sr.keyword) || strings.Contains(name, sr.keyword) {
			first = sr.risk
			break
		}
	}
	return []string{first, "재무데이터 확인 필요 (PER, 부채비율 등)"}
}

func (p *Picker) inWatchlist(name string) bool {
	for _, w := range p.watchlist {
		if w == name {
			return true
		}
	}
	return false
}
