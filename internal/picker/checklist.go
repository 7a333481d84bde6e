package picker

import (
	"github.com/daybreak-kr/daybreak/internal/domain"
	"github.com/daybreak-kr/daybreak/internal/universe"
)

// ChecklistScore derives the six-criterion checklist for a candidate.
// Missing financial data defaults each affected criterion to the
// neutral 1, never 0 or 2: absence of data is not evidence.
func ChecklistScore(
	name string,
	hasCatalyst bool,
	inWatchlist bool,
	metrics *domain.FinancialMetrics,
) domain.Checklist {
	c := domain.Checklist{
		KnownCompany:        1,
		BusinessExplainable: 1,
		Growth3Y:            1,
		PERBand:             1,
		DebtBand:            1,
		ClearReason:         1,
	}

	if inWatchlist {
		c.KnownCompany = 2
	}

	if metrics != nil && metrics.Success {
		c.BusinessExplainable = 2
	} else if metrics == nil && universe.IsKnownSymbol(name) {
		c.BusinessExplainable = 2
	}

	if metrics != nil && metrics.Success {
		growth := metrics.RevenueGrowth3Y
		if growth == nil {
			growth = metrics.EarningsGrowth3Y
		}
		if growth != nil {
			switch {
			case *growth > 10:
				c.Growth3Y = 2
			case *growth > 0:
				c.Growth3Y = 1
			default:
				c.Growth3Y = 0
			}
		}

		if metrics.PER != nil {
			per := *metrics.PER
			switch {
			case per >= 10 && per <= 20:
				c.PERBand = 2
			case (per >= 5 && per < 10) || (per > 20 && per <= 30):
				c.PERBand = 1
			default:
				c.PERBand = 0
			}
		}

		if metrics.DebtRatio != nil {
			switch {
			case *metrics.DebtRatio <= 100:
				c.DebtBand = 2
			case *metrics.DebtRatio <= 150:
				c.DebtBand = 1
			default:
				c.DebtBand = 0
			}
		}
	}

	if hasCatalyst {
		c.ClearReason = 2
	}

	return c
}

// AssessConfidence maps the checklist total plus catalyst and
// watchlist flags to the tri-level verdict. Strict decision table:
// high demands all three conditions at once.
func AssessConfidence(total int, hasCatalyst, inWatchlist bool) (domain.Confidence, string) {
	switch {
	case total >= 10 && hasCatalyst && inWatchlist:
		return domain.ConfidenceHigh, "체크리스트 점수 높음 + catalyst + 관찰 리스트 포함"
	case total >= 8 && hasCatalyst:
		return domain.ConfidenceMid, "체크리스트 점수 양호 + catalyst 존재"
	case total >= 8:
		return domain.ConfidenceMid, "체크리스트 점수 양호"
	default:
		return domain.ConfidenceLow, "체크리스트 점수 낮음 또는 catalyst 부족"
	}
}
