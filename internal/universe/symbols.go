// Package universe holds the Korean security master: the name↔code
// table, text matching against it, and the foreign→domestic substitute
// mapping used by the candidate scorer.
package universe

import "strings"

// KRSymbols maps display names to security codes. Several aliases share
// one code (e.g. 하이닉스/SK하이닉스); dedup-by-code downstream keeps the
// higher-scored alias.
var KRSymbols = map[string]string{
	// 반도체/AI
	"삼성전자":   "005930",
	"SK하이닉스": "000660",
	"하이닉스":   "000660",

	// 2차전지/원자재
	"LG에너지솔루션": "373220",
	"LG에너솔":    "373220",
	"LG화학":     "051910",
	"삼성SDI":    "006400",
	"포스코케미칼":   "003670",
	"포스코홀딩스":   "005490",

	// 바이오/헬스
	"셀트리온":      "068270",
	"삼성바이오로직스": "207940",
	"유한양행":      "000100",
	"한미약품":      "128940",
	"녹십자":       "006280",
	"대웅제약":      "069620",

	// IT/플랫폼
	"NAVER":  "035420",
	"네이버":   "035420",
	"카카오":   "035720",
	"카카오페이": "377300",
	"카카오뱅크": "323410",
	"LG유플러스": "032640",
	"KT":     "030200",
	"SK텔레콤": "017670",

	// 자동차
	"현대차":    "005380",
	"현대자동차": "005380",
	"기아":     "000270",
	"기아자동차": "000270",
	"현대모비스": "012330",
	"만도":     "204320",

	// 금융
	"KB금융":    "105560",
	"신한지주":   "055550",
	"하나금융지주": "086790",
	"우리금융지주": "316140",
	"NH투자증권": "005940",
	"미래에셋증권": "006800",

	// 방산/조선
	"한화오션":      "042660",
	"한화":        "000880",
	"한화에어로스페이스": "012450",
	"LIG넥스원":    "079550",

	// 화학/에너지
	"롯데케미칼":   "011170",
	"SK이노베이션": "096770",
	"S-Oil":    "010950",
	"GS":       "078930",

	// 소비재
	"아모레퍼시픽": "090430",
	"LG생활건강": "051900",
	"롯데칠성":   "005300",
	"오리온":    "271560",

	// 건설/부동산
	"현대건설": "000720",
	"GS건설": "006360",

	// 기타 대형주
	"POSCO": "005490",
	"포스코":   "005490",
	"한국전력":  "015760",
	"KT&G":  "033780",
}

// ForeignToKR maps a foreign company mention to domestic substitutes
// whose candidate score gets a bump when the foreign name appears in the
// digest text. Keys are lowercase.
var ForeignToKR = map[string][]string{
	"엔비디아":   {"삼성전자", "SK하이닉스"},
	"nvidia": {"삼성전자", "SK하이닉스"},
	"amd":    {"삼성전자", "SK하이닉스"},
	"테슬라":    {"LG에너지솔루션", "삼성SDI"},
	"tesla":  {"LG에너지솔루션", "삼성SDI"},
	"애플":     {"삼성전자", "LG디스플레이"},
	"apple":  {"삼성전자", "LG디스플레이"},
}

// ChipSubstitutes are the domestic names boosted by a strong overnight
// move in the flagship foreign chip stock.
var ChipSubstitutes = []string{"삼성전자", "SK하이닉스"}

// VolatileNames are historically high-volatility names penalized on a
// risk-off overnight tone.
var VolatileNames = []string{"카카오", "카카오페이", "카카오뱅크", "셀트리온"}

// SymbolCode resolves a display name to its security code. Exact match
// first, then substring match in either direction. Returns "" when the
// name is unknown.
func SymbolCode(name string) string {
	if code, ok := KRSymbols[name]; ok {
		return code
	}

	nameLower := strings.ToLower(name)
	for symbolName, code := range KRSymbols {
		symbolLower := strings.ToLower(symbolName)
		if strings.Contains(symbolLower, nameLower) || strings.Contains(nameLower, symbolLower) {
			return code
		}
	}

	return ""
}

// IsKnownSymbol reports whether the name is in the master table.
func IsKnownSymbol(name string) bool {
	_, ok := KRSymbols[name]
	return ok
}

// FindSymbolsInText returns every master-table name mentioned in the
// text, mapped to its code. Matching is case-insensitive.
func FindSymbolsInText(text string) map[string]string {
	found := make(map[string]string)
	textLower := strings.ToLower(text)

	for symbolName, code := range KRSymbols {
		if strings.Contains(textLower, strings.ToLower(symbolName)) {
			found[symbolName] = code
		}
	}

	return found
}

// ForeignSubstitutes returns the domestic substitute names for a foreign
// company mention, or nil when none are mapped.
func ForeignSubstitutes(foreignName string) []string {
	return ForeignToKR[strings.ToLower(foreignName)]
}
