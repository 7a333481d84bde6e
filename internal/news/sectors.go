package news

import "strings"

// Sector labels form a fixed closed set; SectorOther is the catch-all.
const (
	SectorCrypto     = "코인/크립토"
	SectorBio        = "바이오/헬스"
	SectorSemi       = "반도체/AI"
	SectorMacro      = "거시/금리/달러"
	SectorEnergy     = "에너지/원유"
	SectorGold       = "금/귀금속"
	SectorVolatility = "변동성/리스크"
	SectorBattery    = "2차전지"
	SectorAuto       = "자동차"
	SectorFinance    = "금융"
	SectorDefense    = "방산/조선"
	SectorPlatform   = "IT/플랫폼"
	SectorOther      = "기타"
)

var cryptoKeywords = []string{
	"비트코인", "btc", "이더리움", "eth", "코인", "크립토", "암호화폐",
	"블록체인", "디파이", "defi", "nft", "가상자산", "가상화폐",
}

var bioKeywords = []string{
	"셀트리온", "노보", "glp-1", "fda", "임상", "신약", "제약", "바이오",
	"삼성바이오로직스", "유한양행", "한미약품", "헬스케어", "의료", "바이오텍",
}

var semiKeywords = []string{
	"nvidia", "엔비디아", "반도체", "dram", "hbm", "파운드리", "tsmc", "amd",
	"삼성전자", "sk하이닉스", "하이닉스", "sk hynix", "메모리", "칩",
}

// sectorKeywordEntry pairs a sector with its keyword list. Iterated in
// declaration order, first hit wins; crypto appears here only so the
// table stays complete, classification handles it earlier.
type sectorKeywordEntry struct {
	sector   string
	keywords []string
}

var sectorKeywordTable = []sectorKeywordEntry{
	{SectorCrypto, cryptoKeywords},
	{SectorMacro, []string{"금리", "연준", "fed", "기준금리", "인플레이션", "인플레", "cpi", "ppi", "pce", "달러", "환율", "원달러", "dxy", "달러인덱스", "국채"}},
	{SectorEnergy, []string{"유가", "원유", "wti", "브렌트", "석유", "정유", "에너지"}},
	{SectorGold, []string{"금값", "금 가격", "귀금속", "골드"}},
	{SectorVolatility, []string{"vix", "변동성", "공포지수"}},
	{SectorBattery, []string{"2차전지", "배터리", "전기차", "lg에너지솔루션", "삼성sdi", "양극재", "음극재"}},
	{SectorAuto, []string{"현대차", "기아", "자동차", "완성차", "모비스"}},
	{SectorFinance, []string{"은행", "증권", "보험", "금융지주", "kb금융", "신한지주"}},
	{SectorDefense, []string{"방산", "방위", "조선", "수주", "한화오션", "lig넥스원"}},
	{SectorPlatform, []string{"네이버", "naver", "카카오", "플랫폼", "게임", "콘텐츠"}},
}

// ClassifySector maps a title+body to a sector label by keyword priority.
// Crypto is checked before everything so a bitcoin-ETF headline never
// lands in the macro bucket; bio is checked before semiconductor so a
// drug stock mentioning "AI" stays in bio.
func ClassifySector(title, body string) string {
	text := strings.ToLower(title + " " + body)

	if containsAny(text, cryptoKeywords) {
		return SectorCrypto
	}
	if containsAny(text, bioKeywords) {
		return SectorBio
	}
	if containsAny(text, semiKeywords) {
		return SectorSemi
	}

	for _, entry := range sectorKeywordTable {
		if entry.sector == SectorCrypto { // handled above
			continue
		}
		if containsAny(text, entry.keywords) {
			return entry.sector
		}
	}

	return SectorOther
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}
