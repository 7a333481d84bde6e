package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daybreak-kr/daybreak/internal/database"
	"github.com/daybreak-kr/daybreak/internal/database/repositories"
	"github.com/daybreak-kr/daybreak/internal/domain"
	"github.com/daybreak-kr/daybreak/internal/report"
)

func newTestServer(t *testing.T) (*Server, *repositories.ReportStore, *report.State) {
	t.Helper()
	db, err := database.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, db.Migrate())
	t.Cleanup(func() { _ = db.Close() })

	state := report.NewState()
	store := repositories.NewReportStore(db.Conn(), zerolog.Nop())
	s := New(Config{Port: 0, Log: zerolog.Nop(), State: state, Store: store, DevMode: true})
	return s, store, state
}

func get(t *testing.T, s *Server, path string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func TestHandleHealth(t *testing.T) {
	s, _, _ := newTestServer(t)

	rec, body := get(t, s, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "daybreak", body["service"])
}

func TestHandleSystemStatus(t *testing.T) {
	s, _, _ := newTestServer(t)

	rec, body := get(t, s, "/api/system/status")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "running", body["status"])
	assert.NotNil(t, body["memory"])
}

func TestHandleMorningReport(t *testing.T) {
	s, _, state := newTestServer(t)

	rec, body := get(t, s, "/api/reports/morning")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, body["error"], "no morning report")

	state.SetMorning(report.Result{
		Text: "*🌅 오전 리포트*",
		Tone: domain.ToneRiskOn,
		WatchStocks: []domain.WatchStock{
			{Name: "삼성전자", Code: "005930", Confidence: domain.ConfidenceMid},
		},
	})

	rec, body = get(t, s, "/api/reports/morning")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*🌅 오전 리포트*", body["text"])
	assert.Equal(t, "risk_on", body["tone"])
	assert.NotEmpty(t, body["generated_at"])
	assert.Len(t, body["watch_stocks"], 1)
}

func TestHandleEveningReport(t *testing.T) {
	s, _, state := newTestServer(t)

	rec, _ := get(t, s, "/api/reports/evening")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	state.SetEvening("*📊 오후 리포트*")
	rec, body := get(t, s, "/api/reports/evening")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*📊 오후 리포트*", body["text"])
}

func TestHandleRecommendations(t *testing.T) {
	s, store, _ := newTestServer(t)
	ctx := context.Background()

	rec, body := get(t, s, "/api/recommendations/latest")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, body["error"], "no recommendations")

	symbolID, err := store.UpsertSymbol(ctx, "삼성전자", "005930")
	require.NoError(t, err)
	require.NoError(t, store.UpsertRecommendation(ctx, domain.Recommendation{
		Day:        "2026-06-03",
		SymbolID:   symbolID,
		Reason:     "실적 개선 기대",
		Priority:   1,
		Confidence: domain.ConfidenceMid,
		TotalScore: 9,
	}))

	rec, body = get(t, s, "/api/recommendations/latest")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2026-06-03", body["day"])
	assert.Len(t, body["recommendations"], 1)

	rec, body = get(t, s, "/api/recommendations/2026-06-03")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["recommendations"], 1)

	rec, body = get(t, s, "/api/recommendations/not-a-day")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, body["error"], "YYYY-MM-DD")
}
