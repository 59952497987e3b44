package lightmeter

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLightCondition(t *testing.T) {
	tests := []struct {
		fullSun  float64
		recorded float64
		want     string
	}{
		{6, 8, "Full Sun"},
		{3, 8, "Partial Sun"},
		{1, 8, "Partial Shade"},
		{0.5, 8, "Shade"},
		{0, 0, "Shade"},
		{0.1, 0, "Full Sun"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, lightCondition(tt.fullSun, tt.recorded), "%v/%v", tt.fullSun, tt.recorded)
	}
}

func TestGetHistoricalConditions(t *testing.T) {
	m, _ := newTestMeter(t)
	rows := []struct {
		lux       float64
		createdAt string
	}{
		{20000, "2024-06-01 12:00:00"},
		{20000, "2024-06-01 12:01:00"},
		{100, "2024-06-01 13:00:00"},
		{50000, "2024-06-03 12:00:00"},
	}
	for _, r := range rows {
		_, err := m.ResultsDB.Exec("INSERT INTO sunlight (job_id, lux, raw, mode, mtreg, created_at) VALUES ('job', ?, 0, 16, 69, ?)", r.lux, r.createdAt)
		require.NoError(t, err)
	}

	conditions, err := m.getHistoricalConditions(Conditions{}, "2024-06-01 00:00:00", "2024-06-02 00:00:00")
	require.NoError(t, err)
	assert.InDelta(t, 13366.667, conditions.AverageLuxInRange, 0.001)
	assert.InDelta(t, 1.0, conditions.RecordedHoursInRange, 0.0001)
	assert.InDelta(t, 2.0/60, conditions.FullSunlightInRange, 0.0001)
	assert.Equal(t, "Shade", conditions.LightConditionInRange)
	assert.Equal(t, "2024-06-01 00:00:00 - 2024-06-02 00:00:00 UTC", conditions.DateRange)

	conditions, err = m.getHistoricalConditions(Conditions{}, "2024-07-01 00:00:00", "2024-07-02 00:00:00")
	require.NoError(t, err)
	assert.Equal(t, "No Data in Range", conditions.LightConditionInRange)
}

func TestServeResultsGraph(t *testing.T) {
	m, _ := newTestMeter(t)
	require.NoError(t, m.recordResult(LuxResults{Lux: 1234, Raw: 1481, Mode: 0x10, MTReg: 69, JobID: "job"}))

	rec := httptest.NewRecorder()
	m.ServeResultsGraph()(rec, httptest.NewRequest(http.MethodPost, "/lightmeter/graph", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "resultUpdateTrigger")
	assert.Contains(t, rec.Body.String(), "1234")
}

func TestServeResultsTab(t *testing.T) {
	m, _ := newTestMeter(t)

	rec := httptest.NewRecorder()
	m.ServeResultsTab()(rec, httptest.NewRequest(http.MethodPost, "/lightmeter/results", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "No readings recorded")
	assert.Contains(t, rec.Body.String(), "No Data in Range")
}

func TestServeSensorStatus(t *testing.T) {
	m, _ := newTestMeter(t)

	rec := httptest.NewRecorder()
	m.ServeSensorStatus()(rec, httptest.NewRequest(http.MethodGet, "/lightmeter/status", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "BH1750 at 0x23: Idle")

	m = NewLightMeter(nil, nil, 1)
	rec = httptest.NewRecorder()
	m.ServeSensorStatus()(rec, httptest.NewRequest(http.MethodGet, "/lightmeter/status", nil))
	assert.Contains(t, rec.Body.String(), "Sensor not connected")
}

func TestServeDashboard(t *testing.T) {
	m, _ := newTestMeter(t)

	rec := httptest.NewRecorder()
	m.ServeDashboard()(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<title>Light Meter</title>")

	rec = httptest.NewRecorder()
	m.ServeControls()(rec, httptest.NewRequest(http.MethodGet, "/lightmeter/controls", nil))
	assert.Contains(t, rec.Body.String(), `hx-post="/lightmeter/mtreg"`)
}
