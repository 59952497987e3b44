package tools

import (
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsLocalAddress(t *testing.T) {
	tests := []struct {
		ip   string
		want bool
	}{
		{"127.0.0.1", true},
		{"10.1.2.3", true},
		{"172.16.5.4", true},
		{"172.32.0.1", false},
		{"192.168.1.20", true},
		{"8.8.8.8", false},
		{"::1", true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, isLocalAddress(net.ParseIP(tt.ip)), tt.ip)
	}
}

func TestCheckInNetwork(t *testing.T) {
	handler := CheckInNetwork(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.RemoteAddr = "192.168.0.10:5000"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	req.RemoteAddr = "1.2.3.4:5000"
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req.RemoteAddr = "garbage"
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestParseStartAndEndDate(t *testing.T) {
	loc := time.FixedZone("EST", -5*60*60)
	req := httptest.NewRequest(http.MethodGet, "/?start=2024-06-01T08:00&end=2024-06-01T20:30", nil)

	start, end := ParseStartAndEndDate(req, loc)
	assert.Equal(t, "2024-06-01 13:00:00", start)
	assert.Equal(t, "2024-06-02 01:30:00", end)
}

func TestParseStartAndEndDateDefault(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	start, end := ParseStartAndEndDate(req, nil)

	s, e, err := StartAndEndDateToTime(start, end)
	require.NoError(t, err)
	assert.Equal(t, 8*time.Hour, e.Sub(s))
}

func TestStartAndEndDateToTimeError(t *testing.T) {
	_, _, err := StartAndEndDateToTime("yesterday", "2024-06-01 00:00:00")
	assert.Error(t, err)
}

func TestLogLevel(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, LogLevel("DEBUG"))
	assert.Equal(t, logrus.ErrorLevel, LogLevel("error"))
	assert.Equal(t, logrus.InfoLevel, LogLevel(""))
	assert.Equal(t, logrus.InfoLevel, LogLevel("verbose"))
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("SSL", "true")
	t.Setenv("PORT", "")
	t.Setenv("ADDR_PIN", "17")
	t.Setenv("ADDR_HIGH", "true")
	t.Setenv("BH1750_MODE", "0x21")
	t.Setenv("BH1750_MTREG", "138")
	t.Setenv("RECORD_INTERVAL", "1m")

	c := LoadConfig()
	assert.True(t, c.SSL)
	assert.Equal(t, "443", c.Port)
	assert.Equal(t, 17, c.AddrPin)
	assert.True(t, c.AddrHigh)
	assert.Equal(t, byte(0x21), c.Mode)
	assert.Equal(t, 138, c.MTReg)
	assert.Equal(t, time.Minute, c.RecordInterval)
}

func TestLoadConfigDefaults(t *testing.T) {
	for _, key := range []string{"SSL", "PORT", "ADDR_PIN", "ADDR_HIGH", "BH1750_MODE", "BH1750_MTREG", "RECORD_INTERVAL", "I2C_DEVICE", "DB_PATH"} {
		t.Setenv(key, "")
	}

	c := LoadConfig()
	assert.Equal(t, "80", c.Port)
	assert.Equal(t, -1, c.AddrPin)
	assert.Equal(t, byte(0x10), c.Mode)
	assert.Equal(t, 69, c.MTReg)
	assert.Equal(t, "/dev/i2c-1", c.I2CDevice)
	assert.Equal(t, 30*time.Second, c.RecordInterval)
	assert.Equal(t, "lightmeter.db", c.DBPath)
}
