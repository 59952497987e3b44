package lightmeter

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/ztkent/bh1750-meter/bh1750"
)

type Settings struct {
	Address               string  `json:"address"`
	Mode                  string  `json:"mode"`
	ModeName              string  `json:"modeName"`
	MTReg                 byte    `json:"mtreg"`
	ResolutionCoefficient float64 `json:"resolutionCoefficient"`
	MeasurementTimeMs     int64   `json:"measurementTimeMs"`
	Enabled               bool    `json:"enabled"`
}

func (m *LightMeter) settings() Settings {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Settings{
		Address:               fmt.Sprintf("0x%02X", m.Address()),
		Mode:                  fmt.Sprintf("0x%02X", byte(m.Mode())),
		ModeName:              m.Mode().String(),
		MTReg:                 m.MTReg(),
		ResolutionCoefficient: m.ResolutionCoefficient(),
		MeasurementTimeMs:     m.MeasurementTime().Milliseconds(),
		Enabled:               m.enabled,
	}
}

// Serve the current driver configuration
func (m *LightMeter) ServeSettings() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if m.BH1750 == nil {
			ServeResponse(w, r, "The sensor is not connected", http.StatusBadRequest)
			return
		}
		settings := m.settings()
		if strings.Contains(r.URL.Path, "/api/v1/") {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(settings)
			return
		}

		tmpl, err := parseTemplateFile("html/settings.gohtml")
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		if err := tmpl.Execute(w, settings); err != nil {
			log.WithError(err).Error("Failed to render settings")
		}
	}
}

// Change the measurement mode, form value "mode" as a hex opcode
func (m *LightMeter) ChangeMode() http.HandlerFunc {
	return m.configure(func(r *http.Request) (string, error) {
		value := strings.TrimPrefix(strings.ToLower(r.FormValue("mode")), "0x")
		mode, err := strconv.ParseUint(value, 16, 8)
		if err != nil {
			return "", fmt.Errorf("%w: %q", bh1750.ErrInvalidMode, r.FormValue("mode"))
		}
		if err := m.BH1750.SetMode(bh1750.Mode(mode)); err != nil {
			return "", err
		}
		return "Mode set to " + m.Mode().String(), nil
	})
}

// Change the measurement time register, form value "mtreg"
func (m *LightMeter) ChangeMTReg() http.HandlerFunc {
	return m.configure(func(r *http.Request) (string, error) {
		mtreg, err := strconv.Atoi(r.FormValue("mtreg"))
		if err != nil {
			return "", fmt.Errorf("%w: %q", bh1750.ErrInvalidMTReg, r.FormValue("mtreg"))
		}
		if err := m.BH1750.SetMTReg(mtreg); err != nil {
			return "", err
		}
		return fmt.Sprintf("Measurement time register set to %d", m.MTReg()), nil
	})
}

// Select the bus address, form value "high" true/false. Only while no job is running,
// the sensor at the new address has not been sent the job's mode.
func (m *LightMeter) ChangeAddress() http.HandlerFunc {
	return m.configure(func(r *http.Request) (string, error) {
		if m.enabled {
			return "", errBadRequest{errors.New("stop the running job first")}
		}
		high, err := strconv.ParseBool(r.FormValue("high"))
		if err != nil {
			return "", errBadRequest{fmt.Errorf("invalid address level %q", r.FormValue("high"))}
		}
		if err := m.BH1750.SetAddress(m.AddrPin, high); err != nil {
			return "", err
		}
		return fmt.Sprintf("Address set to 0x%02X", m.Address()), nil
	})
}

func (m *LightMeter) PowerOnSensor() http.HandlerFunc {
	return m.configure(func(r *http.Request) (string, error) {
		return "Sensor powered on", m.BH1750.PowerOn()
	})
}

// Power down, only while no job is running
func (m *LightMeter) SleepSensor() http.HandlerFunc {
	return m.configure(func(r *http.Request) (string, error) {
		if m.enabled {
			return "", errBadRequest{errors.New("stop the running job first")}
		}
		return "Sensor powered down", m.BH1750.Sleep()
	})
}

// Reset the data register, only while no job is running.
// The power on command it sends leaves the sensor idle.
func (m *LightMeter) ResetSensor() http.HandlerFunc {
	return m.configure(func(r *http.Request) (string, error) {
		if m.enabled {
			return "", errBadRequest{errors.New("stop the running job first")}
		}
		return "Sensor data register reset", m.BH1750.Reset()
	})
}

// Take a single measurement now
func (m *LightMeter) ReadNow() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if m.BH1750 == nil {
			ServeResponse(w, r, "The sensor is not connected", http.StatusBadRequest)
			return
		}
		result, err := m.Measure(r.Context())
		if err != nil {
			m.Metrics.ReadErrors.Inc()
			log.WithError(err).Error("The sensor failed to get luminosity")
			ServeResponse(w, r, err.Error(), http.StatusInternalServerError)
			return
		}
		ServeResponse(w, r, fmt.Sprintf("Lux: %.2f (raw %d)", result.Lux, result.Raw), http.StatusOK)
	}
}

type errBadRequest struct{ error }

func (e errBadRequest) Unwrap() error { return e.error }

// configure runs one sensor command under the bus lock, and maps its error to a status
func (m *LightMeter) configure(apply func(r *http.Request) (string, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if m.BH1750 == nil {
			ServeResponse(w, r, "The sensor is not connected", http.StatusBadRequest)
			return
		}
		r.ParseForm()

		m.mu.Lock()
		message, err := apply(r)
		m.mu.Unlock()

		var badRequest errBadRequest
		switch {
		case err == nil:
			ServeResponse(w, r, message, http.StatusOK)
		case errors.Is(err, bh1750.ErrInvalidMode), errors.Is(err, bh1750.ErrInvalidMTReg), errors.As(err, &badRequest):
			ServeResponse(w, r, err.Error(), http.StatusBadRequest)
		default:
			log.WithError(err).Error("Sensor command failed")
			ServeResponse(w, r, err.Error(), http.StatusInternalServerError)
		}
	}
}
