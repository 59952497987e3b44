package lightmeter

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"math"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/ztkent/bh1750-meter/bh1750"
	"github.com/ztkent/bh1750-meter/internal/tools"
)

//go:embed html/*
var templateFiles embed.FS

type LightMeter struct {
	*bh1750.BH1750
	AddrPin        bh1750.Pin
	LuxResultsChan chan LuxResults
	ResultsDB      *sql.DB
	Metrics        *Metrics
	Location       *time.Location
	Interval       time.Duration
	Pid            int

	// mu serializes every sensor command, the bus is not safe for concurrent use
	mu      sync.Mutex
	enabled bool
	jobID   string
	cancel  context.CancelFunc
}

type LuxResults struct {
	Lux   float64
	Raw   uint16
	Mode  bh1750.Mode
	MTReg byte
	JobID string
}

type Conditions struct {
	JobID                 string  `json:"jobID"`
	Lux                   float64 `json:"lux"`
	Raw                   uint16  `json:"raw"`
	Mode                  string  `json:"mode"`
	MTReg                 byte    `json:"mtreg"`
	CreatedAt             string  `json:"createdAt"`
	DateRange             string  `json:"dateRange,omitempty"`
	RecordedHoursInRange  float64 `json:"recordedHoursInRange,omitempty"`
	FullSunlightInRange   float64 `json:"fullSunlightInRange,omitempty"`
	LightConditionInRange string  `json:"lightConditionInRange,omitempty"`
	AverageLuxInRange     float64 `json:"averageLuxInRange,omitempty"`
}

const (
	MAX_JOB_DURATION = 8 * time.Hour
	RECORD_INTERVAL  = tools.DEFAULT_RECORD_INTERVAL
)

var ErrNoReadings = errors.New("no readings recorded")

func NewLightMeter(sensor *bh1750.BH1750, db *sql.DB, pid int) *LightMeter {
	m := &LightMeter{
		BH1750:         sensor,
		LuxResultsChan: make(chan LuxResults),
		ResultsDB:      db,
		Location:       time.UTC,
		Interval:       RECORD_INTERVAL,
		Pid:            pid,
	}
	m.Metrics = NewMetrics(m)
	return m
}

func (m *LightMeter) Enabled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.enabled
}

// Start the sensor, and collect data in a loop
func (m *LightMeter) Start() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.Info("It's going to be a bright day!")
		if m.BH1750 == nil {
			ServeResponse(w, r, "The sensor is not connected", http.StatusBadRequest)
			return
		}

		m.mu.Lock()
		if m.enabled {
			m.mu.Unlock()
			ServeResponse(w, r, "The sensor is already started", http.StatusBadRequest)
			return
		}
		if err := m.PowerOn(); err != nil {
			m.mu.Unlock()
			log.WithError(err).Error("The sensor failed to power on")
			ServeResponse(w, r, err.Error(), http.StatusInternalServerError)
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), MAX_JOB_DURATION)
		jobID := uuid.New().String()
		m.enabled = true
		m.jobID = jobID
		m.cancel = cancel
		m.mu.Unlock()

		go m.runJob(ctx, jobID)
		ServeResponse(w, r, "Sunlight Reading Started", http.StatusOK)
	}
}

// Stop the sensor, and cancel the job context
func (m *LightMeter) Stop() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if m.BH1750 == nil {
			ServeResponse(w, r, "The sensor is not connected", http.StatusBadRequest)
			return
		}

		m.mu.Lock()
		if !m.enabled {
			m.mu.Unlock()
			ServeResponse(w, r, "The sensor is already stopped", http.StatusBadRequest)
			return
		}
		jobID := m.jobID
		m.mu.Unlock()

		m.stopJob(jobID)
		ServeResponse(w, r, "Sunlight Reading Stopped", http.StatusOK)
	}
}

// Cancel the job and power the sensor down, if jobID is still the running job
func (m *LightMeter) stopJob(jobID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.enabled || m.jobID != jobID {
		return
	}
	m.cancel()
	m.enabled = false
	if err := m.Sleep(); err != nil {
		log.WithError(err).Error("The sensor failed to power down")
	}
}

func (m *LightMeter) runJob(ctx context.Context, jobID string) {
	defer m.stopJob(jobID)

	ticker := time.NewTicker(m.Interval)
	defer ticker.Stop()
	for {
		result, err := m.Measure(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.WithField("job_id", jobID).Info("Job Cancelled, stopping sensor")
				return
			}
			log.WithError(err).WithField("job_id", jobID).Warn("The sensor failed to get luminosity")
			m.Metrics.ReadErrors.Inc()
		} else {
			result.JobID = jobID
			select {
			case m.LuxResultsChan <- result:
			case <-ctx.Done():
				return
			}
		}

		select {
		case <-ctx.Done():
			log.WithField("job_id", jobID).Info("Job Cancelled, stopping sensor")
			return
		case <-ticker.C:
		}
	}
}

// Take one measurement. One-shot modes, and a sensor with no running job,
// are sent the mode again first, then given the full measurement time.
func (m *LightMeter) Measure(ctx context.Context) (LuxResults, error) {
	m.mu.Lock()
	idle := !m.enabled
	if idle || m.Mode().OneShot() {
		if err := m.WakeUp(); err != nil {
			m.mu.Unlock()
			return LuxResults{}, err
		}
	}
	wait := m.MeasurementTime()
	m.mu.Unlock()

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return LuxResults{}, ctx.Err()
	case <-timer.C:
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	// The job may have been stopped, and the sensor powered down, while waiting
	if err := ctx.Err(); err != nil {
		return LuxResults{}, err
	}
	raw, err := m.ReadRaw()
	if err != nil {
		return LuxResults{}, err
	}
	result := LuxResults{
		Lux:   m.CalculateLux(raw),
		Raw:   raw,
		Mode:  m.Mode(),
		MTReg: m.MTReg(),
	}
	if idle && !m.enabled && !result.Mode.OneShot() {
		if err := m.Sleep(); err != nil {
			log.WithError(err).Warn("The sensor failed to power down after reading")
		}
	}
	return result, nil
}

// Serve data about the most recent entry saved to the db
func (m *LightMeter) CurrentConditions() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conditions, err := m.getCurrentConditions()
		if errors.Is(err, ErrNoReadings) {
			ServeResponse(w, r, err.Error(), http.StatusNotFound)
			return
		} else if err != nil {
			log.WithError(err).Error("Failed to read current conditions")
			ServeResponse(w, r, err.Error(), http.StatusInternalServerError)
			return
		}

		conditionsData, err := json.Marshal(conditions)
		if err != nil {
			ServeResponse(w, r, err.Error(), http.StatusInternalServerError)
			return
		}
		ServeResponse(w, r, string(conditionsData), http.StatusOK)
	}
}

// Return the most recent entry saved to the db
func (m *LightMeter) getCurrentConditions() (Conditions, error) {
	if m.ResultsDB == nil {
		return Conditions{}, ErrNoReadings
	}
	conditions := Conditions{}
	var mode byte
	row := m.ResultsDB.QueryRow("SELECT job_id, lux, raw, mode, mtreg, created_at FROM sunlight ORDER BY id DESC LIMIT 1")
	err := row.Scan(&conditions.JobID, &conditions.Lux, &conditions.Raw, &mode, &conditions.MTReg, &conditions.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Conditions{}, ErrNoReadings
	} else if err != nil {
		return Conditions{}, err
	}
	conditions.Mode = bh1750.Mode(mode).String()
	return conditions, nil
}

// Populate the response div with a message, or reply with a JSON message
func ServeResponse(w http.ResponseWriter, r *http.Request, message string, status int) {
	if strings.Contains(r.URL.Path, "/api/v1/") {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(map[string]string{"message": message})
		return
	}

	tmpl, err := parseTemplateFile("html/response.gohtml")
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html")
	w.WriteHeader(status)
	if err := tmpl.Execute(w, message); err != nil {
		log.WithError(err).Error("Failed to render response")
	}
}

func parseTemplateFile(path string) (*template.Template, error) {
	content, err := templateFiles.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return template.New(path).Parse(string(content))
}

// Read from LuxResultsChan, write the results to sqlite
func (m *LightMeter) MonitorAndRecordResults(ctx context.Context) {
	log.Info("Monitoring for new Sunlight Messages...")
	for {
		select {
		case result := <-m.LuxResultsChan:
			if err := m.recordResult(result); err != nil {
				log.WithError(err).WithField("job_id", result.JobID).Error("Failed to record result")
			}
		case <-ctx.Done():
			return
		}
	}
}

func (m *LightMeter) recordResult(result LuxResults) error {
	log.WithFields(log.Fields{
		"job_id": result.JobID,
		"lux":    result.Lux,
		"raw":    result.Raw,
	}).Info("Recording reading")
	if math.IsInf(result.Lux, 0) || math.IsNaN(result.Lux) {
		log.Warn("Lux is invalid, skipping record")
		return nil
	}
	m.Metrics.Observe(result)

	_, err := m.ResultsDB.Exec(
		"INSERT INTO sunlight (job_id, lux, raw, mode, mtreg) VALUES (?, ?, ?, ?, ?)",
		result.JobID,
		result.Lux,
		result.Raw,
		byte(result.Mode),
		result.MTReg,
	)
	return err
}
