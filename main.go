package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"
	"github.com/ztkent/bh1750-meter/bh1750"
	lm "github.com/ztkent/bh1750-meter/internal/lightmeter"
	"github.com/ztkent/bh1750-meter/internal/tools"
)

/*
	Entry point for the Light Meter application.
	It should be running at startup, on a Raspberry Pi, with a BH1750 sensor on the I2C bus.
*/

func main() {
	config := tools.LoadConfig()
	logFile, err := tools.SetupLogging(config.LogFile, config.LogLevel)
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	if logFile != nil {
		defer logFile.Close()
	}
	bh1750.SetLogger(log.StandardLogger())

	pid := os.Getpid()
	log.WithField("pid", pid).Info("LightMeter starting")

	// The bus outlives the driver, close it on the way out
	bus := bh1750.NewDevfsBus(config.I2CDevice)
	defer bus.Close()

	var addrPin bh1750.Pin
	if config.AddrPin >= 0 {
		pin := bh1750.NewSysfsPin(config.AddrPin)
		defer pin.Close()
		addrPin = pin
	}

	device, err := connectSensor(bus, addrPin, config)
	if err != nil {
		log.Fatalf("Failed to configure the BH1750 sensor: %v", err)
	}

	slmDB, err := tools.ConnectSqlite(config.DBPath)
	if err != nil {
		log.Fatalf("Failed to connect to the sqlite database: %v", err)
	}
	defer slmDB.Close()

	meter := lm.NewLightMeter(device, slmDB, pid)
	meter.Interval = config.RecordInterval
	meter.AddrPin = addrPin

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go meter.MonitorAndRecordResults(ctx)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(handleServerPanic)
	defineRoutes(r, meter, config.DBPath)

	server := &http.Server{Addr: ":" + config.Port, Handler: r}
	go func() {
		var err error
		if config.SSL {
			certPath, keyPath := "cert.pem", "key.pem"
			if err := tools.EnsureCertificate(certPath, keyPath); err != nil {
				log.Fatalf("Failed to create certificate: %v", err)
			}
			log.Infof("Starting HTTPS server on port %s", config.Port)
			err = server.ListenAndServeTLS(certPath, keyPath)
		} else {
			log.Infof("Starting HTTP server on port %s", config.Port)
			err = server.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	server.Shutdown(shutdownCtx)
	if err := device.Sleep(); err != nil {
		log.WithError(err).Warn("Failed to power down the sensor")
	}
}

// Apply the configured address, measurement time and mode, then power down until a job starts
func connectSensor(bus bh1750.Bus, pin bh1750.Pin, config tools.Config) (*bh1750.BH1750, error) {
	device := bh1750.NewBH1750(bus)
	if pin != nil || config.AddrHigh {
		if err := device.SetAddress(pin, config.AddrHigh); err != nil {
			return nil, err
		}
	}
	if err := device.Reset(); err != nil {
		return nil, fmt.Errorf("Can't find a BH1750 at 0x%02X on %s: %w", device.Address(), config.I2CDevice, err)
	}
	if err := device.SetMTReg(config.MTReg); err != nil {
		return nil, err
	}
	if err := device.SetMode(bh1750.Mode(config.Mode)); err != nil {
		return nil, err
	}
	return device, device.Sleep()
}

func defineRoutes(r *chi.Mux, meter *lm.LightMeter, dbPath string) {
	// Light Meter Dashboard Controls
	r.Get("/", meter.ServeDashboard())
	r.Route("/lightmeter", func(r chi.Router) {
		r.Get("/start", meter.Start())
		r.Get("/stop", meter.Stop())
		r.Get("/read", meter.ReadNow())
		r.Get("/current-conditions", meter.CurrentConditions())
		r.Get("/settings", meter.ServeSettings())
		r.Get("/export", meter.ServeResultsDB(dbPath))
		r.Post("/graph", meter.ServeResultsGraph())
		r.Get("/controls", meter.ServeControls())
		r.Get("/status", meter.ServeSensorStatus())
		r.Post("/results", meter.ServeResultsTab())
		r.Get("/clear", meter.Clear())
		r.Group(func(r chi.Router) {
			r.Use(tools.CheckInNetwork)
			sensorCommands(r, meter)
		})
	})

	// Light Meter API, these serve a JSON response
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/start", meter.Start())
		r.Get("/stop", meter.Stop())
		r.Get("/read", meter.ReadNow())
		r.Get("/current-conditions", meter.CurrentConditions())
		r.Get("/settings", meter.ServeSettings())
		r.Get("/export", meter.ServeResultsDB(dbPath))
		r.Group(func(r chi.Router) {
			r.Use(tools.CheckInNetwork)
			sensorCommands(r, meter)
		})
	})

	r.Handle("/metrics", meter.Metrics.Handler())

	// Route for service identification
	r.Get("/id", func(w http.ResponseWriter, r *http.Request) {
		response := struct {
			ServiceName string `json:"service_name"`
			Pid         int    `json:"pid"`
		}{
			ServiceName: "Light Meter",
			Pid:         meter.Pid,
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(response)
	})
}

func sensorCommands(r chi.Router, meter *lm.LightMeter) {
	r.Post("/mode", meter.ChangeMode())
	r.Post("/mtreg", meter.ChangeMTReg())
	r.Post("/address", meter.ChangeAddress())
	r.Post("/power-on", meter.PowerOnSensor())
	r.Post("/sleep", meter.SleepSensor())
	r.Post("/reset", meter.ResetSensor())
}

func handleServerPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				log.WithField("path", r.URL.Path).Errorf("Recovered from panic: %v", err)
				lm.ServeResponse(w, r, fmt.Sprintf("%v", err), http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
