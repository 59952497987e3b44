package tools

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ztkent/bh1750-meter/bh1750"
)

const (
	DEFAULT_DB_PATH         = "lightmeter.db"
	DEFAULT_RECORD_INTERVAL = 30 * time.Second
)

// Config holds the application configuration, read from the environment
type Config struct {
	Port           string
	SSL            bool
	I2CDevice      string
	AddrPin        int // gpio driving the ADDR line, -1 if hard-wired
	AddrHigh       bool
	Mode           byte
	MTReg          int
	DBPath         string
	LogLevel       string
	LogFile        string
	RecordInterval time.Duration
}

func LoadConfig() Config {
	c := Config{
		SSL:            os.Getenv("SSL") == "true",
		I2CDevice:      getenv("I2C_DEVICE", "/dev/i2c-1"),
		AddrPin:        -1,
		AddrHigh:       os.Getenv("ADDR_HIGH") == "true",
		Mode:           byte(bh1750.BH1750_CONTINUOUS_HIGH_RES_MODE),
		MTReg:          int(bh1750.BH1750_MTREG_DEFAULT),
		DBPath:         getenv("DB_PATH", DEFAULT_DB_PATH),
		LogLevel:       os.Getenv("LOG_LEVEL"),
		LogFile:        getenv("LOG_FILE", "lm.log"),
		RecordInterval: DEFAULT_RECORD_INTERVAL,
	}

	c.Port = os.Getenv("PORT")
	if c.Port == "" {
		if c.SSL {
			c.Port = "443"
		} else {
			c.Port = "80"
		}
	}
	if v := os.Getenv("ADDR_PIN"); v != "" {
		if pin, err := strconv.Atoi(v); err == nil {
			c.AddrPin = pin
		}
	}
	if v := os.Getenv("BH1750_MODE"); v != "" {
		// Hex opcode, with or without 0x
		if mode, err := strconv.ParseUint(strings.TrimPrefix(strings.ToLower(v), "0x"), 16, 8); err == nil {
			c.Mode = byte(mode)
		}
	}
	if v := os.Getenv("BH1750_MTREG"); v != "" {
		if mtreg, err := strconv.Atoi(v); err == nil {
			c.MTReg = mtreg
		}
	}
	if v := os.Getenv("RECORD_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			c.RecordInterval = d
		}
	}
	return c
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
