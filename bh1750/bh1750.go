package bh1750

/*
 * bh1750 - Package for interacting with BH1750FVI ambient light sensors.
 *
 * Ref:
 * https://www.mouser.com/datasheet/2/348/bh1750fvi-e-186247.pdf
 *
 */

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

var (
	ErrInvalidMode  = errors.New("invalid measurement mode")
	ErrInvalidMTReg = errors.New("invalid measurement time register value")
)

var l *logrus.Logger

func init() {
	l = logrus.New()
	l.Formatter = &logrus.JSONFormatter{}
	l.SetOutput(os.Stdout)
	// Rejected settings are only reported at debug level
	logLevel := strings.ToLower(os.Getenv("LOG_LEVEL"))
	switch logLevel {
	case "debug":
		l.SetLevel(logrus.DebugLevel)
	case "info":
		l.SetLevel(logrus.InfoLevel)
	case "error":
		l.SetLevel(logrus.ErrorLevel)
	default:
		l.SetLevel(logrus.InfoLevel)
	}
}

// SetLogger replaces the package logger
func SetLogger(logger *logrus.Logger) {
	if logger != nil {
		l = logger
	}
}

// BH1750 does not own the bus, and does no locking of its own.
// Callers sharing a bus between goroutines must serialize access.
type BH1750 struct {
	bus       Bus
	address   uint16
	mode      Mode
	mtreg     byte
	hiResCoef float64
}

// Bind a BH1750 to a bus. Nothing is sent until the first command.
func NewBH1750(bus Bus) *BH1750 {
	return &BH1750{
		bus:       bus,
		address:   BH1750_ADDR_LOW,
		mode:      BH1750_CONTINUOUS_HIGH_RES_MODE,
		mtreg:     BH1750_MTREG_DEFAULT,
		hiResCoef: 1.0,
	}
}

// Power on, and restart measuring in the current mode
func (b *BH1750) PowerOn() error {
	if err := b.writeToBus(BH1750_POWER_ON); err != nil {
		return err
	}
	return b.SetMode(b.mode)
}

// Power down. Reset is not accepted until the sensor is powered on again.
func (b *BH1750) Sleep() error {
	return b.writeToBus(BH1750_POWER_DOWN)
}

// Reset the data register, powering on first
func (b *BH1750) Reset() error {
	if err := b.writeToBus(BH1750_POWER_ON); err != nil {
		return err
	}
	return b.writeToBus(BH1750_RESET)
}

// WakeUp resends the current mode. A mode command wakes the sensor on its own.
func (b *BH1750) WakeUp() error {
	return b.SetMode(b.mode)
}

func (b *BH1750) WakeUpMode(mode Mode) error {
	return b.SetMode(mode)
}

func (b *BH1750) MTReg() byte {
	return b.mtreg
}

// Set the measurement time register [31..254]
func (b *BH1750) SetMTReg(mtreg int) error {
	if mtreg < BH1750_MTREG_MIN || mtreg > BH1750_MTREG_MAX {
		l.Debugf("Invalid measurement time reg value: %d", mtreg)
		return fmt.Errorf("%w: %d", ErrInvalidMTReg, mtreg)
	}
	b.mtreg = byte(mtreg)

	hByte := BH1750_MTREG_HIGH_BIT | ((b.mtreg & 0xE0) >> 5)
	lByte := BH1750_MTREG_LOW_BIT | (b.mtreg & 0x1F)
	if err := b.writeToBus(hByte); err != nil {
		return err
	}
	return b.writeToBus(lByte)
}

func (b *BH1750) Address() uint16 {
	return b.address
}

// Drive the ADDR pin and target the matching address from now on.
// A nil pin is for boards with ADDR wired to a fixed level.
func (b *BH1750) SetAddress(pin Pin, high bool) error {
	if pin != nil {
		if err := pin.Out(high); err != nil {
			return err
		}
	}
	if high {
		b.address = BH1750_ADDR_HIGH
	} else {
		b.address = BH1750_ADDR_LOW
	}
	return nil
}

func (b *BH1750) Mode() Mode {
	return b.mode
}

// Set the measurement mode, which also starts a measurement
func (b *BH1750) SetMode(mode Mode) error {
	if !mode.Valid() {
		l.Debugf("Invalid measurement mode: 0x%02X", byte(mode))
		return fmt.Errorf("%w: 0x%02X", ErrInvalidMode, byte(mode))
	}
	if err := b.writeToBus(byte(mode)); err != nil {
		return err
	}
	b.mode = mode
	if mode.HighRes2() {
		b.hiResCoef = 2.0
	} else {
		b.hiResCoef = 1.0
	}
	return nil
}

// 2.0 in the 0.5lx modes, 1.0 otherwise
func (b *BH1750) ResolutionCoefficient() float64 {
	return b.hiResCoef
}

// Worst case time for one measurement in the current mode and MTReg
func (b *BH1750) MeasurementTime() time.Duration {
	base := 180 * time.Millisecond
	if b.mode.LowRes() {
		base = 24 * time.Millisecond
	}
	return base * time.Duration(b.mtreg) / time.Duration(BH1750_MTREG_DEFAULT)
}

// Read the raw 16 bit count from the data register
func (b *BH1750) ReadRaw() (uint16, error) {
	bytes := make([]byte, 2)
	if err := b.bus.Read(b.address, bytes); err != nil {
		return 0, fmt.Errorf("Failed to read from 0x%02X: %w", b.address, err)
	}
	l.Debugf("Bytes read: %v", bytes)
	return binary.BigEndian.Uint16(bytes), nil
}

// Convert a raw count to lux with the current MTReg and resolution
func (b *BH1750) CalculateLux(raw uint16) float64 {
	// H-resolution mode  : lx per count = 1 / 1.2 * (69 / X)
	// H-resolution mode2 : lx per count = 1 / 1.2 * (69 / X) / 2
	return float64(raw) / BH1750_LUX_ACC_COEF * (float64(BH1750_MTREG_DEFAULT) / float64(b.mtreg)) / b.hiResCoef
}

// Light intensity in lux. Range and accuracy depend on the mode.
func (b *BH1750) GetLightIntensity() (float64, error) {
	raw, err := b.ReadRaw()
	if err != nil {
		return 0, err
	}
	return b.CalculateLux(raw), nil
}

func (b *BH1750) writeToBus(data byte) error {
	if err := b.bus.Write(b.address, []byte{data}); err != nil {
		return fmt.Errorf("Failed to write 0x%02X to 0x%02X: %w", data, b.address, err)
	}
	return nil
}
