package bh1750

import (
	"fmt"
	"sync"

	"golang.org/x/exp/io/i2c"
)

// Bus is the two-wire transport the sensor hangs off.
// A Write of one byte is a complete begin/send/end transmission.
// A Read fills buf from the device at addr; bytes not delivered stay as they were.
type Bus interface {
	Write(addr uint16, buf []byte) error
	Read(addr uint16, buf []byte) error
}

// DevfsBus is a Bus over the Linux i2c-dev interface.
// Devices are opened lazily, one per target address.
type DevfsBus struct {
	path    string
	devices map[uint16]*i2c.Device
	*sync.Mutex
}

// Open the i2c-dev bus at path, ie: /dev/i2c-1
func NewDevfsBus(path string) *DevfsBus {
	if path == "" {
		// i2c-1 is the default I2C bus for the Raspberry Pi
		path = "/dev/i2c-1"
	}
	return &DevfsBus{
		path:    path,
		devices: make(map[uint16]*i2c.Device),
		Mutex:   &sync.Mutex{},
	}
}

func (b *DevfsBus) device(addr uint16) (*i2c.Device, error) {
	if dev, ok := b.devices[addr]; ok {
		return dev, nil
	}
	dev, err := i2c.Open(&i2c.Devfs{Dev: b.path}, int(addr))
	if err != nil {
		return nil, fmt.Errorf("Failed to open %s at 0x%02X: %w", b.path, addr, err)
	}
	b.devices[addr] = dev
	return dev, nil
}

func (b *DevfsBus) Write(addr uint16, buf []byte) error {
	b.Lock()
	defer b.Unlock()

	dev, err := b.device(addr)
	if err != nil {
		return err
	}
	return dev.Write(buf)
}

func (b *DevfsBus) Read(addr uint16, buf []byte) error {
	b.Lock()
	defer b.Unlock()

	dev, err := b.device(addr)
	if err != nil {
		return err
	}
	return dev.Read(buf)
}

// Close every device opened on the bus
func (b *DevfsBus) Close() error {
	b.Lock()
	defer b.Unlock()

	var firstErr error
	for addr, dev := range b.devices {
		if err := dev.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(b.devices, addr)
	}
	return firstErr
}
