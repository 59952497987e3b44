package bh1750

import (
	"fmt"

	"gobot.io/x/gobot/sysfs"
)

// Pin is a digital output, used to drive the sensor's ADDR line
type Pin interface {
	Out(high bool) error
}

type digitalPin interface {
	Export() error
	Unexport() error
	Direction(dir string) error
	Write(b int) error
}

// SysfsPin drives a GPIO through /sys/class/gpio
type SysfsPin struct {
	num      int
	pin      digitalPin
	exported bool
}

func NewSysfsPin(num int) *SysfsPin {
	return &SysfsPin{
		num: num,
		pin: sysfs.NewDigitalPin(num),
	}
}

// Out configures the pin as an output and drives it to the given level
func (p *SysfsPin) Out(high bool) error {
	if !p.exported {
		if err := p.pin.Export(); err != nil {
			return fmt.Errorf("Failed to export gpio %d: %w", p.num, err)
		}
		if err := p.pin.Direction(sysfs.OUT); err != nil {
			return fmt.Errorf("Failed to set gpio %d direction: %w", p.num, err)
		}
		p.exported = true
	}

	level := sysfs.LOW
	if high {
		level = sysfs.HIGH
	}
	if err := p.pin.Write(level); err != nil {
		return fmt.Errorf("Failed to write gpio %d: %w", p.num, err)
	}
	return nil
}

// Release the gpio back to the kernel
func (p *SysfsPin) Close() error {
	if !p.exported {
		return nil
	}
	p.exported = false
	return p.pin.Unexport()
}
