package bh1750

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gobot.io/x/gobot/sysfs"
)

type fakeDigitalPin struct {
	exports   int
	unexports int
	direction string
	writes    []int
	exportErr error
	writeErr  error
}

func (p *fakeDigitalPin) Export() error {
	if p.exportErr != nil {
		return p.exportErr
	}
	p.exports++
	return nil
}

func (p *fakeDigitalPin) Unexport() error {
	p.unexports++
	return nil
}

func (p *fakeDigitalPin) Direction(dir string) error {
	p.direction = dir
	return nil
}

func (p *fakeDigitalPin) Write(b int) error {
	if p.writeErr != nil {
		return p.writeErr
	}
	p.writes = append(p.writes, b)
	return nil
}

func TestSysfsPinOut(t *testing.T) {
	fake := &fakeDigitalPin{}
	pin := &SysfsPin{num: 17, pin: fake}

	require.NoError(t, pin.Out(true))
	require.NoError(t, pin.Out(false))
	require.NoError(t, pin.Out(true))

	assert.Equal(t, 1, fake.exports, "exported once")
	assert.Equal(t, sysfs.OUT, fake.direction)
	assert.Equal(t, []int{sysfs.HIGH, sysfs.LOW, sysfs.HIGH}, fake.writes)

	require.NoError(t, pin.Close())
	require.NoError(t, pin.Close())
	assert.Equal(t, 1, fake.unexports)

	// Exported again after a Close
	require.NoError(t, pin.Out(false))
	assert.Equal(t, 2, fake.exports)
}

func TestSysfsPinCloseUnused(t *testing.T) {
	fake := &fakeDigitalPin{}
	pin := &SysfsPin{num: 4, pin: fake}
	require.NoError(t, pin.Close())
	assert.Equal(t, 0, fake.unexports)
}

func TestSysfsPinErrors(t *testing.T) {
	fake := &fakeDigitalPin{exportErr: errors.New("busy")}
	pin := &SysfsPin{num: 5, pin: fake}
	assert.Error(t, pin.Out(true))
	assert.Empty(t, fake.writes)

	fake.exportErr = nil
	fake.writeErr = errors.New("io")
	assert.Error(t, pin.Out(true))

	// Drives the address through the driver
	fake.writeErr = nil
	b := NewBH1750(&fakeBus{})
	require.NoError(t, b.SetAddress(pin, true))
	assert.Equal(t, BH1750_ADDR_HIGH, b.Address())
	assert.Equal(t, []int{sysfs.HIGH}, fake.writes)
}
