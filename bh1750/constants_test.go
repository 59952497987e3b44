package bh1750

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestModeFlags(t *testing.T) {
	tests := []struct {
		mode     Mode
		oneShot  bool
		highRes2 bool
		lowRes   bool
	}{
		{BH1750_CONTINUOUS_HIGH_RES_MODE, false, false, false},
		{BH1750_CONTINUOUS_HIGH_RES_MODE_2, false, true, false},
		{BH1750_CONTINUOUS_LOW_RES_MODE, false, false, true},
		{BH1750_ONE_TIME_HIGH_RES_MODE, true, false, false},
		{BH1750_ONE_TIME_HIGH_RES_MODE_2, true, true, false},
		{BH1750_ONE_TIME_LOW_RES_MODE, true, false, true},
	}
	for _, tt := range tests {
		assert.True(t, tt.mode.Valid())
		assert.Equal(t, tt.oneShot, tt.mode.OneShot(), tt.mode.String())
		assert.Equal(t, tt.highRes2, tt.mode.HighRes2(), tt.mode.String())
		assert.Equal(t, tt.lowRes, tt.mode.LowRes(), tt.mode.String())
	}
	assert.Len(t, Modes, len(tests))
}

func TestModeString(t *testing.T) {
	assert.Equal(t, "Continuous low resolution (4lx)", BH1750_CONTINUOUS_LOW_RES_MODE.String())
	assert.Equal(t, "Unknown", Mode(0x42).String())
	assert.False(t, Mode(0x42).Valid())
}
