package bh1750

const (
	BH1750_ADDR_LOW  uint16 = 0x23 ///< ADDR pin low (default)
	BH1750_ADDR_HIGH uint16 = 0x5C ///< ADDR pin high

	BH1750_POWER_DOWN byte = 0x00 ///< No active state
	BH1750_POWER_ON   byte = 0x01 ///< Waiting for measurement command
	BH1750_RESET      byte = 0x07 ///< Reset data register, not accepted while powered down

	BH1750_LUX_ACC_COEF  float64 = 1.2 ///< Measurement accuracy, lx per count
	BH1750_MTREG_DEFAULT byte    = 69  ///< Measurement time register default
	BH1750_MTREG_MIN     int     = 31
	BH1750_MTREG_MAX     int     = 254

	// Measurement time register change, high bits then low bits
	BH1750_MTREG_HIGH_BIT byte = 0x40 // 01000_MT[7,6,5]
	BH1750_MTREG_LOW_BIT  byte = 0x60 // 011_MT[4,3,2,1,0]
)

// Mode is a measurement mode opcode
type Mode byte

// Opecode table, datasheet page 5
const (
	BH1750_CONTINUOUS_HIGH_RES_MODE   Mode = 0x10 // 1lx resolution, ~120ms
	BH1750_CONTINUOUS_HIGH_RES_MODE_2 Mode = 0x11 // 0.5lx resolution, ~120ms
	BH1750_CONTINUOUS_LOW_RES_MODE    Mode = 0x13 // 4lx resolution, ~16ms
	BH1750_ONE_TIME_HIGH_RES_MODE     Mode = 0x20 // 1lx resolution, powers down after
	BH1750_ONE_TIME_HIGH_RES_MODE_2   Mode = 0x21 // 0.5lx resolution, powers down after
	BH1750_ONE_TIME_LOW_RES_MODE      Mode = 0x23 // 4lx resolution, powers down after
)

// Modes lists every measurement mode the sensor accepts
var Modes = []Mode{
	BH1750_CONTINUOUS_HIGH_RES_MODE,
	BH1750_CONTINUOUS_HIGH_RES_MODE_2,
	BH1750_CONTINUOUS_LOW_RES_MODE,
	BH1750_ONE_TIME_HIGH_RES_MODE,
	BH1750_ONE_TIME_HIGH_RES_MODE_2,
	BH1750_ONE_TIME_LOW_RES_MODE,
}

func (m Mode) Valid() bool {
	switch m {
	case BH1750_CONTINUOUS_HIGH_RES_MODE,
		BH1750_CONTINUOUS_HIGH_RES_MODE_2,
		BH1750_CONTINUOUS_LOW_RES_MODE,
		BH1750_ONE_TIME_HIGH_RES_MODE,
		BH1750_ONE_TIME_HIGH_RES_MODE_2,
		BH1750_ONE_TIME_LOW_RES_MODE:
		return true
	default:
		return false
	}
}

// OneShot reports whether the sensor powers down after a single measurement
func (m Mode) OneShot() bool {
	return m == BH1750_ONE_TIME_HIGH_RES_MODE ||
		m == BH1750_ONE_TIME_HIGH_RES_MODE_2 ||
		m == BH1750_ONE_TIME_LOW_RES_MODE
}

// HighRes2 reports whether the mode counts at 0.5lx
func (m Mode) HighRes2() bool {
	return m == BH1750_CONTINUOUS_HIGH_RES_MODE_2 || m == BH1750_ONE_TIME_HIGH_RES_MODE_2
}

// LowRes reports whether the mode counts at 4lx
func (m Mode) LowRes() bool {
	return m == BH1750_CONTINUOUS_LOW_RES_MODE || m == BH1750_ONE_TIME_LOW_RES_MODE
}

func (m Mode) String() string {
	switch m {
	case BH1750_CONTINUOUS_HIGH_RES_MODE:
		return "Continuous high resolution (1lx)"
	case BH1750_CONTINUOUS_HIGH_RES_MODE_2:
		return "Continuous high resolution 2 (0.5lx)"
	case BH1750_CONTINUOUS_LOW_RES_MODE:
		return "Continuous low resolution (4lx)"
	case BH1750_ONE_TIME_HIGH_RES_MODE:
		return "One time high resolution (1lx)"
	case BH1750_ONE_TIME_HIGH_RES_MODE_2:
		return "One time high resolution 2 (0.5lx)"
	case BH1750_ONE_TIME_LOW_RES_MODE:
		return "One time low resolution (4lx)"
	default:
		return "Unknown"
	}
}
