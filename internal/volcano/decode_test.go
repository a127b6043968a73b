package volcano

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeTemperature(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want float64
	}{
		{"zero", []byte{0x00, 0x00}, 0.0},
		{"typical vaporizing temp", []byte{0xa4, 0x06}, 170.0},
		{"tenth resolution", []byte{0xa5, 0x06}, 170.1},
		{"max uint16", []byte{0xff, 0xff}, 6553.5},
		{"trailing bytes ignored", []byte{0xa4, 0x06, 0xde, 0xad}, 170.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeTemperature(tt.data)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 0.001)
		})
	}
}

func TestDecodeTemperature_RawScaling(t *testing.T) {
	// decoded = raw / 10 must hold across the raw range
	for _, raw := range []uint16{0, 1, 9, 10, 400, 1700, 2300, 65535} {
		data := []byte{byte(raw), byte(raw >> 8)}
		got, err := DecodeTemperature(data)
		require.NoError(t, err)
		assert.InDelta(t, float64(raw)/10.0, got, 0.001, "raw=%d", raw)
	}
}

func TestDecodeTemperature_TooShort(t *testing.T) {
	_, err := DecodeTemperature([]byte{0x42})
	assert.Error(t, err)

	_, err = DecodeTemperature(nil)
	assert.Error(t, err)
}

func TestDecodePumpHeat_KnownPatterns(t *testing.T) {
	tests := []struct {
		data     []byte
		wantHeat HeatState
		wantPump PumpState
	}{
		{[]byte{0x00, 0x00}, HeatOff, PumpOff},
		{[]byte{0x23, 0x00}, HeatOn, PumpOff},
		{[]byte{0x00, 0x30}, HeatOff, PumpOn},
		{[]byte{0x23, 0x30}, HeatOn, PumpOn},
		{[]byte{0x23, 0x06}, HeatOnAtTarget, PumpOff},
		{[]byte{0x23, 0x26}, HeatOnOverTarget, PumpOff},
		{[]byte{0x23, 0x36}, HeatOnAtTarget, PumpOn},
	}
	for _, tt := range tests {
		heat, pump, known := DecodePumpHeat(tt.data)
		assert.True(t, known, "pattern (0x%02x, 0x%02x)", tt.data[0], tt.data[1])
		assert.Equal(t, tt.wantHeat, heat)
		assert.Equal(t, tt.wantPump, pump)
	}
}

func TestDecodePumpHeat_UnknownPatternEncodesRawBytes(t *testing.T) {
	heat, pump, known := DecodePumpHeat([]byte{0xab, 0xcd})
	assert.False(t, known)
	assert.Equal(t, HeatState("UNKNOWN (0xab, 0xcd)"), heat)
	assert.Equal(t, PumpState("UNKNOWN (0xab, 0xcd)"), pump)
}

func TestDecodePumpHeat_NeverPanics(t *testing.T) {
	// every possible byte pair decodes to something
	for b0 := 0; b0 <= 0xff; b0++ {
		for b1 := 0; b1 <= 0xff; b1++ {
			heat, pump, _ := DecodePumpHeat([]byte{byte(b0), byte(b1)})
			assert.NotEmpty(t, heat)
			assert.NotEmpty(t, pump)
		}
	}
}

func TestDecodePumpHeat_TooShort(t *testing.T) {
	heat, pump, known := DecodePumpHeat([]byte{0x23})
	assert.False(t, known)
	assert.Equal(t, HeatUnknown, heat)
	assert.Equal(t, PumpUnknown, pump)
}

func TestEncodeTargetTemperature_Clamping(t *testing.T) {
	tests := []struct {
		name    string
		celsius float64
		wantRaw uint16
	}{
		{"below minimum", 25.0, 400},
		{"at minimum", 40.0, 400},
		{"nominal", 170.0, 1700},
		{"at maximum", 230.0, 2300},
		{"above maximum", 500.0, 2300},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := EncodeTargetTemperature(tt.celsius)
			require.Len(t, data, 2)
			assert.Equal(t, tt.wantRaw, uint16(data[0])|uint16(data[1])<<8)
		})
	}
}

func TestEncodeLEDBrightness_Clamping(t *testing.T) {
	assert.Equal(t, []byte{0x00, 0x00}, EncodeLEDBrightness(-10))
	assert.Equal(t, []byte{0x14, 0x00}, EncodeLEDBrightness(20))
	assert.Equal(t, []byte{0x64, 0x00}, EncodeLEDBrightness(150))
}

func TestEncodeAutoShutoffMinutes_ClampsAndConvertsToSeconds(t *testing.T) {
	// 0 min clamps to 1 min = 60 s
	assert.Equal(t, []byte{0x3c, 0x00}, EncodeAutoShutoffMinutes(0))
	// 30 min = 1800 s
	assert.Equal(t, []byte{0x08, 0x07}, EncodeAutoShutoffMinutes(30))
	// 500 min clamps to 240 min = 14400 s
	assert.Equal(t, []byte{0x40, 0x38}, EncodeAutoShutoffMinutes(500))
}

func TestDecodeString_TrimsFirmwarePadding(t *testing.T) {
	assert.Equal(t, "V01.03.09", DecodeString([]byte("V01.03.09\x00\x00 ")))
	assert.Equal(t, "", DecodeString(nil))
}

func TestDecodeUint16(t *testing.T) {
	v, err := DecodeUint16([]byte{0x2a, 0x00})
	require.NoError(t, err)
	assert.Equal(t, uint16(42), v)

	_, err = DecodeUint16([]byte{0x2a})
	assert.Error(t, err)
}
