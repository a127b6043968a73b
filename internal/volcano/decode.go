package volcano

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"
)

// DecodeTemperature converts a raw temperature payload to °C. The firmware
// reports an unsigned 16-bit little-endian value in tenths of a degree.
func DecodeTemperature(data []byte) (float64, error) {
	if len(data) < 2 {
		return 0, fmt.Errorf("temperature payload too short: %d byte(s)", len(data))
	}
	raw := binary.LittleEndian.Uint16(data[:2])
	return float64(raw) / 10.0, nil
}

// DecodePumpHeat maps a pump/heat notification payload to heater and pump
// states. Payloads shorter than two bytes and byte pairs outside the known
// pattern table both decode to unknown states; neither is an error, since the
// caller must keep operating and fan the result out either way.
func DecodePumpHeat(data []byte) (HeatState, PumpState, bool) {
	if len(data) < 2 {
		return HeatUnknown, PumpUnknown, false
	}
	pair := [2]byte{data[0], data[1]}
	if st, ok := pumpHeatPatterns[pair]; ok {
		return st.heat, st.pump, true
	}
	return unknownHeatState(pair[0], pair[1]), unknownPumpState(pair[0], pair[1]), false
}

// DecodeUint16 reads a little-endian uint16 attribute (hours/minutes of
// operation, auto shutoff setting).
func DecodeUint16(data []byte) (uint16, error) {
	if len(data) < 2 {
		return 0, fmt.Errorf("attribute payload too short: %d byte(s)", len(data))
	}
	return binary.LittleEndian.Uint16(data[:2]), nil
}

// DecodeString trims a UTF-8 attribute (firmware versions, serial number).
// The firmware pads these with NULs and spaces.
func DecodeString(data []byte) string {
	return strings.TrimRight(string(data), "\x00 ")
}

func encodeUint16(v uint16) []byte {
	buf := make([]byte, 2)
	binary.LittleEndian.PutUint16(buf, v)
	return buf
}

// EncodeTargetTemperature clamps a setpoint to the device range and encodes
// it as little-endian tenths of a degree.
func EncodeTargetTemperature(celsius float64) []byte {
	c := clampFloat(celsius, MinTargetTemperature, MaxTargetTemperature)
	return encodeUint16(uint16(math.Round(c * 10)))
}

// EncodeLEDBrightness clamps a percentage to [0,100] and encodes it.
func EncodeLEDBrightness(percent int) []byte {
	return encodeUint16(uint16(clampInt(percent, MinLEDBrightness, MaxLEDBrightness)))
}

// EncodeAutoShutoffMinutes clamps the shutoff delay to the device range and
// encodes it in the characteristic's unit, seconds.
func EncodeAutoShutoffMinutes(minutes int) []byte {
	m := clampInt(minutes, MinAutoShutoffMinutes, MaxAutoShutoffMinutes)
	return encodeUint16(uint16(m * 60))
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
