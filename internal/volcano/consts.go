package volcano

import "time"

// DefaultDeviceAddress is the fixed MAC of the paired Volcano Hybrid. The
// device does not advertise a resolvable private address, so a static MAC is
// reliable here. Overridable via configuration.
const DefaultDeviceAddress = "CE:9E:A6:43:25:F3"

// GATT characteristic UUIDs of the Volcano Hybrid firmware. These are static
// per device model; the decode tables below are only valid for this exact
// characteristic set, so they are configuration data, not runtime discovery.
const (
	// Telemetry
	CharUUIDCurrentTemperature    = "10110001-5354-4f52-5a26-4249434b454c"
	CharUUIDPumpHeatNotifications = "1010000c-5354-4f52-5a26-4249434b454c"

	// Control registers (empty-payload trigger characteristics)
	CharUUIDPumpOn  = "10110013-5354-4f52-5a26-4249434b454c"
	CharUUIDPumpOff = "10110014-5354-4f52-5a26-4249434b454c"
	CharUUIDHeatOn  = "1011000f-5354-4f52-5a26-4249434b454c"
	CharUUIDHeatOff = "10110010-5354-4f52-5a26-4249434b454c"

	// Setpoints and settings
	CharUUIDHeaterSetpoint     = "10110003-5354-4f52-5a26-4249434b454c"
	CharUUIDLEDBrightness      = "10110005-5354-4f52-5a26-4249434b454c"
	CharUUIDAutoShutoff        = "1011000c-5354-4f52-5a26-4249434b454c"
	CharUUIDAutoShutoffSetting = "1011000d-5354-4f52-5a26-4249434b454c"
	CharUUIDVibrationRegister  = "1010000e-5354-4f52-5a26-4249434b454c"

	// Static device information
	CharUUIDBLEFirmwareVersion = "10100004-5354-4f52-5a26-4249434b454c"
	CharUUIDFirmwareVersion    = "10100003-5354-4f52-5a26-4249434b454c"
	CharUUIDSerialNumber       = "10100008-5354-4f52-5a26-4249434b454c"
	CharUUIDHoursOfOperation   = "10110015-5354-4f52-5a26-4249434b454c"
	CharUUIDMinutesOfOperation = "10110016-5354-4f52-5a26-4249434b454c"
)

// Coordinator timings. The poll loop runs a single cadence; the RSSI read is
// interleaved by elapsed time so that characteristic access stays serialized
// on one goroutine.
const (
	DefaultReconnectInterval = 3 * time.Second
	DefaultPollInterval      = 500 * time.Millisecond
	DefaultRSSIInterval      = 60 * time.Second
)

// Valid ranges for the writable settings. Out-of-range inputs are clamped to
// the nearest bound rather than rejected; the device silently does the same.
const (
	MinTargetTemperature = 40.0
	MaxTargetTemperature = 230.0

	MinLEDBrightness = 0
	MaxLEDBrightness = 100

	MinAutoShutoffMinutes = 1
	MaxAutoShutoffMinutes = 240
)

// VibrationMask selects the vibration bit (bit 10) of the third control
// register. Writes to the register must preserve the remaining bits.
const VibrationMask uint16 = 0x0400

// heatOnSentinel is the value of byte 0 in a pump/heat notification whenever
// the heater is energized; byte 1 carries the pump/target sub-state.
const heatOnSentinel = 0x23

// pumpHeatPatterns maps known (byte0, byte1) notification pairs to heater and
// pump states. Pairs outside the table are reported verbatim as unknown, not
// dropped, so new firmware patterns remain diagnosable from logs.
var pumpHeatPatterns = map[[2]byte]struct {
	heat HeatState
	pump PumpState
}{
	{0x00, 0x00}:           {HeatOff, PumpOff},
	{heatOnSentinel, 0x00}: {HeatOn, PumpOff},
	{0x00, 0x30}:           {HeatOff, PumpOn},
	{heatOnSentinel, 0x30}: {HeatOn, PumpOn},

	// Sub-states seen while the heater holds or overshoots the setpoint.
	{heatOnSentinel, 0x06}: {HeatOnAtTarget, PumpOff},
	{heatOnSentinel, 0x26}: {HeatOnOverTarget, PumpOff},
	{heatOnSentinel, 0x36}: {HeatOnAtTarget, PumpOn},
}
