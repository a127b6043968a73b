package volcano

import "fmt"

// ConnectionStatus describes the coordinator's link to the device. Error
// statuses carry the failure text so the UI can surface it without a separate
// alerting channel.
type ConnectionStatus string

const (
	StatusDisconnected ConnectionStatus = "DISCONNECTED"
	StatusConnecting   ConnectionStatus = "CONNECTING"
	StatusConnected    ConnectionStatus = "CONNECTED"
)

// ErrorStatus builds the status value for a failed transport operation.
func ErrorStatus(err error) ConnectionStatus {
	return ConnectionStatus(fmt.Sprintf("ERROR: %v", err))
}

// IsError reports whether the status carries a transport failure.
func (s ConnectionStatus) IsError() bool {
	return len(s) >= 5 && s[:5] == "ERROR"
}

// HeatState is the decoded heater indicator from a pump/heat notification.
type HeatState string

const (
	HeatOn           HeatState = "ON"
	HeatOff          HeatState = "OFF"
	HeatOnAtTarget   HeatState = "ON (AT TARGET)"
	HeatOnOverTarget HeatState = "ON (OVER TARGET)"
	HeatUnknown      HeatState = "UNKNOWN"
)

// PumpState is the decoded pump indicator from a pump/heat notification.
type PumpState string

const (
	PumpOn      PumpState = "ON"
	PumpOff     PumpState = "OFF"
	PumpUnknown PumpState = "UNKNOWN"
)

// unknownHeatState labels an unrecognized notification pattern with its raw
// bytes so the pattern table can be extended from field logs.
func unknownHeatState(b0, b1 byte) HeatState {
	return HeatState(fmt.Sprintf("UNKNOWN (0x%02x, 0x%02x)", b0, b1))
}

func unknownPumpState(b0, b1 byte) PumpState {
	return PumpState(fmt.Sprintf("UNKNOWN (0x%02x, 0x%02x)", b0, b1))
}

// DeviceInfo holds the static attributes read once after each connect.
type DeviceInfo struct {
	BLEFirmwareVersion string
	FirmwareVersion    string
	SerialNumber       string
	HoursOfOperation   *uint16
	MinutesOfOperation *uint16
}

// DeviceState is a snapshot of everything the coordinator knows about the
// device. Pointer fields are nil until the first successful read, and reset
// to nil on disconnect or decode failure. Snapshots are values; observers may
// keep them without racing the coordinator.
type DeviceState struct {
	Status      ConnectionStatus
	Temperature *float64 // °C, one-tenth-degree resolution
	Heat        HeatState
	Pump        PumpState
	RSSI        *int16 // dBm, nil when the transport cannot report it
	LastError   string

	Info DeviceInfo
}

// newDeviceState returns the initial snapshot: disconnected, nothing read yet.
func newDeviceState() DeviceState {
	return DeviceState{
		Status: StatusDisconnected,
		Heat:   HeatUnknown,
		Pump:   PumpUnknown,
	}
}
