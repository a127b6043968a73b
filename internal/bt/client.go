package bt

import (
	"context"
	"errors"
)

// ErrNotConnected is returned by characteristic operations when no link is
// established.
var ErrNotConnected = errors.New("not connected")

// ErrRSSIUnsupported is returned by ReadRSSI when the transport cannot report
// signal strength for an established link. Callers should treat it as a
// normal "no value" outcome, not a failure.
var ErrRSSIUnsupported = errors.New("rssi not supported by transport")

// Client is the BLE transport capability the coordinator consumes. A Client
// is bound to a single fixed-address peripheral; GATT discovery, pairing and
// the rest of the stack live behind this interface.
//
// Implementations must serialize characteristic access internally: the
// coordinator issues at most one operation at a time from its own goroutine,
// but notification plumbing may touch the link out-of-band.
type Client interface {
	// Connect establishes the link and performs the service discovery
	// warm-up, caching all characteristics.
	Connect(ctx context.Context) error

	// Disconnect tears the link down. Safe to call when not connected.
	Disconnect() error

	// IsConnected reports the verified link state, not merely that a
	// connect attempt succeeded.
	IsConnected() bool

	ReadCharacteristic(uuid string) ([]byte, error)
	WriteCharacteristic(uuid string, data []byte) error

	// Subscribe registers cb for notifications on the characteristic. The
	// callback is invoked by the transport's event delivery and must not
	// block.
	Subscribe(uuid string, cb func(data []byte)) error

	// ReadRSSI returns the current signal strength in dBm, or
	// ErrRSSIUnsupported when the capability is absent.
	ReadRSSI() (int16, error)
}
