package bt

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"tinygo.org/x/bluetooth"
)

// TinygoClient implements Client on top of tinygo.org/x/bluetooth for a
// single fixed-address peripheral.
type TinygoClient struct {
	adapter *bluetooth.Adapter
	address bluetooth.Address
	logger  *logrus.Logger

	mu        sync.RWMutex
	device    *bluetooth.Device
	connected bool

	// Serializes BLE characteristic operations; concurrent access to one
	// link interleaves ATT requests on some backends.
	bleMu sync.Mutex

	characteristicByUUID map[string]*bluetooth.DeviceCharacteristic
}

var _ Client = (*TinygoClient)(nil)

// NewTinygoClient binds a client to the peripheral at addressStr (MAC on
// Linux). The adapter must already be enabled.
func NewTinygoClient(adapter *bluetooth.Adapter, addressStr string, logger *logrus.Logger) (*TinygoClient, error) {
	if adapter == nil {
		panic("TinygoClient: adapter cannot be nil")
	}
	if logger == nil {
		panic("TinygoClient: logger cannot be nil")
	}

	mac, err := bluetooth.ParseMAC(addressStr)
	if err != nil {
		return nil, fmt.Errorf("invalid device address %q: %w", addressStr, err)
	}

	c := &TinygoClient{
		adapter:              adapter,
		address:              bluetooth.Address{MACAddress: bluetooth.MACAddress{MAC: mac}},
		logger:               logger,
		characteristicByUUID: make(map[string]*bluetooth.DeviceCharacteristic),
	}

	// Track link drops reported by the adapter so IsConnected reflects
	// reality between operations.
	adapter.SetConnectHandler(func(device bluetooth.Device, connected bool) {
		if device.Address.String() != c.address.String() {
			return
		}
		c.logger.Debugf("TinygoClient: adapter reports %s connected=%v", device.Address.String(), connected)
		if !connected {
			c.mu.Lock()
			c.connected = false
			c.device = nil
			c.mu.Unlock()
		}
	})

	return c, nil
}

// Connect establishes the link and discovers every service and characteristic
// in one pass. Discovering services piecemeal later interrupts operations on
// already-discovered services with some backends, so the whole table is
// cached up front; this also finalizes discovery the way the firmware
// expects before notifications behave.
func (c *TinygoClient) Connect(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.logger.Debugf("TinygoClient: connecting to %s", c.address.String())
	device, err := c.adapter.Connect(c.address, bluetooth.ConnectionParams{})
	if err != nil {
		return fmt.Errorf("connect %s: %w", c.address.String(), err)
	}

	c.bleMu.Lock()
	defer c.bleMu.Unlock()

	services, err := device.DiscoverServices(nil)
	if err != nil {
		_ = device.Disconnect()
		return fmt.Errorf("service discovery on %s: %w", c.address.String(), err)
	}

	chars := make(map[string]*bluetooth.DeviceCharacteristic)
	for i := range services {
		svc := services[i]
		discovered, err := svc.DiscoverCharacteristics(nil)
		if err != nil {
			_ = device.Disconnect()
			return fmt.Errorf("characteristic discovery on service %s: %w", svc.UUID().String(), err)
		}
		for j := range discovered {
			ch := &discovered[j]
			chars[ch.UUID().String()] = ch
		}
	}
	c.logger.Debugf("TinygoClient: cached %d characteristics across %d services", len(chars), len(services))

	c.mu.Lock()
	c.device = &device
	c.connected = true
	c.characteristicByUUID = chars
	c.mu.Unlock()

	return nil
}

func (c *TinygoClient) Disconnect() error {
	c.mu.Lock()
	device := c.device
	c.device = nil
	c.connected = false
	c.characteristicByUUID = make(map[string]*bluetooth.DeviceCharacteristic)
	c.mu.Unlock()

	if device == nil {
		return nil
	}
	return device.Disconnect()
}

func (c *TinygoClient) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected && c.device != nil
}

func (c *TinygoClient) characteristic(uuid string) (*bluetooth.DeviceCharacteristic, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.connected || c.device == nil {
		return nil, ErrNotConnected
	}
	ch, ok := c.characteristicByUUID[uuid]
	if !ok {
		return nil, fmt.Errorf("characteristic %s not found on device", uuid)
	}
	return ch, nil
}

func (c *TinygoClient) ReadCharacteristic(uuid string) ([]byte, error) {
	c.bleMu.Lock()
	defer c.bleMu.Unlock()

	ch, err := c.characteristic(uuid)
	if err != nil {
		return nil, err
	}

	buf := make([]byte, 512)
	n, err := ch.Read(buf)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", uuid, err)
	}
	return buf[:n], nil
}

func (c *TinygoClient) WriteCharacteristic(uuid string, data []byte) error {
	c.bleMu.Lock()
	defer c.bleMu.Unlock()

	ch, err := c.characteristic(uuid)
	if err != nil {
		return err
	}
	if _, err := ch.WriteWithoutResponse(data); err != nil {
		return fmt.Errorf("write %s: %w", uuid, err)
	}
	return nil
}

func (c *TinygoClient) Subscribe(uuid string, cb func(data []byte)) error {
	c.bleMu.Lock()
	defer c.bleMu.Unlock()

	ch, err := c.characteristic(uuid)
	if err != nil {
		return err
	}
	if err := ch.EnableNotifications(cb); err != nil {
		return fmt.Errorf("subscribe %s: %w", uuid, err)
	}
	return nil
}

// ReadRSSI is unsupported: the adapter exposes signal strength only in scan
// results, not on an established link.
func (c *TinygoClient) ReadRSSI() (int16, error) {
	return 0, ErrRSSIUnsupported
}
