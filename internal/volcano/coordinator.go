package volcano

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tbarnes/volcano-companion/internal/bt"
	"github.com/tbarnes/volcano-companion/internal/go_func_utils"
)

// Observer is notified after every device state mutation. Callbacks run
// synchronously on the goroutine that mutated the state and must not block;
// a UI observer should only mark itself for refresh. Observer values must be
// comparable (use pointer receivers) so registration can be idempotent.
type Observer interface {
	DeviceStateChanged()
}

// Coordinator owns the connection lifecycle to the vaporizer, polls its
// telemetry, decodes push notifications and exposes the command interface.
// One goroutine drives connect, poll and reconnect; commands from other
// goroutines are marshalled onto it so characteristic access to the client
// stays serialized.
type Coordinator struct {
	client bt.Client
	logger *logrus.Logger

	pollInterval      time.Duration
	rssiInterval      time.Duration
	reconnectInterval time.Duration

	mu    sync.RWMutex
	state DeviceState

	obsMu     sync.Mutex
	observers []Observer

	commandCh chan func()

	runMu   sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewCoordinator creates a stopped coordinator. Call Start to begin the
// connect/poll loop.
func NewCoordinator(client bt.Client, logger *logrus.Logger, options ...func(*Coordinator)) *Coordinator {
	if client == nil {
		panic("Coordinator: client cannot be nil")
	}
	if logger == nil {
		panic("Coordinator: logger cannot be nil")
	}

	c := &Coordinator{
		client:            client,
		logger:            logger,
		pollInterval:      DefaultPollInterval,
		rssiInterval:      DefaultRSSIInterval,
		reconnectInterval: DefaultReconnectInterval,
		state:             newDeviceState(),
		commandCh:         make(chan func(), 16),
	}
	for _, option := range options {
		option(c)
	}
	return c
}

// State returns a snapshot of the current device state.
func (c *Coordinator) State() DeviceState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// RegisterObserver adds an observer to the fan-out set. Registering an
// already-registered observer is a no-op: each observer receives exactly one
// callback per state change, in registration order.
func (c *Coordinator) RegisterObserver(o Observer) {
	if o == nil {
		return
	}
	c.obsMu.Lock()
	defer c.obsMu.Unlock()
	for _, existing := range c.observers {
		if existing == o {
			return
		}
	}
	c.observers = append(c.observers, o)
}

// UnregisterObserver removes an observer. Unregistering an absent observer is
// a no-op.
func (c *Coordinator) UnregisterObserver(o Observer) {
	c.obsMu.Lock()
	defer c.obsMu.Unlock()
	for i, existing := range c.observers {
		if existing == o {
			c.observers = append(c.observers[:i], c.observers[i+1:]...)
			return
		}
	}
}

func (c *Coordinator) notifyObservers() {
	c.obsMu.Lock()
	observers := make([]Observer, len(c.observers))
	copy(observers, c.observers)
	c.obsMu.Unlock()

	for _, o := range observers {
		o.DeviceStateChanged()
	}
}

// mutate applies fn to the device state under the lock, then fans out.
func (c *Coordinator) mutate(fn func(*DeviceState)) {
	c.mu.Lock()
	fn(&c.state)
	c.mu.Unlock()
	c.notifyObservers()
}

// Start launches the connect/poll loop. A second Start while the loop is
// running is a no-op.
func (c *Coordinator) Start() {
	c.runMu.Lock()
	defer c.runMu.Unlock()

	if c.running {
		c.logger.Warn("Coordinator: Start called while already running")
		return
	}

	stopCh := make(chan struct{})
	doneCh := make(chan struct{})
	c.stopCh = stopCh
	c.doneCh = doneCh
	c.running = true

	c.logger.Debug("Coordinator: starting background loop")
	go_func_utils.SafeGo(c.logger, func() {
		c.run(stopCh, doneCh)
	})
}

// Stop signals the loop to exit and waits for it to finish. The loop observes
// the signal within one poll interval; the in-flight transport call, if any,
// is allowed to complete. Stopping a stopped coordinator is a no-op.
func (c *Coordinator) Stop() {
	c.runMu.Lock()
	defer c.runMu.Unlock()

	if !c.running {
		return
	}

	c.logger.Debug("Coordinator: stopping background loop")
	close(c.stopCh)
	<-c.doneCh
	c.running = false
	c.logger.Debug("Coordinator: background loop stopped")
}

// UserConnect restarts the loop on explicit user request. The previous loop,
// if any, is fully awaited first so that two loops never drive the same
// client handle.
func (c *Coordinator) UserConnect() {
	c.logger.Info("Coordinator: user requested connect")
	c.Stop()
	c.Start()
}

// UserDisconnect stops the loop, disconnects and forces the state to
// disconnected. Observers are notified synchronously.
func (c *Coordinator) UserDisconnect() {
	c.logger.Info("Coordinator: user requested disconnect")
	c.Stop()
	c.disconnect()
}

// run is the single coordinator task: connect when needed, poll temperature
// on the primary cadence, interleave RSSI reads on the secondary cadence,
// execute marshalled commands, and disconnect on the way out.
func (c *Coordinator) run(stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)

	var lastRSSI time.Time

	for {
		select {
		case <-stopCh:
			c.disconnect()
			return
		default:
		}

		if !c.client.IsConnected() {
			if !c.connect(stopCh) {
				// Backoff was interrupted by stop.
				c.disconnect()
				return
			}
			lastRSSI = time.Time{}
		}

		if c.client.IsConnected() {
			c.readTemperature()

			if time.Since(lastRSSI) >= c.rssiInterval {
				c.readRSSI()
				lastRSSI = time.Now()
			}
		}

		if !c.sleep(stopCh, c.pollInterval) {
			c.disconnect()
			return
		}
	}
}

// sleep waits for d while executing marshalled commands. Returns false when
// the stop signal arrives.
func (c *Coordinator) sleep(stopCh <-chan struct{}, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	for {
		select {
		case <-stopCh:
			return false
		case fn := <-c.commandCh:
			fn()
		case <-timer.C:
			return true
		}
	}
}

// connect performs one connection attempt. On failure it waits the reconnect
// interval before returning; the return value is false only when the wait was
// interrupted by stop.
func (c *Coordinator) connect(stopCh <-chan struct{}) bool {
	c.logger.Infof("Coordinator: connecting")
	c.mutate(func(s *DeviceState) {
		s.Status = StatusConnecting
	})

	if err := c.client.Connect(context.Background()); err != nil {
		c.logger.Warnf("Coordinator: connect failed: %v, retrying in %v", err, c.reconnectInterval)
		c.mutate(func(s *DeviceState) {
			s.Status = ErrorStatus(err)
			s.LastError = err.Error()
		})
		return c.sleep(stopCh, c.reconnectInterval)
	}

	// Verify the link rather than trusting the connect call; some backends
	// report success before the link is usable.
	if !c.client.IsConnected() {
		c.logger.Warnf("Coordinator: connect attempt did not verify, retrying in %v", c.reconnectInterval)
		c.mutate(func(s *DeviceState) {
			s.Status = StatusDisconnected
		})
		return c.sleep(stopCh, c.reconnectInterval)
	}

	c.logger.Info("Coordinator: connected")
	c.mutate(func(s *DeviceState) {
		s.Status = StatusConnected
		s.LastError = ""
	})

	// A failed subscription degrades pump/heat reporting but the link is
	// still good for polling and commands, so stay connected.
	if err := c.client.Subscribe(CharUUIDPumpHeatNotifications, c.handleNotification); err != nil {
		c.logger.Errorf("Coordinator: pump/heat subscription failed: %v", err)
		c.mutate(func(s *DeviceState) {
			s.LastError = err.Error()
		})
	}

	c.readDeviceInfo()
	return true
}

// disconnect tears the connection down best-effort and resets the state.
func (c *Coordinator) disconnect() {
	if err := c.client.Disconnect(); err != nil {
		c.logger.Warnf("Coordinator: error during disconnect: %v", err)
	}
	c.mutate(func(s *DeviceState) {
		*s = newDeviceState()
	})
	c.logger.Info("Coordinator: disconnected")
}

// readTemperature polls the temperature characteristic. A transport failure
// forces a disconnect so the loop reconnects; a short payload only degrades
// the temperature field.
func (c *Coordinator) readTemperature() {
	data, err := c.client.ReadCharacteristic(CharUUIDCurrentTemperature)
	if err != nil {
		c.logger.Errorf("Coordinator: temperature read failed: %v, reconnecting", err)
		c.mutate(func(s *DeviceState) {
			s.Status = ErrorStatus(err)
			s.LastError = err.Error()
		})
		c.disconnect()
		return
	}

	temperature, err := DecodeTemperature(data)
	if err != nil {
		c.logger.Warnf("Coordinator: %v", err)
		c.mutate(func(s *DeviceState) {
			s.Temperature = nil
		})
		return
	}

	c.mutate(func(s *DeviceState) {
		s.Temperature = &temperature
	})
}

// readRSSI refreshes signal strength. An unsupported transport is the normal
// quiet outcome; any other failure is logged but never fatal.
func (c *Coordinator) readRSSI() {
	rssi, err := c.client.ReadRSSI()
	if err != nil {
		if !errors.Is(err, bt.ErrRSSIUnsupported) {
			c.logger.Errorf("Coordinator: rssi read failed: %v", err)
		}
		c.mutate(func(s *DeviceState) {
			s.RSSI = nil
		})
		return
	}
	c.mutate(func(s *DeviceState) {
		s.RSSI = &rssi
	})
}

// readDeviceInfo reads the static attributes once per connection. Failures
// leave the affected fields empty and never tear the link down.
func (c *Coordinator) readDeviceInfo() {
	var info DeviceInfo

	readString := func(uuid, name string) string {
		data, err := c.client.ReadCharacteristic(uuid)
		if err != nil {
			c.logger.Warnf("Coordinator: %s read failed: %v", name, err)
			return ""
		}
		return DecodeString(data)
	}
	readCounter := func(uuid, name string) *uint16 {
		data, err := c.client.ReadCharacteristic(uuid)
		if err != nil {
			c.logger.Warnf("Coordinator: %s read failed: %v", name, err)
			return nil
		}
		v, err := DecodeUint16(data)
		if err != nil {
			c.logger.Warnf("Coordinator: %s decode failed: %v", name, err)
			return nil
		}
		return &v
	}

	info.BLEFirmwareVersion = readString(CharUUIDBLEFirmwareVersion, "ble firmware version")
	info.FirmwareVersion = readString(CharUUIDFirmwareVersion, "firmware version")
	info.SerialNumber = readString(CharUUIDSerialNumber, "serial number")
	info.HoursOfOperation = readCounter(CharUUIDHoursOfOperation, "hours of operation")
	info.MinutesOfOperation = readCounter(CharUUIDMinutesOfOperation, "minutes of operation")

	c.mutate(func(s *DeviceState) {
		s.Info = info
	})
}

// handleNotification decodes a pump/heat notification. It runs on the
// transport's delivery goroutine and only mutates in-memory state; observers
// are fanned out either way so consumers see unknown states too.
func (c *Coordinator) handleNotification(data []byte) {
	heat, pump, known := DecodePumpHeat(data)
	if !known {
		if len(data) < 2 {
			c.logger.Warnf("Coordinator: pump/heat notification too short: %d byte(s)", len(data))
		} else {
			c.logger.Warnf("Coordinator: unknown pump/heat pattern (0x%02x, 0x%02x)", data[0], data[1])
		}
	} else {
		c.logger.Debugf("Coordinator: pump/heat notification => heat=%s pump=%s", heat, pump)
	}

	c.mutate(func(s *DeviceState) {
		s.Heat = heat
		s.Pump = pump
	})
}
