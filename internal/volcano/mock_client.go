package volcano

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"github.com/tbarnes/volcano-companion/internal/bt"
)

// MockClient implements bt.Client without real Bluetooth hardware. It backs
// the test suite and the --mock run mode: characteristic values are settable,
// failures injectable per characteristic, writes recorded for inspection, and
// pump/heat notifications can be pushed into the subscription callback.
//
// It also counts overlapping calls so tests can assert the coordinator never
// drives the transport from two goroutines at once.
type MockClient struct {
	mu sync.Mutex

	connected    bool
	connectErr   error
	connectCount int
	failVerify   bool

	values       map[string][]byte
	readErr      map[string]error
	writeErr     map[string]error
	subscribeErr error

	writes       []MockWrite
	notifyCb     func([]byte)
	subscribedTo string

	rssi *int16

	inFlight    int32
	maxInFlight int32
}

// MockWrite records one characteristic write.
type MockWrite struct {
	UUID string
	Data []byte
}

var _ bt.Client = (*MockClient)(nil)

// NewMockClient creates a mock with sane defaults: connects succeed, the
// temperature characteristic reads 180.0 °C, RSSI is unsupported.
func NewMockClient() *MockClient {
	m := &MockClient{
		values:   make(map[string][]byte),
		readErr:  make(map[string]error),
		writeErr: make(map[string]error),
	}
	m.SetTemperature(180.0)
	m.values[CharUUIDBLEFirmwareVersion] = []byte("BLE-V1.0.12")
	m.values[CharUUIDFirmwareVersion] = []byte("V01.03.09")
	m.values[CharUUIDSerialNumber] = []byte("VH-MOCK-0001")
	m.values[CharUUIDHoursOfOperation] = []byte{0x2a, 0x00}
	m.values[CharUUIDMinutesOfOperation] = []byte{0x11, 0x00}
	m.values[CharUUIDVibrationRegister] = []byte{0x00, 0x00}
	return m
}

func (m *MockClient) enter() {
	n := atomic.AddInt32(&m.inFlight, 1)
	for {
		seen := atomic.LoadInt32(&m.maxInFlight)
		if n <= seen || atomic.CompareAndSwapInt32(&m.maxInFlight, seen, n) {
			break
		}
	}
}

func (m *MockClient) leave() {
	atomic.AddInt32(&m.inFlight, -1)
}

// MaxConcurrentCalls returns the highest number of transport calls ever in
// flight at the same time. Anything above 1 means serialization was violated.
func (m *MockClient) MaxConcurrentCalls() int {
	return int(atomic.LoadInt32(&m.maxInFlight))
}

func (m *MockClient) Connect(ctx context.Context) error {
	m.enter()
	defer m.leave()
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.connectCount++
	if m.connectErr != nil {
		return m.connectErr
	}
	m.connected = !m.failVerify
	return nil
}

func (m *MockClient) Disconnect() error {
	m.enter()
	defer m.leave()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.connected = false
	m.notifyCb = nil
	m.subscribedTo = ""
	return nil
}

func (m *MockClient) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

func (m *MockClient) ReadCharacteristic(uuid string) ([]byte, error) {
	m.enter()
	defer m.leave()

	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.connected {
		return nil, bt.ErrNotConnected
	}
	if err := m.readErr[uuid]; err != nil {
		return nil, err
	}
	data, ok := m.values[uuid]
	if !ok {
		return nil, fmt.Errorf("characteristic %s not found on device", uuid)
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (m *MockClient) WriteCharacteristic(uuid string, data []byte) error {
	m.enter()
	defer m.leave()

	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.connected {
		return bt.ErrNotConnected
	}
	if err := m.writeErr[uuid]; err != nil {
		return err
	}
	recorded := make([]byte, len(data))
	copy(recorded, data)
	m.writes = append(m.writes, MockWrite{UUID: uuid, Data: recorded})
	m.values[uuid] = recorded
	return nil
}

func (m *MockClient) Subscribe(uuid string, cb func(data []byte)) error {
	m.enter()
	defer m.leave()

	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.connected {
		return bt.ErrNotConnected
	}
	if m.subscribeErr != nil {
		return m.subscribeErr
	}
	m.subscribedTo = uuid
	m.notifyCb = cb
	return nil
}

func (m *MockClient) ReadRSSI() (int16, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.rssi == nil {
		return 0, bt.ErrRSSIUnsupported
	}
	return *m.rssi, nil
}

// Notify pushes a raw pump/heat notification into the subscription callback,
// the way the transport's event delivery would.
func (m *MockClient) Notify(data []byte) {
	m.mu.Lock()
	cb := m.notifyCb
	m.mu.Unlock()
	if cb != nil {
		cb(data)
	}
}

// SetTemperature sets the temperature characteristic to celsius, encoded the
// way the firmware reports it.
func (m *MockClient) SetTemperature(celsius float64) {
	buf := make([]byte, 2)
	binary.LittleEndian.PutUint16(buf, uint16(math.Round(celsius*10)))
	m.SetValue(CharUUIDCurrentTemperature, buf)
}

// SetValue sets a characteristic's raw read payload.
func (m *MockClient) SetValue(uuid string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[uuid] = data
}

// SetRSSI makes ReadRSSI report a value instead of ErrRSSIUnsupported.
func (m *MockClient) SetRSSI(dbm int16) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rssi = &dbm
}

// FailConnect makes subsequent connect attempts return err (nil to clear).
func (m *MockClient) FailConnect(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connectErr = err
}

// FailVerify makes connects succeed while IsConnected stays false, modelling
// a backend that reports success before the link is usable.
func (m *MockClient) FailVerify(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failVerify = fail
}

// FailRead injects an error for reads of uuid (nil to clear).
func (m *MockClient) FailRead(uuid string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.readErr, uuid)
		return
	}
	m.readErr[uuid] = err
}

// FailWrite injects an error for writes to uuid (nil to clear).
func (m *MockClient) FailWrite(uuid string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.writeErr, uuid)
		return
	}
	m.writeErr[uuid] = err
}

// FailSubscribe injects an error for subscription attempts (nil to clear).
func (m *MockClient) FailSubscribe(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscribeErr = err
}

// Writes returns the recorded characteristic writes in order.
func (m *MockClient) Writes() []MockWrite {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MockWrite, len(m.writes))
	copy(out, m.writes)
	return out
}

// ConnectCount returns how many connect attempts were made.
func (m *MockClient) ConnectCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connectCount
}

// Subscribed returns the UUID of the characteristic the coordinator
// subscribed to, empty when no subscription is active.
func (m *MockClient) Subscribed() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.subscribedTo
}
