package adam

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// MockClient implements AdamClient for testing. Read endpoints serve the
// configured fixtures; write endpoints are recorded. Any endpoint can be
// made to fail by name via FailWith.
type MockClient struct {
	mu sync.Mutex

	Info         *DeviceInfo
	Pins         []PinConfig
	Available    []AvailablePin
	CoversConfig []CoverConfig
	CoversState  []CoverState
	Triggers     []InputTrigger
	Events       []ButtonEvent
	Modules      []RelayModule

	pinStates map[string]PinState
	failures  map[string]error

	writes   []WriteCall
	firmware []byte
}

// WriteCall records one write request made against the mock.
type WriteCall struct {
	Endpoint string
	Payload  interface{}
}

// NewMockClient creates a mock controller with a plausible default identity.
func NewMockClient() *MockClient {
	return &MockClient{
		Info: &DeviceInfo{
			Name:            "Adam Controller",
			Model:           Model,
			Manufacturer:    Manufacturer,
			MAC:             "AA:BB:CC:DD:EE:FF",
			FirmwareVersion: "1.0.0",
		},
		pinStates: make(map[string]PinState),
		failures:  make(map[string]error),
	}
}

// FailWith makes the named endpoint (e.g. "info", "pins/config",
// "pin/state", "covers/config", "covers/state", "input/triggers",
// "button/events", "xr8/list", "pin/control", "pin/configure",
// "input/trigger/set", "cover/configure", "cover/control",
// "xr8/configure", "xr8/relay/control", "device/name", "update")
// return the given error.
func (m *MockClient) FailWith(endpoint string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.failures, endpoint)
		return
	}
	m.failures[endpoint] = err
}

func (m *MockClient) failure(endpoint string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.failures[endpoint]
}

func mockStateKey(pin int, isInput bool) string {
	if isInput {
		return fmt.Sprintf("in_%d", pin)
	}
	return fmt.Sprintf("out_%d", pin)
}

// SetMockPinState seeds the live state served for one pin.
func (m *MockClient) SetMockPinState(pin int, isInput bool, state PinState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pinStates[mockStateKey(pin, isInput)] = state
}

// GetInfo serves the fixture identity.
func (m *MockClient) GetInfo(ctx context.Context) (*DeviceInfo, error) {
	if err := m.failure("info"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	info := *m.Info
	return &info, nil
}

func (m *MockClient) GetPinsConfig(ctx context.Context) ([]PinConfig, error) {
	if err := m.failure("pins/config"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]PinConfig(nil), m.Pins...), nil
}

func (m *MockClient) GetPinsAvailable(ctx context.Context) ([]AvailablePin, error) {
	if err := m.failure("pins/available"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]AvailablePin(nil), m.Available...), nil
}

func (m *MockClient) GetPinState(ctx context.Context, pin int, isInput bool) (*PinState, error) {
	if err := m.failure("pin/state"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	state, ok := m.pinStates[mockStateKey(pin, isInput)]
	if !ok {
		return nil, statusError(pathPinState, 404)
	}
	return &state, nil
}

func (m *MockClient) GetCoversConfig(ctx context.Context) ([]CoverConfig, error) {
	if err := m.failure("covers/config"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]CoverConfig(nil), m.CoversConfig...), nil
}

func (m *MockClient) GetCoversState(ctx context.Context) ([]CoverState, error) {
	if err := m.failure("covers/state"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]CoverState(nil), m.CoversState...), nil
}

func (m *MockClient) GetInputTriggers(ctx context.Context) ([]InputTrigger, error) {
	if err := m.failure("input/triggers"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]InputTrigger(nil), m.Triggers...), nil
}

func (m *MockClient) GetButtonEvents(ctx context.Context) ([]ButtonEvent, error) {
	if err := m.failure("button/events"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ButtonEvent(nil), m.Events...), nil
}

func (m *MockClient) GetRelayModules(ctx context.Context) ([]RelayModule, error) {
	if err := m.failure("xr8/list"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]RelayModule(nil), m.Modules...), nil
}

func (m *MockClient) record(endpoint string, payload interface{}) error {
	if err := m.failure(endpoint); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes = append(m.writes, WriteCall{Endpoint: endpoint, Payload: payload})
	return nil
}

func (m *MockClient) SetPinState(ctx context.Context, pin int, command string, brightness *int) error {
	return m.record("pin/control", PinControlRequest{Pin: pin, Command: command, Brightness: brightness})
}

func (m *MockClient) ConfigurePin(ctx context.Context, req PinConfigureRequest) error {
	return m.record("pin/configure", req)
}

func (m *MockClient) SetInputTrigger(ctx context.Context, inputPin, outputPin int) error {
	return m.record("input/trigger/set", TriggerSetRequest{InputPin: inputPin, OutputPin: outputPin})
}

func (m *MockClient) SetPushTriggers(ctx context.Context, inputPin, shortPress, longPress, doublePress int) error {
	return m.record("input/trigger/set", PushTriggerSetRequest{
		InputPin:          inputPin,
		ShortPressOutput:  shortPress,
		LongPressOutput:   longPress,
		DoublePressOutput: doublePress,
	})
}

func (m *MockClient) ConfigureCover(ctx context.Context, cfg CoverConfig) error {
	return m.record("cover/configure", cfg)
}

func (m *MockClient) CoverCommand(ctx context.Context, coverID int, command string) error {
	return m.record("cover/control", CoverCommandRequest{CoverID: coverID, Command: command})
}

func (m *MockClient) ConfigureRelayModule(ctx context.Context, moduleID, address int, configured bool, relayNames []string) error {
	req := RelayModuleConfigureRequest{ModuleID: moduleID, Address: address, Configured: configured}
	if len(relayNames) == RelaysPerModule {
		for _, name := range relayNames {
			req.Relays = append(req.Relays, RelayName{Name: name})
		}
	}
	return m.record("xr8/configure", req)
}

func (m *MockClient) SetRelayState(ctx context.Context, moduleID, relayID int, on bool) error {
	return m.record("xr8/relay/control", RelayControlRequest{ModuleID: moduleID, RelayID: relayID, State: on})
}

func (m *MockClient) SetDeviceName(ctx context.Context, name string) error {
	return m.record("device/name", DeviceNameRequest{Name: name})
}

func (m *MockClient) UploadFirmware(ctx context.Context, image io.Reader) error {
	if err := m.failure("update"); err != nil {
		return err
	}
	data, err := io.ReadAll(image)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.firmware = data
	m.writes = append(m.writes, WriteCall{Endpoint: "update"})
	return nil
}

// Writes returns all recorded write calls.
func (m *MockClient) Writes() []WriteCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]WriteCall(nil), m.writes...)
}

// WritesTo returns recorded write calls against one endpoint.
func (m *MockClient) WritesTo(endpoint string) []WriteCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	var calls []WriteCall
	for _, w := range m.writes {
		if w.Endpoint == endpoint {
			calls = append(calls, w)
		}
	}
	return calls
}

// ClearWrites clears the write history.
func (m *MockClient) ClearWrites() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes = nil
}

// UploadedFirmware returns the last uploaded firmware image.
func (m *MockClient) UploadedFirmware() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]byte(nil), m.firmware...)
}
