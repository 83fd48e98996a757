package adam

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// Controller endpoints.
const (
	pathInfo            = "/api/info"
	pathPinsAvailable   = "/api/pins/available"
	pathPinsConfig      = "/api/pins/config"
	pathPinConfigure    = "/api/pin/configure"
	pathPinState        = "/api/pin/state"
	pathPinControl      = "/api/pin/control"
	pathCoversConfig    = "/api/covers/config"
	pathCoversState     = "/api/covers/state"
	pathCoverConfigure  = "/api/cover/configure"
	pathCoverControl    = "/api/cover/control"
	pathInputTriggers   = "/api/input/triggers"
	pathInputTriggerSet = "/api/input/trigger/set"
	pathButtonEvents    = "/api/button/events"
	pathRelayList       = "/api/xr8/list"
	pathRelayConfigure  = "/api/xr8/configure"
	pathRelayControl    = "/api/xr8/relay/control"
	pathDeviceName      = "/api/device/name"
	pathUpdate          = "/api/update"
)

// Per-request timeouts. Pin state reads are polled in bulk every cycle and
// get a short budget; configuration reads and writes get a longer one.
const (
	stateTimeout  = 5 * time.Second
	configTimeout = 10 * time.Second
	uploadTimeout = 120 * time.Second
)

// AdamClient defines the interface for the Adam controller's HTTP API.
// No operation retries internally; retry policy belongs to the caller.
type AdamClient interface {
	GetInfo(ctx context.Context) (*DeviceInfo, error)
	GetPinsConfig(ctx context.Context) ([]PinConfig, error)
	GetPinsAvailable(ctx context.Context) ([]AvailablePin, error)
	GetPinState(ctx context.Context, pin int, isInput bool) (*PinState, error)
	GetCoversConfig(ctx context.Context) ([]CoverConfig, error)
	GetCoversState(ctx context.Context) ([]CoverState, error)
	GetInputTriggers(ctx context.Context) ([]InputTrigger, error)
	GetButtonEvents(ctx context.Context) ([]ButtonEvent, error)
	GetRelayModules(ctx context.Context) ([]RelayModule, error)

	SetPinState(ctx context.Context, pin int, command string, brightness *int) error
	ConfigurePin(ctx context.Context, req PinConfigureRequest) error
	SetInputTrigger(ctx context.Context, inputPin, outputPin int) error
	SetPushTriggers(ctx context.Context, inputPin, shortPress, longPress, doublePress int) error
	ConfigureCover(ctx context.Context, cfg CoverConfig) error
	CoverCommand(ctx context.Context, coverID int, command string) error
	ConfigureRelayModule(ctx context.Context, moduleID, address int, configured bool, relayNames []string) error
	SetRelayState(ctx context.Context, moduleID, relayID int, on bool) error
	SetDeviceName(ctx context.Context, name string) error
	UploadFirmware(ctx context.Context, image io.Reader) error
}

// Client implements AdamClient over plain HTTP/1.1 JSON.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a client for the controller at the given host.
func NewClient(host string, logger *zap.Logger) *Client {
	return &Client{
		baseURL:    "http://" + host,
		httpClient: &http.Client{},
		logger:     logger,
	}
}

// BaseURL returns the controller's base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) doGet(ctx context.Context, path string, timeout time.Duration, out interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return transportError(path, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return transportError(path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return statusError(path, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return transportError(path, fmt.Errorf("decoding response: %w", err))
	}

	return nil
}

func (c *Client) doPost(ctx context.Context, path string, payload interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, configTimeout)
	defer cancel()

	body, err := json.Marshal(payload)
	if err != nil {
		return transportError(path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return transportError(path, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return transportError(path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return statusError(path, resp.StatusCode)
	}

	return nil
}

// GetInfo fetches device identity from /api/info.
func (c *Client) GetInfo(ctx context.Context) (*DeviceInfo, error) {
	var info infoResponse
	if err := c.doGet(ctx, pathInfo, configTimeout, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// GetPinsConfig fetches the configured pin list.
func (c *Client) GetPinsConfig(ctx context.Context) ([]PinConfig, error) {
	var resp pinsConfigResponse
	if err := c.doGet(ctx, pathPinsConfig, configTimeout, &resp); err != nil {
		return nil, err
	}
	return resp.Pins, nil
}

// GetPinsAvailable fetches the physical pin inventory.
func (c *Client) GetPinsAvailable(ctx context.Context) ([]AvailablePin, error) {
	var resp pinsAvailableResponse
	if err := c.doGet(ctx, pathPinsAvailable, configTimeout, &resp); err != nil {
		return nil, err
	}
	return resp.Pins, nil
}

// GetPinState fetches the live state of one physical pin.
func (c *Client) GetPinState(ctx context.Context, pin int, isInput bool) (*PinState, error) {
	q := url.Values{}
	q.Set("pin", strconv.Itoa(pin))
	if isInput {
		q.Set("isInput", "1")
	} else {
		q.Set("isInput", "0")
	}

	var state PinState
	if err := c.doGet(ctx, pathPinState+"?"+q.Encode(), stateTimeout, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// GetCoversConfig fetches the dedicated cover configuration source.
func (c *Client) GetCoversConfig(ctx context.Context) ([]CoverConfig, error) {
	var resp coversConfigResponse
	if err := c.doGet(ctx, pathCoversConfig, configTimeout, &resp); err != nil {
		return nil, err
	}
	return resp.Covers, nil
}

// GetCoversState fetches live movement state for all covers.
func (c *Client) GetCoversState(ctx context.Context) ([]CoverState, error) {
	var resp coversStateResponse
	if err := c.doGet(ctx, pathCoversState, configTimeout, &resp); err != nil {
		return nil, err
	}
	return resp.Covers, nil
}

// GetInputTriggers fetches the current input-to-output trigger mappings.
func (c *Client) GetInputTriggers(ctx context.Context) ([]InputTrigger, error) {
	var resp triggersResponse
	if err := c.doGet(ctx, pathInputTriggers, configTimeout, &resp); err != nil {
		return nil, err
	}
	return resp.Triggers, nil
}

// GetButtonEvents fetches the button presses observed since the last poll.
func (c *Client) GetButtonEvents(ctx context.Context) ([]ButtonEvent, error) {
	var resp buttonEventsResponse
	if err := c.doGet(ctx, pathButtonEvents, configTimeout, &resp); err != nil {
		return nil, err
	}
	return resp.Events, nil
}

// GetRelayModules fetches the relay expansion module list.
func (c *Client) GetRelayModules(ctx context.Context) ([]RelayModule, error) {
	var resp relayModulesResponse
	if err := c.doGet(ctx, pathRelayList, configTimeout, &resp); err != nil {
		return nil, err
	}
	return resp.Modules, nil
}

// SetPinState sends an on/off command to a pin, optionally with brightness.
func (c *Client) SetPinState(ctx context.Context, pin int, command string, brightness *int) error {
	return c.doPost(ctx, pathPinControl, PinControlRequest{
		Pin:        pin,
		Command:    command,
		Brightness: brightness,
	})
}

// ConfigurePin creates or updates a pin configuration.
func (c *Client) ConfigurePin(ctx context.Context, req PinConfigureRequest) error {
	return c.doPost(ctx, pathPinConfigure, req)
}

// SetInputTrigger maps a classic-mode input to an output.
func (c *Client) SetInputTrigger(ctx context.Context, inputPin, outputPin int) error {
	return c.doPost(ctx, pathInputTriggerSet, TriggerSetRequest{
		InputPin:  inputPin,
		OutputPin: outputPin,
	})
}

// SetPushTriggers maps a push-mode input's three press types to outputs.
func (c *Client) SetPushTriggers(ctx context.Context, inputPin, shortPress, longPress, doublePress int) error {
	return c.doPost(ctx, pathInputTriggerSet, PushTriggerSetRequest{
		InputPin:          inputPin,
		ShortPressOutput:  shortPress,
		LongPressOutput:   longPress,
		DoublePressOutput: doublePress,
	})
}

// ConfigureCover creates or updates a cover definition.
func (c *Client) ConfigureCover(ctx context.Context, cfg CoverConfig) error {
	return c.doPost(ctx, pathCoverConfigure, cfg)
}

// CoverCommand sends open/close/stop to a cover.
func (c *Client) CoverCommand(ctx context.Context, coverID int, command string) error {
	return c.doPost(ctx, pathCoverControl, CoverCommandRequest{
		CoverID: coverID,
		Command: command,
	})
}

// ConfigureRelayModule configures or deactivates a relay expansion module.
// Relay names are only sent when exactly one name per channel is given.
func (c *Client) ConfigureRelayModule(ctx context.Context, moduleID, address int, configured bool, relayNames []string) error {
	req := RelayModuleConfigureRequest{
		ModuleID:   moduleID,
		Address:    address,
		Configured: configured,
	}
	if len(relayNames) == RelaysPerModule {
		req.Relays = make([]RelayName, 0, RelaysPerModule)
		for _, name := range relayNames {
			req.Relays = append(req.Relays, RelayName{Name: name})
		}
	}
	return c.doPost(ctx, pathRelayConfigure, req)
}

// SetRelayState switches one relay channel on or off.
func (c *Client) SetRelayState(ctx context.Context, moduleID, relayID int, on bool) error {
	return c.doPost(ctx, pathRelayControl, RelayControlRequest{
		ModuleID: moduleID,
		RelayID:  relayID,
		State:    on,
	})
}

// SetDeviceName renames the controller.
func (c *Client) SetDeviceName(ctx context.Context, name string) error {
	return c.doPost(ctx, pathDeviceName, DeviceNameRequest{Name: name})
}

// UploadFirmware uploads a firmware image to /api/update as multipart
// form data. The device reboots on success.
func (c *Client) UploadFirmware(ctx context.Context, image io.Reader) error {
	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "firmware.bin")
	if err != nil {
		return transportError(pathUpdate, err)
	}
	if _, err := io.Copy(part, image); err != nil {
		return transportError(pathUpdate, err)
	}
	if err := mw.Close(); err != nil {
		return transportError(pathUpdate, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+pathUpdate, &buf)
	if err != nil {
		return transportError(pathUpdate, err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	c.logger.Info("Uploading firmware to controller", zap.Int("bytes", buf.Len()))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return transportError(pathUpdate, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return statusError(pathUpdate, resp.StatusCode)
	}

	c.logger.Info("Firmware uploaded, device rebooting")
	return nil
}
