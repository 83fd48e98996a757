package adam

// Pin kinds as reported by the controller's pin configuration endpoint.
const (
	PinKindLight        = "light"
	PinKindSwitch       = "switch"
	PinKindCover        = "cover"
	PinKindBinarySensor = "binary_sensor"
)

// Button modes for binary_sensor inputs.
const (
	ButtonModeClassic = "classic"
	ButtonModePush    = "push"
)

// Button event types reported by /api/button/events.
const (
	ButtonPressShort  = "short_press"
	ButtonPressLong   = "long_press"
	ButtonPressDouble = "double_press"
)

// NoTrigger is the sentinel the firmware uses for "no trigger/no action".
// It is never a real pin index.
const NoTrigger = 255

// Physical pins occupy 0-15 on each side (inputs and outputs are separate
// number spaces). Covers and relay channels are addressed as virtual pins.
const (
	MaxPhysicalPin  = 15
	MaxCovers       = 4
	MaxRelayModules = 8
	RelaysPerModule = 8
)

// Relay expansion modules sit on the I2C bus in a fixed address window.
const (
	RelayModuleMinAddress = 0x20
	RelayModuleMaxAddress = 0x27
)

// CoverPin returns the virtual pin number for a cover.
func CoverPin(coverID int) int {
	return 100 + coverID
}

// RelayPin returns the virtual output pin number for a relay channel.
func RelayPin(moduleID, relayID int) int {
	return 1000 + moduleID*100 + relayID
}

// DeviceInfo is the payload of GET /api/info.
type DeviceInfo struct {
	Name            string `json:"name"`
	Model           string `json:"model"`
	Manufacturer    string `json:"manufacturer"`
	MAC             string `json:"mac"`
	FirmwareVersion string `json:"firmware_version"`
}

// PinConfig is one configured pin as reported by GET /api/pins/config.
// Physical pins occupy 0-15; cover pins are 100+coverId; relay channels
// are 1000+moduleId*100+relayId. Kind-specific fields are only meaningful
// for the matching Kind.
type PinConfig struct {
	Pin     int    `json:"pin"`
	Kind    string `json:"type"`
	Name    string `json:"name"`
	IsInput bool   `json:"isInput"`

	// binary_sensor inputs only.
	ButtonMode           string `json:"buttonMode,omitempty"`
	TriggerOutput        int    `json:"triggerOutput,omitempty"`
	ShortPressOutput     int    `json:"shortPressOutput,omitempty"`
	LongPressOutput      int    `json:"longPressOutput,omitempty"`
	DoublePressOutput    int    `json:"doublePressOutput,omitempty"`
	LongPressDuration    int    `json:"longPressDuration,omitempty"`
	DoublePressTimeframe int    `json:"doublePressTimeframe,omitempty"`

	// cover pins only.
	CoverID       int  `json:"coverId,omitempty"`
	InputUpPin    int  `json:"inputUpPin,omitempty"`
	InputDownPin  int  `json:"inputDownPin,omitempty"`
	OutputUpPin   int  `json:"outputUpPin,omitempty"`
	OutputDownPin int  `json:"outputDownPin,omitempty"`
	UpTimeSec     int  `json:"upTimeSec,omitempty"`
	DownTimeSec   int  `json:"downTimeSec,omitempty"`
	Interlock     bool `json:"interlock,omitempty"`
}

// AvailablePin is one physical pin slot from GET /api/pins/available.
type AvailablePin struct {
	Pin     int    `json:"pin"`
	IsInput bool   `json:"isInput"`
	Label   string `json:"label,omitempty"`
	Name    string `json:"name,omitempty"`
}

// PinState is the payload of GET /api/pin/state.
type PinState struct {
	State      bool `json:"state"`
	Brightness *int `json:"brightness,omitempty"`
}

// CoverConfig is one entry from the dedicated GET /api/covers/config source.
type CoverConfig struct {
	CoverID       int    `json:"coverId"`
	Name          string `json:"name"`
	InputUpPin    int    `json:"inputUpPin"`
	InputDownPin  int    `json:"inputDownPin"`
	OutputUpPin   int    `json:"outputUpPin"`
	OutputDownPin int    `json:"outputDownPin"`
	UpTimeSec     int    `json:"upTimeSec"`
	DownTimeSec   int    `json:"downTimeSec"`
	Interlock     bool   `json:"interlock"`
}

// CoverState is the live movement state of one cover.
type CoverState struct {
	CoverID   int    `json:"coverId"`
	Moving    bool   `json:"moving"`
	Direction string `json:"direction"` // "up", "down" or "stopped"
}

// InputTrigger is one mapping from GET /api/input/triggers. For classic
// buttons only OutputPin is used; push buttons carry the three press
// outputs. NoTrigger (255) marks an unused slot.
type InputTrigger struct {
	InputPin          int `json:"inputPin"`
	OutputPin         int `json:"outputPin"`
	ShortPressOutput  int `json:"shortPressOutput,omitempty"`
	LongPressOutput   int `json:"longPressOutput,omitempty"`
	DoublePressOutput int `json:"doublePressOutput,omitempty"`
}

// ButtonEvent is one edge-triggered press observed since the last poll.
type ButtonEvent struct {
	InputPin  int    `json:"inputPin"`
	EventType string `json:"eventType"`
}

// Relay is one channel of a relay expansion module.
type Relay struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	State bool   `json:"state"`
}

// RelayModule is one XR8 expansion module slot from GET /api/xr8/list.
// An unconfigured module reserves its address but owns no entities.
type RelayModule struct {
	ID         int     `json:"id"`
	Address    int     `json:"address"`
	Configured bool    `json:"configured"`
	Relays     []Relay `json:"relays"`
}

// Wire envelopes. The controller wraps every list payload in an object.
type infoResponse = DeviceInfo

type pinsConfigResponse struct {
	Pins []PinConfig `json:"pins"`
}

type pinsAvailableResponse struct {
	Pins []AvailablePin `json:"pins"`
}

type coversConfigResponse struct {
	Covers []CoverConfig `json:"covers"`
}

type coversStateResponse struct {
	Covers []CoverState `json:"covers"`
}

type triggersResponse struct {
	Triggers []InputTrigger `json:"triggers"`
}

type buttonEventsResponse struct {
	Events []ButtonEvent `json:"events"`
}

type relayModulesResponse struct {
	Modules []RelayModule `json:"modules"`
}

// PinControlRequest is the body of POST /api/pin/control.
type PinControlRequest struct {
	Pin        int    `json:"pin"`
	Command    string `json:"command"`
	Brightness *int   `json:"brightness,omitempty"`
}

// PinConfigureRequest is the body of POST /api/pin/configure.
type PinConfigureRequest struct {
	Pin                  int    `json:"pin"`
	Kind                 string `json:"type"`
	Name                 string `json:"name"`
	IsInput              bool   `json:"isInput"`
	ButtonMode           string `json:"buttonMode,omitempty"`
	LongPressDuration    int    `json:"longPressDuration,omitempty"`
	DoublePressTimeframe int    `json:"doublePressTimeframe,omitempty"`
}

// TriggerSetRequest is the classic-mode body of POST /api/input/trigger/set.
type TriggerSetRequest struct {
	InputPin  int `json:"inputPin"`
	OutputPin int `json:"outputPin"`
}

// PushTriggerSetRequest is the push-mode body of POST /api/input/trigger/set.
type PushTriggerSetRequest struct {
	InputPin          int `json:"inputPin"`
	ShortPressOutput  int `json:"shortPressOutput"`
	LongPressOutput   int `json:"longPressOutput"`
	DoublePressOutput int `json:"doublePressOutput"`
}

// CoverCommandRequest is the body of POST /api/cover/control.
type CoverCommandRequest struct {
	CoverID int    `json:"coverId"`
	Command string `json:"command"`
}

// RelayModuleConfigureRequest is the body of POST /api/xr8/configure.
type RelayModuleConfigureRequest struct {
	ModuleID   int         `json:"moduleId"`
	Address    int         `json:"address"`
	Configured bool        `json:"configured"`
	Relays     []RelayName `json:"relays,omitempty"`
}

type RelayName struct {
	Name string `json:"name"`
}

// RelayControlRequest is the body of POST /api/xr8/relay/control.
type RelayControlRequest struct {
	ModuleID int  `json:"moduleId"`
	RelayID  int  `json:"relayId"`
	State    bool `json:"state"`
}

// DeviceNameRequest is the body of POST /api/device/name.
type DeviceNameRequest struct {
	Name string `json:"name"`
}
