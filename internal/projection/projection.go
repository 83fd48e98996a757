// Package projection derives flat, host-facing entity views from a
// snapshot. All functions are pure: they read the snapshot and allocate
// fresh slices, never mutating shared state.
package projection

import (
	"github.com/johnywind/HA-IoTiX/internal/adam"
	"github.com/johnywind/HA-IoTiX/internal/coordinator"
)

// FullBrightness is reported for a dimmable light that is on but whose
// state carries no brightness value.
const FullBrightness = 255

// Light is a dimmable or plain light output.
type Light struct {
	Pin        int    `json:"pin"`
	Name       string `json:"name"`
	On         bool   `json:"on"`
	Brightness int    `json:"brightness"`
	Known      bool   `json:"known"`
}

// Switch is a plain on/off output.
type Switch struct {
	Pin   int    `json:"pin"`
	Name  string `json:"name"`
	On    bool   `json:"on"`
	Known bool   `json:"known"`
}

// BinarySensor is an input pin, typically a wall button or contact.
type BinarySensor struct {
	Pin        int    `json:"pin"`
	Name       string `json:"name"`
	On         bool   `json:"on"`
	Known      bool   `json:"known"`
	ButtonMode string `json:"buttonMode,omitempty"`
}

// Cover is a time-driven cover with live movement state.
type Cover struct {
	CoverID   int    `json:"coverId"`
	Pin       int    `json:"pin"`
	Name      string `json:"name"`
	Moving    bool   `json:"moving"`
	Direction string `json:"direction"`
}

// RelaySwitch is one channel of a configured relay expansion module,
// addressed by its virtual pin.
type RelaySwitch struct {
	ModuleID int    `json:"moduleId"`
	RelayID  int    `json:"relayId"`
	Pin      int    `json:"pin"`
	Name     string `json:"name"`
	On       bool   `json:"on"`
}

// Lights returns all configured light outputs. A light whose state was
// not readable this cycle reports Known=false.
func Lights(snap *coordinator.Snapshot) []Light {
	var lights []Light
	for _, p := range snap.Pins {
		if p.Kind != adam.PinKindLight || p.IsInput {
			continue
		}

		light := Light{Pin: p.Pin, Name: p.Name}
		if state, ok := snap.PinState(p.Pin, false); ok {
			light.Known = true
			light.On = state.State
			if state.Brightness != nil {
				light.Brightness = *state.Brightness
			} else if state.State {
				light.Brightness = FullBrightness
			}
		}
		lights = append(lights, light)
	}
	return lights
}

// Switches returns all configured switch outputs.
func Switches(snap *coordinator.Snapshot) []Switch {
	var switches []Switch
	for _, p := range snap.Pins {
		if p.Kind != adam.PinKindSwitch || p.IsInput {
			continue
		}

		sw := Switch{Pin: p.Pin, Name: p.Name}
		if state, ok := snap.PinState(p.Pin, false); ok {
			sw.Known = true
			sw.On = state.State
		}
		switches = append(switches, sw)
	}
	return switches
}

// BinarySensors returns all configured input pins.
func BinarySensors(snap *coordinator.Snapshot) []BinarySensor {
	var sensors []BinarySensor
	for _, p := range snap.Pins {
		if p.Kind != adam.PinKindBinarySensor {
			continue
		}

		sensor := BinarySensor{Pin: p.Pin, Name: p.Name, ButtonMode: p.ButtonMode}
		if state, ok := snap.PinState(p.Pin, true); ok {
			sensor.Known = true
			sensor.On = state.State
		}
		sensors = append(sensors, sensor)
	}
	return sensors
}

// Covers returns every cover in the merged pin list, joined with its
// live movement state. A cover with no state entry reads as stopped.
func Covers(snap *coordinator.Snapshot) []Cover {
	var covers []Cover
	for _, p := range snap.Pins {
		if p.Kind != adam.PinKindCover {
			continue
		}

		id := coordinator.CoverIDForPin(p)
		cover := Cover{
			CoverID:   id,
			Pin:       p.Pin,
			Name:      p.Name,
			Direction: "stopped",
		}
		if state, ok := snap.CoverStates[id]; ok {
			cover.Moving = state.Moving
			if state.Direction != "" {
				cover.Direction = state.Direction
			}
		}
		covers = append(covers, cover)
	}
	return covers
}

// RelaySwitches returns one switch per channel of every configured
// relay module. Unconfigured modules reserve an address but project no
// entities.
func RelaySwitches(snap *coordinator.Snapshot) []RelaySwitch {
	var relays []RelaySwitch
	for _, module := range snap.RelayModules {
		if !module.Configured {
			continue
		}
		for _, relay := range module.Relays {
			relays = append(relays, RelaySwitch{
				ModuleID: module.ID,
				RelayID:  relay.ID,
				Pin:      adam.RelayPin(module.ID, relay.ID),
				Name:     relay.Name,
				On:       relay.State,
			})
		}
	}
	return relays
}
