package coordinator

import (
	"fmt"

	"github.com/johnywind/HA-IoTiX/internal/adam"
)

// Snapshot is the immutable result of one polling cycle. It is replaced
// wholesale each cycle and never mutated after construction.
type Snapshot struct {
	Device       adam.DeviceInfo          `json:"device"`
	Pins         []adam.PinConfig         `json:"pins"`
	PinStates    map[string]adam.PinState `json:"pinStates"`
	Triggers     []adam.InputTrigger      `json:"triggers"`
	ButtonEvents []adam.ButtonEvent       `json:"buttonEvents"`
	CoverStates  map[int]adam.CoverState  `json:"coverStates"`
	CoverConfigs []adam.CoverConfig       `json:"coverConfigs"`
	RelayModules []adam.RelayModule       `json:"relayModules"`
}

// StateKey is the per-pin state map key: direction plus pin number.
// Inputs and outputs are separate number spaces, so the direction prefix
// keeps them from colliding.
func StateKey(pin int, isInput bool) string {
	if isInput {
		return fmt.Sprintf("in_%d", pin)
	}
	return fmt.Sprintf("out_%d", pin)
}

// PinState looks up the last-known state for a pin. A missing entry means
// "unknown", not "off".
func (s *Snapshot) PinState(pin int, isInput bool) (adam.PinState, bool) {
	state, ok := s.PinStates[StateKey(pin, isInput)]
	return state, ok
}

// PinByNumber returns the configured pin with the given number, if any.
func (s *Snapshot) PinByNumber(pin int) (adam.PinConfig, bool) {
	for _, p := range s.Pins {
		if p.Pin == pin {
			return p, true
		}
	}
	return adam.PinConfig{}, false
}

// CoverIDForPin derives the cover id of a cover-kind pin entry. Entries
// synthesized at a virtual pin carry it explicitly; otherwise it falls
// back to the pin number offset.
func CoverIDForPin(p adam.PinConfig) int {
	if p.CoverID != 0 {
		return p.CoverID
	}
	if p.Pin >= 100 {
		return p.Pin - 100
	}
	return 0
}

// MergeCovers reconciles the two cover sources into one canonical pin
// list. The pin-list representation always wins: a dedicated cover-config
// entry is only synthesized into a virtual pin (100+coverId) when no
// pin-list entry already claims that cover id. The input slice is not
// modified.
func MergeCovers(pins []adam.PinConfig, covers []adam.CoverConfig) []adam.PinConfig {
	existing := make(map[int]struct{})
	for _, p := range pins {
		if p.Kind == adam.PinKindCover {
			existing[CoverIDForPin(p)] = struct{}{}
		}
	}

	merged := append([]adam.PinConfig(nil), pins...)
	for _, cover := range covers {
		if _, ok := existing[cover.CoverID]; ok {
			continue
		}

		name := cover.Name
		if name == "" {
			name = fmt.Sprintf("Cover %d", cover.CoverID+1)
		}

		merged = append(merged, adam.PinConfig{
			Pin:           adam.CoverPin(cover.CoverID),
			Kind:          adam.PinKindCover,
			Name:          name,
			IsInput:       false,
			CoverID:       cover.CoverID,
			InputUpPin:    cover.InputUpPin,
			InputDownPin:  cover.InputDownPin,
			OutputUpPin:   cover.OutputUpPin,
			OutputDownPin: cover.OutputDownPin,
			UpTimeSec:     cover.UpTimeSec,
			DownTimeSec:   cover.DownTimeSec,
			Interlock:     cover.Interlock,
		})
		existing[cover.CoverID] = struct{}{}
	}

	return merged
}
