package projection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnywind/HA-IoTiX/internal/adam"
	"github.com/johnywind/HA-IoTiX/internal/coordinator"
)

func intPtr(v int) *int { return &v }

func TestLights(t *testing.T) {
	snap := &coordinator.Snapshot{
		Pins: []adam.PinConfig{
			{Pin: 0, Kind: adam.PinKindLight, Name: "Dimmed"},
			{Pin: 1, Kind: adam.PinKindLight, Name: "Plain On"},
			{Pin: 2, Kind: adam.PinKindLight, Name: "Unknown"},
			{Pin: 3, Kind: adam.PinKindSwitch, Name: "Not A Light"},
		},
		PinStates: map[string]adam.PinState{
			coordinator.StateKey(0, false): {State: true, Brightness: intPtr(80)},
			coordinator.StateKey(1, false): {State: true},
		},
	}

	lights := Lights(snap)
	require.Len(t, lights, 3)

	assert.True(t, lights[0].Known)
	assert.True(t, lights[0].On)
	assert.Equal(t, 80, lights[0].Brightness)

	assert.True(t, lights[1].On)
	assert.Equal(t, FullBrightness, lights[1].Brightness,
		"a light on without a reported brightness reads as full")

	assert.False(t, lights[2].Known)
	assert.False(t, lights[2].On)
}

func TestSwitches(t *testing.T) {
	snap := &coordinator.Snapshot{
		Pins: []adam.PinConfig{
			{Pin: 4, Kind: adam.PinKindSwitch, Name: "Pump"},
			{Pin: 5, Kind: adam.PinKindLight, Name: "Not A Switch"},
		},
		PinStates: map[string]adam.PinState{
			coordinator.StateKey(4, false): {State: true},
		},
	}

	switches := Switches(snap)
	require.Len(t, switches, 1)
	assert.Equal(t, "Pump", switches[0].Name)
	assert.True(t, switches[0].On)
	assert.True(t, switches[0].Known)
}

func TestBinarySensors(t *testing.T) {
	snap := &coordinator.Snapshot{
		Pins: []adam.PinConfig{
			{Pin: 6, Kind: adam.PinKindBinarySensor, Name: "Button", IsInput: true, ButtonMode: adam.ButtonModePush},
			{Pin: 7, Kind: adam.PinKindBinarySensor, Name: "Contact", IsInput: true},
		},
		PinStates: map[string]adam.PinState{
			coordinator.StateKey(6, true): {State: true},
		},
	}

	sensors := BinarySensors(snap)
	require.Len(t, sensors, 2)
	assert.True(t, sensors[0].On)
	assert.Equal(t, adam.ButtonModePush, sensors[0].ButtonMode)
	assert.False(t, sensors[1].Known)
}

func TestCovers(t *testing.T) {
	snap := &coordinator.Snapshot{
		Pins: []adam.PinConfig{
			{Pin: 100, Kind: adam.PinKindCover, Name: "Moving Blind", CoverID: 0},
			{Pin: 101, Kind: adam.PinKindCover, Name: "Idle Blind", CoverID: 1},
		},
		CoverStates: map[int]adam.CoverState{
			0: {CoverID: 0, Moving: true, Direction: "up"},
		},
	}

	covers := Covers(snap)
	require.Len(t, covers, 2)

	assert.True(t, covers[0].Moving)
	assert.Equal(t, "up", covers[0].Direction)

	assert.False(t, covers[1].Moving)
	assert.Equal(t, "stopped", covers[1].Direction,
		"a cover without live state reads as stopped")
}

func TestRelaySwitches(t *testing.T) {
	snap := &coordinator.Snapshot{
		RelayModules: []adam.RelayModule{
			{
				ID: 0, Address: 0x20, Configured: true,
				Relays: []adam.Relay{
					{ID: 0, Name: "Heater", State: true},
					{ID: 1, Name: "Fan", State: false},
				},
			},
			{
				ID: 1, Address: 0x21, Configured: false,
				Relays: []adam.Relay{{ID: 0, Name: "Ghost"}},
			},
		},
	}

	relays := RelaySwitches(snap)
	require.Len(t, relays, 2, "unconfigured modules project no entities")

	assert.Equal(t, "Heater", relays[0].Name)
	assert.True(t, relays[0].On)
	assert.Equal(t, adam.RelayPin(0, 0), relays[0].Pin)
	assert.Equal(t, 1000, relays[0].Pin)

	assert.Equal(t, adam.RelayPin(0, 1), relays[1].Pin)
}
