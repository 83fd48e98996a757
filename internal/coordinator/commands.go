package coordinator

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/johnywind/HA-IoTiX/internal/adam"
)

// ErrUnconfigureUnsupported is returned by UnconfigurePin: the controller
// firmware has no endpoint for removing a pin configuration.
var ErrUnconfigureUnsupported = errors.New("coordinator: controller firmware does not support removing pin configurations")

// Push-button timing defaults, in milliseconds. Applied when a push-mode
// setup leaves them unset.
const (
	DefaultLongPressDuration    = 500
	DefaultDoublePressTimeframe = 300
)

// PinSetup describes one pin to configure, plus the trigger mapping to
// install afterwards. Build it with NewPinSetup: output pin 0 is a real
// pin, so the trigger fields must start at adam.NoTrigger rather than
// their zero value.
type PinSetup struct {
	Pin     int
	Kind    string
	Name    string
	IsInput bool

	// binary_sensor inputs only.
	ButtonMode           string
	TriggerOutput        int
	ShortPressOutput     int
	LongPressOutput      int
	DoublePressOutput    int
	LongPressDuration    int
	DoublePressTimeframe int
}

// NewPinSetup returns a setup for one pin with every trigger output set
// to adam.NoTrigger, so an untouched field never maps to output pin 0.
func NewPinSetup(pin int, kind string, isInput bool) PinSetup {
	return PinSetup{
		Pin:               pin,
		Kind:              kind,
		IsInput:           isInput,
		TriggerOutput:     adam.NoTrigger,
		ShortPressOutput:  adam.NoTrigger,
		LongPressOutput:   adam.NoTrigger,
		DoublePressOutput: adam.NoTrigger,
	}
}

// afterWrite applies the shared post-command behavior: a succeeded write
// schedules a refresh so the snapshot converges quickly; a failed one
// does not, since the controller state is unchanged.
func (c *Coordinator) afterWrite(command string, err error) error {
	if err != nil {
		c.logger.Error("Controller command failed",
			zap.String("command", command),
			zap.Error(err))
		c.reporter.Incr("command.sent", "command:"+command, "outcome:failure")
		return err
	}
	c.reporter.Incr("command.sent", "command:"+command, "outcome:success")
	c.RequestRefresh()
	return nil
}

// SetPinState turns an output pin on or off. brightness applies to
// dimmable lights and may be nil.
func (c *Coordinator) SetPinState(ctx context.Context, pin int, command string, brightness *int) error {
	return c.afterWrite("pin_control", c.client.SetPinState(ctx, pin, command, brightness))
}

// ConfigurePin creates or updates a pin configuration and installs its
// trigger mapping. Missing names and push timings get defaults before
// anything is sent.
func (c *Coordinator) ConfigurePin(ctx context.Context, setup PinSetup) error {
	name := setup.Name
	if name == "" {
		if setup.IsInput {
			name = fmt.Sprintf("Input %d", setup.Pin+1)
		} else {
			name = fmt.Sprintf("Output %d", setup.Pin+1)
		}
	}

	req := adam.PinConfigureRequest{
		Pin:     setup.Pin,
		Kind:    setup.Kind,
		Name:    name,
		IsInput: setup.IsInput,
	}

	if setup.Kind == adam.PinKindBinarySensor && setup.ButtonMode == adam.ButtonModePush {
		req.ButtonMode = adam.ButtonModePush
		req.LongPressDuration = setup.LongPressDuration
		if req.LongPressDuration == 0 {
			req.LongPressDuration = DefaultLongPressDuration
		}
		req.DoublePressTimeframe = setup.DoublePressTimeframe
		if req.DoublePressTimeframe == 0 {
			req.DoublePressTimeframe = DefaultDoublePressTimeframe
		}
	} else if setup.Kind == adam.PinKindBinarySensor {
		req.ButtonMode = adam.ButtonModeClassic
	}

	if err := c.client.ConfigurePin(ctx, req); err != nil {
		return c.afterWrite("pin_configure", err)
	}

	if setup.Kind == adam.PinKindBinarySensor {
		if err := c.installTriggers(ctx, setup); err != nil {
			// The pin write already landed, so refresh anyway: the
			// snapshot should reflect the applied half.
			c.RequestRefresh()
			return c.afterWrite("pin_configure", err)
		}
	}

	return c.afterWrite("pin_configure", nil)
}

// installTriggers writes the trigger mapping for a just-configured input.
// The NoTrigger sentinel means no mapping; classic mode skips the write
// entirely then, push mode sends the sentinel values through so the
// firmware clears stale slots.
func (c *Coordinator) installTriggers(ctx context.Context, setup PinSetup) error {
	if setup.ButtonMode == adam.ButtonModePush {
		if setup.ShortPressOutput == adam.NoTrigger &&
			setup.LongPressOutput == adam.NoTrigger &&
			setup.DoublePressOutput == adam.NoTrigger {
			return nil
		}
		return c.client.SetPushTriggers(ctx, setup.Pin,
			setup.ShortPressOutput, setup.LongPressOutput, setup.DoublePressOutput)
	}

	if setup.TriggerOutput == adam.NoTrigger {
		return nil
	}
	return c.client.SetInputTrigger(ctx, setup.Pin, setup.TriggerOutput)
}

// UnconfigurePin always fails: the firmware offers no removal endpoint,
// so a pin can only be reconfigured, never deleted.
func (c *Coordinator) UnconfigurePin(ctx context.Context, pin int) error {
	return ErrUnconfigureUnsupported
}

// SetInputTrigger maps a classic-mode input to an output pin.
func (c *Coordinator) SetInputTrigger(ctx context.Context, inputPin, outputPin int) error {
	return c.afterWrite("trigger_set", c.client.SetInputTrigger(ctx, inputPin, outputPin))
}

// SetPushTriggers maps a push-mode input's three press types to outputs.
func (c *Coordinator) SetPushTriggers(ctx context.Context, inputPin, shortPress, longPress, doublePress int) error {
	return c.afterWrite("trigger_set", c.client.SetPushTriggers(ctx, inputPin, shortPress, longPress, doublePress))
}

// CoverCommand sends open, close or stop to a cover.
func (c *Coordinator) CoverCommand(ctx context.Context, coverID int, command string) error {
	return c.afterWrite("cover_control", c.client.CoverCommand(ctx, coverID, command))
}

// ConfigureCover creates or updates a cover. Travel times are clamped to
// a minimum of one second; the firmware's timers treat zero as disabled.
func (c *Coordinator) ConfigureCover(ctx context.Context, cfg adam.CoverConfig) error {
	if cfg.UpTimeSec < 1 {
		cfg.UpTimeSec = 1
	}
	if cfg.DownTimeSec < 1 {
		cfg.DownTimeSec = 1
	}
	return c.afterWrite("cover_configure", c.client.ConfigureCover(ctx, cfg))
}

// ConfigureRelayModule configures or deactivates a relay expansion
// module. The address must be inside the module's I2C window.
func (c *Coordinator) ConfigureRelayModule(ctx context.Context, moduleID, address int, configured bool, relayNames []string) error {
	if address < adam.RelayModuleMinAddress || address > adam.RelayModuleMaxAddress {
		return fmt.Errorf("coordinator: relay module address 0x%02X outside 0x%02X-0x%02X",
			address, adam.RelayModuleMinAddress, adam.RelayModuleMaxAddress)
	}
	return c.afterWrite("relay_configure",
		c.client.ConfigureRelayModule(ctx, moduleID, address, configured, relayNames))
}

// SetRelayState switches one relay channel on or off.
func (c *Coordinator) SetRelayState(ctx context.Context, moduleID, relayID int, on bool) error {
	return c.afterWrite("relay_control", c.client.SetRelayState(ctx, moduleID, relayID, on))
}

// SetDeviceName renames the controller.
func (c *Coordinator) SetDeviceName(ctx context.Context, name string) error {
	return c.afterWrite("device_name", c.client.SetDeviceName(ctx, name))
}
