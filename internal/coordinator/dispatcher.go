package coordinator

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/johnywind/HA-IoTiX/internal/adam"
)

// ButtonEventHandler receives one button press event type
// (short_press, long_press or double_press).
type ButtonEventHandler func(eventType string) error

// ButtonEventObserver receives every dispatched event regardless of pin.
type ButtonEventObserver func(event adam.ButtonEvent)

// Dispatcher delivers button-press events to listeners registered per
// input pin. Listeners register once, at entity-creation time, and are
// invoked in registration order.
type Dispatcher struct {
	mu        sync.RWMutex
	listeners map[int][]ButtonEventHandler
	observers []ButtonEventObserver
	logger    *zap.Logger
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher(logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		listeners: make(map[int][]ButtonEventHandler),
		logger:    logger,
	}
}

// Register adds a listener for button events on one input pin. Multiple
// listeners may register on the same pin; each receives every event.
func (d *Dispatcher) Register(pin int, handler ButtonEventHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listeners[pin] = append(d.listeners[pin], handler)
}

// Observe adds an observer invoked for every event on every pin, after
// the pin's own listeners.
func (d *Dispatcher) Observe(observer ButtonEventObserver) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.observers = append(d.observers, observer)
}

// Dispatch invokes the matching listeners for every event, exactly once
// per event. A failing or panicking listener is logged and does not
// prevent delivery to the remaining listeners or events.
func (d *Dispatcher) Dispatch(events []adam.ButtonEvent) {
	for _, event := range events {
		d.mu.RLock()
		handlers := append([]ButtonEventHandler(nil), d.listeners[event.InputPin]...)
		observers := append([]ButtonEventObserver(nil), d.observers...)
		d.mu.RUnlock()

		for _, handler := range handlers {
			if err := d.invoke(handler, event.EventType); err != nil {
				d.logger.Error("Button event listener failed",
					zap.Int("pin", event.InputPin),
					zap.String("event_type", event.EventType),
					zap.Error(err))
			}
		}

		for _, observer := range observers {
			d.notify(observer, event)
		}
	}
}

func (d *Dispatcher) notify(observer ButtonEventObserver, event adam.ButtonEvent) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("Button event observer panicked",
				zap.Int("pin", event.InputPin),
				zap.String("event_type", event.EventType),
				zap.Any("panic", r))
		}
	}()
	observer(event)
}

func (d *Dispatcher) invoke(handler ButtonEventHandler, eventType string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("listener panicked: %v", r)
		}
	}()
	return handler(eventType)
}
