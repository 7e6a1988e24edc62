package channel

import (
	"go.uber.org/zap"

	"github.com/code-payments/iap-sandwich/bridge"
	"github.com/code-payments/iap-sandwich/event"
	"github.com/code-payments/iap-sandwich/sandwich"
)

// Bus carries host events keyed by event name.
type Bus = event.Bus[string, *event.HostEvent]

func NewBus() *Bus {
	return event.NewBus[string, *event.HostEvent]()
}

// EventSink is the Sandwich listener of a host connected over the channel.
// It publishes every push as a HostEvent on the bus.
type EventSink struct {
	log *zap.Logger
	bus *Bus
}

var (
	_ sandwich.EventListener       = (*EventSink)(nil)
	_ sandwich.AutomationsListener = (*EventSink)(nil)
)

func NewEventSink(log *zap.Logger, bus *Bus) *EventSink {
	return &EventSink{
		log: log,
		bus: bus,
	}
}

func (s *EventSink) OnUpdatedPermissions(permissions bridge.Map) {
	s.publish(event.UpdatedPermissions, permissions)
}

func (s *EventSink) OnShouldPurchasePromoProduct(productID string) {
	s.publish(event.ShouldPurchasePromoProduct, bridge.Map{"productId": productID})
}

func (s *EventSink) OnAutomationsEvent(e bridge.Map) {
	s.publish(event.AutomationsEvent, e)
}

func (s *EventSink) OnAutomationsActionFinished(result bridge.Map) {
	s.publish(event.AutomationsActionFinished, result)
}

func (s *EventSink) publish(name string, payload bridge.Map) {
	eventsTotal.WithLabelValues(name).Inc()

	if err := s.bus.OnEvent(name, event.NewHostEvent(name, payload)); err != nil {
		s.log.Warn("Failed to publish event", zap.String("name", name), zap.Error(err))
	}
}
