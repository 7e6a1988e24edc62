package event

import (
	"time"

	"github.com/code-payments/iap-sandwich/bridge"
)

// Names of the events the bridge pushes to the host.
const (
	UpdatedPermissions         = "updatedPermissions"
	ShouldPurchasePromoProduct = "shouldPurchasePromoProduct"
	AutomationsEvent           = "automationsEvent"
	AutomationsActionFinished  = "automationsActionFinished"
)

// HostEvent is a single push delivered to the host outside of any call.
type HostEvent struct {
	Name      string
	Payload   bridge.Map
	Timestamp time.Time
}

func NewHostEvent(name string, payload bridge.Map) *HostEvent {
	return &HostEvent{
		Name:      name,
		Payload:   payload.Clean(),
		Timestamp: time.Now(),
	}
}

// Clone returns a copy that does not share the payload's top level with e.
func (e *HostEvent) Clone() *HostEvent {
	return &HostEvent{
		Name:      e.Name,
		Payload:   e.Payload.Clean(),
		Timestamp: e.Timestamp,
	}
}

// ToMap is the wire form of the event: {name, payload, timestamp}, with the
// timestamp in milliseconds.
func (e *HostEvent) ToMap() bridge.Map {
	return bridge.Map{
		"name":      e.Name,
		"payload":   e.Payload,
		"timestamp": e.Timestamp.UnixMilli(),
	}.Clean()
}
