package api

import (
	"github.com/0xnevsweb/mitanda-chain/api/websocket"
	"github.com/0xnevsweb/mitanda-chain/metrics"
	tandatypes "github.com/0xnevsweb/mitanda-chain/x/tanda/types"
)

// EventListener forwards pool lifecycle events to the WebSocket hub and
// the metrics collector. It is registered on the keeper so every state
// transition reaches subscribed clients without polling.
type EventListener struct {
	hub       *websocket.Hub
	collector *metrics.Collector
}

// NewEventListener creates a listener bound to the given hub.
func NewEventListener(hub *websocket.Hub) *EventListener {
	return &EventListener{
		hub:       hub,
		collector: metrics.GetCollector(),
	}
}

// OnPoolEvent implements tandatypes.PoolListener. The hub enqueue is
// non-blocking so slow clients never stall the keeper.
func (l *EventListener) OnPoolEvent(event tandatypes.PoolEvent) {
	if l.hub != nil {
		l.hub.PublishEvent(event)
	}
	if l.collector != nil {
		l.collector.RecordPoolEvent(event.Type)
	}
}

var _ tandatypes.PoolListener = (*EventListener)(nil)
