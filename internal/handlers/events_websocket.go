package handlers

import (
	"log"
	"sync"
	"time"

	"llmdesk/internal/models"
	"llmdesk/internal/services"

	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"
)

const (
	eventBufferSize  = 64
	eventPingPeriod  = 30 * time.Second
	eventReadTimeout = 90 * time.Second
)

// EventsWebSocketHandler streams change events to the desktop UI so it can
// refresh lists without polling
type EventsWebSocketHandler struct {
	bus     *services.EventBus
	metrics *services.Metrics
}

// NewEventsWebSocketHandler creates a new event stream handler. metrics may be nil.
func NewEventsWebSocketHandler(bus *services.EventBus, metrics *services.Metrics) *EventsWebSocketHandler {
	return &EventsWebSocketHandler{bus: bus, metrics: metrics}
}

// Handle serves one /ws/events connection
func (h *EventsWebSocketHandler) Handle(c *websocket.Conn) {
	subID := uuid.New().String()
	events := h.bus.Subscribe(subID, eventBufferSize)
	h.metrics.RecordSubscriberConnect()

	done := make(chan struct{})
	defer func() {
		close(done)
		h.bus.Unsubscribe(subID)
		h.metrics.RecordSubscriberDisconnect()
	}()

	var writeMu sync.Mutex
	write := func(v any) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		c.SetWriteDeadline(time.Now().Add(10 * time.Second))
		return c.WriteJSON(v)
	}

	c.SetReadDeadline(time.Now().Add(eventReadTimeout))
	c.SetPongHandler(func(string) error {
		c.SetReadDeadline(time.Now().Add(eventReadTimeout))
		return nil
	})

	if err := write(models.ChangeEvent{Type: models.EventConnected, Timestamp: time.Now().UTC()}); err != nil {
		return
	}

	go h.writeLoop(c, events, write, &writeMu, done)

	// Read loop: only control frames are expected; exits on close or timeout
	for {
		if _, _, err := c.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("⚠️ [EVENTS] Read error for %s: %v", subID, err)
			}
			return
		}
		c.SetReadDeadline(time.Now().Add(eventReadTimeout))
	}
}

func (h *EventsWebSocketHandler) writeLoop(c *websocket.Conn, events <-chan models.ChangeEvent, write func(any) error, writeMu *sync.Mutex, done <-chan struct{}) {
	ticker := time.NewTicker(eventPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case ev := <-events:
			if err := write(ev); err != nil {
				log.Printf("❌ [EVENTS] Write error: %v", err)
				c.Close()
				return
			}
		case <-ticker.C:
			writeMu.Lock()
			err := c.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(10*time.Second))
			writeMu.Unlock()
			if err != nil {
				c.Close()
				return
			}
		}
	}
}
