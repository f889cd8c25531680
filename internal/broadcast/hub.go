package broadcast

import (
	"encoding/json"
	"log/slog"
	"sync"
)

// Publisher is the fan-out contract the engine depends on; the hub
// below is the in-process implementation.
type Publisher interface {
	Publish(roomID string, payload any)
}

const subscriberBuffer = 32

// Subscriber is one connection's ordered payload stream. The hub owns
// the channel and closes it on Leave.
type Subscriber struct {
	send chan []byte
}

func NewSubscriber() *Subscriber {
	return &Subscriber{
		send: make(chan []byte, subscriberBuffer),
	}
}

// C - the stream to drain into the connection's write side. It closes
// when the subscriber leaves its room.
func (that *Subscriber) C() <-chan []byte {
	return that.send
}

// Hub fans payloads out to every subscriber of a room. A single mutex
// covers membership and publishing, which is what guarantees that
// delivery order matches publish order within a room.
type Hub struct {
	logger *slog.Logger

	mu    sync.Mutex
	rooms map[string]map[*Subscriber]struct{}
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		logger: logger.With("component", "broadcast-hub"),
		rooms:  make(map[string]map[*Subscriber]struct{}),
	}
}

func (that *Hub) Join(roomID string, sub *Subscriber) {
	that.mu.Lock()
	defer that.mu.Unlock()

	room, ok := that.rooms[roomID]
	if !ok {
		room = make(map[*Subscriber]struct{})
		that.rooms[roomID] = room
	}

	room[sub] = struct{}{}
}

func (that *Hub) Leave(roomID string, sub *Subscriber) {
	that.mu.Lock()
	defer that.mu.Unlock()

	room, ok := that.rooms[roomID]
	if !ok {
		return
	}

	if _, joined := room[sub]; !joined {
		return
	}

	delete(room, sub)
	close(sub.send)

	if len(room) == 0 {
		delete(that.rooms, roomID)
	}
}

// Publish - marshals once and fans out to all of the room's
// subscribers. A subscriber whose buffer is full misses the payload
// rather than blocking the simulation.
func (that *Hub) Publish(roomID string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		that.logger.Error("failed to marshal payload", "room", roomID, "error", err)
		return
	}

	that.mu.Lock()
	defer that.mu.Unlock()

	for sub := range that.rooms[roomID] {
		select {
		case sub.send <- data:
		default:
			that.logger.Warn("dropping payload for slow subscriber", "room", roomID)
		}
	}
}
