package devnode

import (
	"log/slog"
	"sync"
)

const clientBuffer = 16

// StreamManager tracks open push clients and fans frames out to them.
type StreamManager struct {
	mu      sync.RWMutex
	clients map[uint32]chan []byte
	nextID  uint32
	logger  *slog.Logger
}

func NewStreamManager(logger *slog.Logger) *StreamManager {
	return &StreamManager{
		clients: make(map[uint32]chan []byte),
		logger:  logger,
	}
}

// Subscribe registers a client and returns its id, its frame channel and a
// function that removes it. The channel is closed on removal.
func (sm *StreamManager) Subscribe() (uint32, <-chan []byte, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	sm.nextID++
	id := sm.nextID
	ch := make(chan []byte, clientBuffer)
	sm.clients[id] = ch

	var once sync.Once
	return id, ch, func() {
		once.Do(func() {
			sm.mu.Lock()
			defer sm.mu.Unlock()
			delete(sm.clients, id)
			close(ch)
		})
	}
}

// Broadcast queues frame for every client. Slow clients lose the frame.
func (sm *StreamManager) Broadcast(frame []byte) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for id, ch := range sm.clients {
		select {
		case ch <- frame:
		default:
			sm.logger.Warn("push client buffer full, dropping frame", "channel_id", id)
		}
	}
}

// Len returns the number of open clients.
func (sm *StreamManager) Len() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.clients)
}
