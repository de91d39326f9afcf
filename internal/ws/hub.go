// Package ws fans log entries out to websocket subscribers. New subscribers
// first receive the retained history, oldest first.
package ws

import (
	"encoding/json"
	"net/http"
	"sync"

	"shuttle/internal/domain"
	"shuttle/internal/logsink"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// event is either a message to fan out or a history reset. Both travel on
// one channel so a clear is ordered against the messages around it.
type event struct {
	data  []byte
	clear bool
}

type Hub struct {
	clients    map[*Client]bool
	broadcast  chan event
	register   chan *Client
	unregister chan *Client
	stop       chan struct{}
	stopOnce   sync.Once

	history    [][]byte
	maxHistory int

	log *zap.Logger
	mu  sync.RWMutex
}

func NewHub(maxHistory int, log *zap.Logger) *Hub {
	if maxHistory < 0 {
		maxHistory = 0
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		broadcast:  make(chan event, 4096),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		stop:       make(chan struct{}),
		maxHistory: maxHistory,
		log:        log,
	}
}

// Attach streams every entry appended to sink through the hub and drops the
// hub's history whenever the sink is cleared.
func (h *Hub) Attach(sink *logsink.Sink) {
	sink.Subscribe(func(entry domain.LogEntry) {
		data, err := json.Marshal(entry)
		if err != nil {
			h.log.Error("failed to encode log entry", zap.Error(err))
			return
		}
		h.Broadcast(data)
	}, h.ClearLogs)
}

func (h *Hub) HistorySnapshot() [][]byte {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if len(h.history) == 0 {
		return nil
	}
	snapshot := make([][]byte, len(h.history))
	copy(snapshot, h.history)
	return snapshot
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			history := h.HistorySnapshot()
			client.replay = make(chan []byte, len(history))
			for _, msg := range history {
				client.replay <- msg
			}
			close(client.replay)
			h.clients[client] = true
			close(client.ready)

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}

		case ev := <-h.broadcast:
			if ev.clear {
				h.mu.Lock()
				h.history = nil
				h.mu.Unlock()
				continue
			}
			message := ev.data
			if h.maxHistory > 0 {
				h.mu.Lock()
				h.history = append(h.history, message)
				if len(h.history) > h.maxHistory {
					h.history = h.history[1:]
				}
				h.mu.Unlock()
			}

			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					close(client.send)
					delete(h.clients, client)
				}
			}

		case <-h.stop:
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.mu.Lock()
			h.history = nil
			h.mu.Unlock()
			return
		}
	}
}

func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.stop) })
}

func (h *Hub) ClearLogs() {
	h.send(event{clear: true})
}

// Broadcast queues message for every client. It never blocks once the hub
// has stopped.
func (h *Hub) Broadcast(message []byte) {
	h.send(event{data: append([]byte(nil), message...)})
}

func (h *Hub) send(ev event) {
	select {
	case h.broadcast <- ev:
	case <-h.stop:
	}
}

func (h *Hub) ServeWs(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	client := &Client{hub: h, conn: conn, send: make(chan []byte, 256), ready: make(chan struct{})}

	select {
	case h.register <- client:
	case <-h.stop:
		_ = conn.Close()
		return
	}
	<-client.ready

	go client.writePump()
	go client.readPump()
}
