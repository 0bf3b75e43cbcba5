package messaging

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/beaconview/beaconview-go/internal/infrastructure/observability/logging"
	"github.com/beaconview/beaconview-go/internal/infrastructure/state/manager"
	"github.com/gorilla/websocket"
)

// LiveBoardClient represents a single connected dashboard websocket client.
type LiveBoardClient struct {
	Conn *websocket.Conn
	Send chan []byte
}

// LiveVisitorState is the per-session entry pushed to the live board.
type LiveVisitorState struct {
	VisitorID    string    `json:"visitorId"`
	SiteID       string    `json:"siteId"`
	CurrentPage  string    `json:"currentPage"`
	Identified   bool      `json:"identified"`
	LastActivity time.Time `json:"lastActivity"`
}

// LiveBoardPayload is the complete state pushed to the dashboard on each
// tick.
type LiveBoardPayload struct {
	Sessions        []LiveVisitorState `json:"sessions"`
	ActiveCount     int                `json:"activeCount"`
	IdentifiedCount int                `json:"identifiedCount"`
	TotalVisitors   int                `json:"totalVisitors"`
	GeneratedAt     time.Time          `json:"generatedAt"`
}

// LiveBoard broadcasts live-session state to connected dashboard clients on
// a fixed interval.
type LiveBoard struct {
	clients    map[*LiveBoardClient]bool
	register   chan *LiveBoardClient
	unregister chan *LiveBoardClient
	state      *manager.Manager
	interval   time.Duration
	mu         sync.RWMutex
	logger     *logging.ChanneledLogger
}

// NewLiveBoard creates a live board broadcaster.
func NewLiveBoard(state *manager.Manager, interval time.Duration, logger *logging.ChanneledLogger) *LiveBoard {
	return &LiveBoard{
		clients:    make(map[*LiveBoardClient]bool),
		register:   make(chan *LiveBoardClient),
		unregister: make(chan *LiveBoardClient),
		state:      state,
		interval:   interval,
		logger:     logger,
	}
}

// Run starts the board's main loop. This should be run as a goroutine.
func (b *LiveBoard) Run() {
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	for {
		select {
		case client := <-b.register:
			b.mu.Lock()
			b.clients[client] = true
			b.mu.Unlock()
			if b.logger != nil {
				b.logger.SSE().Info("Live board client registered")
			}

		case client := <-b.unregister:
			b.mu.Lock()
			if _, ok := b.clients[client]; ok {
				delete(b.clients, client)
				close(client.Send)
			}
			b.mu.Unlock()
			if b.logger != nil {
				b.logger.SSE().Info("Live board client unregistered")
			}

		case <-ticker.C:
			b.broadcastState()
		}
	}
}

// Register queues a client for registration.
func (b *LiveBoard) Register(client *LiveBoardClient) {
	b.register <- client
}

// Unregister queues a client for unregistration.
func (b *LiveBoard) Unregister(client *LiveBoardClient) {
	b.unregister <- client
}

// broadcastState gathers live-session state and sends it to every client.
// A client with a full send buffer simply misses the tick.
func (b *LiveBoard) broadcastState() {
	b.mu.RLock()
	clientCount := len(b.clients)
	b.mu.RUnlock()
	if clientCount == 0 {
		return
	}

	payload := b.buildPayload()
	message, err := json.Marshal(payload)
	if err != nil {
		if b.logger != nil {
			b.logger.SSE().Error("Error marshaling live board payload", "error", err.Error())
		}
		return
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for client := range b.clients {
		select {
		case client.Send <- message:
		default:
		}
	}
}

func (b *LiveBoard) buildPayload() LiveBoardPayload {
	now := time.Now().UTC()
	active := b.state.LiveSessions.ListActive("", now)

	sessions := make([]LiveVisitorState, 0, len(active))
	identified := 0
	for _, s := range active {
		state := LiveVisitorState{
			VisitorID:    s.VisitorID,
			SiteID:       s.SiteID,
			CurrentPage:  s.CurrentPage,
			LastActivity: s.LastActivity,
		}
		if v, exists := b.state.Visitors.Get(s.VisitorID); exists {
			state.Identified = v.Identified
		}
		if state.Identified {
			identified++
		}
		sessions = append(sessions, state)
	}

	return LiveBoardPayload{
		Sessions:        sessions,
		ActiveCount:     len(sessions),
		IdentifiedCount: identified,
		TotalVisitors:   b.state.Visitors.Count(),
		GeneratedAt:     now,
	}
}

// WritePump drains a client's send channel to its websocket connection.
// Intended to run as a goroutine per connection; returns when the channel
// closes or a write fails.
func (b *LiveBoard) WritePump(client *LiveBoardClient) {
	defer client.Conn.Close()
	for message := range client.Send {
		if err := client.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
			b.Unregister(client)
			return
		}
	}
}
