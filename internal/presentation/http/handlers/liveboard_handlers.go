package handlers

import (
	"net/http"

	"github.com/beaconview/beaconview-go/internal/infrastructure/messaging"
	"github.com/beaconview/beaconview-go/internal/infrastructure/observability/logging"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var liveBoardUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Access is guarded by the auth middleware, not the origin.
		return true
	},
}

// LiveBoardHandlers contains the live board websocket handler.
type LiveBoardHandlers struct {
	board  *messaging.LiveBoard
	logger *logging.ChanneledLogger
}

// NewLiveBoardHandlers creates live board handlers with injected dependencies.
func NewLiveBoardHandlers(board *messaging.LiveBoard, logger *logging.ChanneledLogger) *LiveBoardHandlers {
	return &LiveBoardHandlers{board: board, logger: logger}
}

// GetLiveBoard handles GET /api/v1/live - upgrades to a websocket that
// receives the active-session board on every tick.
func (h *LiveBoardHandlers) GetLiveBoard(c *gin.Context) {
	conn, err := liveBoardUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.SSE().Error("Live board websocket upgrade failed", "error", err.Error())
		return
	}

	client := &messaging.LiveBoardClient{
		Conn: conn,
		Send: make(chan []byte, 16),
	}
	h.board.Register(client)

	go h.board.WritePump(client)

	// Drain reads so close frames and pings are processed; any read error
	// means the client went away.
	go func() {
		defer h.board.Unregister(client)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
