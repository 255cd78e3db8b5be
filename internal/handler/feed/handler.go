package feed

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/zhouzirui/solace/backend/internal/service/broadcast"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingInterval = 54 * time.Second

	defaultKeepAlive = 15 * time.Second
)

// Handler pushes live community feed events over WebSocket and SSE.
type Handler struct {
	hub       *broadcast.Hub
	upgrader  websocket.Upgrader
	keepAlive time.Duration
}

// New creates a feed handler bound to hub.
func New(hub *broadcast.Hub) *Handler {
	return &Handler{
		hub: hub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		keepAlive: defaultKeepAlive,
	}
}

// RegisterRoutes 注册实时动态路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/feed/ws", h.handleWebSocket)
	r.Get("/feed/stream", h.handleStream)
}

// hello is the first frame on either transport; clients may use it to know the
// subscription is live.
type hello struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
}

func newHello() hello {
	return hello{Type: "connected", Timestamp: time.Now().UTC()}
}
