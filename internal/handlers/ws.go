package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/tzheng846/studyWme/internal/services"
	"github.com/tzheng846/studyWme/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

type WSHandler struct {
	sessionService *services.SessionService
}

func NewWSHandler(sessionService *services.SessionService) *WSHandler {
	return &WSHandler{sessionService: sessionService}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// HandleSession godoc
// @Summary      WebSocket feed for one session
// @Description  Streams a snapshot of the session after every committed change
// @Tags         websocket
// @Param        id path string true "Session ID"
// @Param        token query string false "JWT when the Authorization header cannot be set"
// @Router       /ws/sessions/{id} [get]
func (h *WSHandler) HandleSession(c *gin.Context) {
	sub, err := h.sessionService.Subscribe(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	h.serve(c, sub)
}

// HandleUser godoc
// @Summary      WebSocket feed for the current user
// @Description  Streams snapshots of every session the caller belongs to
// @Tags         websocket
// @Param        token query string false "JWT when the Authorization header cannot be set"
// @Router       /ws/users/me/sessions [get]
func (h *WSHandler) HandleUser(c *gin.Context) {
	sub, err := h.sessionService.SubscribeUser(c.Request.Context(), currentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	h.serve(c, sub)
}

func (h *WSHandler) serve(c *gin.Context, sub *ws.Subscription) {
	defer sub.Close()

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Client messages are ignored; a read error means the peer went away.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for session := range sub.Snapshots(ctx) {
		if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
			log.Printf("ws: set write deadline on %s: %v", sub.Topic(), err)
			return
		}
		if err := conn.WriteJSON(ws.WSMessage{Type: ws.MessageSession, Data: session}); err != nil {
			log.Printf("ws: write to %s failed: %v", sub.Topic(), err)
			return
		}
	}
}
