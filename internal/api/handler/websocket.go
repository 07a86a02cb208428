package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/zahlentech/str8up_server/internal/model/dto"
	"github.com/zahlentech/str8up_server/internal/pkg/logger"
	"github.com/zahlentech/str8up_server/internal/pkg/pubsub"
	"github.com/zahlentech/str8up_server/internal/pkg/ws"
	"github.com/zahlentech/str8up_server/internal/service"
	"github.com/zahlentech/str8up_server/internal/str8up"
)

type WebSocketHandler struct {
	hub         *ws.Hub
	assessments *service.AssessmentService
	upgrader    websocket.Upgrader
	log         logger.Logger
}

// NewWebSocketHandler accepts connections from allowedOrigins; "*" or an
// empty list accepts any origin.
func NewWebSocketHandler(hub *ws.Hub, assessments *service.AssessmentService, allowedOrigins []string, log logger.Logger) *WebSocketHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &WebSocketHandler{
		hub:         hub,
		assessments: assessments,
		log:         log,
		upgrader: websocket.Upgrader{
			CheckOrigin:     checkOrigin(allowedOrigins),
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

func checkOrigin(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		if len(allowed) == 0 {
			return true
		}
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, o := range allowed {
			if o == "*" || strings.EqualFold(o, origin) {
				return true
			}
		}
		return false
	}
}

// Handle streams progress for one session
// GET /api/v1/str8up/ws/:sessionId
func (h *WebSocketHandler) Handle(c *gin.Context) {
	sessionID := c.Param("sessionId")
	status, err := h.assessments.Status(sessionID)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "session_id", sessionID, "error", err)
		return
	}

	client := &ws.Client{
		SessionID: sessionID,
		Conn:      conn,
	}
	h.hub.Register(client)

	// current state first so late subscribers don't wait for the next step
	err = h.hub.SendToClient(client, &ws.Message{
		Type: pubsub.TypeProgress,
		Data: dto.ProgressEvent{
			SessionID:   status.SessionID,
			Status:      status.Status,
			Progress:    status.Progress,
			CurrentStep: status.CurrentStep,
			Error:       status.ErrorMessage,
		},
	})
	if err != nil {
		h.log.Warn("send snapshot failed", "session_id", sessionID, "error", err)
	}

	// reads only detect the disconnect
	go func() {
		defer h.hub.Unregister(client)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// Relay forwards a pub/sub progress message to the session's sockets.
func (h *WebSocketHandler) Relay(msg *pubsub.ProgressMessage) {
	if !h.hub.IsWatched(msg.SessionID) {
		return
	}

	status := msg.Status
	if st, err := str8up.ParseStatus(msg.Status); err == nil {
		status = st.Wire()
	}
	err := h.hub.SendToSession(msg.SessionID, &ws.Message{
		Type: pubsub.TypeProgress,
		Data: dto.ProgressEvent{
			SessionID:   msg.SessionID,
			Status:      status,
			Progress:    msg.Progress,
			CurrentStep: msg.Message,
			Error:       msg.Error,
		},
	})
	if err != nil {
		h.log.Warn("relay progress failed", "session_id", msg.SessionID, "error", err)
	}
}
