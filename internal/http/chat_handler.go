package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"hrdesk/internal/chat"
	"hrdesk/internal/domain"
	"hrdesk/internal/repository"
	"hrdesk/internal/service"
)

// ChatHandler expone el websocket del chat y la lectura de historial.
type ChatHandler struct {
	logger           *zap.Logger
	relay            *chat.Relay
	messages         repository.ChatMessageRepository
	jwtSvc           *service.JWTService
	upgrader         websocket.Upgrader
	connOpts         chat.ConnOptions
	handshakeTimeout time.Duration
}

func NewChatHandler(
	logger *zap.Logger,
	relay *chat.Relay,
	messages repository.ChatMessageRepository,
	jwtSvc *service.JWTService,
	connOpts chat.ConnOptions,
	handshakeTimeout time.Duration,
) *ChatHandler {
	return &ChatHandler{
		logger:   logger,
		relay:    relay,
		messages: messages,
		jwtSvc:   jwtSvc,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		connOpts:         connOpts,
		handshakeTimeout: handshakeTimeout,
	}
}

// ServeWS maneja GET /chat/ws. El primer frame debe identificar al usuario
// con un access token; después la conexión entra al registro y queda viva
// hasta que el peer corta o una escritura falla.
func (h *ChatHandler) ServeWS(c *gin.Context) {
	ws, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("chat upgrade failed", zap.Error(err))
		return
	}

	conn := chat.NewConn(ws, h.logger, h.connOpts)
	userID, err := conn.Identify(h.handshakeTimeout, func(token string) (string, error) {
		claims, err := h.jwtSvc.ParseAccessToken(token)
		if err != nil {
			return "", err
		}
		return claims.UserID, nil
	})
	if err != nil {
		h.logger.Warn("chat handshake rejected", zap.Error(err))
		conn.Close()
		return
	}

	if err := h.relay.Bind(conn); err != nil {
		h.logger.Warn("chat register failed", zap.String("user_id", userID), zap.Error(err))
		conn.Close()
		return
	}
	_ = conn.PushEvent(chat.Event{Type: chat.EventConnected})
	h.logger.Info("chat connected", zap.String("user_id", userID))

	h.relay.Serve(conn)
	h.logger.Info("chat disconnected", zap.String("user_id", userID))
}

// ListMessages maneja GET /chat/messages?peer_id=. Devuelve el historial
// ordenado de la conversación entre el usuario autenticado y el peer.
func (h *ChatHandler) ListMessages(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing identity"})
		return
	}

	// Si el cliente nombra explícitamente un participante, tiene que ser él
	// mismo; nadie lee conversaciones ajenas.
	if explicit := strings.TrimSpace(c.Query("user_id")); explicit != "" && explicit != claims.UserID {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}

	peerID := strings.TrimSpace(c.Query("peer_id"))
	if peerID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "peer_id is required"})
		return
	}

	messages, err := h.messages.History(c.Request.Context(), claims.UserID, peerID)
	if err != nil {
		h.logger.Error("chat history failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load history"})
		return
	}
	if messages == nil {
		messages = []domain.ChatMessage{}
	}

	c.JSON(http.StatusOK, gin.H{"messages": messages})
}
