package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"hrdesk/internal/domain"
	"hrdesk/internal/repository"
)

var (
	ErrChatUnauthorized     = errors.New("chat sender unauthorized")
	ErrChatEmptyBody        = errors.New("chat message body empty")
	ErrChatBodyTooLarge     = errors.New("chat message body too large")
	ErrChatInvalidRecipient = errors.New("chat recipient invalid")
	ErrChatStoreUnavailable = errors.New("chat store unavailable")
)

// Relay orquesta persistir-y-entregar para cada mensaje: primero el store,
// después el fan-out a las conexiones vivas. Nunca cachea ni reordena; el
// orden lo define el store al asignar id y created_at.
type Relay struct {
	logger   *zap.Logger
	registry *Registry
	store    repository.ChatMessageRepository
	maxBody  int
}

func NewRelay(logger *zap.Logger, registry *Registry, store repository.ChatMessageRepository, maxBody int) *Relay {
	if maxBody <= 0 {
		maxBody = 8192
	}
	return &Relay{
		logger:   logger,
		registry: registry,
		store:    store,
		maxBody:  maxBody,
	}
}

// Send valida, persiste y reparte un mensaje saliente de la conexión dada.
// Si la persistencia falla no se entrega nada: el emisor recibe el error y
// debe reintentar. Los fallos de entrega por conexión no hacen fallar el
// envío; esa conexión se da de baja.
func (r *Relay) Send(ctx context.Context, sender Connection, receiverID, body string) (domain.ChatMessage, error) {
	if sender == nil || strings.TrimSpace(sender.UserID()) == "" {
		return domain.ChatMessage{}, ErrChatUnauthorized
	}

	receiverID = strings.TrimSpace(receiverID)
	if receiverID == "" {
		return domain.ChatMessage{}, ErrChatInvalidRecipient
	}
	if strings.TrimSpace(body) == "" {
		return domain.ChatMessage{}, ErrChatEmptyBody
	}
	if len(body) > r.maxBody {
		return domain.ChatMessage{}, ErrChatBodyTooLarge
	}

	msg, err := r.store.Append(ctx, sender.UserID(), receiverID, body)
	if err != nil {
		return domain.ChatMessage{}, fmt.Errorf("%w: %v", ErrChatStoreUnavailable, err)
	}

	delivered, err := json.Marshal(Event{Type: EventMessageDelivered, Message: &msg})
	if err != nil {
		r.logger.Error("chat event marshal failed", zap.Error(err))
		return msg, nil
	}
	echo, err := json.Marshal(Event{Type: EventMessageSent, Message: &msg})
	if err != nil {
		r.logger.Error("chat event marshal failed", zap.Error(err))
		return msg, nil
	}

	r.fanOut(msg.ReceiverID, delivered)
	// Eco a todas las sesiones del emisor, así múltiples dispositivos ven
	// lo mismo.
	r.fanOut(msg.SenderID, echo)

	return msg, nil
}

// Bind registra una conexión ya identificada.
func (r *Relay) Bind(c Connection) error {
	return r.registry.Register(c.UserID(), c)
}

// Disconnect da de baja y cierra la conexión; es seguro llamarlo más de una
// vez para el mismo handle.
func (r *Relay) Disconnect(c Connection) {
	r.registry.Unregister(c.UserID(), c)
	c.Close()
}

// Serve corre las bombas de lectura/escritura de la conexión y garantiza la
// limpieza al salir. Bloquea hasta que la conexión termina.
func (r *Relay) Serve(c *Conn) {
	go c.writePump()
	c.readPump(r)
}

func (r *Relay) fanOut(userID string, payload []byte) {
	for _, c := range r.registry.ConnectionsFor(userID) {
		r.push(userID, c, payload)
	}
}

// push intenta la entrega con a lo sumo un reintento inmediato; si sigue
// fallando, la conexión se considera muerta y sale del registro.
func (r *Relay) push(userID string, c Connection, payload []byte) {
	err := c.Push(payload)
	if err == nil {
		return
	}
	if err = c.Push(payload); err == nil {
		return
	}

	r.logger.Warn("chat push failed, dropping connection",
		zap.String("user_id", userID),
		zap.Error(err),
	)
	r.registry.Unregister(userID, c)
	c.Close()
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, ErrChatEmptyBody),
		errors.Is(err, ErrChatBodyTooLarge),
		errors.Is(err, ErrChatInvalidRecipient):
		return "validation_error"
	case errors.Is(err, ErrChatUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrChatStoreUnavailable):
		return "store_unavailable"
	case errors.Is(err, ErrSendBufferFull), errors.Is(err, ErrConnClosed):
		return "delivery_failed"
	default:
		return "internal_error"
	}
}
