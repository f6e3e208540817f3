package chat

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var (
	ErrConnClosed      = errors.New("chat connection closed")
	ErrSendBufferFull  = errors.New("chat send buffer full")
	ErrHandshakeFailed = errors.New("chat handshake failed")
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
)

type connState int

const (
	stateConnecting connState = iota
	stateLive
	stateClosed
)

// IdentityVerifier valida un token de acceso y devuelve el user id
// verificado. La verificación de credenciales vive fuera de este paquete.
type IdentityVerifier func(token string) (string, error)

// ConnOptions agrupa la política configurable por conexión.
type ConnOptions struct {
	SendBuffer    int
	MaxFrameBytes int64
	RateBurst     int
	RateRefill    time.Duration
}

// Conn es una sesión de transporte viva. Nace en estado connecting, pasa a
// live cuando el primer frame identifica al usuario y termina en closed;
// un handle cerrado no se reutiliza.
type Conn struct {
	ws        *websocket.Conn
	logger    *zap.Logger
	limiter   *rateLimiter
	createdAt time.Time

	mu     sync.Mutex
	state  connState
	userID string
	send   chan []byte
}

func NewConn(ws *websocket.Conn, logger *zap.Logger, opts ConnOptions) *Conn {
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = 64
	}
	if opts.MaxFrameBytes > 0 && ws != nil {
		ws.SetReadLimit(opts.MaxFrameBytes)
	}

	return &Conn{
		ws:        ws,
		logger:    logger,
		limiter:   newRateLimiter(opts.RateBurst, opts.RateRefill),
		createdAt: time.Now().UTC(),
		state:     stateConnecting,
		send:      make(chan []byte, opts.SendBuffer),
	}
}

func (c *Conn) UserID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.userID
}

func (c *Conn) CreatedAt() time.Time {
	return c.createdAt
}

func (c *Conn) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == stateClosed
}

// Identify consume el primer frame de la conexión, que debe ser un evento
// identify con un token válido dentro del plazo dado. Cualquier otra cosa
// deja la conexión sin identidad y el caller debe cerrarla.
func (c *Conn) Identify(timeout time.Duration, verify IdentityVerifier) (string, error) {
	if verify == nil {
		return "", ErrHandshakeFailed
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	if err := c.ws.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return "", err
	}
	_, raw, err := c.ws.ReadMessage()
	if err != nil {
		return "", err
	}

	var evt Event
	if err := json.Unmarshal(raw, &evt); err != nil {
		return "", ErrHandshakeFailed
	}
	if evt.Type != EventIdentify || strings.TrimSpace(evt.Token) == "" {
		return "", ErrHandshakeFailed
	}

	userID, err := verify(evt.Token)
	if err != nil || strings.TrimSpace(userID) == "" {
		return "", ErrHandshakeFailed
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != stateConnecting {
		return "", ErrConnClosed
	}
	c.userID = userID
	c.state = stateLive
	return userID, nil
}

// Push encola un payload para el write pump sin bloquear. Un buffer lleno es
// un fallo de entrega de esta conexión, no del envío completo.
func (c *Conn) Push(payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != stateLive {
		return ErrConnClosed
	}
	select {
	case c.send <- payload:
		return nil
	default:
		return ErrSendBufferFull
	}
}

// PushEvent serializa y encola un evento.
func (c *Conn) PushEvent(evt Event) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	return c.Push(payload)
}

// Close es idempotente y terminal.
func (c *Conn) Close() {
	c.mu.Lock()
	if c.state == stateClosed {
		c.mu.Unlock()
		return
	}
	c.state = stateClosed
	close(c.send)
	c.mu.Unlock()

	if c.ws != nil {
		_ = c.ws.Close()
	}
}

func (c *Conn) readPump(r *Relay) {
	defer r.Disconnect(c)

	if err := c.ws.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		return
	}
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.logger.Warn("chat read failed", zap.String("user_id", c.UserID()), zap.Error(err))
			}
			return
		}

		if !c.limiter.allow() {
			_ = c.PushEvent(Event{Type: EventError, Code: "rate_limited", Error: "too many messages"})
			continue
		}

		var evt Event
		if err := json.Unmarshal(raw, &evt); err != nil {
			_ = c.PushEvent(Event{Type: EventError, Code: "validation_error", Error: "malformed event"})
			continue
		}

		switch evt.Type {
		case EventSendMessage:
			if _, err := r.Send(context.Background(), c, evt.ReceiverID, evt.Body); err != nil {
				_ = c.PushEvent(Event{Type: EventError, Code: errorCode(err), Error: err.Error()})
			}
		default:
			_ = c.PushEvent(Event{Type: EventError, Code: "validation_error", Error: "unknown event type"})
		}
	}
}

func (c *Conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		if c.ws != nil {
			_ = c.ws.Close()
		}
	}()

	for {
		select {
		case payload, ok := <-c.send:
			if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if !ok {
				_ = c.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
