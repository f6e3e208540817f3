package chat

import "hrdesk/internal/domain"

// Tipos de evento intercambiados por el canal websocket.
const (
	EventIdentify         = "identify"
	EventConnected        = "connected"
	EventSendMessage      = "sendMessage"
	EventMessageSent      = "messageSent"
	EventMessageDelivered = "messageDelivered"
	EventError            = "error"
)

// Event es el sobre único para todos los frames del chat. Los campos que no
// aplican al tipo de evento quedan vacíos y se omiten del JSON.
type Event struct {
	Type       string              `json:"type"`
	Token      string              `json:"token,omitempty"`
	ReceiverID string              `json:"receiver_id,omitempty"`
	Body       string              `json:"body,omitempty"`
	Message    *domain.ChatMessage `json:"message,omitempty"`
	Code       string              `json:"code,omitempty"`
	Error      string              `json:"error,omitempty"`
}
