package domain

import "time"

// ChatMessage es un mensaje persistido entre dos empleados. El id lo asigna
// la base al insertar y, junto con created_at, define el orden canónico de
// la conversación.
type ChatMessage struct {
	ID         int64     `json:"id"`
	SenderID   string    `json:"sender_id"`
	ReceiverID string    `json:"receiver_id"`
	Body       string    `json:"body"`
	CreatedAt  time.Time `json:"created_at"`
}
