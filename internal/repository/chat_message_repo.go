package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"hrdesk/internal/domain"
)

// ChatMessageRepository define el contrato de persistencia para el chat.
// Append asigna id y created_at del lado del servidor; History devuelve la
// conversación completa del par {userA, userB} en ambas direcciones,
// ordenada por created_at con desempate por id.
type ChatMessageRepository interface {
	Append(ctx context.Context, senderID, receiverID, body string) (domain.ChatMessage, error)
	History(ctx context.Context, userA, userB string) ([]domain.ChatMessage, error)
}

// PgChatMessageRepository implementa ChatMessageRepository usando pgxpool.
//
// Índice esperado:
//
//	CREATE INDEX chat_messages_pair_idx ON chat_messages
//	  (least(sender_id, receiver_id), greatest(sender_id, receiver_id), created_at, id);
type PgChatMessageRepository struct {
	pool *pgxpool.Pool
}

func NewPgChatMessageRepository(pool *pgxpool.Pool) *PgChatMessageRepository {
	return &PgChatMessageRepository{pool: pool}
}

func (r *PgChatMessageRepository) Append(ctx context.Context, senderID, receiverID, body string) (domain.ChatMessage, error) {
	const query = `
		INSERT INTO chat_messages (sender_id, receiver_id, body, created_at)
		VALUES ($1, $2, $3, now())
		RETURNING id, created_at
	`

	msg := domain.ChatMessage{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Body:       body,
	}
	err := r.pool.QueryRow(ctx, query, senderID, receiverID, body).Scan(&msg.ID, &msg.CreatedAt)
	if err != nil {
		return domain.ChatMessage{}, err
	}
	return msg, nil
}

func (r *PgChatMessageRepository) History(ctx context.Context, userA, userB string) ([]domain.ChatMessage, error) {
	const query = `
		SELECT id, sender_id, receiver_id, body, created_at
		FROM chat_messages
		WHERE (sender_id = $1 AND receiver_id = $2)
		   OR (sender_id = $2 AND receiver_id = $1)
		ORDER BY created_at ASC, id ASC
	`

	rows, err := r.pool.Query(ctx, query, userA, userB)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []domain.ChatMessage
	for rows.Next() {
		var msg domain.ChatMessage
		err = rows.Scan(
			&msg.ID,
			&msg.SenderID,
			&msg.ReceiverID,
			&msg.Body,
			&msg.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return messages, nil
}
