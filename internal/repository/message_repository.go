package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/mentorship_hub/internal/model"
	"github.com/Freeeeeet/mentorship_hub/internal/repository/base"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type MessageRepository struct {
	*base.Repository
}

func NewMessageRepository(pool *pgxpool.Pool) *MessageRepository {
	return &MessageRepository{Repository: base.NewRepository(pool)}
}

func scanMessage(row pgx.Row) (*model.Message, error) {
	var (
		msg    model.Message
		isRead bool
	)
	err := row.Scan(
		&msg.ID,
		&msg.SenderType,
		&msg.SenderID,
		&msg.ReceiverID,
		&msg.Content,
		&isRead,
		&msg.Timestamp,
	)
	if err != nil {
		return nil, err
	}
	msg.IsRead = &isRead
	return &msg, nil
}

// Create сохраняет сообщение
func (r *MessageRepository) Create(ctx context.Context, msg *model.Message) error {
	query := `
		INSERT INTO messages (sender_type, sender_id, receiver_id, content)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	err := r.QueryRow(ctx, query, msg.SenderType, msg.SenderID, msg.ReceiverID, msg.Content).
		Scan(&msg.ID, &msg.Timestamp)
	if err != nil {
		return fmt.Errorf("create message: %w", err)
	}

	isRead := false
	msg.IsRead = &isRead
	return nil
}

// GetConversation получает переписку двух пользователей в обе стороны по времени
func (r *MessageRepository) GetConversation(ctx context.Context, a, b int64) ([]*model.Message, error) {
	query := `
		SELECT id, sender_type, sender_id, receiver_id, content, is_read, created_at
		FROM messages
		WHERE (sender_id = $1 AND receiver_id = $2) OR (sender_id = $2 AND receiver_id = $1)
		ORDER BY created_at ASC, id ASC
	`
	return r.list(ctx, query, a, b)
}

// GetInbox получает сообщения, адресованные пользователю
func (r *MessageRepository) GetInbox(ctx context.Context, receiverID int64) ([]*model.Message, error) {
	query := `
		SELECT id, sender_type, sender_id, receiver_id, content, is_read, created_at
		FROM messages
		WHERE receiver_id = $1
		ORDER BY created_at ASC, id ASC
	`
	return r.list(ctx, query, receiverID)
}

func (r *MessageRepository) list(ctx context.Context, query string, args ...interface{}) ([]*model.Message, error) {
	rows, err := r.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("get messages: %w", err)
	}
	defer rows.Close()

	var messages []*model.Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, msg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}

	return messages, nil
}

// MarkRead отмечает прочитанными сообщения от otherID к readerID
func (r *MessageRepository) MarkRead(ctx context.Context, readerID, otherID int64) (int64, error) {
	query := `
		UPDATE messages
		SET is_read = TRUE
		WHERE receiver_id = $1 AND sender_id = $2 AND is_read = FALSE
	`

	affected, err := r.ExecAffected(ctx, query, readerID, otherID)
	if err != nil {
		return 0, fmt.Errorf("mark messages read: %w", err)
	}

	return affected, nil
}
