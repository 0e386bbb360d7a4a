package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/Smritiii29/regulatory-compliance-monitoring-system/internal/models"
)

// ChatRepository provides database access for chat messages.
type ChatRepository struct {
	db *sqlx.DB
}

// NewChatRepository creates a new instance of ChatRepository.
func NewChatRepository(db *sqlx.DB) *ChatRepository {
	return &ChatRepository{db: db}
}

// Create inserts a chat message. Empty recipient and group strings are
// stored as NULL.
func (r *ChatRepository) Create(ctx context.Context, msg *models.ChatMessage) error {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO chat_messages (id, sender_id, recipient_id, group_name, message_type, body, file_path, read, created_at)
		VALUES (:id, :sender_id, NULLIF(:recipient_id, ''), NULLIF(:group_name, ''), :message_type, :body, :file_path, :read, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, msg); err != nil {
		return fmt.Errorf("create chat message: %w", err)
	}
	return nil
}

// FindByID loads one message.
func (r *ChatRepository) FindByID(ctx context.Context, id string) (*models.ChatMessage, error) {
	const query = `SELECT m.id, m.sender_id, COALESCE(m.recipient_id, '') AS recipient_id, COALESCE(m.group_name, '') AS group_name,
		m.message_type, m.body, m.file_path, m.read, m.created_at
		FROM chat_messages m WHERE m.id = $1`
	var msg models.ChatMessage
	if err := r.db.GetContext(ctx, &msg, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find chat message: %w", err)
	}
	return &msg, nil
}

// Conversation returns the messages exchanged between two users, oldest
// first, up to limit.
func (r *ChatRepository) Conversation(ctx context.Context, userA, userB string, limit int) ([]models.ChatMessage, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	query := fmt.Sprintf(`SELECT m.id, m.sender_id, COALESCE(m.recipient_id, '') AS recipient_id, COALESCE(m.group_name, '') AS group_name,
		m.message_type, m.body, m.file_path, m.read, m.created_at,
		COALESCE(su.full_name, '') AS sender_name, COALESCE(ru.full_name, '') AS recipient_name
		FROM chat_messages m
		LEFT JOIN users su ON su.id = m.sender_id
		LEFT JOIN users ru ON ru.id = m.recipient_id
		WHERE (m.sender_id = $1 AND m.recipient_id = $2) OR (m.sender_id = $2 AND m.recipient_id = $1)
		ORDER BY m.created_at ASC LIMIT %d`, limit)
	var messages []models.ChatMessage
	if err := r.db.SelectContext(ctx, &messages, query, userA, userB); err != nil {
		return nil, fmt.Errorf("load conversation: %w", err)
	}
	return messages, nil
}

// GroupConversation returns the last messages posted to a group channel,
// oldest first, up to limit.
func (r *ChatRepository) GroupConversation(ctx context.Context, group string, limit int) ([]models.ChatMessage, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	query := fmt.Sprintf(`SELECT * FROM (
		SELECT m.id, m.sender_id, COALESCE(m.recipient_id, '') AS recipient_id, COALESCE(m.group_name, '') AS group_name,
			m.message_type, m.body, m.file_path, m.read, m.created_at,
			COALESCE(su.full_name, '') AS sender_name, '' AS recipient_name
		FROM chat_messages m
		LEFT JOIN users su ON su.id = m.sender_id
		WHERE m.group_name = $1
		ORDER BY m.created_at DESC LIMIT %d
	) latest ORDER BY created_at ASC`, limit)
	var messages []models.ChatMessage
	if err := r.db.SelectContext(ctx, &messages, query, group); err != nil {
		return nil, fmt.Errorf("load group conversation: %w", err)
	}
	return messages, nil
}

// MarkConversationRead marks messages from sender to recipient as read.
func (r *ChatRepository) MarkConversationRead(ctx context.Context, senderID, recipientID string) error {
	const query = `UPDATE chat_messages SET read = TRUE WHERE sender_id = $1 AND recipient_id = $2 AND read = FALSE`
	if _, err := r.db.ExecContext(ctx, query, senderID, recipientID); err != nil {
		return fmt.Errorf("mark conversation read: %w", err)
	}
	return nil
}

// Contacts returns everyone the user has an active conversation with,
// newest conversation first.
func (r *ChatRepository) Contacts(ctx context.Context, userID string) ([]models.ChatContact, error) {
	const query = `SELECT u.id AS user_id, u.full_name, u.role, u.department,
		COUNT(*) FILTER (WHERE m.recipient_id = $1 AND m.read = FALSE) AS unread_count,
		MAX(m.created_at) AS last_message
		FROM chat_messages m
		JOIN users u ON u.id = CASE WHEN m.sender_id = $1 THEN m.recipient_id ELSE m.sender_id END
		WHERE m.sender_id = $1 OR m.recipient_id = $1
		GROUP BY u.id, u.full_name, u.role, u.department
		ORDER BY last_message DESC`
	var contacts []models.ChatContact
	if err := r.db.SelectContext(ctx, &contacts, query, userID); err != nil {
		return nil, fmt.Errorf("list chat contacts: %w", err)
	}
	return contacts, nil
}
