package models

import "time"

// Chat message kinds.
const (
	ChatMessageText = "text"
	ChatMessageFile = "file"
)

// ChatMessage is a message between two users or posted to a group channel.
// Exactly one of RecipientID and GroupName is set; empty strings stand in
// for NULL at the persistence boundary.
type ChatMessage struct {
	ID          string    `db:"id" json:"id"`
	SenderID    string    `db:"sender_id" json:"sender_id"`
	RecipientID string    `db:"recipient_id" json:"recipient_id,omitempty"`
	GroupName   string    `db:"group_name" json:"group_name,omitempty"`
	MessageType string    `db:"message_type" json:"message_type"`
	Body        string    `db:"body" json:"body"`
	FilePath    *string   `db:"file_path" json:"file_path,omitempty"`
	Read        bool      `db:"read" json:"read"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`

	SenderName    string `db:"sender_name" json:"sender_name,omitempty"`
	RecipientName string `db:"recipient_name" json:"recipient_name,omitempty"`
}

// SendMessageRequest is the payload for posting a chat message. Sent as a
// form so a file may ride along; either a recipient or a group is named,
// and either a body or a file must be present.
type SendMessageRequest struct {
	RecipientID string `form:"recipient_id" json:"recipient_id"`
	Group       string `form:"group" json:"group"`
	Body        string `form:"body" json:"body"`
}

// ChatContact summarizes a conversation partner in the contact list.
type ChatContact struct {
	UserID      string    `db:"user_id" json:"user_id"`
	FullName    string    `db:"full_name" json:"full_name"`
	Role        UserRole  `db:"role" json:"role"`
	Department  string    `db:"department" json:"department"`
	UnreadCount int       `db:"unread_count" json:"unread_count"`
	LastMessage time.Time `db:"last_message" json:"last_message"`
}
