package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/Smritiii29/regulatory-compliance-monitoring-system/internal/access"
	"github.com/Smritiii29/regulatory-compliance-monitoring-system/internal/models"
	appErrors "github.com/Smritiii29/regulatory-compliance-monitoring-system/pkg/errors"
)

type chatRepository interface {
	Create(ctx context.Context, msg *models.ChatMessage) error
	FindByID(ctx context.Context, id string) (*models.ChatMessage, error)
	Conversation(ctx context.Context, userA, userB string, limit int) ([]models.ChatMessage, error)
	GroupConversation(ctx context.Context, group string, limit int) ([]models.ChatMessage, error)
	MarkConversationRead(ctx context.Context, senderID, recipientID string) error
	Contacts(ctx context.Context, userID string) ([]models.ChatContact, error)
}

// ChatService provides the messaging use cases. Who may message whom follows
// the institutional hierarchy, enforced through access.CanChat; group
// channels are department-scoped.
type ChatService struct {
	repo      chatRepository
	users     submissionUserReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewChatService constructs a ChatService instance.
func NewChatService(repo chatRepository, users submissionUserReader, validate *validator.Validate, logger *zap.Logger) *ChatService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &ChatService{repo: repo, users: users, validator: validate, logger: logger}
}

// canUseGroup reports whether the actor may read or post to the channel.
// Departmental channels are open to their members; management roles reach
// every channel.
func canUseGroup(actor access.Actor, group string) bool {
	return actor.IsManagement() || actor.Department == group
}

// Send posts a message from the actor to a recipient or a group channel.
// filePath, when set, is the stored upload accompanying the message.
func (s *ChatService) Send(ctx context.Context, actor access.Actor, req models.SendMessageRequest, filePath *string) (*models.ChatMessage, error) {
	if (req.RecipientID == "") == (req.Group == "") {
		return nil, appErrors.Clone(appErrors.ErrValidation, "name exactly one of recipient_id and group")
	}
	if req.Body == "" && filePath == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "message needs a body or a file")
	}

	msg := &models.ChatMessage{
		SenderID:    actor.UserID,
		Body:        req.Body,
		MessageType: models.ChatMessageText,
		FilePath:    filePath,
	}
	if filePath != nil {
		msg.MessageType = models.ChatMessageFile
	}

	if req.Group != "" {
		if !models.ValidDepartment(req.Group) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "unknown channel")
		}
		if !canUseGroup(actor, req.Group) {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "you cannot post to this channel")
		}
		msg.GroupName = req.Group
	} else {
		recipient, err := s.users.FindByID(ctx, req.RecipientID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "recipient not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load recipient")
		}
		if !recipient.Active {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "recipient not found")
		}
		if !access.CanChat(actor, recipient) {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "you cannot message this user")
		}
		msg.RecipientID = recipient.ID
	}

	if err := s.repo.Create(ctx, msg); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store message")
	}
	return msg, nil
}

// Conversation returns the exchange between the actor and another user and
// marks the other side's messages as read.
func (s *ChatService) Conversation(ctx context.Context, actor access.Actor, otherID string, limit int) ([]models.ChatMessage, error) {
	other, err := s.users.FindByID(ctx, otherID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	if !access.CanChat(actor, other) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "you cannot message this user")
	}

	messages, err := s.repo.Conversation(ctx, actor.UserID, otherID, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load conversation")
	}
	if err := s.repo.MarkConversationRead(ctx, otherID, actor.UserID); err != nil {
		s.logger.Warn("failed to mark conversation read", zap.Error(err))
	}
	return messages, nil
}

// GroupConversation returns the latest messages on a department channel.
func (s *ChatService) GroupConversation(ctx context.Context, actor access.Actor, group string, limit int) ([]models.ChatMessage, error) {
	if !models.ValidDepartment(group) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "unknown channel")
	}
	if !canUseGroup(actor, group) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "you cannot read this channel")
	}

	messages, err := s.repo.GroupConversation(ctx, group, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load channel")
	}
	return messages, nil
}

// FileMessage loads a message carrying a file, verifying the actor is a
// party to it.
func (s *ChatService) FileMessage(ctx context.Context, actor access.Actor, id string) (*models.ChatMessage, error) {
	msg, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "message not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load message")
	}
	if msg.FilePath == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "message has no file")
	}

	allowed := msg.SenderID == actor.UserID || msg.RecipientID == actor.UserID ||
		(msg.GroupName != "" && canUseGroup(actor, msg.GroupName))
	if !allowed {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "you cannot access this file")
	}
	return msg, nil
}

// Contacts lists the actor's existing conversations.
func (s *ChatService) Contacts(ctx context.Context, actor access.Actor) ([]models.ChatContact, error) {
	contacts, err := s.repo.Contacts(ctx, actor.UserID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list contacts")
	}
	return contacts, nil
}
