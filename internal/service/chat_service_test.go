package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Smritiii29/regulatory-compliance-monitoring-system/internal/access"
	"github.com/Smritiii29/regulatory-compliance-monitoring-system/internal/models"
	appErrors "github.com/Smritiii29/regulatory-compliance-monitoring-system/pkg/errors"
)

type mockChatRepo struct {
	messages []models.ChatMessage
	byID     map[string]*models.ChatMessage
	readPair [2]string
}

func (m *mockChatRepo) Create(_ context.Context, msg *models.ChatMessage) error {
	msg.ID = "msg-1"
	m.messages = append(m.messages, *msg)
	return nil
}

func (m *mockChatRepo) FindByID(_ context.Context, id string) (*models.ChatMessage, error) {
	msg, ok := m.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return msg, nil
}

func (m *mockChatRepo) Conversation(_ context.Context, _, _ string, _ int) ([]models.ChatMessage, error) {
	return m.messages, nil
}

func (m *mockChatRepo) GroupConversation(_ context.Context, _ string, _ int) ([]models.ChatMessage, error) {
	return m.messages, nil
}

func (m *mockChatRepo) MarkConversationRead(_ context.Context, senderID, recipientID string) error {
	m.readPair = [2]string{senderID, recipientID}
	return nil
}

func (m *mockChatRepo) Contacts(_ context.Context, _ string) ([]models.ChatContact, error) {
	return nil, nil
}

func newChatFixture() (*ChatService, *mockChatRepo) {
	repo := &mockChatRepo{byID: map[string]*models.ChatMessage{}}
	users := &mockUserReader{users: map[string]*models.User{
		"hod-1":     {ID: "hod-1", Role: models.RoleHOD, Department: "CSE", Active: true},
		"faculty-2": {ID: "faculty-2", Role: models.RoleFaculty, Department: "CSE", Active: true},
	}}
	return NewChatService(repo, users, nil, nil), repo
}

func TestChatSendDirect(t *testing.T) {
	svc, repo := newChatFixture()

	msg, err := svc.Send(context.Background(), facultyActor("CSE"), models.SendMessageRequest{
		RecipientID: "hod-1", Body: "deadline query",
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "hod-1", msg.RecipientID)
	assert.Equal(t, models.ChatMessageText, msg.MessageType)
	require.Len(t, repo.messages, 1)
}

func TestChatFacultyCannotMessageFaculty(t *testing.T) {
	svc, _ := newChatFixture()

	_, err := svc.Send(context.Background(), facultyActor("CSE"), models.SendMessageRequest{
		RecipientID: "faculty-2", Body: "hi",
	}, nil)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)
}

func TestChatSendRequiresOneTarget(t *testing.T) {
	svc, _ := newChatFixture()

	_, err := svc.Send(context.Background(), hodActor("CSE"), models.SendMessageRequest{Body: "hi"}, nil)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)

	_, err = svc.Send(context.Background(), hodActor("CSE"), models.SendMessageRequest{
		RecipientID: "hod-1", Group: "CSE", Body: "hi",
	}, nil)
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestChatSendFileWithoutBody(t *testing.T) {
	svc, repo := newChatFixture()

	path := "chat/abc.pdf"
	msg, err := svc.Send(context.Background(), facultyActor("CSE"), models.SendMessageRequest{
		RecipientID: "hod-1",
	}, &path)
	require.NoError(t, err)
	assert.Equal(t, models.ChatMessageFile, msg.MessageType)
	require.NotNil(t, repo.messages[0].FilePath)
	assert.Equal(t, path, *repo.messages[0].FilePath)
}

func TestChatGroupPostScopedToDepartment(t *testing.T) {
	svc, repo := newChatFixture()

	msg, err := svc.Send(context.Background(), facultyActor("CSE"), models.SendMessageRequest{
		Group: "CSE", Body: "notes uploaded",
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "CSE", msg.GroupName)
	assert.Empty(t, msg.RecipientID)
	require.Len(t, repo.messages, 1)

	_, err = svc.Send(context.Background(), facultyActor("CSE"), models.SendMessageRequest{
		Group: "IT", Body: "wrong channel",
	}, nil)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)

	// Management reads and posts everywhere.
	_, err = svc.Send(context.Background(), principalActor(), models.SendMessageRequest{
		Group: "IT", Body: "for all staff",
	}, nil)
	require.NoError(t, err)
}

func TestChatGroupUnknownChannel(t *testing.T) {
	svc, _ := newChatFixture()

	_, err := svc.GroupConversation(context.Background(), hodActor("CSE"), "ASTROLOGY", 50)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestChatConversationMarksRead(t *testing.T) {
	svc, repo := newChatFixture()

	_, err := svc.Conversation(context.Background(), facultyActor("CSE"), "hod-1", 50)
	require.NoError(t, err)
	assert.Equal(t, [2]string{"hod-1", "faculty-1"}, repo.readPair)
}

func TestChatFileMessageAccess(t *testing.T) {
	svc, repo := newChatFixture()
	path := "chat/report.pdf"
	repo.byID["msg-file"] = &models.ChatMessage{
		ID: "msg-file", SenderID: "hod-1", RecipientID: "faculty-1",
		MessageType: models.ChatMessageFile, FilePath: &path,
	}
	repo.byID["msg-text"] = &models.ChatMessage{
		ID: "msg-text", SenderID: "hod-1", RecipientID: "faculty-1",
		MessageType: models.ChatMessageText,
	}

	msg, err := svc.FileMessage(context.Background(), facultyActor("CSE"), "msg-file")
	require.NoError(t, err)
	assert.Equal(t, path, *msg.FilePath)

	// A stranger to the exchange is refused.
	stranger := access.Actor{UserID: "faculty-9", Role: models.RoleFaculty, Department: "IT"}
	_, err = svc.FileMessage(context.Background(), stranger, "msg-file")
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)

	// Messages without files are not downloadable.
	_, err = svc.FileMessage(context.Background(), facultyActor("CSE"), "msg-text")
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}
