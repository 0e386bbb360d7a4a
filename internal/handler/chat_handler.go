package handler

import (
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Smritiii29/regulatory-compliance-monitoring-system/internal/models"
	"github.com/Smritiii29/regulatory-compliance-monitoring-system/internal/service"
	appErrors "github.com/Smritiii29/regulatory-compliance-monitoring-system/pkg/errors"
	"github.com/Smritiii29/regulatory-compliance-monitoring-system/pkg/response"
	"github.com/Smritiii29/regulatory-compliance-monitoring-system/pkg/storage"
)

// ChatHandler wires HTTP endpoints to the chat service.
type ChatHandler struct {
	service *service.ChatService
	storage *storage.LocalStorage
}

// NewChatHandler creates a new handler.
func NewChatHandler(svc *service.ChatService, store *storage.LocalStorage) *ChatHandler {
	return &ChatHandler{service: svc, storage: store}
}

// Send godoc
// @Summary Send a message to a user or a department channel
// @Tags Chat
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param recipient_id formData string false "Recipient user ID"
// @Param group formData string false "Department channel"
// @Param body formData string false "Message text"
// @Param file formData file false "Attached file"
// @Success 201 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /chat/messages [post]
func (h *ChatHandler) Send(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req models.SendMessageRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid message payload"))
		return
	}

	var filePath *string
	if file, err := c.FormFile("file"); err == nil && file != nil {
		stored, err := h.storage.SaveUpload("chat", file)
		if err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusInternalServerError, "failed to store chat file"))
			return
		}
		filePath = &stored
	}

	message, err := h.service.Send(c.Request.Context(), actor, req, filePath)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, message)
}

// Conversation godoc
// @Summary Fetch the conversation with another user
// @Tags Chat
// @Produce json
// @Security BearerAuth
// @Param id path string true "Other user ID"
// @Param limit query int false "Maximum messages" default(50)
// @Success 200 {object} response.Envelope
// @Router /chat/conversations/{id} [get]
func (h *ChatHandler) Conversation(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	messages, err := h.service.Conversation(c.Request.Context(), actor, c.Param("id"), limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, messages, nil)
}

// GroupConversation godoc
// @Summary Fetch a department channel
// @Tags Chat
// @Produce json
// @Security BearerAuth
// @Param name path string true "Channel name"
// @Param limit query int false "Maximum messages" default(50)
// @Success 200 {object} response.Envelope
// @Router /chat/groups/{name} [get]
func (h *ChatHandler) GroupConversation(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	messages, err := h.service.GroupConversation(c.Request.Context(), actor, c.Param("name"), limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, messages, nil)
}

// Download godoc
// @Summary Download a file shared in chat
// @Tags Chat
// @Produce octet-stream
// @Security BearerAuth
// @Param id path string true "Message ID"
// @Success 200 {file} binary
// @Failure 404 {object} response.Envelope
// @Router /chat/download/{id} [get]
func (h *ChatHandler) Download(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	msg, err := h.service.FileMessage(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	file, err := h.storage.Open(*msg.FilePath)
	if err != nil {
		response.Error(c, appErrors.ErrNotFound)
		return
	}
	file.Close()

	c.FileAttachment(h.storage.Path(*msg.FilePath), filepath.Base(*msg.FilePath))
}

// Contacts godoc
// @Summary List chat contacts with unread counts
// @Tags Chat
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /chat/contacts [get]
func (h *ChatHandler) Contacts(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	contacts, err := h.service.Contacts(c.Request.Context(), actor)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, contacts, nil)
}
