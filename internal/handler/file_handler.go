package handler

import (
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/Smritiii29/regulatory-compliance-monitoring-system/internal/service"
	appErrors "github.com/Smritiii29/regulatory-compliance-monitoring-system/pkg/errors"
	"github.com/Smritiii29/regulatory-compliance-monitoring-system/pkg/response"
	"github.com/Smritiii29/regulatory-compliance-monitoring-system/pkg/storage"
)

// FileHandler mints signed download links for stored attachments and serves
// the files back when presented with a valid token. Links can be shared with
// reviewers without re-sending the bearer credential.
type FileHandler struct {
	circulars   *service.CircularService
	submissions *service.SubmissionService
	storage     *storage.LocalStorage
	signer      *storage.SignedURLSigner
}

// NewFileHandler creates a new handler.
func NewFileHandler(circulars *service.CircularService, submissions *service.SubmissionService, store *storage.LocalStorage, signer *storage.SignedURLSigner) *FileHandler {
	return &FileHandler{circulars: circulars, submissions: submissions, storage: store, signer: signer}
}

// SignCircularAttachment godoc
// @Summary Mint a signed link for a circular attachment
// @Tags Files
// @Produce json
// @Security BearerAuth
// @Param id path string true "Circular ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /circulars/{id}/attachment/link [get]
func (h *FileHandler) SignCircularAttachment(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	circular, err := h.circulars.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if circular.AttachmentPath == nil || *circular.AttachmentPath == "" {
		response.Error(c, appErrors.ErrNotFound)
		return
	}

	token, expiresAt, err := h.signer.Generate(circular.ID, *circular.AttachmentPath)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusInternalServerError, "failed to sign download link"))
		return
	}

	response.JSON(c, http.StatusOK, gin.H{"token": token, "expires_at": expiresAt}, nil)
}

// SignSubmissionFile godoc
// @Summary Mint a signed link for a submission's evidence file
// @Tags Files
// @Produce json
// @Security BearerAuth
// @Param id path string true "Submission ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /submissions/{id}/file/link [get]
func (h *FileHandler) SignSubmissionFile(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	submission, err := h.submissions.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if submission.FilePath == nil || *submission.FilePath == "" {
		response.Error(c, appErrors.ErrNotFound)
		return
	}

	token, expiresAt, err := h.signer.Generate(submission.ID, *submission.FilePath)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusInternalServerError, "failed to sign download link"))
		return
	}

	response.JSON(c, http.StatusOK, gin.H{"token": token, "expires_at": expiresAt}, nil)
}

// DownloadCircularAttachment godoc
// @Summary Download a circular's attachment
// @Tags Files
// @Produce octet-stream
// @Security BearerAuth
// @Param id path string true "Circular ID"
// @Success 200 {file} binary
// @Failure 404 {object} response.Envelope
// @Router /circulars/{id}/download [get]
func (h *FileHandler) DownloadCircularAttachment(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	circular, err := h.circulars.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if circular.AttachmentPath == nil || *circular.AttachmentPath == "" {
		response.Error(c, appErrors.ErrNotFound)
		return
	}

	h.serveStored(c, *circular.AttachmentPath)
}

// DownloadSubmissionFile godoc
// @Summary Download a submission's evidence file
// @Tags Files
// @Produce octet-stream
// @Security BearerAuth
// @Param id path string true "Submission ID"
// @Success 200 {file} binary
// @Failure 404 {object} response.Envelope
// @Router /submissions/{id}/download [get]
func (h *FileHandler) DownloadSubmissionFile(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	submission, err := h.submissions.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if submission.FilePath == nil || *submission.FilePath == "" {
		response.Error(c, appErrors.ErrNotFound)
		return
	}

	h.serveStored(c, *submission.FilePath)
}

func (h *FileHandler) serveStored(c *gin.Context, relPath string) {
	file, err := h.storage.Open(relPath)
	if err != nil {
		response.Error(c, appErrors.ErrNotFound)
		return
	}
	file.Close()

	c.FileAttachment(h.storage.Path(relPath), filepath.Base(relPath))
}

// Download godoc
// @Summary Download a file via a signed token
// @Tags Files
// @Produce octet-stream
// @Param token query string true "Signed download token"
// @Success 200 {file} binary
// @Failure 401 {object} response.Envelope
// @Router /files/download [get]
func (h *FileHandler) Download(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	_, relPath, _, err := h.signer.Parse(token, false)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, http.StatusUnauthorized, "invalid or expired download token"))
		return
	}

	file, err := h.storage.Open(relPath)
	if err != nil {
		response.Error(c, appErrors.ErrNotFound)
		return
	}
	defer file.Close()

	c.FileAttachment(h.storage.Path(relPath), filepath.Base(relPath))
}
