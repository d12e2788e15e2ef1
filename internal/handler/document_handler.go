package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/radpulse/radpulse-api/internal/dto"
	"github.com/radpulse/radpulse-api/internal/models"
	"github.com/radpulse/radpulse-api/internal/service"
	appErrors "github.com/radpulse/radpulse-api/pkg/errors"
	"github.com/radpulse/radpulse-api/pkg/response"
)

type documentService interface {
	Upload(ctx context.Context, studyID string, actor service.Actor, docType, fileName, contentType string, size int64, r io.Reader) (*models.Document, error)
	ListByStudy(ctx context.Context, studyID string, scope models.AccessScope) ([]models.Document, error)
	DownloadReport(ctx context.Context, studyID string, actor service.Actor) (*models.Document, io.ReadCloser, error)
	Fetch(ctx context.Context, documentID string, scope models.AccessScope) (*models.Document, io.ReadCloser, error)
	Delete(ctx context.Context, documentID string, scope models.AccessScope) error
	Share(ctx context.Context, documentID string, req dto.ShareRequest, scope models.AccessScope) (*dto.ShareResponse, error)
	Resolve(ctx context.Context, token string) (*models.Document, io.ReadCloser, error)
}

type DocumentHandler struct {
	documents documentService
}

func NewDocumentHandler(documents documentService) *DocumentHandler {
	return &DocumentHandler{documents: documents}
}

// Upload godoc
// @Summary Attach a document or report artifact to a study
// @Tags documents
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Study ID"
// @Param type formData string true "report|clinical|consent|attachment"
// @Param file formData file true "File"
// @Success 201 {object} response.Envelope{data=models.Document}
// @Router /studies/{id}/documents [post]
func (h *DocumentHandler) Upload(c *gin.Context) {
	docType := c.PostForm("type")
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "file is required"))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "cannot read uploaded file"))
		return
	}
	defer file.Close()

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	doc, err := h.documents.Upload(c.Request.Context(), c.Param("id"), actorFrom(c), docType,
		fileHeader.Filename, contentType, fileHeader.Size, file)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, doc)
}

// List godoc
// @Summary List a study's documents
// @Tags documents
// @Produce json
// @Param id path string true "Study ID"
// @Success 200 {object} response.Envelope{data=[]models.Document}
// @Router /studies/{id}/documents [get]
func (h *DocumentHandler) List(c *gin.Context) {
	docs, err := h.documents.ListByStudy(c.Request.Context(), c.Param("id"), scopeFrom(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, docs, nil)
}

// DownloadReport godoc
// @Summary Download the latest report, recording the role-specific milestone
// @Tags documents
// @Produce application/octet-stream
// @Param id path string true "Study ID"
// @Success 200 {file} file
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /studies/{id}/download [post]
func (h *DocumentHandler) DownloadReport(c *gin.Context) {
	doc, reader, err := h.documents.DownloadReport(c.Request.Context(), c.Param("id"), actorFrom(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer reader.Close()
	streamDocument(c, doc, reader)
}

// Download godoc
// @Summary Download a document by ID
// @Tags documents
// @Produce application/octet-stream
// @Param id path string true "Document ID"
// @Success 200 {file} file
// @Router /documents/{id}/download [get]
func (h *DocumentHandler) Download(c *gin.Context) {
	doc, reader, err := h.documents.Fetch(c.Request.Context(), c.Param("id"), scopeFrom(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer reader.Close()
	streamDocument(c, doc, reader)
}

// Delete godoc
// @Summary Delete a document; the stored artifact is removed best-effort
// @Tags documents
// @Param id path string true "Document ID"
// @Success 204
// @Router /documents/{id} [delete]
func (h *DocumentHandler) Delete(c *gin.Context) {
	if err := h.documents.Delete(c.Request.Context(), c.Param("id"), scopeFrom(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Share godoc
// @Summary Issue a time-limited unauthenticated link for a document
// @Tags documents
// @Accept json
// @Produce json
// @Param id path string true "Document ID"
// @Param payload body dto.ShareRequest false "TTL override"
// @Success 200 {object} response.Envelope{data=dto.ShareResponse}
// @Router /documents/{id}/share [post]
func (h *DocumentHandler) Share(c *gin.Context) {
	var req dto.ShareRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
		return
	}

	share, err := h.documents.Share(c.Request.Context(), c.Param("id"), req, scopeFrom(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, share, nil)
}

// Resolve godoc
// @Summary Download a document via a signed share token
// @Tags documents
// @Produce application/octet-stream
// @Param token path string true "Share token"
// @Success 200 {file} file
// @Failure 401 {object} response.Envelope
// @Router /share/{token} [get]
func (h *DocumentHandler) Resolve(c *gin.Context) {
	doc, reader, err := h.documents.Resolve(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer reader.Close()
	streamDocument(c, doc, reader)
}

func streamDocument(c *gin.Context, doc *models.Document, reader io.Reader) {
	response.Attachment(c, doc.ContentType, doc.FileName, doc.SizeBytes)
	_, _ = io.Copy(c.Writer, reader)
}
