package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/radpulse/radpulse-api/internal/models"
	"github.com/radpulse/radpulse-api/internal/service"
	"github.com/radpulse/radpulse-api/pkg/response"
)

type directoryService interface {
	Labs(ctx context.Context) ([]models.Lab, error)
	Doctors(ctx context.Context) ([]models.DoctorWithUser, error)
	Patient(ctx context.Context, patientID string, scope models.AccessScope) (*service.PatientDetail, error)
}

type DirectoryHandler struct {
	directory directoryService
}

func NewDirectoryHandler(directory directoryService) *DirectoryHandler {
	return &DirectoryHandler{directory: directory}
}

// Labs godoc
// @Summary List registered labs
// @Tags directory
// @Produce json
// @Success 200 {object} response.Envelope{data=[]models.Lab}
// @Router /labs [get]
func (h *DirectoryHandler) Labs(c *gin.Context) {
	labs, err := h.directory.Labs(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, labs, nil)
}

// Doctors godoc
// @Summary List the doctor roster, least-loaded first
// @Tags directory
// @Produce json
// @Success 200 {object} response.Envelope{data=[]models.DoctorWithUser}
// @Router /doctors [get]
func (h *DirectoryHandler) Doctors(c *gin.Context) {
	doctors, err := h.directory.Doctors(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, doctors, nil)
}

// Patient godoc
// @Summary Fetch a patient with its lab
// @Tags directory
// @Produce json
// @Param id path string true "Patient ID"
// @Success 200 {object} response.Envelope{data=service.PatientDetail}
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /patients/{id} [get]
func (h *DirectoryHandler) Patient(c *gin.Context) {
	detail, err := h.directory.Patient(c.Request.Context(), c.Param("id"), scopeFrom(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}
