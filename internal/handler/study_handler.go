package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/radpulse/radpulse-api/internal/dto"
	"github.com/radpulse/radpulse-api/internal/models"
	"github.com/radpulse/radpulse-api/internal/service"
	"github.com/radpulse/radpulse-api/pkg/config"
	appErrors "github.com/radpulse/radpulse-api/pkg/errors"
	"github.com/radpulse/radpulse-api/pkg/response"
)

type workflowService interface {
	Register(ctx context.Context, req dto.CreateStudyRequest, actor service.Actor) (*models.Study, error)
	Get(ctx context.Context, studyID string, scope models.AccessScope) (*service.StudyDetail, error)
	History(ctx context.Context, studyID string, scope models.AccessScope) ([]models.StatusHistoryEntry, error)
	Transition(ctx context.Context, studyID string, to models.Status, actor service.Actor, note *string) (*models.Study, error)
}

type assignmentService interface {
	Assign(ctx context.Context, studyID string, req dto.AssignRequest, actor service.Actor) (*models.Study, error)
	Unassign(ctx context.Context, studyID string, req dto.UnassignRequest, actor service.Actor) (*models.Study, error)
}

type StudyHandler struct {
	workflow    workflowService
	assignments assignmentService
	cfg         config.AssignmentConfig
}

func NewStudyHandler(workflow workflowService, assignments assignmentService, cfg config.AssignmentConfig) *StudyHandler {
	return &StudyHandler{workflow: workflow, assignments: assignments, cfg: cfg}
}

// Create godoc
// @Summary Register an uploaded study
// @Tags studies
// @Accept json
// @Produce json
// @Param payload body dto.CreateStudyRequest true "Study"
// @Success 201 {object} response.Envelope{data=models.Study}
// @Router /studies [post]
func (h *StudyHandler) Create(c *gin.Context) {
	var req dto.CreateStudyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
		return
	}
	if req.Priority == nil || *req.Priority == "" {
		priority := h.cfg.DefaultPriority
		req.Priority = &priority
	}

	study, err := h.workflow.Register(c.Request.Context(), req, actorFrom(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, study)
}

// Get godoc
// @Summary Fetch a study with its audit trail
// @Tags studies
// @Produce json
// @Param id path string true "Study ID"
// @Success 200 {object} response.Envelope{data=service.StudyDetail}
// @Failure 404 {object} response.Envelope
// @Router /studies/{id} [get]
func (h *StudyHandler) Get(c *gin.Context) {
	detail, err := h.workflow.Get(c.Request.Context(), c.Param("id"), scopeFrom(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// StatusHistory godoc
// @Summary List a study's status history oldest first
// @Tags studies
// @Produce json
// @Param id path string true "Study ID"
// @Success 200 {object} response.Envelope{data=[]models.StatusHistoryEntry}
// @Router /studies/{id}/status-history [get]
func (h *StudyHandler) StatusHistory(c *gin.Context) {
	history, err := h.workflow.History(c.Request.Context(), c.Param("id"), scopeFrom(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, history, nil)
}

// Transition godoc
// @Summary Move a study to a new workflow status
// @Tags studies
// @Accept json
// @Produce json
// @Param id path string true "Study ID"
// @Param payload body dto.TransitionRequest true "Target status"
// @Success 200 {object} response.Envelope{data=models.Study}
// @Failure 409 {object} response.Envelope
// @Router /studies/{id}/transition [post]
func (h *StudyHandler) Transition(c *gin.Context) {
	var req dto.TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
		return
	}

	study, err := h.workflow.Transition(c.Request.Context(), c.Param("id"), models.Status(req.ToStatus), actorFrom(c), req.Note)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, study, nil)
}

// Assign godoc
// @Summary Assign or reassign a study to a doctor
// @Tags studies
// @Accept json
// @Produce json
// @Param id path string true "Study ID"
// @Param payload body dto.AssignRequest true "Assignment"
// @Success 200 {object} response.Envelope{data=models.Study}
// @Failure 409 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /studies/{id}/assign [post]
func (h *StudyHandler) Assign(c *gin.Context) {
	var req dto.AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
		return
	}

	study, err := h.assignments.Assign(c.Request.Context(), c.Param("id"), req, actorFrom(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, study, nil)
}

// Unassign godoc
// @Summary Release a study back to the pending pool
// @Tags studies
// @Accept json
// @Produce json
// @Param id path string true "Study ID"
// @Param payload body dto.UnassignRequest false "Release note"
// @Success 200 {object} response.Envelope{data=models.Study}
// @Router /studies/{id}/unassign [post]
func (h *StudyHandler) Unassign(c *gin.Context) {
	var req dto.UnassignRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
		return
	}

	study, err := h.assignments.Unassign(c.Request.Context(), c.Param("id"), req, actorFrom(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, study, nil)
}
