package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/radpulse/radpulse-api/internal/dto"
	"github.com/radpulse/radpulse-api/internal/models"
	"github.com/radpulse/radpulse-api/internal/service"
	appErrors "github.com/radpulse/radpulse-api/pkg/errors"
	"github.com/radpulse/radpulse-api/pkg/response"
)

type worklistService interface {
	Worklist(ctx context.Context, scope models.AccessScope, query dto.WorklistQuery) ([]models.WorklistRow, *models.Pagination, error)
	Summary(ctx context.Context, scope models.AccessScope, query dto.WorklistQuery) (*service.WorklistSummary, error)
}

type WorklistHandler struct {
	projections worklistService
}

func NewWorklistHandler(projections worklistService) *WorklistHandler {
	return &WorklistHandler{projections: projections}
}

// List godoc
// @Summary List studies visible to the caller
// @Tags worklist
// @Produce json
// @Param status query string false "Workflow status"
// @Param category query string false "pending|inprogress|completed"
// @Param modality query string false "Modality"
// @Param dateType query string false "studyDate|createdAt|assignedAt|reportedAt"
// @Param from query string false "Start date (YYYY-MM-DD)"
// @Param to query string false "End date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope{data=[]models.WorklistRow}
// @Router /worklist [get]
func (h *WorklistHandler) List(c *gin.Context) {
	var query dto.WorklistQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
		return
	}

	rows, pagination, err := h.projections.Worklist(c.Request.Context(), scopeFrom(c), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, pagination)
}

// Summary godoc
// @Summary Category counts for the caller's visible studies
// @Tags worklist
// @Produce json
// @Success 200 {object} response.Envelope{data=service.WorklistSummary}
// @Router /worklist/summary [get]
func (h *WorklistHandler) Summary(c *gin.Context) {
	var query dto.WorklistQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
		return
	}

	summary, err := h.projections.Summary(c.Request.Context(), scopeFrom(c), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}
