package handler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/radpulse/radpulse-api/internal/dto"
	"github.com/radpulse/radpulse-api/internal/models"
	"github.com/radpulse/radpulse-api/internal/service"
	appErrors "github.com/radpulse/radpulse-api/pkg/errors"
	"github.com/radpulse/radpulse-api/pkg/export"
	"github.com/radpulse/radpulse-api/pkg/response"
)

type tatReportService interface {
	TATReport(ctx context.Context, scope models.AccessScope, query dto.TATReportQuery) (*service.TATReport, *models.Pagination, error)
	ExportTAT(ctx context.Context, scope models.AccessScope, query dto.TATReportQuery, format string, w io.Writer) error
}

type TATHandler struct {
	projections tatReportService
	csv         *export.CSVExporter
	pdf         *export.PDFExporter
}

func NewTATHandler(projections tatReportService, csvExp *export.CSVExporter, pdfExp *export.PDFExporter) *TATHandler {
	return &TATHandler{projections: projections, csv: csvExp, pdf: pdfExp}
}

// Report godoc
// @Summary Aggregate turnaround-time report
// @Tags reports
// @Produce json
// @Param labId query string false "Lab ID"
// @Param doctorId query string false "Doctor ID"
// @Param modality query string false "Modality"
// @Param dateType query string false "studyDate|createdAt"
// @Param from query string false "Start date (YYYY-MM-DD)"
// @Param to query string false "End date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope{data=service.TATReport}
// @Router /reports/tat [get]
func (h *TATHandler) Report(c *gin.Context) {
	var query dto.TATReportQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
		return
	}

	report, pagination, err := h.projections.TATReport(c.Request.Context(), scopeFrom(c), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, pagination)
}

// Export godoc
// @Summary Export the turnaround-time report as CSV or PDF
// @Tags reports
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv|pdf" default(csv)
// @Success 200 {file} file
// @Router /reports/tat/export [get]
func (h *TATHandler) Export(c *gin.Context) {
	var query dto.TATExportQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
		return
	}

	format := query.Format
	if format == "" {
		format = "csv"
	}

	var contentType, ext string
	switch format {
	case "pdf":
		contentType, ext = h.pdf.ContentType(), "pdf"
	default:
		contentType, ext = h.csv.ContentType(), "csv"
	}

	fileName := fmt.Sprintf("tat-report-%s.%s", time.Now().UTC().Format("20060102-150405"), ext)
	response.Attachment(c, contentType, fileName, 0)

	if err := h.projections.ExportTAT(c.Request.Context(), scopeFrom(c), query.TATReportQuery, format, c.Writer); err != nil {
		// Headers may already be sent; log through gin's error list.
		_ = c.Error(err)
	}
}
