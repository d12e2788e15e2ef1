package service

import (
	"context"
	"errors"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/radpulse/radpulse-api/internal/dto"
	"github.com/radpulse/radpulse-api/internal/models"
	"github.com/radpulse/radpulse-api/internal/repository"
	"github.com/radpulse/radpulse-api/internal/tat"
	"github.com/radpulse/radpulse-api/pkg/config"
	appErrors "github.com/radpulse/radpulse-api/pkg/errors"
	"github.com/radpulse/radpulse-api/pkg/export"
)

// WorklistSource is the projection query surface.
type WorklistSource interface {
	List(ctx context.Context, scope models.AccessScope, filter repository.WorklistFilter, limit, offset int) ([]models.WorklistRow, error)
	Count(ctx context.Context, scope models.AccessScope, filter repository.WorklistFilter) (int, error)
	StatusCounts(ctx context.Context, scope models.AccessScope, filter repository.WorklistFilter) ([]models.StatusCount, error)
	TATAverages(ctx context.Context, scope models.AccessScope, filter repository.WorklistFilter) (*models.TATAverages, error)
	Stream(ctx context.Context, scope models.AccessScope, filter repository.WorklistFilter, fn func(row *models.WorklistRow) error) error
}

// WorklistSummary buckets the filtered studies by workflow category.
// The buckets always sum to Total.
type WorklistSummary struct {
	Total      int                   `json:"total"`
	Categories map[string]int        `json:"categories"`
	ByStatus   []models.StatusCount  `json:"byStatus"`
}

// TATReport is the aggregate turnaround report payload.
type TATReport struct {
	Averages          *models.TATAverages  `json:"averages"`
	FormattedAverages map[string]string    `json:"formattedAverages"`
	Rows              []models.WorklistRow `json:"rows"`
}

// ProjectionService serves the read side: worklists, summaries and the
// TAT report, all scope-filtered and cached.
type ProjectionService struct {
	source  WorklistSource
	cache   *CacheService
	metrics *MetricsService
	csv     *export.CSVExporter
	pdf     *export.PDFExporter
	cfg     config.WorklistConfig
	logger  *zap.Logger
}

func NewProjectionService(source WorklistSource, cache *CacheService, metrics *MetricsService, csvExp *export.CSVExporter, pdfExp *export.PDFExporter, cfg config.WorklistConfig, logger *zap.Logger) *ProjectionService {
	return &ProjectionService{
		source:  source,
		cache:   cache,
		metrics: metrics,
		csv:     csvExp,
		pdf:     pdfExp,
		cfg:     cfg,
		logger:  logger,
	}
}

type worklistPage struct {
	Rows       []models.WorklistRow `json:"rows"`
	Pagination *models.Pagination   `json:"pagination"`
}

// Worklist returns one page of studies visible to the caller.
func (s *ProjectionService) Worklist(ctx context.Context, scope models.AccessScope, query dto.WorklistQuery) ([]models.WorklistRow, *models.Pagination, error) {
	filter, err := s.worklistFilter(query)
	if err != nil {
		return nil, nil, err
	}
	page, perPage := s.pageBounds(query.Page, query.PerPage)

	key := s.cacheKey("worklist", scope, map[string]interface{}{"q": query, "scope": scope})
	if key != "" {
		var cached worklistPage
		if s.cache.Get(ctx, key, &cached) {
			return cached.Rows, cached.Pagination, nil
		}
	}

	ctx, cancel := s.withBudget(ctx)
	defer cancel()

	rows, err := s.source.List(ctx, scope, filter, perPage, (page-1)*perPage)
	if err != nil {
		return nil, nil, s.mapTimeout(ctx, err)
	}
	total, err := s.source.Count(ctx, scope, filter)
	if err != nil {
		return nil, nil, s.mapTimeout(ctx, err)
	}

	s.decorate(rows, scope)
	pagination := models.NewPagination(page, perPage, total)

	if key != "" {
		s.cache.Set(ctx, key, worklistPage{Rows: rows, Pagination: pagination}, s.cache.WorklistTTL())
	}
	return rows, pagination, nil
}

// Summary returns category buckets for the caller's visible studies.
// Every status maps to exactly one bucket, so the buckets sum to the
// total even when a status has no explicit category.
func (s *ProjectionService) Summary(ctx context.Context, scope models.AccessScope, query dto.WorklistQuery) (*WorklistSummary, error) {
	filter, err := s.worklistFilter(query)
	if err != nil {
		return nil, err
	}

	key := s.cacheKey("summary", scope, map[string]interface{}{"q": query, "scope": scope})
	if key != "" {
		var cached WorklistSummary
		if s.cache.Get(ctx, key, &cached) {
			return &cached, nil
		}
	}

	ctx, cancel := s.withBudget(ctx)
	defer cancel()

	counts, err := s.source.StatusCounts(ctx, scope, filter)
	if err != nil {
		return nil, s.mapTimeout(ctx, err)
	}

	summary := &WorklistSummary{
		Categories: map[string]int{
			models.CategoryPending:    0,
			models.CategoryInProgress: 0,
			models.CategoryCompleted:  0,
			models.CategoryUnknown:    0,
		},
		ByStatus: counts,
	}
	for _, c := range counts {
		summary.Total += c.Count
		summary.Categories[models.CategoryOf(c.Status)] += c.Count
	}

	if key != "" {
		s.cache.Set(ctx, key, summary, s.cache.WorklistTTL())
	}
	return summary, nil
}

// TATReport returns aggregate turnaround averages plus one page of the
// underlying rows.
func (s *ProjectionService) TATReport(ctx context.Context, scope models.AccessScope, query dto.TATReportQuery) (*TATReport, *models.Pagination, error) {
	filter := s.reportFilter(query)
	page, perPage := s.pageBounds(query.Page, query.PerPage)

	key := s.cacheKey("tat_report", scope, map[string]interface{}{"q": query, "scope": scope})
	type cachedReport struct {
		Report     *TATReport         `json:"report"`
		Pagination *models.Pagination `json:"pagination"`
	}
	if key != "" {
		var cached cachedReport
		if s.cache.Get(ctx, key, &cached) {
			return cached.Report, cached.Pagination, nil
		}
	}

	ctx, cancel := s.withBudget(ctx)
	defer cancel()

	averages, err := s.source.TATAverages(ctx, scope, filter)
	if err != nil {
		return nil, nil, s.mapTimeout(ctx, err)
	}
	rows, err := s.source.List(ctx, scope, filter, perPage, (page-1)*perPage)
	if err != nil {
		return nil, nil, s.mapTimeout(ctx, err)
	}
	s.decorate(rows, scope)

	report := &TATReport{
		Averages: averages,
		FormattedAverages: map[string]string{
			"uploadToAssignment": formatAverage(averages.AvgUploadToAssignmentMins),
			"assignmentToReport": formatAverage(averages.AvgAssignmentToReportMins),
			"uploadToReport":     formatAverage(averages.AvgUploadToReportMins),
			"studyToReport":      formatAverage(averages.AvgStudyToReportMins),
		},
		Rows: rows,
	}
	pagination := models.NewPagination(page, perPage, averages.StudyCount)

	if key != "" {
		s.cache.Set(ctx, key, cachedReport{Report: report, Pagination: pagination}, s.cache.WorklistTTL())
	}
	return report, pagination, nil
}

var exportHeaders = []string{
	"Accession No", "Patient ID", "Patient Name", "Lab", "Modality",
	"Study Date", "Status", "Doctor", "Upload to Assignment",
	"Assignment to Report", "Upload to Report", "Study to Report",
}

// ExportTAT streams the full filtered result set as CSV or renders it
// as PDF. CSV rows are written as they arrive from the database.
func (s *ProjectionService) ExportTAT(ctx context.Context, scope models.AccessScope, query dto.TATReportQuery, format string, w io.Writer) error {
	filter := s.reportFilter(query)

	ctx, cancel := s.withBudget(ctx)
	defer cancel()

	switch format {
	case "pdf":
		rows := make([][]string, 0, 256)
		err := s.source.Stream(ctx, scope, filter, func(row *models.WorklistRow) error {
			rows = append(rows, s.exportRow(row, scope))
			return nil
		})
		if err != nil {
			return s.mapTimeout(ctx, err)
		}
		s.metrics.Export("pdf")
		return s.pdf.Export(w, "Turnaround Time Report", exportHeaders, rows)
	default:
		sw, err := s.csv.NewStreamWriter(w, exportHeaders)
		if err != nil {
			return err
		}
		err = s.source.Stream(ctx, scope, filter, func(row *models.WorklistRow) error {
			return sw.WriteRow(s.exportRow(row, scope))
		})
		if err != nil {
			return s.mapTimeout(ctx, err)
		}
		s.metrics.Export("csv")
		return sw.Close()
	}
}

func (s *ProjectionService) exportRow(row *models.WorklistRow, scope models.AccessScope) []string {
	patientName := row.PatientName
	patientCode := row.PatientCode
	if scope.Role == models.RoleDoctor {
		patientName = maskIdentifier(patientName)
		patientCode = maskIdentifier(patientCode)
	}

	uploadToAssignment, assignmentToReport, uploadToReport, studyToReport := "N/A", "N/A", "N/A", "N/A"
	if row.CalculatedTAT != nil {
		uploadToAssignment = row.CalculatedTAT.UploadToAssignment
		assignmentToReport = row.CalculatedTAT.AssignmentToReport
		uploadToReport = row.CalculatedTAT.UploadToReport
		studyToReport = row.CalculatedTAT.StudyToReport
	}

	doctor := ""
	if row.DoctorName != nil {
		doctor = *row.DoctorName
	}
	studyDate := ""
	if row.StudyDate != nil {
		studyDate = *row.StudyDate
	}

	return []string{
		row.AccessionNo, patientCode, patientName, row.LabName, row.Modality,
		studyDate, string(row.Status), doctor,
		uploadToAssignment, assignmentToReport, uploadToReport, studyToReport,
	}
}

// decorate fills derived fields and masks patient identifiers for
// doctor-facing responses.
func (s *ProjectionService) decorate(rows []models.WorklistRow, scope models.AccessScope) {
	for i := range rows {
		rows[i].Category = models.CategoryOf(rows[i].Status)
		if scope.Role == models.RoleDoctor {
			rows[i].PatientName = maskIdentifier(rows[i].PatientName)
			rows[i].PatientCode = maskIdentifier(rows[i].PatientCode)
		}
	}
}

func (s *ProjectionService) worklistFilter(query dto.WorklistQuery) (repository.WorklistFilter, error) {
	filter := repository.WorklistFilter{
		Modality: query.Modality,
		LabID:    query.LabID,
		DoctorID: query.DoctorID,
		DateType: query.DateType,
		From:     query.From,
		To:       query.To,
		Search:   strings.TrimSpace(query.Search),
	}

	if query.Status != "" {
		status := models.Status(query.Status)
		if !models.ValidStatus(status) {
			return filter, appErrors.Clone(appErrors.ErrValidation, "unknown workflow status: "+query.Status)
		}
		filter.Statuses = []models.Status{status}
	} else if query.Category != "" {
		filter.Statuses = statusesInCategory(query.Category)
	}
	return filter, nil
}

func (s *ProjectionService) reportFilter(query dto.TATReportQuery) repository.WorklistFilter {
	return repository.WorklistFilter{
		Modality: query.Modality,
		LabID:    query.LabID,
		DoctorID: query.DoctorID,
		DateType: query.DateType,
		From:     query.From,
		To:       query.To,
	}
}

func (s *ProjectionService) pageBounds(page, perPage int) (int, int) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = s.cfg.DefaultPageSize
	}
	if perPage > s.cfg.MaxPageSize {
		perPage = s.cfg.MaxPageSize
	}
	return page, perPage
}

// cacheKey returns "" when the result should not be cached. Doctor
// scopes are skipped: their visibility set changes with assignments and
// is not covered by the lab-partition invalidation.
func (s *ProjectionService) cacheKey(op string, scope models.AccessScope, payload interface{}) string {
	if s.cache == nil || !s.cache.Enabled() || scope.Role == models.RoleDoctor {
		return ""
	}
	partition := "all"
	if scope.LabID != nil {
		partition = *scope.LabID
	}
	return s.cache.Key(op, partition, payload)
}

func (s *ProjectionService) withBudget(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.ProjectionTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.cfg.ProjectionTimeout)
}

func (s *ProjectionService) mapTimeout(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return appErrors.ErrProjectionTimeout
	}
	return err
}

func statusesInCategory(category string) []models.Status {
	switch category {
	case models.CategoryPending:
		return []models.Status{models.StatusReceived, models.StatusPendingAssignment}
	case models.CategoryInProgress:
		return []models.Status{
			models.StatusAssigned, models.StatusReportOpened, models.StatusReportInProgress,
			models.StatusReportDrafted, models.StatusReportFinalized, models.StatusReportUploaded,
			models.StatusDownloadedByDoctor,
		}
	case models.CategoryCompleted:
		return []models.Status{models.StatusFinalDownloaded}
	default:
		return nil
	}
}

func formatAverage(avg *float64) string {
	if avg == nil {
		return "N/A"
	}
	rounded := int64(*avg + 0.5)
	return tat.FormatMinutes(&rounded)
}

// maskIdentifier hides the middle of a patient identifier, keeping the
// first and last two characters when long enough.
func maskIdentifier(s string) string {
	if len(s) <= 4 {
		return strings.Repeat("*", len(s))
	}
	return s[:2] + strings.Repeat("*", len(s)-4) + s[len(s)-2:]
}
