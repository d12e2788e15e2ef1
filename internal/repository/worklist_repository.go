package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/radpulse/radpulse-api/internal/models"
	appErrors "github.com/radpulse/radpulse-api/pkg/errors"
)

// WorklistFilter narrows the projection queries. Zero values mean "no
// filter". From/To are inclusive dates applied to the DateType column.
type WorklistFilter struct {
	Statuses []models.Status
	Modality string
	LabID    string
	DoctorID string
	DateType string
	From     string
	To       string
	Search   string
}

// Date basis selectors for range filters.
const (
	DateTypeCreated  = "createdAt"
	DateTypeStudy    = "studyDate"
	DateTypeAssigned = "assignedAt"
	DateTypeReported = "reportedAt"
)

type WorklistRepository struct {
	db *sqlx.DB
}

func NewWorklistRepository(db *sqlx.DB) *WorklistRepository {
	return &WorklistRepository{db: db}
}

const worklistSelect = `
	SELECT
		s.id AS study_id,
		s.accession_no,
		p.patient_code,
		p.full_name AS patient_name,
		s.lab_id,
		l.name AS lab_name,
		s.modality,
		s.study_desc,
		s.study_date,
		s.priority,
		s.status,
		s.current_doctor_name AS doctor_name,
		s.assigned_at,
		s.report_finalized_at,
		s.created_at,
		s.calculated_tat
	FROM studies s
	JOIN patients p ON p.id = s.patient_id
	JOIN labs l ON l.id = s.lab_id`

// List returns one page of projection rows, newest upload first.
func (r *WorklistRepository) List(ctx context.Context, scope models.AccessScope, filter WorklistFilter, limit, offset int) ([]models.WorklistRow, error) {
	where, args := buildWhere(scope, filter)

	query := worklistSelect + where +
		fmt.Sprintf(" ORDER BY s.created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows := []models.WorklistRow{}
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, appErrors.Wrap(err, "DB_ERROR", 500, "failed to list worklist")
	}
	return rows, nil
}

// Count returns the total row count for the same filter.
func (r *WorklistRepository) Count(ctx context.Context, scope models.AccessScope, filter WorklistFilter) (int, error) {
	where, args := buildWhere(scope, filter)

	query := `SELECT COUNT(*) FROM studies s JOIN patients p ON p.id = s.patient_id JOIN labs l ON l.id = s.lab_id` + where

	var total int
	if err := r.db.GetContext(ctx, &total, query, args...); err != nil {
		return 0, appErrors.Wrap(err, "DB_ERROR", 500, "failed to count worklist")
	}
	return total, nil
}

// StatusCounts returns the per-status breakdown for the filtered set.
func (r *WorklistRepository) StatusCounts(ctx context.Context, scope models.AccessScope, filter WorklistFilter) ([]models.StatusCount, error) {
	where, args := buildWhere(scope, filter)

	query := `SELECT s.status, COUNT(*) AS count FROM studies s JOIN patients p ON p.id = s.patient_id JOIN labs l ON l.id = s.lab_id` +
		where + ` GROUP BY s.status`

	counts := []models.StatusCount{}
	if err := r.db.SelectContext(ctx, &counts, query, args...); err != nil {
		return nil, appErrors.Wrap(err, "DB_ERROR", 500, "failed to count statuses")
	}
	return counts, nil
}

// TATAverages aggregates the persisted TAT snapshots over the filtered
// set. Averages only consider studies whose interval is populated.
func (r *WorklistRepository) TATAverages(ctx context.Context, scope models.AccessScope, filter WorklistFilter) (*models.TATAverages, error) {
	where, args := buildWhere(scope, filter)

	query := `
	SELECT
		COUNT(*) AS study_count,
		COUNT(s.report_finalized_at) AS reported_count,
		AVG((s.calculated_tat->>'uploadToAssignmentMinutes')::bigint) AS avg_upload_to_assignment,
		AVG((s.calculated_tat->>'assignmentToReportMinutes')::bigint) AS avg_assignment_to_report,
		AVG((s.calculated_tat->>'uploadToReportMinutes')::bigint) AS avg_upload_to_report,
		AVG((s.calculated_tat->>'studyToReportMinutes')::bigint) AS avg_study_to_report
	FROM studies s
	JOIN patients p ON p.id = s.patient_id
	JOIN labs l ON l.id = s.lab_id` + where

	var avg models.TATAverages
	if err := r.db.GetContext(ctx, &avg, query, args...); err != nil {
		return nil, appErrors.Wrap(err, "DB_ERROR", 500, "failed to aggregate turnaround times")
	}
	return &avg, nil
}

// OverdueCount returns the number of studies past their reporting
// deadline that still await a final report. Feeds the overdue gauge.
func (r *WorklistRepository) OverdueCount(ctx context.Context) (int, error) {
	const query = `SELECT COUNT(*) FROM studies s
		WHERE s.report_due_at < NOW()
		  AND s.report_finalized_at IS NULL
		  AND s.status <> 'archived'`

	var total int
	if err := r.db.GetContext(ctx, &total, query); err != nil {
		return 0, appErrors.Wrap(err, "DB_ERROR", 500, "failed to count overdue studies")
	}
	return total, nil
}

// Stream walks the filtered rows one at a time for exports, calling fn
// for each. It stops on the first error from fn.
func (r *WorklistRepository) Stream(ctx context.Context, scope models.AccessScope, filter WorklistFilter, fn func(row *models.WorklistRow) error) error {
	where, args := buildWhere(scope, filter)

	query := worklistSelect + where + ` ORDER BY s.created_at DESC`

	rows, err := r.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return appErrors.Wrap(err, "DB_ERROR", 500, "failed to stream worklist")
	}
	defer rows.Close()

	for rows.Next() {
		var row models.WorklistRow
		if err := rows.StructScan(&row); err != nil {
			return appErrors.Wrap(err, "DB_ERROR", 500, "failed to scan worklist row")
		}
		if err := fn(&row); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return appErrors.Wrap(err, "DB_ERROR", 500, "failed to stream worklist")
	}
	return nil
}

// buildWhere assembles the WHERE clause for the scope and filter using
// positional placeholders.
func buildWhere(scope models.AccessScope, filter WorklistFilter) (string, []interface{}) {
	conditions := []string{}
	args := []interface{}{}

	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	switch scope.Role {
	case models.RoleLabStaff:
		// A staff account without a lab sees nothing, not every lab.
		if scope.LabID == nil {
			conditions = append(conditions, "FALSE")
		} else {
			conditions = append(conditions, "s.lab_id = "+arg(*scope.LabID))
		}
	case models.RoleDoctor:
		doctorID := ""
		if scope.DoctorID != nil {
			doctorID = *scope.DoctorID
		}
		conditions = append(conditions, fmt.Sprintf(
			"(EXISTS (SELECT 1 FROM study_assignments sa WHERE sa.study_id = s.id AND sa.doctor_id = %s)"+
				" OR EXISTS (SELECT 1 FROM documents d WHERE d.study_id = s.id AND d.uploaded_by = %s))",
			arg(doctorID), arg(scope.UserID)))
	}

	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			placeholders[i] = arg(string(status))
		}
		conditions = append(conditions, "s.status IN ("+strings.Join(placeholders, ", ")+")")
	}
	if filter.Modality != "" {
		conditions = append(conditions, "s.modality = "+arg(filter.Modality))
	}
	if filter.LabID != "" {
		conditions = append(conditions, "s.lab_id = "+arg(filter.LabID))
	}
	if filter.DoctorID != "" {
		conditions = append(conditions, "s.current_doctor_id = "+arg(filter.DoctorID))
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		conditions = append(conditions, fmt.Sprintf(
			"(s.accession_no ILIKE %s OR p.full_name ILIKE %s OR p.patient_code ILIKE %s)",
			arg(pattern), arg(pattern), arg(pattern)))
	}

	dateColumn := dateBasisColumn(filter.DateType)
	if filter.From != "" {
		conditions = append(conditions, dateColumn+" >= "+arg(filter.From)+"::date")
	}
	if filter.To != "" {
		conditions = append(conditions, dateColumn+" < "+arg(filter.To)+"::date + INTERVAL '1 day'")
	}

	if len(conditions) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

func dateBasisColumn(dateType string) string {
	switch dateType {
	case DateTypeStudy:
		return "to_date(s.study_date, 'YYYYMMDD')"
	case DateTypeAssigned:
		return "s.assigned_at"
	case DateTypeReported:
		return "s.report_finalized_at"
	default:
		return "s.created_at"
	}
}
