package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// CalculatedTAT is the persisted turnaround-time snapshot for a study.
// Durations are whole minutes; nil means the milestone pair needed to
// compute the interval is incomplete. Formatted strings are the
// human-readable rendering served to clients.
type CalculatedTAT struct {
	StudyToUploadMinutes      *int64 `json:"studyToUploadMinutes"`
	UploadToAssignmentMinutes *int64 `json:"uploadToAssignmentMinutes"`
	AssignmentToReportMinutes *int64 `json:"assignmentToReportMinutes"`
	UploadToReportMinutes     *int64 `json:"uploadToReportMinutes"`
	StudyToReportMinutes      *int64 `json:"studyToReportMinutes"`
	TotalMinutes              *int64 `json:"totalMinutes"`
	TotalDays                 *int64 `json:"totalDays"`

	StudyToUpload      string `json:"studyToUpload"`
	UploadToAssignment string `json:"uploadToAssignment"`
	AssignmentToReport string `json:"assignmentToReport"`
	UploadToReport     string `json:"uploadToReport"`
	StudyToReport      string `json:"studyToReport"`
	Total              string `json:"total"`

	Phase        string    `json:"phase"`
	IsCompleted  bool      `json:"isCompleted"`
	IsOverdue    bool      `json:"isOverdue"`
	Anomaly      bool      `json:"anomaly"`
	CalculatedAt time.Time `json:"calculatedAt"`
}

// Value serializes the snapshot for a JSONB column.
func (t CalculatedTAT) Value() (driver.Value, error) {
	return json.Marshal(t)
}

// Scan deserializes the snapshot from a JSONB column.
func (t *CalculatedTAT) Scan(value interface{}) error {
	if value == nil {
		*t = CalculatedTAT{}
		return nil
	}
	b, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("cannot scan %T into CalculatedTAT", value)
	}
	return json.Unmarshal(b, t)
}

// Study is the central workflow entity. Current assignment fields are
// denormalized from the newest study_assignments row.
type Study struct {
	ID             string  `db:"id" json:"id"`
	LabID          string  `db:"lab_id" json:"labId"`
	PatientID      string  `db:"patient_id" json:"patientId"`
	AccessionNo    string  `db:"accession_no" json:"accessionNo"`
	Modality       string  `db:"modality" json:"modality"`
	StudyDesc      *string `db:"study_desc" json:"studyDesc,omitempty"`
	StudyDate      *string `db:"study_date" json:"studyDate,omitempty"`
	StudyTime      *string `db:"study_time" json:"studyTime,omitempty"`
	Priority       string  `db:"priority" json:"priority"`
	Status         Status  `db:"status" json:"status"`
	Version        int64   `db:"version" json:"version"`

	CurrentDoctorID   *string    `db:"current_doctor_id" json:"currentDoctorId,omitempty"`
	CurrentDoctorName *string    `db:"current_doctor_name" json:"currentDoctorName,omitempty"`
	AssignedAt        *time.Time `db:"assigned_at" json:"assignedAt,omitempty"`
	ReportDueAt       *time.Time `db:"report_due_at" json:"reportDueAt,omitempty"`

	ReportStartedAt    *time.Time `db:"report_started_at" json:"reportStartedAt,omitempty"`
	ReportDraftedAt    *time.Time `db:"report_drafted_at" json:"reportDraftedAt,omitempty"`
	ReportFinalizedAt  *time.Time `db:"report_finalized_at" json:"reportFinalizedAt,omitempty"`
	ReportDownloadedAt *time.Time `db:"report_downloaded_at" json:"reportDownloadedAt,omitempty"`
	ArchivedAt         *time.Time `db:"archived_at" json:"archivedAt,omitempty"`
	ReporterName       *string    `db:"reporter_name" json:"reporterName,omitempty"`

	CalculatedTAT *CalculatedTAT `db:"calculated_tat" json:"calculatedTat,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// StatusHistoryEntry is one append-only row in a study's audit trail.
type StatusHistoryEntry struct {
	ID         string    `db:"id" json:"id"`
	StudyID    string    `db:"study_id" json:"studyId"`
	FromStatus *Status   `db:"from_status" json:"fromStatus,omitempty"`
	ToStatus   Status    `db:"to_status" json:"toStatus"`
	ActorID    *string   `db:"actor_id" json:"actorId,omitempty"`
	ActorName  *string   `db:"actor_name" json:"actorName,omitempty"`
	Note       *string   `db:"note" json:"note,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
}

// StudyAssignment is one append-only assignment event. Reassignments
// add rows; nothing is ever rewritten.
type StudyAssignment struct {
	ID          string     `db:"id" json:"id"`
	StudyID     string     `db:"study_id" json:"studyId"`
	DoctorID    string     `db:"doctor_id" json:"doctorId"`
	DoctorName  string     `db:"doctor_name" json:"doctorName"`
	AssignedBy  string     `db:"assigned_by" json:"assignedBy"`
	AssignedAt  time.Time  `db:"assigned_at" json:"assignedAt"`
	DueAt       time.Time  `db:"due_at" json:"dueAt"`
	ReleasedAt  *time.Time `db:"released_at" json:"releasedAt,omitempty"`
	ReleaseNote *string    `db:"release_note" json:"releaseNote,omitempty"`
}

// WorklistRow is the projection row for worklist and TAT report
// listings. Patient identifiers arrive unmasked from the database and
// are masked in the service for doctor-facing responses.
type WorklistRow struct {
	StudyID           string         `db:"study_id" json:"studyId"`
	AccessionNo       string         `db:"accession_no" json:"accessionNo"`
	PatientCode       string         `db:"patient_code" json:"patientCode"`
	PatientName       string         `db:"patient_name" json:"patientName"`
	LabID             string         `db:"lab_id" json:"labId"`
	LabName           string         `db:"lab_name" json:"labName"`
	Modality          string         `db:"modality" json:"modality"`
	StudyDesc         *string        `db:"study_desc" json:"studyDesc,omitempty"`
	StudyDate         *string        `db:"study_date" json:"studyDate,omitempty"`
	Priority          string         `db:"priority" json:"priority"`
	Status            Status         `db:"status" json:"status"`
	Category          string         `db:"-" json:"category"`
	DoctorName        *string        `db:"doctor_name" json:"doctorName,omitempty"`
	AssignedAt        *time.Time     `db:"assigned_at" json:"assignedAt,omitempty"`
	ReportFinalizedAt *time.Time     `db:"report_finalized_at" json:"reportFinalizedAt,omitempty"`
	CreatedAt         time.Time      `db:"created_at" json:"createdAt"`
	CalculatedTAT     *CalculatedTAT `db:"calculated_tat" json:"calculatedTat,omitempty"`
}

// StatusCount is one bucket of the worklist summary.
type StatusCount struct {
	Status Status `db:"status" json:"status"`
	Count  int    `db:"count" json:"count"`
}

// TATAverages aggregates the persisted TAT snapshots over a filtered
// study set. Averages are minutes; nil when no study in the set has
// the interval populated.
type TATAverages struct {
	StudyCount                int      `db:"study_count" json:"studyCount"`
	ReportedCount             int      `db:"reported_count" json:"reportedCount"`
	AvgUploadToAssignmentMins *float64 `db:"avg_upload_to_assignment" json:"avgUploadToAssignmentMinutes"`
	AvgAssignmentToReportMins *float64 `db:"avg_assignment_to_report" json:"avgAssignmentToReportMinutes"`
	AvgUploadToReportMins     *float64 `db:"avg_upload_to_report" json:"avgUploadToReportMinutes"`
	AvgStudyToReportMins      *float64 `db:"avg_study_to_report" json:"avgStudyToReportMinutes"`
}
