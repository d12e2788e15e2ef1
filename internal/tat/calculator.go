package tat

import (
	"time"

	"github.com/radpulse/radpulse-api/internal/models"
)

// OverdueThresholdMinutes is the reporting deadline measured from
// study upload. Studies past it without a finalized report, and
// reports that took longer, are flagged overdue.
const OverdueThresholdMinutes = 24 * 60

// Calculator derives turnaround-time snapshots from study milestones.
// The zero value is not usable; construct with New.
type Calculator struct {
	now func() time.Time
}

func New() *Calculator {
	return &Calculator{now: time.Now}
}

// NewAt builds a calculator with a fixed clock for tests.
func NewAt(now func() time.Time) *Calculator {
	return &Calculator{now: now}
}

// Compute builds the TAT snapshot for a study from its milestone
// timestamps. Clock-skewed milestone pairs (end before start) yield a
// nil interval and set the anomaly flag instead of a negative value.
func (c *Calculator) Compute(study *models.Study) models.CalculatedTAT {
	now := c.now()
	anomaly := false

	measure := func(start, end *time.Time) *int64 {
		m, ok := minutesBetween(start, end)
		if !ok {
			anomaly = true
		}
		return m
	}

	created := study.CreatedAt
	snapshot := models.CalculatedTAT{
		UploadToAssignmentMinutes: measure(&created, study.AssignedAt),
		AssignmentToReportMinutes: measure(study.AssignedAt, study.ReportFinalizedAt),
		UploadToReportMinutes:     measure(&created, study.ReportFinalizedAt),
		CalculatedAt:              now,
	}

	if study.StudyDate != nil {
		performedAt := ParseStudyDate(*study.StudyDate, deref(study.StudyTime))
		snapshot.StudyToUploadMinutes = measure(performedAt, &created)
		snapshot.StudyToReportMinutes = measure(performedAt, study.ReportFinalizedAt)
	}

	// Total runs from upload to the final report, or to now while the
	// study is still in flight.
	end := study.ReportFinalizedAt
	if end == nil {
		end = &now
	}
	snapshot.TotalMinutes = measure(&created, end)
	if snapshot.TotalMinutes != nil {
		days := *snapshot.TotalMinutes / (24 * 60)
		snapshot.TotalDays = &days
	}

	snapshot.StudyToUpload = FormatMinutes(snapshot.StudyToUploadMinutes)
	snapshot.UploadToAssignment = FormatMinutes(snapshot.UploadToAssignmentMinutes)
	snapshot.AssignmentToReport = FormatMinutes(snapshot.AssignmentToReportMinutes)
	snapshot.UploadToReport = FormatMinutes(snapshot.UploadToReportMinutes)
	snapshot.StudyToReport = FormatMinutes(snapshot.StudyToReportMinutes)
	snapshot.Total = FormatMinutes(snapshot.TotalMinutes)

	snapshot.Phase = models.CategoryOf(study.Status)
	snapshot.IsCompleted = study.ReportFinalizedAt != nil
	snapshot.Anomaly = anomaly

	if snapshot.IsCompleted {
		snapshot.IsOverdue = snapshot.UploadToReportMinutes != nil &&
			*snapshot.UploadToReportMinutes > OverdueThresholdMinutes
	} else {
		elapsed := int64(now.Sub(created) / time.Minute)
		snapshot.IsOverdue = elapsed > OverdueThresholdMinutes
	}

	return snapshot
}

// minutesBetween returns the whole-minute duration between two
// milestones. Returns (nil, true) when either side is missing, and
// (nil, false) when the pair is present but skewed.
func minutesBetween(start, end *time.Time) (*int64, bool) {
	if start == nil || end == nil {
		return nil, true
	}
	if end.Before(*start) {
		return nil, false
	}
	m := int64(end.Sub(*start) / time.Minute)
	return &m, true
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
