package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/radpulse/radpulse-api/internal/dto"
	"github.com/radpulse/radpulse-api/internal/models"
	"github.com/radpulse/radpulse-api/internal/tat"
	"github.com/radpulse/radpulse-api/pkg/config"
	appErrors "github.com/radpulse/radpulse-api/pkg/errors"
)

func activeDoctor() *models.DoctorWithUser {
	return &models.DoctorWithUser{
		Doctor: models.Doctor{
			ID:       "doc-1",
			UserID:   "doc-user-1",
			FullName: "Dr. Watson",
		},
		UserIsActive: true,
	}
}

func newAssignmentService(unit *fakeUnit, doctors *fakeDoctorReader) (*AssignmentService, *fakeRunner) {
	runner := &fakeRunner{unit: unit}
	cfg := config.AssignmentConfig{DueWindow: 24 * time.Hour, DefaultPriority: "NORMAL"}
	svc := NewAssignmentService(runner, doctors, tat.NewAt(func() time.Time { return testTime }), nil, nil, cfg, zap.NewNop())
	svc.now = func() time.Time { return testTime }
	seq := 0
	svc.newID = func() string {
		seq++
		return fmt.Sprintf("assign-id-%d", seq)
	}
	return svc, runner
}

func TestAssignTransitionsAndRecordsAssignment(t *testing.T) {
	unit := newFakeUnit(testStudy(models.StatusPendingAssignment))
	doctors := &fakeDoctorReader{doctors: map[string]*models.DoctorWithUser{"doc-1": activeDoctor()}}
	svc, _ := newAssignmentService(unit, doctors)

	actor := Actor{UserID: "admin-1", Role: models.RoleAdmin}
	study, err := svc.Assign(context.Background(), "study-1", dto.AssignRequest{DoctorID: "doc-1"}, actor)
	require.NoError(t, err)

	assert.Equal(t, models.StatusAssigned, study.Status)
	require.NotNil(t, study.CurrentDoctorID)
	assert.Equal(t, "doc-1", *study.CurrentDoctorID)
	require.NotNil(t, study.AssignedAt)
	assert.Equal(t, testTime, *study.AssignedAt)
	require.NotNil(t, study.ReportDueAt)
	assert.Equal(t, testTime.Add(24*time.Hour), *study.ReportDueAt)

	require.Len(t, unit.assignments, 1)
	assert.Equal(t, "doc-1", unit.assignments[0].DoctorID)
	assert.Equal(t, "admin-1", unit.assignments[0].AssignedBy)
	assert.Equal(t, 1, unit.bumpAssigned["doc-1"])

	require.Len(t, unit.history, 1)
	assert.Equal(t, models.StatusAssigned, unit.history[0].ToStatus)

	require.NotNil(t, study.CalculatedTAT)
	require.NotNil(t, study.CalculatedTAT.UploadToAssignmentMinutes)
	assert.Equal(t, int64(120), *study.CalculatedTAT.UploadToAssignmentMinutes)
}

func TestAssignInactiveDoctorRejectedBeforeTransaction(t *testing.T) {
	inactive := activeDoctor()
	inactive.UserIsActive = false
	doctors := &fakeDoctorReader{doctors: map[string]*models.DoctorWithUser{"doc-1": inactive}}
	svc, runner := newAssignmentService(newFakeUnit(testStudy(models.StatusPendingAssignment)), doctors)

	_, err := svc.Assign(context.Background(), "study-1", dto.AssignRequest{DoctorID: "doc-1"}, Actor{UserID: "admin-1", Role: models.RoleAdmin})
	assert.ErrorIs(t, err, appErrors.ErrDoctorInactive)
	assert.Zero(t, runner.runs)
}

func TestAssignUnknownDoctor(t *testing.T) {
	doctors := &fakeDoctorReader{doctors: map[string]*models.DoctorWithUser{}}
	svc, runner := newAssignmentService(newFakeUnit(testStudy(models.StatusPendingAssignment)), doctors)

	_, err := svc.Assign(context.Background(), "study-1", dto.AssignRequest{DoctorID: "ghost"}, Actor{UserID: "admin-1", Role: models.RoleAdmin})
	assert.ErrorIs(t, err, appErrors.ErrDoctorInactive)
	assert.Zero(t, runner.runs)
}

func TestAssignVersionMismatch(t *testing.T) {
	unit := newFakeUnit(testStudy(models.StatusPendingAssignment))
	doctors := &fakeDoctorReader{doctors: map[string]*models.DoctorWithUser{"doc-1": activeDoctor()}}
	svc, _ := newAssignmentService(unit, doctors)

	stale := int64(1)
	_, err := svc.Assign(context.Background(), "study-1", dto.AssignRequest{DoctorID: "doc-1", ExpectedVersion: &stale}, Actor{UserID: "admin-1", Role: models.RoleAdmin})
	assert.ErrorIs(t, err, appErrors.ErrConcurrentModification)
	assert.Empty(t, unit.assignments)
}

func TestReassignmentKeepsReportingStatus(t *testing.T) {
	study := testStudy(models.StatusReportInProgress)
	previousID := "doc-0"
	previousName := "Dr. Before"
	study.CurrentDoctorID = &previousID
	study.CurrentDoctorName = &previousName

	unit := newFakeUnit(study)
	doctors := &fakeDoctorReader{doctors: map[string]*models.DoctorWithUser{"doc-1": activeDoctor()}}
	svc, _ := newAssignmentService(unit, doctors)

	updated, err := svc.Assign(context.Background(), "study-1", dto.AssignRequest{DoctorID: "doc-1"}, Actor{UserID: "admin-1", Role: models.RoleAdmin})
	require.NoError(t, err)

	assert.Equal(t, models.StatusReportInProgress, updated.Status)
	assert.Equal(t, "doc-1", *updated.CurrentDoctorID)
	assert.Equal(t, 1, unit.released)
	assert.Equal(t, -1, unit.bumpAssigned["doc-0"])
	assert.Equal(t, 1, unit.bumpAssigned["doc-1"])
	require.Len(t, unit.assignments, 1)
	assert.Empty(t, unit.history, "reassignment keeps status, no transition recorded")
}

func TestAssignForeignLabStaffForbidden(t *testing.T) {
	unit := newFakeUnit(testStudy(models.StatusPendingAssignment))
	doctors := &fakeDoctorReader{doctors: map[string]*models.DoctorWithUser{"doc-1": activeDoctor()}}
	svc, _ := newAssignmentService(unit, doctors)

	otherLab := "lab-2"
	actor := Actor{UserID: "staff-1", Role: models.RoleLabStaff, LabID: &otherLab}
	_, err := svc.Assign(context.Background(), "study-1", dto.AssignRequest{DoctorID: "doc-1"}, actor)
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
	assert.Empty(t, unit.assignments)
}

func TestAssignCompletedStudyRejected(t *testing.T) {
	unit := newFakeUnit(testStudy(models.StatusFinalDownloaded))
	doctors := &fakeDoctorReader{doctors: map[string]*models.DoctorWithUser{"doc-1": activeDoctor()}}
	svc, _ := newAssignmentService(unit, doctors)

	_, err := svc.Assign(context.Background(), "study-1", dto.AssignRequest{DoctorID: "doc-1"}, Actor{UserID: "admin-1", Role: models.RoleAdmin})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErrors.FromError(err).Code)
	assert.Empty(t, unit.assignments)
}

func TestAssignOverridesPriority(t *testing.T) {
	unit := newFakeUnit(testStudy(models.StatusReceived))
	doctors := &fakeDoctorReader{doctors: map[string]*models.DoctorWithUser{"doc-1": activeDoctor()}}
	svc, _ := newAssignmentService(unit, doctors)

	stat := "STAT"
	updated, err := svc.Assign(context.Background(), "study-1", dto.AssignRequest{DoctorID: "doc-1", Priority: &stat}, Actor{UserID: "admin-1", Role: models.RoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, "STAT", updated.Priority)
}

func TestUnassignReturnsStudyToPool(t *testing.T) {
	study := testStudy(models.StatusAssigned)
	doctorID := "doc-1"
	study.CurrentDoctorID = &doctorID
	assigned := testTime.Add(-time.Hour)
	study.AssignedAt = &assigned

	unit := newFakeUnit(study)
	svc, _ := newAssignmentService(unit, &fakeDoctorReader{})

	note := "wrong subspecialty"
	updated, err := svc.Unassign(context.Background(), "study-1", dto.UnassignRequest{Note: &note}, Actor{UserID: "admin-1", Role: models.RoleAdmin})
	require.NoError(t, err)

	assert.Equal(t, models.StatusPendingAssignment, updated.Status)
	assert.Nil(t, updated.CurrentDoctorID)
	assert.Equal(t, 1, unit.released)
	assert.Equal(t, -1, unit.bumpAssigned["doc-1"])
	require.Len(t, unit.history, 1)
	require.NotNil(t, unit.history[0].Note)
	assert.Equal(t, note, *unit.history[0].Note)
}

func TestUnassignWithoutDoctor(t *testing.T) {
	unit := newFakeUnit(testStudy(models.StatusPendingAssignment))
	svc, _ := newAssignmentService(unit, &fakeDoctorReader{})

	_, err := svc.Unassign(context.Background(), "study-1", dto.UnassignRequest{}, Actor{UserID: "admin-1", Role: models.RoleAdmin})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestUnassignMidReportRejected(t *testing.T) {
	study := testStudy(models.StatusReportInProgress)
	doctorID := "doc-1"
	study.CurrentDoctorID = &doctorID

	unit := newFakeUnit(study)
	svc, _ := newAssignmentService(unit, &fakeDoctorReader{})

	_, err := svc.Unassign(context.Background(), "study-1", dto.UnassignRequest{}, Actor{UserID: "admin-1", Role: models.RoleAdmin})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErrors.FromError(err).Code)
	assert.Zero(t, unit.released)
}
