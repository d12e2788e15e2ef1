package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/radpulse/radpulse-api/internal/dto"
	"github.com/radpulse/radpulse-api/internal/models"
	"github.com/radpulse/radpulse-api/internal/repository"
	"github.com/radpulse/radpulse-api/internal/tat"
	"github.com/radpulse/radpulse-api/pkg/config"
	appErrors "github.com/radpulse/radpulse-api/pkg/errors"
)

// DoctorReader resolves doctor profiles with their account state.
type DoctorReader interface {
	GetWithUser(ctx context.Context, doctorID string) (*models.DoctorWithUser, error)
}

// AssignmentService binds studies to reporting doctors. An assignment
// is one transaction covering the assignment append, the denormalized
// current columns, the workflow transition, workload counters, the
// patient pointer and the TAT refresh.
type AssignmentService struct {
	units   repository.StudyUnitRunner
	doctors DoctorReader
	calc    *tat.Calculator
	cache   *CacheService
	metrics *MetricsService
	cfg     config.AssignmentConfig
	logger  *zap.Logger
	now     func() time.Time
	newID   func() string
}

func NewAssignmentService(units repository.StudyUnitRunner, doctors DoctorReader, calc *tat.Calculator, cache *CacheService, metrics *MetricsService, cfg config.AssignmentConfig, logger *zap.Logger) *AssignmentService {
	return &AssignmentService{
		units:   units,
		doctors: doctors,
		calc:    calc,
		cache:   cache,
		metrics: metrics,
		cfg:     cfg,
		logger:  logger,
		now:     time.Now,
		newID:   func() string { return uuid.NewString() },
	}
}

// Assign hands a study to a doctor. Assigning an unassigned study
// transitions it to assigned; assigning an already assigned study is a
// reassignment that releases the previous doctor and keeps the current
// reporting status. The doctor must resolve to an active account.
func (s *AssignmentService) Assign(ctx context.Context, studyID string, req dto.AssignRequest, actor Actor) (*models.Study, error) {
	doctor, err := s.doctors.GetWithUser(ctx, req.DoctorID)
	if err != nil {
		if appErrors.FromError(err).Code == appErrors.ErrNotFound.Code {
			return nil, appErrors.ErrDoctorInactive
		}
		return nil, err
	}
	if !doctor.UserIsActive {
		return nil, appErrors.ErrDoctorInactive
	}

	var result *models.Study
	reassignment := false

	err = s.units.Run(ctx, func(unit repository.StudyUnit) error {
		study, err := unit.StudyForUpdate(ctx, studyID)
		if err != nil {
			return err
		}
		if err := studyAccess(ctx, nil, study, actor.Scope()); err != nil {
			return err
		}
		if req.ExpectedVersion != nil && *req.ExpectedVersion != study.Version {
			return appErrors.ErrConcurrentModification
		}

		version := study.Version
		from := study.Status
		now := s.now()

		switch {
		case models.CanTransition(study.Status, models.StatusAssigned):
			study.Status = models.StatusAssigned
		case models.CategoryOf(study.Status) == models.CategoryInProgress:
			// Reassignment mid-report keeps the reporting status.
			reassignment = true
		default:
			return appErrors.Clone(appErrors.ErrInvalidTransition,
				"cannot assign a study in status "+string(study.Status))
		}

		if study.CurrentDoctorID != nil {
			if err := unit.ReleaseAssignment(ctx, study.ID, nil); err != nil {
				return err
			}
			if err := unit.BumpDoctorAssigned(ctx, *study.CurrentDoctorID, -1); err != nil {
				return err
			}
		}

		due := now.Add(s.cfg.DueWindow)
		assignment := &models.StudyAssignment{
			ID:         s.newID(),
			StudyID:    study.ID,
			DoctorID:   doctor.ID,
			DoctorName: doctor.FullName,
			AssignedBy: actor.UserID,
			AssignedAt: now,
			DueAt:      due,
		}
		if err := unit.AppendAssignment(ctx, assignment); err != nil {
			return err
		}
		if err := unit.BumpDoctorAssigned(ctx, doctor.ID, 1); err != nil {
			return err
		}

		doctorID := doctor.ID
		doctorName := doctor.FullName
		study.CurrentDoctorID = &doctorID
		study.CurrentDoctorName = &doctorName
		study.AssignedAt = &now
		study.ReportDueAt = &due
		if req.Priority != nil && *req.Priority != "" {
			study.Priority = *req.Priority
		}

		snapshot := s.calc.Compute(study)
		study.CalculatedTAT = &snapshot

		if err := unit.UpdateStudy(ctx, study, version); err != nil {
			return err
		}
		if study.Status != from {
			if err := unit.AppendStatusHistory(ctx, &models.StatusHistoryEntry{
				ID:         s.newID(),
				StudyID:    study.ID,
				FromStatus: &from,
				ToStatus:   study.Status,
				ActorID:    &actor.UserID,
				CreatedAt:  now,
			}); err != nil {
				return err
			}
		}
		if err := unit.UpdatePatientPointer(ctx, study.PatientID, study.ID, study.Status); err != nil {
			return err
		}

		result = study
		return nil
	})
	if err != nil {
		return nil, err
	}

	kind := "assign"
	if reassignment {
		kind = "reassign"
	}
	s.metrics.Assignment(kind)
	s.invalidate(ctx, result)
	s.logger.Info("study assigned",
		zap.String("study_id", studyID),
		zap.String("doctor_id", doctor.ID),
		zap.Bool("reassignment", reassignment),
		zap.String("actor_id", actor.UserID),
	)
	return result, nil
}

// Unassign releases a study back to the pending pool. Only studies
// sitting in assigned can be released; once reporting started the
// study must be reassigned instead.
func (s *AssignmentService) Unassign(ctx context.Context, studyID string, req dto.UnassignRequest, actor Actor) (*models.Study, error) {
	var result *models.Study

	err := s.units.Run(ctx, func(unit repository.StudyUnit) error {
		study, err := unit.StudyForUpdate(ctx, studyID)
		if err != nil {
			return err
		}
		if err := studyAccess(ctx, nil, study, actor.Scope()); err != nil {
			return err
		}
		if req.ExpectedVersion != nil && *req.ExpectedVersion != study.Version {
			return appErrors.ErrConcurrentModification
		}
		if study.CurrentDoctorID == nil {
			return appErrors.Clone(appErrors.ErrConflict, "study has no doctor assigned")
		}
		if !models.CanTransition(study.Status, models.StatusPendingAssignment) {
			return appErrors.Clone(appErrors.ErrInvalidTransition,
				"cannot unassign a study in status "+string(study.Status))
		}

		version := study.Version
		from := study.Status
		now := s.now()

		if err := unit.ReleaseAssignment(ctx, study.ID, req.Note); err != nil {
			return err
		}
		if err := unit.BumpDoctorAssigned(ctx, *study.CurrentDoctorID, -1); err != nil {
			return err
		}

		study.Status = models.StatusPendingAssignment
		study.CurrentDoctorID = nil
		study.CurrentDoctorName = nil
		study.AssignedAt = nil
		study.ReportDueAt = nil

		snapshot := s.calc.Compute(study)
		study.CalculatedTAT = &snapshot

		if err := unit.UpdateStudy(ctx, study, version); err != nil {
			return err
		}
		if err := unit.AppendStatusHistory(ctx, &models.StatusHistoryEntry{
			ID:         s.newID(),
			StudyID:    study.ID,
			FromStatus: &from,
			ToStatus:   study.Status,
			ActorID:    &actor.UserID,
			Note:       req.Note,
			CreatedAt:  now,
		}); err != nil {
			return err
		}
		if err := unit.UpdatePatientPointer(ctx, study.PatientID, study.ID, study.Status); err != nil {
			return err
		}

		result = study
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.Assignment("unassign")
	s.invalidate(ctx, result)
	s.logger.Info("study unassigned",
		zap.String("study_id", studyID),
		zap.String("actor_id", actor.UserID),
	)
	return result, nil
}

func (s *AssignmentService) invalidate(ctx context.Context, study *models.Study) {
	if s.cache == nil {
		return
	}
	s.cache.InvalidateWorklist(ctx, study.LabID)
}
