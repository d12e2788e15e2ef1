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
	appErrors "github.com/radpulse/radpulse-api/pkg/errors"
)

// Actor identifies who is driving a workflow mutation.
type Actor struct {
	UserID   string
	Name     string
	Role     string
	LabID    *string
	DoctorID *string
}

// Scope derives the row-visibility scope for the actor.
func (a Actor) Scope() models.AccessScope {
	return models.AccessScope{Role: a.Role, UserID: a.UserID, LabID: a.LabID, DoctorID: a.DoctorID}
}

// StudyReader is the read-only study access the workflow service needs.
type StudyReader interface {
	GetByID(ctx context.Context, studyID string) (*models.Study, error)
	GetStatusHistory(ctx context.Context, studyID string) ([]models.StatusHistoryEntry, error)
	GetAssignments(ctx context.Context, studyID string) ([]models.StudyAssignment, error)
}

// StudyCreator persists newly uploaded studies.
type StudyCreator interface {
	Create(ctx context.Context, study *models.Study) error
}

// StudyDetail bundles a study with its audit trail.
type StudyDetail struct {
	Study       *models.Study               `json:"study"`
	History     []models.StatusHistoryEntry `json:"history"`
	Assignments []models.StudyAssignment    `json:"assignments"`
}

// WorkflowService drives studies through the reporting workflow. Every
// transition, its history entry, its milestone timestamps and the
// recomputed turnaround times commit atomically.
type WorkflowService struct {
	units   repository.StudyUnitRunner
	studies StudyReader
	creator StudyCreator
	calc    *tat.Calculator
	cache   *CacheService
	metrics *MetricsService
	logger  *zap.Logger
	now     func() time.Time
	newID   func() string
}

func NewWorkflowService(units repository.StudyUnitRunner, studies StudyReader, creator StudyCreator, calc *tat.Calculator, cache *CacheService, metrics *MetricsService, logger *zap.Logger) *WorkflowService {
	return &WorkflowService{
		units:   units,
		studies: studies,
		creator: creator,
		calc:    calc,
		cache:   cache,
		metrics: metrics,
		logger:  logger,
		now:     time.Now,
		newID:   func() string { return uuid.NewString() },
	}
}

// Register records a freshly uploaded study in its initial status.
// Lab staff can only register studies into their own lab.
func (s *WorkflowService) Register(ctx context.Context, req dto.CreateStudyRequest, actor Actor) (*models.Study, error) {
	if actor.Role == models.RoleLabStaff && (actor.LabID == nil || *actor.LabID != req.LabID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "cannot register a study for another lab")
	}

	now := s.now()
	priority := "NORMAL"
	if req.Priority != nil && *req.Priority != "" {
		priority = *req.Priority
	}

	study := &models.Study{
		ID:          s.newID(),
		LabID:       req.LabID,
		PatientID:   req.PatientID,
		AccessionNo: req.AccessionNo,
		Modality:    req.Modality,
		StudyDesc:   req.StudyDesc,
		StudyDate:   req.StudyDate,
		StudyTime:   req.StudyTime,
		Priority:    priority,
		Status:      models.StatusReceived,
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	snapshot := s.calc.Compute(study)
	study.CalculatedTAT = &snapshot

	if err := s.creator.Create(ctx, study); err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.InvalidateWorklist(ctx, study.LabID)
	}
	s.metrics.Transition("", string(models.StatusReceived))
	s.logger.Info("study registered",
		zap.String("study_id", study.ID),
		zap.String("lab_id", study.LabID),
		zap.String("actor_id", actor.UserID),
	)
	return study, nil
}

// Get returns a study with its status and assignment history. The
// scope must cover the study's lab or assignee.
func (s *WorkflowService) Get(ctx context.Context, studyID string, scope models.AccessScope) (*StudyDetail, error) {
	study, err := s.studies.GetByID(ctx, studyID)
	if err != nil {
		return nil, err
	}
	if err := studyAccess(ctx, s.studies, study, scope); err != nil {
		return nil, err
	}
	history, err := s.studies.GetStatusHistory(ctx, studyID)
	if err != nil {
		return nil, err
	}
	assignments, err := s.studies.GetAssignments(ctx, studyID)
	if err != nil {
		return nil, err
	}
	return &StudyDetail{Study: study, History: history, Assignments: assignments}, nil
}

// History returns the audit trail oldest first.
func (s *WorkflowService) History(ctx context.Context, studyID string, scope models.AccessScope) ([]models.StatusHistoryEntry, error) {
	study, err := s.studies.GetByID(ctx, studyID)
	if err != nil {
		return nil, err
	}
	if err := studyAccess(ctx, s.studies, study, scope); err != nil {
		return nil, err
	}
	return s.studies.GetStatusHistory(ctx, studyID)
}

// Transition moves a study to a new workflow status. Moving to the
// current status is an idempotent no-op that records nothing. Moving to
// pending_assignment releases any current assignment.
func (s *WorkflowService) Transition(ctx context.Context, studyID string, to models.Status, actor Actor, note *string) (*models.Study, error) {
	if !models.ValidStatus(to) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown workflow status: "+string(to))
	}

	var result *models.Study
	var from models.Status
	noop := false

	err := s.units.Run(ctx, func(unit repository.StudyUnit) error {
		study, err := unit.StudyForUpdate(ctx, studyID)
		if err != nil {
			return err
		}
		if err := studyAccess(ctx, s.studies, study, actor.Scope()); err != nil {
			return err
		}
		from = study.Status

		if study.Status == to {
			noop = true
			result = study
			return nil
		}
		if !models.CanTransition(study.Status, to) {
			return appErrors.Clone(appErrors.ErrInvalidTransition,
				"cannot move study from "+string(study.Status)+" to "+string(to))
		}

		version := study.Version
		if err := s.applySideEffects(ctx, unit, study, to, actor); err != nil {
			return err
		}

		study.Status = to
		snapshot := s.calc.Compute(study)
		study.CalculatedTAT = &snapshot

		if err := unit.UpdateStudy(ctx, study, version); err != nil {
			return err
		}
		if err := unit.AppendStatusHistory(ctx, s.historyEntry(study.ID, &from, to, actor, note)); err != nil {
			return err
		}
		if err := unit.UpdatePatientPointer(ctx, study.PatientID, study.ID, to); err != nil {
			return err
		}

		result = study
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !noop {
		s.metrics.Transition(string(from), string(to))
		s.invalidate(ctx, result)
		s.logger.Info("study transitioned",
			zap.String("study_id", studyID),
			zap.String("from", string(from)),
			zap.String("to", string(to)),
			zap.String("actor_id", actor.UserID),
		)
	}
	return result, nil
}

// MarkDownloaded records a report download for the given role and
// drives the study to the matching download status.
func (s *WorkflowService) MarkDownloaded(ctx context.Context, studyID string, actor Actor) (*models.Study, error) {
	return s.Transition(ctx, studyID, models.TerminalDownloadStatus(actor.Role), actor, nil)
}

// applySideEffects stamps the milestone columns a status carries.
// Timestamps that feed turnaround times are set once and kept on
// re-entry, except a reopened report which clears its finalized mark.
func (s *WorkflowService) applySideEffects(ctx context.Context, unit repository.StudyUnit, study *models.Study, to models.Status, actor Actor) error {
	now := s.now()

	switch to {
	case models.StatusReportInProgress:
		if study.Status == models.StatusReportFinalized || study.Status == models.StatusReportDrafted {
			// Reopened for corrections.
			study.ReportFinalizedAt = nil
		}
		if study.ReportStartedAt == nil {
			study.ReportStartedAt = &now
		}
	case models.StatusReportDrafted:
		study.ReportDraftedAt = &now
		if study.ReporterName == nil && actor.Name != "" {
			name := actor.Name
			study.ReporterName = &name
		}
	case models.StatusReportFinalized:
		study.ReportFinalizedAt = &now
		if study.ReporterName == nil && actor.Name != "" {
			name := actor.Name
			study.ReporterName = &name
		}
		if study.CurrentDoctorID != nil {
			if err := unit.BumpDoctorCompleted(ctx, *study.CurrentDoctorID); err != nil {
				return err
			}
		}
	case models.StatusDownloadedByDoctor, models.StatusFinalDownloaded:
		study.ReportDownloadedAt = &now
	case models.StatusArchived:
		study.ArchivedAt = &now
	case models.StatusPendingAssignment:
		if study.CurrentDoctorID != nil {
			if err := unit.ReleaseAssignment(ctx, study.ID, nil); err != nil {
				return err
			}
			if err := unit.BumpDoctorAssigned(ctx, *study.CurrentDoctorID, -1); err != nil {
				return err
			}
			study.CurrentDoctorID = nil
			study.CurrentDoctorName = nil
			study.AssignedAt = nil
			study.ReportDueAt = nil
		}
	}
	return nil
}

func (s *WorkflowService) historyEntry(studyID string, from *models.Status, to models.Status, actor Actor, note *string) *models.StatusHistoryEntry {
	entry := &models.StatusHistoryEntry{
		ID:         s.newID(),
		StudyID:    studyID,
		FromStatus: from,
		ToStatus:   to,
		Note:       note,
		CreatedAt:  s.now(),
	}
	if actor.UserID != "" {
		id := actor.UserID
		entry.ActorID = &id
	}
	if actor.Name != "" {
		name := actor.Name
		entry.ActorName = &name
	}
	return entry
}

func (s *WorkflowService) invalidate(ctx context.Context, study *models.Study) {
	if s.cache == nil {
		return
	}
	s.cache.InvalidateWorklist(ctx, study.LabID)
}
