package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/radpulse/radpulse-api/internal/models"
	appErrors "github.com/radpulse/radpulse-api/pkg/errors"
)

// LabReader resolves imaging labs.
type LabReader interface {
	GetByID(ctx context.Context, labID string) (*models.Lab, error)
	List(ctx context.Context) ([]models.Lab, error)
}

// DoctorLister returns the doctor roster with account state.
type DoctorLister interface {
	List(ctx context.Context) ([]models.DoctorWithUser, error)
}

// PatientReader resolves patients.
type PatientReader interface {
	GetByID(ctx context.Context, patientID string) (*models.Patient, error)
}

// PatientDetail bundles a patient with its lab for the detail view.
type PatientDetail struct {
	Patient *models.Patient `json:"patient"`
	Lab     *models.Lab     `json:"lab,omitempty"`
}

// DirectoryService serves the reference listings behind the assignment
// and filtering UIs: labs, the doctor roster ordered by open workload,
// and patient detail.
type DirectoryService struct {
	labs     LabReader
	doctors  DoctorLister
	patients PatientReader
	logger   *zap.Logger
}

func NewDirectoryService(labs LabReader, doctors DoctorLister, patients PatientReader, logger *zap.Logger) *DirectoryService {
	return &DirectoryService{labs: labs, doctors: doctors, patients: patients, logger: logger}
}

// Labs lists every registered lab.
func (s *DirectoryService) Labs(ctx context.Context) ([]models.Lab, error) {
	return s.labs.List(ctx)
}

// Doctors lists the roster, least-loaded first.
func (s *DirectoryService) Doctors(ctx context.Context) ([]models.DoctorWithUser, error) {
	return s.doctors.List(ctx)
}

// Patient fetches a patient with its lab. Lab staff only see patients
// of their own lab.
func (s *DirectoryService) Patient(ctx context.Context, patientID string, scope models.AccessScope) (*PatientDetail, error) {
	patient, err := s.patients.GetByID(ctx, patientID)
	if err != nil {
		return nil, err
	}
	if scope.Role == models.RoleLabStaff && (scope.LabID == nil || *scope.LabID != patient.LabID) {
		return nil, appErrors.ErrForbidden
	}

	detail := &PatientDetail{Patient: patient}
	if lab, err := s.labs.GetByID(ctx, patient.LabID); err == nil {
		detail.Lab = lab
	} else {
		s.logger.Warn("failed to resolve patient lab", zap.String("lab_id", patient.LabID), zap.Error(err))
	}
	return detail, nil
}
