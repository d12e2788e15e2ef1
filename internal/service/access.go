package service

import (
	"context"

	"github.com/radpulse/radpulse-api/internal/models"
	appErrors "github.com/radpulse/radpulse-api/pkg/errors"
)

// AssignmentHistory resolves past assignments for access decisions.
type AssignmentHistory interface {
	GetAssignments(ctx context.Context, studyID string) ([]models.StudyAssignment, error)
}

// studyAccess verifies the scope covers a study before an ID-addressed
// read or mutation. Lab staff are pinned to their lab; doctor accounts
// to studies they hold or once held an assignment for. A nil history
// limits doctors to the current assignment.
func studyAccess(ctx context.Context, history AssignmentHistory, study *models.Study, scope models.AccessScope) error {
	if scope.Unrestricted() {
		return nil
	}

	switch scope.Role {
	case models.RoleLabStaff:
		if scope.LabID != nil && *scope.LabID == study.LabID {
			return nil
		}
	case models.RoleDoctor:
		if scope.DoctorID == nil {
			break
		}
		if study.CurrentDoctorID != nil && *study.CurrentDoctorID == *scope.DoctorID {
			return nil
		}
		if history != nil {
			assignments, err := history.GetAssignments(ctx, study.ID)
			if err != nil {
				return err
			}
			for _, a := range assignments {
				if a.DoctorID == *scope.DoctorID {
					return nil
				}
			}
		}
	}
	return appErrors.ErrForbidden
}
