package models

import "time"

// Patient is the subject of one or more studies. The workflow columns
// mirror the most recent study so patient lists can render workflow
// state without a join.
type Patient struct {
	ID              string     `db:"id" json:"id"`
	LabID           string     `db:"lab_id" json:"labId"`
	PatientCode     string     `db:"patient_code" json:"patientCode"`
	FullName        string     `db:"full_name" json:"fullName"`
	Gender          *string    `db:"gender" json:"gender,omitempty"`
	AgeGroup        *string    `db:"age_group" json:"ageGroup,omitempty"`
	ContactNumber   *string    `db:"contact_number" json:"contactNumber,omitempty"`
	CurrentStudyID  *string    `db:"current_study_id" json:"currentStudyId,omitempty"`
	CurrentStatus   *string    `db:"current_status" json:"currentStatus,omitempty"`
	StatusChangedAt *time.Time `db:"status_changed_at" json:"statusChangedAt,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updatedAt"`
}
