package models

import "time"

// Doctor is a reporting radiologist profile. Workload counters are
// denormalized so assignment screens can sort by load without
// aggregating the assignment history.
type Doctor struct {
	ID             string    `db:"id" json:"id"`
	UserID         string    `db:"user_id" json:"userId"`
	FullName       string    `db:"full_name" json:"fullName"`
	Specialization *string   `db:"specialization" json:"specialization,omitempty"`
	LicenseNumber  *string   `db:"license_number" json:"licenseNumber,omitempty"`
	AssignedCount  int       `db:"assigned_count" json:"assignedCount"`
	CompletedCount int       `db:"completed_count" json:"completedCount"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time `db:"updated_at" json:"updatedAt"`
}

// DoctorWithUser joins the profile with account state for the
// active-doctor precondition on assignment.
type DoctorWithUser struct {
	Doctor
	UserIsActive bool   `db:"user_is_active" json:"userIsActive"`
	UserEmail    string `db:"user_email" json:"userEmail"`
}
