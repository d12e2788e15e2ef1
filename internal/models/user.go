package models

import "time"

// Role values gate API access and scope report queries.
const (
	RoleAdmin    = "admin"
	RoleLabStaff = "lab_staff"
	RoleDoctor   = "doctor_account"
)

// User is an authenticated account. Lab staff carry a LabID, doctor
// accounts carry a DoctorID linking to their profile row.
type User struct {
	ID           string     `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	FullName     string     `db:"full_name" json:"fullName"`
	Role         string     `db:"role" json:"role"`
	LabID        *string    `db:"lab_id" json:"labId,omitempty"`
	DoctorID     *string    `db:"doctor_id" json:"doctorId,omitempty"`
	IsActive     bool       `db:"is_active" json:"isActive"`
	LastLoginAt  *time.Time `db:"last_login_at" json:"lastLoginAt,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updatedAt"`
}

// ValidRole reports whether the role is one of the known account roles.
func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleLabStaff, RoleDoctor:
		return true
	}
	return false
}
