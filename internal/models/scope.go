package models

// AccessScope narrows queries to the rows a caller may see. Admins get
// an unrestricted scope, lab staff are pinned to their lab, and doctor
// accounts to studies they were assigned or uploaded documents for.
type AccessScope struct {
	Role     string
	UserID   string
	LabID    *string
	DoctorID *string
}

// ScopeFor derives the query scope from an authenticated user.
func ScopeFor(u *User) AccessScope {
	scope := AccessScope{Role: u.Role, UserID: u.ID}
	switch u.Role {
	case RoleLabStaff:
		scope.LabID = u.LabID
	case RoleDoctor:
		scope.DoctorID = u.DoctorID
	}
	return scope
}

// Unrestricted reports whether the scope imposes no row filter.
func (s AccessScope) Unrestricted() bool {
	return s.Role == RoleAdmin
}
