package dto

// TransitionRequest drives a study to a new workflow status.
type TransitionRequest struct {
	ToStatus string  `json:"toStatus" binding:"required"`
	Note     *string `json:"note,omitempty"`
}

// AssignRequest assigns or reassigns a study to a doctor. When
// ExpectedVersion is set, the assignment fails if the study has been
// modified since the caller last read it.
type AssignRequest struct {
	DoctorID        string  `json:"doctorId" binding:"required,uuid"`
	Priority        *string `json:"priority,omitempty" binding:"omitempty,oneof=STAT URGENT NORMAL"`
	ExpectedVersion *int64  `json:"expectedVersion,omitempty"`
}

// UnassignRequest releases a study back to the pending pool.
type UnassignRequest struct {
	Note            *string `json:"note,omitempty"`
	ExpectedVersion *int64  `json:"expectedVersion,omitempty"`
}

// CreateStudyRequest registers an uploaded study.
type CreateStudyRequest struct {
	LabID       string  `json:"labId" binding:"required,uuid"`
	PatientID   string  `json:"patientId" binding:"required,uuid"`
	AccessionNo string  `json:"accessionNo" binding:"required"`
	Modality    string  `json:"modality" binding:"required"`
	StudyDesc   *string `json:"studyDesc,omitempty"`
	StudyDate   *string `json:"studyDate,omitempty" binding:"omitempty,dicomdate"`
	StudyTime   *string `json:"studyTime,omitempty" binding:"omitempty,dicomtime"`
	Priority    *string `json:"priority,omitempty" binding:"omitempty,oneof=STAT URGENT NORMAL"`
}

// WorklistQuery filters the study worklist. DateType selects which
// timestamp the From/To range applies to.
type WorklistQuery struct {
	Status   string `form:"status"`
	Category string `form:"category" binding:"omitempty,oneof=pending inprogress completed"`
	Modality string `form:"modality"`
	LabID    string `form:"labId" binding:"omitempty,uuid"`
	DoctorID string `form:"doctorId" binding:"omitempty,uuid"`
	DateType string `form:"dateType" binding:"omitempty,oneof=studyDate createdAt assignedAt reportedAt"`
	From     string `form:"from" binding:"omitempty,datetime=2006-01-02"`
	To       string `form:"to" binding:"omitempty,datetime=2006-01-02"`
	Search   string `form:"search"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PerPage  int    `form:"perPage" binding:"omitempty,min=1"`
}
