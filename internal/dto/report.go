package dto

// TATReportQuery filters the turnaround-time aggregate report.
type TATReportQuery struct {
	LabID    string `form:"labId" binding:"omitempty,uuid"`
	DoctorID string `form:"doctorId" binding:"omitempty,uuid"`
	Modality string `form:"modality"`
	DateType string `form:"dateType" binding:"omitempty,oneof=studyDate createdAt"`
	From     string `form:"from" binding:"omitempty,datetime=2006-01-02"`
	To       string `form:"to" binding:"omitempty,datetime=2006-01-02"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PerPage  int    `form:"perPage" binding:"omitempty,min=1"`
}

// TATExportQuery adds the output format to the report filter.
type TATExportQuery struct {
	TATReportQuery
	Format string `form:"format" binding:"omitempty,oneof=csv pdf"`
}
