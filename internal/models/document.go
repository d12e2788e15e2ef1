package models

import "time"

// Document types. Reports drive the workflow; the rest are supporting
// material attached to a study.
const (
	DocumentTypeReport     = "report"
	DocumentTypeClinical   = "clinical"
	DocumentTypeConsent    = "consent"
	DocumentTypeAttachment = "attachment"
)

// Document is a stored artifact attached to a study. StorageKey is the
// object key in the blob store.
type Document struct {
	ID          string    `db:"id" json:"id"`
	StudyID     string    `db:"study_id" json:"studyId"`
	Type        string    `db:"doc_type" json:"type"`
	FileName    string    `db:"file_name" json:"fileName"`
	ContentType string    `db:"content_type" json:"contentType"`
	SizeBytes   int64     `db:"size_bytes" json:"sizeBytes"`
	StorageKey  string    `db:"storage_key" json:"-"`
	UploadedBy  string    `db:"uploaded_by" json:"uploadedBy"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}

// ValidDocumentType reports whether the value names a known type.
func ValidDocumentType(t string) bool {
	switch t {
	case DocumentTypeReport, DocumentTypeClinical, DocumentTypeConsent, DocumentTypeAttachment:
		return true
	}
	return false
}
