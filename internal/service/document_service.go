package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/radpulse/radpulse-api/internal/dto"
	"github.com/radpulse/radpulse-api/internal/models"
	"github.com/radpulse/radpulse-api/pkg/config"
	appErrors "github.com/radpulse/radpulse-api/pkg/errors"
	"github.com/radpulse/radpulse-api/pkg/jobs"
	"github.com/radpulse/radpulse-api/pkg/storage"
)

// DocumentStore is the database surface for document rows.
type DocumentStore interface {
	Create(ctx context.Context, doc *models.Document) error
	GetByID(ctx context.Context, documentID string) (*models.Document, error)
	ListByStudy(ctx context.Context, studyID string) ([]models.Document, error)
	LatestReport(ctx context.Context, studyID string) (*models.Document, error)
	Delete(ctx context.Context, documentID string) (bool, error)
}

// WorkflowDriver is the slice of workflow behaviour document handling
// needs.
type WorkflowDriver interface {
	Transition(ctx context.Context, studyID string, to models.Status, actor Actor, note *string) (*models.Study, error)
	MarkDownloaded(ctx context.Context, studyID string, actor Actor) (*models.Study, error)
}

// TaskQueue accepts background cleanup work.
type TaskQueue interface {
	Enqueue(task jobs.Task) bool
}

// DocumentService manages report artifacts and supporting documents.
// Uploading a report drives the study to report_uploaded; downloads
// drive the role-specific download status.
type DocumentService struct {
	docs     DocumentStore
	studies  StudyReader
	blob     storage.BlobStore
	workflow WorkflowDriver
	signer   *storage.TokenSigner
	queue    TaskQueue
	cfg      config.ShareConfig
	logger   *zap.Logger
	now      func() time.Time
	newID    func() string
}

func NewDocumentService(docs DocumentStore, studies StudyReader, blob storage.BlobStore, workflow WorkflowDriver, signer *storage.TokenSigner, queue TaskQueue, cfg config.ShareConfig, logger *zap.Logger) *DocumentService {
	return &DocumentService{
		docs:     docs,
		studies:  studies,
		blob:     blob,
		workflow: workflow,
		signer:   signer,
		queue:    queue,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
		newID:    func() string { return uuid.NewString() },
	}
}

// Upload stores an artifact and records it against the study. Report
// uploads additionally transition the study to report_uploaded, so the
// study must be in a status that permits it.
func (s *DocumentService) Upload(ctx context.Context, studyID string, actor Actor, docType, fileName, contentType string, size int64, r io.Reader) (*models.Document, error) {
	if !models.ValidDocumentType(docType) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown document type: "+docType)
	}

	study, err := s.studies.GetByID(ctx, studyID)
	if err != nil {
		return nil, err
	}
	if err := studyAccess(ctx, s.studies, study, actor.Scope()); err != nil {
		return nil, err
	}
	if docType == models.DocumentTypeReport && !models.CanTransition(study.Status, models.StatusReportUploaded) {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition,
			"cannot upload a report for a study in status "+string(study.Status))
	}

	doc := &models.Document{
		ID:          s.newID(),
		StudyID:     studyID,
		Type:        docType,
		FileName:    fileName,
		ContentType: contentType,
		SizeBytes:   size,
		UploadedBy:  actor.UserID,
		CreatedAt:   s.now(),
	}
	doc.StorageKey = fmt.Sprintf("%s/%s/%s", studyID, doc.ID, path.Base(fileName))

	if err := s.blob.Put(ctx, doc.StorageKey, r, size, contentType); err != nil {
		s.logger.Error("artifact upload failed", zap.String("study_id", studyID), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, appErrors.ErrStorageUnavailable.Message)
	}

	if err := s.docs.Create(ctx, doc); err != nil {
		s.enqueueBlobCleanup(doc.StorageKey)
		return nil, err
	}

	if docType == models.DocumentTypeReport {
		if _, err := s.workflow.Transition(ctx, studyID, models.StatusReportUploaded, actor, nil); err != nil {
			// Raced with another writer between precheck and commit.
			if _, delErr := s.docs.Delete(ctx, doc.ID); delErr != nil {
				s.logger.Error("orphaned document row after failed transition",
					zap.String("document_id", doc.ID), zap.Error(delErr))
			}
			s.enqueueBlobCleanup(doc.StorageKey)
			return nil, err
		}
	}

	s.logger.Info("document uploaded",
		zap.String("study_id", studyID),
		zap.String("document_id", doc.ID),
		zap.String("type", docType),
	)
	return doc, nil
}

// ListByStudy returns the documents attached to a study the scope may
// see.
func (s *DocumentService) ListByStudy(ctx context.Context, studyID string, scope models.AccessScope) ([]models.Document, error) {
	study, err := s.studies.GetByID(ctx, studyID)
	if err != nil {
		return nil, err
	}
	if err := studyAccess(ctx, s.studies, study, scope); err != nil {
		return nil, err
	}
	return s.docs.ListByStudy(ctx, studyID)
}

// DownloadReport streams the latest report artifact for a study and
// drives the study to the caller's download status. The caller owns
// the returned reader.
func (s *DocumentService) DownloadReport(ctx context.Context, studyID string, actor Actor) (*models.Document, io.ReadCloser, error) {
	study, err := s.studies.GetByID(ctx, studyID)
	if err != nil {
		return nil, nil, err
	}
	if err := studyAccess(ctx, s.studies, study, actor.Scope()); err != nil {
		return nil, nil, err
	}

	doc, err := s.docs.LatestReport(ctx, studyID)
	if err != nil {
		if appErrors.FromError(err).Code == appErrors.ErrNotFound.Code {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "no report has been uploaded for this study")
		}
		return nil, nil, err
	}

	if _, err := s.workflow.MarkDownloaded(ctx, studyID, actor); err != nil {
		return nil, nil, err
	}

	reader, err := s.blob.Get(ctx, doc.StorageKey)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, appErrors.ErrStorageUnavailable.Message)
	}
	return doc, reader, nil
}

// Fetch streams a document by ID after checking the scope against the
// owning study.
func (s *DocumentService) Fetch(ctx context.Context, documentID string, scope models.AccessScope) (*models.Document, io.ReadCloser, error) {
	doc, err := s.authorizedDocument(ctx, documentID, scope)
	if err != nil {
		return nil, nil, err
	}
	return s.open(ctx, doc)
}

func (s *DocumentService) open(ctx context.Context, doc *models.Document) (*models.Document, io.ReadCloser, error) {
	reader, err := s.blob.Get(ctx, doc.StorageKey)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, appErrors.ErrStorageUnavailable.Message)
	}
	return doc, reader, nil
}

func (s *DocumentService) authorizedDocument(ctx context.Context, documentID string, scope models.AccessScope) (*models.Document, error) {
	doc, err := s.docs.GetByID(ctx, documentID)
	if err != nil {
		return nil, err
	}
	study, err := s.studies.GetByID(ctx, doc.StudyID)
	if err != nil {
		return nil, err
	}
	if err := studyAccess(ctx, s.studies, study, scope); err != nil {
		return nil, err
	}
	return doc, nil
}

// Delete removes the database row, then the artifact. The artifact
// delete is best-effort: a storage failure is retried in the
// background and never fails the request.
func (s *DocumentService) Delete(ctx context.Context, documentID string, scope models.AccessScope) error {
	doc, err := s.authorizedDocument(ctx, documentID, scope)
	if err != nil {
		return err
	}

	deleted, err := s.docs.Delete(ctx, documentID)
	if err != nil {
		return err
	}
	if !deleted {
		return appErrors.ErrNotFound
	}

	if err := s.blob.Delete(ctx, doc.StorageKey); err != nil {
		s.logger.Warn("artifact delete failed, scheduling retry",
			zap.String("document_id", documentID),
			zap.String("storage_key", doc.StorageKey),
			zap.Error(err),
		)
		s.enqueueBlobCleanup(doc.StorageKey)
	}
	return nil
}

// Share issues a signed time-limited token granting unauthenticated
// access to a single document.
func (s *DocumentService) Share(ctx context.Context, documentID string, req dto.ShareRequest, scope models.AccessScope) (*dto.ShareResponse, error) {
	if _, err := s.authorizedDocument(ctx, documentID, scope); err != nil {
		return nil, err
	}

	ttl := s.cfg.TTL
	if req.TTLMinutes != nil {
		ttl = time.Duration(*req.TTLMinutes) * time.Minute
	}

	token := s.signer.Sign(documentID, ttl)
	return &dto.ShareResponse{
		Token:     token,
		URL:       "/api/v1/share/" + token,
		ExpiresAt: s.now().Add(ttl).UTC().Format(time.RFC3339),
	}, nil
}

// Resolve validates a share token and streams the document it grants.
// The token itself is the authorization, so no scope check applies.
func (s *DocumentService) Resolve(ctx context.Context, token string) (*models.Document, io.ReadCloser, error) {
	documentID, err := s.signer.Verify(token)
	if err != nil {
		if errors.Is(err, storage.ErrTokenExpired) {
			return nil, nil, appErrors.Clone(appErrors.ErrUnauthorized, "share link expired")
		}
		return nil, nil, appErrors.Clone(appErrors.ErrUnauthorized, "share link invalid")
	}
	doc, err := s.docs.GetByID(ctx, documentID)
	if err != nil {
		return nil, nil, err
	}
	return s.open(ctx, doc)
}

func (s *DocumentService) enqueueBlobCleanup(storageKey string) {
	if s.queue == nil {
		return
	}
	key := storageKey
	s.queue.Enqueue(jobs.Task{
		Name: "delete-artifact " + key,
		Run: func(ctx context.Context) error {
			return s.blob.Delete(ctx, key)
		},
	})
}
