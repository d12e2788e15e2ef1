package service

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"
	"time"

	"github.com/radpulse/radpulse-api/internal/models"
	"github.com/radpulse/radpulse-api/internal/repository"
	appErrors "github.com/radpulse/radpulse-api/pkg/errors"
	"github.com/radpulse/radpulse-api/pkg/jobs"
)

type fakeUnit struct {
	study *models.Study

	updated         *models.Study
	updatedVersion  int64
	updateErr       error
	history         []models.StatusHistoryEntry
	assignments     []models.StudyAssignment
	released        int
	releaseNotes    []*string
	patientStatuses []models.Status
	bumpAssigned    map[string]int
	bumpCompleted   map[string]int
}

func newFakeUnit(study *models.Study) *fakeUnit {
	return &fakeUnit{
		study:         study,
		bumpAssigned:  map[string]int{},
		bumpCompleted: map[string]int{},
	}
}

func (u *fakeUnit) StudyForUpdate(_ context.Context, studyID string) (*models.Study, error) {
	if u.study == nil || u.study.ID != studyID {
		return nil, appErrors.ErrNotFound
	}
	copy := *u.study
	return &copy, nil
}

func (u *fakeUnit) UpdateStudy(_ context.Context, study *models.Study, expectedVersion int64) error {
	if u.updateErr != nil {
		return u.updateErr
	}
	if expectedVersion != u.study.Version {
		return appErrors.ErrConcurrentModification
	}
	study.Version = expectedVersion + 1
	u.updated = study
	u.updatedVersion = expectedVersion
	return nil
}

func (u *fakeUnit) AppendStatusHistory(_ context.Context, entry *models.StatusHistoryEntry) error {
	u.history = append(u.history, *entry)
	return nil
}

func (u *fakeUnit) AppendAssignment(_ context.Context, assignment *models.StudyAssignment) error {
	u.assignments = append(u.assignments, *assignment)
	return nil
}

func (u *fakeUnit) ReleaseAssignment(_ context.Context, _ string, note *string) error {
	u.released++
	u.releaseNotes = append(u.releaseNotes, note)
	return nil
}

func (u *fakeUnit) UpdatePatientPointer(_ context.Context, _, _ string, status models.Status) error {
	u.patientStatuses = append(u.patientStatuses, status)
	return nil
}

func (u *fakeUnit) BumpDoctorAssigned(_ context.Context, doctorID string, delta int) error {
	u.bumpAssigned[doctorID] += delta
	return nil
}

func (u *fakeUnit) BumpDoctorCompleted(_ context.Context, doctorID string) error {
	u.bumpCompleted[doctorID]++
	return nil
}

type fakeRunner struct {
	unit *fakeUnit
	runs int
}

func (r *fakeRunner) Run(_ context.Context, fn func(unit repository.StudyUnit) error) error {
	r.runs++
	return fn(r.unit)
}

type fakeStudyReader struct {
	studies     map[string]*models.Study
	history     map[string][]models.StatusHistoryEntry
	assignments map[string][]models.StudyAssignment
	created     []*models.Study
}

func newFakeStudyReader(studies ...*models.Study) *fakeStudyReader {
	r := &fakeStudyReader{
		studies:     map[string]*models.Study{},
		history:     map[string][]models.StatusHistoryEntry{},
		assignments: map[string][]models.StudyAssignment{},
	}
	for _, s := range studies {
		r.studies[s.ID] = s
	}
	return r
}

func (r *fakeStudyReader) GetByID(_ context.Context, studyID string) (*models.Study, error) {
	if s, ok := r.studies[studyID]; ok {
		return s, nil
	}
	return nil, appErrors.ErrNotFound
}

func (r *fakeStudyReader) GetStatusHistory(_ context.Context, studyID string) ([]models.StatusHistoryEntry, error) {
	return r.history[studyID], nil
}

func (r *fakeStudyReader) GetAssignments(_ context.Context, studyID string) ([]models.StudyAssignment, error) {
	return r.assignments[studyID], nil
}

func (r *fakeStudyReader) Create(_ context.Context, study *models.Study) error {
	r.created = append(r.created, study)
	r.studies[study.ID] = study
	return nil
}

type fakeDoctorReader struct {
	doctors map[string]*models.DoctorWithUser
}

func (r *fakeDoctorReader) GetWithUser(_ context.Context, doctorID string) (*models.DoctorWithUser, error) {
	if d, ok := r.doctors[doctorID]; ok {
		return d, nil
	}
	return nil, appErrors.ErrNotFound
}

type fakeWorklistSource struct {
	rows     []models.WorklistRow
	total    int
	counts   []models.StatusCount
	averages *models.TATAverages
	err      error
}

func (s *fakeWorklistSource) List(_ context.Context, _ models.AccessScope, _ repository.WorklistFilter, limit, offset int) ([]models.WorklistRow, error) {
	if s.err != nil {
		return nil, s.err
	}
	if offset >= len(s.rows) {
		return []models.WorklistRow{}, nil
	}
	end := offset + limit
	if end > len(s.rows) {
		end = len(s.rows)
	}
	page := make([]models.WorklistRow, end-offset)
	copy(page, s.rows[offset:end])
	return page, nil
}

func (s *fakeWorklistSource) Count(_ context.Context, _ models.AccessScope, _ repository.WorklistFilter) (int, error) {
	if s.err != nil {
		return 0, s.err
	}
	return s.total, nil
}

func (s *fakeWorklistSource) StatusCounts(_ context.Context, _ models.AccessScope, _ repository.WorklistFilter) ([]models.StatusCount, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.counts, nil
}

func (s *fakeWorklistSource) TATAverages(_ context.Context, _ models.AccessScope, _ repository.WorklistFilter) (*models.TATAverages, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.averages, nil
}

func (s *fakeWorklistSource) Stream(_ context.Context, _ models.AccessScope, _ repository.WorklistFilter, fn func(row *models.WorklistRow) error) error {
	if s.err != nil {
		return s.err
	}
	for i := range s.rows {
		row := s.rows[i]
		if err := fn(&row); err != nil {
			return err
		}
	}
	return nil
}

type fakeDocumentStore struct {
	docs    map[string]*models.Document
	created []*models.Document
	deleted []string
}

func newFakeDocumentStore(docs ...*models.Document) *fakeDocumentStore {
	s := &fakeDocumentStore{docs: map[string]*models.Document{}}
	for _, d := range docs {
		s.docs[d.ID] = d
	}
	return s
}

func (s *fakeDocumentStore) Create(_ context.Context, doc *models.Document) error {
	s.created = append(s.created, doc)
	s.docs[doc.ID] = doc
	return nil
}

func (s *fakeDocumentStore) GetByID(_ context.Context, documentID string) (*models.Document, error) {
	if d, ok := s.docs[documentID]; ok {
		return d, nil
	}
	return nil, appErrors.ErrNotFound
}

func (s *fakeDocumentStore) ListByStudy(_ context.Context, studyID string) ([]models.Document, error) {
	out := []models.Document{}
	for _, d := range s.docs {
		if d.StudyID == studyID {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (s *fakeDocumentStore) LatestReport(_ context.Context, studyID string) (*models.Document, error) {
	var latest *models.Document
	for _, d := range s.docs {
		if d.StudyID == studyID && d.Type == models.DocumentTypeReport {
			if latest == nil || d.CreatedAt.After(latest.CreatedAt) {
				latest = d
			}
		}
	}
	if latest == nil {
		return nil, appErrors.ErrNotFound
	}
	return latest, nil
}

func (s *fakeDocumentStore) Delete(_ context.Context, documentID string) (bool, error) {
	if _, ok := s.docs[documentID]; !ok {
		return false, nil
	}
	delete(s.docs, documentID)
	s.deleted = append(s.deleted, documentID)
	return true, nil
}

type fakeBlobStore struct {
	objects map[string][]byte
	putErr  error
	getErr  error
	delErr  error
	deleted []string
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{objects: map[string][]byte{}}
}

func (s *fakeBlobStore) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	if s.putErr != nil {
		return s.putErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.objects[key] = data
	return nil
}

func (s *fakeBlobStore) Get(_ context.Context, key string) (io.ReadCloser, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	data, ok := s.objects[key]
	if !ok {
		return nil, appErrors.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *fakeBlobStore) Delete(_ context.Context, key string) error {
	if s.delErr != nil {
		return s.delErr
	}
	delete(s.objects, key)
	s.deleted = append(s.deleted, key)
	return nil
}

func (s *fakeBlobStore) Exists(_ context.Context, key string) (bool, error) {
	_, ok := s.objects[key]
	return ok, nil
}

type fakeWorkflowDriver struct {
	transitions []models.Status
	err         error
}

func (d *fakeWorkflowDriver) Transition(_ context.Context, _ string, to models.Status, _ Actor, _ *string) (*models.Study, error) {
	if d.err != nil {
		return nil, d.err
	}
	d.transitions = append(d.transitions, to)
	return &models.Study{Status: to}, nil
}

func (d *fakeWorkflowDriver) MarkDownloaded(ctx context.Context, studyID string, actor Actor) (*models.Study, error) {
	return d.Transition(ctx, studyID, models.TerminalDownloadStatus(actor.Role), actor, nil)
}

type fakeQueue struct {
	tasks []jobs.Task
}

func (q *fakeQueue) Enqueue(task jobs.Task) bool {
	q.tasks = append(q.tasks, task)
	return true
}

type fakeCacheStore struct {
	values  map[string][]byte
	deleted []string
}

func newFakeCacheStore() *fakeCacheStore {
	return &fakeCacheStore{values: map[string][]byte{}}
}

func (s *fakeCacheStore) Get(_ context.Context, key string, dest interface{}) error {
	raw, ok := s.values[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (s *fakeCacheStore) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.values[key] = raw
	return nil
}

func (s *fakeCacheStore) Delete(_ context.Context, key string) error {
	delete(s.values, key)
	s.deleted = append(s.deleted, key)
	return nil
}

func (s *fakeCacheStore) DeleteByPattern(_ context.Context, pattern string) error {
	s.deleted = append(s.deleted, pattern)
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range s.values {
		if strings.HasPrefix(key, prefix) {
			delete(s.values, key)
		}
	}
	return nil
}
