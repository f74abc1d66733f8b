package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/skillforge-hq/skillforge-backend/internal/logger"
	"github.com/skillforge-hq/skillforge-backend/internal/types"
)

// In-memory repo fakes shared by the service tests. They apply the same
// UpdateFields column names the gorm repos use.

func newTestLogger() *logger.Logger {
	log, err := logger.New("test")
	if err != nil {
		panic(err)
	}
	return log
}

// --- generation job repo ---

type memJobRepo struct {
	mu   sync.Mutex
	jobs map[uuid.UUID]*types.GenerationJob

	failUpdates bool
}

func newMemJobRepo() *memJobRepo {
	return &memJobRepo{jobs: make(map[uuid.UUID]*types.GenerationJob)}
}

func (r *memJobRepo) Create(_ context.Context, _ *gorm.DB, jobs []*types.GenerationJob) ([]*types.GenerationJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, job := range jobs {
		cp := *job
		cp.CreatedAt = time.Now().UTC()
		r.jobs[job.ID] = &cp
	}
	return jobs, nil
}

func (r *memJobRepo) GetByID(_ context.Context, _ *gorm.DB, id uuid.UUID) (*types.GenerationJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return nil, nil
	}
	cp := *job
	return &cp, nil
}

func (r *memJobRepo) GetLatestByPair(_ context.Context, _ *gorm.DB, courseID, employeeID uuid.UUID) (*types.GenerationJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest *types.GenerationJob
	for _, job := range r.jobs {
		if job.CourseID != courseID || job.EmployeeID != employeeID {
			continue
		}
		if latest == nil || job.CreatedAt.After(latest.CreatedAt) {
			latest = job
		}
	}
	if latest == nil {
		return nil, nil
	}
	cp := *latest
	return &cp, nil
}

func (r *memJobRepo) UpdateFields(_ context.Context, _ *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failUpdates {
		return fmt.Errorf("update rejected")
	}
	job, ok := r.jobs[id]
	if !ok {
		return fmt.Errorf("job %s not found", id)
	}
	for key, val := range updates {
		switch key {
		case "status":
			job.Status = val.(string)
		case "current_step":
			job.CurrentStep = val.(int)
		case "progress":
			job.Progress = val.(int)
		case "step_description":
			job.StepDescription = val.(string)
		case "error_message":
			job.ErrorMessage = val.(string)
		case "completed_at":
			t := val.(time.Time)
			job.CompletedAt = &t
		}
	}
	return nil
}

// --- course repo ---

type memCourseRepo struct {
	mu      sync.Mutex
	courses map[uuid.UUID]*types.Course
}

func newMemCourseRepo(courses ...*types.Course) *memCourseRepo {
	r := &memCourseRepo{courses: make(map[uuid.UUID]*types.Course)}
	for _, c := range courses {
		r.courses[c.ID] = c
	}
	return r
}

func (r *memCourseRepo) Create(_ context.Context, _ *gorm.DB, courses []*types.Course) ([]*types.Course, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range courses {
		r.courses[c.ID] = c
	}
	return courses, nil
}

func (r *memCourseRepo) GetByID(_ context.Context, _ *gorm.DB, id uuid.UUID) (*types.Course, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	course, ok := r.courses[id]
	if !ok {
		return nil, nil
	}
	return course, nil
}

func (r *memCourseRepo) GetByIDs(_ context.Context, _ *gorm.DB, ids []uuid.UUID) ([]*types.Course, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*types.Course
	for _, id := range ids {
		if course, ok := r.courses[id]; ok {
			out = append(out, course)
		}
	}
	return out, nil
}

// --- enrollment repo ---

type memEnrollmentRepo struct {
	mu          sync.Mutex
	enrollments map[uuid.UUID]*types.Enrollment
	seq         int
}

func newMemEnrollmentRepo() *memEnrollmentRepo {
	return &memEnrollmentRepo{enrollments: make(map[uuid.UUID]*types.Enrollment)}
}

func (r *memEnrollmentRepo) Create(_ context.Context, _ *gorm.DB, enrollments []*types.Enrollment) ([]*types.Enrollment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range enrollments {
		cp := *e
		r.seq++
		cp.UpdatedAt = time.Unix(int64(r.seq), 0)
		r.enrollments[e.ID] = &cp
	}
	return enrollments, nil
}

func (r *memEnrollmentRepo) GetByID(_ context.Context, _ *gorm.DB, id uuid.UUID) (*types.Enrollment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.enrollments[id]
	if !ok {
		return nil, nil
	}
	cp := *e
	return &cp, nil
}

func (r *memEnrollmentRepo) GetByPair(_ context.Context, _ *gorm.DB, employeeID, courseID uuid.UUID) (*types.Enrollment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e := r.byPairLocked(employeeID, courseID)
	if e == nil {
		return nil, nil
	}
	cp := *e
	return &cp, nil
}

func (r *memEnrollmentRepo) byPairLocked(employeeID, courseID uuid.UUID) *types.Enrollment {
	for _, e := range r.enrollments {
		if e.EmployeeID == employeeID && e.CourseID == courseID {
			return e
		}
	}
	return nil
}

func (r *memEnrollmentRepo) Upsert(_ context.Context, _ *gorm.DB, enrollment *types.Enrollment) (*types.Enrollment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing := r.byPairLocked(enrollment.EmployeeID, enrollment.CourseID)
	if existing == nil {
		cp := *enrollment
		r.seq++
		cp.UpdatedAt = time.Unix(int64(r.seq), 0)
		r.enrollments[enrollment.ID] = &cp
		out := cp
		return &out, nil
	}
	existing.GenerationStatus = enrollment.GenerationStatus
	existing.GenerationJobID = enrollment.GenerationJobID
	existing.StartedAt = enrollment.StartedAt
	existing.ErrorMessage = enrollment.ErrorMessage
	cp := *existing
	return &cp, nil
}

func (r *memEnrollmentRepo) ListPending(_ context.Context, _ *gorm.DB, limit int) ([]*types.Enrollment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*types.Enrollment
	for _, e := range r.enrollments {
		if e.GenerationStatus == types.GenerationStatusPending {
			cp := *e
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.Before(out[j].UpdatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memEnrollmentRepo) ListIncompleteWithContentCandidates(_ context.Context, _ *gorm.DB, limit int) ([]*types.Enrollment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*types.Enrollment
	for _, e := range r.enrollments {
		incomplete := e.GenerationStatus == types.GenerationStatusGenerating || e.GenerationStatus == types.GenerationStatusFailed
		if incomplete && e.GenerationJobID != nil {
			cp := *e
			out = append(out, &cp)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memEnrollmentRepo) UpdateFields(_ context.Context, _ *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.enrollments[id]
	if !ok {
		return fmt.Errorf("enrollment %s not found", id)
	}
	for key, val := range updates {
		switch key {
		case "generation_status":
			e.GenerationStatus = val.(string)
		case "generation_job_id":
			if val == nil {
				e.GenerationJobID = nil
			} else {
				id := val.(uuid.UUID)
				e.GenerationJobID = &id
			}
		case "content_id":
			if val == nil {
				e.ContentID = nil
			} else {
				id := val.(uuid.UUID)
				e.ContentID = &id
			}
		case "error_message":
			e.ErrorMessage = val.(string)
		case "started_at":
			t := val.(time.Time)
			e.StartedAt = &t
		case "completed_at":
			t := val.(time.Time)
			e.CompletedAt = &t
		}
	}
	r.seq++
	e.UpdatedAt = time.Unix(int64(r.seq), 0)
	return nil
}

// --- content artifact repo ---

type memArtifactRepo struct {
	mu        sync.Mutex
	artifacts []*types.ContentArtifact

	failCreate bool
}

func newMemArtifactRepo() *memArtifactRepo { return &memArtifactRepo{} }

func (r *memArtifactRepo) Create(_ context.Context, _ *gorm.DB, artifacts []*types.ContentArtifact) ([]*types.ContentArtifact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failCreate {
		return nil, fmt.Errorf("artifact insert rejected")
	}
	for _, a := range artifacts {
		cp := *a
		r.artifacts = append(r.artifacts, &cp)
	}
	return artifacts, nil
}

func (r *memArtifactRepo) GetByID(_ context.Context, _ *gorm.DB, id uuid.UUID) (*types.ContentArtifact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.artifacts {
		if a.ID == id {
			cp := *a
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memArtifactRepo) GetActiveByPair(_ context.Context, _ *gorm.DB, courseID, employeeID uuid.UUID) (*types.ContentArtifact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.artifacts {
		if a.CourseID == courseID && a.EmployeeID == employeeID && a.Active {
			cp := *a
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memArtifactRepo) ListByPair(_ context.Context, _ *gorm.DB, courseID, employeeID uuid.UUID) ([]*types.ContentArtifact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*types.ContentArtifact
	for _, a := range r.artifacts {
		if a.CourseID == courseID && a.EmployeeID == employeeID {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memArtifactRepo) DeactivateByPair(_ context.Context, _ *gorm.DB, courseID, employeeID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.artifacts {
		if a.CourseID == courseID && a.EmployeeID == employeeID {
			a.Active = false
		}
	}
	return nil
}

func (r *memArtifactRepo) DeleteByPair(_ context.Context, _ *gorm.DB, courseID, employeeID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var kept []*types.ContentArtifact
	for _, a := range r.artifacts {
		if a.CourseID == courseID && a.EmployeeID == employeeID {
			continue
		}
		kept = append(kept, a)
	}
	r.artifacts = kept
	return nil
}

// --- legacy content repo ---

type memLegacyRepo struct {
	mu   sync.Mutex
	rows []*types.LegacyGeneratedContent
}

func newMemLegacyRepo() *memLegacyRepo { return &memLegacyRepo{} }

func (r *memLegacyRepo) Create(_ context.Context, _ *gorm.DB, rows []*types.LegacyGeneratedContent) ([]*types.LegacyGeneratedContent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = append(r.rows, rows...)
	return rows, nil
}

func (r *memLegacyRepo) CountByPair(_ context.Context, _ *gorm.DB, courseID, employeeID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, row := range r.rows {
		if row.CourseID == courseID && row.EmployeeID == employeeID {
			n++
		}
	}
	return n, nil
}

func (r *memLegacyRepo) DeleteByPair(_ context.Context, _ *gorm.DB, courseID, employeeID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var kept []*types.LegacyGeneratedContent
	for _, row := range r.rows {
		if row.CourseID == courseID && row.EmployeeID == employeeID {
			continue
		}
		kept = append(kept, row)
	}
	r.rows = kept
	return nil
}

// --- employee + mapping + preference repos ---

type memEmployeeRepo struct {
	mu        sync.Mutex
	employees map[uuid.UUID]*types.Employee
}

func newMemEmployeeRepo(employees ...*types.Employee) *memEmployeeRepo {
	r := &memEmployeeRepo{employees: make(map[uuid.UUID]*types.Employee)}
	for _, e := range employees {
		r.employees[e.ID] = e
	}
	return r
}

func (r *memEmployeeRepo) Create(_ context.Context, _ *gorm.DB, employees []*types.Employee) ([]*types.Employee, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range employees {
		r.employees[e.ID] = e
	}
	return employees, nil
}

func (r *memEmployeeRepo) GetByID(_ context.Context, _ *gorm.DB, id uuid.UUID) (*types.Employee, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.employees[id]
	if !ok {
		return nil, nil
	}
	return e, nil
}

type memMappingRepo struct {
	mu       sync.Mutex
	mappings map[uuid.UUID]*types.EmployeeMapping
}

func newMemMappingRepo(mappings ...*types.EmployeeMapping) *memMappingRepo {
	r := &memMappingRepo{mappings: make(map[uuid.UUID]*types.EmployeeMapping)}
	for _, m := range mappings {
		r.mappings[m.UserID] = m
	}
	return r
}

func (r *memMappingRepo) GetByUserID(_ context.Context, _ *gorm.DB, userID uuid.UUID) (*types.EmployeeMapping, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.mappings[userID]
	if !ok {
		return nil, nil
	}
	return m, nil
}

func (r *memMappingRepo) Upsert(_ context.Context, _ *gorm.DB, mapping *types.EmployeeMapping) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mappings[mapping.UserID] = mapping
	return nil
}

type memPrefRepo struct {
	mu    sync.Mutex
	prefs map[uuid.UUID]*types.LearningPreference

	failUpserts bool
}

func newMemPrefRepo() *memPrefRepo {
	return &memPrefRepo{prefs: make(map[uuid.UUID]*types.LearningPreference)}
}

func (r *memPrefRepo) GetByEmployeeID(_ context.Context, _ *gorm.DB, employeeID uuid.UUID) (*types.LearningPreference, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.prefs[employeeID]
	if !ok {
		return nil, nil
	}
	return p, nil
}

func (r *memPrefRepo) Upsert(_ context.Context, _ *gorm.DB, pref *types.LearningPreference) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failUpserts {
		return fmt.Errorf("preference upsert rejected")
	}
	r.prefs[pref.EmployeeID] = pref
	return nil
}

// --- notifier + runner fakes ---

type recordingNotifier struct {
	mu        sync.Mutex
	progress  []*types.GenerationJob
	completed []*types.GenerationJob
	failed    []*types.GenerationJob
}

func (n *recordingNotifier) JobProgress(_ context.Context, job *types.GenerationJob) {
	n.mu.Lock()
	defer n.mu.Unlock()
	cp := *job
	n.progress = append(n.progress, &cp)
}

func (n *recordingNotifier) JobCompleted(_ context.Context, job *types.GenerationJob) {
	n.mu.Lock()
	defer n.mu.Unlock()
	cp := *job
	n.completed = append(n.completed, &cp)
}

func (n *recordingNotifier) JobFailed(_ context.Context, job *types.GenerationJob) {
	n.mu.Lock()
	defer n.mu.Unlock()
	cp := *job
	n.failed = append(n.failed, &cp)
}

type fakeRunner struct {
	run func(ctx context.Context, req GenerationRequest) (*types.ContentArtifact, error)
}

func (f *fakeRunner) Run(ctx context.Context, req GenerationRequest) (*types.ContentArtifact, error) {
	return f.run(ctx, req)
}
