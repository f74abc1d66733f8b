package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/skillforge-hq/skillforge-backend/internal/logger"
	"github.com/skillforge-hq/skillforge-backend/internal/repos"
	"github.com/skillforge-hq/skillforge-backend/internal/types"
)

// JobTracker owns the generation_job state machine. Updates only ever move a
// job forward: step numbers are monotonic and terminal jobs ignore further
// writes, so a stale pipeline cannot resurrect a job that already finished.
type JobTracker interface {
	Create(ctx context.Context, tx *gorm.DB, courseID, employeeID uuid.UUID) (*types.GenerationJob, error)
	Get(ctx context.Context, jobID uuid.UUID) (*types.GenerationJob, error)
	Advance(ctx context.Context, jobID uuid.UUID, step int, description string) error
	Complete(ctx context.Context, jobID uuid.UUID) error
	Fail(ctx context.Context, jobID uuid.UUID, cause error) error
}

type jobTracker struct {
	log      *logger.Logger
	jobRepo  repos.GenerationJobRepo
	notifier ProgressNotifier
}

func NewJobTracker(log *logger.Logger, jobRepo repos.GenerationJobRepo, notifier ProgressNotifier) JobTracker {
	return &jobTracker{
		log:      log.With("service", "JobTracker"),
		jobRepo:  jobRepo,
		notifier: notifier,
	}
}

func (t *jobTracker) Create(ctx context.Context, tx *gorm.DB, courseID, employeeID uuid.UUID) (*types.GenerationJob, error) {
	job := &types.GenerationJob{
		ID:              uuid.New(),
		CourseID:        courseID,
		EmployeeID:      employeeID,
		Status:          types.JobStatusPending,
		TotalSteps:      types.JobTotalSteps,
		CurrentStep:     1,
		Progress:        progressFor(1, types.JobTotalSteps),
		StepDescription: "Queued for generation",
	}
	if _, err := t.jobRepo.Create(ctx, tx, []*types.GenerationJob{job}); err != nil {
		return nil, fmt.Errorf("failed to create generation job: %w", err)
	}
	t.log.Info("Created generation job", "job_id", job.ID, "course_id", courseID, "employee_id", employeeID)
	return job, nil
}

func (t *jobTracker) Get(ctx context.Context, jobID uuid.UUID) (*types.GenerationJob, error) {
	return t.jobRepo.GetByID(ctx, nil, jobID)
}

func (t *jobTracker) Advance(ctx context.Context, jobID uuid.UUID, step int, description string) error {
	job, err := t.jobRepo.GetByID(ctx, nil, jobID)
	if err != nil {
		return fmt.Errorf("failed to load job %s: %w", jobID, err)
	}
	if job == nil {
		return fmt.Errorf("generation job %s not found", jobID)
	}
	if job.Terminal() {
		t.log.Warn("Ignoring step update for terminal job", "job_id", jobID, "status", job.Status, "step", step)
		return nil
	}
	if step < job.CurrentStep {
		t.log.Debug("Ignoring out-of-order step update", "job_id", jobID, "current_step", job.CurrentStep, "step", step)
		return nil
	}
	if step > job.TotalSteps {
		step = job.TotalSteps
	}
	progress := progressFor(step, job.TotalSteps)
	fields := map[string]interface{}{
		"status":           types.JobStatusInProgress,
		"current_step":     step,
		"progress":         progress,
		"step_description": description,
	}
	if err := t.jobRepo.UpdateFields(ctx, nil, jobID, fields); err != nil {
		return fmt.Errorf("failed to advance job %s: %w", jobID, err)
	}
	job.Status = types.JobStatusInProgress
	job.CurrentStep = step
	job.Progress = progress
	job.StepDescription = description
	t.notifier.JobProgress(ctx, job)
	return nil
}

func (t *jobTracker) Complete(ctx context.Context, jobID uuid.UUID) error {
	job, err := t.jobRepo.GetByID(ctx, nil, jobID)
	if err != nil {
		return fmt.Errorf("failed to load job %s: %w", jobID, err)
	}
	if job == nil {
		return fmt.Errorf("generation job %s not found", jobID)
	}
	if job.Terminal() {
		t.log.Warn("Ignoring completion for terminal job", "job_id", jobID, "status", job.Status)
		return nil
	}
	now := time.Now().UTC()
	fields := map[string]interface{}{
		"status":           types.JobStatusCompleted,
		"current_step":     job.TotalSteps,
		"progress":         100,
		"step_description": "Content generation completed",
		"completed_at":     now,
	}
	if err := t.jobRepo.UpdateFields(ctx, nil, jobID, fields); err != nil {
		return fmt.Errorf("failed to complete job %s: %w", jobID, err)
	}
	job.Status = types.JobStatusCompleted
	job.CurrentStep = job.TotalSteps
	job.Progress = 100
	job.StepDescription = "Content generation completed"
	job.CompletedAt = &now
	t.log.Info("Generation job completed", "job_id", jobID)
	t.notifier.JobCompleted(ctx, job)
	return nil
}

func (t *jobTracker) Fail(ctx context.Context, jobID uuid.UUID, cause error) error {
	job, err := t.jobRepo.GetByID(ctx, nil, jobID)
	if err != nil {
		return fmt.Errorf("failed to load job %s: %w", jobID, err)
	}
	if job == nil {
		return fmt.Errorf("generation job %s not found", jobID)
	}
	if job.Terminal() {
		t.log.Warn("Ignoring failure for terminal job", "job_id", jobID, "status", job.Status)
		return nil
	}
	msg := "content generation failed"
	if cause != nil {
		msg = cause.Error()
	}
	now := time.Now().UTC()
	fields := map[string]interface{}{
		"status":        types.JobStatusFailed,
		"error_message": msg,
		"completed_at":  now,
	}
	if err := t.jobRepo.UpdateFields(ctx, nil, jobID, fields); err != nil {
		return fmt.Errorf("failed to mark job %s failed: %w", jobID, err)
	}
	job.Status = types.JobStatusFailed
	job.ErrorMessage = msg
	job.CompletedAt = &now
	t.log.Warn("Generation job failed", "job_id", jobID, "error", msg)
	t.notifier.JobFailed(ctx, job)
	return nil
}

func progressFor(step, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(step) / float64(total) * 100))
}
