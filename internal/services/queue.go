package services

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/skillforge-hq/skillforge-backend/internal/logger"
	"github.com/skillforge-hq/skillforge-backend/internal/repos"
	"github.com/skillforge-hq/skillforge-backend/internal/types"
	"github.com/skillforge-hq/skillforge-backend/internal/utils"
)

const defaultBatchSize = 5

type BatchItem struct {
	EnrollmentID uuid.UUID  `json:"enrollment_id"`
	CourseID     uuid.UUID  `json:"course_id"`
	EmployeeID   uuid.UUID  `json:"employee_id"`
	JobID        *uuid.UUID `json:"job_id,omitempty"`
	Status       string     `json:"status"`
	Error        string     `json:"error,omitempty"`
}

type BatchResult struct {
	Processed int         `json:"processed"`
	Succeeded int         `json:"succeeded"`
	Failed    int         `json:"failed"`
	Items     []BatchItem `json:"items"`
}

// QueueProcessor drains pending enrollments through the generation pipeline.
// A single atomic busy flag guarantees at most one batch per process; a
// ProcessPending call that finds the flag set returns an empty result rather
// than waiting. The flag is process-local, so replicas need external
// coordination if duplicate work matters.
type QueueProcessor interface {
	ProcessPending(ctx context.Context, limit int) (*BatchResult, error)
	TriggerOne(ctx context.Context, enrollmentID uuid.UUID) (*BatchResult, error)
	StartWorker(ctx context.Context)
}

type queueProcessor struct {
	log            *logger.Logger
	busy           atomic.Bool
	enrollmentRepo repos.EnrollmentRepo
	jobRepo        repos.GenerationJobRepo
	tracker        JobTracker
	resolver       PersonalizationResolver
	runner         PipelineRunner
	reconciler     Reconciler
}

func NewQueueProcessor(
	log *logger.Logger,
	enrollmentRepo repos.EnrollmentRepo,
	jobRepo repos.GenerationJobRepo,
	tracker JobTracker,
	resolver PersonalizationResolver,
	runner PipelineRunner,
	reconciler Reconciler,
) QueueProcessor {
	return &queueProcessor{
		log:            log.With("service", "QueueProcessor"),
		enrollmentRepo: enrollmentRepo,
		jobRepo:        jobRepo,
		tracker:        tracker,
		resolver:       resolver,
		runner:         runner,
		reconciler:     reconciler,
	}
}

func (q *queueProcessor) ProcessPending(ctx context.Context, limit int) (*BatchResult, error) {
	if !q.busy.CompareAndSwap(false, true) {
		q.log.Debug("Queue already processing, skipping batch")
		return &BatchResult{Items: []BatchItem{}}, nil
	}
	defer q.busy.Store(false)

	if limit <= 0 {
		limit = defaultBatchSize
	}
	pending, err := q.enrollmentRepo.ListPending(ctx, nil, limit)
	if err != nil {
		return nil, err
	}

	result := &BatchResult{Items: []BatchItem{}}
	for _, enrollment := range pending {
		item := q.processOne(ctx, enrollment)
		result.Processed++
		if item.Status == types.GenerationStatusCompleted {
			result.Succeeded++
		} else {
			result.Failed++
		}
		result.Items = append(result.Items, item)
	}
	if result.Processed > 0 {
		q.log.Info("Queue batch finished", "processed", result.Processed, "succeeded", result.Succeeded, "failed", result.Failed)
	}
	return result, nil
}

func (q *queueProcessor) processOne(ctx context.Context, enrollment *types.Enrollment) BatchItem {
	item := BatchItem{
		EnrollmentID: enrollment.ID,
		CourseID:     enrollment.CourseID,
		EmployeeID:   enrollment.EmployeeID,
		Status:       types.GenerationStatusFailed,
	}

	now := time.Now().UTC()
	if err := q.enrollmentRepo.UpdateFields(ctx, nil, enrollment.ID, map[string]interface{}{
		"generation_status": types.GenerationStatusGenerating,
		"started_at":        now,
		"error_message":     "",
	}); err != nil {
		item.Error = err.Error()
		return item
	}

	job, err := q.resolveJob(ctx, enrollment)
	if err != nil {
		item.Error = err.Error()
		q.markFailed(ctx, enrollment.ID, err)
		return item
	}
	item.JobID = &job.ID

	_, err = q.runner.Run(ctx, GenerationRequest{
		CourseID:        enrollment.CourseID,
		EmployeeID:      enrollment.EmployeeID,
		JobID:           job.ID,
		Personalization: q.resolver.Resolve(ctx, enrollment.EmployeeID),
	})
	if err != nil {
		// Run already recorded the failure on both job and enrollment.
		item.Error = err.Error()
		return item
	}
	item.Status = types.GenerationStatusCompleted
	return item
}

// resolveJob reuses the enrollment's linked job when it has not finished yet
// (the coordinator creates it before queueing); otherwise a fresh job is
// created and linked.
func (q *queueProcessor) resolveJob(ctx context.Context, enrollment *types.Enrollment) (*types.GenerationJob, error) {
	if enrollment.GenerationJobID != nil {
		job, err := q.jobRepo.GetByID(ctx, nil, *enrollment.GenerationJobID)
		if err != nil {
			return nil, err
		}
		if job != nil && !job.Terminal() {
			return job, nil
		}
	}
	job, err := q.tracker.Create(ctx, nil, enrollment.CourseID, enrollment.EmployeeID)
	if err != nil {
		return nil, err
	}
	if err := q.enrollmentRepo.UpdateFields(ctx, nil, enrollment.ID, map[string]interface{}{
		"generation_job_id": job.ID,
	}); err != nil {
		return nil, err
	}
	return job, nil
}

func (q *queueProcessor) markFailed(ctx context.Context, enrollmentID uuid.UUID, cause error) {
	if err := q.enrollmentRepo.UpdateFields(ctx, nil, enrollmentID, map[string]interface{}{
		"generation_status": types.GenerationStatusFailed,
		"error_message":     cause.Error(),
	}); err != nil {
		q.log.Warn("Failed to record enrollment failure", "enrollment_id", enrollmentID, "error", err)
	}
}

func (q *queueProcessor) TriggerOne(ctx context.Context, enrollmentID uuid.UUID) (*BatchResult, error) {
	enrollment, err := q.enrollmentRepo.GetByID(ctx, nil, enrollmentID)
	if err != nil {
		return nil, err
	}
	if enrollment == nil {
		return nil, ErrEnrollmentNotFound
	}
	if err := q.enrollmentRepo.UpdateFields(ctx, nil, enrollmentID, map[string]interface{}{
		"generation_status": types.GenerationStatusPending,
		"error_message":     "",
	}); err != nil {
		return nil, err
	}
	return q.ProcessPending(ctx, 1)
}

// StartWorker polls for pending enrollments on an interval and runs the
// enrollment reconciliation sweep at a lower cadence.
func (q *queueProcessor) StartWorker(ctx context.Context) {
	interval := time.Duration(utils.GetEnvAsInt("QUEUE_WORKER_INTERVAL_SECONDS", 30, q.log)) * time.Second
	sweepEvery := utils.GetEnvAsInt("QUEUE_RECONCILE_EVERY_TICKS", 10, q.log)
	if sweepEvery <= 0 {
		sweepEvery = 10
	}
	go func() {
		q.log.Info("Queue worker started", "interval", interval)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		ticks := 0
		for {
			select {
			case <-ctx.Done():
				q.log.Info("Queue worker stopped")
				return
			case <-ticker.C:
				if _, err := q.ProcessPending(ctx, 0); err != nil {
					q.log.Error("Queue batch failed", "error", err)
				}
				ticks++
				if ticks%sweepEvery == 0 && q.reconciler != nil {
					if fixed, err := q.reconciler.ReconcileEnrollments(ctx); err != nil {
						q.log.Error("Reconciliation sweep failed", "error", err)
					} else if fixed > 0 {
						q.log.Info("Reconciliation sweep repaired enrollments", "count", fixed)
					}
				}
			}
		}
	}()
}
