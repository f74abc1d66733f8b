package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/skillforge-hq/skillforge-backend/internal/logger"
	"github.com/skillforge-hq/skillforge-backend/internal/repos"
	"github.com/skillforge-hq/skillforge-backend/internal/types"
)

// PersonalizationOptions are the caller-supplied preference fields. When
// present they are persisted before generation so subsequent runs pick the
// same profile up.
type PersonalizationOptions struct {
	Format     string   `json:"format"`
	WeeklyTime string   `json:"weekly_time"`
	Interests  []string `json:"interests"`
}

type RegenerateParams struct {
	CourseID        uuid.UUID
	CallerID        uuid.UUID
	EmployeeID      *uuid.UUID
	Options         *PersonalizationOptions
	ForceRegenerate bool
	Synchronous     bool
}

type RegenerateResult struct {
	Course     *types.Course         `json:"course"`
	Job        *types.GenerationJob  `json:"job"`
	Enrollment *types.Enrollment     `json:"enrollment"`
	Artifact   *types.ContentArtifact `json:"artifact,omitempty"`
}

// RegenerationCoordinator is the single entry point for starting content
// generation, first-time or repeat. It owns preference persistence, employee
// resolution, job creation, enrollment bookkeeping and the force-regenerate
// cleanup, then either runs the pipeline inline or leaves the enrollment
// pending for the queue worker.
type RegenerationCoordinator interface {
	Regenerate(ctx context.Context, params RegenerateParams) (*RegenerateResult, error)
}

type regenerationCoordinator struct {
	log            *logger.Logger
	courseRepo     repos.CourseRepo
	mappingRepo    repos.EmployeeMappingRepo
	prefRepo       repos.LearningPreferenceRepo
	enrollmentRepo repos.EnrollmentRepo
	artifactRepo   repos.ContentArtifactRepo
	legacyRepo     repos.LegacyContentRepo
	tracker        JobTracker
	resolver       PersonalizationResolver
	runner         PipelineRunner
}

func NewRegenerationCoordinator(
	log *logger.Logger,
	courseRepo repos.CourseRepo,
	mappingRepo repos.EmployeeMappingRepo,
	prefRepo repos.LearningPreferenceRepo,
	enrollmentRepo repos.EnrollmentRepo,
	artifactRepo repos.ContentArtifactRepo,
	legacyRepo repos.LegacyContentRepo,
	tracker JobTracker,
	resolver PersonalizationResolver,
	runner PipelineRunner,
) RegenerationCoordinator {
	return &regenerationCoordinator{
		log:            log.With("service", "RegenerationCoordinator"),
		courseRepo:     courseRepo,
		mappingRepo:    mappingRepo,
		prefRepo:       prefRepo,
		enrollmentRepo: enrollmentRepo,
		artifactRepo:   artifactRepo,
		legacyRepo:     legacyRepo,
		tracker:        tracker,
		resolver:       resolver,
		runner:         runner,
	}
}

func (c *regenerationCoordinator) Regenerate(ctx context.Context, params RegenerateParams) (*RegenerateResult, error) {
	employeeID := c.resolveEmployeeID(ctx, params)
	reqLog := c.log.With("course_id", params.CourseID, "employee_id", employeeID, "force", params.ForceRegenerate)

	if params.Options != nil {
		c.savePreferences(ctx, employeeID, params.Options, reqLog)
	}

	course, err := c.courseRepo.GetByID(ctx, nil, params.CourseID)
	if err != nil {
		return nil, fmt.Errorf("failed to load course: %w", err)
	}
	if course == nil {
		return nil, ErrCourseNotFound
	}

	job, err := c.tracker.Create(ctx, nil, params.CourseID, employeeID)
	if err != nil {
		return nil, err
	}

	// Last writer wins: a regeneration request while another run is in
	// flight re-links the enrollment to the new job. The older run's job
	// still completes on its own but the enrollment tracks the newest one.
	status := types.GenerationStatusPending
	if params.Synchronous {
		status = types.GenerationStatusGenerating
	}
	now := time.Now().UTC()
	enrollment, err := c.enrollmentRepo.Upsert(ctx, nil, &types.Enrollment{
		ID:               uuid.New(),
		EmployeeID:       employeeID,
		CourseID:         params.CourseID,
		GenerationStatus: status,
		GenerationJobID:  &job.ID,
		StartedAt:        &now,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upsert enrollment: %w", err)
	}

	if params.ForceRegenerate {
		if err := c.purgeExistingContent(ctx, params.CourseID, employeeID, enrollment.ID); err != nil {
			return nil, err
		}
		reqLog.Info("Purged existing content before regeneration")
	}

	result := &RegenerateResult{Course: course, Job: job, Enrollment: enrollment}
	if !params.Synchronous {
		reqLog.Info("Enrollment queued for generation", "job_id", job.ID)
		return result, nil
	}

	artifact, err := c.runner.Run(ctx, GenerationRequest{
		CourseID:        params.CourseID,
		EmployeeID:      employeeID,
		JobID:           job.ID,
		Personalization: c.resolver.Resolve(ctx, employeeID),
	})
	if err != nil {
		return nil, err
	}
	result.Artifact = artifact
	if refreshed, err := c.enrollmentRepo.GetByID(ctx, nil, enrollment.ID); err == nil && refreshed != nil {
		result.Enrollment = refreshed
	}
	return result, nil
}

func (c *regenerationCoordinator) resolveEmployeeID(ctx context.Context, params RegenerateParams) uuid.UUID {
	if params.EmployeeID != nil && *params.EmployeeID != uuid.Nil {
		return *params.EmployeeID
	}
	mapping, err := c.mappingRepo.GetByUserID(ctx, nil, params.CallerID)
	if err != nil {
		c.log.Warn("Employee mapping lookup failed, using caller id", "caller_id", params.CallerID, "error", err)
		return params.CallerID
	}
	if mapping == nil {
		return params.CallerID
	}
	return mapping.EmployeeID
}

func (c *regenerationCoordinator) savePreferences(ctx context.Context, employeeID uuid.UUID, opts *PersonalizationOptions, reqLog *logger.Logger) {
	interests, err := json.Marshal(opts.Interests)
	if err != nil {
		reqLog.Warn("Failed to encode interests, skipping preference save", "error", err)
		return
	}
	pref := &types.LearningPreference{
		ID:         uuid.New(),
		EmployeeID: employeeID,
		Format:     opts.Format,
		WeeklyTime: opts.WeeklyTime,
		Interests:  datatypes.JSON(interests),
	}
	if err := c.prefRepo.Upsert(ctx, nil, pref); err != nil {
		reqLog.Warn("Failed to save learning preferences, continuing", "error", err)
	}
}

// purgeExistingContent removes every stored copy of generated content for the
// pair. Both the artifact table and the legacy generated_content table are
// cleared; missing either one lets stale content resurface after regeneration.
func (c *regenerationCoordinator) purgeExistingContent(ctx context.Context, courseID, employeeID, enrollmentID uuid.UUID) error {
	if err := c.artifactRepo.DeleteByPair(ctx, nil, courseID, employeeID); err != nil {
		return fmt.Errorf("failed to delete content artifacts: %w", err)
	}
	if err := c.legacyRepo.DeleteByPair(ctx, nil, courseID, employeeID); err != nil {
		return fmt.Errorf("failed to delete legacy generated content: %w", err)
	}
	if err := c.enrollmentRepo.UpdateFields(ctx, nil, enrollmentID, map[string]interface{}{
		"content_id": nil,
	}); err != nil {
		return fmt.Errorf("failed to clear enrollment content pointer: %w", err)
	}
	return nil
}
