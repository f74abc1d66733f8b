package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/skillforge-hq/skillforge-backend/internal/content"
	"github.com/skillforge-hq/skillforge-backend/internal/logger"
	"github.com/skillforge-hq/skillforge-backend/internal/repos"
	"github.com/skillforge-hq/skillforge-backend/internal/types"
)

type GenerationRequest struct {
	CourseID        uuid.UUID
	EmployeeID      uuid.UUID
	JobID           uuid.UUID
	Personalization content.PersonalizationContext
}

// PipelineRunner executes one full content generation run for an enrollment.
// Module generation itself cannot fail (the strategy chain always produces
// text); only persistence can, and a persistence failure marks both the job
// and the enrollment failed.
type PipelineRunner interface {
	Run(ctx context.Context, req GenerationRequest) (*types.ContentArtifact, error)
}

type pipelineRunner struct {
	log            *logger.Logger
	courseRepo     repos.CourseRepo
	enrollmentRepo repos.EnrollmentRepo
	artifactRepo   repos.ContentArtifactRepo
	tracker        JobTracker
	chain          *content.Chain
}

func NewPipelineRunner(
	log *logger.Logger,
	courseRepo repos.CourseRepo,
	enrollmentRepo repos.EnrollmentRepo,
	artifactRepo repos.ContentArtifactRepo,
	tracker JobTracker,
	chain *content.Chain,
) PipelineRunner {
	return &pipelineRunner{
		log:            log.With("service", "PipelineRunner"),
		courseRepo:     courseRepo,
		enrollmentRepo: enrollmentRepo,
		artifactRepo:   artifactRepo,
		tracker:        tracker,
		chain:          chain,
	}
}

func (p *pipelineRunner) Run(ctx context.Context, req GenerationRequest) (*types.ContentArtifact, error) {
	runLog := p.log.With("job_id", req.JobID, "course_id", req.CourseID, "employee_id", req.EmployeeID)

	progress := func(step int, description string) {
		if err := p.tracker.Advance(ctx, req.JobID, step, description); err != nil {
			runLog.Warn("Failed to record pipeline progress", "step", step, "error", err)
		}
	}
	fail := func(cause error) error {
		if err := p.tracker.Fail(ctx, req.JobID, cause); err != nil {
			runLog.Warn("Failed to mark job failed", "error", err)
		}
		p.markEnrollmentFailed(ctx, req, cause)
		return cause
	}

	progress(1, "Initializing content generation")
	course, err := p.courseRepo.GetByID(ctx, nil, req.CourseID)
	if err != nil {
		return nil, fail(fmt.Errorf("failed to load course: %w", err))
	}
	if course == nil {
		return nil, fail(ErrCourseNotFound)
	}

	progress(2, "Starting multi-strategy generation")
	outline := content.BuildOutline(course)

	modules := make([]types.ContentModule, 0, len(outline.Modules))
	strategies := map[string]string{}
	for i, mod := range outline.Modules {
		progress(3+i, fmt.Sprintf("Generating module %d of %d: %s", i+1, len(outline.Modules), mod.Title))
		modReq := content.ModuleRequest{
			Course:  course,
			Module:  mod,
			Learner: req.Personalization,
		}
		raw, strategy := p.chain.Generate(ctx, modReq)
		strategies[mod.ID] = strategy
		modules = append(modules, types.ContentModule{
			ID:          mod.ID,
			Title:       mod.Title,
			Description: mod.Description,
			Order:       mod.Order,
			Sections:    content.AssembleSections(modReq, raw),
			Resources:   []string{},
		})
	}

	progress(6, "Assembling personalized course")
	modulesJSON, err := json.Marshal(modules)
	if err != nil {
		return nil, fail(fmt.Errorf("failed to encode modules: %w", err))
	}
	metadata, err := json.Marshal(map[string]any{
		"job_id":       req.JobID,
		"generated_at": time.Now().UTC().Format(time.RFC3339),
		"strategies":   strategies,
		"personalization": map[string]any{
			"format":      req.Personalization.Format,
			"weekly_time": req.Personalization.WeeklyTime,
			"interests":   req.Personalization.Interests,
		},
		"employee": map[string]any{
			"name":            req.Personalization.Name,
			"position":        req.Personalization.Position,
			"department":      req.Personalization.Department,
			"profile_summary": req.Personalization.ProfileSummary,
		},
	})
	if err != nil {
		return nil, fail(fmt.Errorf("failed to encode artifact metadata: %w", err))
	}
	artifact := &types.ContentArtifact{
		ID:          uuid.New(),
		CourseID:    req.CourseID,
		EmployeeID:  req.EmployeeID,
		Title:       course.Title,
		Description: course.Description,
		Level:       course.Difficulty,
		Modules:     datatypes.JSON(modulesJSON),
		Metadata:    datatypes.JSON(metadata),
		Active:      true,
	}

	progress(7, "Persisting generated content")
	if err := p.artifactRepo.DeactivateByPair(ctx, nil, req.CourseID, req.EmployeeID); err != nil {
		return nil, fail(fmt.Errorf("failed to deactivate prior content: %w", err))
	}
	if _, err := p.artifactRepo.Create(ctx, nil, []*types.ContentArtifact{artifact}); err != nil {
		return nil, fail(fmt.Errorf("failed to persist content artifact: %w", err))
	}

	progress(8, "Updating enrollment")
	if err := p.markEnrollmentCompleted(ctx, req, artifact.ID); err != nil {
		return nil, fail(fmt.Errorf("failed to update enrollment: %w", err))
	}

	if err := p.tracker.Complete(ctx, req.JobID); err != nil {
		runLog.Warn("Failed to mark job completed", "error", err)
	}
	runLog.Info("Generation pipeline finished", "artifact_id", artifact.ID, "modules", len(modules))
	return artifact, nil
}

func (p *pipelineRunner) markEnrollmentCompleted(ctx context.Context, req GenerationRequest, artifactID uuid.UUID) error {
	enrollment, err := p.enrollmentRepo.GetByPair(ctx, nil, req.EmployeeID, req.CourseID)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	if enrollment == nil {
		_, err := p.enrollmentRepo.Create(ctx, nil, []*types.Enrollment{{
			ID:               uuid.New(),
			EmployeeID:       req.EmployeeID,
			CourseID:         req.CourseID,
			GenerationStatus: types.GenerationStatusCompleted,
			GenerationJobID:  &req.JobID,
			ContentID:        &artifactID,
			CompletedAt:      &now,
		}})
		return err
	}
	return p.enrollmentRepo.UpdateFields(ctx, nil, enrollment.ID, map[string]interface{}{
		"generation_status": types.GenerationStatusCompleted,
		"generation_job_id": req.JobID,
		"content_id":        artifactID,
		"error_message":     "",
		"completed_at":      now,
	})
}

func (p *pipelineRunner) markEnrollmentFailed(ctx context.Context, req GenerationRequest, cause error) {
	enrollment, err := p.enrollmentRepo.GetByPair(ctx, nil, req.EmployeeID, req.CourseID)
	if err != nil || enrollment == nil {
		p.log.Warn("Could not load enrollment to record failure", "course_id", req.CourseID, "employee_id", req.EmployeeID, "error", err)
		return
	}
	msg := "content generation failed"
	if cause != nil {
		msg = cause.Error()
	}
	if err := p.enrollmentRepo.UpdateFields(ctx, nil, enrollment.ID, map[string]interface{}{
		"generation_status": types.GenerationStatusFailed,
		"error_message":     msg,
	}); err != nil {
		p.log.Warn("Failed to record enrollment failure", "enrollment_id", enrollment.ID, "error", err)
	}
}
