package services

import (
	"context"
	"time"

	"github.com/skillforge-hq/skillforge-backend/internal/logger"
	"github.com/skillforge-hq/skillforge-backend/internal/repos"
	"github.com/skillforge-hq/skillforge-backend/internal/types"
)

// Reconciler repairs enrollments that drifted from the artifact store.
// Artifact persistence and the enrollment update are separate writes, so a
// crash between them leaves an enrollment generating/failed while an active
// artifact exists. The sweep re-derives enrollment state from the artifacts.
type Reconciler interface {
	ReconcileEnrollments(ctx context.Context) (int, error)
}

type reconciler struct {
	log            *logger.Logger
	enrollmentRepo repos.EnrollmentRepo
	artifactRepo   repos.ContentArtifactRepo
}

func NewReconciler(log *logger.Logger, enrollmentRepo repos.EnrollmentRepo, artifactRepo repos.ContentArtifactRepo) Reconciler {
	return &reconciler{
		log:            log.With("service", "Reconciler"),
		enrollmentRepo: enrollmentRepo,
		artifactRepo:   artifactRepo,
	}
}

func (r *reconciler) ReconcileEnrollments(ctx context.Context) (int, error) {
	candidates, err := r.enrollmentRepo.ListIncompleteWithContentCandidates(ctx, nil, 100)
	if err != nil {
		return 0, err
	}
	fixed := 0
	for _, enrollment := range candidates {
		artifact, err := r.artifactRepo.GetActiveByPair(ctx, nil, enrollment.CourseID, enrollment.EmployeeID)
		if err != nil {
			r.log.Warn("Artifact lookup failed during sweep", "enrollment_id", enrollment.ID, "error", err)
			continue
		}
		if artifact == nil {
			continue
		}
		now := time.Now().UTC()
		if err := r.enrollmentRepo.UpdateFields(ctx, nil, enrollment.ID, map[string]interface{}{
			"generation_status": types.GenerationStatusCompleted,
			"content_id":        artifact.ID,
			"error_message":     "",
			"completed_at":      now,
		}); err != nil {
			r.log.Warn("Failed to repair enrollment", "enrollment_id", enrollment.ID, "error", err)
			continue
		}
		r.log.Info("Repaired enrollment from active artifact", "enrollment_id", enrollment.ID, "artifact_id", artifact.ID)
		fixed++
	}
	return fixed, nil
}
