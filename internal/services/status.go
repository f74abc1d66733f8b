package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/skillforge-hq/skillforge-backend/internal/logger"
	"github.com/skillforge-hq/skillforge-backend/internal/repos"
	"github.com/skillforge-hq/skillforge-backend/internal/types"
)

// GenerationStatusService serves read-only job lookups for the status
// endpoints.
type GenerationStatusService interface {
	GetLatestForCourse(ctx context.Context, courseID, callerID uuid.UUID) (*types.GenerationJob, error)
	GetJobByID(ctx context.Context, jobID uuid.UUID) (*types.GenerationJob, error)
}

type generationStatusService struct {
	log         *logger.Logger
	jobRepo     repos.GenerationJobRepo
	mappingRepo repos.EmployeeMappingRepo
}

func NewGenerationStatusService(log *logger.Logger, jobRepo repos.GenerationJobRepo, mappingRepo repos.EmployeeMappingRepo) GenerationStatusService {
	return &generationStatusService{
		log:         log.With("service", "GenerationStatusService"),
		jobRepo:     jobRepo,
		mappingRepo: mappingRepo,
	}
}

func (s *generationStatusService) GetLatestForCourse(ctx context.Context, courseID, callerID uuid.UUID) (*types.GenerationJob, error) {
	employeeID := callerID
	mapping, err := s.mappingRepo.GetByUserID(ctx, nil, callerID)
	if err != nil {
		s.log.Warn("Employee mapping lookup failed, using caller id", "caller_id", callerID, "error", err)
	} else if mapping != nil {
		employeeID = mapping.EmployeeID
	}
	return s.jobRepo.GetLatestByPair(ctx, nil, courseID, employeeID)
}

func (s *generationStatusService) GetJobByID(ctx context.Context, jobID uuid.UUID) (*types.GenerationJob, error) {
	return s.jobRepo.GetByID(ctx, nil, jobID)
}
