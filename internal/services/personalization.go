package services

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/skillforge-hq/skillforge-backend/internal/content"
	"github.com/skillforge-hq/skillforge-backend/internal/logger"
	"github.com/skillforge-hq/skillforge-backend/internal/repos"
)

// PersonalizationResolver folds an employee's profile and stored learning
// preferences into the context handed to the generation strategies. Missing
// data never blocks a run; generation degrades to generic content instead.
type PersonalizationResolver interface {
	Resolve(ctx context.Context, employeeID uuid.UUID) content.PersonalizationContext
}

type personalizationResolver struct {
	log          *logger.Logger
	employeeRepo repos.EmployeeRepo
	prefRepo     repos.LearningPreferenceRepo
}

func NewPersonalizationResolver(log *logger.Logger, employeeRepo repos.EmployeeRepo, prefRepo repos.LearningPreferenceRepo) PersonalizationResolver {
	return &personalizationResolver{
		log:          log.With("service", "PersonalizationResolver"),
		employeeRepo: employeeRepo,
		prefRepo:     prefRepo,
	}
}

func (r *personalizationResolver) Resolve(ctx context.Context, employeeID uuid.UUID) content.PersonalizationContext {
	pc := content.PersonalizationContext{}

	employee, err := r.employeeRepo.GetByID(ctx, nil, employeeID)
	if err != nil {
		r.log.Warn("Failed to load employee profile", "employee_id", employeeID, "error", err)
	}
	if employee != nil {
		pc.Name = employee.Name
		pc.Position = employee.Position
		pc.Department = employee.Department
		pc.ProfileSummary = employee.ProfileSummary
	}

	pref, err := r.prefRepo.GetByEmployeeID(ctx, nil, employeeID)
	if err != nil {
		r.log.Warn("Failed to load learning preferences", "employee_id", employeeID, "error", err)
	}
	if pref != nil {
		pc.Format = pref.Format
		pc.WeeklyTime = pref.WeeklyTime
		if len(pref.Interests) > 0 {
			var interests []string
			if err := json.Unmarshal(pref.Interests, &interests); err != nil {
				r.log.Warn("Malformed interests payload", "employee_id", employeeID, "error", err)
			} else {
				pc.Interests = interests
			}
		}
	}
	return pc
}
