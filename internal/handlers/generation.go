package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/skillforge-hq/skillforge-backend/internal/logger"
	"github.com/skillforge-hq/skillforge-backend/internal/requestdata"
	"github.com/skillforge-hq/skillforge-backend/internal/services"
)

type GenerationHandler struct {
	log         *logger.Logger
	coordinator services.RegenerationCoordinator
	statusSvc   services.GenerationStatusService
}

func NewGenerationHandler(log *logger.Logger, coordinator services.RegenerationCoordinator, statusSvc services.GenerationStatusService) *GenerationHandler {
	return &GenerationHandler{
		log:         log.With("Handler", "GenerationHandler"),
		coordinator: coordinator,
		statusSvc:   statusSvc,
	}
}

type generateContentRequest struct {
	EmployeeID      *uuid.UUID                       `json:"employee_id"`
	Personalization *services.PersonalizationOptions `json:"personalization"`
}

type regenerateContentRequest struct {
	EmployeeID      *uuid.UUID                       `json:"employee_id"`
	Personalization *services.PersonalizationOptions `json:"personalization"`
	ForceRegenerate bool                             `json:"force_regenerate"`
	Synchronous     bool                             `json:"synchronous"`
}

// POST /api/courses/:id/generate-content
func (h *GenerationHandler) GenerateContent(c *gin.Context) {
	courseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_course_id", fmt.Errorf("invalid course id"))
		return
	}
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", fmt.Errorf("missing caller identity"))
		return
	}

	var req generateContentRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			RespondError(c, http.StatusBadRequest, "invalid_body", err)
			return
		}
	}

	result, err := h.coordinator.Regenerate(c.Request.Context(), services.RegenerateParams{
		CourseID:    courseID,
		CallerID:    rd.UserID,
		EmployeeID:  req.EmployeeID,
		Options:     req.Personalization,
		Synchronous: true,
	})
	if err != nil {
		h.respondRegenerateError(c, err)
		return
	}
	RespondOK(c, gin.H{
		"success":    true,
		"course":     result.Course,
		"job":        result.Job,
		"enrollment": result.Enrollment,
		"content":    result.Artifact,
	})
}

// POST /api/courses/:id/regenerate-content
func (h *GenerationHandler) RegenerateContent(c *gin.Context) {
	courseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_course_id", fmt.Errorf("invalid course id"))
		return
	}
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", fmt.Errorf("missing caller identity"))
		return
	}

	var req regenerateContentRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			RespondError(c, http.StatusBadRequest, "invalid_body", err)
			return
		}
	}

	result, err := h.coordinator.Regenerate(c.Request.Context(), services.RegenerateParams{
		CourseID:        courseID,
		CallerID:        rd.UserID,
		EmployeeID:      req.EmployeeID,
		Options:         req.Personalization,
		ForceRegenerate: req.ForceRegenerate,
		Synchronous:     req.Synchronous,
	})
	if err != nil {
		h.respondRegenerateError(c, err)
		return
	}
	payload := gin.H{
		"success":    true,
		"course":     result.Course,
		"job":        result.Job,
		"enrollment": result.Enrollment,
	}
	if result.Artifact != nil {
		payload["content"] = result.Artifact
	}
	RespondOK(c, payload)
}

// GET /api/courses/:id/generation
func (h *GenerationHandler) GetLatestForCourse(c *gin.Context) {
	courseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_course_id", fmt.Errorf("invalid course id"))
		return
	}
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", fmt.Errorf("missing caller identity"))
		return
	}
	job, err := h.statusSvc.GetLatestForCourse(c.Request.Context(), courseID, rd.UserID)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "lookup_failed", err)
		return
	}
	// job is nil when nothing has been generated yet
	RespondOK(c, gin.H{"job": job})
}

// GET /api/generation-jobs/:id
func (h *GenerationHandler) GetJobByID(c *gin.Context) {
	jobID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_job_id", fmt.Errorf("invalid job id"))
		return
	}
	job, err := h.statusSvc.GetJobByID(c.Request.Context(), jobID)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "lookup_failed", err)
		return
	}
	if job == nil {
		RespondError(c, http.StatusNotFound, "job_not_found", fmt.Errorf("generation job not found"))
		return
	}
	RespondOK(c, gin.H{"job": job})
}

func (h *GenerationHandler) respondRegenerateError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrCourseNotFound):
		RespondError(c, http.StatusNotFound, "course_not_found", err)
	case errors.Is(err, services.ErrEmployeeNotFound):
		RespondError(c, http.StatusNotFound, "employee_not_found", err)
	default:
		h.log.Error("Generation request failed", "error", err)
		RespondError(c, http.StatusInternalServerError, "generation_failed", err)
	}
}
