package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/skillforge-hq/skillforge-backend/internal/logger"
	"github.com/skillforge-hq/skillforge-backend/internal/services"
)

type QueueHandler struct {
	log        *logger.Logger
	queue      services.QueueProcessor
	reconciler services.Reconciler
}

func NewQueueHandler(log *logger.Logger, queue services.QueueProcessor, reconciler services.Reconciler) *QueueHandler {
	return &QueueHandler{
		log:        log.With("Handler", "QueueHandler"),
		queue:      queue,
		reconciler: reconciler,
	}
}

type processQueueRequest struct {
	Limit     int  `json:"limit"`
	Reconcile bool `json:"reconcile"`
}

// POST /api/queue/process
func (h *QueueHandler) ProcessQueue(c *gin.Context) {
	var req processQueueRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			RespondError(c, http.StatusBadRequest, "invalid_body", err)
			return
		}
	}
	result, err := h.queue.ProcessPending(c.Request.Context(), req.Limit)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "queue_failed", err)
		return
	}
	payload := gin.H{"success": true, "result": result}
	if req.Reconcile {
		fixed, err := h.reconciler.ReconcileEnrollments(c.Request.Context())
		if err != nil {
			h.log.Warn("Reconciliation sweep failed", "error", err)
		}
		payload["reconciled"] = fixed
	}
	RespondOK(c, payload)
}

// POST /api/enrollments/:id/retry
func (h *QueueHandler) RetryEnrollment(c *gin.Context) {
	enrollmentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_enrollment_id", fmt.Errorf("invalid enrollment id"))
		return
	}
	result, err := h.queue.TriggerOne(c.Request.Context(), enrollmentID)
	if err != nil {
		if errors.Is(err, services.ErrEnrollmentNotFound) {
			RespondError(c, http.StatusNotFound, "enrollment_not_found", err)
			return
		}
		RespondError(c, http.StatusInternalServerError, "retry_failed", err)
		return
	}
	RespondOK(c, gin.H{"success": true, "result": result})
}
