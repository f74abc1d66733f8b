package services

import (
	"context"

	"github.com/skillforge-hq/skillforge-backend/internal/clients/redisbus"
	"github.com/skillforge-hq/skillforge-backend/internal/logger"
	"github.com/skillforge-hq/skillforge-backend/internal/sse"
	"github.com/skillforge-hq/skillforge-backend/internal/types"
)

// ProgressNotifier pushes job lifecycle events to listening clients.
type ProgressNotifier interface {
	JobProgress(ctx context.Context, job *types.GenerationJob)
	JobCompleted(ctx context.Context, job *types.GenerationJob)
	JobFailed(ctx context.Context, job *types.GenerationJob)
}

type progressNotifier struct {
	log *logger.Logger
	hub *sse.Hub
	bus *redisbus.Bus
}

func NewProgressNotifier(log *logger.Logger, hub *sse.Hub, bus *redisbus.Bus) ProgressNotifier {
	return &progressNotifier{
		log: log.With("service", "ProgressNotifier"),
		hub: hub,
		bus: bus,
	}
}

func (n *progressNotifier) JobProgress(ctx context.Context, job *types.GenerationJob) {
	n.emit(ctx, sse.EventJobProgress, job)
}

func (n *progressNotifier) JobCompleted(ctx context.Context, job *types.GenerationJob) {
	n.emit(ctx, sse.EventJobCompleted, job)
}

func (n *progressNotifier) JobFailed(ctx context.Context, job *types.GenerationJob) {
	n.emit(ctx, sse.EventJobFailed, job)
}

func (n *progressNotifier) emit(ctx context.Context, event sse.Event, job *types.GenerationJob) {
	if job == nil {
		return
	}
	msg := sse.Message{
		Channel: job.EmployeeID.String(),
		Event:   event,
		Data: map[string]any{
			"job_id":           job.ID,
			"course_id":        job.CourseID,
			"status":           job.Status,
			"current_step":     job.CurrentStep,
			"total_steps":      job.TotalSteps,
			"progress":         job.Progress,
			"step_description": job.StepDescription,
			"error_message":    job.ErrorMessage,
		},
	}
	// When a bus is configured the forwarder delivers back into every hub,
	// including this one, so publishing locally as well would double-send.
	if n.bus != nil {
		if err := n.bus.Publish(ctx, msg); err != nil {
			n.log.Warn("Bus publish failed, falling back to local broadcast", "error", err)
			n.hub.Broadcast(msg)
		}
		return
	}
	n.hub.Broadcast(msg)
}
