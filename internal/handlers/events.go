package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/skillforge-hq/skillforge-backend/internal/logger"
	"github.com/skillforge-hq/skillforge-backend/internal/repos"
	"github.com/skillforge-hq/skillforge-backend/internal/requestdata"
	"github.com/skillforge-hq/skillforge-backend/internal/sse"
)

type EventsHandler struct {
	log         *logger.Logger
	hub         *sse.Hub
	mappingRepo repos.EmployeeMappingRepo
}

func NewEventsHandler(log *logger.Logger, hub *sse.Hub, mappingRepo repos.EmployeeMappingRepo) *EventsHandler {
	return &EventsHandler{
		log:         log.With("Handler", "EventsHandler"),
		hub:         hub,
		mappingRepo: mappingRepo,
	}
}

// GET /api/events/stream
// Subscribes the caller to their own progress channels and streams until the
// connection drops.
func (h *EventsHandler) Stream(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", fmt.Errorf("missing caller identity"))
		return
	}
	client := h.hub.NewClient()
	h.subscribeCaller(c.Request.Context(), client, rd, c.Query("employee_id"))
	defer h.hub.RemoveClient(client)
	h.hub.ServeHTTP(c.Writer, c.Request, client)
}

// subscribeCaller joins the caller's user channel and, when a mapping exists,
// the employee channel progress events are published on.
func (h *EventsHandler) subscribeCaller(ctx context.Context, client *sse.Client, rd *requestdata.RequestData, explicitEmployeeID string) {
	h.hub.Subscribe(client, rd.UserID.String())
	mapping, err := h.mappingRepo.GetByUserID(ctx, nil, rd.UserID)
	if err != nil {
		h.log.Warn("Could not resolve employee mapping for event stream", "user_id", rd.UserID, "error", err)
	} else if mapping != nil && mapping.EmployeeID != rd.UserID {
		h.hub.Subscribe(client, mapping.EmployeeID.String())
	}
	if explicitEmployeeID != "" {
		h.hub.Subscribe(client, explicitEmployeeID)
	}
}
