package handlers

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/skillforge-hq/skillforge-backend/internal/logger"
	"github.com/skillforge-hq/skillforge-backend/internal/requestdata"
	"github.com/skillforge-hq/skillforge-backend/internal/sse"
	"github.com/skillforge-hq/skillforge-backend/internal/types"
)

type fakeMappingRepo struct {
	mapping *types.EmployeeMapping
	err     error
}

func (f *fakeMappingRepo) GetByUserID(context.Context, *gorm.DB, uuid.UUID) (*types.EmployeeMapping, error) {
	return f.mapping, f.err
}

func (f *fakeMappingRepo) Upsert(context.Context, *gorm.DB, *types.EmployeeMapping) error {
	return nil
}

func newEventsFixture(t *testing.T, mappingRepo *fakeMappingRepo) (*EventsHandler, *sse.Hub) {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	hub := sse.NewHub(log)
	return NewEventsHandler(log, hub, mappingRepo), hub
}

func receive(t *testing.T, client *sse.Client) sse.Message {
	t.Helper()
	select {
	case msg := <-client.Outbound:
		return msg
	default:
		t.Fatal("no message delivered")
		return sse.Message{}
	}
}

func TestStreamSubscribesMappedEmployeeChannel(t *testing.T) {
	userID := uuid.New()
	employeeID := uuid.New()
	handler, hub := newEventsFixture(t, &fakeMappingRepo{
		mapping: &types.EmployeeMapping{UserID: userID, EmployeeID: employeeID},
	})

	client := hub.NewClient()
	handler.subscribeCaller(context.Background(), client, &requestdata.RequestData{UserID: userID}, "")

	// Progress events are published on the employee channel; a mapped caller
	// must receive them without passing ?employee_id=.
	hub.Broadcast(sse.Message{Channel: employeeID.String(), Event: sse.EventJobProgress})
	if msg := receive(t, client); msg.Channel != employeeID.String() {
		t.Fatalf("channel=%q want=%q", msg.Channel, employeeID)
	}

	hub.Broadcast(sse.Message{Channel: userID.String(), Event: sse.EventJobCompleted})
	if msg := receive(t, client); msg.Channel != userID.String() {
		t.Fatalf("channel=%q want=%q", msg.Channel, userID)
	}
}

func TestStreamWithoutMappingUsesCallerChannel(t *testing.T) {
	userID := uuid.New()
	handler, hub := newEventsFixture(t, &fakeMappingRepo{})

	client := hub.NewClient()
	handler.subscribeCaller(context.Background(), client, &requestdata.RequestData{UserID: userID}, "")

	hub.Broadcast(sse.Message{Channel: userID.String(), Event: sse.EventJobProgress})
	if msg := receive(t, client); msg.Channel != userID.String() {
		t.Fatalf("channel=%q want=%q", msg.Channel, userID)
	}
}

func TestStreamExplicitEmployeeChannel(t *testing.T) {
	userID := uuid.New()
	explicit := uuid.New()
	handler, hub := newEventsFixture(t, &fakeMappingRepo{})

	client := hub.NewClient()
	handler.subscribeCaller(context.Background(), client, &requestdata.RequestData{UserID: userID}, explicit.String())

	hub.Broadcast(sse.Message{Channel: explicit.String(), Event: sse.EventJobProgress})
	if msg := receive(t, client); msg.Channel != explicit.String() {
		t.Fatalf("channel=%q want=%q", msg.Channel, explicit)
	}
}
