package notify

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"backend/internal/model"
	"backend/internal/repository"
	"backend/internal/websocket"
	"backend/internal/workflow"

	"github.com/google/uuid"
)

// wsPayload is the shape pushed to connected clients
type wsPayload struct {
	Type      string `json:"type"`
	OrderID   string `json:"order_id"`
	Title     string `json:"title"`
	Body      string `json:"body"`
	CreatedAt string `json:"created_at"`
}

// Dispatcher persists a notification row and pushes it to connected clients
// of the target role. Both sides are best-effort: a failure is logged and
// never surfaces to the workflow operation that triggered it.
type Dispatcher struct {
	repo repository.NotificationRepository
	hub  *websocket.Hub
}

func NewDispatcher(repo repository.NotificationRepository, hub *websocket.Hub) *Dispatcher {
	return &Dispatcher{repo: repo, hub: hub}
}

func (d *Dispatcher) Notify(ctx context.Context, role workflow.Role, orderID uuid.UUID, title, body string) {
	n := &model.Notification{
		TargetRole: string(role),
		OrderID:    orderID,
		Title:      title,
		Body:       body,
	}
	if err := d.repo.Create(ctx, n); err != nil {
		log.Printf("notify: failed to persist notification for role %s: %v", role, err)
	}

	data, err := json.Marshal(wsPayload{
		Type:      "workflow_notification",
		OrderID:   orderID.String(),
		Title:     title,
		Body:      body,
		CreatedAt: time.Now().Format(time.RFC3339),
	})
	if err != nil {
		log.Printf("notify: failed to encode notification: %v", err)
		return
	}
	d.hub.Publish(string(role), data)
}
