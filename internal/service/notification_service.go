package service

import (
	"context"
	"time"

	"backend/internal/repository"
	"backend/internal/workflow"
)

type NotificationResponse struct {
	ID         string `json:"id"`
	TargetRole string `json:"target_role"`
	OrderID    string `json:"order_id"`
	Title      string `json:"title"`
	Body       string `json:"body"`
	CreatedAt  string `json:"created_at"`
}

type NotificationService interface {
	ListForRole(ctx context.Context, role workflow.Role, page, limit int) ([]NotificationResponse, int64, error)
}

type notificationService struct {
	repo repository.NotificationRepository
}

func NewNotificationService(repo repository.NotificationRepository) NotificationService {
	return &notificationService{repo: repo}
}

func (s *notificationService) ListForRole(ctx context.Context, role workflow.Role, page, limit int) ([]NotificationResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	notifications, total, err := s.repo.ListByRole(ctx, string(role), page, limit)
	if err != nil {
		return nil, 0, err
	}

	res := make([]NotificationResponse, 0, len(notifications))
	for _, n := range notifications {
		res = append(res, NotificationResponse{
			ID:         n.ID.String(),
			TargetRole: n.TargetRole,
			OrderID:    n.OrderID.String(),
			Title:      n.Title,
			Body:       n.Body,
			CreatedAt:  n.CreatedAt.Format(time.RFC3339),
		})
	}
	return res, total, nil
}
