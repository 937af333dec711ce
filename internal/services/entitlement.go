package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/misty-step/bibliomnomnom/internal/repository"
)

// EntitlementService answers whether a user may run voice session
// processing. Backed by the subscriptions table; the billing system that
// writes those rows lives outside this service.
type EntitlementService struct {
	subscriptions *repository.SubscriptionRepo
}

func NewEntitlementService(subscriptions *repository.SubscriptionRepo) *EntitlementService {
	return &EntitlementService{subscriptions: subscriptions}
}

func (s *EntitlementService) HasAccess(ctx context.Context, userID uuid.UUID) (bool, error) {
	return s.subscriptions.HasActiveSubscription(ctx, userID)
}
