package orders

import (
	"context"
	"fmt"

	"github.com/jeziellopes/observability/internal/logging"
)

// Service stores orders and emits their events.
type Service struct {
	store *Store
	pub   EventPublisher
	log   logging.Logger
}

func NewService(store *Store, pub EventPublisher, log logging.Logger) *Service {
	return &Service{
		store: store,
		pub:   pub,
		log:   log.With("component", "orders_service"),
	}
}

// CreateOrder validates, stores, and publishes an order_created event. The
// order is stored even when publishing fails; the error tells the caller
// the event did not go out.
func (s *Service) CreateOrder(ctx context.Context, userID int64, userName string, total float64) (*Order, error) {
	if userName == "" {
		return nil, fmt.Errorf("%w: user name required", ErrInvalidOrder)
	}
	if userID <= 0 {
		return nil, fmt.Errorf("%w: user id required", ErrInvalidOrder)
	}
	if total < 0 {
		return nil, fmt.Errorf("%w: total must be >= 0", ErrInvalidOrder)
	}

	o := s.store.Create(Order{UserID: userID, UserName: userName, Total: total})
	s.log.Info("order created", "order_id", o.ID, "user_id", o.UserID, "total", o.Total)

	if err := s.pub.PublishOrderCreated(ctx, o); err != nil {
		s.log.Error("order event not published", "order_id", o.ID, "error", err)
		return o, fmt.Errorf("orders: publish created event: %w", err)
	}
	return o, nil
}

func (s *Service) GetOrder(_ context.Context, id int64) (*Order, error) {
	o, ok := s.store.Get(id)
	if !ok {
		return nil, ErrNotFound
	}
	return o, nil
}

func (s *Service) ListOrders(_ context.Context) []*Order {
	return s.store.List()
}
