package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	cartdomain "github.com/jcmexdev/storefront/internal/cart/domain"
	"github.com/jcmexdev/storefront/internal/order/domain"
	"github.com/jcmexdev/storefront/internal/pkg/kvstore"
)

var (
	ErrNotFound          = errors.New("order not found")
	ErrEmptyOrder        = errors.New("order has no items")
	ErrInvalidTransition = errors.New("invalid status transition")
)

// IdempotencyTTL is how long a placed order can be replayed by key.
const IdempotencyTTL = 24 * time.Hour

type Options struct {
	// Latency delays CreateOrder to stand in for a remote call.
	Latency time.Duration
	Now     func() time.Time
}

// Service is the in-process order stub: it snapshots carts into orders,
// keeps the history and persists it through the key-value store.
type Service struct {
	mu       sync.RWMutex
	history  []domain.Order
	byNumber map[string]int
	store    kvstore.Store
	latency  time.Duration
	now      func() time.Time

	// persistMu is held from taking a history snapshot until it is written,
	// so snapshots reach the store in the order they were taken.
	persistMu sync.Mutex
}

func NewService(store kvstore.Store, opts Options) *Service {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		byNumber: make(map[string]int),
		store:    store,
		latency:  opts.Latency,
		now:      now,
	}
}

// LoadHistory restores the persisted history. A corrupt value is discarded.
func (s *Service) LoadHistory(ctx context.Context) error {
	var orders []domain.Order
	_, err := kvstore.LoadJSON(ctx, s.store, s.historyKey(), &orders)
	if errors.Is(err, kvstore.ErrCorrupt) {
		slog.WarnContext(ctx, "discarding unreadable order history", "error", err)
		orders = nil
	} else if err != nil {
		return fmt.Errorf("load order history: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.history = orders
	s.byNumber = make(map[string]int, len(orders))
	for i, o := range orders {
		s.byNumber[o.OrderNumber] = i
	}
	return nil
}

// CreateOrder snapshots the request into a new pending order.
func (s *Service) CreateOrder(ctx context.Context, req domain.CreateOrderRequest) (domain.Order, error) {
	if err := s.wait(ctx); err != nil {
		return domain.Order{}, err
	}
	if req.IdempotencyKey != "" {
		existing, ok, err := s.replay(ctx, req.SessionID, req.IdempotencyKey)
		if err != nil {
			return domain.Order{}, err
		}
		// a cancelled order may be placed again under the same key
		if ok && existing.SessionID == req.SessionID && existing.Status != domain.StatusCancelled {
			slog.InfoContext(ctx, "order replayed for idempotency key",
				"order_number", existing.OrderNumber, "idempotency_key", req.IdempotencyKey)
			return existing, nil
		}
	}
	if len(req.Items) == 0 {
		return domain.Order{}, ErrEmptyOrder
	}

	items := cartdomain.Cart{Items: req.Items}.CloneItems()
	totals := cartdomain.ComputeTotals(items)
	createdAt := s.now().UTC()
	delivery := createdAt.Add(domain.DeliveryWindow)

	order := domain.Order{
		ID:                uuid.NewString(),
		Status:            domain.StatusPending,
		Items:             items,
		Subtotal:          totals.Subtotal,
		Shipping:          totals.ShippingFee,
		Tax:               totals.Tax,
		Total:             totals.Total,
		ShippingAddress:   req.ShippingAddress,
		PaymentMethod:     req.PaymentMethod,
		SessionID:         req.SessionID,
		IdempotencyKey:    req.IdempotencyKey,
		CreatedAt:         createdAt,
		UpdatedAt:         createdAt,
		EstimatedDelivery: &delivery,
	}
	if req.BillingAddress != nil {
		b := *req.BillingAddress
		order.BillingAddress = &b
	}

	s.persistMu.Lock()
	s.mu.Lock()
	for {
		order.OrderNumber = domain.NewOrderNumber(createdAt)
		if _, taken := s.byNumber[order.OrderNumber]; !taken {
			break
		}
	}
	s.byNumber[order.OrderNumber] = len(s.history)
	s.history = append(s.history, order)
	snapshot := s.cloneHistory()
	s.mu.Unlock()

	s.persist(ctx, snapshot)
	s.persistMu.Unlock()

	if req.SessionID != "" {
		if err := kvstore.SaveJSON(ctx, s.store, s.currentKey(req.SessionID), order, 0); err != nil {
			slog.ErrorContext(ctx, "failed to persist current order", "order_number", order.OrderNumber, "error", err)
		}
	}
	if req.IdempotencyKey != "" {
		if err := s.store.Set(ctx, s.idempotencyKey(req.SessionID, req.IdempotencyKey), order.OrderNumber, IdempotencyTTL); err != nil {
			slog.ErrorContext(ctx, "failed to record idempotency key", "order_number", order.OrderNumber, "error", err)
		}
	}

	slog.InfoContext(ctx, "order created",
		"order_id", order.ID,
		"order_number", order.OrderNumber,
		"total", order.Total,
	)
	return order.Clone(), nil
}

// TrackOrder looks an order up by its number.
func (s *Service) TrackOrder(orderNumber string) (domain.Order, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.byNumber[orderNumber]
	if !ok {
		return domain.Order{}, false
	}
	return s.history[i].Clone(), true
}

// CurrentOrder returns the last order placed by a session.
func (s *Service) CurrentOrder(ctx context.Context, sessionID string) (domain.Order, bool, error) {
	var order domain.Order
	found, err := kvstore.LoadJSON(ctx, s.store, s.currentKey(sessionID), &order)
	if errors.Is(err, kvstore.ErrCorrupt) {
		slog.WarnContext(ctx, "discarding unreadable current order", "session_id", sessionID, "error", err)
		return domain.Order{}, false, nil
	}
	if err != nil {
		return domain.Order{}, false, err
	}
	if !found {
		return domain.Order{}, false, nil
	}
	// the stored copy is written once; history carries the latest status
	if live, ok := s.TrackOrder(order.OrderNumber); ok {
		return live, true, nil
	}
	return order, true, nil
}

// Orders returns one page of the history, newest first, and the total count.
// page starts at 1.
func (s *Service) Orders(page, limit int) ([]domain.Order, int) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	s.mu.RLock()
	all := s.cloneHistory()
	s.mu.RUnlock()

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	if pages := (len(all) + limit - 1) / limit; page > pages {
		return []domain.Order{}, len(all)
	}
	start := (page - 1) * limit
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], len(all)
}

// UpdateStatus moves an order along its lifecycle. Shipping an order assigns
// a tracking number.
func (s *Service) UpdateStatus(ctx context.Context, orderNumber string, status domain.OrderStatus) (domain.Order, error) {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	s.mu.Lock()
	i, ok := s.byNumber[orderNumber]
	if !ok {
		s.mu.Unlock()
		return domain.Order{}, fmt.Errorf("%w: %s", ErrNotFound, orderNumber)
	}

	order := s.history[i]
	if !order.Status.CanTransition(status) {
		s.mu.Unlock()
		return domain.Order{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, order.Status, status)
	}

	order.Status = status
	order.UpdatedAt = s.now().UTC()
	if status == domain.StatusShipped && order.TrackingNumber == "" {
		order.TrackingNumber = domain.NewTrackingNumber()
	}
	s.history[i] = order
	snapshot := s.cloneHistory()
	s.mu.Unlock()

	s.persist(ctx, snapshot)
	slog.InfoContext(ctx, "order status updated", "order_number", orderNumber, "status", status)
	return order.Clone(), nil
}

func (s *Service) ConfirmOrder(ctx context.Context, orderNumber string) (domain.Order, error) {
	return s.UpdateStatus(ctx, orderNumber, domain.StatusConfirmed)
}

func (s *Service) CancelOrder(ctx context.Context, orderNumber string) (domain.Order, error) {
	return s.UpdateStatus(ctx, orderNumber, domain.StatusCancelled)
}

func (s *Service) replay(ctx context.Context, sessionID, key string) (domain.Order, bool, error) {
	number, err := s.store.Get(ctx, s.idempotencyKey(sessionID, key))
	if err != nil {
		return domain.Order{}, false, fmt.Errorf("read idempotency key: %w", err)
	}
	if number == "" {
		return domain.Order{}, false, nil
	}
	order, ok := s.TrackOrder(number)
	return order, ok, nil
}

func (s *Service) wait(ctx context.Context) error {
	if s.latency <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(s.latency)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (s *Service) persist(ctx context.Context, orders []domain.Order) {
	if err := kvstore.SaveJSON(ctx, s.store, s.historyKey(), orders, 0); err != nil {
		slog.ErrorContext(ctx, "failed to persist order history", "error", err)
	}
}

// cloneHistory must be called with s.mu held.
func (s *Service) cloneHistory() []domain.Order {
	out := make([]domain.Order, len(s.history))
	for i, o := range s.history {
		out[i] = o.Clone()
	}
	return out
}

func (s *Service) historyKey() string {
	return s.store.GenerateKey("orders", "history")
}

func (s *Service) currentKey(sessionID string) string {
	return s.store.GenerateKey("orders", "current:"+sessionID)
}

// idempotencyKey scopes key to the session that sent it.
func (s *Service) idempotencyKey(sessionID, key string) string {
	return s.store.GenerateKey("idempotency", sessionID+":"+key)
}
