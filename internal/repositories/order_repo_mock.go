package repositories

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"vuela/internal/models"
)

// MockOrderRepository is an in-memory implementation of OrderRepository, used
// in tests and when running without a database.
type MockOrderRepository struct {
	orders map[uint]models.Order
	nextID uint
	mu     sync.RWMutex
}

// NewMockOrderRepository creates a new instance of MockOrderRepository.
func NewMockOrderRepository() *MockOrderRepository {
	return &MockOrderRepository{
		orders: make(map[uint]models.Order),
		nextID: 1,
	}
}

// Create adds a new order, assigning id and created_at like the real store.
func (r *MockOrderRepository) Create(order *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if order.ID == 0 {
		order.ID = r.nextID
		r.nextID++
	}
	order.CreatedAt = time.Now()
	r.orders[order.ID] = *order
	return nil
}

// GetByID returns an order by its id.
func (r *MockOrderRepository) GetByID(id uint) (*models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.orders[id]
	if !ok {
		return nil, fmt.Errorf("order %d: %w", id, ErrNotFound)
	}
	return &order, nil
}

// GetByUser returns all orders of a customer, newest first.
func (r *MockOrderRepository) GetByUser(userID int64) ([]models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var orders []models.Order
	for _, order := range r.orders {
		if order.UserID == userID {
			orders = append(orders, order)
		}
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].CreatedAt.After(orders[j].CreatedAt) })
	return orders, nil
}

// FirstByUserAndStatus returns the oldest order of a user in the given status.
func (r *MockOrderRepository) FirstByUserAndStatus(userID int64, status models.OrderStatus) (*models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var found *models.Order
	for id := range r.orders {
		order := r.orders[id]
		if order.UserID != userID || order.Status != status {
			continue
		}
		if found == nil || order.CreatedAt.Before(found.CreatedAt) {
			candidate := order
			found = &candidate
		}
	}
	if found == nil {
		return nil, ErrNotFound
	}
	return found, nil
}

// ListByStatus returns all orders in a status bucket, newest first.
func (r *MockOrderRepository) ListByStatus(status models.OrderStatus) ([]models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var orders []models.Order
	for _, order := range r.orders {
		if order.Status == status {
			orders = append(orders, order)
		}
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].CreatedAt.After(orders[j].CreatedAt) })
	return orders, nil
}

// ListRecent returns the latest orders across all statuses.
func (r *MockOrderRepository) ListRecent(limit int) ([]models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	orders := make([]models.Order, 0, len(r.orders))
	for _, order := range r.orders {
		orders = append(orders, order)
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].CreatedAt.After(orders[j].CreatedAt) })
	if len(orders) > limit {
		orders = orders[:limit]
	}
	return orders, nil
}

// ListByTravelDate returns orders with fecha in [from, to], ascending.
func (r *MockOrderRepository) ListByTravelDate(from, to string, statuses []models.OrderStatus) ([]models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	allowed := make(map[models.OrderStatus]bool, len(statuses))
	for _, s := range statuses {
		allowed[s] = true
	}

	var orders []models.Order
	for _, order := range r.orders {
		if order.TravelDate == nil || *order.TravelDate < from || *order.TravelDate > to {
			continue
		}
		if len(statuses) > 0 && !allowed[order.Status] {
			continue
		}
		orders = append(orders, order)
	}
	sort.Slice(orders, func(i, j int) bool { return *orders[i].TravelDate < *orders[j].TravelDate })
	return orders, nil
}

// CountDistinctUsers counts unique customers across all orders.
func (r *MockOrderRepository) CountDistinctUsers() (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[int64]bool)
	for _, order := range r.orders {
		seen[order.UserID] = true
	}
	return int64(len(seen)), nil
}

// CountByStatuses counts orders whose status is in the given set.
func (r *MockOrderRepository) CountByStatuses(statuses []models.OrderStatus) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	allowed := make(map[models.OrderStatus]bool, len(statuses))
	for _, s := range statuses {
		allowed[s] = true
	}

	var count int64
	for _, order := range r.orders {
		if allowed[order.Status] {
			count++
		}
	}
	return count, nil
}

// Amounts returns the non-null monto values of orders in the given statuses.
func (r *MockOrderRepository) Amounts(statuses []models.OrderStatus) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	allowed := make(map[models.OrderStatus]bool, len(statuses))
	for _, s := range statuses {
		allowed[s] = true
	}

	var amounts []string
	for _, order := range r.orders {
		if allowed[order.Status] && order.Amount != nil {
			amounts = append(amounts, *order.Amount)
		}
	}
	return amounts, nil
}

// Update persists all fields of an existing order.
func (r *MockOrderRepository) Update(order *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.orders[order.ID]; !ok {
		return fmt.Errorf("order %d: %w", order.ID, ErrNotFound)
	}
	r.orders[order.ID] = *order
	return nil
}

// Delete removes an order by id.
func (r *MockOrderRepository) Delete(id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.orders[id]; !ok {
		return fmt.Errorf("order %d: %w", id, ErrNotFound)
	}
	delete(r.orders, id)
	return nil
}
