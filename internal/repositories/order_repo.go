package repositories

import (
	"errors"

	"vuela/internal/models"
)

// ErrNotFound is returned when a referenced order id does not exist (or does
// not belong to the requesting user, for owner-scoped lookups).
var ErrNotFound = errors.New("order not found")

// OrderRepository defines the interface for order data access.
type OrderRepository interface {
	Create(order *models.Order) error
	GetByID(id uint) (*models.Order, error)
	GetByUser(userID int64) ([]models.Order, error)
	// FirstByUserAndStatus returns the oldest order of userID in the given
	// status, or ErrNotFound. Used to reconstruct which step of the chat
	// flow a user is in from persisted state.
	FirstByUserAndStatus(userID int64, status models.OrderStatus) (*models.Order, error)
	ListByStatus(status models.OrderStatus) ([]models.Order, error)
	ListRecent(limit int) ([]models.Order, error)
	// ListByTravelDate returns orders whose fecha falls in [from, to]
	// (ISO date strings, inclusive), ordered by fecha ascending, optionally
	// restricted to the given statuses.
	ListByTravelDate(from, to string, statuses []models.OrderStatus) ([]models.Order, error)
	CountDistinctUsers() (int64, error)
	// CountByStatuses counts orders whose estado is in the given set.
	CountByStatuses(statuses []models.OrderStatus) (int64, error)
	// Amounts returns the non-null monto values of orders in the given statuses.
	Amounts(statuses []models.OrderStatus) ([]string, error)
	Update(order *models.Order) error
	Delete(id uint) error
}
