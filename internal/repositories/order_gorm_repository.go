package repositories

import (
	"fmt"

	"gorm.io/gorm"

	"vuela/internal/models"
)

// GORMOrderRepository is a GORM implementation of OrderRepository backed by
// the hosted cotizaciones table.
type GORMOrderRepository struct {
	db *gorm.DB
}

// NewGORMOrderRepository creates a new instance of GORMOrderRepository.
func NewGORMOrderRepository(db *gorm.DB) *GORMOrderRepository {
	return &GORMOrderRepository{
		db: db,
	}
}

// Create inserts a new order. The id and created_at are assigned by the store.
func (r *GORMOrderRepository) Create(order *models.Order) error {
	if err := r.db.Create(order).Error; err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

// GetByID retrieves a single order by its id.
func (r *GORMOrderRepository) GetByID(id uint) (*models.Order, error) {
	var order models.Order
	if err := r.db.First(&order, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("order %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get order %d: %w", id, err)
	}
	return &order, nil
}

// GetByUser retrieves all orders belonging to a customer, newest first.
func (r *GORMOrderRepository) GetByUser(userID int64) ([]models.Order, error) {
	var orders []models.Order
	if err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to get orders for user %d: %w", userID, err)
	}
	return orders, nil
}

// FirstByUserAndStatus returns the oldest order of a user in the given status.
func (r *GORMOrderRepository) FirstByUserAndStatus(userID int64, status models.OrderStatus) (*models.Order, error) {
	var order models.Order
	err := r.db.Where("user_id = ? AND estado = ?", userID, status).Order("created_at ASC").First(&order).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get %s order for user %d: %w", status, userID, err)
	}
	return &order, nil
}

// ListByStatus returns all orders in a status bucket, newest first.
func (r *GORMOrderRepository) ListByStatus(status models.OrderStatus) ([]models.Order, error) {
	var orders []models.Order
	if err := r.db.Where("estado = ?", status).Order("created_at DESC").Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to list orders in status %s: %w", status, err)
	}
	return orders, nil
}

// ListRecent returns the latest orders across all statuses.
func (r *GORMOrderRepository) ListRecent(limit int) ([]models.Order, error) {
	var orders []models.Order
	if err := r.db.Order("created_at DESC").Limit(limit).Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to list recent orders: %w", err)
	}
	return orders, nil
}

// ListByTravelDate returns orders with fecha in [from, to], ascending by
// fecha, optionally filtered to the given statuses.
func (r *GORMOrderRepository) ListByTravelDate(from, to string, statuses []models.OrderStatus) ([]models.Order, error) {
	q := r.db.Where("fecha >= ? AND fecha <= ?", from, to)
	if len(statuses) > 0 {
		q = q.Where("estado IN ?", statuses)
	}
	var orders []models.Order
	if err := q.Order("fecha ASC").Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to list orders by travel date: %w", err)
	}
	return orders, nil
}

// CountDistinctUsers counts unique customers across all orders.
func (r *GORMOrderRepository) CountDistinctUsers() (int64, error) {
	var count int64
	err := r.db.Model(&models.Order{}).Distinct("user_id").Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count distinct users: %w", err)
	}
	return count, nil
}

// CountByStatuses counts orders whose estado is in the given set.
func (r *GORMOrderRepository) CountByStatuses(statuses []models.OrderStatus) (int64, error) {
	var count int64
	err := r.db.Model(&models.Order{}).Where("estado IN ?", statuses).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count orders by status: %w", err)
	}
	return count, nil
}

// Amounts returns the non-null monto values of orders in the given statuses.
func (r *GORMOrderRepository) Amounts(statuses []models.OrderStatus) ([]string, error) {
	var amounts []string
	err := r.db.Model(&models.Order{}).
		Where("estado IN ? AND monto IS NOT NULL", statuses).
		Pluck("monto", &amounts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to collect amounts: %w", err)
	}
	return amounts, nil
}

// Update persists all fields of an existing order.
func (r *GORMOrderRepository) Update(order *models.Order) error {
	res := r.db.Save(order)
	if res.Error != nil {
		return fmt.Errorf("failed to update order %d: %w", order.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		// Save does not return ErrRecordNotFound for a missing row, so we
		// check RowsAffected.
		return fmt.Errorf("order %d: %w", order.ID, ErrNotFound)
	}
	return nil
}

// Delete removes an order by id.
func (r *GORMOrderRepository) Delete(id uint) error {
	res := r.db.Delete(&models.Order{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete order %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("order %d: %w", id, ErrNotFound)
	}
	return nil
}
