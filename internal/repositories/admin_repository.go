package repositories

import (
	"vuela/internal/models"
)

// AdminRepository defines the interface for dashboard account data access.
type AdminRepository interface {
	GetByUsername(username string) (*models.Admin, error)
	Create(admin *models.Admin) error
}
