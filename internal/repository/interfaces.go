package repository

import "github.com/mealpoint/kiosk-api/internal/models"

// CatalogRepo is the interface for catalog repository operations.
type CatalogRepo interface {
	ListCategories() ([]models.Category, error)
	GetCategoryByID(categoryID uint) (*models.Category, error)
	CreateCategory(category *models.Category) error
	UpdateCategory(category *models.Category) error
	DeleteCategory(categoryID uint) error

	ListMenuItems() ([]models.MenuItem, error)
	ListAvailableMenuItems() ([]models.MenuItem, error)
	GetMenuItemByID(itemID uint) (*models.MenuItem, error)
	CreateMenuItem(item *models.MenuItem) error
	UpdateMenuItem(item *models.MenuItem) error
	DeleteMenuItem(itemID uint) error
	SetMenuItemAvailability(itemID uint, available bool) error
	UpdateMenuItemImageURL(itemID uint, imageURL string) error

	CountMenuItems() (int64, error)
}
