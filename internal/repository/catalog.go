package repository

import (
	"errors"

	"github.com/mealpoint/kiosk-api/internal/logger"
	"github.com/mealpoint/kiosk-api/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CatalogRepository is a repository for categories and menu items.
type CatalogRepository struct {
	DB *gorm.DB
}

// NewCatalogRepository creates a new CatalogRepository.
func NewCatalogRepository(db *gorm.DB) *CatalogRepository {
	return &CatalogRepository{DB: db}
}

// ListCategories retrieves all categories ordered by display order, ties
// broken by id.
func (r *CatalogRepository) ListCategories() ([]models.Category, error) {
	var categories []models.Category
	err := r.DB.Order("display_order ASC, id ASC").Find(&categories).Error
	if err != nil {
		return nil, err
	}
	return categories, nil
}

// GetCategoryByID retrieves a category by its ID.
func (r *CatalogRepository) GetCategoryByID(categoryID uint) (*models.Category, error) {
	var category models.Category
	err := r.DB.First(&category, categoryID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewNotFoundError("category not found")
		}
		return nil, err
	}
	return &category, nil
}

// CreateCategory creates a new category.
func (r *CatalogRepository) CreateCategory(category *models.Category) error {
	return r.DB.Create(category).Error
}

// UpdateCategory updates an existing category.
func (r *CatalogRepository) UpdateCategory(category *models.Category) error {
	result := r.DB.Model(&models.Category{}).
		Where("id = ?", category.ID).
		Updates(map[string]interface{}{
			"name":          category.Name,
			"display_order": category.DisplayOrder,
			"synonyms":      category.Synonyms,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return NewNotFoundError("category not found")
	}
	return nil
}

// DeleteCategory deletes a category and every menu item that references it.
// The cascade is intentional: items in a removed category are removed, not
// orphaned.
func (r *CatalogRepository) DeleteCategory(categoryID uint) error {
	tx := r.DB.Begin()
	if tx.Error != nil {
		return tx.Error
	}

	if err := tx.Where("category_id = ?", categoryID).Delete(&models.MenuItem{}).Error; err != nil {
		tx.Rollback()
		logger.Get().Error("failed to cascade-delete menu items", zap.Uint("category_id", categoryID), zap.Error(err))
		return err
	}

	result := tx.Delete(&models.Category{}, categoryID)
	if result.Error != nil {
		tx.Rollback()
		return result.Error
	}
	if result.RowsAffected == 0 {
		tx.Rollback()
		return NewNotFoundError("category not found")
	}

	return tx.Commit().Error
}

// ListMenuItems retrieves every menu item.
func (r *CatalogRepository) ListMenuItems() ([]models.MenuItem, error) {
	var items []models.MenuItem
	err := r.DB.Order("category_id ASC, id ASC").Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// ListAvailableMenuItems retrieves menu items currently marked available.
func (r *CatalogRepository) ListAvailableMenuItems() ([]models.MenuItem, error) {
	var items []models.MenuItem
	err := r.DB.Where("available = ?", true).Order("category_id ASC, id ASC").Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// GetMenuItemByID retrieves a menu item by its ID.
func (r *CatalogRepository) GetMenuItemByID(itemID uint) (*models.MenuItem, error) {
	var item models.MenuItem
	err := r.DB.First(&item, itemID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewNotFoundError("menu item not found")
		}
		return nil, err
	}
	return &item, nil
}

// CreateMenuItem creates a new menu item.
func (r *CatalogRepository) CreateMenuItem(item *models.MenuItem) error {
	return r.DB.Create(item).Error
}

// UpdateMenuItem updates an existing menu item. The item ID is immutable;
// every other field follows the caller.
func (r *CatalogRepository) UpdateMenuItem(item *models.MenuItem) error {
	result := r.DB.Model(&models.MenuItem{}).
		Where("id = ?", item.ID).
		Updates(map[string]interface{}{
			"name":        item.Name,
			"name_en":     item.NameEn,
			"description": item.Description,
			"price":       item.Price,
			"category_id": item.CategoryID,
			"available":   item.Available,
			"image_url":   item.ImageURL,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return NewNotFoundError("menu item not found")
	}
	return nil
}

// DeleteMenuItem deletes a menu item.
func (r *CatalogRepository) DeleteMenuItem(itemID uint) error {
	result := r.DB.Delete(&models.MenuItem{}, itemID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return NewNotFoundError("menu item not found")
	}
	return nil
}

// SetMenuItemAvailability toggles availability independently of other fields.
func (r *CatalogRepository) SetMenuItemAvailability(itemID uint, available bool) error {
	result := r.DB.Model(&models.MenuItem{}).
		Where("id = ?", itemID).
		Update("available", available)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return NewNotFoundError("menu item not found")
	}
	return nil
}

// UpdateMenuItemImageURL updates only the image reference of a menu item.
func (r *CatalogRepository) UpdateMenuItemImageURL(itemID uint, imageURL string) error {
	result := r.DB.Model(&models.MenuItem{}).
		Where("id = ?", itemID).
		Update("image_url", imageURL)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return NewNotFoundError("menu item not found")
	}
	return nil
}

// CountMenuItems returns the number of menu items in the catalog.
func (r *CatalogRepository) CountMenuItems() (int64, error) {
	var count int64
	err := r.DB.Model(&models.MenuItem{}).Count(&count).Error
	return count, err
}
