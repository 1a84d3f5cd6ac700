package testutil

import (
	"github.com/lib/pq"
	"github.com/mealpoint/kiosk-api/internal/models"
	"gorm.io/gorm"
)

// SeedCatalog fills a MockCatalogRepo with the default kiosk menu plus a
// second burger so name disambiguation has something to disambiguate.
func SeedCatalog(repo *MockCatalogRepo) {
	categories := []models.Category{
		{Model: gorm.Model{ID: 1}, Name: "메인 메뉴", DisplayOrder: 1, Synonyms: pq.StringArray{"버거", "burger"}},
		{Model: gorm.Model{ID: 2}, Name: "사이드 메뉴", DisplayOrder: 2, Synonyms: pq.StringArray{"감자", "fries"}},
		{Model: gorm.Model{ID: 3}, Name: "음료", DisplayOrder: 3, Synonyms: pq.StringArray{"음료", "cola", "drink"}},
	}
	for i := range categories {
		repo.CreateCategory(&categories[i])
	}

	items := []models.MenuItem{
		{Model: gorm.Model{ID: 1}, Name: "치킨버거", NameEn: "Chicken Burger", Price: 5500, CategoryID: 1, Available: true},
		{Model: gorm.Model{ID: 2}, Name: "비프버거", NameEn: "Beef Burger", Price: 6000, CategoryID: 1, Available: true},
		{Model: gorm.Model{ID: 3}, Name: "새우버거", NameEn: "Shrimp Burger", Price: 5800, CategoryID: 1, Available: true},
		{Model: gorm.Model{ID: 4}, Name: "감자튀김", NameEn: "French Fries", Price: 2500, CategoryID: 2, Available: true},
		{Model: gorm.Model{ID: 5}, Name: "콜라", NameEn: "Cola", Price: 2000, CategoryID: 3, Available: true},
	}
	for i := range items {
		repo.CreateMenuItem(&items[i])
	}
}

// TestMenuItem returns a standalone menu item for cart-level tests.
func TestMenuItem(id uint, name string, price int) models.MenuItem {
	return models.MenuItem{
		Model:      gorm.Model{ID: id},
		Name:       name,
		Price:      price,
		CategoryID: 1,
		Available:  true,
	}
}
