package service

import (
	"context"
	"strings"

	"github.com/mealpoint/kiosk-api/internal/cache"
	"github.com/mealpoint/kiosk-api/internal/config"
	"github.com/mealpoint/kiosk-api/internal/logger"
	"github.com/mealpoint/kiosk-api/internal/models"
	"github.com/mealpoint/kiosk-api/internal/repository"
	"go.uber.org/zap"
)

// CatalogService owns category and menu item state: CRUD for the admin
// panel, lookup rules for the voice pipeline, and the Redis snapshot the
// kiosk session reads from.
type CatalogService struct {
	Cfg   *config.Config
	Repo  repository.CatalogRepo
	Cache *cache.CatalogCache // optional; nil disables snapshotting
}

// NewCatalogService creates a new CatalogService.
func NewCatalogService(cfg *config.Config, repo repository.CatalogRepo, catalogCache *cache.CatalogCache) *CatalogService {
	return &CatalogService{
		Cfg:   cfg,
		Repo:  repo,
		Cache: catalogCache,
	}
}

// normalizeName strips whitespace and lowercases for name comparison.
func normalizeName(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), ""))
}

// ListCategories returns all categories ordered by display order then id.
func (s *CatalogService) ListCategories() ([]models.Category, error) {
	return s.Repo.ListCategories()
}

// ListMenuItems returns every menu item.
func (s *CatalogService) ListMenuItems() ([]models.MenuItem, error) {
	return s.Repo.ListMenuItems()
}

// ListAvailableMenuItems returns menu items currently marked available.
func (s *CatalogService) ListAvailableMenuItems() ([]models.MenuItem, error) {
	return s.Repo.ListAvailableMenuItems()
}

// FindByName resolves free text to a single menu item. Exact name matches
// (primary or English) win over substring containment; category synonym
// tokens are a last resort, matching the first available item of that
// family. Returns nil when nothing matches.
func (s *CatalogService) FindByName(text string) (*models.MenuItem, error) {
	items, err := s.Repo.ListMenuItems()
	if err != nil {
		return nil, err
	}

	norm := normalizeName(text)
	if norm == "" {
		return nil, nil
	}

	for i := range items {
		if normalizeName(items[i].Name) == norm || (items[i].NameEn != "" && normalizeName(items[i].NameEn) == norm) {
			return &items[i], nil
		}
	}

	for i := range items {
		name := normalizeName(items[i].Name)
		nameEn := normalizeName(items[i].NameEn)
		if strings.Contains(name, norm) || strings.Contains(norm, name) {
			return &items[i], nil
		}
		if nameEn != "" && (strings.Contains(nameEn, norm) || strings.Contains(norm, nameEn)) {
			return &items[i], nil
		}
	}

	categories, err := s.Repo.ListCategories()
	if err != nil {
		return nil, err
	}
	for _, cat := range categories {
		for _, token := range cat.Synonyms {
			if !strings.Contains(norm, normalizeName(token)) {
				continue
			}
			for i := range items {
				if items[i].CategoryID == cat.ID && items[i].Available {
					return &items[i], nil
				}
			}
		}
	}

	return nil, nil
}

// PartialMatches returns the available menu items whose primary or English
// name contains the normalized entity text.
func (s *CatalogService) PartialMatches(entity string) ([]models.MenuItem, error) {
	items, err := s.Repo.ListAvailableMenuItems()
	if err != nil {
		return nil, err
	}

	norm := normalizeName(entity)
	if norm == "" {
		return nil, nil
	}

	var matches []models.MenuItem
	for _, item := range items {
		if strings.Contains(normalizeName(item.Name), norm) {
			matches = append(matches, item)
			continue
		}
		if item.NameEn != "" && strings.Contains(normalizeName(item.NameEn), norm) {
			matches = append(matches, item)
		}
	}
	return matches, nil
}

// FamilyCandidates inspects the transcript for a category synonym token
// (the configurable burger/fries/beverage family table) and returns the
// available items of the first matching family. The token that matched is
// returned alongside the candidates.
func (s *CatalogService) FamilyCandidates(transcript string) (string, []models.MenuItem, error) {
	categories, err := s.Repo.ListCategories()
	if err != nil {
		return "", nil, err
	}

	norm := normalizeName(transcript)
	for _, cat := range categories {
		for _, token := range cat.Synonyms {
			if !strings.Contains(norm, normalizeName(token)) {
				continue
			}
			items, err := s.Repo.ListAvailableMenuItems()
			if err != nil {
				return "", nil, err
			}
			var family []models.MenuItem
			for _, item := range items {
				if item.CategoryID == cat.ID {
					family = append(family, item)
				}
			}
			if len(family) > 0 {
				return token, family, nil
			}
		}
	}
	return "", nil, nil
}

// --- admin mutations; each refreshes the Redis snapshot ---

// CreateCategory creates a category.
func (s *CatalogService) CreateCategory(ctx context.Context, category *models.Category) error {
	if err := s.Repo.CreateCategory(category); err != nil {
		return err
	}
	s.refreshSnapshot(ctx)
	return nil
}

// UpdateCategory updates a category.
func (s *CatalogService) UpdateCategory(ctx context.Context, category *models.Category) error {
	if err := s.Repo.UpdateCategory(category); err != nil {
		return err
	}
	s.refreshSnapshot(ctx)
	return nil
}

// DeleteCategory deletes a category and cascades to its menu items.
func (s *CatalogService) DeleteCategory(ctx context.Context, categoryID uint) error {
	if err := s.Repo.DeleteCategory(categoryID); err != nil {
		return err
	}
	s.refreshSnapshot(ctx)
	return nil
}

// GetMenuItem retrieves one menu item.
func (s *CatalogService) GetMenuItem(itemID uint) (*models.MenuItem, error) {
	return s.Repo.GetMenuItemByID(itemID)
}

// CreateMenuItem creates a menu item.
func (s *CatalogService) CreateMenuItem(ctx context.Context, item *models.MenuItem) error {
	if err := s.Repo.CreateMenuItem(item); err != nil {
		return err
	}
	s.refreshSnapshot(ctx)
	return nil
}

// UpdateMenuItem updates a menu item. The ID never changes.
func (s *CatalogService) UpdateMenuItem(ctx context.Context, item *models.MenuItem) error {
	if err := s.Repo.UpdateMenuItem(item); err != nil {
		return err
	}
	s.refreshSnapshot(ctx)
	return nil
}

// DeleteMenuItem deletes a menu item.
func (s *CatalogService) DeleteMenuItem(ctx context.Context, itemID uint) error {
	if err := s.Repo.DeleteMenuItem(itemID); err != nil {
		return err
	}
	s.refreshSnapshot(ctx)
	return nil
}

// SetAvailability toggles a menu item's availability.
func (s *CatalogService) SetAvailability(ctx context.Context, itemID uint, available bool) error {
	if err := s.Repo.SetMenuItemAvailability(itemID, available); err != nil {
		return err
	}
	s.refreshSnapshot(ctx)
	return nil
}

// SetMenuItemImage updates a menu item's image reference.
func (s *CatalogService) SetMenuItemImage(ctx context.Context, itemID uint, imageURL string) error {
	if err := s.Repo.UpdateMenuItemImageURL(itemID, imageURL); err != nil {
		return err
	}
	s.refreshSnapshot(ctx)
	return nil
}

// refreshSnapshot rewrites the Redis catalog snapshot. Cache writes are
// best-effort; Postgres remains the source of truth.
func (s *CatalogService) refreshSnapshot(ctx context.Context) {
	if s.Cache == nil {
		return
	}

	categories, err := s.Repo.ListCategories()
	if err != nil {
		logger.Get().Warn("snapshot refresh: list categories failed", zap.Error(err))
		return
	}
	items, err := s.Repo.ListMenuItems()
	if err != nil {
		logger.Get().Warn("snapshot refresh: list menu items failed", zap.Error(err))
		return
	}

	if err := s.Cache.SaveSnapshot(ctx, &cache.CatalogSnapshot{
		Categories: categories,
		MenuItems:  items,
	}); err != nil {
		logger.Get().Warn("snapshot refresh failed", zap.Error(err))
	}
}

// SeedDefaults loads the default categories and menu items when the catalog
// is empty, so a fresh kiosk has something to sell.
func (s *CatalogService) SeedDefaults(ctx context.Context) error {
	count, err := s.Repo.CountMenuItems()
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	logger.Get().Info("seeding default catalog")

	burgers := models.Category{Name: "메인 메뉴", DisplayOrder: 1, Synonyms: []string{"버거", "burger"}}
	sides := models.Category{Name: "사이드 메뉴", DisplayOrder: 2, Synonyms: []string{"감자", "fries"}}
	drinks := models.Category{Name: "음료", DisplayOrder: 3, Synonyms: []string{"음료", "cola", "drink"}}
	for _, cat := range []*models.Category{&burgers, &sides, &drinks} {
		if err := s.Repo.CreateCategory(cat); err != nil {
			return err
		}
	}

	items := []models.MenuItem{
		{Name: "치킨버거", NameEn: "Chicken Burger", Description: "바삭한 치킨 패티와 신선한 야채가 들어간 버거", Price: 5500, CategoryID: burgers.ID, Available: true, ImageURL: "/chicken.png"},
		{Name: "비프버거", NameEn: "Beef Burger", Description: "두툼한 소고기 패티와 치즈가 어우러진 비프버거", Price: 6000, CategoryID: burgers.ID, Available: true, ImageURL: "/beef.png"},
		{Name: "감자튀김", NameEn: "French Fries", Description: "바삭하게 튀긴 감자튀김", Price: 2500, CategoryID: sides.ID, Available: true, ImageURL: "/potato.png"},
		{Name: "콜라", NameEn: "Cola", Description: "시원한 탄산음료", Price: 2000, CategoryID: drinks.ID, Available: true, ImageURL: "/cola.png"},
	}
	for i := range items {
		if err := s.Repo.CreateMenuItem(&items[i]); err != nil {
			return err
		}
	}

	s.refreshSnapshot(ctx)
	return nil
}
