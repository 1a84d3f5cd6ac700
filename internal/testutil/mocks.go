package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/mealpoint/kiosk-api/internal/ai"
	"github.com/mealpoint/kiosk-api/internal/models"
	"github.com/mealpoint/kiosk-api/internal/repository"
)

// --- MockClassifier ---

// MockClassifier is a mock implementation of ai.Classifier.
type MockClassifier struct {
	ClassifyFunc func(ctx context.Context, transcript string, available []models.MenuItem) (*ai.VoiceCommand, error)
}

func (m *MockClassifier) Classify(ctx context.Context, transcript string, available []models.MenuItem) (*ai.VoiceCommand, error) {
	if m.ClassifyFunc != nil {
		return m.ClassifyFunc(ctx, transcript, available)
	}
	return nil, fmt.Errorf("Classify not configured")
}

// --- MockSpeaker ---

// MockSpeaker records spoken text for assertions.
type MockSpeaker struct {
	mu      sync.Mutex
	Spoken  []string
	Stopped int
}

func (m *MockSpeaker) Speak(text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Spoken = append(m.Spoken, text)
}

func (m *MockSpeaker) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Stopped++
}

// LastSpoken returns the most recent utterance, or "".
func (m *MockSpeaker) LastSpoken() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Spoken) == 0 {
		return ""
	}
	return m.Spoken[len(m.Spoken)-1]
}

// --- MockCatalogRepo ---

// MockCatalogRepo is an in-memory implementation of repository.CatalogRepo.
type MockCatalogRepo struct {
	mu         sync.Mutex
	nextCatID  uint
	nextItemID uint
	Categories []models.Category
	Items      []models.MenuItem
}

// NewMockCatalogRepo creates an empty MockCatalogRepo.
func NewMockCatalogRepo() *MockCatalogRepo {
	return &MockCatalogRepo{nextCatID: 1, nextItemID: 1}
}

func (m *MockCatalogRepo) ListCategories() ([]models.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Category, len(m.Categories))
	copy(out, m.Categories)
	return out, nil
}

func (m *MockCatalogRepo) GetCategoryByID(categoryID uint) (*models.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.Categories {
		if m.Categories[i].ID == categoryID {
			cat := m.Categories[i]
			return &cat, nil
		}
	}
	return nil, repository.NewNotFoundError("category not found")
}

func (m *MockCatalogRepo) CreateCategory(category *models.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if category.ID == 0 {
		category.ID = m.nextCatID
		m.nextCatID++
	} else if category.ID >= m.nextCatID {
		m.nextCatID = category.ID + 1
	}
	m.Categories = append(m.Categories, *category)
	return nil
}

func (m *MockCatalogRepo) UpdateCategory(category *models.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.Categories {
		if m.Categories[i].ID == category.ID {
			m.Categories[i] = *category
			return nil
		}
	}
	return repository.NewNotFoundError("category not found")
}

func (m *MockCatalogRepo) DeleteCategory(categoryID uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.Categories {
		if m.Categories[i].ID == categoryID {
			m.Categories = append(m.Categories[:i], m.Categories[i+1:]...)
			var kept []models.MenuItem
			for _, item := range m.Items {
				if item.CategoryID != categoryID {
					kept = append(kept, item)
				}
			}
			m.Items = kept
			return nil
		}
	}
	return repository.NewNotFoundError("category not found")
}

func (m *MockCatalogRepo) ListMenuItems() ([]models.MenuItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.MenuItem, len(m.Items))
	copy(out, m.Items)
	return out, nil
}

func (m *MockCatalogRepo) ListAvailableMenuItems() ([]models.MenuItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.MenuItem
	for _, item := range m.Items {
		if item.Available {
			out = append(out, item)
		}
	}
	return out, nil
}

func (m *MockCatalogRepo) GetMenuItemByID(itemID uint) (*models.MenuItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.Items {
		if m.Items[i].ID == itemID {
			item := m.Items[i]
			return &item, nil
		}
	}
	return nil, repository.NewNotFoundError("menu item not found")
}

func (m *MockCatalogRepo) CreateMenuItem(item *models.MenuItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if item.ID == 0 {
		item.ID = m.nextItemID
		m.nextItemID++
	} else if item.ID >= m.nextItemID {
		m.nextItemID = item.ID + 1
	}
	m.Items = append(m.Items, *item)
	return nil
}

func (m *MockCatalogRepo) UpdateMenuItem(item *models.MenuItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.Items {
		if m.Items[i].ID == item.ID {
			m.Items[i] = *item
			return nil
		}
	}
	return repository.NewNotFoundError("menu item not found")
}

func (m *MockCatalogRepo) DeleteMenuItem(itemID uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.Items {
		if m.Items[i].ID == itemID {
			m.Items = append(m.Items[:i], m.Items[i+1:]...)
			return nil
		}
	}
	return repository.NewNotFoundError("menu item not found")
}

func (m *MockCatalogRepo) SetMenuItemAvailability(itemID uint, available bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.Items {
		if m.Items[i].ID == itemID {
			m.Items[i].Available = available
			return nil
		}
	}
	return repository.NewNotFoundError("menu item not found")
}

func (m *MockCatalogRepo) UpdateMenuItemImageURL(itemID uint, imageURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.Items {
		if m.Items[i].ID == itemID {
			m.Items[i].ImageURL = imageURL
			return nil
		}
	}
	return repository.NewNotFoundError("menu item not found")
}

func (m *MockCatalogRepo) CountMenuItems() (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.Items)), nil
}
