package service

import (
	"context"
	"testing"

	"github.com/mealpoint/kiosk-api/internal/config"
	"github.com/mealpoint/kiosk-api/internal/testutil"
)

func newTestCatalogService(repo *testutil.MockCatalogRepo) *CatalogService {
	return NewCatalogService(&config.Config{}, repo, nil)
}

func TestCatalogService_FindByNameExact(t *testing.T) {
	repo := testutil.NewMockCatalogRepo()
	testutil.SeedCatalog(repo)
	svc := newTestCatalogService(repo)

	item, err := svc.FindByName("치킨버거")
	if err != nil {
		t.Fatalf("FindByName error: %v", err)
	}
	if item == nil || item.Name != "치킨버거" {
		t.Fatalf("got %+v, want 치킨버거", item)
	}
}

func TestCatalogService_FindByNameEnglish(t *testing.T) {
	repo := testutil.NewMockCatalogRepo()
	testutil.SeedCatalog(repo)
	svc := newTestCatalogService(repo)

	item, err := svc.FindByName("Cola")
	if err != nil {
		t.Fatalf("FindByName error: %v", err)
	}
	if item == nil || item.Name != "콜라" {
		t.Fatalf("got %+v, want 콜라", item)
	}
}

func TestCatalogService_FindByNameSubstring(t *testing.T) {
	repo := testutil.NewMockCatalogRepo()
	testutil.SeedCatalog(repo)
	svc := newTestCatalogService(repo)

	item, err := svc.FindByName("감자튀김 주세요")
	if err != nil {
		t.Fatalf("FindByName error: %v", err)
	}
	if item == nil || item.Name != "감자튀김" {
		t.Fatalf("got %+v, want 감자튀김", item)
	}
}

func TestCatalogService_FindByNameFamilySynonym(t *testing.T) {
	repo := testutil.NewMockCatalogRepo()
	testutil.SeedCatalog(repo)
	svc := newTestCatalogService(repo)

	// No menu item is named just "버거"; matching still lands on a
	// burger-family item.
	item, err := svc.FindByName("버거")
	if err != nil {
		t.Fatalf("FindByName error: %v", err)
	}
	if item == nil {
		t.Fatal("got nil, want a burger-family item")
	}
	if item.CategoryID != 1 {
		t.Errorf("category = %d, want 1 (burger family)", item.CategoryID)
	}
}

func TestCatalogService_FindByNameNoMatch(t *testing.T) {
	repo := testutil.NewMockCatalogRepo()
	testutil.SeedCatalog(repo)
	svc := newTestCatalogService(repo)

	item, err := svc.FindByName("피자")
	if err != nil {
		t.Fatalf("FindByName error: %v", err)
	}
	if item != nil {
		t.Errorf("got %+v, want nil for off-menu name", item)
	}
}

func TestCatalogService_PartialMatches(t *testing.T) {
	repo := testutil.NewMockCatalogRepo()
	testutil.SeedCatalog(repo)
	svc := newTestCatalogService(repo)

	matches, err := svc.PartialMatches("버거")
	if err != nil {
		t.Fatalf("PartialMatches error: %v", err)
	}
	if len(matches) != 3 {
		t.Fatalf("len(matches) = %d, want 3 burgers", len(matches))
	}
}

func TestCatalogService_PartialMatchesExcludesUnavailable(t *testing.T) {
	repo := testutil.NewMockCatalogRepo()
	testutil.SeedCatalog(repo)
	repo.SetMenuItemAvailability(3, false) // 새우버거
	svc := newTestCatalogService(repo)

	matches, err := svc.PartialMatches("버거")
	if err != nil {
		t.Fatalf("PartialMatches error: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("len(matches) = %d, want 2 with 새우버거 sold out", len(matches))
	}
}

func TestCatalogService_FamilyCandidates(t *testing.T) {
	repo := testutil.NewMockCatalogRepo()
	testutil.SeedCatalog(repo)
	svc := newTestCatalogService(repo)

	token, family, err := svc.FamilyCandidates("버거 하나 주문할게요")
	if err != nil {
		t.Fatalf("FamilyCandidates error: %v", err)
	}
	if token != "버거" {
		t.Errorf("token = %s, want 버거", token)
	}
	if len(family) != 3 {
		t.Errorf("len(family) = %d, want 3", len(family))
	}
}

func TestCatalogService_FamilyCandidatesNoToken(t *testing.T) {
	repo := testutil.NewMockCatalogRepo()
	testutil.SeedCatalog(repo)
	svc := newTestCatalogService(repo)

	_, family, err := svc.FamilyCandidates("피자 주세요")
	if err != nil {
		t.Fatalf("FamilyCandidates error: %v", err)
	}
	if family != nil {
		t.Errorf("got %+v, want nil family", family)
	}
}

func TestCatalogService_DeleteCategoryCascades(t *testing.T) {
	repo := testutil.NewMockCatalogRepo()
	testutil.SeedCatalog(repo)
	svc := newTestCatalogService(repo)

	if err := svc.DeleteCategory(context.Background(), 1); err != nil {
		t.Fatalf("DeleteCategory error: %v", err)
	}

	items, err := svc.ListMenuItems()
	if err != nil {
		t.Fatalf("ListMenuItems error: %v", err)
	}
	for _, item := range items {
		if item.CategoryID == 1 {
			t.Errorf("item %s survived its category's deletion", item.Name)
		}
	}
	if len(items) != 2 {
		t.Errorf("len(items) = %d, want 2 (fries and cola)", len(items))
	}
}

func TestCatalogService_SeedDefaultsIdempotent(t *testing.T) {
	repo := testutil.NewMockCatalogRepo()
	svc := newTestCatalogService(repo)

	if err := svc.SeedDefaults(context.Background()); err != nil {
		t.Fatalf("SeedDefaults error: %v", err)
	}
	items, _ := svc.ListMenuItems()
	firstCount := len(items)
	if firstCount == 0 {
		t.Fatal("seed produced no menu items")
	}

	if err := svc.SeedDefaults(context.Background()); err != nil {
		t.Fatalf("second SeedDefaults error: %v", err)
	}
	items, _ = svc.ListMenuItems()
	if len(items) != firstCount {
		t.Errorf("second seed changed item count: %d -> %d", firstCount, len(items))
	}
}

func TestNormalizeName(t *testing.T) {
	cases := map[string]string{
		"치킨 버거":        "치킨버거",
		"  Beef Burger ": "beefburger",
		"콜라":           "콜라",
	}
	for in, want := range cases {
		if got := normalizeName(in); got != want {
			t.Errorf("normalizeName(%q) = %q, want %q", in, got, want)
		}
	}
}
