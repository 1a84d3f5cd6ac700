package handlers

import (
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/lib/pq"
	"github.com/mealpoint/kiosk-api/internal/logger"
	"github.com/mealpoint/kiosk-api/internal/models"
	"github.com/mealpoint/kiosk-api/internal/repository"
	"github.com/mealpoint/kiosk-api/internal/s3"
	"github.com/mealpoint/kiosk-api/internal/service"
	"go.uber.org/zap"
)

// CatalogHandler handles menu and category requests: the public catalog
// the kiosk UI renders, and the admin CRUD behind JWT.
type CatalogHandler struct {
	Service *service.CatalogService
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(catalogService *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{Service: catalogService}
}

// GetCatalog returns all categories with their menu items. Public.
func (h *CatalogHandler) GetCatalog(c *gin.Context) {
	categories, err := h.Service.ListCategories()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load catalog"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

// GetMenuItems returns menu items, optionally filtered to a category or to
// available items only. Public.
func (h *CatalogHandler) GetMenuItems(c *gin.Context) {
	var (
		items []models.MenuItem
		err   error
	)
	if c.Query("available") == "true" {
		items, err = h.Service.ListAvailableMenuItems()
	} else {
		items, err = h.Service.ListMenuItems()
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load menu items"})
		return
	}

	if raw := c.Query("category_id"); raw != "" {
		categoryID, err := parseUintParam(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid category ID"})
			return
		}
		filtered := make([]models.MenuItem, 0, len(items))
		for _, item := range items {
			if item.CategoryID == categoryID {
				filtered = append(filtered, item)
			}
		}
		items = filtered
	}

	c.JSON(http.StatusOK, gin.H{"menu_items": items})
}

// CreateCategory creates a category. Admin only.
func (h *CatalogHandler) CreateCategory(c *gin.Context) {
	var request struct {
		Name         string   `json:"name" binding:"required"`
		DisplayOrder int      `json:"display_order"`
		Synonyms     []string `json:"synonyms"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Category name is required"})
		return
	}

	category := models.Category{
		Name:         request.Name,
		DisplayOrder: request.DisplayOrder,
		Synonyms:     pq.StringArray(request.Synonyms),
	}
	if err := service.ValidateCategory(&category); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.Service.CreateCategory(c.Request.Context(), &category); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create category"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"category": category})
}

// UpdateCategory updates a category. Admin only.
func (h *CatalogHandler) UpdateCategory(c *gin.Context) {
	categoryID, err := parseUintParam(c.Param("category_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid category ID"})
		return
	}

	var request struct {
		Name         string   `json:"name" binding:"required"`
		DisplayOrder int      `json:"display_order"`
		Synonyms     []string `json:"synonyms"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Category name is required"})
		return
	}

	category := models.Category{
		Name:         request.Name,
		DisplayOrder: request.DisplayOrder,
		Synonyms:     pq.StringArray(request.Synonyms),
	}
	category.ID = categoryID
	if err := service.ValidateCategory(&category); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.Service.UpdateCategory(c.Request.Context(), &category); err != nil {
		respondRepoError(c, err, "Failed to update category")
		return
	}
	c.JSON(http.StatusOK, gin.H{"category": category})
}

// DeleteCategory deletes a category and every menu item under it. Admin only.
func (h *CatalogHandler) DeleteCategory(c *gin.Context) {
	categoryID, err := parseUintParam(c.Param("category_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid category ID"})
		return
	}

	if err := h.Service.DeleteCategory(c.Request.Context(), categoryID); err != nil {
		respondRepoError(c, err, "Failed to delete category")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Category deleted"})
}

// CreateMenuItem creates a menu item. Admin only.
func (h *CatalogHandler) CreateMenuItem(c *gin.Context) {
	var request struct {
		Name        string `json:"name" binding:"required"`
		NameEn      string `json:"name_en"`
		Description string `json:"description"`
		Price       int    `json:"price"`
		CategoryID  uint   `json:"category_id" binding:"required"`
		Available   *bool  `json:"available"`
		ImageURL    string `json:"image_url"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Name and category_id are required"})
		return
	}

	available := true
	if request.Available != nil {
		available = *request.Available
	}
	item := models.MenuItem{
		Name:        request.Name,
		NameEn:      request.NameEn,
		Description: request.Description,
		Price:       request.Price,
		CategoryID:  request.CategoryID,
		Available:   available,
		ImageURL:    request.ImageURL,
	}
	if err := service.ValidateMenuItem(&item); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.Service.CreateMenuItem(c.Request.Context(), &item); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create menu item"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"menu_item": item})
}

// UpdateMenuItem updates a menu item. Admin only.
func (h *CatalogHandler) UpdateMenuItem(c *gin.Context) {
	itemID, err := parseUintParam(c.Param("item_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid menu item ID"})
		return
	}

	var request struct {
		Name        string `json:"name" binding:"required"`
		NameEn      string `json:"name_en"`
		Description string `json:"description"`
		Price       int    `json:"price"`
		CategoryID  uint   `json:"category_id" binding:"required"`
		Available   *bool  `json:"available"`
		ImageURL    string `json:"image_url"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Name and category_id are required"})
		return
	}

	available := true
	if request.Available != nil {
		available = *request.Available
	}
	item := models.MenuItem{
		Name:        request.Name,
		NameEn:      request.NameEn,
		Description: request.Description,
		Price:       request.Price,
		CategoryID:  request.CategoryID,
		Available:   available,
		ImageURL:    request.ImageURL,
	}
	item.ID = itemID
	if err := service.ValidateMenuItem(&item); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.Service.UpdateMenuItem(c.Request.Context(), &item); err != nil {
		respondRepoError(c, err, "Failed to update menu item")
		return
	}
	c.JSON(http.StatusOK, gin.H{"menu_item": item})
}

// DeleteMenuItem deletes a menu item. Admin only.
func (h *CatalogHandler) DeleteMenuItem(c *gin.Context) {
	itemID, err := parseUintParam(c.Param("item_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid menu item ID"})
		return
	}

	if err := h.Service.DeleteMenuItem(c.Request.Context(), itemID); err != nil {
		respondRepoError(c, err, "Failed to delete menu item")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Menu item deleted"})
}

// SetAvailability toggles a menu item's availability. Admin only.
func (h *CatalogHandler) SetAvailability(c *gin.Context) {
	itemID, err := parseUintParam(c.Param("item_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid menu item ID"})
		return
	}

	var request struct {
		Available *bool `json:"available" binding:"required"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "available field is required"})
		return
	}

	if err := h.Service.SetAvailability(c.Request.Context(), itemID, *request.Available); err != nil {
		respondRepoError(c, err, "Failed to update availability")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Availability updated"})
}

// allowedImageTypes is the set of accepted image file extensions.
var allowedImageTypes = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
}

// UploadMenuImage uploads a menu item image to S3 and stores the resulting
// URL on the item. Admin only; requires S3 to be configured.
func (h *CatalogHandler) UploadMenuImage(c *gin.Context) {
	if h.Service.Cfg.EnvVars.S3Bucket == "" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Image storage is not configured"})
		return
	}

	itemID, err := parseUintParam(c.Param("item_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid menu item ID"})
		return
	}

	if _, err := h.Service.GetMenuItem(itemID); err != nil {
		respondRepoError(c, err, "Failed to load menu item")
		return
	}

	file, header, err := c.Request.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Image file is required"})
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowedImageTypes[ext] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unsupported image type. Allowed: jpg, png, webp"})
		return
	}

	const maxSize = 10 << 20
	if header.Size > maxSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Image exceeds maximum size of 10MB"})
		return
	}

	imgBytes, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read image"})
		return
	}

	s3Key := s3.GenerateS3Key(itemID)
	imageURL, err := s3.UploadMenuImageToS3(c.Request.Context(), h.Service.Cfg, imgBytes, s3Key)
	if err != nil {
		logger.Get().Error("failed to upload menu image to S3", zap.Uint("item_id", itemID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to upload image"})
		return
	}

	if err := h.Service.SetMenuItemImage(c.Request.Context(), itemID, imageURL); err != nil {
		respondRepoError(c, err, "Failed to store image URL")
		return
	}
	c.JSON(http.StatusOK, gin.H{"image_url": imageURL})
}

// respondRepoError maps repository not-found errors to 404 and everything
// else to 500 with the given message.
func respondRepoError(c *gin.Context, err error, fallback string) {
	var notFound repository.NotFoundError
	if errors.As(err, &notFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": notFound.Error()})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
}
