package models

import (
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Category is the model for a menu category.
type Category struct {
	gorm.Model
	Name         string `gorm:"not null" json:"name"`
	DisplayOrder int    `gorm:"default:0" json:"display_order"`
	// Synonyms holds spoken family tokens ("버거", "burger") used as
	// last-resort matches when no menu name matches directly.
	Synonyms  pq.StringArray `gorm:"type:text[]" json:"synonyms"`
	MenuItems []MenuItem     `gorm:"foreignKey:CategoryID" json:"menu_items,omitempty"`
}

// MenuItem is the model for a single orderable menu item. Prices are in the
// minor currency unit (won).
type MenuItem struct {
	gorm.Model
	Name        string `gorm:"uniqueIndex;not null" json:"name"`
	NameEn      string `json:"name_en"`
	Description string `json:"description"`
	Price       int    `gorm:"not null;check:price >= 0" json:"price"`
	CategoryID  uint   `gorm:"index;not null" json:"category_id"`
	Available   bool   `gorm:"default:true" json:"available"`
	ImageURL    string `json:"image_url,omitempty"`
}
