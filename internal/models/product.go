package models

import "github.com/shopspring/decimal"

// Product is a catalog item. Owner becomes nil when the owning user is removed.
type Product struct {
	Base
	Name        string          `gorm:"size:150;not null" json:"name"`
	Description string          `gorm:"type:text" json:"description,omitempty"`
	Image       string          `gorm:"size:255" json:"image,omitempty"` // asset reference, e.g. "/media/catalog/123.jpg"
	CategoryID  uint            `gorm:"index;not null" json:"category_id"`
	Category    *Category       `gorm:"constraint:OnDelete:CASCADE" json:"category,omitempty"`
	Price       decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	Viewed      uint            `gorm:"not null;default:0" json:"viewed"`
	IsActive    bool            `gorm:"not null" json:"is_active"`
	Slug        *string         `gorm:"size:150;uniqueIndex" json:"slug,omitempty"`
	OwnerID     *uint           `gorm:"index" json:"owner_id,omitempty"`
	Owner       *User           `gorm:"constraint:OnDelete:SET NULL" json:"-"`
	Versions    []Version       `gorm:"constraint:OnDelete:CASCADE" json:"versions"`
}

// OwnedBy reports whether u is the current owner.
func (p *Product) OwnedBy(u *User) bool {
	return u != nil && p.OwnerID != nil && *p.OwnerID == u.ID
}

// Version is a dependent row of a Product, edited only together with it.
// version_number is not unique per product.
type Version struct {
	ID            uint   `gorm:"primaryKey" json:"id"`
	ProductID     uint   `gorm:"index:idx_versions_product_number,priority:1;not null" json:"product_id"`
	Name          string `gorm:"size:150" json:"name"`
	VersionNumber uint   `gorm:"index:idx_versions_product_number,priority:2;not null" json:"version_number"`
	IsActual      bool   `gorm:"not null" json:"is_actual"`
}
