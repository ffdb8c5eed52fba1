// Package repository holds the gorm implementations of the storage contracts.
package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"storefront/internal/catalog"
	"storefront/internal/models"
)

type productRepository struct {
	db *gorm.DB
}

// NewProductRepository returns the postgres-backed catalog repository.
func NewProductRepository(db *gorm.DB) catalog.Repository {
	return &productRepository{db: db}
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return catalog.ErrNotFound
	}
	return err
}

func (r *productRepository) Transaction(ctx context.Context, fn func(tx catalog.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&productRepository{db: tx})
	})
}

func withVersions(db *gorm.DB) *gorm.DB {
	return db.Preload("Category").Preload("Versions", func(db *gorm.DB) *gorm.DB {
		return db.Order("version_number ASC, id ASC")
	})
}

func (r *productRepository) FindProduct(ctx context.Context, id uint) (*models.Product, error) {
	var p models.Product
	if err := withVersions(r.db.WithContext(ctx)).First(&p, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (r *productRepository) FindProductForUpdate(ctx context.Context, id uint) (*models.Product, error) {
	var p models.Product
	err := withVersions(r.db.WithContext(ctx)).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&p, id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (r *productRepository) ListProducts(ctx context.Context, filter catalog.ProductFilter) ([]models.Product, error) {
	q := withVersions(r.db.WithContext(ctx)).Order("id DESC")
	if filter.ActiveOnly {
		q = q.Where("is_active = ?", true)
	}
	if filter.OwnerID != nil {
		q = q.Where("owner_id = ?", *filter.OwnerID)
	}
	items := []models.Product{}
	if err := q.Find(&items).Error; err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return items, nil
}

func (r *productRepository) CreateProduct(ctx context.Context, p *models.Product) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(p).Error
}

// SaveProduct writes through a column map so false and zero values are kept
// and associations are left alone.
func (r *productRepository) SaveProduct(ctx context.Context, p *models.Product) error {
	res := r.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", p.ID).Updates(map[string]any{
		"name":        p.Name,
		"description": p.Description,
		"image":       p.Image,
		"category_id": p.CategoryID,
		"price":       p.Price,
		"is_active":   p.IsActive,
		"updated_at":  p.UpdatedAt,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return catalog.ErrNotFound
	}
	return nil
}

func (r *productRepository) DeleteProduct(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Product{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return catalog.ErrNotFound
	}
	return nil
}

// IncrementViewed is a single UPDATE so concurrent views are never lost.
func (r *productRepository) IncrementViewed(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", id).
		UpdateColumn("viewed", gorm.Expr("viewed + ?", 1))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return catalog.ErrNotFound
	}
	return nil
}

func (r *productRepository) SetActive(ctx context.Context, id uint, active bool) error {
	res := r.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", id).Update("is_active", active)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return catalog.ErrNotFound
	}
	return nil
}

func (r *productRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Product{}).Where("slug = ?", slug).Count(&n).Error
	return n > 0, err
}

func (r *productRepository) CreateVersion(ctx context.Context, v *models.Version) error {
	return r.db.WithContext(ctx).Create(v).Error
}

func (r *productRepository) SaveVersion(ctx context.Context, v *models.Version) error {
	res := r.db.WithContext(ctx).Model(&models.Version{}).Where("id = ? AND product_id = ?", v.ID, v.ProductID).Updates(map[string]any{
		"name":           v.Name,
		"version_number": v.VersionNumber,
		"is_actual":      v.IsActual,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return catalog.ErrNotFound
	}
	return nil
}

func (r *productRepository) DeleteVersion(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Version{}, id).Error
}

func (r *productRepository) FindCategory(ctx context.Context, id uint) (*models.Category, error) {
	var c models.Category
	if err := r.db.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

func (r *productRepository) ListCategories(ctx context.Context) ([]models.Category, error) {
	cats := []models.Category{}
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&cats).Error; err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return cats, nil
}

func (r *productRepository) CreateCategory(ctx context.Context, c *models.Category) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *productRepository) DeleteCategory(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Category{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return catalog.ErrNotFound
	}
	return nil
}
