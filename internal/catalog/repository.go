package catalog

import (
	"context"

	"storefront/internal/models"
)

// ProductFilter narrows ListProducts.
type ProductFilter struct {
	ActiveOnly bool
	OwnerID    *uint
}

// Repository is the storage contract of the catalog. Lookups return
// ErrNotFound for missing rows. Products are returned with Category and
// Versions loaded, versions ordered by version_number.
type Repository interface {
	// Transaction runs fn against a repository bound to one database
	// transaction; a non-nil error from fn rolls everything back.
	Transaction(ctx context.Context, fn func(tx Repository) error) error

	FindProduct(ctx context.Context, id uint) (*models.Product, error)
	// FindProductForUpdate locks the product row until the transaction ends.
	FindProductForUpdate(ctx context.Context, id uint) (*models.Product, error)
	ListProducts(ctx context.Context, filter ProductFilter) ([]models.Product, error)
	CreateProduct(ctx context.Context, p *models.Product) error
	// SaveProduct writes the editable columns and updated_at.
	SaveProduct(ctx context.Context, p *models.Product) error
	DeleteProduct(ctx context.Context, id uint) error
	IncrementViewed(ctx context.Context, id uint) error
	SetActive(ctx context.Context, id uint, active bool) error
	SlugExists(ctx context.Context, slug string) (bool, error)

	CreateVersion(ctx context.Context, v *models.Version) error
	SaveVersion(ctx context.Context, v *models.Version) error
	DeleteVersion(ctx context.Context, id uint) error

	FindCategory(ctx context.Context, id uint) (*models.Category, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
	CreateCategory(ctx context.Context, c *models.Category) error
	DeleteCategory(ctx context.Context, id uint) error
}
