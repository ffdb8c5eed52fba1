// Package catalog holds the product catalog rules: the access policy, the
// content filter, the product edit workflow and the cached category list.
package catalog

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"storefront/internal/models"
)

const maxNameLen = 150

// maxPrice is the first value that no longer fits decimal(10,2).
var maxPrice = decimal.New(1, 8)

// Service implements the catalog operations on top of a Repository.
type Service struct {
	repo   Repository
	filter *ContentFilter
	events EventPublisher
	log    zerolog.Logger
	now    func() time.Time
}

type Option func(*Service)

func WithContentFilter(f *ContentFilter) Option {
	return func(s *Service) { s.filter = f }
}

func WithEventPublisher(p EventPublisher) Option {
	return func(s *Service) {
		if p != nil {
			s.events = p
		}
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(s *Service) { s.log = l }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{
		repo:   repo,
		filter: NewContentFilter(),
		events: nopPublisher{},
		log:    zerolog.Nop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateProductInput is the product form. IsActive defaults to true.
type CreateProductInput struct {
	Name        string
	CategoryID  uint
	Description string
	Image       string
	Price       decimal.Decimal
	IsActive    *bool
}

// CreateProduct stores a new product owned by user.
func (s *Service) CreateProduct(ctx context.Context, user *models.User, in CreateProductInput) (*models.Product, error) {
	if user == nil {
		return nil, ErrPermissionDenied
	}
	name, err := s.validateName(in.Name)
	if err != nil {
		return nil, err
	}
	desc, err := s.filter.Validate(FieldDescription, in.Description)
	if err != nil {
		return nil, err
	}
	if err := validatePrice(in.Price); err != nil {
		return nil, err
	}
	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}
	ownerID := user.ID
	now := s.now()
	p := &models.Product{
		Base:        models.Base{CreatedAt: now, UpdatedAt: now},
		Name:        name,
		Description: desc,
		Image:       in.Image,
		CategoryID:  in.CategoryID,
		Price:       in.Price,
		IsActive:    active,
		OwnerID:     &ownerID,
	}

	var created *models.Product
	err = s.repo.Transaction(ctx, func(tx Repository) error {
		if err := checkCategory(ctx, tx, in.CategoryID); err != nil {
			return err
		}
		slug, err := uniqueSlug(ctx, tx, name)
		if err != nil {
			return persistence("generate slug", err)
		}
		p.Slug = slug
		if err := tx.CreateProduct(ctx, p); err != nil {
			return persistence("create product", err)
		}
		created, err = tx.FindProduct(ctx, p.ID)
		return persistence("reload product", err)
	})
	if err != nil {
		return nil, classify("create product", err)
	}
	s.log.Info().Uint("product_id", created.ID).Uint("owner_id", user.ID).Msg("product created")
	s.publish(ctx, TopicProductCreated, created, user)
	return created, nil
}

// GetProduct loads a product without counting a view.
func (s *Service) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	return load(ctx, s.repo, id)
}

// ListProducts returns products newest first.
func (s *Service) ListProducts(ctx context.Context, filter ProductFilter) ([]models.Product, error) {
	items, err := s.repo.ListProducts(ctx, filter)
	if err != nil {
		return nil, persistence("list products", err)
	}
	return items, nil
}

// ViewProduct loads a product and counts one view. Every call counts, there
// is no per-viewer deduplication.
func (s *Service) ViewProduct(ctx context.Context, id uint) (*models.Product, error) {
	p, err := load(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.IncrementViewed(ctx, id); err != nil {
		return nil, classify("increment viewed", err)
	}
	p.Viewed++
	return p, nil
}

// ToggleActive flips is_active. Concurrent toggles are not serialized.
func (s *Service) ToggleActive(ctx context.Context, id uint) (*models.Product, error) {
	p, err := load(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SetActive(ctx, id, !p.IsActive); err != nil {
		return nil, classify("toggle active", err)
	}
	p.IsActive = !p.IsActive
	s.publish(ctx, TopicProductToggled, p, nil)
	return p, nil
}

// DeleteProduct removes a product and its versions. Only the owner or a
// superuser may delete.
func (s *Service) DeleteProduct(ctx context.Context, user *models.User, id uint) error {
	p, err := load(ctx, s.repo, id)
	if err != nil {
		return err
	}
	if ResolveEditRights(user, p) != ScopeFull && !isSuperuser(user) {
		return ErrPermissionDenied
	}
	if err := s.repo.DeleteProduct(ctx, id); err != nil {
		return classify("delete product", err)
	}
	s.log.Info().Uint("product_id", id).Uint("actor_id", user.ID).Msg("product deleted")
	s.publish(ctx, TopicProductDeleted, p, user)
	return nil
}

// CreateCategory is restricted to staff.
func (s *Service) CreateCategory(ctx context.Context, user *models.User, name, description string) (*models.Category, error) {
	if !isStaff(user) {
		return nil, ErrPermissionDenied
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalid(FieldName, "is required")
	}
	if utf8.RuneCountInString(name) > maxNameLen {
		return nil, invalid(FieldName, "must be at most %d characters", maxNameLen)
	}
	c := &models.Category{Name: name, Description: description}
	if err := s.repo.CreateCategory(ctx, c); err != nil {
		return nil, classify("create category", err)
	}
	return c, nil
}

// DeleteCategory removes a category together with its products. Cached
// category lists are left to expire.
func (s *Service) DeleteCategory(ctx context.Context, user *models.User, id uint) error {
	if !isStaff(user) {
		return ErrPermissionDenied
	}
	if _, err := s.repo.FindCategory(ctx, id); err != nil {
		return classify("load category", err)
	}
	if err := s.repo.DeleteCategory(ctx, id); err != nil {
		return classify("delete category", err)
	}
	return nil
}

func (s *Service) validateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", invalid(FieldName, "is required")
	}
	if utf8.RuneCountInString(name) > maxNameLen {
		return "", invalid(FieldName, "must be at most %d characters", maxNameLen)
	}
	return s.filter.Validate(FieldName, name)
}

func validatePrice(p decimal.Decimal) error {
	if p.IsNegative() {
		return invalid(FieldPrice, "must not be negative")
	}
	if !p.Equal(p.Truncate(2)) {
		return invalid(FieldPrice, "must have at most 2 decimal places")
	}
	if p.GreaterThanOrEqual(maxPrice) {
		return invalid(FieldPrice, "must have at most 10 digits")
	}
	return nil
}

func checkCategory(ctx context.Context, repo Repository, id uint) error {
	if id == 0 {
		return invalid(FieldCategory, "is required")
	}
	if _, err := repo.FindCategory(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return invalid(FieldCategory, "category %d does not exist", id)
		}
		return persistence("load category", err)
	}
	return nil
}

func load(ctx context.Context, repo Repository, id uint) (*models.Product, error) {
	p, err := repo.FindProduct(ctx, id)
	if err != nil {
		return nil, classify("load product", err)
	}
	return p, nil
}

// classify passes the catalog error kinds through and wraps anything else
// as a PersistenceError.
func classify(op string, err error) error {
	var ve *ValidationError
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrPermissionDenied), errors.As(err, &ve):
		return err
	}
	return persistence(op, err)
}

func (s *Service) publish(ctx context.Context, topic string, p *models.Product, actor *models.User) {
	ev := newProductEvent(p, actor, s.now())
	if err := s.events.Publish(ctx, topic, strconv.FormatUint(uint64(p.ID), 10), ev); err != nil {
		s.log.Warn().Err(err).Str("topic", topic).Uint("product_id", p.ID).Msg("publish product event failed")
	}
}

func isSuperuser(u *models.User) bool {
	return u != nil && u.IsActive && u.IsSuperuser
}

func isStaff(u *models.User) bool {
	return u != nil && u.IsActive && (u.IsStaff || u.IsSuperuser)
}
