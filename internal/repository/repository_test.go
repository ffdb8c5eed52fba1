package repository

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"storefront/internal/accounts"
	"storefront/internal/catalog"
	mydb "storefront/internal/db"
	"storefront/internal/models"
)

// PostgresSuite runs against a disposable database named by STOREFRONT_TEST_DSN.
type PostgresSuite struct {
	suite.Suite
	ctx      context.Context
	db       *gorm.DB
	products catalog.Repository
	users    accounts.Repository
	category *models.Category
}

func TestPostgresSuite(t *testing.T) {
	dsn := os.Getenv("STOREFRONT_TEST_DSN")
	if dsn == "" {
		t.Skip("STOREFRONT_TEST_DSN not set")
	}
	db, err := mydb.Open(mydb.Config{DSN: dsn}, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = mydb.Close(db) })
	suite.Run(t, &PostgresSuite{db: db})
}

func (s *PostgresSuite) SetupTest() {
	s.ctx = context.Background()
	s.Require().NoError(s.db.Migrator().DropTable("user_permissions", &models.Version{}, &models.Product{}, &models.Category{}, &models.User{}, &models.Permission{}))
	s.Require().NoError(mydb.Migrate(s.ctx, s.db))
	s.products = NewProductRepository(s.db)
	s.users = NewUserRepository(s.db)

	s.category = &models.Category{Name: "Phones"}
	s.Require().NoError(s.products.CreateCategory(s.ctx, s.category))
}

func (s *PostgresSuite) newProduct(name string) *models.Product {
	p := &models.Product{Name: name, CategoryID: s.category.ID, Price: decimal.RequireFromString("10.50"), IsActive: true}
	s.Require().NoError(s.products.CreateProduct(s.ctx, p))
	return p
}

func (s *PostgresSuite) TestProductRoundTrip() {
	p := s.newProduct("Pixel")
	for _, n := range []uint{2, 1} {
		s.Require().NoError(s.products.CreateVersion(s.ctx, &models.Version{ProductID: p.ID, Name: "v", VersionNumber: n, IsActual: true}))
	}

	loaded, err := s.products.FindProduct(s.ctx, p.ID)
	s.Require().NoError(err)
	s.True(decimal.RequireFromString("10.5").Equal(loaded.Price))
	s.Require().NotNil(loaded.Category)
	s.Equal("Phones", loaded.Category.Name)
	s.Require().Len(loaded.Versions, 2)
	s.EqualValues(1, loaded.Versions[0].VersionNumber)
}

func (s *PostgresSuite) TestSaveProductKeepsFalse() {
	p := s.newProduct("Pixel")
	p.IsActive = false
	p.Description = ""
	s.Require().NoError(s.products.SaveProduct(s.ctx, p))

	loaded, err := s.products.FindProduct(s.ctx, p.ID)
	s.Require().NoError(err)
	s.False(loaded.IsActive)
}

func (s *PostgresSuite) TestIncrementViewed() {
	p := s.newProduct("Pixel")
	for i := 0; i < 3; i++ {
		s.Require().NoError(s.products.IncrementViewed(s.ctx, p.ID))
	}
	loaded, err := s.products.FindProduct(s.ctx, p.ID)
	s.Require().NoError(err)
	s.EqualValues(3, loaded.Viewed)
	s.ErrorIs(s.products.IncrementViewed(s.ctx, 999999), catalog.ErrNotFound)
}

func (s *PostgresSuite) TestTransactionRollback() {
	p := s.newProduct("Pixel")
	boom := errors.New("boom")
	err := s.products.Transaction(s.ctx, func(tx catalog.Repository) error {
		locked, err := tx.FindProductForUpdate(s.ctx, p.ID)
		s.Require().NoError(err)
		locked.Name = "Changed"
		s.Require().NoError(tx.SaveProduct(s.ctx, locked))
		s.Require().NoError(tx.CreateVersion(s.ctx, &models.Version{ProductID: p.ID, Name: "v", VersionNumber: 1, IsActual: true}))
		return boom
	})
	s.ErrorIs(err, boom)

	loaded, err := s.products.FindProduct(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Equal("Pixel", loaded.Name)
	s.Empty(loaded.Versions)
}

func (s *PostgresSuite) TestDeleteCategoryCascades() {
	p := s.newProduct("Pixel")
	s.Require().NoError(s.products.CreateVersion(s.ctx, &models.Version{ProductID: p.ID, Name: "v", VersionNumber: 1, IsActual: true}))
	s.Require().NoError(s.products.DeleteCategory(s.ctx, s.category.ID))

	_, err := s.products.FindProduct(s.ctx, p.ID)
	s.ErrorIs(err, catalog.ErrNotFound)
}

func (s *PostgresSuite) TestSlugExists() {
	p := s.newProduct("Pixel")
	slug := "pixel"
	p.Slug = &slug
	s.Require().NoError(s.db.Model(p).Update("slug", slug).Error)

	taken, err := s.products.SlugExists(s.ctx, "pixel")
	s.Require().NoError(err)
	s.True(taken)
	taken, err = s.products.SlugExists(s.ctx, "pixel-2")
	s.Require().NoError(err)
	s.False(taken)
}

func (s *PostgresSuite) TestUsersAndPermissions() {
	u := &models.User{Email: "mod@example.com", PasswordHash: "x", IsActive: true}
	s.Require().NoError(s.users.CreateUser(s.ctx, u))
	s.ErrorIs(s.users.CreateUser(s.ctx, &models.User{Email: "mod@example.com", PasswordHash: "x"}), accounts.ErrEmailTaken)

	s.Require().NoError(s.users.GrantPermissions(s.ctx, u.ID, models.ModeratorPermissions...))
	s.Error(s.users.GrantPermissions(s.ctx, u.ID, "can_fly"))

	loaded, err := s.users.FindUserByEmail(s.ctx, "mod@example.com")
	s.Require().NoError(err)
	s.True(loaded.HasPerms(models.ModeratorPermissions...))

	loaded.IsActive = false
	s.Require().NoError(s.users.SaveUser(s.ctx, loaded))
	again, err := s.users.FindUser(s.ctx, u.ID)
	s.Require().NoError(err)
	s.False(again.IsActive)

	_, err = s.users.FindUserByToken(s.ctx, "missing")
	s.ErrorIs(err, accounts.ErrUserNotFound)
}

func (s *PostgresSuite) TestDeleteOwnerKeepsProduct() {
	owner := &models.User{Email: "owner@example.com", PasswordHash: "x", IsActive: true}
	s.Require().NoError(s.users.CreateUser(s.ctx, owner))
	s.Require().NoError(s.users.GrantPermissions(s.ctx, owner.ID, models.ModeratorPermissions...))
	p := &models.Product{Name: "Pixel", CategoryID: s.category.ID, Price: decimal.NewFromInt(5), IsActive: true, OwnerID: &owner.ID}
	s.Require().NoError(s.products.CreateProduct(s.ctx, p))
	s.Require().NoError(s.products.CreateVersion(s.ctx, &models.Version{ProductID: p.ID, Name: "v", VersionNumber: 1, IsActual: true}))

	s.Require().NoError(s.users.DeleteUser(s.ctx, owner.ID))
	s.ErrorIs(s.users.DeleteUser(s.ctx, owner.ID), accounts.ErrUserNotFound)

	loaded, err := s.products.FindProduct(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Nil(loaded.OwnerID)
	s.Len(loaded.Versions, 1)
}
