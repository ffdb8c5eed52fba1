// Package memory is an in-process implementation of the catalog and account
// repositories. Transactions run against a copy of the state that replaces
// the live state on commit, so a failed transaction leaves nothing behind.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"storefront/internal/accounts"
	"storefront/internal/catalog"
	"storefront/internal/models"
)

type state struct {
	products   map[uint]models.Product
	versions   map[uint]models.Version
	categories map[uint]models.Category
	users      map[uint]models.User
	perms      map[string]models.Permission
	grants     map[uint]map[string]bool
	seq        uint
}

func newState() *state {
	return &state{
		products:   make(map[uint]models.Product),
		versions:   make(map[uint]models.Version),
		categories: make(map[uint]models.Category),
		users:      make(map[uint]models.User),
		perms:      make(map[string]models.Permission),
		grants:     make(map[uint]map[string]bool),
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.products {
		c.products[k] = v
	}
	for k, v := range s.versions {
		c.versions[k] = v
	}
	for k, v := range s.categories {
		c.categories[k] = v
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.perms {
		c.perms[k] = v
	}
	for k, g := range s.grants {
		cg := make(map[string]bool, len(g))
		for code := range g {
			cg[code] = true
		}
		c.grants[k] = cg
	}
	c.seq = s.seq
	return c
}

func (s *state) nextID() uint {
	s.seq++
	return s.seq
}

// Store holds all rows behind a single mutex.
type Store struct {
	mu   *sync.Mutex
	root *Store
	st   *state
	inTx bool

	// Fail, when set, is consulted before every write with the operation
	// name ("create version", "save product", ...). A non-nil result is
	// returned from the write instead of performing it.
	Fail func(op string) error
}

// New returns an empty store seeded with the moderator permissions.
func New() *Store {
	s := &Store{mu: &sync.Mutex{}, st: newState()}
	s.root = s
	for _, code := range models.ModeratorPermissions {
		s.st.perms[code] = models.Permission{ID: s.st.nextID(), Codename: code, Name: strings.ReplaceAll(code, "_", " ")}
	}
	return s
}

var (
	_ catalog.Repository  = (*Store)(nil)
	_ accounts.Repository = (*Store)(nil)
)

func (s *Store) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *Store) fail(op string) error {
	if f := s.root.Fail; f != nil {
		return f(op)
	}
	return nil
}

// Transaction holds the store lock for the whole of fn.
func (s *Store) Transaction(ctx context.Context, fn func(tx catalog.Repository) error) error {
	if s.inTx {
		return fn(s)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	tx := &Store{mu: s.mu, root: s, st: s.st.clone(), inTx: true}
	if err := fn(tx); err != nil {
		return err
	}
	s.st = tx.st
	return nil
}

func (s *Store) product(id uint) (*models.Product, error) {
	p, ok := s.st.products[id]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	if c, ok := s.st.categories[p.CategoryID]; ok {
		p.Category = &c
	}
	p.Versions = []models.Version{}
	for _, v := range s.st.versions {
		if v.ProductID == id {
			p.Versions = append(p.Versions, v)
		}
	}
	sort.Slice(p.Versions, func(i, j int) bool {
		a, b := p.Versions[i], p.Versions[j]
		if a.VersionNumber != b.VersionNumber {
			return a.VersionNumber < b.VersionNumber
		}
		return a.ID < b.ID
	})
	return &p, nil
}

func (s *Store) FindProduct(_ context.Context, id uint) (*models.Product, error) {
	defer s.lock()()
	return s.product(id)
}

func (s *Store) FindProductForUpdate(ctx context.Context, id uint) (*models.Product, error) {
	return s.FindProduct(ctx, id)
}

func (s *Store) ListProducts(_ context.Context, filter catalog.ProductFilter) ([]models.Product, error) {
	defer s.lock()()
	items := []models.Product{}
	for id, p := range s.st.products {
		if filter.ActiveOnly && !p.IsActive {
			continue
		}
		if filter.OwnerID != nil && (p.OwnerID == nil || *p.OwnerID != *filter.OwnerID) {
			continue
		}
		full, _ := s.product(id)
		items = append(items, *full)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID > items[j].ID })
	return items, nil
}

// stored strips associations and detaches pointer fields.
func stored(p models.Product) models.Product {
	p.Category = nil
	p.Owner = nil
	p.Versions = nil
	if p.Slug != nil {
		slug := *p.Slug
		p.Slug = &slug
	}
	if p.OwnerID != nil {
		id := *p.OwnerID
		p.OwnerID = &id
	}
	return p
}

func (s *Store) CreateProduct(_ context.Context, p *models.Product) error {
	defer s.lock()()
	if err := s.fail("create product"); err != nil {
		return err
	}
	if _, ok := s.st.categories[p.CategoryID]; !ok {
		return fmt.Errorf("category %d: foreign key violation", p.CategoryID)
	}
	p.ID = s.st.nextID()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = p.CreatedAt
	}
	s.st.products[p.ID] = stored(*p)
	return nil
}

func (s *Store) SaveProduct(_ context.Context, p *models.Product) error {
	defer s.lock()()
	if err := s.fail("save product"); err != nil {
		return err
	}
	cur, ok := s.st.products[p.ID]
	if !ok {
		return catalog.ErrNotFound
	}
	cur.Name = p.Name
	cur.Description = p.Description
	cur.Image = p.Image
	cur.CategoryID = p.CategoryID
	cur.Price = p.Price
	cur.IsActive = p.IsActive
	cur.UpdatedAt = p.UpdatedAt
	s.st.products[p.ID] = stored(cur)
	return nil
}

func (s *Store) DeleteProduct(_ context.Context, id uint) error {
	defer s.lock()()
	if err := s.fail("delete product"); err != nil {
		return err
	}
	if _, ok := s.st.products[id]; !ok {
		return catalog.ErrNotFound
	}
	s.deleteProduct(id)
	return nil
}

func (s *Store) deleteProduct(id uint) {
	delete(s.st.products, id)
	for vid, v := range s.st.versions {
		if v.ProductID == id {
			delete(s.st.versions, vid)
		}
	}
}

func (s *Store) IncrementViewed(_ context.Context, id uint) error {
	defer s.lock()()
	if err := s.fail("increment viewed"); err != nil {
		return err
	}
	p, ok := s.st.products[id]
	if !ok {
		return catalog.ErrNotFound
	}
	p.Viewed++
	s.st.products[id] = p
	return nil
}

func (s *Store) SetActive(_ context.Context, id uint, active bool) error {
	defer s.lock()()
	if err := s.fail("set active"); err != nil {
		return err
	}
	p, ok := s.st.products[id]
	if !ok {
		return catalog.ErrNotFound
	}
	p.IsActive = active
	s.st.products[id] = p
	return nil
}

func (s *Store) SlugExists(_ context.Context, slug string) (bool, error) {
	defer s.lock()()
	for _, p := range s.st.products {
		if p.Slug != nil && *p.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) CreateVersion(_ context.Context, v *models.Version) error {
	defer s.lock()()
	if err := s.fail("create version"); err != nil {
		return err
	}
	if _, ok := s.st.products[v.ProductID]; !ok {
		return fmt.Errorf("product %d: foreign key violation", v.ProductID)
	}
	v.ID = s.st.nextID()
	s.st.versions[v.ID] = *v
	return nil
}

func (s *Store) SaveVersion(_ context.Context, v *models.Version) error {
	defer s.lock()()
	if err := s.fail("save version"); err != nil {
		return err
	}
	if _, ok := s.st.versions[v.ID]; !ok {
		return catalog.ErrNotFound
	}
	s.st.versions[v.ID] = *v
	return nil
}

func (s *Store) DeleteVersion(_ context.Context, id uint) error {
	defer s.lock()()
	if err := s.fail("delete version"); err != nil {
		return err
	}
	delete(s.st.versions, id)
	return nil
}

func (s *Store) FindCategory(_ context.Context, id uint) (*models.Category, error) {
	defer s.lock()()
	c, ok := s.st.categories[id]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	return &c, nil
}

func (s *Store) ListCategories(_ context.Context) ([]models.Category, error) {
	defer s.lock()()
	cats := make([]models.Category, 0, len(s.st.categories))
	for _, c := range s.st.categories {
		cats = append(cats, c)
	}
	sort.Slice(cats, func(i, j int) bool { return cats[i].ID < cats[j].ID })
	return cats, nil
}

func (s *Store) CreateCategory(_ context.Context, c *models.Category) error {
	defer s.lock()()
	if err := s.fail("create category"); err != nil {
		return err
	}
	c.ID = s.st.nextID()
	s.st.categories[c.ID] = *c
	return nil
}

// DeleteCategory cascades to the category's products and their versions.
func (s *Store) DeleteCategory(_ context.Context, id uint) error {
	defer s.lock()()
	if err := s.fail("delete category"); err != nil {
		return err
	}
	if _, ok := s.st.categories[id]; !ok {
		return catalog.ErrNotFound
	}
	delete(s.st.categories, id)
	for pid, p := range s.st.products {
		if p.CategoryID == id {
			s.deleteProduct(pid)
		}
	}
	return nil
}

func (s *Store) user(id uint) (*models.User, error) {
	u, ok := s.st.users[id]
	if !ok {
		return nil, accounts.ErrUserNotFound
	}
	u.Permissions = nil
	for code := range s.st.grants[id] {
		u.Permissions = append(u.Permissions, s.st.perms[code])
	}
	sort.Slice(u.Permissions, func(i, j int) bool { return u.Permissions[i].ID < u.Permissions[j].ID })
	if u.Token != nil {
		t := *u.Token
		u.Token = &t
	}
	return &u, nil
}

func (s *Store) FindUser(_ context.Context, id uint) (*models.User, error) {
	defer s.lock()()
	return s.user(id)
}

func (s *Store) FindUserByEmail(_ context.Context, email string) (*models.User, error) {
	defer s.lock()()
	for id, u := range s.st.users {
		if u.Email == email {
			return s.user(id)
		}
	}
	return nil, accounts.ErrUserNotFound
}

func (s *Store) FindUserByToken(_ context.Context, token string) (*models.User, error) {
	defer s.lock()()
	for id, u := range s.st.users {
		if u.Token != nil && *u.Token == token {
			return s.user(id)
		}
	}
	return nil, accounts.ErrUserNotFound
}

func (s *Store) CreateUser(_ context.Context, u *models.User) error {
	defer s.lock()()
	if err := s.fail("create user"); err != nil {
		return err
	}
	for _, cur := range s.st.users {
		if cur.Email == u.Email {
			return accounts.ErrEmailTaken
		}
	}
	u.ID = s.st.nextID()
	now := time.Now()
	u.CreatedAt, u.UpdatedAt = now, now
	row := *u
	row.Permissions = nil
	s.st.users[u.ID] = row
	return nil
}

func (s *Store) SaveUser(_ context.Context, u *models.User) error {
	defer s.lock()()
	if err := s.fail("save user"); err != nil {
		return err
	}
	if _, ok := s.st.users[u.ID]; !ok {
		return accounts.ErrUserNotFound
	}
	u.UpdatedAt = time.Now()
	row := *u
	row.Permissions = nil
	s.st.users[u.ID] = row
	return nil
}

func (s *Store) GrantPermissions(_ context.Context, userID uint, codenames ...string) error {
	defer s.lock()()
	if _, ok := s.st.users[userID]; !ok {
		return accounts.ErrUserNotFound
	}
	for _, code := range codenames {
		if _, ok := s.st.perms[code]; !ok {
			return fmt.Errorf("unknown permission %q", code)
		}
	}
	g := s.st.grants[userID]
	if g == nil {
		g = make(map[string]bool)
		s.st.grants[userID] = g
	}
	for _, code := range codenames {
		g[code] = true
	}
	return nil
}

// DeleteUser drops the user and its grants and clears ownership of its products.
func (s *Store) DeleteUser(_ context.Context, id uint) error {
	defer s.lock()()
	if err := s.fail("delete user"); err != nil {
		return err
	}
	if _, ok := s.st.users[id]; !ok {
		return accounts.ErrUserNotFound
	}
	delete(s.st.users, id)
	delete(s.st.grants, id)
	for pid, p := range s.st.products {
		if p.OwnerID != nil && *p.OwnerID == id {
			p.OwnerID = nil
			p.Owner = nil
			s.st.products[pid] = p
		}
	}
	return nil
}
