package catalog_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"storefront/internal/catalog"
	"storefront/internal/models"
	"storefront/internal/repository/memory"
)

type recordedEvent struct {
	Topic string
	Key   string
	Event catalog.ProductEvent
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (p *recordingPublisher) Publish(_ context.Context, topic, key string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, recordedEvent{Topic: topic, Key: key, Event: event.(catalog.ProductEvent)})
	return nil
}

func (p *recordingPublisher) topics() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, e := range p.events {
		out = append(out, e.Topic)
	}
	return out
}

type fixture struct {
	ctx       context.Context
	store     *memory.Store
	svc       *catalog.Service
	events    *recordingPublisher
	owner     *models.User
	moderator *models.User
	stranger  *models.User
	admin     *models.User
	phones    *models.Category
	laptops   *models.Category
}

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.New()
	events := &recordingPublisher{}
	f := &fixture{
		ctx:    ctx,
		store:  store,
		events: events,
		svc: catalog.NewService(store,
			catalog.WithEventPublisher(events),
			catalog.WithClock(func() time.Time { return fixedNow }),
		),
	}
	f.owner = f.user(t, "owner@example.com", false)
	f.moderator = f.user(t, "moderator@example.com", false, models.ModeratorPermissions...)
	f.stranger = f.user(t, "stranger@example.com", false)
	f.admin = f.user(t, "admin@example.com", true)

	f.phones = &models.Category{Name: "Phones"}
	require.NoError(t, store.CreateCategory(ctx, f.phones))
	f.laptops = &models.Category{Name: "Laptops"}
	require.NoError(t, store.CreateCategory(ctx, f.laptops))
	return f
}

func (f *fixture) user(t *testing.T, email string, superuser bool, perms ...string) *models.User {
	t.Helper()
	u := &models.User{Email: email, IsActive: true, IsStaff: superuser, IsSuperuser: superuser}
	require.NoError(t, f.store.CreateUser(f.ctx, u))
	if len(perms) > 0 {
		require.NoError(t, f.store.GrantPermissions(f.ctx, u.ID, perms...))
	}
	loaded, err := f.store.FindUser(f.ctx, u.ID)
	require.NoError(t, err)
	return loaded
}

func (f *fixture) product(t *testing.T, name string, versions ...models.Version) *models.Product {
	t.Helper()
	p, err := f.svc.CreateProduct(f.ctx, f.owner, catalog.CreateProductInput{
		Name:        name,
		CategoryID:  f.phones.ID,
		Description: "A solid device",
		Price:       decimal.RequireFromString("199.99"),
	})
	require.NoError(t, err)
	for i := range versions {
		versions[i].ProductID = p.ID
		require.NoError(t, f.store.CreateVersion(f.ctx, &versions[i]))
	}
	p, err = f.store.FindProduct(f.ctx, p.ID)
	require.NoError(t, err)
	return p
}

func ptr[T any](v T) *T { return &v }
