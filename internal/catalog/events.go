package catalog

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"storefront/internal/models"
)

// Event topics.
const (
	TopicProductCreated = "product.created"
	TopicProductUpdated = "product.updated"
	TopicProductDeleted = "product.deleted"
	TopicProductToggled = "product.toggled"
)

// EventPublisher delivers product lifecycle events.
type EventPublisher interface {
	Publish(ctx context.Context, topic, key string, event any) error
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, string, string, any) error { return nil }

// ProductEvent is the payload of every product topic.
type ProductEvent struct {
	ProductID  uint            `json:"product_id"`
	Name       string          `json:"name"`
	CategoryID uint            `json:"category_id"`
	Price      decimal.Decimal `json:"price"`
	IsActive   bool            `json:"is_active"`
	Versions   int             `json:"versions"`
	ActorID    uint            `json:"actor_id,omitempty"`
	Timestamp  time.Time       `json:"timestamp"`
}

func newProductEvent(p *models.Product, actor *models.User, at time.Time) ProductEvent {
	ev := ProductEvent{
		ProductID:  p.ID,
		Name:       p.Name,
		CategoryID: p.CategoryID,
		Price:      p.Price,
		IsActive:   p.IsActive,
		Versions:   len(p.Versions),
		Timestamp:  at,
	}
	if actor != nil {
		ev.ActorID = actor.ID
	}
	return ev
}
