package repository

import (
	"context"

	"telegram-catalog-bot/internal/domain/model"
)

// BroadcastRepository persists the Broadcasts registry.
type BroadcastRepository interface {
	Save(ctx context.Context, b *model.Broadcast) error
	Find(ctx context.Context, id string) (*model.Broadcast, error)
	List(ctx context.Context) ([]*model.Broadcast, error)
	Delete(ctx context.Context, id string) error
	// Update applies fn to the stored broadcast under the store lock and
	// persists the result. fn returning an error aborts without saving.
	Update(ctx context.Context, id string, fn func(b *model.Broadcast) error) error
}
