package repository

import (
	"context"

	"telegram-catalog-bot/internal/domain/model"
)

// PollRepository persists the Polls registry. Ids come from a monotonic
// counter stored alongside the polls, so they stay unique after deletions.
type PollRepository interface {
	// NextID reserves and persists the next poll id.
	NextID(ctx context.Context) (int, error)
	Save(ctx context.Context, p *model.Poll) error
	Find(ctx context.Context, id int) (*model.Poll, error)
	List(ctx context.Context) ([]*model.Poll, error)
	Delete(ctx context.Context, id int) error
	// Update applies fn to the stored poll under the store lock and
	// persists the result. fn returning an error aborts without saving.
	Update(ctx context.Context, id int, fn func(p *model.Poll) error) error
}
