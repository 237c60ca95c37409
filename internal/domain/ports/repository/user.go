package repository

import (
	"context"

	"telegram-catalog-bot/internal/domain/model"
)

// UserRepository persists the Users registry.
type UserRepository interface {
	Save(ctx context.Context, user *model.User) error
	FindByTelegramID(ctx context.Context, tgID int64) (*model.User, error)
	List(ctx context.Context) ([]*model.User, error)
	Count(ctx context.Context) (int, error)
}
