package usecase

import (
	"context"
	"errors"

	"telegram-catalog-bot/internal/domain"
	"telegram-catalog-bot/internal/domain/model"
	"telegram-catalog-bot/internal/domain/ports/repository"
	"telegram-catalog-bot/internal/infra/logging"

	"github.com/rs/zerolog"
)

// Compile-time check
var _ UserUseCase = (*userUC)(nil)

// UserUseCase exposes user-related operations used by bot flows.
type UserUseCase interface {
	// RegisterOrFetch upserts the user: profile fields refresh and the
	// last-active timestamp is touched on every inbound event.
	RegisterOrFetch(ctx context.Context, tgID int64, username, firstName, lastName string) (*model.User, error)
	GetByTelegramID(ctx context.Context, tgID int64) (*model.User, error)
	List(ctx context.Context) ([]*model.User, error)
	Count(ctx context.Context) (int, error)
}

type userUC struct {
	users repository.UserRepository
	log   *zerolog.Logger
}

func NewUserUseCase(users repository.UserRepository, logger *zerolog.Logger) *userUC {
	return &userUC{users: users, log: logger}
}

func (u *userUC) RegisterOrFetch(ctx context.Context, tgID int64, username, firstName, lastName string) (*model.User, error) {
	defer logging.TraceDuration(u.log, "UserUC.RegisterOrFetch")()

	usr, err := u.users.FindByTelegramID(ctx, tgID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		nu, err := model.NewUser(tgID, username, firstName, lastName)
		if err != nil {
			return nil, err
		}
		if err := u.users.Save(ctx, nu); err != nil {
			return nil, err
		}
		u.log.Debug().Int64("tg_id", tgID).Msg("new user registered")
		return nu, nil
	}

	if username != "" {
		usr.Username = username
	}
	if firstName != "" {
		usr.FirstName = firstName
	}
	if lastName != "" {
		usr.LastName = lastName
	}
	usr.Touch()
	if err := u.users.Save(ctx, usr); err != nil {
		u.log.Error().Err(err).Int64("tg_id", tgID).Msg("failed to update user")
		return nil, err
	}
	return usr, nil
}

func (u *userUC) GetByTelegramID(ctx context.Context, tgID int64) (*model.User, error) {
	return u.users.FindByTelegramID(ctx, tgID)
}

func (u *userUC) List(ctx context.Context) ([]*model.User, error) {
	return u.users.List(ctx)
}

func (u *userUC) Count(ctx context.Context) (int, error) {
	return u.users.Count(ctx)
}
