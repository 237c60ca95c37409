package usecase

import (
	"context"
	"errors"
	"time"

	"telegram-catalog-bot/internal/domain"
	"telegram-catalog-bot/internal/domain/model"
	"telegram-catalog-bot/internal/domain/ports/repository"
	"telegram-catalog-bot/internal/infra/logging"
	"telegram-catalog-bot/internal/infra/metrics"

	"github.com/rs/zerolog"
)

// Compile-time check
var _ AccessUseCase = (*accessUC)(nil)

// AccessUseCase decides who may use the bot: standing authorization, bans,
// temporary single-use codes and group membership.
type AccessUseCase interface {
	IsAuthorized(ctx context.Context, userID int64) (bool, error)
	IsBanned(ctx context.Context, userID int64) (bool, error)
	Ban(ctx context.Context, userID int64) error
	Unban(ctx context.Context, userID int64) error

	GenerateCodes(ctx context.Context, creatorID int64, count int) ([]*model.AccessCode, error)
	RedeemCode(ctx context.Context, code string, userID int64, username string) error
	ListCodes(ctx context.Context, used bool) ([]*model.AccessCode, error)
	PurgeExpired(ctx context.Context) (int, error)

	CreateGroup(ctx context.Context, name string) error
	DeleteGroup(ctx context.Context, name string) ([]string, error)
	AddGroupMember(ctx context.Context, name string, userID int64) error
	RemoveGroupMember(ctx context.Context, name string, userID int64) error
	IsGroupMember(ctx context.Context, name string, userID int64) (bool, error)
	ListGroups(ctx context.Context) (map[string][]int64, error)
}

type accessUC struct {
	access         repository.AccessRepository
	catalog        repository.CatalogRepository
	states         repository.StateRepository
	retainRedeemed bool
	log            *zerolog.Logger
}

func NewAccessUseCase(
	access repository.AccessRepository,
	catalog repository.CatalogRepository,
	states repository.StateRepository,
	retainRedeemed bool,
	logger *zerolog.Logger,
) *accessUC {
	return &accessUC{
		access:         access,
		catalog:        catalog,
		states:         states,
		retainRedeemed: retainRedeemed,
		log:            logger,
	}
}

func (u *accessUC) IsAuthorized(ctx context.Context, userID int64) (bool, error) {
	return u.access.IsAuthorized(ctx, userID)
}

func (u *accessUC) IsBanned(ctx context.Context, userID int64) (bool, error) {
	return u.access.IsBanned(ctx, userID)
}

// Ban is idempotent: it drops standing authorization, records the ban and
// discards any conversation the user had in progress.
func (u *accessUC) Ban(ctx context.Context, userID int64) error {
	defer logging.TraceDuration(u.log, "AccessUC.Ban")()
	if err := u.access.Ban(ctx, userID); err != nil {
		return err
	}
	if err := u.states.ClearState(ctx, userID); err != nil {
		// The ban itself stands; a stale session only lives until its TTL.
		u.log.Warn().Err(err).Int64("tg_id", userID).Msg("failed to clear state for banned user")
	}
	u.log.Info().Int64("tg_id", userID).Msg("user banned")
	return nil
}

// Unban lifts the ban but never re-grants authorization.
func (u *accessUC) Unban(ctx context.Context, userID int64) error {
	defer logging.TraceDuration(u.log, "AccessUC.Unban")()
	if err := u.access.Unban(ctx, userID); err != nil {
		return err
	}
	u.log.Info().Int64("tg_id", userID).Msg("user unbanned")
	return nil
}

func (u *accessUC) GenerateCodes(ctx context.Context, creatorID int64, count int) ([]*model.AccessCode, error) {
	defer logging.TraceDuration(u.log, "AccessUC.GenerateCodes")()
	if count <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	codes := make([]*model.AccessCode, 0, count)
	for i := 0; i < count; i++ {
		token, err := generateAccessCode()
		if err != nil {
			return nil, err
		}
		codes = append(codes, model.NewAccessCode(token, creatorID))
	}
	if err := u.access.AddCodes(ctx, codes); err != nil {
		return nil, err
	}
	u.log.Info().Int("count", count).Int64("creator", creatorID).Msg("access codes generated")
	return codes, nil
}

func (u *accessUC) RedeemCode(ctx context.Context, code string, userID int64, username string) error {
	defer logging.TraceDuration(u.log, "AccessUC.RedeemCode")()
	err := u.access.RedeemCode(ctx, code, userID, username, time.Now())
	switch {
	case err == nil:
		metrics.IncCodeRedeemed("ok")
		u.log.Info().Int64("tg_id", userID).Msg("access code redeemed")
	case errors.Is(err, domain.ErrCodeNotFound):
		metrics.IncCodeRedeemed("not_found")
	case errors.Is(err, domain.ErrCodeAlreadyUsed):
		metrics.IncCodeRedeemed("used")
	case errors.Is(err, domain.ErrCodeExpired):
		metrics.IncCodeRedeemed("expired")
	}
	return err
}

func (u *accessUC) ListCodes(ctx context.Context, used bool) ([]*model.AccessCode, error) {
	return u.access.ListCodes(ctx, used, time.Now())
}

func (u *accessUC) PurgeExpired(ctx context.Context) (int, error) {
	return u.access.PurgeExpired(ctx, u.retainRedeemed, time.Now())
}

func (u *accessUC) CreateGroup(ctx context.Context, name string) error {
	defer logging.TraceDuration(u.log, "AccessUC.CreateGroup")()
	if name == "" {
		return domain.ErrInvalidArgument
	}
	return u.access.CreateGroup(ctx, name)
}

// DeleteGroup removes the group and cascades into the catalog: categories
// and products carrying the "name_" prefix disappear and the view counters
// are re-derived without them. Returns the removed category names.
func (u *accessUC) DeleteGroup(ctx context.Context, name string) ([]string, error) {
	defer logging.TraceDuration(u.log, "AccessUC.DeleteGroup")()
	if err := u.access.DeleteGroup(ctx, name); err != nil {
		return nil, err
	}
	removed, err := u.catalog.DeleteCategoriesWithPrefix(ctx, name+"_")
	if err != nil {
		// Group is gone; orphaned categories are invisible without it but
		// the operator should know the cascade did not finish.
		u.log.Error().Err(err).Str("group", name).Msg("catalog cascade failed after group deletion")
		return nil, err
	}
	u.log.Info().Str("group", name).Strs("categories", removed).Msg("group deleted")
	return removed, nil
}

func (u *accessUC) AddGroupMember(ctx context.Context, name string, userID int64) error {
	return u.access.AddGroupMember(ctx, name, userID)
}

func (u *accessUC) RemoveGroupMember(ctx context.Context, name string, userID int64) error {
	return u.access.RemoveGroupMember(ctx, name, userID)
}

func (u *accessUC) IsGroupMember(ctx context.Context, name string, userID int64) (bool, error) {
	return u.access.IsGroupMember(ctx, name, userID)
}

func (u *accessUC) ListGroups(ctx context.Context) (map[string][]int64, error) {
	return u.access.ListGroups(ctx)
}
