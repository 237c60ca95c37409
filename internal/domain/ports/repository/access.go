package repository

import (
	"context"
	"time"

	"telegram-catalog-bot/internal/domain/model"
)

// AccessRepository owns the access registry. Every mutation is performed
// under the store's lock and persisted before returning, so callers never
// touch registry fields directly (single-writer discipline).
type AccessRepository interface {
	IsAuthorized(ctx context.Context, userID int64) (bool, error)
	IsBanned(ctx context.Context, userID int64) (bool, error)
	Authorize(ctx context.Context, userID int64) error
	Ban(ctx context.Context, userID int64) error
	Unban(ctx context.Context, userID int64) error

	AddCodes(ctx context.Context, codes []*model.AccessCode) error
	// RedeemCode atomically marks the code used, records the redeemer and
	// authorizes them. Returns domain.ErrCodeNotFound, ErrCodeAlreadyUsed
	// or ErrCodeExpired without state change on failure.
	RedeemCode(ctx context.Context, code string, userID int64, username string, now time.Time) error
	ListCodes(ctx context.Context, used bool, now time.Time) ([]*model.AccessCode, error)
	// PurgeExpired drops codes past their expiry. When retainRedeemed is
	// set, redeemed codes survive the sweep for audit. Returns the number
	// of codes removed.
	PurgeExpired(ctx context.Context, retainRedeemed bool, now time.Time) (int, error)

	CreateGroup(ctx context.Context, name string) error
	DeleteGroup(ctx context.Context, name string) error
	AddGroupMember(ctx context.Context, name string, userID int64) error
	RemoveGroupMember(ctx context.Context, name string, userID int64) error
	IsGroupMember(ctx context.Context, name string, userID int64) (bool, error)
	ListGroups(ctx context.Context) (map[string][]int64, error)
}
