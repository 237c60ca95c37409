package model

import (
	"time"

	"github.com/google/uuid"
)

// CodeValidity is how long a freshly generated access code can be redeemed.
const CodeValidity = 48 * time.Hour

// AccessCode is a single-use token that authorizes its redeemer.
type AccessCode struct {
	ID                 string     `json:"id"`
	Code               string     `json:"code"`
	CreatorID          int64      `json:"creator_id"`
	CreatedAt          time.Time  `json:"created_at"`
	ExpiresAt          time.Time  `json:"expires_at"`
	IsRedeemed         bool       `json:"is_redeemed"`
	RedeemedByUserID   *int64     `json:"redeemed_by_user_id,omitempty"`
	RedeemedByUsername *string    `json:"redeemed_by_username,omitempty"`
	RedeemedAt         *time.Time `json:"redeemed_at,omitempty"`
}

func NewAccessCode(code string, creatorID int64) *AccessCode {
	now := time.Now()
	return &AccessCode{
		ID:        uuid.NewString(),
		Code:      code,
		CreatorID: creatorID,
		CreatedAt: now,
		ExpiresAt: now.Add(CodeValidity),
	}
}

func (c *AccessCode) IsExpired(now time.Time) bool { return now.After(c.ExpiresAt) }

// Redeemable reports whether the code can still be consumed at the given time.
func (c *AccessCode) Redeemable(now time.Time) bool {
	return !c.IsRedeemed && !c.IsExpired(now)
}

// AccessRegistry is the persisted shape of the access-control state.
// Group names are unique and case-sensitive; a group gates only the
// visibility of catalog categories carrying its "name_" prefix, never
// authorization itself.
type AccessRegistry struct {
	AuthorizedUsers []int64            `json:"authorized_users"`
	BannedUsers     []int64            `json:"banned_users"`
	Groups          map[string][]int64 `json:"groups"`
	Codes           []*AccessCode      `json:"codes"`
}

func NewAccessRegistry() *AccessRegistry {
	return &AccessRegistry{Groups: make(map[string][]int64)}
}
