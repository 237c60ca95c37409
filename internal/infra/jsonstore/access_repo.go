package jsonstore

import (
	"context"
	"sync"
	"time"

	"telegram-catalog-bot/internal/domain"
	"telegram-catalog-bot/internal/domain/model"
	"telegram-catalog-bot/internal/domain/ports/repository"

	"github.com/rs/zerolog"
)

var _ repository.AccessRepository = (*AccessRepo)(nil)

// AccessRepo keeps the access registry in access.json. All operations hold
// the store mutex for their full read-modify-write, so a ban, a redemption
// or a group edit can never interleave with another writer.
type AccessRepo struct {
	mu  sync.Mutex
	doc document
	reg *model.AccessRegistry
	log *zerolog.Logger
}

func NewAccessRepo(path string, logger *zerolog.Logger) (*AccessRepo, error) {
	r := &AccessRepo{
		doc: document{path: path},
		reg: model.NewAccessRegistry(),
		log: logger,
	}
	if err := r.doc.load(r.reg); err != nil {
		return nil, err
	}
	if r.reg.Groups == nil {
		r.reg.Groups = make(map[string][]int64)
	}
	return r, nil
}

func contains(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func remove(ids []int64, id int64) []int64 {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func (r *AccessRepo) IsAuthorized(ctx context.Context, userID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return contains(r.reg.AuthorizedUsers, userID), nil
}

func (r *AccessRepo) IsBanned(ctx context.Context, userID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return contains(r.reg.BannedUsers, userID), nil
}

func (r *AccessRepo) Authorize(ctx context.Context, userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if contains(r.reg.AuthorizedUsers, userID) {
		return nil
	}
	r.reg.AuthorizedUsers = append(r.reg.AuthorizedUsers, userID)
	return r.doc.save(r.reg)
}

// Ban drops authorization and adds the ban in one write. Idempotent.
func (r *AccessRepo) Ban(ctx context.Context, userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	changed := false
	if contains(r.reg.AuthorizedUsers, userID) {
		r.reg.AuthorizedUsers = remove(r.reg.AuthorizedUsers, userID)
		changed = true
	}
	if !contains(r.reg.BannedUsers, userID) {
		r.reg.BannedUsers = append(r.reg.BannedUsers, userID)
		changed = true
	}
	if !changed {
		return nil
	}
	return r.doc.save(r.reg)
}

// Unban lifts the ban only; it never re-authorizes.
func (r *AccessRepo) Unban(ctx context.Context, userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !contains(r.reg.BannedUsers, userID) {
		return nil
	}
	r.reg.BannedUsers = remove(r.reg.BannedUsers, userID)
	return r.doc.save(r.reg)
}

func (r *AccessRepo) AddCodes(ctx context.Context, codes []*model.AccessCode) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range codes {
		cp := *c
		r.reg.Codes = append(r.reg.Codes, &cp)
	}
	return r.doc.save(r.reg)
}

func (r *AccessRepo) RedeemCode(ctx context.Context, code string, userID int64, username string, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.reg.Codes {
		if c.Code != code {
			continue
		}
		if c.IsRedeemed {
			return domain.ErrCodeAlreadyUsed
		}
		if c.IsExpired(now) {
			return domain.ErrCodeExpired
		}
		c.IsRedeemed = true
		c.RedeemedByUserID = &userID
		c.RedeemedByUsername = &username
		redeemedAt := now
		c.RedeemedAt = &redeemedAt
		if !contains(r.reg.AuthorizedUsers, userID) {
			r.reg.AuthorizedUsers = append(r.reg.AuthorizedUsers, userID)
		}
		return r.doc.save(r.reg)
	}
	return domain.ErrCodeNotFound
}

func (r *AccessRepo) ListCodes(ctx context.Context, used bool, now time.Time) ([]*model.AccessCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.AccessCode
	for _, c := range r.reg.Codes {
		if used && c.IsRedeemed {
			cp := *c
			out = append(out, &cp)
		}
		if !used && c.Redeemable(now) {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *AccessRepo) PurgeExpired(ctx context.Context, retainRedeemed bool, now time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.reg.Codes[:0]
	removed := 0
	for _, c := range r.reg.Codes {
		if c.IsExpired(now) && !(retainRedeemed && c.IsRedeemed) {
			removed++
			continue
		}
		kept = append(kept, c)
	}
	if removed == 0 {
		return 0, nil
	}
	r.reg.Codes = kept
	if err := r.doc.save(r.reg); err != nil {
		return 0, err
	}
	return removed, nil
}

func (r *AccessRepo) CreateGroup(ctx context.Context, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.reg.Groups[name]; ok {
		return domain.ErrAlreadyExists
	}
	r.reg.Groups[name] = []int64{}
	return r.doc.save(r.reg)
}

func (r *AccessRepo) DeleteGroup(ctx context.Context, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.reg.Groups[name]; !ok {
		return domain.ErrNotFound
	}
	delete(r.reg.Groups, name)
	return r.doc.save(r.reg)
}

func (r *AccessRepo) AddGroupMember(ctx context.Context, name string, userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	members, ok := r.reg.Groups[name]
	if !ok {
		return domain.ErrNotFound
	}
	if contains(members, userID) {
		return nil
	}
	r.reg.Groups[name] = append(members, userID)
	return r.doc.save(r.reg)
}

func (r *AccessRepo) RemoveGroupMember(ctx context.Context, name string, userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	members, ok := r.reg.Groups[name]
	if !ok {
		return domain.ErrNotFound
	}
	if !contains(members, userID) {
		return nil
	}
	r.reg.Groups[name] = remove(members, userID)
	return r.doc.save(r.reg)
}

func (r *AccessRepo) IsGroupMember(ctx context.Context, name string, userID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	members, ok := r.reg.Groups[name]
	if !ok {
		return false, nil
	}
	return contains(members, userID), nil
}

func (r *AccessRepo) ListGroups(ctx context.Context) (map[string][]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string][]int64, len(r.reg.Groups))
	for name, members := range r.reg.Groups {
		cp := make([]int64, len(members))
		copy(cp, members)
		out[name] = cp
	}
	return out, nil
}
