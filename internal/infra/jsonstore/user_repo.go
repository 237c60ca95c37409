package jsonstore

import (
	"context"
	"sort"
	"sync"

	"telegram-catalog-bot/internal/domain"
	"telegram-catalog-bot/internal/domain/model"
	"telegram-catalog-bot/internal/domain/ports/repository"

	"github.com/rs/zerolog"
)

var _ repository.UserRepository = (*UserRepo)(nil)

// UserRepo keeps the Users registry in users.json.
type UserRepo struct {
	mu    sync.Mutex
	doc   document
	users map[int64]*model.User
	log   *zerolog.Logger
}

func NewUserRepo(path string, logger *zerolog.Logger) (*UserRepo, error) {
	r := &UserRepo{
		doc:   document{path: path},
		users: make(map[int64]*model.User),
		log:   logger,
	}
	if err := r.doc.load(&r.users); err != nil {
		return nil, err
	}
	if r.users == nil {
		r.users = make(map[int64]*model.User)
	}
	return r, nil
}

func (r *UserRepo) Save(ctx context.Context, user *model.User) error {
	if user.IsZero() {
		return domain.ErrInvalidArgument
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *user
	r.users[user.TelegramID] = &cp
	return r.doc.save(r.users)
}

func (r *UserRepo) FindByTelegramID(ctx context.Context, tgID int64) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[tgID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *UserRepo) List(ctx context.Context) ([]*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*model.User, 0, len(r.users))
	for _, u := range r.users {
		cp := *u
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TelegramID < out[j].TelegramID })
	return out, nil
}

func (r *UserRepo) Count(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users), nil
}
