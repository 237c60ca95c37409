//go:build !integration

package application_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"telegram-catalog-bot/internal/application"
	"telegram-catalog-bot/internal/domain"
	"telegram-catalog-bot/internal/domain/model"
	"telegram-catalog-bot/internal/domain/ports/adapter"
	"telegram-catalog-bot/internal/domain/ports/repository"
	"telegram-catalog-bot/internal/infra/memory"
	"telegram-catalog-bot/internal/infra/worker"
	"telegram-catalog-bot/internal/usecase"

	"github.com/rs/zerolog"
)

// The router is tested against real use cases over in-memory fakes, so a
// dispatch exercises the same path an inbound Telegram update would.

const adminID = int64(1)

type fixture struct {
	users   *fakeUserRepo
	access  *fakeAccessRepo
	catalog *fakeCatalogRepo
	bot     *fakeBot
	states  repository.StateRepository
	router  *application.Router
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithLimiter(t, nil)
}

func newFixtureWithLimiter(t *testing.T, limiter application.RateLimiter) *fixture {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	pool := worker.NewPool(2)
	pool.Start(ctx)
	t.Cleanup(func() {
		cancel()
		pool.Stop()
	})

	logger := zerolog.Nop()
	f := &fixture{
		users:   newFakeUserRepo(),
		access:  newFakeAccessRepo(),
		catalog: newFakeCatalogRepo(),
		bot:     newFakeBot(),
		states:  memory.NewStateRepo(),
	}
	broadcasts := newFakeBroadcastRepo()
	polls := newFakePollRepo()

	userUC := usecase.NewUserUseCase(f.users, &logger)
	accessUC := usecase.NewAccessUseCase(f.access, f.catalog, f.states, true, &logger)
	catalogUC := usecase.NewCatalogUseCase(f.catalog, f.access, &logger)
	broadcastUC := usecase.NewBroadcastUseCase(broadcasts, f.users, f.access, f.bot, pool, &logger)
	pollUC := usecase.NewPollUseCase(polls, f.users, f.access, f.bot, pool, &logger)

	f.router = application.NewRouter(userUC, accessUC, catalogUC, broadcastUC, pollUC, f.states, limiter, []int64{adminID}, &logger)
	return f
}

func (f *fixture) dispatch(t *testing.T, ev application.Event) *application.Reply {
	t.Helper()
	reply, err := f.router.Dispatch(context.Background(), ev)
	if err != nil {
		t.Fatalf("Dispatch(%+v) failed: %v", ev, err)
	}
	return reply
}

func command(userID int64, text string) application.Event {
	return application.Event{UserID: userID, Kind: application.EventCommand, Text: text}
}

func text(userID int64, body string) application.Event {
	return application.Event{UserID: userID, Kind: application.EventText, Text: body}
}

func callback(userID int64, data string) application.Event {
	return application.Event{UserID: userID, Kind: application.EventCallback, Data: data}
}

// ---- fakes ----

type fakeBot struct {
	mu     sync.Mutex
	nextID int
	sent   map[int64][]adapter.SendParams
}

var _ adapter.TelegramBotAdapter = (*fakeBot)(nil)

func newFakeBot() *fakeBot { return &fakeBot{sent: make(map[int64][]adapter.SendParams)} }

func (b *fakeBot) SendMessage(ctx context.Context, params adapter.SendParams) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	b.sent[params.ChatID] = append(b.sent[params.ChatID], params)
	return b.nextID, nil
}

func (b *fakeBot) EditMessage(ctx context.Context, chatID int64, messageID int, text string, buttons [][]adapter.InlineButton) error {
	return nil
}

func (b *fakeBot) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	return nil
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[int64]*model.User
}

var _ repository.UserRepository = (*fakeUserRepo)(nil)

func newFakeUserRepo() *fakeUserRepo { return &fakeUserRepo{users: make(map[int64]*model.User)} }

func (r *fakeUserRepo) Save(ctx context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *user
	r.users[user.TelegramID] = &cp
	return nil
}

func (r *fakeUserRepo) FindByTelegramID(ctx context.Context, tgID int64) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[tgID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) List(ctx context.Context) ([]*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*model.User, 0, len(r.users))
	for _, u := range r.users {
		cp := *u
		out = append(out, &cp)
	}
	return out, nil
}

func (r *fakeUserRepo) Count(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users), nil
}

type fakeAccessRepo struct {
	mu         sync.Mutex
	authorized map[int64]bool
	banned     map[int64]bool
	groups     map[string][]int64
	codes      []*model.AccessCode
}

var _ repository.AccessRepository = (*fakeAccessRepo)(nil)

func newFakeAccessRepo() *fakeAccessRepo {
	return &fakeAccessRepo{
		authorized: make(map[int64]bool),
		banned:     make(map[int64]bool),
		groups:     make(map[string][]int64),
	}
}

func (r *fakeAccessRepo) IsAuthorized(ctx context.Context, userID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.authorized[userID], nil
}

func (r *fakeAccessRepo) IsBanned(ctx context.Context, userID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.banned[userID], nil
}

func (r *fakeAccessRepo) Authorize(ctx context.Context, userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.authorized[userID] = true
	return nil
}

func (r *fakeAccessRepo) Ban(ctx context.Context, userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.banned[userID] = true
	delete(r.authorized, userID)
	return nil
}

func (r *fakeAccessRepo) Unban(ctx context.Context, userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.banned, userID)
	return nil
}

func (r *fakeAccessRepo) AddCodes(ctx context.Context, codes []*model.AccessCode) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.codes = append(r.codes, codes...)
	return nil
}

func (r *fakeAccessRepo) RedeemCode(ctx context.Context, code string, userID int64, username string, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.codes {
		if c.Code != code {
			continue
		}
		if c.IsRedeemed {
			return domain.ErrCodeAlreadyUsed
		}
		if now.After(c.ExpiresAt) {
			return domain.ErrCodeExpired
		}
		c.IsRedeemed = true
		r.authorized[userID] = true
		return nil
	}
	return domain.ErrCodeNotFound
}

func (r *fakeAccessRepo) ListCodes(ctx context.Context, used bool, now time.Time) ([]*model.AccessCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.AccessCode
	for _, c := range r.codes {
		if c.IsRedeemed == used {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *fakeAccessRepo) PurgeExpired(ctx context.Context, retainRedeemed bool, now time.Time) (int, error) {
	return 0, nil
}

func (r *fakeAccessRepo) CreateGroup(ctx context.Context, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.groups[name]; ok {
		return domain.ErrAlreadyExists
	}
	r.groups[name] = nil
	return nil
}

func (r *fakeAccessRepo) DeleteGroup(ctx context.Context, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.groups[name]; !ok {
		return domain.ErrNotFound
	}
	delete(r.groups, name)
	return nil
}

func (r *fakeAccessRepo) AddGroupMember(ctx context.Context, name string, userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	members, ok := r.groups[name]
	if !ok {
		return domain.ErrNotFound
	}
	r.groups[name] = append(members, userID)
	return nil
}

func (r *fakeAccessRepo) RemoveGroupMember(ctx context.Context, name string, userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	members, ok := r.groups[name]
	if !ok {
		return domain.ErrNotFound
	}
	for i, id := range members {
		if id == userID {
			r.groups[name] = append(members[:i], members[i+1:]...)
			break
		}
	}
	return nil
}

func (r *fakeAccessRepo) IsGroupMember(ctx context.Context, name string, userID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range r.groups[name] {
		if id == userID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeAccessRepo) ListGroups(ctx context.Context) (map[string][]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string][]int64, len(r.groups))
	for name, members := range r.groups {
		out[name] = append([]int64(nil), members...)
	}
	return out, nil
}

type fakeCatalogRepo struct {
	mu         sync.Mutex
	categories map[string][]model.Product
	stats      model.CatalogStats
}

var _ repository.CatalogRepository = (*fakeCatalogRepo)(nil)

func newFakeCatalogRepo() *fakeCatalogRepo {
	return &fakeCatalogRepo{
		categories: make(map[string][]model.Product),
		stats:      model.CatalogStats{CategoryViews: make(map[string]int), ProductViews: make(map[string]map[string]int)},
	}
}

func (r *fakeCatalogRepo) setCategory(name string, products ...model.Product) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.categories[name] = products
}

func (r *fakeCatalogRepo) Categories(ctx context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.categories))
	for name := range r.categories {
		out = append(out, name)
	}
	return out, nil
}

func (r *fakeCatalogRepo) Products(ctx context.Context, category string) ([]model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	products, ok := r.categories[category]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return products, nil
}

func (r *fakeCatalogRepo) RecordCategoryView(ctx context.Context, category string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stats.TotalViews++
	r.stats.CategoryViews[category]++
	return nil
}

func (r *fakeCatalogRepo) DeleteCategoriesWithPrefix(ctx context.Context, prefix string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var removed []string
	for name := range r.categories {
		if strings.HasPrefix(name, prefix) {
			removed = append(removed, name)
			delete(r.categories, name)
		}
	}
	return removed, nil
}

func (r *fakeCatalogRepo) Stats(ctx context.Context) (*model.CatalogStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := r.stats
	return &cp, nil
}

type fakeBroadcastRepo struct {
	mu         sync.Mutex
	broadcasts map[string]*model.Broadcast
}

var _ repository.BroadcastRepository = (*fakeBroadcastRepo)(nil)

func newFakeBroadcastRepo() *fakeBroadcastRepo {
	return &fakeBroadcastRepo{broadcasts: make(map[string]*model.Broadcast)}
}

func (r *fakeBroadcastRepo) Save(ctx context.Context, b *model.Broadcast) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.broadcasts[b.ID] = b
	return nil
}

func (r *fakeBroadcastRepo) Find(ctx context.Context, id string) (*model.Broadcast, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.broadcasts[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return b, nil
}

func (r *fakeBroadcastRepo) List(ctx context.Context) ([]*model.Broadcast, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*model.Broadcast, 0, len(r.broadcasts))
	for _, b := range r.broadcasts {
		out = append(out, b)
	}
	return out, nil
}

func (r *fakeBroadcastRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.broadcasts[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.broadcasts, id)
	return nil
}

func (r *fakeBroadcastRepo) Update(ctx context.Context, id string, fn func(b *model.Broadcast) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.broadcasts[id]
	if !ok {
		return domain.ErrNotFound
	}
	return fn(b)
}

type fakePollRepo struct {
	mu     sync.Mutex
	nextID int
	polls  map[int]*model.Poll
}

var _ repository.PollRepository = (*fakePollRepo)(nil)

func newFakePollRepo() *fakePollRepo { return &fakePollRepo{polls: make(map[int]*model.Poll)} }

func (r *fakePollRepo) NextID(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	return r.nextID, nil
}

func (r *fakePollRepo) Save(ctx context.Context, p *model.Poll) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.polls[p.ID] = p
	return nil
}

func (r *fakePollRepo) Find(ctx context.Context, id int) (*model.Poll, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.polls[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return p, nil
}

func (r *fakePollRepo) List(ctx context.Context) ([]*model.Poll, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*model.Poll, 0, len(r.polls))
	for _, p := range r.polls {
		out = append(out, p)
	}
	return out, nil
}

func (r *fakePollRepo) Delete(ctx context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.polls[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.polls, id)
	return nil
}

func (r *fakePollRepo) Update(ctx context.Context, id int, fn func(p *model.Poll) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.polls[id]
	if !ok {
		return domain.ErrNotFound
	}
	return fn(p)
}
