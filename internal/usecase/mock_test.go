//go:build !integration

package usecase_test

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"telegram-catalog-bot/internal/domain"
	"telegram-catalog-bot/internal/domain/model"
	"telegram-catalog-bot/internal/domain/ports/adapter"
	"telegram-catalog-bot/internal/domain/ports/repository"
)

func newTestLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

// =============================
// Mock TelegramBotAdapter
// =============================

type sentMessage struct {
	Params adapter.SendParams
	MsgID  int
}

type editedMessage struct {
	ChatID  int64
	MsgID   int
	Text    string
	Buttons [][]adapter.InlineButton
}

// MockTelegramBot records every outbound call and hands out sequential
// message ids. Behavior is overridable per test via the Func fields.
type MockTelegramBot struct {
	mu      sync.Mutex
	nextID  int
	Sent    []sentMessage
	Edited  []editedMessage
	Deleted map[int64][]int

	SendMessageFunc func(ctx context.Context, params adapter.SendParams) (int, error)
	EditMessageFunc func(ctx context.Context, chatID int64, messageID int, text string, buttons [][]adapter.InlineButton) error
}

var _ adapter.TelegramBotAdapter = (*MockTelegramBot)(nil)

func NewMockTelegramBot() *MockTelegramBot {
	return &MockTelegramBot{Deleted: make(map[int64][]int)}
}

func (m *MockTelegramBot) SendMessage(ctx context.Context, params adapter.SendParams) (int, error) {
	if m.SendMessageFunc != nil {
		return m.SendMessageFunc(ctx, params)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	m.Sent = append(m.Sent, sentMessage{Params: params, MsgID: m.nextID})
	return m.nextID, nil
}

func (m *MockTelegramBot) EditMessage(ctx context.Context, chatID int64, messageID int, text string, buttons [][]adapter.InlineButton) error {
	if m.EditMessageFunc != nil {
		return m.EditMessageFunc(ctx, chatID, messageID, text, buttons)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Edited = append(m.Edited, editedMessage{ChatID: chatID, MsgID: messageID, Text: text, Buttons: buttons})
	return nil
}

func (m *MockTelegramBot) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Deleted[chatID] = append(m.Deleted[chatID], messageID)
	return nil
}

func (m *MockTelegramBot) SentTo(tgID int64) []sentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []sentMessage
	for _, s := range m.Sent {
		if s.Params.ChatID == tgID {
			out = append(out, s)
		}
	}
	return out
}

// =============================
// Mock UserRepository
// =============================

type MockUserRepo struct {
	mu    sync.Mutex
	users map[int64]*model.User

	ListFunc func(ctx context.Context) ([]*model.User, error)
}

var _ repository.UserRepository = (*MockUserRepo)(nil)

func NewMockUserRepo() *MockUserRepo {
	return &MockUserRepo{users: make(map[int64]*model.User)}
}

func (m *MockUserRepo) Save(ctx context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *user
	m.users[user.TelegramID] = &cp
	return nil
}

func (m *MockUserRepo) FindByTelegramID(ctx context.Context, tgID int64) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[tgID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *MockUserRepo) List(ctx context.Context) ([]*model.User, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.User, 0, len(m.users))
	for _, u := range m.users {
		cp := *u
		out = append(out, &cp)
	}
	return out, nil
}

func (m *MockUserRepo) Count(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.users), nil
}

// =============================
// Mock AccessRepository
// =============================

// MockAccessRepo mirrors the JSON store's registry semantics in memory:
// single redemption, lazy expiry, purge with audit retention.
type MockAccessRepo struct {
	mu         sync.Mutex
	authorized map[int64]bool
	banned     map[int64]bool
	groups     map[string][]int64
	codes      []*model.AccessCode
}

var _ repository.AccessRepository = (*MockAccessRepo)(nil)

func NewMockAccessRepo() *MockAccessRepo {
	return &MockAccessRepo{
		authorized: make(map[int64]bool),
		banned:     make(map[int64]bool),
		groups:     make(map[string][]int64),
	}
}

func (m *MockAccessRepo) IsAuthorized(ctx context.Context, userID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.authorized[userID], nil
}

func (m *MockAccessRepo) IsBanned(ctx context.Context, userID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.banned[userID], nil
}

func (m *MockAccessRepo) Authorize(ctx context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.authorized[userID] = true
	return nil
}

func (m *MockAccessRepo) Ban(ctx context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.banned[userID] = true
	delete(m.authorized, userID)
	return nil
}

func (m *MockAccessRepo) Unban(ctx context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.banned, userID)
	return nil
}

func (m *MockAccessRepo) AddCodes(ctx context.Context, codes []*model.AccessCode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.codes = append(m.codes, codes...)
	return nil
}

func (m *MockAccessRepo) RedeemCode(ctx context.Context, code string, userID int64, username string, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.codes {
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
		c.RedeemedByUserID = &userID
		c.RedeemedByUsername = &username
		t := now
		c.RedeemedAt = &t
		m.authorized[userID] = true
		return nil
	}
	return domain.ErrCodeNotFound
}

func (m *MockAccessRepo) ListCodes(ctx context.Context, used bool, now time.Time) ([]*model.AccessCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.AccessCode
	for _, c := range m.codes {
		if used && c.IsRedeemed {
			out = append(out, c)
		}
		if !used && !c.IsRedeemed && !now.After(c.ExpiresAt) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *MockAccessRepo) PurgeExpired(ctx context.Context, retainRedeemed bool, now time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.codes[:0]
	removed := 0
	for _, c := range m.codes {
		expired := now.After(c.ExpiresAt)
		if expired && !(retainRedeemed && c.IsRedeemed) {
			removed++
			continue
		}
		kept = append(kept, c)
	}
	m.codes = kept
	return removed, nil
}

func (m *MockAccessRepo) CreateGroup(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.groups[name]; ok {
		return domain.ErrAlreadyExists
	}
	m.groups[name] = nil
	return nil
}

func (m *MockAccessRepo) DeleteGroup(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.groups[name]; !ok {
		return domain.ErrNotFound
	}
	delete(m.groups, name)
	return nil
}

func (m *MockAccessRepo) AddGroupMember(ctx context.Context, name string, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	members, ok := m.groups[name]
	if !ok {
		return domain.ErrNotFound
	}
	for _, id := range members {
		if id == userID {
			return nil
		}
	}
	m.groups[name] = append(members, userID)
	return nil
}

func (m *MockAccessRepo) RemoveGroupMember(ctx context.Context, name string, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	members, ok := m.groups[name]
	if !ok {
		return domain.ErrNotFound
	}
	for i, id := range members {
		if id == userID {
			m.groups[name] = append(members[:i], members[i+1:]...)
			return nil
		}
	}
	return nil
}

func (m *MockAccessRepo) IsGroupMember(ctx context.Context, name string, userID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range m.groups[name] {
		if id == userID {
			return true, nil
		}
	}
	return false, nil
}

func (m *MockAccessRepo) ListGroups(ctx context.Context) (map[string][]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string][]int64, len(m.groups))
	for name, members := range m.groups {
		out[name] = append([]int64(nil), members...)
	}
	return out, nil
}

// =============================
// Mock BroadcastRepository
// =============================

type MockBroadcastRepo struct {
	mu         sync.Mutex
	broadcasts map[string]*model.Broadcast
}

var _ repository.BroadcastRepository = (*MockBroadcastRepo)(nil)

func NewMockBroadcastRepo() *MockBroadcastRepo {
	return &MockBroadcastRepo{broadcasts: make(map[string]*model.Broadcast)}
}

func cloneBroadcast(b *model.Broadcast) *model.Broadcast {
	cp := *b
	cp.MessageIDs = make(map[int64]int, len(b.MessageIDs))
	for k, v := range b.MessageIDs {
		cp.MessageIDs[k] = v
	}
	return &cp
}

func (m *MockBroadcastRepo) Save(ctx context.Context, b *model.Broadcast) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.broadcasts[b.ID] = cloneBroadcast(b)
	return nil
}

func (m *MockBroadcastRepo) Find(ctx context.Context, id string) (*model.Broadcast, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.broadcasts[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneBroadcast(b), nil
}

func (m *MockBroadcastRepo) List(ctx context.Context) ([]*model.Broadcast, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.Broadcast, 0, len(m.broadcasts))
	for _, b := range m.broadcasts {
		out = append(out, cloneBroadcast(b))
	}
	return out, nil
}

func (m *MockBroadcastRepo) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.broadcasts[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.broadcasts, id)
	return nil
}

func (m *MockBroadcastRepo) Update(ctx context.Context, id string, fn func(b *model.Broadcast) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.broadcasts[id]
	if !ok {
		return domain.ErrNotFound
	}
	cp := cloneBroadcast(b)
	if err := fn(cp); err != nil {
		return err
	}
	m.broadcasts[id] = cp
	return nil
}

// =============================
// Mock PollRepository
// =============================

type MockPollRepo struct {
	mu     sync.Mutex
	nextID int
	polls  map[int]*model.Poll
}

var _ repository.PollRepository = (*MockPollRepo)(nil)

func NewMockPollRepo() *MockPollRepo {
	return &MockPollRepo{polls: make(map[int]*model.Poll)}
}

func clonePoll(p *model.Poll) *model.Poll {
	cp := *p
	cp.Options = append([]string(nil), p.Options...)
	cp.Votes = make(map[int]int, len(p.Votes))
	for k, v := range p.Votes {
		cp.Votes[k] = v
	}
	cp.Voters = make(map[int64]int, len(p.Voters))
	for k, v := range p.Voters {
		cp.Voters[k] = v
	}
	cp.MessageIDs = make(map[int64]int, len(p.MessageIDs))
	for k, v := range p.MessageIDs {
		cp.MessageIDs[k] = v
	}
	return &cp
}

func (m *MockPollRepo) NextID(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	return m.nextID, nil
}

func (m *MockPollRepo) Save(ctx context.Context, p *model.Poll) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.polls[p.ID] = clonePoll(p)
	return nil
}

func (m *MockPollRepo) Find(ctx context.Context, id int) (*model.Poll, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.polls[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return clonePoll(p), nil
}

func (m *MockPollRepo) List(ctx context.Context) ([]*model.Poll, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.Poll, 0, len(m.polls))
	for _, p := range m.polls {
		out = append(out, clonePoll(p))
	}
	return out, nil
}

func (m *MockPollRepo) Delete(ctx context.Context, id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.polls[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.polls, id)
	return nil
}

func (m *MockPollRepo) Update(ctx context.Context, id int, fn func(p *model.Poll) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.polls[id]
	if !ok {
		return domain.ErrNotFound
	}
	cp := clonePoll(p)
	if err := fn(cp); err != nil {
		return err
	}
	m.polls[id] = cp
	return nil
}

// =============================
// Mock CatalogRepository
// =============================

type MockCatalogRepo struct {
	mu         sync.Mutex
	categories map[string][]model.Product
	stats      model.CatalogStats

	DeleteCategoriesWithPrefixFunc func(ctx context.Context, prefix string) ([]string, error)
}

var _ repository.CatalogRepository = (*MockCatalogRepo)(nil)

func NewMockCatalogRepo() *MockCatalogRepo {
	return &MockCatalogRepo{
		categories: make(map[string][]model.Product),
		stats: model.CatalogStats{
			CategoryViews: make(map[string]int),
			ProductViews:  make(map[string]map[string]int),
		},
	}
}

func (m *MockCatalogRepo) SetCategory(name string, products ...model.Product) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.categories[name] = products
}

func (m *MockCatalogRepo) Categories(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.categories))
	for name := range m.categories {
		out = append(out, name)
	}
	return out, nil
}

func (m *MockCatalogRepo) Products(ctx context.Context, category string) ([]model.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	products, ok := m.categories[category]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return append([]model.Product(nil), products...), nil
}

func (m *MockCatalogRepo) RecordCategoryView(ctx context.Context, category string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats.TotalViews++
	m.stats.CategoryViews[category]++
	return nil
}

func (m *MockCatalogRepo) DeleteCategoriesWithPrefix(ctx context.Context, prefix string) ([]string, error) {
	if m.DeleteCategoriesWithPrefixFunc != nil {
		return m.DeleteCategoriesWithPrefixFunc(ctx, prefix)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var removed []string
	for name := range m.categories {
		if len(name) >= len(prefix) && name[:len(prefix)] == prefix {
			removed = append(removed, name)
			delete(m.categories, name)
			delete(m.stats.CategoryViews, name)
		}
	}
	return removed, nil
}

func (m *MockCatalogRepo) Stats(ctx context.Context) (*model.CatalogStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := m.stats
	return &cp, nil
}

// =============================
// Mock StateRepository
// =============================

type MockStateRepo struct {
	mu     sync.Mutex
	states map[int64]*repository.ConversationState
}

var _ repository.StateRepository = (*MockStateRepo)(nil)

func NewMockStateRepo() *MockStateRepo {
	return &MockStateRepo{states: make(map[int64]*repository.ConversationState)}
}

func (m *MockStateRepo) SetState(ctx context.Context, tgID int64, state *repository.ConversationState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[tgID] = state
	return nil
}

func (m *MockStateRepo) GetState(ctx context.Context, tgID int64) (*repository.ConversationState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.states[tgID], nil
}

func (m *MockStateRepo) ClearState(ctx context.Context, tgID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.states, tgID)
	return nil
}
