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

var _ repository.BroadcastRepository = (*BroadcastRepo)(nil)

// BroadcastRepo keeps the Broadcasts registry in broadcasts.json.
type BroadcastRepo struct {
	mu         sync.Mutex
	doc        document
	broadcasts map[string]*model.Broadcast
	log        *zerolog.Logger
}

func NewBroadcastRepo(path string, logger *zerolog.Logger) (*BroadcastRepo, error) {
	r := &BroadcastRepo{
		doc:        document{path: path},
		broadcasts: make(map[string]*model.Broadcast),
		log:        logger,
	}
	if err := r.doc.load(&r.broadcasts); err != nil {
		return nil, err
	}
	if r.broadcasts == nil {
		r.broadcasts = make(map[string]*model.Broadcast)
	}
	// Records written before a broadcast was ever sent may lack the map.
	for _, b := range r.broadcasts {
		if b.MessageIDs == nil {
			b.MessageIDs = make(map[int64]int)
		}
	}
	return r, nil
}

func cloneBroadcast(b *model.Broadcast) *model.Broadcast {
	cp := *b
	cp.MessageIDs = make(map[int64]int, len(b.MessageIDs))
	for k, v := range b.MessageIDs {
		cp.MessageIDs[k] = v
	}
	if b.Content.Entities != nil {
		cp.Content.Entities = append([]model.Entity(nil), b.Content.Entities...)
	}
	return &cp
}

func (r *BroadcastRepo) Save(ctx context.Context, b *model.Broadcast) error {
	if b == nil || b.ID == "" {
		return domain.ErrInvalidArgument
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.broadcasts[b.ID] = cloneBroadcast(b)
	return r.doc.save(r.broadcasts)
}

func (r *BroadcastRepo) Find(ctx context.Context, id string) (*model.Broadcast, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.broadcasts[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneBroadcast(b), nil
}

func (r *BroadcastRepo) List(ctx context.Context) ([]*model.Broadcast, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*model.Broadcast, 0, len(r.broadcasts))
	for _, b := range r.broadcasts {
		out = append(out, cloneBroadcast(b))
	}
	// ULIDs sort chronologically.
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *BroadcastRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.broadcasts[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.broadcasts, id)
	return r.doc.save(r.broadcasts)
}

func (r *BroadcastRepo) Update(ctx context.Context, id string, fn func(b *model.Broadcast) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.broadcasts[id]
	if !ok {
		return domain.ErrNotFound
	}
	// Mutate a clone and commit only on success, so fn failing halfway
	// cannot leave a dirty record behind.
	cp := cloneBroadcast(b)
	if err := fn(cp); err != nil {
		return err
	}
	r.broadcasts[id] = cp
	return r.doc.save(r.broadcasts)
}
