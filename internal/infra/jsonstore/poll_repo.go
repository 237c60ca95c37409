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

var _ repository.PollRepository = (*PollRepo)(nil)

// pollsFile is the persisted shape of polls.json. NextID is a monotonic
// counter so poll ids stay unique even after deletions.
type pollsFile struct {
	NextID int                 `json:"next_id"`
	Polls  map[int]*model.Poll `json:"polls"`
}

// PollRepo keeps the Polls registry in polls.json.
type PollRepo struct {
	mu   sync.Mutex
	doc  document
	data pollsFile
	log  *zerolog.Logger
}

func NewPollRepo(path string, logger *zerolog.Logger) (*PollRepo, error) {
	r := &PollRepo{
		doc: document{path: path},
		log: logger,
	}
	if err := r.doc.load(&r.data); err != nil {
		return nil, err
	}
	if r.data.Polls == nil {
		r.data.Polls = make(map[int]*model.Poll)
	}
	for _, p := range r.data.Polls {
		if p.Votes == nil {
			p.Votes = make(map[int]int)
		}
		if p.Voters == nil {
			p.Voters = make(map[int64]int)
		}
		if p.MessageIDs == nil {
			p.MessageIDs = make(map[int64]int)
		}
		// Counter written by an older file may lag behind existing ids.
		if p.ID >= r.data.NextID {
			r.data.NextID = p.ID + 1
		}
	}
	if r.data.NextID == 0 {
		r.data.NextID = 1
	}
	return r, nil
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

func (r *PollRepo) NextID(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.data.NextID
	r.data.NextID++
	if err := r.doc.save(&r.data); err != nil {
		r.data.NextID = id
		return 0, err
	}
	return id, nil
}

func (r *PollRepo) Save(ctx context.Context, p *model.Poll) error {
	if p == nil || p.ID == 0 {
		return domain.ErrInvalidArgument
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data.Polls[p.ID] = clonePoll(p)
	return r.doc.save(&r.data)
}

func (r *PollRepo) Find(ctx context.Context, id int) (*model.Poll, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.data.Polls[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return clonePoll(p), nil
}

func (r *PollRepo) List(ctx context.Context) ([]*model.Poll, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*model.Poll, 0, len(r.data.Polls))
	for _, p := range r.data.Polls {
		out = append(out, clonePoll(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *PollRepo) Delete(ctx context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data.Polls[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.data.Polls, id)
	return r.doc.save(&r.data)
}

func (r *PollRepo) Update(ctx context.Context, id int, fn func(p *model.Poll) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.data.Polls[id]
	if !ok {
		return domain.ErrNotFound
	}
	cp := clonePoll(p)
	if err := fn(cp); err != nil {
		return err
	}
	r.data.Polls[id] = cp
	return r.doc.save(&r.data)
}
