// Package memory provides an in-process StateRepository used in dev mode
// when no Redis is configured, and by tests.
package memory

import (
	"context"
	"sync"

	"telegram-catalog-bot/internal/domain/ports/repository"
)

var _ repository.StateRepository = (*StateRepo)(nil)

type StateRepo struct {
	mu     sync.Mutex
	states map[int64]*repository.ConversationState
}

func NewStateRepo() *StateRepo {
	return &StateRepo{states: make(map[int64]*repository.ConversationState)}
}

func (s *StateRepo) SetState(ctx context.Context, tgID int64, state *repository.ConversationState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *state
	cp.Data = make(map[string]string, len(state.Data))
	for k, v := range state.Data {
		cp.Data[k] = v
	}
	s.states[tgID] = &cp
	return nil
}

func (s *StateRepo) GetState(ctx context.Context, tgID int64) (*repository.ConversationState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.states[tgID]
	if !ok {
		return nil, nil
	}
	cp := *st
	cp.Data = make(map[string]string, len(st.Data))
	for k, v := range st.Data {
		cp.Data[k] = v
	}
	return &cp, nil
}

func (s *StateRepo) ClearState(ctx context.Context, tgID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, tgID)
	return nil
}
