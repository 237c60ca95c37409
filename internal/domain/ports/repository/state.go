package repository

import (
	"context"
)

// ConversationState holds a user's progress in any multi-step conversation.
type ConversationState struct {
	Step string            `json:"step"` // e.g. "awaiting_group_name", "awaiting_poll_option"
	Data map[string]string `json:"data"` // collected scratch such as group_name or the poll draft
}

// StateRepository is the port for managing per-user conversational state.
// Sessions are keyed by Telegram id; two users in different flows never
// share state.
type StateRepository interface {
	SetState(ctx context.Context, tgID int64, state *ConversationState) error
	GetState(ctx context.Context, tgID int64) (*ConversationState, error)
	ClearState(ctx context.Context, tgID int64) error
}
