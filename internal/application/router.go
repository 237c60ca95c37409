// Package application hosts the conversation router: a per-user state
// machine that gates every action behind the access checks and drives the
// multi-step admin flows over the registries.
package application

import (
	"context"
	"time"

	"telegram-catalog-bot/internal/domain/ports/adapter"
	"telegram-catalog-bot/internal/domain/ports/repository"
	"telegram-catalog-bot/internal/infra/metrics"
	"telegram-catalog-bot/internal/infra/redis"
	"telegram-catalog-bot/internal/usecase"

	"github.com/rs/zerolog"
)

// EventKind classifies one inbound update.
type EventKind string

const (
	EventCommand  EventKind = "command"
	EventText     EventKind = "text"
	EventCallback EventKind = "callback"
)

// Event is one inbound user action, already stripped of transport detail.
type Event struct {
	UserID      int64
	Username    string
	FirstName   string
	LastName    string
	Kind        EventKind
	Text        string // command (with slash) or raw text
	Data        string // callback data
	MediaFileID string // set when the message carries a photo
}

// Reply is the single render instruction a dispatch produces. A nil Reply
// means stay silent (e.g. events from banned users).
type Reply struct {
	Text    string
	Buttons [][]adapter.InlineButton
}

// RateLimiter is satisfied by the redis limiter; nil disables limiting.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// Router dispatches (session step, event) pairs to handlers. Handlers
// validate input, perform the side effect through the usecases and decide
// the next step; failures inside a handler never escape Dispatch.
type Router struct {
	userUC      usecase.UserUseCase
	accessUC    usecase.AccessUseCase
	catalogUC   usecase.CatalogUseCase
	broadcastUC usecase.BroadcastUseCase
	pollUC      usecase.PollUseCase
	states      repository.StateRepository
	limiter     RateLimiter
	adminIDs    map[int64]struct{}
	log         *zerolog.Logger
}

func NewRouter(
	userUC usecase.UserUseCase,
	accessUC usecase.AccessUseCase,
	catalogUC usecase.CatalogUseCase,
	broadcastUC usecase.BroadcastUseCase,
	pollUC usecase.PollUseCase,
	states repository.StateRepository,
	limiter RateLimiter,
	adminIDs []int64,
	logger *zerolog.Logger,
) *Router {
	admins := make(map[int64]struct{}, len(adminIDs))
	for _, id := range adminIDs {
		admins[id] = struct{}{}
	}
	return &Router{
		userUC:      userUC,
		accessUC:    accessUC,
		catalogUC:   catalogUC,
		broadcastUC: broadcastUC,
		pollUC:      pollUC,
		states:      states,
		limiter:     limiter,
		adminIDs:    admins,
		log:         logger,
	}
}

func (r *Router) isAdmin(tgID int64) bool {
	_, ok := r.adminIDs[tgID]
	return ok
}

// Dispatch processes one inbound event and returns the reply to render.
// It never returns both a nil reply and a nil error unless the event must
// be silently dropped (banned user, rate limit).
func (r *Router) Dispatch(ctx context.Context, ev Event) (reply *Reply, err error) {
	metrics.IncUpdate(string(ev.Kind))

	// A handler panic or error must not take the worker down; the session
	// falls back to idle with a generic notice.
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error().Interface("panic", rec).Int64("tg_id", ev.UserID).Msg("handler panicked")
			_ = r.states.ClearState(ctx, ev.UserID)
			reply, err = &Reply{Text: "Something went wrong. Please try again."}, nil
		}
	}()

	if _, uerr := r.userUC.RegisterOrFetch(ctx, ev.UserID, ev.Username, ev.FirstName, ev.LastName); uerr != nil {
		r.log.Error().Err(uerr).Int64("tg_id", ev.UserID).Msg("user upsert failed")
	}

	banned, berr := r.accessUC.IsBanned(ctx, ev.UserID)
	if berr != nil {
		r.log.Error().Err(berr).Int64("tg_id", ev.UserID).Msg("ban check failed")
		return &Reply{Text: "Something went wrong. Please try again."}, nil
	}
	if banned {
		metrics.IncAccessDenied("banned")
		return nil, nil
	}

	if r.limiter != nil {
		key := redis.UserCommandKey(ev.UserID, string(ev.Kind))
		ok, lerr := r.limiter.Allow(ctx, key, 20, time.Minute)
		if lerr != nil {
			r.log.Warn().Err(lerr).Msg("rate limiter unavailable")
		} else if !ok {
			return nil, nil
		}
	}

	reply, herr := r.route(ctx, ev)
	if herr != nil {
		r.log.Error().Err(herr).Int64("tg_id", ev.UserID).Str("kind", string(ev.Kind)).Msg("handler failed")
		_ = r.states.ClearState(ctx, ev.UserID)
		return &Reply{Text: "Something went wrong. Please try again."}, nil
	}
	return reply, nil
}

// route selects the handler for (current step, event).
func (r *Router) route(ctx context.Context, ev Event) (*Reply, error) {
	switch ev.Kind {
	case EventCommand:
		return r.handleCommand(ctx, ev)
	case EventCallback:
		return r.handleCallback(ctx, ev)
	}

	// Free text (or media) advances whatever flow the session is in.
	state, err := r.states.GetState(ctx, ev.UserID)
	if err != nil {
		return nil, err
	}
	if state == nil {
		return r.handleIdleText(ctx, ev)
	}

	switch state.Step {
	case StepAwaitingGroupName:
		return r.handleGroupName(ctx, ev)
	case StepAwaitingGroupMember:
		return r.handleGroupMember(ctx, ev, state, true)
	case StepAwaitingGroupRemoval:
		return r.handleGroupMember(ctx, ev, state, false)
	case StepAwaitingBroadcast:
		return r.handleBroadcastCompose(ctx, ev)
	case StepAwaitingBroadcastEdit:
		return r.handleBroadcastEditText(ctx, ev, state)
	case StepAwaitingCodeCount:
		return r.handleCodeCount(ctx, ev)
	case StepAwaitingPollQuestion:
		return r.handlePollQuestion(ctx, ev)
	case StepAwaitingPollOption:
		return r.handlePollOption(ctx, ev, state)
	default:
		// Unknown step from an older build: reset rather than trap the user.
		r.log.Warn().Str("step", state.Step).Int64("tg_id", ev.UserID).Msg("unknown conversation step, clearing")
		if err := r.states.ClearState(ctx, ev.UserID); err != nil {
			return nil, err
		}
		return r.handleIdleText(ctx, ev)
	}
}
