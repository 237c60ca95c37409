package usecase

import (
	"context"
	"sync"
	"time"

	"telegram-catalog-bot/internal/domain/model"
	"telegram-catalog-bot/internal/domain/ports/adapter"
	"telegram-catalog-bot/internal/domain/ports/repository"
	"telegram-catalog-bot/internal/infra/logging"
	"telegram-catalog-bot/internal/infra/metrics"
	"telegram-catalog-bot/internal/infra/worker"

	"github.com/rs/zerolog"
)

// Compile-time check
var _ BroadcastUseCase = (*broadcastUC)(nil)

// BroadcastUseCase fans one authored message out to all authorized users
// and keeps the delivery map so the message can be edited or re-sent later.
//
// Resend policy: always delivers fresh messages to everyone currently
// authorized and REPLACES the delivery map, so later edits target the new
// copies. Edit, by contrast, never re-sends to users already reached: it
// edits every delivered copy in place, even for users who lost access
// since the original send, and sends fresh only to users who became
// authorized afterwards.
type BroadcastUseCase interface {
	Create(ctx context.Context, authorID int64, content model.BroadcastContent) (*model.Broadcast, error)
	Send(ctx context.Context, id string) (sent, failed int, err error)
	Edit(ctx context.Context, id string, content model.BroadcastContent) (edited, failed int, err error)
	Resend(ctx context.Context, id string) (sent, failed int, err error)
	Delete(ctx context.Context, id string) error
	Find(ctx context.Context, id string) (*model.Broadcast, error)
	List(ctx context.Context) ([]*model.Broadcast, error)
}

type broadcastUC struct {
	broadcasts repository.BroadcastRepository
	users      repository.UserRepository
	access     repository.AccessRepository
	bot        adapter.TelegramBotAdapter
	workerPool *worker.Pool
	log        *zerolog.Logger
}

func NewBroadcastUseCase(
	broadcasts repository.BroadcastRepository,
	users repository.UserRepository,
	access repository.AccessRepository,
	bot adapter.TelegramBotAdapter,
	pool *worker.Pool,
	logger *zerolog.Logger,
) *broadcastUC {
	return &broadcastUC{
		broadcasts: broadcasts,
		users:      users,
		access:     access,
		bot:        bot,
		workerPool: pool,
		log:        logger,
	}
}

func (uc *broadcastUC) Create(ctx context.Context, authorID int64, content model.BroadcastContent) (*model.Broadcast, error) {
	defer logging.TraceDuration(uc.log, "BroadcastUC.Create")()
	b := model.NewBroadcast(authorID, content)
	if err := uc.broadcasts.Save(ctx, b); err != nil {
		return nil, err
	}
	uc.log.Info().Str("broadcast_id", b.ID).Int64("author", authorID).Msg("broadcast created")
	return b, nil
}

// recipients are all known users who are authorized and not the author.
func (uc *broadcastUC) recipients(ctx context.Context, authorID int64) ([]int64, error) {
	allUsers, err := uc.users.List(ctx)
	if err != nil {
		uc.log.Error().Err(err).Msg("failed to fetch users for broadcast")
		return nil, err
	}
	var out []int64
	for _, user := range allUsers {
		if user.TelegramID == authorID {
			continue
		}
		ok, err := uc.access.IsAuthorized(ctx, user.TelegramID)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, user.TelegramID)
		}
	}
	return out, nil
}

func sendParams(tgID int64, content model.BroadcastContent) adapter.SendParams {
	p := adapter.SendParams{ChatID: tgID, Text: content.Text}
	if content.MediaFileID != "" {
		p.MediaFileID = content.MediaFileID
		p.Text = content.Caption
	}
	return p
}

// deliver fans content out through the worker pool, throttled to respect
// Telegram's rate limits. Per-recipient failures are counted, never fatal.
func (uc *broadcastUC) deliver(ctx context.Context, op string, recipients []int64, content model.BroadcastContent) (map[int64]int, int) {
	throttle := time.NewTicker(time.Second / 25)
	defer throttle.Stop()

	var (
		mu        sync.Mutex
		wg        sync.WaitGroup
		delivered = make(map[int64]int)
		failed    int
	)
	for _, tgID := range recipients {
		<-throttle.C
		tgID := tgID
		wg.Add(1)
		task := func(ctx context.Context) error {
			defer wg.Done()
			msgID, err := uc.bot.SendMessage(ctx, sendParams(tgID, content))
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed++
				metrics.IncBroadcastDelivery(op, "failed")
				uc.log.Warn().Err(err).Int64("tg_id", tgID).Msg("broadcast delivery failed")
				return nil
			}
			delivered[tgID] = msgID
			metrics.IncBroadcastDelivery(op, "ok")
			return nil
		}
		if err := uc.workerPool.Submit(task); err != nil {
			// Pool saturated: deliver inline rather than dropping.
			_ = task(ctx)
		}
	}
	wg.Wait()
	return delivered, failed
}

func (uc *broadcastUC) Send(ctx context.Context, id string) (int, int, error) {
	defer logging.TraceDuration(uc.log, "BroadcastUC.Send")()
	b, err := uc.broadcasts.Find(ctx, id)
	if err != nil {
		return 0, 0, err
	}
	recipients, err := uc.recipients(ctx, b.AuthorID)
	if err != nil {
		return 0, 0, err
	}

	delivered, failed := uc.deliver(ctx, "send", recipients, b.Content)
	err = uc.broadcasts.Update(ctx, id, func(b *model.Broadcast) error {
		for tgID, msgID := range delivered {
			b.MessageIDs[tgID] = msgID
		}
		return nil
	})
	if err != nil {
		return len(delivered), failed, err
	}
	uc.log.Info().Str("broadcast_id", id).Int("sent", len(delivered)).Int("failed", failed).Msg("broadcast sent")
	return len(delivered), failed, nil
}

func (uc *broadcastUC) Edit(ctx context.Context, id string, content model.BroadcastContent) (int, int, error) {
	defer logging.TraceDuration(uc.log, "BroadcastUC.Edit")()
	b, err := uc.broadcasts.Find(ctx, id)
	if err != nil {
		return 0, 0, err
	}
	recipients, err := uc.recipients(ctx, b.AuthorID)
	if err != nil {
		return 0, 0, err
	}

	// Every delivered copy gets the in-place edit, including copies held by
	// users who were banned or de-authorized after the send: their message
	// exists and must not go stale.
	edited := 0
	failed := 0
	text := content.Text
	if content.MediaFileID != "" {
		text = content.Caption
	}
	for tgID, msgID := range b.MessageIDs {
		if err := uc.bot.EditMessage(ctx, tgID, msgID, text, nil); err != nil {
			failed++
			metrics.IncBroadcastDelivery("edit", "failed")
			uc.log.Warn().Err(err).Int64("tg_id", tgID).Msg("broadcast edit failed")
			continue
		}
		edited++
		metrics.IncBroadcastDelivery("edit", "ok")
	}

	var newlyEligible []int64
	for _, tgID := range recipients {
		if _, reached := b.MessageIDs[tgID]; !reached {
			newlyEligible = append(newlyEligible, tgID)
		}
	}
	delivered, sendFailed := uc.deliver(ctx, "edit", newlyEligible, content)
	failed += sendFailed

	err = uc.broadcasts.Update(ctx, id, func(b *model.Broadcast) error {
		b.Content = content
		for tgID, msgID := range delivered {
			b.MessageIDs[tgID] = msgID
		}
		return nil
	})
	if err != nil {
		return edited + len(delivered), failed, err
	}
	uc.log.Info().Str("broadcast_id", id).Int("edited", edited).Int("new", len(delivered)).Int("failed", failed).Msg("broadcast edited")
	return edited + len(delivered), failed, nil
}

func (uc *broadcastUC) Resend(ctx context.Context, id string) (int, int, error) {
	defer logging.TraceDuration(uc.log, "BroadcastUC.Resend")()
	b, err := uc.broadcasts.Find(ctx, id)
	if err != nil {
		return 0, 0, err
	}
	recipients, err := uc.recipients(ctx, b.AuthorID)
	if err != nil {
		return 0, 0, err
	}

	delivered, failed := uc.deliver(ctx, "resend", recipients, b.Content)
	err = uc.broadcasts.Update(ctx, id, func(b *model.Broadcast) error {
		b.MessageIDs = delivered
		return nil
	})
	if err != nil {
		return len(delivered), failed, err
	}
	uc.log.Info().Str("broadcast_id", id).Int("sent", len(delivered)).Int("failed", failed).Msg("broadcast resent")
	return len(delivered), failed, nil
}

// Delete removes only the record; messages already delivered stay in chats.
func (uc *broadcastUC) Delete(ctx context.Context, id string) error {
	defer logging.TraceDuration(uc.log, "BroadcastUC.Delete")()
	return uc.broadcasts.Delete(ctx, id)
}

func (uc *broadcastUC) Find(ctx context.Context, id string) (*model.Broadcast, error) {
	return uc.broadcasts.Find(ctx, id)
}

func (uc *broadcastUC) List(ctx context.Context) ([]*model.Broadcast, error) {
	return uc.broadcasts.List(ctx)
}
