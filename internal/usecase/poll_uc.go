package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"telegram-catalog-bot/internal/domain"
	"telegram-catalog-bot/internal/domain/model"
	"telegram-catalog-bot/internal/domain/ports/adapter"
	"telegram-catalog-bot/internal/domain/ports/repository"
	"telegram-catalog-bot/internal/infra/logging"
	"telegram-catalog-bot/internal/infra/metrics"
	"telegram-catalog-bot/internal/infra/worker"

	"github.com/rs/zerolog"
)

// VoteResult is the outcome of a vote attempt.
type VoteResult int

const (
	VoteAccepted VoteResult = iota
	VoteAlreadyVoted
	VoteNotEligible
	VoteNotFound
)

// VoteCallbackData encodes a poll option button. Parsed by the router.
func VoteCallbackData(pollID, optionIndex int) string {
	return fmt.Sprintf("vote:%d:%d", pollID, optionIndex)
}

// Compile-time check
var _ PollUseCase = (*pollUC)(nil)

// PollUseCase creates polls, fans them out to authorized users and records
// one vote per recipient, pushing the live tally back to everyone on each
// accepted vote.
type PollUseCase interface {
	Create(ctx context.Context, creatorID int64, question string, options []string) (*model.Poll, error)
	Publish(ctx context.Context, id int) (sent, failed int, err error)
	Vote(ctx context.Context, pollID int, userID int64, optionIndex int) (VoteResult, error)
	Delete(ctx context.Context, id int) error
	Find(ctx context.Context, id int) (*model.Poll, error)
	List(ctx context.Context) ([]*model.Poll, error)
}

type pollUC struct {
	polls      repository.PollRepository
	users      repository.UserRepository
	access     repository.AccessRepository
	bot        adapter.TelegramBotAdapter
	workerPool *worker.Pool
	log        *zerolog.Logger
}

func NewPollUseCase(
	polls repository.PollRepository,
	users repository.UserRepository,
	access repository.AccessRepository,
	bot adapter.TelegramBotAdapter,
	pool *worker.Pool,
	logger *zerolog.Logger,
) *pollUC {
	return &pollUC{
		polls:      polls,
		users:      users,
		access:     access,
		bot:        bot,
		workerPool: pool,
		log:        logger,
	}
}

// Create validates the draft (≥2 options) and persists the poll under the
// next counter id.
func (uc *pollUC) Create(ctx context.Context, creatorID int64, question string, options []string) (*model.Poll, error) {
	defer logging.TraceDuration(uc.log, "PollUC.Create")()
	if question == "" {
		return nil, domain.ErrInvalidArgument
	}
	id, err := uc.polls.NextID(ctx)
	if err != nil {
		return nil, err
	}
	p, err := model.NewPoll(id, creatorID, question, options)
	if err != nil {
		return nil, err
	}
	if err := uc.polls.Save(ctx, p); err != nil {
		return nil, err
	}
	uc.log.Info().Int("poll_id", p.ID).Int64("creator", creatorID).Msg("poll created")
	return p, nil
}

// RenderPoll formats the question with a textual progress bar per option.
// With no votes cast every option renders 0%.
func RenderPoll(p *model.Poll) string {
	const barWidth = 10
	total := p.TotalVotes()

	var sb strings.Builder
	sb.WriteString("📊 ")
	sb.WriteString(p.Question)
	sb.WriteString("\n\n")
	for i, opt := range p.Options {
		votes := p.Votes[i]
		percent := 0
		filled := 0
		if total > 0 {
			percent = votes * 100 / total
			filled = votes * barWidth / total
		}
		sb.WriteString(fmt.Sprintf("%s\n%s%s %d%% (%d)\n",
			opt,
			strings.Repeat("▓", filled),
			strings.Repeat("░", barWidth-filled),
			percent,
			votes,
		))
	}
	sb.WriteString(fmt.Sprintf("\n👥 %d votes", total))
	return sb.String()
}

func pollButtons(p *model.Poll) [][]adapter.InlineButton {
	rows := make([][]adapter.InlineButton, 0, len(p.Options))
	for i, opt := range p.Options {
		rows = append(rows, []adapter.InlineButton{{
			Text: opt,
			Data: VoteCallbackData(p.ID, i),
		}})
	}
	return rows
}

// Publish fans the poll out to every currently authorized user and records
// the delivery map, which doubles as the vote eligibility set.
func (uc *pollUC) Publish(ctx context.Context, id int) (int, int, error) {
	defer logging.TraceDuration(uc.log, "PollUC.Publish")()
	p, err := uc.polls.Find(ctx, id)
	if err != nil {
		return 0, 0, err
	}

	allUsers, err := uc.users.List(ctx)
	if err != nil {
		return 0, 0, err
	}
	var recipients []int64
	for _, user := range allUsers {
		ok, err := uc.access.IsAuthorized(ctx, user.TelegramID)
		if err != nil {
			return 0, 0, err
		}
		if ok {
			recipients = append(recipients, user.TelegramID)
		}
	}

	text := RenderPoll(p)
	buttons := pollButtons(p)
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
			msgID, err := uc.bot.SendMessage(ctx, adapter.SendParams{
				ChatID:  tgID,
				Text:    text,
				Buttons: buttons,
			})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed++
				uc.log.Warn().Err(err).Int64("tg_id", tgID).Msg("poll delivery failed")
				return nil
			}
			delivered[tgID] = msgID
			return nil
		}
		if err := uc.workerPool.Submit(task); err != nil {
			_ = task(ctx)
		}
	}
	wg.Wait()

	err = uc.polls.Update(ctx, id, func(p *model.Poll) error {
		for tgID, msgID := range delivered {
			p.MessageIDs[tgID] = msgID
		}
		return nil
	})
	if err != nil {
		return len(delivered), failed, err
	}
	uc.log.Info().Int("poll_id", id).Int("sent", len(delivered)).Int("failed", failed).Msg("poll published")
	return len(delivered), failed, nil
}

// Vote records one vote per eligible recipient. The tally increment and the
// voters-map entry are committed together under the store lock, so
// sum(votes) == len(voters) holds after any interleaving. On acceptance the
// updated tally is pushed to every recipient.
func (uc *pollUC) Vote(ctx context.Context, pollID int, userID int64, optionIndex int) (VoteResult, error) {
	defer logging.TraceDuration(uc.log, "PollUC.Vote")()

	err := uc.polls.Update(ctx, pollID, func(p *model.Poll) error {
		if !p.Eligible(userID) {
			return domain.ErrNotEligible
		}
		if _, voted := p.Voters[userID]; voted {
			return domain.ErrAlreadyVoted
		}
		if optionIndex < 0 || optionIndex >= len(p.Options) {
			return domain.ErrInvalidArgument
		}
		p.Voters[userID] = optionIndex
		p.Votes[optionIndex]++
		return nil
	})
	switch {
	case errors.Is(err, domain.ErrNotFound):
		metrics.IncPollVote("not_found")
		return VoteNotFound, nil
	case errors.Is(err, domain.ErrNotEligible):
		metrics.IncPollVote("not_eligible")
		return VoteNotEligible, nil
	case errors.Is(err, domain.ErrAlreadyVoted):
		metrics.IncPollVote("already_voted")
		return VoteAlreadyVoted, nil
	case err != nil:
		return VoteNotFound, err
	}
	metrics.IncPollVote("accepted")

	// Push the live tally to every recipient, voter included.
	p, err := uc.polls.Find(ctx, pollID)
	if err != nil {
		return VoteAccepted, err
	}
	uc.broadcastTally(ctx, p)
	return VoteAccepted, nil
}

func (uc *pollUC) broadcastTally(ctx context.Context, p *model.Poll) {
	text := RenderPoll(p)
	buttons := pollButtons(p)
	var wg sync.WaitGroup
	for tgID, msgID := range p.MessageIDs {
		tgID, msgID := tgID, msgID
		wg.Add(1)
		task := func(ctx context.Context) error {
			defer wg.Done()
			if err := uc.bot.EditMessage(ctx, tgID, msgID, text, buttons); err != nil {
				uc.log.Warn().Err(err).Int64("tg_id", tgID).Int("poll_id", p.ID).Msg("tally update failed")
			}
			return nil
		}
		if err := uc.workerPool.Submit(task); err != nil {
			_ = task(ctx)
		}
	}
	wg.Wait()
}

// Delete removes every delivered poll message best-effort, then the record.
func (uc *pollUC) Delete(ctx context.Context, id int) error {
	defer logging.TraceDuration(uc.log, "PollUC.Delete")()
	p, err := uc.polls.Find(ctx, id)
	if err != nil {
		return err
	}
	for tgID, msgID := range p.MessageIDs {
		if err := uc.bot.DeleteMessage(ctx, tgID, msgID); err != nil {
			uc.log.Warn().Err(err).Int64("tg_id", tgID).Int("poll_id", id).Msg("poll message delete failed")
		}
	}
	return uc.polls.Delete(ctx, id)
}

func (uc *pollUC) Find(ctx context.Context, id int) (*model.Poll, error) {
	return uc.polls.Find(ctx, id)
}

func (uc *pollUC) List(ctx context.Context) ([]*model.Poll, error) {
	return uc.polls.List(ctx)
}
