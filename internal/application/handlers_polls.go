package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"telegram-catalog-bot/internal/domain"
	"telegram-catalog-bot/internal/domain/ports/adapter"
	"telegram-catalog-bot/internal/domain/ports/repository"
)

func (r *Router) pollsMenu(ctx context.Context) (*Reply, error) {
	polls, err := r.pollUC.List(ctx)
	if err != nil {
		return nil, err
	}

	var sb strings.Builder
	sb.WriteString("Polls:\n")
	buttons := [][]adapter.InlineButton{
		{{Text: "➕ New poll", Data: cbPollNew}},
	}
	if len(polls) == 0 {
		sb.WriteString("(none yet)\n")
	}
	for _, p := range polls {
		fmt.Fprintf(&sb, "· #%d %q — %d vote(s), %d recipient(s)\n", p.ID, p.Question, p.TotalVotes(), len(p.MessageIDs))
		buttons = append(buttons, []adapter.InlineButton{
			{Text: fmt.Sprintf("🗑 #%d", p.ID), Data: cbPollDelete + strconv.Itoa(p.ID)},
		})
	}
	buttons = append(buttons, []adapter.InlineButton{{Text: "🔙 Admin menu", Data: cbAdminMenu}})
	return &Reply{Text: sb.String(), Buttons: buttons}, nil
}

// handlePollQuestion consumes the question text and advances the draft to
// option collection.
func (r *Router) handlePollQuestion(ctx context.Context, ev Event) (*Reply, error) {
	question := strings.TrimSpace(ev.Text)
	if question == "" {
		return &Reply{Text: "The question can't be empty. Try again, or /cancel."}, nil
	}
	return r.enterStep(ctx, ev.UserID, StepAwaitingPollOption,
		map[string]string{scratchQuestion: question, scratchOptions: "[]"},
		"Now send the options, one message each. Press Done when you have at least two.")
}

func draftOptions(state *repository.ConversationState) ([]string, error) {
	var options []string
	if raw := state.Data[scratchOptions]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &options); err != nil {
			return nil, err
		}
	}
	return options, nil
}

// handlePollOption appends one option and re-renders the accumulated
// draft. The Done button finalizes once ≥2 options exist.
func (r *Router) handlePollOption(ctx context.Context, ev Event, state *repository.ConversationState) (*Reply, error) {
	option := strings.TrimSpace(ev.Text)
	if option == "" {
		return &Reply{Text: "Options can't be empty. Send another option, or /cancel."}, nil
	}

	options, err := draftOptions(state)
	if err != nil {
		return nil, err
	}
	options = append(options, option)
	raw, err := json.Marshal(options)
	if err != nil {
		return nil, err
	}
	state.Data[scratchOptions] = string(raw)
	if err := r.states.SetState(ctx, ev.UserID, state); err != nil {
		return nil, err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "📊 %s\n\n", state.Data[scratchQuestion])
	for i, opt := range options {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, opt)
	}
	reply := &Reply{Text: sb.String()}
	if len(options) >= 2 {
		reply.Buttons = [][]adapter.InlineButton{{{Text: "✅ Done — publish", Data: cbPollDone}}}
	} else {
		reply.Text += "\nSend at least one more option."
	}
	return reply, nil
}

// handlePollDone finalizes the draft: validates, persists, fans out.
// Reached via the Done callback while in StepAwaitingPollOption.
func (r *Router) handlePollDone(ctx context.Context, ev Event) (*Reply, error) {
	state, err := r.states.GetState(ctx, ev.UserID)
	if err != nil {
		return nil, err
	}
	if state == nil || state.Step != StepAwaitingPollOption {
		return &Reply{Text: "No poll draft in progress. Use the admin menu to start one."}, nil
	}
	options, err := draftOptions(state)
	if err != nil {
		return nil, err
	}

	p, err := r.pollUC.Create(ctx, ev.UserID, state.Data[scratchQuestion], options)
	if errors.Is(err, domain.ErrTooFewOptions) {
		return &Reply{Text: "A poll needs at least two options. Send more options first."}, nil
	}
	if err != nil {
		return nil, err
	}
	if err := r.states.ClearState(ctx, ev.UserID); err != nil {
		return nil, err
	}

	sent, failed, err := r.pollUC.Publish(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	return &Reply{Text: fmt.Sprintf("📊 Poll #%d published to %d user(s), %d failed.", p.ID, sent, failed)}, nil
}

func (r *Router) handlePollDelete(ctx context.Context, raw string) (*Reply, error) {
	id, err := strconv.Atoi(raw)
	if err != nil {
		return &Reply{Text: "This button is no longer valid."}, nil
	}
	err = r.pollUC.Delete(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return &Reply{Text: "This poll no longer exists."}, nil
	}
	if err != nil {
		return nil, err
	}
	return &Reply{Text: fmt.Sprintf("🗑 Poll #%d deleted everywhere it was sent.", id)}, nil
}
