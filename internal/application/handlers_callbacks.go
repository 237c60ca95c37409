package application

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"telegram-catalog-bot/internal/domain"
	"telegram-catalog-bot/internal/domain/ports/adapter"
	"telegram-catalog-bot/internal/domain/ports/repository"
	"telegram-catalog-bot/internal/infra/metrics"
	"telegram-catalog-bot/internal/usecase"
)

func (r *Router) handleCallback(ctx context.Context, ev Event) (*Reply, error) {
	data := ev.Data

	switch {
	case data == cbCategories:
		return r.categoriesMenu(ctx, ev.UserID)
	case strings.HasPrefix(data, cbViewCategory):
		return r.handleViewCategory(ctx, ev, strings.TrimPrefix(data, cbViewCategory))
	case strings.HasPrefix(data, cbVote):
		return r.handleVote(ctx, ev, strings.TrimPrefix(data, cbVote))
	}

	// Everything below mutates registries: admin only.
	if !r.isAdmin(ev.UserID) {
		metrics.IncAccessDenied("not_admin")
		return &Reply{Text: "You are not authorized to do that."}, nil
	}

	switch {
	case data == cbAdminMenu:
		return adminMenu(), nil
	case data == cbAdminGroups:
		return r.groupsMenu(ctx)
	case data == cbAdminCodes:
		return codesMenu(), nil
	case data == cbAdminBroadcast:
		return r.broadcastsMenu(ctx)
	case data == cbAdminPolls:
		return r.pollsMenu(ctx)
	case data == cbAdminStats:
		return r.handleStats(ctx)

	case data == cbGroupCreate:
		return r.enterStep(ctx, ev.UserID, StepAwaitingGroupName, nil,
			"Send the name for the new group. /cancel to abort.")
	case strings.HasPrefix(data, cbGroupDelete):
		return r.handleGroupDelete(ctx, strings.TrimPrefix(data, cbGroupDelete))
	case strings.HasPrefix(data, cbGroupAddUser):
		name := strings.TrimPrefix(data, cbGroupAddUser)
		return r.enterStep(ctx, ev.UserID, StepAwaitingGroupMember, map[string]string{scratchGroup: name},
			fmt.Sprintf("Send the numeric id of the user to add to %q. /cancel to abort.", name))
	case strings.HasPrefix(data, cbGroupDelUser):
		name := strings.TrimPrefix(data, cbGroupDelUser)
		return r.enterStep(ctx, ev.UserID, StepAwaitingGroupRemoval, map[string]string{scratchGroup: name},
			fmt.Sprintf("Send the numeric id of the user to remove from %q. /cancel to abort.", name))

	case data == cbCodesGenerate:
		return r.enterStep(ctx, ev.UserID, StepAwaitingCodeCount, nil,
			"How many codes should I generate? Send a number. /cancel to abort.")
	case data == cbCodesListUsed:
		return r.handleListCodes(ctx, true)
	case data == cbCodesListFresh:
		return r.handleListCodes(ctx, false)

	case data == cbBroadcastNew:
		return r.enterStep(ctx, ev.UserID, StepAwaitingBroadcast, nil,
			"Send the broadcast content (text or a photo with caption). /cancel to abort.")
	case strings.HasPrefix(data, cbBroadcastSend):
		return r.handleBroadcastSend(ctx, strings.TrimPrefix(data, cbBroadcastSend))
	case strings.HasPrefix(data, cbBroadcastEdit):
		id := strings.TrimPrefix(data, cbBroadcastEdit)
		return r.enterStep(ctx, ev.UserID, StepAwaitingBroadcastEdit, map[string]string{scratchBroadcastID: id},
			"Send the new content for this broadcast. /cancel to abort.")
	case strings.HasPrefix(data, cbBroadcastAgain):
		return r.handleBroadcastResend(ctx, strings.TrimPrefix(data, cbBroadcastAgain))
	case strings.HasPrefix(data, cbBroadcastDel):
		return r.handleBroadcastDelete(ctx, strings.TrimPrefix(data, cbBroadcastDel))

	case data == cbPollDone:
		return r.handlePollDone(ctx, ev)
	case data == cbPollNew:
		return r.enterStep(ctx, ev.UserID, StepAwaitingPollQuestion, nil,
			"Send the poll question. /cancel to abort.")
	case strings.HasPrefix(data, cbPollDelete):
		return r.handlePollDelete(ctx, strings.TrimPrefix(data, cbPollDelete))
	}

	return &Reply{Text: "This button is no longer valid."}, nil
}

// enterStep persists the next waiting-state with its scratch data and
// prompts the user.
func (r *Router) enterStep(ctx context.Context, tgID int64, step string, data map[string]string, prompt string) (*Reply, error) {
	if data == nil {
		data = make(map[string]string)
	}
	state := &repository.ConversationState{Step: step, Data: data}
	if err := r.states.SetState(ctx, tgID, state); err != nil {
		return nil, err
	}
	return &Reply{Text: prompt}, nil
}

func (r *Router) handleViewCategory(ctx context.Context, ev Event, category string) (*Reply, error) {
	authorized, err := r.accessUC.IsAuthorized(ctx, ev.UserID)
	if err != nil {
		return nil, err
	}
	if !authorized && !r.isAdmin(ev.UserID) {
		metrics.IncAccessDenied("not_authorized")
		return &Reply{Text: "Send your access code to unlock the catalog."}, nil
	}

	products, display, err := r.catalogUC.ViewCategory(ctx, ev.UserID, category)
	switch {
	case errors.Is(err, domain.ErrNotAuthorized):
		metrics.IncAccessDenied("not_in_group")
		return &Reply{Text: "❌ You don't have access to this category."}, nil
	case errors.Is(err, domain.ErrNotFound):
		return &Reply{Text: "This category no longer exists."}, nil
	case err != nil:
		return nil, err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "*%s*\n\n", display)
	for _, p := range products {
		sb.WriteString("• " + p.Name)
		if p.Price != "" {
			sb.WriteString(" — " + p.Price)
		}
		sb.WriteString("\n")
	}
	return &Reply{
		Text:    sb.String(),
		Buttons: [][]adapter.InlineButton{{{Text: "🔙 Back to menu", Data: cbCategories}}},
	}, nil
}

func (r *Router) handleVote(ctx context.Context, ev Event, payload string) (*Reply, error) {
	parts := strings.Split(payload, ":")
	if len(parts) != 2 {
		return &Reply{Text: "This button is no longer valid."}, nil
	}
	pollID, err1 := strconv.Atoi(parts[0])
	option, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil {
		return &Reply{Text: "This button is no longer valid."}, nil
	}

	result, err := r.pollUC.Vote(ctx, pollID, ev.UserID, option)
	if err != nil {
		return nil, err
	}
	switch result {
	case usecase.VoteAccepted:
		return nil, nil // the recipient sees the updated tally in place
	case usecase.VoteAlreadyVoted:
		return &Reply{Text: "You already voted in this poll."}, nil
	case usecase.VoteNotEligible:
		return &Reply{Text: "This poll was not sent to you."}, nil
	default:
		return &Reply{Text: "This poll no longer exists."}, nil
	}
}

func (r *Router) handleStats(ctx context.Context) (*Reply, error) {
	stats, err := r.catalogUC.Stats(ctx)
	if err != nil {
		return nil, err
	}
	users, err := r.userUC.Count(ctx)
	if err != nil {
		return nil, err
	}

	var sb strings.Builder
	sb.WriteString("📈 Stats\n\n")
	fmt.Fprintf(&sb, "👥 Known users: %d\n", users)
	fmt.Fprintf(&sb, "👁 Total catalog views: %d\n", stats.TotalViews)
	for cat, n := range stats.CategoryViews {
		fmt.Fprintf(&sb, "  · %s: %d\n", cat, n)
	}
	if stats.LastUpdated != "" {
		fmt.Fprintf(&sb, "Last updated: %s\n", stats.LastUpdated)
	}
	return &Reply{Text: sb.String()}, nil
}
