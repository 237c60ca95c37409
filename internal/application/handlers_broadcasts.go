package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"telegram-catalog-bot/internal/domain"
	"telegram-catalog-bot/internal/domain/model"
	"telegram-catalog-bot/internal/domain/ports/adapter"
	"telegram-catalog-bot/internal/domain/ports/repository"
)

func (r *Router) broadcastsMenu(ctx context.Context) (*Reply, error) {
	broadcasts, err := r.broadcastUC.List(ctx)
	if err != nil {
		return nil, err
	}

	var sb strings.Builder
	sb.WriteString("Broadcasts:\n")
	buttons := [][]adapter.InlineButton{
		{{Text: "✍️ New broadcast", Data: cbBroadcastNew}},
	}
	if len(broadcasts) == 0 {
		sb.WriteString("(none yet)\n")
	}
	for _, b := range broadcasts {
		preview := b.Content.Text
		if b.Content.MediaFileID != "" {
			preview = "📷 " + b.Content.Caption
		}
		if r := []rune(preview); len(r) > 40 {
			preview = string(r[:40]) + "…"
		}
		fmt.Fprintf(&sb, "· %s — %q, delivered to %d\n", b.CreatedAt.Format("02 Jan 15:04"), preview, len(b.MessageIDs))
		buttons = append(buttons, []adapter.InlineButton{
			{Text: "📤 Send", Data: cbBroadcastSend + b.ID},
			{Text: "✏️ Edit", Data: cbBroadcastEdit + b.ID},
			{Text: "🔁 Resend", Data: cbBroadcastAgain + b.ID},
			{Text: "🗑", Data: cbBroadcastDel + b.ID},
		})
	}
	buttons = append(buttons, []adapter.InlineButton{{Text: "🔙 Admin menu", Data: cbAdminMenu}})
	return &Reply{Text: sb.String(), Buttons: buttons}, nil
}

func contentFromEvent(ev Event) (model.BroadcastContent, bool) {
	if ev.MediaFileID != "" {
		return model.BroadcastContent{MediaFileID: ev.MediaFileID, Caption: strings.TrimSpace(ev.Text)}, true
	}
	text := strings.TrimSpace(ev.Text)
	if text == "" {
		return model.BroadcastContent{}, false
	}
	return model.BroadcastContent{Text: text}, true
}

// handleBroadcastCompose consumes the authored content, creates the record
// and fans it out immediately.
func (r *Router) handleBroadcastCompose(ctx context.Context, ev Event) (*Reply, error) {
	content, ok := contentFromEvent(ev)
	if !ok {
		return &Reply{Text: "Send text or a photo with a caption. /cancel to abort."}, nil
	}

	b, err := r.broadcastUC.Create(ctx, ev.UserID, content)
	if err != nil {
		return nil, err
	}
	if err := r.states.ClearState(ctx, ev.UserID); err != nil {
		return nil, err
	}
	sent, failed, err := r.broadcastUC.Send(ctx, b.ID)
	if err != nil {
		return nil, err
	}
	return &Reply{Text: fmt.Sprintf("📢 Broadcast sent to %d user(s), %d failed.", sent, failed)}, nil
}

// handleBroadcastEditText consumes the replacement content for the
// broadcast referenced in the session scratch.
func (r *Router) handleBroadcastEditText(ctx context.Context, ev Event, state *repository.ConversationState) (*Reply, error) {
	id := state.Data[scratchBroadcastID]
	content, ok := contentFromEvent(ev)
	if !ok {
		return &Reply{Text: "Send text or a photo with a caption. /cancel to abort."}, nil
	}

	edited, failed, err := r.broadcastUC.Edit(ctx, id, content)
	if errors.Is(err, domain.ErrNotFound) {
		if cerr := r.states.ClearState(ctx, ev.UserID); cerr != nil {
			return nil, cerr
		}
		return &Reply{Text: "This broadcast no longer exists."}, nil
	}
	if err != nil {
		return nil, err
	}
	if err := r.states.ClearState(ctx, ev.UserID); err != nil {
		return nil, err
	}
	return &Reply{Text: fmt.Sprintf("✏️ Broadcast updated for %d user(s), %d failed.", edited, failed)}, nil
}

func (r *Router) handleBroadcastSend(ctx context.Context, id string) (*Reply, error) {
	sent, failed, err := r.broadcastUC.Send(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return &Reply{Text: "This broadcast no longer exists."}, nil
	}
	if err != nil {
		return nil, err
	}
	return &Reply{Text: fmt.Sprintf("📤 Sent to %d user(s), %d failed.", sent, failed)}, nil
}

func (r *Router) handleBroadcastResend(ctx context.Context, id string) (*Reply, error) {
	sent, failed, err := r.broadcastUC.Resend(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return &Reply{Text: "This broadcast no longer exists."}, nil
	}
	if err != nil {
		return nil, err
	}
	return &Reply{Text: fmt.Sprintf("🔁 Resent to %d user(s), %d failed.", sent, failed)}, nil
}

func (r *Router) handleBroadcastDelete(ctx context.Context, id string) (*Reply, error) {
	err := r.broadcastUC.Delete(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return &Reply{Text: "This broadcast no longer exists."}, nil
	}
	if err != nil {
		return nil, err
	}
	return &Reply{Text: "🗑 Broadcast deleted. Messages already delivered stay in chats."}, nil
}
