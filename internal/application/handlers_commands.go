package application

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"telegram-catalog-bot/internal/domain"
	"telegram-catalog-bot/internal/domain/ports/adapter"
	"telegram-catalog-bot/internal/infra/metrics"
)

func (r *Router) handleCommand(ctx context.Context, ev Event) (*Reply, error) {
	cmd := ev.Text
	args := ""
	if i := strings.IndexByte(cmd, ' '); i >= 0 {
		cmd, args = cmd[:i], strings.TrimSpace(cmd[i+1:])
	}

	switch cmd {
	case "/start":
		return r.handleStart(ctx, ev)
	case "/help":
		return r.handleHelp(ev), nil
	case "/cancel":
		// Cancel from any step: discard drafts, back to idle.
		if err := r.states.ClearState(ctx, ev.UserID); err != nil {
			return nil, err
		}
		return &Reply{Text: "Cancelled."}, nil
	case "/admin":
		if !r.isAdmin(ev.UserID) {
			metrics.IncAccessDenied("not_admin")
			return &Reply{Text: "You are not authorized to use this command."}, nil
		}
		return adminMenu(), nil
	case "/ban":
		return r.handleBanCommand(ctx, ev, args, true)
	case "/unban":
		return r.handleBanCommand(ctx, ev, args, false)
	default:
		return &Reply{Text: "Unknown command. Send /help for the list of commands."}, nil
	}
}

func (r *Router) handleStart(ctx context.Context, ev Event) (*Reply, error) {
	authorized, err := r.accessUC.IsAuthorized(ctx, ev.UserID)
	if err != nil {
		return nil, err
	}
	if !authorized && !r.isAdmin(ev.UserID) {
		return &Reply{Text: "Welcome! Send your access code to unlock the catalog."}, nil
	}
	return r.categoriesMenu(ctx, ev.UserID)
}

func (r *Router) handleHelp(ev Event) *Reply {
	text := "Commands:\n/start — open the catalog\n/cancel — abandon the current action\n/help — this message"
	if r.isAdmin(ev.UserID) {
		text += "\n\nAdmin:\n/admin — admin menu\n/ban <user id>\n/unban <user id>"
	}
	return &Reply{Text: text}
}

func (r *Router) handleBanCommand(ctx context.Context, ev Event, args string, ban bool) (*Reply, error) {
	if !r.isAdmin(ev.UserID) {
		metrics.IncAccessDenied("not_admin")
		return &Reply{Text: "You are not authorized to use this command."}, nil
	}
	target, err := strconv.ParseInt(args, 10, 64)
	if err != nil || target <= 0 {
		return &Reply{Text: "Usage: /ban <numeric user id>"}, nil
	}
	if ban {
		if err := r.accessUC.Ban(ctx, target); err != nil {
			return nil, err
		}
		return &Reply{Text: fmt.Sprintf("User %d banned.", target)}, nil
	}
	if err := r.accessUC.Unban(ctx, target); err != nil {
		return nil, err
	}
	return &Reply{Text: fmt.Sprintf("User %d unbanned. They are not re-authorized automatically.", target)}, nil
}

// handleIdleText: with no flow in progress, text from an unauthorized user
// is treated as a code redemption attempt.
func (r *Router) handleIdleText(ctx context.Context, ev Event) (*Reply, error) {
	authorized, err := r.accessUC.IsAuthorized(ctx, ev.UserID)
	if err != nil {
		return nil, err
	}
	if authorized || r.isAdmin(ev.UserID) {
		return &Reply{Text: "Use /start to browse the catalog."}, nil
	}

	code := strings.ToUpper(strings.TrimSpace(ev.Text))
	if code == "" {
		return &Reply{Text: "Send your access code to unlock the catalog."}, nil
	}
	switch err := r.accessUC.RedeemCode(ctx, code, ev.UserID, ev.Username); {
	case err == nil:
		return &Reply{Text: "✅ Code accepted. Use /start to browse the catalog."}, nil
	case errors.Is(err, domain.ErrCodeAlreadyUsed):
		return &Reply{Text: "This code was already used."}, nil
	case errors.Is(err, domain.ErrCodeExpired):
		return &Reply{Text: "This code has expired."}, nil
	case errors.Is(err, domain.ErrCodeNotFound):
		return &Reply{Text: "Unknown code. Check for typos and try again."}, nil
	default:
		return nil, err
	}
}

func adminMenu() *Reply {
	return &Reply{
		Text: "Admin menu",
		Buttons: [][]adapter.InlineButton{
			{{Text: "👥 Groups", Data: cbAdminGroups}, {Text: "🔑 Codes", Data: cbAdminCodes}},
			{{Text: "📢 Broadcasts", Data: cbAdminBroadcast}, {Text: "📊 Polls", Data: cbAdminPolls}},
			{{Text: "📈 Stats", Data: cbAdminStats}},
		},
	}
}

func (r *Router) categoriesMenu(ctx context.Context, userID int64) (*Reply, error) {
	categories, err := r.catalogUC.VisibleCategories(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(categories) == 0 {
		return &Reply{Text: "The catalog is empty right now."}, nil
	}
	buttons := make([][]adapter.InlineButton, 0, len(categories))
	for _, c := range categories {
		buttons = append(buttons, []adapter.InlineButton{{Text: c.DisplayName, Data: cbViewCategory + c.Name}})
	}
	return &Reply{Text: "Choose a category:", Buttons: buttons}, nil
}
