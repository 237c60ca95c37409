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
)

func (r *Router) groupsMenu(ctx context.Context) (*Reply, error) {
	groups, err := r.accessUC.ListGroups(ctx)
	if err != nil {
		return nil, err
	}

	var sb strings.Builder
	sb.WriteString("Groups:\n")
	buttons := [][]adapter.InlineButton{
		{{Text: "➕ New group", Data: cbGroupCreate}},
	}
	if len(groups) == 0 {
		sb.WriteString("(none yet)\n")
	}
	for name, members := range groups {
		fmt.Fprintf(&sb, "· %s — %d member(s)\n", name, len(members))
		buttons = append(buttons, []adapter.InlineButton{
			{Text: "➕ " + name, Data: cbGroupAddUser + name},
			{Text: "➖ " + name, Data: cbGroupDelUser + name},
			{Text: "🗑 " + name, Data: cbGroupDelete + name},
		})
	}
	buttons = append(buttons, []adapter.InlineButton{{Text: "🔙 Admin menu", Data: cbAdminMenu}})
	return &Reply{Text: sb.String(), Buttons: buttons}, nil
}

// handleGroupName consumes the text reply in StepAwaitingGroupName.
func (r *Router) handleGroupName(ctx context.Context, ev Event) (*Reply, error) {
	name := strings.TrimSpace(ev.Text)
	if name == "" || strings.ContainsAny(name, " :_") {
		// Re-prompt the same step: group names become catalog prefixes, so
		// separators would make the prefix ambiguous.
		return &Reply{Text: "Group names must be non-empty without spaces, ':' or '_'. Try again, or /cancel."}, nil
	}

	err := r.accessUC.CreateGroup(ctx, name)
	if errors.Is(err, domain.ErrAlreadyExists) {
		return &Reply{Text: fmt.Sprintf("Group %q already exists. Pick another name, or /cancel.", name)}, nil
	}
	if err != nil {
		return nil, err
	}
	if err := r.states.ClearState(ctx, ev.UserID); err != nil {
		return nil, err
	}
	return &Reply{Text: fmt.Sprintf("✅ Group %q created.", name)}, nil
}

// handleGroupMember consumes the user-id reply for member addition or
// removal, depending on add.
func (r *Router) handleGroupMember(ctx context.Context, ev Event, state *repository.ConversationState, add bool) (*Reply, error) {
	group := state.Data[scratchGroup]
	target, err := strconv.ParseInt(strings.TrimSpace(ev.Text), 10, 64)
	if err != nil || target <= 0 {
		return &Reply{Text: "That doesn't look like a numeric user id. Try again, or /cancel."}, nil
	}

	if add {
		err = r.accessUC.AddGroupMember(ctx, group, target)
	} else {
		err = r.accessUC.RemoveGroupMember(ctx, group, target)
	}
	if errors.Is(err, domain.ErrNotFound) {
		// Deleted concurrently by another admin.
		if cerr := r.states.ClearState(ctx, ev.UserID); cerr != nil {
			return nil, cerr
		}
		return &Reply{Text: fmt.Sprintf("Group %q no longer exists.", group)}, nil
	}
	if err != nil {
		return nil, err
	}
	if err := r.states.ClearState(ctx, ev.UserID); err != nil {
		return nil, err
	}
	if add {
		return &Reply{Text: fmt.Sprintf("✅ User %d added to %q.", target, group)}, nil
	}
	return &Reply{Text: fmt.Sprintf("✅ User %d removed from %q.", target, group)}, nil
}

func (r *Router) handleGroupDelete(ctx context.Context, name string) (*Reply, error) {
	removed, err := r.accessUC.DeleteGroup(ctx, name)
	if errors.Is(err, domain.ErrNotFound) {
		return &Reply{Text: fmt.Sprintf("Group %q no longer exists.", name)}, nil
	}
	if err != nil {
		return nil, err
	}
	text := fmt.Sprintf("✅ Group %q deleted.", name)
	if len(removed) > 0 {
		text += fmt.Sprintf(" Removed categories: %s.", strings.Join(removed, ", "))
	}
	return &Reply{Text: text}, nil
}
