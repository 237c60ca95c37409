package application

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"telegram-catalog-bot/internal/domain/ports/adapter"
)

const maxCodesPerBatch = 50

func codesMenu() *Reply {
	return &Reply{
		Text: "Access codes",
		Buttons: [][]adapter.InlineButton{
			{{Text: "🔑 Generate", Data: cbCodesGenerate}},
			{{Text: "📋 Unused", Data: cbCodesListFresh}, {Text: "✅ Used", Data: cbCodesListUsed}},
			{{Text: "🔙 Admin menu", Data: cbAdminMenu}},
		},
	}
}

// handleCodeCount consumes the requested batch size in StepAwaitingCodeCount.
func (r *Router) handleCodeCount(ctx context.Context, ev Event) (*Reply, error) {
	count, err := strconv.Atoi(strings.TrimSpace(ev.Text))
	if err != nil || count <= 0 {
		return &Reply{Text: "Send a positive number. /cancel to abort."}, nil
	}
	if count > maxCodesPerBatch {
		return &Reply{Text: fmt.Sprintf("At most %d codes per batch. Send a smaller number, or /cancel.", maxCodesPerBatch)}, nil
	}

	codes, err := r.accessUC.GenerateCodes(ctx, ev.UserID, count)
	if err != nil {
		return nil, err
	}
	if err := r.states.ClearState(ctx, ev.UserID); err != nil {
		return nil, err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "🔑 %d code(s), valid 48h:\n\n", len(codes))
	for _, c := range codes {
		fmt.Fprintf(&sb, "`%s`\n", c.Code)
	}
	return &Reply{Text: sb.String()}, nil
}

func (r *Router) handleListCodes(ctx context.Context, used bool) (*Reply, error) {
	codes, err := r.accessUC.ListCodes(ctx, used)
	if err != nil {
		return nil, err
	}
	if len(codes) == 0 {
		if used {
			return &Reply{Text: "No codes have been redeemed yet."}, nil
		}
		return &Reply{Text: "No unused codes. Generate some from the codes menu."}, nil
	}

	var sb strings.Builder
	if used {
		sb.WriteString("✅ Redeemed codes:\n\n")
		for _, c := range codes {
			who := "unknown"
			if c.RedeemedByUsername != nil && *c.RedeemedByUsername != "" {
				who = "@" + *c.RedeemedByUsername
			} else if c.RedeemedByUserID != nil {
				who = strconv.FormatInt(*c.RedeemedByUserID, 10)
			}
			fmt.Fprintf(&sb, "`%s` — %s\n", c.Code, who)
		}
	} else {
		sb.WriteString("📋 Unused codes:\n\n")
		for _, c := range codes {
			fmt.Fprintf(&sb, "`%s` — expires %s\n", c.Code, c.ExpiresAt.Format("02 Jan 15:04"))
		}
	}
	return &Reply{Text: sb.String()}, nil
}
