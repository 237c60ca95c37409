package adapter

import "context"

// InlineButton is one selectable action rendered under a message.
type InlineButton struct {
	Text string
	Data string
}

// SendParams describes one outbound message. MediaFileID switches the send
// from plain text to a photo with Text as caption.
type SendParams struct {
	ChatID      int64
	Text        string
	MediaFileID string
	Buttons     [][]InlineButton
}

// TelegramBotAdapter is the messaging transport port. All calls are
// best-effort: a failed delivery to one recipient must never abort the
// caller's larger loop.
type TelegramBotAdapter interface {
	// SendMessage delivers a payload and returns the platform message id
	// used later to edit or delete it.
	SendMessage(ctx context.Context, params SendParams) (int, error)
	EditMessage(ctx context.Context, chatID int64, messageID int, text string, buttons [][]InlineButton) error
	DeleteMessage(ctx context.Context, chatID int64, messageID int) error
}
