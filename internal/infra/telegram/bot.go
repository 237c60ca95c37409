package telegram

import (
	"context"
	"errors"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"telegram-catalog-bot/internal/application"
	"telegram-catalog-bot/internal/config"
	"telegram-catalog-bot/internal/domain/ports/adapter"
)

var _ adapter.TelegramBotAdapter = (*Bot)(nil)

// Bot implements the transport port with tgbotapi and feeds inbound
// updates to the conversation router through a pool of update workers.
type Bot struct {
	api           *tgbotapi.BotAPI
	router        *application.Router
	updateWorkers int
	log           *zerolog.Logger

	cancelPolling context.CancelFunc
}

func NewBot(cfg *config.BotConfig, logger *zerolog.Logger) (*Bot, error) {
	if cfg == nil {
		return nil, errors.New("bot config is nil")
	}
	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, err
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = 5
	}
	botLog := logger.With().Str("component", "telegram").Logger()
	return &Bot{
		api:           api,
		updateWorkers: workers,
		log:           &botLog,
	}, nil
}

// SetRouter must be called before StartPolling. It is separate from the
// constructor because the router's usecases need the transport port first.
func (b *Bot) SetRouter(router *application.Router) { b.router = router }

// StartPolling polls Telegram for updates until ctx is canceled.
func (b *Bot) StartPolling(ctx context.Context) error {
	if b.router == nil {
		return errors.New("router not set")
	}
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)

	ctx, cancel := context.WithCancel(ctx)
	b.cancelPolling = cancel

	var wg sync.WaitGroup
	updateChan := make(chan tgbotapi.Update, 100)

	for i := 0; i < b.updateWorkers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for {
				select {
				case update, ok := <-updateChan:
					if !ok {
						return
					}
					b.handleUpdate(ctx, update)
				case <-ctx.Done():
					return
				}
			}
		}(i + 1)
	}

	go func() {
		defer close(updateChan)
		for {
			select {
			case update := <-updates:
				select {
				case updateChan <- update:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	<-ctx.Done()
	b.api.StopReceivingUpdates()
	wg.Wait()
	return nil
}

// StopPolling stops the polling loop gracefully.
func (b *Bot) StopPolling() {
	if b.cancelPolling != nil {
		b.cancelPolling()
	}
}

// handleUpdate translates one Telegram update into a router event and
// renders the reply. Errors are logged, never propagated: one bad update
// must not cost the worker.
func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	ev, chatID, ok := eventFromUpdate(update)
	if !ok {
		return
	}

	if update.CallbackQuery != nil {
		// Ack the button press so the client stops its spinner.
		if _, err := b.api.Request(tgbotapi.NewCallback(update.CallbackQuery.ID, "")); err != nil {
			b.log.Debug().Err(err).Msg("callback ack failed")
		}
	}

	reply, err := b.router.Dispatch(ctx, ev)
	if err != nil {
		b.log.Error().Err(err).Int64("tg_id", ev.UserID).Msg("dispatch failed")
		return
	}
	if reply == nil {
		return
	}
	if _, err := b.SendMessage(ctx, adapter.SendParams{
		ChatID:  chatID,
		Text:    reply.Text,
		Buttons: reply.Buttons,
	}); err != nil {
		b.log.Warn().Err(err).Int64("chat_id", chatID).Msg("reply send failed")
	}
}

func eventFromUpdate(update tgbotapi.Update) (application.Event, int64, bool) {
	switch {
	case update.CallbackQuery != nil:
		cq := update.CallbackQuery
		if cq.From == nil || cq.Message == nil {
			return application.Event{}, 0, false
		}
		return application.Event{
			UserID:    cq.From.ID,
			Username:  cq.From.UserName,
			FirstName: cq.From.FirstName,
			LastName:  cq.From.LastName,
			Kind:      application.EventCallback,
			Data:      cq.Data,
		}, cq.Message.Chat.ID, true

	case update.Message != nil:
		msg := update.Message
		if msg.From == nil {
			return application.Event{}, 0, false
		}
		ev := application.Event{
			UserID:    msg.From.ID,
			Username:  msg.From.UserName,
			FirstName: msg.From.FirstName,
			LastName:  msg.From.LastName,
			Kind:      application.EventText,
			Text:      msg.Text,
		}
		if strings.HasPrefix(msg.Text, "/") {
			ev.Kind = application.EventCommand
		}
		if len(msg.Photo) > 0 {
			// Largest size is last; its file id is reusable for re-sends.
			ev.MediaFileID = msg.Photo[len(msg.Photo)-1].FileID
			ev.Text = msg.Caption
			ev.Kind = application.EventText
		}
		return ev, msg.Chat.ID, true
	}
	return application.Event{}, 0, false
}

// SendMessage delivers text or a photo and returns the message id used for
// later edits and deletes.
func (b *Bot) SendMessage(ctx context.Context, params adapter.SendParams) (int, error) {
	var markup *tgbotapi.InlineKeyboardMarkup
	if len(params.Buttons) > 0 {
		m := toMarkup(params.Buttons)
		markup = &m
	}

	var sent tgbotapi.Message
	var err error
	if params.MediaFileID != "" {
		photo := tgbotapi.NewPhoto(params.ChatID, tgbotapi.FileID(params.MediaFileID))
		photo.Caption = params.Text
		if markup != nil {
			photo.ReplyMarkup = markup
		}
		sent, err = b.api.Send(photo)
	} else {
		msg := tgbotapi.NewMessage(params.ChatID, params.Text)
		msg.ParseMode = tgbotapi.ModeMarkdown
		if markup != nil {
			msg.ReplyMarkup = markup
		}
		sent, err = b.api.Send(msg)
	}
	if err != nil {
		return 0, err
	}
	return sent.MessageID, nil
}

func (b *Bot) EditMessage(ctx context.Context, chatID int64, messageID int, text string, buttons [][]adapter.InlineButton) error {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	if len(buttons) > 0 {
		m := toMarkup(buttons)
		edit.ReplyMarkup = &m
	}
	_, err := b.api.Send(edit)
	return err
}

func (b *Bot) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	_, err := b.api.Request(tgbotapi.NewDeleteMessage(chatID, messageID))
	return err
}

func toMarkup(rows [][]adapter.InlineButton) tgbotapi.InlineKeyboardMarkup {
	keyboard := make([][]tgbotapi.InlineKeyboardButton, 0, len(rows))
	for _, row := range rows {
		btns := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, btn := range row {
			btns = append(btns, tgbotapi.NewInlineKeyboardButtonData(btn.Text, btn.Data))
		}
		keyboard = append(keyboard, btns)
	}
	return tgbotapi.NewInlineKeyboardMarkup(keyboard...)
}
