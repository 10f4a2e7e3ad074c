// Package bot is the Telegram shell around the link service: it turns
// updates into service calls and outcomes into replies. No lifecycle or
// permission decisions are made here.
package bot

import (
	"context"
	"log"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"media.share/internal/share"
)

type Bot struct {
	Api     *tgbotapi.BotAPI
	service *share.Service
}

func New(token string, service *share.Service) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	return &Bot{Api: api, service: service}, nil
}

// Start runs the long-polling loop. Used for local runs; production traffic
// arrives through the webhook endpoint instead.
func (b *Bot) Start() {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.Api.GetUpdatesChan(u)

	log.Printf("Authorized on account %s", b.Api.Self.UserName)

	for update := range updates {
		b.HandleUpdate(update)
	}
}

// RegisterWebhook points Telegram at our webhook endpoint.
func (b *Bot) RegisterWebhook(baseURL string) error {
	wh, err := tgbotapi.NewWebhook(baseURL + "/webhook/" + b.Api.Token)
	if err != nil {
		return err
	}
	_, err = b.Api.Request(wh)
	return err
}

// HandleUpdate dispatches one update. Messages from the same chat arrive in
// order from Telegram, which is what keeps the pending-action slot sane.
func (b *Bot) HandleUpdate(update tgbotapi.Update) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	switch {
	case update.CallbackQuery != nil:
		b.noteSeen(ctx, update.CallbackQuery.From)
		b.handleCallback(ctx, update.CallbackQuery)

	case update.Message == nil:
		return

	default:
		msg := update.Message
		if msg.From == nil {
			return
		}
		b.noteSeen(ctx, msg.From)

		switch {
		case msg.IsCommand():
			b.handleCommand(ctx, msg)
		case msg.Video != nil || msg.Document != nil:
			b.handleMedia(ctx, msg)
		case msg.Text != "":
			b.handleText(ctx, msg)
		}
	}
}

// noteSeen keeps the audit display name of admins fresh.
func (b *Bot) noteSeen(ctx context.Context, user *tgbotapi.User) {
	if user == nil {
		return
	}
	if err := b.service.NoteAdminSeen(ctx, user.ID, displayName(user)); err != nil {
		log.Printf("Error refreshing admin name for %d: %v", user.ID, err)
	}
}

func (b *Bot) send(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := b.Api.Send(msg); err != nil {
		log.Printf("Error sending message to %d: %v", chatID, err)
	}
}

func (b *Bot) shareLink(token string) string {
	return "https://t.me/" + b.Api.Self.UserName + "?start=" + token
}

func displayName(user *tgbotapi.User) string {
	if user.UserName != "" {
		return "@" + user.UserName
	}
	return user.FirstName
}
