package bot

import (
	"context"
	"errors"
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"media.share/internal/models"
	"media.share/internal/share"
)

var pendingPrompts = map[models.PendingKind]string{
	models.PendingAddAdmin:    "Send the user id to add as admin.",
	models.PendingRemoveAdmin: "Send the user id to remove from admins.",
	models.PendingDeleteLink:  "Send the token of the link to delete.",
}

// handleCallback reacts to admin panel buttons.
func (b *Bot) handleCallback(ctx context.Context, query *tgbotapi.CallbackQuery) {
	// Stop the button spinner regardless of outcome.
	if _, err := b.Api.Request(tgbotapi.NewCallback(query.ID, "")); err != nil {
		log.Printf("Error answering callback: %v", err)
	}

	chatID := query.Message.Chat.ID
	actorID := query.From.ID

	switch query.Data {
	case "pending:add_admin":
		b.beginPending(ctx, chatID, actorID, models.PendingAddAdmin)
	case "pending:remove_admin":
		b.beginPending(ctx, chatID, actorID, models.PendingRemoveAdmin)
	case "pending:delete_link":
		b.beginPending(ctx, chatID, actorID, models.PendingDeleteLink)
	case "links:list":
		b.sendLinkList(ctx, chatID, actorID)
	case "admins:list":
		b.sendAdminList(ctx, chatID, actorID)
	default:
		log.Printf("Unknown callback data: %q", query.Data)
	}
}

// beginPending opens a flow and prompts for the follow-up reply.
func (b *Bot) beginPending(ctx context.Context, chatID, actorID int64, kind models.PendingKind) {
	err := b.service.BeginPending(ctx, actorID, kind)
	if errors.Is(err, share.ErrForbidden) {
		switch kind {
		case models.PendingDeleteLink:
			b.send(chatID, "❌ Only admins can delete links.")
		default:
			b.send(chatID, "❌ Only the owner can manage admins.")
		}
		return
	}
	if err != nil {
		log.Printf("Error starting %s flow for %d: %v", kind, actorID, err)
		b.send(chatID, "❌ Something went wrong, please try again.")
		return
	}

	b.send(chatID, "✏️ "+pendingPrompts[kind])
}

// handleText interprets free text as the reply to an open flow. Text from
// actors with no open flow is ignored, like any other chatter.
func (b *Bot) handleText(ctx context.Context, msg *tgbotapi.Message) {
	outcome, err := b.service.ResolvePending(ctx, msg.From.ID, msg.Text)
	if outcome == nil && err == nil {
		return
	}
	if outcome == nil {
		log.Printf("Error resolving pending action for %d: %v", msg.From.ID, err)
		b.send(msg.Chat.ID, "❌ Something went wrong, please try again.")
		return
	}

	if errors.Is(err, share.ErrInvalidInput) {
		// The slot is already cleared; the actor has to start over.
		switch outcome.Kind {
		case models.PendingDeleteLink:
			b.send(msg.Chat.ID, "❌ Invalid token. Use /deletelink to try again.")
		default:
			b.send(msg.Chat.ID, "❌ Invalid user_id. Use /admin to try again.")
		}
		return
	}

	switch outcome.Kind {
	case models.PendingAddAdmin:
		b.send(msg.Chat.ID, b.addAdminReply(outcome.TargetID, outcome.Done, err))
	case models.PendingRemoveAdmin:
		b.send(msg.Chat.ID, b.removeAdminReply(msg.From.ID, outcome.TargetID, outcome.Done, err))
	case models.PendingDeleteLink:
		b.send(msg.Chat.ID, b.deleteLinkReply(outcome.Token, outcome.Done, err))
	}
}
