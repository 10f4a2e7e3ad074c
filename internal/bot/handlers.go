package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"media.share/internal/access"
	"media.share/internal/metrics"
	"media.share/internal/models"
	"media.share/internal/share"
	"media.share/internal/store"
)

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	switch msg.Command() {
	case "start":
		b.handleStart(ctx, msg)
	case "help":
		b.handleHelp(ctx, msg)
	case "admin":
		b.handleAdminPanel(msg)
	case "addadmin":
		b.handleAddAdmin(ctx, msg)
	case "removeadmin":
		b.handleRemoveAdmin(ctx, msg)
	case "listadmins":
		b.handleListAdmins(ctx, msg)
	case "listlinks":
		b.handleListLinks(ctx, msg)
	case "deletelink":
		b.handleDeleteLink(ctx, msg)
	default:
		b.send(msg.Chat.ID, "Unknown command 🤔 Use /help.")
	}
}

// handleStart greets, or resolves a deep-link payload into the video.
func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) {
	payload := strings.TrimSpace(msg.CommandArguments())
	if payload != "" {
		b.resolveAndSend(ctx, msg.Chat.ID, payload)
		return
	}

	role, err := b.service.Policy().Role(ctx, msg.From.ID)
	if err != nil {
		log.Printf("Error resolving role for %d: %v", msg.From.ID, err)
		role = access.RoleRegular
	}

	if role == access.RoleOwner || role == access.RoleAdmin {
		b.send(msg.Chat.ID, "👋 *Hello Admin!* Send a video to generate a permanent link.\nUse /help for commands.")
		return
	}
	b.send(msg.Chat.ID, "👋 Hello! I am *Media Sharing Bot*.\nSend a valid link to receive the video.")
}

// resolveAndSend hands the video behind a token to the chat. Expired and
// consumed tokens deliberately look exactly like unknown ones.
func (b *Bot) resolveAndSend(ctx context.Context, chatID int64, token string) {
	fileID, err := b.service.Resolve(ctx, token)
	switch {
	case err == nil:
		metrics.RecordResolution(metrics.OutcomeOK)
	case errors.Is(err, store.ErrExpired):
		metrics.RecordResolution(metrics.OutcomeExpired)
	case errors.Is(err, store.ErrConsumed):
		metrics.RecordResolution(metrics.OutcomeConsumed)
	case errors.Is(err, store.ErrNotFound):
		metrics.RecordResolution(metrics.OutcomeNotFound)
	default:
		metrics.RecordResolution(metrics.OutcomeError)
		log.Printf("Error resolving token: %v", err)
	}
	if err != nil {
		b.send(chatID, "❌ Invalid link.")
		return
	}

	action := tgbotapi.NewChatAction(chatID, tgbotapi.ChatUploadVideo)
	if _, err := b.Api.Request(action); err != nil {
		log.Printf("Error sending chat action: %v", err)
	}

	video := tgbotapi.NewVideo(chatID, tgbotapi.FileID(fileID))
	if _, err := b.Api.Send(video); err != nil {
		log.Printf("Error sending video: %v", err)
		b.send(chatID, "❌ Could not deliver the video, please try again.")
	}
}

func (b *Bot) handleHelp(ctx context.Context, msg *tgbotapi.Message) {
	role, err := b.service.Policy().Role(ctx, msg.From.ID)
	if err != nil {
		log.Printf("Error resolving role for %d: %v", msg.From.ID, err)
		role = access.RoleRegular
	}

	if role == access.RoleRegular {
		b.send(msg.Chat.ID, "👋 Only admins can upload videos. Use a valid link to receive a video.")
		return
	}

	help := "👑 *Admin Commands*\n" +
		"/start – Greet\n" +
		"/admin – Open the admin panel\n" +
		"/addadmin `<user_id>` – Add admin (owner only)\n" +
		"/removeadmin `<user_id>` – Remove admin (owner only, not self)\n" +
		"/listadmins – List admins\n" +
		"/listlinks – Show all active links\n" +
		"/deletelink `<token>` – Destroy a link\n" +
		"➕ Send a *video* to generate a permanent link\n" +
		"Caption `once` makes the link single-use, a duration like `48h` sets an expiry."
	b.send(msg.Chat.ID, help)
}

// handleAdminPanel shows the keyboard that starts the multi-step flows.
// Permission is enforced when a button is pressed, not here.
func (b *Bot) handleAdminPanel(msg *tgbotapi.Message) {
	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("➕ Add admin", "pending:add_admin"),
			tgbotapi.NewInlineKeyboardButtonData("➖ Remove admin", "pending:remove_admin"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🗑 Delete link", "pending:delete_link"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🎬 List links", "links:list"),
			tgbotapi.NewInlineKeyboardButtonData("👑 List admins", "admins:list"),
		),
	)

	reply := tgbotapi.NewMessage(msg.Chat.ID, "⚙️ *Admin panel*")
	reply.ParseMode = tgbotapi.ModeMarkdown
	reply.ReplyMarkup = keyboard
	if _, err := b.Api.Send(reply); err != nil {
		log.Printf("Error sending admin panel: %v", err)
	}
}

func (b *Bot) handleAddAdmin(ctx context.Context, msg *tgbotapi.Message) {
	args := strings.TrimSpace(msg.CommandArguments())
	if args == "" {
		b.beginPending(ctx, msg.Chat.ID, msg.From.ID, models.PendingAddAdmin)
		return
	}

	targetID, err := strconv.ParseInt(args, 10, 64)
	if err != nil {
		b.send(msg.Chat.ID, "❌ Invalid user_id.")
		return
	}

	added, err := b.service.AddAdmin(ctx, msg.From.ID, targetID, "")
	b.send(msg.Chat.ID, b.addAdminReply(targetID, added, err))
}

func (b *Bot) handleRemoveAdmin(ctx context.Context, msg *tgbotapi.Message) {
	args := strings.TrimSpace(msg.CommandArguments())
	if args == "" {
		b.beginPending(ctx, msg.Chat.ID, msg.From.ID, models.PendingRemoveAdmin)
		return
	}

	targetID, err := strconv.ParseInt(args, 10, 64)
	if err != nil {
		b.send(msg.Chat.ID, "❌ Invalid user_id.")
		return
	}

	removed, err := b.service.RemoveAdmin(ctx, msg.From.ID, targetID)
	b.send(msg.Chat.ID, b.removeAdminReply(msg.From.ID, targetID, removed, err))
}

func (b *Bot) handleListAdmins(ctx context.Context, msg *tgbotapi.Message) {
	b.sendAdminList(ctx, msg.Chat.ID, msg.From.ID)
}

func (b *Bot) handleListLinks(ctx context.Context, msg *tgbotapi.Message) {
	b.sendLinkList(ctx, msg.Chat.ID, msg.From.ID)
}

func (b *Bot) handleDeleteLink(ctx context.Context, msg *tgbotapi.Message) {
	args := strings.TrimSpace(msg.CommandArguments())
	if args == "" {
		b.beginPending(ctx, msg.Chat.ID, msg.From.ID, models.PendingDeleteLink)
		return
	}

	deleted, err := b.service.Destroy(ctx, msg.From.ID, args)
	b.send(msg.Chat.ID, b.deleteLinkReply(args, deleted, err))
}

// Shared renderers

func (b *Bot) sendAdminList(ctx context.Context, chatID, actorID int64) {
	admins, err := b.service.ListAdmins(ctx, actorID)
	if errors.Is(err, share.ErrForbidden) {
		b.send(chatID, "❌ Only admins can view admins.")
		return
	}
	if err != nil {
		log.Printf("Error listing admins: %v", err)
		b.send(chatID, "❌ Could not load admins (DB error).")
		return
	}

	lines := []string{"👑 *Current Admins:*"}
	lines = append(lines, fmt.Sprintf("- `%d` (owner)", b.service.Policy().OwnerID()))
	for _, admin := range admins {
		name := admin.DisplayName
		if name == "" {
			name = "N/A"
		}
		lines = append(lines, fmt.Sprintf("- `%d` %s", admin.UserID, name))
	}
	b.send(chatID, strings.Join(lines, "\n"))
}

func (b *Bot) sendLinkList(ctx context.Context, chatID, actorID int64) {
	summaries, err := b.service.ListLinks(ctx, actorID)
	if errors.Is(err, share.ErrForbidden) {
		b.send(chatID, "❌ Only admins can view links.")
		return
	}
	if err != nil {
		log.Printf("Error listing links: %v", err)
		b.send(chatID, "❌ Could not load links (DB error).")
		return
	}

	if len(summaries) == 0 {
		b.send(chatID, "ℹ️ No active links.")
		return
	}

	lines := []string{"🎬 *Active Links:*"}
	for _, s := range summaries {
		lines = append(lines, fmt.Sprintf("- `%s` → %s  _%s_",
			s.Token, b.shareLink(s.Token), s.CreatedAt.Format("2006-01-02 15:04")))
	}
	b.send(chatID, strings.Join(lines, "\n"))
}

// Reply texts shared between inline commands and pending-action replies.

func (b *Bot) addAdminReply(targetID int64, added bool, err error) string {
	switch {
	case errors.Is(err, share.ErrForbidden):
		return "❌ Only the owner can add admins."
	case err != nil:
		log.Printf("Error adding admin %d: %v", targetID, err)
		return "❌ Could not update admins (DB error)."
	case !added:
		return "ℹ️ Already an admin."
	default:
		return fmt.Sprintf("✅ Added admin: `%d`", targetID)
	}
}

func (b *Bot) removeAdminReply(actorID, targetID int64, removed bool, err error) string {
	switch {
	case errors.Is(err, share.ErrForbidden):
		if targetID == actorID {
			return "⚠️ You cannot remove yourself."
		}
		if targetID == b.service.Policy().OwnerID() {
			return "⚠️ The owner cannot be removed."
		}
		return "❌ Only the owner can remove admins."
	case err != nil:
		log.Printf("Error removing admin %d: %v", targetID, err)
		return "❌ Could not update admins (DB error)."
	case !removed:
		return "ℹ️ Not an admin."
	default:
		return fmt.Sprintf("✅ Removed admin: `%d`", targetID)
	}
}

func (b *Bot) deleteLinkReply(token string, deleted bool, err error) string {
	switch {
	case errors.Is(err, share.ErrForbidden):
		return "❌ Only admins can delete links."
	case err != nil:
		log.Printf("Error deleting link: %v", err)
		return "❌ Delete failed (DB error)."
	case !deleted:
		return "❌ Invalid token."
	default:
		metrics.LinksDestroyed.Inc()
		return fmt.Sprintf("✅ Link `%s` deleted permanently.", token)
	}
}
