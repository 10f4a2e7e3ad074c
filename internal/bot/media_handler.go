package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"media.share/internal/access"
	"media.share/internal/metrics"
	"media.share/internal/share"
)

// handleMedia turns an uploaded video into a share link.
func (b *Bot) handleMedia(ctx context.Context, msg *tgbotapi.Message) {
	fileID, ok := videoFileID(msg)
	if !ok {
		allowed, err := b.service.Policy().Allows(ctx, msg.From.ID, access.OpUpload)
		if err != nil {
			log.Printf("Error checking upload permission for %d: %v", msg.From.ID, err)
			return
		}
		if allowed {
			b.send(msg.Chat.ID, "⚠️ Please send a *video* file.")
		} else {
			b.send(msg.Chat.ID, "❌ Only admins can upload videos.")
		}
		return
	}

	link, err := b.service.Upload(ctx, msg.From.ID, fileID, parseOptions(msg.Caption))
	if errors.Is(err, share.ErrForbidden) {
		b.send(msg.Chat.ID, "❌ Only admins can upload videos.")
		return
	}
	if err != nil {
		log.Printf("Error saving link: %v", err)
		b.send(msg.Chat.ID, "❌ Could not save link (DB error).")
		return
	}
	metrics.LinksCreated.Inc()

	var sb strings.Builder
	if link.SingleUse {
		sb.WriteString("✅ *Single-use link generated:*\n")
	} else {
		sb.WriteString("✅ *Permanent link generated:*\n")
	}
	sb.WriteString(b.shareLink(link.Token))
	if !link.ExpiresAt.IsZero() {
		sb.WriteString(fmt.Sprintf("\n⏳ Expires: %s", link.ExpiresAt.Format("2006-01-02 15:04 MST")))
	}
	sb.WriteString("\n\nUse /listlinks to see all links.")
	b.send(msg.Chat.ID, sb.String())
}

// videoFileID accepts native videos and video documents, like the upload
// rules users already know from similar bots.
func videoFileID(msg *tgbotapi.Message) (string, bool) {
	if msg.Video != nil {
		return msg.Video.FileID, true
	}
	if msg.Document != nil && strings.HasPrefix(msg.Document.MimeType, "video/") {
		return msg.Document.FileID, true
	}
	return "", false
}

// parseOptions reads link options from the media caption: `once` marks the
// link single-use, any parsable duration (`48h`, `30m`) sets an expiry.
// Unrecognized words are ignored.
func parseOptions(caption string) share.Options {
	var opts share.Options
	for _, field := range strings.Fields(strings.ToLower(caption)) {
		switch {
		case field == "once" || field == "single":
			opts.SingleUse = true
		default:
			if d, err := time.ParseDuration(field); err == nil && d > 0 {
				opts.TTL = d
			}
		}
	}
	return opts
}
