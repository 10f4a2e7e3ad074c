package bot

import (
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"media.share/internal/share"
)

func TestParseOptions(t *testing.T) {
	tests := []struct {
		caption string
		want    share.Options
	}{
		{"", share.Options{}},
		{"once", share.Options{SingleUse: true}},
		{"single", share.Options{SingleUse: true}},
		{"48h", share.Options{TTL: 48 * time.Hour}},
		{"once 30m", share.Options{SingleUse: true, TTL: 30 * time.Minute}},
		{"ONCE 2H", share.Options{SingleUse: true, TTL: 2 * time.Hour}},
		{"my vacation video", share.Options{}},
		{"-5m", share.Options{}},
		{"once please", share.Options{SingleUse: true}},
	}
	for _, tt := range tests {
		if got := parseOptions(tt.caption); got != tt.want {
			t.Errorf("parseOptions(%q) = %+v, want %+v", tt.caption, got, tt.want)
		}
	}
}

func TestVideoFileID(t *testing.T) {
	video := &tgbotapi.Message{Video: &tgbotapi.Video{FileID: "vid-1"}}
	if id, ok := videoFileID(video); !ok || id != "vid-1" {
		t.Errorf("videoFileID(video) = (%q, %v), want (vid-1, true)", id, ok)
	}

	doc := &tgbotapi.Message{Document: &tgbotapi.Document{FileID: "doc-1", MimeType: "video/mp4"}}
	if id, ok := videoFileID(doc); !ok || id != "doc-1" {
		t.Errorf("videoFileID(video document) = (%q, %v), want (doc-1, true)", id, ok)
	}

	pdf := &tgbotapi.Message{Document: &tgbotapi.Document{FileID: "doc-2", MimeType: "application/pdf"}}
	if _, ok := videoFileID(pdf); ok {
		t.Error("videoFileID(pdf document) = true, want false")
	}

	text := &tgbotapi.Message{Text: "hello"}
	if _, ok := videoFileID(text); ok {
		t.Error("videoFileID(text) = true, want false")
	}
}
