// Package bot is the Telegram front-end: a photo sent to the bot goes through
// the listing pipeline and the draft is sent back as a reply.
package bot

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/raine/listing-generator/internal/pipeline"
	"github.com/raine/listing-generator/internal/storage"
	"github.com/rs/zerolog/log"
)

// BotAPI defines the interface for Telegram bot API operations.
type BotAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetFileDirectURL(fileID string) (string, error)
}

type Processor interface {
	Process(ctx context.Context, imagePath, filename string) *pipeline.Result
}

type ListingStore interface {
	ListListings() ([]storage.ListingSummary, error)
	Stats() (storage.Stats, error)
}

// Bot is the main Telegram bot handler.
type Bot struct {
	tg         BotAPI
	processor  Processor
	store      ListingStore
	downloader *ImageDownloader
	tmpDir     string
}

// NewBot creates a new Bot. Downloaded photos are staged in tmpDir, or the
// system temp dir when empty.
func NewBot(tg BotAPI, processor Processor, store ListingStore, tmpDir string) *Bot {
	if tmpDir == "" {
		tmpDir = os.TempDir()
	}
	return &Bot{
		tg:         tg,
		processor:  processor,
		store:      store,
		downloader: NewImageDownloader(),
		tmpDir:     tmpDir,
	}
}

// HandleUpdate is the main message router.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	message := update.Message
	if message == nil || message.From == nil {
		return
	}

	log.Info().
		Int64("userID", message.From.ID).
		Str("text", message.Text).
		Int("photos", len(message.Photo)).
		Msg("got message")

	if len(message.Photo) > 0 {
		b.handlePhoto(ctx, message)
		return
	}
	b.handleCommand(message)
}

func (b *Bot) handleCommand(message *tgbotapi.Message) {
	command, _ := parseCommand(message.Text)
	switch command {
	case "/start", "/help":
		b.reply(message.Chat.ID, MsgStartPrompt)
	case "/listings":
		b.handleListings(message.Chat.ID)
	case "/stats":
		b.handleStats(message.Chat.ID)
	default:
		b.reply(message.Chat.ID, MsgStartPrompt)
	}
}

func (b *Bot) handlePhoto(ctx context.Context, message *tgbotapi.Message) {
	chatID := message.Chat.ID
	// Telegram sends several sizes; the last one is the largest.
	photo := message.Photo[len(message.Photo)-1]

	data, err := b.downloader.DownloadFromTelegramFileID(ctx, b.tg.GetFileDirectURL, photo.FileID)
	if err != nil {
		log.Error().Err(err).Str("fileID", photo.FileID).Msg("failed to download photo")
		b.reply(chatID, MsgDownloadFailed)
		return
	}

	path := filepath.Join(b.tmpDir, "listing-"+uuid.NewString()+".jpg")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		log.Error().Err(err).Str("path", path).Msg("failed to stage photo")
		b.reply(chatID, fmt.Sprintf(MsgUnexpectedErr, err))
		return
	}
	defer func() {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			log.Warn().Err(err).Str("path", path).Msg("failed to remove staged photo")
		}
	}()

	b.reply(chatID, MsgAnalyzing)

	filename := "telegram-" + photo.FileUniqueID + ".jpg"
	res := b.processor.Process(ctx, path, filename)
	if !res.Success {
		b.reply(chatID, fmt.Sprintf(MsgGenerateFailed, res.Error))
		return
	}
	b.replyMarkdown(chatID, formatListingReply(res))
}

func (b *Bot) handleListings(chatID int64) {
	listings, err := b.store.ListListings()
	if err != nil {
		log.Error().Err(err).Msg("failed to list listings")
		b.reply(chatID, fmt.Sprintf(MsgUnexpectedErr, err))
		return
	}
	if len(listings) == 0 {
		b.reply(chatID, MsgNoListings)
		return
	}
	b.replyMarkdown(chatID, formatListingsReply(listings, maxListedDrafts))
}

func (b *Bot) handleStats(chatID int64) {
	stats, err := b.store.Stats()
	if err != nil {
		log.Error().Err(err).Msg("failed to get stats")
		b.reply(chatID, fmt.Sprintf(MsgUnexpectedErr, err))
		return
	}
	b.reply(chatID, formatStatsReply(stats))
}

func (b *Bot) reply(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.tg.Send(msg); err != nil {
		log.Error().Err(err).Int64("chatID", chatID).Msg("failed to send message")
	}
}

func (b *Bot) replyMarkdown(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.DisableWebPagePreview = true
	if _, err := b.tg.Send(msg); err != nil {
		log.Error().Err(err).Int64("chatID", chatID).Msg("failed to send message")
	}
}
