// Package telegram provides Telegram bot integration
package telegram

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/kusandriadi/relaybot/internal/router"
)

// Bot represents a Telegram bot
type Bot struct {
	api            *tgbotapi.BotAPI
	handler        router.MessageHandler
	handlerMu      sync.RWMutex
	logger         *slog.Logger
	downloadsDir   string
	updates        tgbotapi.UpdatesChannel
	done           chan struct{}
	wg             sync.WaitGroup
	threadCreated  ThreadCreatedFunc
	threadCreateMu sync.RWMutex
}

// ThreadCreatedFunc is invoked when a forum topic is opened inside a group
// this bot is in. parentChannelID/childChannelID are "telegram:<chatId>" and
// "telegram:<chatId>:<threadId>" respectively; the callee is responsible for
// resolving the fork point in its own message-id space.
type ThreadCreatedFunc func(parentChannelID, childChannelID string)

// Config for Telegram bot
type Config struct {
	Token        string
	DownloadsDir string // Directory to save downloaded media
	Logger       *slog.Logger
}

// New creates a new Telegram bot
func New(cfg *Config) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("create bot: %w", err)
	}

	// Security: disable debug mode
	api.Debug = false

	downloadsDir := cfg.DownloadsDir
	if downloadsDir != "" {
		os.MkdirAll(downloadsDir, 0700)
	}

	return &Bot{
		api:          api,
		logger:       cfg.Logger,
		downloadsDir: downloadsDir,
		done:         make(chan struct{}),
	}, nil
}

// Name returns the platform name
func (b *Bot) Name() string {
	return "telegram"
}

// Start starts listening for updates (long polling)
func (b *Bot) Start(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	b.updates = b.api.GetUpdatesChan(u)

	b.wg.Add(1)
	go b.processUpdates(ctx)

	b.logger.Info("telegram bot started", "username", b.api.Self.UserName)
	return nil
}

// Stop stops the bot
func (b *Bot) Stop() error {
	close(b.done)
	b.api.StopReceivingUpdates()
	b.wg.Wait()
	return nil
}

// Send sends a message. chatID is either a plain chat id or a
// "<chatId>:<threadId>" pair (the form handleUpdate uses for forum topic
// messages), in which case the reply is routed back into that topic.
func (b *Bot) Send(chatID, message string) error {
	chatIDInt, threadID, err := parseChatID(chatID)
	if err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(chatIDInt, message)
	msg.ParseMode = "Markdown"
	if threadID != 0 {
		msg.MessageThreadID = threadID
	}

	_, err = b.api.Send(msg)
	return err
}

func parseChatID(chatID string) (id int64, threadID int, err error) {
	parts := strings.SplitN(chatID, ":", 2)
	if _, err = fmt.Sscanf(parts[0], "%d", &id); err != nil {
		return 0, 0, fmt.Errorf("invalid chat ID: %s", chatID)
	}
	if len(parts) == 2 {
		fmt.Sscanf(parts[1], "%d", &threadID)
	}
	return id, threadID, nil
}

// SetThreadCreatedHandler registers the callback fired when a forum topic is
// opened in a group this bot is in.
func (b *Bot) SetThreadCreatedHandler(fn ThreadCreatedFunc) {
	b.threadCreateMu.Lock()
	b.threadCreated = fn
	b.threadCreateMu.Unlock()
}

// SetHandler sets the message handler
func (b *Bot) SetHandler(h router.MessageHandler) {
	b.handlerMu.Lock()
	b.handler = h
	b.handlerMu.Unlock()
}

// processUpdates processes incoming updates
func (b *Bot) processUpdates(ctx context.Context) {
	defer b.wg.Done()

	for {
		select {
		case <-b.done:
			return
		case <-ctx.Done():
			return
		case update := <-b.updates:
			if update.Message == nil {
				continue
			}
			b.handleUpdate(ctx, &update)
		}
	}
}

// handleUpdate handles a single update
func (b *Bot) handleUpdate(ctx context.Context, update *tgbotapi.Update) {
	msg := update.Message
	if msg == nil {
		return
	}

	if msg.ForumTopicCreated != nil {
		b.handleForumTopicCreated(msg)
		return
	}

	text := msg.Text
	var media []string

	// Handle photo messages
	if msg.Photo != nil && len(msg.Photo) > 0 {
		// Get the largest photo (last in array)
		photo := msg.Photo[len(msg.Photo)-1]
		if path, err := b.downloadFile(photo.FileID, "photo"); err == nil {
			media = append(media, path)
		} else {
			b.logger.Warn("download photo failed", "error", err)
		}
		if msg.Caption != "" {
			text = msg.Caption
		} else if text == "" {
			text = "[Photo]"
		}
	}

	// Handle voice messages
	if msg.Voice != nil {
		if text == "" {
			text = "[Voice Message]"
		}
	}

	// Handle audio messages
	if msg.Audio != nil {
		if text == "" {
			text = "[Audio Message]"
		}
	}

	// Handle document messages
	if msg.Document != nil {
		if msg.Caption != "" {
			text = msg.Caption
		} else if text == "" {
			text = fmt.Sprintf("[Document: %s]", msg.Document.FileName)
		}
	}

	// Skip if no text content at all
	if text == "" {
		return
	}

	chatID := fmt.Sprintf("%d", msg.Chat.ID)
	if msg.IsTopicMessage && msg.MessageThreadID != 0 {
		chatID = fmt.Sprintf("%d:%d", msg.Chat.ID, msg.MessageThreadID)
	}

	routerMsg := &router.Message{
		Platform:  "telegram",
		ChatID:    chatID,
		UserID:    fmt.Sprintf("%d", msg.From.ID),
		Username:  msg.From.UserName,
		Text:      text,
		Media:     media,
		Timestamp: time.Unix(int64(msg.Date), 0),
		Raw:       update,
	}

	b.handlerMu.RLock()
	handler := b.handler
	b.handlerMu.RUnlock()

	if handler == nil {
		return
	}

	response, err := handler(ctx, routerMsg)
	if err != nil {
		b.logger.Warn("handler error", "error", err)
		return
	}

	if response == "" {
		return
	}

	reply := tgbotapi.NewMessage(msg.Chat.ID, response)
	reply.ParseMode = "Markdown"
	reply.ReplyToMessageID = msg.MessageID
	if msg.IsTopicMessage && msg.MessageThreadID != 0 {
		reply.MessageThreadID = msg.MessageThreadID
	}

	if _, err := b.api.Send(reply); err != nil {
		b.logger.Error("send failed", "error", err)
	}
}

// handleForumTopicCreated fires the ThreadCreatedFunc callback when a forum
// topic is opened, naming the parent group channel and the new topic
// channel; the callee resolves the actual fork point.
func (b *Bot) handleForumTopicCreated(msg *tgbotapi.Message) {
	b.threadCreateMu.RLock()
	fn := b.threadCreated
	b.threadCreateMu.RUnlock()
	if fn == nil {
		return
	}

	parent := fmt.Sprintf("telegram:%d", msg.Chat.ID)
	child := fmt.Sprintf("telegram:%d:%d", msg.Chat.ID, msg.MessageThreadID)
	fn(parent, child)
}

// maxDownloadSize is the maximum file size for Telegram downloads (20MB matches Telegram's limit)
const maxDownloadSize = 20 * 1024 * 1024

// allowedMediaExts is the whitelist of allowed media file extensions
var allowedMediaExts = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true, ".bmp": true,
	".mp4": true, ".webm": true, ".mov": true,
	".ogg": true, ".oga": true, ".mp3": true, ".m4a": true, ".wav": true,
	".pdf": true, ".txt": true,
}

// downloadFile downloads a file from Telegram and saves it locally
func (b *Bot) downloadFile(fileID, prefix string) (string, error) {
	if b.downloadsDir == "" {
		return "", fmt.Errorf("downloads dir not configured")
	}

	file, err := b.api.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return "", fmt.Errorf("get file: %w", err)
	}

	// Build download URL (token is embedded by Telegram API â€” use dedicated client, never log this URL)
	fileURL := file.Link(b.api.Token)

	client := &http.Client{Timeout: 60 * time.Second}
	resp, err := client.Get(fileURL)
	if err != nil {
		return "", fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download failed: HTTP %d", resp.StatusCode)
	}

	// Validate and sanitize file extension
	ext := filepath.Ext(file.FilePath)
	if ext == "" {
		ext = ".jpg"
	}
	if !allowedMediaExts[ext] {
		ext = ".bin"
	}

	filename := fmt.Sprintf("%s_%d%s", prefix, time.Now().UnixNano(), ext)
	localPath := filepath.Join(b.downloadsDir, filename)

	// Create file with restricted permissions (0600 = owner read/write only)
	out, err := os.OpenFile(localPath, os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}
	defer out.Close()

	// Limit download size to prevent disk exhaustion
	limited := io.LimitReader(resp.Body, maxDownloadSize)
	if _, err := io.Copy(out, limited); err != nil {
		os.Remove(localPath)
		return "", fmt.Errorf("save file: %w", err)
	}

	return localPath, nil
}

// GetBotInfo returns bot information
func (b *Bot) GetBotInfo() *tgbotapi.User {
	return &b.api.Self
}
