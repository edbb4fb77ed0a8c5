package telegram

import (
	"context"
	"errors"
	"io"
	"net/url"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"telegram-ebook-relay/internal/domain/ports/adapter"
)

// BotClient is the subset of *tgbotapi.BotAPI the adapter uses.
type BotClient interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetFileDirectURL(fileID string) (string, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

var (
	_ BotClient           = (*tgbotapi.BotAPI)(nil)
	_ adapter.ChatAdapter = (*Messenger)(nil)
	_ adapter.FileSource  = (*Messenger)(nil)
)

// Messenger is the outbound half of the bot: replies, documents and file lookups.
type Messenger struct {
	bot BotClient
	log *zerolog.Logger
}

func NewMessenger(bot BotClient, logger *zerolog.Logger) (*Messenger, error) {
	if bot == nil {
		return nil, errors.New("bot client is nil")
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	l := logger.With().Str("component", "TelegramMessenger").Logger()
	return &Messenger{bot: bot, log: &l}, nil
}

func (m *Messenger) SendMessage(ctx context.Context, chatID int64, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(chatID, text)
	_, err := m.bot.Send(msg)
	return scrubError(err)
}

// SendDocument uploads r as a multipart document; tgbotapi streams it without buffering.
func (m *Messenger) SendDocument(ctx context.Context, chatID int64, fileName string, r io.Reader, caption string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileReader{Name: fileName, Reader: r})
	doc.Caption = caption
	_, err := m.bot.Send(doc)
	return scrubError(err)
}

// FileURL resolves a file id through getFile. The URL carries the bot token.
func (m *Messenger) FileURL(ctx context.Context, fileID string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	u, err := m.bot.GetFileDirectURL(fileID)
	if err != nil {
		return "", scrubError(err)
	}
	return u, nil
}

// SetCommands publishes the command menu shown by Telegram clients.
func (m *Messenger) SetCommands(ctx context.Context, cmds ...tgbotapi.BotCommand) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := m.bot.Request(tgbotapi.NewSetMyCommands(cmds...))
	return scrubError(err)
}

// scrubError drops the request URL from transport errors. Bot API URLs carry
// the token in their path (/bot<token>/<method>).
func scrubError(err error) error {
	var ue *url.Error
	if !errors.As(err, &ue) {
		return err
	}
	return &url.Error{Op: ue.Op, URL: redactURL(ue.URL), Err: ue.Err}
}

func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "[redacted]"
	}
	return u.Scheme + "://" + u.Host + "/[redacted]"
}
