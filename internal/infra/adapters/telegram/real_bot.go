package telegram

import (
	"context"
	"errors"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"telegram-ebook-relay/internal/config"
	"telegram-ebook-relay/internal/domain/model"
	"telegram-ebook-relay/internal/infra/logging"
	"telegram-ebook-relay/internal/infra/metrics"
	red "telegram-ebook-relay/internal/infra/redis"
	"telegram-ebook-relay/internal/infra/worker"
	"telegram-ebook-relay/internal/usecase"
)

// RateLimiter throttles uploads per user; nil disables limiting.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// RealTelegramBotAdapter polls tgbotapi for updates and hands documents to the relay.
type RealTelegramBotAdapter struct {
	bot        BotClient
	messenger  *Messenger
	relay      usecase.RelayUseCase
	translator usecase.Translator
	limiter    RateLimiter
	rateLimit  int
	pool       *worker.Pool
	log        *zerolog.Logger

	mu            sync.Mutex
	cancelPolling context.CancelFunc
}

// NewBotAPI logs in with the configured token.
func NewBotAPI(cfg *config.BotConfig) (*tgbotapi.BotAPI, error) {
	if cfg == nil {
		return nil, errors.New("bot config is nil")
	}
	bot, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, scrubError(err)
	}
	bot.Debug = cfg.Debug
	return bot, nil
}

func NewRealTelegramBotAdapter(
	cfg *config.BotConfig,
	bot BotClient,
	messenger *Messenger,
	relay usecase.RelayUseCase,
	translator usecase.Translator,
	limiter RateLimiter,
	logger *zerolog.Logger,
) (*RealTelegramBotAdapter, error) {
	switch {
	case cfg == nil:
		return nil, errors.New("bot config is nil")
	case bot == nil:
		return nil, errors.New("bot client is nil")
	case messenger == nil:
		return nil, errors.New("messenger is nil")
	case relay == nil:
		return nil, errors.New("relay is nil")
	case translator == nil:
		return nil, errors.New("translator is nil")
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	l := logger.With().Str("component", "TelegramAdapter").Logger()

	return &RealTelegramBotAdapter{
		bot:        bot,
		messenger:  messenger,
		relay:      relay,
		translator: translator,
		limiter:    limiter,
		rateLimit:  cfg.RateLimitPerMinute,
		pool:       worker.NewPool(cfg.Workers, &l),
		log:        &l,
	}, nil
}

// RegisterCommands publishes /start and /help to the Telegram menu.
func (r *RealTelegramBotAdapter) RegisterCommands(ctx context.Context) error {
	return r.messenger.SetCommands(ctx, r.menuCommands()...)
}

// StartPolling blocks until ctx is cancelled or StopPolling is called. It
// returns after in-flight updates have finished.
func (r *RealTelegramBotAdapter) StartPolling(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := r.bot.GetUpdatesChan(u)

	ctx, cancel := context.WithCancel(ctx)
	r.mu.Lock()
	r.cancelPolling = cancel
	r.mu.Unlock()
	defer cancel()

	r.pool.Start(ctx)
	defer r.pool.Stop()

	r.log.Info().Msg("telegram polling started")
	for {
		select {
		case <-ctx.Done():
			r.bot.StopReceivingUpdates()
			r.log.Info().Msg("telegram polling stopped")
			return ctx.Err()
		case up, ok := <-updates:
			if !ok {
				return nil
			}
			if err := r.pool.Submit(ctx, func(ctx context.Context) error {
				r.safeHandle(ctx, up)
				return nil
			}); err != nil {
				r.log.Warn().Err(err).Int("update_id", up.UpdateID).Msg("update dropped")
			}
		}
	}
}

func (r *RealTelegramBotAdapter) StopPolling() {
	r.mu.Lock()
	cancel := r.cancelPolling
	r.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// safeHandle is the last line of defence: any error or panic from an update
// handler is logged and answered with the fallback text.
func (r *RealTelegramBotAdapter) safeHandle(ctx context.Context, update tgbotapi.Update) {
	var chatID int64
	if update.Message != nil {
		chatID = chatIDOf(update.Message)
	}
	defer func() {
		if rec := recover(); rec != nil {
			metrics.IncHandlerPanic()
			r.log.Error().Interface("panic", rec).Int64("chat_id", chatID).Msg("update handler panicked")
			r.sendFallback(ctx, chatID)
		}
	}()

	if err := r.handleUpdate(ctx, update); err != nil {
		r.log.Error().Err(err).Int64("chat_id", chatID).Int("update_id", update.UpdateID).Msg("update handler failed")
		r.sendFallback(ctx, chatID)
	}
}

func (r *RealTelegramBotAdapter) sendFallback(ctx context.Context, chatID int64) {
	if chatID == 0 {
		return
	}
	if err := r.messenger.SendMessage(ctx, chatID, r.translator.T("error_fallback")); err != nil {
		r.log.Error().Err(err).Int64("chat_id", chatID).Msg("fallback reply failed")
	}
}

func (r *RealTelegramBotAdapter) handleUpdate(ctx context.Context, update tgbotapi.Update) error {
	msg := update.Message
	if msg == nil || msg.From == nil {
		return nil
	}
	ctx = logging.WithTgID(ctx, msg.From.ID)

	if msg.IsCommand() {
		if handler, ok := r.commandRoutes()[msg.Command()]; ok {
			metrics.IncTelegramCommand("/" + msg.Command())
			return handler(ctx, msg)
		}
		metrics.IncTelegramCommand("unknown_command")
	}

	if msg.Document != nil {
		metrics.IncTelegramCommand("document")
		if !r.allow(ctx, msg.From.ID) {
			metrics.IncRateLimitTriggered()
			return r.messenger.SendMessage(ctx, chatIDOf(msg), r.translator.T("error_rate_limited"))
		}
	} else if !msg.IsCommand() {
		metrics.IncTelegramCommand("message")
	}

	return r.relay.HandleDocument(ctx, documentEvent(msg))
}

// allow fails open when Redis is unavailable.
func (r *RealTelegramBotAdapter) allow(ctx context.Context, userID int64) bool {
	if r.limiter == nil || r.rateLimit <= 0 {
		return true
	}
	ok, err := r.limiter.Allow(ctx, red.UserCommandKey(userID, "document"), r.rateLimit, time.Minute)
	if err != nil {
		r.log.Warn().Err(err).Int64("tg_id", userID).Msg("rate limit check failed")
		return true
	}
	return ok
}

func documentEvent(msg *tgbotapi.Message) *model.DocumentEvent {
	ev := &model.DocumentEvent{
		ChatID:      chatIDOf(msg),
		RequesterID: msg.From.ID,
		Username:    msg.From.UserName,
	}
	if d := msg.Document; d != nil {
		ev.Document = &model.InboundDocument{
			FileID:   d.FileID,
			FileName: d.FileName,
			MimeType: d.MimeType,
			FileSize: d.FileSize,
		}
	}
	return ev
}

func chatIDOf(msg *tgbotapi.Message) int64 {
	if msg.Chat != nil {
		return msg.Chat.ID
	}
	if msg.From != nil {
		return msg.From.ID
	}
	return 0
}
