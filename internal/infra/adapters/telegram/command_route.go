package telegram

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// MessageKeys are the locale keys the adapter renders.
var MessageKeys = []string{
	"welcome_message",
	"help_message",
	"command_start_desc",
	"command_help_desc",
	"error_rate_limited",
	"error_fallback",
}

type commandHandler func(ctx context.Context, message *tgbotapi.Message) error

// commandRoutes defines all available bot commands and their handlers.
func (r *RealTelegramBotAdapter) commandRoutes() map[string]commandHandler {
	return map[string]commandHandler{
		"start": r.handleStartCommand,
		"help":  r.handleHelpCommand,
	}
}

// menuCommands is the list published with setMyCommands at startup.
func (r *RealTelegramBotAdapter) menuCommands() []tgbotapi.BotCommand {
	return []tgbotapi.BotCommand{
		{Command: "start", Description: r.translator.T("command_start_desc")},
		{Command: "help", Description: r.translator.T("command_help_desc")},
	}
}

// handleStartCommand announces what the bot converts.
func (r *RealTelegramBotAdapter) handleStartCommand(ctx context.Context, message *tgbotapi.Message) error {
	return r.messenger.SendMessage(ctx, chatIDOf(message), r.translator.T("welcome_message"))
}

// handleHelpCommand explains how to use the bot.
func (r *RealTelegramBotAdapter) handleHelpCommand(ctx context.Context, message *tgbotapi.Message) error {
	return r.messenger.SendMessage(ctx, chatIDOf(message), r.translator.T("help_message"))
}
