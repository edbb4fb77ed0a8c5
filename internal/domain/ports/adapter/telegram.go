// File: internal/domain/ports/adapter/telegram.go
package adapter

import (
	"context"
	"io"
)

// ChatAdapter is the outbound side of the chat platform.
type ChatAdapter interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
	// SendDocument streams r as an attachment named fileName with the given caption.
	SendDocument(ctx context.Context, chatID int64, fileName string, r io.Reader, caption string) error
}

// FileSource resolves platform file references to an authenticated download URL.
type FileSource interface {
	FileURL(ctx context.Context, fileID string) (string, error)
}
