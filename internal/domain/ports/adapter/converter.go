package adapter

import (
	"context"
	"io"

	"telegram-ebook-relay/internal/domain/model"
)

// ConversionService is the external ebook conversion backend.
type ConversionService interface {
	// Convert uploads the source file and returns the per-format outcome list.
	Convert(ctx context.Context, fileName string, data []byte, userID int64) (*model.ConversionResult, error)
	// Download opens a stream on one converted artifact. Callers close it.
	Download(ctx context.Context, userID int64, artifactName string) (io.ReadCloser, error)
}
