package usecase_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"

	"telegram-ebook-relay/internal/domain/model"
	"telegram-ebook-relay/internal/domain/ports/adapter"
	"telegram-ebook-relay/internal/infra/i18n"

	"github.com/rs/zerolog"
)

// ---- Mock ChatAdapter ----

type sentDocument struct {
	ChatID   int64
	FileName string
	Caption  string
	Body     []byte
}

type MockChat struct {
	mu        sync.Mutex
	Messages  []string
	Documents []sentDocument

	// SendDocumentFunc overrides the default recorder when set.
	SendDocumentFunc func(ctx context.Context, chatID int64, fileName string, r io.Reader, caption string) error
	SendMessageErr   error
}

var _ adapter.ChatAdapter = (*MockChat)(nil)

func (m *MockChat) SendMessage(ctx context.Context, chatID int64, text string) error {
	if m.SendMessageErr != nil {
		return m.SendMessageErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Messages = append(m.Messages, text)
	return nil
}

func (m *MockChat) SendDocument(ctx context.Context, chatID int64, fileName string, r io.Reader, caption string) error {
	if m.SendDocumentFunc != nil {
		return m.SendDocumentFunc(ctx, chatID, fileName, r, caption)
	}
	body, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Documents = append(m.Documents, sentDocument{ChatID: chatID, FileName: fileName, Caption: caption, Body: body})
	return nil
}

// ---- Mock FileSource ----

type MockFiles struct {
	URL   string
	Err   error
	Calls int
}

var _ adapter.FileSource = (*MockFiles)(nil)

func (m *MockFiles) FileURL(ctx context.Context, fileID string) (string, error) {
	m.Calls++
	if m.Err != nil {
		return "", m.Err
	}
	return m.URL, nil
}

// ---- Mock ConversionService ----

type MockConverter struct {
	mu sync.Mutex

	ConvertFunc func(ctx context.Context, fileName string, data []byte, userID int64) (*model.ConversionResult, error)
	// Artifacts maps artifact name to body; names missing here fail to download.
	Artifacts map[string]string

	ConvertCalls  int
	DownloadCalls []string
}

var _ adapter.ConversionService = (*MockConverter)(nil)

func (m *MockConverter) Convert(ctx context.Context, fileName string, data []byte, userID int64) (*model.ConversionResult, error) {
	m.mu.Lock()
	m.ConvertCalls++
	m.mu.Unlock()
	if m.ConvertFunc != nil {
		return m.ConvertFunc(ctx, fileName, data, userID)
	}
	return &model.ConversionResult{}, nil
}

func (m *MockConverter) Download(ctx context.Context, userID int64, artifactName string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DownloadCalls = append(m.DownloadCalls, artifactName)
	body, ok := m.Artifacts[artifactName]
	if !ok {
		return nil, errors.New("artifact not found")
	}
	return io.NopCloser(bytes.NewReader([]byte(body))), nil
}

func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

func newTestTranslator() *i18n.Translator {
	tr, err := i18n.NewTranslator(i18n.LocalesFS, "en")
	if err != nil {
		panic(err)
	}
	return tr
}
