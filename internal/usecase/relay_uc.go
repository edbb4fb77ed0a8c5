// File: internal/usecase/relay_uc.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"telegram-ebook-relay/internal/domain"
	"telegram-ebook-relay/internal/domain/model"
	"telegram-ebook-relay/internal/domain/ports/adapter"
	"telegram-ebook-relay/internal/infra/logging"
	"telegram-ebook-relay/internal/infra/metrics"

	"github.com/rs/zerolog"
)

// Compile-time check
var _ RelayUseCase = (*relayUC)(nil)

// DefaultMaxFileBytes matches the Bot API download cap.
const DefaultMaxFileBytes int64 = 20 << 20

// RelayUseCase bridges one chat document upload to the conversion service and back.
type RelayUseCase interface {
	// HandleDocument runs the whole pipeline for one event. Failures that were
	// answered with a reply are logged and swallowed; a non-nil error means the
	// user could not be told about the outcome.
	HandleDocument(ctx context.Context, ev *model.DocumentEvent) error
	DownloadInbound(ctx context.Context, fileID string) ([]byte, error)
	SubmitForConversion(ctx context.Context, data []byte, fileName string, requesterID int64) (*model.ConversionResult, error)
	FetchConvertedArtifacts(ctx context.Context, chatID int64, result *model.ConversionResult, requesterID int64) []model.ArtifactOutcome
}

// MessageKeys are the locale keys the relay renders.
var MessageKeys = []string{
	"prompt_send_file",
	"error_unsupported_format",
	"error_generic",
	"error_conversion_failed",
	"artifact_caption",
	"error_artifact_failed",
}

// Translator renders user-facing texts.
type Translator interface {
	T(key string, args ...interface{}) string
}

// HTTPDoer is satisfied by *http.Client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type RelayOptions struct {
	// SupportedExtensions gates uploads by extension; empty accepts everything.
	SupportedExtensions []string
	MaxFileBytes        int64
	// Dev logs file names unredacted.
	Dev                 bool
}

type relayUC struct {
	chat  adapter.ChatAdapter
	files adapter.FileSource
	conv  adapter.ConversionService
	http  HTTPDoer
	t     Translator
	log   *zerolog.Logger

	exts     map[string]struct{}
	extList  []string
	maxBytes int64
	dev      bool
}

func NewRelayUseCase(
	chat adapter.ChatAdapter,
	files adapter.FileSource,
	conv adapter.ConversionService,
	httpClient HTTPDoer,
	t Translator,
	opts RelayOptions,
	logger *zerolog.Logger,
) (*relayUC, error) {
	switch {
	case chat == nil:
		return nil, errors.New("chat adapter is nil")
	case files == nil:
		return nil, errors.New("file source is nil")
	case conv == nil:
		return nil, errors.New("conversion service is nil")
	case t == nil:
		return nil, errors.New("translator is nil")
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	if opts.MaxFileBytes <= 0 {
		opts.MaxFileBytes = DefaultMaxFileBytes
	}

	exts := make(map[string]struct{}, len(opts.SupportedExtensions))
	list := make([]string, 0, len(opts.SupportedExtensions))
	for _, e := range opts.SupportedExtensions {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if _, dup := exts[e]; !dup {
			exts[e] = struct{}{}
			list = append(list, e)
		}
	}

	l := logger.With().Str("component", "Relay").Logger()
	return &relayUC{
		chat:     chat,
		files:    files,
		conv:     conv,
		http:     httpClient,
		t:        t,
		log:      &l,
		exts:     exts,
		extList:  list,
		maxBytes: opts.MaxFileBytes,
		dev:      opts.Dev,
	}, nil
}

func (r *relayUC) HandleDocument(ctx context.Context, ev *model.DocumentEvent) error {
	if ev == nil {
		return domain.ErrInvalidArgument
	}
	ctx = logging.WithTgID(ctx, ev.RequesterID)
	ctx = logging.WithChatID(ctx, ev.ChatID)
	log := logging.With(ctx, r.log)

	doc := ev.Document
	if doc == nil || doc.FileID == "" {
		log.Debug().Err(domain.ErrMissingDocument).Msg("prompting for a file")
		return r.reply(ctx, ev.ChatID, r.t.T("prompt_send_file"))
	}

	if !r.supported(doc.Extension()) {
		metrics.IncConversion("unsupported")
		ext := doc.Extension()
		if ext == "" {
			ext = "(none)"
		}
		log.Info().Err(domain.ErrUnsupportedFormat).Str("ext", ext).Msg("upload rejected")
		return r.reply(ctx, ev.ChatID, r.t.T("error_unsupported_format", ext, strings.Join(r.extList, ", ")))
	}

	data, err := r.DownloadInbound(ctx, doc.FileID)
	if err != nil {
		metrics.IncConversion("download_error")
		log.Error().Err(err).Msg("inbound download failed")
		return r.reply(ctx, ev.ChatID, r.t.T("error_generic"))
	}
	metrics.ObserveInboundBytes(len(data))

	fileName := doc.FileName
	if strings.TrimSpace(fileName) == "" {
		fileName = "document" + doc.Extension()
	}
	req, err := model.NewConversionRequest(fileName, data, ev.RequesterID, ev.ChatID)
	if err != nil {
		log.Error().Err(err).Msg("invalid conversion request")
		return r.reply(ctx, ev.ChatID, r.t.T("error_generic"))
	}
	ctx = logging.WithTraceID(ctx, req.ID)
	log = logging.With(ctx, r.log)

	result, err := r.SubmitForConversion(ctx, req.SourceFileBytes, req.SourceFileName, req.RequesterID)
	if err != nil {
		var cse *domain.ConversionServiceError
		if errors.As(err, &cse) && cse.Rejected {
			metrics.IncConversion("rejected")
			log.Warn().Err(err).Msg("conversion rejected")
			return r.reply(ctx, ev.ChatID, r.t.T("error_conversion_failed"))
		}
		metrics.IncConversion("service_error")
		log.Error().Err(err).Msg("conversion service call failed")
		return r.reply(ctx, ev.ChatID, r.t.T("error_generic"))
	}
	metrics.IncConversion("succeeded")

	outcomes := r.FetchConvertedArtifacts(ctx, ev.ChatID, result, req.RequesterID)
	delivered := 0
	for _, o := range outcomes {
		if o.Delivered {
			delivered++
		}
	}
	log.Info().
		Str("file", logging.Redact(req.SourceFileName, r.dev)).
		Int("outputs", len(result.Outputs)).
		Int("delivered", delivered).
		Int("failed", len(outcomes)-delivered).
		Msg("relay finished")
	return nil
}

func (r *relayUC) DownloadInbound(ctx context.Context, fileID string) ([]byte, error) {
	defer logging.TraceDuration(r.log, "Relay.DownloadInbound")()

	if strings.TrimSpace(fileID) == "" {
		return nil, &domain.DownloadError{FileID: fileID, Err: domain.ErrNotFound}
	}
	fileURL, err := r.files.FileURL(ctx, fileID)
	if err != nil {
		return nil, &domain.DownloadError{FileID: fileID, Err: fmt.Errorf("resolve file: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, &domain.DownloadError{FileID: fileID, Err: fmt.Errorf("create request: %w", err)}
	}
	resp, err := r.http.Do(req)
	if err != nil {
		// the URL embeds the bot token; keep it out of the error text
		return nil, &domain.DownloadError{FileID: fileID, Err: errors.New("file fetch failed")}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, &domain.DownloadError{FileID: fileID, Err: domain.ErrNotFound}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &domain.DownloadError{FileID: fileID, Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, r.maxBytes+1))
	if err != nil {
		return nil, &domain.DownloadError{FileID: fileID, Err: fmt.Errorf("read body: %w", err)}
	}
	if int64(len(data)) > r.maxBytes {
		return nil, &domain.DownloadError{FileID: fileID, Err: fmt.Errorf("file exceeds %d bytes", r.maxBytes)}
	}
	return data, nil
}

func (r *relayUC) SubmitForConversion(ctx context.Context, data []byte, fileName string, requesterID int64) (*model.ConversionResult, error) {
	defer logging.TraceDuration(r.log, "Relay.SubmitForConversion")()

	result, err := r.conv.Convert(ctx, fileName, data, requesterID)
	if err != nil {
		var cse *domain.ConversionServiceError
		if errors.As(err, &cse) {
			return nil, err
		}
		return nil, &domain.ConversionServiceError{Err: err}
	}
	if result == nil {
		return nil, &domain.ConversionServiceError{Err: errors.New("empty conversion result")}
	}
	return result, nil
}

// FetchConvertedArtifacts relays every successful output independently: one failed
// artifact is reported on its own and does not stop the rest.
func (r *relayUC) FetchConvertedArtifacts(ctx context.Context, chatID int64, result *model.ConversionResult, requesterID int64) []model.ArtifactOutcome {
	defer logging.TraceDuration(r.log, "Relay.FetchConvertedArtifacts")()
	log := logging.With(ctx, r.log)

	outputs := result.Successful()
	outcomes := make([]model.ArtifactOutcome, 0, len(outputs))
	for _, out := range outputs {
		if err := r.deliverArtifact(ctx, chatID, requesterID, out); err != nil {
			derr := &domain.ArtifactDeliveryError{Format: out.DisplayName(), ArtifactName: out.ArtifactName, Err: err}
			metrics.IncArtifact(string(out.Format), "failed")
			log.Error().Err(derr).Msg("artifact delivery failed")
			if sendErr := r.chat.SendMessage(ctx, chatID, r.t.T("error_artifact_failed", out.DisplayName())); sendErr != nil {
				log.Error().Err(sendErr).Str("format", out.DisplayName()).Msg("failed to report artifact failure")
			}
			outcomes = append(outcomes, model.ArtifactOutcome{Output: out, Err: derr})
			continue
		}
		metrics.IncArtifact(string(out.Format), "delivered")
		outcomes = append(outcomes, model.ArtifactOutcome{Output: out, Delivered: true})
	}
	return outcomes
}

func (r *relayUC) deliverArtifact(ctx context.Context, chatID, requesterID int64, out model.ConversionOutput) error {
	rc, err := r.conv.Download(ctx, requesterID, out.ArtifactName)
	if err != nil {
		return err
	}
	defer rc.Close()

	caption := r.t.T("artifact_caption", out.DisplayName())
	return r.chat.SendDocument(ctx, chatID, out.ArtifactName, rc, caption)
}

func (r *relayUC) supported(ext string) bool {
	if len(r.exts) == 0 {
		return true
	}
	_, ok := r.exts[ext]
	return ok
}

func (r *relayUC) reply(ctx context.Context, chatID int64, text string) error {
	if err := r.chat.SendMessage(ctx, chatID, text); err != nil {
		return fmt.Errorf("send reply: %w", err)
	}
	return nil
}
