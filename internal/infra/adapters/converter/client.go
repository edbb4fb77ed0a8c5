// File: internal/infra/adapters/converter/client.go
package converter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"telegram-ebook-relay/internal/domain"
	"telegram-ebook-relay/internal/domain/model"
	"telegram-ebook-relay/internal/domain/ports/adapter"
	"telegram-ebook-relay/internal/infra/metrics"

	"github.com/rs/zerolog"
)

var _ adapter.ConversionService = (*Client)(nil)

const maxErrorBody = 512

// Client talks to the ebook conversion service:
// POST /convert?user_id={id} and GET /download/{user_id}/{file}.
type Client struct {
	baseURL string
	client  *http.Client
	log     *zerolog.Logger
}

// NewClient builds a client for baseURL. A zero timeout keeps the http.Client default.
func NewClient(baseURL string, timeout time.Duration, logger *zerolog.Logger) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid converter base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid converter base url scheme %q", u.Scheme)
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	l := logger.With().Str("component", "ConverterClient").Logger()
	return &Client{
		baseURL: u.String(),
		client:  &http.Client{Timeout: timeout},
		log:     &l,
	}, nil
}

// HTTPClient exposes the shared client so inbound file fetches use the same transport.
func (c *Client) HTTPClient() *http.Client { return c.client }

type convertResponse struct {
	Success     bool   `json:"success"`
	Error       string `json:"error"`
	Conversions []struct {
		Success bool   `json:"success"`
		Format  string `json:"format"`
		Path    string `json:"path"`
		Error   string `json:"error"`
	} `json:"conversions"`
}

// Convert uploads data as multipart field "file" and decodes the conversion list.
// Any failure, including success=false, is returned as *domain.ConversionServiceError.
func (c *Client) Convert(ctx context.Context, fileName string, data []byte, userID int64) (*model.ConversionResult, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", fileName)
	if err != nil {
		return nil, &domain.ConversionServiceError{Err: fmt.Errorf("create form file: %w", err)}
	}
	if _, err := part.Write(data); err != nil {
		return nil, &domain.ConversionServiceError{Err: fmt.Errorf("write form file: %w", err)}
	}
	if err := writer.Close(); err != nil {
		return nil, &domain.ConversionServiceError{Err: fmt.Errorf("close multipart writer: %w", err)}
	}

	endpoint := fmt.Sprintf("%s/convert?user_id=%s", c.baseURL, url.QueryEscape(strconv.FormatInt(userID, 10)))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return nil, &domain.ConversionServiceError{Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		metrics.ObserveConversionLatency(time.Since(start), false)
		return nil, &domain.ConversionServiceError{Err: fmt.Errorf("convert request failed: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.ObserveConversionLatency(time.Since(start), false)
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &domain.ConversionServiceError{
			StatusCode: resp.StatusCode,
			Err:        errors.New(strings.TrimSpace(string(snippet))),
		}
	}

	var out convertResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		metrics.ObserveConversionLatency(time.Since(start), false)
		return nil, &domain.ConversionServiceError{StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	metrics.ObserveConversionLatency(time.Since(start), out.Success)

	if !out.Success {
		reason := out.Error
		if reason == "" {
			reason = "service reported success=false"
		}
		return nil, &domain.ConversionServiceError{StatusCode: resp.StatusCode, Rejected: true, Err: errors.New(reason)}
	}

	result := &model.ConversionResult{Outputs: make([]model.ConversionOutput, 0, len(out.Conversions))}
	for _, conv := range out.Conversions {
		o := model.ConversionOutput{
			Format:       model.ParseFormat(conv.Format),
			Label:        conv.Format,
			Success:      conv.Success,
			ArtifactName: model.ArtifactNameFromPath(conv.Path),
			Error:        conv.Error,
		}
		if o.Success && o.ArtifactName == "" {
			// nothing to download
			c.log.Warn().Str("format", conv.Format).Str("path", conv.Path).Msg("successful conversion without a usable path")
			o.Success = false
			o.Error = "missing artifact path"
		}
		result.Outputs = append(result.Outputs, o)
	}
	return result, nil
}

// Download opens the artifact stream. The caller must close it.
func (c *Client) Download(ctx context.Context, userID int64, artifactName string) (io.ReadCloser, error) {
	if artifactName == "" {
		return nil, fmt.Errorf("empty artifact name: %w", domain.ErrInvalidArgument)
	}
	endpoint := fmt.Sprintf("%s/download/%s/%s",
		c.baseURL,
		url.PathEscape(strconv.FormatInt(userID, 10)),
		url.PathEscape(artifactName),
	)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download request failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		resp.Body.Close()
		return nil, fmt.Errorf("download returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	// The service answers a missing file with 200 and a JSON error object.
	if mt, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type")); mt == "application/json" {
		var e struct {
			Error string `json:"error"`
		}
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		if json.Unmarshal(raw, &e) == nil && e.Error != "" {
			resp.Body.Close()
			return nil, fmt.Errorf("download %s: %s: %w", artifactName, e.Error, domain.ErrNotFound)
		}
		return readCloser{Reader: io.MultiReader(bytes.NewReader(raw), resp.Body), Closer: resp.Body}, nil
	}
	return resp.Body, nil
}

type readCloser struct {
	io.Reader
	io.Closer
}
