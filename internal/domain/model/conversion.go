package model

import (
	"path"
	"strings"
	"time"

	"telegram-ebook-relay/internal/domain"

	"github.com/oklog/ulid/v2"
)

// Format is the target format of one converted artifact.
type Format string

const (
	FormatPDF     Format = "pdf"
	FormatEPUB    Format = "epub"
	FormatUnknown Format = "unknown"
)

// ParseFormat maps the service's format label ("PDF", "epub", ...) onto a Format.
func ParseFormat(s string) Format {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pdf":
		return FormatPDF
	case "epub":
		return FormatEPUB
	default:
		return FormatUnknown
	}
}

// ConversionRequest is created per inbound document and dropped once the reply cycle ends.
type ConversionRequest struct {
	ID              string
	SourceFileBytes []byte
	SourceFileName  string
	RequesterID     int64
	ChatID          int64
	ReceivedAt      time.Time
}

func NewConversionRequest(fileName string, data []byte, requesterID, chatID int64) (*ConversionRequest, error) {
	if strings.TrimSpace(fileName) == "" || requesterID == 0 {
		return nil, domain.ErrInvalidArgument
	}
	return &ConversionRequest{
		ID:              ulid.Make().String(),
		SourceFileBytes: data,
		SourceFileName:  fileName,
		RequesterID:     requesterID,
		ChatID:          chatID,
		ReceivedAt:      time.Now(),
	}, nil
}

// ConversionOutput is one entry of the service's conversions list.
type ConversionOutput struct {
	Format Format
	// Label is the format name exactly as the service reported it.
	Label   string
	Success bool
	// ArtifactName is the opaque identifier used on the download endpoint.
	ArtifactName string
	Error        string
}

// DisplayName is the upper-case format name used in captions.
func (o ConversionOutput) DisplayName() string {
	if l := strings.TrimSpace(o.Label); l != "" {
		return strings.ToUpper(l)
	}
	return strings.ToUpper(string(o.Format))
}

type ConversionResult struct {
	Outputs []ConversionOutput
}

// Successful returns the outputs the service reported as converted, in order.
func (r *ConversionResult) Successful() []ConversionOutput {
	if r == nil {
		return nil
	}
	out := make([]ConversionOutput, 0, len(r.Outputs))
	for _, o := range r.Outputs {
		if o.Success {
			out = append(out, o)
		}
	}
	return out
}

// ArtifactNameFromPath reduces a service-side path to its final element.
// Returns "" for paths with no usable name.
func ArtifactNameFromPath(p string) string {
	p = strings.ReplaceAll(strings.TrimSpace(p), "\\", "/")
	if p == "" {
		return ""
	}
	base := path.Base(p)
	if base == "." || base == "/" || base == ".." {
		return ""
	}
	return base
}

// ArtifactOutcome is the delivery result of one successful output.
type ArtifactOutcome struct {
	Output    ConversionOutput
	Delivered bool
	Err       error
}
