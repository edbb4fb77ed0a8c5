//go:build !integration

package model

import (
	"errors"
	"testing"
	"time"

	"telegram-ebook-relay/internal/domain"
)

// --- ConversionRequest Tests ---

func TestNewConversionRequest(t *testing.T) {
	t.Run("should create a request with an id", func(t *testing.T) {
		start := time.Now()
		req, err := NewConversionRequest("book.epub", []byte("data"), 42, 4242)
		if err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		if req.ID == "" {
			t.Error("expected request ID to be non-empty")
		}
		if req.SourceFileName != "book.epub" || req.RequesterID != 42 || req.ChatID != 4242 {
			t.Errorf("unexpected request: %+v", req)
		}
		if req.ReceivedAt.Before(start) {
			t.Error("expected ReceivedAt to be set to now")
		}
	})

	t.Run("ids are unique", func(t *testing.T) {
		a, _ := NewConversionRequest("a.pdf", nil, 1, 1)
		b, _ := NewConversionRequest("a.pdf", nil, 1, 1)
		if a.ID == b.ID {
			t.Fatalf("expected distinct ids, got %s twice", a.ID)
		}
	})

	t.Run("should reject missing fields", func(t *testing.T) {
		if _, err := NewConversionRequest(" ", nil, 1, 1); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument for empty name, got %v", err)
		}
		if _, err := NewConversionRequest("a.pdf", nil, 0, 1); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument for zero requester, got %v", err)
		}
	})
}

// --- ConversionOutput Tests ---

func TestParseFormat(t *testing.T) {
	cases := map[string]Format{
		"PDF":   FormatPDF,
		" epub": FormatEPUB,
		"mobi":  FormatUnknown,
		"":      FormatUnknown,
	}
	for in, want := range cases {
		if got := ParseFormat(in); got != want {
			t.Errorf("ParseFormat(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDisplayName(t *testing.T) {
	if got := (ConversionOutput{Format: FormatPDF, Label: "pdf"}).DisplayName(); got != "PDF" {
		t.Errorf("expected PDF, got %s", got)
	}
	if got := (ConversionOutput{Format: FormatUnknown, Label: "mobi"}).DisplayName(); got != "MOBI" {
		t.Errorf("expected label to win, got %s", got)
	}
	if got := (ConversionOutput{Format: FormatEPUB}).DisplayName(); got != "EPUB" {
		t.Errorf("expected EPUB, got %s", got)
	}
}

func TestSuccessful(t *testing.T) {
	var nilResult *ConversionResult
	if got := nilResult.Successful(); got != nil {
		t.Fatalf("expected nil for nil result, got %v", got)
	}

	r := &ConversionResult{Outputs: []ConversionOutput{
		{Format: FormatPDF, Success: true, ArtifactName: "a.pdf"},
		{Format: FormatEPUB, Success: false, Error: "boom"},
		{Format: FormatEPUB, Success: true, ArtifactName: "a.epub"},
	}}
	got := r.Successful()
	if len(got) != 2 || got[0].Format != FormatPDF || got[1].Format != FormatEPUB {
		t.Fatalf("unexpected successful outputs: %+v", got)
	}
}

func TestArtifactNameFromPath(t *testing.T) {
	cases := map[string]string{
		"/tmp/conv/42/book.pdf":    "book.pdf",
		"book.epub":                "book.epub",
		`C:\temp\42\book.epub`:     "book.epub",
		"/tmp/conv/42/":            "42",
		"":                         "",
		"/":                        "",
		"..":                       "",
		"  /data/out/My Book.pdf ": "My Book.pdf",
	}
	for in, want := range cases {
		if got := ArtifactNameFromPath(in); got != want {
			t.Errorf("ArtifactNameFromPath(%q) = %q, want %q", in, got, want)
		}
	}
}

// --- InboundDocument Tests ---

func TestInboundDocumentExtension(t *testing.T) {
	var nilDoc *InboundDocument
	if nilDoc.Extension() != "" {
		t.Error("expected empty extension for nil document")
	}
	if got := (&InboundDocument{FileName: "Book.AZW3"}).Extension(); got != ".azw3" {
		t.Errorf("expected .azw3, got %s", got)
	}
	if got := (&InboundDocument{FileName: "README"}).Extension(); got != "" {
		t.Errorf("expected no extension, got %s", got)
	}
}
