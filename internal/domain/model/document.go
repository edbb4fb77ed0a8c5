package model

import (
	"path/filepath"
	"strings"
)

// InboundDocument is the attachment part of a chat message.
type InboundDocument struct {
	FileID   string
	FileName string
	MimeType string
	FileSize int
}

// Extension returns the lower-cased file extension including the dot.
func (d *InboundDocument) Extension() string {
	if d == nil {
		return ""
	}
	return strings.ToLower(filepath.Ext(d.FileName))
}

// DocumentEvent is one upload from a chat user. Document is nil when the
// message carried no attachment.
type DocumentEvent struct {
	ChatID      int64
	RequesterID int64
	Username    string
	Document    *InboundDocument
}
