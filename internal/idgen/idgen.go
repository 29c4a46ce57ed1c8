// Package idgen produces the short opaque identifiers used for every stored record.
package idgen

import (
	"strings"

	"github.com/google/uuid"
)

const (
	// Length is the number of characters in a generated identifier
	Length = 8
	// RecordLength is used for high volume rows: answers, comments, events, messages
	RecordLength = 16
)

// New returns a random identifier of Length hex characters
func New() string {
	return random(Length)
}

// NewRecord returns a random identifier of RecordLength hex characters
func NewRecord() string {
	return random(RecordLength)
}

func random(n int) string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:n]
}

// CaseNumber returns a human facing case reference
func CaseNumber() string {
	return "CASE-" + strings.ToUpper(New())
}
