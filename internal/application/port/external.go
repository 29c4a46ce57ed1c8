package port

import (
	"context"
	"io"

	"github.com/garyjia/case-tracker/internal/domain/entity"
	"github.com/garyjia/case-tracker/internal/domain/event"
)

// CaseHistory pairs a case with its recorded events for reporting
type CaseHistory struct {
	Case          *entity.Case
	TemplateTitle string
	Events        []*event.Event
}

// ReportWriter renders cases into an external document format
type ReportWriter interface {
	WriteCases(ctx context.Context, w io.Writer, cases []CaseHistory) error
}
