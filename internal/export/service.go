package export

import (
	"context"
	"fmt"
	"time"

	"portfolio/api/internal/store"
)

// Service renders the public view of the portfolio.
type Service struct {
	title string
	pdf   func(ctx context.Context, html, title string) (*Result, error)
	now   func() time.Time
}

func NewService(title string) *Service {
	if title == "" {
		title = "Portfolio"
	}
	return &Service{title: title, pdf: exportPDF, now: time.Now}
}

// Export renders the visible sections in the requested format.
func (s *Service) Export(ctx context.Context, format Format, sections []store.SectionDocument) (*Result, error) {
	visible := make([]store.SectionDocument, 0, len(sections))
	for _, section := range sections {
		if section.Visible {
			visible = append(visible, section)
		}
	}

	html, err := RenderPortfolioHTML(TemplateData{Title: s.title, GeneratedAt: s.now(), Sections: visible})
	if err != nil {
		return nil, fmt.Errorf("render template: %w", err)
	}

	switch format {
	case FormatHTML:
		return &Result{
			Data:     []byte(html),
			Filename: sanitizeFilename(s.title) + ".html",
			MimeType: "text/html; charset=utf-8",
		}, nil
	case FormatPDF:
		return s.pdf(ctx, html, s.title)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}
