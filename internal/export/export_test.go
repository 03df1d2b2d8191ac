package export

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"testing"
	"time"

	"portfolio/api/internal/store"
)

func strPtr(value string) *string { return &value }

func sampleDocument() []store.SectionDocument {
	about := store.NewSectionDocument(store.Section{ID: "sec_1", Slug: "about", Title: "About", Type: "introduction", Visible: true})
	about.TextBlocks = []store.TextBlock{{ID: "tb_1", SectionID: "sec_1", Content: "Hello <b>world</b>"}}

	work := store.NewSectionDocument(store.Section{ID: "sec_2", Slug: "work", Title: "Work", Type: "projects", Order: 1, Visible: true})
	work.ProjectItems = []store.ProjectItem{{
		ID: "prj_1", SectionID: "sec_2", Title: "Atlas", Description: "Map tiles",
		Technologies: store.StringList{"Go", "Postgres"}, Link: strPtr("https://atlas.example"),
	}}
	work.ExperienceItems = []store.ExperienceItem{{ID: "exp_1", Title: "Engineer", Company: "Acme", StartDate: "2020-01"}}
	work.TestimonialItems = []store.TestimonialItem{{ID: "tst_1", Name: "Dana", Content: "Great", Rating: 4.6}}
	work.ContactInfoItems = []store.ContactInfoItem{{ID: "ci_1", Type: "email", Value: "me@example.com"}}

	hidden := store.NewSectionDocument(store.Section{ID: "sec_3", Slug: "draft", Title: "Secret Drafts", Type: "custom", Order: 2})
	hidden.CustomBlocks = []store.CustomBlock{{ID: "cb_1", Type: "text", Content: strPtr("unpublished")}}

	return []store.SectionDocument{about, work, hidden}
}

func newTestService() *Service {
	svc := NewService("Jane Doe Portfolio")
	svc.now = func() time.Time { return time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC) }
	return svc
}

func TestExportHTMLRendersVisibleSections(t *testing.T) {
	result, err := newTestService().Export(context.Background(), FormatHTML, sampleDocument())
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if result.Filename != "Jane-Doe-Portfolio.html" {
		t.Fatalf("unexpected filename %q", result.Filename)
	}
	if !strings.HasPrefix(result.MimeType, "text/html") {
		t.Fatalf("unexpected mime type %q", result.MimeType)
	}

	html := string(result.Data)
	for _, want := range []string{
		"<title>Jane Doe Portfolio</title>",
		`<section id="about">`,
		"Atlas",
		"<span>Postgres</span>",
		`href="https://atlas.example"`,
		"Engineer</strong>, Acme",
		"to present",
		"★★★★★",
		"email: me@example.com",
		"Generated Mar 4, 2026",
	} {
		if !strings.Contains(html, want) {
			t.Fatalf("expected %q in output:\n%s", want, html)
		}
	}
	if strings.Contains(html, "Secret Drafts") || strings.Contains(html, "unpublished") {
		t.Fatal("hidden section must not be exported")
	}
}

func TestExportHTMLEscapesContent(t *testing.T) {
	result, err := newTestService().Export(context.Background(), FormatHTML, sampleDocument())
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	html := string(result.Data)
	if strings.Contains(html, "<b>world</b>") {
		t.Fatal("text block content must be escaped")
	}
	if !strings.Contains(html, "Hello &lt;b&gt;world&lt;/b&gt;") {
		t.Fatalf("expected escaped content, got:\n%s", html)
	}
}

func TestExportPDFUsesRenderer(t *testing.T) {
	svc := newTestService()
	var gotHTML, gotTitle string
	svc.pdf = func(_ context.Context, html, title string) (*Result, error) {
		gotHTML, gotTitle = html, title
		return &Result{Data: []byte("%PDF"), Filename: sanitizeFilename(title) + ".pdf", MimeType: "application/pdf"}, nil
	}

	result, err := svc.Export(context.Background(), FormatPDF, sampleDocument())
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if result.MimeType != "application/pdf" || result.Filename != "Jane-Doe-Portfolio.pdf" {
		t.Fatalf("unexpected result %+v", result)
	}
	if gotTitle != "Jane Doe Portfolio" || !strings.Contains(gotHTML, "Atlas") {
		t.Fatalf("renderer received unexpected input title=%q", gotTitle)
	}
}

func TestExportRejectsUnknownFormat(t *testing.T) {
	_, err := newTestService().Export(context.Background(), Format("docx"), nil)
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input   string
		want    Format
		wantErr bool
	}{
		{input: "", want: FormatHTML},
		{input: "html", want: FormatHTML},
		{input: "pdf", want: FormatPDF},
		{input: "PDF", wantErr: true},
		{input: "docx", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.input)
		if tt.wantErr {
			if !errors.Is(err, ErrUnsupportedFormat) {
				t.Fatalf("ParseFormat(%q) expected error, got %v", tt.input, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Fatalf("ParseFormat(%q) = %q, %v", tt.input, got, err)
		}
	}
}

func TestExportPDFReportsMissingChrome(t *testing.T) {
	original := lookPath
	lookPath = func(string) (string, error) { return "", exec.ErrNotFound }
	t.Cleanup(func() { lookPath = original })

	_, err := exportPDF(context.Background(), "<html></html>", "x")
	if !errors.Is(err, ErrPDFDependencyMissing) {
		t.Fatalf("expected ErrPDFDependencyMissing, got %v", err)
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{input: "Jane Doe", want: "Jane-Doe"},
		{input: "  trimmed  ", want: "trimmed"},
		{input: "ünïcode/../name", want: "ncodename"},
		{input: "", want: "portfolio"},
		{input: "!!!", want: "portfolio"},
		{input: strings.Repeat("a", 60), want: strings.Repeat("a", 50)},
	}
	for _, tt := range tests {
		if got := sanitizeFilename(tt.input); got != tt.want {
			t.Fatalf("sanitizeFilename(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestPercentEncodeForDataURL(t *testing.T) {
	got := percentEncodeForDataURL("a b<é>~")
	want := "a%20b%3C%C3%A9%3E~"
	if got != want {
		t.Fatalf("percentEncodeForDataURL() = %q, want %q", got, want)
	}
}
