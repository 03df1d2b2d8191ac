package app

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"portfolio/api/internal/assets"
	"portfolio/api/internal/email"
	"portfolio/api/internal/export"
	"portfolio/api/internal/rbac"
	"portfolio/api/internal/search"
	"portfolio/api/internal/snapshot"
	"portfolio/api/internal/store"
)

type fakeUploads struct{}

func (fakeUploads) SignUpload(_ context.Context, filename, contentType string) (assets.Upload, error) {
	if !strings.HasPrefix(contentType, "image/") {
		return assets.Upload{}, assets.ErrUnsupportedContentType
	}
	return assets.Upload{UploadURL: "https://bucket.example/put", PublicID: "portfolio/" + filename, Src: "https://cdn.example/" + filename}, nil
}

type fakeExporter struct {
	err      error
	sections int
}

func (f *fakeExporter) Export(_ context.Context, format export.Format, sections []store.SectionDocument) (*export.Result, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.sections = len(sections)
	return &export.Result{Data: []byte("<html></html>"), Filename: "portfolio." + string(format), MimeType: "text/html; charset=utf-8"}, nil
}

type fakeSnapshots struct {
	commits []snapshot.Commit
	err     error
}

func (f *fakeSnapshots) Commit(message, author string, _ []store.SectionDocument) (snapshot.Commit, error) {
	if f.err != nil {
		return snapshot.Commit{}, f.err
	}
	commit := snapshot.Commit{Hash: "abc123", Message: message, Author: author, CreatedAt: time.Now()}
	f.commits = append(f.commits, commit)
	return commit, nil
}

func (f *fakeSnapshots) History(limit int) ([]snapshot.Commit, error) {
	if len(f.commits) > limit {
		return f.commits[:limit], nil
	}
	return f.commits, nil
}

func (f *fakeSnapshots) Get(hash string) (snapshot.Commit, []store.SectionDocument, error) {
	for _, commit := range f.commits {
		if commit.Hash == hash {
			return commit, []store.SectionDocument{}, nil
		}
	}
	return snapshot.Commit{}, nil, snapshot.ErrNotFound
}

type fakeMailer struct {
	configured bool
	err        error
	sent       []email.ContactMessage
}

func (f *fakeMailer) IsConfigured() bool { return f.configured }

func (f *fakeMailer) SendContactMessage(msg email.ContactMessage) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

func TestManageRoutesRequireAdmin(t *testing.T) {
	env := newTestEnv(t, nil)
	guest := testToken(t, "usr_guest")

	for _, route := range [][2]string{
		{http.MethodPost, "/api/uploads/sign"},
		{http.MethodGet, "/api/admin/assets/pending"},
		{http.MethodPost, "/api/admin/assets/sweep"},
		{http.MethodGet, "/api/admin/snapshots"},
		{http.MethodGet, "/api/export/portfolio"},
	} {
		rr := env.do(t, route[0], route[1], guest, `{}`)
		expectErrorCode(t, rr, http.StatusForbidden, "FORBIDDEN")
	}
	if env.svc.Can(rbac.RoleVisitor, rbac.ActionManage) {
		t.Fatalf("visitor must not manage")
	}
}

func TestSignUpload(t *testing.T) {
	env := newTestEnv(t, nil)
	rr := env.admin(t, http.MethodPost, "/api/uploads/sign", `{"filename":"a.png","contentType":"image/png"}`)
	expectErrorCode(t, rr, http.StatusServiceUnavailable, "ASSETS_UNAVAILABLE")

	env = newTestEnv(t, func(deps *Dependencies) { deps.Uploads = fakeUploads{} })
	rr = env.admin(t, http.MethodPost, "/api/uploads/sign", `{"filename":"a.png","contentType":"image/png"}`)
	expectStatus(t, rr, http.StatusOK)
	if upload := decodeJSON[assets.Upload](t, rr); upload.PublicID != "portfolio/a.png" {
		t.Fatalf("unexpected upload %+v", upload)
	}

	rr = env.admin(t, http.MethodPost, "/api/uploads/sign", `{"filename":"a.exe","contentType":"application/octet-stream"}`)
	expectErrorCode(t, rr, http.StatusBadRequest, "VALIDATION_ERROR")

	rr = env.admin(t, http.MethodPost, "/api/uploads/sign", `{"contentType":"image/png"}`)
	expectErrorCode(t, rr, http.StatusBadRequest, "VALIDATION_ERROR")
}

func TestAssetOutboxEndpoints(t *testing.T) {
	env := newTestEnv(t, nil)
	env.store.pending = []store.PendingAssetDeletion{{PublicID: "orphan", Attempts: 2}}
	env.janitor.sweep = assets.SweepResult{Attempted: 1, Deleted: 1}

	rr := env.admin(t, http.MethodGet, "/api/admin/assets/pending", "")
	expectStatus(t, rr, http.StatusOK)
	payload := decodeJSON[map[string][]store.PendingAssetDeletion](t, rr)
	if len(payload["pending"]) != 1 || payload["pending"][0].PublicID != "orphan" {
		t.Fatalf("unexpected pending %v", payload)
	}

	rr = env.admin(t, http.MethodPost, "/api/admin/assets/sweep", "")
	expectStatus(t, rr, http.StatusOK)
	if result := decodeJSON[assets.SweepResult](t, rr); result.Deleted != 1 {
		t.Fatalf("unexpected sweep %+v", result)
	}
}

func TestExportEndpoint(t *testing.T) {
	exporter := &fakeExporter{}
	env := newTestEnv(t, func(deps *Dependencies) { deps.Exporter = exporter })
	seedSection(env, "sec_1", "hero", 0)

	rr := env.admin(t, http.MethodGet, "/api/export/portfolio?format=html", "")
	expectStatus(t, rr, http.StatusOK)
	if rr.Header().Get("Content-Type") != "text/html; charset=utf-8" {
		t.Fatalf("unexpected content type %q", rr.Header().Get("Content-Type"))
	}
	if !strings.Contains(rr.Header().Get("Content-Disposition"), "portfolio.html") {
		t.Fatalf("unexpected disposition %q", rr.Header().Get("Content-Disposition"))
	}
	if exporter.sections != 1 {
		t.Fatalf("expected one section exported, got %d", exporter.sections)
	}

	rr = env.admin(t, http.MethodGet, "/api/export/portfolio?format=docx", "")
	expectErrorCode(t, rr, http.StatusBadRequest, "VALIDATION_ERROR")

	exporter.err = export.ErrPDFDependencyMissing
	rr = env.admin(t, http.MethodGet, "/api/export/portfolio?format=pdf", "")
	expectErrorCode(t, rr, http.StatusServiceUnavailable, "EXPORT_UNAVAILABLE")
}

func TestSnapshotEndpoints(t *testing.T) {
	snapshots := &fakeSnapshots{}
	env := newTestEnv(t, func(deps *Dependencies) { deps.Snapshots = snapshots })

	rr := env.admin(t, http.MethodPost, "/api/admin/snapshots", `{"message":"  launch  "}`)
	expectStatus(t, rr, http.StatusCreated)
	commit := decodeJSON[snapshot.Commit](t, rr)
	if commit.Message != "launch" || commit.Author != "Admin" {
		t.Fatalf("unexpected commit %+v", commit)
	}

	rr = env.admin(t, http.MethodGet, "/api/admin/snapshots?limit=5", "")
	expectStatus(t, rr, http.StatusOK)
	if history := decodeJSON[map[string][]snapshot.Commit](t, rr); len(history["snapshots"]) != 1 {
		t.Fatalf("unexpected history %v", history)
	}

	rr = env.admin(t, http.MethodGet, "/api/admin/snapshots/abc123", "")
	expectStatus(t, rr, http.StatusOK)

	rr = env.admin(t, http.MethodGet, "/api/admin/snapshots/ffff", "")
	expectErrorCode(t, rr, http.StatusNotFound, "NOT_FOUND")

	snapshots.err = snapshot.ErrNoChanges
	rr = env.admin(t, http.MethodPost, "/api/admin/snapshots", `{}`)
	expectErrorCode(t, rr, http.StatusConflict, "NO_CHANGES")
}

func TestContactMessage(t *testing.T) {
	mailer := &fakeMailer{configured: true}
	env := newTestEnv(t, func(deps *Dependencies) { deps.Mailer = mailer })

	rr := env.do(t, http.MethodPost, "/api/contact/messages", "", `{"name":"Ada","email":"ada@example.com","message":"Hello"}`)
	expectStatus(t, rr, http.StatusAccepted)
	if payload := decodeJSON[map[string]any](t, rr); payload["delivered"] != true {
		t.Fatalf("expected delivered, got %v", payload)
	}
	if len(mailer.sent) != 1 || mailer.sent[0].Email != "ada@example.com" {
		t.Fatalf("unexpected sent messages %+v", mailer.sent)
	}

	for _, body := range []string{
		`{"name":"","email":"ada@example.com","message":"Hello"}`,
		`{"name":"Ada","email":"not-an-address","message":"Hello"}`,
		`{"name":"Ada","email":"ada@example.com","message":"` + strings.Repeat("x", 5001) + `"}`,
	} {
		rr = env.do(t, http.MethodPost, "/api/contact/messages", "", body)
		expectErrorCode(t, rr, http.StatusBadRequest, "VALIDATION_ERROR")
	}

	mailer.err = errors.New("smtp down")
	rr = env.do(t, http.MethodPost, "/api/contact/messages", "", `{"name":"Ada","email":"ada@example.com","message":"Hello"}`)
	expectStatus(t, rr, http.StatusAccepted)
	if payload := decodeJSON[map[string]any](t, rr); payload["delivered"] != false {
		t.Fatalf("expected undelivered, got %v", payload)
	}
}

func TestSearchClampsLimit(t *testing.T) {
	env := newTestEnv(t, nil)

	rr := env.do(t, http.MethodGet, "/api/search?q=go&type=skill&limit=500&offset=-3", "", "")
	expectStatus(t, rr, http.StatusOK)
	q := env.search.lastQuery
	if q.Text != "go" || q.FilterType != search.ResultSkill || q.Limit != 50 || q.Offset != 0 {
		t.Fatalf("unexpected query %+v", q)
	}

	rr = env.do(t, http.MethodGet, "/api/search?q=go", "", "")
	expectStatus(t, rr, http.StatusOK)
	if env.search.lastQuery.Limit != 20 {
		t.Fatalf("expected default limit, got %d", env.search.lastQuery.Limit)
	}
}

func TestSettingsEndpoints(t *testing.T) {
	env := newTestEnv(t, nil)

	rr := env.do(t, http.MethodGet, "/api/settings", "", "")
	expectStatus(t, rr, http.StatusOK)
	if rr.Body.String() != "[]\n" {
		t.Fatalf("expected empty array, got %q", rr.Body.String())
	}

	rr = env.do(t, http.MethodPut, "/api/settings/theme", testToken(t, "usr_guest"), `{"value":"dark"}`)
	expectErrorCode(t, rr, http.StatusForbidden, "FORBIDDEN")

	rr = env.admin(t, http.MethodPut, "/api/settings/theme", `{"value":"dark"}`)
	expectStatus(t, rr, http.StatusOK)

	rr = env.do(t, http.MethodGet, "/api/settings", "", "")
	settings := decodeJSON[[]store.Setting](t, rr)
	if len(settings) != 1 || string(settings[0].Value) != `"dark"` {
		t.Fatalf("unexpected settings %+v", settings)
	}
}
