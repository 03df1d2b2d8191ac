package app

import (
	"context"
	"errors"
	"net/http"
	"net/mail"
	"strings"
	"unicode/utf8"

	"portfolio/api/internal/assets"
	"portfolio/api/internal/email"
	"portfolio/api/internal/export"
	"portfolio/api/internal/search"
	"portfolio/api/internal/snapshot"
	"portfolio/api/internal/store"
)

const (
	defaultSearchLimit  = 20
	maxSearchLimit      = 50
	pendingAssetsLimit  = 200
	sweepBatchSize      = 100
	maxContactMessage   = 5000
	defaultHistoryLimit = 20
)

func (s *Service) SignUpload(ctx context.Context, filename, contentType string) (assets.Upload, error) {
	if s.uploads == nil {
		return assets.Upload{}, errAssetsUnavailable
	}
	if strings.TrimSpace(filename) == "" {
		return assets.Upload{}, validationError("filename is required")
	}
	upload, err := s.uploads.SignUpload(ctx, filename, contentType)
	if err != nil {
		if errors.Is(err, assets.ErrUnsupportedContentType) {
			return assets.Upload{}, validationError("Only image uploads are accepted")
		}
		return assets.Upload{}, err
	}
	return upload, nil
}

func (s *Service) PendingAssets(ctx context.Context) ([]store.PendingAssetDeletion, error) {
	return s.store.ListPendingAssetDeletions(ctx, s.now().AddDate(100, 0, 0), pendingAssetsLimit)
}

func (s *Service) SweepAssets(ctx context.Context) (assets.SweepResult, error) {
	if s.janitor == nil {
		return assets.SweepResult{}, errAssetsUnavailable
	}
	return s.janitor.Sweep(ctx, sweepBatchSize)
}

func (s *Service) Search(ctx context.Context, text, kind string, limit, offset int) search.Response {
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}
	if offset < 0 {
		offset = 0
	}
	q := search.Query{
		Text:       strings.TrimSpace(text),
		FilterType: search.ParseResultType(kind),
		Limit:      limit,
		Offset:     offset,
	}
	if s.search == nil || q.Text == "" {
		return search.Response{Results: []search.Result{}, Query: q.Text}
	}
	return s.search.Search(ctx, q)
}

func (s *Service) Export(ctx context.Context, rawFormat string) (*export.Result, error) {
	format, err := export.ParseFormat(rawFormat)
	if err != nil {
		return nil, validationError("Unsupported export format")
	}
	if s.exporter == nil {
		return nil, domainError(http.StatusServiceUnavailable, "EXPORT_UNAVAILABLE", "Export is not configured", nil)
	}
	docs, err := s.Document(ctx)
	if err != nil {
		return nil, err
	}
	result, err := s.exporter.Export(ctx, format, docs)
	if err != nil {
		if errors.Is(err, export.ErrPDFDependencyMissing) {
			return nil, domainError(http.StatusServiceUnavailable, "EXPORT_UNAVAILABLE", "PDF export requires Chrome or Chromium", nil)
		}
		return nil, err
	}
	return result, nil
}

func (s *Service) CreateSnapshot(ctx context.Context, session Session, message string) (snapshot.Commit, error) {
	if s.snapshots == nil {
		return snapshot.Commit{}, domainError(http.StatusServiceUnavailable, "SNAPSHOTS_UNAVAILABLE", "Snapshots are not configured", nil)
	}
	docs, err := s.Document(ctx)
	if err != nil {
		return snapshot.Commit{}, err
	}
	commit, err := s.snapshots.Commit(strings.TrimSpace(message), session.UserName, docs)
	if err != nil {
		if errors.Is(err, snapshot.ErrNoChanges) {
			return snapshot.Commit{}, domainError(http.StatusConflict, "NO_CHANGES", "No changes since the last snapshot", nil)
		}
		return snapshot.Commit{}, err
	}
	s.logger.Info().Str("hash", commit.Hash).Str("user_id", session.UserID).Msg("snapshot created")
	return commit, nil
}

func (s *Service) SnapshotHistory(limit int) ([]snapshot.Commit, error) {
	if s.snapshots == nil {
		return []snapshot.Commit{}, nil
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	return s.snapshots.History(limit)
}

func (s *Service) Snapshot(hash string) (snapshot.Commit, []store.SectionDocument, error) {
	if s.snapshots == nil {
		return snapshot.Commit{}, nil, notFound("Snapshot")
	}
	commit, docs, err := s.snapshots.Get(hash)
	if err != nil {
		if errors.Is(err, snapshot.ErrNotFound) {
			return snapshot.Commit{}, nil, notFound("Snapshot")
		}
		return snapshot.Commit{}, nil, err
	}
	return commit, docs, nil
}

// SendContactMessage validates a visitor message and forwards it to the
// owner. Delivery problems are logged; the caller only learns whether the
// message went out.
func (s *Service) SendContactMessage(ctx context.Context, name, address, message string) (bool, error) {
	name = strings.TrimSpace(name)
	address = strings.TrimSpace(address)
	message = strings.TrimSpace(message)
	switch {
	case name == "":
		return false, validationError("name is required")
	case address == "":
		return false, validationError("email is required")
	case message == "":
		return false, validationError("message is required")
	case utf8.RuneCountInString(message) > maxContactMessage:
		return false, validationError("message must be at most 5000 characters")
	}
	if _, err := mail.ParseAddress(address); err != nil {
		return false, validationError("email is not a valid address")
	}

	if s.mailer == nil || !s.mailer.IsConfigured() {
		s.logger.Warn().Msg("contact message dropped: email not configured")
		return false, nil
	}
	err := s.mailer.SendContactMessage(email.ContactMessage{
		Name:    name,
		Email:   address,
		Message: message,
		SentAt:  s.now(),
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("contact message delivery failed")
		return false, nil
	}
	return true, nil
}
