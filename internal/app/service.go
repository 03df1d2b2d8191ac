package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"portfolio/api/internal/assets"
	"portfolio/api/internal/auth"
	"portfolio/api/internal/config"
	"portfolio/api/internal/email"
	"portfolio/api/internal/export"
	"portfolio/api/internal/rbac"
	"portfolio/api/internal/search"
	"portfolio/api/internal/session"
	"portfolio/api/internal/snapshot"
	"portfolio/api/internal/store"
	"portfolio/api/internal/util"
)

type Session struct {
	Token        string
	RefreshToken string
	UserID       string
	UserName     string
	Email        string
	Role         rbac.Role
	JTI          string
	ExpiresAt    time.Time
}

type dataStore interface {
	Ping(context.Context) error
	GetUserByID(context.Context, string) (store.User, error)
	ListSettings(context.Context) ([]store.Setting, error)
	PutSetting(context.Context, string, json.RawMessage) (store.Setting, error)
	ListPendingAssetDeletions(context.Context, time.Time, int) ([]store.PendingAssetDeletion, error)
}

type sessionStore interface {
	SaveRefreshSession(context.Context, string, string, time.Time) error
	LookupRefreshSession(context.Context, string) (store.User, error)
	RevokeRefreshSession(context.Context, string) error
	RevokeAccessToken(context.Context, string, time.Time) error
	IsAccessTokenRevoked(context.Context, string) (bool, error)
}

type passwordAuth interface {
	SignIn(ctx context.Context, email, password string) (store.User, error)
}

type assetJanitor interface {
	Release(ctx context.Context, reason string, publicIDs ...string)
	Sweep(ctx context.Context, limit int) (assets.SweepResult, error)
}

type uploadSigner interface {
	SignUpload(ctx context.Context, filename, contentType string) (assets.Upload, error)
}

type documentCache interface {
	Get(ctx context.Context) (payload []byte, gen int64, ok bool, err error)
	Set(ctx context.Context, gen int64, payload []byte) error
	Invalidate(ctx context.Context) error
}

type searchIndex interface {
	Search(ctx context.Context, q search.Query) search.Response
	IndexProject(search.ProjectRecord)
	IndexSkill(search.SkillRecord)
	IndexExperience(search.ExperienceRecord)
	Remove(search.ResultType, string)
}

type documentExporter interface {
	Export(ctx context.Context, format export.Format, sections []store.SectionDocument) (*export.Result, error)
}

type snapshotStore interface {
	Commit(message, author string, sections []store.SectionDocument) (snapshot.Commit, error)
	History(limit int) ([]snapshot.Commit, error)
	Get(hash string) (snapshot.Commit, []store.SectionDocument, error)
}

type contactMailer interface {
	IsConfigured() bool
	SendContactMessage(msg email.ContactMessage) error
}

// Checker is a named readiness probe.
type Checker struct {
	Name  string
	Check func(context.Context) error
}

// Dependencies are the collaborators of a Service. Store, Content, Sessions,
// Passwords and Janitor are required; the rest may be nil when the backing
// system is not configured.
type Dependencies struct {
	Store     dataStore
	Content   Collections
	Sessions  sessionStore
	Passwords passwordAuth
	Janitor   assetJanitor
	Uploads   uploadSigner
	Cache     documentCache
	Search    searchIndex
	Exporter  documentExporter
	Snapshots snapshotStore
	Mailer    contactMailer
	Checks    []Checker
}

type Service struct {
	cfg       config.Config
	store     dataStore
	content   Collections
	sessions  sessionStore
	passwords passwordAuth
	janitor   assetJanitor
	uploads   uploadSigner
	cache     documentCache
	search    searchIndex
	exporter  documentExporter
	snapshots snapshotStore
	mailer    contactMailer
	checks    []Checker
	logger    zerolog.Logger
	now       func() time.Time

	resources      []contentResource
	resourceByPath map[string]contentResource
}

func New(cfg config.Config, deps Dependencies, logger zerolog.Logger) *Service {
	s := &Service{
		cfg:       cfg,
		store:     deps.Store,
		content:   deps.Content,
		sessions:  deps.Sessions,
		passwords: deps.Passwords,
		janitor:   deps.Janitor,
		uploads:   deps.Uploads,
		cache:     deps.Cache,
		search:    deps.Search,
		exporter:  deps.Exporter,
		snapshots: deps.Snapshots,
		mailer:    deps.Mailer,
		checks:    deps.Checks,
		logger:    logger,
		now:       time.Now,
	}
	s.resources = s.buildResources()
	s.resourceByPath = make(map[string]contentResource, len(s.resources))
	for _, r := range s.resources {
		s.resourceByPath[r.Path()] = r
	}
	return s
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// Readiness runs the database ping and every extra check. The map holds nil
// for passing checks.
func (s *Service) Readiness(ctx context.Context) map[string]error {
	results := map[string]error{"database": s.store.Ping(ctx)}
	for _, check := range s.checks {
		results[check.Name] = check.Check(ctx)
	}
	return results
}

func (s *Service) SignIn(ctx context.Context, emailAddress, password string) (Session, error) {
	user, err := s.passwords.SignIn(ctx, emailAddress, password)
	if err != nil {
		return Session{}, err
	}
	return s.issueSession(ctx, user)
}

func (s *Service) Refresh(ctx context.Context, refreshToken string) (Session, error) {
	tokenHash := auth.HashToken(refreshToken)
	ref, err := s.sessions.LookupRefreshSession(ctx, tokenHash)
	if err != nil {
		if store.IsNotFound(err) || errors.Is(err, session.ErrSessionNotFound) {
			return Session{}, auth.ErrInvalidToken
		}
		return Session{}, err
	}
	if err := s.sessions.RevokeRefreshSession(ctx, tokenHash); err != nil {
		return Session{}, err
	}
	user, err := s.store.GetUserByID(ctx, ref.ID)
	if err != nil {
		if store.IsNotFound(err) {
			return Session{}, auth.ErrInvalidToken
		}
		return Session{}, err
	}
	return s.issueSession(ctx, user)
}

func (s *Service) issueSession(ctx context.Context, user store.User) (Session, error) {
	now := s.now()
	expiresAt := now.Add(s.cfg.AccessTTL)
	jti := util.NewID("jti")
	role := rbac.ForUser(user.IsAdmin)

	token, err := auth.IssueToken([]byte(s.cfg.JWTSecret), auth.Claims{
		Sub:   user.ID,
		Email: user.Email,
		Name:  user.Name,
		Role:  string(role),
		JTI:   jti,
		Exp:   expiresAt.Unix(),
	})
	if err != nil {
		return Session{}, err
	}

	refresh := util.NewID("rft") + util.NewID("")
	refreshExpires := now.Add(s.cfg.RefreshTTL)
	if err := s.sessions.SaveRefreshSession(ctx, auth.HashToken(refresh), user.ID, refreshExpires); err != nil {
		return Session{}, err
	}

	return Session{
		Token:        token,
		RefreshToken: refresh,
		UserID:       user.ID,
		UserName:     user.Name,
		Email:        user.Email,
		Role:         role,
		JTI:          jti,
		ExpiresAt:    expiresAt,
	}, nil
}

func (s *Service) SessionFromToken(ctx context.Context, token string) (Session, error) {
	claims, err := auth.ParseToken([]byte(s.cfg.JWTSecret), token)
	if err != nil {
		return Session{}, err
	}
	revoked, err := s.sessions.IsAccessTokenRevoked(ctx, claims.JTI)
	if err != nil {
		return Session{}, err
	}
	if revoked {
		return Session{}, auth.ErrInvalidToken
	}

	// The role is re-read so a demoted admin loses access before the token expires.
	user, err := s.store.GetUserByID(ctx, claims.Sub)
	if err != nil {
		if store.IsNotFound(err) {
			return Session{}, auth.ErrInvalidToken
		}
		return Session{}, err
	}

	return Session{
		Token:     token,
		UserID:    user.ID,
		UserName:  user.Name,
		Email:     user.Email,
		Role:      rbac.ForUser(user.IsAdmin),
		JTI:       claims.JTI,
		ExpiresAt: claims.ExpiresAt(),
	}, nil
}

func (s *Service) Logout(ctx context.Context, session Session, refreshToken string) error {
	if session.JTI != "" {
		if err := s.sessions.RevokeAccessToken(ctx, session.JTI, session.ExpiresAt); err != nil {
			s.logger.Warn().Err(err).Msg("revoke access token")
		}
	}
	if refreshToken != "" {
		if err := s.sessions.RevokeRefreshSession(ctx, auth.HashToken(refreshToken)); err != nil {
			s.logger.Warn().Err(err).Msg("revoke refresh session")
		}
	}
	return nil
}

func (s *Service) Can(role rbac.Role, action rbac.Action) bool {
	return rbac.Can(role, action)
}

// invalidate drops the cached aggregate document after a mutation.
func (s *Service) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(context.WithoutCancel(ctx)); err != nil {
		s.logger.Warn().Err(err).Msg("sections cache invalidation failed")
	}
}

// release hands remote assets to the janitor after the write committed.
func (s *Service) release(ctx context.Context, reason string, publicIDs ...string) {
	if s.janitor == nil {
		return
	}
	s.janitor.Release(ctx, reason, publicIDs...)
}

func (s *Service) ListSettings(ctx context.Context) ([]store.Setting, error) {
	return s.store.ListSettings(ctx)
}

func (s *Service) PutSetting(ctx context.Context, key string, value json.RawMessage) (store.Setting, error) {
	if !validSettingKey(key) {
		return store.Setting{}, validationError("Setting key must be 1-64 characters of a-z, 0-9, '.', '_' or '-'")
	}
	if len(value) == 0 || !json.Valid(value) {
		return store.Setting{}, validationError("value is required")
	}
	setting, err := s.store.PutSetting(ctx, key, value)
	if err != nil {
		return store.Setting{}, fmt.Errorf("put setting: %w", err)
	}
	return setting, nil
}

func validSettingKey(key string) bool {
	if key == "" || len(key) > 64 {
		return false
	}
	for i, r := range key {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
		case (r == '.' || r == '_' || r == '-') && i > 0:
		default:
			return false
		}
	}
	return true
}
