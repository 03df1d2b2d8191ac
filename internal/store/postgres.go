package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATE codes
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
)

type PostgresStore struct {
	db *sql.DB

	sections         *Collection[Section, SectionPatch]
	textBlocks       *Collection[TextBlock, TextBlockPatch]
	imageBlocks      *Collection[ImageBlock, ImageBlockPatch]
	projects         *Collection[ProjectItem, ProjectItemPatch]
	categories       *Collection[Category, CategoryPatch]
	skills           *Collection[SkillItem, SkillItemPatch]
	skillImages      *Collection[SkillImage, SkillImagePatch]
	experiences      *Collection[ExperienceItem, ExperienceItemPatch]
	experienceImages *Collection[ExperienceDetailImage, ExperienceDetailImagePatch]
	education        *Collection[EducationItem, EducationItemPatch]
	educationImages  *Collection[EducationImage, EducationImagePatch]
	testimonials     *Collection[TestimonialItem, TestimonialItemPatch]
	contactInfo      *Collection[ContactInfoItem, ContactInfoItemPatch]
	customBlocks     *Collection[CustomBlock, CustomBlockPatch]
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{
		db:               db,
		sections:         newCollection[Section, SectionPatch](db, sectionsTable),
		textBlocks:       newCollection[TextBlock, TextBlockPatch](db, textBlocksTable),
		imageBlocks:      newCollection[ImageBlock, ImageBlockPatch](db, imageBlocksTable),
		projects:         newCollection[ProjectItem, ProjectItemPatch](db, projectItemsTable),
		categories:       newCollection[Category, CategoryPatch](db, categoriesTable),
		skills:           newCollection[SkillItem, SkillItemPatch](db, skillItemsTable),
		skillImages:      newCollection[SkillImage, SkillImagePatch](db, skillImagesTable),
		experiences:      newCollection[ExperienceItem, ExperienceItemPatch](db, experienceItemsTable),
		experienceImages: newCollection[ExperienceDetailImage, ExperienceDetailImagePatch](db, experienceImagesTable),
		education:        newCollection[EducationItem, EducationItemPatch](db, educationItemsTable),
		educationImages:  newCollection[EducationImage, EducationImagePatch](db, educationImagesTable),
		testimonials:     newCollection[TestimonialItem, TestimonialItemPatch](db, testimonialItemsTable),
		contactInfo:      newCollection[ContactInfoItem, ContactInfoItemPatch](db, contactInfoItemsTable),
		customBlocks:     newCollection[CustomBlock, CustomBlockPatch](db, customBlocksTable),
	}
}

func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

func (s *PostgresStore) Sections() *Collection[Section, SectionPatch] { return s.sections }

func (s *PostgresStore) TextBlocks() *Collection[TextBlock, TextBlockPatch] { return s.textBlocks }

func (s *PostgresStore) ImageBlocks() *Collection[ImageBlock, ImageBlockPatch] { return s.imageBlocks }

func (s *PostgresStore) Projects() *Collection[ProjectItem, ProjectItemPatch] { return s.projects }

func (s *PostgresStore) Categories() *Collection[Category, CategoryPatch] { return s.categories }

func (s *PostgresStore) Skills() *Collection[SkillItem, SkillItemPatch] { return s.skills }

func (s *PostgresStore) SkillImages() *Collection[SkillImage, SkillImagePatch] { return s.skillImages }

func (s *PostgresStore) Experiences() *Collection[ExperienceItem, ExperienceItemPatch] {
	return s.experiences
}

func (s *PostgresStore) ExperienceImages() *Collection[ExperienceDetailImage, ExperienceDetailImagePatch] {
	return s.experienceImages
}

func (s *PostgresStore) Education() *Collection[EducationItem, EducationItemPatch] {
	return s.education
}

func (s *PostgresStore) EducationImages() *Collection[EducationImage, EducationImagePatch] {
	return s.educationImages
}

func (s *PostgresStore) Testimonials() *Collection[TestimonialItem, TestimonialItemPatch] {
	return s.testimonials
}

func (s *PostgresStore) ContactInfo() *Collection[ContactInfoItem, ContactInfoItemPatch] {
	return s.contactInfo
}

func (s *PostgresStore) CustomBlocks() *Collection[CustomBlock, CustomBlockPatch] {
	return s.customBlocks
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStore) GetUserByID(ctx context.Context, userID string) (User, error) {
	var user User
	err := s.db.QueryRowContext(ctx, `SELECT id, email, name, password_hash, is_admin FROM users WHERE id=$1`, userID).
		Scan(&user.ID, &user.Email, &user.Name, &user.PasswordHash, &user.IsAdmin)
	if err != nil {
		return User{}, err
	}
	return user, nil
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (User, error) {
	var user User
	err := s.db.QueryRowContext(ctx, `SELECT id, email, name, password_hash, is_admin FROM users WHERE LOWER(email)=LOWER($1)`, strings.TrimSpace(email)).
		Scan(&user.ID, &user.Email, &user.Name, &user.PasswordHash, &user.IsAdmin)
	if err != nil {
		return User{}, err
	}
	return user, nil
}

// UpsertUser creates the user or refreshes name, password and admin flag of
// the existing user with the same email.
func (s *PostgresStore) UpsertUser(ctx context.Context, user User) (User, error) {
	const query = `
		INSERT INTO users (id, email, name, password_hash, is_admin)
		VALUES ($1, LOWER($2), $3, $4, $5)
		ON CONFLICT (email) DO UPDATE SET name=EXCLUDED.name, password_hash=EXCLUDED.password_hash, is_admin=EXCLUDED.is_admin
		RETURNING id, email, name, password_hash, is_admin
	`
	var saved User
	err := s.db.QueryRowContext(ctx, query, user.ID, strings.TrimSpace(user.Email), user.Name, user.PasswordHash, user.IsAdmin).
		Scan(&saved.ID, &saved.Email, &saved.Name, &saved.PasswordHash, &saved.IsAdmin)
	if err != nil {
		return User{}, fmt.Errorf("upsert user: %w", err)
	}
	return saved, nil
}

func (s *PostgresStore) SaveRefreshSession(ctx context.Context, tokenHash, userID string, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO refresh_sessions (token_hash, user_id, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (token_hash) DO UPDATE SET user_id=EXCLUDED.user_id, expires_at=EXCLUDED.expires_at, revoked_at=NULL
	`, tokenHash, userID, expiresAt)
	if err != nil {
		return fmt.Errorf("save refresh session: %w", err)
	}
	return nil
}

func (s *PostgresStore) RevokeRefreshSession(ctx context.Context, tokenHash string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE refresh_sessions SET revoked_at=NOW() WHERE token_hash=$1`, tokenHash)
	if err != nil {
		return fmt.Errorf("revoke refresh session: %w", err)
	}
	return nil
}

func (s *PostgresStore) LookupRefreshSession(ctx context.Context, tokenHash string) (User, error) {
	const query = `
		SELECT u.id, u.email, u.name, u.password_hash, u.is_admin
		FROM refresh_sessions rs
		JOIN users u ON u.id = rs.user_id
		WHERE rs.token_hash = $1
			AND rs.revoked_at IS NULL
			AND rs.expires_at > NOW()
	`
	var user User
	err := s.db.QueryRowContext(ctx, query, tokenHash).Scan(&user.ID, &user.Email, &user.Name, &user.PasswordHash, &user.IsAdmin)
	if err != nil {
		return User{}, err
	}
	return user, nil
}

func (s *PostgresStore) RevokeAccessToken(ctx context.Context, jti string, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO revoked_access_tokens (jti, expires_at) VALUES ($1, $2)
		ON CONFLICT (jti) DO NOTHING
	`, jti, expiresAt)
	if err != nil {
		return fmt.Errorf("revoke access token: %w", err)
	}
	return nil
}

func (s *PostgresStore) IsAccessTokenRevoked(ctx context.Context, jti string) (bool, error) {
	var revoked bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM revoked_access_tokens WHERE jti=$1)`, jti).Scan(&revoked)
	if err != nil {
		return false, fmt.Errorf("check revoked token: %w", err)
	}
	return revoked, nil
}

func (s *PostgresStore) ListSettings(ctx context.Context) ([]Setting, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value::text, updated_at FROM settings ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	defer rows.Close()

	items := make([]Setting, 0)
	for rows.Next() {
		var item Setting
		var raw string
		if err := rows.Scan(&item.Key, &raw, &item.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan setting: %w", err)
		}
		item.Value = json.RawMessage(raw)
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate settings: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) PutSetting(ctx context.Context, key string, value json.RawMessage) (Setting, error) {
	const query = `
		INSERT INTO settings (key, value, updated_at) VALUES ($1, $2::jsonb, NOW())
		ON CONFLICT (key) DO UPDATE SET value=EXCLUDED.value, updated_at=NOW()
		RETURNING key, value::text, updated_at
	`
	var item Setting
	var raw string
	if err := s.db.QueryRowContext(ctx, query, key, string(value)).Scan(&item.Key, &raw, &item.UpdatedAt); err != nil {
		return Setting{}, fmt.Errorf("put setting: %w", err)
	}
	item.Value = json.RawMessage(raw)
	return item, nil
}

// EnqueueAssetDeletion records a failed remote delete. Re-enqueueing the same
// asset keeps its attempt count.
func (s *PostgresStore) EnqueueAssetDeletion(ctx context.Context, publicID, reason, lastError string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO pending_asset_deletions (public_id, reason, last_error)
		VALUES ($1, $2, $3)
		ON CONFLICT (public_id) DO UPDATE SET last_error=EXCLUDED.last_error
	`, publicID, reason, lastError)
	if err != nil {
		return fmt.Errorf("enqueue asset deletion: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListPendingAssetDeletions(ctx context.Context, dueBefore time.Time, limit int) ([]PendingAssetDeletion, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `
		SELECT public_id, reason, attempts, last_error, next_attempt_at, created_at
		FROM pending_asset_deletions
	`
	args := []any{limit}
	if !dueBefore.IsZero() {
		query += ` WHERE next_attempt_at <= $2`
		args = append(args, dueBefore)
	}
	query += ` ORDER BY next_attempt_at, public_id LIMIT $1`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list pending asset deletions: %w", err)
	}
	defer rows.Close()

	items := make([]PendingAssetDeletion, 0)
	for rows.Next() {
		var item PendingAssetDeletion
		if err := rows.Scan(&item.PublicID, &item.Reason, &item.Attempts, &item.LastError, &item.NextAttemptAt, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan pending asset deletion: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pending asset deletions: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) RecordAssetDeletionFailure(ctx context.Context, publicID, lastError string, nextAttemptAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE pending_asset_deletions
		SET attempts = attempts + 1, last_error = $2, next_attempt_at = $3
		WHERE public_id = $1
	`, publicID, lastError, nextAttemptAt)
	if err != nil {
		return fmt.Errorf("record asset deletion failure: %w", err)
	}
	return nil
}

func (s *PostgresStore) CompleteAssetDeletion(ctx context.Context, publicID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM pending_asset_deletions WHERE public_id = $1`, publicID)
	if err != nil {
		return fmt.Errorf("complete asset deletion: %w", err)
	}
	return nil
}

// AssetInUse reports whether any content row still references publicID.
func (s *PostgresStore) AssetInUse(ctx context.Context, publicID string) (bool, error) {
	const query = `
		SELECT EXISTS (SELECT 1 FROM image_blocks WHERE image_public_id = $1)
			OR EXISTS (SELECT 1 FROM project_items WHERE image_public_id = $1)
			OR EXISTS (SELECT 1 FROM skill_items WHERE image_public_id = $1)
			OR EXISTS (SELECT 1 FROM skill_images WHERE image_public_id = $1)
			OR EXISTS (SELECT 1 FROM experience_items WHERE image_public_id = $1)
			OR EXISTS (SELECT 1 FROM experience_detail_images WHERE image_public_id = $1)
			OR EXISTS (SELECT 1 FROM education_items WHERE image_public_id = $1)
			OR EXISTS (SELECT 1 FROM education_images WHERE image_public_id = $1)
			OR EXISTS (SELECT 1 FROM testimonial_items WHERE image_public_id = $1)
			OR EXISTS (SELECT 1 FROM custom_section_content_blocks WHERE image_public_id = $1)
	`
	var inUse bool
	if err := s.db.QueryRowContext(ctx, query, publicID).Scan(&inUse); err != nil {
		return false, fmt.Errorf("check asset references: %w", err)
	}
	return inUse, nil
}

// IsNotFound reports whether err means the requested row does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// IsConflict reports a unique constraint violation.
func IsConflict(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == codeUniqueViolation
}

// IsMissingReference reports a foreign key violation, such as a child row
// inserted for a parent deleted meanwhile.
func IsMissingReference(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == codeForeignKeyViolation
}
