package search

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"portfolio/api/internal/store"
)

// PgFTS implements Searcher using PostgreSQL full-text search as a fallback.
type PgFTS struct {
	db *sql.DB
}

func NewPgFTS(db *sql.DB) *PgFTS {
	return &PgFTS{db: db}
}

// Healthy always returns true; without Postgres nothing else works either.
func (p *PgFTS) Healthy() bool {
	return true
}

var ftsSources = []struct {
	rtyp    ResultType
	table   string
	title   string
	snippet string
}{
	{rtyp: ResultProject, table: "project_items", title: "t.title", snippet: "t.description"},
	{rtyp: ResultSkill, table: "skill_items", title: "t.title", snippet: "t.description"},
	{rtyp: ResultExperience, table: "experience_items", title: "t.title || ' · ' || t.company", snippet: "t.description"},
}

// Search runs one UNION ALL over the generated fts columns, ranked by
// ts_rank, with ts_headline snippets.
func (p *PgFTS) Search(ctx context.Context, q Query) ([]Result, int, error) {
	if strings.TrimSpace(q.Text) == "" {
		return nil, 0, nil
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}

	const tsQuery = "plainto_tsquery('english', $1)"
	var subQueries []string
	for _, src := range ftsSources {
		if q.FilterType != "" && q.FilterType != src.rtyp {
			continue
		}
		subQueries = append(subQueries, fmt.Sprintf(`
			SELECT '%s'::text AS type, t.id, %s AS title,
				ts_headline('english', coalesce(%s, ''), %s, 'MaxFragments=1,MaxWords=30') AS snippet,
				t.section_id,
				ts_rank(t.fts, %s) AS rank
			FROM %s t
			WHERE t.fts @@ %s`, src.rtyp, src.title, src.snippet, tsQuery, tsQuery, src.table, tsQuery))
	}
	if len(subQueries) == 0 {
		return nil, 0, nil
	}
	union := strings.Join(subQueries, " UNION ALL ")

	var total int
	if err := p.db.QueryRowContext(ctx, fmt.Sprintf("SELECT count(*) FROM (%s) sub", union), q.Text).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("pgfts count: %w", err)
	}

	dataSQL := fmt.Sprintf(`SELECT type, id, title, snippet, section_id
		FROM (%s) sub
		ORDER BY rank DESC, id
		LIMIT %d OFFSET %d`, union, limit, offset)
	rows, err := p.db.QueryContext(ctx, dataSQL, q.Text)
	if err != nil {
		return nil, 0, fmt.Errorf("pgfts query: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		var typ string
		if err := rows.Scan(&typ, &r.ID, &r.Title, &r.Snippet, &r.SectionID); err != nil {
			return nil, 0, fmt.Errorf("pgfts scan: %w", err)
		}
		r.Type = ResultType(typ)
		results = append(results, r)
	}
	return results, total, rows.Err()
}

// LoadAllRecords returns all searchable records for full reindexing.
func (p *PgFTS) LoadAllRecords(ctx context.Context) ([]ProjectRecord, []SkillRecord, []ExperienceRecord, error) {
	projects := make([]ProjectRecord, 0)
	err := p.each(ctx, `SELECT id, section_id, title, description, technologies::text FROM project_items`, func(rows *sql.Rows) error {
		var r ProjectRecord
		var technologies store.StringList
		if err := rows.Scan(&r.ID, &r.SectionID, &r.Title, &r.Description, &technologies); err != nil {
			return err
		}
		r.Technologies = technologies
		projects = append(projects, r)
		return nil
	})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load projects: %w", err)
	}

	skills := make([]SkillRecord, 0)
	err = p.each(ctx, `SELECT id, section_id, title, description FROM skill_items`, func(rows *sql.Rows) error {
		var r SkillRecord
		if err := rows.Scan(&r.ID, &r.SectionID, &r.Title, &r.Description); err != nil {
			return err
		}
		skills = append(skills, r)
		return nil
	})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load skills: %w", err)
	}

	experiences := make([]ExperienceRecord, 0)
	err = p.each(ctx, `SELECT id, section_id, title, company, description FROM experience_items`, func(rows *sql.Rows) error {
		var r ExperienceRecord
		if err := rows.Scan(&r.ID, &r.SectionID, &r.Title, &r.Company, &r.Description); err != nil {
			return err
		}
		experiences = append(experiences, r)
		return nil
	})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load experiences: %w", err)
	}

	return projects, skills, experiences, nil
}

func (p *PgFTS) each(ctx context.Context, query string, scan func(*sql.Rows) error) error {
	rows, err := p.db.QueryContext(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		if err := scan(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}
