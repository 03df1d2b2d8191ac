package search

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// Service is the facade that tries the primary engine first and falls back to
// PostgreSQL full-text search.
type Service struct {
	engine   Engine
	fallback Searcher
	loader   RecordLoader
	logger   zerolog.Logger
	pending  sync.WaitGroup
}

// RecordLoader reads every searchable record for a full reindex.
type RecordLoader interface {
	LoadAllRecords(ctx context.Context) ([]ProjectRecord, []SkillRecord, []ExperienceRecord, error)
}

// NewService creates a search service. engine may be nil when Meilisearch is
// not configured.
func NewService(engine Engine, fallback Searcher, loader RecordLoader, logger zerolog.Logger) *Service {
	return &Service{engine: engine, fallback: fallback, loader: loader, logger: logger}
}

func (s *Service) Search(ctx context.Context, q Query) Response {
	if s.engineReady() {
		results, total, err := s.engine.Search(ctx, q)
		if err == nil {
			return Response{Results: nonNil(results), Total: total, Query: q.Text}
		}
		s.logger.Warn().Err(err).Msg("primary search failed, falling back to postgres")
	}

	if s.fallback == nil {
		return Response{Results: []Result{}, Query: q.Text}
	}
	results, total, err := s.fallback.Search(ctx, q)
	if err != nil {
		s.logger.Error().Err(err).Msg("postgres search failed")
		return Response{Results: []Result{}, Total: 0, Query: q.Text}
	}
	return Response{Results: nonNil(results), Total: total, Query: q.Text}
}

func (s *Service) IndexProject(record ProjectRecord) {
	s.async("index project", record.ID, func() error { return s.engine.IndexProjects([]ProjectRecord{record}) })
}

func (s *Service) IndexSkill(record SkillRecord) {
	s.async("index skill", record.ID, func() error { return s.engine.IndexSkills([]SkillRecord{record}) })
}

func (s *Service) IndexExperience(record ExperienceRecord) {
	s.async("index experience", record.ID, func() error { return s.engine.IndexExperiences([]ExperienceRecord{record}) })
}

func (s *Service) Remove(rtyp ResultType, id string) {
	s.async("remove "+string(rtyp), id, func() error { return s.engine.Delete(rtyp, id) })
}

// ReindexAll loads every record from PostgreSQL and pushes it to the engine.
func (s *Service) ReindexAll(ctx context.Context) {
	if !s.engineReady() || s.loader == nil {
		return
	}
	projects, skills, experiences, err := s.loader.LoadAllRecords(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("reindex load failed")
		return
	}
	if len(projects) > 0 {
		if err := s.engine.IndexProjects(projects); err != nil {
			s.logger.Error().Err(err).Msg("reindex projects")
		}
	}
	if len(skills) > 0 {
		if err := s.engine.IndexSkills(skills); err != nil {
			s.logger.Error().Err(err).Msg("reindex skills")
		}
	}
	if len(experiences) > 0 {
		if err := s.engine.IndexExperiences(experiences); err != nil {
			s.logger.Error().Err(err).Msg("reindex experiences")
		}
	}
}

// Wait blocks until in-flight index updates finish.
func (s *Service) Wait() {
	s.pending.Wait()
}

func (s *Service) engineReady() bool {
	return s.engine != nil && s.engine.Healthy()
}

func (s *Service) async(op, id string, fn func() error) {
	if !s.engineReady() {
		return
	}
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		if err := fn(); err != nil {
			s.logger.Warn().Err(err).Str("id", id).Msg(op + " failed")
		}
	}()
}

func nonNil(r []Result) []Result {
	if r == nil {
		return []Result{}
	}
	return r
}
