package search

import (
	"context"
	"strings"

	"portfolio/api/internal/store"
)

// ResultType identifies the kind of entity in a search result.
type ResultType string

const (
	ResultProject    ResultType = "project"
	ResultSkill      ResultType = "skill"
	ResultExperience ResultType = "experience"
)

// ParseResultType accepts the public filter names; anything else means all
// types.
func ParseResultType(value string) ResultType {
	switch ResultType(strings.ToLower(strings.TrimSpace(value))) {
	case ResultProject:
		return ResultProject
	case ResultSkill:
		return ResultSkill
	case ResultExperience:
		return ResultExperience
	default:
		return ""
	}
}

type Result struct {
	Type      ResultType `json:"type"`
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Snippet   string     `json:"snippet"`
	SectionID string     `json:"sectionId"`
}

type Query struct {
	Text       string
	FilterType ResultType // empty = all types
	Limit      int
	Offset     int
}

// Response is the envelope returned by the search endpoint.
type Response struct {
	Results []Result `json:"results"`
	Total   int      `json:"total"`
	Query   string   `json:"query"`
}

// Searcher can execute a full-text search.
type Searcher interface {
	Search(ctx context.Context, q Query) ([]Result, int, error)
	Healthy() bool
}

// Indexer can push entities into a search index.
type Indexer interface {
	IndexProjects(records []ProjectRecord) error
	IndexSkills(records []SkillRecord) error
	IndexExperiences(records []ExperienceRecord) error
	Delete(rtyp ResultType, id string) error
	Healthy() bool
}

// Engine is a primary search backend that also owns its index.
type Engine interface {
	Searcher
	Indexer
}

type ProjectRecord struct {
	ID           string   `json:"id"`
	SectionID    string   `json:"sectionId"`
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Technologies []string `json:"technologies"`
}

type SkillRecord struct {
	ID          string `json:"id"`
	SectionID   string `json:"sectionId"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

type ExperienceRecord struct {
	ID          string `json:"id"`
	SectionID   string `json:"sectionId"`
	Title       string `json:"title"`
	Company     string `json:"company"`
	Description string `json:"description"`
}

func ProjectRecordFrom(p store.ProjectItem) ProjectRecord {
	technologies := []string(p.Technologies)
	if technologies == nil {
		technologies = []string{}
	}
	return ProjectRecord{ID: p.ID, SectionID: p.SectionID, Title: p.Title, Description: p.Description, Technologies: technologies}
}

func SkillRecordFrom(s store.SkillItem) SkillRecord {
	return SkillRecord{ID: s.ID, SectionID: s.SectionID, Title: s.Title, Description: s.Description}
}

func ExperienceRecordFrom(e store.ExperienceItem) ExperienceRecord {
	return ExperienceRecord{ID: e.ID, SectionID: e.SectionID, Title: e.Title, Company: e.Company, Description: e.Description}
}
