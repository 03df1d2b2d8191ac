package app

import (
	"context"
	"encoding/json"
	"fmt"

	"portfolio/api/internal/store"
)

// Document loads every section with its nested collections attached.
// Sections and children come back sorted by order from the store.
func (s *Service) Document(ctx context.Context) ([]store.SectionDocument, error) {
	c := s.content
	sections, err := c.Sections.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sections: %w", err)
	}

	docs := make([]store.SectionDocument, len(sections))
	index := make(map[string]*store.SectionDocument, len(sections))
	for i, section := range sections {
		docs[i] = store.NewSectionDocument(section)
		index[section.ID] = &docs[i]
	}

	textBlocks, err := c.TextBlocks.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list text blocks: %w", err)
	}
	for _, item := range textBlocks {
		if doc := index[item.SectionID]; doc != nil {
			doc.TextBlocks = append(doc.TextBlocks, item)
		}
	}

	imageBlocks, err := c.ImageBlocks.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list image blocks: %w", err)
	}
	for _, item := range imageBlocks {
		if doc := index[item.SectionID]; doc != nil {
			doc.ImageBlocks = append(doc.ImageBlocks, item)
		}
	}

	projects, err := c.Projects.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	for _, item := range projects {
		if doc := index[item.SectionID]; doc != nil {
			doc.ProjectItems = append(doc.ProjectItems, item)
		}
	}

	skills, err := c.Skills.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list skills: %w", err)
	}
	for _, item := range skills {
		if doc := index[item.SectionID]; doc != nil {
			doc.SkillItems = append(doc.SkillItems, item)
		}
	}

	skillImages, err := c.SkillImages.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list skill images: %w", err)
	}
	for _, item := range skillImages {
		if doc := index[item.SectionID]; doc != nil {
			doc.SkillImages = append(doc.SkillImages, item)
		}
	}

	experienceImages, err := c.ExperienceImages.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list experience images: %w", err)
	}
	detailImages := groupByScope(experienceImages)
	experiences, err := c.Experiences.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list experiences: %w", err)
	}
	for _, item := range experiences {
		if doc := index[item.SectionID]; doc != nil {
			item.DetailImages = nonNil(detailImages[item.ID])
			doc.ExperienceItems = append(doc.ExperienceItems, item)
		}
	}

	educationImages, err := c.EducationImages.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list education images: %w", err)
	}
	schoolImages := groupByScope(educationImages)
	education, err := c.Education.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list education: %w", err)
	}
	for _, item := range education {
		if doc := index[item.SectionID]; doc != nil {
			item.Images = nonNil(schoolImages[item.ID])
			doc.EducationItems = append(doc.EducationItems, item)
		}
	}

	testimonials, err := c.Testimonials.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list testimonials: %w", err)
	}
	for _, item := range testimonials {
		if doc := index[item.SectionID]; doc != nil {
			doc.TestimonialItems = append(doc.TestimonialItems, item)
		}
	}

	contactInfo, err := c.ContactInfo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list contact info: %w", err)
	}
	for _, item := range contactInfo {
		if doc := index[item.SectionID]; doc != nil {
			doc.ContactInfoItems = append(doc.ContactInfoItems, item)
		}
	}

	customBlocks, err := c.CustomBlocks.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list custom blocks: %w", err)
	}
	for _, item := range customBlocks {
		if doc := index[item.SectionID]; doc != nil {
			doc.CustomBlocks = append(doc.CustomBlocks, item)
		}
	}

	return docs, nil
}

// DocumentJSON returns the encoded aggregate document, served from the cache
// when it holds a copy. A rebuilt copy is stored under the generation read
// before the rows, so a mutation committed meanwhile discards it.
func (s *Service) DocumentJSON(ctx context.Context) ([]byte, error) {
	var gen int64
	cacheable := s.cache != nil
	if cacheable {
		payload, current, ok, err := s.cache.Get(ctx)
		switch {
		case err != nil:
			s.logger.Warn().Err(err).Msg("sections cache read failed")
			cacheable = false
		case ok:
			return payload, nil
		}
		gen = current
	}

	docs, err := s.Document(ctx)
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal(docs)
	if err != nil {
		return nil, fmt.Errorf("encode sections: %w", err)
	}
	if cacheable {
		if err := s.cache.Set(ctx, gen, payload); err != nil {
			s.logger.Warn().Err(err).Msg("sections cache write failed")
		}
	}
	return payload, nil
}

func (s *Service) SectionDocument(ctx context.Context, id string) (store.SectionDocument, error) {
	docs, err := s.Document(ctx)
	if err != nil {
		return store.SectionDocument{}, err
	}
	for _, doc := range docs {
		if doc.ID == id {
			return doc, nil
		}
	}
	return store.SectionDocument{}, notFound("Section")
}

func (s *Service) ListCategories(ctx context.Context) ([]store.Category, error) {
	return s.content.Categories.List(ctx)
}

func groupByScope[T store.Record](items []T) map[string][]T {
	grouped := make(map[string][]T)
	for _, item := range items {
		grouped[item.Scope()] = append(grouped[item.Scope()], item)
	}
	return grouped
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
