package app

import (
	"context"
	"fmt"
	"math"
	"strings"

	"portfolio/api/internal/search"
	"portfolio/api/internal/store"
)

const (
	scopeSection    = "sectionId"
	scopeExperience = "experienceItemId"
	scopeEducation  = "educationItemId"
)

// buildResources declares every content collection exposed over HTTP.
func (s *Service) buildResources() []contentResource {
	c := s.content
	sectionExists := existsIn(c.Sections)

	sections := &resource[store.Section, store.SectionPatch]{
		svc: s, path: "sections", prefix: "sec", coll: c.Sections,
		required: []string{"slug", "title", "type"},
		init: func(item *store.Section, id, _ string) {
			*item = store.Section{ID: id, Visible: true}
		},
		validate: func(p store.SectionPatch) error {
			if p.Type.Set && !store.ValidSectionType(p.Type.Value) {
				return validationError("Invalid section type. Must be one of: " + strings.Join(store.SectionTypes, ", "))
			}
			return nil
		},
		children: s.sectionCascade,
	}

	textBlocks := &resource[store.TextBlock, store.TextBlockPatch]{
		svc: s, path: "text-blocks", prefix: "txt", coll: c.TextBlocks,
		scopeKey: scopeSection, parent: sectionExists,
		required: []string{"content"},
		init: func(item *store.TextBlock, id, scopeID string) {
			*item = store.TextBlock{ID: id, SectionID: scopeID}
		},
	}

	imageBlocks := &resource[store.ImageBlock, store.ImageBlockPatch]{
		svc: s, path: "image-blocks", prefix: "img", coll: c.ImageBlocks,
		scopeKey: scopeSection, parent: sectionExists,
		required: []string{"src"},
		image:    &imageRule{srcKey: "src", required: true},
		init: func(item *store.ImageBlock, id, scopeID string) {
			*item = store.ImageBlock{ID: id, SectionID: scopeID}
		},
		validate: func(p store.ImageBlockPatch) error {
			return positiveDimensions(p.Width.Value, p.Height.Value)
		},
	}

	projects := &resource[store.ProjectItem, store.ProjectItemPatch]{
		svc: s, path: "projects", prefix: "prj", coll: c.Projects,
		scopeKey: scopeSection, parent: sectionExists,
		required: []string{"title"},
		image:    &imageRule{srcKey: "imageSrc"},
		init: func(item *store.ProjectItem, id, scopeID string) {
			*item = store.ProjectItem{
				ID:           id,
				SectionID:    scopeID,
				Layout:       store.DefaultProjectLayout,
				Technologies: store.StringList{},
				CategoryIDs:  store.StringList{},
			}
		},
		validate: func(p store.ProjectItemPatch) error {
			if p.Layout.Set && !store.ValidProjectLayout(p.Layout.Value) {
				return validationError("Invalid layout. Must be one of: " + strings.Join(store.ProjectLayouts, ", "))
			}
			return nil
		},
		indexed: func(item store.ProjectItem) { s.indexProject(item) },
		removed: func(item store.ProjectItem) { s.unindex(search.ResultProject, item.ID) },
	}

	categories := &resource[store.Category, store.CategoryPatch]{
		svc: s, path: "categories", prefix: "cat", coll: c.Categories,
		required: []string{"name"},
		init: func(item *store.Category, id, _ string) {
			*item = store.Category{ID: id, ProjectIDs: store.StringList{}}
		},
	}

	skills := &resource[store.SkillItem, store.SkillItemPatch]{
		svc: s, path: "skills", prefix: "skl", coll: c.Skills,
		scopeKey: scopeSection, parent: sectionExists,
		required: []string{"title"},
		image:    &imageRule{srcKey: "imageSrc"},
		init: func(item *store.SkillItem, id, scopeID string) {
			*item = store.SkillItem{ID: id, SectionID: scopeID}
		},
		indexed: func(item store.SkillItem) { s.indexSkill(item) },
		removed: func(item store.SkillItem) { s.unindex(search.ResultSkill, item.ID) },
	}

	skillImages := &resource[store.SkillImage, store.SkillImagePatch]{
		svc: s, path: "skill-images", prefix: "ski", coll: c.SkillImages,
		scopeKey: scopeSection, parent: sectionExists,
		required: []string{"src"},
		image:    &imageRule{srcKey: "src", required: true},
		init: func(item *store.SkillImage, id, scopeID string) {
			*item = store.SkillImage{ID: id, SectionID: scopeID}
		},
	}

	experiences := &resource[store.ExperienceItem, store.ExperienceItemPatch]{
		svc: s, path: "experiences", prefix: "exp", coll: c.Experiences,
		scopeKey: scopeSection, parent: sectionExists,
		required: []string{"title", "company", "startDate"},
		image:    &imageRule{srcKey: "imageSrc"},
		init: func(item *store.ExperienceItem, id, scopeID string) {
			*item = store.ExperienceItem{ID: id, SectionID: scopeID}
		},
		children: func(ctx context.Context, item store.ExperienceItem) (cascade, error) {
			images, err := c.ExperienceImages.ListByScope(ctx, item.ID)
			if err != nil {
				return cascade{}, err
			}
			return cascade{assets: assetIDs(images)}, nil
		},
		indexed: func(item store.ExperienceItem) { s.indexExperience(item) },
		removed: func(item store.ExperienceItem) { s.unindex(search.ResultExperience, item.ID) },
	}

	experienceImages := &resource[store.ExperienceDetailImage, store.ExperienceDetailImagePatch]{
		svc: s, path: "experience-images", prefix: "exi", coll: c.ExperienceImages,
		scopeKey: scopeExperience, parent: existsIn(c.Experiences),
		required: []string{"src"},
		image:    &imageRule{srcKey: "src", required: true},
		init: func(item *store.ExperienceDetailImage, id, scopeID string) {
			*item = store.ExperienceDetailImage{ID: id, ExperienceItemID: scopeID}
		},
	}

	education := &resource[store.EducationItem, store.EducationItemPatch]{
		svc: s, path: "education", prefix: "edu", coll: c.Education,
		scopeKey: scopeSection, parent: sectionExists,
		required: []string{"school", "degree", "startDate"},
		image:    &imageRule{srcKey: "imageSrc"},
		init: func(item *store.EducationItem, id, scopeID string) {
			*item = store.EducationItem{ID: id, SectionID: scopeID}
		},
		children: func(ctx context.Context, item store.EducationItem) (cascade, error) {
			images, err := c.EducationImages.ListByScope(ctx, item.ID)
			if err != nil {
				return cascade{}, err
			}
			return cascade{assets: assetIDs(images)}, nil
		},
	}

	educationImages := &resource[store.EducationImage, store.EducationImagePatch]{
		svc: s, path: "education-images", prefix: "edi", coll: c.EducationImages,
		scopeKey: scopeEducation, parent: existsIn(c.Education),
		required: []string{"src"},
		image:    &imageRule{srcKey: "src", required: true},
		init: func(item *store.EducationImage, id, scopeID string) {
			*item = store.EducationImage{ID: id, EducationItemID: scopeID}
		},
	}

	testimonials := &resource[store.TestimonialItem, store.TestimonialItemPatch]{
		svc: s, path: "testimonials", prefix: "tst", coll: c.Testimonials,
		scopeKey: scopeSection, parent: sectionExists,
		required: []string{"name", "content"},
		image:    &imageRule{srcKey: "imageSrc"},
		init: func(item *store.TestimonialItem, id, scopeID string) {
			*item = store.TestimonialItem{ID: id, SectionID: scopeID, Rating: defaultRating}
		},
		validate: func(p store.TestimonialItemPatch) error {
			if p.Rating.Set && !validRating(p.Rating.Value) {
				return validationError("Rating must be a number between 0 and 5")
			}
			return nil
		},
	}

	contactInfo := &resource[store.ContactInfoItem, store.ContactInfoItemPatch]{
		svc: s, path: "contact-info", prefix: "con", coll: c.ContactInfo,
		scopeKey: scopeSection, parent: sectionExists,
		required: []string{"type", "value"},
		init: func(item *store.ContactInfoItem, id, scopeID string) {
			*item = store.ContactInfoItem{ID: id, SectionID: scopeID}
		},
		validate: func(p store.ContactInfoItemPatch) error {
			if p.Type.Set && !store.ValidContactType(p.Type.Value) {
				return validationError("Invalid contact type. Must be one of: " + strings.Join(store.ContactTypes, ", "))
			}
			return nil
		},
	}

	customBlocks := &resource[store.CustomBlock, store.CustomBlockPatch]{
		svc: s, path: "custom-blocks", prefix: "cus", coll: c.CustomBlocks,
		scopeKey: scopeSection, parent: sectionExists,
		required: []string{"type"},
		image:    &imageRule{srcKey: "imageSrc"},
		init: func(item *store.CustomBlock, id, scopeID string) {
			*item = store.CustomBlock{ID: id, SectionID: scopeID}
		},
		validate: func(p store.CustomBlockPatch) error {
			if p.Type.Set && !store.ValidCustomBlockType(p.Type.Value) {
				return validationError("Invalid block type. Must be one of: " + strings.Join(store.CustomBlockTypes, ", "))
			}
			return nil
		},
	}

	return []contentResource{
		sections, textBlocks, imageBlocks, projects, categories, skills, skillImages,
		experiences, experienceImages, education, educationImages, testimonials,
		contactInfo, customBlocks,
	}
}

// Resource looks up a content collection by its URL path segment.
func (s *Service) Resource(path string) (contentResource, bool) {
	r, ok := s.resourceByPath[path]
	return r, ok
}

// sectionCascade gathers the assets and index entries of everything nested
// under a section.
func (s *Service) sectionCascade(ctx context.Context, section store.Section) (cascade, error) {
	c := s.content
	var owned cascade

	collect := func(label string, ids []string, err error) error {
		if err != nil {
			return fmt.Errorf("list section %s: %w", label, err)
		}
		owned.assets = append(owned.assets, ids...)
		return nil
	}

	imageBlocks, err := c.ImageBlocks.ListByScope(ctx, section.ID)
	if err := collect("image blocks", assetIDs(imageBlocks), err); err != nil {
		return cascade{}, err
	}
	projects, err := c.Projects.ListByScope(ctx, section.ID)
	if err := collect("projects", assetIDs(projects), err); err != nil {
		return cascade{}, err
	}
	skills, err := c.Skills.ListByScope(ctx, section.ID)
	if err := collect("skills", assetIDs(skills), err); err != nil {
		return cascade{}, err
	}
	skillImages, err := c.SkillImages.ListByScope(ctx, section.ID)
	if err := collect("skill images", assetIDs(skillImages), err); err != nil {
		return cascade{}, err
	}
	testimonials, err := c.Testimonials.ListByScope(ctx, section.ID)
	if err := collect("testimonials", assetIDs(testimonials), err); err != nil {
		return cascade{}, err
	}
	customBlocks, err := c.CustomBlocks.ListByScope(ctx, section.ID)
	if err := collect("custom blocks", assetIDs(customBlocks), err); err != nil {
		return cascade{}, err
	}

	experiences, err := c.Experiences.ListByScope(ctx, section.ID)
	if err := collect("experiences", assetIDs(experiences), err); err != nil {
		return cascade{}, err
	}
	for _, item := range experiences {
		images, err := c.ExperienceImages.ListByScope(ctx, item.ID)
		if err := collect("experience images", assetIDs(images), err); err != nil {
			return cascade{}, err
		}
		owned.unindexed = append(owned.unindexed, indexKey{search.ResultExperience, item.ID})
	}

	education, err := c.Education.ListByScope(ctx, section.ID)
	if err := collect("education", assetIDs(education), err); err != nil {
		return cascade{}, err
	}
	for _, item := range education {
		images, err := c.EducationImages.ListByScope(ctx, item.ID)
		if err := collect("education images", assetIDs(images), err); err != nil {
			return cascade{}, err
		}
	}

	for _, item := range projects {
		owned.unindexed = append(owned.unindexed, indexKey{search.ResultProject, item.ID})
	}
	for _, item := range skills {
		owned.unindexed = append(owned.unindexed, indexKey{search.ResultSkill, item.ID})
	}
	return owned, nil
}

func assetIDs[T store.Record](items []T) []string {
	ids := make([]string, 0, len(items))
	for _, item := range items {
		if id := item.ImageID(); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

const defaultRating = 5

func validRating(value float64) bool {
	return !math.IsNaN(value) && !math.IsInf(value, 0) && value >= 0 && value <= 5
}

func positiveDimensions(values ...*int) error {
	for _, v := range values {
		if v != nil && *v <= 0 {
			return validationError("Image dimensions must be positive")
		}
	}
	return nil
}

func (s *Service) indexProject(item store.ProjectItem) {
	if s.search != nil {
		s.search.IndexProject(search.ProjectRecordFrom(item))
	}
}

func (s *Service) indexSkill(item store.SkillItem) {
	if s.search != nil {
		s.search.IndexSkill(search.SkillRecordFrom(item))
	}
}

func (s *Service) indexExperience(item store.ExperienceItem) {
	if s.search != nil {
		s.search.IndexExperience(search.ExperienceRecordFrom(item))
	}
}

func (s *Service) unindex(kind search.ResultType, id string) {
	if s.search != nil {
		s.search.Remove(kind, id)
	}
}
