package app

import (
	"context"

	"portfolio/api/internal/store"
)

// Collection is one ordered content table.
type Collection[T store.Record, P store.Patch[T]] interface {
	Label() string
	List(ctx context.Context) ([]T, error)
	ListByScope(ctx context.Context, scopeID string) ([]T, error)
	Get(ctx context.Context, id string) (T, error)
	Insert(ctx context.Context, item T) (T, error)
	Update(ctx context.Context, id string, patch P) (T, T, error)
	Delete(ctx context.Context, id string) (T, error)
	SetOrder(ctx context.Context, scopeID, id string, order int) (bool, error)
	NextOrder(ctx context.Context, scopeID string) (int, error)
}

type Collections struct {
	Sections         Collection[store.Section, store.SectionPatch]
	TextBlocks       Collection[store.TextBlock, store.TextBlockPatch]
	ImageBlocks      Collection[store.ImageBlock, store.ImageBlockPatch]
	Projects         Collection[store.ProjectItem, store.ProjectItemPatch]
	Categories       Collection[store.Category, store.CategoryPatch]
	Skills           Collection[store.SkillItem, store.SkillItemPatch]
	SkillImages      Collection[store.SkillImage, store.SkillImagePatch]
	Experiences      Collection[store.ExperienceItem, store.ExperienceItemPatch]
	ExperienceImages Collection[store.ExperienceDetailImage, store.ExperienceDetailImagePatch]
	Education        Collection[store.EducationItem, store.EducationItemPatch]
	EducationImages  Collection[store.EducationImage, store.EducationImagePatch]
	Testimonials     Collection[store.TestimonialItem, store.TestimonialItemPatch]
	ContactInfo      Collection[store.ContactInfoItem, store.ContactInfoItemPatch]
	CustomBlocks     Collection[store.CustomBlock, store.CustomBlockPatch]
}

func CollectionsFrom(pg *store.PostgresStore) Collections {
	return Collections{
		Sections:         pg.Sections(),
		TextBlocks:       pg.TextBlocks(),
		ImageBlocks:      pg.ImageBlocks(),
		Projects:         pg.Projects(),
		Categories:       pg.Categories(),
		Skills:           pg.Skills(),
		SkillImages:      pg.SkillImages(),
		Experiences:      pg.Experiences(),
		ExperienceImages: pg.ExperienceImages(),
		Education:        pg.Education(),
		EducationImages:  pg.EducationImages(),
		Testimonials:     pg.Testimonials(),
		ContactInfo:      pg.ContactInfo(),
		CustomBlocks:     pg.CustomBlocks(),
	}
}
