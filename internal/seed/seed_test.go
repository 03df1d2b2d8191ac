package seed

import (
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolio/api/internal/store"
)

type memTarget[T store.Record] struct {
	items []T
}

func (m *memTarget[T]) Insert(_ context.Context, item T) (T, error) {
	m.items = append(m.items, item)
	return item, nil
}

func (m *memTarget[T]) List(context.Context) ([]T, error) {
	return m.items, nil
}

type memTargets struct {
	sections     *memTarget[store.Section]
	categories   *memTarget[store.Category]
	projects     *memTarget[store.ProjectItem]
	experiences  *memTarget[store.ExperienceItem]
	expImages    *memTarget[store.ExperienceDetailImage]
	contactInfo  *memTarget[store.ContactInfoItem]
	testimonials *memTarget[store.TestimonialItem]
}

func newMemTargets() (Targets, *memTargets) {
	m := &memTargets{
		sections:     &memTarget[store.Section]{},
		categories:   &memTarget[store.Category]{},
		projects:     &memTarget[store.ProjectItem]{},
		experiences:  &memTarget[store.ExperienceItem]{},
		expImages:    &memTarget[store.ExperienceDetailImage]{},
		contactInfo:  &memTarget[store.ContactInfoItem]{},
		testimonials: &memTarget[store.TestimonialItem]{},
	}
	return Targets{
		Sections:         m.sections,
		Categories:       m.categories,
		TextBlocks:       &memTarget[store.TextBlock]{},
		ImageBlocks:      &memTarget[store.ImageBlock]{},
		Projects:         m.projects,
		Skills:           &memTarget[store.SkillItem]{},
		SkillImages:      &memTarget[store.SkillImage]{},
		Experiences:      m.experiences,
		ExperienceImages: m.expImages,
		Education:        &memTarget[store.EducationItem]{},
		EducationImages:  &memTarget[store.EducationImage]{},
		Testimonials:     m.testimonials,
		ContactInfo:      m.contactInfo,
		CustomBlocks:     &memTarget[store.CustomBlock]{},
	}, m
}

const sampleSeed = `
categories:
  - name: Web
  - name: CLI
sections:
  - slug: hero
    title: Hello
    type: hero
    textBlocks:
      - content: I build things.
  - slug: work
    title: Work
    type: projects
    projects:
      - title: Atlas
        technologies: [Go, Postgres]
        categories: [Web, CLI]
      - title: Beacon
        layout: layout2
  - slug: career
    title: Career
    type: experience
    hidden: true
    experiences:
      - title: Engineer
        company: Acme
        startDate: "2020-01"
        images:
          - src: https://cdn.example/a.png
          - src: https://cdn.example/b.png
  - slug: contact
    title: Contact
    type: contact
    contactInfo:
      - type: email
        value: me@example.com
    testimonials:
      - name: Dana
        content: Great
        rating: 4.5
`

func TestParseAndLoad(t *testing.T) {
	file, err := Parse(strings.NewReader(sampleSeed))
	require.NoError(t, err)

	targets, mem := newMemTargets()
	summary, err := Load(context.Background(), targets, file, zerolog.Nop())
	require.NoError(t, err)

	assert.Equal(t, 4, summary["sections"])
	assert.Equal(t, 2, summary["categories"])
	assert.Equal(t, 2, summary["projects"])
	assert.Equal(t, 2, summary["experienceImages"])

	require.Len(t, mem.sections.items, 4)
	for i, section := range mem.sections.items {
		assert.Equal(t, i, section.Order)
	}
	assert.False(t, mem.sections.items[2].Visible)
	assert.True(t, mem.sections.items[0].Visible)

	atlas, beacon := mem.projects.items[0], mem.projects.items[1]
	assert.Equal(t, mem.sections.items[1].ID, atlas.SectionID)
	assert.Equal(t, store.StringList{mem.categories.items[0].ID, mem.categories.items[1].ID}, atlas.CategoryIDs)
	assert.Equal(t, store.DefaultProjectLayout, atlas.Layout)
	assert.Equal(t, "layout2", beacon.Layout)
	assert.Equal(t, 1, beacon.Order)

	experience := mem.experiences.items[0]
	require.Len(t, mem.expImages.items, 2)
	assert.Equal(t, experience.ID, mem.expImages.items[1].ExperienceItemID)
	assert.Equal(t, 1, mem.expImages.items[1].Order)

	assert.Equal(t, 4.5, mem.testimonials.items[0].Rating)
}

func TestLoadRefusesNonEmptyPortfolio(t *testing.T) {
	targets, mem := newMemTargets()
	mem.sections.items = []store.Section{{ID: "sec_existing"}}

	_, err := Load(context.Background(), targets, File{}, zerolog.Nop())
	require.ErrorIs(t, err, ErrAlreadySeeded)
}

func TestParseRejectsInvalidFiles(t *testing.T) {
	tests := map[string]string{
		"unknown key":       "sections:\n  - slug: a\n    type: hero\n    colour: red\n",
		"bad section type":  "sections:\n  - slug: a\n    type: gallery\n",
		"missing slug":      "sections:\n  - type: hero\n",
		"duplicate slug":    "sections:\n  - slug: a\n    type: hero\n  - slug: a\n    type: custom\n",
		"unknown category":  "sections:\n  - slug: a\n    type: projects\n    projects:\n      - title: x\n        categories: [Nope]\n",
		"bad rating":        "sections:\n  - slug: a\n    type: testimonials\n    testimonials:\n      - name: x\n        rating: 7\n",
		"bad contact type":  "sections:\n  - slug: a\n    type: contact\n    contactInfo:\n      - type: fax\n        value: x\n",
		"bad layout":        "sections:\n  - slug: a\n    type: projects\n    projects:\n      - title: x\n        layout: grid\n",
		"image without src": "sections:\n  - slug: a\n    type: custom\n    imageBlocks:\n      - caption: x\n",
	}
	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(input))
			assert.Error(t, err)
		})
	}
}

func TestParseEmptyFile(t *testing.T) {
	file, err := Parse(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, file.Sections)
}
