// Package seed loads initial portfolio content from a YAML file.
package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"portfolio/api/internal/store"
	"portfolio/api/internal/util"
)

var ErrAlreadySeeded = errors.New("portfolio already has sections")

type File struct {
	Categories []Category `yaml:"categories"`
	Sections   []Section  `yaml:"sections"`
}

type Category struct {
	Name string `yaml:"name"`
}

type Section struct {
	Slug         string        `yaml:"slug"`
	Title        string        `yaml:"title"`
	Type         string        `yaml:"type"`
	Hidden       bool          `yaml:"hidden"`
	TextBlocks   []TextBlock   `yaml:"textBlocks"`
	ImageBlocks  []Image       `yaml:"imageBlocks"`
	Projects     []Project     `yaml:"projects"`
	Skills       []Skill       `yaml:"skills"`
	SkillImages  []Image       `yaml:"skillImages"`
	Experiences  []Experience  `yaml:"experiences"`
	Education    []Education   `yaml:"education"`
	Testimonials []Testimonial `yaml:"testimonials"`
	ContactInfo  []ContactInfo `yaml:"contactInfo"`
	CustomBlocks []CustomBlock `yaml:"customBlocks"`
}

type TextBlock struct {
	Content    string  `yaml:"content"`
	FontSize   *string `yaml:"fontSize"`
	FontFamily *string `yaml:"fontFamily"`
}

// Image is any image row. Caption doubles as alt text for skill images.
type Image struct {
	Src      string  `yaml:"src"`
	PublicID *string `yaml:"publicId"`
	Caption  *string `yaml:"caption"`
	Width    *int    `yaml:"width"`
	Height   *int    `yaml:"height"`
}

type Project struct {
	Title        string   `yaml:"title"`
	Description  string   `yaml:"description"`
	ImageSrc     *string  `yaml:"imageSrc"`
	PublicID     *string  `yaml:"publicId"`
	Link         *string  `yaml:"link"`
	GithubURL    *string  `yaml:"githubUrl"`
	Technologies []string `yaml:"technologies"`
	Layout       string   `yaml:"layout"`
	// Categories are category names from the file.
	Categories []string `yaml:"categories"`
}

type Skill struct {
	Title       string  `yaml:"title"`
	Description string  `yaml:"description"`
	ImageSrc    *string `yaml:"imageSrc"`
	PublicID    *string `yaml:"publicId"`
}

type Experience struct {
	Title       string  `yaml:"title"`
	Company     string  `yaml:"company"`
	Location    *string `yaml:"location"`
	StartDate   string  `yaml:"startDate"`
	EndDate     *string `yaml:"endDate"`
	Description string  `yaml:"description"`
	ImageSrc    *string `yaml:"imageSrc"`
	PublicID    *string `yaml:"publicId"`
	Images      []Image `yaml:"images"`
}

type Education struct {
	School      string  `yaml:"school"`
	Degree      string  `yaml:"degree"`
	Field       *string `yaml:"field"`
	StartDate   string  `yaml:"startDate"`
	EndDate     *string `yaml:"endDate"`
	Description string  `yaml:"description"`
	ImageSrc    *string `yaml:"imageSrc"`
	PublicID    *string `yaml:"publicId"`
	Images      []Image `yaml:"images"`
}

type Testimonial struct {
	Name     string  `yaml:"name"`
	Role     *string `yaml:"role"`
	Company  *string `yaml:"company"`
	Content  string  `yaml:"content"`
	Rating   float64 `yaml:"rating"`
	ImageSrc *string `yaml:"imageSrc"`
	PublicID *string `yaml:"publicId"`
}

type ContactInfo struct {
	Type  string  `yaml:"type"`
	Value string  `yaml:"value"`
	Label *string `yaml:"label"`
}

type CustomBlock struct {
	Type     string  `yaml:"type"`
	Content  *string `yaml:"content"`
	ImageSrc *string `yaml:"imageSrc"`
	PublicID *string `yaml:"publicId"`
}

// Parse decodes and validates a seed file. Unknown keys are rejected.
func Parse(r io.Reader) (File, error) {
	var file File
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return File{}, fmt.Errorf("decode seed file: %w", err)
	}
	if err := file.validate(); err != nil {
		return File{}, err
	}
	return file, nil
}

func (f File) validate() error {
	categories := map[string]bool{}
	for i, category := range f.Categories {
		name := strings.TrimSpace(category.Name)
		if name == "" {
			return fmt.Errorf("categories[%d]: name is required", i)
		}
		if categories[name] {
			return fmt.Errorf("categories[%d]: duplicate name %q", i, name)
		}
		categories[name] = true
	}

	slugs := map[string]bool{}
	for i, section := range f.Sections {
		where := fmt.Sprintf("sections[%d]", i)
		if strings.TrimSpace(section.Slug) == "" {
			return fmt.Errorf("%s: slug is required", where)
		}
		if slugs[section.Slug] {
			return fmt.Errorf("%s: duplicate slug %q", where, section.Slug)
		}
		slugs[section.Slug] = true
		if !store.ValidSectionType(section.Type) {
			return fmt.Errorf("%s: type must be one of %s", where, strings.Join(store.SectionTypes, ", "))
		}
		for j, project := range section.Projects {
			if project.Title == "" {
				return fmt.Errorf("%s.projects[%d]: title is required", where, j)
			}
			if project.Layout != "" && !store.ValidProjectLayout(project.Layout) {
				return fmt.Errorf("%s.projects[%d]: layout must be one of %s", where, j, strings.Join(store.ProjectLayouts, ", "))
			}
			for _, name := range project.Categories {
				if !categories[name] {
					return fmt.Errorf("%s.projects[%d]: unknown category %q", where, j, name)
				}
			}
		}
		for j, testimonial := range section.Testimonials {
			if math.IsNaN(testimonial.Rating) || testimonial.Rating < 0 || testimonial.Rating > 5 {
				return fmt.Errorf("%s.testimonials[%d]: rating must be between 0 and 5", where, j)
			}
		}
		for j, contact := range section.ContactInfo {
			if !store.ValidContactType(contact.Type) {
				return fmt.Errorf("%s.contactInfo[%d]: type must be one of %s", where, j, strings.Join(store.ContactTypes, ", "))
			}
		}
		for j, block := range section.CustomBlocks {
			if !store.ValidCustomBlockType(block.Type) {
				return fmt.Errorf("%s.customBlocks[%d]: type must be one of %s", where, j, strings.Join(store.CustomBlockTypes, ", "))
			}
		}
		for _, images := range [][]Image{section.ImageBlocks, section.SkillImages} {
			for j, image := range images {
				if image.Src == "" {
					return fmt.Errorf("%s: image %d src is required", where, j)
				}
			}
		}
	}
	return nil
}

type inserter[T store.Record] interface {
	Insert(ctx context.Context, item T) (T, error)
}

type sectionTarget interface {
	inserter[store.Section]
	List(ctx context.Context) ([]store.Section, error)
}

// Targets are the collections a seed writes into.
type Targets struct {
	Sections         sectionTarget
	Categories       inserter[store.Category]
	TextBlocks       inserter[store.TextBlock]
	ImageBlocks      inserter[store.ImageBlock]
	Projects         inserter[store.ProjectItem]
	Skills           inserter[store.SkillItem]
	SkillImages      inserter[store.SkillImage]
	Experiences      inserter[store.ExperienceItem]
	ExperienceImages inserter[store.ExperienceDetailImage]
	Education        inserter[store.EducationItem]
	EducationImages  inserter[store.EducationImage]
	Testimonials     inserter[store.TestimonialItem]
	ContactInfo      inserter[store.ContactInfoItem]
	CustomBlocks     inserter[store.CustomBlock]
}

func TargetsFrom(pg *store.PostgresStore) Targets {
	return Targets{
		Sections:         pg.Sections(),
		Categories:       pg.Categories(),
		TextBlocks:       pg.TextBlocks(),
		ImageBlocks:      pg.ImageBlocks(),
		Projects:         pg.Projects(),
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

// Summary counts inserted rows by collection.
type Summary map[string]int

// Load writes the file into an empty portfolio. Rows are ordered as listed.
func Load(ctx context.Context, targets Targets, file File, logger zerolog.Logger) (Summary, error) {
	existing, err := targets.Sections.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sections: %w", err)
	}
	if len(existing) > 0 {
		return nil, ErrAlreadySeeded
	}

	summary := Summary{}
	categoryIDs := map[string]string{}
	for i, category := range file.Categories {
		created, err := targets.Categories.Insert(ctx, store.Category{
			ID:    util.NewID("cat"),
			Name:  strings.TrimSpace(category.Name),
			Order: i,
		})
		if err != nil {
			return summary, fmt.Errorf("insert category %q: %w", category.Name, err)
		}
		categoryIDs[created.Name] = created.ID
		summary["categories"]++
	}

	for i, section := range file.Sections {
		created, err := targets.Sections.Insert(ctx, store.Section{
			ID:      util.NewID("sec"),
			Slug:    section.Slug,
			Title:   section.Title,
			Type:    section.Type,
			Order:   i,
			Visible: !section.Hidden,
		})
		if err != nil {
			return summary, fmt.Errorf("insert section %q: %w", section.Slug, err)
		}
		summary["sections"]++
		if err := loadSectionContent(ctx, targets, created.ID, section, categoryIDs, summary); err != nil {
			return summary, fmt.Errorf("section %q: %w", section.Slug, err)
		}
		logger.Info().Str("slug", section.Slug).Msg("seeded section")
	}
	return summary, nil
}

func loadSectionContent(ctx context.Context, t Targets, sectionID string, section Section, categoryIDs map[string]string, summary Summary) error {
	for i, block := range section.TextBlocks {
		if _, err := t.TextBlocks.Insert(ctx, store.TextBlock{
			ID: util.NewID("txt"), SectionID: sectionID, Content: block.Content, Order: i,
			FontSize: block.FontSize, FontFamily: block.FontFamily,
		}); err != nil {
			return fmt.Errorf("insert text block: %w", err)
		}
		summary["textBlocks"]++
	}
	for i, image := range section.ImageBlocks {
		if _, err := t.ImageBlocks.Insert(ctx, store.ImageBlock{
			ID: util.NewID("img"), SectionID: sectionID, Src: image.Src, ImagePublicID: image.PublicID,
			Width: image.Width, Height: image.Height, Caption: image.Caption, Order: i,
		}); err != nil {
			return fmt.Errorf("insert image block: %w", err)
		}
		summary["imageBlocks"]++
	}
	for i, project := range section.Projects {
		layout := project.Layout
		if layout == "" {
			layout = store.DefaultProjectLayout
		}
		categories := make(store.StringList, 0, len(project.Categories))
		for _, name := range project.Categories {
			categories = append(categories, categoryIDs[name])
		}
		if _, err := t.Projects.Insert(ctx, store.ProjectItem{
			ID: util.NewID("prj"), SectionID: sectionID, Title: project.Title, Description: project.Description,
			ImageSrc: project.ImageSrc, ImagePublicID: project.PublicID, Link: project.Link, GithubURL: project.GithubURL,
			Technologies: store.StringList(project.Technologies), Layout: layout, Order: i, CategoryIDs: categories,
		}); err != nil {
			return fmt.Errorf("insert project %q: %w", project.Title, err)
		}
		summary["projects"]++
	}
	for i, skill := range section.Skills {
		if _, err := t.Skills.Insert(ctx, store.SkillItem{
			ID: util.NewID("skl"), SectionID: sectionID, Title: skill.Title, Description: skill.Description,
			ImageSrc: skill.ImageSrc, ImagePublicID: skill.PublicID, Order: i,
		}); err != nil {
			return fmt.Errorf("insert skill %q: %w", skill.Title, err)
		}
		summary["skills"]++
	}
	for i, image := range section.SkillImages {
		if _, err := t.SkillImages.Insert(ctx, store.SkillImage{
			ID: util.NewID("ski"), SectionID: sectionID, Src: image.Src, ImagePublicID: image.PublicID,
			Alt: image.Caption, Order: i,
		}); err != nil {
			return fmt.Errorf("insert skill image: %w", err)
		}
		summary["skillImages"]++
	}
	for i, experience := range section.Experiences {
		created, err := t.Experiences.Insert(ctx, store.ExperienceItem{
			ID: util.NewID("exp"), SectionID: sectionID, Title: experience.Title, Company: experience.Company,
			Location: experience.Location, StartDate: experience.StartDate, EndDate: experience.EndDate,
			Description: experience.Description, ImageSrc: experience.ImageSrc, ImagePublicID: experience.PublicID, Order: i,
		})
		if err != nil {
			return fmt.Errorf("insert experience %q: %w", experience.Title, err)
		}
		summary["experiences"]++
		for j, image := range experience.Images {
			if _, err := t.ExperienceImages.Insert(ctx, store.ExperienceDetailImage{
				ID: util.NewID("exi"), ExperienceItemID: created.ID, Src: image.Src,
				ImagePublicID: image.PublicID, Caption: image.Caption, Order: j,
			}); err != nil {
				return fmt.Errorf("insert experience image: %w", err)
			}
			summary["experienceImages"]++
		}
	}
	for i, education := range section.Education {
		created, err := t.Education.Insert(ctx, store.EducationItem{
			ID: util.NewID("edu"), SectionID: sectionID, School: education.School, Degree: education.Degree,
			Field: education.Field, StartDate: education.StartDate, EndDate: education.EndDate,
			Description: education.Description, ImageSrc: education.ImageSrc, ImagePublicID: education.PublicID, Order: i,
		})
		if err != nil {
			return fmt.Errorf("insert education %q: %w", education.School, err)
		}
		summary["education"]++
		for j, image := range education.Images {
			if _, err := t.EducationImages.Insert(ctx, store.EducationImage{
				ID: util.NewID("edi"), EducationItemID: created.ID, Src: image.Src,
				ImagePublicID: image.PublicID, Caption: image.Caption, Order: j,
			}); err != nil {
				return fmt.Errorf("insert education image: %w", err)
			}
			summary["educationImages"]++
		}
	}
	for i, testimonial := range section.Testimonials {
		if _, err := t.Testimonials.Insert(ctx, store.TestimonialItem{
			ID: util.NewID("tst"), SectionID: sectionID, Name: testimonial.Name, Role: testimonial.Role,
			Company: testimonial.Company, Content: testimonial.Content, Rating: testimonial.Rating,
			ImageSrc: testimonial.ImageSrc, ImagePublicID: testimonial.PublicID, Order: i,
		}); err != nil {
			return fmt.Errorf("insert testimonial %q: %w", testimonial.Name, err)
		}
		summary["testimonials"]++
	}
	for i, contact := range section.ContactInfo {
		if _, err := t.ContactInfo.Insert(ctx, store.ContactInfoItem{
			ID: util.NewID("con"), SectionID: sectionID, Type: contact.Type, Value: contact.Value,
			Label: contact.Label, Order: i,
		}); err != nil {
			return fmt.Errorf("insert contact info: %w", err)
		}
		summary["contactInfo"]++
	}
	for i, block := range section.CustomBlocks {
		if _, err := t.CustomBlocks.Insert(ctx, store.CustomBlock{
			ID: util.NewID("cus"), SectionID: sectionID, Type: block.Type, Content: block.Content,
			ImageSrc: block.ImageSrc, ImagePublicID: block.PublicID, Order: i,
		}); err != nil {
			return fmt.Errorf("insert custom block: %w", err)
		}
		summary["customBlocks"]++
	}
	return nil
}
