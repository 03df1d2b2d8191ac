package store

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
)

var sectionsTable = table[Section]{
	name:    "sections",
	label:   "Section",
	columns: []string{"slug", "title", "type", "sort_order", "visible"},
	scan: func(scan func(...any) error, s *Section) error {
		return scan(&s.ID, &s.Slug, &s.Title, &s.Type, &s.Order, &s.Visible)
	},
	values: func(s Section) []any {
		return []any{s.Slug, s.Title, s.Type, s.Order, s.Visible}
	},
}

var textBlocksTable = table[TextBlock]{
	name:    "text_blocks",
	label:   "Text block",
	scope:   "section_id",
	columns: []string{"section_id", "content", "sort_order", "font_size", "font_family"},
	scan: func(scan func(...any) error, b *TextBlock) error {
		return scan(&b.ID, &b.SectionID, &b.Content, &b.Order, &b.FontSize, &b.FontFamily)
	},
	values: func(b TextBlock) []any {
		return []any{b.SectionID, b.Content, b.Order, b.FontSize, b.FontFamily}
	},
}

var imageBlocksTable = table[ImageBlock]{
	name:    "image_blocks",
	label:   "Image block",
	scope:   "section_id",
	columns: []string{"section_id", "src", "image_public_id", "width", "height", "caption", "sort_order"},
	scan: func(scan func(...any) error, b *ImageBlock) error {
		return scan(&b.ID, &b.SectionID, &b.Src, &b.ImagePublicID, &b.Width, &b.Height, &b.Caption, &b.Order)
	},
	values: func(b ImageBlock) []any {
		return []any{b.SectionID, b.Src, b.ImagePublicID, b.Width, b.Height, b.Caption, b.Order}
	},
}

var projectItemsTable = table[ProjectItem]{
	name:    "project_items",
	label:   "Project",
	scope:   "section_id",
	columns: []string{"section_id", "title", "description", "image_src", "image_public_id", "link", "github_url", "technologies", "layout", "sort_order"},
	derived: []string{
		`COALESCE((SELECT json_agg(pc.category_id ORDER BY pc.category_id) FROM project_categories pc WHERE pc.project_id = t.id), '[]'::json)::text`,
	},
	scan: func(scan func(...any) error, p *ProjectItem) error {
		return scan(&p.ID, &p.SectionID, &p.Title, &p.Description, &p.ImageSrc, &p.ImagePublicID,
			&p.Link, &p.GithubURL, &p.Technologies, &p.Layout, &p.Order, &p.CategoryIDs)
	},
	values: func(p ProjectItem) []any {
		return []any{p.SectionID, p.Title, p.Description, p.ImageSrc, p.ImagePublicID,
			p.Link, p.GithubURL, p.Technologies, p.Layout, p.Order}
	},
	afterWrite: func(ctx context.Context, tx *sql.Tx, before *ProjectItem, after ProjectItem) error {
		if before == nil && len(after.CategoryIDs) == 0 {
			return nil
		}
		if before != nil && slices.Equal(before.CategoryIDs, after.CategoryIDs) {
			return nil
		}
		return replaceMemberships(ctx, tx, membershipByProject, after.ID, after.CategoryIDs)
	},
}

var categoriesTable = table[Category]{
	name:    "categories",
	label:   "Category",
	columns: []string{"name", "sort_order"},
	derived: []string{
		`COALESCE((SELECT json_agg(pc.project_id ORDER BY pc.project_id) FROM project_categories pc WHERE pc.category_id = t.id), '[]'::json)::text`,
	},
	scan: func(scan func(...any) error, c *Category) error {
		return scan(&c.ID, &c.Name, &c.Order, &c.ProjectIDs)
	},
	values: func(c Category) []any {
		return []any{c.Name, c.Order}
	},
	afterWrite: func(ctx context.Context, tx *sql.Tx, before *Category, after Category) error {
		if before == nil && len(after.ProjectIDs) == 0 {
			return nil
		}
		if before != nil && slices.Equal(before.ProjectIDs, after.ProjectIDs) {
			return nil
		}
		return replaceMemberships(ctx, tx, membershipByCategory, after.ID, after.ProjectIDs)
	},
}

var skillItemsTable = table[SkillItem]{
	name:    "skill_items",
	label:   "Skill",
	scope:   "section_id",
	columns: []string{"section_id", "title", "description", "image_src", "image_public_id", "sort_order"},
	scan: func(scan func(...any) error, s *SkillItem) error {
		return scan(&s.ID, &s.SectionID, &s.Title, &s.Description, &s.ImageSrc, &s.ImagePublicID, &s.Order)
	},
	values: func(s SkillItem) []any {
		return []any{s.SectionID, s.Title, s.Description, s.ImageSrc, s.ImagePublicID, s.Order}
	},
}

var skillImagesTable = table[SkillImage]{
	name:    "skill_images",
	label:   "Skill image",
	scope:   "section_id",
	columns: []string{"section_id", "src", "image_public_id", "alt", "sort_order"},
	scan: func(scan func(...any) error, s *SkillImage) error {
		return scan(&s.ID, &s.SectionID, &s.Src, &s.ImagePublicID, &s.Alt, &s.Order)
	},
	values: func(s SkillImage) []any {
		return []any{s.SectionID, s.Src, s.ImagePublicID, s.Alt, s.Order}
	},
}

var experienceItemsTable = table[ExperienceItem]{
	name:    "experience_items",
	label:   "Experience",
	scope:   "section_id",
	columns: []string{"section_id", "title", "company", "location", "start_date", "end_date", "description", "image_src", "image_public_id", "sort_order"},
	scan: func(scan func(...any) error, e *ExperienceItem) error {
		return scan(&e.ID, &e.SectionID, &e.Title, &e.Company, &e.Location, &e.StartDate, &e.EndDate,
			&e.Description, &e.ImageSrc, &e.ImagePublicID, &e.Order)
	},
	values: func(e ExperienceItem) []any {
		return []any{e.SectionID, e.Title, e.Company, e.Location, e.StartDate, e.EndDate,
			e.Description, e.ImageSrc, e.ImagePublicID, e.Order}
	},
}

var experienceImagesTable = table[ExperienceDetailImage]{
	name:    "experience_detail_images",
	label:   "Experience image",
	scope:   "experience_item_id",
	columns: []string{"experience_item_id", "src", "image_public_id", "caption", "sort_order"},
	scan: func(scan func(...any) error, e *ExperienceDetailImage) error {
		return scan(&e.ID, &e.ExperienceItemID, &e.Src, &e.ImagePublicID, &e.Caption, &e.Order)
	},
	values: func(e ExperienceDetailImage) []any {
		return []any{e.ExperienceItemID, e.Src, e.ImagePublicID, e.Caption, e.Order}
	},
}

var educationItemsTable = table[EducationItem]{
	name:    "education_items",
	label:   "Education",
	scope:   "section_id",
	columns: []string{"section_id", "school", "degree", "field", "start_date", "end_date", "description", "image_src", "image_public_id", "sort_order"},
	scan: func(scan func(...any) error, e *EducationItem) error {
		return scan(&e.ID, &e.SectionID, &e.School, &e.Degree, &e.Field, &e.StartDate, &e.EndDate,
			&e.Description, &e.ImageSrc, &e.ImagePublicID, &e.Order)
	},
	values: func(e EducationItem) []any {
		return []any{e.SectionID, e.School, e.Degree, e.Field, e.StartDate, e.EndDate,
			e.Description, e.ImageSrc, e.ImagePublicID, e.Order}
	},
}

var educationImagesTable = table[EducationImage]{
	name:    "education_images",
	label:   "Education image",
	scope:   "education_item_id",
	columns: []string{"education_item_id", "src", "image_public_id", "caption", "sort_order"},
	scan: func(scan func(...any) error, e *EducationImage) error {
		return scan(&e.ID, &e.EducationItemID, &e.Src, &e.ImagePublicID, &e.Caption, &e.Order)
	},
	values: func(e EducationImage) []any {
		return []any{e.EducationItemID, e.Src, e.ImagePublicID, e.Caption, e.Order}
	},
}

var testimonialItemsTable = table[TestimonialItem]{
	name:    "testimonial_items",
	label:   "Testimonial",
	scope:   "section_id",
	columns: []string{"section_id", "name", "role", "company", "content", "rating", "image_src", "image_public_id", "sort_order"},
	scan: func(scan func(...any) error, t *TestimonialItem) error {
		return scan(&t.ID, &t.SectionID, &t.Name, &t.Role, &t.Company, &t.Content, &t.Rating,
			&t.ImageSrc, &t.ImagePublicID, &t.Order)
	},
	values: func(t TestimonialItem) []any {
		return []any{t.SectionID, t.Name, t.Role, t.Company, t.Content, t.Rating,
			t.ImageSrc, t.ImagePublicID, t.Order}
	},
}

var contactInfoItemsTable = table[ContactInfoItem]{
	name:    "contact_info_items",
	label:   "Contact info",
	scope:   "section_id",
	columns: []string{"section_id", "type", "value", "label", "sort_order"},
	scan: func(scan func(...any) error, c *ContactInfoItem) error {
		return scan(&c.ID, &c.SectionID, &c.Type, &c.Value, &c.Label, &c.Order)
	},
	values: func(c ContactInfoItem) []any {
		return []any{c.SectionID, c.Type, c.Value, c.Label, c.Order}
	},
}

var customBlocksTable = table[CustomBlock]{
	name:    "custom_section_content_blocks",
	label:   "Custom block",
	scope:   "section_id",
	columns: []string{"section_id", "type", "content", "image_src", "image_public_id", "sort_order"},
	scan: func(scan func(...any) error, c *CustomBlock) error {
		return scan(&c.ID, &c.SectionID, &c.Type, &c.Content, &c.ImageSrc, &c.ImagePublicID, &c.Order)
	},
	values: func(c CustomBlock) []any {
		return []any{c.SectionID, c.Type, c.Content, c.ImageSrc, c.ImagePublicID, c.Order}
	},
}

type membershipSide int

const (
	membershipByProject membershipSide = iota
	membershipByCategory
)

// replaceMemberships rewrites the project_categories rows owned by one side.
// Ids on the other side that do not exist are skipped.
func replaceMemberships(ctx context.Context, tx *sql.Tx, side membershipSide, ownerID string, memberIDs []string) error {
	clearQuery := `DELETE FROM project_categories WHERE project_id = $1`
	insert := `
		INSERT INTO project_categories (project_id, category_id)
		SELECT $1, c.id FROM categories c WHERE c.id = $2
		ON CONFLICT DO NOTHING
	`
	if side == membershipByCategory {
		clearQuery = `DELETE FROM project_categories WHERE category_id = $1`
		insert = `
			INSERT INTO project_categories (project_id, category_id)
			SELECT p.id, $1 FROM project_items p WHERE p.id = $2
			ON CONFLICT DO NOTHING
		`
	}

	if _, err := tx.ExecContext(ctx, clearQuery, ownerID); err != nil {
		return fmt.Errorf("clear memberships: %w", err)
	}
	for _, memberID := range memberIDs {
		if _, err := tx.ExecContext(ctx, insert, ownerID, memberID); err != nil {
			return fmt.Errorf("insert membership %s: %w", memberID, err)
		}
	}
	return nil
}
