package store

import "portfolio/api/internal/patch"

// Patch applies the supplied fields of a sparse update to a row.
type Patch[T any] interface {
	Apply(*T)
}

type SectionPatch struct {
	Slug    patch.Field[string] `json:"slug"`
	Title   patch.Field[string] `json:"title"`
	Type    patch.Field[string] `json:"type"`
	Order   patch.Field[int]    `json:"order"`
	Visible patch.Field[bool]   `json:"visible"`
}

func (p SectionPatch) Apply(s *Section) {
	set(&s.Slug, p.Slug)
	set(&s.Title, p.Title)
	set(&s.Type, p.Type)
	set(&s.Order, p.Order)
	set(&s.Visible, p.Visible)
}

type TextBlockPatch struct {
	Content    patch.Field[string]  `json:"content"`
	Order      patch.Field[int]     `json:"order"`
	FontSize   patch.Field[*string] `json:"fontSize"`
	FontFamily patch.Field[*string] `json:"fontFamily"`
}

func (p TextBlockPatch) Apply(b *TextBlock) {
	set(&b.Content, p.Content)
	set(&b.Order, p.Order)
	set(&b.FontSize, p.FontSize)
	set(&b.FontFamily, p.FontFamily)
}

type ImageBlockPatch struct {
	Src           patch.Field[string]  `json:"src"`
	ImagePublicID patch.Field[*string] `json:"imagePublicId"`
	Width         patch.Field[*int]    `json:"width"`
	Height        patch.Field[*int]    `json:"height"`
	Caption       patch.Field[*string] `json:"caption"`
	Order         patch.Field[int]     `json:"order"`
}

func (p ImageBlockPatch) Apply(b *ImageBlock) {
	set(&b.Src, p.Src)
	set(&b.ImagePublicID, p.ImagePublicID)
	set(&b.Width, p.Width)
	set(&b.Height, p.Height)
	set(&b.Caption, p.Caption)
	set(&b.Order, p.Order)
}

type ProjectItemPatch struct {
	Title         patch.Field[string]   `json:"title"`
	Description   patch.Field[string]   `json:"description"`
	ImageSrc      patch.Field[*string]  `json:"imageSrc"`
	ImagePublicID patch.Field[*string]  `json:"imagePublicId"`
	Link          patch.Field[*string]  `json:"link"`
	GithubURL     patch.Field[*string]  `json:"githubUrl"`
	Technologies  patch.Field[[]string] `json:"technologies"`
	Layout        patch.Field[string]   `json:"layout"`
	Order         patch.Field[int]      `json:"order"`
	CategoryIDs   patch.Field[[]string] `json:"categoryIds"`
}

func (p ProjectItemPatch) Apply(item *ProjectItem) {
	set(&item.Title, p.Title)
	set(&item.Description, p.Description)
	set(&item.ImageSrc, p.ImageSrc)
	set(&item.ImagePublicID, p.ImagePublicID)
	set(&item.Link, p.Link)
	set(&item.GithubURL, p.GithubURL)
	if p.Technologies.Set {
		item.Technologies = StringList(p.Technologies.Value)
	}
	set(&item.Layout, p.Layout)
	set(&item.Order, p.Order)
	if p.CategoryIDs.Set {
		item.CategoryIDs = dedupe(p.CategoryIDs.Value)
	}
}

type CategoryPatch struct {
	Name       patch.Field[string]   `json:"name"`
	Order      patch.Field[int]      `json:"order"`
	ProjectIDs patch.Field[[]string] `json:"projectIds"`
}

func (p CategoryPatch) Apply(c *Category) {
	set(&c.Name, p.Name)
	set(&c.Order, p.Order)
	if p.ProjectIDs.Set {
		c.ProjectIDs = dedupe(p.ProjectIDs.Value)
	}
}

type SkillItemPatch struct {
	Title         patch.Field[string]  `json:"title"`
	Description   patch.Field[string]  `json:"description"`
	ImageSrc      patch.Field[*string] `json:"imageSrc"`
	ImagePublicID patch.Field[*string] `json:"imagePublicId"`
	Order         patch.Field[int]     `json:"order"`
}

func (p SkillItemPatch) Apply(s *SkillItem) {
	set(&s.Title, p.Title)
	set(&s.Description, p.Description)
	set(&s.ImageSrc, p.ImageSrc)
	set(&s.ImagePublicID, p.ImagePublicID)
	set(&s.Order, p.Order)
}

type SkillImagePatch struct {
	Src           patch.Field[string]  `json:"src"`
	ImagePublicID patch.Field[*string] `json:"imagePublicId"`
	Alt           patch.Field[*string] `json:"alt"`
	Order         patch.Field[int]     `json:"order"`
}

func (p SkillImagePatch) Apply(s *SkillImage) {
	set(&s.Src, p.Src)
	set(&s.ImagePublicID, p.ImagePublicID)
	set(&s.Alt, p.Alt)
	set(&s.Order, p.Order)
}

type ExperienceItemPatch struct {
	Title         patch.Field[string]  `json:"title"`
	Company       patch.Field[string]  `json:"company"`
	Location      patch.Field[*string] `json:"location"`
	StartDate     patch.Field[string]  `json:"startDate"`
	EndDate       patch.Field[*string] `json:"endDate"`
	Description   patch.Field[string]  `json:"description"`
	ImageSrc      patch.Field[*string] `json:"imageSrc"`
	ImagePublicID patch.Field[*string] `json:"imagePublicId"`
	Order         patch.Field[int]     `json:"order"`
}

func (p ExperienceItemPatch) Apply(e *ExperienceItem) {
	set(&e.Title, p.Title)
	set(&e.Company, p.Company)
	set(&e.Location, p.Location)
	set(&e.StartDate, p.StartDate)
	set(&e.EndDate, p.EndDate)
	set(&e.Description, p.Description)
	set(&e.ImageSrc, p.ImageSrc)
	set(&e.ImagePublicID, p.ImagePublicID)
	set(&e.Order, p.Order)
}

type ExperienceDetailImagePatch struct {
	Src           patch.Field[string]  `json:"src"`
	ImagePublicID patch.Field[*string] `json:"imagePublicId"`
	Caption       patch.Field[*string] `json:"caption"`
	Order         patch.Field[int]     `json:"order"`
}

func (p ExperienceDetailImagePatch) Apply(e *ExperienceDetailImage) {
	set(&e.Src, p.Src)
	set(&e.ImagePublicID, p.ImagePublicID)
	set(&e.Caption, p.Caption)
	set(&e.Order, p.Order)
}

type EducationItemPatch struct {
	School        patch.Field[string]  `json:"school"`
	Degree        patch.Field[string]  `json:"degree"`
	Field         patch.Field[*string] `json:"field"`
	StartDate     patch.Field[string]  `json:"startDate"`
	EndDate       patch.Field[*string] `json:"endDate"`
	Description   patch.Field[string]  `json:"description"`
	ImageSrc      patch.Field[*string] `json:"imageSrc"`
	ImagePublicID patch.Field[*string] `json:"imagePublicId"`
	Order         patch.Field[int]     `json:"order"`
}

func (p EducationItemPatch) Apply(e *EducationItem) {
	set(&e.School, p.School)
	set(&e.Degree, p.Degree)
	set(&e.Field, p.Field)
	set(&e.StartDate, p.StartDate)
	set(&e.EndDate, p.EndDate)
	set(&e.Description, p.Description)
	set(&e.ImageSrc, p.ImageSrc)
	set(&e.ImagePublicID, p.ImagePublicID)
	set(&e.Order, p.Order)
}

type EducationImagePatch struct {
	Src           patch.Field[string]  `json:"src"`
	ImagePublicID patch.Field[*string] `json:"imagePublicId"`
	Caption       patch.Field[*string] `json:"caption"`
	Order         patch.Field[int]     `json:"order"`
}

func (p EducationImagePatch) Apply(e *EducationImage) {
	set(&e.Src, p.Src)
	set(&e.ImagePublicID, p.ImagePublicID)
	set(&e.Caption, p.Caption)
	set(&e.Order, p.Order)
}

type TestimonialItemPatch struct {
	Name          patch.Field[string]  `json:"name"`
	Role          patch.Field[*string] `json:"role"`
	Company       patch.Field[*string] `json:"company"`
	Content       patch.Field[string]  `json:"content"`
	Rating        patch.Field[float64] `json:"rating"`
	ImageSrc      patch.Field[*string] `json:"imageSrc"`
	ImagePublicID patch.Field[*string] `json:"imagePublicId"`
	Order         patch.Field[int]     `json:"order"`
}

func (p TestimonialItemPatch) Apply(t *TestimonialItem) {
	set(&t.Name, p.Name)
	set(&t.Role, p.Role)
	set(&t.Company, p.Company)
	set(&t.Content, p.Content)
	set(&t.Rating, p.Rating)
	set(&t.ImageSrc, p.ImageSrc)
	set(&t.ImagePublicID, p.ImagePublicID)
	set(&t.Order, p.Order)
}

type ContactInfoItemPatch struct {
	Type  patch.Field[string]  `json:"type"`
	Value patch.Field[string]  `json:"value"`
	Label patch.Field[*string] `json:"label"`
	Order patch.Field[int]     `json:"order"`
}

func (p ContactInfoItemPatch) Apply(c *ContactInfoItem) {
	set(&c.Type, p.Type)
	set(&c.Value, p.Value)
	set(&c.Label, p.Label)
	set(&c.Order, p.Order)
}

type CustomBlockPatch struct {
	Type          patch.Field[string]  `json:"type"`
	Content       patch.Field[*string] `json:"content"`
	ImageSrc      patch.Field[*string] `json:"imageSrc"`
	ImagePublicID patch.Field[*string] `json:"imagePublicId"`
	Order         patch.Field[int]     `json:"order"`
}

func (p CustomBlockPatch) Apply(c *CustomBlock) {
	set(&c.Type, p.Type)
	set(&c.Content, p.Content)
	set(&c.ImageSrc, p.ImageSrc)
	set(&c.ImagePublicID, p.ImagePublicID)
	set(&c.Order, p.Order)
}

func set[T any](dst *T, field patch.Field[T]) {
	if field.Set {
		*dst = field.Value
	}
}

func dedupe(values []string) StringList {
	seen := make(map[string]struct{}, len(values))
	out := make(StringList, 0, len(values))
	for _, value := range values {
		if value == "" {
			continue
		}
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		out = append(out, value)
	}
	return out
}
